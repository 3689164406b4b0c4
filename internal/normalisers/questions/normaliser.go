// Package questions normalises written question records.
package questions

import (
	"encoding/json"
	"fmt"

	"github.com/openparl/parlsearch/internal/core/domain"
	"github.com/openparl/parlsearch/internal/core/ports/driven"
	"github.com/openparl/parlsearch/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser maps raw written question JSON into
// domain.ParliamentaryQuestion.
type Normaliser struct{}

// NewNormaliser creates a questions normaliser.
func NewNormaliser() *Normaliser {
	return &Normaliser{}
}

// Source returns the source this normaliser understands.
func (n *Normaliser) Source() domain.Source {
	return domain.SourceQuestions
}

// rawQuestion mirrors the upstream payload with lenient field types.
// Unknown fields are dropped by encoding/json.
type rawQuestion struct {
	ID                int                `json:"id"`
	UIN               string             `json:"uin"`
	House             normalisers.House  `json:"house"`
	Heading           string             `json:"heading"`
	AskingMemberID    int                `json:"askingMemberId"`
	AskingMember      *domain.Member     `json:"askingMember"`
	AnsweringMemberID int                `json:"answeringMemberId"`
	AnsweringMember   *domain.Member     `json:"answeringMember"`
	AnsweringBodyID   int                `json:"answeringBodyId"`
	AnsweringBodyName string             `json:"answeringBodyName"`
	DateTabled        normalisers.Date   `json:"dateTabled"`
	DateAnswered      *normalisers.Date  `json:"dateAnswered"`
	QuestionText      string             `json:"questionText"`
	AnswerText        string             `json:"answerText"`
}

// Normalise maps one raw record. Identity comes from the upstream id
// alone; unanswered questions (no answer fields) are valid.
func (n *Normaliser) Normalise(raw domain.RawRecord) (domain.Document, *domain.SkippedRecord) {
	var rq rawQuestion
	if err := json.Unmarshal(raw.Body, &rq); err != nil {
		return nil, &domain.SkippedRecord{
			Source: domain.SourceQuestions,
			Reason: fmt.Sprintf("unparseable question record: %v", err),
		}
	}

	switch {
	case rq.ID == 0:
		return nil, &domain.SkippedRecord{Source: domain.SourceQuestions, Reason: "missing question id"}
	case rq.DateTabled.IsZero():
		return nil, &domain.SkippedRecord{Source: domain.SourceQuestions, Reason: fmt.Sprintf("question %d has no dateTabled", rq.ID)}
	case rq.QuestionText == "":
		return nil, &domain.SkippedRecord{Source: domain.SourceQuestions, Reason: fmt.Sprintf("question %d has empty text", rq.ID)}
	}

	question := &domain.ParliamentaryQuestion{
		ID:                rq.ID,
		UIN:               rq.UIN,
		House:             string(rq.House),
		Heading:           rq.Heading,
		AskingMemberID:    rq.AskingMemberID,
		AskingMember:      rq.AskingMember,
		AnsweringMemberID: rq.AnsweringMemberID,
		AnsweringMember:   rq.AnsweringMember,
		AnsweringBodyID:   rq.AnsweringBodyID,
		AnsweringBodyName: rq.AnsweringBodyName,
		DateTabled:        rq.DateTabled.Time,
		QuestionText:      rq.QuestionText,
		AnswerText:        rq.AnswerText,
	}
	if rq.DateAnswered != nil && !rq.DateAnswered.IsZero() {
		answered := rq.DateAnswered.Time
		question.DateAnswered = &answered
	}

	return question, nil
}
