// Package hansard normalises debate contribution records.
package hansard

import (
	"encoding/json"
	"fmt"

	"github.com/openparl/parlsearch/internal/core/domain"
	"github.com/openparl/parlsearch/internal/core/ports/driven"
	"github.com/openparl/parlsearch/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser maps raw Hansard contribution JSON into
// domain.Contribution.
type Normaliser struct{}

// NewNormaliser creates a Hansard normaliser.
func NewNormaliser() *Normaliser {
	return &Normaliser{}
}

// Source returns the source this normaliser understands.
func (n *Normaliser) Source() domain.Source {
	return domain.SourceHansard
}

// rawContribution mirrors the upstream payload with lenient field types.
type rawContribution struct {
	ContributionExtID    string            `json:"ContributionExtId"`
	ItemID               int               `json:"ItemId"`
	MemberID             int               `json:"MemberId"`
	MemberName           string            `json:"MemberName"`
	AttributedTo         string            `json:"AttributedTo"`
	House                normalisers.House `json:"House"`
	SittingDate          normalisers.Date  `json:"SittingDate"`
	DebateSection        string            `json:"DebateSection"`
	DebateSectionExtID   string            `json:"DebateSectionExtId"`
	OrderInDebateSection int               `json:"OrderInDebateSection"`
	ContributionText     string            `json:"ContributionText"`
	ContributionTextFull string            `json:"ContributionTextFull"`
}

// Normalise maps one raw record. The identity key needs the debate
// external id; contributions with no text carry nothing searchable and
// are skipped.
func (n *Normaliser) Normalise(raw domain.RawRecord) (domain.Document, *domain.SkippedRecord) {
	var rc rawContribution
	if err := json.Unmarshal(raw.Body, &rc); err != nil {
		return nil, &domain.SkippedRecord{
			Source: domain.SourceHansard,
			Reason: fmt.Sprintf("unparseable contribution record: %v", err),
		}
	}

	switch {
	case rc.DebateSectionExtID == "":
		return nil, &domain.SkippedRecord{Source: domain.SourceHansard, Reason: "missing debate section external id"}
	case rc.SittingDate.IsZero():
		return nil, &domain.SkippedRecord{Source: domain.SourceHansard, Reason: fmt.Sprintf("contribution in debate %s has no sitting date", rc.DebateSectionExtID)}
	case rc.ContributionTextFull == "":
		return nil, &domain.SkippedRecord{Source: domain.SourceHansard, Reason: fmt.Sprintf("contribution in debate %s has empty text", rc.DebateSectionExtID)}
	}

	return &domain.Contribution{
		ContributionExtID:    rc.ContributionExtID,
		ItemID:               rc.ItemID,
		MemberID:             rc.MemberID,
		MemberName:           rc.MemberName,
		AttributedTo:         rc.AttributedTo,
		House:                string(rc.House),
		SittingDate:          rc.SittingDate.Time,
		DebateSection:        rc.DebateSection,
		DebateSectionExtID:   rc.DebateSectionExtID,
		OrderInDebateSection: rc.OrderInDebateSection,
		Text:                 rc.ContributionText,
		TextFull:             rc.ContributionTextFull,
	}, nil
}
