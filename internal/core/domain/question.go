package domain

import (
	"fmt"
	"strings"
	"time"
)

// Member is a parliamentary member as returned by the questions API.
type Member struct {
	ID         int    `json:"id"`
	Name       string `json:"name,omitempty"`
	Party      string `json:"party,omitempty"`
	MemberFrom string `json:"memberFrom,omitempty"`
}

// ParliamentaryQuestion is a written question tabled in Parliament,
// optionally with its answer. Unanswered questions are valid; the answer
// fields are simply absent.
type ParliamentaryQuestion struct {
	ID                int        `json:"id"`
	UIN               string     `json:"uin,omitempty"`
	House             string     `json:"house,omitempty"`
	Heading           string     `json:"heading,omitempty"`
	AskingMemberID    int        `json:"askingMemberId,omitempty"`
	AskingMember      *Member    `json:"askingMember,omitempty"`
	AnsweringMemberID int        `json:"answeringMemberId,omitempty"`
	AnsweringMember   *Member    `json:"answeringMember,omitempty"`
	AnsweringBodyID   int        `json:"answeringBodyId,omitempty"`
	AnsweringBodyName string     `json:"answeringBodyName,omitempty"`
	DateTabled        time.Time  `json:"dateTabled"`
	DateAnswered      *time.Time `json:"dateAnswered,omitempty"`
	QuestionText      string     `json:"questionText,omitempty"`
	AnswerText        string     `json:"answerText,omitempty"`
	ContentHash       string     `json:"content_hash,omitempty"`
}

// Ensure ParliamentaryQuestion implements Document.
var _ Document = (*ParliamentaryQuestion)(nil)

// DocumentURI returns the identity key, derived from the upstream id.
func (q *ParliamentaryQuestion) DocumentURI() string {
	return fmt.Sprintf("pq_%d", q.ID)
}

// EmbeddableText combines question and answer into the text that is
// embedded for semantic search.
func (q *ParliamentaryQuestion) EmbeddableText() string {
	return strings.TrimSpace(fmt.Sprintf("QUESTION: %s\n ANSWER: %s", q.QuestionText, q.AnswerText))
}

// Source identifies the producing API.
func (q *ParliamentaryQuestion) Source() Source {
	return SourceQuestions
}

// IsTruncated reports whether the upstream summary cut the question or
// answer text short. Truncated questions are re-fetched individually for
// the full text.
func (q *ParliamentaryQuestion) IsTruncated() bool {
	return strings.HasSuffix(q.QuestionText, "...") || strings.HasSuffix(q.AnswerText, "...")
}
