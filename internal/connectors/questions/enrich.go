package questions

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/openparl/parlsearch/internal/connectors"
	"github.com/openparl/parlsearch/internal/core/domain"
	"github.com/openparl/parlsearch/internal/core/ports/driven"
	"github.com/openparl/parlsearch/internal/logger"
)

// Ensure FullTextEnricher implements the interface.
var _ driven.Enricher = (*FullTextEnricher)(nil)

// FullTextEnricher re-fetches questions whose list-endpoint summary was
// truncated, replacing question and answer text with the full versions.
type FullTextEnricher struct {
	client  *connectors.Client
	baseURL string
}

// NewFullTextEnricher creates an enricher backed by the same
// rate-limited client as the connector.
func NewFullTextEnricher(client *connectors.Client, baseURL string) *FullTextEnricher {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &FullTextEnricher{client: client, baseURL: baseURL}
}

// Enrich fetches the full text for truncated questions. Fetch failures
// keep the truncated text; a shortened document beats a lost one.
func (e *FullTextEnricher) Enrich(ctx context.Context, doc domain.Document) (domain.Document, error) {
	question, ok := doc.(*domain.ParliamentaryQuestion)
	if !ok || !question.IsTruncated() {
		return doc, nil
	}

	params := url.Values{}
	params.Set("expandMember", "true")

	reqURL := fmt.Sprintf("%s/writtenquestions/questions/%d", e.baseURL, question.ID)

	var envelope struct {
		Value json.RawMessage `json:"value"`
	}
	if err := e.client.GetJSON(ctx, reqURL, params, &envelope); err != nil {
		logger.Warn("Failed to fetch full question %d: %v", question.ID, err)
		return doc, nil
	}

	// Only the text fields are wanted; upstream date formats differ from
	// the canonical model's.
	var full struct {
		QuestionText string `json:"questionText"`
		AnswerText   string `json:"answerText"`
	}
	if err := json.Unmarshal(envelope.Value, &full); err != nil {
		logger.Warn("Failed to decode full question %d: %v", question.ID, err)
		return doc, nil
	}

	enriched := *question
	enriched.QuestionText = full.QuestionText
	enriched.AnswerText = full.AnswerText
	return &enriched, nil
}
