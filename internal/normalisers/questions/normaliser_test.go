package questions

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openparl/parlsearch/internal/core/domain"
)

func rawRecord(t *testing.T, body string) domain.RawRecord {
	t.Helper()
	require.True(t, json.Valid([]byte(body)))
	return domain.RawRecord{Source: domain.SourceQuestions, Body: json.RawMessage(body)}
}

func TestNormalise(t *testing.T) {
	t.Run("maps a full record", func(t *testing.T) {
		n := NewNormaliser()

		doc, skip := n.Normalise(rawRecord(t, `{
			"id": 1743500,
			"uin": "901234",
			"house": 1,
			"heading": "NHS Dentistry",
			"askingMemberId": 4099,
			"askingMember": {"id": 4099, "name": "Jim Example", "party": "Labour", "memberFrom": "Testshire"},
			"answeringBodyId": 17,
			"answeringBodyName": "Department of Health and Social Care",
			"dateTabled": "2024-06-10T00:00:00",
			"dateAnswered": "2024-06-12T00:00:00",
			"questionText": "What steps her Department is taking.",
			"answerText": "We are investing."
		}`))

		require.Nil(t, skip)
		q, ok := doc.(*domain.ParliamentaryQuestion)
		require.True(t, ok)

		assert.Equal(t, 1743500, q.ID)
		assert.Equal(t, "pq_1743500", q.DocumentURI())
		assert.Equal(t, "901234", q.UIN)
		assert.Equal(t, "Commons", q.House)
		assert.Equal(t, "NHS Dentistry", q.Heading)
		require.NotNil(t, q.AskingMember)
		assert.Equal(t, "Labour", q.AskingMember.Party)
		assert.Equal(t, "2024-06-10", q.DateTabled.Format("2006-01-02"))
		require.NotNil(t, q.DateAnswered)
		assert.Equal(t, "2024-06-12", q.DateAnswered.Format("2006-01-02"))
	})

	t.Run("unanswered question is valid", func(t *testing.T) {
		n := NewNormaliser()

		doc, skip := n.Normalise(rawRecord(t, `{
			"id": 42,
			"dateTabled": "2024-06-10T00:00:00",
			"dateAnswered": null,
			"questionText": "What steps."
		}`))

		require.Nil(t, skip)
		q := doc.(*domain.ParliamentaryQuestion)
		assert.Nil(t, q.DateAnswered)
		assert.Empty(t, q.AnswerText)
	})

	t.Run("unknown fields are tolerated", func(t *testing.T) {
		n := NewNormaliser()

		doc, skip := n.Normalise(rawRecord(t, `{
			"id": 7,
			"dateTabled": "2024-06-10T00:00:00",
			"questionText": "What steps.",
			"memberHasInterest": false,
			"attachmentCount": 2
		}`))

		require.Nil(t, skip)
		assert.NotNil(t, doc)
	})

	t.Run("skips record without id", func(t *testing.T) {
		n := NewNormaliser()

		doc, skip := n.Normalise(rawRecord(t, `{"dateTabled": "2024-06-10T00:00:00", "questionText": "x"}`))

		assert.Nil(t, doc)
		require.NotNil(t, skip)
		assert.Equal(t, domain.SourceQuestions, skip.Source)
		assert.Contains(t, skip.Reason, "missing question id")
	})

	t.Run("skips record without dateTabled", func(t *testing.T) {
		n := NewNormaliser()

		doc, skip := n.Normalise(rawRecord(t, `{"id": 9, "questionText": "x"}`))

		assert.Nil(t, doc)
		require.NotNil(t, skip)
		assert.Contains(t, skip.Reason, "dateTabled")
	})

	t.Run("skips record without question text", func(t *testing.T) {
		n := NewNormaliser()

		doc, skip := n.Normalise(rawRecord(t, `{"id": 9, "dateTabled": "2024-06-10T00:00:00"}`))

		assert.Nil(t, doc)
		require.NotNil(t, skip)
	})

	t.Run("skips unparseable record", func(t *testing.T) {
		n := NewNormaliser()

		doc, skip := n.Normalise(domain.RawRecord{
			Source: domain.SourceQuestions,
			Body:   json.RawMessage(`{"id": "not-a-number"}`),
		})

		assert.Nil(t, doc)
		require.NotNil(t, skip)
		assert.Contains(t, skip.Reason, "unparseable")
	})
}
