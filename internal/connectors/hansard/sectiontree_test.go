package hansard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openparl/parlsearch/internal/core/domain"
)

// sectionTreeServer serves one section with a two-level hierarchy:
// section 11 (ext "CHILD") under section 10 (ext "ROOT").
func sectionTreeServer(t *testing.T, calls *atomic.Int32) *httptest.Server {
	root := map[string]any{"Id": 10, "Title": "Commons Chamber", "ParentId": nil, "ExternalId": "ROOT"}
	child := map[string]any{"Id": 11, "Title": "Oral Answers", "ParentId": 10, "ExternalId": "CHILD"}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		switch r.URL.Path {
		case "/overview/sectionsforday.json":
			assert.Equal(t, "Commons", r.URL.Query().Get("house"))
			json.NewEncoder(w).Encode([]int{10})
		case "/overview/sectiontrees.json":
			json.NewEncoder(w).Encode([]map[string]any{
				{"SectionTreeItems": []map[string]any{root, child}},
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
}

func testContribution() *domain.Contribution {
	return &domain.Contribution{
		House:              "Commons",
		SittingDate:        time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC),
		DebateSectionExtID: "CHILD",
		ContributionExtID:  "C1",
	}
}

func TestParentsEnricher(t *testing.T) {
	t.Run("attaches the hierarchy up to the root", func(t *testing.T) {
		var calls atomic.Int32
		server := sectionTreeServer(t, &calls)
		defer server.Close()

		enricher := NewParentsEnricher(testClient(), server.URL)
		doc, err := enricher.Enrich(context.Background(), testContribution())

		require.NoError(t, err)
		c := doc.(*domain.Contribution)
		require.Len(t, c.DebateParents, 2)
		assert.Equal(t, "Oral Answers", c.DebateParents[0].Title)
		assert.Equal(t, "Commons Chamber", c.DebateParents[1].Title)
		assert.Nil(t, c.DebateParents[1].ParentID)
	})

	t.Run("caches trees per sitting day", func(t *testing.T) {
		var calls atomic.Int32
		server := sectionTreeServer(t, &calls)
		defer server.Close()

		enricher := NewParentsEnricher(testClient(), server.URL)
		ctx := context.Background()

		_, err := enricher.Enrich(ctx, testContribution())
		require.NoError(t, err)
		after := calls.Load()

		_, err = enricher.Enrich(ctx, testContribution())
		require.NoError(t, err)

		assert.Equal(t, after, calls.Load())
	})

	t.Run("unknown section leaves the document unchanged", func(t *testing.T) {
		var calls atomic.Int32
		server := sectionTreeServer(t, &calls)
		defer server.Close()

		enricher := NewParentsEnricher(testClient(), server.URL)
		c := testContribution()
		c.DebateSectionExtID = "MISSING"
		doc, err := enricher.Enrich(context.Background(), c)

		require.NoError(t, err)
		assert.Empty(t, doc.(*domain.Contribution).DebateParents)
	})

	t.Run("fetch failure is non-fatal", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		enricher := NewParentsEnricher(testClient(), server.URL)
		original := testContribution()
		doc, err := enricher.Enrich(context.Background(), original)

		require.NoError(t, err)
		assert.Same(t, original, doc)
	})

	t.Run("does not mutate the original document", func(t *testing.T) {
		var calls atomic.Int32
		server := sectionTreeServer(t, &calls)
		defer server.Close()

		enricher := NewParentsEnricher(testClient(), server.URL)
		original := testContribution()
		_, err := enricher.Enrich(context.Background(), original)

		require.NoError(t, err)
		assert.Empty(t, original.DebateParents)
	})
}
