package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openparl/parlsearch/internal/adapters/driven/index/memory"
	"github.com/openparl/parlsearch/internal/core/domain"
)

const (
	questionsCol = "questions-search-test"
	hansardCol   = "hansard-search-test"
)

func date(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

// seededSearcher indexes a small fixture set and returns a searcher
// over it.
func seededSearcher(t *testing.T) (*Searcher, *fakeEmbedder) {
	t.Helper()
	embedder := newFakeEmbedder()
	index := memory.NewIndex()
	ctx := context.Background()

	require.NoError(t, index.EnsureCollection(ctx, questionsCol, embedder.dims))
	require.NoError(t, index.EnsureCollection(ctx, hansardCol, embedder.dims))

	questions := []*domain.ParliamentaryQuestion{
		{
			ID: 1, House: "Commons", Heading: "NHS Dentistry",
			AskingMemberID: 10,
			AskingMember:   &domain.Member{ID: 10, Name: "Jim Example", Party: "Labour"},
			DateTabled:     date("2024-06-03"),
			QuestionText:   "What steps on dentistry funding.",
		},
		{
			ID: 2, House: "Lords", Heading: "Rail Services",
			AskingMemberID: 11,
			AskingMember:   &domain.Member{ID: 11, Name: "Lord Sample", Party: "Conservative"},
			DateTabled:     date("2024-06-05"),
			QuestionText:   "What plans for rail timetables.",
		},
		{
			ID: 3, House: "Commons", Heading: "School Meals",
			AskingMemberID: 12,
			AskingMember:   &domain.Member{ID: 12, Name: "Ann Other", Party: "Labour"},
			DateTabled:     date("2024-06-01"),
			QuestionText:   "What assessment of school meals.",
		},
	}
	var qdocs []domain.EmbeddedDocument
	for _, q := range questions {
		qdocs = append(qdocs, domain.EmbeddedDocument{
			Document:    q,
			Vector:      embedder.vector(q.EmbeddableText()),
			Model:       embedder.ModelName(),
			ContentHash: domain.ContentHash(q.EmbeddableText()),
		})
	}
	_, err := index.BulkUpsert(ctx, questionsCol, qdocs)
	require.NoError(t, err)

	contributions := []*domain.Contribution{
		{
			ContributionExtID: "C1", DebateSectionExtID: "D1", House: "Commons",
			MemberID: 20, MemberName: "Jim Example",
			SittingDate: date("2024-06-04"), DebateSection: "Health",
			TextFull: "The dentistry backlog is growing.",
		},
		{
			ContributionExtID: "C2", DebateSectionExtID: "D2", House: "Lords",
			MemberID: 21, MemberName: "Lord Sample",
			SittingDate: date("2024-06-06"), DebateSection: "Transport",
			TextFull: "Rail reliability must improve.",
		},
		{
			ContributionExtID: "C3", DebateSectionExtID: "D1", House: "Commons",
			MemberID: 22, MemberName: "Ann Other",
			SittingDate: date("2024-06-04"), DebateSection: "Health",
			TextFull: "Dentistry waiting lists keep growing.",
		},
	}
	var cdocs []domain.EmbeddedDocument
	for _, c := range contributions {
		cdocs = append(cdocs, domain.EmbeddedDocument{
			Document:    c,
			Vector:      embedder.vector(c.EmbeddableText()),
			Model:       embedder.ModelName(),
			ContentHash: domain.ContentHash(c.EmbeddableText()),
		})
	}
	_, err = index.BulkUpsert(ctx, hansardCol, cdocs)
	require.NoError(t, err)

	return NewSearcher(index, embedder, questionsCol, hansardCol, 0.5), embedder
}

func TestSearchValidation(t *testing.T) {
	searcher, _ := seededSearcher(t)
	ctx := context.Background()

	t.Run("limit above the ceiling is rejected", func(t *testing.T) {
		_, err := searcher.Search(ctx, domain.SearchRequest{
			Source: domain.SourceQuestions, Text: "x", Limit: domain.MaxSearchLimit + 1,
		})
		assert.ErrorIs(t, err, domain.ErrInvalidQuery)
	})

	t.Run("limit at the ceiling is accepted", func(t *testing.T) {
		_, err := searcher.Search(ctx, domain.SearchRequest{
			Source: domain.SourceQuestions, Text: "x", Limit: domain.MaxSearchLimit,
		})
		assert.NoError(t, err)
	})

	t.Run("negative limit is rejected", func(t *testing.T) {
		_, err := searcher.Search(ctx, domain.SearchRequest{
			Source: domain.SourceQuestions, Text: "x", Limit: -1,
		})
		assert.ErrorIs(t, err, domain.ErrInvalidQuery)
	})

	t.Run("negative offset is rejected", func(t *testing.T) {
		_, err := searcher.Search(ctx, domain.SearchRequest{
			Source: domain.SourceQuestions, Text: "x", Offset: -5,
		})
		assert.ErrorIs(t, err, domain.ErrInvalidQuery)
	})

	t.Run("unknown source is rejected", func(t *testing.T) {
		_, err := searcher.Search(ctx, domain.SearchRequest{Source: "committees", Text: "x"})
		assert.ErrorIs(t, err, domain.ErrInvalidQuery)
	})

	t.Run("neither text nor filters is rejected", func(t *testing.T) {
		_, err := searcher.Search(ctx, domain.SearchRequest{Source: domain.SourceQuestions})
		assert.ErrorIs(t, err, domain.ErrInvalidQuery)
	})

	t.Run("malformed date bound is rejected", func(t *testing.T) {
		_, err := searcher.Search(ctx, domain.SearchRequest{
			Source: domain.SourceQuestions, DateFrom: "01/06/2024",
		})
		assert.ErrorIs(t, err, domain.ErrInvalidQuery)
	})

	t.Run("inverted date bounds are rejected", func(t *testing.T) {
		_, err := searcher.Search(ctx, domain.SearchRequest{
			Source: domain.SourceQuestions, DateFrom: "2024-06-10", DateTo: "2024-06-01",
		})
		assert.ErrorIs(t, err, domain.ErrInvalidQuery)
	})

	t.Run("debate filter on questions is rejected", func(t *testing.T) {
		_, err := searcher.Search(ctx, domain.SearchRequest{
			Source: domain.SourceQuestions, DebateID: "D1",
		})
		assert.ErrorIs(t, err, domain.ErrInvalidQuery)
	})

	t.Run("party filter on contributions is rejected", func(t *testing.T) {
		_, err := searcher.Search(ctx, domain.SearchRequest{
			Source: domain.SourceHansard, Party: "Labour",
		})
		assert.ErrorIs(t, err, domain.ErrInvalidQuery)
	})
}

func TestSearchExecution(t *testing.T) {
	ctx := context.Background()

	t.Run("filter-only query selects by house", func(t *testing.T) {
		searcher, _ := seededSearcher(t)

		results, err := searcher.Search(ctx, domain.SearchRequest{
			Source: domain.SourceQuestions, House: "Commons",
		})

		require.NoError(t, err)
		require.Len(t, results, 2)
		for _, r := range results {
			require.NotNil(t, r.Question)
			assert.Equal(t, "Commons", r.Question.House)
		}
	})

	t.Run("equal scores break ties on the date field", func(t *testing.T) {
		searcher, _ := seededSearcher(t)

		results, err := searcher.Search(ctx, domain.SearchRequest{
			Source: domain.SourceQuestions, House: "Commons",
		})

		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, 3, results[0].Question.ID) // tabled 06-01
		assert.Equal(t, 1, results[1].Question.ID) // tabled 06-03
	})

	t.Run("party filter reaches the nested member field", func(t *testing.T) {
		searcher, _ := seededSearcher(t)

		results, err := searcher.Search(ctx, domain.SearchRequest{
			Source: domain.SourceQuestions, Party: "Conservative",
		})

		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, 2, results[0].Question.ID)
	})

	t.Run("date range filter bounds inclusively", func(t *testing.T) {
		searcher, _ := seededSearcher(t)

		results, err := searcher.Search(ctx, domain.SearchRequest{
			Source: domain.SourceQuestions, DateFrom: "2024-06-03", DateTo: "2024-06-05",
		})

		require.NoError(t, err)
		ids := []int{}
		for _, r := range results {
			ids = append(ids, r.Question.ID)
		}
		assert.ElementsMatch(t, []int{1, 2}, ids)
	})

	t.Run("text query embeds once and ranks lexical matches first", func(t *testing.T) {
		searcher, embedder := seededSearcher(t)
		before := embedder.batchCalls.Load()

		results, err := searcher.Search(ctx, domain.SearchRequest{
			Source: domain.SourceQuestions, Text: "dentistry funding",
		})

		require.NoError(t, err)
		assert.Equal(t, before+1, embedder.batchCalls.Load())
		require.NotEmpty(t, results)
		assert.Equal(t, 1, results[0].Question.ID)
		assert.Greater(t, results[0].Score, 0.5)
	})

	t.Run("contributions search returns typed results", func(t *testing.T) {
		searcher, _ := seededSearcher(t)

		results, err := searcher.Search(ctx, domain.SearchRequest{
			Source: domain.SourceHansard, Text: "rail reliability",
		})

		require.NoError(t, err)
		require.NotEmpty(t, results)
		require.NotNil(t, results[0].Contribution)
		assert.Equal(t, "C2", results[0].Contribution.ContributionExtID)
		assert.Nil(t, results[0].Question)
	})

	t.Run("debate filter narrows contributions", func(t *testing.T) {
		searcher, _ := seededSearcher(t)

		results, err := searcher.Search(ctx, domain.SearchRequest{
			Source: domain.SourceHansard, DebateID: "D1",
		})

		require.NoError(t, err)
		require.Len(t, results, 2)
		for _, r := range results {
			assert.Equal(t, "D1", r.Contribution.DebateSectionExtID)
		}
	})

	t.Run("member id filter", func(t *testing.T) {
		searcher, _ := seededSearcher(t)

		results, err := searcher.Search(ctx, domain.SearchRequest{
			Source: domain.SourceQuestions, MemberID: 11,
		})

		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, 2, results[0].Question.ID)
	})

	t.Run("limit and offset paginate", func(t *testing.T) {
		searcher, _ := seededSearcher(t)

		first, err := searcher.Search(ctx, domain.SearchRequest{
			Source: domain.SourceQuestions, House: "Commons", Limit: 1,
		})
		require.NoError(t, err)
		second, err := searcher.Search(ctx, domain.SearchRequest{
			Source: domain.SourceQuestions, House: "Commons", Limit: 1, Offset: 1,
		})
		require.NoError(t, err)

		require.Len(t, first, 1)
		require.Len(t, second, 1)
		assert.NotEqual(t, first[0].Question.ID, second[0].Question.ID)
	})
}

func TestSearchDebates(t *testing.T) {
	ctx := context.Background()

	t.Run("groups contribution hits into ranked debates", func(t *testing.T) {
		searcher, _ := seededSearcher(t)

		debates, err := searcher.SearchDebates(ctx, domain.SearchRequest{Text: "dentistry"})

		require.NoError(t, err)
		require.Len(t, debates, 2)
		assert.Equal(t, "D1", debates[0].DebateSectionExtID)
		assert.Equal(t, "Health", debates[0].Title)
		assert.Equal(t, "Commons", debates[0].House)
		assert.Equal(t, 2, debates[0].Contributions)
		assert.Contains(t, debates[0].URL, "/debates/D1/")
		assert.Greater(t, debates[0].Score, debates[1].Score)
	})

	t.Run("filter-only request selects by house", func(t *testing.T) {
		searcher, _ := seededSearcher(t)

		debates, err := searcher.SearchDebates(ctx, domain.SearchRequest{House: "Commons"})

		require.NoError(t, err)
		require.Len(t, debates, 1)
		assert.Equal(t, "D1", debates[0].DebateSectionExtID)
		assert.Equal(t, 2, debates[0].Contributions)
	})

	t.Run("limit and offset apply after grouping", func(t *testing.T) {
		searcher, _ := seededSearcher(t)

		first, err := searcher.SearchDebates(ctx, domain.SearchRequest{Text: "dentistry", Limit: 1})
		require.NoError(t, err)
		second, err := searcher.SearchDebates(ctx, domain.SearchRequest{Text: "dentistry", Limit: 1, Offset: 1})
		require.NoError(t, err)

		require.Len(t, first, 1)
		require.Len(t, second, 1)
		assert.NotEqual(t, first[0].DebateSectionExtID, second[0].DebateSectionExtID)
	})

	t.Run("non-hansard source is rejected", func(t *testing.T) {
		searcher, _ := seededSearcher(t)

		_, err := searcher.SearchDebates(ctx, domain.SearchRequest{
			Source: domain.SourceQuestions, Text: "dentistry",
		})
		assert.ErrorIs(t, err, domain.ErrInvalidQuery)
	})

	t.Run("party filter is rejected", func(t *testing.T) {
		searcher, _ := seededSearcher(t)

		_, err := searcher.SearchDebates(ctx, domain.SearchRequest{Party: "Labour"})
		assert.ErrorIs(t, err, domain.ErrInvalidQuery)
	})
}
