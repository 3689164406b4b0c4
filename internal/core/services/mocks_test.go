package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/openparl/parlsearch/internal/core/domain"
	"github.com/openparl/parlsearch/internal/core/ports/driven"
)

// fakeEmbedder produces deterministic vectors and counts provider calls.
type fakeEmbedder struct {
	dims       int
	batchCalls atomic.Int32
	texts      atomic.Int32

	// failSubstring makes batches containing a matching text fail.
	failSubstring string
	// failAll makes every call fail.
	failAll bool
	// delay slows every batch call down.
	delay time.Duration
}

var _ driven.EmbeddingService = (*fakeEmbedder)(nil)

func newFakeEmbedder() *fakeEmbedder {
	return &fakeEmbedder{dims: 4}
}

func (f *fakeEmbedder) vector(text string) []float32 {
	v := make([]float32, f.dims)
	for i := range v {
		v[i] = float32(len(text)%7) + float32(i)
	}
	return v
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := f.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.batchCalls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.failAll {
		return nil, errors.New("provider down")
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		if f.failSubstring != "" && strings.Contains(text, f.failSubstring) {
			return nil, fmt.Errorf("provider rejected %q", f.failSubstring)
		}
		vectors[i] = f.vector(text)
	}
	f.texts.Add(int32(len(texts)))
	return vectors, nil
}

func (f *fakeEmbedder) Dimensions() int            { return f.dims }
func (f *fakeEmbedder) ModelName() string          { return "fake-embed-1" }
func (f *fakeEmbedder) Ping(context.Context) error { return nil }
func (f *fakeEmbedder) Close() error               { return nil }

// fakeCache is an in-memory EmbeddingCache.
type fakeCache struct {
	mu      sync.Mutex
	vectors map[string][]float32
	gets    int
	puts    int
}

var _ driven.EmbeddingCache = (*fakeCache)(nil)

func newFakeCache() *fakeCache {
	return &fakeCache{vectors: make(map[string][]float32)}
}

func (f *fakeCache) Get(_ context.Context, hash string) ([]float32, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	v, ok := f.vectors[hash]
	return v, ok, nil
}

func (f *fakeCache) Put(_ context.Context, hash string, vector []float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts++
	f.vectors[hash] = vector
	return nil
}

func (f *fakeCache) Close() error { return nil }

// fakeUpstream serves pre-built pages keyed by cursor position.
type fakeUpstream struct {
	source domain.Source
	pages  []*domain.RawPage

	// failAt makes the fetch of page index failAt return failErr.
	failAt  int
	failErr error

	calls atomic.Int32
}

var _ driven.UpstreamSource = (*fakeUpstream)(nil)

func (f *fakeUpstream) Source() domain.Source { return f.source }

func (f *fakeUpstream) FetchPage(_ context.Context, _ domain.DateRange, cursor *domain.Cursor) (*domain.RawPage, error) {
	f.calls.Add(1)

	idx := 0
	if cursor != nil {
		idx = cursor.Skip
	}
	if f.failErr != nil && idx == f.failAt {
		return nil, f.failErr
	}
	page := *f.pages[idx]
	if idx+1 < len(f.pages) {
		page.Next = &domain.Cursor{Phase: "page", Skip: idx + 1}
	} else {
		page.Next = nil
	}
	return &page, nil
}

// questionRecord builds a raw written question record.
func questionRecord(id int, text string) domain.RawRecord {
	body := fmt.Sprintf(`{"id": %d, "dateTabled": "2024-06-10T00:00:00", "questionText": %q}`, id, text)
	return domain.RawRecord{Source: domain.SourceQuestions, Body: []byte(body)}
}

// question builds the normalised document for questionRecord.
func question(id int, text string) *domain.ParliamentaryQuestion {
	return &domain.ParliamentaryQuestion{ID: id, QuestionText: text}
}
