package memory

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Embedder turns text into a vector for similarity ranking. Implemented by
// the openai provider; nil disables embeddings and the ranker falls back to
// keyword overlap.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Ranker selects the memories most relevant to a query. Scoring combines
// similarity with recency of last access, mirroring the retrieval weighting
// used when assembling prompts.
type Ranker struct {
	store    *Store
	embedder Embedder
}

// NewRanker creates a ranker over a store. embedder may be nil.
func NewRanker(store *Store, embedder Embedder) *Ranker {
	return &Ranker{store: store, embedder: embedder}
}

// MostRelevant returns up to k memories ranked by relevance to query and
// marks them accessed.
func (r *Ranker) MostRelevant(ctx context.Context, query string, k int) ([]SingleMemory, error) {
	memories := r.store.All()
	if len(memories) == 0 || k <= 0 {
		return nil, nil
	}

	var queryVec []float32
	if r.embedder != nil {
		vec, err := r.embedder.Embed(ctx, query)
		if err == nil {
			queryVec = vec
		}
		// An embedding failure degrades to keyword scoring rather than
		// blocking the tick.
	}

	type scored struct {
		mem   SingleMemory
		score float64
	}
	scoredMems := make([]scored, 0, len(memories))
	now := time.Now()
	for i := range memories {
		m := &memories[i]
		var sim float64
		if queryVec != nil && len(m.Embedding) > 0 {
			sim = cosineSimilarity(queryVec, m.Embedding)
		} else {
			sim = keywordOverlap(query, m.Description)
		}
		scoredMems = append(scoredMems, scored{
			mem:   *m,
			score: sim + recencyBoost(now.Sub(m.LastAccessed)),
		})
	}

	sort.SliceStable(scoredMems, func(i, j int) bool {
		return scoredMems[i].score > scoredMems[j].score
	})

	if k > len(scoredMems) {
		k = len(scoredMems)
	}
	out := make([]SingleMemory, k)
	ids := make([]uuid.UUID, k)
	for i := 0; i < k; i++ {
		out[i] = scoredMems[i].mem
		ids[i] = scoredMems[i].mem.ID
	}
	r.store.Touch(ids)
	return out, nil
}

// recencyBoost decays from 0.25 toward zero over an hour.
func recencyBoost(age time.Duration) float64 {
	hours := age.Hours()
	if hours < 0 {
		hours = 0
	}
	return 0.25 * math.Exp(-hours)
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// keywordOverlap scores by the fraction of query words present in text.
func keywordOverlap(query, text string) float64 {
	queryWords := strings.Fields(strings.ToLower(query))
	if len(queryWords) == 0 {
		return 0
	}
	textLower := strings.ToLower(text)
	hits := 0
	for _, w := range queryWords {
		if strings.Contains(textLower, w) {
			hits++
		}
	}
	return float64(hits) / float64(len(queryWords))
}
