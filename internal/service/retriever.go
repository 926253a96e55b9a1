package service

import (
	"context"
	"sort"

	"docqa/internal/domain"
)

// Retriever embeds a question, searches the index and drops weak matches.
type Retriever struct {
	store     domain.VectorStore
	embedder  domain.Embedder
	k         int
	threshold float64
}

func NewRetriever(store domain.VectorStore, embedder domain.Embedder, k int, threshold float64) *Retriever {
	return &Retriever{store: store, embedder: embedder, k: k, threshold: threshold}
}

func (r *Retriever) matches(k int, threshold float64) bool {
	return r.k == k && r.threshold == threshold
}

// Retrieve returns at most k results scoring at least the threshold,
// best first.
func (r *Retriever) Retrieve(ctx context.Context, question string) ([]domain.SearchResult, error) {
	vec, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, domain.NewServiceError("embed question", err)
	}
	res, err := r.store.Search(ctx, vec, r.k)
	if err != nil {
		return nil, domain.NewServiceError("search", err)
	}
	kept := res[:0:0]
	for _, hit := range res {
		if hit.Score >= r.threshold {
			kept = append(kept, hit)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Score > kept[j].Score })
	if len(kept) > r.k {
		kept = kept[:r.k]
	}
	return kept, nil
}
