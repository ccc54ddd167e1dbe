package vectordb

import "github.com/philippgille/chromem-go"

// maximalMarginalRelevance greedily picks k results balancing similarity to
// the query against similarity to already-picked results:
//
//	score = lambda*sim(query, doc) - (1-lambda)*max(sim(doc, picked))
//
// chromem stores normalized embeddings, so dot product is cosine similarity.
func maximalMarginalRelevance(candidates []chromem.Result, lambda float32, k int) []chromem.Result {
	if len(candidates) <= 1 || k <= 0 {
		if k < len(candidates) {
			return candidates[:k]
		}
		return candidates
	}
	if k > len(candidates) {
		k = len(candidates)
	}

	selected := make([]chromem.Result, 0, k)
	remaining := make([]chromem.Result, len(candidates))
	copy(remaining, candidates)

	// Candidates arrive ranked by query similarity; the best one always
	// leads the selection.
	selected = append(selected, remaining[0])
	remaining = remaining[1:]

	for len(selected) < k && len(remaining) > 0 {
		bestIdx := 0
		bestScore := float32(-2)
		for i, cand := range remaining {
			redundancy := float32(-1)
			for _, pick := range selected {
				if sim := dot(cand.Embedding, pick.Embedding); sim > redundancy {
					redundancy = sim
				}
			}
			score := lambda*cand.Similarity - (1-lambda)*redundancy
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}
		selected = append(selected, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	return selected
}

func dot(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float32
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
