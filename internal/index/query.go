package index

import "sort"

// TopK returns up to k chunks ranked by cosine similarity to queryVec,
// filtered to scores >= minScore when minScore > 0.
func (x *Index) TopK(queryVec []float32, k int, minScore float64) ([]Result, error) {
	if len(queryVec) != x.Manifest.Dim {
		return nil, ErrVectorLengthMismatch
	}
	if x.Manifest.Normalize {
		queryVec = NormalizeL2(queryVec)
	}

	results := make([]Result, 0, len(x.Chunks))
	for i, c := range x.Chunks {
		score, err := Cosine(queryVec, x.Vector(i))
		if err != nil {
			return nil, err
		}
		if minScore > 0 && score < minScore {
			continue
		}
		results = append(results, Result{Chunk: c, Score: score})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.ID < results[j].Chunk.ID
	})

	if k > 0 && len(results) > k {
		results = results[:k]
	}
	return results, nil
}
