// Package embedding wraps a sentence-embedding model producing normalized
// semantic vectors and provides the numeric operations the rest of the
// engine builds on: similarity, top-k search, and weighted centroids.
package embedding

import (
	"errors"
	"math"
	"sort"
)

// Dim is the dimensionality of every vector this package produces.
const Dim = 384

// ErrInvalidDimension is returned when two vectors being compared have
// different lengths.
var ErrInvalidDimension = errors.New("embedding: vectors have mismatched dimensions")

// Vector is an L2-normalized embedding.
type Vector []float32

// Normalize returns v scaled to unit length. The zero vector is returned
// unchanged (its norm is 0, so there is nothing meaningful to scale).
func Normalize(v []float32) Vector {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	norm := math.Sqrt(sumSq)
	if norm == 0 {
		out := make(Vector, len(v))
		copy(out, v)
		return out
	}
	out := make(Vector, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// Similarity returns the cosine similarity between two normalized vectors,
// which reduces to a dot product since both are unit length.
func Similarity(a, b Vector) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrInvalidDimension
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot, nil
}

// Scored pairs a candidate identifier with a similarity score.
type Scored struct {
	ID    string
	Score float64
}

// TopKSimilar filters candidates by score >= minSim, sorts descending, and
// truncates to k. Candidates with mismatched dimension are skipped rather
// than aborting the whole search (an invariant violation on a single
// candidate should not fail the others).
func TopKSimilar(query Vector, candidates map[string]Vector, k int, minSim float64) []Scored {
	results := make([]Scored, 0, len(candidates))
	for id, v := range candidates {
		sim, err := Similarity(query, v)
		if err != nil {
			continue
		}
		if sim >= minSim {
			results = append(results, Scored{ID: id, Score: sim})
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if k >= 0 && len(results) > k {
		results = results[:k]
	}
	return results
}

// RatedVector pairs a media embedding with the user's rating for it (1..5,
// or 0 if absent).
type RatedVector struct {
	Vector Vector
	Rating int
}

// ratingWeight converts a 1..5 rating into a [0.2, 1.0] weight. A missing
// rating (0) gets the neutral weight 0.5.
func ratingWeight(rating int) float64 {
	if rating <= 0 {
		return 0.5
	}
	return float64(rating-1)/4*0.8 + 0.2
}

// ProfileCentroid computes the weighted average of the given vectors,
// weighting each by its rating, then L2-normalizes the result. Returns
// false if pairs is empty.
func ProfileCentroid(pairs []RatedVector) (Vector, bool) {
	if len(pairs) == 0 {
		return nil, false
	}

	weights := make([]float64, len(pairs))
	var totalWeight float64
	for i, p := range pairs {
		w := ratingWeight(p.Rating)
		weights[i] = w
		totalWeight += w
	}
	if totalWeight == 0 {
		return nil, false
	}

	dim := len(pairs[0].Vector)
	sum := make([]float64, dim)
	for i, p := range pairs {
		w := weights[i] / totalWeight
		for j, x := range p.Vector {
			if j < dim {
				sum[j] += w * float64(x)
			}
		}
	}

	out := make([]float32, dim)
	for i, x := range sum {
		out[i] = float32(x)
	}
	return Normalize(out), true
}
