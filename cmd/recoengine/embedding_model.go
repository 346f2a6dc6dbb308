package main

import (
	"hash/fnv"
	"log"
	"strings"

	"recoengine/internal/embedding"
)

// hashEmbeddingModel is a deterministic, dependency-free stand-in for the
// sentence-transformer embedding.Model is built around. A real model (bound
// via cgo or a remote inference call) is out of this module's scope; this
// lets the demo host run end to end without one. It hashes each token into
// one of embedding.Dim buckets, so texts sharing tokens land closer together
// under cosine similarity — nowhere near semantic quality, but a stable,
// comparable vector per text, which is all the rest of the engine needs
// from a Model.
type hashEmbeddingModel struct{}

func newEmbeddingModel(path string) embedding.Model {
	if path != "" {
		log.Printf("embedding: EMBEDDING_MODEL_PATH=%s is not read by this demo host; using the built-in hash-based stand-in", path)
	}
	return hashEmbeddingModel{}
}

func (hashEmbeddingModel) Encode(text string) (embedding.Vector, error) {
	v := make([]float32, embedding.Dim)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(tok))
		v[int(h.Sum32())%embedding.Dim] += 1
	}
	return embedding.Normalize(v), nil
}

func (m hashEmbeddingModel) EncodeBatch(texts []string) ([]embedding.Vector, error) {
	out := make([]embedding.Vector, len(texts))
	for i, t := range texts {
		v, _ := m.Encode(t)
		out[i] = v
	}
	return out, nil
}
