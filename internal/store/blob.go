package store

import (
	"encoding/binary"
	"math"
)

// embeddingToBlob serializes a float32 vector to little-endian bytes for
// storage in a BLOB/BYTEA column.
func embeddingToBlob(v []float32) []byte {
	if len(v) == 0 {
		return nil
	}
	out := make([]byte, len(v)*4)
	for i, x := range v {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(x))
	}
	return out
}

// blobToEmbedding is the inverse of embeddingToBlob. A blob whose length
// isn't a multiple of 4 is malformed and treated as absent.
func blobToEmbedding(b []byte) []float32 {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil
	}
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out
}
