package store

import "testing"

func TestEmbeddingToBlob_Nil(t *testing.T) {
	if got := embeddingToBlob(nil); got != nil {
		t.Errorf("embeddingToBlob(nil) = %v, want nil", got)
	}
}

func TestEmbeddingToBlob_LengthIsQuadrupled(t *testing.T) {
	in := []float32{0.0, 1.0, 2.0}
	if got := embeddingToBlob(in); len(got) != len(in)*4 {
		t.Errorf("embeddingToBlob len = %d, want %d", len(got), len(in)*4)
	}
}

func TestBlobToEmbedding_OddLength(t *testing.T) {
	if got := blobToEmbedding([]byte{0x01, 0x02, 0x03}); got != nil {
		t.Errorf("blobToEmbedding(3-byte) = %v, want nil", got)
	}
}

func TestEmbeddingBlobRoundtrip(t *testing.T) {
	cases := [][]float32{
		{0.0},
		{1.0, -1.0},
		{3.14, -3.14, 0.001, -0.001},
	}
	for _, in := range cases {
		blob := embeddingToBlob(in)
		out := blobToEmbedding(blob)
		if len(out) != len(in) {
			t.Errorf("roundtrip len = %d, want %d (input %v)", len(out), len(in), in)
			continue
		}
		for i := range in {
			if out[i] != in[i] {
				t.Errorf("[%d] roundtrip = %v, want %v (input %v)", i, out[i], in[i], in)
			}
		}
	}
}
