package embedding

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Model produces normalized embeddings for text. The concrete model
// (e.g. a sentence-transformer bound via cgo or a remote inference call)
// lives outside this package's scope; Service only owns the async/batch
// contract around it.
type Model interface {
	Encode(text string) (Vector, error)
	EncodeBatch(texts []string) ([]Vector, error)
}

// poolSize bounds how many embedding calls may run concurrently. Embedding
// is CPU-bound, so this is a worker pool in the literal sense: a fixed
// budget of concurrent workers, not a queue depth.
const poolSize = 2

// Service wraps a Model with the async offload contract spec'd for C1:
// callers issue encode/encode-batch work without blocking their own
// goroutine, and at most poolSize embeddings run at once.
type Service struct {
	model Model
	sem   *semaphore.Weighted
}

// New returns a Service backed by model, with its own dedicated worker pool.
func New(model Model) *Service {
	return &Service{model: model, sem: semaphore.NewWeighted(poolSize)}
}

// Encode synchronously embeds a single text. Prefer EncodeBatch when two or
// more texts are available — batching is a performance contract the
// candidate scorer and profile builder both depend on.
func (s *Service) Encode(text string) (Vector, error) {
	return s.model.Encode(text)
}

// EncodeBatch synchronously embeds multiple texts, preserving order.
func (s *Service) EncodeBatch(texts []string) ([]Vector, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	return s.model.EncodeBatch(texts)
}

type encodeResult struct {
	vectors []Vector
	err     error
}

// EncodeAsync offloads a single encode onto the worker pool so the caller's
// goroutine (typically the orchestrator's single generation loop) is never
// blocked by CPU-bound embedding work.
func (s *Service) EncodeAsync(ctx context.Context, text string) (Vector, error) {
	vs, err := s.runOnPool(ctx, func() ([]Vector, error) {
		v, err := s.model.Encode(text)
		return []Vector{v}, err
	})
	if err != nil {
		return nil, err
	}
	return vs[0], nil
}

// EncodeBatchAsync offloads a batch encode onto the worker pool. It issues a
// single underlying model call regardless of batch size, per the batching
// contract.
func (s *Service) EncodeBatchAsync(ctx context.Context, texts []string) ([]Vector, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	return s.runOnPool(ctx, func() ([]Vector, error) {
		return s.model.EncodeBatch(texts)
	})
}

func (s *Service) runOnPool(ctx context.Context, work func() ([]Vector, error)) ([]Vector, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer s.sem.Release(1)

	resCh := make(chan encodeResult, 1)
	go func() {
		vs, err := work()
		resCh <- encodeResult{vectors: vs, err: err}
	}()

	select {
	case res := <-resCh:
		return res.vectors, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
