// Package reduce models the one collaborator spec.md §6 requires of the
// surrounding partitioned-array runtime: a synchronous sum-all-reduce
// over a contiguous array of doubles. The real runtime's collective is
// out of scope (spec.md §1); Barrier is an in-process, deterministic
// stand-in used by tests and by cmd/gbtree-demo to simulate several
// shards in one binary.
package reduce

import (
	"context"
	"fmt"
	"sync"
)

// Reducer sums values element-wise across every shard sharing a
// reduction, in place, and blocks the caller until the sum is visible to
// all of them. There is no cancellation or retry at this layer: a
// mismatched buffer size across shards is a programming error, not a
// recoverable condition (spec.md §5).
type Reducer interface {
	SumAllReduce(ctx context.Context, values []float64) error
}

// Barrier synchronizes NumShards shards at each call to SumAllReduce.
// Shards reach the barrier in any order; the last arrival computes the
// sum, in increasing shard-index order so the result is reproducible
// regardless of arrival order, and wakes the others.
type Barrier struct {
	mu         sync.Mutex
	cond       *sync.Cond
	numShards  int
	generation int
	arrived    int
	buffers    [][]float64
	err        error
}

// NewBarrier creates a Barrier shared by numShards shards.
func NewBarrier(numShards int) *Barrier {
	if numShards <= 0 {
		panic("reduce: numShards must be positive")
	}
	b := &Barrier{
		numShards: numShards,
		buffers:   make([][]float64, numShards),
	}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Shard returns the Reducer handle for shard id, id in [0, numShards).
func (b *Barrier) Shard(id int) Reducer {
	if id < 0 || id >= b.numShards {
		panic("reduce: shard id out of range")
	}
	return &handle{barrier: b, id: id}
}

type handle struct {
	barrier *Barrier
	id      int
}

func (h *handle) SumAllReduce(ctx context.Context, values []float64) error {
	return h.barrier.sumAllReduce(ctx, h.id, values)
}

func (b *Barrier) sumAllReduce(_ context.Context, id int, values []float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	gen := b.generation
	b.buffers[id] = values
	b.arrived++

	if b.arrived < b.numShards {
		for b.generation == gen {
			b.cond.Wait()
		}
		return b.err
	}

	b.err = b.sumLocked()
	b.arrived = 0
	b.generation++
	b.cond.Broadcast()
	return b.err
}

// sumLocked computes the elementwise sum across all registered buffers
// and overwrites each one with the result. Must be called with mu held.
func (b *Barrier) sumLocked() error {
	size := len(b.buffers[0])
	for shard, buf := range b.buffers {
		if len(buf) != size {
			return fmt.Errorf("reduce: shard %d buffer has %d elements, want %d", shard, len(buf), size)
		}
	}
	sum := make([]float64, size)
	for _, buf := range b.buffers {
		for i, x := range buf {
			sum[i] += x
		}
	}
	for _, buf := range b.buffers {
		copy(buf, sum)
	}
	return nil
}
