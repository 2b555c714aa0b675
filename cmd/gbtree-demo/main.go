// Drives BuildTreeTask over a synthetic dataset partitioned across
// in-process shards, simulating the partitioned-array runtime's
// collective with a reduce.Barrier.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"sync"

	"github.com/shardboost/gbtree/ndstore"
	"github.com/shardboost/gbtree/reduce"
	"github.com/shardboost/gbtree/task"
)

func main() {
	rows := flag.Int("rows", 4096, "number of synthetic rows")
	shards := flag.Int("shards", 4, "number of simulated shards")
	maxDepth := flag.Int("max-depth", 5, "maximum tree depth")
	splitSamples := flag.Int("split-samples", 256, "global split proposal sample count")
	alpha := flag.Float64("alpha", 1.0, "L2 leaf regularization")
	seed := flag.Int64("seed", 0, "dataset and sampling seed")
	float32Features := flag.Bool("float32", false, "store features as float32 instead of float64")
	flag.Parse()

	if *shards <= 0 || *rows%*shards != 0 {
		log.Fatalf("rows (%d) must be evenly divisible by shards (%d)", *rows, *shards)
	}

	x, g, h := syntheticDataset(*rows, *seed)
	params := task.Params{
		MaxDepth:     *maxDepth,
		MaxNodes:     (1 << uint(*maxDepth+1)) - 1,
		Alpha:        *alpha,
		SplitSamples: *splitSamples,
		Seed:         *seed,
		DatasetRows:  int64(*rows),
	}

	outs, err := runShards(params, x, g, h, *shards, *float32Features)
	must(err)

	out := outs[0]
	for node := 0; node < len(out.Feature); node++ {
		if out.Feature[node] == -1 {
			log.Printf("node %d: leaf value=%.6f", node, out.LeafValue[node][0])
			continue
		}
		log.Printf("node %d: split feature=%d value=%.6f gain=%.6f",
			node, out.Feature[node], out.SplitValue[node], out.Gain[node])
	}
}

// runShards partitions rows contiguously across shards and runs
// BuildTreeTask concurrently for each, synchronized by a single
// in-process Barrier.
func runShards(params task.Params, x, g, h []float64, numShards int, asFloat32 bool) ([]*task.Outputs, error) {
	totalRows := params.DatasetRows
	rowsPerShard := int(totalRows) / numShards
	barrier := reduce.NewBarrier(numShards)

	var wg sync.WaitGroup
	outs := make([]*task.Outputs, numShards)
	errs := make([]error, numShards)

	for shard := 0; shard < numShards; shard++ {
		shard := shard
		lo := shard * rowsPerShard
		hi := lo + rowsPerShard

		var matrix ndstore.FeatureMatrix
		var err error
		if asFloat32 {
			matrix, err = ndstore.NewFeatureMatrix32(hi-lo, 1, x[lo:hi])
		} else {
			matrix, err = ndstore.NewFeatureMatrix64(hi-lo, 1, x[lo:hi])
		}
		if err != nil {
			return nil, err
		}

		in := task.ShardInput{
			RowLo: lo, RowHi: hi, X: matrix,
			G: g[lo:hi], H: h[lo:hi], NumOutputs: 1,
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			t := &task.BuildTreeTask{Params: params}
			outs[shard], errs[shard] = t.Run(context.Background(), in, barrier.Shard(shard))
		}()
	}
	wg.Wait()

	for shard, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("shard %d: %w", shard, err)
		}
	}
	return outs, nil
}

// syntheticDataset generates a single feature column and gradient/hessian
// targets for a step function of that feature, so the demo tree has genuine splits
// to discover.
func syntheticDataset(rows int, seed int64) (x, g, h []float64) {
	rng := rand.New(rand.NewSource(seed))
	x = make([]float64, rows)
	g = make([]float64, rows)
	h = make([]float64, rows)
	for i := range x {
		x[i] = rng.Float64() * 10
		target := math.Round(x[i] / 2.5)
		pred := 0.0
		g[i] = pred - target
		h[i] = 1.0
	}
	return x, g, h
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
