// Package pool distributes catalog probes over a fixed number of worker
// goroutines.
//
// A coordinator owns a WorkQueue of identifiers, pops batches of at most
// BatchSize identifiers and hands each batch to a worker. Workers probe all
// identifiers of their batch concurrently and report the results back as a
// single message. Two lifecycle strategies decide how work is replenished:
//
//   - SpawnPerBatch: every batch gets a fresh worker. When a worker exits
//     and work remains, a replacement is spawned with the next batch.
//   - PersistentReuse: Workers goroutines are created once. When a worker
//     reports, the next batch is pushed to its inbox; when the queue is
//     empty the inbox is closed and the worker exits.
//
// Under either strategy at most Workers workers are active at once.
//
// Example usage:
//
//	fetcher, _ := probe.New(probe.DefaultConfig(), logging.NewLogger("probe"))
//	p, _ := pool.New(fetcher, pool.DefaultConfig(), logging.NewLogger("pool"))
//	report, err := p.Run(ctx, ids)
//
// A worker that panics before reporting aborts the whole run under both
// strategies: Run returns ErrWorkerFatal and the identifiers of that batch
// and of the queue receive no result.
package pool
