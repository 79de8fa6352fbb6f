package patch

import (
	"context"
	"fmt"
	"github.com/ValentinKolb/ncpr/lib/batch"
	"github.com/ValentinKolb/ncpr/lib/common"
	"github.com/ValentinKolb/ncpr/lib/shardfile"
	"github.com/ValentinKolb/ncpr/lib/store"
	"github.com/google/uuid"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/sourcegraph/conc/pool"
	"sync"
	"time"
)

var Logger = logger.GetLogger("patch")

// --------------------------------------------------------------------------
// Types
// --------------------------------------------------------------------------

// Options configures an Engine
type Options struct {
	// Workers is the number of shards patched in parallel (values < 1 mean 1)
	Workers int
}

// Report summarizes a patch run
type Report struct {
	RunID    string
	Shards   int
	Records  int
	Rejected []Rejection
	Dense    int
	Sparse   int
	Duration time.Duration
}

func (r *Report) count(format shardfile.Format) {
	if format == shardfile.FormatDense {
		r.Dense++
	} else {
		r.Sparse++
	}
}

// Engine applies batches to a shard store
type Engine struct {
	store   store.IShardStore
	workers int
	buffers sync.Pool
}

// NewEngine creates a patch engine working on s
func NewEngine(s store.IShardStore, opts Options) *Engine {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Engine{
		store:   s,
		workers: opts.Workers,
		buffers: sync.Pool{
			New: func() any {
				buf := shardfile.NewBuffer()
				return &buf
			},
		},
	}
}

// --------------------------------------------------------------------------
// Patch
// --------------------------------------------------------------------------

// Patch reads the whole batch from src and applies it
func (e *Engine) Patch(ctx context.Context, src batch.Source) (Report, error) {
	plan, err := Prepare(src)
	if err != nil {
		return Report{}, err
	}
	return e.Apply(ctx, plan)
}

// Apply patches every shard of the plan with a single load and a single dump.
// The context is checked before each shard. On error the report covers the
// shards dumped so far.
func (e *Engine) Apply(ctx context.Context, plan *Plan) (Report, error) {
	start := time.Now()
	report := Report{
		RunID:    uuid.NewString(),
		Shards:   len(plan.Shards),
		Records:  plan.Records,
		Rejected: plan.Rejected,
	}
	common.Counter(common.MetricPatchRejected).Add(len(plan.Rejected))

	Logger.Infof("[%s] patching %d files (%d records, %d rejected, %d workers)",
		report.RunID, report.Shards, report.Records, len(report.Rejected), e.workers)

	var err error
	if e.workers == 1 {
		err = e.applySequential(ctx, plan, &report)
	} else {
		err = e.applyParallel(ctx, plan, &report)
	}
	report.Duration = time.Since(start)

	if err != nil {
		Logger.Errorf("[%s] patch aborted after %d of %d files: %v", report.RunID, report.Dense+report.Sparse, report.Shards, err)
		return report, err
	}

	common.Counter(common.MetricPatchRecords).Add(report.Records)
	Logger.Infof("[%s] patched a total of %d records in %s (%d dense, %d sparse)",
		report.RunID, report.Records, report.Duration, report.Dense, report.Sparse)
	return report, nil
}

func (e *Engine) applySequential(ctx context.Context, plan *Plan, report *Report) error {
	for _, shardID := range plan.Shards {
		if err := ctx.Err(); err != nil {
			return err
		}
		format, err := e.patchShard(shardID, plan.Updates[shardID])
		if err != nil {
			return err
		}
		report.count(format)
	}
	return nil
}

func (e *Engine) applyParallel(ctx context.Context, plan *Plan, report *Report) error {
	var mu sync.Mutex
	p := pool.New().
		WithContext(ctx).
		WithMaxGoroutines(e.workers).
		WithCancelOnError().
		WithFirstError()

	for _, shardID := range plan.Shards {
		shardID := shardID
		updates := plan.Updates[shardID]
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			format, err := e.patchShard(shardID, updates)
			if err != nil {
				return err
			}
			mu.Lock()
			report.count(format)
			mu.Unlock()
			return nil
		})
	}

	return p.Wait()
}

// patchShard runs lock -> load -> apply -> dump -> unlock for one shard
func (e *Engine) patchShard(shardID uint16, updates []Update) (format shardfile.Format, err error) {
	unlock, err := e.store.Lock(shardID)
	if err != nil {
		return 0, err
	}
	defer func() {
		if unlockErr := unlock(); unlockErr != nil && err == nil {
			err = unlockErr
		}
	}()

	bufPtr := e.buffers.Get().(*shardfile.Buffer)
	defer e.buffers.Put(bufPtr)
	buf := *bufPtr

	if err := e.store.LoadInto(shardID, buf); err != nil {
		return 0, err
	}

	for _, u := range updates {
		if u.Key.Shard != shardID {
			return 0, fmt.Errorf("update for %s grouped into shard %d", u.Key, shardID)
		}
		buf.Set(u.Key.Offset, u.B1, u.B2)
	}

	if format, err = e.store.Dump(shardID, buf); err != nil {
		return format, err
	}

	Logger.Debugf("patched shard %d with %d updates (%s)", shardID, len(updates), format)
	return format, nil
}
