package pipeline

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/rera-cli/internal/model"
)

// ErrDocumentTimeout marks a document whose processing exceeded the
// per-document timeout. Its result is discarded.
var ErrDocumentTimeout = eris.New("pipeline: document timed out")

// Sink receives each successful result. store.Store satisfies it.
type Sink interface {
	SaveResult(ctx context.Context, result *model.ProcessResult) error
}

// BatchOptions configures Batch.
type BatchOptions struct {
	Concurrency int
	Timeout     time.Duration
	Sink        Sink
}

// BatchSummary aggregates a batch run.
type BatchSummary struct {
	Documents  int                `json:"documents"`
	Succeeded  int                `json:"succeeded"`
	TimedOut   int                `json:"timed_out"`
	Failed     int                `json:"failed"`
	SaveFailed int                `json:"save_failed"`
	Counts     model.StatusCounts `json:"counts"`
}

// Batch processes docs concurrently. Results are returned in input order;
// the slot of a failed or timed out document is nil. A single document
// failing never aborts the batch; cancelling ctx does.
func (p *Processor) Batch(ctx context.Context, docs []model.SourceDocument, opts BatchOptions) ([]*model.ProcessResult, *BatchSummary, error) {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	zap.L().Info("pipeline: processing batch",
		zap.Int("documents", len(docs)),
		zap.Int("concurrency", concurrency),
		zap.Duration("timeout", opts.Timeout),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	results := make([]*model.ProcessResult, len(docs))
	var succeeded, timedOut, failed, saveFailed atomic.Int64

	for i, doc := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			log := zap.L().With(zap.String("document", doc.Name))

			res, err := p.processWithTimeout(gctx, doc, opts.Timeout)
			switch {
			case eris.Is(err, ErrDocumentTimeout):
				timedOut.Add(1)
				log.Warn("pipeline: document timed out", zap.Duration("timeout", opts.Timeout))
				return nil
			case err != nil && gctx.Err() != nil:
				return gctx.Err()
			case err != nil:
				failed.Add(1)
				log.Error("pipeline: document failed", zap.Error(err))
				return nil // don't abort batch on individual failure
			}

			results[i] = res
			succeeded.Add(1)
			log.Info("pipeline: document complete",
				zap.String("project_key", res.Record.ProjectKey),
				zap.Int("match", res.Report.Counts.Match),
				zap.Int("mismatch", res.Report.Counts.Mismatch),
				zap.Int("unverifiable", res.Report.Counts.Unverifiable),
			)

			if opts.Sink != nil {
				if err := opts.Sink.SaveResult(gctx, res); err != nil {
					saveFailed.Add(1)
					log.Error("pipeline: save result failed", zap.Error(err))
				}
			}
			return nil
		})
	}

	err := g.Wait()

	summary := &BatchSummary{
		Documents:  len(docs),
		Succeeded:  int(succeeded.Load()),
		TimedOut:   int(timedOut.Load()),
		Failed:     int(failed.Load()),
		SaveFailed: int(saveFailed.Load()),
	}
	for _, r := range results {
		if r != nil {
			summary.Counts.Merge(r.Report.Counts)
		}
	}

	zap.L().Info("pipeline: batch complete",
		zap.Int("documents", summary.Documents),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("timed_out", summary.TimedOut),
		zap.Int("failed", summary.Failed),
		zap.Int("mismatch", summary.Counts.Mismatch),
	)

	if err != nil {
		return results, summary, eris.Wrap(err, "pipeline: batch")
	}
	return results, summary, nil
}

type outcome struct {
	res *model.ProcessResult
	err error
}

// processWithTimeout abandons a document that runs past timeout. The
// worker goroutine finishes on its own; its result is dropped.
func (p *Processor) processWithTimeout(ctx context.Context, doc model.SourceDocument, timeout time.Duration) (*model.ProcessResult, error) {
	if timeout <= 0 {
		return p.Process(ctx, doc)
	}
	dctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ch := make(chan outcome, 1)
	go func() {
		res, err := p.Process(dctx, doc)
		ch <- outcome{res: res, err: err}
	}()

	select {
	case o := <-ch:
		if o.err != nil && ctx.Err() == nil && dctx.Err() != nil {
			return nil, eris.Wrapf(ErrDocumentTimeout, "pipeline: document %s", doc.Name)
		}
		return o.res, o.err
	case <-dctx.Done():
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "pipeline: process")
		}
		return nil, eris.Wrapf(ErrDocumentTimeout, "pipeline: document %s", doc.Name)
	}
}
