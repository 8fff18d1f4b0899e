package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/frumelad/bom-explode/internal/bom"
	"github.com/frumelad/bom-explode/internal/catalog"
	"github.com/frumelad/bom-explode/internal/metrics"
	"github.com/frumelad/bom-explode/internal/report"
)

// ErrRunInProgress is returned when a run is requested while another is active.
var ErrRunInProgress = errors.New("bom run already in progress")

// CatalogSource loads the catalog snapshot.
type CatalogSource interface {
	LoadCatalog(ctx context.Context) (*catalog.Snapshot, error)
}

// ResultSink persists explosion results. ReplaceResults is atomic: on error the
// previous results stay in place.
type ResultSink interface {
	ReplaceResults(ctx context.Context, results []*bom.Result, calculatedAt time.Time) error
	RecordCalculation(ctx context.Context, c bom.Calculation) error
}

// Archiver stores a rendered report and returns where it went.
type Archiver interface {
	PutReport(ctx context.Context, name, body string) (string, error)
}

// RunnerConfig tunes a Runner.
type RunnerConfig struct {
	Workers             int
	ReportMultipleSpecs bool
	Classifier          catalog.Classifier
}

// Runner performs the batch explosion of all finished goods.
type Runner struct {
	source   CatalogSource
	sink     ResultSink
	archiver Archiver
	cfg      RunnerConfig
	log      *zap.Logger
	now      func() time.Time

	mu      sync.Mutex
	running bool
}

func NewRunner(source CatalogSource, sink ResultSink, cfg RunnerConfig, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Runner{source: source, sink: sink, cfg: cfg, log: log, now: time.Now}
}

// WithArchiver makes Run upload the full report after a successful run.
func (r *Runner) WithArchiver(a Archiver) *Runner {
	r.archiver = a
	return r
}

// Summary describes a finished run.
type Summary struct {
	bom.Stats
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Duration   time.Duration `json:"duration_ns"`
	ArchivedAt string        `json:"archived_at,omitempty"`
}

// Run loads the catalog, explodes every finished product and stores the results.
// Only one run may be active at a time.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return Summary{}, ErrRunInProgress
	}
	r.running = true
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	started := r.now()
	sum, err := r.run(ctx, started)
	finished := r.now()
	sum.StartedAt, sum.FinishedAt, sum.Duration = started, finished, finished.Sub(started)

	status := bom.StatusCompleted
	if err != nil {
		status = bom.StatusFailed
	}
	byKind := make(map[string]int, len(sum.ByKind))
	for k, n := range sum.ByKind {
		byKind[string(k)] = n
	}
	metrics.RecordRun(status, sum.Products, sum.Materials, byKind, sum.Duration, finished)

	calc := bom.Calculation{
		StartedAt:  started,
		FinishedAt: finished,
		Products:   sum.Products,
		Materials:  sum.Materials,
		Errors:     sum.Errors,
		Status:     status,
	}
	if cerr := r.sink.RecordCalculation(context.WithoutCancel(ctx), calc); cerr != nil {
		r.log.Error("record calculation", zap.Error(cerr))
		if err == nil {
			err = cerr
		}
	}
	if err != nil {
		r.log.Error("bom run failed", zap.Error(err), zap.Duration("took", sum.Duration))
		return sum, err
	}

	r.log.Info("bom run completed",
		zap.Int("products", sum.Products),
		zap.Int("materials", sum.Materials),
		zap.Int("errors", sum.Errors),
		zap.Int("failed_products", sum.Failed),
		zap.Duration("took", sum.Duration),
	)
	return sum, nil
}

func (r *Runner) run(ctx context.Context, started time.Time) (Summary, error) {
	snap, err := r.source.LoadCatalog(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("load catalog: %w", err)
	}

	types := catalog.NewTypeCatalog(snap.Types, r.cfg.Classifier)
	cat := catalog.FromSnapshot(snap)
	items, specs, lines := cat.Stats()
	byKind, finished := types.Counts()
	r.log.Info("catalog loaded",
		zap.Int("types", types.Len()),
		zap.Int("semifinished_types", byKind[catalog.KindSemifinished]),
		zap.Int("terminal_types", byKind[catalog.KindTerminal]),
		zap.Int("excluded_types", byKind[catalog.KindExcluded]),
		zap.Int("finished_goods_types", finished),
		zap.Int("items", items),
		zap.Int("active_specs", specs),
		zap.Int("spec_lines", lines),
	)

	var opts []bom.Option
	if r.cfg.ReportMultipleSpecs {
		opts = append(opts, bom.WithMultipleSpecsReporting())
	}
	exploder := bom.NewExploder(cat, types, opts...)

	products := bom.FinishedGoods(cat, types)
	r.log.Info("finished goods selected", zap.Int("products", len(products)))

	results, err := bom.ExplodeAll(ctx, exploder, products, r.cfg.Workers)
	if err != nil {
		return Summary{}, fmt.Errorf("explode: %w", err)
	}

	for _, res := range results {
		for _, e := range res.Errors {
			r.log.Warn("bom anomaly",
				zap.String("product", res.ProductName),
				zap.String("kind", string(e.Kind)),
				zap.String("item", e.ItemName),
				zap.String("detail", e.Detail),
			)
		}
	}
	if err := r.sink.ReplaceResults(ctx, results, started); err != nil {
		return Summary{}, fmt.Errorf("save results: %w", err)
	}

	sum := Summary{Stats: bom.Summarize(results)}

	if r.archiver != nil {
		body := report.Full(report.SectionsFromResults(results), started)
		name := fmt.Sprintf("bom_report_%s.txt", started.Format("20060102_150405"))
		loc, err := r.archiver.PutReport(ctx, name, body)
		if err != nil {
			return sum, fmt.Errorf("archive report: %w", err)
		}
		sum.ArchivedAt = loc
		r.log.Info("report archived", zap.String("location", loc))
	}
	return sum, nil
}
