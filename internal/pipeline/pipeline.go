// ABOUTME: One pipeline run: normalize, upsert, recompute, analyze, snapshot, format, deliver.
// ABOUTME: Runs are serialized and journaled; delivery failure never fails a run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harperreed/bodycomp/internal/analysis"
	"github.com/harperreed/bodycomp/internal/ingest"
	"github.com/harperreed/bodycomp/internal/models"
	"github.com/harperreed/bodycomp/internal/notify"
	"github.com/harperreed/bodycomp/internal/report"
	"github.com/harperreed/bodycomp/internal/stats"
	"github.com/harperreed/bodycomp/internal/storage"
)

// Enricher adds supplementary measurements to a normalized record.
type Enricher interface {
	Enrich(ctx context.Context, rec *models.DailyRecord) error
}

// Deps are the collaborators of a pipeline. Ledger, Notifier and Enricher
// may be nil.
type Deps struct {
	History         *storage.HistoryStore
	Snapshots       *storage.SnapshotStore
	Ledger          storage.Ledger
	Notifier        notify.Notifier
	Enricher        Enricher
	Analyzer        *analysis.Analyzer
	Windows         []int
	RollingPath     string
	IndexPath       string
	DeliveryTimeout time.Duration
	Logger          *log.Logger
}

// Pipeline executes runs one at a time.
type Pipeline struct {
	mu sync.Mutex
	d  Deps
}

// Result is everything one run produced.
type Result struct {
	Run          *models.Run
	Record       *models.DailyRecord
	Table        *stats.RollingTable
	Report       *models.ProgressReport
	SnapshotPath string
	Text         string
	DeliveryErr  error
}

// New creates a pipeline.
func New(d Deps) *Pipeline {
	if d.Notifier == nil {
		d.Notifier = notify.Disabled{}
	}
	if d.Analyzer == nil {
		d.Analyzer = analysis.NewAnalyzer(analysis.DefaultOptions())
	}
	if d.DeliveryTimeout <= 0 {
		d.DeliveryTimeout = notify.DefaultTimeout
	}
	if d.Logger == nil {
		d.Logger = log.Default()
	}
	return &Pipeline{d: d}
}

// Ledger returns the run journal, nil when runs are not journaled.
func (p *Pipeline) Ledger() storage.Ledger {
	return p.d.Ledger
}

// History returns the daily history store.
func (p *Pipeline) History() *storage.HistoryStore {
	return p.d.History
}

// Snapshots returns the report snapshot store, nil when reports are not kept.
func (p *Pipeline) Snapshots() *storage.SnapshotStore {
	return p.d.Snapshots
}

// Windows returns the rolling window sizes.
func (p *Pipeline) Windows() []int {
	return p.d.Windows
}

// RunFile runs the pipeline on a payload file and records it as processed
// unless the run failed for a reason a later attempt could fix.
func (p *Pipeline) RunFile(ctx context.Context, path string) (*Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.runFile(ctx, path)
}

// RunPending is RunFile for a payload that may have been handled since it
// was picked. It returns a nil result when the ledger already records path.
func (p *Pipeline) RunPending(ctx context.Context, path string) (*Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.d.Ledger != nil {
		done, err := p.d.Ledger.IsProcessed(path)
		if err != nil {
			return nil, err
		}
		if done {
			p.d.Logger.Debug("payload already processed", "path", path)
			return nil, nil
		}
	}
	return p.runFile(ctx, path)
}

// runFile must be called with p.mu held so the processed mark lands before
// another run can look at path.
func (p *Pipeline) runFile(ctx context.Context, path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	res, err := p.run(ctx, path, data)
	if res != nil && p.d.Ledger != nil && res.Run.Status != models.RunFailed {
		if markErr := p.d.Ledger.MarkProcessed(path, res.Run.ID); markErr != nil {
			p.d.Logger.Warn("could not mark payload processed", "path", path, "err", markErr)
		}
	}
	return res, err
}

// Run ingests one payload document. Normalization and cutoff failures are
// returned before anything is written.
func (p *Pipeline) Run(ctx context.Context, source string, data []byte) (*Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.run(ctx, source, data)
}

func (p *Pipeline) run(ctx context.Context, source string, data []byte) (*Result, error) {
	logger := p.d.Logger.With("source", source)
	res := &Result{Run: models.NewRun(source)}
	p.startRun(res.Run)

	rec, err := p.normalize(data)
	if err != nil {
		return p.reject(res, err, logger)
	}
	res.Record = rec
	date := rec.Date
	res.Run.RecordDate = &date
	logger = logger.With("date", rec.DateString())

	if err := p.d.History.CheckDate(rec.Date); err != nil {
		return p.reject(res, err, logger)
	}

	if p.d.Enricher != nil {
		if err := p.d.Enricher.Enrich(ctx, rec); err != nil {
			logger.Warn("temperature enrichment skipped", "err", err)
		}
	}

	table, err := p.d.History.Upsert(rec)
	if err != nil {
		var rangeErr *storage.OutOfRangeError
		if errors.As(err, &rangeErr) {
			return p.reject(res, err, logger)
		}
		return p.fail(res, fmt.Errorf("upsert record: %w", err), logger)
	}
	logger.Info("record stored", "fields", rec.Count(), "rows", table.Len())

	if err := p.process(ctx, res, table.Records(), true); err != nil {
		return p.fail(res, err, logger)
	}
	p.finishRun(res, logger)
	return res, nil
}

// Rebuild recomputes the derived tables and a new report from the stored
// history without ingesting anything.
func (p *Pipeline) Rebuild(ctx context.Context, deliver bool) (*Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	logger := p.d.Logger.With("source", "rebuild")
	res := &Result{Run: models.NewRun("rebuild")}
	p.startRun(res.Run)

	table, err := p.d.History.Load()
	if err != nil {
		return p.fail(res, fmt.Errorf("load history: %w", err), logger)
	}
	if err := p.process(ctx, res, table.Records(), deliver); err != nil {
		return p.fail(res, err, logger)
	}
	p.finishRun(res, logger)
	return res, nil
}

// Analyze recomputes the rolling table and report in memory, writing nothing.
func (p *Pipeline) Analyze() (*stats.RollingTable, *models.ProgressReport, error) {
	table, err := p.d.History.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load history: %w", err)
	}
	rolling, err := stats.Recompute(table.Records(), p.d.Windows)
	if err != nil {
		return nil, nil, err
	}
	return rolling, p.d.Analyzer.Analyze(rolling), nil
}

func (p *Pipeline) normalize(data []byte) (*models.DailyRecord, error) {
	payload, err := ingest.Decode(data)
	if err != nil {
		return nil, err
	}
	return ingest.Normalize(payload)
}

// process derives every table from records, snapshots the report, and
// optionally delivers it.
func (p *Pipeline) process(ctx context.Context, res *Result, records []models.DailyRecord, deliver bool) error {
	rolling, err := stats.Recompute(records, p.d.Windows)
	if err != nil {
		return err
	}
	res.Table = rolling

	if p.d.RollingPath != "" {
		if err := storage.SaveRolling(p.d.RollingPath, rolling); err != nil {
			return err
		}
	}
	if p.d.IndexPath != "" {
		if err := storage.SaveIndex(p.d.IndexPath, stats.BuildIndex(rolling)); err != nil {
			return err
		}
	}

	res.Report = p.d.Analyzer.Analyze(rolling)
	res.Run.ReportID = res.Report.ID
	if p.d.Snapshots != nil {
		path, err := p.d.Snapshots.Save(res.Report)
		if err != nil {
			return err
		}
		res.SnapshotPath = path
	}

	res.Text = report.Format(res.Report)
	if deliver {
		p.deliver(ctx, res)
	}
	return nil
}

func (p *Pipeline) deliver(ctx context.Context, res *Result) {
	if !p.d.Notifier.Enabled() {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, p.d.DeliveryTimeout)
	defer cancel()

	if err := p.d.Notifier.Send(ctx, res.Text); err != nil {
		res.DeliveryErr = err
		res.Run.DeliveryError = err.Error()
		p.d.Logger.Error("report delivery failed", "report", res.Report.ID, "err", err)
		return
	}
	res.Run.Delivered = true
	p.d.Logger.Info("report delivered", "report", res.Report.ID)
}

func (p *Pipeline) startRun(run *models.Run) {
	if p.d.Ledger == nil {
		return
	}
	if err := p.d.Ledger.StartRun(run); err != nil {
		p.d.Logger.Warn("could not journal run start", "run", run.ID, "err", err)
	}
}

func (p *Pipeline) finish(run *models.Run, status models.RunStatus) {
	run.Finish(status)
	if p.d.Ledger == nil {
		return
	}
	if err := p.d.Ledger.FinishRun(run); err != nil {
		p.d.Logger.Warn("could not journal run end", "run", run.ID, "err", err)
	}
}

func (p *Pipeline) finishRun(res *Result, logger *log.Logger) {
	p.finish(res.Run, models.RunSucceeded)
	logger.Info("run finished", "run", res.Run.ID, "report", res.Report.ID, "took", res.Run.Duration())
}

func (p *Pipeline) reject(res *Result, err error, logger *log.Logger) (*Result, error) {
	res.Run.Error = err.Error()
	p.finish(res.Run, models.RunRejected)
	logger.Warn("payload rejected", "run", res.Run.ID, "err", err)
	return res, err
}

func (p *Pipeline) fail(res *Result, err error, logger *log.Logger) (*Result, error) {
	res.Run.Error = err.Error()
	p.finish(res.Run, models.RunFailed)
	logger.Error("run failed", "run", res.Run.ID, "err", err)
	return res, err
}
