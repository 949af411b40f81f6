package consolida

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/tiendc/go-deepcopy"
	"golang.org/x/sync/errgroup"

	"github.com/consolida-dev/consolida/pkg/consolida/backup"
	"github.com/consolida-dev/consolida/pkg/consolida/config"
	"github.com/consolida-dev/consolida/pkg/consolida/extract"
	"github.com/consolida-dev/consolida/pkg/consolida/merge"
	"github.com/consolida-dev/consolida/pkg/consolida/models"
	"github.com/consolida-dev/consolida/pkg/consolida/scan"
	"github.com/consolida-dev/consolida/pkg/consolida/write"
)

// Result is the outcome of one consolidation run.
type Result struct {
	// Report describes the run. Always present, even on failure.
	Report *models.Report
	// Master is the assembled document, detached from run state. Nil
	// when the run failed before assembly.
	Master *models.MasterDocument
}

// Runner wires the collaborators of the consolidation pipeline. A
// Runner is reusable; each Run call works on its own run-local state.
type Runner struct {
	cfg  config.Config
	opts Options
	log  *slog.Logger

	scanner   *scan.Scanner
	extractor *extract.Extractor
	backups   *backup.Manager
	writer    *write.Writer
}

// NewRunner creates a Runner over cfg.
func NewRunner(cfg config.Config, opts Options) *Runner {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Runner{
		cfg:  cfg,
		opts: opts,
		log:  log,
		scanner: scan.New(cfg.SubordinatesDir, scan.Options{
			MaxFileSize: cfg.MaxFileSize(),
			MinRows:     cfg.MinRows,
		}, log),
		extractor: extract.New(extract.Options{BatchSize: cfg.BatchSize}, log),
		backups:   backup.New(cfg.BackupDir, log),
		writer:    write.New(write.Options{Protect: opts.Protect}),
	}
}

// Run executes one consolidation under cfg and returns its result. The
// report is present even when the run fails.
func Run(ctx context.Context, cfg config.Config, opts Options) (*Result, error) {
	return NewRunner(cfg, opts).Run(ctx)
}

// run holds the state of one consolidation. It is created per Run call
// and discarded afterwards; the dedup tables the merge components keep
// never outlive it.
type run struct {
	phase  Phase
	report *models.Report
	docs   []models.SourceDocument
	master *models.MasterDocument
}

// to moves the run to the next phase, enforcing the lifecycle.
func (st *run) to(phase Phase) error {
	if err := ValidateTransition(st.phase, phase); err != nil {
		return err
	}
	st.phase = phase
	return nil
}

// fail moves the run to its terminal failure phase, keeping err.
func (st *run) fail(err error) error {
	if terr := st.to(PhaseFailed); terr != nil {
		return terr
	}
	return err
}

// Run executes one consolidation.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	st := &run{
		phase: PhaseInitialized,
		report: &models.Report{
			RunID:     uuid.NewString(),
			StartedAt: time.Now(),
		},
	}
	r.log.Info("consolidation started",
		"run_id", st.report.RunID,
		"subordinates", r.cfg.SubordinatesDir,
		"dry_run", r.opts.DryRun,
	)

	err := r.pipeline(ctx, st)

	st.report.FinishedAt = time.Now()
	if err != nil {
		st.report.Outcome = models.OutcomeFailed
		st.report.Error = err.Error()
		r.log.Error("consolidation failed", "run_id", st.report.RunID, "error", err)
	} else {
		st.report.Outcome = models.OutcomeAssembled
		r.log.Info("consolidation assembled",
			"run_id", st.report.RunID,
			"files", st.report.FilesConsolidated,
			"rows", st.report.RowsWritten,
			"duplicates_removed", st.report.DuplicatesRemoved,
			"took", st.report.FinishedAt.Sub(st.report.StartedAt),
		)
	}

	res := &Result{Report: st.report}
	if st.master != nil {
		// Hand out a detached copy; merge components alias run-local
		// state until the run is discarded.
		var master models.MasterDocument
		if cerr := deepcopy.Copy(&master, st.master); cerr != nil {
			if err == nil {
				err = fmt.Errorf("detach master: %w", cerr)
			}
		} else {
			res.Master = &master
		}
	}
	return res, err
}

func (r *Runner) pipeline(ctx context.Context, st *run) error {
	refs, err := r.discover(ctx, st)
	if err != nil {
		return st.fail(NewPhaseError(st.phase, err))
	}

	if err := st.to(PhaseBackingUp); err != nil {
		return err
	}
	if err := r.backupMaster(st); err != nil {
		return st.fail(NewPhaseError(PhaseBackingUp, err))
	}

	if err := st.to(PhaseExtracting); err != nil {
		return err
	}
	if err := r.extractAll(ctx, st, refs); err != nil {
		return st.fail(NewPhaseError(PhaseExtracting, err))
	}

	// Last cancellation point: once the merge starts, the run ignores
	// ctx and completes or fails on its own. A merge result must never
	// be partially applied.
	if err := ctx.Err(); err != nil {
		return st.fail(NewPhaseError(PhaseExtracting, err))
	}

	if err := st.to(PhaseMerging); err != nil {
		return err
	}
	if err := r.mergeAndWrite(st); err != nil {
		return st.fail(NewPhaseError(PhaseMerging, err))
	}

	return st.to(PhaseAssembled)
}

// discover runs the subordinate scan and folds its outcome into the
// report.
func (r *Runner) discover(ctx context.Context, st *run) ([]models.SourceRef, error) {
	result, err := r.scanner.Scan(ctx)
	if err != nil {
		return nil, err
	}
	st.report.FilesDiscovered = len(result.Refs) + len(result.Skipped)
	st.report.Skipped = append(st.report.Skipped, result.Skipped...)
	if len(result.Refs) == 0 {
		return nil, ErrNoSources
	}
	return result.Refs, nil
}

// backupMaster copies the existing master aside before it can be
// overwritten. A missing master makes this a no-op; a failing backup
// aborts the run.
func (r *Runner) backupMaster(st *run) error {
	if r.opts.DryRun {
		return nil
	}
	master := r.cfg.MasterPath()
	if _, err := os.Stat(master); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("%w: %w", ErrBackupFailed, err)
	}
	rec, err := r.backups.Create(master)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBackupFailed, err)
	}
	st.report.BackupPath = rec.Path
	return nil
}

// extractAll extracts the discovered workbooks in parallel, bounded by
// the configured concurrency. Each task writes only to its own slot;
// outcomes are folded into the report serially afterwards, in scan
// order.
func (r *Runner) extractAll(ctx context.Context, st *run, refs []models.SourceRef) error {
	docs := make([]*models.SourceDocument, len(refs))
	errs := make([]error, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.MaxConcurrent)
	for i, ref := range refs {
		g.Go(func() error {
			doc, err := r.extractor.Extract(gctx, ref)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				errs[i] = err
				return nil
			}
			docs[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, ref := range refs {
		switch {
		case docs[i] != nil:
			st.docs = append(st.docs, *docs[i])
		case errors.Is(errs[i], extract.ErrNoData):
			st.report.AddSkip(ref.Name, models.SkipEmpty, errs[i].Error())
		default:
			st.report.AddSkip(ref.Name, models.SkipExtractFailed, errs[i].Error())
		}
	}
	if len(st.docs) == 0 {
		return ErrNoValidDocuments
	}
	return nil
}

// mergeAndWrite merges the surviving documents and writes the master.
// Under DryRun the master is assembled but nothing touches the disk.
func (r *Runner) mergeAndWrite(st *run) error {
	master, err := merge.Consolidate(st.docs, merge.Options{
		Sheet:  r.cfg.SheetName,
		Dedupe: r.cfg.Dedupe,
	}, st.report)
	if err != nil {
		return err
	}
	st.master = master

	if r.opts.DryRun {
		return nil
	}
	if err := r.writer.Write(master, r.cfg.MasterPath()); err != nil {
		return err
	}
	st.report.MasterPath = r.cfg.MasterPath()
	return nil
}
