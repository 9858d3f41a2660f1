// Package orchestrator executes workflow variants: an ordered step sequence
// run against one iteration number. Steps run strictly sequentially, since
// the editor session is shared mutable state, and the run halts at the
// first failed step unless the failure is in an optional step and the run
// was started with ContinueOnError.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lcroisez/undini/internal/config"
	"github.com/lcroisez/undini/internal/editor"
	"github.com/lcroisez/undini/internal/engine"
	"github.com/lcroisez/undini/internal/importer"
	"github.com/lcroisez/undini/internal/models"
	"github.com/lcroisez/undini/internal/naming"
	"github.com/lcroisez/undini/internal/reporter"
	"github.com/lcroisez/undini/internal/steps"
	"github.com/lcroisez/undini/internal/storage"
)

// Options parameterize one run.
type Options struct {
	Iteration  int
	Variant    string
	ScriptPath string
	Steps      []steps.Step

	// ContinueOnError lets the run proceed past failures in optional steps.
	// Failures in required steps always halt.
	ContinueOnError bool
	// MeshDriven switches the engine graphs from spline input to the
	// exported mesh set.
	MeshDriven bool
	// EngineTimeout overrides the configured per-cook timeout when non-zero.
	EngineTimeout time.Duration
}

type Orchestrator struct {
	store   *storage.Storage
	session editor.Session
	cfg     *config.Config
	logger  *slog.Logger

	mu     sync.Mutex
	active map[int64]context.CancelFunc
}

func New(store *storage.Storage, session editor.Session, cfg *config.Config, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		store:   store,
		session: session,
		cfg:     cfg,
		logger:  logger,
		active:  make(map[int64]context.CancelFunc),
	}
}

// Execute runs the variant to completion and returns its summary. The
// returned error covers orchestration problems (persistence and the like);
// step failures are reported through the summary, not the error.
func (o *Orchestrator) Execute(ctx context.Context, opts Options) (*models.RunSummary, error) {
	if opts.Iteration < 1 {
		return nil, fmt.Errorf("iteration must be positive, got %d", opts.Iteration)
	}
	if len(opts.Steps) == 0 {
		return nil, errors.New("variant has no steps")
	}

	run := &models.Run{
		Iteration:  opts.Iteration,
		Variant:    opts.Variant,
		ScriptPath: opts.ScriptPath,
		Status:     models.RunStatusRunning,
	}
	id, err := o.store.CreateRun(run)
	if err != nil {
		return nil, fmt.Errorf("recording run: %w", err)
	}
	run.ID = id

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	o.register(id, cancel)
	defer o.unregister(id)

	rep := reporter.New(run, o.logger)
	rc := &steps.Context{
		Iteration: opts.Iteration,
		Session:   o.session,
		Resolver:  naming.NewResolver(),
		Catalog: naming.NewCatalog(naming.Dirs{
			Splines:     o.cfg.Artifacts.SplinesDir,
			GenZones:    o.cfg.Artifacts.GenZonesDir,
			Tables:      o.cfg.Artifacts.TablesDir,
			Geometry:    o.cfg.Artifacts.GeometryDir,
			PieceFolder: o.cfg.Assets.MeshFolder,
		}),
		Runner:        engine.NewRunner(o.logger),
		Importer:      importer.NewAdapter(o.session, o.logger),
		Cfg:           o.cfg,
		Logger:        o.logger,
		MeshDriven:    opts.MeshDriven,
		EngineTimeout: opts.EngineTimeout,
	}

	o.logger.Info("run started",
		"run", id, "variant", opts.Variant, "iteration", opts.Iteration,
		"steps", len(opts.Steps), "mesh_driven", opts.MeshDriven)

	for i, step := range opts.Steps {
		if ctx.Err() != nil {
			run.Error = "run aborted"
			rep.Abort()
			break
		}

		run.CurrentStep = step.Name()
		if err := o.store.UpdateRun(run); err != nil {
			return nil, fmt.Errorf("updating run: %w", err)
		}

		result := o.executeStep(ctx, rc, run.ID, i+1, step)
		rep.Record(result)
		if _, err := o.store.CreateStepResult(result); err != nil {
			return nil, fmt.Errorf("recording step result: %w", err)
		}

		if result.Status == models.StepStatusFailed {
			if opts.ContinueOnError && step.Optional() {
				o.logger.Warn("continuing past optional step failure", "step", step.Name())
				continue
			}
			run.Error = result.Diagnostic
			break
		}
	}

	now := time.Now()
	run.CompletedAt = &now
	run.CurrentStep = ""
	run.Status = rep.Finalize()
	if err := o.store.UpdateRun(run); err != nil {
		return nil, fmt.Errorf("finalizing run: %w", err)
	}
	return rep.Snapshot(), nil
}

// executeStep runs one step and classifies its outcome. Failures never
// propagate as errors from here; they become Failed results.
func (o *Orchestrator) executeStep(ctx context.Context, rc *steps.Context, runID int64, seq int, step steps.Step) *models.StepResult {
	started := time.Now()
	result := &models.StepResult{
		RunID:       runID,
		SequenceNum: seq,
		StepName:    step.Name(),
		StartedAt:   &started,
	}
	finish := func() *models.StepResult {
		result.Elapsed = time.Since(started)
		return result
	}

	// Pre-flight: a step whose declared inputs do not exist for this
	// iteration is skipped, not failed. Upstream may legitimately have had
	// nothing to produce.
	for _, cat := range step.Requires(rc) {
		found, err := o.discover(ctx, rc, cat)
		if err != nil {
			result.Status = models.StepStatusFailed
			result.Diagnostic = err.Error()
			return finish()
		}
		if len(found) == 0 {
			result.Status = models.StepStatusSkipped
			result.Diagnostic = fmt.Sprintf("no %s for iteration %d", cat.Name, rc.Iteration)
			return finish()
		}
	}

	res, err := step.Run(ctx, rc)
	if err != nil {
		if errors.Is(err, steps.ErrDiscoveryEmpty) {
			result.Status = models.StepStatusSkipped
		} else {
			result.Status = models.StepStatusFailed
		}
		result.Diagnostic = err.Error()
		return finish()
	}

	result.Status = res.Status
	result.Artifacts = res.Artifacts
	result.Diagnostic = res.Diagnostic

	// Post-flight: a clean exit means nothing until the declared outputs are
	// actually on disk. Every expected path of every produced category must
	// be discoverable.
	for _, cat := range step.Produces(rc) {
		found, err := o.discover(ctx, rc, cat)
		if err != nil {
			result.Status = models.StepStatusFailed
			result.Diagnostic = err.Error()
			return finish()
		}
		present := make(map[string]bool, len(found))
		for _, p := range found {
			present[p] = true
		}
		for _, expected := range rc.Resolver.Resolve(cat, rc.Iteration) {
			if !present[expected] {
				result.Status = models.StepStatusFailed
				result.Diagnostic = fmt.Sprintf("%s missing after step reported success: %s", cat.Name, expected)
				return finish()
			}
		}
	}

	return finish()
}

func (o *Orchestrator) discover(ctx context.Context, rc *steps.Context, cat naming.Category) ([]string, error) {
	r := rc.Resolver
	if cat.Direction == naming.EditorInternal {
		r = r.WithAssetLister(naming.ListerFunc(func(dir string) ([]string, error) {
			return o.session.ListAssets(ctx, dir)
		}))
	}
	return r.Discover(cat, rc.Iteration)
}

// Abort cancels a run executing in this process. The engine child, if one
// is cooking, is killed with its whole process group.
func (o *Orchestrator) Abort(runID int64) error {
	o.mu.Lock()
	cancel, ok := o.active[runID]
	o.mu.Unlock()
	if !ok {
		return fmt.Errorf("run %d is not executing here", runID)
	}
	cancel()
	return nil
}

func (o *Orchestrator) register(runID int64, cancel context.CancelFunc) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.active[runID] = cancel
}

func (o *Orchestrator) unregister(runID int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.active, runID)
}
