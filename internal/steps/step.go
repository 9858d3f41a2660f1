// Package steps defines the pipeline's unit of work and the eight concrete
// steps of the procedural generation workflow. Steps are instantiated once
// at workflow-definition time and are stateless between runs; a single
// invocation is parameterized only by the run context.
package steps

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/lcroisez/undini/internal/config"
	"github.com/lcroisez/undini/internal/editor"
	"github.com/lcroisez/undini/internal/engine"
	"github.com/lcroisez/undini/internal/importer"
	"github.com/lcroisez/undini/internal/models"
	"github.com/lcroisez/undini/internal/naming"
)

// timeRound trims sub-tenth noise from durations shown in diagnostics.
const timeRound = 100 * time.Millisecond

type Kind string

const (
	KindInSession Kind = "in-session"
	KindExternal  Kind = "external"
)

// ErrDiscoveryEmpty signals that a required input category matched nothing
// for the iteration. The orchestrator records the step as Skipped, not
// Failed; downstream steps with their own inputs still get their chance.
var ErrDiscoveryEmpty = errors.New("no artifacts discovered for required category")

// Context carries everything one step invocation needs. The editor session
// is threaded through explicitly, never ambient, so tests and dry runs can
// substitute the fake.
type Context struct {
	Iteration int
	Session   editor.Session
	Resolver  *naming.Resolver
	Catalog   *naming.Catalog
	Runner    *engine.Runner
	Importer  *importer.Adapter
	Cfg       *config.Config
	Logger    *slog.Logger

	// MeshDriven selects the engine graphs' input mode for this run.
	MeshDriven bool
	// EngineTimeout overrides the configured engine timeout when non-zero.
	EngineTimeout time.Duration
}

func (rc *Context) engineTimeout() time.Duration {
	if rc.EngineTimeout > 0 {
		return rc.EngineTimeout
	}
	return rc.Cfg.Engine.Timeout
}

// assetResolver is the resolver bound to this session's asset database,
// for discovering editor-internal artifacts.
func (rc *Context) assetResolver(ctx context.Context) *naming.Resolver {
	return rc.Resolver.WithAssetLister(naming.ListerFunc(func(dir string) ([]string, error) {
		return rc.Session.ListAssets(ctx, dir)
	}))
}

// assetExists reports whether an asset named {stem}_{iteration} already
// sits in folder, decided by naming discovery rather than by an import
// call's success signal.
func (rc *Context) assetExists(ctx context.Context, folder, stem string) (bool, error) {
	cat := naming.Category{
		Name:      stem + " asset",
		Direction: naming.EditorInternal,
		Dir:       folder,
		Stems:     []string{stem},
	}
	found, err := rc.assetResolver(ctx).Discover(cat, rc.Iteration)
	if err != nil {
		return false, err
	}
	return len(found) > 0, nil
}

// Result is what a step reports on completion. A step that fails returns
// an error instead; the orchestrator translates errors into Failed (or
// Skipped for ErrDiscoveryEmpty) results.
type Result struct {
	Status     models.StepStatus
	Artifacts  []string
	Diagnostic string
}

// Step is one unit of orchestrated work.
type Step interface {
	Name() string
	Kind() Kind
	// Optional steps may be continued past under the per-run
	// continue-on-error policy.
	Optional() bool
	// Requires lists the input categories that must be discoverable for the
	// step to run; an empty list means the step discovers its own inputs
	// in-session.
	Requires(rc *Context) []naming.Category
	// Produces lists the file categories whose existence is re-verified
	// after the step runs. Steps producing only editor-internal effects
	// return nil.
	Produces(rc *Context) []naming.Category
	Run(ctx context.Context, rc *Context) (*Result, error)
}
