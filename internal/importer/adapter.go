package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lcroisez/undini/internal/editor"
)

// ErrExhausted means every strategy in the chain failed for an artifact.
var ErrExhausted = errors.New("all import strategies failed")

// errNotApplicable marks a strategy that declined to run (recorded as an
// attempt, but expected and cheap).
var errNotApplicable = errors.New("strategy not applicable")

// Request is one artifact to bring into the asset database. AssetPath is
// the resolved target ("folder/name") and Exists reflects what naming
// discovery found there beforehand; the adapter never infers existence
// from an import call's own success or failure.
type Request struct {
	SourceFile string
	DestFolder string
	AssetName  string
	AssetPath  string
	Exists     bool
}

// Attempt records one strategy's try.
type Attempt struct {
	Strategy string
	Err      error
}

// Outcome reports which strategy landed the artifact and everything tried
// on the way there.
type Outcome struct {
	StrategyUsed string
	Attempts     []Attempt
}

// Strategy is one way of getting an artifact into the editor's asset
// database. The automation surface differs across editor versions and
// configurations, so no single entry point is reliable; the adapter runs
// a priority-ordered chain of these.
type Strategy interface {
	Name() string
	Import(ctx context.Context, s editor.Session, req Request) error
}

// Adapter tries strategies strictly in order, stopping at the first
// success. Re-importing an existing asset updates it in place; the chain
// never produces a numerically suffixed duplicate.
type Adapter struct {
	session    editor.Session
	strategies []Strategy
	logger     *slog.Logger
}

func NewAdapter(session editor.Session, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		session: session,
		strategies: []Strategy{
			reimportExisting{},
			taskImport{},
			directImport{},
		},
		logger: logger,
	}
}

// WithStrategies replaces the chain; tests use it to script outcomes.
func (a *Adapter) WithStrategies(strategies ...Strategy) *Adapter {
	return &Adapter{session: a.session, strategies: strategies, logger: a.logger}
}

func (a *Adapter) ImportArtifact(ctx context.Context, req Request) (Outcome, error) {
	var out Outcome
	for _, strat := range a.strategies {
		err := strat.Import(ctx, a.session, req)
		if err == nil {
			out.StrategyUsed = strat.Name()
			a.logger.Info("artifact imported",
				"asset", req.AssetPath, "strategy", strat.Name(),
				"attempts", len(out.Attempts)+1)
			return out, nil
		}
		out.Attempts = append(out.Attempts, Attempt{Strategy: strat.Name(), Err: err})
		if !errors.Is(err, errNotApplicable) {
			a.logger.Warn("import strategy failed",
				"asset", req.AssetPath, "strategy", strat.Name(), "error", err)
		}
	}

	var detail []string
	for _, att := range out.Attempts {
		detail = append(detail, fmt.Sprintf("%s: %v", att.Strategy, att.Err))
	}
	return out, fmt.Errorf("%w for %s (%s)", ErrExhausted, req.AssetPath, strings.Join(detail, "; "))
}

// reimportExisting asks the asset subsystem to refresh an asset from its
// recorded source. Fastest path, but only valid when the asset is already
// there.
type reimportExisting struct{}

func (reimportExisting) Name() string { return "reimport-existing" }

func (reimportExisting) Import(ctx context.Context, s editor.Session, req Request) error {
	if !req.Exists {
		return fmt.Errorf("%w: no existing asset at %s", errNotApplicable, req.AssetPath)
	}
	return s.ReimportAsset(ctx, req.AssetPath)
}

// taskImport runs a structured import task with an explicit destination
// name, replacing any existing asset of that name.
type taskImport struct{}

func (taskImport) Name() string { return "import-task" }

func (taskImport) Import(ctx context.Context, s editor.Session, req Request) error {
	return s.RunImportTask(ctx, editor.ImportTask{
		SourceFile: req.SourceFile,
		DestFolder: req.DestFolder,
		AssetName:  req.AssetName,
	})
}

// directImport is the content-browser style import: point the editor at
// the file and the destination and let it pick the factory.
type directImport struct{}

func (directImport) Name() string { return "direct-import" }

func (directImport) Import(ctx context.Context, s editor.Session, req Request) error {
	return s.ImportAsset(ctx, req.SourceFile, req.AssetPath)
}
