package steps

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lcroisez/undini/internal/artifacts"
	"github.com/lcroisez/undini/internal/models"
	"github.com/lcroisez/undini/internal/naming"
)

// ExportSplines walks the level for marked spline actors and writes their
// control points to the iteration's spline description file. Actors without
// spline components are noted and skipped.
type ExportSplines struct{}

func (ExportSplines) Name() string { return "export-splines" }
func (ExportSplines) Kind() Kind { return KindInSession }
func (ExportSplines) Optional() bool { return false }

func (ExportSplines) Requires(*Context) []naming.Category { return nil }

func (ExportSplines) Produces(rc *Context) []naming.Category {
	return []naming.Category{rc.Catalog.SplineJSON}
}

func (ExportSplines) Run(ctx context.Context, rc *Context) (*Result, error) {
	actors, err := rc.Session.SplineActors(ctx, rc.Cfg.Markers.Spline)
	if err != nil {
		return nil, fmt.Errorf("listing spline actors: %w", err)
	}
	if len(actors) == 0 {
		return nil, fmt.Errorf("%w: no actors labeled %q in the level",
			ErrDiscoveryEmpty, rc.Cfg.Markers.Spline)
	}

	var records []artifacts.SplineRecord
	var withoutComponents int
	for _, actor := range actors {
		if len(actor.Components) == 0 {
			withoutComponents++
			rc.Logger.Warn("spline actor has no spline components", "actor", actor.Label)
			continue
		}
		for i, comp := range actor.Components {
			records = append(records, artifacts.SplineRecord{
				ActorName:      actor.Label,
				ActorLocation:  actor.Location,
				ComponentName:  comp.Name,
				ComponentIndex: i,
				Points:         comp.Points,
			})
		}
	}

	cat := rc.Catalog.SplineJSON
	if err := os.MkdirAll(cat.Dir, 0755); err != nil {
		return nil, fmt.Errorf("creating splines dir: %w", err)
	}
	dest := rc.Resolver.ResolveStem(cat, cat.Stems[0], rc.Iteration)
	if err := artifacts.WriteSplines(dest, records); err != nil {
		return nil, err
	}

	res := &Result{
		Status:    models.StepStatusSucceeded,
		Artifacts: []string{dest},
		Diagnostic: fmt.Sprintf("%d actors, %d spline components exported to %s",
			len(actors), len(records), filepath.Base(dest)),
	}
	if withoutComponents > 0 {
		res.Status = models.StepStatusWarned
		res.Diagnostic += fmt.Sprintf(" (%d actors had no spline components)", withoutComponents)
	}
	return res, nil
}
