package steps

import (
	"context"
	"fmt"
	"path"

	"github.com/lcroisez/undini/internal/models"
	"github.com/lcroisez/undini/internal/naming"
)

// PlacePieces spawns every imported geometry piece of the iteration into
// the level, sidewalks first then road, pieces in index order. A piece that
// fails to spawn degrades the step; only a run where nothing spawned fails.
type PlacePieces struct{}

func (PlacePieces) Name() string { return "place-pieces" }
func (PlacePieces) Kind() Kind { return KindInSession }
func (PlacePieces) Optional() bool { return true }

func (PlacePieces) Requires(rc *Context) []naming.Category {
	return []naming.Category{rc.Catalog.Pieces}
}

func (PlacePieces) Produces(*Context) []naming.Category { return nil }

func (PlacePieces) Run(ctx context.Context, rc *Context) (*Result, error) {
	pieces, err := rc.assetResolver(ctx).Discover(rc.Catalog.Pieces, rc.Iteration)
	if err != nil {
		return nil, err
	}
	if len(pieces) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrDiscoveryEmpty, rc.Catalog.Pieces.Name)
	}

	var placed []string
	var failed []string
	for _, assetPath := range pieces {
		label := path.Base(assetPath)
		if err := rc.Session.SpawnAsset(ctx, assetPath, label, "Generated"); err != nil {
			rc.Logger.Warn("piece failed to spawn", "asset", assetPath, "error", err)
			failed = append(failed, label)
			continue
		}
		placed = append(placed, assetPath)
	}

	if len(placed) == 0 {
		return nil, fmt.Errorf("no pieces could be spawned (%d attempted)", len(pieces))
	}

	res := &Result{
		Status:     models.StepStatusSucceeded,
		Artifacts:  placed,
		Diagnostic: fmt.Sprintf("%d pieces placed", len(placed)),
	}
	if len(failed) > 0 {
		res.Status = models.StepStatusWarned
		res.Diagnostic = fmt.Sprintf("%d pieces placed, %d failed: %v", len(placed), len(failed), failed)
	}
	return res, nil
}
