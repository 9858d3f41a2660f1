package steps

import (
	"context"
	"fmt"
	"path"

	"github.com/lcroisez/undini/internal/models"
	"github.com/lcroisez/undini/internal/naming"
)

// CreatePCGGraph instantiates the iteration's procedural-generation graph
// from the blueprint template and drops an instance into the level. Re-runs
// reuse the existing instance asset instead of duplicating again.
type CreatePCGGraph struct{}

func (CreatePCGGraph) Name() string { return "create-pcg-graph" }
func (CreatePCGGraph) Kind() Kind { return KindInSession }
func (CreatePCGGraph) Optional() bool { return true }

func (CreatePCGGraph) Requires(*Context) []naming.Category { return nil }
func (CreatePCGGraph) Produces(*Context) []naming.Category { return nil }

func (CreatePCGGraph) Run(ctx context.Context, rc *Context) (*Result, error) {
	template := rc.Cfg.Assets.PCGTemplate
	ok, err := rc.Session.AssetExists(ctx, template)
	if err != nil {
		return nil, fmt.Errorf("checking graph template: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("graph template not found: %s", template)
	}

	name := fmt.Sprintf("BPi_PCG_HD_%d", rc.Iteration)
	instPath := path.Join(rc.Cfg.Assets.PCGFolder, name)
	exists, err := rc.Session.AssetExists(ctx, instPath)
	if err != nil {
		return nil, fmt.Errorf("checking graph instance: %w", err)
	}
	if exists {
		rc.Logger.Info("reusing existing graph instance", "asset", instPath)
	} else {
		created, err := rc.Session.DuplicateAsset(ctx, template, rc.Cfg.Assets.PCGFolder, name)
		if err != nil {
			return nil, fmt.Errorf("duplicating graph template: %w", err)
		}
		instPath = created
	}

	// The instance asset is the deliverable; a level placement that fails
	// can be redone by hand, so it only degrades the result.
	if err := rc.Session.SpawnAsset(ctx, instPath, name, "PCG"); err != nil {
		return &Result{
			Status:     models.StepStatusWarned,
			Artifacts:  []string{instPath},
			Diagnostic: fmt.Sprintf("instance created but not placed: %v", err),
		}, nil
	}

	return &Result{
		Status:     models.StepStatusSucceeded,
		Artifacts:  []string{instPath},
		Diagnostic: "graph instance " + name + " placed",
	}, nil
}
