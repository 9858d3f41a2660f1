package steps

import (
	"context"
	"fmt"
	"os"

	"github.com/lcroisez/undini/internal/config"
	"github.com/lcroisez/undini/internal/engine"
	"github.com/lcroisez/undini/internal/models"
	"github.com/lcroisez/undini/internal/naming"
)

// Generate cooks one headless engine graph. The buildings graph turns the
// exported level geometry into mesh/material tables; the roads graph turns
// it into sidewalk and road FBX batches. Which input feeds the graph
// (spline description or exported mesh set) is a per-run choice.
type Generate struct {
	name string
	// graph picks the configured graph for this step.
	graph func(*config.Config) config.Graph
	// output is the category the graph must fill, with one flag per stem.
	output func(*naming.Catalog) naming.Category
	flags  []string
}

// GenerateBuildings produces the mesh/material tables.
func GenerateBuildings() *Generate {
	return &Generate{
		name:   "generate-buildings",
		graph:  func(c *config.Config) config.Graph { return c.Engine.Buildings },
		output: func(cat *naming.Catalog) naming.Category { return cat.Tables },
		flags:  []string{"--rop_pcg_export1_mesh_path", "--rop_pcg_export1_mat_path"},
	}
}

// GenerateRoads produces the sidewalk and road geometry batches.
func GenerateRoads() *Generate {
	return &Generate{
		name:   "generate-roads",
		graph:  func(c *config.Config) config.Graph { return c.Engine.Roads },
		output: func(cat *naming.Catalog) naming.Category { return cat.GeometryBatch },
		flags:  []string{"--rop_fbx_sidewalks_path", "--rop_fbx_road_path"},
	}
}

func (g *Generate) Name() string { return g.name }
func (g *Generate) Kind() Kind { return KindExternal }
func (g *Generate) Optional() bool { return false }

func (g *Generate) Requires(rc *Context) []naming.Category {
	if rc.MeshDriven {
		return []naming.Category{rc.Catalog.GenZoneMesh}
	}
	return []naming.Category{rc.Catalog.SplineJSON}
}

func (g *Generate) Produces(rc *Context) []naming.Category {
	return []naming.Category{g.output(rc.Catalog)}
}

func (g *Generate) Run(ctx context.Context, rc *Context) (*Result, error) {
	// Both inputs are offered when present; only the active mode's input is
	// mandatory, and Requires already vouched for it.
	splinePath := g.firstDiscovered(rc, rc.Catalog.SplineJSON)
	meshPath := g.firstDiscovered(rc, rc.Catalog.GenZoneMesh)
	if rc.MeshDriven && meshPath == "" {
		return nil, fmt.Errorf("%w: %s", ErrDiscoveryEmpty, rc.Catalog.GenZoneMesh.Name)
	}
	if !rc.MeshDriven && splinePath == "" {
		return nil, fmt.Errorf("%w: %s", ErrDiscoveryEmpty, rc.Catalog.SplineJSON.Name)
	}

	out := g.output(rc.Catalog)
	if err := os.MkdirAll(out.Dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}
	expected := rc.Resolver.Resolve(out, rc.Iteration)
	outputs := make([]engine.OutputFlag, len(g.flags))
	for i, flag := range g.flags {
		outputs[i] = engine.OutputFlag{Flag: flag, Path: expected[i]}
	}

	graph := g.graph(rc.Cfg)
	req := engine.Request{
		Executable:  rc.Cfg.Engine.Executable,
		Driver:      rc.Cfg.Engine.Driver,
		GraphFile:   graph.File,
		NodePath:    graph.NodePath,
		Iteration:   rc.Iteration,
		SplinePath:  splinePath,
		MeshSetPath: meshPath,
		MeshDriven:  rc.MeshDriven,
		Outputs:     outputs,
		Timeout:     rc.engineTimeout(),
	}

	outcome, err := rc.Runner.InvokeRequest(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("launching engine for %s: %w", g.name, err)
	}
	if !outcome.Completed() {
		if outcome.TimedOut {
			return nil, fmt.Errorf("engine cook aborted after %s", outcome.Elapsed.Round(timeRound))
		}
		msg := fmt.Sprintf("engine cook exited %d", outcome.ExitCode)
		if hint := outcome.ErrorHint(); hint != "" {
			msg += ": " + hint
		}
		return nil, fmt.Errorf("%s", msg)
	}

	// Artifacts listed here are the expected paths; the orchestrator
	// re-discovers them and fails the step if any are missing, exit code
	// notwithstanding.
	return &Result{
		Status:     models.StepStatusSucceeded,
		Artifacts:  expected,
		Diagnostic: fmt.Sprintf("cook finished in %s", outcome.Elapsed.Round(timeRound)),
	}, nil
}

func (g *Generate) firstDiscovered(rc *Context, cat naming.Category) string {
	found, err := rc.Resolver.Discover(cat, rc.Iteration)
	if err != nil || len(found) == 0 {
		return ""
	}
	return found[0]
}
