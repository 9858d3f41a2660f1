package steps

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/lcroisez/undini/internal/artifacts"
	"github.com/lcroisez/undini/internal/models"
	"github.com/lcroisez/undini/internal/naming"
)

// ExportGenZones collects the level's marked generation-zone meshes, exports
// them as one FBX mesh set, and writes a transforms sidecar recording where
// each placed actor sits.
type ExportGenZones struct{}

func (ExportGenZones) Name() string { return "export-genzones" }
func (ExportGenZones) Kind() Kind { return KindInSession }
func (ExportGenZones) Optional() bool { return false }

func (ExportGenZones) Requires(*Context) []naming.Category { return nil }

func (ExportGenZones) Produces(rc *Context) []naming.Category {
	return []naming.Category{rc.Catalog.GenZoneMesh}
}

func (ExportGenZones) Run(ctx context.Context, rc *Context) (*Result, error) {
	actors, err := rc.Session.MeshActors(ctx, rc.Cfg.Markers.GenZone)
	if err != nil {
		return nil, fmt.Errorf("listing genzone actors: %w", err)
	}
	if len(actors) == 0 {
		return nil, fmt.Errorf("%w: no meshes matching %q in the level",
			ErrDiscoveryEmpty, rc.Cfg.Markers.GenZone)
	}

	// One export call for the distinct meshes; the sidecar keeps the
	// per-actor placement the FBX loses.
	seen := make(map[string]bool)
	var meshNames []string
	sidecar := &artifacts.TransformSidecar{}
	for _, a := range actors {
		if !seen[a.MeshName] {
			seen[a.MeshName] = true
			meshNames = append(meshNames, a.MeshName)
		}
		t := artifacts.ActorTransform{ActorName: a.Label, MeshName: a.MeshName}
		t.Transform.Location = a.Location
		t.Transform.Rotation = a.Rotation
		t.Transform.Scale = a.Scale
		sidecar.Actors = append(sidecar.Actors, t)
	}
	sort.Strings(meshNames)

	cat := rc.Catalog.GenZoneMesh
	if err := os.MkdirAll(cat.Dir, 0755); err != nil {
		return nil, fmt.Errorf("creating genzones dir: %w", err)
	}
	dest := rc.Resolver.ResolveStem(cat, cat.Stems[0], rc.Iteration)
	if err := rc.Session.ExportMeshesFBX(ctx, meshNames, dest); err != nil {
		return nil, fmt.Errorf("exporting mesh set: %w", err)
	}
	// The editor reports export success even when the FBX writer silently
	// produced nothing, so check the file directly.
	if _, err := os.Stat(dest); err != nil {
		return nil, fmt.Errorf("mesh set missing after export: %s", dest)
	}

	sidecarPath := strings.TrimSuffix(dest, cat.Ext) + "_transforms.json"
	if err := artifacts.WriteTransforms(sidecarPath, sidecar); err != nil {
		return nil, err
	}

	return &Result{
		Status:    models.StepStatusSucceeded,
		Artifacts: []string{dest, sidecarPath},
		Diagnostic: fmt.Sprintf("%d placed actors, %d distinct meshes",
			len(actors), len(meshNames)),
	}, nil
}
