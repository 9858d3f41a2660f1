package steps

import (
	"context"
	"fmt"

	"github.com/lcroisez/undini/internal/models"
	"github.com/lcroisez/undini/internal/naming"
)

// ImportMeshes brings the engine-produced geometry batches into the asset
// database. The editor's FBX import splits each batch into its constituent
// pieces, named {stem}_{N}_piece_{k} alongside the batch asset.
type ImportMeshes struct{}

func (ImportMeshes) Name() string { return "import-meshes" }
func (ImportMeshes) Kind() Kind { return KindInSession }
func (ImportMeshes) Optional() bool { return false }

func (ImportMeshes) Requires(rc *Context) []naming.Category {
	return []naming.Category{rc.Catalog.GeometryBatch}
}

func (ImportMeshes) Produces(*Context) []naming.Category { return nil }

func (ImportMeshes) Run(ctx context.Context, rc *Context) (*Result, error) {
	cat := rc.Catalog.GeometryBatch
	files, err := rc.Resolver.Discover(cat, rc.Iteration)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrDiscoveryEmpty, cat.Name)
	}

	var assetPaths []string
	for _, file := range files {
		assetPath, err := importIntoFolder(ctx, rc, file, rc.Cfg.Assets.MeshFolder, stemOf(rc, file, cat.Ext))
		if err != nil {
			return nil, err
		}
		assetPaths = append(assetPaths, assetPath)
	}

	return &Result{
		Status:     models.StepStatusSucceeded,
		Artifacts:  assetPaths,
		Diagnostic: fmt.Sprintf("%d geometry batches imported", len(assetPaths)),
	}, nil
}
