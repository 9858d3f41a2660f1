package editor

import (
	"context"

	"github.com/lcroisez/undini/internal/artifacts"
)

// SplineComponent is one spline component of a level actor, with its
// control points already in world space.
type SplineComponent struct {
	Name   string
	Points []artifacts.SplinePoint
}

// SplineActor is a level actor carrying one or more spline components.
type SplineActor struct {
	Label      string
	Location   artifacts.Vec3
	Components []SplineComponent
}

// MeshActor is a placed static-mesh actor.
type MeshActor struct {
	Label    string
	MeshName string
	Location artifacts.Vec3
	Rotation artifacts.Rotation
	Scale    artifacts.Vec3
}

// ImportTask is the structured import request: source file, destination
// folder and asset name, with the editor replacing an existing asset of the
// same name instead of suffixing a new one.
type ImportTask struct {
	SourceFile string `json:"source_file"`
	DestFolder string `json:"dest_folder"`
	AssetName  string `json:"asset_name"`
}

// Session is the narrow surface of the Editor the pipeline drives. It is
// process-wide shared state on the editor side, so callers never run two
// in-session operations concurrently. The remote client implements it
// against a live editor; the fake implements it in memory for tests and
// dry runs.
type Session interface {
	// SplineActors returns every level actor whose label starts with the
	// given marker (matched case-insensitively).
	SplineActors(ctx context.Context, marker string) ([]SplineActor, error)
	// MeshActors returns every placed static-mesh actor whose label or mesh
	// name contains the marker (matched case-insensitively).
	MeshActors(ctx context.Context, marker string) ([]MeshActor, error)
	// ExportMeshesFBX exports the named mesh assets as one FBX file on disk.
	ExportMeshesFBX(ctx context.Context, meshNames []string, destPath string) error

	AssetExists(ctx context.Context, assetPath string) (bool, error)
	ListAssets(ctx context.Context, folder string) ([]string, error)
	DuplicateAsset(ctx context.Context, srcPath, destFolder, newName string) (string, error)
	// SpawnAsset places an instance of the asset in the level at the origin,
	// labeled and filed under the given level folder. Folder or label may be
	// empty.
	SpawnAsset(ctx context.Context, assetPath, label, levelFolder string) error

	// The three import entry points, in the order the fallback chain tries
	// them. Availability differs across editor versions, which is why all
	// three exist.
	ReimportAsset(ctx context.Context, assetPath string) error
	RunImportTask(ctx context.Context, task ImportTask) error
	ImportAsset(ctx context.Context, sourceFile, destPath string) error
}
