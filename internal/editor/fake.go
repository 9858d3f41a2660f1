package editor

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// SpawnedActor records one SpawnAsset call on the fake.
type SpawnedActor struct {
	AssetPath   string
	Label       string
	LevelFolder string
}

// Fake is an in-memory Session. Tests use it to script editor behavior;
// the CLI's --dry-run mode uses it to walk a pipeline without a live
// editor attached.
type Fake struct {
	mu sync.Mutex

	Splines []SplineActor
	Meshes  []MeshActor

	assets  map[string]bool
	Spawned []SpawnedActor
	// Calls records every import entry point invocation in order, as
	// "reimport:<path>", "task:<name>", "direct:<path>".
	Calls []string

	// Failure injection. A nil error means the operation succeeds.
	ExportErr    error
	ReimportErr  error
	TaskErr      error
	DirectErr    error
	DuplicateErr error
	SpawnErrFor  map[string]error
}

func NewFake() *Fake {
	return &Fake{assets: make(map[string]bool)}
}

// AddAsset seeds the fake asset database.
func (f *Fake) AddAsset(assetPath string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assets[assetPath] = true
}

func (f *Fake) SplineActors(_ context.Context, marker string) ([]SplineActor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []SplineActor
	for _, a := range f.Splines {
		if strings.HasPrefix(strings.ToLower(a.Label), strings.ToLower(marker)) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *Fake) MeshActors(_ context.Context, marker string) ([]MeshActor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lower := strings.ToLower(marker)
	var out []MeshActor
	for _, a := range f.Meshes {
		if strings.Contains(strings.ToLower(a.Label), lower) ||
			strings.Contains(strings.ToLower(a.MeshName), lower) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *Fake) ExportMeshesFBX(_ context.Context, meshNames []string, destPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ExportErr != nil {
		return f.ExportErr
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return err
	}
	// Placeholder payload; the pipeline treats geometry files as opaque.
	return os.WriteFile(destPath, []byte("fbx:"+strings.Join(meshNames, ",")), 0644)
}

func (f *Fake) AssetExists(_ context.Context, assetPath string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.assets[assetPath], nil
}

func (f *Fake) ListAssets(_ context.Context, folder string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	prefix := strings.TrimRight(folder, "/") + "/"
	var out []string
	for p := range f.assets {
		if strings.HasPrefix(p, prefix) {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (f *Fake) DuplicateAsset(_ context.Context, srcPath, destFolder, newName string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.DuplicateErr != nil {
		return "", f.DuplicateErr
	}
	if !f.assets[srcPath] {
		return "", fmt.Errorf("source asset not found: %s", srcPath)
	}
	dest := path.Join(destFolder, newName)
	f.assets[dest] = true
	return dest, nil
}

func (f *Fake) SpawnAsset(_ context.Context, assetPath, label, levelFolder string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.SpawnErrFor[assetPath]; err != nil {
		return err
	}
	if !f.assets[assetPath] {
		return fmt.Errorf("asset not found: %s", assetPath)
	}
	f.Spawned = append(f.Spawned, SpawnedActor{AssetPath: assetPath, Label: label, LevelFolder: levelFolder})
	return nil
}

func (f *Fake) ReimportAsset(_ context.Context, assetPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, "reimport:"+assetPath)
	if f.ReimportErr != nil {
		return f.ReimportErr
	}
	if !f.assets[assetPath] {
		return fmt.Errorf("cannot reimport, asset missing: %s", assetPath)
	}
	return nil
}

func (f *Fake) RunImportTask(_ context.Context, task ImportTask) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, "task:"+task.AssetName)
	if f.TaskErr != nil {
		return f.TaskErr
	}
	f.assets[path.Join(task.DestFolder, task.AssetName)] = true
	return nil
}

func (f *Fake) ImportAsset(_ context.Context, sourceFile, destPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, "direct:"+destPath)
	if f.DirectErr != nil {
		return f.DirectErr
	}
	f.assets[destPath] = true
	return nil
}

var _ Session = (*Fake)(nil)
