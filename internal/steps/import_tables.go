package steps

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/lcroisez/undini/internal/artifacts"
	"github.com/lcroisez/undini/internal/importer"
	"github.com/lcroisez/undini/internal/models"
	"github.com/lcroisez/undini/internal/naming"
)

// ImportTables brings the engine-produced mesh/material CSV tables into the
// asset database, updating existing table assets in place.
type ImportTables struct{}

func (ImportTables) Name() string { return "import-tables" }
func (ImportTables) Kind() Kind { return KindInSession }
func (ImportTables) Optional() bool { return false }

func (ImportTables) Requires(rc *Context) []naming.Category {
	return []naming.Category{rc.Catalog.Tables}
}

func (ImportTables) Produces(*Context) []naming.Category { return nil }

func (ImportTables) Run(ctx context.Context, rc *Context) (*Result, error) {
	cat := rc.Catalog.Tables
	files, err := rc.Resolver.Discover(cat, rc.Iteration)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrDiscoveryEmpty, cat.Name)
	}

	var assetPaths []string
	var emptyTables []string
	for _, file := range files {
		table, err := artifacts.ReadTable(file)
		if err != nil {
			return nil, fmt.Errorf("unreadable table %s: %w", filepath.Base(file), err)
		}
		if table.Len() == 0 {
			emptyTables = append(emptyTables, filepath.Base(file))
		}

		assetPath, err := importIntoFolder(ctx, rc, file, rc.Cfg.Assets.TableFolder, stemOf(rc, file, cat.Ext))
		if err != nil {
			return nil, err
		}
		assetPaths = append(assetPaths, assetPath)
	}

	res := &Result{
		Status:     models.StepStatusSucceeded,
		Artifacts:  assetPaths,
		Diagnostic: fmt.Sprintf("%d tables imported", len(assetPaths)),
	}
	if len(emptyTables) > 0 {
		res.Status = models.StepStatusWarned
		res.Diagnostic += fmt.Sprintf("; empty: %s", strings.Join(emptyTables, ", "))
	}
	return res, nil
}

// stemOf strips the directory, the iteration suffix and the extension from
// a discovered artifact path, recovering the category stem. Discovery
// matches names case-insensitively, so the trim has to as well.
func stemOf(rc *Context, file, ext string) string {
	base := strings.ToLower(filepath.Base(file))
	suffix := strings.ToLower(fmt.Sprintf("_%d%s", rc.Iteration, ext))
	return strings.TrimSuffix(base, suffix)
}

// importIntoFolder resolves an artifact's destination asset, checks whether
// it is already in the database (by naming discovery, never by the import
// call's own signal), and runs the import fallback chain. Returns the asset
// path.
func importIntoFolder(ctx context.Context, rc *Context, sourceFile, destFolder, stem string) (string, error) {
	exists, err := rc.assetExists(ctx, destFolder, stem)
	if err != nil {
		return "", fmt.Errorf("checking for existing %s asset: %w", stem, err)
	}

	assetName := fmt.Sprintf("%s_%d", stem, rc.Iteration)
	assetPath := path.Join(destFolder, assetName)
	_, err = rc.Importer.ImportArtifact(ctx, importer.Request{
		SourceFile: sourceFile,
		DestFolder: destFolder,
		AssetName:  assetName,
		AssetPath:  assetPath,
		Exists:     exists,
	})
	if err != nil {
		if errors.Is(err, importer.ErrExhausted) {
			return "", err
		}
		return "", fmt.Errorf("importing %s: %w", assetName, err)
	}
	return assetPath, nil
}
