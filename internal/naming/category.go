package naming

// Direction records which side of the pipeline produces a category's
// artifacts. Editor-internal categories live in the asset database rather
// than on the shared filesystem, so discovery for them goes through the
// session's asset listing instead of a directory scan.
type Direction string

const (
	ProducedByEditor Direction = "editor"
	ProducedByEngine Direction = "engine"
	EditorInternal   Direction = "editor-internal"
)

// Category is one kind of artifact exchanged between the Editor and the
// Headless Engine. Names are built as {stem}_{iteration}{ext}, or
// {stem}_{iteration}_piece_{k}{ext} for multi-piece categories. A category
// with several stems (mesh/mat, sidewalks/road) resolves to one expected
// name per stem.
type Category struct {
	Name      string
	Direction Direction
	// Dir is the category's fixed storage location: a filesystem directory,
	// or an asset folder for editor-internal categories.
	Dir    string
	Stems  []string
	Ext    string
	Pieces bool
}

// Catalog holds every artifact category the pipeline exchanges, bound to
// their storage locations.
type Catalog struct {
	SplineJSON    Category
	GenZoneMesh   Category
	Tables        Category
	GeometryBatch Category
	Pieces        Category
}

// Dirs are the per-category storage locations, normally taken from config.
type Dirs struct {
	Splines  string
	GenZones string
	Tables   string
	Geometry string
	// PieceFolder is the asset folder the placed-geometry pieces land in.
	PieceFolder string
}

func NewCatalog(d Dirs) *Catalog {
	return &Catalog{
		SplineJSON: Category{
			Name:      "spline description",
			Direction: ProducedByEditor,
			Dir:       d.Splines,
			Stems:     []string{"splines_export_from_UE"},
			Ext:       ".json",
		},
		GenZoneMesh: Category{
			Name:      "export mesh set",
			Direction: ProducedByEditor,
			Dir:       d.GenZones,
			Stems:     []string{"SM_genzones_PCG_HD"},
			Ext:       ".fbx",
		},
		Tables: Category{
			Name:      "mesh/material table",
			Direction: ProducedByEngine,
			Dir:       d.Tables,
			Stems:     []string{"mesh", "mat"},
			Ext:       ".csv",
		},
		GeometryBatch: Category{
			Name:      "generated geometry batch",
			Direction: ProducedByEngine,
			Dir:       d.Geometry,
			Stems:     []string{"sidewalks", "road"},
			Ext:       ".fbx",
		},
		Pieces: Category{
			Name:      "placed geometry pieces",
			Direction: EditorInternal,
			Dir:       d.PieceFolder,
			Stems:     []string{"sidewalks", "road"},
			Pieces:    true,
		},
	}
}
