package steps

import (
	"fmt"
	"sort"
)

// Registry holds the step catalog and the named workflow variants built
// from it. Variants share step instances; steps carry no per-run state.
type Registry struct {
	steps    map[string]Step
	variants map[string][]Step
}

// NewRegistry builds the catalog and the three built-in variants:
//
//	full       the complete pipeline, exports through placement
//	buildings  exports, the buildings cook and its table import
//	roads      the genzone export, the roads cook, mesh import, placement
func NewRegistry() *Registry {
	exportSplines := ExportSplines{}
	exportGenZones := ExportGenZones{}
	genBuildings := GenerateBuildings()
	importTables := ImportTables{}
	createGraph := CreatePCGGraph{}
	genRoads := GenerateRoads()
	importMeshes := ImportMeshes{}
	placePieces := PlacePieces{}

	r := &Registry{
		steps:    make(map[string]Step),
		variants: make(map[string][]Step),
	}
	for _, s := range []Step{
		exportSplines, exportGenZones, genBuildings, importTables,
		createGraph, genRoads, importMeshes, placePieces,
	} {
		r.steps[s.Name()] = s
	}

	r.variants["full"] = []Step{
		exportSplines, exportGenZones, genBuildings, importTables,
		createGraph, genRoads, importMeshes, placePieces,
	}
	r.variants["buildings"] = []Step{
		exportSplines, exportGenZones, genBuildings, importTables, createGraph,
	}
	r.variants["roads"] = []Step{
		exportGenZones, genRoads, importMeshes, placePieces,
	}
	return r
}

// Variant returns the step sequence for a named variant.
func (r *Registry) Variant(name string) ([]Step, error) {
	steps, ok := r.variants[name]
	if !ok {
		return nil, fmt.Errorf("unknown variant %q (have: %v)", name, r.VariantNames())
	}
	return steps, nil
}

// Step looks a single step up by name; scripted variants assemble their
// sequences this way.
func (r *Registry) Step(name string) (Step, error) {
	s, ok := r.steps[name]
	if !ok {
		return nil, fmt.Errorf("unknown step %q (have: %v)", name, r.StepNames())
	}
	return s, nil
}

func (r *Registry) VariantNames() []string {
	names := make([]string, 0, len(r.variants))
	for name := range r.variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) StepNames() []string {
	names := make([]string, 0, len(r.steps))
	for name := range r.steps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
