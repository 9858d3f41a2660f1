package naming

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Lister enumerates the item names at a storage location. The filesystem
// implementation backs engine/editor file categories; editor-internal
// categories get a lister wrapping the session's asset database.
type Lister interface {
	List(dir string) ([]string, error)
}

// DirLister lists plain filesystem directories. A missing directory is an
// empty result, not an error: callers decide whether empty is fatal.
type DirLister struct{}

func (DirLister) List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// ListerFunc adapts a function to the Lister interface.
type ListerFunc func(dir string) ([]string, error)

func (f ListerFunc) List(dir string) ([]string, error) { return f(dir) }

// Resolver maps (category, iteration) to expected artifact paths and back.
// Resolve is pure; Discover consults a Lister for what actually exists.
type Resolver struct {
	files  Lister
	assets Lister
}

func NewResolver() *Resolver {
	return &Resolver{files: DirLister{}}
}

// WithAssetLister returns a copy of the resolver that uses l for
// editor-internal categories.
func (r *Resolver) WithAssetLister(l Lister) *Resolver {
	return &Resolver{files: r.files, assets: l}
}

// WithFileLister returns a copy of the resolver that uses l instead of the
// filesystem. Tests use this to resolve against fixed listings.
func (r *Resolver) WithFileLister(l Lister) *Resolver {
	return &Resolver{files: l, assets: r.assets}
}

// Resolve returns the expected path for every stem of the category at the
// given iteration, in stem order. Same inputs always give the same output.
func (r *Resolver) Resolve(cat Category, iteration int) []string {
	paths := make([]string, 0, len(cat.Stems))
	for _, stem := range cat.Stems {
		paths = append(paths, r.ResolveStem(cat, stem, iteration))
	}
	return paths
}

// ResolveStem returns the expected path for one stem of the category.
func (r *Resolver) ResolveStem(cat Category, stem string, iteration int) string {
	name := fmt.Sprintf("%s_%d%s", stem, iteration, cat.Ext)
	return r.join(cat, name)
}

// ResolvePiece returns the expected path for one piece of a multi-piece
// category.
func (r *Resolver) ResolvePiece(cat Category, stem string, iteration, piece int) string {
	name := fmt.Sprintf("%s_%d_piece_%d%s", stem, iteration, piece, cat.Ext)
	return r.join(cat, name)
}

func (r *Resolver) join(cat Category, name string) string {
	if cat.Direction == EditorInternal {
		if strings.HasPrefix(name, "/") {
			return name // already a full asset path
		}
		// Asset paths always use forward slashes.
		return path.Join(cat.Dir, name)
	}
	return filepath.Join(cat.Dir, name)
}

// Discover scans the category's storage location and returns every existing
// item matching the category's template for the iteration, in stem order
// with pieces sorted by index ascending. Nothing matching is an empty
// result, never an error.
func (r *Resolver) Discover(cat Category, iteration int) ([]string, error) {
	lister := r.files
	if cat.Direction == EditorInternal {
		lister = r.assets
	}
	if lister == nil {
		return nil, fmt.Errorf("no lister for %s storage", cat.Direction)
	}

	names, err := lister.List(cat.Dir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s for %q: %w", cat.Dir, cat.Name, err)
	}

	type match struct {
		name  string
		stem  int
		piece int
	}
	var matches []match
	for _, name := range names {
		// Asset listers may return full asset paths; templates match the
		// base name only.
		base := name
		if cat.Direction == EditorInternal {
			base = path.Base(name)
		}
		for i, stem := range cat.Stems {
			piece, ok := matchName(base, stem, iteration, cat.Ext, cat.Pieces)
			if ok {
				matches = append(matches, match{name: name, stem: i, piece: piece})
				break
			}
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].stem != matches[j].stem {
			return matches[i].stem < matches[j].stem
		}
		return matches[i].piece < matches[j].piece
	})

	paths := make([]string, 0, len(matches))
	for _, m := range matches {
		paths = append(paths, r.join(cat, m.name))
	}
	return paths, nil
}

// matchName reports whether name matches {stem}_{iteration}{ext}, or
// {stem}_{iteration}_piece_{k}{ext} when pieces is set, returning the piece
// index. The two forms are exclusive: a pieces category never matches the
// plain name, so a batch asset sitting next to its pieces is not mistaken
// for one. The stem comparison is case-insensitive; the iteration must
// match exactly and numerically, so iteration 1 never matches a file for
// iteration 10 or 21.
func matchName(name, stem string, iteration int, ext string, pieces bool) (int, bool) {
	lower := strings.ToLower(name)
	prefix := strings.ToLower(stem) + "_"
	if !strings.HasPrefix(lower, prefix) {
		return 0, false
	}
	rest := lower[len(prefix):]

	want := strconv.Itoa(iteration)
	digits := leadingDigits(rest)
	if digits != want {
		return 0, false
	}
	rest = rest[len(digits):]

	lowerExt := strings.ToLower(ext)
	if !pieces {
		if rest == lowerExt {
			return 0, true
		}
		return 0, false
	}
	const marker = "_piece_"
	if !strings.HasPrefix(rest, marker) {
		return 0, false
	}
	rest = rest[len(marker):]
	pieceDigits := leadingDigits(rest)
	if pieceDigits == "" || rest[len(pieceDigits):] != lowerExt {
		return 0, false
	}
	piece, err := strconv.Atoi(pieceDigits)
	if err != nil {
		return 0, false
	}
	return piece, true
}

func leadingDigits(s string) string {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return s[:i]
}
