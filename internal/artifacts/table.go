package artifacts

import (
	"encoding/csv"
	"fmt"
	"os"
)

// Table is a name-keyed view of an engine-produced CSV: a header row with a
// key column first, then one payload column per attribute. Rows are keyed
// by the value of the first column.
type Table struct {
	Header []string
	Names  []string // key column values, file order
	rows   map[string][]string
}

// Row returns the payload columns for a name.
func (t *Table) Row(name string) ([]string, bool) {
	row, ok := t.rows[name]
	return row, ok
}

func (t *Table) Len() int { return len(t.Names) }

// ReadTable parses an engine CSV table. The header must carry at least the
// key column; extra columns beyond the header are dropped per row, missing
// ones left empty, since the engine's table layout varies by graph.
func ReadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing table %s: %w", path, err)
	}
	if len(records) == 0 || len(records[0]) == 0 {
		return nil, fmt.Errorf("table %s has no header row", path)
	}

	t := &Table{
		Header: records[0],
		rows:   make(map[string][]string, len(records)-1),
	}
	width := len(t.Header) - 1
	for _, rec := range records[1:] {
		if len(rec) == 0 || rec[0] == "" {
			continue
		}
		name := rec[0]
		row := make([]string, width)
		copy(row, rec[1:])
		if _, dup := t.rows[name]; !dup {
			t.Names = append(t.Names, name)
		}
		t.rows[name] = row
	}
	return t, nil
}
