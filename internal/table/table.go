// Package table holds the in-memory survey table and its loaders and exporters.
package table

import (
	"fmt"
	"math"
	"strconv"
)

// Kind is the semantic type of a column, decided once at load time.
type Kind int

const (
	Text Kind = iota
	Numeric
)

func (k Kind) String() string {
	if k == Numeric {
		return "numeric"
	}
	return "text"
}

// MarshalText renders the kind as "numeric" or "text".
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Column is a named column. Numeric columns store values in Num with NaN for a
// missing cell; text columns store values in Text with "" for a missing cell.
type Column struct {
	Name string
	Kind Kind
	Num  []float64
	Text []string
}

// NumericColumn builds a numeric column. NaN marks a missing value.
func NumericColumn(name string, vals []float64) *Column {
	return &Column{Name: name, Kind: Numeric, Num: vals}
}

// TextColumn builds a text column. "" marks a missing value.
func TextColumn(name string, vals []string) *Column {
	return &Column{Name: name, Kind: Text, Text: vals}
}

// Len returns the number of cells.
func (c *Column) Len() int {
	if c.Kind == Numeric {
		return len(c.Num)
	}
	return len(c.Text)
}

// IsMissing reports whether cell i is missing.
func (c *Column) IsMissing(i int) bool {
	if c.Kind == Numeric {
		return math.IsNaN(c.Num[i])
	}
	return c.Text[i] == ""
}

// Missing returns the number of missing cells.
func (c *Column) Missing() int {
	n := 0
	for i := 0; i < c.Len(); i++ {
		if c.IsMissing(i) {
			n++
		}
	}
	return n
}

// Cell formats cell i for export. Missing cells render as "".
func (c *Column) Cell(i int) string {
	if c.Kind == Text {
		return c.Text[i]
	}
	v := c.Num[i]
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func (c *Column) clone() *Column {
	cp := &Column{Name: c.Name, Kind: c.Kind}
	if c.Num != nil {
		cp.Num = append([]float64(nil), c.Num...)
	}
	if c.Text != nil {
		cp.Text = append([]string(nil), c.Text...)
	}
	return cp
}

// Table is an ordered set of equally long columns. Each row carries a stable 0-based
// label assigned at load time; labels survive row removal, so masks and outlier
// indices can be correlated across stages.
//
// A Table is owned by a single pipeline session and is mutated in place.
type Table struct {
	cols   []*Column
	byName map[string]int
	labels []int
}

// New builds a table from columns of equal length, labelling rows 0..n-1.
func New(cols ...*Column) (*Table, error) {
	t := &Table{byName: make(map[string]int, len(cols))}
	n := -1
	for _, c := range cols {
		if n >= 0 && c.Len() != n {
			return nil, fmt.Errorf("column %q has %d rows, want %d", c.Name, c.Len(), n)
		}
		n = c.Len()
		if _, dup := t.byName[c.Name]; dup {
			return nil, fmt.Errorf("duplicate column %q", c.Name)
		}
		t.byName[c.Name] = len(t.cols)
		t.cols = append(t.cols, c)
	}
	if n < 0 {
		n = 0
	}
	t.labels = make([]int, n)
	for i := range t.labels {
		t.labels[i] = i
	}
	return t, nil
}

// MustNew is New that panics on error, for fixtures.
func MustNew(cols ...*Column) *Table {
	t, err := New(cols...)
	if err != nil {
		panic(err)
	}
	return t
}

// Rows returns the current row count.
func (t *Table) Rows() int { return len(t.labels) }

// NumCols returns the column count.
func (t *Table) NumCols() int { return len(t.cols) }

// Columns returns the columns in order. The slice is shared; do not append to it.
func (t *Table) Columns() []*Column { return t.cols }

// Column looks up a column by name.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.byName[name]
	if !ok {
		return nil, false
	}
	return t.cols[i], true
}

// Names returns the column names in order.
func (t *Table) Names() []string {
	out := make([]string, len(t.cols))
	for i, c := range t.cols {
		out[i] = c.Name
	}
	return out
}

// NumericNames returns the names of numeric columns in order.
func (t *Table) NumericNames() []string {
	var out []string
	for _, c := range t.cols {
		if c.Kind == Numeric {
			out = append(out, c.Name)
		}
	}
	return out
}

// SelectNumeric resolves a column selection: nil means every numeric column; otherwise
// names that are absent or non-numeric are dropped, keeping the requested order.
func (t *Table) SelectNumeric(names []string) []string {
	if names == nil {
		return t.NumericNames()
	}
	out := make([]string, 0, len(names))
	for _, n := range names {
		if c, ok := t.Column(n); ok && c.Kind == Numeric {
			out = append(out, n)
		}
	}
	return out
}

// Labels returns a copy of the row labels.
func (t *Table) Labels() []int { return append([]int(nil), t.labels...) }

// Label returns the label of row position i.
func (t *Table) Label(i int) int { return t.labels[i] }

// SetNumeric replaces the values of a column and marks it numeric. The length must
// match the row count.
func (t *Table) SetNumeric(name string, vals []float64) error {
	c, ok := t.Column(name)
	if !ok {
		return fmt.Errorf("unknown column %q", name)
	}
	if len(vals) != t.Rows() {
		return fmt.Errorf("column %q: got %d values, want %d", name, len(vals), t.Rows())
	}
	c.Kind = Numeric
	c.Num = vals
	c.Text = nil
	return nil
}

// DropRows removes every row position where drop is true and returns how many were
// removed. Labels of the remaining rows are kept.
func (t *Table) DropRows(drop []bool) int {
	keep := 0
	for i := range t.labels {
		if !drop[i] {
			keep++
		}
	}
	removed := len(t.labels) - keep
	if removed == 0 {
		return 0
	}
	labels := make([]int, 0, keep)
	for i, l := range t.labels {
		if !drop[i] {
			labels = append(labels, l)
		}
	}
	t.labels = labels
	for _, c := range t.cols {
		if c.Kind == Numeric {
			v := make([]float64, 0, keep)
			for i, x := range c.Num {
				if !drop[i] {
					v = append(v, x)
				}
			}
			c.Num = v
		} else {
			v := make([]string, 0, keep)
			for i, x := range c.Text {
				if !drop[i] {
					v = append(v, x)
				}
			}
			c.Text = v
		}
	}
	return removed
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	cp := &Table{byName: make(map[string]int, len(t.cols)), labels: t.Labels()}
	for i, c := range t.cols {
		cp.cols = append(cp.cols, c.clone())
		cp.byName[c.Name] = i
	}
	return cp
}
