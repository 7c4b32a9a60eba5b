package estimate

import (
	"bytes"
	"encoding/json"
	"math"
)

// Block is one set of point and interval estimates.
//
// JSON has no NaN, so each field marshals as null when it is NaN or infinite and the
// block carries "valid": false whenever any field is null.
type Block struct {
	Mean    float64
	Std     float64
	SE      float64
	CILower float64
	CIUpper float64
}

// Valid reports whether every field is finite.
func (b Block) Valid() bool {
	for _, v := range []float64{b.Mean, b.Std, b.SE, b.CILower, b.CIUpper} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

type blockJSON struct {
	Mean    *float64 `json:"mean"`
	Std     *float64 `json:"std"`
	SE      *float64 `json:"se"`
	CILower *float64 `json:"ci_95_lower"`
	CIUpper *float64 `json:"ci_95_upper"`
	Valid   bool     `json:"valid"`
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func (b Block) MarshalJSON() ([]byte, error) {
	return json.Marshal(blockJSON{
		Mean:    finite(b.Mean),
		Std:     finite(b.Std),
		SE:      finite(b.SE),
		CILower: finite(b.CILower),
		CIUpper: finite(b.CIUpper),
		Valid:   b.Valid(),
	})
}

func (b *Block) UnmarshalJSON(data []byte) error {
	var raw blockJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	val := func(p *float64) float64 {
		if p == nil {
			return math.NaN()
		}
		return *p
	}
	*b = Block{Mean: val(raw.Mean), Std: val(raw.Std), SE: val(raw.SE), CILower: val(raw.CILower), CIUpper: val(raw.CIUpper)}
	return nil
}

// Record holds the estimates of one column.
type Record struct {
	Unweighted Block  `json:"unweighted"`
	Weighted   *Block `json:"weighted,omitempty"`
}

// Preferred returns the weighted block when it is present and valid, else the
// unweighted one.
func (r Record) Preferred() (Block, bool) {
	if r.Weighted != nil && r.Weighted.Valid() {
		return *r.Weighted, true
	}
	return r.Unweighted, false
}

// Estimates maps column names to records and remembers column order.
type Estimates struct {
	order  []string
	byName map[string]Record
}

func newEstimates(n int) *Estimates {
	return &Estimates{order: make([]string, 0, n), byName: make(map[string]Record, n)}
}

func (e *Estimates) set(name string, r Record) {
	if _, ok := e.byName[name]; !ok {
		e.order = append(e.order, name)
	}
	e.byName[name] = r
}

// Names returns the column names in table order.
func (e *Estimates) Names() []string {
	if e == nil {
		return nil
	}
	return append([]string(nil), e.order...)
}

// Get returns the record for column name.
func (e *Estimates) Get(name string) (Record, bool) {
	if e == nil {
		return Record{}, false
	}
	r, ok := e.byName[name]
	return r, ok
}

// Len returns the number of columns.
func (e *Estimates) Len() int {
	if e == nil {
		return 0
	}
	return len(e.order)
}

// MarshalJSON writes a JSON object whose keys follow table column order.
func (e *Estimates) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if e != nil {
		for i, name := range e.order {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(name)
			if err != nil {
				return nil, err
			}
			val, err := json.Marshal(e.byName[name])
			if err != nil {
				return nil, err
			}
			buf.Write(key)
			buf.WriteByte(':')
			buf.Write(val)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object produced by MarshalJSON, keeping key order.
func (e *Estimates) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return err
	}
	*e = *newEstimates(0)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := tok.(string)
		var r Record
		if err := dec.Decode(&r); err != nil {
			return err
		}
		e.set(name, r)
	}
	_, err := dec.Token()
	return err
}
