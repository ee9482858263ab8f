package dataset

import (
	"github.com/parquet-go/parquet-go"
)

type column struct {
	field Field
	ints  []int64
	texts []string
	valid []bool
	bins  [][]byte
}

func newColumn(field Field, capacity int) *column {
	c := &column{field: field}
	switch field.Class {
	case ClassInteger:
		c.ints = make([]int64, 0, capacity)
	case ClassText:
		c.texts = make([]string, 0, capacity)
		c.valid = make([]bool, 0, capacity)
	case ClassBinary:
		c.bins = make([][]byte, 0, capacity)
	}
	return c
}

// append copies v into the column; parquet-go reuses value buffers between
// reads so nothing may alias them.
func (c *column) append(v parquet.Value) {
	switch c.field.Class {
	case ClassInteger:
		switch {
		case v.IsNull():
			c.ints = append(c.ints, 0)
		case v.Kind() == parquet.Int32:
			c.ints = append(c.ints, int64(v.Int32()))
		default:
			c.ints = append(c.ints, v.Int64())
		}
	case ClassText:
		if v.IsNull() {
			c.texts = append(c.texts, "")
			c.valid = append(c.valid, false)
			return
		}
		c.texts = append(c.texts, string(v.ByteArray()))
		c.valid = append(c.valid, true)
	case ClassBinary:
		if v.IsNull() {
			c.bins = append(c.bins, nil)
			return
		}
		c.bins = append(c.bins, append([]byte{}, v.ByteArray()...))
	}
}

// Batch is a contiguous chunk of rows from one dataset, held by column.
type Batch struct {
	dataset Name
	rows    int
	columns map[string]*column
	order   []*column
}

func newBatch(name Name, fields []Field, capacity int) *Batch {
	b := &Batch{
		dataset: name,
		columns: make(map[string]*column, len(fields)),
		order:   make([]*column, 0, len(fields)),
	}
	for _, f := range fields {
		c := newColumn(f, capacity)
		b.columns[f.Name] = c
		b.order = append(b.order, c)
	}
	return b
}

// appendRow takes one value per bound column, in binding order.
func (b *Batch) appendRow(values []parquet.Value) {
	for i, c := range b.order {
		c.append(values[i])
	}
	b.rows++
}

func (b *Batch) Dataset() Name {
	return b.dataset
}

func (b *Batch) Len() int {
	return b.rows
}

func (b *Batch) lookup(name string, class Class) (*column, error) {
	c, ok := b.columns[name]
	if !ok {
		return nil, &ColumnNotFoundError{Dataset: b.dataset, Column: name}
	}
	if c.field.Class != class {
		return nil, &SchemaMismatchError{
			Dataset:  b.dataset,
			Column:   name,
			Expected: class,
			Actual:   c.field.Class.String(),
		}
	}
	return c, nil
}

// IntColumn reads an integer column. Integer fields always carry a value.
type IntColumn struct {
	values []int64
}

func (c *IntColumn) Value(i int) int64 {
	return c.values[i]
}

// TextColumn reads a text column, preserving nulls.
type TextColumn struct {
	values []string
	valid  []bool
}

// Get returns the cell and whether it was non-null.
func (c *TextColumn) Get(i int) (string, bool) {
	return c.values[i], c.valid[i]
}

// Opt returns nil for a null cell.
func (c *TextColumn) Opt(i int) *string {
	if !c.valid[i] {
		return nil
	}
	v := c.values[i]
	return &v
}

// Value returns the cell, or "" when it is null.
func (c *TextColumn) Value(i int) string {
	return c.values[i]
}

// BinaryColumn reads a binary column, preserving nulls.
type BinaryColumn struct {
	values [][]byte
}

// Opt returns nil for a null cell and a non-nil slice otherwise.
func (c *BinaryColumn) Opt(i int) []byte {
	return c.values[i]
}

// Value returns the cell, or an empty non-nil slice when it is null.
func (c *BinaryColumn) Value(i int) []byte {
	if c.values[i] == nil {
		return []byte{}
	}
	return c.values[i]
}

func (b *Batch) Int(name string) (*IntColumn, error) {
	c, err := b.lookup(name, ClassInteger)
	if err != nil {
		return nil, err
	}
	return &IntColumn{values: c.ints}, nil
}

func (b *Batch) Text(name string) (*TextColumn, error) {
	c, err := b.lookup(name, ClassText)
	if err != nil {
		return nil, err
	}
	return &TextColumn{values: c.texts, valid: c.valid}, nil
}

func (b *Batch) Binary(name string) (*BinaryColumn, error) {
	c, err := b.lookup(name, ClassBinary)
	if err != nil {
		return nil, err
	}
	return &BinaryColumn{values: c.bins}, nil
}
