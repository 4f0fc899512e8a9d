package core

// Dataset is the canonical, ordered record collection. Records are addressed
// by their stable RecordID so that filtered and sorted views can always be
// mapped back to the row they came from.
type Dataset struct {
	columns []string
	colIdx  map[string]int
	records []*Record
	index   map[RecordID]int
	nextID  RecordID
}

// NewDataset creates an empty dataset with the given column order.
func NewDataset(columns []string) *Dataset {
	d := &Dataset{
		columns: append([]string(nil), columns...),
		colIdx:  make(map[string]int, len(columns)),
		index:   make(map[RecordID]int),
		nextID:  1,
	}
	for i, c := range columns {
		d.colIdx[c] = i
	}
	return d
}

// Append adds a record with a fresh ID. Values are padded with null or cut
// to the column count.
func (d *Dataset) Append(values []Value) *Record {
	row := make([]Value, len(d.columns))
	copy(row, values)

	rec := &Record{ID: d.nextID, Values: row}
	d.nextID++
	d.index[rec.ID] = len(d.records)
	d.records = append(d.records, rec)
	return rec
}

// Columns returns the column names in order.
func (d *Dataset) Columns() []string {
	return append([]string(nil), d.columns...)
}

// Records returns the records in canonical order. The slice is shared and
// must not be modified.
func (d *Dataset) Records() []*Record { return d.records }

// Len returns the number of records.
func (d *Dataset) Len() int { return len(d.records) }

// ColumnIndex returns the position of name, or -1.
func (d *Dataset) ColumnIndex(name string) int {
	if i, ok := d.colIdx[name]; ok {
		return i
	}
	return -1
}

// Lookup resolves a record by ID.
func (d *Dataset) Lookup(id RecordID) (*Record, bool) {
	i, ok := d.index[id]
	if !ok {
		return nil, false
	}
	return d.records[i], true
}

// Set replaces one field of the record with the given ID.
func (d *Dataset) Set(id RecordID, column string, v Value) error {
	col := d.ColumnIndex(column)
	if col < 0 {
		return ErrUnknownColumn
	}
	rec, ok := d.Lookup(id)
	if !ok {
		return ErrRowOutOfRange
	}
	rec.Values[col] = v
	return nil
}

// Value returns the field of a record by column name.
func (d *Dataset) Value(id RecordID, column string) (Value, error) {
	col := d.ColumnIndex(column)
	if col < 0 {
		return Value{}, ErrUnknownColumn
	}
	rec, ok := d.Lookup(id)
	if !ok {
		return Value{}, ErrRowOutOfRange
	}
	return rec.Values[col], nil
}

// Clone returns a deep copy that shares nothing with d.
func (d *Dataset) Clone() *Dataset {
	c := NewDataset(d.columns)
	c.records = make([]*Record, len(d.records))
	for i, rec := range d.records {
		c.records[i] = rec.clone()
		c.index[rec.ID] = i
	}
	c.nextID = d.nextID
	return c
}
