package database

import (
	"fmt"
	"strconv"
	"strings"
)

// Row is a single result row. Values can be read by position or by column name.
type Row struct {
	columns []string
	values  []any
}

// NewRow creates a row from matching column names and values
func NewRow(columns []string, values []any) Row {
	return Row{columns: columns, values: values}
}

// Len returns the number of values in the row
func (r Row) Len() int {
	return len(r.values)
}

// At returns the value at position i, or nil if i is out of range
func (r Row) At(i int) any {
	if i < 0 || i >= len(r.values) {
		return nil
	}
	return r.values[i]
}

// Get returns the value of the named column. Names are matched case-insensitively, as
// PostgreSQL folds unquoted identifiers to lower case.
func (r Row) Get(name string) (any, bool) {
	for i, c := range r.columns {
		if strings.EqualFold(c, name) {
			return r.values[i], true
		}
	}
	return nil, false
}

// Columns returns the column names of the row
func (r Row) Columns() []string {
	return r.columns
}

// Table is a full tabular result
type Table struct {
	Columns []string
	Rows    [][]any
}

// AsInt converts a scanned column value into an int. Drivers differ in the Go type they use
// for integer and numeric columns.
func AsInt(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case int32:
		return int(v), nil
	case int16:
		return int(v), nil
	case int8:
		return int(v), nil
	case uint8:
		return int(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case float64:
		return floatToInt(v)
	case []byte:
		return parseInt(string(v))
	case string:
		return parseInt(v)
	case nil:
		return 0, fmt.Errorf("value is null")
	default:
		return 0, fmt.Errorf("cannot convert %T to int", value)
	}
}

func parseInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if i, err := strconv.Atoi(s); err == nil {
		return i, nil
	}
	// numeric columns can come back as "1.0000"
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("cannot convert %q to int", s)
	}
	return floatToInt(f)
}

// floatToInt only accepts whole numbers, fractions are never rounded
func floatToInt(f float64) (int, error) {
	if float64(int(f)) != f {
		return 0, fmt.Errorf("%v is not a whole number", f)
	}
	return int(f), nil
}
