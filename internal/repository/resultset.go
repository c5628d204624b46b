package repository

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// ResultSet is a dynamically shaped query result. Column order is the
// select order and is preserved everywhere the set is rendered.
type ResultSet struct {
	Columns []string
	Rows    [][]any
}

// Len is the number of rows.
func (r *ResultSet) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}

// Cell formats one value for display. NULL renders as an empty string.
func (r *ResultSet) Cell(row, col int) string {
	return FormatValue(r.Rows[row][col])
}

// StringRows returns every row formatted with FormatValue.
func (r *ResultSet) StringRows() [][]string {
	out := make([][]string, len(r.Rows))
	for i, row := range r.Rows {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = FormatValue(v)
		}
		out[i] = cells
	}
	return out
}

// MarshalJSON encodes the rows as a list of objects whose keys follow the
// column order, which a map would lose.
func (r *ResultSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, row := range r.Rows {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('{')
		for j, col := range r.Columns {
			if j > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(col)
			if err != nil {
				return nil, err
			}
			val, err := json.Marshal(row[j])
			if err != nil {
				return nil, err
			}
			buf.Write(key)
			buf.WriteByte(':')
			buf.Write(val)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// FormatValue renders a scanned value the way tables and CSV files show it.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return strings.Trim(string(b), `"`)
	}
}

// scanResultSet reads every row of rows into a ResultSet.
func scanResultSet(rows *sql.Rows) (*ResultSet, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	dbTypes := make([]string, len(types))
	for i, ct := range types {
		dbTypes[i] = strings.ToUpper(ct.DatabaseTypeName())
	}

	set := &ResultSet{Columns: columns, Rows: [][]any{}}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i, v := range values {
			values[i] = normalize(v, dbTypes[i])
		}
		set.Rows = append(set.Rows, values)
	}

	return set, rows.Err()
}

// normalize converts driver-specific representations into string, int64,
// float64 or nil. The MySQL driver returns numbers as []byte in the text
// protocol, so the declared column type decides how raw bytes are parsed.
func normalize(v any, dbType string) any {
	switch t := v.(type) {
	case []byte:
		s := string(t)
		switch {
		case isIntegerType(dbType):
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				return n
			}
		case isFloatType(dbType):
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return f
			}
		}
		return s
	case int32:
		return int64(t)
	case int:
		return int64(t)
	case float32:
		return float64(t)
	default:
		return v
	}
}

func isIntegerType(dbType string) bool {
	switch dbType {
	case "INT", "INTEGER", "TINYINT", "SMALLINT", "MEDIUMINT", "BIGINT", "INT2", "INT4", "INT8",
		"UNSIGNED INT", "UNSIGNED BIGINT":
		return true
	}
	return false
}

func isFloatType(dbType string) bool {
	switch dbType {
	case "FLOAT", "DOUBLE", "DECIMAL", "NUMERIC", "REAL", "FLOAT4", "FLOAT8", "DOUBLE PRECISION":
		return true
	}
	return false
}
