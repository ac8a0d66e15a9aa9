package mailmerge

import (
	"fmt"
	"reflect"
	"sort"
	"time"
)

// Values maps merge field keys (or table column names) to the values merged
// into them.
//
// Example:
//
//	values := mailmerge.Values{
//	    "CustomerName": "Jane Doe",
//	    "Total":        1234.5,
//	}
type Values map[string]interface{}

// Keys returns the keys of v in sorted order
func (v Values) Keys() []string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Table is a tabular dataset merged into a TableStart/TableEnd region. The
// region's row is repeated once per entry in Rows.
type Table struct {
	Name string   `yaml:"name" json:"name"`
	Rows []Values `yaml:"rows" json:"rows"`
}

// Columns returns the union of the row keys in sorted order
func (t *Table) Columns() []string {
	seen := make(map[string]bool)
	var cols []string
	for _, row := range t.Rows {
		for k := range row {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	sort.Strings(cols)
	return cols
}

// StartKey is the merge field key opening the table region
func (t *Table) StartKey() string {
	return "TableStart:" + t.Name
}

// EndKey is the merge field key closing the table region
func (t *Table) EndKey() string {
	return "TableEnd:" + t.Name
}

// rowValues builds the values merged into the i-th produced row. Columns a
// row lacks merge as empty, and both delimiter fields are blanked.
func (t *Table) rowValues(i int, columns []string) Values {
	row := t.Rows[i]
	values := make(Values, len(columns)+2)
	for _, c := range columns {
		if v, ok := row[c]; ok {
			values[c] = v
		} else {
			values[c] = ""
		}
	}
	values[t.StartKey()] = ""
	values[t.EndKey()] = ""
	return values
}

// DataSet is an ordered collection of tables
type DataSet []*Table

// stringify renders a merge value the way it appears in the document
func stringify(value interface{}, dateFormat string) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		if v.IsZero() {
			return ""
		}
		return v.Format(dateFormat)
	case *time.Time:
		if v == nil || v.IsZero() {
			return ""
		}
		return v.Format(dateFormat)
	case fmt.Stringer:
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Ptr && rv.IsNil() {
			return ""
		}
		return v.String()
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return ""
		}
		return stringify(rv.Elem().Interface(), dateFormat)
	}
	return fmt.Sprint(value)
}

// ValuesFromStruct collects the exported fields of a struct (or pointer to
// one) into Values. The `merge` tag renames a field; `merge:"-"` skips it.
func ValuesFromStruct(v interface{}) (Values, error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, fmt.Errorf("cannot collect values from nil %T", v)
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("cannot collect values from %T: not a struct", v)
	}

	rt := rv.Type()
	values := make(Values, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		key := field.Name
		if tag, ok := field.Tag.Lookup("merge"); ok {
			if tag == "-" {
				continue
			}
			if tag != "" {
				key = tag
			}
		}
		values[key] = rv.Field(i).Interface()
	}
	return values, nil
}
