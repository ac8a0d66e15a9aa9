package mailmerge

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type currency int

func (c currency) String() string {
	return "€" + time.Duration(c).String()
}

func TestStringify(t *testing.T) {
	date := time.Date(2024, 12, 24, 18, 30, 0, 0, time.UTC)
	name := "pointer"
	var nilString *string
	var nilTime *time.Time

	tests := []struct {
		name  string
		value interface{}
		want  string
	}{
		{"nil", nil, ""},
		{"string", "text", "text"},
		{"bytes", []byte("raw"), "raw"},
		{"int", 42, "42"},
		{"float", 3.5, "3.5"},
		{"bool", true, "true"},
		{"time", date, "2024-12-24"},
		{"time pointer", &date, "2024-12-24"},
		{"zero time", time.Time{}, ""},
		{"nil time pointer", nilTime, ""},
		{"stringer", currency(0), "€0s"},
		{"string pointer", &name, "pointer"},
		{"nil pointer", nilString, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stringify(tt.value, time.DateOnly))
		})
	}
}

func TestValuesKeys(t *testing.T) {
	values := Values{"b": 1, "a": 2, "TableStart:X": ""}
	assert.Equal(t, []string{"TableStart:X", "a", "b"}, values.Keys())
	assert.Empty(t, Values(nil).Keys())
}

func TestValuesFromStruct(t *testing.T) {
	type customer struct {
		Name     string
		Email    string `merge:"EmailAddress"`
		Internal string `merge:"-"`
		Empty    string `merge:""`
		private  string
	}

	values, err := ValuesFromStruct(&customer{Name: "Jane", Email: "jane@example.com", Internal: "x", private: "y"})
	require.NoError(t, err)

	want := Values{"Name": "Jane", "EmailAddress": "jane@example.com", "Empty": ""}
	if diff := cmp.Diff(want, values); diff != "" {
		t.Errorf("ValuesFromStruct() mismatch (-want +got):\n%s", diff)
	}

	_, err = ValuesFromStruct("not a struct")
	assert.Error(t, err)

	var nilCustomer *customer
	_, err = ValuesFromStruct(nilCustomer)
	assert.Error(t, err)
}

func TestErrorTypes(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
		is      error
	}{
		{
			name:    "DocumentError",
			err:     &DocumentError{Operation: "read", Path: "in.docx", Cause: errors.New("permission denied")},
			wantMsg: "document error during read of 'in.docx': permission denied",
		},
		{
			name:    "StructureError",
			err:     NewStructureError("bookmark", "Intro", "no bookmark end with id 3"),
			wantMsg: "malformed bookmark 'Intro': no bookmark end with id 3",
			is:      ErrStructureMismatch,
		},
		{
			name:    "TableShapeError",
			err:     &TableShapeError{Table: "Items", Message: "not in one row", Kind: ErrUnsupportedTableShape},
			wantMsg: "table 'Items': not in one row",
			is:      ErrUnsupportedTableShape,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMsg, tt.err.Error())
			if tt.is != nil {
				assert.ErrorIs(t, tt.err, tt.is)
			}
		})
	}

	wrapped := WithContext(NewStructureError("field", "Name", "missing field end run"), "merging row 0")
	assert.True(t, IsStructureError(wrapped))
	assert.False(t, IsDocumentError(wrapped))
	assert.Nil(t, WithContext(nil, "anything"))
}

func TestMultiError(t *testing.T) {
	m := NewMultiError()
	assert.NoError(t, m.Err())

	m.Add(nil)
	first := errors.New("first")
	m.Add(first)
	assert.Same(t, first, m.Err())

	m.Add(&TableShapeError{Table: "T", Message: "m", Kind: ErrMissingTableRegion})
	assert.Equal(t, 2, m.Len())

	err := m.Err()
	assert.ErrorIs(t, err, first)
	assert.ErrorIs(t, err, ErrMissingTableRegion)
	assert.Contains(t, err.Error(), "2 errors occurred")
}
