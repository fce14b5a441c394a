// Package document defines the columnar API-specification document shared by
// every collaborator on a project, plus the mutation and normalization
// operations that produce new snapshots.
//
// A Document is a struct of parallel string columns; row i is the tuple of the
// i-th element of every column. Every operation in this package preserves the
// shape invariant: all columns have the same length.
package document

import (
	"fmt"
)

// Document is the synchronized columnar snapshot. Field names match the wire
// format used by the web client and the generation service.
type Document struct {
	Category       []string `json:"category"`
	FunctionName   []string `json:"functionName"`
	URI            []string `json:"uri"`
	Method         []string `json:"method"`
	FrontOwner     []string `json:"frontOwner"`
	BackOwner      []string `json:"backOwner"`
	FrontState     []string `json:"frontState"`
	BackState      []string `json:"backState"`
	Priority       []string `json:"priority"`
	Description    []string `json:"description"`
	RequestHeader  []string `json:"requestHeader"`
	ResponseHeader []string `json:"responseHeader"`
	RequestBody    []string `json:"requestBody"`
	ResponseBody   []string `json:"responseBody"`
}

// Columns lists the column names in canonical order.
var Columns = []string{
	"category",
	"functionName",
	"uri",
	"method",
	"frontOwner",
	"backOwner",
	"frontState",
	"backState",
	"priority",
	"description",
	"requestHeader",
	"responseHeader",
	"requestBody",
	"responseBody",
}

// New returns an empty document with zero rows in every column.
func New() Document {
	var d Document
	for _, col := range d.columns() {
		*col = []string{}
	}
	return d
}

// columns returns pointers to every column slice in canonical order.
// Mutation helpers iterate this instead of naming the fields one by one so a
// new column can never be forgotten by a single operation.
func (d *Document) columns() []*[]string {
	return []*[]string{
		&d.Category,
		&d.FunctionName,
		&d.URI,
		&d.Method,
		&d.FrontOwner,
		&d.BackOwner,
		&d.FrontState,
		&d.BackState,
		&d.Priority,
		&d.Description,
		&d.RequestHeader,
		&d.ResponseHeader,
		&d.RequestBody,
		&d.ResponseBody,
	}
}

// Column returns a pointer to the named column, or nil if the name is not a
// recognized column.
func (d *Document) Column(name string) *[]string {
	cols := d.columns()
	for i, colName := range Columns {
		if colName == name {
			return cols[i]
		}
	}
	return nil
}

// Rows returns the row count. The category column is the canonical length
// reference; CheckShape verifies the rest agree.
func (d *Document) Rows() int {
	return len(d.Category)
}

// CheckShape verifies that every column has the same length.
func (d *Document) CheckShape() error {
	want := d.Rows()
	cols := d.columns()
	for i, col := range cols {
		if got := len(*col); got != want {
			return fmt.Errorf("column %s has %d rows, want %d", Columns[i], got, want)
		}
	}
	return nil
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() Document {
	var out Document
	src := d.columns()
	dst := out.columns()
	for i := range src {
		*dst[i] = append([]string(nil), *src[i]...)
	}
	return out
}

// Equal reports whether two documents hold identical values.
func (d *Document) Equal(other *Document) bool {
	a := d.columns()
	b := other.columns()
	for i := range a {
		if len(*a[i]) != len(*b[i]) {
			return false
		}
		for j := range *a[i] {
			if (*a[i])[j] != (*b[i])[j] {
				return false
			}
		}
	}
	return true
}
