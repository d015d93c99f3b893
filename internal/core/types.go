package core

import (
	"strings"
	"time"
)

// Record is one row of sales data keyed by column name.
type Record map[string]string

// Field names a logical column. Canonical is the whitespace-free header
// produced by the CSV parser; Aliases cover records loaded through JSON
// whose keys were never normalized (e.g. "Customer Name").
type Field struct {
	Canonical string
	Aliases   []string
}

// Known sales columns.
var (
	FieldDate          = Field{Canonical: "Date"}
	FieldCustomerName  = Field{Canonical: "CustomerName", Aliases: []string{"Customer Name"}}
	FieldPhoneNumber   = Field{Canonical: "PhoneNumber", Aliases: []string{"Phone Number"}}
	FieldRegion        = Field{Canonical: "CustomerRegion", Aliases: []string{"Customer Region"}}
	FieldGender        = Field{Canonical: "Gender"}
	FieldAge           = Field{Canonical: "Age"}
	FieldCategory      = Field{Canonical: "ProductCategory", Aliases: []string{"Product Category"}}
	FieldTags          = Field{Canonical: "Tags"}
	FieldPaymentMethod = Field{Canonical: "PaymentMethod", Aliases: []string{"Payment Method"}}
	FieldQuantity      = Field{Canonical: "Quantity"}
)

// Get returns the first non-empty value stored under the field's canonical
// name or one of its aliases.
func (r Record) Get(f Field) string {
	if v := r[f.Canonical]; v != "" {
		return v
	}
	for _, alias := range f.Aliases {
		if v := r[alias]; v != "" {
			return v
		}
	}
	return ""
}

// CanonicalColumn normalizes a header token: surrounding whitespace is
// trimmed and all internal whitespace removed ("Customer Name" -> "CustomerName").
func CanonicalColumn(name string) string {
	return strings.Join(strings.Fields(name), "")
}

// Dataset is the complete set of records produced by one load.
// A Dataset is never mutated after it has been handed to a Store.
type Dataset struct {
	ID       string
	Source   string // "csv" or "json"
	FileName string // original upload name, if any
	LoadedAt time.Time
	Columns  []string // header order; derived from keys for JSON loads
	Records  []Record
	Checksum uint64 // xxh3 of the raw payload
	Size     int64  // raw payload bytes
}

// ByteSize returns the raw payload size, treating a nil dataset as empty.
func (d *Dataset) ByteSize() int64 {
	if d == nil {
		return 0
	}
	return d.Size
}

// Len returns the number of records, treating a nil dataset as empty.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// DatasetInfo is the client-facing summary of a dataset.
type DatasetInfo struct {
	ID       string    `json:"id,omitempty"`
	Source   string    `json:"source,omitempty"`
	FileName string    `json:"fileName,omitempty"`
	LoadedAt time.Time `json:"loadedAt,omitempty"`
	Records  int       `json:"records"`
	Columns  []string  `json:"columns"`
	Checksum string    `json:"checksum,omitempty"`
}

// SortOrder is the direction of a sort.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Sort keys understood by the query engine. Any other key leaves order unchanged.
const (
	SortByDate         = "date"
	SortByQuantity     = "quantity"
	SortByCustomerName = "customerName"
)

// Criteria holds the independent filter predicates. A nil or empty member
// means "no constraint"; all present members are ANDed.
type Criteria struct {
	Regions        []string
	Genders        []string
	Categories     []string
	Tags           []string
	PaymentMethods []string
	AgeMin         *int
	AgeMax         *int
	DateStart      *time.Time
	DateEnd        *time.Time
}

// IsEmpty reports whether no criterion is set.
func (c Criteria) IsEmpty() bool {
	return len(c.Regions) == 0 && len(c.Genders) == 0 && len(c.Categories) == 0 &&
		len(c.Tags) == 0 && len(c.PaymentMethods) == 0 &&
		c.AgeMin == nil && c.AgeMax == nil && c.DateStart == nil && c.DateEnd == nil
}

// QueryParams is a complete query request.
type QueryParams struct {
	Search    string
	Criteria  Criteria
	SortBy    string
	SortOrder SortOrder
	Page      int
	PageSize  int
}

// Pagination describes the page returned by Paginate.
type Pagination struct {
	CurrentPage     int  `json:"currentPage"`
	PageSize        int  `json:"pageSize"`
	TotalItems      int  `json:"totalItems"`
	TotalPages      int  `json:"totalPages"`
	HasNextPage     bool `json:"hasNextPage"`
	HasPreviousPage bool `json:"hasPreviousPage"`
}

// PageResult is a page of records plus its metadata.
type PageResult struct {
	Data       []Record   `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// AgeRange is an inclusive age interval.
type AgeRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// FilterOptions lists the selectable values for each filter dimension.
type FilterOptions struct {
	Regions        []string `json:"regions"`
	Genders        []string `json:"genders"`
	Categories     []string `json:"categories"`
	Tags           []string `json:"tags"`
	PaymentMethods []string `json:"paymentMethods"`
	AgeRange       AgeRange `json:"ageRange"`
}
