package core

import (
	"math"
	"reflect"
	"testing"
	"time"
)

func salesRecords(t *testing.T) []Record {
	t.Helper()
	table, err := ParseString(salesCSV, ParseOptions{})
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	return table.Records
}

func names(records []Record) []string {
	out := make([]string, len(records))
	for i, rec := range records {
		out[i] = rec.Get(FieldCustomerName)
	}
	return out
}

func intPtr(n int) *int { return &n }

func datePtr(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestRecord_Get(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		want string
	}{
		{"canonical", Record{"CustomerName": "Jane"}, "Jane"},
		{"alias", Record{"Customer Name": "Jane"}, "Jane"},
		{"canonical wins", Record{"CustomerName": "Jane", "Customer Name": "Bob"}, "Jane"},
		{"empty canonical falls through", Record{"CustomerName": "", "Customer Name": "Bob"}, "Bob"},
		{"missing", Record{"Age": "3"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rec.Get(FieldCustomerName); got != tt.want {
				t.Errorf("Get = %q, want %q", got, tt.want)
			}
		})
	}

	if got := (Record{"CustomerAge": "44"}).Get(FieldAge); got != "" {
		t.Errorf("Age read CustomerAge = %q, want empty", got)
	}
}

func TestFilter_AgeIgnoresCustomerAge(t *testing.T) {
	records := []Record{
		{"CustomerName": "legacy", "CustomerAge": "44"},
		{"CustomerName": "current", "Age": "44"},
	}
	got := names(Filter(records, Criteria{AgeMin: intPtr(40)}))
	if !reflect.DeepEqual(got, []string{"current"}) {
		t.Errorf("age filter = %q, want [current]", got)
	}

	// The offered range still falls back to CustomerAge.
	if opts := DeriveFilterOptions(records[:1], DefaultVocabulary()); opts.AgeRange != (AgeRange{Min: 44, Max: 44}) {
		t.Errorf("AgeRange = %+v, want 44-44", opts.AgeRange)
	}
}

func TestSearch(t *testing.T) {
	records := salesRecords(t)

	tests := []struct {
		term string
		want []string
	}{
		{"jane", []string{"Doe, Jane"}},
		{"DOE", []string{"Doe, Jane"}},
		{"555-0101", []string{"Bob Smith"}},
		{"555-01", []string{"Doe, Jane", "Bob Smith", "Ana Lee"}},
		{"  lee ", []string{"Ana Lee"}},
		{"nobody", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			if got := names(Search(records, tt.term)); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Search(%q) = %q, want %q", tt.term, got, tt.want)
			}
		})
	}
}

func TestSearch_BlankTermIsIdentity(t *testing.T) {
	records := salesRecords(t)
	for _, term := range []string{"", "   ", "\t"} {
		got := Search(records, term)
		if len(got) != len(records) || &got[0] != &records[0] {
			t.Errorf("Search(%q) did not return the input unchanged", term)
		}
	}
}

func TestSearch_AliasKeys(t *testing.T) {
	records := []Record{
		{"Customer Name": "Priya Shah", "Phone Number": "+91 98765"},
		{"Customer Name": "Tom Hardy", "Phone Number": "+44 1234"},
	}
	if got := names(Search(records, "98765")); !reflect.DeepEqual(got, []string{"Priya Shah"}) {
		t.Errorf("phone alias search = %q", got)
	}
	if got := names(Search(records, "hardy")); !reflect.DeepEqual(got, []string{"Tom Hardy"}) {
		t.Errorf("name alias search = %q", got)
	}
}

func TestFilter(t *testing.T) {
	records := salesRecords(t)

	tests := []struct {
		name     string
		criteria Criteria
		want     []string
	}{
		{"no criteria", Criteria{}, []string{"Doe, Jane", "Bob Smith", "Ana Lee"}},
		{"region case-insensitive", Criteria{Regions: []string{"north"}}, []string{"Doe, Jane", "Ana Lee"}},
		{"region any-of", Criteria{Regions: []string{"South", "East"}}, []string{"Bob Smith"}},
		{"gender", Criteria{Genders: []string{"Male"}}, []string{"Bob Smith"}},
		{"age min", Criteria{AgeMin: intPtr(30)}, []string{"Doe, Jane", "Bob Smith"}},
		{"age max", Criteria{AgeMax: intPtr(34)}, []string{"Doe, Jane", "Ana Lee"}},
		{"age bounds inclusive", Criteria{AgeMin: intPtr(34), AgeMax: intPtr(34)}, []string{"Doe, Jane"}},
		{"category", Criteria{Categories: []string{"Beauty", "Clothing"}}, []string{"Bob Smith", "Ana Lee"}},
		{"tag any-of", Criteria{Tags: []string{"new"}}, []string{"Doe, Jane"}},
		{"tag with no match", Criteria{Tags: []string{"Budget Friendly"}}, []string{}},
		{"payment method", Criteria{PaymentMethods: []string{"UPI"}}, []string{"Ana Lee"}},
		{"date start", Criteria{DateStart: datePtr("2023-02-11")}, []string{"Bob Smith", "Ana Lee"}},
		{"date end", Criteria{DateEnd: datePtr("2023-02-11")}, []string{"Doe, Jane", "Bob Smith"}},
		{"date window", Criteria{DateStart: datePtr("2023-01-06"), DateEnd: datePtr("2023-03-01")}, []string{"Bob Smith"}},
		{"region and age", Criteria{Regions: []string{"North"}, AgeMin: intPtr(30), AgeMax: intPtr(40)}, []string{"Doe, Jane"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := names(Filter(records, tt.criteria)); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Filter = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFilter_UnparsableValues(t *testing.T) {
	records := []Record{
		{"CustomerName": "no date", "Date": "someday", "Age": "n/a"},
		{"CustomerName": "empty date", "Date": "", "Age": ""},
		{"CustomerName": "good", "Date": "2023-05-01", "Age": "25 years"},
	}

	got := names(Filter(records, Criteria{DateStart: datePtr("2000-01-01")}))
	if !reflect.DeepEqual(got, []string{"good"}) {
		t.Errorf("date bound = %q, want only the parsable date", got)
	}

	// Unparsable ages count as 0.
	got = names(Filter(records, Criteria{AgeMax: intPtr(0)}))
	if !reflect.DeepEqual(got, []string{"no date", "empty date"}) {
		t.Errorf("age max 0 = %q", got)
	}
	got = names(Filter(records, Criteria{AgeMin: intPtr(25)}))
	if !reflect.DeepEqual(got, []string{"good"}) {
		t.Errorf("age min 25 = %q", got)
	}
}

func TestSort(t *testing.T) {
	records := salesRecords(t)

	tests := []struct {
		name  string
		key   string
		order SortOrder
		want  []string
	}{
		{"date desc", SortByDate, SortDesc, []string{"Ana Lee", "Bob Smith", "Doe, Jane"}},
		{"date asc", SortByDate, SortAsc, []string{"Doe, Jane", "Bob Smith", "Ana Lee"}},
		{"quantity asc", SortByQuantity, SortAsc, []string{"Bob Smith", "Doe, Jane", "Ana Lee"}},
		{"quantity desc", SortByQuantity, SortDesc, []string{"Ana Lee", "Doe, Jane", "Bob Smith"}},
		{"name asc", SortByCustomerName, SortAsc, []string{"Ana Lee", "Bob Smith", "Doe, Jane"}},
		{"unknown key", "price", SortAsc, []string{"Doe, Jane", "Bob Smith", "Ana Lee"}},
		{"empty key", "", SortDesc, []string{"Doe, Jane", "Bob Smith", "Ana Lee"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := names(Sort(records, tt.key, tt.order)); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Sort = %q, want %q", got, tt.want)
			}
		})
	}

	if got := names(records); !reflect.DeepEqual(got, []string{"Doe, Jane", "Bob Smith", "Ana Lee"}) {
		t.Errorf("Sort mutated its input: %q", got)
	}
}

func TestSort_QuantityReversal(t *testing.T) {
	records := []Record{
		{"CustomerName": "a", "Quantity": "3"},
		{"CustomerName": "b", "Quantity": "10"},
		{"CustomerName": "c", "Quantity": "1.5"},
		{"CustomerName": "d", "Quantity": "7"},
	}
	asc := names(Sort(records, SortByQuantity, SortAsc))
	desc := names(Sort(records, SortByQuantity, SortDesc))
	for i := range asc {
		if asc[i] != desc[len(desc)-1-i] {
			t.Fatalf("asc %q is not the reverse of desc %q", asc, desc)
		}
	}
}

func TestSort_FallbackKeysAndStability(t *testing.T) {
	records := []Record{
		{"CustomerName": "first", "Date": "garbage", "Quantity": "x"},
		{"CustomerName": "dated", "Date": "2023-01-01", "Quantity": "2"},
		{"CustomerName": "second", "Date": "", "Quantity": ""},
		{"CustomerName": "pre-epoch", "Date": "1960-06-01", "Quantity": "-1"},
	}

	got := names(Sort(records, SortByDate, SortAsc))
	want := []string{"pre-epoch", "first", "second", "dated"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("date asc = %q, want %q", got, want)
	}

	got = names(Sort(records, SortByQuantity, SortDesc))
	want = []string{"dated", "first", "second", "pre-epoch"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("quantity desc = %q, want %q", got, want)
	}
}

func TestPaginate(t *testing.T) {
	records := make([]Record, 25)
	for i := range records {
		records[i] = Record{"n": string(rune('a' + i))}
	}

	tests := []struct {
		name     string
		page     int
		pageSize int
		wantLen  int
		want     Pagination
	}{
		{"first page", 1, 10, 10, Pagination{CurrentPage: 1, PageSize: 10, TotalItems: 25, TotalPages: 3, HasNextPage: true}},
		{"middle page", 2, 10, 10, Pagination{CurrentPage: 2, PageSize: 10, TotalItems: 25, TotalPages: 3, HasNextPage: true, HasPreviousPage: true}},
		{"last partial page", 3, 10, 5, Pagination{CurrentPage: 3, PageSize: 10, TotalItems: 25, TotalPages: 3, HasPreviousPage: true}},
		{"past the end", 4, 10, 0, Pagination{CurrentPage: 4, PageSize: 10, TotalItems: 25, TotalPages: 3, HasPreviousPage: true}},
		{"exact fit", 1, 25, 25, Pagination{CurrentPage: 1, PageSize: 25, TotalItems: 25, TotalPages: 1}},
		{"zero page size", 1, 0, 0, Pagination{CurrentPage: 1, PageSize: 0, TotalItems: 25}},
		{"huge page", math.MaxInt, 10, 0, Pagination{CurrentPage: math.MaxInt, PageSize: 10, TotalItems: 25, TotalPages: 3, HasPreviousPage: true}},
		{"huge page size", 1, math.MaxInt, 25, Pagination{CurrentPage: 1, PageSize: math.MaxInt, TotalItems: 25, TotalPages: 1}},
		{"huge page and page size", math.MaxInt, math.MaxInt, 0, Pagination{CurrentPage: math.MaxInt, PageSize: math.MaxInt, TotalItems: 25, TotalPages: 1, HasPreviousPage: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Paginate(records, tt.page, tt.pageSize)
			if len(res.Data) != tt.wantLen {
				t.Errorf("len(Data) = %d, want %d", len(res.Data), tt.wantLen)
			}
			if res.Pagination != tt.want {
				t.Errorf("Pagination = %+v, want %+v", res.Pagination, tt.want)
			}
			if res.Data == nil {
				t.Error("Data is nil, want an empty slice")
			}
		})
	}
}

func TestPaginate_Invariants(t *testing.T) {
	for total := 0; total <= 23; total++ {
		records := make([]Record, total)
		for i := range records {
			records[i] = Record{}
		}
		for size := 1; size <= 7; size++ {
			wantPages := (total + size - 1) / size
			seen := 0
			for page := 1; page <= wantPages+1; page++ {
				res := Paginate(records, page, size)
				want := max(0, min(size, total-(page-1)*size))
				if len(res.Data) != want {
					t.Fatalf("total=%d size=%d page=%d: len = %d, want %d", total, size, page, len(res.Data), want)
				}
				if res.Pagination.TotalPages != wantPages {
					t.Fatalf("total=%d size=%d: TotalPages = %d, want %d", total, size, res.Pagination.TotalPages, wantPages)
				}
				if res.Pagination.HasNextPage != (page*size < total) {
					t.Fatalf("total=%d size=%d page=%d: HasNextPage = %v", total, size, page, res.Pagination.HasNextPage)
				}
				seen += len(res.Data)
			}
			if seen != total {
				t.Fatalf("total=%d size=%d: pages cover %d records", total, size, seen)
			}
		}
	}
}

func TestRunQuery(t *testing.T) {
	records := salesRecords(t)

	res := RunQuery(records, QueryParams{
		Criteria:  Criteria{Regions: []string{"North"}, AgeMin: intPtr(30), AgeMax: intPtr(40)},
		SortBy:    SortByDate,
		SortOrder: SortDesc,
		Page:      1,
		PageSize:  10,
	})
	if res.Pagination.TotalItems != 1 || res.Pagination.TotalPages != 1 {
		t.Errorf("Pagination = %+v, want one item on one page", res.Pagination)
	}
	if got := names(res.Data); !reflect.DeepEqual(got, []string{"Doe, Jane"}) {
		t.Errorf("Data = %q", got)
	}

	// Search runs before pagination, so totals reflect the match count.
	res = RunQuery(records, QueryParams{Search: "555", SortBy: SortByQuantity, SortOrder: SortAsc, Page: 2, PageSize: 2})
	if res.Pagination.TotalItems != 3 || res.Pagination.TotalPages != 2 {
		t.Errorf("Pagination = %+v", res.Pagination)
	}
	if got := names(res.Data); !reflect.DeepEqual(got, []string{"Ana Lee"}) {
		t.Errorf("page 2 = %q, want [Ana Lee]", got)
	}
}

func TestParseSortOrder(t *testing.T) {
	tests := []struct {
		in   string
		want SortOrder
	}{
		{"asc", SortAsc},
		{"ASC", SortAsc},
		{" asc ", SortAsc},
		{"desc", SortDesc},
		{"", SortDesc},
		{"sideways", SortDesc},
	}
	for _, tt := range tests {
		if got := ParseSortOrder(tt.in); got != tt.want {
			t.Errorf("ParseSortOrder(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseDateBound(t *testing.T) {
	if got := ParseDateBound(""); got != nil {
		t.Errorf("empty bound = %v, want nil", got)
	}
	if got := ParseDateBound("not a date"); got != nil {
		t.Errorf("garbage bound = %v, want nil", got)
	}
	got := ParseDateBound("2023-04-01")
	if got == nil || !got.Equal(*datePtr("2023-04-01")) {
		t.Errorf("ParseDateBound = %v, want 2023-04-01", got)
	}
}
