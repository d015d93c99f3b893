package core

import (
	"slices"
	"strings"
	"time"
)

// Search keeps records whose customer name or phone number contains term,
// case-insensitively. A blank term returns records unchanged.
func Search(records []Record, term string) []Record {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return records
	}

	out := make([]Record, 0)
	for _, rec := range records {
		name := strings.ToLower(rec.Get(FieldCustomerName))
		phone := strings.ToLower(rec.Get(FieldPhoneNumber))
		if strings.Contains(name, term) || strings.Contains(phone, term) {
			out = append(out, rec)
		}
	}
	return out
}

// Filter keeps records satisfying every present criterion.
func Filter(records []Record, c Criteria) []Record {
	if c.IsEmpty() {
		return records
	}

	m := newMatcher(c)
	out := make([]Record, 0)
	for _, rec := range records {
		if m.match(rec) {
			out = append(out, rec)
		}
	}
	return out
}

// matcher holds criteria lowered once per Filter call.
type matcher struct {
	c              Criteria
	regions        map[string]bool
	genders        map[string]bool
	categories     map[string]bool
	tags           map[string]bool
	paymentMethods map[string]bool
}

func newMatcher(c Criteria) *matcher {
	return &matcher{
		c:              c,
		regions:        lowerSet(c.Regions),
		genders:        lowerSet(c.Genders),
		categories:     lowerSet(c.Categories),
		tags:           lowerSet(c.Tags),
		paymentMethods: lowerSet(c.PaymentMethods),
	}
}

func lowerSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[strings.ToLower(strings.TrimSpace(v))] = true
	}
	return set
}

func memberOf(set map[string]bool, value string) bool {
	return set == nil || set[strings.ToLower(strings.TrimSpace(value))]
}

func (m *matcher) match(rec Record) bool {
	if !memberOf(m.regions, rec.Get(FieldRegion)) {
		return false
	}
	if !memberOf(m.genders, rec.Get(FieldGender)) {
		return false
	}

	if m.c.AgeMin != nil || m.c.AgeMax != nil {
		age := IntOrZero(rec.Get(FieldAge))
		if m.c.AgeMin != nil && age < *m.c.AgeMin {
			return false
		}
		if m.c.AgeMax != nil && age > *m.c.AgeMax {
			return false
		}
	}

	if !memberOf(m.categories, rec.Get(FieldCategory)) {
		return false
	}

	if m.tags != nil && !m.anyTag(rec.Get(FieldTags)) {
		return false
	}

	if !memberOf(m.paymentMethods, rec.Get(FieldPaymentMethod)) {
		return false
	}

	if m.c.DateStart != nil || m.c.DateEnd != nil {
		d := ToDate(rec.Get(FieldDate))
		if !d.Valid {
			return false
		}
		if m.c.DateStart != nil && d.Time.Before(*m.c.DateStart) {
			return false
		}
		if m.c.DateEnd != nil && d.Time.After(*m.c.DateEnd) {
			return false
		}
	}

	return true
}

func (m *matcher) anyTag(field string) bool {
	for _, tag := range strings.Split(field, ",") {
		if m.tags[strings.ToLower(strings.TrimSpace(tag))] {
			return true
		}
	}
	return false
}

// Sort returns a stably sorted copy of records. Unknown or empty keys
// return the records unchanged.
func Sort(records []Record, key string, order SortOrder) []Record {
	var cmp func(a, b Record) int
	switch key {
	case SortByDate:
		cmp = func(a, b Record) int {
			return DateOrEpoch(a.Get(FieldDate)).Compare(DateOrEpoch(b.Get(FieldDate)))
		}
	case SortByQuantity:
		cmp = func(a, b Record) int {
			return compareFloat(FloatOrZero(a.Get(FieldQuantity)), FloatOrZero(b.Get(FieldQuantity)))
		}
	case SortByCustomerName:
		cmp = func(a, b Record) int {
			return strings.Compare(
				strings.ToLower(a.Get(FieldCustomerName)),
				strings.ToLower(b.Get(FieldCustomerName)),
			)
		}
	default:
		return records
	}

	sorted := slices.Clone(records)
	if order == SortAsc {
		slices.SortStableFunc(sorted, cmp)
	} else {
		slices.SortStableFunc(sorted, func(a, b Record) int { return cmp(b, a) })
	}
	return sorted
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// ParseSortOrder maps "asc" (any case) to SortAsc and everything else to SortDesc.
func ParseSortOrder(s string) SortOrder {
	if strings.EqualFold(strings.TrimSpace(s), string(SortAsc)) {
		return SortAsc
	}
	return SortDesc
}

// Paginate slices records for a 1-based page. Pages past the end, or
// non-positive page and pageSize values, produce an empty page. No
// intermediate value overflows, whatever page and pageSize are.
func Paginate(records []Record, page, pageSize int) PageResult {
	total := len(records)
	meta := Pagination{
		CurrentPage:     page,
		PageSize:        pageSize,
		TotalItems:      total,
		HasPreviousPage: page > 1,
	}
	if pageSize <= 0 {
		return PageResult{Data: []Record{}, Pagination: meta}
	}

	meta.TotalPages = total / pageSize
	if total%pageSize != 0 {
		meta.TotalPages++
	}
	meta.HasNextPage = page < meta.TotalPages

	if page < 1 || page > meta.TotalPages {
		return PageResult{Data: []Record{}, Pagination: meta}
	}
	// page <= TotalPages, so start < total.
	start := (page - 1) * pageSize
	end := start + min(pageSize, total-start)
	return PageResult{Data: records[start:end], Pagination: meta}
}

// Select runs search, filter and sort. The result is what Paginate pages
// over and what exports contain.
func Select(records []Record, p QueryParams) []Record {
	out := Search(records, p.Search)
	out = Filter(out, p.Criteria)
	return Sort(out, p.SortBy, p.SortOrder)
}

// RunQuery runs the full pipeline: search, filter, sort, paginate.
func RunQuery(records []Record, p QueryParams) PageResult {
	return Paginate(Select(records, p), p.Page, p.PageSize)
}

// ParseDateBound parses a date-range bound from a request. An empty or
// unparsable value yields nil, meaning no constraint.
func ParseDateBound(s string) *time.Time {
	d := ToDate(s)
	if !d.Valid {
		return nil
	}
	t := d.Time
	return &t
}
