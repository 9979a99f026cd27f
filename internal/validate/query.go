package validate

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
)

// Pagination is a normalized page request. Page defaults to 1, limit to 20,
// and limit is capped at 100.
type Pagination struct {
	Page  int
	Limit int
}

// Offset returns the row offset for the page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

// SortSpec is a validated sort key plus direction.
type SortSpec struct {
	By    string
	Order string // asc or desc
}

// CategoryQuery is a validated /categories list request.
type CategoryQuery struct {
	Pagination
	Sort   SortSpec
	Search string
	Type   core.EntryType      // empty means any
	Status core.CategoryStatus // empty means any
}

// TransactionQuery is a validated /transactions list request. Filters
// compose conjunctively.
type TransactionQuery struct {
	Pagination
	Sort       SortSpec
	Search     string
	Type       core.EntryType
	Status     core.TransactionStatus
	CategoryID string
	StartDate  *core.Date
	EndDate    *core.Date
}

// AnalyticsQuery scopes an analytics request to an optional period window
// and, for monthly summaries, a target year.
type AnalyticsQuery struct {
	Period core.Period // empty means all time
	Year   int
}

var (
	transactionSortKeys = map[string]bool{"date": true, "amount": true, "title": true, "createdAt": true}
	categorySortKeys    = map[string]bool{"name": true, "createdAt": true, "type": true}
)

func parsePagination(q url.Values, errs *Errors) Pagination {
	p := Pagination{Page: 1, Limit: 20}

	if v := strings.TrimSpace(q.Get("page")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			errs.add("page", "must be an integer greater than 0")
		} else {
			p.Page = n
		}
	}
	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			errs.add("limit", "must be an integer between 1 and 100")
		} else {
			p.Limit = n
		}
	}
	return p
}

func parseSort(q url.Values, allowed map[string]bool, defaultBy string, errs *Errors) SortSpec {
	s := SortSpec{By: defaultBy, Order: "desc"}

	if v := strings.TrimSpace(q.Get("sortBy")); v != "" {
		if !allowed[v] {
			errs.add("sortBy", "unsupported sort key")
		} else {
			s.By = v
		}
	}
	if v := strings.TrimSpace(q.Get("sortOrder")); v != "" {
		if v != "asc" && v != "desc" {
			errs.add("sortOrder", "must be asc or desc")
		} else {
			s.Order = v
		}
	}
	return s
}

// searchTerm trims and caps free-text search input.
func searchTerm(q url.Values) string {
	s := strings.TrimSpace(q.Get("search"))
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// CategoryListQuery validates /categories query parameters.
func CategoryListQuery(q url.Values) (*CategoryQuery, error) {
	errs := &Errors{}
	out := &CategoryQuery{
		Pagination: parsePagination(q, errs),
		Sort:       parseSort(q, categorySortKeys, "name", errs),
		Search:     searchTerm(q),
	}

	if v := strings.TrimSpace(q.Get("type")); v != "" {
		if !core.EntryType(v).Valid() {
			errs.add("type", "must be income or expense")
		} else {
			out.Type = core.EntryType(v)
		}
	}
	if v := strings.TrimSpace(q.Get("status")); v != "" {
		if !core.CategoryStatus(v).Valid() {
			errs.add("status", "must be active, inactive or archived")
		} else {
			out.Status = core.CategoryStatus(v)
		}
	}

	if err := errs.err(); err != nil {
		return nil, err
	}
	return out, nil
}

// TransactionListQuery validates /transactions query parameters.
func TransactionListQuery(q url.Values) (*TransactionQuery, error) {
	errs := &Errors{}
	out := &TransactionQuery{
		Pagination: parsePagination(q, errs),
		Sort:       parseSort(q, transactionSortKeys, "date", errs),
		Search:     searchTerm(q),
	}

	if v := strings.TrimSpace(q.Get("type")); v != "" {
		if !core.EntryType(v).Valid() {
			errs.add("type", "must be income or expense")
		} else {
			out.Type = core.EntryType(v)
		}
	}
	if v := strings.TrimSpace(q.Get("status")); v != "" {
		if !core.TransactionStatus(v).Valid() {
			errs.add("status", "must be completed, pending or failed")
		} else {
			out.Status = core.TransactionStatus(v)
		}
	}
	if v := strings.TrimSpace(q.Get("categoryId")); v != "" {
		if !IsUUID(v) {
			errs.add("categoryId", "invalid ID format")
		} else {
			out.CategoryID = v
		}
	}
	for _, key := range []string{"startDate", "endDate"} {
		v := strings.TrimSpace(q.Get(key))
		if v == "" {
			continue
		}
		d, err := core.ParseDate(v)
		if err != nil {
			errs.add(key, "invalid date format (YYYY-MM-DD)")
			continue
		}
		if key == "startDate" {
			out.StartDate = &d
		} else {
			out.EndDate = &d
		}
	}

	if err := errs.err(); err != nil {
		return nil, err
	}
	return out, nil
}

// StatsQuery validates analytics query parameters. allowWeek distinguishes
// the transaction-stats endpoint (week/month/year) from category spending
// (month/year only).
func StatsQuery(q url.Values, allowWeek bool) (*AnalyticsQuery, error) {
	errs := &Errors{}
	out := &AnalyticsQuery{Year: time.Now().Year()}

	if v := strings.TrimSpace(q.Get("period")); v != "" {
		p := core.Period(v)
		if !p.Valid() || (p == core.PeriodWeek && !allowWeek) {
			errs.add("period", "unsupported period")
		} else {
			out.Period = p
		}
	}
	if v := strings.TrimSpace(q.Get("year")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1970 || n > 9999 {
			errs.add("year", "must be a four-digit year")
		} else {
			out.Year = n
		}
	}

	if err := errs.err(); err != nil {
		return nil, err
	}
	return out, nil
}
