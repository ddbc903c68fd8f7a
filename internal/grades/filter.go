package grades

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/arod1104/uic-gradebook/internal/types"
)

// MaxResults caps every search. Callers detect truncation with count > len(data).
const MaxResults = 100

// Control parameters, never treated as column filters.
const (
	ParamExact    = "exact"
	ParamDetailed = "detailed"
)

// ErrInvalidNumber is returned when a numeric column is filtered with a value
// that is not an integer.
var ErrInvalidNumber = errors.New("numeric filter value must be a 32-bit integer")

// Op is how a predicate compares a column to its value.
type Op int

const (
	// OpContains is a case-insensitive substring match.
	OpContains Op = iota
	// OpEqualFold is a case-insensitive equality match.
	OpEqualFold
	// OpEqual is an exact match on a numeric column.
	OpEqual
)

func (o Op) String() string {
	switch o {
	case OpContains:
		return "contains"
	case OpEqualFold:
		return "equals (case-insensitive)"
	default:
		return "equals"
	}
}

// Predicate is a filter on a single column.
type Predicate struct {
	Column string
	Op     Op
	Text   string // set for OpContains and OpEqualFold
	Number int64  // set for OpEqual
}

// Flags are the control parameters of a search.
type Flags struct {
	Exact    bool // text filters match the whole value instead of a substring
	Detailed bool // return every column instead of the reduced projection
}

// Query is a translated search: predicates are ANDed, Columns is the
// projection and Limit the row cap.
type Query struct {
	Predicates []Predicate
	Columns    []string
	Limit      int
}

// SplitParams separates the control flags from the filter values. Only the
// literal string "true" turns a flag on. For repeated parameters the first
// value wins.
func SplitParams(values url.Values) (map[string]string, Flags) {
	flags := Flags{
		Exact:    values.Get(ParamExact) == "true",
		Detailed: values.Get(ParamDetailed) == "true",
	}

	filters := make(map[string]string, len(values))
	for name := range values {
		if name == ParamExact || name == ParamDetailed {
			continue
		}
		filters[name] = values.Get(name)
	}

	return filters, flags
}

// Translate turns filter values into a Query. Names that are not queryable
// columns are ignored, as are empty values. Predicates come out in table
// order so the same request always yields the same query.
func Translate(filters map[string]string, flags Flags) (Query, error) {
	q := Query{
		Columns: ReducedColumnNames(),
		Limit:   MaxResults,
	}
	if flags.Detailed {
		q.Columns = AllColumnNames()
	}

	for _, col := range Columns {
		if !col.Queryable() {
			continue
		}
		value, ok := filters[col.Name]
		if !ok || value == "" {
			continue
		}

		if col.Kind == Numeric {
			n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 32)
			if err != nil {
				return Query{}, fmt.Errorf("%w: %s=%q", ErrInvalidNumber, col.Name, value)
			}
			q.Predicates = append(q.Predicates, Predicate{Column: col.Name, Op: OpEqual, Number: n})
			continue
		}

		op := OpContains
		if flags.Exact {
			op = OpEqualFold
		}
		q.Predicates = append(q.Predicates, Predicate{Column: col.Name, Op: op, Text: value})
	}

	return q, nil
}

// Row is one projected search result, keyed by column name.
type Row map[string]any

// Matches reports whether r satisfies the predicate.
func (p Predicate) Matches(r *types.GradeRecord) bool {
	col, ok := Lookup(p.Column)
	if !ok {
		return false
	}

	switch v := col.Value(r).(type) {
	case string:
		if p.Op == OpEqualFold {
			return strings.EqualFold(v, p.Text)
		}
		return strings.Contains(strings.ToLower(v), strings.ToLower(p.Text))
	case int:
		return int64(v) == p.Number
	case int64:
		return v == p.Number
	}
	return false
}

// Matches reports whether r satisfies every predicate of the query.
func (q Query) Matches(r *types.GradeRecord) bool {
	for _, p := range q.Predicates {
		if !p.Matches(r) {
			return false
		}
	}
	return true
}

// Project returns the query's columns of r.
func (q Query) Project(r *types.GradeRecord) Row {
	row := make(Row, len(q.Columns))
	for _, name := range q.Columns {
		if col, ok := Lookup(name); ok {
			row[name] = col.Value(r)
		}
	}
	return row
}
