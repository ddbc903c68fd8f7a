package grades

import (
	"strings"

	"github.com/arod1104/uic-gradebook/internal/types"
)

// Kind classifies a column for filtering.
type Kind int

const (
	// Text columns are matched case-insensitively.
	Text Kind = iota
	// Numeric columns are matched exactly.
	Numeric
)

func (k Kind) String() string {
	if k == Numeric {
		return "numeric"
	}
	return "text"
}

// Column describes one column of grade_distributions. Everything that needs to
// know about columns (the query whitelist, the reduced projection, the CSV
// header mapping, the INSERT column list) reads it from Columns.
type Column struct {
	Name    string
	Kind    Kind
	Reduced bool   // part of the default (non-detailed) projection
	Header  string // CSV header in the registrar export, empty if not read from the CSV
	field   func(r *types.GradeRecord) any
}

// Value returns the column's value in r: string for text columns, int for
// grade counters and int64 for id.
func (c Column) Value(r *types.GradeRecord) any {
	switch p := c.field(r).(type) {
	case *string:
		return *p
	case *int:
		return *p
	case *int64:
		return *p
	}
	return nil
}

// Set stores a raw CSV cell in r. Text is copied verbatim; counters go
// through ParseCount so they are never negative or missing.
func (c Column) Set(r *types.GradeRecord, raw string) {
	switch p := c.field(r).(type) {
	case *string:
		*p = raw
	case *int:
		*p = ParseCount(raw)
	case *int64:
		*p = int64(ParseCount(raw))
	}
}

// Queryable reports whether clients may filter on the column.
func (c Column) Queryable() bool {
	return c.Name != "id"
}

func text(name, header string, reduced bool, f func(r *types.GradeRecord) *string) Column {
	return Column{Name: name, Kind: Text, Reduced: reduced, Header: header,
		field: func(r *types.GradeRecord) any { return f(r) }}
}

func count(name, header string, reduced bool, f func(r *types.GradeRecord) *int) Column {
	return Column{Name: name, Kind: Numeric, Reduced: reduced, Header: header,
		field: func(r *types.GradeRecord) any { return f(r) }}
}

// Columns lists every column of grade_distributions in table order.
var Columns = []Column{
	{Name: "id", Kind: Numeric, Reduced: true,
		field: func(r *types.GradeRecord) any { return &r.ID }},

	text("term", "", true, func(r *types.GradeRecord) *string { return &r.Term }),
	text("crs_subj_cd", "CRS SUBJ CD", true, func(r *types.GradeRecord) *string { return &r.CrsSubjCd }),
	text("crs_nbr", "CRS NBR", true, func(r *types.GradeRecord) *string { return &r.CrsNbr }),
	text("crs_subj_desc", "CRS SUBJ DESC", false, func(r *types.GradeRecord) *string { return &r.CrsSubjDesc }),
	text("crn", "CRN", false, func(r *types.GradeRecord) *string { return &r.CRN }),
	text("sched_type_cd", "SCHED TYPE CD", false, func(r *types.GradeRecord) *string { return &r.SchedTypeCd }),
	text("sched_type_desc", "SCHED TYPE DESC", false, func(r *types.GradeRecord) *string { return &r.SchedTypeDesc }),
	text("itype", "ITYPE", false, func(r *types.GradeRecord) *string { return &r.Itype }),
	text("sess_cd", "SESS CD", false, func(r *types.GradeRecord) *string { return &r.SessCd }),
	text("crs_title", "CRS TITLE", true, func(r *types.GradeRecord) *string { return &r.CrsTitle }),
	text("dept_cd", "DEPT CD", true, func(r *types.GradeRecord) *string { return &r.DeptCd }),
	text("dept_name", "DEPT NAME", true, func(r *types.GradeRecord) *string { return &r.DeptName }),

	count("a", "A", true, func(r *types.GradeRecord) *int { return &r.A }),
	count("ah", "AH", false, func(r *types.GradeRecord) *int { return &r.AH }),
	count("b", "B", true, func(r *types.GradeRecord) *int { return &r.B }),
	count("bh", "BH", false, func(r *types.GradeRecord) *int { return &r.BH }),
	count("c", "C", true, func(r *types.GradeRecord) *int { return &r.C }),
	count("d", "D", true, func(r *types.GradeRecord) *int { return &r.D }),
	count("f", "F", true, func(r *types.GradeRecord) *int { return &r.F }),
	count("adv", "ADV", true, func(r *types.GradeRecord) *int { return &r.ADV }),
	count("cr", "CR", true, func(r *types.GradeRecord) *int { return &r.CR }),
	count("dfr", "DFR", true, func(r *types.GradeRecord) *int { return &r.DFR }),
	count("i", "I", true, func(r *types.GradeRecord) *int { return &r.I }),
	count("ng", "NG", true, func(r *types.GradeRecord) *int { return &r.NG }),
	count("nr", "NR", true, func(r *types.GradeRecord) *int { return &r.NR }),
	count("o", "O", true, func(r *types.GradeRecord) *int { return &r.O }),
	count("pr", "PR", true, func(r *types.GradeRecord) *int { return &r.PR }),
	count("ps", "PS", false, func(r *types.GradeRecord) *int { return &r.PS }),
	count("s", "S", true, func(r *types.GradeRecord) *int { return &r.S }),
	count("sh", "SH", false, func(r *types.GradeRecord) *int { return &r.SH }),
	count("u", "U", true, func(r *types.GradeRecord) *int { return &r.U }),
	count("w", "W", true, func(r *types.GradeRecord) *int { return &r.W }),

	text("primary_instructor", "Primary Instructor", true, func(r *types.GradeRecord) *string { return &r.PrimaryInstructor }),
	text("name2", "Name2", false, func(r *types.GradeRecord) *string { return &r.Name2 }),
	text("name3", "Name3", false, func(r *types.GradeRecord) *string { return &r.Name3 }),

	count("grade_regs", "Grade Regs", true, func(r *types.GradeRecord) *int { return &r.GradeRegs }),
}

var byName = func() map[string]Column {
	m := make(map[string]Column, len(Columns))
	for _, c := range Columns {
		m[c.Name] = c
	}
	return m
}()

// Lookup finds a column by name. Names are case-sensitive.
func Lookup(name string) (Column, bool) {
	c, ok := byName[name]
	return c, ok
}

// AllColumnNames is the detailed projection.
func AllColumnNames() []string {
	names := make([]string, 0, len(Columns))
	for _, c := range Columns {
		names = append(names, c.Name)
	}
	return names
}

// ReducedColumnNames is the default projection.
func ReducedColumnNames() []string {
	var names []string
	for _, c := range Columns {
		if c.Reduced {
			names = append(names, c.Name)
		}
	}
	return names
}

// StoredColumns are the columns written on insert (everything but id).
func StoredColumns() []Column {
	cols := make([]Column, 0, len(Columns)-1)
	for _, c := range Columns {
		if c.Name != "id" {
			cols = append(cols, c)
		}
	}
	return cols
}

// ParseCount reads a grade counter the way the registrar exports need it read:
// surrounding blanks are ignored, the leading run of decimal digits is the
// value ("12", "12.0" and "12 " are all 12), and anything without a leading
// digit, including negatives, is 0.
func ParseCount(raw string) int {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "+")

	n := 0
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch < '0' || ch > '9' {
			break
		}
		d := int(ch - '0')
		if n > (maxCount-d)/10 {
			return maxCount
		}
		n = n*10 + d
	}
	return n
}

const maxCount = 1<<31 - 1
