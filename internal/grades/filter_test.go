package grades

import (
	"net/url"
	"testing"

	"github.com/arod1104/uic-gradebook/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func calculus() *types.GradeRecord {
	return &types.GradeRecord{
		ID:                7,
		Term:              "Fall 2024",
		CrsSubjCd:         "MATH",
		CrsNbr:            "180",
		CrsTitle:          "Calculus I",
		DeptCd:            "cs",
		DeptName:          "Mathematics, Statistics, and Computer Science",
		A:                 41,
		W:                 3,
		PrimaryInstructor: "Smith, Jane",
		Name2:             "Doe, John",
		GradeRegs:         120,
	}
}

func TestSplitParams(t *testing.T) {
	t.Run("should strip control flags from filters", func(t *testing.T) {
		values := url.Values{
			"crs_title": {"calc"},
			"exact":     {"true"},
			"detailed":  {"true"},
		}

		filters, flags := SplitParams(values)

		assert.Equal(t, map[string]string{"crs_title": "calc"}, filters)
		assert.True(t, flags.Exact)
		assert.True(t, flags.Detailed)
	})

	t.Run("should only activate flags on the literal string true", func(t *testing.T) {
		for _, v := range []string{"", "1", "TRUE", "yes", "false"} {
			_, flags := SplitParams(url.Values{"exact": {v}, "detailed": {v}})
			assert.False(t, flags.Exact, "exact=%q", v)
			assert.False(t, flags.Detailed, "detailed=%q", v)
		}
	})

	t.Run("should take the first value of repeated parameters", func(t *testing.T) {
		filters, _ := SplitParams(url.Values{"dept_cd": {"CS", "MATH"}})
		assert.Equal(t, "CS", filters["dept_cd"])
	})
}

func TestTranslate(t *testing.T) {
	t.Run("should return an unfiltered capped query when no filters are given", func(t *testing.T) {
		q, err := Translate(nil, Flags{})

		require.NoError(t, err)
		assert.Empty(t, q.Predicates)
		assert.Equal(t, MaxResults, q.Limit)
		assert.Equal(t, ReducedColumnNames(), q.Columns)
	})

	t.Run("should use substring matching for text columns by default", func(t *testing.T) {
		q, err := Translate(map[string]string{"crs_title": "calc"}, Flags{})

		require.NoError(t, err)
		assert.Equal(t, []Predicate{{Column: "crs_title", Op: OpContains, Text: "calc"}}, q.Predicates)
	})

	t.Run("should use case-insensitive equality for text columns when exact", func(t *testing.T) {
		q, err := Translate(map[string]string{"dept_cd": "CS"}, Flags{Exact: true})

		require.NoError(t, err)
		assert.Equal(t, []Predicate{{Column: "dept_cd", Op: OpEqualFold, Text: "CS"}}, q.Predicates)
	})

	t.Run("should always use exact equality for numeric columns", func(t *testing.T) {
		for _, exact := range []bool{false, true} {
			q, err := Translate(map[string]string{"grade_regs": "120"}, Flags{Exact: exact})

			require.NoError(t, err)
			assert.Equal(t, []Predicate{{Column: "grade_regs", Op: OpEqual, Number: 120}}, q.Predicates)
		}
	})

	t.Run("should ignore unknown parameters, id and empty values", func(t *testing.T) {
		q, err := Translate(map[string]string{
			"nope":      "x",
			"id":        "3",
			"crs_title": "",
			"CRS_TITLE": "calc",
			"term":      "Fall",
		}, Flags{})

		require.NoError(t, err)
		assert.Equal(t, []Predicate{{Column: "term", Op: OpContains, Text: "Fall"}}, q.Predicates)
	})

	t.Run("should emit predicates in table order", func(t *testing.T) {
		q, err := Translate(map[string]string{
			"grade_regs": "1",
			"term":       "Fall",
			"a":          "2",
		}, Flags{})

		require.NoError(t, err)
		require.Len(t, q.Predicates, 3)
		assert.Equal(t, "term", q.Predicates[0].Column)
		assert.Equal(t, "a", q.Predicates[1].Column)
		assert.Equal(t, "grade_regs", q.Predicates[2].Column)
	})

	t.Run("should reject non-integer values for numeric columns", func(t *testing.T) {
		_, err := Translate(map[string]string{"a": "many"}, Flags{})

		assert.ErrorIs(t, err, ErrInvalidNumber)
	})

	t.Run("should reject values the counter columns cannot hold", func(t *testing.T) {
		_, err := Translate(map[string]string{"a": "99999999999"}, Flags{})
		assert.ErrorIs(t, err, ErrInvalidNumber)

		_, err = Translate(map[string]string{"w": "-2147483649"}, Flags{})
		assert.ErrorIs(t, err, ErrInvalidNumber)

		q, err := Translate(map[string]string{"a": "2147483647"}, Flags{})
		require.NoError(t, err)
		require.Len(t, q.Predicates, 1)
		assert.Equal(t, int64(2147483647), q.Predicates[0].Number)
	})

	t.Run("should project every column when detailed", func(t *testing.T) {
		q, err := Translate(nil, Flags{Detailed: true})

		require.NoError(t, err)
		assert.Equal(t, AllColumnNames(), q.Columns)
	})
}

func TestQuery_Matches(t *testing.T) {
	record := calculus()

	cases := []struct {
		name    string
		filters map[string]string
		flags   Flags
		want    bool
	}{
		{"substring is case-insensitive", map[string]string{"crs_title": "calc"}, Flags{}, true},
		{"substring anywhere in the field", map[string]string{"primary_instructor": "JANE"}, Flags{}, true},
		{"substring miss", map[string]string{"crs_title": "physics"}, Flags{}, false},
		{"exact matches ignoring case", map[string]string{"dept_cd": "CS"}, Flags{Exact: true}, true},
		{"exact rejects partial values", map[string]string{"crs_title": "calc"}, Flags{Exact: true}, false},
		{"numeric equality", map[string]string{"a": "41"}, Flags{}, true},
		{"numeric is never a substring match", map[string]string{"a": "4"}, Flags{}, false},
		{"all filters must hold", map[string]string{"crs_title": "calc", "w": "4"}, Flags{}, false},
		{"no filters match everything", nil, Flags{}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q, err := Translate(tc.filters, tc.flags)
			require.NoError(t, err)
			assert.Equal(t, tc.want, q.Matches(record))
		})
	}

	t.Run("exact equality does not match a longer code", func(t *testing.T) {
		q, err := Translate(map[string]string{"dept_cd": "CS"}, Flags{Exact: true})
		require.NoError(t, err)

		assert.False(t, q.Matches(&types.GradeRecord{DeptCd: "CSE"}))
	})
}

func TestQuery_Project(t *testing.T) {
	t.Run("should only return reduced columns by default", func(t *testing.T) {
		q, err := Translate(nil, Flags{})
		require.NoError(t, err)

		row := q.Project(calculus())

		assert.Len(t, row, len(ReducedColumnNames()))
		assert.Equal(t, int64(7), row["id"])
		assert.Equal(t, "Calculus I", row["crs_title"])
		assert.Equal(t, 120, row["grade_regs"])
		assert.NotContains(t, row, "name2")
		assert.NotContains(t, row, "crs_subj_desc")
	})

	t.Run("should return every column when detailed", func(t *testing.T) {
		q, err := Translate(nil, Flags{Detailed: true})
		require.NoError(t, err)

		row := q.Project(calculus())

		assert.Len(t, row, len(Columns))
		assert.Equal(t, "Doe, John", row["name2"])
	})
}
