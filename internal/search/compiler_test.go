package search

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/studyhub-api/internal/models"
)

func facets(q CompiledQuery) []string {
	out := make([]string, 0, len(q.Predicates))
	for _, p := range q.Predicates {
		out = append(out, p.Facet)
	}
	return out
}

func TestCompileEmptyFilter(t *testing.T) {
	q := Compile(models.ResourceFilter{}, models.SortSpec{}, 1, 50)

	assert.Empty(t, q.Predicates)
	assert.Equal(t, DefaultSort(), q.Sort)
	assert.Equal(t, 0, q.Offset)
	assert.Equal(t, 50, q.Limit)
}

func TestCompileEmitsPredicatesInIndexOrder(t *testing.T) {
	filter := models.ResourceFilter{
		FileType:     "PDF",
		Unit:         "3",
		SubjectCode:  "CS201",
		Semester:     1,
		DocumentType: "Notes",
		Branch:       "CSE",
		Year:         2,
		Regulation:   "R23",
	}

	q := Compile(filter, DefaultSort(), 1, 10)

	assert.Equal(t, FacetOrder, facets(q))
	assert.Equal(t, Predicate{Facet: FacetRegulation, Value: "R23"}, q.Predicates[0])
	assert.Equal(t, Predicate{Facet: FacetYear, Value: 2}, q.Predicates[1])
	assert.Equal(t, Predicate{Facet: FacetFileType, Value: "PDF"}, q.Predicates[7])
}

func TestCompileSingleFacetEmitsExactlyOnePredicate(t *testing.T) {
	cases := map[string]models.ResourceFilter{
		FacetRegulation:   {Regulation: "R20"},
		FacetYear:         {Year: 3},
		FacetSemester:     {Semester: 2},
		FacetBranch:       {Branch: "ECE"},
		FacetSubject:      {SubjectCode: "EC301"},
		FacetUnit:         {Unit: "all"},
		FacetDocumentType: {DocumentType: "Lab Manual"},
		FacetFileType:     {FileType: "Word"},
	}
	for facet, filter := range cases {
		q := Compile(filter, models.SortSpec{}, 1, 50)
		require.Len(t, q.Predicates, 1, facet)
		assert.Equal(t, facet, q.Predicates[0].Facet)
	}
}

func TestCompileSubsetKeepsRelativeOrder(t *testing.T) {
	q := Compile(models.ResourceFilter{FileType: "PPT", Year: 1, Branch: "IT"}, models.SortSpec{}, 1, 50)
	assert.Equal(t, []string{FacetYear, FacetBranch, FacetFileType}, facets(q))
}

func TestCompileIgnoresTextQuery(t *testing.T) {
	q := Compile(models.ResourceFilter{Query: "graphs"}, models.SortSpec{}, 1, 50)
	assert.Empty(t, q.Predicates)
}

func TestCompileWindow(t *testing.T) {
	for _, tc := range []struct{ page, size, offset int }{
		{1, 50, 0},
		{2, 50, 50},
		{3, 50, 100},
		{7, 13, 78},
		{1, 1, 0},
	} {
		q := Compile(models.ResourceFilter{}, models.SortSpec{}, tc.page, tc.size)
		assert.Equal(t, tc.offset, q.Offset)
		assert.Equal(t, tc.size, q.Limit)
	}
}

func TestCompileNormalizesWindow(t *testing.T) {
	q := Compile(models.ResourceFilter{}, models.SortSpec{}, 0, 0)
	assert.Equal(t, 0, q.Offset)
	assert.Equal(t, DefaultPageSize, q.Limit)

	q = Compile(models.ResourceFilter{}, models.SortSpec{}, -4, 20)
	assert.Equal(t, 0, q.Offset)
	assert.Equal(t, 20, q.Limit)
}

func TestCompileSort(t *testing.T) {
	q := Compile(models.ResourceFilter{}, models.SortSpec{Field: "title", Direction: "asc"}, 1, 50)
	assert.Equal(t, models.SortSpec{Field: "title", Direction: "asc"}, q.Sort)

	q = Compile(models.ResourceFilter{}, models.SortSpec{Field: "downloads", Direction: "sideways"}, 1, 50)
	assert.Equal(t, DefaultSort(), q.Sort)

	q = Compile(models.ResourceFilter{}, models.SortSpec{Field: "fileSize"}, 1, 50)
	assert.Equal(t, models.SortSpec{Field: "fileSize", Direction: "desc"}, q.Sort)
}

func TestUnpaged(t *testing.T) {
	q := Compile(models.ResourceFilter{Regulation: "R23"}, models.SortSpec{}, 3, 20)
	u := q.Unpaged()
	assert.Equal(t, 0, u.Offset)
	assert.Equal(t, 0, u.Limit)
	assert.Equal(t, q.Predicates, u.Predicates)
	assert.Equal(t, 40, q.Offset)
}

func TestCompileClampsPageToRepresentableOffset(t *testing.T) {
	q := Compile(models.ResourceFilter{}, models.SortSpec{}, math.MaxInt/50+2, 50)

	assert.GreaterOrEqual(t, q.Offset, 0)
	assert.Equal(t, (MaxPage(50)-1)*50, q.Offset)
	assert.Equal(t, 50, q.Limit)
}

func TestCompileUppercasesSubjectCode(t *testing.T) {
	q := Compile(models.ResourceFilter{SubjectCode: "cs201"}, models.SortSpec{}, 1, 50)

	require.Len(t, q.Predicates, 1)
	assert.Equal(t, FacetSubject, q.Predicates[0].Facet)
	assert.Equal(t, "CS201", q.Predicates[0].Value)
}
