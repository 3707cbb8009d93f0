// Package search turns a resource filter into a store query and assembles the
// fetched rows into a page of results.
package search

import (
	"math"
	"strings"

	"github.com/noah-isme/studyhub-api/internal/catalog"
	"github.com/noah-isme/studyhub-api/internal/models"
)

// DefaultPageSize applies when a caller passes a page size below one.
const DefaultPageSize = 50

// Facet names carried by predicates.
const (
	FacetRegulation   = "regulation"
	FacetYear         = "year"
	FacetSemester     = "semester"
	FacetBranch       = "branch"
	FacetSubject      = "subjectCode"
	FacetUnit         = "unit"
	FacetDocumentType = "documentType"
	FacetFileType     = "fileType"
)

// FacetOrder is the order predicates are emitted in. It matches the composite index
// on the resources table and must not be changed without a matching migration.
var FacetOrder = []string{
	FacetRegulation,
	FacetYear,
	FacetSemester,
	FacetBranch,
	FacetSubject,
	FacetUnit,
	FacetDocumentType,
	FacetFileType,
}

// Predicate is a single equality constraint.
type Predicate struct {
	Facet string
	Value interface{}
}

// CompiledQuery is the store independent form of a search. A Limit of zero means unpaged.
type CompiledQuery struct {
	Predicates []Predicate
	Sort       models.SortSpec
	Offset     int
	Limit      int
}

// Unpaged returns a copy of q without offset and limit.
func (q CompiledQuery) Unpaged() CompiledQuery {
	q.Offset = 0
	q.Limit = 0
	return q
}

// DefaultSort is newest upload first.
func DefaultSort() models.SortSpec {
	return models.SortSpec{Field: catalog.SortFieldUploadedAt, Direction: catalog.SortDesc}
}

// NormalizeSort replaces an unknown field or direction with the default.
func NormalizeSort(sort models.SortSpec) models.SortSpec {
	def := DefaultSort()
	if !catalog.IsSortField(sort.Field) {
		sort.Field = def.Field
	}
	if !catalog.IsSortDirection(sort.Direction) {
		sort.Direction = def.Direction
	}
	return sort
}

// NormalizePage clamps page to at least one and substitutes DefaultPageSize for a
// non-positive size.
func NormalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if limit := MaxPage(pageSize); page > limit {
		page = limit
	}
	return page, pageSize
}

// MaxPage is the largest page whose end offset page*pageSize fits in an int.
func MaxPage(pageSize int) int {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return math.MaxInt / pageSize
}

// Compile builds the equality predicates, sort clause and window for filter.
// The free-text query is not compiled; it is applied by the assembler.
func Compile(filter models.ResourceFilter, sort models.SortSpec, page, pageSize int) CompiledQuery {
	page, pageSize = NormalizePage(page, pageSize)

	values := map[string]interface{}{}
	if filter.Regulation != "" {
		values[FacetRegulation] = filter.Regulation
	}
	if filter.Year != 0 {
		values[FacetYear] = filter.Year
	}
	if filter.Semester != 0 {
		values[FacetSemester] = filter.Semester
	}
	if filter.Branch != "" {
		values[FacetBranch] = filter.Branch
	}
	if filter.SubjectCode != "" {
		values[FacetSubject] = strings.ToUpper(filter.SubjectCode)
	}
	if filter.Unit != "" {
		values[FacetUnit] = filter.Unit
	}
	if filter.DocumentType != "" {
		values[FacetDocumentType] = filter.DocumentType
	}
	if filter.FileType != "" {
		values[FacetFileType] = filter.FileType
	}

	predicates := make([]Predicate, 0, len(values))
	for _, facet := range FacetOrder {
		if value, ok := values[facet]; ok {
			predicates = append(predicates, Predicate{Facet: facet, Value: value})
		}
	}

	return CompiledQuery{
		Predicates: predicates,
		Sort:       NormalizeSort(sort),
		Offset:     (page - 1) * pageSize,
		Limit:      pageSize,
	}
}
