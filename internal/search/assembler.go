package search

import (
	"strings"

	"github.com/noah-isme/studyhub-api/internal/catalog"
	"github.com/noah-isme/studyhub-api/internal/models"
)

// DefaultMimeType is reported for records stored without a MIME type.
const DefaultMimeType = "application/octet-stream"

// ToResource maps a stored row to the client view, filling defaults for missing fields.
func ToResource(record models.ResourceRecord) models.Resource {
	res := models.Resource{
		ID:           record.ID,
		Title:        record.Title,
		Description:  deref(record.Description),
		Tags:         []string{},
		Regulation:   record.Regulation,
		Year:         record.Year,
		Semester:     record.Semester,
		Branch:       record.Branch,
		SubjectCode:  record.SubjectCode,
		DocumentType: record.DocumentType,
		Unit:         deref(record.Unit),
		FileType:     deref(record.FileType),
		MimeType:     deref(record.MimeType),
		URL:          deref(record.URL),
		FileName:     deref(record.FileName),
		UploadedBy:   deref(record.UploadedBy),
		UploadedAt:   record.UploadedAt,
	}
	if len(record.Tags) > 0 {
		res.Tags = append(res.Tags, record.Tags...)
	}
	if record.FileSize != nil {
		res.FileSize = *record.FileSize
	}
	if res.Unit == "" {
		res.Unit = catalog.UnitAll
	}
	if res.FileType == "" {
		res.FileType = catalog.DefaultFileType
	}
	if res.MimeType == "" {
		res.MimeType = DefaultMimeType
	}
	return res
}

// MatchesQuery reports whether res matches a free-text query. The title, description
// and subject code are matched by case-insensitive substring; tags must equal the query
// ignoring case. A blank query matches everything.
func MatchesQuery(res models.Resource, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(res.Title), q) ||
		strings.Contains(strings.ToLower(res.Description), q) ||
		strings.Contains(strings.ToLower(res.SubjectCode), q) {
		return true
	}
	for _, tag := range res.Tags {
		if strings.EqualFold(strings.TrimSpace(tag), q) {
			return true
		}
	}
	return false
}

// FilterByQuery keeps the items matching query, preserving order.
func FilterByQuery(items []models.Resource, query string) []models.Resource {
	if strings.TrimSpace(query) == "" {
		return items
	}
	out := make([]models.Resource, 0, len(items))
	for _, item := range items {
		if MatchesQuery(item, query) {
			out = append(out, item)
		}
	}
	return out
}

// Assemble builds a page from rows fetched with store-side pagination. total is the
// store count for the compiled predicates. When filter carries a text query only the
// fetched page is filtered and the total becomes the number of matches on that page.
func Assemble(records []models.ResourceRecord, filter models.ResourceFilter, page, pageSize, total int) models.SearchResult {
	page, pageSize = NormalizePage(page, pageSize)

	items := make([]models.Resource, 0, len(records))
	for _, record := range records {
		items = append(items, ToResource(record))
	}

	if strings.TrimSpace(filter.Query) != "" {
		items = FilterByQuery(items, filter.Query)
		total = len(items)
	}

	return models.SearchResult{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		HasMore:  HasMore(page, pageSize, total),
	}
}

// Paginate windows an already filtered and sorted set held in memory. The total is
// the size of the whole set.
func Paginate(items []models.Resource, page, pageSize int) models.SearchResult {
	page, pageSize = NormalizePage(page, pageSize)
	total := len(items)

	start := total
	if page-1 < total/pageSize+1 {
		start = min((page-1)*pageSize, total)
	}
	end := start + min(pageSize, total-start)

	window := make([]models.Resource, end-start)
	copy(window, items[start:end])

	return models.SearchResult{
		Items:    window,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		HasMore:  HasMore(page, pageSize, total),
	}
}

// Empty returns a zero result shaped for page and pageSize.
func Empty(page, pageSize int) models.SearchResult {
	page, pageSize = NormalizePage(page, pageSize)
	return models.SearchResult{Items: []models.Resource{}, Page: page, PageSize: pageSize}
}

// HasMore reports whether results exist beyond page.
func HasMore(page, pageSize, total int) bool {
	if page < 1 || pageSize < 1 || total < 1 {
		return false
	}
	// page*pageSize < total without forming the product
	return page <= (total-1)/pageSize
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}
