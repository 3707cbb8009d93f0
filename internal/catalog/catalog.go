// Package catalog holds the institutional facet enumerations shared by the search engine,
// write-path validation and the portal dropdowns. Changing a value requires a redeploy.
package catalog

import (
	"regexp"
	"strconv"
	"strings"
)

// Version identifies the catalog revision served to clients so cached dropdowns can be refreshed.
const Version = "2024.2"

// Option is a code/label pair rendered as one dropdown entry.
type Option struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// Sort fields and directions recognised by the query compiler.
const (
	SortFieldUploadedAt = "uploadedAt"
	SortFieldTitle      = "title"
	SortFieldFileSize   = "fileSize"

	SortAsc  = "asc"
	SortDesc = "desc"
)

// UnitAll marks a resource that applies to every unit of its subject.
const UnitAll = "all"

// MaxUnit is the highest numbered syllabus unit.
const MaxUnit = 6

const (
	MinYear     = 1
	MaxYear     = 4
	MinSemester = 1
	MaxSemester = 2
)

// File type codes.
const (
	FileTypePDF   = "PDF"
	FileTypeImage = "Image"
	FileTypePPT   = "PPT"
	FileTypeWord  = "Word"
)

// DefaultFileType is assumed for legacy records stored without a file type.
const DefaultFileType = FileTypePDF

var branches = []Option{
	{Code: "CSE", Label: "Computer Science & Engineering"},
	{Code: "IT", Label: "Information Technology"},
	{Code: "ECE", Label: "Electronics & Communication Engineering"},
	{Code: "EEE", Label: "Electrical & Electronics Engineering"},
	{Code: "MECH", Label: "Mechanical Engineering"},
	{Code: "CIVIL", Label: "Civil Engineering"},
	{Code: "AIML", Label: "CSE (AI & Machine Learning)"},
	{Code: "DS", Label: "CSE (Data Science)"},
}

var regulations = []string{"R19", "R20", "R22", "R23"}

var documentTypes = []string{
	"Notes",
	"Question Paper",
	"Lab Manual",
	"Syllabus",
	"Assignment",
	"Reference Book",
}

var fileTypes = []Option{
	{Code: FileTypePDF, Label: "PDF Document"},
	{Code: FileTypeImage, Label: "Image"},
	{Code: FileTypePPT, Label: "Presentation"},
	{Code: FileTypeWord, Label: "Word Document"},
}

var sortOptions = []Option{
	{Code: SortFieldUploadedAt + "_" + SortDesc, Label: "Newest first"},
	{Code: SortFieldUploadedAt + "_" + SortAsc, Label: "Oldest first"},
	{Code: SortFieldTitle + "_" + SortAsc, Label: "Title (A-Z)"},
	{Code: SortFieldTitle + "_" + SortDesc, Label: "Title (Z-A)"},
	{Code: SortFieldFileSize + "_" + SortDesc, Label: "Largest first"},
	{Code: SortFieldFileSize + "_" + SortAsc, Label: "Smallest first"},
}

var mimeFileTypes = map[string]string{
	"application/pdf": FileTypePDF,

	"image/png":  FileTypeImage,
	"image/jpeg": FileTypeImage,
	"image/gif":  FileTypeImage,
	"image/webp": FileTypeImage,

	"application/vnd.ms-powerpoint": FileTypePPT,
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": FileTypePPT,

	"application/msword": FileTypeWord,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": FileTypeWord,
}

var extensionFileTypes = map[string]string{
	".pdf":  FileTypePDF,
	".png":  FileTypeImage,
	".jpg":  FileTypeImage,
	".jpeg": FileTypeImage,
	".gif":  FileTypeImage,
	".webp": FileTypeImage,
	".ppt":  FileTypePPT,
	".pptx": FileTypePPT,
	".doc":  FileTypeWord,
	".docx": FileTypeWord,
}

// Branches returns the branch options.
func Branches() []Option { return clone(branches) }

// Regulations returns the regulation codes, oldest first.
func Regulations() []string { return append([]string(nil), regulations...) }

// DocumentTypes returns the document type names.
func DocumentTypes() []string { return append([]string(nil), documentTypes...) }

// FileTypes returns the file type options.
func FileTypes() []Option { return clone(fileTypes) }

// SortOptions returns the sort options; the first entry is the default.
func SortOptions() []Option { return clone(sortOptions) }

// Units returns "1".."MaxUnit" followed by UnitAll.
func Units() []Option {
	units := make([]Option, 0, MaxUnit+1)
	for i := 1; i <= MaxUnit; i++ {
		code := strconv.Itoa(i)
		units = append(units, Option{Code: code, Label: "Unit " + code})
	}
	return append(units, Option{Code: UnitAll, Label: "All Units"})
}

func IsBranch(code string) bool { return containsOption(branches, code) }

func IsRegulation(code string) bool { return contains(regulations, code) }

func IsDocumentType(name string) bool { return contains(documentTypes, name) }

func IsFileType(code string) bool { return containsOption(fileTypes, code) }

// IsUnit accepts "1".."MaxUnit" and UnitAll.
func IsUnit(value string) bool {
	if value == UnitAll {
		return true
	}
	n, err := strconv.Atoi(value)
	if err != nil || strconv.Itoa(n) != value {
		return false
	}
	return n >= 1 && n <= MaxUnit
}

// subjectCodePattern keeps codes safe to use as a storage key segment.
var subjectCodePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9-]{0,19}$`)

// IsSubjectCode accepts 1 to 20 letters, digits or hyphens, not starting with a hyphen.
func IsSubjectCode(code string) bool { return subjectCodePattern.MatchString(code) }

func IsYear(year int) bool { return year >= MinYear && year <= MaxYear }

func IsSemester(semester int) bool { return semester >= MinSemester && semester <= MaxSemester }

// IsSortField reports whether field is one of the sortable resource fields.
func IsSortField(field string) bool {
	switch field {
	case SortFieldUploadedAt, SortFieldTitle, SortFieldFileSize:
		return true
	}
	return false
}

// IsSortDirection reports whether direction is asc or desc.
func IsSortDirection(direction string) bool {
	return direction == SortAsc || direction == SortDesc
}

// ParseSortOption splits a sort option code such as "title_asc" into field and direction.
func ParseSortOption(code string) (field, direction string, ok bool) {
	idx := strings.LastIndex(code, "_")
	if idx <= 0 {
		return "", "", false
	}
	field, direction = code[:idx], code[idx+1:]
	if !IsSortField(field) || !IsSortDirection(direction) {
		return "", "", false
	}
	return field, direction, true
}

// FileTypeFor resolves the catalog file type from a MIME type, falling back to the file extension.
func FileTypeFor(mimeType, filename string) (string, bool) {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if idx := strings.Index(mimeType, ";"); idx >= 0 {
		mimeType = strings.TrimSpace(mimeType[:idx])
	}
	if fileType, ok := mimeFileTypes[mimeType]; ok {
		return fileType, true
	}
	if idx := strings.LastIndex(filename, "."); idx >= 0 {
		if fileType, ok := extensionFileTypes[strings.ToLower(filename[idx:])]; ok {
			return fileType, true
		}
	}
	return "", false
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}

func containsOption(options []Option, code string) bool {
	for _, o := range options {
		if o.Code == code {
			return true
		}
	}
	return false
}

func clone(options []Option) []Option {
	return append([]Option(nil), options...)
}
