package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitsIncludeAllSentinel(t *testing.T) {
	units := Units()
	require.Len(t, units, MaxUnit+1)
	assert.Equal(t, "1", units[0].Code)
	assert.Equal(t, UnitAll, units[len(units)-1].Code)
}

func TestIsUnit(t *testing.T) {
	for _, valid := range []string{"1", "3", "6", "all"} {
		assert.True(t, IsUnit(valid), valid)
	}
	for _, invalid := range []string{"", "0", "7", "01", "ALL", "two"} {
		assert.False(t, IsUnit(invalid), invalid)
	}
}

func TestParseSortOption(t *testing.T) {
	field, direction, ok := ParseSortOption("fileSize_asc")
	require.True(t, ok)
	assert.Equal(t, SortFieldFileSize, field)
	assert.Equal(t, SortAsc, direction)

	_, _, ok = ParseSortOption("downloads_desc")
	assert.False(t, ok)
	_, _, ok = ParseSortOption("title")
	assert.False(t, ok)
}

func TestEverySortOptionParses(t *testing.T) {
	for _, option := range SortOptions() {
		_, _, ok := ParseSortOption(option.Code)
		assert.True(t, ok, option.Code)
	}
}

func TestFileTypeFor(t *testing.T) {
	cases := []struct {
		mime, name, want string
	}{
		{"application/pdf", "notes.pdf", FileTypePDF},
		{"image/jpeg", "board.jpg", FileTypeImage},
		{"application/octet-stream", "unit1.PPTX", FileTypePPT},
		{"application/vnd.openxmlformats-officedocument.wordprocessingml.document; charset=binary", "lab.docx", FileTypeWord},
	}
	for _, tc := range cases {
		got, ok := FileTypeFor(tc.mime, tc.name)
		require.True(t, ok, tc.name)
		assert.Equal(t, tc.want, got, tc.name)
	}

	_, ok := FileTypeFor("application/zip", "archive.zip")
	assert.False(t, ok)
}

func TestCatalogAccessorsReturnCopies(t *testing.T) {
	branches := Branches()
	branches[0].Code = "MUTATED"
	assert.True(t, IsBranch("CSE"))
	assert.False(t, IsBranch("MUTATED"))
}

func TestRegisteredValidations(t *testing.T) {
	type payload struct {
		Regulation string `validate:"required,regulation"`
		Branch     string `validate:"required,branch"`
		Year       int    `validate:"year"`
		Semester   int    `validate:"semester"`
		Unit       string `validate:"unit"`
		Type       string `validate:"doctype"`
		FileType   string `validate:"omitempty,filetype"`
	}
	v := NewValidator()

	ok := payload{Regulation: "R23", Branch: "CSE", Year: 2, Semester: 1, Unit: "all", Type: "Lab Manual"}
	assert.NoError(t, v.Struct(ok))

	bad := ok
	bad.Regulation = "R99"
	bad.Year = 5
	assert.Error(t, v.Struct(bad))
}

func TestSubjectCodeRejectsPathSegments(t *testing.T) {
	for _, code := range []string{"CS201", "cs201", "MA-101", "A"} {
		assert.True(t, IsSubjectCode(code), code)
	}
	for _, code := range []string{"", "..", "../..", "CS/201", "-CS", "CS 201", "CS201\\x", "ABCDEFGHIJKLMNOPQRSTU"} {
		assert.False(t, IsSubjectCode(code), code)
	}

	type payload struct {
		SubjectCode string `validate:"required,subjectcode"`
	}
	v := NewValidator()
	assert.NoError(t, v.Struct(payload{SubjectCode: "CS201"}))
	assert.Error(t, v.Struct(payload{SubjectCode: "../../admin"}))
}

func TestCurrentSnapshot(t *testing.T) {
	snap := Current()
	assert.Equal(t, Version, snap.Version)
	assert.Equal(t, []int{1, 2, 3, 4}, snap.Years)
	assert.Equal(t, []int{1, 2}, snap.Semesters)
	assert.Equal(t, "uploadedAt_desc", snap.SortOptions[0].Code)
}
