package catalog

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/go-playground/validator/v10"
)

// Snapshot is the serialisable form of the whole catalog.
type Snapshot struct {
	Version       string   `json:"version"`
	Branches      []Option `json:"branches"`
	Regulations   []string `json:"regulations"`
	Years         []int    `json:"years"`
	Semesters     []int    `json:"semesters"`
	DocumentTypes []string `json:"documentTypes"`
	Units         []Option `json:"units"`
	FileTypes     []Option `json:"fileTypes"`
	SortOptions   []Option `json:"sortOptions"`
}

// Current returns a fresh snapshot of every enumeration.
func Current() Snapshot {
	years := make([]int, 0, MaxYear)
	for y := MinYear; y <= MaxYear; y++ {
		years = append(years, y)
	}
	semesters := make([]int, 0, MaxSemester)
	for s := MinSemester; s <= MaxSemester; s++ {
		semesters = append(semesters, s)
	}
	return Snapshot{
		Version:       Version,
		Branches:      Branches(),
		Regulations:   Regulations(),
		Years:         years,
		Semesters:     semesters,
		DocumentTypes: DocumentTypes(),
		Units:         Units(),
		FileTypes:     FileTypes(),
		SortOptions:   SortOptions(),
	}
}

// RegisterValidations installs the catalog-backed tags branch, regulation, doctype, unit, filetype,
// subjectcode, year and semester on v.
func RegisterValidations(v *validator.Validate) error {
	rules := map[string]func(string) bool{
		"branch":      IsBranch,
		"regulation":  IsRegulation,
		"doctype":     IsDocumentType,
		"unit":        IsUnit,
		"filetype":    IsFileType,
		"subjectcode": IsSubjectCode,
	}
	for tag, check := range rules {
		check := check
		if err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return check(fieldString(fl.Field()))
		}); err != nil {
			return fmt.Errorf("register %s validation: %w", tag, err)
		}
	}
	if err := v.RegisterValidation("year", func(fl validator.FieldLevel) bool {
		return IsYear(int(fl.Field().Int()))
	}); err != nil {
		return fmt.Errorf("register year validation: %w", err)
	}
	if err := v.RegisterValidation("semester", func(fl validator.FieldLevel) bool {
		return IsSemester(int(fl.Field().Int()))
	}); err != nil {
		return fmt.Errorf("register semester validation: %w", err)
	}
	return nil
}

// NewValidator returns a validator with the catalog tags registered.
func NewValidator() *validator.Validate {
	v := validator.New()
	if err := RegisterValidations(v); err != nil {
		panic(err)
	}
	return v
}

func fieldString(field reflect.Value) string {
	switch field.Kind() {
	case reflect.String:
		return field.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(field.Int(), 10)
	default:
		return ""
	}
}
