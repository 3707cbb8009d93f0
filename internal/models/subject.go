package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
)

// Unit is one syllabus unit of a subject.
type Unit struct {
	Title  string   `json:"title" validate:"required,max=200"`
	Topics []string `json:"topics" validate:"dive,required,max=300"`
}

// Subject is a curriculum entry. Code, regulation, year and semester form its identity.
type Subject struct {
	ID         string          `db:"id" json:"id"`
	Code       string          `db:"code" json:"code"`
	Name       string          `db:"name" json:"name"`
	Regulation string          `db:"regulation" json:"regulation"`
	Year       int             `db:"year" json:"year"`
	Semester   int             `db:"semester" json:"semester"`
	Branch     string          `db:"branch" json:"branch"`
	Units      map[string]Unit `db:"-" json:"units"`
	UnitsJSON  types.JSONText  `db:"units" json:"-"`
	Textbooks  pq.StringArray  `db:"textbooks" json:"textbooks"`
	References pq.StringArray  `db:"reference_books" json:"references"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at" json:"updated_at"`
}

// SubjectFilter captures supported filters for listing subjects.
type SubjectFilter struct {
	Regulation string
	Year       int
	Semester   int
	Branch     string
	Search     string
	Page       int
	PageSize   int
}

// SubjectScope is the partial scope used to populate the subject dropdown.
type SubjectScope struct {
	Regulation string `json:"regulation,omitempty"`
	Year       int    `json:"year,omitempty"`
	Semester   int    `json:"semester,omitempty"`
}

// SubjectOption is one subject dropdown entry.
type SubjectOption struct {
	Code string `db:"code" json:"code"`
	Name string `db:"name" json:"name"`
}
