package models

import (
	"time"

	"github.com/lib/pq"
)

// ListingKind distinguishes projects from hackathons.
type ListingKind string

const (
	ListingProject   ListingKind = "PROJECT"
	ListingHackathon ListingKind = "HACKATHON"
)

// Listing is a project or hackathon announcement.
type Listing struct {
	ID          string         `db:"id" json:"id"`
	Kind        ListingKind    `db:"kind" json:"kind"`
	Title       string         `db:"title" json:"title"`
	Description string         `db:"description" json:"description"`
	Link        string         `db:"link" json:"link"`
	Tags        pq.StringArray `db:"tags" json:"tags"`
	StartsAt    *time.Time     `db:"starts_at" json:"starts_at,omitempty"`
	EndsAt      *time.Time     `db:"ends_at" json:"ends_at,omitempty"`
	CreatedBy   string         `db:"created_by" json:"created_by"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
}

// ListingFilter captures supported filters for listing projects and hackathons.
type ListingFilter struct {
	Kind     ListingKind
	Page     int
	PageSize int
}
