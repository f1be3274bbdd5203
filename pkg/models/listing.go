package models

import (
	"time"
)

// ListingStatus represents the review state of a listing
type ListingStatus string

const (
	ListingStatusPending  ListingStatus = "pending"
	ListingStatusApproved ListingStatus = "approved"
	ListingStatusRejected ListingStatus = "rejected"
)

// Valid reports whether s is a known listing status.
func (s ListingStatus) Valid() bool {
	switch s {
	case ListingStatusPending, ListingStatusApproved, ListingStatusRejected:
		return true
	}
	return false
}

// Listing is a single submitted entry belonging to a directory.
type Listing struct {
	ID          string                 `json:"id"`
	TenantID    string                 `json:"tenant_id"`
	DirectoryID string                 `json:"directory_id"`
	Title       string                 `json:"title"`
	Data        map[string]interface{} `json:"data"`
	Status      ListingStatus          `json:"status"`
	SubmittedBy string                 `json:"submitted_by"`
	ReviewedBy  *string                `json:"reviewed_by,omitempty"`
	ReviewNote  *string                `json:"review_note,omitempty"`
	ReviewedAt  *time.Time             `json:"reviewed_at,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}
