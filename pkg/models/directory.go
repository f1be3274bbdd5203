// Package models defines the domain models for the directory service
package models

import (
	"encoding/json"
	"time"
)

// Tenant is an organization that owns directories. Tenants are keyed by the
// email domain of their users and created the first time one of them signs in.
type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Domain    string    `json:"domain"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DirectoryStatus represents the lifecycle state of a directory
type DirectoryStatus string

const (
	DirectoryStatusDraft    DirectoryStatus = "draft"
	DirectoryStatusActive   DirectoryStatus = "active"
	DirectoryStatusArchived DirectoryStatus = "archived"
)

// Directory is a tenant-defined collection of listings sharing one schema.
type Directory struct {
	ID          string          `json:"id"`
	TenantID    string          `json:"tenant_id"`
	Slug        string          `json:"slug"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Status      DirectoryStatus `json:"status"`
	// Schema is stored and served as produced by the inference service.
	Schema    json.RawMessage `json:"schema"`
	CreatedBy string          `json:"created_by"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
