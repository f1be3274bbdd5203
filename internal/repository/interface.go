package repository

import (
	"context"
	"errors"

	"directoryhub/backend/pkg/models"
)

var (
	// ErrNotFound is returned when a row does not exist in the caller's tenant.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned on unique violations and lost status races.
	ErrConflict = errors.New("conflict")
)

// TenantStore resolves and provisions tenants.
type TenantStore interface {
	// GetTenantByDomain retrieves a tenant by its email domain.
	GetTenantByDomain(ctx context.Context, domain string) (*models.Tenant, error)
	// CreateTenant saves a new tenant and fills in its ID.
	CreateTenant(ctx context.Context, tenant *models.Tenant) error
}

// DirectoryStore stores directories. All methods are scoped to the tenant in ctx.
type DirectoryStore interface {
	CreateDirectory(ctx context.Context, directory *models.Directory) error
	GetDirectory(ctx context.Context, id string) (*models.Directory, error)
	ListDirectories(ctx context.Context) ([]*models.Directory, error)
}

// ListingFilter narrows ListListings. Zero values match everything.
type ListingFilter struct {
	DirectoryID string
	Status      models.ListingStatus
	Limit       int
}

// ListingStore stores listings. All methods are scoped to the tenant in ctx.
type ListingStore interface {
	CreateListing(ctx context.Context, listing *models.Listing) error
	GetListing(ctx context.Context, id string) (*models.Listing, error)
	ListListings(ctx context.Context, filter ListingFilter) ([]*models.Listing, error)
	// UpdateListingReview persists the review fields of listing only if the
	// stored status still equals from. Otherwise it returns ErrConflict.
	UpdateListingReview(ctx context.Context, listing *models.Listing, from models.ListingStatus) error
}

// Repository is the full storage surface used by the service.
type Repository interface {
	TenantStore
	DirectoryStore
	ListingStore
	Ping(ctx context.Context) error
}

const defaultListLimit = 100

func effectiveLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return defaultListLimit
	}
	return limit
}
