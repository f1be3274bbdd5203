package repository

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"directoryhub/backend/internal/tenancy"
	"directoryhub/backend/pkg/models"
)

// MemoryRepository keeps everything in process memory. It backs the
// storage.driver=memory dev mode and unit tests.
type MemoryRepository struct {
	mu          sync.RWMutex
	tenants     map[string]*models.Tenant // by domain
	directories map[string]*models.Directory
	listings    map[string]*models.Listing
}

// NewMemoryRepository creates an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		tenants:     make(map[string]*models.Tenant),
		directories: make(map[string]*models.Directory),
		listings:    make(map[string]*models.Listing),
	}
}

// Ping always succeeds.
func (m *MemoryRepository) Ping(ctx context.Context) error {
	return nil
}

func (m *MemoryRepository) GetTenantByDomain(ctx context.Context, domain string) (*models.Tenant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tenants[strings.ToLower(domain)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *MemoryRepository) CreateTenant(ctx context.Context, tenant *models.Tenant) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tenant.Domain = strings.ToLower(tenant.Domain)
	if _, exists := m.tenants[tenant.Domain]; exists {
		return ErrConflict
	}
	if tenant.ID == "" {
		tenant.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	tenant.CreatedAt, tenant.UpdatedAt = now, now

	cp := *tenant
	m.tenants[tenant.Domain] = &cp
	return nil
}

func (m *MemoryRepository) CreateDirectory(ctx context.Context, d *models.Directory) error {
	tenantID, err := tenancy.TenantID(ctx)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.directories {
		if existing.TenantID == tenantID && existing.Slug == d.Slug {
			return ErrConflict
		}
	}
	d.TenantID = tenantID
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if len(d.Schema) == 0 {
		d.Schema = json.RawMessage("{}")
	}
	now := time.Now().UTC()
	d.CreatedAt, d.UpdatedAt = now, now

	m.directories[d.ID] = copyDirectory(d)
	return nil
}

func (m *MemoryRepository) GetDirectory(ctx context.Context, id string) (*models.Directory, error) {
	tenantID, err := tenancy.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.directories[id]
	if !ok || d.TenantID != tenantID {
		return nil, ErrNotFound
	}
	return copyDirectory(d), nil
}

func (m *MemoryRepository) ListDirectories(ctx context.Context) ([]*models.Directory, error) {
	tenantID, err := tenancy.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []*models.Directory{}
	for _, d := range m.directories {
		if d.TenantID == tenantID {
			out = append(out, copyDirectory(d))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryRepository) CreateListing(ctx context.Context, l *models.Listing) error {
	tenantID, err := tenancy.TenantID(ctx)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.directories[l.DirectoryID]
	if !ok || d.TenantID != tenantID {
		return ErrNotFound
	}
	l.TenantID = tenantID
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	if l.Data == nil {
		l.Data = map[string]interface{}{}
	}
	now := time.Now().UTC()
	l.CreatedAt, l.UpdatedAt = now, now

	m.listings[l.ID] = copyListing(l)
	return nil
}

func (m *MemoryRepository) GetListing(ctx context.Context, id string) (*models.Listing, error) {
	tenantID, err := tenancy.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	l, ok := m.listings[id]
	if !ok || l.TenantID != tenantID {
		return nil, ErrNotFound
	}
	return copyListing(l), nil
}

func (m *MemoryRepository) ListListings(ctx context.Context, filter ListingFilter) ([]*models.Listing, error) {
	tenantID, err := tenancy.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []*models.Listing{}
	for _, l := range m.listings {
		if l.TenantID != tenantID {
			continue
		}
		if filter.DirectoryID != "" && l.DirectoryID != filter.DirectoryID {
			continue
		}
		if filter.Status != "" && l.Status != filter.Status {
			continue
		}
		out = append(out, copyListing(l))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if limit := effectiveLimit(filter.Limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryRepository) UpdateListingReview(ctx context.Context, l *models.Listing, from models.ListingStatus) error {
	tenantID, err := tenancy.TenantID(ctx)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.listings[l.ID]
	if !ok || stored.TenantID != tenantID {
		return ErrNotFound
	}
	if stored.Status != from {
		return ErrConflict
	}
	l.UpdatedAt = time.Now().UTC()
	stored.Status = l.Status
	stored.ReviewedBy = l.ReviewedBy
	stored.ReviewNote = l.ReviewNote
	stored.ReviewedAt = l.ReviewedAt
	stored.UpdatedAt = l.UpdatedAt
	return nil
}

func copyDirectory(d *models.Directory) *models.Directory {
	cp := *d
	cp.Schema = append(json.RawMessage(nil), d.Schema...)
	return &cp
}

func copyListing(l *models.Listing) *models.Listing {
	cp := *l
	cp.Data = make(map[string]interface{}, len(l.Data))
	for k, v := range l.Data {
		cp.Data[k] = v
	}
	return &cp
}
