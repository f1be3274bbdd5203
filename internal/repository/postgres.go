package repository

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"directoryhub/backend/internal/tenancy"
	"directoryhub/backend/pkg/models"
)

//go:embed schema.sql
var schemaSQL string

// Logger is the subset of the application logger the repository uses.
type Logger interface {
	Debug(msg string, args ...any)
}

// PostgresRepository is a PostgreSQL implementation of the Repository interface.
type PostgresRepository struct {
	db     *pgxpool.Pool
	logger Logger
}

// NewPostgresRepository creates a new PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool, logger Logger) *PostgresRepository {
	return &PostgresRepository{db: db, logger: logger}
}

// Connect opens a pgx pool for dsn and checks that the database answers.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

// Migrate creates the tables and indexes if they do not exist yet.
func (s *PostgresRepository) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *PostgresRepository) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// GetTenantByDomain retrieves a tenant by its email domain.
func (s *PostgresRepository) GetTenantByDomain(ctx context.Context, domain string) (*models.Tenant, error) {
	var t models.Tenant
	err := s.db.QueryRow(ctx,
		"SELECT id, name, domain, created_at, updated_at FROM tenants WHERE domain = $1",
		strings.ToLower(domain),
	).Scan(&t.ID, &t.Name, &t.Domain, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

// CreateTenant saves a new tenant and fills in its ID and timestamps.
func (s *PostgresRepository) CreateTenant(ctx context.Context, tenant *models.Tenant) error {
	if tenant.ID == "" {
		tenant.ID = uuid.New().String()
	}
	tenant.Domain = strings.ToLower(tenant.Domain)
	now := time.Now().UTC()
	tenant.CreatedAt, tenant.UpdatedAt = now, now

	_, err := s.db.Exec(ctx,
		"INSERT INTO tenants (id, name, domain, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)",
		tenant.ID, tenant.Name, tenant.Domain, tenant.CreatedAt, tenant.UpdatedAt,
	)
	return translate(err)
}

const directoryColumns = "id, tenant_id, slug, name, description, status, schema, created_by, created_at, updated_at"

// CreateDirectory saves a new directory in the caller's tenant.
func (s *PostgresRepository) CreateDirectory(ctx context.Context, d *models.Directory) error {
	tenantID, err := tenancy.TenantID(ctx)
	if err != nil {
		return err
	}
	d.TenantID = tenantID
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if len(d.Schema) == 0 {
		d.Schema = []byte("{}")
	}
	now := time.Now().UTC()
	d.CreatedAt, d.UpdatedAt = now, now

	_, err = s.db.Exec(ctx,
		"INSERT INTO directories ("+directoryColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)",
		d.ID, d.TenantID, d.Slug, d.Name, d.Description, string(d.Status), []byte(d.Schema), d.CreatedBy, d.CreatedAt, d.UpdatedAt,
	)
	return translate(err)
}

// GetDirectory retrieves a directory by ID.
func (s *PostgresRepository) GetDirectory(ctx context.Context, id string) (*models.Directory, error) {
	tenantID, err := tenancy.TenantID(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	row := s.db.QueryRow(ctx,
		"SELECT "+directoryColumns+" FROM directories WHERE id = $1 AND tenant_id = $2",
		id, tenantID,
	)
	d, err := scanDirectory(row)
	if err != nil {
		return nil, translate(err)
	}
	return d, nil
}

// ListDirectories returns the caller's directories ordered by name.
func (s *PostgresRepository) ListDirectories(ctx context.Context) ([]*models.Directory, error) {
	tenantID, err := tenancy.TenantID(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(ctx,
		"SELECT "+directoryColumns+" FROM directories WHERE tenant_id = $1 ORDER BY name",
		tenantID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	directories := []*models.Directory{}
	for rows.Next() {
		d, err := scanDirectory(rows)
		if err != nil {
			return nil, err
		}
		directories = append(directories, d)
	}
	return directories, rows.Err()
}

const listingColumns = "id, tenant_id, directory_id, title, data, status, submitted_by, reviewed_by, review_note, reviewed_at, created_at, updated_at"

// CreateListing saves a new listing in the caller's tenant.
func (s *PostgresRepository) CreateListing(ctx context.Context, l *models.Listing) error {
	tenantID, err := tenancy.TenantID(ctx)
	if err != nil {
		return err
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

	_, err = s.db.Exec(ctx,
		"INSERT INTO listings ("+listingColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)",
		l.ID, l.TenantID, l.DirectoryID, l.Title, l.Data, string(l.Status), l.SubmittedBy,
		l.ReviewedBy, l.ReviewNote, l.ReviewedAt, l.CreatedAt, l.UpdatedAt,
	)
	return translate(err)
}

// GetListing retrieves a listing by ID.
func (s *PostgresRepository) GetListing(ctx context.Context, id string) (*models.Listing, error) {
	tenantID, err := tenancy.TenantID(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	row := s.db.QueryRow(ctx,
		"SELECT "+listingColumns+" FROM listings WHERE id = $1 AND tenant_id = $2",
		id, tenantID,
	)
	l, err := scanListing(row)
	if err != nil {
		return nil, translate(err)
	}
	return l, nil
}

// ListListings returns listings matching filter, oldest first.
func (s *PostgresRepository) ListListings(ctx context.Context, filter ListingFilter) ([]*models.Listing, error) {
	tenantID, err := tenancy.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	query := "SELECT " + listingColumns + " FROM listings WHERE tenant_id = $1"
	args := []any{tenantID}
	if filter.DirectoryID != "" {
		args = append(args, filter.DirectoryID)
		query += fmt.Sprintf(" AND directory_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	args = append(args, effectiveLimit(filter.Limit))
	query += fmt.Sprintf(" ORDER BY created_at, id LIMIT $%d", len(args))

	s.logger.Debug("listing query", "query", query, "tenant_id", tenantID)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	listings := []*models.Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// UpdateListingReview persists a review decision if the stored status still
// equals from.
func (s *PostgresRepository) UpdateListingReview(ctx context.Context, l *models.Listing, from models.ListingStatus) error {
	tenantID, err := tenancy.TenantID(ctx)
	if err != nil {
		return err
	}
	l.UpdatedAt = time.Now().UTC()

	tag, err := s.db.Exec(ctx,
		`UPDATE listings
		    SET status = $1, reviewed_by = $2, review_note = $3, reviewed_at = $4, updated_at = $5
		  WHERE id = $6 AND tenant_id = $7 AND status = $8`,
		string(l.Status), l.ReviewedBy, l.ReviewNote, l.ReviewedAt, l.UpdatedAt,
		l.ID, tenantID, string(from),
	)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := s.GetListing(ctx, l.ID); err != nil {
			return err
		}
		return ErrConflict
	}
	return nil
}

func scanDirectory(row pgx.Row) (*models.Directory, error) {
	var d models.Directory
	var status string
	var schema []byte
	err := row.Scan(&d.ID, &d.TenantID, &d.Slug, &d.Name, &d.Description, &status, &schema, &d.CreatedBy, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	d.Status = models.DirectoryStatus(status)
	d.Schema = schema
	return &d, nil
}

func scanListing(row pgx.Row) (*models.Listing, error) {
	var l models.Listing
	var status string
	err := row.Scan(&l.ID, &l.TenantID, &l.DirectoryID, &l.Title, &l.Data, &status, &l.SubmittedBy,
		&l.ReviewedBy, &l.ReviewNote, &l.ReviewedAt, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	l.Status = models.ListingStatus(status)
	return &l, nil
}

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
		case "23503":
			return fmt.Errorf("%w: %s", ErrNotFound, pgErr.ConstraintName)
		}
	}
	return err
}
