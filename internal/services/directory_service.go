package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"directoryhub/backend/internal/repository"
	"directoryhub/backend/pkg/models"
)

// DirectoryService manages the directories of the caller's tenant.
type DirectoryService struct {
	store  repository.DirectoryStore
	logger Logger
}

// NewDirectoryService creates a new DirectoryService.
func NewDirectoryService(store repository.DirectoryStore, logger Logger) *DirectoryService {
	return &DirectoryService{store: store, logger: orNop(logger)}
}

// CreateDirectoryInput holds what an admin supplies when finishing the wizard.
type CreateDirectoryInput struct {
	Name        string
	Description string
	Schema      json.RawMessage
	CreatedBy   string
}

// Create saves a new active directory. The schema must be a JSON object; its
// contents are otherwise stored as given.
func (s *DirectoryService) Create(ctx context.Context, in CreateDirectoryInput) (*models.Directory, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	slug := Slugify(name)
	if slug == "" {
		return nil, fmt.Errorf("%w: name must contain letters or digits", ErrValidation)
	}
	if !gjson.ValidBytes(in.Schema) || !gjson.ParseBytes(in.Schema).IsObject() {
		return nil, fmt.Errorf("%w: schema must be a JSON object", ErrValidation)
	}

	directory := &models.Directory{
		Slug:        slug,
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Status:      models.DirectoryStatusActive,
		Schema:      in.Schema,
		CreatedBy:   in.CreatedBy,
	}
	if err := s.store.CreateDirectory(ctx, directory); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: a directory named %q already exists", ErrValidation, name)
		}
		return nil, fmt.Errorf("failed to save directory: %w", err)
	}

	s.logger.Info("directory created", "directory_id", directory.ID, "slug", slug, "tenant_id", directory.TenantID)
	return directory, nil
}

// Get returns one directory.
func (s *DirectoryService) Get(ctx context.Context, id string) (*models.Directory, error) {
	return s.store.GetDirectory(ctx, id)
}

// List returns all directories of the tenant.
func (s *DirectoryService) List(ctx context.Context) ([]*models.Directory, error) {
	return s.store.ListDirectories(ctx)
}
