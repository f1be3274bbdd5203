package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"directoryhub/backend/internal/repository"
	"directoryhub/backend/pkg/models"
)

// ListingService handles submissions and the admin review queue.
type ListingService struct {
	directories repository.DirectoryStore
	listings    repository.ListingStore
	logger      Logger
	metrics     *serviceMetrics
	now         func() time.Time
}

// NewListingService creates a new ListingService.
func NewListingService(directories repository.DirectoryStore, listings repository.ListingStore, logger Logger) *ListingService {
	return &ListingService{
		directories: directories,
		listings:    listings,
		logger:      orNop(logger),
		metrics:     newServiceMetrics(),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// SubmitListingInput is a contributor's submission.
type SubmitListingInput struct {
	DirectoryID string
	Title       string
	Data        map[string]interface{}
	SubmittedBy string
}

// Submit stores a new pending listing after checking the directory's
// required fields.
func (s *ListingService) Submit(ctx context.Context, in SubmitListingInput) (*models.Listing, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}

	directory, err := s.directories.GetDirectory(ctx, in.DirectoryID)
	if err != nil {
		return nil, err
	}
	if directory.Status == models.DirectoryStatusArchived {
		return nil, fmt.Errorf("%w: directory %q is archived", ErrValidation, directory.Name)
	}

	data := make(map[string]interface{}, len(in.Data)+1)
	for k, v := range in.Data {
		data[k] = v
	}
	if isBlank(data["name"]) {
		data["name"] = title
	}
	if missing := MissingRequired(directory.Schema, data); len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing required fields: %s", ErrValidation, strings.Join(missing, ", "))
	}

	listing := &models.Listing{
		DirectoryID: directory.ID,
		Title:       title,
		Data:        data,
		Status:      models.ListingStatusPending,
		SubmittedBy: in.SubmittedBy,
	}
	if err := s.listings.CreateListing(ctx, listing); err != nil {
		return nil, fmt.Errorf("failed to save listing: %w", err)
	}

	s.metrics.submission(ctx)
	s.logger.Info("listing submitted", "listing_id", listing.ID, "directory_id", directory.ID)
	return listing, nil
}

// Get returns one listing.
func (s *ListingService) Get(ctx context.Context, id string) (*models.Listing, error) {
	return s.listings.GetListing(ctx, id)
}

// ListForDirectory returns the listings of a directory, optionally by status.
func (s *ListingService) ListForDirectory(ctx context.Context, directoryID string, status models.ListingStatus) ([]*models.Listing, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	if _, err := s.directories.GetDirectory(ctx, directoryID); err != nil {
		return nil, err
	}
	return s.listings.ListListings(ctx, repository.ListingFilter{DirectoryID: directoryID, Status: status})
}

// ListPending returns the tenant's review queue, oldest first.
func (s *ListingService) ListPending(ctx context.Context, limit int) ([]*models.Listing, error) {
	return s.listings.ListListings(ctx, repository.ListingFilter{Status: models.ListingStatusPending, Limit: limit})
}

// Approve publishes a pending listing.
func (s *ListingService) Approve(ctx context.Context, id, reviewer, note string) (*models.Listing, error) {
	return s.review(ctx, id, models.ListingStatusApproved, reviewer, note)
}

// Reject declines a pending listing.
func (s *ListingService) Reject(ctx context.Context, id, reviewer, note string) (*models.Listing, error) {
	return s.review(ctx, id, models.ListingStatusRejected, reviewer, note)
}

func (s *ListingService) review(ctx context.Context, id string, to models.ListingStatus, reviewer, note string) (*models.Listing, error) {
	listing, err := s.listings.GetListing(ctx, id)
	if err != nil {
		return nil, err
	}
	if listing.Status != models.ListingStatusPending {
		return nil, fmt.Errorf("%w: listing is %s", ErrInvalidTransition, listing.Status)
	}

	now := s.now()
	listing.Status = to
	listing.ReviewedBy = &reviewer
	listing.ReviewedAt = &now
	if note = strings.TrimSpace(note); note != "" {
		listing.ReviewNote = &note
	}

	if err := s.listings.UpdateListingReview(ctx, listing, models.ListingStatusPending); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: reviewed concurrently", ErrInvalidTransition)
		}
		return nil, fmt.Errorf("failed to save review: %w", err)
	}

	s.metrics.review(ctx, string(to))
	s.logger.Info("listing reviewed", "listing_id", listing.ID, "status", to, "reviewer", reviewer)
	return listing, nil
}
