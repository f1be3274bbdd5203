package api

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"directoryhub/backend/internal/services"
	"directoryhub/backend/pkg/models"
)

// SubmitListingRequest is the body of POST /api/v1/directories/:id/listings.
type SubmitListingRequest struct {
	Title string                 `json:"title" validate:"required,max=300"`
	Data  map[string]interface{} `json:"data"`
}

// ReviewRequest is the optional body of the approve and reject endpoints.
type ReviewRequest struct {
	Note string `json:"note" validate:"max=2000"`
}

// ListingList wraps a page of listings.
type ListingList struct {
	Listings []*models.Listing `json:"listings"`
}

func listingList(listings []*models.Listing) ListingList {
	if listings == nil {
		listings = []*models.Listing{}
	}
	return ListingList{Listings: listings}
}

// ListDirectoryListings returns a directory's listings, optionally by status.
// (GET /api/v1/directories/:id/listings)
func (h *Handler) ListDirectoryListings(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	params, err := bindListListingsParams(c)
	if err != nil {
		return err
	}

	var status models.ListingStatus
	if params.Status != nil {
		status = models.ListingStatus(*params.Status)
	}
	listings, err := h.listings.ListForDirectory(c.Request().Context(), id, status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, listingList(listings))
}

// SubmitListing queues a listing for admin review.
// (POST /api/v1/directories/:id/listings)
func (h *Handler) SubmitListing(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	var req SubmitListingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	listing, err := h.listings.Submit(c.Request().Context(), services.SubmitListingInput{
		DirectoryID: id,
		Title:       req.Title,
		Data:        req.Data,
		SubmittedBy: principalEmail(c),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, listing)
}

// ListPendingListings returns the review queue.
// (GET /api/v1/listings/pending)
func (h *Handler) ListPendingListings(c echo.Context) error {
	params, err := bindListPendingParams(c)
	if err != nil {
		return err
	}
	limit, err := params.limit()
	if err != nil {
		return err
	}
	listings, err := h.listings.ListPending(c.Request().Context(), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, listingList(listings))
}

// ApproveListing publishes a pending listing.
// (POST /api/v1/listings/:id/approve)
func (h *Handler) ApproveListing(c echo.Context) error {
	return h.review(c, h.listings.Approve)
}

// RejectListing declines a pending listing.
// (POST /api/v1/listings/:id/reject)
func (h *Handler) RejectListing(c echo.Context) error {
	return h.review(c, h.listings.Reject)
}

type reviewFunc func(ctx context.Context, id, reviewer, note string) (*models.Listing, error)

func (h *Handler) review(c echo.Context, decide reviewFunc) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	// an empty body binds to the zero request
	var req ReviewRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	listing, err := decide(c.Request().Context(), id, principalEmail(c), req.Note)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, listing)
}
