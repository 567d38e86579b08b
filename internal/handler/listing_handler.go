package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/minhqngo/staymate/internal/model"
	"github.com/minhqngo/staymate/internal/service"
)

// ListingHandler handles listing CRUD and bookmark endpoints
type ListingHandler struct {
	listingService *service.ListingService
}

func NewListingHandler(listingService *service.ListingService) *ListingHandler {
	return &ListingHandler{listingService: listingService}
}

// CreateListing godoc
// @Summary Create a listing
// @Tags Listings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.CreateListingRequest true "Listing details"
// @Success 201 {object} model.Listing
// @Failure 403 {object} model.ErrorResponse
// @Router /listings [post]
func (h *ListingHandler) CreateListing(c *gin.Context) {
	var req model.CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	listing, err := h.listingService.CreateListing(userID, req)
	if err != nil {
		h.answerListingError(c, err)
		return
	}

	c.JSON(http.StatusCreated, listing)
}

// Browse godoc
// @Summary Browse active listings
// @Tags Listings
// @Produce json
// @Security BearerAuth
// @Param city query string false "Filter by city"
// @Param country query string false "Filter by country"
// @Param min_price query number false "Minimum nightly price"
// @Param max_price query number false "Maximum nightly price"
// @Param room_type query string false "Room type"
// @Param limit query int false "Page size (default 20, max 100)"
// @Param offset query int false "Offset"
// @Success 200 {array} model.Listing
// @Router /listings [get]
func (h *ListingHandler) Browse(c *gin.Context) {
	var filter model.ListingFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid query", Message: err.Error()})
		return
	}

	listings, err := h.listingService.Browse(filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to browse listings"})
		return
	}

	c.JSON(http.StatusOK, listings)
}

// MyListings godoc
// @Summary Get the current host's listings
// @Tags Listings
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Listing
// @Router /listings/my [get]
func (h *ListingHandler) MyListings(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	listings, err := h.listingService.MyListings(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to get listings"})
		return
	}

	c.JSON(http.StatusOK, listings)
}

// GetListing godoc
// @Summary Get one listing
// @Tags Listings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Listing ID"
// @Success 200 {object} model.Listing
// @Failure 404 {object} model.ErrorResponse
// @Router /listings/{id} [get]
func (h *ListingHandler) GetListing(c *gin.Context) {
	listingID, ok := h.pathID(c)
	if !ok {
		return
	}

	listing, err := h.listingService.GetListing(listingID)
	if err != nil {
		h.answerListingError(c, err)
		return
	}

	c.JSON(http.StatusOK, listing)
}

// UpdateListing godoc
// @Summary Update an owned listing
// @Tags Listings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Listing ID"
// @Param body body model.UpdateListingRequest true "Fields to change"
// @Success 200 {object} model.Listing
// @Failure 403 {object} model.ErrorResponse
// @Router /listings/{id} [put]
func (h *ListingHandler) UpdateListing(c *gin.Context) {
	listingID, ok := h.pathID(c)
	if !ok {
		return
	}

	var req model.UpdateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	listing, err := h.listingService.UpdateListing(userID, listingID, req)
	if err != nil {
		h.answerListingError(c, err)
		return
	}

	c.JSON(http.StatusOK, listing)
}

// DeleteListing godoc
// @Summary Delete an owned listing
// @Tags Listings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Listing ID"
// @Success 200 {object} model.SuccessResponse
// @Router /listings/{id} [delete]
func (h *ListingHandler) DeleteListing(c *gin.Context) {
	listingID, ok := h.pathID(c)
	if !ok {
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	if err := h.listingService.DeleteListing(userID, listingID); err != nil {
		h.answerListingError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Listing deleted"})
}

// SaveListing godoc
// @Summary Bookmark a listing
// @Description Repeating the call is a no-op.
// @Tags Listings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Listing ID"
// @Success 200 {object} model.SuccessResponse
// @Router /listings/{id}/save [post]
func (h *ListingHandler) SaveListing(c *gin.Context) {
	listingID, ok := h.pathID(c)
	if !ok {
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	if err := h.listingService.SaveListing(userID, listingID); err != nil {
		h.answerListingError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Listing saved"})
}

// UnsaveListing godoc
// @Summary Remove a bookmark
// @Tags Listings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Listing ID"
// @Success 200 {object} model.SuccessResponse
// @Router /listings/{id}/save [delete]
func (h *ListingHandler) UnsaveListing(c *gin.Context) {
	listingID, ok := h.pathID(c)
	if !ok {
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	if err := h.listingService.UnsaveListing(userID, listingID); err != nil {
		h.answerListingError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Listing unsaved"})
}

// SavedListings godoc
// @Summary Get the current user's bookmarks
// @Tags Listings
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.SavedListing
// @Router /listings/saved [get]
func (h *ListingHandler) SavedListings(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	saved, err := h.listingService.SavedListings(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to get saved listings"})
		return
	}

	c.JSON(http.StatusOK, saved)
}

func (h *ListingHandler) pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid listing ID"})
		return uuid.Nil, false
	}
	return id, true
}

func (h *ListingHandler) answerListingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotHost), errors.Is(err, service.ErrNotOwner):
		c.JSON(http.StatusForbidden, model.ErrorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrTooManyImages):
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrListingNotFound):
		c.JSON(http.StatusNotFound, model.ErrorResponse{Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Internal server error"})
	}
}
