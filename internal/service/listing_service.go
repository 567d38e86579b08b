package service

import (
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/minhqngo/staymate/internal/model"
	"github.com/minhqngo/staymate/internal/repository"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	// ErrNotHost rejects listing mutations by guest accounts
	ErrNotHost = errors.New("only hosts can manage listings")
	// ErrNotOwner rejects mutations of another host's listing
	ErrNotOwner = errors.New("you do not own this listing")
	// ErrTooManyImages enforces the listing image cap before any remote call
	ErrTooManyImages = errors.New("a listing can carry at most 10 images")
)

// ListingService handles listing CRUD and guest bookmarks
type ListingService struct {
	listingRepo *repository.ListingRepository
	userRepo    *repository.UserRepository
}

func NewListingService(listingRepo *repository.ListingRepository, userRepo *repository.UserRepository) *ListingService {
	return &ListingService{listingRepo: listingRepo, userRepo: userRepo}
}

// CreateListing creates a listing owned by the calling host
func (s *ListingService) CreateListing(hostID uuid.UUID, req model.CreateListingRequest) (*model.Listing, error) {
	host, err := s.userRepo.FindByID(hostID)
	if err != nil {
		return nil, err
	}
	if host.Role != model.UserRoleHost {
		return nil, ErrNotHost
	}
	if len(req.Images) > model.MaxListingImages {
		return nil, ErrTooManyImages
	}

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}
	capacity := req.Capacity
	if capacity == 0 {
		capacity = 1
	}

	listing := &model.Listing{
		HostID:       hostID,
		Title:        req.Title,
		Description:  req.Description,
		RoomType:     req.RoomType,
		Address:      req.Address,
		City:         req.City,
		Country:      req.Country,
		NightlyPrice: req.NightlyPrice,
		Currency:     currency,
		Capacity:     capacity,
		Bedrooms:     req.Bedrooms,
		Amenities:    toJSON(req.Amenities),
		Images:       toJSON(req.Images),
		IsActive:     true,
	}

	if err := s.listingRepo.Create(listing); err != nil {
		return nil, err
	}
	return s.listingRepo.FindByID(listing.ID)
}

// UpdateListing applies a partial update to an owned listing
func (s *ListingService) UpdateListing(hostID, listingID uuid.UUID, req model.UpdateListingRequest) (*model.Listing, error) {
	listing, err := s.ownedListing(hostID, listingID)
	if err != nil {
		return nil, err
	}
	if req.Images != nil && len(req.Images) > model.MaxListingImages {
		return nil, ErrTooManyImages
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.RoomType != nil {
		updates["room_type"] = *req.RoomType
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if req.City != nil {
		updates["city"] = *req.City
	}
	if req.Country != nil {
		updates["country"] = *req.Country
	}
	if req.NightlyPrice != nil {
		updates["nightly_price"] = *req.NightlyPrice
	}
	if req.Capacity != nil {
		updates["capacity"] = *req.Capacity
	}
	if req.Bedrooms != nil {
		updates["bedrooms"] = *req.Bedrooms
	}
	if req.Amenities != nil {
		updates["amenities"] = toJSON(req.Amenities)
	}
	if req.Images != nil {
		updates["images"] = toJSON(req.Images)
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) > 0 {
		if err := s.listingRepo.Update(listing.ID, updates); err != nil {
			return nil, err
		}
	}
	return s.listingRepo.FindByID(listing.ID)
}

// DeleteListing removes an owned listing
func (s *ListingService) DeleteListing(hostID, listingID uuid.UUID) error {
	listing, err := s.ownedListing(hostID, listingID)
	if err != nil {
		return err
	}
	return s.listingRepo.Delete(listing.ID)
}

// GetListing returns one listing by id
func (s *ListingService) GetListing(id uuid.UUID) (*model.Listing, error) {
	listing, err := s.listingRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	return listing, nil
}

// Browse returns active listings matching the filter
func (s *ListingService) Browse(filter model.ListingFilter) ([]model.Listing, error) {
	return s.listingRepo.Browse(filter)
}

// MyListings returns the host's own listings
func (s *ListingService) MyListings(hostID uuid.UUID) ([]model.Listing, error) {
	return s.listingRepo.ListByHost(hostID)
}

// SaveListing bookmarks a listing for the user; repeated saves are no-ops
func (s *ListingService) SaveListing(userID, listingID uuid.UUID) error {
	if _, err := s.GetListing(listingID); err != nil {
		return err
	}
	return s.listingRepo.Save(userID, listingID)
}

// UnsaveListing removes a bookmark
func (s *ListingService) UnsaveListing(userID, listingID uuid.UUID) error {
	return s.listingRepo.Unsave(userID, listingID)
}

// SavedListings returns the user's bookmarks
func (s *ListingService) SavedListings(userID uuid.UUID) ([]model.SavedListing, error) {
	return s.listingRepo.ListSaved(userID)
}

func (s *ListingService) ownedListing(hostID, listingID uuid.UUID) (*model.Listing, error) {
	listing, err := s.GetListing(listingID)
	if err != nil {
		return nil, err
	}
	if listing.HostID != hostID {
		return nil, ErrNotOwner
	}
	return listing, nil
}

func toJSON(values []string) datatypes.JSON {
	if values == nil {
		values = []string{}
	}
	b, _ := json.Marshal(values)
	return datatypes.JSON(b)
}
