package repository

import (
	"github.com/google/uuid"
	"github.com/minhqngo/staymate/internal/model"
	"gorm.io/gorm"
)

// ListingRepository handles database operations for Listing and SavedListing
type ListingRepository struct {
	db *gorm.DB
}

func NewListingRepository(db *gorm.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

// Create inserts a new listing
func (r *ListingRepository) Create(listing *model.Listing) error {
	return r.db.Create(listing).Error
}

// FindByID finds a listing with its host loaded
func (r *ListingRepository) FindByID(id uuid.UUID) (*model.Listing, error) {
	var listing model.Listing
	err := r.db.
		Preload("Host").
		Where("id = ?", id).
		First(&listing).Error
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

// Update applies a partial field set to a listing
func (r *ListingRepository) Update(id uuid.UUID, updates map[string]interface{}) error {
	return r.db.Model(&model.Listing{}).Where("id = ?", id).Updates(updates).Error
}

// Delete soft-deletes a listing
func (r *ListingRepository) Delete(id uuid.UUID) error {
	return r.db.Delete(&model.Listing{}, "id = ?", id).Error
}

// ListByHost returns all listings a host owns, newest first
func (r *ListingRepository) ListByHost(hostID uuid.UUID) ([]model.Listing, error) {
	var listings []model.Listing
	err := r.db.
		Where("host_id = ?", hostID).
		Order("created_at DESC").
		Find(&listings).Error
	return listings, err
}

// Browse returns active listings matching the filter, newest first
func (r *ListingRepository) Browse(filter model.ListingFilter) ([]model.Listing, error) {
	var listings []model.Listing

	query := r.db.
		Preload("Host").
		Where("is_active = ?", true)

	if filter.City != "" {
		query = query.Where("city ILIKE ?", "%"+filter.City+"%")
	}
	if filter.Country != "" {
		query = query.Where("country ILIKE ?", "%"+filter.Country+"%")
	}
	if filter.RoomType != "" {
		query = query.Where("room_type = ?", filter.RoomType)
	}
	if filter.MinPrice > 0 {
		query = query.Where("nightly_price >= ?", filter.MinPrice)
	}
	if filter.MaxPrice > 0 {
		query = query.Where("nightly_price <= ?", filter.MaxPrice)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(filter.Offset).
		Find(&listings).Error
	return listings, err
}

// Save bookmarks a listing for a user (no-op if already saved)
func (r *ListingRepository) Save(userID, listingID uuid.UUID) error {
	var count int64
	if err := r.db.Model(&model.SavedListing{}).
		Where("user_id = ? AND listing_id = ?", userID, listingID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return r.db.Create(&model.SavedListing{UserID: userID, ListingID: listingID}).Error
}

// Unsave removes a bookmark
func (r *ListingRepository) Unsave(userID, listingID uuid.UUID) error {
	return r.db.
		Where("user_id = ? AND listing_id = ?", userID, listingID).
		Delete(&model.SavedListing{}).Error
}

// ListSaved returns a user's bookmarks with listings loaded, newest first
func (r *ListingRepository) ListSaved(userID uuid.UUID) ([]model.SavedListing, error) {
	var saved []model.SavedListing
	err := r.db.
		Preload("Listing").
		Preload("Listing.Host").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&saved).Error
	return saved, err
}
