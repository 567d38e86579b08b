package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/minhqngo/staymate/internal/model"
	"github.com/minhqngo/staymate/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newListingService(t *testing.T) (*ListingService, *gorm.DB) {
	db := setupTestDB(t)
	return NewListingService(
		repository.NewListingRepository(db),
		repository.NewUserRepository(db),
	), db
}

func TestCreateListingHostOnly(t *testing.T) {
	svc, db := newListingService(t)
	host := createTestUser(t, db, "Marta", model.UserRoleHost)
	guest := createTestUser(t, db, "Ken", model.UserRoleGuest)

	req := model.CreateListingRequest{
		Title:        "Bright room with balcony",
		RoomType:     "private_room",
		City:         "Porto",
		Country:      "Portugal",
		NightlyPrice: 55,
		Amenities:    []string{"wifi", "kitchen"},
	}

	listing, err := svc.CreateListing(host.ID, req)
	require.NoError(t, err)
	assert.Equal(t, host.ID, listing.HostID)
	assert.Equal(t, "USD", listing.Currency, "currency defaults")
	assert.Equal(t, 1, listing.Capacity, "capacity defaults")
	assert.True(t, listing.IsActive)

	_, err = svc.CreateListing(guest.ID, req)
	assert.ErrorIs(t, err, ErrNotHost)
}

func TestCreateListingImageCap(t *testing.T) {
	svc, db := newListingService(t)
	host := createTestUser(t, db, "Marta", model.UserRoleHost)

	images := make([]string, model.MaxListingImages+1)
	for i := range images {
		images[i] = "https://cdn.staymate.local/l/img.jpg"
	}

	_, err := svc.CreateListing(host.ID, model.CreateListingRequest{
		Title:        "Too many photos",
		RoomType:     "shared_room",
		City:         "Porto",
		Country:      "Portugal",
		NightlyPrice: 20,
		Images:       images,
	})
	assert.ErrorIs(t, err, ErrTooManyImages)
}

func TestUpdateListingOwnerOnly(t *testing.T) {
	svc, db := newListingService(t)
	owner := createTestUser(t, db, "Marta", model.UserRoleHost)
	other := createTestUser(t, db, "Noor", model.UserRoleHost)
	listing := createTestListing(t, db, owner, "Original title")

	newTitle := "Renamed listing"
	updated, err := svc.UpdateListing(owner.ID, listing.ID, model.UpdateListingRequest{Title: &newTitle})
	require.NoError(t, err)
	assert.Equal(t, newTitle, updated.Title)

	_, err = svc.UpdateListing(other.ID, listing.ID, model.UpdateListingRequest{Title: &newTitle})
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestDeleteListingHidesFromLookup(t *testing.T) {
	svc, db := newListingService(t)
	owner := createTestUser(t, db, "Marta", model.UserRoleHost)
	listing := createTestListing(t, db, owner, "Short lived")

	require.NoError(t, svc.DeleteListing(owner.ID, listing.ID))

	_, err := svc.GetListing(listing.ID)
	assert.ErrorIs(t, err, ErrListingNotFound)
}

func TestBrowseFiltersPriceAndRoomType(t *testing.T) {
	svc, db := newListingService(t)
	host := createTestUser(t, db, "Marta", model.UserRoleHost)

	cheap := createTestListing(t, db, host, "Cheap shared room")
	db.Model(cheap).Updates(map[string]interface{}{"nightly_price": 18, "room_type": "shared_room"})
	mid := createTestListing(t, db, host, "Mid private room")
	db.Model(mid).Updates(map[string]interface{}{"nightly_price": 60, "room_type": "private_room"})
	pricey := createTestListing(t, db, host, "Whole apartment")
	db.Model(pricey).Updates(map[string]interface{}{"nightly_price": 190, "room_type": "entire_place"})

	got, err := svc.Browse(model.ListingFilter{MinPrice: 30, MaxPrice: 100})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, mid.ID, got[0].ID)

	got, err = svc.Browse(model.ListingFilter{RoomType: "shared_room"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, cheap.ID, got[0].ID)
}

func TestBrowseSkipsInactive(t *testing.T) {
	svc, db := newListingService(t)
	host := createTestUser(t, db, "Marta", model.UserRoleHost)

	active := createTestListing(t, db, host, "Open for guests")
	paused := createTestListing(t, db, host, "Paused")
	db.Model(paused).Update("is_active", false)

	got, err := svc.Browse(model.ListingFilter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, active.ID, got[0].ID)
}

func TestSaveListingIsIdempotent(t *testing.T) {
	svc, db := newListingService(t)
	host := createTestUser(t, db, "Marta", model.UserRoleHost)
	guest := createTestUser(t, db, "Ken", model.UserRoleGuest)
	listing := createTestListing(t, db, host, "Bookmarkable")

	require.NoError(t, svc.SaveListing(guest.ID, listing.ID))
	require.NoError(t, svc.SaveListing(guest.ID, listing.ID))

	saved, err := svc.SavedListings(guest.ID)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, listing.ID, saved[0].ListingID)
	assert.Equal(t, listing.Title, saved[0].Listing.Title)

	require.NoError(t, svc.UnsaveListing(guest.ID, listing.ID))
	saved, err = svc.SavedListings(guest.ID)
	require.NoError(t, err)
	assert.Empty(t, saved)
}

func TestSaveListingUnknownListing(t *testing.T) {
	svc, db := newListingService(t)
	guest := createTestUser(t, db, "Ken", model.UserRoleGuest)

	err := svc.SaveListing(guest.ID, uuid.New())
	assert.ErrorIs(t, err, ErrListingNotFound)
}
