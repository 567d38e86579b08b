package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/minhqngo/staymate/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository handles database operations for User
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user
func (r *UserRepository) Create(user *model.User) error {
	return r.db.Create(user).Error
}

// FindByID finds a user by UUID
func (r *UserRepository) FindByID(id uuid.UUID) (*model.User, error) {
	var user model.User
	err := r.db.Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail finds a user by email
func (r *UserRepository) FindByEmail(email string) (*model.User, error) {
	var user model.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateOnlineStatus sets a user's online status and last seen time
func (r *UserRepository) UpdateOnlineStatus(id uuid.UUID, isOnline bool) error {
	updates := map[string]interface{}{
		"is_online": isOnline,
	}
	if !isOnline {
		updates["last_seen"] = time.Now()
	}
	return r.db.Model(&model.User{}).Where("id = ?", id).Updates(updates).Error
}

// VerifyEmail marks user's email as verified
func (r *UserRepository) VerifyEmail(userID uuid.UUID) error {
	now := time.Now()
	return r.db.Model(&model.User{}).
		Where("id = ?", userID).
		Update("email_verified_at", now).Error
}

// UpdatePassword updates a user's password
func (r *UserRepository) UpdatePassword(userID uuid.UUID, hashedPassword string) error {
	return r.db.Model(&model.User{}).
		Where("id = ?", userID).
		Update("password", hashedPassword).Error
}

// UpdateProfile updates user's name and/or avatar
func (r *UserRepository) UpdateProfile(userID uuid.UUID, name, avatar string) error {
	updates := map[string]interface{}{}
	if name != "" {
		updates["name"] = name
	}
	if avatar != "" {
		updates["avatar"] = avatar
	}
	return r.db.Model(&model.User{}).Where("id = ?", userID).Updates(updates).Error
}

// SetupHostProfile writes the host-variant profile block
func (r *UserRepository) SetupHostProfile(userID uuid.UUID, in model.HostProfileInput) error {
	return r.db.Model(&model.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"role":           model.UserRoleHost,
		"host_bio":       in.Bio,
		"host_city":      in.City,
		"host_country":   in.Country,
		"host_languages": in.Languages,
	}).Error
}

// SetupGuestProfile writes the guest-variant profile block
func (r *UserRepository) SetupGuestProfile(userID uuid.UUID, in model.GuestProfileInput) error {
	return r.db.Model(&model.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"role":                 model.UserRoleGuest,
		"guest_bio":            in.Bio,
		"guest_occupation":     in.Occupation,
		"guest_preferred_city": in.PreferredCity,
	}).Error
}

// UpdateSettings updates user settings
func (r *UserRepository) UpdateSettings(userID uuid.UUID, theme string, notifEnabled *bool, lang string) error {
	updates := map[string]interface{}{}
	if theme != "" {
		updates["theme"] = theme
	}
	if notifEnabled != nil {
		updates["is_notification_enabled"] = *notifEnabled
	}
	if lang != "" {
		updates["language"] = lang
	}
	if len(updates) == 0 {
		return nil
	}
	return r.db.Model(&model.User{}).Where("id = ?", userID).Updates(updates).Error
}

// AddDevice adds or refreshes a device token for push notifications
func (r *UserRepository) AddDevice(userID uuid.UUID, token string, deviceType string) error {
	device := model.UserDevice{
		UserID:       userID,
		FCMToken:     token,
		DeviceType:   deviceType,
		LastActiveAt: time.Now(),
	}
	// Upsert: on conflict do update
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "fcm_token"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"last_active_at": time.Now(),
			"device_type":    deviceType,
		}),
	}).Create(&device).Error
}

// GetUserDevices gets all devices for a user
func (r *UserRepository) GetUserDevices(userID uuid.UUID) ([]model.UserDevice, error) {
	var devices []model.UserDevice
	err := r.db.Where("user_id = ?", userID).Find(&devices).Error
	return devices, err
}

// GetOrCreateGoogleUser finds a user by email or creates a new one from a
// verified Google identity.
func (r *UserRepository) GetOrCreateGoogleUser(googleID, email, name, picture string, role model.UserRole) (*model.User, error) {
	var user model.User

	if err := r.db.Where("email = ?", email).First(&user).Error; err == nil {
		updates := map[string]interface{}{}
		if user.GoogleID == nil {
			id := googleID
			updates["google_id"] = &id
			updates["auth_provider"] = model.AuthProviderGoogle
			if !user.IsEmailVerified() {
				now := time.Now()
				updates["email_verified_at"] = &now
			}
		}
		if user.Avatar == "" && picture != "" {
			updates["avatar"] = picture
		}
		if len(updates) > 0 {
			if err := r.db.Model(&user).Updates(updates).Error; err != nil {
				return nil, err
			}
		}
		return &user, nil
	}

	if role == "" {
		role = model.UserRoleGuest
	}

	now := time.Now()
	id := googleID
	newUser := model.User{
		Email:           email,
		Name:            name,
		Avatar:          picture,
		Role:            role,
		GoogleID:        &id,
		AuthProvider:    model.AuthProviderGoogle,
		EmailVerifiedAt: &now,
	}

	if err := r.db.Create(&newUser).Error; err != nil {
		return nil, err
	}

	return &newUser, nil
}
