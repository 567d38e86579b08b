package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/minhqngo/staymate/internal/model"
	"github.com/minhqngo/staymate/internal/repository"
	"github.com/minhqngo/staymate/pkg/auth"
	"github.com/minhqngo/staymate/pkg/mailer"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/api/idtoken"
	"gorm.io/gorm"
)

const (
	otpLength        = 6
	otpExpiryMinutes = 5
	otpRateLimit     = 3 // max OTPs per hour
)

// AuthService handles authentication and profile business logic
type AuthService struct {
	userRepo       *repository.UserRepository
	otpRepo        *repository.OTPRepository
	jwtManager     *auth.JWTManager
	mailer         *mailer.Mailer
	rdb            *redis.Client
	googleClientID string
}

func NewAuthService(
	userRepo *repository.UserRepository,
	otpRepo *repository.OTPRepository,
	jwtManager *auth.JWTManager,
	mailer *mailer.Mailer,
	rdb *redis.Client,
	googleClientID string,
) *AuthService {
	return &AuthService{
		userRepo:       userRepo,
		otpRepo:        otpRepo,
		jwtManager:     jwtManager,
		mailer:         mailer,
		rdb:            rdb,
		googleClientID: googleClientID,
	}
}

// ==================== Register (Email + OTP) ====================

// Register creates a new unverified host or guest account and sends an OTP
func (s *AuthService) Register(req model.RegisterRequest) (*model.OTPSentResponse, error) {
	existingUser, err := s.userRepo.FindByEmail(req.Email)
	if err == nil {
		if existingUser.IsEmailVerified() {
			return nil, errors.New("email already registered")
		}
		// Registered but never verified - resend OTP
		return s.sendOTP(existingUser, model.OTPPurposeEmailVerification)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.New("failed to hash password")
	}

	user := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		Password:     string(hashedPassword),
		Role:         req.Role,
		AuthProvider: model.AuthProviderEmail,
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, errors.New("failed to create user")
	}

	return s.sendOTP(user, model.OTPPurposeEmailVerification)
}

// VerifyOTP verifies an OTP code and activates the account
func (s *AuthService) VerifyOTP(req model.VerifyOTPRequest) (*model.LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(req.Email)
	if err != nil {
		return nil, errors.New("user not found")
	}

	otp, err := s.otpRepo.FindValidOTP(user.ID, req.Code, model.OTPPurposeEmailVerification)
	if err != nil {
		return nil, errors.New("invalid or expired OTP code")
	}

	if err := s.otpRepo.MarkAsUsed(otp.ID); err != nil {
		return nil, errors.New("failed to verify OTP")
	}

	if err := s.userRepo.VerifyEmail(user.ID); err != nil {
		return nil, errors.New("failed to verify email")
	}

	token, err := s.jwtManager.GenerateToken(user.ID, user.Email, user.Name)
	if err != nil {
		return nil, errors.New("failed to generate token")
	}

	// Refresh user data
	user, _ = s.userRepo.FindByID(user.ID)

	return &model.LoginResponse{
		Token: token,
		User:  user.ToResponse(),
	}, nil
}

// ResendOTP generates and sends a new OTP code
func (s *AuthService) ResendOTP(req model.ResendOTPRequest) (*model.OTPSentResponse, error) {
	user, err := s.userRepo.FindByEmail(req.Email)
	if err != nil {
		return nil, errors.New("user not found")
	}

	if user.IsEmailVerified() {
		return nil, errors.New("email already verified")
	}

	return s.sendOTP(user, model.OTPPurposeEmailVerification)
}

// ==================== Login ====================

// Login authenticates a user and returns a JWT token
func (s *AuthService) Login(req model.LoginRequest) (*model.LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("invalid email or password")
		}
		return nil, errors.New("failed to find user")
	}

	if user.AuthProvider == model.AuthProviderGoogle {
		return nil, errors.New("this account uses Google login. Please sign in with Google")
	}

	if !user.IsEmailVerified() {
		return nil, errors.New("email not verified. Please check your inbox for the verification code")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, errors.New("invalid email or password")
	}

	token, err := s.jwtManager.GenerateToken(user.ID, user.Email, user.Name)
	if err != nil {
		return nil, errors.New("failed to generate token")
	}

	return &model.LoginResponse{
		Token: token,
		User:  user.ToResponse(),
	}, nil
}

// LoginWithGoogle handles Google Sign-In
func (s *AuthService) LoginWithGoogle(req model.GoogleLoginRequest) (*model.LoginResponse, error) {
	payload, err := idtoken.Validate(context.Background(), req.IDToken, s.googleClientID)
	if err != nil {
		return nil, fmt.Errorf("invalid google token: %w", err)
	}

	email, ok := payload.Claims["email"].(string)
	if !ok {
		return nil, errors.New("email not found in token")
	}
	name, _ := payload.Claims["name"].(string)
	picture, _ := payload.Claims["picture"].(string)

	user, err := s.userRepo.GetOrCreateGoogleUser(payload.Subject, email, name, picture, req.Role)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	token, err := s.jwtManager.GenerateToken(user.ID, user.Email, user.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	_ = s.userRepo.UpdateOnlineStatus(user.ID, true)

	return &model.LoginResponse{
		Token: token,
		User:  user.ToResponse(),
	}, nil
}

// ==================== Forgot/Reset Password ====================

// ForgotPassword sends a password reset OTP
func (s *AuthService) ForgotPassword(req model.ForgotPasswordRequest) (*model.OTPSentResponse, error) {
	user, err := s.userRepo.FindByEmail(req.Email)
	if err != nil {
		// Don't reveal if email exists or not
		return &model.OTPSentResponse{
			Message:   "If the email exists, a reset code has been sent",
			Email:     req.Email,
			ExpiresIn: otpExpiryMinutes * 60,
		}, nil
	}

	if user.AuthProvider == model.AuthProviderGoogle {
		return nil, errors.New("this account uses Google login. Password reset is not available")
	}

	return s.sendOTP(user, model.OTPPurposePasswordReset)
}

// ResetPassword verifies OTP and sets a new password
func (s *AuthService) ResetPassword(req model.ResetPasswordRequest) error {
	user, err := s.userRepo.FindByEmail(req.Email)
	if err != nil {
		return errors.New("user not found")
	}

	otp, err := s.otpRepo.FindValidOTP(user.ID, req.Code, model.OTPPurposePasswordReset)
	if err != nil {
		return errors.New("invalid or expired reset code")
	}

	if err := s.otpRepo.MarkAsUsed(otp.ID); err != nil {
		return errors.New("failed to process reset code")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return errors.New("failed to hash password")
	}

	return s.userRepo.UpdatePassword(user.ID, string(hashedPassword))
}

// ==================== Profile ====================

// GetProfile returns the current user's profile
func (s *AuthService) GetProfile(userID uuid.UUID) (*model.UserResponse, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, errors.New("user not found")
	}
	resp := user.ToResponse()
	return &resp, nil
}

// SetupProfile applies the role-specific profile variant. The request is a
// tagged union: the variant names which block must be present and only that
// block is written.
func (s *AuthService) SetupProfile(userID uuid.UUID, req model.ProfileSetupRequest) (*model.UserResponse, error) {
	switch req.Variant {
	case model.UserRoleHost:
		if req.Host == nil {
			return nil, errors.New("host profile fields are required")
		}
		if err := s.userRepo.SetupHostProfile(userID, *req.Host); err != nil {
			return nil, err
		}
	case model.UserRoleGuest:
		if req.Guest == nil {
			return nil, errors.New("guest profile fields are required")
		}
		if err := s.userRepo.SetupGuestProfile(userID, *req.Guest); err != nil {
			return nil, err
		}
	default:
		return nil, errors.New("unknown profile variant")
	}
	return s.GetProfile(userID)
}

// UpdateProfile updates user's display name and avatar
func (s *AuthService) UpdateProfile(userID uuid.UUID, req model.UpdateProfileRequest) (*model.UserResponse, error) {
	if err := s.userRepo.UpdateProfile(userID, req.Name, req.Avatar); err != nil {
		return nil, err
	}
	return s.GetProfile(userID)
}

// UpdateSettings updates user's settings
func (s *AuthService) UpdateSettings(userID uuid.UUID, req model.UpdateSettingsRequest) (*model.UserResponse, error) {
	if err := s.userRepo.UpdateSettings(userID, req.Theme, req.IsNotificationEnabled, req.Language); err != nil {
		return nil, err
	}
	return s.GetProfile(userID)
}

// RegisterDevice registers a new device for push notifications
func (s *AuthService) RegisterDevice(userID uuid.UUID, req model.RegisterDeviceRequest) error {
	return s.userRepo.AddDevice(userID, req.FCMToken, req.DeviceType)
}

// Logout invalidates the token and sets user offline
func (s *AuthService) Logout(userID uuid.UUID, tokenString string) error {
	if err := s.userRepo.UpdateOnlineStatus(userID, false); err != nil {
		return err
	}

	claims, err := s.jwtManager.ValidateToken(tokenString)
	if err != nil {
		return err
	}

	expiresIn := time.Until(claims.ExpiresAt.Time)
	if expiresIn <= 0 {
		return nil
	}

	return s.rdb.Set(context.Background(), "blacklist:"+tokenString, "revoked", expiresIn).Err()
}

// ==================== Internal Helpers ====================

// sendOTP generates a code, saves it, and emails it
func (s *AuthService) sendOTP(user *model.User, purpose model.OTPPurpose) (*model.OTPSentResponse, error) {
	// Rate limiting: max 3 OTPs per hour
	count, _ := s.otpRepo.CountRecentOTPs(user.ID, purpose, time.Now().Add(-1*time.Hour))
	if count >= int64(otpRateLimit) {
		return nil, errors.New("too many OTP requests. Please try again later")
	}

	// Only the freshest code may verify
	_ = s.otpRepo.InvalidateAllForUser(user.ID, purpose)

	code, err := generateOTPCode(otpLength)
	if err != nil {
		return nil, errors.New("failed to generate OTP code")
	}

	otp := &model.OTPCode{
		UserID:    user.ID,
		Code:      code,
		Purpose:   purpose,
		ExpiresAt: time.Now().Add(time.Duration(otpExpiryMinutes) * time.Minute),
	}
	if err := s.otpRepo.Create(otp); err != nil {
		return nil, errors.New("failed to save OTP")
	}

	// Send email asynchronously
	go func() {
		var emailErr error
		switch purpose {
		case model.OTPPurposeEmailVerification:
			emailErr = s.mailer.SendOTP(user.Email, user.Name, code, otpExpiryMinutes)
		case model.OTPPurposePasswordReset:
			emailErr = s.mailer.SendPasswordReset(user.Email, user.Name, code, otpExpiryMinutes)
		}
		if emailErr != nil {
			fmt.Printf("❌ Failed to send email: %v\n", emailErr)
		}
	}()

	return &model.OTPSentResponse{
		Message:   "Verification code sent to your email",
		Email:     user.Email,
		ExpiresIn: otpExpiryMinutes * 60,
	}, nil
}

// generateOTPCode generates a cryptographically secure random numeric code
func generateOTPCode(length int) (string, error) {
	code := ""
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		code += fmt.Sprintf("%d", n.Int64())
	}
	return code, nil
}
