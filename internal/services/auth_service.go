package services

import (
	"fmt"
	"log"
	"time"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"

	apperrors "skateshop/internal/errors"
	"skateshop/internal/models"
	"skateshop/internal/repositories"
)

// AuthService handles business logic for authentication, profiles,
// and the address book.
type AuthService struct {
	userRepo  repositories.UserRepository
	jwtSecret []byte
	tokenTTL  time.Duration
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, jwtSecret string, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		userRepo:  userRepo,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
	}
}

// ProfileUpdate carries the mutable profile fields. Nil means leave
// the field unchanged.
type ProfileUpdate struct {
	FirstName       *string
	LastName        *string
	NewsletterOptIn *bool
	Currency        *string
}

// Register registers a new user, hashes their password, and saves
// them with the customer role.
func (s *AuthService) Register(user *models.User) error {
	if existing, err := s.userRepo.GetByEmail(user.Email); err == nil && existing != nil {
		return apperrors.ErrDuplicateEmail
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = string(hashedPassword)

	if user.Role == "" {
		user.Role = models.RoleCustomer
	}
	if user.Currency == "" {
		user.Currency = "USD"
	}

	if err := s.userRepo.Create(user); err != nil {
		return fmt.Errorf("failed to register user: %w", err)
	}
	return nil
}

// Login authenticates a user and returns a signed JWT. Five failed
// attempts lock the account for thirty minutes; a successful login
// resets the counter.
func (s *AuthService) Login(email, password string) (string, *models.User, error) {
	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		// Do not reveal whether the email exists
		return "", nil, apperrors.ErrInvalidCredentials
	}

	now := time.Now()
	if user.IsLockedOut(now) {
		return "", nil, apperrors.ErrAccountLocked
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		if recordErr := s.recordFailedLogin(user, now); recordErr != nil {
			log.Printf("failed to record login failure for %s: %v", user.ID, recordErr)
		}
		return "", nil, apperrors.ErrInvalidCredentials
	}

	if user.FailedLoginAttempts > 0 || user.LockoutUntil != nil {
		user.FailedLoginAttempts = 0
		user.LockoutUntil = nil
		if err := s.userRepo.Update(user); err != nil {
			log.Printf("failed to reset login counter for %s: %v", user.ID, err)
		}
	}

	token, err := s.issueToken(user)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return token, user, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}

// GetProfile loads a user with their address book.
func (s *AuthService) GetProfile(userID string) (*models.User, error) {
	return s.userRepo.GetByID(userID)
}

// UpdateProfile applies the non-nil fields of the update.
func (s *AuthService) UpdateProfile(userID string, update ProfileUpdate) (*models.User, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}

	if update.FirstName != nil {
		user.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		user.LastName = *update.LastName
	}
	if update.NewsletterOptIn != nil {
		user.NewsletterOptIn = *update.NewsletterOptIn
	}
	if update.Currency != nil {
		user.Currency = *update.Currency
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

// ChangePassword verifies the current password and stores a new hash.
func (s *AuthService) ChangePassword(userID, currentPassword, newPassword string) error {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(currentPassword)); err != nil {
		return apperrors.ErrInvalidCredentials
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = string(hashed)
	return s.userRepo.Update(user)
}

// AddAddress appends an address to the user's book. When the new
// address is flagged default, the flag is cleared on all others so at
// most one default exists.
func (s *AuthService) AddAddress(userID string, address models.Address) (*models.User, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}

	if address.IsDefault {
		for i := range user.Addresses {
			user.Addresses[i].IsDefault = false
		}
	}
	address.UserID = userID
	user.Addresses = append(user.Addresses, address)

	if err := s.userRepo.ReplaceAddresses(userID, user.Addresses); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(userID)
}

// RemoveAddress deletes one address from the user's book.
func (s *AuthService) RemoveAddress(userID, addressID string) error {
	return s.userRepo.DeleteAddress(userID, addressID)
}

func (s *AuthService) recordFailedLogin(user *models.User, now time.Time) error {
	user.FailedLoginAttempts++
	if user.FailedLoginAttempts >= models.MaxFailedLoginAttempts {
		until := now.Add(models.LockoutDuration)
		user.LockoutUntil = &until
	}
	return s.userRepo.Update(user)
}

func (s *AuthService) issueToken(user *models.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"role":    user.Role,
		"exp":     time.Now().Add(s.tokenTTL).Unix(),
		"iat":     time.Now().Unix(),
	})
	return token.SignedString(s.jwtSecret)
}
