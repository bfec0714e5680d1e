package services

import (
	"errors"
	"fmt"
	"strings"

	"repair_crm_backend/internal/models"
	"repair_crm_backend/internal/repositories"
	"repair_crm_backend/pkg/utils"

	"golang.org/x/crypto/bcrypt"
)

// --- Custom Service Errors ---
var (
	ErrUserAlreadyExists  = errors.New("user with this username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserInactive       = errors.New("user account is deactivated")
	ErrInvalidRole        = errors.New("invalid user role")
)

// User role constants.
const (
	RoleAdmin      = "admin"
	RoleTechnician = "technician"
)

// --- Auth DTOs ---

type RegisterRequest struct {
	StoreID  int64   `json:"store_id" binding:"required"`
	Username string  `json:"username" binding:"required"`
	Password string  `json:"password" binding:"required,min=8"`
	FullName *string `json:"full_name"`
	Email    *string `json:"email"`
	Role     string  `json:"role" binding:"required"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// --- AuthService Interface ---

// AuthService defines the interface for authentication business logic.
type AuthService interface {
	RegisterUser(req RegisterRequest) (*models.User, error)
	LoginUser(req LoginRequest) (*models.User, *TokenPair, error)
	RefreshToken(refreshToken string) (*TokenPair, error)
	GetUserProfile(userID int64) (*models.User, error)
}

type authService struct {
	authRepo  repositories.AuthRepository
	storeRepo repositories.StoreRepository
	db        repositories.SQLExecutor
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(ar repositories.AuthRepository, sr repositories.StoreRepository, db repositories.SQLExecutor) AuthService {
	return &authService{authRepo: ar, storeRepo: sr, db: db}
}

func isValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleTechnician:
		return true
	default:
		return false
	}
}

func (s *authService) RegisterUser(req RegisterRequest) (*models.User, error) {
	if strings.TrimSpace(req.Username) == "" {
		return nil, fmt.Errorf("%w: username cannot be empty", ErrValidation)
	}
	if len(req.Password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}
	role := strings.ToLower(req.Role)
	if !isValidRole(role) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRole, req.Role)
	}

	if _, err := s.storeRepo.GetStoreByID(req.StoreID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: store %d does not exist", ErrValidation, req.StoreID)
		}
		return nil, fmt.Errorf("failed to resolve store for registration: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		StoreID:  req.StoreID,
		Username: req.Username,
		FullName: req.FullName,
		Email:    req.Email,
		Role:     role,
	}
	userID, err := s.authRepo.CreateUser(s.db, user, string(hashedPassword))
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	created, err := s.authRepo.FindUserByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load registered user: %w", err)
	}
	utils.LogInfo("User registered", map[string]interface{}{
		"user_id":  created.ID,
		"store_id": created.StoreID,
		"role":     created.Role,
	})
	return created, nil
}

func (s *authService) LoginUser(req LoginRequest) (*models.User, *TokenPair, error) {
	user, err := s.authRepo.FindUserByUsername(req.Username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if !user.IsActive {
		return nil, nil, ErrUserInactive
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}
	return user, tokens, nil
}

// RefreshToken exchanges a valid refresh token for a fresh pair. The
// user row is re-read so role or store changes take effect on refresh.
func (s *authService) RefreshToken(refreshToken string) (*TokenPair, error) {
	claims, err := utils.ValidateToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	user, err := s.authRepo.FindUserByID(claims.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user for token refresh: %w", err)
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	return s.issueTokens(user)
}

func (s *authService) GetUserProfile(userID int64) (*models.User, error) {
	user, err := s.authRepo.FindUserByID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user profile: %w", err)
	}
	return user, nil
}

func (s *authService) issueTokens(user *models.User) (*TokenPair, error) {
	accessToken, err := utils.GenerateAccessToken(user.ID, user.StoreID, user.Username, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refreshToken, err := utils.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
