package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/matchpoint-dev/pingpong-tournaments/models"
	"github.com/matchpoint-dev/pingpong-tournaments/repositories"
	"github.com/matchpoint-dev/pingpong-tournaments/utils"
)

const (
	tokenTTL         = 3 * time.Hour
	minPasswordChars = 8
)

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*models.Admin, error)
	Login(ctx context.Context, input LoginInput) (*models.Admin, string, error)
	VerifyToken(tokenString string) (int, error)
	Verify(ctx context.Context, tokenString string) (*models.Admin, error)
}

type authService struct {
	adminRepo repositories.AdminRepository
	jwtSecret []byte
}

func NewAuthService(adminRepo repositories.AdminRepository, jwtSecret []byte) AuthService {
	return &authService{adminRepo: adminRepo, jwtSecret: jwtSecret}
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*models.Admin, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if name == "" || email == "" {
		return nil, ErrValidationFailed
	}
	if !emailPattern.MatchString(email) {
		return nil, ErrInvalidEmail
	}
	if len(input.Password) < minPasswordChars {
		return nil, ErrPasswordTooShort
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &models.Admin{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := s.adminRepo.Create(ctx, admin); err != nil {
		if errors.Is(err, repositories.ErrAdminEmailConflict) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	admin.PasswordHash = ""
	return admin, nil
}

// Login checks the credentials and issues a signed token. Inactive accounts
// are rejected even with a valid password.
func (s *authService) Login(ctx context.Context, input LoginInput) (*models.Admin, string, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	admin, err := s.adminRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrAdminNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to find admin by email: %w", err)
	}

	if !utils.CheckPasswordHash(input.Password, admin.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}
	if !admin.IsActive {
		return nil, "", ErrAccountInactive
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"admin_id": admin.ID,
		"email":    admin.Email,
		"iat":      now.Unix(),
		"exp":      now.Add(tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, "", fmt.Errorf("failed to sign token: %w", err)
	}

	admin.PasswordHash = ""
	return admin, signed, nil
}

// VerifyToken parses and validates a token and returns the admin ID it was
// issued for.
func (s *authService) VerifyToken(tokenString string) (int, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return 0, ErrInvalidCredentials
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrInvalidCredentials
	}
	idClaim, ok := claims["admin_id"].(float64)
	if !ok || idClaim <= 0 {
		return 0, ErrInvalidCredentials
	}
	return int(idClaim), nil
}

// Verify resolves a token to the admin it belongs to, so a client can check
// a stored token before reusing it. Deactivated accounts fail verification.
func (s *authService) Verify(ctx context.Context, tokenString string) (*models.Admin, error) {
	adminID, err := s.VerifyToken(tokenString)
	if err != nil {
		return nil, err
	}

	admin, err := s.adminRepo.GetByID(ctx, adminID)
	if err != nil {
		if errors.Is(err, repositories.ErrAdminNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load admin %d: %w", adminID, err)
	}
	if !admin.IsActive {
		return nil, ErrAccountInactive
	}

	admin.PasswordHash = ""
	return admin, nil
}
