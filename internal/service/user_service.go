package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sourcing-marketplace-service/internal/auth"
	"sourcing-marketplace-service/internal/dto"
	"sourcing-marketplace-service/internal/model"
	"sourcing-marketplace-service/internal/repository"
)

// UserService maneja cuentas y sesiones. El rol se decide una sola vez,
// comparando contra el email de admin configurado, y queda en el token.
type UserService struct {
	users      UserRepository
	adminEmail string
	jwtSecret  string
	tokenTTL   time.Duration
}

func NewUserService(users UserRepository, adminEmail, jwtSecret string, tokenTTL time.Duration) *UserService {
	return &UserService{
		users:      users,
		adminEmail: strings.ToLower(adminEmail),
		jwtSecret:  jwtSecret,
		tokenTTL:   tokenTTL,
	}
}

func (s *UserService) Signup(ctx context.Context, req dto.SignupRequest) (*dto.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	role := model.RoleUser
	if email == s.adminEmail {
		role = model.RoleAdmin
	}

	user := &model.User{
		FullName:     req.FullName,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Insert(ctx, user); err != nil {
		return nil, err
	}

	return s.issueToken(user)
}

func (s *UserService) Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		return nil, ErrInvalidCredentials
	}
	if user.IsBlocked {
		return nil, ErrAccountBlocked
	}

	return s.issueToken(user)
}

func (s *UserService) issueToken(user *model.User) (*dto.AuthResponse, error) {
	token, err := auth.GenerateToken(s.jwtSecret, auth.Identity{
		UserID: user.ID,
		Name:   user.FullName,
		Email:  user.Email,
		Role:   user.Role,
	}, s.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("no se pudo firmar el token: %w", err)
	}
	return &dto.AuthResponse{Token: token, User: user}, nil
}

func (s *UserService) Get(ctx context.Context, caller auth.Identity) (*model.User, error) {
	if caller.UserID == "" {
		return nil, ErrAuthRequired
	}
	return s.users.FindByID(ctx, caller.UserID)
}

func (s *UserService) UpdateProfile(ctx context.Context, caller auth.Identity, req dto.UpdateProfileRequest) error {
	if caller.UserID == "" {
		return ErrAuthRequired
	}
	return s.users.UpdateProfile(ctx, caller.UserID, model.UserProfile{
		CompanyName:   req.CompanyName,
		Avatar:        req.Avatar,
		Industry:      req.Industry,
		Country:       req.Country,
		City:          req.City,
		EmployeeCount: req.EmployeeCount,
	})
}

func (s *UserService) UpdatePreferences(ctx context.Context, caller auth.Identity, req dto.UpdatePreferencesRequest) error {
	if caller.UserID == "" {
		return ErrAuthRequired
	}
	return s.users.UpdatePreferences(ctx, caller.UserID, model.UserPreferences{
		Categories: req.Categories,
	})
}
