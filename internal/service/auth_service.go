package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"lensfolio/api/internal/config"
	"lensfolio/api/internal/ids"
	"lensfolio/api/internal/models"
	"lensfolio/api/internal/repository"
	"lensfolio/api/internal/security"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrRegistrationClosed = errors.New("admin registration disabled")
)

type AuthService struct {
	admins *repository.AdminRepository
	cfg    *config.AppConfig
	log    zerolog.Logger
}

func NewAuthService(admins *repository.AdminRepository, cfg *config.AppConfig, log zerolog.Logger) *AuthService {
	return &AuthService{
		admins: admins,
		cfg:    cfg,
		log:    log,
	}
}

type LoginResult struct {
	Token string
	Admin models.Admin
}

func (s *AuthService) Login(ctx context.Context, username, password string) (LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}

	admin, err := s.admins.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrAdminNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	ok, err := security.VerifyPassword(password, admin.PasswordHash)
	if err != nil || !ok {
		return LoginResult{}, ErrInvalidCredentials
	}

	if err := s.admins.TouchLogin(ctx, admin.ID); err != nil {
		s.log.Warn().Err(err).Str("admin_id", admin.ID).Msg("touch last login failed")
	}

	token, err := security.GenerateAdminToken(
		s.cfg.Security.JWTSecret,
		admin.ID,
		admin.Username,
		string(admin.Role),
		s.cfg.Security.JWTTTL,
	)
	if err != nil {
		return LoginResult{}, err
	}

	return LoginResult{Token: token, Admin: admin}, nil
}

// Register creates the first admin only; once one exists the endpoint is
// closed and further accounts come from the superadmin out of band.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (models.Admin, error) {
	count, err := s.admins.Count(ctx)
	if err != nil {
		return models.Admin{}, err
	}
	if count > 0 {
		return models.Admin{}, ErrRegistrationClosed
	}

	username = strings.TrimSpace(username)
	email = strings.TrimSpace(strings.ToLower(email))
	if username == "" || email == "" || len(password) < 8 {
		return models.Admin{}, fmt.Errorf("username, email and a password of at least 8 characters are required")
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return models.Admin{}, err
	}

	admin := models.Admin{
		ID:           ids.New(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         models.AdminRoleSuperAdmin,
	}

	if err := s.admins.Create(ctx, admin); err != nil {
		return models.Admin{}, err
	}
	return admin, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, adminID, current, next string) error {
	admin, err := s.admins.GetByID(ctx, adminID)
	if err != nil {
		return err
	}

	ok, err := security.VerifyPassword(current, admin.PasswordHash)
	if err != nil || !ok {
		return ErrInvalidCredentials
	}

	if len(next) < 8 {
		return fmt.Errorf("new password must be at least 8 characters")
	}

	hash, err := security.HashPassword(next)
	if err != nil {
		return err
	}
	return s.admins.UpdatePassword(ctx, adminID, hash)
}
