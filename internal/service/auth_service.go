package service

import (
	"context"
	"fmt"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/shopzen/storefront/internal/domain"
	"github.com/shopzen/storefront/internal/mailer"
	"github.com/shopzen/storefront/internal/repository"
	"github.com/shopzen/storefront/pkg/events"
	"github.com/shopzen/storefront/pkg/logger"
)

type AuthService interface {
	Register(ctx context.Context, req *domain.RegisterRequest) (*domain.User, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.User, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]domain.User, error)
	UpdateUserRole(ctx context.Context, userID int64, role string) error
}

type authService struct {
	userRepo repository.UserRepository
	mailer   mailer.Service
	eventBus events.Publisher
}

func NewAuthService(
	userRepo repository.UserRepository,
	mailer mailer.Service,
	eventBus events.Publisher,
) AuthService {
	return &authService{
		userRepo: userRepo,
		mailer:   mailer,
		eventBus: eventBus,
	}
}

func (s *authService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.User, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	mobile, err := domain.NormalizeMobile(req.Mobile)
	if err != nil {
		return nil, err
	}

	if existing, err := s.userRepo.FindByMobile(ctx, mobile); err != nil {
		return nil, fmt.Errorf("failed to check existing mobile: %w", err)
	} else if existing != nil {
		return nil, domain.ErrMobileTaken
	}

	if req.Email != "" {
		if existing, err := s.userRepo.FindByEmail(ctx, req.Email); err != nil {
			return nil, fmt.Errorf("failed to check existing email: %w", err)
		} else if existing != nil {
			return nil, domain.ErrEmailTaken
		}
	}

	passwordHash, err := argon2id.CreateHash(req.Password, argon2id.DefaultParams)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.userRepo.Create(ctx, &domain.User{
		Role:         domain.RoleCustomer,
		Name:         req.Name,
		Mobile:       mobile,
		Email:        req.Email,
		PasswordHash: passwordHash,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.announceRegistration(ctx, user, false)

	return user, nil
}

func (s *authService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.User, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	var (
		user *domain.User
		err  error
	)
	if req.Mobile != "" {
		mobile, normErr := domain.NormalizeMobile(req.Mobile)
		if normErr != nil {
			return nil, domain.ErrInvalidCredentials
		}
		user, err = s.userRepo.FindByMobile(ctx, mobile)
	} else {
		user, err = s.userRepo.FindByEmail(ctx, req.Email)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrInvalidCredentials
	}

	// Google-only accounts carry no local credential.
	if user.PasswordHash == "" {
		return nil, domain.ErrInvalidCredentials
	}

	valid, err := argon2id.ComparePasswordAndHash(req.Password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !valid {
		return nil, domain.ErrInvalidCredentials
	}

	return user, nil
}

func (s *authService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

func (s *authService) ListUsers(ctx context.Context, limit, offset int) ([]domain.User, error) {
	users, err := s.userRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *authService) UpdateUserRole(ctx context.Context, userID int64, role string) error {
	if !domain.IsValidRole(role) {
		return fmt.Errorf("invalid role: %s", role)
	}

	if err := s.userRepo.UpdateRole(ctx, userID, role); err != nil {
		return fmt.Errorf("failed to update user role: %w", err)
	}
	return nil
}

func (s *authService) announceRegistration(ctx context.Context, user *domain.User, viaGoogle bool) {
	event := events.UserRegisteredEvent{
		UserID:       user.ID,
		Name:         user.Name,
		Email:        user.Email,
		Mobile:       user.Mobile,
		ViaGoogle:    viaGoogle,
		RegisteredAt: time.Now(),
	}
	if err := s.eventBus.Publish(ctx, events.UserRegistered, event); err != nil {
		logger.WarnContext(ctx, "Failed to publish registration event", "error", err, "user_id", user.ID)
	}

	if user.Email != "" {
		if err := s.mailer.SendWelcomeEmail(user.Email, user.Name); err != nil {
			logger.WarnContext(ctx, "Failed to send welcome email", "error", err, "user_id", user.ID)
		}
	}
}
