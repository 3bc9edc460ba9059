package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopzen/storefront/internal/domain"
	"github.com/shopzen/storefront/internal/identity"
	"github.com/shopzen/storefront/internal/mailer"
	"github.com/shopzen/storefront/internal/repository"
	"github.com/shopzen/storefront/pkg/events"
	"github.com/shopzen/storefront/pkg/logger"
)

// LinkingService reconciles a verified third-party identity with the local
// user store. A verified identity without a mobile number never produces a
// session outcome; it produces a pending challenge instead.
type LinkingService interface {
	BeginThirdPartyLogin(ctx context.Context, credential string) (domain.LoginOutcome, error)
	CompleteRegistration(ctx context.Context, pendingToken, mobile string) (domain.LoginOutcome, error)
}

type linkingService struct {
	userRepo    repository.UserRepository
	pendingRepo repository.PendingRepository
	verifier    identity.Verifier
	mailer      mailer.Service
	eventBus    events.Publisher
}

func NewLinkingService(
	userRepo repository.UserRepository,
	pendingRepo repository.PendingRepository,
	verifier identity.Verifier,
	mailer mailer.Service,
	eventBus events.Publisher,
) LinkingService {
	return &linkingService{
		userRepo:    userRepo,
		pendingRepo: pendingRepo,
		verifier:    verifier,
		mailer:      mailer,
		eventBus:    eventBus,
	}
}

func (s *linkingService) BeginThirdPartyLogin(ctx context.Context, credential string) (domain.LoginOutcome, error) {
	ident, err := s.verifier.Verify(ctx, credential)
	if err != nil {
		return domain.LoginOutcome{}, err
	}

	user, err := s.resolveUser(ctx, ident)
	if err != nil {
		return domain.LoginOutcome{}, err
	}

	if user != nil && user.IsComplete() {
		return domain.LoggedIn(user), nil
	}

	// Known identity without a mobile number, or a brand new one: park the
	// verified claims and challenge for the missing attribute.
	pending := &domain.PendingRegistration{
		Token:      uuid.NewString(),
		ExternalID: ident.ExternalID,
		Email:      ident.Email,
		Name:       ident.Name,
	}
	if err := s.pendingRepo.Create(ctx, pending); err != nil {
		return domain.LoginOutcome{}, fmt.Errorf("failed to create pending registration: %w", err)
	}

	logger.InfoContext(ctx, "Third-party login pending mobile",
		"external_id", ident.ExternalID,
	)

	return domain.RequireMobile(pending.Token), nil
}

func (s *linkingService) CompleteRegistration(ctx context.Context, pendingToken, mobile string) (domain.LoginOutcome, error) {
	normalized, err := domain.NormalizeMobile(mobile)
	if err != nil {
		return domain.LoginOutcome{}, err
	}

	// The consume is the atomic gate: of two concurrent completions only one
	// proceeds past this point.
	pending, err := s.pendingRepo.Consume(ctx, pendingToken)
	if err != nil {
		return domain.LoginOutcome{}, err
	}

	user, err := s.userRepo.FindByGoogleID(ctx, pending.ExternalID)
	if err != nil {
		return domain.LoginOutcome{}, fmt.Errorf("failed to find linked user: %w", err)
	}

	if user == nil && pending.Email != "" {
		user, err = s.userRepo.FindByEmail(ctx, pending.Email)
		if err != nil {
			return domain.LoginOutcome{}, fmt.Errorf("failed to find user by email: %w", err)
		}
		if user != nil && user.GoogleID == "" {
			if err := s.userRepo.AttachGoogleID(ctx, user.ID, pending.ExternalID); err != nil {
				return domain.LoginOutcome{}, fmt.Errorf("failed to link identity: %w", err)
			}
			user.GoogleID = pending.ExternalID
		}
	}

	if user != nil {
		if user.Mobile == "" {
			if taken, err := s.userRepo.FindByMobile(ctx, normalized); err != nil {
				return domain.LoginOutcome{}, fmt.Errorf("failed to check mobile: %w", err)
			} else if taken != nil && taken.ID != user.ID {
				return domain.LoginOutcome{}, domain.ErrMobileTaken
			}
			user, err = s.userRepo.AttachMobile(ctx, user.ID, normalized)
			if err != nil {
				return domain.LoginOutcome{}, fmt.Errorf("failed to attach mobile: %w", err)
			}
		}
		return domain.LoggedIn(user), nil
	}

	if taken, err := s.userRepo.FindByMobile(ctx, normalized); err != nil {
		return domain.LoginOutcome{}, fmt.Errorf("failed to check mobile: %w", err)
	} else if taken != nil {
		return domain.LoginOutcome{}, domain.ErrMobileTaken
	}

	user, err = s.userRepo.Create(ctx, &domain.User{
		Role:     domain.RoleCustomer,
		Name:     pending.Name,
		Mobile:   normalized,
		Email:    pending.Email,
		GoogleID: pending.ExternalID,
	})
	if err != nil {
		return domain.LoginOutcome{}, fmt.Errorf("failed to create user: %w", err)
	}

	s.announce(ctx, user)

	return domain.LoggedIn(user), nil
}

// resolveUser finds the local account for a verified identity, linking the
// external id onto an email-matched account on the way.
func (s *linkingService) resolveUser(ctx context.Context, ident *domain.ExternalIdentity) (*domain.User, error) {
	user, err := s.userRepo.FindByGoogleID(ctx, ident.ExternalID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by external id: %w", err)
	}
	if user != nil {
		return user, nil
	}

	if ident.Email == "" {
		return nil, nil
	}

	user, err = s.userRepo.FindByEmail(ctx, ident.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if user == nil {
		return nil, nil
	}

	if user.GoogleID == "" {
		if err := s.userRepo.AttachGoogleID(ctx, user.ID, ident.ExternalID); err != nil {
			return nil, fmt.Errorf("failed to link identity: %w", err)
		}
		user.GoogleID = ident.ExternalID
	}
	return user, nil
}

func (s *linkingService) announce(ctx context.Context, user *domain.User) {
	event := events.UserRegisteredEvent{
		UserID:    user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Mobile:    user.Mobile,
		ViaGoogle: true,
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
