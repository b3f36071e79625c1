package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/phone-auth/internal/config"
	"github.com/spec-kit/phone-auth/internal/domain"
	"github.com/spec-kit/phone-auth/internal/events"
	"github.com/spec-kit/phone-auth/internal/ratelimit"
	"github.com/spec-kit/phone-auth/internal/repository"
	"github.com/spec-kit/phone-auth/internal/verify"
	apperrors "github.com/spec-kit/phone-auth/pkg/util"
)

// ChallengeGateway abstracts the external OTP verification provider.
type ChallengeGateway interface {
	Start(ctx context.Context, phone string) (verify.Outcome, error)
	Check(ctx context.Context, phone, code string) (verify.Outcome, error)
}

// AccountStore abstracts the external auth account admin API.
type AccountStore interface {
	CreateUser(ctx context.Context, phone, name string) (string, error)
	DeleteUser(ctx context.Context, id string) error
}

// ChallengeRecorder receives challenge counters; satisfied by observability.Metrics.
type ChallengeRecorder interface {
	RecordChallenge(kind, status string)
}

// AuthFlowService coordinates the signup and signin verification workflows.
type AuthFlowService struct {
	gateway    ChallengeGateway
	accounts   AccountStore
	profiles   repository.ProfileRepository
	limiter    ratelimit.Limiter
	limits     config.RateLimitConfig
	dispatcher events.Dispatcher
	metrics    ChallengeRecorder
	logger     *zap.Logger
}

// AuthFlowDependencies encapsulates collaborator requirements for the service.
type AuthFlowDependencies struct {
	Gateway     ChallengeGateway
	Accounts    AccountStore
	ProfileRepo repository.ProfileRepository
	Limiter     ratelimit.Limiter
	Dispatcher  events.Dispatcher
	Metrics     ChallengeRecorder
	Logger      *zap.Logger
}

// NewAuthFlowService builds the service.
func NewAuthFlowService(cfg config.RateLimitConfig, deps AuthFlowDependencies) *AuthFlowService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthFlowService{
		gateway:    deps.Gateway,
		accounts:   deps.Accounts,
		profiles:   deps.ProfileRepo,
		limiter:    deps.Limiter,
		limits:     cfg,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
	}
}

// StartSignup sends the signup challenge for the phone number. The pending
// signup state itself lives in the caller's session.
func (s *AuthFlowService) StartSignup(ctx context.Context, name, phone string) error {
	return s.sendChallenge(ctx, phone, events.FlowSignup)
}

// StartSignin sends the signin challenge for the phone number.
func (s *AuthFlowService) StartSignin(ctx context.Context, phone string) error {
	return s.sendChallenge(ctx, phone, events.FlowSignin)
}

func (s *AuthFlowService) sendChallenge(ctx context.Context, phone string, flow events.Flow) error {
	if err := s.allow(ctx, ratelimit.SendKey(phone), s.limits.MaxSends, "too many verification codes requested"); err != nil {
		return err
	}

	outcome, err := s.gateway.Start(ctx, phone)
	if err != nil {
		s.record("send", "error")
		return apperrors.NewDeliveryError(err)
	}
	if !outcome.Accepted() {
		s.record("send", outcome.Status)
		s.logger.Error("challenge send rejected",
			zap.String("phone", phone),
			zap.String("status", outcome.Status),
			zap.Any("provider_response", outcome.Raw))
		return apperrors.NewDeliveryError(nil)
	}

	s.record("send", outcome.Status)
	s.publish(ctx, events.EventChallengeSent, flow, events.ChallengePayload{Phone: phone, Status: outcome.Status})
	return nil
}

// CompleteSignup verifies the code, provisions a new account and its profile
// record, and returns the resulting identity.
func (s *AuthFlowService) CompleteSignup(ctx context.Context, name, phone, code string) (*domain.Profile, error) {
	if err := s.checkChallenge(ctx, phone, code, events.FlowSignup); err != nil {
		return nil, err
	}

	accountID, err := s.accounts.CreateUser(ctx, phone, name)
	if err != nil {
		s.logger.Error("account creation failed", zap.String("phone", phone), zap.Error(err))
		return nil, apperrors.NewInternalError(err)
	}

	profile := &domain.Profile{ID: accountID, Name: name, Phone: phone}
	if err := s.profiles.Create(ctx, profile); err != nil {
		s.logger.Error("profile insert failed", zap.String("account_id", accountID), zap.Error(err))
		// Compensating delete so a profileless account is not left behind.
		if delErr := s.accounts.DeleteUser(ctx, accountID); delErr != nil {
			s.logger.Error("account rollback failed", zap.String("account_id", accountID), zap.Error(delErr))
		}
		return nil, apperrors.NewInternalError(err)
	}

	s.publish(ctx, events.EventSignupCompleted, events.FlowSignup,
		events.AuthenticatedPayload{ProfileID: profile.ID, Phone: profile.Phone})
	return profile, nil
}

// CompleteSignin verifies the code and resolves the existing profile by phone.
func (s *AuthFlowService) CompleteSignin(ctx context.Context, phone, code string) (*domain.Profile, error) {
	if err := s.checkChallenge(ctx, phone, code, events.FlowSignin); err != nil {
		return nil, err
	}

	profile, err := s.profiles.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("account", map[string]any{"phone": phone})
		}
		return nil, apperrors.NewInternalError(err)
	}

	s.publish(ctx, events.EventSigninCompleted, events.FlowSignin,
		events.AuthenticatedPayload{ProfileID: profile.ID, Phone: profile.Phone})
	return profile, nil
}

// SignOut records the sign-out; the session itself is cleared by the caller.
func (s *AuthFlowService) SignOut(ctx context.Context, profileID string) {
	s.publish(ctx, events.EventSignedOut, "", events.SignedOutPayload{ProfileID: profileID})
}

func (s *AuthFlowService) checkChallenge(ctx context.Context, phone, code string, flow events.Flow) error {
	if err := s.allow(ctx, ratelimit.CheckKey(phone), s.limits.MaxChecks, "too many verification attempts"); err != nil {
		return err
	}

	outcome, err := s.gateway.Check(ctx, phone, code)
	if err != nil {
		s.record("check", "error")
		return apperrors.NewInternalError(err)
	}

	s.record("check", outcome.Status)
	if !outcome.Approved() {
		s.logger.Info("challenge check rejected",
			zap.String("phone", phone),
			zap.String("status", outcome.Status),
			zap.Any("provider_response", outcome.Raw))
		s.publish(ctx, events.EventChallengeFailed, flow,
			events.ChallengePayload{Phone: phone, Status: outcome.Status})
		return apperrors.NewVerificationFailed()
	}
	return nil
}

// allow consults the limiter. A limiter transport failure fails open: a broken
// Redis must not lock every visitor out of authentication.
func (s *AuthFlowService) allow(ctx context.Context, key string, limit int, message string) error {
	if s.limiter == nil || limit <= 0 {
		return nil
	}
	ok, err := s.limiter.Allow(ctx, key, limit)
	if err != nil {
		s.logger.Warn("rate limiter unavailable", zap.String("key", key), zap.Error(err))
		return nil
	}
	if !ok {
		return apperrors.NewRateLimited(message)
	}
	return nil
}

func (s *AuthFlowService) publish(ctx context.Context, eventType events.EventType, flow events.Flow, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Flow:      flow,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}

func (s *AuthFlowService) record(kind, status string) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordChallenge(kind, status)
}
