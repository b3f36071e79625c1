package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/phone-auth/internal/config"
	"github.com/spec-kit/phone-auth/internal/events"
)

// NotificationService handles emitting notifications for auth workflow events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventChallengeSent, n.handleChallengeSent)
	n.dispatcher.Subscribe(events.EventChallengeFailed, n.handleChallengeFailed)
	n.dispatcher.Subscribe(events.EventSignupCompleted, n.handleSignupCompleted)
	n.dispatcher.Subscribe(events.EventSigninCompleted, n.handleSigninCompleted)
	n.dispatcher.Subscribe(events.EventSignedOut, n.handleSignedOut)
}

func (n *NotificationService) handleChallengeSent(ctx context.Context, event events.Event) error {
	n.logger.Info("ChallengeSent", zap.String("flow", string(event.Flow)), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleChallengeFailed(ctx context.Context, event events.Event) error {
	n.logger.Info("ChallengeFailed", zap.String("flow", string(event.Flow)), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleSignupCompleted(ctx context.Context, event events.Event) error {
	n.logger.Info("SignupCompleted", zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleSigninCompleted(ctx context.Context, event events.Event) error {
	n.logger.Info("SigninCompleted", zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleSignedOut(ctx context.Context, event events.Event) error {
	n.logger.Info("SignedOut", zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("event_type", string(event.Type)))
}
