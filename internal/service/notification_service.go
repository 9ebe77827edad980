package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/support-workbench/internal/config"
	"github.com/spec-kit/support-workbench/internal/events"
)

// NotificationService relays domain events to the ticket system. Phase
// changes carry a ticket patch so the ticket record tracks the workflow.
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
	n.dispatcher.Subscribe(events.EventPhaseChanged, n.handlePhaseChanged)
	n.dispatcher.Subscribe(events.EventVerificationOverride, n.handleOverride)
	n.dispatcher.Subscribe(events.EventEscalationRaised, n.handleEscalation)
	n.dispatcher.Subscribe(events.EventWorkflowClosed, n.handleClosed)
	n.dispatcher.Subscribe(events.EventTimeSessionCompleted, n.handleTimeSessionCompleted)
}

func (n *NotificationService) handlePhaseChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("WorkflowPhaseChanged", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleOverride(ctx context.Context, event events.Event) error {
	n.logger.Warn("VerificationOverridden", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleEscalation(ctx context.Context, event events.Event) error {
	n.logger.Info("EscalationRaised", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleClosed(ctx context.Context, event events.Event) error {
	n.logger.Info("WorkflowClosed", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleTimeSessionCompleted(ctx context.Context, event events.Event) error {
	n.logger.Info("TimeSessionCompleted", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)))
}
