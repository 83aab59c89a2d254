package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

// TierUpdater applies subscription tier changes to user accounts.
// Implemented by the user service and wired at assembly time.
type TierUpdater interface {
	UpdateTierByStripeCustomer(ctx context.Context, customerID string, tier Tier) error
	UpdateTier(ctx context.Context, userID uuid.UUID, tier Tier) error
}

// WebhookHandler handles Stripe webhook events that change a user's tier.
type WebhookHandler struct {
	repo          Repository
	tiers         TierUpdater
	webhookSecret string
	logger        *zap.Logger
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(repo Repository, tiers TierUpdater, webhookSecret string, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		repo:          repo,
		tiers:         tiers,
		webhookSecret: webhookSecret,
		logger:        logger,
	}
}

// RegisterRoutes registers the webhook routes.
func (h *WebhookHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/stripe", h.HandleStripeWebhook)
}

// HandleStripeWebhook verifies and processes incoming Stripe events.
func (h *WebhookHandler) HandleStripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.logger.Error("failed to read webhook body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	event, err := webhook.ConstructEvent(payload, signature, h.webhookSecret)
	if err != nil {
		h.logger.Warn("invalid webhook signature", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		return
	}

	ctx := c.Request.Context()

	var processErr error
	switch event.Type {
	case "customer.subscription.created", "customer.subscription.updated":
		processErr = h.handleSubscriptionChanged(ctx, &event)
	case "customer.subscription.deleted":
		processErr = h.handleSubscriptionDeleted(ctx, &event)
	default:
		h.logger.Debug("unhandled webhook event type", zap.String("type", string(event.Type)))
	}

	if processErr != nil {
		h.logger.Error("failed to process webhook event",
			zap.String("event_id", event.ID),
			zap.String("type", string(event.Type)),
			zap.Error(processErr),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "processed"})
}

func (h *WebhookHandler) handleSubscriptionChanged(ctx context.Context, event *stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("unmarshal subscription: %w", err)
	}

	// Lapsed or unpaid subscriptions drop the account back to the free tier.
	switch sub.Status {
	case stripe.SubscriptionStatusCanceled, stripe.SubscriptionStatusUnpaid,
		stripe.SubscriptionStatusIncompleteExpired:
		h.logger.Info("subscription lapsed",
			zap.String("subscription_id", sub.ID),
			zap.String("status", string(sub.Status)),
		)
		return h.tiers.UpdateTierByStripeCustomer(ctx, sub.Customer.ID, TierFree)
	}

	tier, err := h.tierForSubscription(ctx, &sub)
	if err != nil {
		return err
	}

	h.logger.Info("subscription tier change",
		zap.String("subscription_id", sub.ID),
		zap.String("customer_id", sub.Customer.ID),
		zap.String("tier", string(tier)),
	)

	return h.tiers.UpdateTierByStripeCustomer(ctx, sub.Customer.ID, tier)
}

func (h *WebhookHandler) handleSubscriptionDeleted(ctx context.Context, event *stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("unmarshal subscription: %w", err)
	}

	h.logger.Info("subscription deleted",
		zap.String("subscription_id", sub.ID),
		zap.String("customer_id", sub.Customer.ID),
	)

	return h.tiers.UpdateTierByStripeCustomer(ctx, sub.Customer.ID, TierFree)
}

func (h *WebhookHandler) tierForSubscription(ctx context.Context, sub *stripe.Subscription) (Tier, error) {
	if len(sub.Items.Data) == 0 || sub.Items.Data[0].Price == nil {
		return "", fmt.Errorf("subscription %s has no price: %w", sub.ID, ErrUnknownPrice)
	}

	priceID := sub.Items.Data[0].Price.ID
	plan, err := h.repo.GetPlanByStripePrice(ctx, priceID)
	if err != nil {
		return "", fmt.Errorf("resolve tier for price %s: %w", priceID, err)
	}
	return plan.Tier, nil
}
