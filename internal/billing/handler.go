package billing

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"

	"github.com/realtyflow/crm/config"
	"github.com/realtyflow/crm/internal/models"
	"github.com/realtyflow/crm/internal/tenancy"
	"github.com/realtyflow/crm/internal/tenants"
	"github.com/realtyflow/crm/pkg/response"
)

const maxWebhookBody = 64 * 1024

// Handler handles checkout and payment-provider webhooks. Webhook routes are
// mounted outside the JWT middleware; they authenticate via provider
// signatures instead.
type Handler struct {
	tenants     *tenants.Repository
	stripeCfg   config.StripeConfig
	razorpayCfg config.RazorpayConfig
	frontendURL string
	logger      *zap.Logger
}

// NewHandler creates a billing handler and sets the Stripe API key.
func NewHandler(repo *tenants.Repository, cfg *config.Config, logger *zap.Logger) *Handler {
	stripe.Key = cfg.Stripe.SecretKey
	return &Handler{
		tenants:     repo,
		stripeCfg:   cfg.Stripe,
		razorpayCfg: cfg.Razorpay,
		frontendURL: cfg.Server.FrontendURL,
		logger:      logger,
	}
}

// CreateCheckoutSession handles POST /billing/checkout. Starts a Stripe
// subscription checkout for the current tenant.
func (h *Handler) CreateCheckoutSession(c *gin.Context) {
	t := tenancy.MustTenant(c)
	if h.stripeCfg.SecretKey == "" || h.stripeCfg.PremiumPriceID == "" {
		response.Internal(c, "billing is not configured")
		return
	}
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(h.stripeCfg.PremiumPriceID),
				Quantity: stripe.Int64(1),
			},
		},
		ClientReferenceID: stripe.String(t.ID.String()),
		SuccessURL:        stripe.String(h.frontendURL + "/settings/billing?status=success"),
		CancelURL:         stripe.String(h.frontendURL + "/settings/billing?status=cancelled"),
	}
	s, err := session.New(params)
	if err != nil {
		h.logger.Error("stripe checkout session failed", zap.String("tenant_id", t.ID.String()), zap.Error(err))
		response.Internal(c, "failed to start checkout")
		return
	}
	response.OK(c, gin.H{"checkout_url": s.URL})
}

// StripeWebhook handles POST /webhooks/stripe.
func (h *Handler) StripeWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		response.BadRequest(c, "failed to read body")
		return
	}
	event, err := webhook.ConstructEvent(body, c.GetHeader("Stripe-Signature"), h.stripeCfg.WebhookSecret)
	if err != nil {
		h.logger.Warn("stripe webhook signature rejected", zap.Error(err))
		response.BadRequest(c, "invalid signature")
		return
	}

	switch event.Type {
	case "checkout.session.completed":
		var s stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
			response.BadRequest(c, "malformed event")
			return
		}
		h.activateFromCheckout(c, &s)
	case "invoice.payment_succeeded":
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			response.BadRequest(c, "malformed event")
			return
		}
		if inv.Subscription != nil {
			h.setStatusBySubscription(c, inv.Subscription.ID, models.TenantActive)
		}
	case "invoice.payment_failed":
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			response.BadRequest(c, "malformed event")
			return
		}
		if inv.Subscription != nil {
			h.setStatusBySubscription(c, inv.Subscription.ID, models.TenantSuspended)
		}
	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			response.BadRequest(c, "malformed event")
			return
		}
		h.setStatusBySubscription(c, sub.ID, models.TenantSuspended)
	default:
		h.logger.Debug("stripe event ignored", zap.String("type", string(event.Type)))
	}
	if c.IsAborted() || c.Writer.Written() {
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (h *Handler) activateFromCheckout(c *gin.Context, s *stripe.CheckoutSession) {
	t, err := h.tenantByReference(c, s.ClientReferenceID)
	if err != nil || t == nil {
		return
	}
	var subID *string
	if s.Subscription != nil {
		subID = &s.Subscription.ID
	}
	if err := h.tenants.UpdateStatus(c.Request.Context(), t.ID, models.TenantActive, subID); err != nil {
		h.logger.Error("failed to activate tenant", zap.String("tenant_id", t.ID.String()), zap.Error(err))
		response.Internal(c, "failed to update tenant")
		return
	}
	h.logger.Info("tenant activated via stripe checkout", zap.String("tenant_id", t.ID.String()))
}

func (h *Handler) setStatusBySubscription(c *gin.Context, subscriptionID string, status models.TenantStatus) {
	t, err := h.tenants.GetBySubscriptionID(c.Request.Context(), subscriptionID)
	if err != nil {
		h.logger.Error("failed to look up subscription", zap.String("subscription_id", subscriptionID), zap.Error(err))
		response.Internal(c, "failed to update tenant")
		return
	}
	if t == nil {
		// Unknown subscription; acknowledge so the provider stops retrying.
		h.logger.Warn("webhook for unknown subscription", zap.String("subscription_id", subscriptionID))
		return
	}
	if err := h.tenants.UpdateStatus(c.Request.Context(), t.ID, status, nil); err != nil {
		h.logger.Error("failed to update tenant status", zap.String("tenant_id", t.ID.String()), zap.Error(err))
		response.Internal(c, "failed to update tenant")
		return
	}
	h.logger.Info("tenant status updated from webhook",
		zap.String("tenant_id", t.ID.String()), zap.String("status", string(status)))
}

// tenantByReference resolves the tenant ID a provider echoed back to us.
// Unknown or malformed references are acknowledged without changes so the
// provider stops retrying.
func (h *Handler) tenantByReference(c *gin.Context, ref string) (*models.Tenant, error) {
	id, err := uuid.Parse(ref)
	if err != nil {
		h.logger.Warn("webhook with malformed tenant reference", zap.String("reference", ref))
		return nil, nil
	}
	t, err := h.tenants.GetByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("failed to look up tenant", zap.String("tenant_id", id.String()), zap.Error(err))
		response.Internal(c, "failed to update tenant")
		return nil, err
	}
	if t == nil {
		h.logger.Warn("webhook for unknown tenant", zap.String("tenant_id", id.String()))
	}
	return t, nil
}

// razorpayEvent mirrors the fields we read from Razorpay webhook payloads.
type razorpayEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID    string            `json:"id"`
				Notes map[string]string `json:"notes"`
			} `json:"entity"`
		} `json:"payment"`
		Subscription struct {
			Entity struct {
				ID string `json:"id"`
			} `json:"entity"`
		} `json:"subscription"`
	} `json:"payload"`
}

// RazorpayWebhook handles POST /webhooks/razorpay.
func (h *Handler) RazorpayWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		response.BadRequest(c, "failed to read body")
		return
	}
	if !VerifyRazorpaySignature(body, c.GetHeader("X-Razorpay-Signature"), h.razorpayCfg.WebhookSecret) {
		h.logger.Warn("razorpay webhook signature rejected")
		response.BadRequest(c, "invalid signature")
		return
	}
	var event razorpayEvent
	if err := json.Unmarshal(body, &event); err != nil {
		response.BadRequest(c, "malformed event")
		return
	}

	switch event.Event {
	case "payment.captured":
		t, err := h.tenantByReference(c, event.Payload.Payment.Entity.Notes["tenant_id"])
		if err != nil || t == nil {
			return
		}
		subID := event.Payload.Payment.Entity.ID
		if err := h.tenants.UpdateStatus(c.Request.Context(), t.ID, models.TenantActive, &subID); err != nil {
			h.logger.Error("failed to activate tenant", zap.String("tenant_id", t.ID.String()), zap.Error(err))
			response.Internal(c, "failed to update tenant")
			return
		}
		h.logger.Info("tenant activated via razorpay", zap.String("tenant_id", t.ID.String()))
	case "subscription.cancelled":
		h.setStatusBySubscription(c, event.Payload.Subscription.Entity.ID, models.TenantSuspended)
	default:
		h.logger.Debug("razorpay event ignored", zap.String("event", event.Event))
	}
	if c.IsAborted() || c.Writer.Written() {
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
