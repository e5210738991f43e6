package automation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/realtyflow/crm/config"
	"github.com/realtyflow/crm/internal/leads"
	"github.com/realtyflow/crm/internal/models"
	"github.com/realtyflow/crm/internal/properties"
	"github.com/realtyflow/crm/internal/tenants"
	"github.com/realtyflow/crm/pkg/queue"
)

// Service runs workflow automations: reacting to deal stage changes and the
// scheduled maintenance pass (trial expiry, lead follow-up reminders).
type Service struct {
	properties *properties.Repository
	leads      *leads.Repository
	tenants    *tenants.Repository
	queue      *queue.Queue
	cfg        config.AutomationConfig
	logger     *zap.Logger
}

// NewService creates an automation service.
func NewService(
	propertyRepo *properties.Repository,
	leadRepo *leads.Repository,
	tenantRepo *tenants.Repository,
	q *queue.Queue,
	cfg config.AutomationConfig,
	logger *zap.Logger,
) *Service {
	return &Service{
		properties: propertyRepo,
		leads:      leadRepo,
		tenants:    tenantRepo,
		queue:      q,
		cfg:        cfg,
		logger:     logger,
	}
}

// ProcessStageChange reacts to a deal landing on a new stage. Moving a deal
// into a token stage puts the linked property on hold and notifies the
// tenant's owners. Failures are logged; the board move has already committed.
func (s *Service) ProcessStageChange(ctx context.Context, deal *models.Deal, stage *models.Stage) {
	if !strings.Contains(strings.ToLower(stage.Name), "token") {
		return
	}
	if deal.PropertyID == nil {
		return
	}
	ok, err := s.properties.UpdateStatus(ctx, deal.TenantID, *deal.PropertyID, models.PropertyHold)
	if err != nil {
		s.logger.Error("failed to hold property on token stage",
			zap.String("deal_id", deal.ID.String()),
			zap.String("property_id", deal.PropertyID.String()),
			zap.Error(err))
		return
	}
	if !ok {
		s.logger.Warn("deal references missing property",
			zap.String("deal_id", deal.ID.String()),
			zap.String("property_id", deal.PropertyID.String()))
		return
	}
	s.logger.Info("property placed on hold",
		zap.String("deal_id", deal.ID.String()),
		zap.String("property_id", deal.PropertyID.String()))

	s.notifyOwners(ctx, deal.TenantID, "token_received",
		"Token received: "+deal.Title,
		fmt.Sprintf("<p>Deal <strong>%s</strong> moved to the %s stage. The linked property has been placed on hold.</p>",
			deal.Title, stage.Name))
}

// Run executes the scheduled maintenance pass once: expires overdue trials
// and enqueues follow-up reminders for stale leads.
func (s *Service) Run(ctx context.Context) error {
	now := time.Now()
	if err := s.expireTrials(ctx, now); err != nil {
		return err
	}
	return s.remindStaleLeads(ctx, now)
}

func (s *Service) expireTrials(ctx context.Context, now time.Time) error {
	cutoff := now.AddDate(0, 0, -s.cfg.TrialDays)
	expired, err := s.tenants.ExpireTrialsOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("expire trials: %w", err)
	}
	for _, t := range expired {
		s.logger.Info("trial expired", zap.String("tenant_id", t.ID.String()), zap.String("tenant", t.Name))
		s.notifyOwners(ctx, t.ID, "trial_expiry",
			"Your trial has ended",
			fmt.Sprintf("<p>The trial for <strong>%s</strong> has ended. Upgrade to keep your workspace active.</p>", t.Name))
	}
	return nil
}

func (s *Service) remindStaleLeads(ctx context.Context, now time.Time) error {
	cutoff := now.AddDate(0, 0, -s.cfg.FollowUpAfterDays)
	stale, err := s.leads.ListStaleByTenant(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("list stale leads: %w", err)
	}
	for tenantID, list := range stale {
		var b strings.Builder
		fmt.Fprintf(&b, "<p>%d lead(s) have had no activity for %d days:</p><ul>", len(list), s.cfg.FollowUpAfterDays)
		for _, l := range list {
			fmt.Fprintf(&b, "<li>%s %s (%s)</li>", l.FirstName, l.LastName, l.Status)
		}
		b.WriteString("</ul>")
		s.notifyOwners(ctx, tenantID, "lead_followup",
			fmt.Sprintf("%d leads need a follow-up", len(list)), b.String())
	}
	return nil
}

func (s *Service) notifyOwners(ctx context.Context, tenantID uuid.UUID, kind, subject, html string) {
	emails, err := s.tenants.OwnerEmails(ctx, tenantID)
	if err != nil {
		s.logger.Error("failed to load owner emails", zap.String("tenant_id", tenantID.String()), zap.Error(err))
		return
	}
	for _, addr := range emails {
		err := s.queue.EnqueueEmail(ctx, queue.EmailPayload{
			TenantID: tenantID,
			Kind:     kind,
			To:       addr,
			Subject:  subject,
			BodyHTML: html,
		})
		if err != nil {
			s.logger.Error("failed to enqueue notification",
				zap.String("tenant_id", tenantID.String()), zap.String("kind", kind), zap.Error(err))
		}
	}
}
