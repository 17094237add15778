package access

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"planbook/internal/core/apperror"
	"planbook/internal/core/principal"
	"planbook/internal/core/tx"
	"planbook/internal/domain/audit"
	"planbook/pkg/logger"
)

// PlanChecker reports whether a sales plan exists. Satisfied by the plan
// repository; declared here to keep the dependency direction one-way.
type PlanChecker interface {
	Exists(ctx context.Context, planID int64) (bool, error)
}

// Service implements the grant and revoke actions: the only writers of
// the access-grant ledger, restricted to admin principals.
type Service struct {
	ledger    Ledger
	plans     PlanChecker
	txManager tx.Manager
	auditor   audit.Recorder
}

// NewService creates the access service.
func NewService(ledger Ledger, plans PlanChecker, txManager tx.Manager, auditor audit.Recorder) *Service {
	return &Service{
		ledger:    ledger,
		plans:     plans,
		txManager: txManager,
		auditor:   auditor,
	}
}

// Policy returns a policy backed by this service's ledger.
func (s *Service) Policy() *Policy {
	return NewPolicy(s.ledger)
}

// Grant upserts (userID, planID) -> level in the ledger.
// Admin only; the target plan must exist.
func (s *Service) Grant(ctx context.Context, userID string, planID int64, level Level) error {
	pr := principal.Current(ctx)
	if err := NewPolicy(s.ledger).AuthorizeGrantChange(pr); err != nil {
		return err
	}

	grant := &Grant{
		UserID:      userID,
		SalesPlanID: planID,
		Level:       level,
		GrantedBy:   pr.ID,
		GrantedAt:   time.Now().UTC(),
	}
	if err := grant.Validate(); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		exists, err := s.plans.Exists(ctx, planID)
		if err != nil {
			return apperror.NewInternal(fmt.Errorf("check plan %d: %w", planID, err))
		}
		if !exists {
			return apperror.NewNotFound("sales plan", planID)
		}
		if err := s.ledger.Upsert(ctx, grant); err != nil {
			return apperror.NewInternal(fmt.Errorf("upsert grant: %w", err))
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.recordAudit(ctx, audit.ActionGrant, planID, grant)
	logger.Info(ctx, "plan access granted",
		"user_id", userID, "plan_id", planID, "level", string(level))
	return nil
}

// Revoke hard-deletes the (userID, planID) ledger entry. Admin only.
// Revoking an absent grant is a no-op, so the call is idempotent.
func (s *Service) Revoke(ctx context.Context, userID string, planID int64) error {
	pr := principal.Current(ctx)
	if err := NewPolicy(s.ledger).AuthorizeGrantChange(pr); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.ledger.Delete(ctx, userID, planID); err != nil {
			return apperror.NewInternal(fmt.Errorf("delete grant: %w", err))
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.recordAudit(ctx, audit.ActionRevoke, planID, map[string]any{
		"userId": userID, "salesPlanId": planID,
	})
	logger.Info(ctx, "plan access revoked", "user_id", userID, "plan_id", planID)
	return nil
}

// ListForUser returns all grants held by a user. Admin only: grant data
// is part of the authorization surface, not general record data.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]Grant, error) {
	pr := principal.Current(ctx)
	if err := NewPolicy(s.ledger).AuthorizeGrantChange(pr); err != nil {
		return nil, err
	}

	grants, err := s.ledger.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("list grants: %w", err))
	}
	return grants, nil
}

func (s *Service) recordAudit(ctx context.Context, action audit.Action, planID int64, payload any) {
	changes, err := json.Marshal(payload)
	if err != nil {
		logger.Warn(ctx, "marshal audit payload failed", "error", err)
		return
	}
	entry := audit.Entry{
		Entity:    "user_plan_access",
		EntityID:  strconv.FormatInt(planID, 10),
		Action:    action,
		Actor:     principal.Current(ctx).ID,
		Changes:   changes,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.auditor.Record(ctx, entry); err != nil {
		logger.Warn(ctx, "record audit entry failed", "error", err)
	}
}
