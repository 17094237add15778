package plan

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"planbook/internal/core/apperror"
	"planbook/internal/core/principal"
	"planbook/internal/core/tx"
	"planbook/internal/domain"
	"planbook/internal/domain/access"
	"planbook/internal/domain/audit"
	"planbook/pkg/logger"
)

// Service sequences each sales-plan operation: resolve principal,
// authorize, validate or transition, persist. Authorization and
// validation failures abort before any mutation and surface unchanged.
type Service struct {
	repo      Repository
	items     ItemRepository
	products  ProductChecker
	ledger    access.Ledger
	policy    *access.Policy
	txManager tx.Manager
	auditor   audit.Recorder
}

// NewService creates the plan service.
func NewService(
	repo Repository,
	items ItemRepository,
	products ProductChecker,
	ledger access.Ledger,
	txManager tx.Manager,
	auditor audit.Recorder,
) *Service {
	return &Service{
		repo:      repo,
		items:     items,
		products:  products,
		ledger:    ledger,
		policy:    access.NewPolicy(ledger),
		txManager: txManager,
		auditor:   auditor,
	}
}

// List returns the plans visible to the caller. Admins see everything;
// other callers see the union of their region, department and granted
// plans. No channel at all means an empty result, not an error.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*SalesPlan], error) {
	pr := principal.Current(ctx)

	scope, err := s.policy.ReadScope(ctx, pr)
	if err != nil {
		return domain.ListResult[*SalesPlan]{}, err
	}

	result, err := s.repo.List(ctx, scope, filter)
	if err != nil {
		return domain.ListResult[*SalesPlan]{}, apperror.NewInternal(fmt.Errorf("list plans: %w", err))
	}
	return result, nil
}

// Get returns a single plan if the caller's read scope allows it.
func (s *Service) Get(ctx context.Context, planID int64) (*SalesPlan, error) {
	pr := principal.Current(ctx)

	p, err := s.repo.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}

	scope, err := s.policy.ReadScope(ctx, pr)
	if err != nil {
		return nil, err
	}
	if !scope.AllowsPlan(p.ID, p.Region, p.Department) {
		return nil, apperror.NewForbidden("you may not view this sales plan").
			WithDetail("plan_id", planID)
	}

	return p, nil
}

// Create validates and persists a new plan. Requires the editor role
// (admin bypasses the role check, never the validation). Non-admin
// callers get the plan stamped with their own region/department.
func (s *Service) Create(ctx context.Context, p *SalesPlan) error {
	pr := principal.Current(ctx)

	if err := s.policy.AuthorizeCreate(ctx, pr); err != nil {
		return err
	}

	if !pr.IsAdmin() {
		p.Region, p.Department = s.policy.OwnerAttributes(pr)
	}

	if p.Status == "" {
		p.Status = StatusDraft
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	p.CreatedBy = pr.ID
	p.UpdatedBy = pr.ID

	if err := p.Validate(); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, p); err != nil {
			return apperror.NewInternal(fmt.Errorf("create plan: %w", err))
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.recordAudit(ctx, audit.ActionCreate, p.ID, p)
	logger.Info(ctx, "sales plan created", "plan_id", p.ID, "title", p.Title)
	return nil
}

// Update overwrites a plan's data. The stored status is preserved:
// status only changes through Complete and Cancel.
func (s *Service) Update(ctx context.Context, p *SalesPlan) (*SalesPlan, error) {
	pr := principal.Current(ctx)

	var updated *SalesPlan
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.repo.GetByID(ctx, p.ID)
		if err != nil {
			return err
		}

		if err := s.policy.AuthorizeUpdate(ctx, pr, existing.ID, existing.Region, existing.Department); err != nil {
			return err
		}

		p.Status = existing.Status
		p.CreatedAt = existing.CreatedAt
		p.CreatedBy = existing.CreatedBy
		p.UpdatedBy = pr.ID
		p.Touch()

		if err := p.Validate(); err != nil {
			return err
		}

		if err := s.repo.Update(ctx, p); err != nil {
			return apperror.NewInternal(fmt.Errorf("update plan %d: %w", p.ID, err))
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, audit.ActionUpdate, updated.ID, updated)
	return updated, nil
}

// Delete removes a plan. Admin only, and only when the plan owns no
// items. The plan's ledger entries are removed in the same transaction.
func (s *Service) Delete(ctx context.Context, planID int64) error {
	pr := principal.Current(ctx)

	if err := s.policy.AuthorizeDelete(ctx, pr); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetByID(ctx, planID); err != nil {
			return err
		}

		count, err := s.items.CountByPlan(ctx, planID)
		if err != nil {
			return apperror.NewInternal(fmt.Errorf("count items for plan %d: %w", planID, err))
		}
		if count > 0 {
			return apperror.NewConflict("plan has items; remove items first").
				WithDetail("plan_id", planID).
				WithDetail("item_count", count)
		}

		if err := s.ledger.DeleteByPlan(ctx, planID); err != nil {
			return apperror.NewInternal(fmt.Errorf("delete grants for plan %d: %w", planID, err))
		}
		if err := s.repo.Delete(ctx, planID); err != nil {
			return apperror.NewInternal(fmt.Errorf("delete plan %d: %w", planID, err))
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.recordAudit(ctx, audit.ActionDelete, planID, map[string]any{"id": planID})
	logger.Info(ctx, "sales plan deleted", "plan_id", planID)
	return nil
}

// Complete moves the plan to completed. Completed and cancelled are
// terminal; completing a plan already in a terminal state is rejected.
// Under concurrent calls the redundant-transition check is best-effort:
// last writer wins, the loser may see the rejection.
func (s *Service) Complete(ctx context.Context, planID int64) (*SalesPlan, error) {
	return s.transition(ctx, planID, StatusCompleted, audit.ActionComplete)
}

// Cancel moves the plan to cancelled, from draft or inProgress.
func (s *Service) Cancel(ctx context.Context, planID int64) (*SalesPlan, error) {
	return s.transition(ctx, planID, StatusCancelled, audit.ActionCancel)
}

func (s *Service) transition(ctx context.Context, planID int64, target Status, action audit.Action) (*SalesPlan, error) {
	pr := principal.Current(ctx)

	var p *SalesPlan
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		p, err = s.repo.GetByID(ctx, planID)
		if err != nil {
			return err
		}

		if err := s.policy.AuthorizeUpdate(ctx, pr, p.ID, p.Region, p.Department); err != nil {
			return err
		}

		if err := p.TransitionTo(target); err != nil {
			return err
		}
		p.UpdatedBy = pr.ID

		if err := s.repo.Update(ctx, p); err != nil {
			return apperror.NewInternal(fmt.Errorf("update plan %d status: %w", planID, err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, action, p.ID, map[string]any{"status": string(target)})
	logger.Info(ctx, "sales plan status changed", "plan_id", p.ID, "status", string(target))
	return p, nil
}

// --- Line items ---

// ListItems returns the items of a plan the caller may view.
func (s *Service) ListItems(ctx context.Context, planID int64) ([]*Item, error) {
	if _, err := s.Get(ctx, planID); err != nil {
		return nil, err
	}

	items, err := s.items.ListByPlan(ctx, planID)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("list items for plan %d: %w", planID, err))
	}
	return items, nil
}

// CreateItem adds a line item to a plan the caller may modify. The
// referenced product must exist.
func (s *Service) CreateItem(ctx context.Context, it *Item) error {
	pr := principal.Current(ctx)

	if err := it.Validate(); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.repo.GetByID(ctx, it.SalesPlanID)
		if err != nil {
			return err
		}
		if err := s.policy.AuthorizeUpdate(ctx, pr, p.ID, p.Region, p.Department); err != nil {
			return err
		}

		exists, err := s.products.Exists(ctx, it.ProductID)
		if err != nil {
			return apperror.NewInternal(fmt.Errorf("check product %d: %w", it.ProductID, err))
		}
		if !exists {
			return apperror.NewNotFound("product", it.ProductID)
		}

		if err := s.items.Create(ctx, it); err != nil {
			return apperror.NewInternal(fmt.Errorf("create item: %w", err))
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.recordAudit(ctx, audit.ActionCreate, it.SalesPlanID, it)
	return nil
}

// UpdateItem overwrites a line item on a plan the caller may modify.
// The item cannot be moved to another plan.
func (s *Service) UpdateItem(ctx context.Context, it *Item) (*Item, error) {
	pr := principal.Current(ctx)

	var updated *Item
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.items.GetByID(ctx, it.ID)
		if err != nil {
			return err
		}
		it.SalesPlanID = existing.SalesPlanID

		p, err := s.repo.GetByID(ctx, existing.SalesPlanID)
		if err != nil {
			return err
		}
		if err := s.policy.AuthorizeUpdate(ctx, pr, p.ID, p.Region, p.Department); err != nil {
			return err
		}

		if err := it.Validate(); err != nil {
			return err
		}

		if existing.ProductID != it.ProductID {
			exists, err := s.products.Exists(ctx, it.ProductID)
			if err != nil {
				return apperror.NewInternal(fmt.Errorf("check product %d: %w", it.ProductID, err))
			}
			if !exists {
				return apperror.NewNotFound("product", it.ProductID)
			}
		}

		if err := s.items.Update(ctx, it); err != nil {
			return apperror.NewInternal(fmt.Errorf("update item %d: %w", it.ID, err))
		}
		updated = it
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, audit.ActionUpdate, updated.SalesPlanID, updated)
	return updated, nil
}

// DeleteItem removes a line item from a plan the caller may modify.
func (s *Service) DeleteItem(ctx context.Context, itemID int64) error {
	pr := principal.Current(ctx)

	var planID int64
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.items.GetByID(ctx, itemID)
		if err != nil {
			return err
		}
		planID = existing.SalesPlanID

		p, err := s.repo.GetByID(ctx, existing.SalesPlanID)
		if err != nil {
			return err
		}
		if err := s.policy.AuthorizeUpdate(ctx, pr, p.ID, p.Region, p.Department); err != nil {
			return err
		}

		if err := s.items.Delete(ctx, itemID); err != nil {
			return apperror.NewInternal(fmt.Errorf("delete item %d: %w", itemID, err))
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.recordAudit(ctx, audit.ActionDelete, planID, map[string]any{"itemId": itemID})
	return nil
}

func (s *Service) recordAudit(ctx context.Context, action audit.Action, planID int64, payload any) {
	changes, err := json.Marshal(payload)
	if err != nil {
		logger.Warn(ctx, "marshal audit payload failed", "error", err)
		return
	}
	entry := audit.Entry{
		Entity:    "sales_plans",
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
