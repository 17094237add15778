package product

import (
	"context"
	"fmt"

	"planbook/internal/core/apperror"
	"planbook/internal/core/principal"
	"planbook/internal/core/tx"
	"planbook/internal/domain"
	"planbook/pkg/logger"
)

// Service provides product catalog operations. Reads are open to any
// caller; writes require the editor role (admin bypasses).
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates the product service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{repo: repo, txManager: txManager}
}

func (s *Service) authorizeWrite(ctx context.Context) error {
	pr := principal.Current(ctx)
	if pr.IsAnonymous() {
		return apperror.NewUnauthenticated("authentication required")
	}
	if pr.IsAdmin() || pr.HasRole(principal.RoleEditor) {
		return nil
	}
	return apperror.NewForbidden("modifying products requires the editor role")
}

// List returns products matching the filter.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Product], error) {
	result, err := s.repo.List(ctx, filter)
	if err != nil {
		return domain.ListResult[*Product]{}, apperror.NewInternal(fmt.Errorf("list products: %w", err))
	}
	return result, nil
}

// Get returns a single product.
func (s *Service) Get(ctx context.Context, productID int64) (*Product, error) {
	return s.repo.GetByID(ctx, productID)
}

// Create validates and persists a new product.
func (s *Service) Create(ctx context.Context, p *Product) error {
	if err := s.authorizeWrite(ctx); err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, p); err != nil {
			return apperror.NewInternal(fmt.Errorf("create product: %w", err))
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "product created", "product_id", p.ID, "name", p.Name)
	return nil
}

// Update overwrites a product.
func (s *Service) Update(ctx context.Context, p *Product) (*Product, error) {
	if err := s.authorizeWrite(ctx); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetByID(ctx, p.ID); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, p); err != nil {
			return apperror.NewInternal(fmt.Errorf("update product %d: %w", p.ID, err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes a product that no plan item references.
func (s *Service) Delete(ctx context.Context, productID int64) error {
	if err := s.authorizeWrite(ctx); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetByID(ctx, productID); err != nil {
			return err
		}

		refs, err := s.repo.CountPlanItemRefs(ctx, productID)
		if err != nil {
			return apperror.NewInternal(fmt.Errorf("count references for product %d: %w", productID, err))
		}
		if refs > 0 {
			return apperror.NewConflict("product is referenced by plan items").
				WithDetail("product_id", productID).
				WithDetail("item_count", refs)
		}

		if err := s.repo.Delete(ctx, productID); err != nil {
			return apperror.NewInternal(fmt.Errorf("delete product %d: %w", productID, err))
		}
		return nil
	})
}
