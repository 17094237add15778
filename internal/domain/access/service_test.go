package access

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planbook/internal/core/apperror"
	"planbook/internal/core/principal"
	"planbook/internal/domain/audit"
)

type nopTxManager struct{}

func (nopTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakePlans struct {
	ids map[int64]bool
}

func (f *fakePlans) Exists(ctx context.Context, planID int64) (bool, error) {
	return f.ids[planID], nil
}

func newAccessService(ledger Ledger, planIDs ...int64) *Service {
	plans := &fakePlans{ids: make(map[int64]bool)}
	for _, id := range planIDs {
		plans.ids[id] = true
	}
	return NewService(ledger, plans, nopTxManager{}, audit.Nop{})
}

func asUser(p *principal.Principal) context.Context {
	return principal.WithContext(context.Background(), p)
}

func TestGrant_AdminOnly(t *testing.T) {
	ledger := newMemLedger()
	svc := newAccessService(ledger, 1)

	err := svc.Grant(asUser(editorNorth()), "charlie", 1, LevelViewer)
	assert.True(t, apperror.IsForbidden(err))

	err = svc.Grant(asUser(principal.Anonymous()), "charlie", 1, LevelViewer)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeUnauthenticated, appErr.Code)

	require.NoError(t, svc.Grant(asUser(admin()), "charlie", 1, LevelViewer))

	g, err := ledger.Get(context.Background(), "charlie", 1)
	require.NoError(t, err)
	require.NotNil(t, g)
	assert.Equal(t, LevelViewer, g.Level)
	assert.Equal(t, "alice", g.GrantedBy)
}

func TestGrant_UpsertUpdatesLevel(t *testing.T) {
	ledger := newMemLedger()
	svc := newAccessService(ledger, 1)
	ctx := asUser(admin())

	require.NoError(t, svc.Grant(ctx, "charlie", 1, LevelViewer))
	require.NoError(t, svc.Grant(ctx, "charlie", 1, LevelEditor))

	g, err := ledger.Get(context.Background(), "charlie", 1)
	require.NoError(t, err)
	require.NotNil(t, g)
	assert.Equal(t, LevelEditor, g.Level)

	grants, err := ledger.ListByUser(context.Background(), "charlie")
	require.NoError(t, err)
	assert.Len(t, grants, 1, "upsert must not create a second entry")
}

func TestGrant_PlanMustExist(t *testing.T) {
	svc := newAccessService(newMemLedger(), 1)

	err := svc.Grant(asUser(admin()), "charlie", 999, LevelViewer)
	assert.True(t, apperror.IsNotFound(err))
}

func TestGrant_InvalidLevel(t *testing.T) {
	svc := newAccessService(newMemLedger(), 1)

	err := svc.Grant(asUser(admin()), "charlie", 1, Level("superuser"))
	assert.True(t, apperror.IsValidation(err))
}

func TestRevoke_Idempotent(t *testing.T) {
	ledger := newMemLedger()
	svc := newAccessService(ledger, 1)
	ctx := asUser(admin())

	require.NoError(t, svc.Grant(ctx, "charlie", 1, LevelViewer))

	require.NoError(t, svc.Revoke(ctx, "charlie", 1))
	g, err := ledger.Get(context.Background(), "charlie", 1)
	require.NoError(t, err)
	assert.Nil(t, g)

	// Second revoke is a no-op, not an error.
	assert.NoError(t, svc.Revoke(ctx, "charlie", 1))
}

func TestRevoke_AdminOnly(t *testing.T) {
	svc := newAccessService(newMemLedger(), 1)

	err := svc.Revoke(asUser(viewerNoAttrs()), "charlie", 1)
	assert.True(t, apperror.IsForbidden(err))
}
