package access

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planbook/internal/core/apperror"
	"planbook/internal/core/principal"
)

// memLedger is an in-memory Ledger for tests.
type memLedger struct {
	grants map[string]map[int64]Grant
}

func newMemLedger() *memLedger {
	return &memLedger{grants: make(map[string]map[int64]Grant)}
}

func (m *memLedger) ListByUser(ctx context.Context, userID string) ([]Grant, error) {
	var out []Grant
	for _, g := range m.grants[userID] {
		out = append(out, g)
	}
	return out, nil
}

func (m *memLedger) Get(ctx context.Context, userID string, planID int64) (*Grant, error) {
	if g, ok := m.grants[userID][planID]; ok {
		return &g, nil
	}
	return nil, nil
}

func (m *memLedger) Upsert(ctx context.Context, grant *Grant) error {
	if m.grants[grant.UserID] == nil {
		m.grants[grant.UserID] = make(map[int64]Grant)
	}
	m.grants[grant.UserID][grant.SalesPlanID] = *grant
	return nil
}

func (m *memLedger) Delete(ctx context.Context, userID string, planID int64) error {
	delete(m.grants[userID], planID)
	return nil
}

func (m *memLedger) DeleteByPlan(ctx context.Context, planID int64) error {
	for _, byPlan := range m.grants {
		delete(byPlan, planID)
	}
	return nil
}

func str(s string) *string { return &s }

func admin() *principal.Principal {
	return &principal.Principal{ID: "alice", Roles: []string{principal.RoleAdmin, principal.RoleEditor}}
}

func editorNorth() *principal.Principal {
	return &principal.Principal{ID: "bob", Roles: []string{principal.RoleEditor}, Region: "north"}
}

func viewerNoAttrs() *principal.Principal {
	return &principal.Principal{ID: "charlie", Roles: []string{principal.RoleViewer}}
}

func TestReadScope_Admin(t *testing.T) {
	policy := NewPolicy(newMemLedger())

	scope, err := policy.ReadScope(context.Background(), admin())
	require.NoError(t, err)
	assert.True(t, scope.Unrestricted)
	assert.True(t, scope.AllowsPlan(42, nil, nil))
}

func TestReadScope_NoChannels(t *testing.T) {
	policy := NewPolicy(newMemLedger())

	scope, err := policy.ReadScope(context.Background(), viewerNoAttrs())
	require.NoError(t, err)
	assert.True(t, scope.Empty(), "no region, department or grants must yield a match-nothing scope")
	assert.False(t, scope.AllowsPlan(1, str("north"), nil))
}

func TestReadScope_Channels(t *testing.T) {
	ledger := newMemLedger()
	require.NoError(t, ledger.Upsert(context.Background(), &Grant{UserID: "bob", SalesPlanID: 7, Level: LevelViewer}))
	policy := NewPolicy(ledger)

	scope, err := policy.ReadScope(context.Background(), editorNorth())
	require.NoError(t, err)

	assert.False(t, scope.Unrestricted)
	assert.Equal(t, "north", scope.Region)
	assert.Equal(t, []int64{7}, scope.PlanIDs)

	// Region channel: plan in bob's region, no grant needed.
	assert.True(t, scope.AllowsPlan(1, str("north"), nil))
	// Grant channel: plan 7 outside his region.
	assert.True(t, scope.AllowsPlan(7, str("south"), nil))
	// No channel matches.
	assert.False(t, scope.AllowsPlan(2, str("south"), str("retail")))
	// Attributes unset on the plan do not match.
	assert.False(t, scope.AllowsPlan(3, nil, nil))
}

func TestReadScope_DepartmentChannel(t *testing.T) {
	policy := NewPolicy(newMemLedger())
	pr := &principal.Principal{ID: "dora", Department: "wholesale"}

	scope, err := policy.ReadScope(context.Background(), pr)
	require.NoError(t, err)

	assert.True(t, scope.AllowsPlan(1, nil, str("wholesale")))
	assert.False(t, scope.AllowsPlan(1, nil, str("retail")))
}

func TestAuthorizeCreate(t *testing.T) {
	policy := NewPolicy(newMemLedger())
	ctx := context.Background()

	assert.NoError(t, policy.AuthorizeCreate(ctx, admin()))
	assert.NoError(t, policy.AuthorizeCreate(ctx, editorNorth()))

	err := policy.AuthorizeCreate(ctx, viewerNoAttrs())
	assert.True(t, apperror.IsForbidden(err))

	err = policy.AuthorizeCreate(ctx, principal.Anonymous())
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeUnauthenticated, appErr.Code)
}

func TestAuthorizeUpdate(t *testing.T) {
	ledger := newMemLedger()
	require.NoError(t, ledger.Upsert(context.Background(), &Grant{UserID: "charlie", SalesPlanID: 5, Level: LevelEditor}))
	policy := NewPolicy(ledger)
	ctx := context.Background()

	// Admin bypasses channel checks entirely.
	assert.NoError(t, policy.AuthorizeUpdate(ctx, admin(), 99, nil, nil))

	// Region match.
	assert.NoError(t, policy.AuthorizeUpdate(ctx, editorNorth(), 1, str("north"), nil))

	// Explicit grant, no attribute match.
	assert.NoError(t, policy.AuthorizeUpdate(ctx, viewerNoAttrs(), 5, str("south"), nil))

	// No channel at all.
	err := policy.AuthorizeUpdate(ctx, viewerNoAttrs(), 6, str("south"), nil)
	assert.True(t, apperror.IsForbidden(err))
}

func TestAuthorizeDelete_RequiresAdmin(t *testing.T) {
	policy := NewPolicy(newMemLedger())
	ctx := context.Background()

	assert.NoError(t, policy.AuthorizeDelete(ctx, admin()))

	// An editor with a region match can update but never delete.
	err := policy.AuthorizeDelete(ctx, editorNorth())
	assert.True(t, apperror.IsForbidden(err))
}

func TestOwnerAttributes(t *testing.T) {
	policy := NewPolicy(newMemLedger())

	region, department := policy.OwnerAttributes(editorNorth())
	require.NotNil(t, region)
	assert.Equal(t, "north", *region)
	assert.Nil(t, department)

	region, department = policy.OwnerAttributes(viewerNoAttrs())
	assert.Nil(t, region)
	assert.Nil(t, department)
}
