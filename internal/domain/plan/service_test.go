package plan

import (
	"context"
	"sort"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planbook/internal/core/apperror"
	"planbook/internal/core/principal"
	"planbook/internal/domain"
	"planbook/internal/domain/access"
	"planbook/internal/domain/audit"
)

// --- In-memory fakes ---

type nopTxManager struct{}

func (nopTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memPlanRepo struct {
	plans  map[int64]SalesPlan
	nextID int64
}

func newMemPlanRepo() *memPlanRepo {
	return &memPlanRepo{plans: make(map[int64]SalesPlan), nextID: 1}
}

func (m *memPlanRepo) Create(ctx context.Context, p *SalesPlan) error {
	p.ID = m.nextID
	m.nextID++
	m.plans[p.ID] = *p
	return nil
}

func (m *memPlanRepo) GetByID(ctx context.Context, planID int64) (*SalesPlan, error) {
	if p, ok := m.plans[planID]; ok {
		cp := p
		return &cp, nil
	}
	return nil, apperror.NewNotFound("sales plan", planID)
}

func (m *memPlanRepo) Update(ctx context.Context, p *SalesPlan) error {
	if _, ok := m.plans[p.ID]; !ok {
		return apperror.NewNotFound("sales plan", p.ID)
	}
	m.plans[p.ID] = *p
	return nil
}

func (m *memPlanRepo) Delete(ctx context.Context, planID int64) error {
	delete(m.plans, planID)
	return nil
}

func (m *memPlanRepo) List(ctx context.Context, scope access.Scope, filter domain.ListFilter) (domain.ListResult[*SalesPlan], error) {
	var items []*SalesPlan
	for id := range m.plans {
		p := m.plans[id]
		if scope.Empty() || !scope.AllowsPlan(p.ID, p.Region, p.Department) {
			continue
		}
		cp := p
		items = append(items, &cp)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return domain.ListResult[*SalesPlan]{Items: items, TotalCount: int64(len(items))}, nil
}

func (m *memPlanRepo) Exists(ctx context.Context, planID int64) (bool, error) {
	_, ok := m.plans[planID]
	return ok, nil
}

type memItemRepo struct {
	items  map[int64]Item
	nextID int64
}

func newMemItemRepo() *memItemRepo {
	return &memItemRepo{items: make(map[int64]Item), nextID: 1}
}

func (m *memItemRepo) Create(ctx context.Context, it *Item) error {
	it.ID = m.nextID
	m.nextID++
	m.items[it.ID] = *it
	return nil
}

func (m *memItemRepo) GetByID(ctx context.Context, itemID int64) (*Item, error) {
	if it, ok := m.items[itemID]; ok {
		cp := it
		return &cp, nil
	}
	return nil, apperror.NewNotFound("plan item", itemID)
}

func (m *memItemRepo) Update(ctx context.Context, it *Item) error {
	if _, ok := m.items[it.ID]; !ok {
		return apperror.NewNotFound("plan item", it.ID)
	}
	m.items[it.ID] = *it
	return nil
}

func (m *memItemRepo) Delete(ctx context.Context, itemID int64) error {
	delete(m.items, itemID)
	return nil
}

func (m *memItemRepo) ListByPlan(ctx context.Context, planID int64) ([]*Item, error) {
	var out []*Item
	for id := range m.items {
		it := m.items[id]
		if it.SalesPlanID == planID {
			cp := it
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memItemRepo) CountByPlan(ctx context.Context, planID int64) (int64, error) {
	items, _ := m.ListByPlan(ctx, planID)
	return int64(len(items)), nil
}

type memLedger struct {
	grants map[string]map[int64]access.Grant
}

func newMemLedger() *memLedger {
	return &memLedger{grants: make(map[string]map[int64]access.Grant)}
}

func (m *memLedger) ListByUser(ctx context.Context, userID string) ([]access.Grant, error) {
	var out []access.Grant
	for _, g := range m.grants[userID] {
		out = append(out, g)
	}
	return out, nil
}

func (m *memLedger) Get(ctx context.Context, userID string, planID int64) (*access.Grant, error) {
	if g, ok := m.grants[userID][planID]; ok {
		return &g, nil
	}
	return nil, nil
}

func (m *memLedger) Upsert(ctx context.Context, grant *access.Grant) error {
	if m.grants[grant.UserID] == nil {
		m.grants[grant.UserID] = make(map[int64]access.Grant)
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

type fakeProducts struct {
	ids map[int64]bool
}

func (f *fakeProducts) Exists(ctx context.Context, productID int64) (bool, error) {
	return f.ids[productID], nil
}

// --- Fixture ---

type fixture struct {
	svc    *Service
	repo   *memPlanRepo
	items  *memItemRepo
	ledger *memLedger
}

func newFixture() *fixture {
	repo := newMemPlanRepo()
	items := newMemItemRepo()
	ledger := newMemLedger()
	products := &fakeProducts{ids: map[int64]bool{100: true, 101: true}}
	svc := NewService(repo, items, products, ledger, nopTxManager{}, audit.Nop{})
	return &fixture{svc: svc, repo: repo, items: items, ledger: ledger}
}

func str(s string) *string { return &s }

func asUser(p *principal.Principal) context.Context {
	return principal.WithContext(context.Background(), p)
}

func admin() *principal.Principal {
	return &principal.Principal{ID: "alice", Roles: []string{principal.RoleAdmin, principal.RoleEditor}}
}

func editorNorth() *principal.Principal {
	return &principal.Principal{ID: "bob", Roles: []string{principal.RoleEditor}, Region: "north"}
}

func viewerNoAttrs() *principal.Principal {
	return &principal.Principal{ID: "charlie", Roles: []string{principal.RoleViewer}}
}

func (f *fixture) seedPlan(t *testing.T, title string, region, department *string) *SalesPlan {
	t.Helper()
	p := validPlan()
	p.Title = title
	p.Region = region
	p.Department = department
	require.NoError(t, f.repo.Create(context.Background(), p))
	return p
}

// --- Read scope ---

func TestList_AdminSeesEverything(t *testing.T) {
	f := newFixture()
	f.seedPlan(t, "north plan", str("north"), nil)
	f.seedPlan(t, "south plan", str("south"), nil)
	f.seedPlan(t, "unassigned plan", nil, nil)

	result, err := f.svc.List(asUser(admin()), domain.DefaultListFilter())
	require.NoError(t, err)
	assert.Len(t, result.Items, 3)
}

func TestList_NoChannelsMeansEmptyResult(t *testing.T) {
	f := newFixture()
	f.seedPlan(t, "north plan", str("north"), nil)

	result, err := f.svc.List(asUser(viewerNoAttrs()), domain.DefaultListFilter())
	require.NoError(t, err, "an empty scope is an empty result set, not an error")
	assert.Empty(t, result.Items)
}

func TestList_RegionMatchWithoutGrant(t *testing.T) {
	f := newFixture()
	f.seedPlan(t, "north plan", str("north"), nil)
	f.seedPlan(t, "south plan", str("south"), nil)

	result, err := f.svc.List(asUser(editorNorth()), domain.DefaultListFilter())
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "north plan", result.Items[0].Title)
}

func TestGet_GrantThenRevoke(t *testing.T) {
	f := newFixture()
	p := f.seedPlan(t, "south plan", str("south"), nil)
	ctx := asUser(viewerNoAttrs())

	// No channel yet.
	_, err := f.svc.Get(ctx, p.ID)
	assert.True(t, apperror.IsForbidden(err))

	// Grant opens the explicit channel even without region/department.
	require.NoError(t, f.ledger.Upsert(context.Background(), &access.Grant{
		UserID: "charlie", SalesPlanID: p.ID, Level: access.LevelViewer,
	}))
	got, err := f.svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	// Revoking closes it again.
	require.NoError(t, f.ledger.Delete(context.Background(), "charlie", p.ID))
	_, err = f.svc.Get(ctx, p.ID)
	assert.True(t, apperror.IsForbidden(err))
}

func TestGet_NotFoundBeforeForbidden(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Get(asUser(viewerNoAttrs()), 999)
	assert.True(t, apperror.IsNotFound(err))
}

// --- Create ---

func TestCreate_RejectsInvalidDates(t *testing.T) {
	f := newFixture()
	p := validPlan()
	p.StartDate = date(2025, 6, 1)
	p.EndDate = date(2025, 5, 1)

	err := f.svc.Create(asUser(editorNorth()), p)
	assert.True(t, apperror.IsValidation(err))
}

func TestCreate_RejectsNonPositiveAmount(t *testing.T) {
	f := newFixture()
	p := validPlan()
	p.TargetAmount = decimal.Zero

	err := f.svc.Create(asUser(editorNorth()), p)
	assert.True(t, apperror.IsValidation(err))
}

func TestCreate_AdminDoesNotBypassValidation(t *testing.T) {
	f := newFixture()
	p := validPlan()
	p.TargetAmount = decimal.Zero

	err := f.svc.Create(asUser(admin()), p)
	assert.True(t, apperror.IsValidation(err))
}

func TestCreate_RequiresEditorRole(t *testing.T) {
	f := newFixture()

	err := f.svc.Create(asUser(viewerNoAttrs()), validPlan())
	assert.True(t, apperror.IsForbidden(err))

	err = f.svc.Create(asUser(principal.Anonymous()), validPlan())
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeUnauthenticated, appErr.Code)
}

func TestCreate_StampsOwnerAttributes(t *testing.T) {
	f := newFixture()
	p := validPlan()
	p.Region = str("south") // caller tries to assign another org unit

	require.NoError(t, f.svc.Create(asUser(editorNorth()), p))

	stored, err := f.repo.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Region)
	assert.Equal(t, "north", *stored.Region, "region comes from the principal, not the payload")
	assert.Nil(t, stored.Department)
	assert.Equal(t, StatusDraft, stored.Status)
	assert.Equal(t, "bob", stored.CreatedBy)
}

func TestCreate_InvalidCallerStatusRejected(t *testing.T) {
	f := newFixture()
	p := validPlan()
	p.Status = Status("bogus")

	err := f.svc.Create(asUser(editorNorth()), p)
	assert.True(t, apperror.IsValidation(err))
}

// --- Update ---

func TestUpdate_PreservesStatus(t *testing.T) {
	f := newFixture()
	seeded := f.seedPlan(t, "north plan", str("north"), nil)
	seeded.Status = StatusInProgress
	require.NoError(t, f.repo.Update(context.Background(), seeded))

	upd := validPlan()
	upd.ID = seeded.ID
	upd.Title = "renamed"
	upd.Status = StatusCompleted // must be ignored
	upd.Region = seeded.Region

	got, err := f.svc.Update(asUser(editorNorth()), upd)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Title)
	assert.Equal(t, StatusInProgress, got.Status, "status only changes via lifecycle actions")
}

func TestUpdate_ForbiddenWithoutChannel(t *testing.T) {
	f := newFixture()
	seeded := f.seedPlan(t, "south plan", str("south"), nil)

	upd := validPlan()
	upd.ID = seeded.ID

	_, err := f.svc.Update(asUser(editorNorth()), upd)
	assert.True(t, apperror.IsForbidden(err))
}

// --- Lifecycle ---

func TestComplete(t *testing.T) {
	f := newFixture()
	p := f.seedPlan(t, "north plan", str("north"), nil)
	ctx := asUser(editorNorth())

	got, err := f.svc.Complete(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)

	// Completing again is a redundant transition.
	_, err = f.svc.Complete(ctx, p.ID)
	assert.True(t, apperror.IsValidation(err))
}

func TestComplete_NotFound(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Complete(asUser(admin()), 999)
	assert.True(t, apperror.IsNotFound(err))
}

func TestCancel_FromInProgress(t *testing.T) {
	f := newFixture()
	p := f.seedPlan(t, "north plan", str("north"), nil)
	p.Status = StatusInProgress
	require.NoError(t, f.repo.Update(context.Background(), p))

	got, err := f.svc.Cancel(asUser(editorNorth()), p.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)

	_, err = f.svc.Cancel(asUser(editorNorth()), p.ID)
	assert.True(t, apperror.IsValidation(err))
}

func TestComplete_CancelledIsTerminal(t *testing.T) {
	f := newFixture()
	p := f.seedPlan(t, "north plan", str("north"), nil)

	_, err := f.svc.Cancel(asUser(editorNorth()), p.ID)
	require.NoError(t, err)

	_, err = f.svc.Complete(asUser(editorNorth()), p.ID)
	assert.True(t, apperror.IsValidation(err))
}

// --- Delete ---

func TestDelete_RequiresAdmin(t *testing.T) {
	f := newFixture()
	p := f.seedPlan(t, "north plan", str("north"), nil)

	err := f.svc.Delete(asUser(editorNorth()), p.ID)
	assert.True(t, apperror.IsForbidden(err), "region match does not allow delete")
}

func TestDelete_BlockedByItems(t *testing.T) {
	f := newFixture()
	p := f.seedPlan(t, "north plan", str("north"), nil)
	ctx := asUser(admin())

	it := &Item{SalesPlanID: p.ID, ProductID: 100, Quantity: 5, TargetPrice: decimal.NewFromInt(10)}
	require.NoError(t, f.svc.CreateItem(ctx, it))

	err := f.svc.Delete(ctx, p.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsConflict(err))

	// After removing the item the same call succeeds.
	require.NoError(t, f.svc.DeleteItem(ctx, it.ID))
	require.NoError(t, f.svc.Delete(ctx, p.ID))

	_, err = f.repo.GetByID(context.Background(), p.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestDelete_CascadesGrants(t *testing.T) {
	f := newFixture()
	p := f.seedPlan(t, "north plan", str("north"), nil)
	require.NoError(t, f.ledger.Upsert(context.Background(), &access.Grant{
		UserID: "charlie", SalesPlanID: p.ID, Level: access.LevelViewer,
	}))

	require.NoError(t, f.svc.Delete(asUser(admin()), p.ID))

	g, err := f.ledger.Get(context.Background(), "charlie", p.ID)
	require.NoError(t, err)
	assert.Nil(t, g, "ledger entries are removed with the plan")
}

// --- Items ---

func TestCreateItem_ProductMustExist(t *testing.T) {
	f := newFixture()
	p := f.seedPlan(t, "north plan", str("north"), nil)

	it := &Item{SalesPlanID: p.ID, ProductID: 999, Quantity: 1, TargetPrice: decimal.NewFromInt(10)}
	err := f.svc.CreateItem(asUser(admin()), it)
	assert.True(t, apperror.IsNotFound(err))
}

func TestCreateItem_PlanChannelRequired(t *testing.T) {
	f := newFixture()
	p := f.seedPlan(t, "south plan", str("south"), nil)

	it := &Item{SalesPlanID: p.ID, ProductID: 100, Quantity: 1, TargetPrice: decimal.NewFromInt(10)}
	err := f.svc.CreateItem(asUser(editorNorth()), it)
	assert.True(t, apperror.IsForbidden(err))
}

func TestUpdateItem_CannotMoveToAnotherPlan(t *testing.T) {
	f := newFixture()
	p1 := f.seedPlan(t, "plan one", str("north"), nil)
	p2 := f.seedPlan(t, "plan two", str("north"), nil)
	ctx := asUser(admin())

	it := &Item{SalesPlanID: p1.ID, ProductID: 100, Quantity: 1, TargetPrice: decimal.NewFromInt(10)}
	require.NoError(t, f.svc.CreateItem(ctx, it))

	upd := *it
	upd.SalesPlanID = p2.ID
	upd.Quantity = 3

	got, err := f.svc.UpdateItem(ctx, &upd)
	require.NoError(t, err)
	assert.Equal(t, p1.ID, got.SalesPlanID, "owning plan is immutable")
	assert.Equal(t, int64(3), got.Quantity)
}

func TestListItems_ScopedByPlanRead(t *testing.T) {
	f := newFixture()
	p := f.seedPlan(t, "south plan", str("south"), nil)

	_, err := f.svc.ListItems(asUser(viewerNoAttrs()), p.ID)
	assert.True(t, apperror.IsForbidden(err))

	items, err := f.svc.ListItems(asUser(admin()), p.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}
