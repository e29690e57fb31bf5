package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"venue-service/internal/models"
	"venue-service/internal/store"

	"github.com/stretchr/testify/require"
)

const testVenue = "venue-1"

type recordingEvents struct {
	mu         sync.Mutex
	tickets    []*models.ProductionTicketEvent
	cancels    []*models.ItemCancelledEvent
	finalized  []*models.OrderFinalizedEvent
	sessions   []*models.CashSessionEvent
	redemption []*models.RedemptionRedeemedEvent
}

func (r *recordingEvents) PublishProductionTicket(_ context.Context, e *models.ProductionTicketEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tickets = append(r.tickets, e)
	return nil
}

func (r *recordingEvents) PublishItemCancelled(_ context.Context, e *models.ItemCancelledEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancels = append(r.cancels, e)
	return nil
}

func (r *recordingEvents) PublishOrderFinalized(_ context.Context, e *models.OrderFinalizedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finalized = append(r.finalized, e)
	return nil
}

func (r *recordingEvents) PublishCashSession(_ context.Context, e *models.CashSessionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = append(r.sessions, e)
	return nil
}

func (r *recordingEvents) PublishRedemptionRedeemed(_ context.Context, e *models.RedemptionRedeemedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.redemption = append(r.redemption, e)
	return nil
}

// failingKV fails writes of one key and passes everything else through
type failingKV struct {
	store.KV
	key string
}

func (f failingKV) Set(ctx context.Context, key string, value []byte) error {
	if key == f.key {
		return errors.New("write failed")
	}
	return f.KV.Set(ctx, key, value)
}

// steppingClock advances one second on every reading
type steppingClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type fixture struct {
	ctx       context.Context
	kv        *store.MemoryStore
	deps      *Deps
	events    *recordingEvents
	tables    *TableRegistry
	menu      *Menu
	employees *Employees
	settings  *Settings
	cash      *CashLedger
	loyalty   *Loyalty
	orders    *OrderService
	book      *ReservationBook
	board     *KitchenBoard
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	events := &recordingEvents{}
	kv := store.NewMemoryStore()
	deps := NewDeps(store.NewDocuments(kv), store.NewMemoryLocker(), events)
	clock := &steppingClock{now: time.Date(2024, 5, 10, 18, 0, 0, 0, time.UTC)}
	deps.Now = clock.Now
	deps.LockTimeout = time.Second

	f := &fixture{
		ctx:       context.Background(),
		kv:        kv,
		deps:      deps,
		events:    events,
		tables:    NewTableRegistry(deps),
		menu:      NewMenu(deps),
		employees: NewEmployees(deps),
		settings:  NewSettings(deps),
		cash:      NewCashLedger(deps),
	}
	f.loyalty = NewLoyalty(deps, nil)
	f.orders = NewOrderService(deps, f.menu, f.employees, f.tables, f.cash, f.loyalty, f.settings, 10)
	f.book = NewReservationBook(deps, f.tables)
	f.board = NewKitchenBoard(deps, 0)
	return f
}

func (f *fixture) addTable(t *testing.T, id string, number, capacity int) *models.Table {
	t.Helper()
	table, err := f.tables.UpsertTable(f.ctx, testVenue, models.Table{ID: id, Number: number, Capacity: capacity})
	require.NoError(t, err)
	return table
}

func (f *fixture) addMenuItem(t *testing.T, id, name, price, group string) {
	t.Helper()
	_, err := f.menu.UpsertMenuItem(f.ctx, testVenue, models.MenuItem{ID: id, Name: name, Price: price, ProductionGroup: group})
	require.NoError(t, err)
}

func (f *fixture) addItem(t *testing.T, tableID, itemID string, quantity int) *models.Order {
	t.Helper()
	order, err := f.orders.AddItem(f.ctx, testVenue, tableID, &AddItemRequest{ItemID: itemID, Quantity: quantity})
	require.NoError(t, err)
	return order
}

func (f *fixture) openSession(t *testing.T, startAmount int64) *models.CashSession {
	t.Helper()
	session, err := f.cash.Open(f.ctx, testVenue, "manager", startAmount)
	require.NoError(t, err)
	return session
}

func itemKeys(order *models.Order) []int64 {
	keys := make([]int64, len(order.Items))
	for i := range order.Items {
		keys[i] = order.Items[i].Key()
	}
	return keys
}
