package service

import (
	"testing"

	"venue-service/internal/models"
	"venue-service/internal/store"
	"venue-service/internal/util"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrderFixture(t *testing.T) *fixture {
	f := newFixture(t)
	f.addTable(t, "t1", 1, 4)
	f.addTable(t, "t2", 2, 2)
	f.addMenuItem(t, "burger", "Burger", "R$ 10,00", "Chapa")
	f.addMenuItem(t, "fries", "Fries", "R$ 7,50", "Fritadeira")
	f.addMenuItem(t, "soda", "Soda", "R$ 5,00", "")
	f.addMenuItem(t, "special", "Special", "consulte", "Chapa")
	require.NoError(t, f.employees.UpsertEmployee(f.ctx, testVenue, models.Employee{
		Name: "Ana", Login: "ana", Password: "secret", Role: "manager",
	}))
	return f
}

func TestAddItemOpensOrderAndOccupiesTable(t *testing.T) {
	f := newOrderFixture(t)

	order := f.addItem(t, "t1", "burger", 2)

	assert.Equal(t, "t1", order.ID)
	assert.Equal(t, models.OrderStatusOpen, order.Status)
	require.Len(t, order.Items, 1)
	assert.Equal(t, models.ItemStatusDraft, order.Items[0].Status)
	assert.Equal(t, "Chapa", order.Items[0].ProductionGroup)
	assert.Equal(t, 2, order.Items[0].Quantity)

	table, err := f.tables.GetTable(f.ctx, testVenue, "t1")
	require.NoError(t, err)
	assert.Equal(t, models.TableStatusOccupied, table.Status)

	occupancy, err := f.tables.Occupancy(f.ctx, testVenue)
	require.NoError(t, err)
	assert.True(t, occupancy["t1"])
	assert.False(t, occupancy["t2"])
}

func TestAddItemNeverMergesInstances(t *testing.T) {
	f := newOrderFixture(t)

	f.addItem(t, "t1", "burger", 0)
	order := f.addItem(t, "t1", "burger", 0)

	require.Len(t, order.Items, 2)
	assert.Equal(t, 1, order.Items[0].Quantity)
	assert.Equal(t, 1, order.Items[1].Quantity)
	assert.Less(t, order.Items[0].Key(), order.Items[1].Key())
}

func TestAddItemValidation(t *testing.T) {
	f := newOrderFixture(t)

	_, err := f.orders.AddItem(f.ctx, testVenue, "t1", &AddItemRequest{ItemID: "pizza"})
	assert.ErrorIs(t, err, ErrMenuItemNotFound)

	_, err = f.orders.AddItem(f.ctx, testVenue, "t9", &AddItemRequest{ItemID: "burger"})
	assert.ErrorIs(t, err, ErrTableNotFound)

	_, err = f.orders.AddItem(f.ctx, testVenue, "t1", &AddItemRequest{ItemID: "burger", Quantity: -1})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = f.orders.GetOrder(f.ctx, testVenue, "t1")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestAdjustQuantity(t *testing.T) {
	f := newOrderFixture(t)
	order := f.addItem(t, "t1", "burger", 2)
	key := order.Items[0].Key()

	order, err := f.orders.AdjustQuantity(f.ctx, testVenue, "t1", key, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, order.Items[0].Quantity)

	order, err = f.orders.AdjustQuantity(f.ctx, testVenue, "t1", key, -3)
	require.NoError(t, err)
	assert.Empty(t, order.Items)

	_, err = f.orders.AdjustQuantity(f.ctx, testVenue, "t1", key, 1)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestAdjustQuantityRejectsQueuedItems(t *testing.T) {
	f := newOrderFixture(t)
	order := f.addItem(t, "t1", "burger", 1)
	key := order.Items[0].Key()
	_, err := f.orders.SendToProduction(f.ctx, testVenue, "t1")
	require.NoError(t, err)

	_, err = f.orders.AdjustQuantity(f.ctx, testVenue, "t1", key, 1)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = f.orders.RemoveDraftItem(f.ctx, testVenue, "t1", key)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSendToProductionEmitsOneTicketPerGroup(t *testing.T) {
	f := newOrderFixture(t)
	f.addItem(t, "t1", "burger", 1)
	f.addItem(t, "t1", "fries", 2)
	f.addItem(t, "t1", "burger", 1)
	f.addItem(t, "t1", "soda", 1)

	tickets, err := f.orders.SendToProduction(f.ctx, testVenue, "t1")
	require.NoError(t, err)

	require.Len(t, tickets, 3)
	assert.Equal(t, "Chapa", tickets[0].ProductionGroup)
	assert.Len(t, tickets[0].Items, 2)
	assert.Equal(t, "Burger", tickets[0].Items[0].Name)
	assert.Equal(t, "Fritadeira", tickets[1].ProductionGroup)
	assert.Equal(t, 2, tickets[1].Items[0].Quantity)
	assert.Equal(t, defaultProductionGroup, tickets[2].ProductionGroup)
	assert.Len(t, f.events.tickets, 3)

	order, err := f.orders.GetOrder(f.ctx, testVenue, "t1")
	require.NoError(t, err)
	assert.Equal(t, 4, order.CountItems(models.ItemStatusQueued))

	_, err = f.orders.SendToProduction(f.ctx, testVenue, "t1")
	assert.ErrorIs(t, err, ErrNoDraftItems)
	assert.Len(t, f.events.tickets, 3)
}

func TestMarkReadyAndDeliveredAreAllOrNothing(t *testing.T) {
	f := newOrderFixture(t)
	f.addItem(t, "t1", "burger", 1)
	order := f.addItem(t, "t1", "fries", 1)
	keys := itemKeys(order)
	_, err := f.orders.SendToProduction(f.ctx, testVenue, "t1")
	require.NoError(t, err)

	_, err = f.orders.MarkDelivered(f.ctx, testVenue, "t1", keys)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	order, err = f.orders.MarkReady(f.ctx, testVenue, "t1", keys[:1])
	require.NoError(t, err)
	assert.Equal(t, models.ItemStatusReady, order.Items[0].Status)

	// second key is still queued so nothing moves
	_, err = f.orders.MarkDelivered(f.ctx, testVenue, "t1", keys)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	order, err = f.orders.GetOrder(f.ctx, testVenue, "t1")
	require.NoError(t, err)
	assert.Equal(t, models.ItemStatusReady, order.Items[0].Status)
	assert.Equal(t, models.ItemStatusQueued, order.Items[1].Status)

	order, err = f.orders.MarkDelivered(f.ctx, testVenue, "t1", keys[:1])
	require.NoError(t, err)
	assert.Equal(t, models.ItemStatusDelivered, order.Items[0].Status)
}

func TestCancelItemWithWrongPasswordChangesNothing(t *testing.T) {
	f := newOrderFixture(t)
	session := f.openSession(t, 0)
	f.addItem(t, "t1", "burger", 2)
	order := f.addItem(t, "t1", "burger", 1)
	keys := itemKeys(order)
	_, err := f.orders.SendToProduction(f.ctx, testVenue, "t1")
	require.NoError(t, err)

	_, err = f.orders.CancelItem(f.ctx, testVenue, "t1", keys[0], "ana", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.orders.CancelItem(f.ctx, testVenue, "t1", keys[0], "bob", "secret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	order, err = f.orders.GetOrder(f.ctx, testVenue, "t1")
	require.NoError(t, err)
	for _, item := range order.Items {
		assert.Equal(t, models.ItemStatusQueued, item.Status)
		assert.Empty(t, item.CancelledBy)
	}
	current, err := f.cash.Current(f.ctx, testVenue)
	require.NoError(t, err)
	assert.Equal(t, session.ID, current.ID)
	assert.Zero(t, current.CancellationCount)
	assert.Empty(t, f.events.cancels)
}

func TestCancelItemNotCountedWhenOrderSaveFails(t *testing.T) {
	f := newOrderFixture(t)
	f.openSession(t, 0)
	order := f.addItem(t, "t1", "burger", 2)
	key := itemKeys(order)[0]
	_, err := f.orders.SendToProduction(f.ctx, testVenue, "t1")
	require.NoError(t, err)

	f.deps.Docs = store.NewDocuments(failingKV{KV: f.kv, key: store.Key(testVenue, store.TopicOrders)})

	_, err = f.orders.CancelItem(f.ctx, testVenue, "t1", key, "ana", "secret")
	require.Error(t, err)

	current, err := f.cash.Current(f.ctx, testVenue)
	require.NoError(t, err)
	assert.Zero(t, current.CancellationCount)
	order, err = f.orders.GetOrder(f.ctx, testVenue, "t1")
	require.NoError(t, err)
	assert.Equal(t, models.ItemStatusQueued, order.Items[0].Status)
	assert.Empty(t, f.events.cancels)
}

func TestCancelItemRecordsCancellation(t *testing.T) {
	f := newOrderFixture(t)
	f.openSession(t, 0)
	f.addItem(t, "t1", "burger", 2)
	order := f.addItem(t, "t1", "burger", 1)
	keys := itemKeys(order)
	_, err := f.orders.SendToProduction(f.ctx, testVenue, "t1")
	require.NoError(t, err)

	before, err := f.orders.Bill(f.ctx, testVenue, "t1", false)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), before.Subtotal)

	order, err = f.orders.CancelItem(f.ctx, testVenue, "t1", keys[0], "ana", "secret")
	require.NoError(t, err)
	assert.Equal(t, models.ItemStatusCancelled, order.Items[0].Status)
	assert.Equal(t, "Ana", order.Items[0].CancelledBy)
	assert.NotNil(t, order.Items[0].CancelledAt)
	assert.Equal(t, models.ItemStatusQueued, order.Items[1].Status)

	after, err := f.orders.Bill(f.ctx, testVenue, "t1", false)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), after.Subtotal)
	assert.LessOrEqual(t, after.Subtotal, before.Subtotal)

	current, err := f.cash.Current(f.ctx, testVenue)
	require.NoError(t, err)
	assert.Equal(t, 2, current.CancellationCount)
	require.Len(t, f.events.cancels, 1)
	assert.Equal(t, "burger", f.events.cancels[0].ItemID)

	_, err = f.orders.CancelItem(f.ctx, testVenue, "t1", keys[0], "ana", "secret")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCancelItemWithoutSessionStillCancels(t *testing.T) {
	f := newOrderFixture(t)
	order := f.addItem(t, "t1", "fries", 1)
	_, err := f.orders.SendToProduction(f.ctx, testVenue, "t1")
	require.NoError(t, err)

	order, err = f.orders.CancelItem(f.ctx, testVenue, "t1", order.Items[0].Key(), "ana", "secret")
	require.NoError(t, err)
	assert.Equal(t, models.ItemStatusCancelled, order.Items[0].Status)
}

func TestCancelDraftItemIsRejected(t *testing.T) {
	f := newOrderFixture(t)
	order := f.addItem(t, "t1", "fries", 1)

	_, err := f.orders.CancelItem(f.ctx, testVenue, "t1", order.Items[0].Key(), "ana", "secret")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestAddingItemsNeverLowersTheBill(t *testing.T) {
	f := newOrderFixture(t)
	var last int64
	for _, id := range []string{"burger", "special", "fries", "soda"} {
		f.addItem(t, "t1", id, 1)
		bill, err := f.orders.Bill(f.ctx, testVenue, "t1", true)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, bill.Subtotal, last)
		last = bill.Subtotal
	}

	bill, err := f.orders.Bill(f.ctx, testVenue, "t1", true)
	require.NoError(t, err)
	assert.Equal(t, int64(2250), bill.Subtotal)
	assert.Equal(t, int64(225), bill.ServiceFee)
	assert.Equal(t, int64(2475), bill.Total)
	assert.Equal(t, []string{"special"}, bill.Unpriced)
}

func TestRequestBillFlushesDraftsAndAddItemReopens(t *testing.T) {
	f := newOrderFixture(t)
	f.addItem(t, "t1", "burger", 1)

	bill, err := f.orders.RequestBill(f.ctx, testVenue, "t1", false)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), bill.Total)
	assert.Len(t, f.events.tickets, 1)

	order, err := f.orders.GetOrder(f.ctx, testVenue, "t1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusAwaitingPayment, order.Status)
	assert.Equal(t, 0, order.CountItems(models.ItemStatusDraft))

	order = f.addItem(t, "t1", "soda", 1)
	assert.Equal(t, models.OrderStatusOpen, order.Status)
}

func TestFinalizeRecordsSaleAndReleasesTable(t *testing.T) {
	f := newOrderFixture(t)
	f.openSession(t, 10000)
	f.addItem(t, "t1", "burger", 2)
	f.addItem(t, "t1", "fries", 1)

	order, err := f.orders.Finalize(f.ctx, testVenue, "t1", &FinalizeRequest{
		PaymentMethod: models.PaymentMethodCash,
		ServiceFee:    true,
		CPF:           "123.456.789-00",
		CashTendered:  5000,
	})
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusFinalized, order.Status)
	assert.Equal(t, int64(2750), order.Subtotal)
	assert.Equal(t, int64(275), order.ServiceFee)
	assert.Equal(t, int64(3025), order.Total)
	assert.Equal(t, int64(1975), order.Change)
	assert.NotNil(t, order.FinalizedAt)
	assert.Equal(t, 2, order.CountItems(models.ItemStatusQueued))

	// drafts were flushed to production before charging
	assert.Len(t, f.events.tickets, 2)
	require.Len(t, f.events.finalized, 1)
	assert.Equal(t, int64(3025), f.events.finalized[0].Total)

	current, err := f.cash.Current(f.ctx, testVenue)
	require.NoError(t, err)
	assert.Equal(t, int64(3025), current.Sales.Total)
	assert.Equal(t, int64(3025), current.Sales.ByMethod.Cash)
	assert.True(t, current.Sales.Applied(order.ID))

	_, err = f.orders.GetOrder(f.ctx, testVenue, "t1")
	assert.ErrorIs(t, err, ErrOrderNotFound)
	history, err := f.orders.History(f.ctx, testVenue)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "123.456.789-00", history[0].CPF)

	table, err := f.tables.GetTable(f.ctx, testVenue, "t1")
	require.NoError(t, err)
	assert.Equal(t, models.TableStatusAvailable, table.Status)
}

func TestFinalizeTwiceIsRejectedAsAlreadyFinalized(t *testing.T) {
	f := newOrderFixture(t)
	f.openSession(t, 0)
	f.addItem(t, "t1", "burger", 1)
	_, err := f.orders.Finalize(f.ctx, testVenue, "t1", &FinalizeRequest{PaymentMethod: models.PaymentMethodPix})
	require.NoError(t, err)

	before, err := f.cash.Current(f.ctx, testVenue)
	require.NoError(t, err)
	tableBefore, err := f.tables.GetTable(f.ctx, testVenue, "t1")
	require.NoError(t, err)

	_, err = f.orders.Finalize(f.ctx, testVenue, "t1", &FinalizeRequest{PaymentMethod: models.PaymentMethodPix})
	assert.ErrorIs(t, err, ErrOrderAlreadyFinalized)

	after, err := f.cash.Current(f.ctx, testVenue)
	require.NoError(t, err)
	assert.Equal(t, before.Sales, after.Sales)
	tableAfter, err := f.tables.GetTable(f.ctx, testVenue, "t1")
	require.NoError(t, err)
	assert.Equal(t, tableBefore.Status, tableAfter.Status)

	_, err = f.orders.Finalize(f.ctx, testVenue, "t2", &FinalizeRequest{PaymentMethod: models.PaymentMethodPix})
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestFinalizeRejectsOrderChargedInSession(t *testing.T) {
	f := newOrderFixture(t)
	f.openSession(t, 0)
	f.addItem(t, "t1", "burger", 1)
	_, err := f.orders.Finalize(f.ctx, testVenue, "t1", &FinalizeRequest{PaymentMethod: models.PaymentMethodDebit})
	require.NoError(t, err)

	// a new order on the same table reuses the order id
	f.addItem(t, "t1", "soda", 1)
	before, err := f.cash.Current(f.ctx, testVenue)
	require.NoError(t, err)
	tableBefore, err := f.tables.GetTable(f.ctx, testVenue, "t1")
	require.NoError(t, err)
	ticketsBefore := len(f.events.tickets)

	_, err = f.orders.Finalize(f.ctx, testVenue, "t1", &FinalizeRequest{PaymentMethod: models.PaymentMethodDebit})
	assert.ErrorIs(t, err, ErrOrderAlreadyFinalized)

	after, err := f.cash.Current(f.ctx, testVenue)
	require.NoError(t, err)
	assert.Equal(t, before.Sales, after.Sales)
	assert.Equal(t, int64(1000), after.Sales.ByMethod.Debit)
	tableAfter, err := f.tables.GetTable(f.ctx, testVenue, "t1")
	require.NoError(t, err)
	assert.Equal(t, tableBefore.Status, tableAfter.Status)
	assert.Len(t, f.events.tickets, ticketsBefore)

	order, err := f.orders.GetOrder(f.ctx, testVenue, "t1")
	require.NoError(t, err)
	assert.Equal(t, 1, order.CountItems(models.ItemStatusDraft))
	history, err := f.orders.History(f.ctx, testVenue)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	// the next session charges it
	_, err = f.cash.Close(f.ctx, testVenue, "manager", 0)
	require.NoError(t, err)
	f.openSession(t, 0)
	finalized, err := f.orders.Finalize(f.ctx, testVenue, "t1", &FinalizeRequest{PaymentMethod: models.PaymentMethodDebit})
	require.NoError(t, err)
	assert.Equal(t, int64(500), finalized.Total)
}

func TestFinalizeWithoutOpenSessionFails(t *testing.T) {
	f := newOrderFixture(t)
	f.addItem(t, "t1", "burger", 1)

	_, err := f.orders.Finalize(f.ctx, testVenue, "t1", &FinalizeRequest{PaymentMethod: models.PaymentMethodCredit})
	assert.ErrorIs(t, err, ErrNoOpenSession)

	order, err := f.orders.GetOrder(f.ctx, testVenue, "t1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusOpen, order.Status)
	assert.Equal(t, 1, order.CountItems(models.ItemStatusDraft))
	assert.Empty(t, f.events.tickets)
}

func TestFinalizeValidation(t *testing.T) {
	f := newOrderFixture(t)
	f.openSession(t, 0)
	f.addItem(t, "t1", "burger", 1)

	_, err := f.orders.Finalize(f.ctx, testVenue, "t1", &FinalizeRequest{PaymentMethod: "voucher"})
	assert.ErrorIs(t, err, ErrInvalidPaymentMethod)

	_, err = f.orders.Finalize(f.ctx, testVenue, "t1", &FinalizeRequest{
		PaymentMethod: models.PaymentMethodCash,
		CashTendered:  500,
	})
	assert.ErrorIs(t, err, ErrInsufficientCashTendered)

	current, err := f.cash.Current(f.ctx, testVenue)
	require.NoError(t, err)
	assert.Zero(t, current.Sales.Total)
}

func TestFinalizeRejectsAlreadyRecordedSale(t *testing.T) {
	f := newOrderFixture(t)
	f.openSession(t, 0)
	order := f.addItem(t, "t1", "burger", 1)

	_, err := f.cash.RecordSale(f.ctx, testVenue, order.ID, models.PaymentMethodPix, 1000)
	require.NoError(t, err)

	_, err = f.orders.Finalize(f.ctx, testVenue, "t1", &FinalizeRequest{PaymentMethod: models.PaymentMethodPix})
	assert.ErrorIs(t, err, ErrOrderAlreadyFinalized)

	current, err := f.cash.Current(f.ctx, testVenue)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), current.Sales.Total)
	assert.Equal(t, []string{"t1"}, current.Sales.AppliedOrderIDs)

	active, err := f.orders.GetOrder(f.ctx, testVenue, "t1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusOpen, active.Status)
	table, err := f.tables.GetTable(f.ctx, testVenue, "t1")
	require.NoError(t, err)
	assert.Equal(t, models.TableStatusOccupied, table.Status)
	assert.Empty(t, f.events.finalized)
}

func TestFinalizeIssuesRedemptionCodeWhenLoyaltyEnabled(t *testing.T) {
	f := newOrderFixture(t)
	f.openSession(t, 0)

	f.addItem(t, "t1", "burger", 3)
	order, err := f.orders.Finalize(f.ctx, testVenue, "t1", &FinalizeRequest{
		PaymentMethod:       models.PaymentMethodCredit,
		IssueRedemptionCode: true,
	})
	require.NoError(t, err)
	assert.Empty(t, order.RedemptionCode)

	require.NoError(t, f.settings.Put(f.ctx, testVenue, models.VenueSettings{LoyaltyEnabled: true}))
	f.addItem(t, "t2", "burger", 3)
	order, err = f.orders.Finalize(f.ctx, testVenue, "t2", &FinalizeRequest{
		PaymentMethod:       models.PaymentMethodCredit,
		IssueRedemptionCode: true,
	})
	require.NoError(t, err)
	require.Len(t, order.RedemptionCode, 8)

	code, err := f.loyalty.Redeem(f.ctx, testVenue, order.RedemptionCode, "customer-1")
	require.NoError(t, err)
	assert.Equal(t, int64(30), code.Points)
}

func TestAbandon(t *testing.T) {
	f := newOrderFixture(t)
	f.addItem(t, "t1", "burger", 1)
	require.NoError(t, f.orders.Abandon(f.ctx, testVenue, "t1"))

	table, err := f.tables.GetTable(f.ctx, testVenue, "t1")
	require.NoError(t, err)
	assert.Equal(t, models.TableStatusAvailable, table.Status)

	f.addItem(t, "t2", "burger", 1)
	_, err = f.orders.SendToProduction(f.ctx, testVenue, "t2")
	require.NoError(t, err)
	assert.ErrorIs(t, f.orders.Abandon(f.ctx, testVenue, "t2"), ErrInvalidTransition)
	assert.ErrorIs(t, f.orders.Abandon(f.ctx, testVenue, "t1"), ErrOrderNotFound)
}

func TestRemoveTableWithActiveOrder(t *testing.T) {
	f := newOrderFixture(t)
	f.addItem(t, "t1", "burger", 1)

	assert.ErrorIs(t, f.tables.RemoveTable(f.ctx, testVenue, "t1"), ErrTableOccupied)
	assert.NoError(t, f.tables.RemoveTable(f.ctx, testVenue, "t2"))
}

func TestListActiveOrders(t *testing.T) {
	f := newOrderFixture(t)
	f.addItem(t, "t2", "burger", 1)
	f.addItem(t, "t1", "burger", 1)

	orders, err := f.orders.ListActive(f.ctx, testVenue)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "t1", orders[0].TableID)
	assert.Equal(t, "t2", orders[1].TableID)
}

func activeOrdersGauge(t *testing.T, venueID string) float64 {
	t.Helper()
	var metric dto.Metric
	require.NoError(t, util.ActiveOrders.WithLabelValues(venueID).Write(&metric))
	return metric.GetGauge().GetValue()
}

func TestWatchActiveOrdersFollowsChanges(t *testing.T) {
	f := newOrderFixture(t)
	stop := f.orders.WatchActiveOrders()
	defer stop()

	f.addItem(t, "t1", "burger", 1)
	f.addItem(t, "t2", "soda", 1)
	assert.Equal(t, 2.0, activeOrdersGauge(t, testVenue))

	require.NoError(t, f.orders.Abandon(f.ctx, testVenue, "t1"))
	assert.Equal(t, 1.0, activeOrdersGauge(t, testVenue))

	// written by another instance and delivered over the change relay
	remote := store.NewDocuments(f.kv)
	require.NoError(t, remote.Save(f.ctx, testVenue, store.TopicOrders, map[string]*models.Order{}))
	assert.Equal(t, 1.0, activeOrdersGauge(t, testVenue))
	f.deps.Docs.Dispatch(f.ctx, testVenue, store.TopicOrders)
	assert.Equal(t, 0.0, activeOrdersGauge(t, testVenue))
}
