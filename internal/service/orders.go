package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"venue-service/internal/models"
	"venue-service/internal/store"
	"venue-service/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const defaultProductionGroup = "default"

// OrderService drives the active order of each table from the first item to payment
type OrderService struct {
	deps              *Deps
	menu              MenuLookup
	employees         EmployeeDirectory
	tables            *TableRegistry
	cash              *CashLedger
	loyalty           *Loyalty
	settings          *Settings
	serviceFeePercent int64
	logger            *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(
	deps *Deps,
	menu MenuLookup,
	employees EmployeeDirectory,
	tables *TableRegistry,
	cash *CashLedger,
	loyalty *Loyalty,
	settings *Settings,
	serviceFeePercent int,
) *OrderService {
	return &OrderService{
		deps:              deps,
		menu:              menu,
		employees:         employees,
		tables:            tables,
		cash:              cash,
		loyalty:           loyalty,
		settings:          settings,
		serviceFeePercent: int64(serviceFeePercent),
		logger:            util.GetLogger(),
	}
}

// AddItemRequest represents a request to add a menu item to a table
type AddItemRequest struct {
	ItemID   string `json:"item_id" binding:"required"`
	Quantity int    `json:"quantity" binding:"omitempty,min=1"`
}

// FinalizeRequest represents the payment of an order
type FinalizeRequest struct {
	PaymentMethod       string `json:"payment_method" binding:"required,paymentmethod"`
	ServiceFee          bool   `json:"service_fee"`
	CPF                 string `json:"cpf,omitempty"`
	CashTendered        int64  `json:"cash_tendered,omitempty" binding:"omitempty,min=0"`
	IssueRedemptionCode bool   `json:"issue_redemption_code"`
}

// Bill is the priced view of an order
type Bill struct {
	OrderID    string   `json:"order_id"`
	TableID    string   `json:"table_id"`
	Subtotal   int64    `json:"subtotal"`
	ServiceFee int64    `json:"service_fee"`
	Total      int64    `json:"total"`
	Unpriced   []string `json:"unpriced,omitempty"`
}

// AddItem appends a new draft instance to the table's order, opening the order
// when the table has none. Identical menu items are never merged.
func (s *OrderService) AddItem(ctx context.Context, venueID, tableID string, req *AddItemRequest) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.AddItem")
	defer span.End()

	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 0 {
		return nil, ErrInvalidQuantity
	}

	var order *models.Order
	err := s.deps.withVenue(ctx, venueID, func(ctx context.Context) error {
		if _, err := s.tables.GetTable(ctx, venueID, tableID); err != nil {
			return err
		}
		menuItem, found, err := s.menu.FindByID(ctx, venueID, req.ItemID)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%w: %s", ErrMenuItemNotFound, req.ItemID)
		}

		orders, err := loadActiveOrders(ctx, s.deps.Docs, venueID)
		if err != nil {
			return err
		}
		now := s.deps.now()
		order = orders[tableID]
		if order == nil {
			order = &models.Order{
				ID:        tableID,
				TableID:   tableID,
				VenueID:   venueID,
				Items:     []models.OrderItem{},
				Status:    models.OrderStatusOpen,
				CreatedAt: now,
			}
			orders[tableID] = order
		}
		if order.Status == models.OrderStatusAwaitingPayment {
			order.Status = models.OrderStatusOpen
		}

		order.Items = append(order.Items, models.OrderItem{
			ItemID:          req.ItemID,
			Quantity:        quantity,
			Status:          models.ItemStatusDraft,
			ProductionGroup: menuItem.ProductionGroup,
			CreatedAt:       nextItemTime(order, now),
		})

		if err := saveActiveOrders(ctx, s.deps.Docs, venueID, orders); err != nil {
			return err
		}
		return s.tables.setStatus(ctx, venueID, tableID, models.TableStatusOccupied)
	})
	if err != nil {
		return nil, err
	}

	util.OrderItemsAddedTotal.Inc()
	s.logger.Debug("Item added",
		zap.String("venue_id", venueID),
		zap.String("table_id", tableID),
		zap.String("item_id", req.ItemID),
		zap.Int("quantity", quantity))
	return order, nil
}

// AdjustQuantity applies delta to a draft item; reaching zero removes it
func (s *OrderService) AdjustQuantity(ctx context.Context, venueID, tableID string, key int64, delta int) (*models.Order, error) {
	if delta == 0 {
		return nil, ErrInvalidQuantity
	}
	return s.mutateOrder(ctx, venueID, tableID, func(order *models.Order) error {
		item, i := order.FindItem(key)
		if item == nil {
			return ErrItemNotFound
		}
		if item.Status != models.ItemStatusDraft {
			return fmt.Errorf("%w: only draft items can change quantity", ErrInvalidTransition)
		}
		item.Quantity += delta
		if item.Quantity <= 0 {
			order.Items = append(order.Items[:i], order.Items[i+1:]...)
		}
		return nil
	})
}

// RemoveDraftItem drops a draft item from the order
func (s *OrderService) RemoveDraftItem(ctx context.Context, venueID, tableID string, key int64) (*models.Order, error) {
	return s.mutateOrder(ctx, venueID, tableID, func(order *models.Order) error {
		item, i := order.FindItem(key)
		if item == nil {
			return ErrItemNotFound
		}
		if item.Status != models.ItemStatusDraft {
			return fmt.Errorf("%w: only draft items can be removed, cancel instead", ErrInvalidTransition)
		}
		order.Items = append(order.Items[:i], order.Items[i+1:]...)
		return nil
	})
}

// SendToProduction queues every draft item and emits one ticket per production group
func (s *OrderService) SendToProduction(ctx context.Context, venueID, tableID string) ([]models.ProductionTicket, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.SendToProduction")
	defer span.End()

	var tickets []models.ProductionTicket
	_, err := s.mutateOrder(ctx, venueID, tableID, func(order *models.Order) error {
		if order.CountItems(models.ItemStatusDraft) == 0 {
			return ErrNoDraftItems
		}
		var err error
		tickets, err = s.queueDrafts(ctx, order)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publishTickets(ctx, tickets)
	return tickets, nil
}

// MarkReady moves queued items to ready. Either every key moves or none does.
func (s *OrderService) MarkReady(ctx context.Context, venueID, tableID string, keys []int64) (*models.Order, error) {
	return s.advance(ctx, venueID, tableID, keys, models.ItemStatusQueued, models.ItemStatusReady)
}

// MarkDelivered moves ready items to delivered. Either every key moves or none does.
func (s *OrderService) MarkDelivered(ctx context.Context, venueID, tableID string, keys []int64) (*models.Order, error) {
	return s.advance(ctx, venueID, tableID, keys, models.ItemStatusReady, models.ItemStatusDelivered)
}

func (s *OrderService) advance(ctx context.Context, venueID, tableID string, keys []int64, from, to string) (*models.Order, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: no items selected", ErrItemNotFound)
	}
	return s.mutateOrder(ctx, venueID, tableID, func(order *models.Order) error {
		indexes := make([]int, 0, len(keys))
		for _, key := range keys {
			item, i := order.FindItem(key)
			if item == nil {
				return fmt.Errorf("%w: %d", ErrItemNotFound, key)
			}
			if item.Status != from {
				return fmt.Errorf("%w: item %d is %s, expected %s", ErrInvalidTransition, key, item.Status, from)
			}
			indexes = append(indexes, i)
		}
		for _, i := range indexes {
			order.Items[i].Status = to
		}
		return nil
	})
}

// CancelItem cancels a queued or ready item after checking the employee's credentials.
// Invalid credentials leave the order untouched.
func (s *OrderService) CancelItem(ctx context.Context, venueID, tableID string, key int64, login, password string) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CancelItem")
	defer span.End()

	employee, err := s.employees.VerifyCredentials(ctx, venueID, login, password)
	if err != nil {
		s.logger.Warn("Cancellation rejected",
			zap.String("venue_id", venueID),
			zap.String("table_id", tableID),
			zap.Error(err))
		return nil, err
	}
	cancelledBy := employee.Name
	if cancelledBy == "" {
		cancelledBy = employee.Login
	}

	var cancelled models.OrderItem
	order, err := s.mutateOrderThen(ctx, venueID, tableID, func(order *models.Order) error {
		item, _ := order.FindItem(key)
		if item == nil {
			return ErrItemNotFound
		}
		if item.Status != models.ItemStatusQueued && item.Status != models.ItemStatusReady {
			return fmt.Errorf("%w: only queued or ready items can be cancelled", ErrInvalidTransition)
		}
		now := s.deps.now()
		item.Status = models.ItemStatusCancelled
		item.CancelledBy = cancelledBy
		item.CancelledAt = &now
		cancelled = *item
		return nil
	}, func(ctx context.Context) error {
		// counted only once the cancelled item is saved
		err := s.cash.recordCancellation(ctx, venueID, cancelled.Quantity)
		if errors.Is(err, ErrNoOpenSession) {
			s.logger.Warn("Cancellation not counted, no open cash session",
				zap.String("venue_id", venueID),
				zap.String("table_id", tableID))
			return nil
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	util.OrderItemsCancelledTotal.Inc()
	s.logger.Info("Item cancelled",
		zap.String("venue_id", venueID),
		zap.String("table_id", tableID),
		zap.String("item_id", cancelled.ItemID),
		zap.String("cancelled_by", cancelledBy))

	event := &models.ItemCancelledEvent{
		BaseEvent:   newBaseEvent(models.EventTypeItemCancelled, venueID, *cancelled.CancelledAt),
		OrderID:     order.ID,
		TableID:     tableID,
		ItemID:      cancelled.ItemID,
		Quantity:    cancelled.Quantity,
		CancelledBy: cancelledBy,
	}
	if err := s.deps.Events.PublishItemCancelled(ctx, event); err != nil {
		s.logger.Error("Failed to publish ItemCancelled event", zap.Error(err))
	}
	return order, nil
}

// RequestBill flushes remaining drafts to production and waits for payment
func (s *OrderService) RequestBill(ctx context.Context, venueID, tableID string, withServiceFee bool) (*Bill, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.RequestBill")
	defer span.End()

	var tickets []models.ProductionTicket
	var bill *Bill
	_, err := s.mutateOrder(ctx, venueID, tableID, func(order *models.Order) error {
		var err error
		if tickets, err = s.queueDrafts(ctx, order); err != nil {
			return err
		}
		order.Status = models.OrderStatusAwaitingPayment
		bill, err = s.computeBill(ctx, order, withServiceFee)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publishTickets(ctx, tickets)
	return bill, nil
}

// Bill prices the active order of a table without changing it
func (s *OrderService) Bill(ctx context.Context, venueID, tableID string, withServiceFee bool) (*Bill, error) {
	order, err := s.GetOrder(ctx, venueID, tableID)
	if err != nil {
		return nil, err
	}
	return s.computeBill(ctx, order, withServiceFee)
}

// Finalize charges the table's order, records the sale in the open cash session,
// moves the order to history and releases the table.
//
// An order id is charged at most once per cash session. Finalizing an order whose
// id the open session already recorded fails with ErrOrderAlreadyFinalized and
// changes nothing.
func (s *OrderService) Finalize(ctx context.Context, venueID, tableID string, req *FinalizeRequest) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.Finalize")
	defer span.End()

	if !models.ValidPaymentMethod(req.PaymentMethod) {
		return nil, ErrInvalidPaymentMethod
	}
	if req.CashTendered < 0 {
		return nil, ErrInvalidAmount
	}

	var finalized models.Order
	var tickets []models.ProductionTicket
	err := s.deps.withVenue(ctx, venueID, func(ctx context.Context) error {
		orders, err := loadActiveOrders(ctx, s.deps.Docs, venueID)
		if err != nil {
			return err
		}
		order := orders[tableID]
		if order == nil || order.Status == models.OrderStatusFinalized {
			history, err := s.loadHistory(ctx, venueID)
			if err != nil {
				return err
			}
			for _, h := range history {
				if h.ID == tableID {
					return ErrOrderAlreadyFinalized
				}
			}
			return ErrOrderNotFound
		}

		session, err := s.cash.openSession(ctx, venueID)
		if err != nil {
			return err
		}
		if session.Sales.Applied(order.ID) {
			return ErrOrderAlreadyFinalized
		}

		if tickets, err = s.queueDrafts(ctx, order); err != nil {
			return err
		}
		bill, err := s.computeBill(ctx, order, req.ServiceFee)
		if err != nil {
			return err
		}

		var change int64
		if req.PaymentMethod == models.PaymentMethodCash && req.CashTendered > 0 {
			if req.CashTendered < bill.Total {
				return ErrInsufficientCashTendered
			}
			change = req.CashTendered - bill.Total
		}

		if _, err := s.cash.recordSale(ctx, venueID, order.ID, req.PaymentMethod, bill.Total); err != nil {
			if errors.Is(err, ErrSaleAlreadyRecorded) {
				return ErrOrderAlreadyFinalized
			}
			return err
		}

		if req.IssueRedemptionCode {
			settings, err := s.settings.Get(ctx, venueID)
			if err != nil {
				return err
			}
			if settings.LoyaltyEnabled {
				code, err := s.loyalty.issue(ctx, venueID, session.ID+"/"+order.ID, bill.Total)
				if err != nil {
					return err
				}
				order.RedemptionCode = code.Code
			}
		}

		now := s.deps.now()
		order.Status = models.OrderStatusFinalized
		order.PaymentMethod = req.PaymentMethod
		order.Subtotal = bill.Subtotal
		order.ServiceFee = bill.ServiceFee
		order.Total = bill.Total
		order.CPF = req.CPF
		order.CashTendered = req.CashTendered
		order.Change = change
		order.FinalizedAt = &now

		history, err := s.loadHistory(ctx, venueID)
		if err != nil {
			return err
		}
		history = append(history, *order)
		if err := s.deps.Docs.Save(ctx, venueID, store.TopicOrderHistory, history); err != nil {
			return err
		}

		delete(orders, tableID)
		if err := saveActiveOrders(ctx, s.deps.Docs, venueID, orders); err != nil {
			return err
		}
		finalized = *order
		if tableHasActiveOrder(orders, tableID) {
			return nil
		}
		return s.tables.setStatus(ctx, venueID, tableID, models.TableStatusAvailable)
	})
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues(failureReason(err)).Inc()
		s.logger.Warn("Finalize failed",
			zap.String("venue_id", venueID),
			zap.String("table_id", tableID),
			zap.Error(err))
		return nil, err
	}

	util.OrdersFinalizedTotal.WithLabelValues(finalized.PaymentMethod).Inc()
	s.logger.Info("Order finalized",
		zap.String("venue_id", venueID),
		zap.String("order_id", finalized.ID),
		zap.String("payment_method", finalized.PaymentMethod),
		zap.Int64("total", finalized.Total))

	s.publishTickets(ctx, tickets)
	event := &models.OrderFinalizedEvent{
		BaseEvent:     newBaseEvent(models.EventTypeOrderFinalized, venueID, *finalized.FinalizedAt),
		OrderID:       finalized.ID,
		TableID:       finalized.TableID,
		PaymentMethod: finalized.PaymentMethod,
		Total:         finalized.Total,
	}
	if err := s.deps.Events.PublishOrderFinalized(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderFinalized event", zap.Error(err))
	}
	return &finalized, nil
}

// Abandon clears an order that never reached production and releases the table
func (s *OrderService) Abandon(ctx context.Context, venueID, tableID string) error {
	return s.deps.withVenue(ctx, venueID, func(ctx context.Context) error {
		orders, err := loadActiveOrders(ctx, s.deps.Docs, venueID)
		if err != nil {
			return err
		}
		order := orders[tableID]
		if order == nil {
			return ErrOrderNotFound
		}
		for _, item := range order.Items {
			if item.Status != models.ItemStatusDraft && item.Status != models.ItemStatusCancelled {
				return fmt.Errorf("%w: order has items in production", ErrInvalidTransition)
			}
		}
		delete(orders, tableID)
		if err := saveActiveOrders(ctx, s.deps.Docs, venueID, orders); err != nil {
			return err
		}
		return s.tables.setStatus(ctx, venueID, tableID, models.TableStatusAvailable)
	})
}

// GetOrder returns the active order of a table
func (s *OrderService) GetOrder(ctx context.Context, venueID, tableID string) (*models.Order, error) {
	orders, err := loadActiveOrders(ctx, s.deps.Docs, venueID)
	if err != nil {
		return nil, err
	}
	order := orders[tableID]
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// WatchActiveOrders keeps the active orders gauge current for every venue whose
// orders change, locally or in another instance. The returned func stops watching.
func (s *OrderService) WatchActiveOrders() func() {
	return s.deps.Docs.OnChange(store.TopicOrders, func(ctx context.Context, venueID, _ string) {
		orders, err := loadActiveOrders(ctx, s.deps.Docs, venueID)
		if err != nil {
			s.logger.Warn("Failed to refresh active orders gauge",
				zap.String("venue_id", venueID),
				zap.Error(err))
			return
		}
		util.ActiveOrders.WithLabelValues(venueID).Set(float64(len(orders)))
	})
}

// ListActive returns every active order sorted by table id
func (s *OrderService) ListActive(ctx context.Context, venueID string) ([]models.Order, error) {
	orders, err := loadActiveOrders(ctx, s.deps.Docs, venueID)
	if err != nil {
		return nil, err
	}
	list := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		list = append(list, *o)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].TableID < list[j].TableID })
	return list, nil
}

// History returns finalized orders, oldest first
func (s *OrderService) History(ctx context.Context, venueID string) ([]models.Order, error) {
	return s.loadHistory(ctx, venueID)
}

func (s *OrderService) mutateOrder(ctx context.Context, venueID, tableID string, fn func(order *models.Order) error) (*models.Order, error) {
	return s.mutateOrderThen(ctx, venueID, tableID, fn, nil)
}

// mutateOrderThen runs after under the same lock once the mutated orders are saved
func (s *OrderService) mutateOrderThen(ctx context.Context, venueID, tableID string, fn func(order *models.Order) error, after func(ctx context.Context) error) (*models.Order, error) {
	var order *models.Order
	err := s.deps.withVenue(ctx, venueID, func(ctx context.Context) error {
		orders, err := loadActiveOrders(ctx, s.deps.Docs, venueID)
		if err != nil {
			return err
		}
		order = orders[tableID]
		if order == nil {
			return ErrOrderNotFound
		}
		if err := fn(order); err != nil {
			return err
		}
		if err := saveActiveOrders(ctx, s.deps.Docs, venueID, orders); err != nil {
			return err
		}
		if after == nil {
			return nil
		}
		return after(ctx)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// queueDrafts moves drafts to queued and builds one ticket per production group,
// in order of first appearance
func (s *OrderService) queueDrafts(ctx context.Context, order *models.Order) ([]models.ProductionTicket, error) {
	var tickets []models.ProductionTicket
	byGroup := make(map[string]int)
	now := s.deps.now()

	for i := range order.Items {
		item := &order.Items[i]
		if item.Status != models.ItemStatusDraft {
			continue
		}
		group := item.ProductionGroup
		if group == "" {
			group = defaultProductionGroup
		}

		line := models.TicketItem{Key: item.Key(), ItemID: item.ItemID, Quantity: item.Quantity}
		menuItem, found, err := s.menu.FindByID(ctx, order.VenueID, item.ItemID)
		if err != nil {
			return nil, err
		}
		if found {
			line.Name = menuItem.Name
		}

		t, ok := byGroup[group]
		if !ok {
			tickets = append(tickets, models.ProductionTicket{
				ID:              uuid.New().String(),
				VenueID:         order.VenueID,
				TableID:         order.TableID,
				OrderID:         order.ID,
				ProductionGroup: group,
				CreatedAt:       now,
			})
			t = len(tickets) - 1
			byGroup[group] = t
		}
		tickets[t].Items = append(tickets[t].Items, line)
		item.Status = models.ItemStatusQueued
	}
	return tickets, nil
}

func (s *OrderService) publishTickets(ctx context.Context, tickets []models.ProductionTicket) {
	for _, ticket := range tickets {
		event := &models.ProductionTicketEvent{
			BaseEvent: newBaseEvent(models.EventTypeProductionTicket, ticket.VenueID, ticket.CreatedAt),
			Ticket:    ticket,
		}
		if err := s.deps.Events.PublishProductionTicket(ctx, event); err != nil {
			util.ProductionTicketsFailedTotal.Inc()
			s.logger.Error("Failed to publish production ticket",
				zap.String("venue_id", ticket.VenueID),
				zap.String("production_group", ticket.ProductionGroup),
				zap.Error(err))
			continue
		}
		util.ProductionTicketsTotal.WithLabelValues(ticket.ProductionGroup).Inc()
	}
}

// computeBill sums unit price times quantity over every item that is not cancelled.
// Items with a missing menu entry or a non-numeric price are skipped.
func (s *OrderService) computeBill(ctx context.Context, order *models.Order, withServiceFee bool) (*Bill, error) {
	bill := &Bill{OrderID: order.ID, TableID: order.TableID}
	for _, item := range order.Items {
		if item.Status == models.ItemStatusCancelled {
			continue
		}
		menuItem, found, err := s.menu.FindByID(ctx, order.VenueID, item.ItemID)
		if err != nil {
			return nil, err
		}
		if !found {
			s.logger.Warn("Menu item missing, skipped in bill",
				zap.String("venue_id", order.VenueID),
				zap.String("item_id", item.ItemID))
			bill.Unpriced = append(bill.Unpriced, item.ItemID)
			continue
		}
		price, ok := ParsePrice(menuItem.Price)
		if !ok {
			s.logger.Warn("Menu item unpriced, skipped in bill",
				zap.String("venue_id", order.VenueID),
				zap.String("item_id", item.ItemID),
				zap.String("price", menuItem.Price))
			bill.Unpriced = append(bill.Unpriced, item.ItemID)
			continue
		}
		bill.Subtotal += price * int64(item.Quantity)
	}

	if withServiceFee {
		bill.ServiceFee = decimal.NewFromInt(bill.Subtotal).
			Mul(decimal.NewFromInt(s.serviceFeePercent)).
			Div(decimal.NewFromInt(100)).
			Round(0).
			IntPart()
	}
	bill.Total = bill.Subtotal + bill.ServiceFee
	return bill, nil
}

func (s *OrderService) loadHistory(ctx context.Context, venueID string) ([]models.Order, error) {
	var history []models.Order
	if _, err := s.deps.Docs.Load(ctx, venueID, store.TopicOrderHistory, &history); err != nil {
		return nil, err
	}
	return history, nil
}

// loadActiveOrders reads the active orders of a venue keyed by table id
func loadActiveOrders(ctx context.Context, docs *store.Documents, venueID string) (map[string]*models.Order, error) {
	orders := make(map[string]*models.Order)
	if _, err := docs.Load(ctx, venueID, store.TopicOrders, &orders); err != nil {
		return nil, err
	}
	if orders == nil {
		orders = make(map[string]*models.Order)
	}
	return orders, nil
}

func saveActiveOrders(ctx context.Context, docs *store.Documents, venueID string, orders map[string]*models.Order) error {
	return docs.Save(ctx, venueID, store.TopicOrders, orders)
}

func tableHasActiveOrder(orders map[string]*models.Order, tableID string) bool {
	for _, o := range orders {
		if o.TableID == tableID && o.Status != models.OrderStatusFinalized {
			return true
		}
	}
	return false
}

// nextItemTime keeps item keys strictly increasing within an order
func nextItemTime(order *models.Order, now time.Time) time.Time {
	for _, item := range order.Items {
		if !now.After(item.CreatedAt) {
			now = item.CreatedAt.Add(time.Nanosecond)
		}
	}
	return now
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrNoOpenSession):
		return "no_session"
	case errors.Is(err, ErrOrderAlreadyFinalized):
		return "already_finalized"
	case errors.Is(err, ErrOrderNotFound):
		return "not_found"
	case errors.Is(err, ErrInsufficientCashTendered):
		return "insufficient_cash"
	case errors.Is(err, ErrVenueBusy):
		return "venue_busy"
	default:
		return "other"
	}
}
