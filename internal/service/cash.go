package service

import (
	"context"
	"fmt"
	"strings"

	"venue-service/internal/models"
	"venue-service/internal/store"
	"venue-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// cashBook is the persisted cash document of a venue
type cashBook struct {
	Current *models.CashSession  `json:"current,omitempty"`
	History []models.CashSession `json:"history"`
}

// CashLedger tracks the single open drawer session of a venue
type CashLedger struct {
	deps   *Deps
	logger *zap.Logger
}

// NewCashLedger creates a new cash ledger
func NewCashLedger(deps *Deps) *CashLedger {
	return &CashLedger{deps: deps, logger: util.GetLogger()}
}

// Open starts a session with the given opening float
func (cl *CashLedger) Open(ctx context.Context, venueID, openedBy string, startAmount int64) (*models.CashSession, error) {
	ctx, span := util.StartSpan(ctx, "CashLedger.Open")
	defer span.End()

	if startAmount < 0 {
		return nil, fmt.Errorf("%w: opening float cannot be negative", ErrInvalidAmount)
	}

	var session models.CashSession
	err := cl.deps.withVenue(ctx, venueID, func(ctx context.Context) error {
		book, err := cl.load(ctx, venueID)
		if err != nil {
			return err
		}
		if book.Current != nil {
			return ErrSessionAlreadyOpen
		}
		session = models.CashSession{
			ID:             uuid.New().String(),
			VenueID:        venueID,
			Status:         models.CashSessionOpen,
			OpenedBy:       openedBy,
			OpenedAt:       cl.deps.now(),
			StartAmount:    startAmount,
			Payouts:        []models.Payout{},
			Reinforcements: []models.Reinforcement{},
			Sales:          models.SalesSummary{AppliedOrderIDs: []string{}},
		}
		book.Current = &session
		return cl.save(ctx, venueID, book)
	})
	if err != nil {
		return nil, err
	}

	util.CashSessionsOpenedTotal.Inc()
	cl.logger.Info("Cash session opened",
		zap.String("venue_id", venueID),
		zap.String("session_id", session.ID),
		zap.Int64("start_amount", startAmount))

	event := &models.CashSessionEvent{
		BaseEvent: newBaseEvent(models.EventTypeCashSessionOpened, venueID, session.OpenedAt),
		SessionID: session.ID,
	}
	if err := cl.deps.Events.PublishCashSession(ctx, event); err != nil {
		cl.logger.Error("Failed to publish CashSessionOpened event", zap.Error(err))
	}
	return &session, nil
}

// Current returns the open session
func (cl *CashLedger) Current(ctx context.Context, venueID string) (*models.CashSession, error) {
	book, err := cl.load(ctx, venueID)
	if err != nil {
		return nil, err
	}
	if book.Current == nil {
		return nil, ErrNoOpenSession
	}
	return book.Current, nil
}

// History returns closed sessions, most recent last
func (cl *CashLedger) History(ctx context.Context, venueID string) ([]models.CashSession, error) {
	book, err := cl.load(ctx, venueID)
	if err != nil {
		return nil, err
	}
	return book.History, nil
}

// RecordSale adds a sale to the open session. An order id is applied at most once per session.
func (cl *CashLedger) RecordSale(ctx context.Context, venueID, orderID, method string, amount int64) (*models.CashSession, error) {
	ctx, span := util.StartSpan(ctx, "CashLedger.RecordSale")
	defer span.End()

	var session *models.CashSession
	err := cl.deps.withVenue(ctx, venueID, func(ctx context.Context) error {
		var err error
		session, err = cl.recordSale(ctx, venueID, orderID, method, amount)
		return err
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// recordSale expects the venue lock to be held
func (cl *CashLedger) recordSale(ctx context.Context, venueID, orderID, method string, amount int64) (*models.CashSession, error) {
	if !models.ValidPaymentMethod(method) {
		return nil, ErrInvalidPaymentMethod
	}
	if amount < 0 {
		return nil, ErrInvalidAmount
	}

	book, err := cl.load(ctx, venueID)
	if err != nil {
		return nil, err
	}
	if book.Current == nil {
		cl.logger.Warn("Sale not recorded, no open cash session",
			zap.String("venue_id", venueID),
			zap.String("order_id", orderID))
		return nil, ErrNoOpenSession
	}
	session := book.Current
	if session.Sales.Applied(orderID) {
		return nil, ErrSaleAlreadyRecorded
	}

	session.Sales.ByMethod.Add(method, amount)
	session.Sales.Total += amount
	session.Sales.AppliedOrderIDs = append(session.Sales.AppliedOrderIDs, orderID)
	if err := cl.save(ctx, venueID, book); err != nil {
		return nil, err
	}

	util.SalesAmountTotal.WithLabelValues(method).Add(float64(amount))
	return session, nil
}

// AddPayout records cash removed from the drawer
func (cl *CashLedger) AddPayout(ctx context.Context, venueID string, amount int64, reason, recipient string) (*models.Payout, error) {
	ctx, span := util.StartSpan(ctx, "CashLedger.AddPayout")
	defer span.End()

	if err := validateMovement(amount, reason); err != nil {
		return nil, err
	}

	payout := models.Payout{
		ID:        uuid.New().String(),
		Amount:    amount,
		Reason:    reason,
		Timestamp: cl.deps.now(),
		Recipient: recipient,
	}
	err := cl.withOpenSession(ctx, venueID, func(session *models.CashSession) {
		session.Payouts = append(session.Payouts, payout)
	})
	if err != nil {
		return nil, err
	}

	util.CashMovementsTotal.WithLabelValues("payout").Inc()
	return &payout, nil
}

// AddReinforcement records cash added to the drawer
func (cl *CashLedger) AddReinforcement(ctx context.Context, venueID string, amount int64, reason, addedBy string) (*models.Reinforcement, error) {
	ctx, span := util.StartSpan(ctx, "CashLedger.AddReinforcement")
	defer span.End()

	if err := validateMovement(amount, reason); err != nil {
		return nil, err
	}

	reinforcement := models.Reinforcement{
		ID:        uuid.New().String(),
		Amount:    amount,
		Reason:    reason,
		Timestamp: cl.deps.now(),
		AddedBy:   addedBy,
	}
	err := cl.withOpenSession(ctx, venueID, func(session *models.CashSession) {
		session.Reinforcements = append(session.Reinforcements, reinforcement)
	})
	if err != nil {
		return nil, err
	}

	util.CashMovementsTotal.WithLabelValues("reinforcement").Inc()
	return &reinforcement, nil
}

// RecordCancellation adds the cancelled quantity to the session counter
func (cl *CashLedger) RecordCancellation(ctx context.Context, venueID string, quantity int) error {
	return cl.deps.withVenue(ctx, venueID, func(ctx context.Context) error {
		return cl.recordCancellation(ctx, venueID, quantity)
	})
}

// recordCancellation expects the venue lock to be held
func (cl *CashLedger) recordCancellation(ctx context.Context, venueID string, quantity int) error {
	book, err := cl.load(ctx, venueID)
	if err != nil {
		return err
	}
	if book.Current == nil {
		return ErrNoOpenSession
	}
	book.Current.CancellationCount += quantity
	return cl.save(ctx, venueID, book)
}

// Close stamps the closer and counted amount and moves the session to history
func (cl *CashLedger) Close(ctx context.Context, venueID, closedBy string, endAmount int64) (*models.CashReport, error) {
	ctx, span := util.StartSpan(ctx, "CashLedger.Close")
	defer span.End()

	if endAmount < 0 {
		return nil, fmt.Errorf("%w: counted amount cannot be negative", ErrInvalidAmount)
	}

	var closed models.CashSession
	err := cl.deps.withVenue(ctx, venueID, func(ctx context.Context) error {
		book, err := cl.load(ctx, venueID)
		if err != nil {
			return err
		}
		if book.Current == nil {
			return ErrNoOpenSession
		}
		closedAt := cl.deps.now()
		counted := endAmount

		closed = *book.Current
		closed.Status = models.CashSessionClosed
		closed.ClosedBy = closedBy
		closed.ClosedAt = &closedAt
		closed.EndAmount = &counted

		book.History = append(book.History, closed)
		book.Current = nil
		return cl.save(ctx, venueID, book)
	})
	if err != nil {
		return nil, err
	}

	report := Reconcile(&closed)
	util.CashSessionsClosedTotal.WithLabelValues(report.Balance).Inc()
	cl.logger.Info("Cash session closed",
		zap.String("venue_id", venueID),
		zap.String("session_id", closed.ID),
		zap.Int64("expected_cash", report.ExpectedCash),
		zap.Int64("end_amount", endAmount),
		zap.String("balance", report.Balance))

	event := &models.CashSessionEvent{
		BaseEvent:    newBaseEvent(models.EventTypeCashSessionClosed, venueID, *closed.ClosedAt),
		SessionID:    closed.ID,
		ExpectedCash: report.ExpectedCash,
		Difference:   *report.Difference,
	}
	if err := cl.deps.Events.PublishCashSession(ctx, event); err != nil {
		cl.logger.Error("Failed to publish CashSessionClosed event", zap.Error(err))
	}
	return &report, nil
}

// Report reconciles the open session when sessionID is empty, otherwise a closed one
func (cl *CashLedger) Report(ctx context.Context, venueID, sessionID string) (*models.CashReport, error) {
	book, err := cl.load(ctx, venueID)
	if err != nil {
		return nil, err
	}
	if sessionID == "" || (book.Current != nil && book.Current.ID == sessionID) {
		if book.Current == nil {
			return nil, ErrNoOpenSession
		}
		report := Reconcile(book.Current)
		return &report, nil
	}
	for i := range book.History {
		if book.History[i].ID == sessionID {
			report := Reconcile(&book.History[i])
			return &report, nil
		}
	}
	return nil, ErrSessionNotFound
}

// Reconcile computes the drawer reconciliation of a session:
// expected = cash sales + reinforcements - payouts, difference = counted - expected.
// The opening float is reported but deliberately left out of the expected cash.
func Reconcile(session *models.CashSession) models.CashReport {
	reinforcements := session.TotalReinforcements()
	payouts := session.TotalPayouts()
	expected := session.Sales.ByMethod.Cash + reinforcements - payouts

	report := models.CashReport{
		SessionID:           session.ID,
		Status:              session.Status,
		StartAmount:         session.StartAmount,
		SalesTotal:          session.Sales.Total,
		SalesByMethod:       session.Sales.ByMethod,
		CashSales:           session.Sales.ByMethod.Cash,
		TotalReinforcements: reinforcements,
		TotalPayouts:        payouts,
		ExpectedCash:        expected,
		CancellationCount:   session.CancellationCount,
	}
	if session.EndAmount != nil {
		end := *session.EndAmount
		difference := end - expected
		report.EndAmount = &end
		report.Difference = &difference
		switch {
		case difference == 0:
			report.Balance = models.BalanceBalanced
		case difference > 0:
			report.Balance = models.BalanceSurplus
		default:
			report.Balance = models.BalanceShortage
		}
	}
	return report
}

// openSession returns the open session; it expects the venue lock to be held
func (cl *CashLedger) openSession(ctx context.Context, venueID string) (*models.CashSession, error) {
	book, err := cl.load(ctx, venueID)
	if err != nil {
		return nil, err
	}
	if book.Current == nil {
		return nil, ErrNoOpenSession
	}
	return book.Current, nil
}

func (cl *CashLedger) withOpenSession(ctx context.Context, venueID string, mutate func(session *models.CashSession)) error {
	return cl.deps.withVenue(ctx, venueID, func(ctx context.Context) error {
		book, err := cl.load(ctx, venueID)
		if err != nil {
			return err
		}
		if book.Current == nil {
			return ErrNoOpenSession
		}
		mutate(book.Current)
		return cl.save(ctx, venueID, book)
	})
}

func (cl *CashLedger) load(ctx context.Context, venueID string) (*cashBook, error) {
	book := &cashBook{}
	if _, err := cl.deps.Docs.Load(ctx, venueID, store.TopicCashSessions, book); err != nil {
		return nil, err
	}
	return book, nil
}

func (cl *CashLedger) save(ctx context.Context, venueID string, book *cashBook) error {
	return cl.deps.Docs.Save(ctx, venueID, store.TopicCashSessions, book)
}

func validateMovement(amount int64, reason string) error {
	if amount <= 0 {
		return fmt.Errorf("%w: must be greater than zero", ErrInvalidAmount)
	}
	if strings.TrimSpace(reason) == "" {
		return ErrReasonRequired
	}
	return nil
}
