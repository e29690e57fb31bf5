package service

import (
	"context"
	"strings"

	"venue-service/internal/models"
	"venue-service/internal/store"
	"venue-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CodeGenerator mints redemption code strings
type CodeGenerator interface {
	NewCode() string
}

// UUIDCodes generates 8 character upper-case codes from random uuids
type UUIDCodes struct{}

func (UUIDCodes) NewCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
}

// Loyalty issues one-time redemption codes and keeps customer point balances
type Loyalty struct {
	deps   *Deps
	codes  CodeGenerator
	logger *zap.Logger
}

// NewLoyalty creates a loyalty service. A nil generator uses UUIDCodes.
func NewLoyalty(deps *Deps, codes CodeGenerator) *Loyalty {
	if codes == nil {
		codes = UUIDCodes{}
	}
	return &Loyalty{deps: deps, codes: codes, logger: util.GetLogger()}
}

// issue mints a code worth one point per whole currency unit of total.
// An order that already earned a code gets the same code back.
// Expects the venue lock to be held.
func (l *Loyalty) issue(ctx context.Context, venueID, orderRef string, total int64) (*models.RedemptionCode, error) {
	codes, err := l.loadCodes(ctx, venueID)
	if err != nil {
		return nil, err
	}
	for i := range codes {
		if codes[i].OrderRef == orderRef {
			return &codes[i], nil
		}
	}

	code := models.RedemptionCode{
		Code:     l.uniqueCode(codes),
		VenueID:  venueID,
		OrderRef: orderRef,
		Points:   total / 100,
		IssuedAt: l.deps.now(),
	}
	codes = append(codes, code)
	if err := l.deps.Docs.Save(ctx, venueID, store.TopicRedemptionCodes, codes); err != nil {
		return nil, err
	}

	util.RedemptionCodesTotal.WithLabelValues("issued").Inc()
	l.logger.Info("Redemption code issued",
		zap.String("venue_id", venueID),
		zap.String("code", code.Code),
		zap.Int64("points", code.Points))
	return &code, nil
}

// Redeem exchanges a code for points on the customer's balance. A code redeems once.
func (l *Loyalty) Redeem(ctx context.Context, venueID, code, customerID string) (*models.RedemptionCode, error) {
	ctx, span := util.StartSpan(ctx, "Loyalty.Redeem")
	defer span.End()

	code = strings.ToUpper(strings.TrimSpace(code))
	if strings.TrimSpace(customerID) == "" {
		return nil, ErrInvalidCustomer
	}

	var redeemed models.RedemptionCode
	err := l.deps.withVenue(ctx, venueID, func(ctx context.Context) error {
		codes, err := l.loadCodes(ctx, venueID)
		if err != nil {
			return err
		}
		i := -1
		for j := range codes {
			if codes[j].Code == code {
				i = j
				break
			}
		}
		if i < 0 {
			return ErrCodeNotFound
		}
		if codes[i].RedeemedAt != nil {
			return ErrCodeAlreadyRedeemed
		}

		now := l.deps.now()
		codes[i].RedeemedBy = customerID
		codes[i].RedeemedAt = &now
		redeemed = codes[i]

		balances, err := l.loadBalances(ctx, venueID)
		if err != nil {
			return err
		}
		balances[customerID] += codes[i].Points

		if err := l.deps.Docs.Save(ctx, venueID, store.TopicRedemptionCodes, codes); err != nil {
			return err
		}
		return l.deps.Docs.Save(ctx, venueID, store.TopicLoyaltyBalances, balances)
	})
	if err != nil {
		return nil, err
	}

	util.RedemptionCodesTotal.WithLabelValues("redeemed").Inc()
	event := &models.RedemptionRedeemedEvent{
		BaseEvent:  newBaseEvent(models.EventTypeRedemptionRedeemed, venueID, *redeemed.RedeemedAt),
		Code:       redeemed.Code,
		CustomerID: customerID,
		Points:     redeemed.Points,
	}
	if err := l.deps.Events.PublishRedemptionRedeemed(ctx, event); err != nil {
		l.logger.Error("Failed to publish RedemptionRedeemed event", zap.Error(err))
	}
	return &redeemed, nil
}

// Balance returns the points of a customer
func (l *Loyalty) Balance(ctx context.Context, venueID, customerID string) (int64, error) {
	balances, err := l.loadBalances(ctx, venueID)
	if err != nil {
		return 0, err
	}
	return balances[customerID], nil
}

func (l *Loyalty) uniqueCode(existing []models.RedemptionCode) string {
	taken := make(map[string]bool, len(existing))
	for _, c := range existing {
		taken[c.Code] = true
	}
	for {
		code := l.codes.NewCode()
		if !taken[code] {
			return code
		}
	}
}

func (l *Loyalty) loadCodes(ctx context.Context, venueID string) ([]models.RedemptionCode, error) {
	var codes []models.RedemptionCode
	if _, err := l.deps.Docs.Load(ctx, venueID, store.TopicRedemptionCodes, &codes); err != nil {
		return nil, err
	}
	return codes, nil
}

func (l *Loyalty) loadBalances(ctx context.Context, venueID string) (map[string]int64, error) {
	balances := make(map[string]int64)
	if _, err := l.deps.Docs.Load(ctx, venueID, store.TopicLoyaltyBalances, &balances); err != nil {
		return nil, err
	}
	if balances == nil {
		balances = make(map[string]int64)
	}
	return balances, nil
}
