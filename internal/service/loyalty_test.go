package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"venue-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sequenceCodes struct {
	codes []string
}

func (s *sequenceCodes) NewCode() string {
	code := s.codes[0]
	s.codes = s.codes[1:]
	return code
}

func issueCode(t *testing.T, f *fixture, orderRef string, total int64) *models.RedemptionCode {
	t.Helper()
	var code *models.RedemptionCode
	err := f.deps.withVenue(f.ctx, testVenue, func(ctx context.Context) error {
		var err error
		code, err = f.loyalty.issue(ctx, testVenue, orderRef, total)
		return err
	})
	require.NoError(t, err)
	return code
}

func TestLoyaltyIssueAndRedeem(t *testing.T) {
	f := newFixture(t)
	f.loyalty = NewLoyalty(f.deps, &sequenceCodes{codes: []string{"AAAA1111", "AAAA1111", "BBBB2222"}})

	first := issueCode(t, f, "t1@1", 4599)
	assert.Equal(t, "AAAA1111", first.Code)
	assert.Equal(t, int64(45), first.Points)

	again := issueCode(t, f, "t1@1", 4599)
	assert.Equal(t, first.Code, again.Code)

	// a colliding code is drawn again
	second := issueCode(t, f, "t2@1", 1000)
	assert.Equal(t, "BBBB2222", second.Code)

	redeemed, err := f.loyalty.Redeem(f.ctx, testVenue, "aaaa1111", "customer-1")
	require.NoError(t, err)
	assert.Equal(t, "customer-1", redeemed.RedeemedBy)
	assert.NotNil(t, redeemed.RedeemedAt)

	_, err = f.loyalty.Redeem(f.ctx, testVenue, "AAAA1111", "customer-2")
	assert.ErrorIs(t, err, ErrCodeAlreadyRedeemed)
	_, err = f.loyalty.Redeem(f.ctx, testVenue, "ZZZZ0000", "customer-1")
	assert.ErrorIs(t, err, ErrCodeNotFound)
	_, err = f.loyalty.Redeem(f.ctx, testVenue, "BBBB2222", "")
	assert.ErrorIs(t, err, ErrInvalidCustomer)

	_, err = f.loyalty.Redeem(f.ctx, testVenue, "BBBB2222", "customer-1")
	require.NoError(t, err)

	balance, err := f.loyalty.Balance(f.ctx, testVenue, "customer-1")
	require.NoError(t, err)
	assert.Equal(t, int64(55), balance)
	balance, err = f.loyalty.Balance(f.ctx, testVenue, "customer-2")
	require.NoError(t, err)
	assert.Zero(t, balance)

	assert.Len(t, f.events.redemption, 2)
}

func TestUUIDCodes(t *testing.T) {
	code := UUIDCodes{}.NewCode()
	assert.Len(t, code, 8)
	assert.Regexp(t, "^[0-9A-F]{8}$", code)
}

func TestKitchenBoard(t *testing.T) {
	f := newFixture(t)
	board := NewKitchenBoard(f.deps, 2)
	base := time.Date(2024, 5, 10, 19, 0, 0, 0, time.UTC)

	ticket := func(i int, group string) models.ProductionTicket {
		return models.ProductionTicket{
			ID:              fmt.Sprintf("ticket-%d", i),
			VenueID:         testVenue,
			ProductionGroup: group,
			CreatedAt:       base.Add(time.Duration(i) * time.Minute),
		}
	}

	added, err := board.AddTicket(f.ctx, ticket(1, "Chapa"))
	require.NoError(t, err)
	assert.True(t, added)
	added, err = board.AddTicket(f.ctx, ticket(1, "Chapa"))
	require.NoError(t, err)
	assert.False(t, added)

	for i, group := range []string{"Bar", "Chapa", "Chapa"} {
		_, err := board.AddTicket(f.ctx, ticket(i+2, group))
		require.NoError(t, err)
	}

	chapa, err := board.Tickets(f.ctx, testVenue, "Chapa")
	require.NoError(t, err)
	require.Len(t, chapa, 2)
	assert.Equal(t, "ticket-3", chapa[0].ID)
	assert.Equal(t, "ticket-4", chapa[1].ID)

	all, err := board.Tickets(f.ctx, testVenue, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "ticket-2", all[0].ID)

	require.NoError(t, board.Dismiss(f.ctx, testVenue, "ticket-3"))
	assert.ErrorIs(t, board.Dismiss(f.ctx, testVenue, "ticket-3"), ErrItemNotFound)
	chapa, err = board.Tickets(f.ctx, testVenue, "Chapa")
	require.NoError(t, err)
	assert.Len(t, chapa, 1)
}

func TestBoardSinkFeedsBoard(t *testing.T) {
	f := newOrderFixture(t)
	f.deps.Events = BoardSink{Board: f.board}
	f.addItem(t, "t1", "burger", 1)
	f.addItem(t, "t1", "fries", 1)

	_, err := f.orders.SendToProduction(f.ctx, testVenue, "t1")
	require.NoError(t, err)

	tickets, err := f.board.Tickets(f.ctx, testVenue, "")
	require.NoError(t, err)
	require.Len(t, tickets, 2)
	groups := []string{tickets[0].ProductionGroup, tickets[1].ProductionGroup}
	assert.ElementsMatch(t, []string{"Chapa", "Fritadeira"}, groups)
}
