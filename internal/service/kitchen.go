package service

import (
	"context"
	"sort"

	"venue-service/internal/models"
	"venue-service/internal/store"
	"venue-service/internal/util"

	"go.uber.org/zap"
)

// DefaultBoardSize bounds the tickets kept per production group
const DefaultBoardSize = 200

// KitchenBoard projects production tickets into a per-group station display
type KitchenBoard struct {
	deps        *Deps
	maxPerGroup int
	logger      *zap.Logger
}

// NewKitchenBoard creates a kitchen board keeping at most maxPerGroup tickets per group
func NewKitchenBoard(deps *Deps, maxPerGroup int) *KitchenBoard {
	if maxPerGroup <= 0 {
		maxPerGroup = DefaultBoardSize
	}
	return &KitchenBoard{deps: deps, maxPerGroup: maxPerGroup, logger: util.GetLogger()}
}

// AddTicket appends a ticket to its group. Already known tickets are ignored
// and reported as not added.
func (kb *KitchenBoard) AddTicket(ctx context.Context, ticket models.ProductionTicket) (bool, error) {
	added := false
	err := kb.deps.withVenue(ctx, ticket.VenueID, func(ctx context.Context) error {
		board, err := kb.load(ctx, ticket.VenueID)
		if err != nil {
			return err
		}
		group := ticket.ProductionGroup
		if group == "" {
			group = defaultProductionGroup
		}
		for _, t := range board[group] {
			if t.ID == ticket.ID {
				return nil
			}
		}

		tickets := append(board[group], ticket)
		if len(tickets) > kb.maxPerGroup {
			tickets = tickets[len(tickets)-kb.maxPerGroup:]
		}
		board[group] = tickets
		added = true
		return kb.deps.Docs.Save(ctx, ticket.VenueID, store.TopicKitchenBoard, board)
	})
	if err != nil {
		return false, err
	}
	if added {
		kb.logger.Debug("Ticket added to board",
			zap.String("venue_id", ticket.VenueID),
			zap.String("ticket_id", ticket.ID),
			zap.String("production_group", ticket.ProductionGroup))
	}
	return added, nil
}

// Dismiss removes a ticket once its station is done with it
func (kb *KitchenBoard) Dismiss(ctx context.Context, venueID, ticketID string) error {
	return kb.deps.withVenue(ctx, venueID, func(ctx context.Context) error {
		board, err := kb.load(ctx, venueID)
		if err != nil {
			return err
		}
		for group, tickets := range board {
			for i, t := range tickets {
				if t.ID == ticketID {
					board[group] = append(tickets[:i], tickets[i+1:]...)
					return kb.deps.Docs.Save(ctx, venueID, store.TopicKitchenBoard, board)
				}
			}
		}
		return ErrItemNotFound
	})
}

// Tickets lists the tickets of one group, or of every group when group is empty, oldest first
func (kb *KitchenBoard) Tickets(ctx context.Context, venueID, group string) ([]models.ProductionTicket, error) {
	board, err := kb.load(ctx, venueID)
	if err != nil {
		return nil, err
	}
	if group != "" {
		return board[group], nil
	}
	var all []models.ProductionTicket
	for _, tickets := range board {
		all = append(all, tickets...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		return all[i].ProductionGroup < all[j].ProductionGroup
	})
	return all, nil
}

func (kb *KitchenBoard) load(ctx context.Context, venueID string) (map[string][]models.ProductionTicket, error) {
	board := make(map[string][]models.ProductionTicket)
	if _, err := kb.deps.Docs.Load(ctx, venueID, store.TopicKitchenBoard, &board); err != nil {
		return nil, err
	}
	if board == nil {
		board = make(map[string][]models.ProductionTicket)
	}
	return board, nil
}

// BoardSink feeds production tickets straight into a kitchen board and drops
// every other event. Used when no broker is configured.
type BoardSink struct {
	NopEvents
	Board *KitchenBoard
}

func (s BoardSink) PublishProductionTicket(ctx context.Context, event *models.ProductionTicketEvent) error {
	_, err := s.Board.AddTicket(ctx, event.Ticket)
	return err
}
