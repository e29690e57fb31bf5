package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"venue-service/internal/models"
	"venue-service/internal/store"
	"venue-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// ReservationBook manages venue reservations and their table assignments
type ReservationBook struct {
	deps   *Deps
	tables *TableRegistry
	logger *zap.Logger
}

// NewReservationBook creates a new reservation book
func NewReservationBook(deps *Deps, tables *TableRegistry) *ReservationBook {
	return &ReservationBook{deps: deps, tables: tables, logger: util.GetLogger()}
}

// CreateReservationRequest represents a request to book a party
type CreateReservationRequest struct {
	PartySize    int    `json:"party_size" binding:"required,min=1"`
	Date         string `json:"date" binding:"required"`
	Time         string `json:"time" binding:"required"`
	Status       string `json:"status,omitempty"`
	CustomerName string `json:"customer_name,omitempty"`
	Contact      string `json:"contact,omitempty"`
}

// Create validates and stores a reservation. Status defaults to pending.
func (rb *ReservationBook) Create(ctx context.Context, venueID string, req *CreateReservationRequest) (*models.Reservation, error) {
	ctx, span := util.StartSpan(ctx, "ReservationBook.Create")
	defer span.End()

	if req.PartySize <= 0 {
		return nil, fmt.Errorf("%w: party size must be positive", ErrInvalidReservation)
	}
	if _, err := time.Parse(dateLayout, req.Date); err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidReservation)
	}
	if _, err := models.ParseClock(req.Time); err != nil {
		return nil, fmt.Errorf("%w: time must be HH:mm", ErrInvalidReservation)
	}
	status := req.Status
	if status == "" {
		status = models.ReservationStatusPending
	}
	if !models.ValidReservationStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidReservation, status)
	}

	reservation := models.Reservation{
		ID:           uuid.New().String(),
		VenueID:      venueID,
		PartySize:    req.PartySize,
		Date:         req.Date,
		Time:         req.Time,
		Status:       status,
		CustomerName: req.CustomerName,
		Contact:      req.Contact,
		CreatedAt:    rb.deps.now(),
	}

	err := rb.deps.withVenue(ctx, venueID, func(ctx context.Context) error {
		reservations, err := rb.load(ctx, venueID)
		if err != nil {
			return err
		}
		reservations = append(reservations, reservation)
		return rb.save(ctx, venueID, reservations)
	})
	if err != nil {
		return nil, err
	}

	rb.logger.Info("Reservation created",
		zap.String("venue_id", venueID),
		zap.String("reservation_id", reservation.ID),
		zap.Int("party_size", reservation.PartySize))
	return &reservation, nil
}

// Get returns one reservation without assignment
func (rb *ReservationBook) Get(ctx context.Context, venueID, reservationID string) (*models.Reservation, error) {
	reservations, err := rb.load(ctx, venueID)
	if err != nil {
		return nil, err
	}
	for i := range reservations {
		if reservations[i].ID == reservationID {
			return &reservations[i], nil
		}
	}
	return nil, ErrReservationNotFound
}

// UpdateStatus moves a reservation to another status
func (rb *ReservationBook) UpdateStatus(ctx context.Context, venueID, reservationID, status string) (*models.Reservation, error) {
	ctx, span := util.StartSpan(ctx, "ReservationBook.UpdateStatus")
	defer span.End()

	if !models.ValidReservationStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidReservation, status)
	}

	var updated models.Reservation
	err := rb.deps.withVenue(ctx, venueID, func(ctx context.Context) error {
		reservations, err := rb.load(ctx, venueID)
		if err != nil {
			return err
		}
		for i := range reservations {
			if reservations[i].ID == reservationID {
				reservations[i].Status = status
				updated = reservations[i]
				return rb.save(ctx, venueID, reservations)
			}
		}
		return ErrReservationNotFound
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes a cancelled reservation. Other reservations must be cancelled first.
func (rb *ReservationBook) Delete(ctx context.Context, venueID, reservationID string) error {
	ctx, span := util.StartSpan(ctx, "ReservationBook.Delete")
	defer span.End()

	return rb.deps.withVenue(ctx, venueID, func(ctx context.Context) error {
		reservations, err := rb.load(ctx, venueID)
		if err != nil {
			return err
		}
		for i := range reservations {
			if reservations[i].ID != reservationID {
				continue
			}
			if reservations[i].Status != models.ReservationStatusCancelled {
				return fmt.Errorf("%w: only cancelled reservations can be deleted", ErrInvalidTransition)
			}
			reservations = append(reservations[:i], reservations[i+1:]...)
			return rb.save(ctx, venueID, reservations)
		}
		return ErrReservationNotFound
	})
}

// ListForDay returns the reservations of a date in time order, annotated with
// the table assignment computed against the current registry.
func (rb *ReservationBook) ListForDay(ctx context.Context, venueID, date string) ([]models.Reservation, error) {
	ctx, span := util.StartSpan(ctx, "ReservationBook.ListForDay")
	defer span.End()

	reservations, err := rb.load(ctx, venueID)
	if err != nil {
		return nil, err
	}

	day := make([]models.Reservation, 0, len(reservations))
	for _, r := range reservations {
		if r.Date == date {
			day = append(day, r)
		}
	}
	sort.SliceStable(day, func(i, j int) bool { return day[i].Time < day[j].Time })

	tables, err := rb.tables.ListTables(ctx, venueID)
	if err != nil {
		return nil, err
	}

	return AssignTables(day, tables).Reservations, nil
}

func (rb *ReservationBook) load(ctx context.Context, venueID string) ([]models.Reservation, error) {
	var reservations []models.Reservation
	if _, err := rb.deps.Docs.Load(ctx, venueID, store.TopicReservations, &reservations); err != nil {
		return nil, err
	}
	return reservations, nil
}

func (rb *ReservationBook) save(ctx context.Context, venueID string, reservations []models.Reservation) error {
	for i := range reservations {
		reservations[i].AssignedTable = ""
	}
	return rb.deps.Docs.Save(ctx, venueID, store.TopicReservations, reservations)
}
