package service

import (
	"sort"
	"strconv"
	"strings"

	"venue-service/internal/models"
	"venue-service/internal/util"

	"go.uber.org/zap"
)

// DiningDuration is the time in minutes every seated party holds its table(s)
const DiningDuration models.ClockTime = 120

// Allocation is the result of seating one day of reservations
type Allocation struct {
	// Reservations in input order, annotated with AssignedTable
	Reservations []models.Reservation
	// Clocks maps table id to the time it becomes available again
	Clocks map[string]models.ClockTime
}

type allocCandidate struct {
	tables   []int
	surplus  int
	priority int
}

func (c allocCandidate) better(other *allocCandidate) bool {
	if other == nil {
		return true
	}
	if c.surplus != other.surplus {
		return c.surplus < other.surplus
	}
	return c.priority < other.priority
}

// AssignTables seats Confirmed reservations greedily in time order.
// A reservation takes the free single table with the smallest capacity surplus
// (then lowest priority value), otherwise the free combinable pair with the
// smallest combined surplus. Reservations that fit nowhere stay unassigned.
func AssignTables(reservations []models.Reservation, tables []models.Table) Allocation {
	logger := util.GetLogger()

	result := Allocation{
		Reservations: make([]models.Reservation, len(reservations)),
		Clocks:       make(map[string]models.ClockTime, len(tables)),
	}
	copy(result.Reservations, reservations)

	for _, t := range tables {
		result.Clocks[t.ID] = 0
	}

	type pending struct {
		pos  int
		time models.ClockTime
	}
	queue := make([]pending, 0, len(reservations))
	for i := range result.Reservations {
		r := &result.Reservations[i]
		r.AssignedTable = ""
		if r.Status != models.ReservationStatusConfirmed {
			continue
		}
		at, err := models.ParseClock(r.Time)
		if err != nil {
			logger.Warn("Skipping reservation with invalid time",
				zap.String("reservation_id", r.ID),
				zap.String("time", r.Time))
			continue
		}
		queue = append(queue, pending{pos: i, time: at})
	}
	sort.SliceStable(queue, func(a, b int) bool {
		return queue[a].time < queue[b].time
	})

	for _, p := range queue {
		r := &result.Reservations[p.pos]
		chosen := bestSingle(tables, result.Clocks, r.PartySize, p.time)
		kind := "single"
		if chosen == nil {
			chosen = bestPair(tables, result.Clocks, r.PartySize, p.time)
			kind = "combined"
		}
		if chosen == nil {
			util.ReservationsUnassignedTotal.Inc()
			continue
		}

		numbers := make([]int, 0, len(chosen.tables))
		for _, ti := range chosen.tables {
			result.Clocks[tables[ti].ID] = p.time + DiningDuration
			numbers = append(numbers, tables[ti].Number)
		}
		r.AssignedTable = formatTableNumbers(numbers)
		util.ReservationsAssignedTotal.WithLabelValues(kind).Inc()
	}

	return result
}

func bestSingle(tables []models.Table, clocks map[string]models.ClockTime, partySize int, at models.ClockTime) *allocCandidate {
	var best *allocCandidate
	for i, t := range tables {
		if t.Capacity < partySize || clocks[t.ID] > at {
			continue
		}
		c := allocCandidate{tables: []int{i}, surplus: t.Capacity - partySize, priority: t.Priority}
		if c.better(best) {
			best = &c
		}
	}
	return best
}

func bestPair(tables []models.Table, clocks map[string]models.ClockTime, partySize int, at models.ClockTime) *allocCandidate {
	var best *allocCandidate
	for i := range tables {
		a := &tables[i]
		if clocks[a.ID] > at {
			continue
		}
		for j, b := range tables {
			if j == i || !a.CanCombineWith(b.ID) || clocks[b.ID] > at {
				continue
			}
			combined := a.Capacity + b.Capacity
			if combined < partySize {
				continue
			}
			c := allocCandidate{
				tables:   []int{i, j},
				surplus:  combined - partySize,
				priority: a.Priority + b.Priority,
			}
			if c.better(best) {
				best = &c
			}
		}
	}
	return best
}

func formatTableNumbers(numbers []int) string {
	sort.Ints(numbers)
	parts := make([]string, len(numbers))
	for i, n := range numbers {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, " + ")
}
