package service

import (
	"context"
	"fmt"
	"sort"

	"venue-service/internal/models"
	"venue-service/internal/store"
	"venue-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TableRegistry manages the physical tables of a venue
type TableRegistry struct {
	deps   *Deps
	logger *zap.Logger
}

// NewTableRegistry creates a new table registry
func NewTableRegistry(deps *Deps) *TableRegistry {
	return &TableRegistry{deps: deps, logger: util.GetLogger()}
}

// ListTables returns the venue tables sorted by number
func (tr *TableRegistry) ListTables(ctx context.Context, venueID string) ([]models.Table, error) {
	return tr.load(ctx, venueID)
}

// GetTable returns a single table
func (tr *TableRegistry) GetTable(ctx context.Context, venueID, tableID string) (*models.Table, error) {
	tables, err := tr.load(ctx, venueID)
	if err != nil {
		return nil, err
	}
	i := findTable(tables, tableID)
	if i < 0 {
		return nil, ErrTableNotFound
	}
	return &tables[i], nil
}

// UpsertTable creates or replaces a table. Combinability is kept symmetric:
// tables listed by the new definition list it back, tables no longer listed drop it.
func (tr *TableRegistry) UpsertTable(ctx context.Context, venueID string, table models.Table) (*models.Table, error) {
	ctx, span := util.StartSpan(ctx, "TableRegistry.UpsertTable")
	defer span.End()

	if table.Number <= 0 || table.Capacity <= 0 {
		return nil, fmt.Errorf("%w: number and capacity must be positive", ErrInvalidTable)
	}
	if table.ID == "" {
		table.ID = uuid.New().String()
	}

	var saved models.Table
	err := tr.deps.withVenue(ctx, venueID, func(ctx context.Context) error {
		tables, err := tr.load(ctx, venueID)
		if err != nil {
			return err
		}

		for _, t := range tables {
			if t.ID != table.ID && t.Number == table.Number {
				return fmt.Errorf("%w: number %d already used", ErrInvalidTable, table.Number)
			}
		}

		i := findTable(tables, table.ID)
		if i >= 0 {
			if table.Status == "" {
				table.Status = tables[i].Status
			}
		} else {
			tables = append(tables, models.Table{ID: table.ID})
			i = len(tables) - 1
		}
		if table.Status == "" {
			table.Status = models.TableStatusAvailable
		}

		wanted := make(map[string]bool)
		for _, id := range table.CombinableWith {
			if id != table.ID && findTable(tables, id) >= 0 {
				wanted[id] = true
			}
		}
		table.CombinableWith = sortedKeys(wanted)
		tables[i] = table

		for j := range tables {
			if j == i {
				continue
			}
			tables[j].CombinableWith = withLink(tables[j].CombinableWith, table.ID, wanted[tables[j].ID])
		}

		saved = table
		return tr.save(ctx, venueID, tables)
	})
	if err != nil {
		return nil, err
	}

	tr.logger.Info("Table saved",
		zap.String("venue_id", venueID),
		zap.String("table_id", saved.ID),
		zap.Int("number", saved.Number))
	return &saved, nil
}

// RemoveTable deletes a table that has no active order
func (tr *TableRegistry) RemoveTable(ctx context.Context, venueID, tableID string) error {
	ctx, span := util.StartSpan(ctx, "TableRegistry.RemoveTable")
	defer span.End()

	return tr.deps.withVenue(ctx, venueID, func(ctx context.Context) error {
		tables, err := tr.load(ctx, venueID)
		if err != nil {
			return err
		}
		i := findTable(tables, tableID)
		if i < 0 {
			return ErrTableNotFound
		}

		orders, err := loadActiveOrders(ctx, tr.deps.Docs, venueID)
		if err != nil {
			return err
		}
		if tableHasActiveOrder(orders, tableID) {
			return ErrTableOccupied
		}

		tables = append(tables[:i], tables[i+1:]...)
		for j := range tables {
			tables[j].CombinableWith = withLink(tables[j].CombinableWith, tableID, false)
		}
		return tr.save(ctx, venueID, tables)
	})
}

// SetCombinable links or unlinks two tables in both directions
func (tr *TableRegistry) SetCombinable(ctx context.Context, venueID, tableA, tableB string, combinable bool) error {
	ctx, span := util.StartSpan(ctx, "TableRegistry.SetCombinable")
	defer span.End()

	if tableA == tableB {
		return fmt.Errorf("%w: a table cannot be combined with itself", ErrInvalidTable)
	}

	return tr.deps.withVenue(ctx, venueID, func(ctx context.Context) error {
		tables, err := tr.load(ctx, venueID)
		if err != nil {
			return err
		}
		a, b := findTable(tables, tableA), findTable(tables, tableB)
		if a < 0 || b < 0 {
			return ErrTableNotFound
		}
		tables[a].CombinableWith = withLink(tables[a].CombinableWith, tableB, combinable)
		tables[b].CombinableWith = withLink(tables[b].CombinableWith, tableA, combinable)
		return tr.save(ctx, venueID, tables)
	})
}

// Occupancy reports, per table id, whether an active order references the table
func (tr *TableRegistry) Occupancy(ctx context.Context, venueID string) (map[string]bool, error) {
	tables, err := tr.load(ctx, venueID)
	if err != nil {
		return nil, err
	}
	orders, err := loadActiveOrders(ctx, tr.deps.Docs, venueID)
	if err != nil {
		return nil, err
	}
	occupancy := make(map[string]bool, len(tables))
	for _, t := range tables {
		occupancy[t.ID] = tableHasActiveOrder(orders, t.ID)
	}
	return occupancy, nil
}

func (tr *TableRegistry) load(ctx context.Context, venueID string) ([]models.Table, error) {
	var tables []models.Table
	if _, err := tr.deps.Docs.Load(ctx, venueID, store.TopicTables, &tables); err != nil {
		return nil, err
	}
	return tables, nil
}

func (tr *TableRegistry) save(ctx context.Context, venueID string, tables []models.Table) error {
	sort.SliceStable(tables, func(i, j int) bool { return tables[i].Number < tables[j].Number })
	return tr.deps.Docs.Save(ctx, venueID, store.TopicTables, tables)
}

// setStatus updates the cached status flag of a table; unknown tables are ignored
func (tr *TableRegistry) setStatus(ctx context.Context, venueID, tableID, status string) error {
	tables, err := tr.load(ctx, venueID)
	if err != nil {
		return err
	}
	i := findTable(tables, tableID)
	if i < 0 || tables[i].Status == status {
		return nil
	}
	tables[i].Status = status
	return tr.save(ctx, venueID, tables)
}

func findTable(tables []models.Table, tableID string) int {
	for i := range tables {
		if tables[i].ID == tableID {
			return i
		}
	}
	return -1
}

func withLink(links []string, id string, present bool) []string {
	out := make([]string, 0, len(links)+1)
	found := false
	for _, l := range links {
		if l == id {
			found = true
			if !present {
				continue
			}
		}
		out = append(out, l)
	}
	if present && !found {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
