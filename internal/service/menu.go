package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"

	"venue-service/internal/models"
	"venue-service/internal/store"
	"venue-service/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// MenuLookup resolves menu items for pricing and production routing
type MenuLookup interface {
	FindByID(ctx context.Context, venueID, itemID string) (*models.MenuItem, bool, error)
}

// EmployeeDirectory authorizes staff actions
type EmployeeDirectory interface {
	VerifyCredentials(ctx context.Context, venueID, login, password string) (*models.Employee, error)
}

// Menu manages venue menu items
type Menu struct {
	deps   *Deps
	logger *zap.Logger
}

// NewMenu creates a new menu service
func NewMenu(deps *Deps) *Menu {
	return &Menu{deps: deps, logger: util.GetLogger()}
}

// ListMenu returns every menu item of the venue
func (m *Menu) ListMenu(ctx context.Context, venueID string) ([]models.MenuItem, error) {
	var items []models.MenuItem
	if _, err := m.deps.Docs.Load(ctx, venueID, store.TopicMenu, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// FindByID looks up a menu item
func (m *Menu) FindByID(ctx context.Context, venueID, itemID string) (*models.MenuItem, bool, error) {
	items, err := m.ListMenu(ctx, venueID)
	if err != nil {
		return nil, false, err
	}
	for i := range items {
		if items[i].ID == itemID {
			return &items[i], true, nil
		}
	}
	return nil, false, nil
}

// UpsertMenuItem creates or replaces a menu item. Unparsable prices are stored
// as given and the item is treated as unpriced.
func (m *Menu) UpsertMenuItem(ctx context.Context, venueID string, item models.MenuItem) (*models.MenuItem, error) {
	if strings.TrimSpace(item.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidMenuItem)
	}
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if _, ok := ParsePrice(item.Price); !ok {
		m.logger.Warn("Menu item price is not numeric",
			zap.String("venue_id", venueID),
			zap.String("item_id", item.ID),
			zap.String("price", item.Price))
	}

	err := m.deps.withVenue(ctx, venueID, func(ctx context.Context) error {
		items, err := m.ListMenu(ctx, venueID)
		if err != nil {
			return err
		}
		replaced := false
		for i := range items {
			if items[i].ID == item.ID {
				items[i] = item
				replaced = true
				break
			}
		}
		if !replaced {
			items = append(items, item)
		}
		return m.deps.Docs.Save(ctx, venueID, store.TopicMenu, items)
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// ParsePrice converts a textual price such as "R$ 1.234,56" to cents.
// A comma is the decimal separator; without one, a dot followed by exactly
// three digits is read as a thousands separator.
func ParsePrice(text string) (int64, bool) {
	var b strings.Builder
	for _, r := range text {
		if (r >= '0' && r <= '9') || r == ',' || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return 0, false
	}

	if strings.Contains(cleaned, ",") {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	} else if dot := strings.LastIndex(cleaned, "."); dot >= 0 && len(cleaned)-dot-1 == 3 {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
	}

	value, err := decimal.NewFromString(cleaned)
	if err != nil || value.IsNegative() {
		return 0, false
	}
	return value.Shift(2).Round(0).IntPart(), true
}

// Employees manages the staff roster of a venue
type Employees struct {
	deps   *Deps
	logger *zap.Logger
}

// NewEmployees creates a new employee directory
func NewEmployees(deps *Deps) *Employees {
	return &Employees{deps: deps, logger: util.GetLogger()}
}

// ListEmployees returns the roster without passwords
func (e *Employees) ListEmployees(ctx context.Context, venueID string) ([]models.Employee, error) {
	employees, err := e.load(ctx, venueID)
	if err != nil {
		return nil, err
	}
	for i := range employees {
		employees[i].Password = ""
	}
	return employees, nil
}

// UpsertEmployee creates or replaces an employee by login. Passwords are stored as bcrypt hashes.
func (e *Employees) UpsertEmployee(ctx context.Context, venueID string, employee models.Employee) error {
	if strings.TrimSpace(employee.Login) == "" || employee.Password == "" {
		return fmt.Errorf("%w: login and password are required", ErrInvalidEmployee)
	}
	if !isBcryptHash(employee.Password) {
		hash, err := bcrypt.GenerateFromPassword([]byte(employee.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		employee.Password = string(hash)
	}

	return e.deps.withVenue(ctx, venueID, func(ctx context.Context) error {
		employees, err := e.load(ctx, venueID)
		if err != nil {
			return err
		}
		replaced := false
		for i := range employees {
			if employees[i].Login == employee.Login {
				employees[i] = employee
				replaced = true
				break
			}
		}
		if !replaced {
			employees = append(employees, employee)
		}
		return e.deps.Docs.Save(ctx, venueID, store.TopicEmployees, employees)
	})
}

// VerifyCredentials returns the employee matching login and password.
// Any mismatch yields ErrInvalidCredentials without saying which field was wrong.
func (e *Employees) VerifyCredentials(ctx context.Context, venueID, login, password string) (*models.Employee, error) {
	employees, err := e.load(ctx, venueID)
	if err != nil {
		return nil, err
	}
	for i := range employees {
		emp := employees[i]
		if emp.Login != login {
			continue
		}
		if passwordMatches(emp.Password, password) {
			emp.Password = ""
			return &emp, nil
		}
	}
	util.CancellationAuthFailedTotal.Inc()
	return nil, ErrInvalidCredentials
}

func (e *Employees) load(ctx context.Context, venueID string) ([]models.Employee, error) {
	var employees []models.Employee
	if _, err := e.deps.Docs.Load(ctx, venueID, store.TopicEmployees, &employees); err != nil {
		return nil, err
	}
	return employees, nil
}

func isBcryptHash(value string) bool {
	return strings.HasPrefix(value, "$2a$") || strings.HasPrefix(value, "$2b$") || strings.HasPrefix(value, "$2y$")
}

// passwordMatches accepts bcrypt hashes and legacy plain-text records
func passwordMatches(stored, given string) bool {
	if isBcryptHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(given)) == nil
	}
	return stored != "" && subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}
