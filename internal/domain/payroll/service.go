package payroll

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"hradmin/internal/apperr"
	"hradmin/internal/platform/db"
	"hradmin/internal/platform/logger"
)

type Service struct {
	Store StoreAPI
	Now   func() time.Time
}

func NewService(store StoreAPI) *Service {
	return &Service{Store: store, Now: time.Now}
}

func (s *Service) Items(ctx context.Context, itemType ItemType) ([]PayItem, error) {
	if _, ok := ParseItemType(string(itemType)); !ok {
		return nil, invalidType()
	}
	out, err := s.Store.ListItems(ctx, itemType)
	if err != nil {
		return nil, apperr.Internal("failed to list pay items", err)
	}
	if out == nil {
		out = []PayItem{}
	}
	return out, nil
}

func (s *Service) CreateItem(ctx context.Context, in PayItemInput) (PayItem, error) {
	if _, ok := ParseItemType(string(in.Type)); !ok {
		return PayItem{}, invalidType()
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return PayItem{}, apperr.Validation("invalid_name", "name is required")
	}
	if err := s.ensureItemNameFree(ctx, in.Type, name, ""); err != nil {
		return PayItem{}, err
	}
	now := s.Now().UTC()
	item := PayItem{
		ID:          db.NewID(),
		Type:        in.Type,
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Store.CreateItem(ctx, item); err != nil {
		if db.IsUniqueViolation(err, "pay_items_type_name_lower_key") {
			return PayItem{}, duplicateItem(item.Type)
		}
		return PayItem{}, apperr.Internal("failed to create pay item", err)
	}
	return item, nil
}

// UpdateItem renames an item within its type; the type itself is fixed.
func (s *Service) UpdateItem(ctx context.Context, id string, in PayItemInput) (PayItem, error) {
	item, err := s.Store.GetItem(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PayItem{}, itemNotFound()
		}
		return PayItem{}, apperr.Internal("failed to load pay item", err)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return PayItem{}, apperr.Validation("invalid_name", "name is required")
	}
	if err := s.ensureItemNameFree(ctx, item.Type, name, id); err != nil {
		return PayItem{}, err
	}
	item.Name = name
	item.Description = strings.TrimSpace(in.Description)
	item.UpdatedAt = s.Now().UTC()
	if err := s.Store.UpdateItem(ctx, item); err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return PayItem{}, itemNotFound()
		case db.IsUniqueViolation(err, "pay_items_type_name_lower_key"):
			return PayItem{}, duplicateItem(item.Type)
		}
		return PayItem{}, apperr.Internal("failed to update pay item", err)
	}
	return item, nil
}

func (s *Service) DeleteItem(ctx context.Context, id string) error {
	if err := s.Store.DeleteItem(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return itemNotFound()
		}
		return apperr.Internal("failed to delete pay item", err)
	}
	return nil
}

func (s *Service) ensureItemNameFree(ctx context.Context, itemType ItemType, name, excludeID string) error {
	taken, err := s.Store.ItemNameTaken(ctx, itemType, name, excludeID)
	if err != nil {
		return apperr.Internal("failed to check pay item name", err)
	}
	if taken {
		return duplicateItem(itemType)
	}
	return nil
}

func (s *Service) Overview(ctx context.Context) (Overview, error) {
	rows, err := s.Store.ListSetups(ctx)
	if err != nil {
		return Overview{}, apperr.Internal("failed to list payroll setups", err)
	}
	if rows == nil {
		rows = []SetupSummary{}
	}
	totals := Totals{Employees: len(rows)}
	for _, row := range rows {
		if !row.Configured {
			continue
		}
		totals.Configured++
		totals.GrossSalary += row.GrossSalary
		totals.NetAmount += row.NetAmount
	}
	return Overview{Rows: rows, Totals: totals}, nil
}

func (s *Service) Setup(ctx context.Context, userID string) (Setup, error) {
	setup, err := s.Store.GetSetup(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Setup{}, apperr.NotFound("payroll_not_found", "no payroll setup for this user")
		}
		return Setup{}, apperr.Internal("failed to load payroll setup", err)
	}
	return setup, nil
}

// Preview computes salary figures without storing anything.
func (s *Service) Preview(in SetupInput) (Salary, error) {
	if err := validateSetup(in); err != nil {
		return Salary{}, err
	}
	return ComputeSalary(in.BasicSalary, in.Allowances, in.Deductions), nil
}

// SaveSetup upserts the single payroll setup of a user and recomputes
// gross and net.
func (s *Service) SaveSetup(ctx context.Context, userID string, in SetupInput) (Setup, error) {
	if err := validateSetup(in); err != nil {
		return Setup{}, err
	}
	exists, err := s.Store.UserExists(ctx, userID)
	if err != nil {
		return Setup{}, apperr.Internal("failed to load user", err)
	}
	if !exists {
		return Setup{}, apperr.NotFound("user_not_found", "user not found")
	}

	salary := ComputeSalary(in.BasicSalary, in.Allowances, in.Deductions)
	setup := Setup{
		ID:               db.NewID(),
		UserID:           userID,
		EmploymentType:   strings.TrimSpace(in.EmploymentType),
		PayrollFrequency: strings.TrimSpace(in.PayrollFrequency),
		BasicSalary:      salary.BasicSalary,
		Allowances:       normalizeLines(in.Allowances),
		Deductions:       normalizeLines(in.Deductions),
		GrossSalary:      salary.GrossSalary,
		NetAmount:        salary.NetAmount,
		UpdatedAt:        s.Now().UTC(),
	}
	saved, err := s.Store.UpsertSetup(ctx, setup)
	if err != nil {
		return Setup{}, apperr.Internal("failed to save payroll setup", err)
	}
	logger.From(ctx).Info("payroll setup saved", "userId", userID, "gross", saved.GrossSalary, "net", saved.NetAmount)
	return saved, nil
}

func normalizeLines(lines []Line) []Line {
	out := make([]Line, 0, len(lines))
	for _, line := range lines {
		line.Name = strings.TrimSpace(line.Name)
		if line.ID == "" {
			line.ID = db.NewID()
		}
		out = append(out, line)
	}
	return out
}

func validateSetup(in SetupInput) error {
	if in.BasicSalary < 0 {
		return apperr.Validation("invalid_amount", "basicSalary must not be negative")
	}
	for _, group := range []struct {
		field string
		lines []Line
	}{{"allowances", in.Allowances}, {"deductions", in.Deductions}} {
		for i, line := range group.lines {
			if strings.TrimSpace(line.Name) == "" {
				return apperr.Validation("invalid_line", fmt.Sprintf("%s[%d].name is required", group.field, i))
			}
			if line.Amount < 0 {
				return apperr.Validation("invalid_amount", fmt.Sprintf("%s[%d].amount must not be negative", group.field, i))
			}
		}
	}
	return nil
}

func invalidType() error {
	return apperr.Validation("invalid_type", fmt.Sprintf("type must be %q or %q", ItemAllowance, ItemDeduction))
}

func duplicateItem(itemType ItemType) error {
	return apperr.Conflict("pay_item_exists", fmt.Sprintf("%s with this name already exists", strings.ToLower(string(itemType))))
}

func itemNotFound() error {
	return apperr.NotFound("pay_item_not_found", "pay item not found")
}
