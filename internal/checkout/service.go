package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/mesaeats/mesa-backend/internal/inventory"
	"github.com/mesaeats/mesa-backend/pkg/db/models"
	pkgerrors "github.com/mesaeats/mesa-backend/pkg/errors"
	"github.com/mesaeats/mesa-backend/pkg/logger"
)

// LineItem is one barcode/quantity pair in an order.
type LineItem struct {
	Barcode  string `json:"barcode"`
	Quantity int    `json:"quantity"`
}

// OrderInput identifies an order's stock movements against one restaurant.
type OrderInput struct {
	RestaurantID uuid.UUID
	OrderID      uuid.UUID
	UserID       uuid.UUID
	Items        []LineItem
}

// LineResult reports the record state after one line was processed.
type LineResult struct {
	Barcode        string `json:"barcode"`
	Quantity       int    `json:"quantity"`
	CurrentStock   int    `json:"currentStock"`
	ReservedStock  int    `json:"reservedStock"`
	AvailableStock int    `json:"availableStock"`
}

// OrderResult summarizes a processed order.
type OrderResult struct {
	OrderID uuid.UUID    `json:"orderId"`
	Lines   []LineResult `json:"lines"`
}

// Service orchestrates order-level stock movements over the reservation
// manager. It owns no quantities itself; pricing and payment live elsewhere.
type Service interface {
	// ReserveOrder reserves every line or none: the first line that cannot
	// be reserved releases the lines reserved before it.
	ReserveOrder(ctx context.Context, input OrderInput) (*OrderResult, error)
	// FulfillOrder commits the sale for every line. Committed lines stay
	// committed if a later line fails; the caller resolves the remainder.
	FulfillOrder(ctx context.Context, input OrderInput) (*OrderResult, error)
	// CancelOrder releases every line. Already-released lines are harmless
	// thanks to the release clamp, so cancellation is safe to repeat.
	CancelOrder(ctx context.Context, input OrderInput) (*OrderResult, error)
}

type service struct {
	inventory inventory.Service
	logg      *logger.Logger
}

// NewService wires a checkout service over the reservation manager.
func NewService(inv inventory.Service, logg *logger.Logger) (Service, error) {
	if inv == nil {
		return nil, fmt.Errorf("inventory service required")
	}
	return &service{inventory: inv, logg: logg}, nil
}

func (s *service) ReserveOrder(ctx context.Context, input OrderInput) (*OrderResult, error) {
	if err := validateOrder(input); err != nil {
		return nil, err
	}

	result := &OrderResult{OrderID: input.OrderID, Lines: make([]LineResult, 0, len(input.Items))}
	for i, item := range input.Items {
		mutation, err := s.inventory.Reserve(ctx, s.reservation(input, item))
		if err != nil {
			s.rollbackReservations(ctx, input, input.Items[:i])
			if typed := pkgerrors.As(err); typed != nil {
				return nil, typed.WithDetails(map[string]any{
					"barcode":  item.Barcode,
					"quantity": item.Quantity,
				})
			}
			return nil, err
		}
		result.Lines = append(result.Lines, lineResult(item, mutation.Record))
	}
	return result, nil
}

func (s *service) FulfillOrder(ctx context.Context, input OrderInput) (*OrderResult, error) {
	if err := validateOrder(input); err != nil {
		return nil, err
	}

	result := &OrderResult{OrderID: input.OrderID, Lines: make([]LineResult, 0, len(input.Items))}
	for _, item := range input.Items {
		mutation, err := s.inventory.CommitSale(ctx, s.reservation(input, item))
		if err != nil {
			return nil, err
		}
		result.Lines = append(result.Lines, lineResult(item, mutation.Record))
	}
	return result, nil
}

func (s *service) CancelOrder(ctx context.Context, input OrderInput) (*OrderResult, error) {
	if err := validateOrder(input); err != nil {
		return nil, err
	}

	result := &OrderResult{OrderID: input.OrderID, Lines: make([]LineResult, 0, len(input.Items))}
	var errs error
	for _, item := range input.Items {
		mutation, err := s.inventory.Release(ctx, s.reservation(input, item))
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("release %s: %w", item.Barcode, err))
			continue
		}
		result.Lines = append(result.Lines, lineResult(item, mutation.Record))
	}
	if errs != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, errs, "order cancellation incomplete")
	}
	return result, nil
}

// rollbackReservations undoes the lines reserved before a later line failed.
// Failures here are logged and swallowed: the reservation error already in
// flight is the one the caller must see.
func (s *service) rollbackReservations(ctx context.Context, input OrderInput, reserved []LineItem) {
	for _, item := range reserved {
		if _, err := s.inventory.Release(ctx, s.reservation(input, item)); err != nil && s.logg != nil {
			s.logg.Error(s.logg.WithFields(ctx, map[string]any{
				"order_id": input.OrderID.String(),
				"barcode":  item.Barcode,
			}), "rollback release failed", err)
		}
	}
}

func (s *service) reservation(input OrderInput, item LineItem) inventory.ReservationInput {
	return inventory.ReservationInput{
		RestaurantID: input.RestaurantID,
		Barcode:      item.Barcode,
		Quantity:     item.Quantity,
		OrderID:      input.OrderID,
		UserID:       input.UserID,
	}
}

func lineResult(item LineItem, record models.InventoryRecord) LineResult {
	return LineResult{
		Barcode:        item.Barcode,
		Quantity:       item.Quantity,
		CurrentStock:   record.CurrentStock,
		ReservedStock:  record.ReservedStock,
		AvailableStock: record.AvailableStock,
	}
}

func validateOrder(input OrderInput) error {
	if input.RestaurantID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "restaurant id is required")
	}
	if input.OrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if input.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order has no line items")
	}
	seen := make(map[string]struct{}, len(input.Items))
	for _, item := range input.Items {
		barcode := strings.TrimSpace(item.Barcode)
		if barcode == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "line item barcode is required")
		}
		if item.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line item %s quantity must be positive", barcode))
		}
		if _, dup := seen[barcode]; dup {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("duplicate line item %s", barcode))
		}
		seen[barcode] = struct{}{}
	}
	return nil
}
