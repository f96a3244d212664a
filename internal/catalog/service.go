package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/mesaeats/mesa-backend/pkg/db/models"
	pkgerrors "github.com/mesaeats/mesa-backend/pkg/errors"
)

// Service resolves barcodes against the shared product catalog. The catalog
// is reference data owned elsewhere; this service never writes to it.
type Service interface {
	LookupBarcode(ctx context.Context, barcode string) (*models.Product, error)
}

type service struct {
	repo Repository
}

// NewService wires a catalog service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) LookupBarcode(ctx context.Context, barcode string) (*models.Product, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "barcode is required")
	}

	product, err := s.repo.FindByBarcode(ctx, barcode)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "catalog lookup failed")
	}
	if product == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("no product for barcode %s", barcode))
	}
	return product, nil
}
