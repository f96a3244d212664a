package enums

import "fmt"

// StockAlertType classifies derived inventory alerts.
type StockAlertType string

const (
	StockAlertTypeLowStock   StockAlertType = "LOW_STOCK"
	StockAlertTypeOutOfStock StockAlertType = "OUT_OF_STOCK"
)

var validStockAlertTypes = []StockAlertType{
	StockAlertTypeLowStock,
	StockAlertTypeOutOfStock,
}

// IsValid reports whether the value is a known StockAlertType.
func (t StockAlertType) IsValid() bool {
	for _, candidate := range validStockAlertTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseStockAlertType converts raw input into a StockAlertType.
func ParseStockAlertType(value string) (StockAlertType, error) {
	for _, candidate := range validStockAlertTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid stock alert type %q", value)
}

// StockAlertSeverity ranks derived inventory alerts.
type StockAlertSeverity string

const (
	StockAlertSeverityHigh     StockAlertSeverity = "HIGH"
	StockAlertSeverityCritical StockAlertSeverity = "CRITICAL"
)

// IsValid reports whether the value is a known StockAlertSeverity.
func (s StockAlertSeverity) IsValid() bool {
	return s == StockAlertSeverityHigh || s == StockAlertSeverityCritical
}
