package enums

// Well-known reason codes recorded on stock transactions. The column is
// free-form so restaurant tooling can pass custom codes (e.g. "SPOILAGE"),
// but the core operations always use one of these.
const (
	StockReasonRestock      = "RESTOCK"
	StockReasonSale         = "SALE"
	StockReasonReservation  = "ORDER_RESERVATION"
	StockReasonCancellation = "ORDER_CANCELLATION"
	StockReasonRefund       = "REFUND"
)
