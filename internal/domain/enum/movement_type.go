package enum

// StockMovementType classifies a change to a product's stock
type StockMovementType string

const (
	StockMovementSale       StockMovementType = "sale"
	StockMovementSaleEdit   StockMovementType = "sale_edit"
	StockMovementSaleDelete StockMovementType = "sale_delete"
	StockMovementManualIn   StockMovementType = "manual_in"
	StockMovementManualOut  StockMovementType = "manual_out"
)

// IsManual reports whether an operator may post this type directly
func (t StockMovementType) IsManual() bool {
	return t == StockMovementManualIn || t == StockMovementManualOut
}

// CashMovementType classifies an entry in the cash ledger
type CashMovementType string

const (
	CashMovementSale       CashMovementType = "sale"
	CashMovementSaleEdit   CashMovementType = "sale_edit"
	CashMovementSaleDelete CashMovementType = "sale_delete"
	CashMovementIncome     CashMovementType = "income"
	CashMovementExpense    CashMovementType = "expense"
)

// IsManual reports whether an operator may post this type directly
func (t CashMovementType) IsManual() bool {
	return t == CashMovementIncome || t == CashMovementExpense
}
