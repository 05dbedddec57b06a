package service

import (
	"github.com/sangkips/duka-pos/internal/domain/entity"
	"github.com/sangkips/duka-pos/pkg/currency"
	"github.com/sangkips/duka-pos/pkg/utils"
)

// ReceiptOptions carries the store details printed on every receipt
type ReceiptOptions struct {
	StoreName      string
	BaseCurrency   string
	QuotedCurrency string
}

// BuildReceipt renders a sale into quoted-currency lines using the sale's
// rate snapshot. Items, Customer and Operator should be loaded.
func BuildReceipt(sale *entity.Sale, opts ReceiptOptions) *entity.Receipt {
	receipt := &entity.Receipt{
		Header:         entity.ReceiptHeader{StoreName: opts.StoreName},
		ReceiptNo:      utils.ReceiptNo(sale.ID),
		Date:           sale.SoldAt,
		PaymentMethod:  sale.PaymentMethod.String(),
		Rate:           sale.RateSnapshot,
		TotalBase:      sale.Total,
		BaseCurrency:   opts.BaseCurrency,
		QuotedCurrency: opts.QuotedCurrency,
		Lines:          make([]entity.ReceiptLine, 0, len(sale.Items)),
	}
	if sale.Customer != nil {
		receipt.Customer = sale.Customer.Name
	}
	if sale.Operator != nil {
		receipt.Operator = sale.Operator.Name
	}

	for _, item := range sale.Items {
		name := item.ProductID.String()
		if item.Product != nil {
			name = item.Product.Name
		}
		unit := currency.RoundQuoted(item.UnitPrice.Mul(sale.RateSnapshot))
		line := entity.ReceiptLine{
			Name:      name,
			Quantity:  item.Quantity,
			UnitPrice: unit,
			Total:     currency.LineTotal(item.Quantity, unit),
		}
		receipt.Lines = append(receipt.Lines, line)
		receipt.TotalQuoted = receipt.TotalQuoted.Add(line.Total)
	}
	return receipt
}
