package service

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/google/uuid"
	"github.com/sangkips/duka-pos/internal/domain/entity"
	"github.com/sangkips/duka-pos/pkg/currency"
	"github.com/sangkips/duka-pos/pkg/printer"
)

// ReceiptSource rebuilds the receipt of a persisted sale.
type ReceiptSource interface {
	GetReceipt(ctx context.Context, saleID uuid.UUID) (*entity.Receipt, error)
}

// PrinterService handles receipt formatting and thermal printing.
type PrinterService struct {
	printer     printer.Printer
	receipts    ReceiptSource
	printerType string
	width       int
}

// NewPrinterService creates a new printer service.
func NewPrinterService(p printer.Printer, receipts ReceiptSource, printerType string, width int) *PrinterService {
	return &PrinterService{
		printer:     p,
		receipts:    receipts,
		printerType: printerType,
		width:       width,
	}
}

// PrinterStatus returns the current printer status information.
type PrinterStatus struct {
	Configured bool   `json:"configured"`
	Connected  bool   `json:"connected"`
	Type       string `json:"type"`
	Width      int    `json:"width"`
}

// GetStatus returns printer connection status.
func (s *PrinterService) GetStatus() *PrinterStatus {
	return &PrinterStatus{
		Configured: s.printerType != printer.TypeNone && s.printerType != "",
		Connected:  s.printer.IsConnected(),
		Type:       s.printerType,
		Width:      s.width,
	}
}

// PrintSaleReceipt rebuilds the receipt of a sale and prints it.
// The receipt is returned even when printing fails so the caller can show it.
func (s *PrinterService) PrintSaleReceipt(ctx context.Context, saleID uuid.UUID) (*entity.Receipt, error) {
	receipt, err := s.receipts.GetReceipt(ctx, saleID)
	if err != nil {
		return nil, err
	}

	data := FormatReceipt(receipt, s.width)
	if err := s.printer.Print(data); err != nil {
		log.Printf("Printer error (sale %s): %v", saleID, err)
		return receipt, fmt.Errorf("failed to print receipt: %w", err)
	}

	return receipt, nil
}

// FormatReceipt converts a Receipt into ESC/POS bytes.
func FormatReceipt(r *entity.Receipt, width int) []byte {
	doc := printer.NewDocument(width)

	doc.Align(printer.AlignCenter).
		Bold(true).
		Size(printer.SizeDouble).
		Line(r.Header.StoreName).
		Size(printer.SizeNormal).
		Bold(false).
		Align(printer.AlignLeft).
		Rule('-')

	doc.Columns("Receipt:", r.ReceiptNo).
		Columns("Date:", r.Date.Format("2006-01-02 15:04"))
	if r.Operator != "" {
		doc.Columns("Operator:", r.Operator)
	}
	if r.Customer != "" {
		doc.Columns("Customer:", r.Customer)
	}
	doc.Columns("Payment:", r.PaymentMethod).
		Rule('-')

	for _, line := range r.Lines {
		doc.Columns(strconv.Itoa(line.Quantity)+" x "+line.Name, currency.Format(line.Total, r.QuotedCurrency))
		if line.Quantity > 1 {
			doc.Linef("  @ %s", currency.Format(line.UnitPrice, r.QuotedCurrency))
		}
	}

	doc.Rule('-').
		Bold(true).
		Columns("TOTAL:", currency.Format(r.TotalQuoted, r.QuotedCurrency)).
		Bold(false).
		Columns("Total "+r.BaseCurrency+":", currency.Format(r.TotalBase, r.BaseCurrency)).
		Columns("Rate:", r.Rate.String()).
		Rule('-')

	doc.Align(printer.AlignCenter).
		Feed(1).
		Line("Thank you for your purchase!").
		Align(printer.AlignLeft).
		Feed(3).
		Cut()

	return doc.Bytes()
}
