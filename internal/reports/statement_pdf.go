package reports

import (
	"bytes"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/phpdave11/gofpdf"

	"github.com/wanqqq29/monopoly-bank/internal/ledger"
	"github.com/wanqqq29/monopoly-bank/internal/money"
)

// Handler renders printable card statements, a favorite at the end of long
// games.
type Handler struct {
	Ledger *ledger.Ledger
}

func NewHandler(l *ledger.Ledger) *Handler {
	return &Handler{Ledger: l}
}

func (h *Handler) StatementPDF(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	if id == "" {
		return fiber.NewError(fiber.StatusBadRequest, "card id required")
	}

	account, err := h.Ledger.Get(id)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, "card not initialized")
	}

	var credits, debits int64
	for _, t := range account.Transactions {
		if t.To == account.ID {
			credits += t.Amount
		} else {
			debits += t.Amount
		}
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(14, 14, 14)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 48)
	pdf.SetTextColor(235, 235, 235)
	pdf.Text(25, 140, "MONOPOLY BANK")

	pdf.SetTextColor(20, 20, 20)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "Card Statement")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(80, 80, 80)
	pdf.Cell(0, 6, "Card: "+account.ID)
	pdf.Ln(5)
	pdf.Cell(0, 6, "As of: "+time.UnixMilli(account.LastUpdated).Format(time.RFC3339))
	pdf.Ln(10)

	pdf.SetDrawColor(200, 200, 200)
	pdf.SetFillColor(248, 248, 248)
	pdf.SetTextColor(20, 20, 20)
	pdf.SetFont("Helvetica", "B", 11)

	sumW := []float64{62, 62, 62}
	pdf.CellFormat(sumW[0], 10, "Credits", "1", 0, "C", true, 0, "")
	pdf.CellFormat(sumW[1], 10, "Debits", "1", 0, "C", true, 0, "")
	pdf.CellFormat(sumW[2], 10, "Balance", "1", 1, "C", true, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(sumW[0], 10, money.Format(credits), "1", 0, "C", false, 0, "")
	pdf.CellFormat(sumW[1], 10, money.Format(debits), "1", 0, "C", false, 0, "")
	pdf.CellFormat(sumW[2], 10, money.Format(account.Balance), "1", 1, "C", false, 0, "")
	pdf.Ln(6)

	colW := []float64{26, 40, 42, 42, 30}
	header := func() {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetFillColor(245, 245, 245)
		pdf.CellFormat(colW[0], 8, "KIND", "1", 0, "C", true, 0, "")
		pdf.CellFormat(colW[1], 8, "WHEN", "1", 0, "C", true, 0, "")
		pdf.CellFormat(colW[2], 8, "FROM", "1", 0, "L", true, 0, "")
		pdf.CellFormat(colW[3], 8, "TO", "1", 0, "L", true, 0, "")
		pdf.CellFormat(colW[4], 8, "AMOUNT", "1", 1, "R", true, 0, "")
		pdf.SetFont("Helvetica", "", 9)
	}
	header()
	pdf.SetTextColor(30, 30, 30)

	maxRows := 200
	for i := len(account.Transactions) - 1; i >= 0; i-- {
		t := account.Transactions[i]
		if len(account.Transactions)-1-i >= maxRows {
			pdf.SetFont("Helvetica", "I", 9)
			pdf.CellFormat(0, 8, "…truncated (too many rows)", "1", 1, "C", false, 0, "")
			break
		}

		if pdf.GetY() > 270 {
			pdf.AddPage()
			header()
		}

		amt := money.Format(t.Amount)
		if t.From == account.ID {
			amt = "-" + amt
		}

		pdf.CellFormat(colW[0], 8, strings.ToUpper(string(t.Kind)), "1", 0, "C", false, 0, "")
		pdf.CellFormat(colW[1], 8, time.UnixMilli(t.Timestamp).Format("2006-01-02 15:04"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(colW[2], 8, trimTo(t.From, 24), "1", 0, "L", false, 0, "")
		pdf.CellFormat(colW[3], 8, trimTo(t.To, 24), "1", 0, "L", false, 0, "")
		pdf.CellFormat(colW[4], 8, amt, "1", 1, "R", false, 0, "")
	}

	pdf.SetY(-18)
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 10, "Generated by Monopoly Bank • "+time.Now().Format(time.RFC3339), "", 0, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "pdf build failed: "+err.Error())
	}

	filename := "statement-" + account.ID + ".pdf"
	c.Set("Content-Type", "application/pdf")
	c.Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	return c.Send(buf.Bytes())
}

func trimTo(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
