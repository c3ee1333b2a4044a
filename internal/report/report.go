// Package report renders a transaction list into a paginated PDF financial
// report: a summary banner, top spending categories and the full transaction
// table.
package report

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/finatracker/finatracker/internal/model"
)

const topCategoryCount = 5

// summary aggregates a transaction list for the report header.
type summary struct {
	income         float64
	expenses       float64
	categoryTotals map[string]float64
}

func (s summary) net() float64 {
	return s.income - s.expenses
}

// summarize totals income and expenses, and buckets expense amounts by
// category.
func summarize(txs []model.Transaction) summary {
	s := summary{categoryTotals: make(map[string]float64)}
	for _, tx := range txs {
		switch {
		case tx.Amount > 0:
			s.income += tx.Amount
		case tx.Amount < 0:
			spent := math.Abs(tx.Amount)
			s.expenses += spent
			category := tx.Category
			if category == "" {
				category = "Uncategorized"
			}
			s.categoryTotals[category] += spent
		}
	}
	return s
}

type categoryTotal struct {
	name  string
	total float64
}

// topCategories returns the n largest expense categories in descending order.
func topCategories(totals map[string]float64, n int) []categoryTotal {
	out := make([]categoryTotal, 0, len(totals))
	for name, total := range totals {
		out = append(out, categoryTotal{name: name, total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].total > out[j].total })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// formatMoney renders an amount with thousands grouping, e.g. "NGN 2,500.00".
// Negative amounts keep their sign.
func formatMoney(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	whole := int64(amount)
	frac := int64(math.Round((amount - float64(whole)) * 100))
	if frac == 100 {
		whole++
		frac = 0
	}

	digits := fmt.Sprintf("%d", whole)
	var grouped strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(d)
	}
	return fmt.Sprintf("%sNGN %s.%02d", sign, grouped.String(), frac)
}

// Build writes the PDF report for the given transactions.
func Build(w io.Writer, txs []model.Transaction) error {
	s := summarize(txs)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	// Title block.
	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 10, "Finatracker Financial Report", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, "Report Generated: "+time.Now().Format("2006-01-02"), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	drawSummaryBoxes(pdf, s)
	drawCategoryTable(pdf, s)
	drawTransactionTable(pdf, txs)

	return pdf.Output(w)
}

// drawSummaryBoxes renders the income / expenses / net balance banner.
func drawSummaryBoxes(pdf *fpdf.Fpdf, s summary) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, "Financial Summary", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	type box struct {
		label      string
		value      float64
		r, g, b    int
		tr, tg, tb int
	}
	boxes := []box{
		{"Total Income", s.income, 209, 250, 229, 6, 95, 70},
		{"Total Expenses", s.expenses, 254, 226, 226, 153, 27, 27},
		{"Net Balance", s.net(), 219, 234, 254, 30, 64, 175},
	}

	const boxWidth, boxHeight = 58.0, 20.0
	y := pdf.GetY()
	x := 12.0
	for _, b := range boxes {
		pdf.SetFillColor(b.r, b.g, b.b)
		pdf.Rect(x, y, boxWidth, boxHeight, "F")

		pdf.SetTextColor(b.tr, b.tg, b.tb)
		pdf.SetXY(x, y+3)
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(boxWidth, 5, b.label, "", 0, "C", false, 0, "")
		pdf.SetXY(x, y+10)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(boxWidth, 6, formatMoney(b.value), "", 0, "C", false, 0, "")

		x += boxWidth + 5
	}
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(12, y+boxHeight+10)
}

// drawCategoryTable renders the top expense categories.
func drawCategoryTable(pdf *fpdf.Fpdf, s summary) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, "Spending by Category (Expense Only)", "", 1, "L", false, 0, "")
	pdf.Ln(1)

	categories := topCategories(s.categoryTotals, topCategoryCount)
	if len(categories) == 0 {
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 6, "No expense data available to show categories.", "", 1, "L", false, 0, "")
		pdf.Ln(4)
		return
	}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(90, 6, "Category", "", 0, "L", false, 0, "")
	pdf.CellFormat(50, 6, "Total Spent", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, c := range categories {
		pdf.CellFormat(90, 6, c.name, "", 0, "L", false, 0, "")
		pdf.CellFormat(50, 6, formatMoney(c.total), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}

// drawTransactionTable renders the full transaction listing with page breaks
// and a repeated header row.
func drawTransactionTable(pdf *fpdf.Fpdf, txs []model.Transaction) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, "Transaction Details", "", 1, "L", false, 0, "")
	pdf.Ln(1)

	drawTableHeader(pdf)

	pdf.SetFont("Helvetica", "", 9)
	for _, tx := range txs {
		if pdf.GetY() > 270 {
			pdf.AddPage()
			drawTableHeader(pdf)
			pdf.SetFont("Helvetica", "", 9)
		}

		pdf.CellFormat(25, 6, tx.Date, "", 0, "L", false, 0, "")
		pdf.CellFormat(85, 6, clip(tx.Description, 48), "", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, clip(tx.Category, 22), "", 0, "L", false, 0, "")
		if tx.Amount >= 0 {
			pdf.SetTextColor(16, 185, 129)
		} else {
			pdf.SetTextColor(239, 68, 68)
		}
		pdf.CellFormat(36, 6, formatMoney(tx.Amount), "", 1, "R", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	}
}

func drawTableHeader(pdf *fpdf.Fpdf) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(25, 7, "Date", "B", 0, "L", false, 0, "")
	pdf.CellFormat(85, 7, "Description", "B", 0, "L", false, 0, "")
	pdf.CellFormat(40, 7, "Category", "B", 0, "L", false, 0, "")
	pdf.CellFormat(36, 7, "Amount", "B", 1, "R", false, 0, "")
}

// clip truncates a string for a fixed-width table cell.
func clip(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
