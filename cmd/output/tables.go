package output

import (
	"strconv"

	"github.com/ValentinKolb/kvmarket/lib/market/model"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorBorder)).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

// shortID keeps the first block of a UUID, enough to tell products apart on screen
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// ProductTable renders products as a table. Full ids are shown when wide is set.
func ProductTable(products []model.Product, wide bool) string {
	t := newTable("ID", "Title", "Category", "Price", "Seller")
	for _, p := range products {
		id := p.ID
		if !wide {
			id = shortID(id)
		}
		t.Row(id, p.Title, string(p.Category), "$"+p.Price.StringFixed(2), p.SellerUsername)
	}
	return t.Render()
}

// CartTable renders cart lines with subtotals and the total as last row
func CartTable(lines []model.CartLine, total decimal.Decimal) string {
	t := newTable("ID", "Product", "Price", "Qty", "Subtotal")
	for _, l := range lines {
		t.Row(
			shortID(l.Product.ID),
			l.Product.Title,
			"$"+l.Product.Price.StringFixed(2),
			strconv.Itoa(l.Quantity),
			"$"+l.Subtotal().StringFixed(2),
		)
	}
	t.Row("", "Total", "", strconv.Itoa(model.ItemCount(lines)), "$"+total.StringFixed(2))
	return t.Render()
}

// PurchaseTable renders the purchase history, oldest first
func PurchaseTable(purchases []model.Purchase) string {
	t := newTable("ID", "Date", "Items", "Total")
	for _, p := range purchases {
		t.Row(
			shortID(p.ID),
			p.Date.Local().Format("2006-01-02 15:04"),
			strconv.Itoa(model.ItemCount(p.Lines)),
			"$"+p.Total.StringFixed(2),
		)
	}
	return t.Render()
}
