package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/amo-inventory/internal/model"
)

// Table is a plain grid of already formatted cells.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Render lays the table out in aligned columns. Cells may contain ANSI
// styling; widths are measured on the visible text.
func (t Table) Render() string {
	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(cell))
			}
		}
	}

	var b strings.Builder
	b.WriteString(renderRow(t.Headers, widths, TableHeaderStyle))
	for _, row := range t.Rows {
		b.WriteByte('\n')
		b.WriteString(renderRow(row, widths, lipgloss.NewStyle()))
	}
	return b.String()
}

func renderRow(cells []string, widths []int, style lipgloss.Style) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		parts[i] = TableCellStyle.Render(style.Render(cell) + strings.Repeat(" ", w-lipgloss.Width(cell)))
	}
	return strings.TrimRight(strings.Join(parts, ""), " ")
}

// Print writes the rendered table followed by a newline.
func (t Table) Print(w io.Writer) error {
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// StockStatusLabel colours a stock status for display.
func StockStatusLabel(s model.StockStatus) string {
	switch s {
	case model.StatusStockout:
		return ErrorStyle.Render("Stockout Risk")
	case model.StatusOverstock:
		return WarningStyle.Render("Overstock")
	default:
		return SuccessStyle.Render("OK")
	}
}

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// Sparkline draws values as a row of block characters scaled between the
// series minimum and maximum.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	out := make([]rune, len(values))
	for i, v := range values {
		idx := 0
		if hi > lo {
			idx = int((v - lo) / (hi - lo) * float64(len(sparkBlocks)-1))
		}
		out[i] = sparkBlocks[idx]
	}
	return string(out)
}

// FormatDelta renders a percent change with its direction arrow.
func FormatDelta(pct float64, dir model.Direction) string {
	text := fmt.Sprintf("%.1f%%", pct)
	if dir == model.DirectionDown {
		return ErrorStyle.Render(DownIcon + " " + text)
	}
	return SuccessStyle.Render(UpIcon + " " + text)
}

// RenderKPICards lays the cards out side by side, wrapping every perRow cards.
func RenderKPICards(cards []model.KPICard, perRow int) string {
	if perRow < 1 {
		perRow = 3
	}
	boxes := make([]string, 0, len(cards))
	for _, c := range cards {
		body := BoldStyle.Render(c.Value)
		if c.HasData {
			body += "  " + FormatDelta(c.DeltaPercent, c.Direction)
		}
		body += "\n" + SubtleStyle.Render(Sparkline(c.Sparkline))
		boxes = append(boxes, RenderBox(c.Title, body))
	}

	var rows []string
	for i := 0; i < len(boxes); i += perRow {
		end := min(i+perRow, len(boxes))
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, boxes[i:end]...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
