package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/amo-inventory/internal/model"
)

func TestTable_Render(t *testing.T) {
	tbl := Table{
		Headers: []string{"Name", "Qty"},
		Rows: [][]string{
			{"Milk", "12"},
			{"Greek Yogurt", "3"},
		},
	}

	lines := strings.Split(tbl.Render(), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "Name")
	assert.Contains(t, lines[1], "Milk")
	assert.Contains(t, lines[2], "Greek Yogurt")

	// The second column starts at the same visible offset on every line.
	col := func(line, cell string) int { return lipgloss.Width(line[:strings.Index(line, cell)]) }
	assert.Equal(t, col(lines[1], "12"), col(lines[2], "3"))
}

func TestTable_ShortRows(t *testing.T) {
	tbl := Table{Headers: []string{"A", "B"}, Rows: [][]string{{"only"}}}
	var buf bytes.Buffer
	require.NoError(t, tbl.Print(&buf))
	assert.Contains(t, buf.String(), "only")
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
}

func TestSparkline(t *testing.T) {
	assert.Equal(t, "", Sparkline(nil))
	assert.Equal(t, "▁▁▁", Sparkline([]float64{5, 5, 5}))
	assert.Equal(t, "▁█", Sparkline([]float64{0, 10}))
	assert.Len(t, []rune(Sparkline(make([]float64, 12))), 12)
}

func TestRenderKPICards(t *testing.T) {
	cards := []model.KPICard{
		{Title: "Transactions", Value: "3", HasData: true, DeltaPercent: 50, Direction: model.DirectionUp},
		{Title: "Net Revenue", Value: model.Unavailable},
	}
	out := RenderKPICards(cards, 0)
	assert.Contains(t, out, "Transactions")
	assert.Contains(t, out, "50.0%")
	assert.Contains(t, out, model.Unavailable)
}

func TestStockStatusLabel(t *testing.T) {
	assert.Contains(t, StockStatusLabel(model.StatusStockout), "Stockout Risk")
	assert.Contains(t, StockStatusLabel(model.StatusOverstock), "Overstock")
	assert.Contains(t, StockStatusLabel(model.StatusOK), "OK")
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, 4, "Forecasting")
	p.Update(1, 4)
	p.Update(3, 4)
	assert.Equal(t, 3, p.Current())
	p.Update(4, 4)
	p.Finish()
	assert.Equal(t, 4, p.Current())
}
