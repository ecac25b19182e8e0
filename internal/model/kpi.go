package model

// Direction is the sign of a period-over-period change.
type Direction string

// Direction constants.
const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// Unavailable is rendered in place of a KPI value that has no data behind it.
const Unavailable = "—"

// KPICard is one headline metric with its change against the previous period.
type KPICard struct {
	ID            string
	Title         string
	Value         string
	Direction     Direction
	Sparkline     []float64
	DeltaPercent  float64
	CurrentValue  float64
	PreviousValue float64
	HasData       bool
}
