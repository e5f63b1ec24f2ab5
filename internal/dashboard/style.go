package dashboard

import "github.com/dukerupert/familydo/internal/model"

const (
	fallbackChartColor = "#CCCCCC"
	fallbackIcon       = "📝"
	fallbackListColor  = "#757575"
)

type statusStyle struct {
	color string
	icon  string
}

// chartStyles drives the status distribution chart.
var chartStyles = map[model.Status]statusStyle{
	model.StatusNew:        {color: "#FF6B6B", icon: "⭐"},
	model.StatusSeen:       {color: "#4ECDC4", icon: "👀"},
	model.StatusScheduled:  {color: "#45B7D1", icon: "📅"},
	model.StatusInProgress: {color: "#FFA07A", icon: "🔄"},
	model.StatusDone:       {color: "#59CD90", icon: "✅"},
	model.StatusCancelled:  {color: "#FF8A65", icon: "❌"},
}

// listColors is the palette used for status chips in task lists.
var listColors = map[model.Status]string{
	model.StatusNew:        "#FF9800",
	model.StatusSeen:       "#2196F3",
	model.StatusScheduled:  "#9C27B0",
	model.StatusInProgress: "#FFC107",
	model.StatusDone:       "#4CAF50",
	model.StatusCancelled:  "#F44336",
}

// ChartStyle returns the chart color and icon for a status, falling back to a
// neutral grey and a note glyph for anything unrecognized.
func ChartStyle(s model.Status) (color, icon string) {
	if st, ok := chartStyles[s]; ok {
		return st.color, st.icon
	}
	return fallbackChartColor, fallbackIcon
}

// StatusColor returns the task list chip color for a status.
func StatusColor(s model.Status) string {
	if c, ok := listColors[s]; ok {
		return c
	}
	return fallbackListColor
}

// ProgressColor grades the overall completion ratio.
func ProgressColor(ratio float64) string {
	switch {
	case ratio > 0.7:
		return "#4CAF50"
	case ratio > 0.3:
		return "#FF9800"
	default:
		return "#F44336"
	}
}
