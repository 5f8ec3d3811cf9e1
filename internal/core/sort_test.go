package core

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jmylchreest/dunstd/internal/control"
	"github.com/jmylchreest/dunstd/internal/model"
)

func TestSort_Empty(t *testing.T) {
	var notifications []control.RecordView
	Sort(notifications, DefaultSortOptions())
	assert.Len(t, notifications, 0)
}

func TestSort_ByTimestampDesc(t *testing.T) {
	notifications := []control.RecordView{
		{ID: 1, Arrival: 100},
		{ID: 2, Arrival: 300},
		{ID: 3, Arrival: 200},
	}

	Sort(notifications, SortOptions{Field: SortByTimestamp, Order: SortDesc})

	assert.Equal(t, uint32(2), notifications[0].ID) // 300
	assert.Equal(t, uint32(3), notifications[1].ID) // 200
	assert.Equal(t, uint32(1), notifications[2].ID) // 100
}

func TestSort_ByTimestampAsc(t *testing.T) {
	notifications := []control.RecordView{
		{ID: 1, Arrival: 100},
		{ID: 2, Arrival: 300},
		{ID: 3, Arrival: 200},
	}

	Sort(notifications, SortOptions{Field: SortByTimestamp, Order: SortAsc})

	assert.Equal(t, uint32(1), notifications[0].ID) // 100
	assert.Equal(t, uint32(3), notifications[1].ID) // 200
	assert.Equal(t, uint32(2), notifications[2].ID) // 300
}

func TestSort_ByAppDesc(t *testing.T) {
	notifications := []control.RecordView{
		{ID: 1, AppName: "Firefox"},
		{ID: 2, AppName: "Slack"},
		{ID: 3, AppName: "Discord"},
	}

	Sort(notifications, SortOptions{Field: SortByApp, Order: SortDesc})

	assert.Equal(t, uint32(2), notifications[0].ID) // Slack
	assert.Equal(t, uint32(1), notifications[1].ID) // Firefox
	assert.Equal(t, uint32(3), notifications[2].ID) // Discord
}

func TestSort_ByAppAsc(t *testing.T) {
	notifications := []control.RecordView{
		{ID: 1, AppName: "Firefox"},
		{ID: 2, AppName: "Slack"},
		{ID: 3, AppName: "Discord"},
	}

	Sort(notifications, SortOptions{Field: SortByApp, Order: SortAsc})

	assert.Equal(t, uint32(3), notifications[0].ID) // Discord
	assert.Equal(t, uint32(1), notifications[1].ID) // Firefox
	assert.Equal(t, uint32(2), notifications[2].ID) // Slack
}

func TestSort_ByUrgencyDesc(t *testing.T) {
	notifications := []control.RecordView{
		{ID: 1, Urgency: int(model.UrgencyNormal)},
		{ID: 2, Urgency: int(model.UrgencyLow)},
		{ID: 3, Urgency: int(model.UrgencyCritical)},
	}

	Sort(notifications, SortOptions{Field: SortByUrgency, Order: SortDesc})

	assert.Equal(t, uint32(3), notifications[0].ID) // Critical (2)
	assert.Equal(t, uint32(1), notifications[1].ID) // Normal (1)
	assert.Equal(t, uint32(2), notifications[2].ID) // Low (0)
}

func TestSort_ByUrgencyAsc(t *testing.T) {
	notifications := []control.RecordView{
		{ID: 1, Urgency: int(model.UrgencyNormal)},
		{ID: 2, Urgency: int(model.UrgencyLow)},
		{ID: 3, Urgency: int(model.UrgencyCritical)},
	}

	Sort(notifications, SortOptions{Field: SortByUrgency, Order: SortAsc})

	assert.Equal(t, uint32(2), notifications[0].ID) // Low (0)
	assert.Equal(t, uint32(1), notifications[1].ID) // Normal (1)
	assert.Equal(t, uint32(3), notifications[2].ID) // Critical (2)
}

func TestSort_CaseInsensitiveApp(t *testing.T) {
	notifications := []control.RecordView{
		{ID: 1, AppName: "firefox"},
		{ID: 2, AppName: "FIREFOX"},
		{ID: 3, AppName: "Firefox"},
	}

	Sort(notifications, SortOptions{Field: SortByApp, Order: SortAsc})

	// All should be considered equal, stable sort preserves order
	assert.Equal(t, uint32(1), notifications[0].ID)
	assert.Equal(t, uint32(2), notifications[1].ID)
	assert.Equal(t, uint32(3), notifications[2].ID)
}

func TestDefaultSortOptions(t *testing.T) {
	opts := DefaultSortOptions()
	assert.Equal(t, SortByTimestamp, opts.Field)
	assert.Equal(t, SortDesc, opts.Order)
}

func TestParseSortField(t *testing.T) {
	tests := []struct {
		input    string
		expected SortField
	}{
		{"timestamp", SortByTimestamp},
		{"time", SortByTimestamp},
		{"t", SortByTimestamp},
		{"app", SortByApp},
		{"appname", SortByApp},
		{"a", SortByApp},
		{"urgency", SortByUrgency},
		{"u", SortByUrgency},
		{"unknown", SortByTimestamp}, // defaults to timestamp
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, _ := ParseSortField(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseSortOrder(t *testing.T) {
	tests := []struct {
		input    string
		expected SortOrder
	}{
		{"asc", SortAsc},
		{"ascending", SortAsc},
		{"a", SortAsc},
		{"desc", SortDesc},
		{"descending", SortDesc},
		{"d", SortDesc},
		{"unknown", SortDesc}, // defaults to desc
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, _ := ParseSortOrder(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}
