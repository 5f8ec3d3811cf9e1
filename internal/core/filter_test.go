package core

import (
	"testing"
	"time"

	"github.com/jmylchreest/dunstd/internal/control"
	"github.com/jmylchreest/dunstd/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter_Empty(t *testing.T) {
	result := Filter(nil, FilterOptions{})
	assert.Len(t, result, 0)
}

func TestFilter_NoFilters(t *testing.T) {
	notifications := []control.RecordView{
		{ID: 1, AppName: "firefox"},
		{ID: 2, AppName: "slack"},
	}

	result := Filter(notifications, FilterOptions{})
	assert.Len(t, result, 2)
}

func TestFilter_ByApp(t *testing.T) {
	notifications := []control.RecordView{
		{ID: 1, AppName: "firefox"},
		{ID: 2, AppName: "slack"},
		{ID: 3, AppName: "firefox"},
	}

	result := Filter(notifications, FilterOptions{AppFilter: "firefox"})
	assert.Len(t, result, 2)
	for _, n := range result {
		assert.Equal(t, "firefox", n.AppName)
	}
}

func TestFilter_ByUrgency(t *testing.T) {
	critical := int(model.UrgencyCritical)
	notifications := []control.RecordView{
		{ID: 1, AppName: "firefox", Urgency: int(model.UrgencyLow)},
		{ID: 2, AppName: "slack", Urgency: int(model.UrgencyCritical)},
		{ID: 3, AppName: "discord", Urgency: int(model.UrgencyCritical)},
	}

	result := Filter(notifications, FilterOptions{Urgency: &critical})
	assert.Len(t, result, 2)
	for _, n := range result {
		assert.Equal(t, int(model.UrgencyCritical), n.Urgency)
	}
}

func TestFilter_BySince(t *testing.T) {
	now := time.Now()
	notifications := []control.RecordView{
		{ID: 1, Arrival: now.Add(-30 * time.Minute).UnixMicro()},
		{ID: 2, Arrival: now.Add(-2 * time.Hour).UnixMicro()},
		{ID: 3, Arrival: now.Add(-5 * time.Hour).UnixMicro()},
	}

	result := Filter(notifications, FilterOptions{Since: time.Hour})
	assert.Len(t, result, 1)
	assert.Equal(t, uint32(1), result[0].ID)
}

func TestFilter_WithLimit(t *testing.T) {
	notifications := []control.RecordView{
		{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}, {ID: 5},
	}

	result := Filter(notifications, FilterOptions{Limit: 3})
	assert.Len(t, result, 3)
}

func TestFilter_Combined(t *testing.T) {
	now := time.Now()
	critical := int(model.UrgencyCritical)
	notifications := []control.RecordView{
		{ID: 1, AppName: "firefox", Urgency: int(model.UrgencyCritical), Arrival: now.Add(-30 * time.Minute).UnixMicro()},
		{ID: 2, AppName: "firefox", Urgency: int(model.UrgencyNormal), Arrival: now.Add(-30 * time.Minute).UnixMicro()},
		{ID: 3, AppName: "slack", Urgency: int(model.UrgencyCritical), Arrival: now.Add(-30 * time.Minute).UnixMicro()},
		{ID: 4, AppName: "firefox", Urgency: int(model.UrgencyCritical), Arrival: now.Add(-5 * time.Hour).UnixMicro()},
	}

	result := Filter(notifications, FilterOptions{
		AppFilter: "firefox",
		Urgency:   &critical,
		Since:     time.Hour,
	})
	assert.Len(t, result, 1)
	assert.Equal(t, uint32(1), result[0].ID)
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Duration
		hasError bool
	}{
		{"0", 0, false},
		{"", 0, false},
		{"1h", time.Hour, false},
		{"30m", 30 * time.Minute, false},
		{"48h", 48 * time.Hour, false},
		{"7d", 7 * 24 * time.Hour, false},
		{"1w", 7 * 24 * time.Hour, false},
		{"2w", 14 * 24 * time.Hour, false},
		{"invalid", 0, true},
		{"xd", 0, true},
		{"xw", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := ParseDuration(tt.input)
			if tt.hasError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			}
		})
	}
}

func TestParseUrgency(t *testing.T) {
	tests := []struct {
		input    string
		expected int
		hasError bool
	}{
		{"low", int(model.UrgencyLow), false},
		{"LOW", int(model.UrgencyLow), false},
		{"0", int(model.UrgencyLow), false},
		{"normal", int(model.UrgencyNormal), false},
		{"NORMAL", int(model.UrgencyNormal), false},
		{"1", int(model.UrgencyNormal), false},
		{"critical", int(model.UrgencyCritical), false},
		{"CRITICAL", int(model.UrgencyCritical), false},
		{"2", int(model.UrgencyCritical), false},
		{"invalid", 0, true},
		{"3", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := ParseUrgency(tt.input)
			if tt.hasError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			}
		})
	}
}
