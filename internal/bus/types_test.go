package bus

import (
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/dunstd/internal/model"
)

func TestParsedActions(t *testing.T) {
	tests := []struct {
		name     string
		actions  []string
		expected []Action
	}{
		{
			name:     "empty",
			actions:  nil,
			expected: []Action{},
		},
		{
			name:     "single action",
			actions:  []string{"default", "Open"},
			expected: []Action{{Key: "default", Label: "Open"}},
		},
		{
			name:    "multiple actions",
			actions: []string{"default", "Open", "dismiss", "Dismiss", "reply", "Reply"},
			expected: []Action{
				{Key: "default", Label: "Open"},
				{Key: "dismiss", Label: "Dismiss"},
				{Key: "reply", Label: "Reply"},
			},
		},
		{
			name:     "odd number (incomplete pair ignored)",
			actions:  []string{"default", "Open", "orphan"},
			expected: []Action{{Key: "default", Label: "Open"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &DBusNotification{Actions: tt.actions}
			assert.Equal(t, tt.expected, n.ParsedActions())
		})
	}
}

func TestUrgency(t *testing.T) {
	tests := []struct {
		name     string
		hints    map[string]dbus.Variant
		expected int
	}{
		{name: "no hint", hints: nil, expected: int(model.UrgencyNormal)},
		{name: "low urgency", hints: map[string]dbus.Variant{"urgency": dbus.MakeVariant(byte(0))}, expected: int(model.UrgencyLow)},
		{name: "normal urgency", hints: map[string]dbus.Variant{"urgency": dbus.MakeVariant(byte(1))}, expected: int(model.UrgencyNormal)},
		{name: "critical urgency", hints: map[string]dbus.Variant{"urgency": dbus.MakeVariant(byte(2))}, expected: int(model.UrgencyCritical)},
		{name: "wrong type returns normal", hints: map[string]dbus.Variant{"urgency": dbus.MakeVariant("high")}, expected: int(model.UrgencyNormal)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &DBusNotification{Hints: tt.hints}
			assert.Equal(t, tt.expected, n.Urgency())
		})
	}
}

func TestProgress(t *testing.T) {
	tests := []struct {
		name     string
		hints    map[string]dbus.Variant
		expected int
	}{
		{name: "no hint", hints: nil, expected: -1},
		{name: "in range", hints: map[string]dbus.Variant{"value": dbus.MakeVariant(int32(42))}, expected: 42},
		{name: "clamps above 100", hints: map[string]dbus.Variant{"value": dbus.MakeVariant(int32(150))}, expected: 100},
		{name: "clamps below 0", hints: map[string]dbus.Variant{"value": dbus.MakeVariant(int32(-20))}, expected: 0},
		{name: "uint32 clamps above 100", hints: map[string]dbus.Variant{"value": dbus.MakeVariant(uint32(255))}, expected: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &DBusNotification{Hints: tt.hints}
			assert.Equal(t, tt.expected, n.Progress())
		})
	}
}

func TestStackTag(t *testing.T) {
	tests := []struct {
		name     string
		hints    map[string]dbus.Variant
		expected string
	}{
		{name: "no hint", hints: nil, expected: ""},
		{name: "x-dunst-stack-tag", hints: map[string]dbus.Variant{"x-dunst-stack-tag": dbus.MakeVariant("volume")}, expected: "volume"},
		{name: "generic stack-tag", hints: map[string]dbus.Variant{"stack-tag": dbus.MakeVariant("brightness")}, expected: "brightness"},
		{
			name: "x-dunst-stack-tag takes precedence",
			hints: map[string]dbus.Variant{
				"x-dunst-stack-tag": dbus.MakeVariant("dunst"),
				"stack-tag":         dbus.MakeVariant("generic"),
			},
			expected: "dunst",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &DBusNotification{Hints: tt.hints}
			assert.Equal(t, tt.expected, n.StackTag())
		})
	}
}

func TestImageDataDecodesValidPayload(t *testing.T) {
	width, height, rowStride, channels, bits := 2, 2, 8, 4, 8
	payload := make([]byte, rowStride*height)
	for i := range payload {
		payload[i] = byte(i)
	}
	raw := []interface{}{int32(width), int32(height), int32(rowStride), true, int32(bits), int32(channels), payload}

	n := &DBusNotification{Hints: map[string]dbus.Variant{"image-data": dbus.MakeVariant(raw)}}
	icon, err := n.ImageData()
	require.NoError(t, err)
	require.NotNil(t, icon)
	assert.Equal(t, width, icon.Width)
	assert.Equal(t, height, icon.Height)
	assert.True(t, icon.HasAlpha)
	assert.Equal(t, payload, icon.Data)
}

func TestImageDataRejectsShortPayload(t *testing.T) {
	raw := []interface{}{int32(10), int32(10), int32(40), false, int32(8), int32(4), []byte{1, 2, 3}}
	n := &DBusNotification{Hints: map[string]dbus.Variant{"image-data": dbus.MakeVariant(raw)}}
	icon, err := n.ImageData()
	assert.Error(t, err)
	assert.Nil(t, icon)
}

func TestImageDataRejectsOversizedPayload(t *testing.T) {
	width, height, rowStride, channels, bits := 2, 2, 8, 4, 8
	payload := make([]byte, rowStride*height+16)
	raw := []interface{}{int32(width), int32(height), int32(rowStride), true, int32(bits), int32(channels), payload}

	n := &DBusNotification{Hints: map[string]dbus.Variant{"image-data": dbus.MakeVariant(raw)}}
	icon, err := n.ImageData()
	assert.Error(t, err)
	assert.Nil(t, icon)
}

func TestImageDataAbsent(t *testing.T) {
	n := &DBusNotification{}
	icon, err := n.ImageData()
	assert.NoError(t, err)
	assert.Nil(t, icon)
}

func TestToRecordMapsFields(t *testing.T) {
	n := &DBusNotification{
		AppName:    "thunderbird",
		ReplacesID: 7,
		AppIcon:    "mail-unread",
		Summary:    "New mail",
		Body:       "You've got mail",
		Actions:    []string{"default", "Open"},
		Hints: map[string]dbus.Variant{
			"urgency":  dbus.MakeVariant(byte(2)),
			"category": dbus.MakeVariant("email.arrived"),
		},
		ExpireTimeout: 5000,
	}

	rec := n.ToRecord(1000)
	assert.Equal(t, uint32(7), rec.ID)
	assert.Equal(t, "New mail", rec.Summary)
	assert.Equal(t, model.UrgencyCritical, rec.Urgency)
	assert.Equal(t, "email.arrived", rec.Category)
	assert.Equal(t, "Open", rec.Actions["default"])
	assert.Equal(t, int64(5_000_000), rec.TimeoutLength)
}

func TestToRecordRoundsExpireTimeoutToNearestSecond(t *testing.T) {
	n := &DBusNotification{AppName: "x", ExpireTimeout: 700}
	rec := n.ToRecord(0)
	assert.Equal(t, int64(1_000_000), rec.TimeoutLength)

	n = &DBusNotification{AppName: "x", ExpireTimeout: 100}
	rec = n.ToRecord(0)
	assert.Equal(t, int64(1_000_000), rec.TimeoutLength)

	n = &DBusNotification{AppName: "x", ExpireTimeout: -1}
	rec = n.ToRecord(0)
	assert.Equal(t, int64(-1), rec.TimeoutLength)

	n = &DBusNotification{AppName: "x", ExpireTimeout: 0}
	rec = n.ToRecord(0)
	assert.Equal(t, int64(0), rec.TimeoutLength)
}

func TestDefaultServerInfo(t *testing.T) {
	info := DefaultServerInfo()
	assert.Equal(t, "dunstd", info.Name)
	assert.Equal(t, "1.2", info.SpecVersion)
	assert.NotEmpty(t, info.Version)
}

func TestServerCapabilities(t *testing.T) {
	without := Capabilities(false)
	assert.Contains(t, without, "actions")
	assert.Contains(t, without, "body")
	assert.Contains(t, without, "body-hyperlinks")
	assert.Contains(t, without, "x-dunst-stack-tag")
	assert.NotContains(t, without, "body-markup")

	with := Capabilities(true)
	assert.Contains(t, with, "body-markup")
}
