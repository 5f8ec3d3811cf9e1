package bus

import (
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/dunstd/internal/model"
)

// DBusNotification represents an incoming D-Bus Notify call: the raw
// parameters from org.freedesktop.Notifications.Notify, before any
// hint extraction or rule/format processing.
type DBusNotification struct {
	AppName       string
	ReplacesID    uint32
	AppIcon       string
	Summary       string
	Body          string
	Actions       []string // Alternating key, label pairs
	Hints         map[string]dbus.Variant
	ExpireTimeout int32 // -1 = server default, 0 = never expire
}

// Action represents a notification action with key and label.
type Action struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// ParsedActions converts the D-Bus action array to structured form.
// D-Bus actions are passed as alternating key/label pairs.
func (n *DBusNotification) ParsedActions() []Action {
	actions := make([]Action, 0, len(n.Actions)/2)
	for i := 0; i+1 < len(n.Actions); i += 2 {
		actions = append(actions, Action{
			Key:   n.Actions[i],
			Label: n.Actions[i+1],
		})
	}
	return actions
}

// Urgency extracts the urgency hint from the notification.
// Returns model.UrgencyNormal if not specified.
func (n *DBusNotification) Urgency() int {
	if v, ok := n.Hints["urgency"]; ok {
		if b, ok := v.Value().(byte); ok {
			return int(b)
		}
	}
	return int(model.UrgencyNormal)
}

// Category extracts the category hint from the notification.
func (n *DBusNotification) Category() string {
	if v, ok := n.Hints["category"]; ok {
		if s, ok := v.Value().(string); ok {
			return s
		}
	}
	return ""
}

// DesktopEntry extracts the desktop-entry hint.
func (n *DBusNotification) DesktopEntry() string {
	if v, ok := n.Hints["desktop-entry"]; ok {
		if s, ok := v.Value().(string); ok {
			return s
		}
	}
	return ""
}

// SoundFile extracts the sound-file hint.
func (n *DBusNotification) SoundFile() string {
	if v, ok := n.Hints["sound-file"]; ok {
		if s, ok := v.Value().(string); ok {
			return s
		}
	}
	return ""
}

// SoundName extracts the sound-name hint.
func (n *DBusNotification) SoundName() string {
	if v, ok := n.Hints["sound-name"]; ok {
		if s, ok := v.Value().(string); ok {
			return s
		}
	}
	return ""
}

// SuppressSound returns true if the suppress-sound hint is set.
func (n *DBusNotification) SuppressSound() bool {
	if v, ok := n.Hints["suppress-sound"]; ok {
		if b, ok := v.Value().(bool); ok {
			return b
		}
	}
	return false
}

// Transient returns true if the transient hint is set.
func (n *DBusNotification) Transient() bool {
	if v, ok := n.Hints["transient"]; ok {
		if b, ok := v.Value().(bool); ok {
			return b
		}
	}
	return false
}

// Resident returns true if the resident hint is set.
func (n *DBusNotification) Resident() bool {
	if v, ok := n.Hints["resident"]; ok {
		if b, ok := v.Value().(bool); ok {
			return b
		}
	}
	return false
}

// ImagePath extracts the image-path hint.
func (n *DBusNotification) ImagePath() string {
	if v, ok := n.Hints["image-path"]; ok {
		if s, ok := v.Value().(string); ok {
			return s
		}
	}
	return ""
}

// imageDataKeys are the hint names a client may use to carry a raw
// (iiibiiay) pixmap, newest first: "image-data" is the current
// freedesktop name, "image_data" and "icon_data" are the deprecated
// spellings older clients (and dunstify) still send (spec 6.1).
var imageDataKeys = []string{"image-data", "image_data", "icon_data"}

// ImageData decodes the raw image-data hint into a model.RawIcon,
// validating the payload length against model.MaxImageDataLen (spec
// 6.1, "Notify interface validation"). Returns nil, nil if no such
// hint is present; returns an error if the hint is malformed.
func (n *DBusNotification) ImageData() (*model.RawIcon, error) {
	var raw []interface{}
	for _, key := range imageDataKeys {
		v, ok := n.Hints[key]
		if !ok {
			continue
		}
		arr, ok := v.Value().([]interface{})
		if !ok {
			return nil, fmt.Errorf("bus: %s hint is not a struct", key)
		}
		raw = arr
		break
	}
	if raw == nil {
		return nil, nil
	}
	if len(raw) != 7 {
		return nil, fmt.Errorf("bus: image-data struct has %d fields, want 7", len(raw))
	}

	width, ok1 := raw[0].(int32)
	height, ok2 := raw[1].(int32)
	rowStride, ok3 := raw[2].(int32)
	hasAlpha, ok4 := raw[3].(bool)
	bitsPerSample, ok5 := raw[4].(int32)
	channels, ok6 := raw[5].(int32)
	data, ok7 := raw[6].([]byte)
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 || !ok6 || !ok7 {
		return nil, fmt.Errorf("bus: image-data struct has unexpected field types")
	}
	if width <= 0 || height <= 0 || rowStride <= 0 {
		return nil, fmt.Errorf("bus: image-data has non-positive dimension")
	}

	want := model.MaxImageDataLen(int(width), int(height), int(rowStride), int(channels), int(bitsPerSample))
	if len(data) != want {
		return nil, fmt.Errorf("bus: image-data payload is %d bytes, want exactly %d", len(data), want)
	}

	return &model.RawIcon{
		Width:         int(width),
		Height:        int(height),
		RowStride:     int(rowStride),
		HasAlpha:      hasAlpha,
		BitsPerSample: int(bitsPerSample),
		Channels:      int(channels),
		Data:          data,
	}, nil
}

// Progress extracts the progress value hint (dunstify -h int:value:N).
// Returns -1 if not present, clamped to [0, 100] otherwise.
func (n *DBusNotification) Progress() int {
	if v, ok := n.Hints["value"]; ok {
		switch val := v.Value().(type) {
		case int32:
			return clampProgress(int(val))
		case uint32:
			return clampProgress(int(val))
		case int:
			return clampProgress(val)
		case byte:
			return clampProgress(int(val))
		}
	}
	return -1
}

// clampProgress clamps a raw progress value hint to [0, 100].
func clampProgress(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// StackTag extracts the stack-tag hint for notification grouping
// (dunstify -h string:x-dunst-stack-tag:TAG).
func (n *DBusNotification) StackTag() string {
	if v, ok := n.Hints["x-dunst-stack-tag"]; ok {
		if s, ok := v.Value().(string); ok {
			return s
		}
	}
	if v, ok := n.Hints["stack-tag"]; ok {
		if s, ok := v.Value().(string); ok {
			return s
		}
	}
	return ""
}

// HighlightColor extracts the highlight color hint (dunstify -h string:hlcolor:#RRGGBB).
func (n *DBusNotification) HighlightColor() string {
	if v, ok := n.Hints["hlcolor"]; ok {
		if s, ok := v.Value().(string); ok {
			return s
		}
	}
	return ""
}

// ForegroundColor extracts the foreground color hint (dunstify -h string:fgcolor:#RRGGBB).
func (n *DBusNotification) ForegroundColor() string {
	if v, ok := n.Hints["fgcolor"]; ok {
		if s, ok := v.Value().(string); ok {
			return s
		}
	}
	return ""
}

// BackgroundColor extracts the background color hint (dunstify -h string:bgcolor:#RRGGBB).
func (n *DBusNotification) BackgroundColor() string {
	if v, ok := n.Hints["bgcolor"]; ok {
		if s, ok := v.Value().(string); ok {
			return s
		}
	}
	return ""
}

// FrameColor extracts the frame/border color hint (dunstify -h string:frcolor:#RRGGBB).
func (n *DBusNotification) FrameColor() string {
	if v, ok := n.Hints["frcolor"]; ok {
		if s, ok := v.Value().(string); ok {
			return s
		}
	}
	return ""
}

// ToRecord builds a fresh model.Record from the raw D-Bus call,
// running the cheap hint-extraction translation this package owns;
// rule application, template expansion, and id assignment happen
// downstream in the Rule Engine, Formatter, and Queue Engine.
func (n *DBusNotification) ToRecord(arrival int64) *model.Record {
	rec := model.New(n.AppName, arrival)
	rec.ID = n.ReplacesID
	rec.ClientID = n.AppName
	rec.Summary = n.Summary
	rec.Body = n.Body
	rec.IconName = n.AppIcon
	rec.Category = n.Category()
	rec.DesktopEntry = n.DesktopEntry()
	rec.Urgency = model.ClampUrgency(n.Urgency())
	rec.Hints.Transient = n.Transient()
	rec.Hints.Progress = n.Progress()
	rec.Hints.StackTag = n.StackTag()
	rec.Hints.SuppressSound = n.SuppressSound()
	rec.Foreground = n.ForegroundColor()
	rec.Background = n.BackgroundColor()
	rec.Frame = n.FrameColor()
	rec.Highlight = n.HighlightColor()

	for _, a := range n.ParsedActions() {
		rec.Actions[a.Key] = a.Label
		if rec.DefaultAction == "" && a.Key == "default" {
			rec.DefaultAction = a.Key
		}
	}

	switch {
	case n.ExpireTimeout > 0:
		// Rounded to the nearest second, minimum one second (spec 6.1,
		// "expire-timeout"), not carried through at millisecond precision.
		seconds := (int64(n.ExpireTimeout) + 500) / 1000
		if seconds < 1 {
			seconds = 1
		}
		rec.TimeoutLength = seconds * int64(time.Second/time.Microsecond)
	case n.ExpireTimeout == 0:
		rec.TimeoutLength = 0 // sticky
	default:
		// -1, the server-default sentinel: the Lifecycle Controller
		// resolves this to the configured per-urgency timeout before
		// the record reaches the Queue Engine.
		rec.TimeoutLength = -1
	}

	if raw, err := n.ImageData(); err == nil && raw != nil {
		rec.RawIcon = raw
	}
	if rec.IconName == "" {
		rec.IconName = n.ImagePath()
	}

	return rec
}

// staticCapabilities lists the capabilities always advertised, regardless
// of config. "body-markup" is appended separately, conditional on whether
// any configured format uses a markup mode other than None (spec 6.1,
// "GetCapabilities"; original_source/src/dbus.c on_get_capabilities guards
// "body-markup" on settings.markup != MARKUP_NO the same way).
var staticCapabilities = []string{
	"actions",
	"body",
	"body-hyperlinks",
	"x-dunst-stack-tag",
}

// Capabilities returns the capability list GetCapabilities replies with.
func Capabilities(markupEnabled bool) []string {
	caps := append([]string(nil), staticCapabilities...)
	if markupEnabled {
		caps = append(caps, "body-markup")
	}
	return caps
}

// ServerInfo contains information about the notification server.
type ServerInfo struct {
	Name        string
	Vendor      string
	Version     string
	SpecVersion string
}

// DefaultServerInfo returns the default server information.
func DefaultServerInfo() ServerInfo {
	return ServerInfo{
		Name:        "dunstd",
		Vendor:      "dunstd",
		Version:     "0.0.1",
		SpecVersion: "1.2",
	}
}
