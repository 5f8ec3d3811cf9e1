package daemon

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/dunstd/internal/model"
)

// NotificationLevel indicates the urgency/severity of an internal notification.
type NotificationLevel int

const (
	// NotificationLevelInfo is for informational messages (low urgency).
	NotificationLevelInfo NotificationLevel = iota
	// NotificationLevelWarning is for warning messages (normal urgency).
	NotificationLevelWarning
	// NotificationLevelError is for error messages (critical urgency).
	NotificationLevelError
)

// InternalNotifier turns dunstd's own lifecycle events (config reload,
// theme reload, DnD toggled, startup, audio failure) into Records fed
// through the same Insert path as a bus client's notification, rate
// limited per event key to avoid flooding the queues on repeated
// failures (e.g. a config file that keeps failing validation).
type InternalNotifier struct {
	mu     sync.Mutex
	logger *slog.Logger

	// insertHandler is the Lifecycle Controller's own Insert, so an
	// internal notification goes through rules/format/queue exactly
	// like any other.
	insertHandler func(rec *model.Record) uint32

	lastNotifyTime map[string]time.Time
	minInterval    time.Duration

	enabled bool
}

// NewInternalNotifier creates a new InternalNotifier.
func NewInternalNotifier(logger *slog.Logger) *InternalNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &InternalNotifier{
		logger:         logger,
		lastNotifyTime: make(map[string]time.Time),
		minInterval:    5 * time.Second,
		enabled:        true,
	}
}

// SetInsertHandler sets the function used to submit the internal
// notification record, normally engine.Engine.Insert.
func (n *InternalNotifier) SetInsertHandler(handler func(rec *model.Record) uint32) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.insertHandler = handler
}

// SetEnabled enables or disables internal notifications.
func (n *InternalNotifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// SetMinInterval sets the minimum interval between duplicate notifications.
func (n *InternalNotifier) SetMinInterval(interval time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.minInterval = interval
}

// Notify sends an internal notification if not rate-limited. The key is
// used for rate limiting - same key won't notify again within minInterval.
func (n *InternalNotifier) Notify(key, summary, body string, level NotificationLevel) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.enabled {
		return
	}
	if n.insertHandler == nil {
		n.logger.Debug("internal notification skipped: no handler", "summary", summary)
		return
	}
	if lastTime, ok := n.lastNotifyTime[key]; ok {
		if time.Since(lastTime) < n.minInterval {
			n.logger.Debug("internal notification rate-limited", "key", key, "summary", summary)
			return
		}
	}
	n.lastNotifyTime[key] = time.Now()

	urgency := model.UrgencyNormal
	icon := "dialog-information"
	switch level {
	case NotificationLevelInfo:
		urgency = model.UrgencyLow
		icon = "dialog-information"
	case NotificationLevelWarning:
		urgency = model.UrgencyNormal
		icon = "dialog-warning"
	case NotificationLevelError:
		urgency = model.UrgencyCritical
		icon = "dialog-error"
	}

	rec := model.New("dunstd", time.Now().UnixMicro())
	rec.Summary = summary
	rec.Body = body
	rec.Urgency = urgency
	rec.Category = "device"
	rec.DesktopEntry = "dunstd"
	rec.IconName = icon
	rec.Hints.Transient = true
	rec.TimeoutLength = int64(5 * time.Second / time.Microsecond)

	n.logger.Debug("sending internal notification", "key", key, "summary", summary, "level", level)
	_ = n.insertHandler(rec)
}

// NotifyConfigReloaded sends a notification about config being reloaded.
func (n *InternalNotifier) NotifyConfigReloaded() {
	n.Notify(
		"config-reload",
		"Configuration Reloaded",
		"dunstd configuration has been successfully reloaded.",
		NotificationLevelInfo,
	)
}

// NotifyConfigError sends a notification about config validation error.
func (n *InternalNotifier) NotifyConfigError(err error) {
	n.Notify(
		"config-error",
		"Configuration Error",
		"Failed to reload configuration: "+err.Error(),
		NotificationLevelWarning,
	)
}

// NotifyRulesReloaded sends a notification about the rule file being reloaded.
func (n *InternalNotifier) NotifyRulesReloaded(count int) {
	n.Notify(
		"rules-reload",
		"Rules Reloaded",
		"Reloaded the rule file.",
		NotificationLevelInfo,
	)
	_ = count
}

// NotifyRulesError sends a notification about a rule file parse error.
func (n *InternalNotifier) NotifyRulesError(err error) {
	n.Notify(
		"rules-error",
		"Rules Error",
		"Failed to reload rule file: "+err.Error(),
		NotificationLevelWarning,
	)
}

// NotifyThemeReloaded sends a notification about theme being reloaded.
func (n *InternalNotifier) NotifyThemeReloaded(themeName string) {
	n.Notify(
		"theme-reload",
		"Theme Reloaded",
		"Theme '"+themeName+"' has been reloaded.",
		NotificationLevelInfo,
	)
}

// NotifyThemeError sends a notification about theme loading error.
func (n *InternalNotifier) NotifyThemeError(err error) {
	n.Notify(
		"theme-error",
		"Theme Error",
		"Failed to load theme: "+err.Error(),
		NotificationLevelWarning,
	)
}

// NotifyDnDChanged sends a notification about pause-level state change.
func (n *InternalNotifier) NotifyDnDChanged(paused bool, reason string) {
	var summary, body string
	if paused {
		summary = "Do Not Disturb Enabled"
		body = "Notifications will be suppressed."
	} else {
		summary = "Do Not Disturb Disabled"
		body = "Notifications will now be displayed."
	}
	if reason != "" {
		body += " (" + reason + ")"
	}
	n.Notify("dnd-change", summary, body, NotificationLevelInfo)
}

// NotifyStartup sends a notification that the daemon has started.
func (n *InternalNotifier) NotifyStartup(version string) {
	n.Notify(
		"startup",
		"dunstd Started",
		"Notification daemon v"+version+" is now running.",
		NotificationLevelInfo,
	)
}

// NotifyAudioError sends a notification about audio playback error.
func (n *InternalNotifier) NotifyAudioError(err error) {
	n.Notify(
		"audio-error",
		"Audio Error",
		"Failed to play notification sound: "+err.Error(),
		NotificationLevelWarning,
	)
}
