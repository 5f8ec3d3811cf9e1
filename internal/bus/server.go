package bus

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/jmylchreest/dunstd/internal/model"
)

const (
	// DBusInterface is the notification interface name.
	DBusInterface = "org.freedesktop.Notifications"
	// DBusPath is the notification object path.
	DBusPath = "/org/freedesktop/Notifications"
	// DBusBusName is the bus name to claim.
	DBusBusName = "org.freedesktop.Notifications"
)

// NotifyHandler is called for every incoming Notify call, with a
// Record already translated from the wire arguments. It returns the
// id the Lifecycle Controller assigned (via the Queue Engine), or 0
// if the record was rejected outright (spec 4.3.1, empty message).
type NotifyHandler func(rec *model.Record) uint32

// CloseHandler is called when CloseNotification is requested; the
// Lifecycle Controller's own Close decides whether the id exists and
// whether a NotificationClosed signal is warranted.
type CloseHandler func(id uint32)

// NotificationServer implements the org.freedesktop.Notifications
// D-Bus interface. It holds no notification state of its own: the
// Queue Engine is the single source of truth for which ids exist.
type NotificationServer struct {
	conn   *dbus.Conn
	logger *slog.Logger

	notifyHandler NotifyHandler
	closeHandler  CloseHandler

	mu            sync.RWMutex
	serverInfo    ServerInfo
	markupEnabled bool
	running       bool
}

// NewNotificationServer creates a new NotificationServer.
func NewNotificationServer(logger *slog.Logger) *NotificationServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationServer{
		logger:     logger,
		serverInfo: DefaultServerInfo(),
	}
}

// SetNotifyHandler sets the handler called when a notification is received.
func (s *NotificationServer) SetNotifyHandler(handler NotifyHandler) {
	s.notifyHandler = handler
}

// SetCloseHandler sets the handler called when CloseNotification is requested.
func (s *NotificationServer) SetCloseHandler(handler CloseHandler) {
	s.closeHandler = handler
}

// SetServerInfo sets the server information returned by GetServerInformation.
func (s *NotificationServer) SetServerInfo(info ServerInfo) {
	s.serverInfo = info
}

// SetMarkupEnabled controls whether GetCapabilities advertises
// "body-markup" (spec 6.1): true when any configured format uses a
// markup mode other than None.
func (s *NotificationServer) SetMarkupEnabled(enabled bool) {
	s.mu.Lock()
	s.markupEnabled = enabled
	s.mu.Unlock()
}

// Start connects to the session bus and exports the notification service.
func (s *NotificationServer) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}
	s.mu.Unlock()

	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	s.conn = conn

	if err := conn.Export(s, DBusPath, DBusInterface); err != nil {
		return fmt.Errorf("failed to export object: %w", err)
	}

	node := &introspect.Node{
		Name: DBusPath,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    DBusInterface,
				Methods: notificationMethods(),
				Signals: notificationSignals(),
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), DBusPath,
		"org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export introspectable: %w", err)
	}

	reply, err := conn.RequestName(DBusBusName, dbus.NameFlagDoNotQueue|dbus.NameFlagReplaceExisting)
	if err != nil {
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("bus name %s already taken", DBusBusName)
	}

	s.mu.Lock()
	s.running = true
	s.mu.Unlock()

	s.logger.Info("D-Bus notification server started", "interface", DBusInterface, "path", DBusPath)
	return nil
}

// Stop releases the bus name.
func (s *NotificationServer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	if s.conn != nil {
		if _, err := s.conn.ReleaseName(DBusBusName); err != nil {
			s.logger.Warn("failed to release bus name", "error", err)
		}
	}

	s.logger.Info("D-Bus notification server stopped")
	return nil
}

// GetCapabilities returns the list of capabilities supported by this server.
// D-Bus method: GetCapabilities() -> as
func (s *NotificationServer) GetCapabilities() ([]string, *dbus.Error) {
	s.logger.Debug("GetCapabilities called")
	s.mu.RLock()
	enabled := s.markupEnabled
	s.mu.RUnlock()
	return Capabilities(enabled), nil
}

// GetServerInformation returns information about the notification server.
// D-Bus method: GetServerInformation() -> (ssss)
func (s *NotificationServer) GetServerInformation() (string, string, string, string, *dbus.Error) {
	s.logger.Debug("GetServerInformation called")
	return s.serverInfo.Name, s.serverInfo.Vendor, s.serverInfo.Version, s.serverInfo.SpecVersion, nil
}

// Notify handles incoming notification requests.
// D-Bus method: Notify(susssasa{sv}i) -> u
func (s *NotificationServer) Notify(
	appName string,
	replacesID uint32,
	appIcon string,
	summary string,
	body string,
	actions []string,
	hints map[string]dbus.Variant,
	expireTimeout int32,
) (uint32, *dbus.Error) {
	n := &DBusNotification{
		AppName:       appName,
		ReplacesID:    replacesID,
		AppIcon:       appIcon,
		Summary:       summary,
		Body:          body,
		Actions:       actions,
		Hints:         hints,
		ExpireTimeout: expireTimeout,
	}

	s.logger.Debug("Notify called", "app_name", appName, "replaces_id", replacesID, "summary", summary)

	if s.notifyHandler == nil {
		return 0, dbus.NewError(DBusInterface+".Error", []interface{}{"server not ready"})
	}
	id := s.notifyHandler(n.ToRecord(nowMicro()))
	return id, nil
}

// CloseNotification closes a notification by ID.
// D-Bus method: CloseNotification(u) -> nothing
func (s *NotificationServer) CloseNotification(id uint32) *dbus.Error {
	s.logger.Debug("CloseNotification called", "id", id)
	if s.closeHandler != nil {
		s.closeHandler(id)
	}
	return nil
}

// Closed implements queue.Notifier: it runs whenever the Queue Engine
// actually removes a displayed-or-waiting record, and emits the
// NotificationClosed signal over the bus.
func (s *NotificationServer) Closed(rec *model.Record, reason model.CloseReason) {
	if err := s.EmitNotificationClosed(rec.ID, reason); err != nil {
		s.logger.Warn("failed to emit NotificationClosed signal", "id", rec.ID, "error", err)
	}
}

// Connection returns the underlying D-Bus connection.
func (s *NotificationServer) Connection() *dbus.Conn {
	return s.conn
}

func notificationMethods() []introspect.Method {
	return []introspect.Method{
		{
			Name: "GetCapabilities",
			Args: []introspect.Arg{
				{Name: "capabilities", Type: "as", Direction: "out"},
			},
		},
		{
			Name: "GetServerInformation",
			Args: []introspect.Arg{
				{Name: "name", Type: "s", Direction: "out"},
				{Name: "vendor", Type: "s", Direction: "out"},
				{Name: "version", Type: "s", Direction: "out"},
				{Name: "spec_version", Type: "s", Direction: "out"},
			},
		},
		{
			Name: "Notify",
			Args: []introspect.Arg{
				{Name: "app_name", Type: "s", Direction: "in"},
				{Name: "replaces_id", Type: "u", Direction: "in"},
				{Name: "app_icon", Type: "s", Direction: "in"},
				{Name: "summary", Type: "s", Direction: "in"},
				{Name: "body", Type: "s", Direction: "in"},
				{Name: "actions", Type: "as", Direction: "in"},
				{Name: "hints", Type: "a{sv}", Direction: "in"},
				{Name: "expire_timeout", Type: "i", Direction: "in"},
				{Name: "id", Type: "u", Direction: "out"},
			},
		},
		{
			Name: "CloseNotification",
			Args: []introspect.Arg{
				{Name: "id", Type: "u", Direction: "in"},
			},
		},
	}
}

func notificationSignals() []introspect.Signal {
	return []introspect.Signal{
		{
			Name: "NotificationClosed",
			Args: []introspect.Arg{
				{Name: "id", Type: "u"},
				{Name: "reason", Type: "u"},
			},
		},
		{
			Name: "ActionInvoked",
			Args: []introspect.Arg{
				{Name: "id", Type: "u"},
				{Name: "action_key", Type: "s"},
			},
		},
	}
}
