package control

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/jmylchreest/dunstd/internal/engine"
	"github.com/jmylchreest/dunstd/internal/model"
)

const (
	// DBusInterface is the control interface name.
	DBusInterface = "org.dunst.Control"
	// DBusPath is the control object path.
	DBusPath = "/org/dunst/Control"
	// DBusBusName is the well-known bus name dunstctl dials.
	DBusBusName = "org.dunst.Control"
)

// Server exports DBusInterface over the session bus, translating every
// call directly into an engine.Engine method. It holds no state beyond
// the connection itself.
type Server struct {
	eng    *engine.Engine
	logger *slog.Logger

	mu      sync.Mutex
	conn    *dbus.Conn
	running bool
}

// NewServer creates a Server bound to eng.
func NewServer(eng *engine.Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{eng: eng, logger: logger}
}

// Start connects to the session bus, requests DBusBusName, and exports
// the control object. Safe to call after bus.NotificationServer.Start,
// since each well-known name is requested independently on whatever
// connection is handed in.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("control server already running")
	}
	s.mu.Unlock()

	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	s.conn = conn

	if err := conn.Export(s, DBusPath, DBusInterface); err != nil {
		return fmt.Errorf("failed to export control object: %w", err)
	}

	node := &introspect.Node{
		Name: DBusPath,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    DBusInterface,
				Methods: controlMethods(),
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), DBusPath,
		"org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export control introspectable: %w", err)
	}

	reply, err := conn.RequestName(DBusBusName, dbus.NameFlagDoNotQueue|dbus.NameFlagReplaceExisting)
	if err != nil {
		return fmt.Errorf("failed to request control bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("control bus name %s already taken", DBusBusName)
	}

	s.mu.Lock()
	s.running = true
	s.mu.Unlock()

	s.logger.Info("control server started", "interface", DBusInterface, "path", DBusPath)
	return nil
}

// Stop releases the control bus name.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}
	s.running = false
	if s.conn != nil {
		if _, err := s.conn.ReleaseName(DBusBusName); err != nil {
			s.logger.Warn("failed to release control bus name", "error", err)
		}
	}
	return nil
}

// Dump returns the three queues, JSON-encoded; dunstctl's get, status
// and tui commands read them through Client.Dump (spec EXPANSION
// "Supplemented features" #5).
// D-Bus method: Dump() -> s
func (s *Server) Dump() (string, *dbus.Error) {
	d := Dump{
		Waiting:   viewsFromRecords(s.eng.Waiting()),
		Displayed: viewsFromRecords(s.eng.Displayed()),
		History:   viewsFromRecords(s.eng.History()),
	}
	data, err := json.Marshal(d)
	if err != nil {
		return "", dbus.NewError(DBusInterface+".Error", []interface{}{err.Error()})
	}
	return string(data), nil
}

// GetStatus returns the current pause level and fullscreen flag,
// JSON-encoded.
// D-Bus method: GetStatus() -> s
func (s *Server) GetStatus() (string, *dbus.Error) {
	snap := s.eng.Status().Get()
	st := Status{PauseLevel: snap.PauseLevel, Paused: snap.Paused(), Fullscreen: snap.Fullscreen}
	data, err := json.Marshal(st)
	if err != nil {
		return "", dbus.NewError(DBusInterface+".Error", []interface{}{err.Error()})
	}
	return string(data), nil
}

// Pause raises the pause level by one.
// D-Bus method: Pause() -> nothing
func (s *Server) Pause() *dbus.Error {
	s.eng.Status().Pause()
	return nil
}

// Resume lowers the pause level by one, clamped at zero.
// D-Bus method: Resume() -> nothing
func (s *Server) Resume() *dbus.Error {
	s.eng.Status().Resume()
	return nil
}

// SetPauseLevel sets the pause level directly (dunstctl dnd on/off set
// levels 1 and 0, spec EXPANSION "Supplemented features" #6).
// D-Bus method: SetPauseLevel(i) -> nothing
func (s *Server) SetPauseLevel(level int32) *dbus.Error {
	s.eng.Status().SetPauseLevel(int(level))
	return nil
}

// Close closes a record by id with the given reason (1-4, matching
// model.CloseReason).
// D-Bus method: Close(uu) -> nothing
func (s *Server) Close(id uint32, reason uint32) *dbus.Error {
	s.eng.Close(id, model.CloseReason(reason))
	return nil
}

// PushAll dismisses every waiting and displayed record.
// D-Bus method: PushAll() -> nothing
func (s *Server) PushAll() *dbus.Error {
	s.eng.PushAll()
	return nil
}

// PopHistory replays the most recently archived record back to waiting.
// D-Bus method: PopHistory() -> nothing
func (s *Server) PopHistory() *dbus.Error {
	s.eng.PopHistory()
	return nil
}

// PopHistoryByID replays a specific archived record back to waiting.
// D-Bus method: PopHistoryByID(u) -> nothing
func (s *Server) PopHistoryByID(id uint32) *dbus.Error {
	s.eng.PopHistoryByID(id)
	return nil
}

// ContextMenu returns the keys and labels of the action list the Input
// Frontend would present for id (spec EXPANSION "Supplemented
// features" #1).
// D-Bus method: ContextMenu(u) -> (asas)
func (s *Server) ContextMenu(id uint32) ([]string, []string, *dbus.Error) {
	items, err := s.eng.ContextMenuItems(id)
	if err != nil {
		return nil, nil, dbus.NewError(DBusInterface+".Error", []interface{}{err.Error()})
	}
	keys := make([]string, len(items))
	labels := make([]string, len(items))
	for i, it := range items {
		keys[i] = it.Key
		labels[i] = it.Label
	}
	return keys, labels, nil
}

func controlMethods() []introspect.Method {
	return []introspect.Method{
		{Name: "Dump", Args: []introspect.Arg{{Name: "json", Type: "s", Direction: "out"}}},
		{Name: "GetStatus", Args: []introspect.Arg{{Name: "json", Type: "s", Direction: "out"}}},
		{Name: "Pause"},
		{Name: "Resume"},
		{Name: "SetPauseLevel", Args: []introspect.Arg{{Name: "level", Type: "i", Direction: "in"}}},
		{Name: "Close", Args: []introspect.Arg{
			{Name: "id", Type: "u", Direction: "in"},
			{Name: "reason", Type: "u", Direction: "in"},
		}},
		{Name: "PushAll"},
		{Name: "PopHistory"},
		{Name: "PopHistoryByID", Args: []introspect.Arg{{Name: "id", Type: "u", Direction: "in"}}},
		{Name: "ContextMenu", Args: []introspect.Arg{
			{Name: "id", Type: "u", Direction: "in"},
			{Name: "keys", Type: "as", Direction: "out"},
			{Name: "labels", Type: "as", Direction: "out"},
		}},
	}
}
