package control

import (
	"encoding/json"
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/dunstd/internal/model"
)

// Client is a thin D-Bus caller for org.dunst.Control, used by dunstctl
// to inspect and drive a running dunstd. It keeps no cache: every call
// round-trips to the live daemon.
type Client struct {
	obj dbus.BusObject
}

// NewClient connects to the session bus and addresses the control
// object. It does not verify the daemon is actually running; the first
// call surfaces a connection error if it isn't.
func NewClient() (*Client, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &Client{obj: conn.Object(DBusBusName, dbus.ObjectPath(DBusPath))}, nil
}

func (c *Client) call(method string, args ...interface{}) *dbus.Call {
	return c.obj.Call(DBusInterface+"."+method, 0, args...)
}

// Dump fetches the three queues from the running daemon.
func (c *Client) Dump() (Dump, error) {
	var raw string
	if err := c.call("Dump").Store(&raw); err != nil {
		return Dump{}, fmt.Errorf("dump: %w", err)
	}
	var d Dump
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return Dump{}, fmt.Errorf("dump: decode: %w", err)
	}
	return d, nil
}

// AllRecords flattens Dump into a single slice, waiting first, then
// displayed, then history, the order dunstctl's get/set subcommands
// search in for an id or index.
func (d Dump) AllRecords() []RecordView {
	out := make([]RecordView, 0, len(d.Waiting)+len(d.Displayed)+len(d.History))
	out = append(out, d.Waiting...)
	out = append(out, d.Displayed...)
	out = append(out, d.History...)
	return out
}

// GetStatus fetches the current pause level and fullscreen flag.
func (c *Client) GetStatus() (Status, error) {
	var raw string
	if err := c.call("GetStatus").Store(&raw); err != nil {
		return Status{}, fmt.Errorf("status: %w", err)
	}
	var st Status
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return Status{}, fmt.Errorf("status: decode: %w", err)
	}
	return st, nil
}

// Pause raises the daemon's pause level by one.
func (c *Client) Pause() error {
	return c.call("Pause").Err
}

// Resume lowers the daemon's pause level by one.
func (c *Client) Resume() error {
	return c.call("Resume").Err
}

// SetPauseLevel sets the daemon's pause level directly.
func (c *Client) SetPauseLevel(level int) error {
	return c.call("SetPauseLevel", int32(level)).Err
}

// Close asks the daemon to close id with the given reason.
func (c *Client) Close(id uint32, reason model.CloseReason) error {
	return c.call("Close", id, uint32(reason)).Err
}

// PushAll dismisses every waiting and displayed record.
func (c *Client) PushAll() error {
	return c.call("PushAll").Err
}

// PopHistory replays the most recently archived record back to waiting.
func (c *Client) PopHistory() error {
	return c.call("PopHistory").Err
}

// PopHistoryByID replays a specific archived record back to waiting.
func (c *Client) PopHistoryByID(id uint32) error {
	return c.call("PopHistoryByID", id).Err
}

// ContextMenu fetches the action list the daemon would offer for id.
func (c *Client) ContextMenu(id uint32) ([]ContextMenuEntry, error) {
	var keys, labels []string
	if err := c.call("ContextMenu", id).Store(&keys, &labels); err != nil {
		return nil, fmt.Errorf("context menu: %w", err)
	}
	entries := make([]ContextMenuEntry, len(keys))
	for i := range keys {
		entries[i] = ContextMenuEntry{Key: keys[i], Label: labels[i]}
	}
	return entries, nil
}

// ContextMenuEntry is one action a client may invoke on a record.
type ContextMenuEntry struct {
	Key   string
	Label string
}
