package bus

import (
	"fmt"
	"time"

	"github.com/jmylchreest/dunstd/internal/model"
)

// EmitNotificationClosed emits the NotificationClosed signal. The
// freedesktop close-reason encoding (1 expired, 2 user dismissed, 3
// closed, 4 replaced) matches model.CloseReason's values exactly, so
// no translation table is needed.
func (s *NotificationServer) EmitNotificationClosed(id uint32, reason model.CloseReason) error {
	if s.conn == nil {
		return fmt.Errorf("not connected to D-Bus")
	}

	err := s.conn.Emit(DBusPath, DBusInterface+".NotificationClosed", id, uint32(reason))
	if err != nil {
		return fmt.Errorf("failed to emit NotificationClosed signal: %w", err)
	}

	s.logger.Debug("emitted NotificationClosed signal", "id", id, "reason", reason.String())
	return nil
}

// EmitActionInvoked emits the ActionInvoked signal.
func (s *NotificationServer) EmitActionInvoked(id uint32, actionKey string) error {
	if s.conn == nil {
		return fmt.Errorf("not connected to D-Bus")
	}

	err := s.conn.Emit(DBusPath, DBusInterface+".ActionInvoked", id, actionKey)
	if err != nil {
		return fmt.Errorf("failed to emit ActionInvoked signal: %w", err)
	}

	s.logger.Debug("emitted ActionInvoked signal", "id", id, "action_key", actionKey)
	return nil
}

// EmitActivationToken emits the ActivationToken signal (spec 1.2+),
// sent before ActionInvoked when the compositor supplies a token.
func (s *NotificationServer) EmitActivationToken(id uint32, activationToken string) error {
	if s.conn == nil {
		return fmt.Errorf("not connected to D-Bus")
	}

	err := s.conn.Emit(DBusPath, DBusInterface+".ActivationToken", id, activationToken)
	if err != nil {
		return fmt.Errorf("failed to emit ActivationToken signal: %w", err)
	}

	s.logger.Debug("emitted ActivationToken signal", "id", id)
	return nil
}

// InvokeAction emits ActionInvoked for id/actionKey. The caller is
// responsible for closing the record afterward if it isn't resident;
// this package has no opinion on that, it only speaks the wire protocol.
func (s *NotificationServer) InvokeAction(id uint32, actionKey string) error {
	return s.EmitActionInvoked(id, actionKey)
}

var nowMicro = func() int64 { return time.Now().UnixMicro() }
