// Package bus implements the Bus Frontend: the
// org.freedesktop.Notifications D-Bus interface's thin translation
// layer between wire-level Notify/CloseNotification calls and
// model.Record, and the NotificationClosed/ActionInvoked signals back
// out. It never assigns notification ids itself or decides admission;
// every Notify call is handed to the Lifecycle Controller, which is
// the sole id authority (spec 4.3.1, 4.4).
package bus
