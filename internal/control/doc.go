// Package control implements a small D-Bus interface, separate from
// org.freedesktop.Notifications, that lets dunstctl inspect and drive
// a running dunstd: dumping the three queues, pausing/resuming, and
// replaying or dismissing records. It is a thin translation layer
// over internal/engine; it owns no notification state of its own.
package control
