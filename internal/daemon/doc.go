// Package daemon provides config and rule hot-reload plumbing and
// rate-limited internal notifications for dunstd. The Lifecycle
// Controller itself lives in internal/engine; this package supplies
// the watchers and notifier it wires up at startup.
package daemon
