// Package render implements the Renderer: a thin GTK4/libadwaita
// frontend that turns the Queue Engine's displayed snapshot into
// layer-shell popup windows.
//
// It owns no notification state of its own. Duplicate detection,
// priority preemption, timeout bookkeeping, and id assignment all
// belong solely to the Queue Engine (internal/queue, reached through
// internal/engine); this package's Manager only ever reconciles its
// set of live gtk.Window instances against whatever
// engine.Engine.Displayed() currently returns, keyed on
// model.Record.ID. It never stacks, sorts, or expires a record on its
// own account.
package render
