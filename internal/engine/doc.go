// Package engine implements the Lifecycle Controller (component E): the
// single entry point external collaborators call into. It runs the
// fixed pipeline rules -> formatter -> queue on every admission, owns
// the coalescing wake signal the Status Model and Renderer raise, and
// implements record borrowing for asynchronous workers (script,
// clipboard, menu).
//
// The Lifecycle Controller is its own single-threaded event loop: a
// dedicated goroutine draining a command channel, not fused with any
// toolkit's main loop. This keeps the package free of a GTK import and
// unit-testable; cmd/dunstd drives the Renderer's GTK loop separately
// and talks to this package only through its exported methods, each of
// which marshals onto the loop goroutine before touching any record.
package engine
