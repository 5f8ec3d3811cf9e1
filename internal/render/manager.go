package render

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/dunstd/internal/config"
	"github.com/jmylchreest/dunstd/internal/engine"
	"github.com/jmylchreest/dunstd/internal/model"
)

// ActionInvoker is called when a popup's action button (or a
// do-action/context-menu mouse binding) fires, so the Bus Frontend can
// emit ActionInvoked over D-Bus. The Renderer has no opinion on what
// happens next; it only reports the click.
type ActionInvoker func(id uint32, actionKey string)

// Manager reconciles a set of live popup windows against
// engine.Engine.Displayed(). It holds no duplicate/priority/timeout
// logic of its own: the Queue Engine, reached through eng, is the
// single source of truth for which records are displayed, their
// order, and their DuplicateCount.
type Manager struct {
	app    *gtk.Application
	eng    *engine.Engine
	cfg    *config.DaemonConfig
	logger *slog.Logger

	onAction ActionInvoker

	mu     sync.Mutex
	popups map[uint32]*Popup
}

// NewManager constructs a Manager bound to eng. Call Run to start
// reconciling; it must run after the GTK application has activated.
func NewManager(app *gtk.Application, eng *engine.Engine, cfg *config.DaemonConfig, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		app:    app,
		eng:    eng,
		cfg:    cfg,
		logger: logger,
		popups: make(map[uint32]*Popup),
	}
}

// SetActionInvoker registers the callback fired when a popup action is
// clicked.
func (m *Manager) SetActionInvoker(fn ActionInvoker) {
	m.onAction = fn
}

// UpdateConfig swaps in a freshly reloaded daemon config. Existing
// popups keep whatever layout/theme they were built with; only popups
// created after this call see the new config.
func (m *Manager) UpdateConfig(cfg *config.DaemonConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg = cfg
}

// Run blocks, reconciling popup windows every time eng.RenderWake()
// fires, until ctx is canceled. All GTK calls are marshaled onto the
// GTK main loop via glib.IdleAdd since this typically runs on a
// goroutine separate from the one gtk.Application.Run drives (spec 5:
// auxiliary threads only ever touch the toolkit through the main
// loop).
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	glib.IdleAdd(m.reconcile)

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.eng.RenderWake():
			glib.IdleAdd(m.reconcile)
		case <-ticker.C:
			glib.IdleAdd(m.refreshTimestamps)
		}
	}
}

// reconcile must run on the GTK main loop goroutine.
func (m *Manager) reconcile() {
	displayed := m.eng.Displayed()

	want := make(map[uint32]*model.Record, len(displayed))
	for _, rec := range displayed {
		want[rec.ID] = rec
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for id, p := range m.popups {
		if _, ok := want[id]; !ok {
			p.Close()
			delete(m.popups, id)
		}
	}

	for i, rec := range displayed {
		p, ok := m.popups[rec.ID]
		if !ok {
			p = m.newPopupLocked(rec)
			m.popups[rec.ID] = p
			p.Show(i)
			continue
		}
		p.SetStackCount(rec.DuplicateCount)
		p.UpdatePosition(i)
	}
}

func (m *Manager) newPopupLocked(rec *model.Record) *Popup {
	p := NewPopup(m.app, rec, m.cfg, m.logger)
	id := rec.ID

	p.OnClose(func(reason model.CloseReason) {
		m.eng.Close(id, reason)
	})
	p.OnAction(func(actionKey string) {
		if actionKey == "context-menu" {
			m.showContextMenu(id)
			return
		}
		if m.onAction != nil {
			m.onAction(id, actionKey)
		}
	})
	p.OnHover(func(hovering bool) {
		if !m.cfg.Behavior.PauseOnHover {
			return
		}
		if hovering {
			m.eng.Status().Pause()
		} else {
			m.eng.Status().Resume()
		}
	})
	p.OnCloseAll(func() {
		m.eng.PushAll()
	})

	return p
}

// showContextMenu asks the Lifecycle Controller for the record's
// action list and renders it as a GTK popover; the core only ever
// computes which items exist (spec EXPANSION, "Supplemented features"
// #1), never how they are presented.
func (m *Manager) showContextMenu(id uint32) {
	items, err := m.eng.ContextMenuItems(id)
	if err != nil {
		m.logger.Warn("context menu requested for unknown record", "id", id, "error", err)
		return
	}

	m.mu.Lock()
	p, ok := m.popups[id]
	m.mu.Unlock()
	if !ok {
		return
	}

	menuBox := gtk.NewBox(gtk.OrientationVertical, 2)
	popover := gtk.NewPopover()
	popover.SetParent(p.box)
	popover.SetChild(menuBox)

	for _, item := range items {
		key, label := item.Key, item.Label
		btn := gtk.NewButtonWithLabel(label)
		btn.SetHasFrame(false)
		btn.ConnectClicked(func() {
			popover.Popdown()
			switch key {
			case "close":
				m.eng.Close(id, model.ReasonUserDismissed)
			default:
				if m.onAction != nil {
					m.onAction(id, key)
				}
			}
		})
		menuBox.Append(btn)
	}

	popover.Popup()
}

func (m *Manager) refreshTimestamps() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.popups {
		if p.timestampLbl != nil {
			p.timestampLbl.SetText(formatRelativeTime(p.rec.Arrival))
		}
	}
}

// CloseAll immediately closes every live popup window, used on daemon
// shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, p := range m.popups {
		p.Close()
		delete(m.popups, id)
	}
}
