package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/atotto/clipboard"

	"github.com/jmylchreest/dunstd/internal/audio"
	"github.com/jmylchreest/dunstd/internal/config"
	"github.com/jmylchreest/dunstd/internal/format"
	"github.com/jmylchreest/dunstd/internal/icon"
	"github.com/jmylchreest/dunstd/internal/model"
	"github.com/jmylchreest/dunstd/internal/queue"
	"github.com/jmylchreest/dunstd/internal/rules"
	"github.com/jmylchreest/dunstd/internal/status"
)

// ContextMenuItem is one entry of a context menu the Input Frontend may
// request over a record (spec EXPANSION, "Supplemented features" #1).
type ContextMenuItem struct {
	Key   string
	Label string
}

// Engine is the Lifecycle Controller. All of its exported methods are
// safe to call from any goroutine: each one marshals onto the single
// internal event loop goroutine before touching the queues, rule
// engine, or a record.
type Engine struct {
	queue  *queue.Engine
	rules  *rules.Engine
	status *status.Model
	icons  *icon.Resolver
	audio  *audio.Manager
	logger *slog.Logger

	cfg              *config.DaemonConfig
	externalNotifier queue.Notifier

	// borrows tracks the pre-borrow timeout of every outstanding async
	// worker by BorrowID, so release can restore it. Only ever touched
	// from the event-loop goroutine (borrow/release both run inside
	// e.do), so it needs no lock of its own.
	borrows map[string]int64

	cmdCh  chan func()
	wakeCh chan struct{}
	stopCh chan struct{}

	// renderCh carries the same coalescing wake signal out to the
	// Renderer, which cannot call Displayed() from inside the loop
	// goroutine itself (that would deadlock against e.do). The
	// Renderer selects on RenderWake() from its own goroutine instead.
	renderCh chan struct{}
}

// New creates an Engine wired from the given config, rule file, icon
// resolver, and audio manager. Run must be called (typically in its own
// goroutine) before any record flows through the engine.
func New(cfg *config.DaemonConfig, ruleFile *config.RuleFileConfig, icons *icon.Resolver, audioMgr *audio.Manager, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		cfg:     cfg,
		icons:   icons,
		audio:   audioMgr,
		logger:  logger,
		borrows: make(map[string]int64),
		cmdCh:    make(chan func(), 64),
		wakeCh:   make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
		renderCh: make(chan struct{}, 1),
	}
	e.status = status.New(e.wake)
	e.rules = rules.BuildFromFile(ruleFile, icons, logger)
	e.queue = queue.New(queueConfigFromView(cfg.QueueConfig()), e, scriptRunner{e}, logger)
	return e
}

// scriptRunner adapts Engine to queue.ScriptRunner. It exists only
// because Engine.Run (the event loop) and queue.ScriptRunner.Run (fire
// a record's scripts) would otherwise collide on the same method name.
type scriptRunner struct{ e *Engine }

func (s scriptRunner) Run(rec *model.Record) { s.e.runScripts(rec) }

func queueConfigFromView(v config.QueueConfigView) queue.Config {
	return queue.Config{
		NotificationLimit: v.NotificationLimit,
		IndicateHidden:    v.IndicateHidden,
		Sort:              v.Sort,
		StackDuplicates:   v.StackDuplicates,
		HistoryLength:     v.HistoryLength,
		StickyHistory:     v.StickyHistory,
		AlwaysRunScript:   v.AlwaysRunScript,
	}
}

func formatOptionsFromView(v config.FormatOptionsView) format.Options {
	ageThreshold := time.Duration(-1)
	if v.ShowAgeThresholdMS >= 0 {
		ageThreshold = time.Duration(v.ShowAgeThresholdMS) * time.Millisecond
	}
	return format.Options{
		Template:           v.Template,
		Markup:             model.MarkupMode(v.Markup),
		IgnoreNewline:      v.IgnoreNewline,
		ShowIndicators:     v.ShowIndicators,
		HideDuplicateCount: v.HideDuplicateCount,
		ShowAgeThreshold:   ageThreshold,
	}
}

// SetNotifier sets the collaborator notified whenever the Queue Engine
// actually closes a record (spec 4.3.2). This is typically the Bus
// Frontend's NotificationServer; Engine itself implements
// queue.Notifier and forwards to this delegate so the Queue Engine
// only ever needs to know about Engine.
func (e *Engine) SetNotifier(n queue.Notifier) {
	e.externalNotifier = n
}

// Status returns the Status Model so collaborators (Renderer idle
// detection, fullscreen watcher, DnD toggling) can feed it directly.
func (e *Engine) Status() *status.Model {
	return e.status
}

// Run drives the single event loop until ctx is canceled or Stop is
// called. It must run in exactly one goroutine for the lifetime of the
// Engine.
func (e *Engine) Run(ctx context.Context) error {
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		e.runUpdate()
		e.resetTimer(timer)

		select {
		case <-ctx.Done():
			return nil
		case <-e.stopCh:
			return nil
		case fn := <-e.cmdCh:
			fn()
		case <-e.wakeCh:
		case <-timer.C:
		}
	}
}

// Stop ends the event loop started by Run.
func (e *Engine) Stop() {
	close(e.stopCh)
}

func (e *Engine) resetTimer(timer *time.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	ageThreshold := time.Duration(-1)
	if e.cfg.Format.ShowAgeThreshold > 0 {
		ageThreshold = e.cfg.Format.ShowAgeThreshold.Duration()
	}
	delay := e.queue.NextWake(nowMicro(), ageThreshold)
	if delay < 0 {
		timer.Reset(time.Hour)
		return
	}
	timer.Reset(time.Duration(delay) * time.Microsecond)
}

func (e *Engine) runUpdate() {
	snap := e.status.Get()
	e.queue.Update(queue.Status{
		Fullscreen: snap.Fullscreen,
		Idle:       snap.Idle,
		Paused:     snap.Paused(),
	}, nowMicro())
}

// wake is the coalescing wake signal (spec 4.4): a non-blocking send on
// a capacity-1 channel, so any number of setters firing between two
// loop iterations only wakes it once.
func (e *Engine) wake() {
	select {
	case e.wakeCh <- struct{}{}:
	default:
	}
	select {
	case e.renderCh <- struct{}{}:
	default:
	}
}

// RenderWake returns the channel the Renderer selects on to learn the
// displayed queue may have changed and it should resync its popup
// windows by calling Displayed() again (spec 4.4: the Lifecycle
// Controller "owns the coalescing wake signal raised by Renderer and
// Bus Frontend"). Safe to call once and hold; sends are coalescing.
func (e *Engine) RenderWake() <-chan struct{} {
	return e.renderCh
}

// do runs fn on the event-loop goroutine and blocks until it returns.
func (e *Engine) do(fn func()) {
	done := make(chan struct{})
	e.cmdCh <- func() {
		fn()
		close(done)
	}
	<-done
}

// Insert runs the fixed rules -> formatter -> insert pipeline (spec
// 4.4) and returns the id the Queue Engine assigned, or 0 if the
// record was rejected.
func (e *Engine) Insert(rec *model.Record) uint32 {
	var id uint32
	e.do(func() {
		id = e.insertLocked(rec)
	})
	return id
}

func (e *Engine) insertLocked(rec *model.Record) uint32 {
	rec.Scripts = e.rules.ApplyAll(rec)

	if rec.TimeoutLength < 0 {
		rec.TimeoutLength = int64(e.cfg.TimeoutForUrgency(int(rec.Urgency)) / time.Microsecond)
	}

	format.Expand(rec, formatOptionsFromView(e.cfg.FormatOptionsForUrgency(int(rec.Urgency))))

	id := e.queue.Insert(rec)
	if id != 0 && !rec.Hints.SuppressSound && !e.status.Get().Paused() {
		e.playSound(rec.Urgency)
	}
	e.wake()
	return id
}

func (e *Engine) playSound(urgency model.Urgency) {
	if e.audio == nil {
		return
	}
	go func() {
		if err := e.audio.PlayForUrgency(int(urgency)); err != nil {
			e.logger.Warn("failed to play notification sound", "urgency", urgency, "error", err)
		}
	}()
}

// Close closes a record by id with the given reason (spec 4.3.2).
func (e *Engine) Close(id uint32, reason model.CloseReason) {
	e.do(func() {
		e.queue.Close(id, reason)
		e.wake()
	})
}

// PopHistory moves the most recently archived record back to waiting
// (spec 4.3.4).
func (e *Engine) PopHistory() {
	e.do(func() {
		e.queue.PopHistory()
		e.wake()
	})
}

// PopHistoryByID moves a specific archived record back to waiting.
func (e *Engine) PopHistoryByID(id uint32) {
	e.do(func() {
		e.queue.PopHistoryByID(id)
		e.wake()
	})
}

// PushAll closes every displayed and waiting record as user-dismissed.
func (e *Engine) PushAll() {
	e.do(func() {
		e.queue.PushAll()
		e.wake()
	})
}

// Waiting, Displayed, and History return read-only snapshots of the
// three queues (spec 4.3, "snapshot").
func (e *Engine) Waiting() []*model.Record {
	var out []*model.Record
	e.do(func() { out = e.queue.Waiting() })
	return out
}

func (e *Engine) Displayed() []*model.Record {
	var out []*model.Record
	e.do(func() { out = e.queue.Displayed() })
	return out
}

func (e *Engine) History() []*model.Record {
	var out []*model.Record
	e.do(func() { out = e.queue.History() })
	return out
}

// ByID looks up a record across all three queues.
func (e *Engine) ByID(id uint32) *model.Record {
	var out *model.Record
	e.do(func() { out = e.queue.ByID(id) })
	return out
}

// ReloadConfig swaps in a freshly parsed daemon config. Later inserts
// use its timeouts and format options; the Queue Engine keeps the queue
// tunables (limit, sort, stacking, history length) it was built with,
// since they are not copied from the new config.
func (e *Engine) ReloadConfig(cfg *config.DaemonConfig) {
	e.do(func() {
		e.cfg = cfg
		e.wake()
	})
}

// ReloadRules rebuilds the Rule Engine from a freshly parsed rule file.
// In-flight records keep whatever the old rules already applied; only
// future Insert calls see the new rule set.
func (e *Engine) ReloadRules(ruleFile *config.RuleFileConfig) {
	e.do(func() {
		e.rules = rules.BuildFromFile(ruleFile, e.icons, e.logger)
	})
}

// Closed implements queue.Notifier: the Queue Engine calls this
// whenever it actually closes a displayed-or-waiting record. Engine
// has no bus-signaling opinion of its own; it forwards to whatever
// collaborator registered via SetNotifier (spec EXPANSION: "Bus
// Frontend is a thin reader").
func (e *Engine) Closed(rec *model.Record, reason model.CloseReason) {
	if e.externalNotifier != nil {
		e.externalNotifier.Closed(rec, reason)
	}
}

// runScripts backs the queue.ScriptRunner adapter above. Scripts are
// only ever read off rec.Scripts, populated by insertLocked; this
// package never calls back into the Rule Engine to re-derive them
// (spec 4.1 commentary on rules.Engine.ApplyAll).
func (e *Engine) runScripts(rec *model.Record) {
	scripts := append([]string(nil), rec.Scripts...)
	if len(scripts) == 0 {
		return
	}

	token := e.borrow(rec)
	summary, body, appName, urgency, id := rec.Summary, rec.Body, rec.AppName, rec.Urgency, rec.ID

	go func() {
		for _, script := range scripts {
			cmd := exec.Command(script)
			cmd.Env = append(os.Environ(),
				"DUNST_APP_NAME="+appName,
				"DUNST_SUMMARY="+summary,
				"DUNST_BODY="+body,
				"DUNST_URGENCY="+urgency.String(),
				fmt.Sprintf("DUNST_ID=%d", id),
			)
			if err := cmd.Run(); err != nil {
				e.logger.Warn("notification script failed", "script", script, "id", id, "error", err)
			}
		}
		e.do(func() { e.release(rec, token) })
	}()
}

// CopyToClipboard writes a record's summary and body to the system
// clipboard (spec EXPANSION, "Supplemented features" #2). The borrow
// is synchronous: the write itself does not outlive this call, so it
// is taken and released within it rather than handed to a worker
// goroutine the way scripts are.
func (e *Engine) CopyToClipboard(id uint32) error {
	var err error
	e.do(func() {
		rec := e.queue.ByID(id)
		if rec == nil {
			err = fmt.Errorf("engine: no record with id %d", id)
			return
		}
		token := e.borrow(rec)
		defer e.release(rec, token)

		text := rec.Summary
		if rec.Body != "" {
			text += "\n" + rec.Body
		}
		err = clipboard.WriteAll(text)
	})
	return err
}

// ContextMenuItems returns the action list for a record: its
// producer-declared actions plus a synthetic open/close pair (spec
// EXPANSION, "Supplemented features" #1). The core produces only the
// list; menu rendering belongs to the Input Frontend.
func (e *Engine) ContextMenuItems(id uint32) ([]ContextMenuItem, error) {
	var (
		items []ContextMenuItem
		err   error
	)
	e.do(func() {
		rec := e.queue.ByID(id)
		if rec == nil {
			err = fmt.Errorf("engine: no record with id %d", id)
			return
		}
		if rec.DefaultAction != "" {
			if label, ok := rec.Actions[rec.DefaultAction]; ok {
				items = append(items, ContextMenuItem{Key: rec.DefaultAction, Label: label})
			}
		}
		for key, label := range rec.Actions {
			if key == rec.DefaultAction {
				continue
			}
			items = append(items, ContextMenuItem{Key: key, Label: label})
		}
		items = append(items, ContextMenuItem{Key: "open", Label: "Open"})
		items = append(items, ContextMenuItem{Key: "close", Label: "Close"})
	})
	return items, err
}

// borrow pins rec sticky and locked so the update sweep can never expire
// or evict it out from under an in-flight worker (spec 4.4: "borrow =
// ref() + set timeout := 0 and lock := true"), remembering the timeout
// it overwrote so release can restore it.
func (e *Engine) borrow(rec *model.Record) string {
	rec.Ref()
	if rec.BorrowID == "" {
		rec.BorrowID = model.NewBorrowID()
	}
	e.borrows[rec.BorrowID] = rec.TimeoutLength
	rec.TimeoutLength = 0
	rec.Lock()
	return rec.BorrowID
}

// release restores the timeout borrow saved, unlocks, and unrefs
// (spec 4.4: "release = restore timeout, unlock, unref").
func (e *Engine) release(rec *model.Record, token string) {
	if saved, ok := e.borrows[token]; ok {
		rec.TimeoutLength = saved
		delete(e.borrows, token)
	}
	rec.Unlock()
	rec.Unref()
	e.wake()
}

var nowMicro = func() int64 { return time.Now().UnixMicro() }
