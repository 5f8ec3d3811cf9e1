// Package queue implements the Queue Engine (component C): the three
// notification queues (waiting, displayed, history) and the admission,
// close, and periodic update algorithms that move records between them
// (spec 4.3).
package queue

import (
	"log/slog"
	"math"
	"time"

	"github.com/jmylchreest/dunstd/internal/model"
)

// Notifier is called whenever a displayed-or-waiting record actually
// leaves the queues due to a close, so the Bus Frontend can emit
// NotificationClosed. Records pulled back out of history are not
// "closed" in this sense (original_source/src/queues.c
// queues_notification_close_id: "don't notify clients if notification
// was pulled from history").
type Notifier interface {
	Closed(rec *model.Record, reason model.CloseReason)
}

// ScriptRunner fires a record's configured scripts. The queue engine
// invokes it at the same lifecycle points the original daemon does:
// on admission with an empty message (if always-run is configured), and
// whenever a record starts being displayed (original_source/src/queues.c
// queues_notification_insert / queues_update / queues_stack_by_tag /
// queues_notification_replace_id all call notification_run_script at
// these exact points).
type ScriptRunner interface {
	Run(rec *model.Record)
}

// Status is the subset of the Status Model (component F) the queue
// engine's ready/finished predicates need. It is supplied by the caller
// on every Update call rather than imported, so this package has no
// dependency on internal/status.
type Status struct {
	Fullscreen bool
	Idle       bool
	Paused     bool // true when pause_level > 0; blocks every transition out of waiting
}

// Config holds the queue-engine-relevant subset of daemon configuration
// (spec 4.3, "Configuration").
type Config struct {
	NotificationLimit int  // 0 = unlimited
	IndicateHidden    bool // reserve one slot to show a "+N hidden" indicator
	Sort              bool // false: insertion order (FIFO) only
	StackDuplicates   bool
	HistoryLength     int // 0 = unlimited
	StickyHistory     bool
	AlwaysRunScript   bool // run scripts even for rejected empty-message records
}

// Engine owns the three queues. It is not safe for concurrent use; the
// single-threaded core event loop is its only caller (spec 5).
type Engine struct {
	waiting   []*model.Record
	displayed []*model.Record
	history   []*model.Record

	nextID uint32

	cfg      Config
	notifier Notifier
	scripts  ScriptRunner
	logger   *slog.Logger
}

// New creates an empty Engine.
func New(cfg Config, notifier Notifier, scripts ScriptRunner, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{cfg: cfg, notifier: notifier, scripts: scripts, logger: logger, nextID: 1}
}

// Waiting, Displayed and History return read-only snapshots of the
// three queues, in their current internal order. Displayed is the
// "displayed_snapshot" boundary surface the Renderer is allowed to read
// (spec 7, "Renderer").
func (e *Engine) Waiting() []*model.Record   { return snapshot(e.waiting) }
func (e *Engine) Displayed() []*model.Record { return snapshot(e.displayed) }
func (e *Engine) History() []*model.Record   { return snapshot(e.history) }

func snapshot(recs []*model.Record) []*model.Record {
	out := make([]*model.Record, len(recs))
	copy(out, recs)
	return out
}

// ByID searches all three queues for a record, displayed first then
// waiting then history, matching queues_get_by_id's scan order.
func (e *Engine) ByID(id uint32) *model.Record {
	for _, q := range [][]*model.Record{e.displayed, e.waiting, e.history} {
		for _, r := range q {
			if r.ID == id {
				return r
			}
		}
	}
	return nil
}

// Insert runs the admission algorithm for a freshly-arrived record
// (spec 4.3.1): empty-message rejection, id assignment, replace-by-id,
// stack-by-tag, stack-duplicates, and finally sorted insertion into
// waiting. It returns the assigned id, or 0 if the record was rejected.
func (e *Engine) Insert(rec *model.Record) uint32 {
	if rec.Message == "" {
		if e.cfg.AlwaysRunScript && e.scripts != nil {
			e.scripts.Run(rec)
		}
		e.logger.Debug("skipping notification with empty message", "app", rec.AppName, "summary", rec.Summary)
		return 0
	}

	inserted := false
	if rec.ID != 0 {
		// A client-supplied id always takes the "already inserted" path,
		// whether or not a matching record was actually found: an unknown
		// id is honored by inserting the record directly rather than
		// falling through to stack-by-tag/stack-duplicate (spec EXPANSION
		// "Open Question decisions": unknown replaces-id honored).
		if !e.replaceByID(rec) {
			e.waiting = e.insertSorted(e.waiting, rec)
		}
		inserted = true
	} else {
		rec.ID = e.nextID
		e.nextID++
	}

	if !inserted && rec.Hints.StackTag != "" && e.stackByTag(rec) {
		inserted = true
	}
	if !inserted && e.cfg.StackDuplicates && e.stackDuplicate(rec) {
		inserted = true
	}
	if !inserted {
		e.waiting = e.insertSorted(e.waiting, rec)
	}

	return rec.ID
}

// replaceByID finds a record with rec.ID in displayed or waiting and
// swaps it out for rec in place, carrying over the duplicate count
// (original_source/src/queues.c queues_notification_replace_id).
func (e *Engine) replaceByID(rec *model.Record) bool {
	for _, q := range []*[]*model.Record{&e.displayed, &e.waiting} {
		for i, old := range *q {
			if old.ID != rec.ID {
				continue
			}
			rec.DuplicateCount = old.DuplicateCount
			wasDisplayed := q == &e.displayed
			(*q)[i] = rec
			if wasDisplayed && e.notifier != nil {
				e.notifier.Closed(old, model.ReasonReplaced)
			}
			old.Unref()
			if wasDisplayed {
				rec.StartOfDisplay = nowMicro()
				e.runScript(rec)
			}
			return true
		}
	}
	return false
}

// stackByTag replaces the first record sharing rec's stack tag and app
// name, in displayed or waiting (original_source/src/queues.c
// queues_stack_by_tag).
func (e *Engine) stackByTag(rec *model.Record) bool {
	for _, q := range []*[]*model.Record{&e.displayed, &e.waiting} {
		for i, old := range *q {
			if old.Hints.StackTag == "" || old.Hints.StackTag != rec.Hints.StackTag || old.AppName != rec.AppName {
				continue
			}
			rec.DuplicateCount = old.DuplicateCount
			wasDisplayed := q == &e.displayed
			(*q)[i] = rec
			if wasDisplayed && e.notifier != nil {
				e.notifier.Closed(old, model.ReasonReplaced)
			}
			if wasDisplayed {
				rec.StartOfDisplay = nowMicro()
				e.runScript(rec)
			}
			old.Unref()
			return true
		}
	}
	return false
}

// stackDuplicate replaces the first duplicate of rec in displayed or
// waiting, bumping its duplicate count unless only the progress hint
// changed (original_source/src/queues.c queues_stack_duplicate).
func (e *Engine) stackDuplicate(rec *model.Record) bool {
	for _, q := range []*[]*model.Record{&e.displayed, &e.waiting} {
		for i, old := range *q {
			if !isDuplicate(old, rec) {
				continue
			}
			if old.Hints.Progress == rec.Hints.Progress {
				rec.DuplicateCount = old.DuplicateCount + 1
			} else {
				rec.DuplicateCount = old.DuplicateCount
			}
			wasDisplayed := q == &e.displayed
			(*q)[i] = rec
			if wasDisplayed && e.notifier != nil {
				e.notifier.Closed(old, model.ReasonReplaced)
			}
			if wasDisplayed {
				rec.StartOfDisplay = nowMicro()
			}
			old.Unref()
			return true
		}
	}
	return false
}

// isDuplicate reports whether a and b are the same notification in
// substance (spec 9, "raw-icon-disables-dedup"): a record carrying a
// raw icon hint is asymmetrically excluded from dedup, matching the
// original's literal condition on either side rather than both.
func isDuplicate(a, b *model.Record) bool {
	if a.HasRawIcon() || b.HasRawIcon() {
		return false
	}
	return a.AppName == b.AppName &&
		a.Summary == b.Summary &&
		a.Body == b.Body &&
		a.IconName == b.IconName &&
		a.Urgency == b.Urgency
}

func (e *Engine) runScript(rec *model.Record) {
	if e.scripts != nil {
		e.scripts.Run(rec)
	}
}

// Close removes the record with the given id from displayed or waiting
// and pushes it to history, notifying the Bus Frontend unless the
// record was a history-pop redisplay (spec 4.3.2).
func (e *Engine) Close(id uint32, reason model.CloseReason) {
	var target *model.Record
	for _, q := range []*[]*model.Record{&e.displayed, &e.waiting} {
		for i, r := range *q {
			if r.ID != id {
				continue
			}
			target = r
			*q = append((*q)[:i], (*q)[i+1:]...)
			break
		}
		if target != nil {
			break
		}
	}
	if target == nil {
		return
	}

	target.ClosureReason = reason
	if !target.Redisplayed && e.notifier != nil {
		e.notifier.Closed(target, reason)
	}
	e.pushHistory(target)
}

// pushHistory appends rec to history, evicting the oldest entry once
// cfg.HistoryLength is reached (FIFO bound, spec 3 "history"). A record
// with history_ignore set is dropped instead of archived.
func (e *Engine) pushHistory(rec *model.Record) {
	if rec.Hints.HistoryIgnore {
		rec.Unref()
		return
	}
	if e.cfg.HistoryLength > 0 && len(e.history) >= e.cfg.HistoryLength {
		dropped := e.history[0]
		e.history = e.history[1:]
		dropped.Unref()
	}
	e.history = append(e.history, rec)
}

// PopHistory moves the most recently archived record back into waiting,
// marked as redisplayed so it is exempt from the close-on-skip_display
// rule and from re-signaling close over the bus (spec 4.3.4).
func (e *Engine) PopHistory() {
	if len(e.history) == 0 {
		return
	}
	n := len(e.history) - 1
	rec := e.history[n]
	e.history = e.history[:n]
	e.redisplay(rec)
}

// PopHistoryByID moves a specific archived record back into waiting, by
// id, if present.
func (e *Engine) PopHistoryByID(id uint32) {
	for i, rec := range e.history {
		if rec.ID != id {
			continue
		}
		e.history = append(e.history[:i], e.history[i+1:]...)
		e.redisplay(rec)
		return
	}
}

func (e *Engine) redisplay(rec *model.Record) {
	rec.Redisplayed = true
	if e.cfg.StickyHistory {
		rec.TimeoutLength = 0
	}
	e.waiting = e.insertSorted(e.waiting, rec)
}

// PushAll closes every displayed and waiting record as user-dismissed,
// archiving all of them to history (spec 4.3.4, bulk dismiss).
func (e *Engine) PushAll() {
	for len(e.displayed) > 0 {
		e.Close(e.displayed[0].ID, model.ReasonUserDismissed)
	}
	for len(e.waiting) > 0 {
		e.Close(e.waiting[0].ID, model.ReasonUserDismissed)
	}
}

// Update runs the periodic sweep (spec 4.3.3): expire or demote
// no-longer-ready displayed records, promote ready waiting records up
// to the effective display limit, demote any overflow, then let
// higher-priority waiting records preempt lower-priority displayed
// ones.
func (e *Engine) Update(status Status, now int64) {
	e.sweepDisplayed(status, now)

	limit := e.effectiveLimit()
	e.promote(status, limit, now)
	e.demoteOverflow(limit)
	if e.cfg.Sort {
		e.preempt(status, limit, now)
	}
}

func (e *Engine) sweepDisplayed(status Status, now int64) {
	var kept []*model.Record
	for _, rec := range e.displayed {
		if rec.Locked() {
			kept = append(kept, rec)
			continue
		}
		if rec.ClosureReason != 0 {
			reason := rec.ClosureReason
			rec.ClosureReason = 0
			e.closeDisplayedRecord(rec, reason)
			continue
		}
		if e.isFinished(rec, status, now) {
			e.closeDisplayedRecord(rec, model.ReasonExpired)
			continue
		}
		if !e.isReady(rec, status, true) {
			e.waiting = e.insertSorted(e.waiting, rec)
			continue
		}
		kept = append(kept, rec)
	}
	e.displayed = kept
}

// closeDisplayedRecord removes rec (already known to be in displayed)
// and archives it, used by the update sweep which has already located
// the record and doesn't want Close's linear re-scan.
func (e *Engine) closeDisplayedRecord(rec *model.Record, reason model.CloseReason) {
	rec.ClosureReason = reason
	if !rec.Redisplayed && e.notifier != nil {
		e.notifier.Closed(rec, reason)
	}
	e.pushHistory(rec)
}

// isReady mirrors queues_notification_is_ready, with the pause-level
// gate from spec 3 added ahead of it ("not running -> false"; the
// original daemon has no pause levels, so this check has no C
// counterpart to cite beyond the status record itself): while paused,
// nothing is ready, which blocks every transition out of waiting.
// Otherwise, during fullscreen, an already-shown record stays up unless
// its fullscreen behavior is Pushback; a not-yet-shown record may only
// start if its behavior is Show.
func (e *Engine) isReady(rec *model.Record, status Status, shown bool) bool {
	if status.Paused {
		return false
	}
	if status.Fullscreen && shown {
		return rec.Fullscreen != model.FullscreenPushback
	}
	if status.Fullscreen && !shown {
		return rec.Fullscreen == model.FullscreenShow
	}
	return true
}

// isFinished mirrors queues_notification_is_finished: a skip_display
// record that has never been redisplayed always finishes immediately;
// a sticky (zero-timeout) record never finishes; an idle user pauses
// the clock for non-transient records by resetting StartOfDisplay.
func (e *Engine) isFinished(rec *model.Record, status Status, now int64) bool {
	if rec.Hints.SkipDisplay && !rec.Redisplayed {
		return true
	}
	if rec.TimeoutLength == 0 {
		return false
	}

	isIdle := !status.Fullscreen && status.Idle
	if isIdle && !rec.Hints.Transient {
		rec.StartOfDisplay = now
		return false
	}

	return now-rec.StartOfDisplay > rec.TimeoutLength
}

// effectiveLimit computes the notification-limit cap for this sweep,
// reserving one slot for a "+N hidden" indicator when configured and
// the combined queues exceed the limit (spec 4.3.3, "display limit").
func (e *Engine) effectiveLimit() int {
	if e.cfg.NotificationLimit == 0 {
		return math.MaxInt32
	}
	if e.cfg.IndicateHidden && e.cfg.NotificationLimit > 1 &&
		len(e.displayed)+len(e.waiting) > e.cfg.NotificationLimit {
		return e.cfg.NotificationLimit - 1
	}
	return e.cfg.NotificationLimit
}

// promote moves ready waiting records into displayed up to limit,
// running each one's scripts as it starts, and immediately closing any
// that are skip_display and not yet redisplayed instead of truly
// displaying them (original_source/src/queues.c queues_update).
func (e *Engine) promote(status Status, limit int, now int64) {
	var remaining []*model.Record
	for _, rec := range e.waiting {
		if len(e.displayed) >= limit {
			remaining = append(remaining, rec)
			continue
		}
		if !e.isReady(rec, status, false) {
			remaining = append(remaining, rec)
			continue
		}

		rec.StartOfDisplay = now
		e.runScript(rec)

		if rec.Hints.SkipDisplay && !rec.Redisplayed {
			e.closeDisplayedRecord(rec, model.ReasonUserDismissed)
			continue
		}
		e.displayed = e.insertSorted(e.displayed, rec)
	}
	e.waiting = remaining
}

// demoteOverflow pushes back any displayed records beyond limit (can
// happen when the limit shrinks between sweeps, e.g. indicate_hidden
// engaging).
func (e *Engine) demoteOverflow(limit int) {
	for len(e.displayed) > limit {
		n := len(e.displayed) - 1
		rec := e.displayed[n]
		e.displayed = e.displayed[:n]
		e.waiting = e.insertSorted(e.waiting, rec)
	}
}

// preempt lets a higher-priority waiting record bump a lower-priority
// displayed one when displayed is at capacity (original_source/src/queues.c
// queues_update, the sort-only "seep into displayed" pass).
func (e *Engine) preempt(status Status, limit int, now int64) {
	if len(e.displayed) != limit || limit == 0 {
		return
	}
	for {
		if len(e.waiting) == 0 || len(e.displayed) == 0 {
			return
		}
		wi := e.firstReadyWaitingIndex(status)
		if wi < 0 {
			return
		}
		di := len(e.displayed) - 1
		if !less(e.waiting[wi], e.displayed[di]) {
			return
		}

		promoted := e.waiting[wi]
		demoted := e.displayed[di]

		promoted.StartOfDisplay = now
		e.runScript(promoted)

		e.waiting = append(e.waiting[:wi], e.waiting[wi+1:]...)
		e.displayed = e.displayed[:di]

		e.displayed = e.insertSorted(e.displayed, promoted)
		e.waiting = e.insertSorted(e.waiting, demoted)
	}
}

func (e *Engine) firstReadyWaitingIndex(status Status) int {
	for i, rec := range e.waiting {
		if e.isReady(rec, status, false) {
			return i
		}
	}
	return -1
}

// NextWake returns the microsecond delay until this Engine next needs
// queues_update to run again: the soonest displayed-record timeout, or
// the soonest second boundary an age-threshold indicator would cross.
// A negative return means "no pending wake from the queues themselves".
func (e *Engine) NextWake(now int64, showAgeThreshold time.Duration) int64 {
	sleep := int64(math.MaxInt64)

	for _, rec := range e.displayed {
		if rec.TimeoutLength > 0 && !rec.Locked() {
			ttl := rec.TimeoutLength - (now - rec.StartOfDisplay)
			if ttl > 0 {
				sleep = min64(sleep, ttl)
			} else {
				return 0
			}
		}

		if showAgeThreshold >= 0 {
			age := now - rec.Arrival
			thresholdUs := showAgeThreshold.Microseconds()
			const oneSecUs = int64(time.Second / time.Microsecond)
			if age > thresholdUs-oneSecUs {
				sleep = min64(sleep, oneSecUs-(age%oneSecUs))
			} else {
				sleep = min64(sleep, thresholdUs-age)
			}
		}
	}

	if sleep == math.MaxInt64 {
		return -1
	}
	return sleep
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

// insertSorted inserts rec into recs in sorted order when cfg.Sort is
// enabled (urgency descending, then id ascending); otherwise it simply
// appends, preserving FIFO order (original_source/src/notification.c
// notification_cmp: "if (!settings.sort) return 1", which makes
// g_queue_insert_sorted degenerate to an append).
func (e *Engine) insertSorted(recs []*model.Record, rec *model.Record) []*model.Record {
	if !e.cfg.Sort {
		return append(recs, rec)
	}
	i := 0
	for i < len(recs) && less(recs[i], rec) {
		i++
	}
	recs = append(recs, nil)
	copy(recs[i+1:], recs[i:])
	recs[i] = rec
	return recs
}

// less reports whether a sorts before b: higher urgency first, then
// lower id first (original_source/src/notification.c notification_cmp).
func less(a, b *model.Record) bool {
	if a.Urgency != b.Urgency {
		return a.Urgency > b.Urgency
	}
	return a.ID < b.ID
}

var nowMicro = func() int64 { return time.Now().UnixMicro() }
