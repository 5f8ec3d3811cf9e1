package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/dunstd/internal/model"
)

type recordingNotifier struct {
	closed []model.CloseReason
}

func (n *recordingNotifier) Closed(rec *model.Record, reason model.CloseReason) {
	n.closed = append(n.closed, reason)
}

type recordingScripts struct {
	ran []uint32
}

func (s *recordingScripts) Run(rec *model.Record) {
	s.ran = append(s.ran, rec.ID)
}

func newTestRecord(app, summary string) *model.Record {
	r := model.New(app, 0)
	r.Summary = summary
	r.Message = summary // Insert rejects empty-message records
	r.Hints.Progress = -1
	return r
}

func TestInsertAssignsIncrementingIDs(t *testing.T) {
	e := New(Config{}, nil, nil, nil)
	a := newTestRecord("a", "one")
	b := newTestRecord("b", "two")
	id1 := e.Insert(a)
	id2 := e.Insert(b)
	assert.NotEqual(t, uint32(0), id1)
	assert.Equal(t, id1+1, id2)
}

func TestInsertRejectsEmptyMessage(t *testing.T) {
	scripts := &recordingScripts{}
	e := New(Config{AlwaysRunScript: true}, nil, scripts, nil)
	rec := model.New("app", 0)
	id := e.Insert(rec)
	assert.Equal(t, uint32(0), id)
	assert.Len(t, e.Waiting(), 0)
	assert.Len(t, scripts.ran, 1, "always_run_script must still fire for a rejected empty-message record")
}

func TestInsertReplaceByIDUnknownIDIsHonored(t *testing.T) {
	e := New(Config{}, nil, nil, nil)
	rec := newTestRecord("app", "hello")
	rec.ID = 999 // client-supplied id that doesn't match anything yet
	id := e.Insert(rec)
	assert.Equal(t, uint32(999), id)
	require.Len(t, e.Waiting(), 1)
	assert.Equal(t, uint32(999), e.Waiting()[0].ID)
}

func TestInsertReplaceByIDReplacesExistingWaitingRecord(t *testing.T) {
	notifier := &recordingNotifier{}
	e := New(Config{}, notifier, nil, nil)
	first := newTestRecord("app", "v1")
	id := e.Insert(first)

	second := newTestRecord("app", "v2")
	second.ID = id
	gotID := e.Insert(second)

	assert.Equal(t, id, gotID)
	require.Len(t, e.Waiting(), 1)
	assert.Equal(t, "v2", e.Waiting()[0].Summary)
	assert.Empty(t, notifier.closed, "a record only ever in waiting was never externally visible, so no close signal is due")
}

func TestInsertReplaceByIDReplacesExistingDisplayedRecordSignalsReplaced(t *testing.T) {
	notifier := &recordingNotifier{}
	e := New(Config{}, notifier, nil, nil)
	first := newTestRecord("app", "v1")
	id := e.Insert(first)
	e.displayed = append(e.displayed, e.waiting[0])
	e.waiting = nil

	second := newTestRecord("app", "v2")
	second.ID = id
	gotID := e.Insert(second)

	assert.Equal(t, id, gotID)
	require.Len(t, e.Displayed(), 1)
	assert.Equal(t, "v2", e.Displayed()[0].Summary)
	assert.Equal(t, []model.CloseReason{model.ReasonReplaced}, notifier.closed)
}

func TestInsertStackByTagReplacesInWaiting(t *testing.T) {
	notifier := &recordingNotifier{}
	e := New(Config{}, notifier, nil, nil)
	first := newTestRecord("app", "v1")
	first.Hints.StackTag = "tag1"
	e.Insert(first)

	second := newTestRecord("app", "v2")
	second.Hints.StackTag = "tag1"
	e.Insert(second)

	require.Len(t, e.Waiting(), 1)
	assert.Equal(t, "v2", e.Waiting()[0].Summary)
	assert.Empty(t, notifier.closed, "a record only ever in waiting was never externally visible, so no close signal is due")
}

func TestInsertStackByTagReplacesInDisplayedSignalsReplaced(t *testing.T) {
	notifier := &recordingNotifier{}
	e := New(Config{}, notifier, nil, nil)
	first := newTestRecord("app", "v1")
	first.Hints.StackTag = "tag1"
	e.Insert(first)
	e.displayed = append(e.displayed, e.waiting[0])
	e.waiting = nil

	second := newTestRecord("app", "v2")
	second.Hints.StackTag = "tag1"
	e.Insert(second)

	require.Len(t, e.Displayed(), 1)
	assert.Equal(t, "v2", e.Displayed()[0].Summary)
	assert.Equal(t, []model.CloseReason{model.ReasonReplaced}, notifier.closed)
}

func TestInsertStackDuplicateIncrementsCount(t *testing.T) {
	notifier := &recordingNotifier{}
	e := New(Config{StackDuplicates: true}, notifier, nil, nil)
	first := newTestRecord("app", "same")
	first.Body = "same body"
	e.Insert(first)

	second := newTestRecord("app", "same")
	second.Body = "same body"
	e.Insert(second)

	require.Len(t, e.Waiting(), 1)
	assert.Equal(t, 1, e.Waiting()[0].DuplicateCount)
	assert.Empty(t, notifier.closed, "a record only ever in waiting was never externally visible, so no close signal is due")
}

func TestInsertStackDuplicateInDisplayedSignalsReplaced(t *testing.T) {
	notifier := &recordingNotifier{}
	e := New(Config{StackDuplicates: true}, notifier, nil, nil)
	first := newTestRecord("app", "same")
	first.Body = "same body"
	e.Insert(first)
	e.displayed = append(e.displayed, e.waiting[0])
	e.waiting = nil

	second := newTestRecord("app", "same")
	second.Body = "same body"
	e.Insert(second)

	require.Len(t, e.Displayed(), 1)
	assert.Equal(t, 1, e.Displayed()[0].DuplicateCount)
	assert.Equal(t, []model.CloseReason{model.ReasonReplaced}, notifier.closed)
}

func TestInsertStackDuplicateDisabledByRawIcon(t *testing.T) {
	e := New(Config{StackDuplicates: true}, nil, nil, nil)
	first := newTestRecord("app", "same")
	first.RawIcon = &model.RawIcon{Width: 1, Height: 1}
	e.Insert(first)

	second := newTestRecord("app", "same")
	e.Insert(second)

	assert.Len(t, e.Waiting(), 2, "a raw icon on either side must disable dedup")
}

func TestCloseMovesRecordToHistoryAndNotifies(t *testing.T) {
	notifier := &recordingNotifier{}
	e := New(Config{}, notifier, nil, nil)
	rec := newTestRecord("app", "hi")
	id := e.Insert(rec)

	e.Close(id, model.ReasonUserDismissed)

	assert.Len(t, e.Waiting(), 0)
	require.Len(t, e.History(), 1)
	assert.Equal(t, []model.CloseReason{model.ReasonUserDismissed}, notifier.closed)
}

func TestCloseOnRedisplayedRecordDoesNotNotify(t *testing.T) {
	notifier := &recordingNotifier{}
	e := New(Config{}, notifier, nil, nil)
	rec := newTestRecord("app", "hi")
	id := e.Insert(rec)
	e.Close(id, model.ReasonUserDismissed)

	e.PopHistory()
	popped := e.Waiting()[0]
	e.Close(popped.ID, model.ReasonUserDismissed)

	assert.Len(t, notifier.closed, 1, "a redisplayed record's close must not re-notify the bus")
}

func TestHistoryIgnoreDropsRecordOnClose(t *testing.T) {
	e := New(Config{}, nil, nil, nil)
	rec := newTestRecord("app", "quiet")
	rec.Hints.HistoryIgnore = true
	id := e.Insert(rec)

	e.Close(id, model.ReasonClosed)

	assert.Len(t, e.History(), 0)
}

func TestHistoryLengthBoundEvictsOldest(t *testing.T) {
	e := New(Config{HistoryLength: 2}, nil, nil, nil)
	for i := 0; i < 3; i++ {
		rec := newTestRecord("app", "msg")
		id := e.Insert(rec)
		e.Close(id, model.ReasonClosed)
	}
	assert.Len(t, e.History(), 2)
}

func TestPopHistoryMarksRedisplayedAndMovesToWaiting(t *testing.T) {
	e := New(Config{}, nil, nil, nil)
	rec := newTestRecord("app", "archived")
	id := e.Insert(rec)
	e.Close(id, model.ReasonClosed)

	e.PopHistory()

	require.Len(t, e.Waiting(), 1)
	assert.True(t, e.Waiting()[0].Redisplayed)
	assert.Len(t, e.History(), 0)
}

func TestPopHistoryStickyHistoryForcesZeroTimeout(t *testing.T) {
	e := New(Config{StickyHistory: true}, nil, nil, nil)
	rec := newTestRecord("app", "archived")
	rec.TimeoutLength = 5000
	id := e.Insert(rec)
	e.Close(id, model.ReasonClosed)

	e.PopHistory()

	assert.Equal(t, int64(0), e.Waiting()[0].TimeoutLength)
}

func TestPushAllClosesEverything(t *testing.T) {
	e := New(Config{}, nil, nil, nil)
	e.Insert(newTestRecord("a", "1"))
	e.Insert(newTestRecord("b", "2"))
	e.PushAll()

	assert.Len(t, e.Waiting(), 0)
	assert.Len(t, e.Displayed(), 0)
	assert.Len(t, e.History(), 2)
}

func TestUpdatePromotesWaitingToDisplayedWithinLimit(t *testing.T) {
	scripts := &recordingScripts{}
	e := New(Config{NotificationLimit: 2, Sort: true}, nil, scripts, nil)
	e.Insert(newTestRecord("a", "1"))
	e.Insert(newTestRecord("b", "2"))
	e.Insert(newTestRecord("c", "3"))

	e.Update(Status{}, 0)

	assert.Len(t, e.Displayed(), 2)
	assert.Len(t, e.Waiting(), 1)
	assert.Len(t, scripts.ran, 2, "a script must run for each record as it starts being displayed")
}

func TestUpdateExpiresTimedOutDisplayedRecord(t *testing.T) {
	notifier := &recordingNotifier{}
	e := New(Config{NotificationLimit: 5, Sort: true}, notifier, nil, nil)
	rec := newTestRecord("a", "1")
	rec.TimeoutLength = 1000
	e.Insert(rec)
	e.Update(Status{}, 0)
	require.Len(t, e.Displayed(), 1)

	e.Update(Status{}, 2000)

	assert.Len(t, e.Displayed(), 0)
	assert.Len(t, e.History(), 1)
	assert.Equal(t, []model.CloseReason{model.ReasonExpired}, notifier.closed)
}

func TestUpdateStickyRecordNeverExpires(t *testing.T) {
	e := New(Config{NotificationLimit: 5, Sort: true}, nil, nil, nil)
	rec := newTestRecord("a", "1")
	rec.TimeoutLength = 0
	e.Insert(rec)
	e.Update(Status{}, 0)
	e.Update(Status{}, 1_000_000_000)

	assert.Len(t, e.Displayed(), 1)
}

func TestUpdateLockedRecordNeverSweptOrExpired(t *testing.T) {
	e := New(Config{NotificationLimit: 5, Sort: true}, nil, nil, nil)
	rec := newTestRecord("a", "1")
	rec.TimeoutLength = 10
	e.Insert(rec)
	e.Update(Status{}, 0)
	rec2 := e.Displayed()[0]
	rec2.Lock()

	e.Update(Status{}, 1_000_000)

	assert.Len(t, e.Displayed(), 1, "a locked record must be skipped by the sweep even past its timeout")
}

func TestUpdateSkipDisplayRecordClosesInsteadOfDisplaying(t *testing.T) {
	notifier := &recordingNotifier{}
	e := New(Config{NotificationLimit: 5, Sort: true}, notifier, nil, nil)
	rec := newTestRecord("a", "1")
	rec.Hints.SkipDisplay = true
	e.Insert(rec)

	e.Update(Status{}, 0)

	assert.Len(t, e.Displayed(), 0)
	assert.Len(t, e.History(), 1)
}

func TestUpdateFullscreenPushbackDemotesDisplayedRecord(t *testing.T) {
	e := New(Config{NotificationLimit: 5, Sort: true}, nil, nil, nil)
	rec := newTestRecord("a", "1")
	rec.Fullscreen = model.FullscreenPushback
	e.Insert(rec)
	e.Update(Status{}, 0)
	require.Len(t, e.Displayed(), 1)

	e.Update(Status{Fullscreen: true}, 0)

	assert.Len(t, e.Displayed(), 0)
	assert.Len(t, e.Waiting(), 1)
}

func TestUpdateFullscreenOnlyShowBehaviorIsAdmitted(t *testing.T) {
	e := New(Config{NotificationLimit: 5, Sort: true}, nil, nil, nil)
	showRec := newTestRecord("a", "1")
	showRec.Fullscreen = model.FullscreenShow
	delayRec := newTestRecord("b", "2")
	delayRec.Fullscreen = model.FullscreenDelay
	e.Insert(showRec)
	e.Insert(delayRec)

	e.Update(Status{Fullscreen: true}, 0)

	require.Len(t, e.Displayed(), 1)
	assert.Equal(t, "a", e.Displayed()[0].AppName)
	assert.Len(t, e.Waiting(), 1)
}

func TestUpdatePreemptsLowerUrgencyWhenAtCapacity(t *testing.T) {
	e := New(Config{NotificationLimit: 1, Sort: true}, nil, nil, nil)
	low := newTestRecord("a", "low")
	low.Urgency = model.UrgencyLow
	e.Insert(low)
	e.Update(Status{}, 0)
	require.Len(t, e.Displayed(), 1)

	critical := newTestRecord("b", "critical")
	critical.Urgency = model.UrgencyCritical
	e.Insert(critical)
	e.Update(Status{}, 0)

	require.Len(t, e.Displayed(), 1)
	assert.Equal(t, model.UrgencyCritical, e.Displayed()[0].Urgency)
	require.Len(t, e.Waiting(), 1)
	assert.Equal(t, model.UrgencyLow, e.Waiting()[0].Urgency)
}

func TestPausedBlocksPromotion(t *testing.T) {
	e := New(Config{NotificationLimit: 5, Sort: true}, nil, nil, nil)
	e.Insert(newTestRecord("a", "1"))

	e.Update(Status{Paused: true}, 0)

	assert.Len(t, e.Displayed(), 0)
	assert.Len(t, e.Waiting(), 1)
}

func TestPausedDemotesAlreadyDisplayedRecords(t *testing.T) {
	e := New(Config{NotificationLimit: 5, Sort: true}, nil, nil, nil)
	e.Insert(newTestRecord("a", "1"))
	e.Update(Status{}, 0)
	require.Len(t, e.Displayed(), 1)

	e.Update(Status{Paused: true}, 0)

	assert.Len(t, e.Displayed(), 0)
	assert.Len(t, e.Waiting(), 1)
}

func TestIndicateHiddenReservesOneSlot(t *testing.T) {
	e := New(Config{NotificationLimit: 2, IndicateHidden: true, Sort: true}, nil, nil, nil)
	for i := 0; i < 3; i++ {
		e.Insert(newTestRecord("a", "msg"))
	}
	e.Update(Status{}, 0)

	assert.Len(t, e.Displayed(), 1, "indicate_hidden must reserve one displayed slot once the combined queues exceed the limit")
	assert.Len(t, e.Waiting(), 2)
}

func TestSortOrdersByUrgencyThenID(t *testing.T) {
	e := New(Config{NotificationLimit: 10, Sort: true}, nil, nil, nil)
	low := newTestRecord("a", "low")
	low.Urgency = model.UrgencyLow
	normal := newTestRecord("b", "normal")
	normal.Urgency = model.UrgencyNormal
	critical := newTestRecord("c", "critical")
	critical.Urgency = model.UrgencyCritical

	e.Insert(low)
	e.Insert(normal)
	e.Insert(critical)
	e.Update(Status{}, 0)

	displayed := e.Displayed()
	require.Len(t, displayed, 3)
	assert.Equal(t, model.UrgencyCritical, displayed[0].Urgency)
	assert.Equal(t, model.UrgencyNormal, displayed[1].Urgency)
	assert.Equal(t, model.UrgencyLow, displayed[2].Urgency)
}

func TestUnsortedQueueIsFIFO(t *testing.T) {
	e := New(Config{NotificationLimit: 10, Sort: false}, nil, nil, nil)
	critical := newTestRecord("a", "critical")
	critical.Urgency = model.UrgencyCritical
	low := newTestRecord("b", "low")
	low.Urgency = model.UrgencyLow

	e.Insert(low)
	e.Insert(critical)
	e.Update(Status{}, 0)

	displayed := e.Displayed()
	require.Len(t, displayed, 2)
	assert.Equal(t, "b", displayed[0].AppName, "without sort, insertion order must be preserved regardless of urgency")
}

func TestByIDFindsAcrossAllQueues(t *testing.T) {
	e := New(Config{NotificationLimit: 10}, nil, nil, nil)
	rec := newTestRecord("a", "1")
	id := e.Insert(rec)

	found := e.ByID(id)
	require.NotNil(t, found)
	assert.Equal(t, "a", found.AppName)

	assert.Nil(t, e.ByID(999999))
}

func TestNextWakeReturnsSoonestTimeout(t *testing.T) {
	e := New(Config{NotificationLimit: 5, Sort: true}, nil, nil, nil)
	a := newTestRecord("a", "1")
	a.TimeoutLength = 5000
	b := newTestRecord("b", "2")
	b.TimeoutLength = 1000
	e.Insert(a)
	e.Insert(b)
	e.Update(Status{}, 0)

	wake := e.NextWake(0, -1)
	assert.Equal(t, int64(1000), wake)
}

func TestNextWakeReturnsNegativeWhenNothingPending(t *testing.T) {
	e := New(Config{}, nil, nil, nil)
	assert.Equal(t, int64(-1), e.NextWake(0, -1))
}

func TestNextWakeReturnsZeroWhenAlreadyOverdue(t *testing.T) {
	e := New(Config{NotificationLimit: 5, Sort: true}, nil, nil, nil)
	rec := newTestRecord("a", "1")
	rec.TimeoutLength = 1000
	e.Insert(rec)
	e.Update(Status{}, 0)

	assert.Equal(t, int64(0), e.NextWake(5000, -1))
}
