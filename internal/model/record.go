// Package model defines the Notification Record and its component value types.
package model

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// Urgency levels, matching the freedesktop notification spec.
type Urgency int

const (
	UrgencyLow Urgency = iota
	UrgencyNormal
	UrgencyCritical
)

// String returns the human-readable urgency name used in rule section
// headers (urgency_low, urgency_normal, urgency_critical) and logs.
func (u Urgency) String() string {
	switch u {
	case UrgencyLow:
		return "low"
	case UrgencyCritical:
		return "critical"
	default:
		return "normal"
	}
}

// ClampUrgency bounds a raw hint byte to a valid Urgency, defaulting to
// Normal for out-of-range values (Notify interface hint extraction, spec 6.1).
func ClampUrgency(v int) Urgency {
	switch v {
	case int(UrgencyLow):
		return UrgencyLow
	case int(UrgencyCritical):
		return UrgencyCritical
	default:
		return UrgencyNormal
	}
}

// MarkupMode controls how Summary/Body are interpreted by the Formatter.
type MarkupMode int

const (
	MarkupNone MarkupMode = iota
	MarkupStrip
	MarkupFull
)

// FullscreenBehavior governs whether a record may occupy displayed while
// status.Fullscreen is set.
type FullscreenBehavior int

const (
	FullscreenShow FullscreenBehavior = iota
	FullscreenDelay
	FullscreenPushback
)

// IconPosition is a rendering hint; the core never draws, it only carries
// the value through to the Renderer.
type IconPosition int

const (
	IconLeft IconPosition = iota
	IconRight
	IconTop
	IconOff
)

// Ellipsize controls text truncation position, a Renderer-facing hint.
type Ellipsize int

const (
	EllipsizeEnd Ellipsize = iota
	EllipsizeStart
	EllipsizeMiddle
)

// Alignment is a Renderer-facing text alignment hint.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignCenter
	AlignRight
)

// CloseReason identifies why a record left the queues, per the Notify
// interface's NotificationClosed signal (spec 6.1).
type CloseReason uint32

const (
	ReasonExpired       CloseReason = 1
	ReasonUserDismissed CloseReason = 2
	ReasonClosed        CloseReason = 3
	ReasonReplaced      CloseReason = 4
)

func (r CloseReason) String() string {
	switch r {
	case ReasonExpired:
		return "expired"
	case ReasonUserDismissed:
		return "user_dismissed"
	case ReasonClosed:
		return "closed"
	case ReasonReplaced:
		return "replaced"
	default:
		return "unknown"
	}
}

// RawIcon is the decoded form of the Notify interface's image-data hint:
// (iiibiiay) width, height, rowstride, has-alpha, bits-per-sample, channels, payload.
type RawIcon struct {
	Width         int
	Height        int
	RowStride     int
	HasAlpha      bool
	BitsPerSample int
	Channels      int
	Data          []byte
}

// Action is a single producer-declared action: a short key paired with a
// human-readable label.
type Action struct {
	Key   string
	Label string
}

// Hints carries the non-content display and bookkeeping flags a producer
// or the Rule Engine can set on a Record (spec 3, "Hints").
type Hints struct {
	Transient      bool
	Progress       int // -1 unset, 0..100
	HistoryIgnore  bool
	SkipDisplay    bool
	StackTag       string
	MinIconSize    int
	MaxIconSize    int
	SuppressSound  bool
}

// Record is the Notification Record (component A): the single value type
// that flows through the Rule Engine, Formatter, and Queue Engine.
//
// Record is never safely shared across goroutines without a borrow (see
// the engine package); the queue engine's single-threaded event loop is
// its sole mutator.
type Record struct {
	// Identity
	ID       uint32
	ClientID string // opaque bus-client identifier supplied by the producer

	// Content
	AppName      string
	Summary      string
	Body         string
	Category     string
	DesktopEntry string
	IconName     string
	RawIcon      *RawIcon
	IconSurface  any // opaque, resolved by the Icon Resolver; core never interprets it

	// Display policy
	Urgency            Urgency
	Markup             MarkupMode
	Fullscreen         FullscreenBehavior
	IconPosition       IconPosition
	WordWrap           bool
	Ellipsize          Ellipsize
	Alignment          Alignment
	Foreground         string
	Background         string
	Frame              string
	Highlight          string
	HideText           bool               // rule-set: suppress summary/body, keep icon/indicators only
	ProgressBarAlign   Alignment          // rule-set: where the Renderer draws the progress bar
	FormatTemplate     string             // per-record override of the configured format template

	// Actions
	Actions       map[string]string // key -> label
	DefaultAction string

	// Hints
	Hints Hints

	// Lifecycle timestamps, microseconds since the Unix epoch.
	Arrival         int64
	StartOfDisplay  int64 // 0 if not yet shown
	TimeoutLength   int64 // 0 means sticky, -1 means "not yet resolved to a per-urgency default"

	// Derived, computed by the Formatter/Queue Engine.
	Message         string // expanded format template
	TextToRender    string // Message plus appended indicators
	URLs            string // extracted hyperlink/image URLs, "[label] url\n..."
	DuplicateCount  int
	Redisplayed     bool
	FirstRender     bool
	ClosureReason   CloseReason // 0 means "not marked"

	// Scripts lists the notification-script paths the Rule Engine
	// collected for this record (rule.go's Action.Script values, in
	// rule order). The Queue Engine's ScriptRunner reads this slice;
	// it never consults the Rule Engine directly.
	Scripts []string

	// Ownership bookkeeping.
	refcount int
	locked   bool

	// BorrowID correlates an outstanding async worker (script or
	// clipboard) back to this record without exposing a raw pointer; set the
	// first time the record is borrowed and stable thereafter.
	BorrowID string
}

// New creates a Record with sane zero-state for fields the Rule Engine and
// Queue Engine depend on (refcount 1, progress unset, not marked closed).
func New(appName string, arrival int64) *Record {
	return &Record{
		AppName:  appName,
		Arrival:  arrival,
		Actions:  make(map[string]string),
		Hints:    Hints{Progress: -1},
		refcount: 1,
	}
}

// Ref increments the reference count and returns the record for chaining.
func (r *Record) Ref() *Record {
	r.refcount++
	return r
}

// Unref decrements the reference count. It returns true when the count has
// reached zero, meaning the record may be destroyed (spec 3, "Lifecycle").
func (r *Record) Unref() bool {
	r.refcount--
	if r.refcount < 0 {
		r.refcount = 0
	}
	return r.refcount == 0
}

// RefCount reports the current reference count.
func (r *Record) RefCount() int {
	return r.refcount
}

// Locked reports whether the record is currently borrowed and must be
// skipped by the update sweep (spec 4.3.3 step a).
func (r *Record) Locked() bool {
	return r.locked
}

// Lock marks the record as borrowed; Unlock releases it. These are only
// ever called through engine's borrow/release pair, never directly by a
// worker.
func (r *Record) Lock() {
	r.locked = true
}

func (r *Record) Unlock() {
	r.locked = false
}

// Clone produces a value copy suitable for history-pop promotion or
// snapshotting; Actions and RawIcon are deep-copied so later mutation of
// the clone cannot leak back into the original.
func (r *Record) Clone() *Record {
	c := *r
	c.Actions = make(map[string]string, len(r.Actions))
	for k, v := range r.Actions {
		c.Actions[k] = v
	}
	if r.RawIcon != nil {
		ri := *r.RawIcon
		ri.Data = append([]byte(nil), r.RawIcon.Data...)
		c.RawIcon = &ri
	}
	return &c
}

// HasRawIcon reports whether a producer supplied raw image-data, which
// per spec 9 disables stack-duplicate detection on whichever side set it.
func (r *Record) HasRawIcon() bool {
	return r.RawIcon != nil
}

// NewBorrowID mints a fresh, locally-unique token for tracking a borrow.
// It uses ULID rather than a counter so tokens remain distinguishable
// across daemon restarts in logs.
func NewBorrowID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

// MaxImageDataLen returns the expected payload length for a raw icon hint,
// per the Notify interface's image-data validation rule (spec 6.1):
// (height-1)*rowstride + width*ceil(channels*bits/8).
func MaxImageDataLen(width, height, rowStride, channels, bitsPerSample int) int {
	bytesPerPixel := (channels*bitsPerSample + 7) / 8
	return (height-1)*rowStride + width*bytesPerPixel
}
