package rules

import (
	"github.com/jmylchreest/dunstd/internal/model"
)

// Rule is a single entry in the ordered rule sequence (spec 3, "Rule"):
// a filter half that decides whether the rule fires, and an action half
// whose fields overwrite the record only when the rule supplies them.
//
// Unset filter fields are nil *Pattern (wildcard). Unset action fields
// use nil pointers rather than magic sentinel values (-1, "Null", ...) —
// the wire-level sentinels from the Notify interface are translated into
// nil/non-nil here at the boundary, once, instead of being threaded
// through the engine.
type Rule struct {
	Name    string
	Enabled bool

	// invalid is set when any filter pattern failed to compile; the
	// failure is logged by CompilePattern and such a rule never matches
	// anything.
	invalid bool

	// Filter half.
	AppName      *Pattern
	Summary      *Pattern
	Body         *Pattern
	IconName     *Pattern
	Category     *Pattern
	StackTag     *Pattern
	DesktopEntry *Pattern
	Urgency      *model.Urgency
	Transient    *bool

	// Action half.
	Timeout            *int64 // microseconds; 0 means sticky, a valid value
	SetUrgency         *model.Urgency
	Markup             *model.MarkupMode
	Fullscreen         *model.FullscreenBehavior
	HistoryIgnore      *bool
	SetTransient       *bool
	SkipDisplay        *bool
	WordWrap           *bool
	Ellipsize          *model.Ellipsize
	Alignment          *model.Alignment
	HideText           *bool
	IconPosition       *model.IconPosition
	MinIconSize        *int
	MaxIconSize        *int
	Foreground         *string
	Background         *string
	Frame              *string
	Highlight          *string
	Format             *string
	DefaultIcon        *string
	ReplacementIcon    *string
	Scripts            []string // accumulated across all matching rules, never overwritten
	SetStackTag        *string
	SetCategory        *string
	ActionName         *string
	ProgressBarAlign   *model.Alignment
}

// NewRule creates an empty, enabled rule with the given name.
func NewRule(name string) *Rule {
	return &Rule{Name: name, Enabled: true}
}

// NewUrgencyRule creates one of the three reserved section-header rules
// (urgency_low, urgency_normal, urgency_critical): a single-filter rule
// that matches only on urgency (spec 3).
func NewUrgencyRule(name string, u model.Urgency) *Rule {
	r := NewRule(name)
	uu := u
	r.Urgency = &uu
	return r
}

// NewGlobalRule creates the reserved "global" rule, whose action half
// applies to every record unconditionally.
func NewGlobalRule() *Rule {
	return NewRule("global")
}

// matches reports whether every filter field matches the record's current
// state. A rule marked invalid (bad pattern) never matches.
func (r *Rule) matches(rec *model.Record) bool {
	if r.invalid || !r.Enabled {
		return false
	}
	if !r.AppName.Match(rec.AppName) {
		return false
	}
	if !r.Summary.Match(rec.Summary) {
		return false
	}
	if !r.Body.Match(rec.Body) {
		return false
	}
	if !r.IconName.Match(rec.IconName) {
		return false
	}
	if !r.Category.Match(rec.Category) {
		return false
	}
	if !r.StackTag.Match(rec.Hints.StackTag) {
		return false
	}
	if !r.DesktopEntry.Match(rec.DesktopEntry) {
		return false
	}
	if r.Urgency != nil && *r.Urgency != rec.Urgency {
		return false
	}
	if r.Transient != nil && *r.Transient != rec.Hints.Transient {
		return false
	}
	return true
}
