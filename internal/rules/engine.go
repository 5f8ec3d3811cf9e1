// Package rules implements the Rule Engine (component B): an ordered,
// first-added-first-applied sequence of filter+action rules that mutate a
// Notification Record before it reaches the Formatter and Queue Engine.
package rules

import (
	"log/slog"
	"sync"

	"github.com/jmylchreest/dunstd/internal/model"
)

// IconResolver loads a replacement icon surface from a path. It is the
// Icon Resolver collaborator (spec 1); the Rule Engine only calls it, it
// never decodes images itself.
type IconResolver interface {
	Resolve(path string) (any, error)
}

// Engine holds the ordered rule sequence and applies it to records. The
// rule list is mutated only at config-load time; Engine's exported
// methods are safe for concurrent use, but ApplyAll is expected to run on
// the single core event loop like every other core entry point (spec 5).
type Engine struct {
	mu    sync.RWMutex
	rules []*Rule
	mode  MatchMode

	logger *slog.Logger
	icons  IconResolver
}

// New creates an Engine with the given pattern matching mode.
func New(mode MatchMode, icons IconResolver, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{mode: mode, icons: icons, logger: logger}
}

// AddRule appends a rule to the end of the sequence (first-added is
// first-applied, spec 3). Filter patterns are compiled before the rule
// is added (CompilePattern); BuildFromFile marks a rule whose pattern
// failed to compile invalid, so it never matches, rather than aborting
// config load (spec 4.1, "Failure semantics").
func (e *Engine) AddRule(r *Rule) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rules = append(e.rules, r)
}

// CompilePattern compiles a raw pattern string for one filter field using
// the engine's configured match mode, logging and returning nil (a
// wildcard) on failure so that a single bad rule never blocks the rest of
// config load.
func (e *Engine) CompilePattern(ruleName, field, raw string) *Pattern {
	if raw == "" {
		return nil
	}
	p, err := Compile(raw, e.mode)
	if err != nil {
		e.logger.Warn("rule pattern failed to compile, rule skipped", "rule", ruleName, "field", field, "pattern", raw, "error", err)
		return nil
	}
	return p
}

// Rules returns a snapshot of the current rule sequence.
func (e *Engine) Rules() []*Rule {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

// ApplyAll walks the ordered rule sequence, applying the action half of
// every rule whose filter half matches the record's current state.
// Later rules win over earlier ones on fields they both set; the scripts
// list accumulates across every matching rule, in match order (spec 4.1).
//
// Scripts are collected as each rule fires, not re-derived from the final
// record afterward — a later rule can change fields (category, stack
// tag, ...) that an earlier rule's filter depended on, and re-matching
// against the end state would silently change which rules "fired".
func (e *Engine) ApplyAll(rec *model.Record) []string {
	var scripts []string
	for _, r := range e.Rules() {
		if !r.matches(rec) {
			continue
		}
		e.apply(r, rec)
		scripts = append(scripts, r.Scripts...)
	}
	return scripts
}

func (e *Engine) apply(r *Rule, rec *model.Record) {
	if r.Timeout != nil {
		rec.TimeoutLength = *r.Timeout
	}
	if r.SetUrgency != nil {
		rec.Urgency = *r.SetUrgency
	}
	if r.Markup != nil {
		rec.Markup = *r.Markup
	}
	if r.Fullscreen != nil {
		rec.Fullscreen = *r.Fullscreen
	}
	if r.HistoryIgnore != nil {
		rec.Hints.HistoryIgnore = *r.HistoryIgnore
	}
	if r.SetTransient != nil {
		rec.Hints.Transient = *r.SetTransient
	}
	if r.SkipDisplay != nil {
		rec.Hints.SkipDisplay = *r.SkipDisplay
		if *r.SkipDisplay {
			// A record that skips straight to history must still be able
			// to reach it: skip_display forces history_ignore off
			// (original_source/src/rules.c rule_apply coupling, spec
			// EXPANSION "Supplemented features" #3).
			rec.Hints.HistoryIgnore = false
		}
	}
	if r.WordWrap != nil {
		rec.WordWrap = *r.WordWrap
	}
	if r.Ellipsize != nil {
		rec.Ellipsize = *r.Ellipsize
	}
	if r.Alignment != nil {
		rec.Alignment = *r.Alignment
	}
	if r.IconPosition != nil {
		rec.IconPosition = *r.IconPosition
	}
	if r.MinIconSize != nil {
		rec.Hints.MinIconSize = *r.MinIconSize
	}
	if r.MaxIconSize != nil {
		rec.Hints.MaxIconSize = *r.MaxIconSize
	}
	if r.Foreground != nil {
		rec.Foreground = *r.Foreground
	}
	if r.Background != nil {
		rec.Background = *r.Background
	}
	if r.Frame != nil {
		rec.Frame = *r.Frame
	}
	if r.Highlight != nil {
		rec.Highlight = *r.Highlight
	}
	if r.HideText != nil {
		rec.HideText = *r.HideText
	}
	if r.ProgressBarAlign != nil {
		rec.ProgressBarAlign = *r.ProgressBarAlign
	}
	if r.Format != nil {
		rec.FormatTemplate = *r.Format
	}
	if r.SetStackTag != nil {
		rec.Hints.StackTag = *r.SetStackTag
	}
	if r.SetCategory != nil {
		rec.Category = *r.SetCategory
	}
	if r.ActionName != nil {
		rec.DefaultAction = *r.ActionName
	}
	if r.DefaultIcon != nil && rec.IconName == "" {
		rec.IconName = *r.DefaultIcon
	}

	// Icon replacement takes precedence over any raw icon payload, and
	// drops whatever surface/raw icon the record previously carried
	// (spec 4.1, "Icon replacement").
	if r.ReplacementIcon != nil && *r.ReplacementIcon != "" && e.icons != nil {
		surface, err := e.icons.Resolve(*r.ReplacementIcon)
		if err != nil {
			e.logger.Warn("replacement icon failed to load", "rule", r.Name, "path", *r.ReplacementIcon, "error", err)
		} else {
			rec.IconSurface = surface
			rec.RawIcon = nil
		}
	}
}
