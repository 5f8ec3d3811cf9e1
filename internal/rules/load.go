package rules

import (
	"log/slog"

	"github.com/jmylchreest/dunstd/internal/config"
	"github.com/jmylchreest/dunstd/internal/model"
)

// matchModeFromString maps the rule file's TOML match_mode string to the
// engine's MatchMode; config.LoadRuleFileConfigFrom already rejects any
// other value, so a fallback here only matters for hand-built configs.
func matchModeFromString(s string) MatchMode {
	if s == "regex" {
		return MatchRegex
	}
	return MatchGlob
}

// BuildFromFile constructs a fresh Engine from a parsed rule file,
// translating each config.RuleEntry into a Rule and adding it in file
// order (spec 3, "first-added is first-applied").
func BuildFromFile(cfg *config.RuleFileConfig, icons IconResolver, logger *slog.Logger) *Engine {
	e := New(matchModeFromString(cfg.MatchMode), icons, logger)
	for _, entry := range cfg.Rule {
		e.AddRule(ruleFromEntry(e, entry))
	}
	return e
}

func ruleFromEntry(e *Engine, entry config.RuleEntry) *Rule {
	r := NewRule(entry.Name)
	if entry.Enabled != nil {
		r.Enabled = *entry.Enabled
	}

	r.AppName = e.CompilePattern(entry.Name, "appname", entry.AppName)
	r.Summary = e.CompilePattern(entry.Name, "summary", entry.Summary)
	r.Body = e.CompilePattern(entry.Name, "body", entry.Body)
	r.IconName = e.CompilePattern(entry.Name, "icon", entry.IconName)
	r.Category = e.CompilePattern(entry.Name, "category", entry.Category)
	r.StackTag = e.CompilePattern(entry.Name, "stack_tag", entry.StackTag)
	r.DesktopEntry = e.CompilePattern(entry.Name, "desktop_entry", entry.DesktopEntry)
	r.Urgency = urgencyPtr(entry.Urgency)
	r.Transient = entry.Transient

	// A pattern that failed to compile comes back nil (a wildcard); mark
	// the rule invalid so it is skipped instead of matching more widely.
	r.invalid = (entry.AppName != "" && r.AppName == nil) ||
		(entry.Summary != "" && r.Summary == nil) ||
		(entry.Body != "" && r.Body == nil) ||
		(entry.IconName != "" && r.IconName == nil) ||
		(entry.Category != "" && r.Category == nil) ||
		(entry.StackTag != "" && r.StackTag == nil) ||
		(entry.DesktopEntry != "" && r.DesktopEntry == nil)

	// Reserved section names filter on their urgency.
	switch entry.Name {
	case "urgency_low", "urgency_normal", "urgency_critical":
		r.Urgency = urgencyPtr(entry.Name[len("urgency_"):])
	}

	if entry.Timeout != nil {
		us := int64(entry.Timeout.Duration().Microseconds())
		r.Timeout = &us
	}
	r.SetUrgency = urgencyPtr(entry.SetUrgency)
	r.Markup = markupPtr(entry.Markup)
	r.Fullscreen = fullscreenPtr(entry.Fullscreen)
	r.HistoryIgnore = entry.HistoryIgnore
	r.SetTransient = entry.SetTransient
	r.SkipDisplay = entry.SkipDisplay
	r.WordWrap = entry.WordWrap
	r.Ellipsize = ellipsizePtr(entry.Ellipsize)
	r.Alignment = alignmentPtr(entry.Alignment)
	r.HideText = entry.HideText
	r.IconPosition = iconPositionPtr(entry.IconPosition)
	r.MinIconSize = entry.MinIconSize
	r.MaxIconSize = entry.MaxIconSize
	r.Foreground = stringPtr(entry.Foreground)
	r.Background = stringPtr(entry.Background)
	r.Frame = stringPtr(entry.Frame)
	r.Highlight = stringPtr(entry.Highlight)
	r.Format = stringPtr(entry.Format)
	r.DefaultIcon = stringPtr(entry.DefaultIcon)
	r.ReplacementIcon = stringPtr(entry.ReplacementIcon)
	r.Scripts = entry.Scripts
	r.SetStackTag = stringPtr(entry.SetStackTag)
	r.SetCategory = stringPtr(entry.SetCategory)
	r.ActionName = stringPtr(entry.ActionName)
	r.ProgressBarAlign = alignmentPtr(entry.ProgressBarAlign)

	return r
}

func stringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func urgencyPtr(s string) *model.Urgency {
	var u model.Urgency
	switch s {
	case "low":
		u = model.UrgencyLow
	case "critical":
		u = model.UrgencyCritical
	case "normal":
		u = model.UrgencyNormal
	default:
		return nil
	}
	return &u
}

func markupPtr(s string) *model.MarkupMode {
	var m model.MarkupMode
	switch s {
	case "strip":
		m = model.MarkupStrip
	case "full":
		m = model.MarkupFull
	case "none":
		m = model.MarkupNone
	default:
		return nil
	}
	return &m
}

func fullscreenPtr(s string) *model.FullscreenBehavior {
	var f model.FullscreenBehavior
	switch s {
	case "delay":
		f = model.FullscreenDelay
	case "pushback":
		f = model.FullscreenPushback
	case "show":
		f = model.FullscreenShow
	default:
		return nil
	}
	return &f
}

func ellipsizePtr(s string) *model.Ellipsize {
	var el model.Ellipsize
	switch s {
	case "start":
		el = model.EllipsizeStart
	case "middle":
		el = model.EllipsizeMiddle
	case "end":
		el = model.EllipsizeEnd
	default:
		return nil
	}
	return &el
}

func alignmentPtr(s string) *model.Alignment {
	var a model.Alignment
	switch s {
	case "center":
		a = model.AlignCenter
	case "right":
		a = model.AlignRight
	case "left":
		a = model.AlignLeft
	default:
		return nil
	}
	return &a
}

func iconPositionPtr(s string) *model.IconPosition {
	var p model.IconPosition
	switch s {
	case "right":
		p = model.IconRight
	case "top":
		p = model.IconTop
	case "off":
		p = model.IconOff
	case "left":
		p = model.IconLeft
	default:
		return nil
	}
	return &p
}
