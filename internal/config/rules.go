package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// RuleEntry is the on-disk TOML shape of a single rule (spec 3,
// "Rule"): filter half fields are plain strings (nil/"" means
// wildcard), action half fields are pointers so the loader can tell
// "not set in this file" apart from "set to the zero value" when it
// builds a rules.Rule (spec 4.1: "unset by default and only assigned
// if the rule supplies it").
//
// Three names are reserved section headers (spec 3): "urgency_low",
// "urgency_normal", "urgency_critical" implicitly filter on urgency
// alone, and "global" has no filter at all. RuleConfig.Rules may
// still declare them explicitly to attach actions.
type RuleEntry struct {
	Name    string `toml:"name"`
	Enabled *bool  `toml:"enabled"`

	// Filter half.
	AppName      string `toml:"appname"`
	Summary      string `toml:"summary"`
	Body         string `toml:"body"`
	IconName     string `toml:"icon"`
	Category     string `toml:"category"`
	StackTag     string `toml:"stack_tag"`
	DesktopEntry string `toml:"desktop_entry"`
	Urgency      string `toml:"urgency"`  // "low"|"normal"|"critical", empty = wildcard
	Transient    *bool  `toml:"transient"`

	// Action half.
	Timeout          *Duration `toml:"timeout"`
	SetUrgency       string    `toml:"set_urgency"`
	Markup           string    `toml:"markup"` // "none"|"strip"|"full"
	Fullscreen       string    `toml:"fullscreen"` // "show"|"delay"|"pushback"
	HistoryIgnore    *bool     `toml:"history_ignore"`
	SetTransient     *bool     `toml:"set_transient"`
	SkipDisplay      *bool     `toml:"skip_display"`
	WordWrap         *bool     `toml:"word_wrap"`
	Ellipsize        string    `toml:"ellipsize"` // "start"|"middle"|"end"
	Alignment        string    `toml:"alignment"` // "left"|"center"|"right"
	HideText         *bool     `toml:"hide_text"`
	IconPosition     string    `toml:"icon_position"` // "left"|"right"|"top"|"off"
	MinIconSize      *int      `toml:"min_icon_size"`
	MaxIconSize      *int      `toml:"max_icon_size"`
	Foreground       string    `toml:"foreground"`
	Background       string    `toml:"background"`
	Frame            string    `toml:"frame"`
	Highlight        string    `toml:"highlight"`
	Format           string    `toml:"format"`
	DefaultIcon      string    `toml:"default_icon"`
	ReplacementIcon  string    `toml:"replacement_icon"`
	Scripts          []string  `toml:"scripts"`
	SetStackTag      string    `toml:"set_stack_tag"`
	SetCategory      string    `toml:"set_category"`
	ActionName       string    `toml:"action_name"`
	ProgressBarAlign string    `toml:"progress_bar_align"`
}

// RuleFileConfig is the top-level shape of the rule file: a TOML
// array of tables, `[[rule]]`, evaluated in file order (spec 3:
// "first-added is first-applied").
type RuleFileConfig struct {
	MatchMode string      `toml:"match_mode"` // "glob" (default) or "regex"
	Rule      []RuleEntry `toml:"rule"`
}

// DefaultRuleFileConfig returns an empty rule file with glob matching,
// matching the original daemon's default.
func DefaultRuleFileConfig() *RuleFileConfig {
	return &RuleFileConfig{MatchMode: "glob"}
}

// RuleFilePath returns the path to the rule file, a sibling of the
// daemon config (spec EXPANSION, "Configuration").
func RuleFilePath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "dunst", "rules.toml"), nil
}

// LoadRuleFileConfig loads the rule file, falling back to an empty
// (glob-mode, no rules) configuration if the file does not exist.
func LoadRuleFileConfig() (*RuleFileConfig, error) {
	path, err := RuleFilePath()
	if err != nil {
		return nil, fmt.Errorf("failed to get rule file path: %w", err)
	}
	return LoadRuleFileConfigFrom(path)
}

// LoadRuleFileConfigFrom loads a rule file from an explicit path, used
// directly by tests and by the RuleWatcher on every fsnotify event.
func LoadRuleFileConfigFrom(path string) (*RuleFileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultRuleFileConfig(), nil
		}
		return nil, fmt.Errorf("failed to read rule file: %w", err)
	}

	cfg := DefaultRuleFileConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse rule file: %w", err)
	}
	if cfg.MatchMode != "glob" && cfg.MatchMode != "regex" {
		return nil, fmt.Errorf("invalid match_mode %q: must be \"glob\" or \"regex\"", cfg.MatchMode)
	}
	return cfg, nil
}
