package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/dunstd/internal/model"
)

func mustPattern(t *testing.T, raw string, mode MatchMode) *Pattern {
	t.Helper()
	p, err := Compile(raw, mode)
	require.NoError(t, err)
	return p
}

func TestGlobPatternMatch(t *testing.T) {
	p := mustPattern(t, "Fire*", MatchGlob)
	assert.True(t, p.Match("Firefox"))
	assert.False(t, p.Match("Chromium"))
}

func TestRegexPatternMatch(t *testing.T) {
	p := mustPattern(t, "^(?i)slack$", MatchRegex)
	assert.True(t, p.Match("Slack"))
	assert.False(t, p.Match("Slackware"))
}

func TestNilPatternIsWildcard(t *testing.T) {
	var p *Pattern
	assert.True(t, p.Match("anything"))
	assert.True(t, p.Match(""))
}

func TestCompileInvalidRegexErrors(t *testing.T) {
	_, err := Compile("(unclosed", MatchRegex)
	assert.Error(t, err)
}

func TestApplyAllOrderingLaterRuleWins(t *testing.T) {
	e := New(MatchGlob, nil, nil)

	r1 := NewRule("r1")
	r1.AppName = mustPattern(t, "*", MatchGlob)
	low := int64(1000)
	r1.Timeout = &low
	e.AddRule(r1)

	r2 := NewRule("r2")
	r2.AppName = mustPattern(t, "*", MatchGlob)
	high := int64(5000)
	r2.Timeout = &high
	e.AddRule(r2)

	rec := model.New("app", 0)
	e.ApplyAll(rec)
	assert.Equal(t, int64(5000), rec.TimeoutLength, "later rule's action half must win on a field both rules set")
}

func TestApplyAllFilterMatchesCurrentState(t *testing.T) {
	e := New(MatchGlob, nil, nil)

	setsCategory := NewRule("sets-category")
	setsCategory.AppName = mustPattern(t, "*", MatchGlob)
	cat := "chat"
	setsCategory.SetCategory = &cat
	e.AddRule(setsCategory)

	reactsToCategory := NewRule("reacts-to-category")
	reactsToCategory.Category = mustPattern(t, "chat", MatchGlob)
	critical := model.UrgencyCritical
	reactsToCategory.SetUrgency = &critical
	e.AddRule(reactsToCategory)

	rec := model.New("app", 0)
	e.ApplyAll(rec)

	assert.Equal(t, "chat", rec.Category)
	assert.Equal(t, model.UrgencyCritical, rec.Urgency, "a later rule must see an earlier rule's mutation of the record")
}

func TestApplyAllAccumulatesScriptsInMatchOrder(t *testing.T) {
	e := New(MatchGlob, nil, nil)

	r1 := NewRule("r1")
	r1.AppName = mustPattern(t, "*", MatchGlob)
	r1.Scripts = []string{"/bin/notify-log"}
	e.AddRule(r1)

	r2 := NewRule("r2")
	r2.AppName = mustPattern(t, "*", MatchGlob)
	r2.Scripts = []string{"/bin/notify-badge"}
	e.AddRule(r2)

	rec := model.New("app", 0)
	scripts := e.ApplyAll(rec)
	assert.Equal(t, []string{"/bin/notify-log", "/bin/notify-badge"}, scripts)
}

func TestSkipDisplayForcesHistoryIgnoreOff(t *testing.T) {
	e := New(MatchGlob, nil, nil)

	r := NewRule("quiet")
	r.AppName = mustPattern(t, "*", MatchGlob)
	yes := true
	r.HistoryIgnore = &yes
	r.SkipDisplay = &yes
	e.AddRule(r)

	rec := model.New("app", 0)
	e.ApplyAll(rec)

	assert.True(t, rec.Hints.SkipDisplay)
	assert.False(t, rec.Hints.HistoryIgnore, "skip_display must force history_ignore off even if a rule also set it")
}

func TestDisabledRuleNeverMatches(t *testing.T) {
	e := New(MatchGlob, nil, nil)
	r := NewRule("off")
	r.Enabled = false
	r.AppName = mustPattern(t, "*", MatchGlob)
	critical := model.UrgencyCritical
	r.SetUrgency = &critical
	e.AddRule(r)

	rec := model.New("app", 0)
	e.ApplyAll(rec)
	assert.Equal(t, model.UrgencyLow, rec.Urgency)
}

func TestCompilePatternLogsAndSkipsOnBadPattern(t *testing.T) {
	e := New(MatchRegex, nil, nil)
	p := e.CompilePattern("badrule", "summary", "(unclosed")
	assert.Nil(t, p, "a pattern that fails to compile must degrade to a wildcard rather than abort")
}

type fakeIconResolver struct {
	path string
}

func (f *fakeIconResolver) Resolve(path string) (any, error) {
	f.path = path
	return "surface:" + path, nil
}

func TestReplacementIconDropsRawIcon(t *testing.T) {
	icons := &fakeIconResolver{}
	e := New(MatchGlob, icons, nil)

	r := NewRule("icon-swap")
	r.AppName = mustPattern(t, "*", MatchGlob)
	path := "/usr/share/icons/custom.png"
	r.ReplacementIcon = &path
	e.AddRule(r)

	rec := model.New("app", 0)
	rec.RawIcon = &model.RawIcon{Width: 1, Height: 1}

	e.ApplyAll(rec)

	assert.Nil(t, rec.RawIcon)
	assert.Equal(t, "surface:"+path, rec.IconSurface)
	assert.Equal(t, path, icons.path)
}
