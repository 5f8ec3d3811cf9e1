package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jmylchreest/dunstd/internal/model"
)

func newRec() *model.Record {
	r := model.New("Firefox", 0)
	r.Summary = "Download complete"
	r.Body = "report.pdf finished"
	r.IconName = "/usr/share/icons/firefox.png"
	r.Hints.Progress = -1
	return r
}

func TestExpandBasicTokens(t *testing.T) {
	rec := newRec()
	Expand(rec, Options{Template: "%a: %s - %b", Markup: model.MarkupNone})
	assert.Equal(t, "Firefox: Download complete - report.pdf finished", rec.Message)
}

func TestExpandIconTokens(t *testing.T) {
	rec := newRec()
	Expand(rec, Options{Template: "%i|%I", Markup: model.MarkupNone})
	assert.Equal(t, "/usr/share/icons/firefox.png|firefox.png", rec.Message)
}

func TestExpandProgressTokens(t *testing.T) {
	rec := newRec()
	rec.Hints.Progress = 42
	Expand(rec, Options{Template: "%p %n", Markup: model.MarkupNone})
	assert.Equal(t, "[ 42%] 42", rec.Message)
}

func TestExpandProgressUnsetOmitsTokens(t *testing.T) {
	rec := newRec()
	Expand(rec, Options{Template: "x%px%nx", Markup: model.MarkupNone})
	assert.Equal(t, "xxx", rec.Message)
}

func TestExpandLiteralPercent(t *testing.T) {
	rec := newRec()
	Expand(rec, Options{Template: "100%%", Markup: model.MarkupNone})
	assert.Equal(t, "100%", rec.Message)
}

func TestExpandUnknownTokenPassesThrough(t *testing.T) {
	rec := newRec()
	Expand(rec, Options{Template: "%z", Markup: model.MarkupNone})
	assert.Equal(t, "%z", rec.Message)
}

func TestExpandTrailingPercentPassesThrough(t *testing.T) {
	rec := newRec()
	Expand(rec, Options{Template: "abc%", Markup: model.MarkupNone})
	assert.Equal(t, "abc%", rec.Message)
}

func TestMarkupNoneEscapesEntities(t *testing.T) {
	rec := newRec()
	rec.Summary = `<b>Bold</b> & "quoted"`
	Expand(rec, Options{Template: "%s", Markup: model.MarkupNone})
	assert.Equal(t, "&lt;b&gt;Bold&lt;/b&gt; &amp; &quot;quoted&quot;", rec.Message)
}

func TestMarkupStripRemovesTags(t *testing.T) {
	rec := newRec()
	rec.Summary = "<b>Bold</b> text<br>next line"
	Expand(rec, Options{Template: "%s", Markup: model.MarkupStrip})
	assert.Equal(t, "Bold text\nnext line", rec.Message)
}

func TestMarkupFullExtractsHyperlinkAndKeepsText(t *testing.T) {
	rec := newRec()
	rec.Body = `see <a href="https://example.com">the report</a> for details`
	Expand(rec, Options{Template: "%b", Markup: model.MarkupFull})
	assert.Equal(t, "see the report for details", rec.Message)
	assert.Equal(t, "[the report] https://example.com", rec.URLs)
}

func TestMarkupFullExtractsImageAlt(t *testing.T) {
	rec := newRec()
	rec.Body = `<img src="https://example.com/x.png" alt="a chart"/>`
	Expand(rec, Options{Template: "%b", Markup: model.MarkupFull})
	assert.Equal(t, "a chart", rec.Message)
	assert.Equal(t, "[a chart] https://example.com/x.png", rec.URLs)
}

func TestIgnoreNewlineCollapsesToSpaces(t *testing.T) {
	rec := newRec()
	rec.Body = "line one\nline two"
	Expand(rec, Options{Template: "%b", Markup: model.MarkupNone, IgnoreNewline: true})
	assert.Equal(t, "line one line two", rec.Message)
}

func TestTruncationCap(t *testing.T) {
	rec := newRec()
	rec.Summary = strings_repeat("x", maxChars+500)
	Expand(rec, Options{Template: "%s", Markup: model.MarkupNone})
	assert.Len(t, rec.Message, maxChars)
}

func strings_repeat(s string, n int) string {
	out := make([]byte, 0, n)
	for len(out) < n {
		out = append(out, s...)
	}
	return string(out[:n])
}

func TestDecorateDuplicateIndicator(t *testing.T) {
	rec := newRec()
	rec.DuplicateCount = 3
	Expand(rec, Options{Template: "%s", Markup: model.MarkupNone, ShowAgeThreshold: -1})
	assert.Equal(t, "(3) Download complete", rec.TextToRender)
}

func TestDecorateActionsAndURLsIndicator(t *testing.T) {
	rec := newRec()
	rec.Actions["default"] = "Open"
	rec.Body = `<a href="https://example.com">link</a>`
	Expand(rec, Options{Template: "%s", Markup: model.MarkupFull, ShowIndicators: true, ShowAgeThreshold: -1})
	assert.Equal(t, "(AU) Download complete", rec.TextToRender)
}

func TestDecorateHideDuplicateCountSuppressesIndicator(t *testing.T) {
	rec := newRec()
	rec.DuplicateCount = 5
	Expand(rec, Options{Template: "%s", Markup: model.MarkupNone, HideDuplicateCount: true, ShowAgeThreshold: -1})
	assert.Equal(t, "Download complete", rec.TextToRender)
}

func TestDecorateAgeThresholdAppendsAgeString(t *testing.T) {
	rec := newRec()
	rec.Arrival = 0
	restore := nowMicro
	nowMicro = func() int64 { return int64(5 * time.Second / time.Microsecond) }
	defer func() { nowMicro = restore }()

	Expand(rec, Options{Template: "%s", Markup: model.MarkupNone, ShowAgeThreshold: time.Second})
	assert.Equal(t, "Download complete (5s old)", rec.TextToRender)
}

func TestAgeStringCombinesHoursMinutesSeconds(t *testing.T) {
	assert.Equal(t, "3s", ageString(3*time.Second))
	assert.Equal(t, "1m 5s", ageString(65*time.Second))
	assert.Equal(t, "2h 1m 5s", ageString(2*time.Hour+65*time.Second))
}

func TestDecorateBelowAgeThresholdOmitsAgeString(t *testing.T) {
	rec := newRec()
	rec.Arrival = 0
	restore := nowMicro
	nowMicro = func() int64 { return int64(500 * time.Millisecond / time.Microsecond) }
	defer func() { nowMicro = restore }()

	Expand(rec, Options{Template: "%s", Markup: model.MarkupNone, ShowAgeThreshold: time.Second})
	assert.Equal(t, "Download complete", rec.TextToRender)
}
