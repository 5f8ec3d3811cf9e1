// Package format implements the Formatter (component D): expansion of a
// record's format template into Message, then TextToRender with the
// duplicate/action/url/age indicators appended (spec 4.2).
package format

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/jmylchreest/dunstd/internal/model"
)

// maxChars is the hard cap on an expanded message, matching the
// original daemon's DUNST_NOTIF_MAX_CHARS (original_source/src/notification.c).
const maxChars = 50000

// Options controls the indicator and age-string behavior layered on top
// of template expansion, one set per urgency section in config (spec 4.2).
type Options struct {
	Template           string
	Markup             model.MarkupMode
	IgnoreNewline      bool
	ShowIndicators     bool
	HideDuplicateCount bool
	ShowAgeThreshold   time.Duration // negative disables age display
}

var aTagRe = regexp.MustCompile(`(?is)<a\b[^>]*href="([^"]*)"[^>]*>(.*?)</a>`)
var imgTagRe = regexp.MustCompile(`(?is)<img\b[^>]*?/?>`)
var imgAltAttrRe = regexp.MustCompile(`(?is)\balt="([^"]*)"`)
var imgSrcAttrRe = regexp.MustCompile(`(?is)\bsrc="([^"]*)"`)
var anyTagRe = regexp.MustCompile(`<[^>]*>`)
var brRe = regexp.MustCompile(`(?i)<br\s*/?>`)

// Expand runs the full Formatter pipeline for rec: template expansion into
// Message, then indicator/age decoration into TextToRender. It mutates rec
// in place, matching notification_format_message/notification_update_text_to_render
// from the original daemon's lifecycle (spec 4.2, "Pipeline").
func Expand(rec *model.Record, opts Options) {
	rec.Message = expandTemplate(rec, opts)
	rec.TextToRender = decorate(rec, opts)
}

// expandTemplate walks opts.Template left to right, substituting the
// documented conversion characters (spec 4.2, "Format tokens"):
//
//	%a appname   %s summary   %b body   %i icon path   %I icon basename
//	%p progress  %n progress (no brackets)   %% literal percent
//
// An unknown or trailing '%' is left untouched rather than aborting
// expansion, mirroring the original daemon's tolerant behavior.
func expandTemplate(rec *model.Record, opts Options) string {
	tmpl := opts.Template
	if tmpl == "" {
		tmpl = "%s\n%b"
	}
	tmpl = strings.ReplaceAll(tmpl, `\n`, "\n")

	var out strings.Builder
	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		if c != '%' || i == len(tmpl)-1 {
			out.WriteByte(c)
			continue
		}
		switch tmpl[i+1] {
		case 'a':
			out.WriteString(applyMarkup(rec.AppName, model.MarkupNone))
		case 's':
			out.WriteString(applyMarkup(rec.Summary, opts.Markup))
		case 'b':
			out.WriteString(applyMarkup(rec.Body, opts.Markup))
		case 'i':
			out.WriteString(rec.IconName)
		case 'I':
			if rec.IconName != "" {
				out.WriteString(filepath.Base(rec.IconName))
			}
		case 'p':
			if rec.Hints.Progress >= 0 {
				out.WriteString(fmt.Sprintf("[%3d%%]", rec.Hints.Progress))
			}
		case 'n':
			if rec.Hints.Progress >= 0 {
				out.WriteString(fmt.Sprintf("%d", rec.Hints.Progress))
			}
		case '%':
			out.WriteByte('%')
		default:
			out.WriteByte(c)
			out.WriteByte(tmpl[i+1])
		}
		i++
	}

	msg := strings.TrimRight(out.String(), " \t\n")

	urls := extractURLs(rec, opts.Markup)
	rec.URLs = urls

	if opts.IgnoreNewline {
		msg = strings.ReplaceAll(msg, "\n", " ")
	}

	if len(msg) > maxChars {
		msg = msg[:maxChars]
	}
	return msg
}

// applyMarkup transforms s according to mode (spec 4.2, "Markup modes").
// MarkupFull is handled separately by extractURLs/markupFull since it
// needs to both strip tags and report extracted link/image targets;
// applyMarkup here only covers the token-substitution path for a single
// field, where None/Strip are sufficient.
func applyMarkup(s string, mode model.MarkupMode) string {
	switch mode {
	case model.MarkupNone:
		return escapeMarkup(s)
	case model.MarkupStrip:
		s = brRe.ReplaceAllString(s, "\n")
		s = anyTagRe.ReplaceAllString(s, "")
		return escapeMarkup(unescapeMarkup(s))
	case model.MarkupFull:
		s = brRe.ReplaceAllString(s, "\n")
		s = aTagRe.ReplaceAllString(s, "$2")
		s = imgTagRe.ReplaceAllStringFunc(s, func(tag string) string {
			if alt := imgAltAttrRe.FindStringSubmatch(tag); alt != nil {
				return alt[1]
			}
			return imageAltPlaceholder
		})
		return s
	default:
		return s
	}
}

const imageAltPlaceholder = "[image]"

func escapeMarkup(s string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		`"`, "&quot;",
		"'", "&apos;",
		"<", "&lt;",
		">", "&gt;",
	)
	return r.Replace(s)
}

func unescapeMarkup(s string) string {
	r := strings.NewReplacer(
		"&quot;", `"`,
		"&apos;", "'",
		"&lt;", "<",
		"&gt;", ">",
		"&amp;", "&",
	)
	return r.Replace(s)
}

// extractURLs collects hyperlink and image targets out of Summary and Body
// when markup is Full, in the "[label] target" line format the original
// daemon's markup_strip_a/markup_strip_img produce (spec 4.2, "URL
// sidecar"). Other markup modes never populate URLs.
func extractURLs(rec *model.Record, mode model.MarkupMode) string {
	if mode != model.MarkupFull {
		return ""
	}
	// The original daemon only scans the body for link/image targets
	// (notification_extract_markup_urls(&n->body), original_source/src/notification.c).
	var lines []string
	for _, m := range aTagRe.FindAllStringSubmatch(rec.Body, -1) {
		href, text := m[1], m[2]
		if href == "" {
			continue
		}
		text = strings.NewReplacer("[", "", "]", "").Replace(text)
		lines = append(lines, fmt.Sprintf("[%s] %s", text, href))
	}
	for _, tag := range imgTagRe.FindAllString(rec.Body, -1) {
		srcMatch := imgSrcAttrRe.FindStringSubmatch(tag)
		if srcMatch == nil {
			continue
		}
		src := srcMatch[1]
		alt := "image"
		if altMatch := imgAltAttrRe.FindStringSubmatch(tag); altMatch != nil {
			alt = altMatch[1]
		}
		alt = strings.NewReplacer("[", "", "]", "").Replace(alt)
		lines = append(lines, fmt.Sprintf("[%s] %s", alt, src))
	}
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n")
}

// decorate appends the duplicate-count/actions/urls prefix and the
// trailing age string to rec.Message, producing TextToRender
// (notification_update_text_to_render, original_source/src/notification.c).
func decorate(rec *model.Record, opts Options) string {
	msg := strings.TrimRight(rec.Message, " \t\n")

	hasActions := len(rec.Actions) > 0
	hasURLs := rec.URLs != ""
	showDup := rec.DuplicateCount > 0 && !opts.HideDuplicateCount

	var prefix string
	switch {
	case showDup && (hasActions || hasURLs) && opts.ShowIndicators:
		prefix = fmt.Sprintf("(%d%s%s) ", rec.DuplicateCount, flagIf(hasActions, "A"), flagIf(hasURLs, "U"))
	case (hasActions || hasURLs) && opts.ShowIndicators:
		prefix = fmt.Sprintf("(%s%s) ", flagIf(hasActions, "A"), flagIf(hasURLs, "U"))
	case showDup:
		prefix = fmt.Sprintf("(%d) ", rec.DuplicateCount)
	}

	out := prefix + msg

	if opts.ShowAgeThreshold >= 0 {
		age := time.Duration(nowMicro()-rec.Arrival) * time.Microsecond
		if age >= opts.ShowAgeThreshold {
			out = fmt.Sprintf("%s (%s old)", out, ageString(age))
		}
	}

	return out
}

// ageString renders age as "Nh Nm Ns", "Nm Ns", or "Ns", dropping leading
// zero units (notification_update_text_to_render,
// original_source/src/notification.c).
func ageString(age time.Duration) string {
	total := int64(age / time.Second)
	hours := total / 3600
	minutes := total / 60 % 60
	seconds := total % 60

	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}

func flagIf(cond bool, s string) string {
	if cond {
		return s
	}
	return ""
}

// nowMicro is a seam so decorate's age computation can be driven by test
// data; production callers pass rec.Arrival values already stamped from
// the same clock the caller uses for "now".
var nowMicro = func() int64 { return time.Now().UnixMicro() }
