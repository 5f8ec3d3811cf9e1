package render

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	layershell "github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/dunstd/internal/config"
	"github.com/jmylchreest/dunstd/internal/layout"
	"github.com/jmylchreest/dunstd/internal/model"
)

// Popup is a single notification's layer-shell window. It holds no
// opinion about when it should close or where it sits relative to
// other popups beyond the position Manager last told it; Manager
// derives both from the Queue Engine's displayed snapshot.
type Popup struct {
	window *gtk.Window
	rec    *model.Record
	cfg    *config.DaemonConfig
	layout *layout.LayoutConfig
	logger *slog.Logger

	box           *gtk.Box
	summaryLbl    *gtk.Label
	bodyLbl       *gtk.Label
	appNameLbl    *gtk.Label
	timestampLbl  *gtk.Label
	iconImage     *gtk.Image
	actionBox     *gtk.Box
	progressBar   *gtk.ProgressBar
	closeBtn      *gtk.Button
	stackCountLbl *gtk.Label
	imageWidget   *gtk.Image

	onClose    func(reason model.CloseReason)
	onAction   func(actionKey string)
	onHover    func(hovering bool)
	onCloseAll func()

	position int
	closed   bool
}

// NewPopup builds the GTK widget tree for rec using cfg's configured
// (or default) layout template.
func NewPopup(app *gtk.Application, rec *model.Record, cfg *config.DaemonConfig, logger *slog.Logger) *Popup {
	if logger == nil {
		logger = slog.Default()
	}

	templateName := cfg.Layout.Template
	if templateName == "" {
		templateName = "default"
	}

	layoutConfig, found := layout.GetEmbeddedTemplate(templateName)
	if !found {
		layoutConfig = layout.DefaultLayout()
		logger.Warn("layout template not found, using default", "template", templateName)
	}

	p := &Popup{
		rec:    rec,
		cfg:    cfg,
		layout: layoutConfig,
		logger: logger,
	}

	p.window = gtk.NewWindow()
	p.window.SetApplication(app)
	p.window.SetDecorated(false)
	p.window.SetResizable(false)

	minWidth := layoutConfig.MinWidth
	if minWidth == 0 {
		minWidth = cfg.Display.Width
	}
	maxWidth := layoutConfig.MaxWidth
	if maxWidth == 0 {
		maxWidth = cfg.Display.Width
	}
	maxHeight := layoutConfig.MaxHeight
	if maxHeight == 0 {
		maxHeight = cfg.Display.MaxHeight
	}

	p.window.SetDefaultSize(maxWidth, -1)
	p.window.SetSizeRequest(minWidth, layoutConfig.MinHeight)

	layershell.InitForWindow(p.window)
	layershell.SetLayer(p.window, layershell.LayerShellLayerTop)
	layershell.SetExclusiveZone(p.window, 0)
	layershell.SetKeyboardMode(p.window, layershell.LayerShellKeyboardModeNone)
	layershell.SetNamespace(p.window, "dunstd-notification")

	p.buildUI()
	p.applyThemeClasses()
	p.connectSignals()

	return p
}

func (p *Popup) applyThemeClasses() {
	p.box.AddCSSClass(p.getColorSchemeClass())
	p.box.AddCSSClass(urgencyToClass(p.rec.Urgency))

	if p.cfg.Display.Opacity < 1.0 {
		p.box.AddCSSClass("translucent")
	}
	if p.rec.AppName != "" {
		p.box.AddCSSClass("app-" + sanitizeClassName(p.rec.AppName))
	}
	if p.rec.Category != "" {
		p.box.AddCSSClass("category-" + sanitizeClassName(p.rec.Category))
	}
	if p.rec.Body != "" {
		p.box.AddCSSClass("has-body")
	}
	if p.rec.IconName != "" || p.rec.IconSurface != nil {
		p.box.AddCSSClass("has-icon")
	}
	if len(p.rec.Actions) > 0 {
		p.box.AddCSSClass("has-actions")
	}
	if p.rec.Hints.Transient {
		p.box.AddCSSClass("is-transient")
	}
	if p.rec.HideText {
		p.box.AddCSSClass("hide-text")
	}

	if progress := p.rec.Hints.Progress; progress >= 0 {
		p.box.AddCSSClass("has-progress")
		switch {
		case progress == 100:
			p.box.AddCSSClass("progress-complete")
		case progress >= 75:
			p.box.AddCSSClass("progress-high")
		case progress >= 50:
			p.box.AddCSSClass("progress-medium")
		case progress >= 25:
			p.box.AddCSSClass("progress-low")
		default:
			p.box.AddCSSClass("progress-minimal")
		}
	}
}

func sanitizeClassName(name string) string {
	var result strings.Builder
	prevHyphen := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			result.WriteRune(r)
			prevHyphen = false
		case r == '-' || r == '_' || r == ' ' || r == '.' || r == '/':
			if !prevHyphen && result.Len() > 0 {
				result.WriteRune('-')
				prevHyphen = true
			}
		}
	}
	s := result.String()
	if len(s) > 0 && s[len(s)-1] == '-' {
		s = s[:len(s)-1]
	}
	return s
}

func (p *Popup) buildUI() {
	p.box = gtk.NewBox(gtk.OrientationVertical, 6)
	p.box.AddCSSClass("notification-popup")
	p.box.SetMarginTop(8)
	p.box.SetMarginBottom(8)
	p.box.SetMarginStart(12)
	p.box.SetMarginEnd(12)

	for _, elem := range p.layout.Elements {
		if widget := p.buildElement(elem); widget != nil {
			p.box.Append(widget)
		}
	}

	p.window.SetChild(p.box)
}

func (p *Popup) buildElement(elem layout.LayoutElement) gtk.Widgetter {
	switch elem.Type {
	case layout.ElementTypeHeader:
		return p.buildHeader(elem)
	case layout.ElementTypeBody:
		return p.buildBody()
	case layout.ElementTypeActions:
		return p.buildActions()
	case layout.ElementTypeProgress:
		return p.buildProgress()
	case layout.ElementTypeIcon:
		return p.buildIcon()
	case layout.ElementTypeSummary:
		return p.buildSummary()
	case layout.ElementTypeAppName:
		return p.buildAppName()
	case layout.ElementTypeTimestamp:
		return p.buildTimestamp()
	case layout.ElementTypeStackCount:
		return p.buildStackCount()
	case layout.ElementTypeClose:
		return p.buildClose()
	case layout.ElementTypeImage:
		return p.buildImage()
	case layout.ElementTypeBox:
		return p.buildBox(elem)
	default:
		return nil
	}
}

func (p *Popup) buildHeader(elem layout.LayoutElement) gtk.Widgetter {
	headerBox := gtk.NewBox(gtk.OrientationHorizontal, 8)
	headerBox.AddCSSClass("notification-header")
	for _, child := range elem.Children {
		if widget := p.buildElement(child); widget != nil {
			headerBox.Append(widget)
		}
	}
	return headerBox
}

func (p *Popup) buildBox(elem layout.LayoutElement) gtk.Widgetter {
	orientation := gtk.OrientationVertical
	if elem.Attributes["orientation"] == "horizontal" {
		orientation = gtk.OrientationHorizontal
	}
	box := gtk.NewBox(orientation, 4)
	if orientation == gtk.OrientationVertical {
		box.SetHExpand(true)
	}
	for _, child := range elem.Children {
		if widget := p.buildElement(child); widget != nil {
			box.Append(widget)
		}
	}
	return box
}

func (p *Popup) buildIcon() gtk.Widgetter {
	if p.rec.HideText && p.rec.IconName == "" {
		return nil
	}
	p.iconImage = gtk.NewImage()
	p.iconImage.AddCSSClass("notification-icon")
	p.iconImage.SetPixelSize(48)
	if p.rec.IconName != "" {
		p.iconImage.SetFromIconName(p.rec.IconName)
	} else {
		p.iconImage.SetFromIconName("dialog-information")
	}
	return p.iconImage
}

func (p *Popup) buildSummary() gtk.Widgetter {
	if p.rec.HideText {
		return nil
	}
	p.summaryLbl = gtk.NewLabel(p.rec.Summary)
	p.summaryLbl.AddCSSClass("notification-summary")
	p.summaryLbl.SetXAlign(alignmentToXAlign(p.rec.Alignment))
	p.summaryLbl.SetEllipsize(ellipsizeToGtk(p.rec.Ellipsize))
	p.summaryLbl.SetMaxWidthChars(40)
	p.summaryLbl.SetHExpand(true)
	return p.summaryLbl
}

func (p *Popup) buildAppName() gtk.Widgetter {
	p.appNameLbl = gtk.NewLabel(p.rec.AppName)
	p.appNameLbl.AddCSSClass("notification-appname")
	p.appNameLbl.SetXAlign(0)
	return p.appNameLbl
}

func (p *Popup) buildTimestamp() gtk.Widgetter {
	p.timestampLbl = gtk.NewLabel(formatRelativeTime(p.rec.Arrival))
	p.timestampLbl.AddCSSClass("notification-timestamp")
	p.timestampLbl.SetXAlign(1)
	return p.timestampLbl
}

func (p *Popup) buildStackCount() gtk.Widgetter {
	p.stackCountLbl = gtk.NewLabel("")
	p.stackCountLbl.AddCSSClass("notification-stack-count")
	p.stackCountLbl.SetVisible(false)
	p.SetStackCount(p.rec.DuplicateCount)
	return p.stackCountLbl
}

func (p *Popup) buildClose() gtk.Widgetter {
	p.closeBtn = gtk.NewButtonFromIconName("window-close-symbolic")
	p.closeBtn.AddCSSClass("notification-close")
	p.closeBtn.SetVisible(false)
	return p.closeBtn
}

func (p *Popup) buildBody() gtk.Widgetter {
	if p.rec.HideText || p.rec.TextToRender == "" {
		return nil
	}
	p.bodyLbl = gtk.NewLabel("")
	p.bodyLbl.AddCSSClass("notification-body")
	p.bodyLbl.SetXAlign(alignmentToXAlign(p.rec.Alignment))
	p.bodyLbl.SetWrap(p.rec.WordWrap)
	p.bodyLbl.SetWrapMode(2) // PANGO_WRAP_WORD_CHAR
	p.bodyLbl.SetMaxWidthChars(50)

	if p.rec.Markup == model.MarkupFull {
		p.bodyLbl.SetMarkup(p.rec.TextToRender)
	} else {
		p.bodyLbl.SetText(p.rec.TextToRender)
	}
	return p.bodyLbl
}

func (p *Popup) buildActions() gtk.Widgetter {
	if len(p.rec.Actions) == 0 {
		return nil
	}
	p.actionBox = gtk.NewBox(gtk.OrientationHorizontal, 6)
	p.actionBox.AddCSSClass("notification-actions")
	p.actionBox.SetVisible(false)

	for key, label := range p.rec.Actions {
		actionKey := key
		btn := gtk.NewButtonWithLabel(label)
		btn.AddCSSClass("notification-action")
		btn.ConnectClicked(func() {
			if p.onAction != nil {
				p.onAction(actionKey)
			}
			if !p.rec.Hints.Transient {
				p.Close()
				if p.onClose != nil {
					p.onClose(model.ReasonUserDismissed)
				}
			}
		})
		p.actionBox.Append(btn)
	}
	return p.actionBox
}

func (p *Popup) buildProgress() gtk.Widgetter {
	progress := p.rec.Hints.Progress
	if progress < 0 {
		return nil
	}
	p.progressBar = gtk.NewProgressBar()
	p.progressBar.AddCSSClass("notification-progress")
	p.progressBar.SetFraction(float64(progress) / 100.0)
	return p.progressBar
}

func (p *Popup) buildImage() gtk.Widgetter {
	if p.rec.RawIcon == nil || p.rec.IconSurface == nil {
		return nil
	}
	path, ok := p.rec.IconSurface.(string)
	if !ok || path == "" {
		return nil
	}
	p.imageWidget = gtk.NewImage()
	p.imageWidget.AddCSSClass("notification-image")
	p.imageWidget.SetFromFile(path)
	return p.imageWidget
}

func formatRelativeTime(arrivalMicro int64) string {
	d := time.Since(time.UnixMicro(arrivalMicro))
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return strconv.Itoa(int(d.Minutes())) + "m"
	case d < 24*time.Hour:
		return strconv.Itoa(int(d.Hours())) + "h"
	default:
		return strconv.Itoa(int(d.Hours()/24)) + "d"
	}
}

func (p *Popup) connectSignals() {
	if p.closeBtn != nil {
		p.closeBtn.ConnectClicked(func() {
			p.Close()
			if p.onClose != nil {
				p.onClose(model.ReasonUserDismissed)
			}
		})
	}

	motionCtrl := gtk.NewEventControllerMotion()
	motionCtrl.ConnectEnter(func(x, y float64) {
		if p.closeBtn != nil {
			p.closeBtn.SetVisible(true)
		}
		if p.actionBox != nil {
			p.actionBox.SetVisible(true)
		}
		if p.onHover != nil {
			p.onHover(true)
		}
	})
	motionCtrl.ConnectLeave(func() {
		if p.closeBtn != nil {
			p.closeBtn.SetVisible(false)
		}
		if p.actionBox != nil {
			p.actionBox.SetVisible(false)
		}
		if p.onHover != nil {
			p.onHover(false)
		}
	})
	p.window.AddController(motionCtrl)

	clickCtrl := gtk.NewGestureClick()
	clickCtrl.SetButton(0)
	clickCtrl.ConnectReleased(func(nPress int, x, y float64) {
		p.handleClick(clickCtrl.CurrentButton())
	})
	p.window.AddController(clickCtrl)
}

func (p *Popup) handleClick(button uint) {
	var action string
	switch button {
	case 1:
		action = p.cfg.Mouse.Left
	case 2:
		action = p.cfg.Mouse.Middle
	case 3:
		action = p.cfg.Mouse.Right
	default:
		return
	}

	switch config.MouseAction(action) {
	case config.MouseActionDismiss:
		p.Close()
		if p.onClose != nil {
			p.onClose(model.ReasonUserDismissed)
		}
	case config.MouseActionDoAction:
		actionKey := p.rec.DefaultAction
		if actionKey == "" {
			for k := range p.rec.Actions {
				actionKey = k
				break
			}
		}
		if actionKey != "" && p.onAction != nil {
			p.onAction(actionKey)
			if !p.rec.Hints.Transient {
				p.Close()
				if p.onClose != nil {
					p.onClose(model.ReasonUserDismissed)
				}
			}
		}
	case config.MouseActionCloseAll:
		if p.onCloseAll != nil {
			p.onCloseAll()
		} else {
			p.Close()
			if p.onClose != nil {
				p.onClose(model.ReasonUserDismissed)
			}
		}
	case config.MouseActionContextMenu:
		if p.onAction != nil {
			p.onAction("context-menu")
		}
	case config.MouseActionNone:
	}
}

// Show presents the popup at the given stack position.
func (p *Popup) Show(position int) {
	p.position = position
	p.updateAnchorPosition()
	p.window.Present()
}

// Close closes the popup's window. Idempotent.
func (p *Popup) Close() {
	if p.closed {
		return
	}
	p.closed = true
	p.window.Close()
}

// UpdatePosition moves the popup to a new stack slot.
func (p *Popup) UpdatePosition(position int) {
	if p.position == position {
		return
	}
	p.position = position
	p.updateAnchorPosition()
}

func (p *Popup) updateAnchorPosition() {
	maxHeight := p.layout.MaxHeight
	if maxHeight == 0 {
		maxHeight = p.cfg.Display.MaxHeight
	}
	pos := config.Position(p.cfg.Display.Position)
	offsetX := p.cfg.Display.OffsetX
	offsetY := p.cfg.Display.OffsetY + (p.position * (maxHeight + p.cfg.Display.Gap))

	layershell.SetAnchor(p.window, layershell.LayerShellEdgeTop, false)
	layershell.SetAnchor(p.window, layershell.LayerShellEdgeBottom, false)
	layershell.SetAnchor(p.window, layershell.LayerShellEdgeLeft, false)
	layershell.SetAnchor(p.window, layershell.LayerShellEdgeRight, false)

	switch pos {
	case config.PositionTopRight:
		layershell.SetAnchor(p.window, layershell.LayerShellEdgeTop, true)
		layershell.SetAnchor(p.window, layershell.LayerShellEdgeRight, true)
		layershell.SetMargin(p.window, layershell.LayerShellEdgeTop, offsetY)
		layershell.SetMargin(p.window, layershell.LayerShellEdgeRight, offsetX)
	case config.PositionTopLeft:
		layershell.SetAnchor(p.window, layershell.LayerShellEdgeTop, true)
		layershell.SetAnchor(p.window, layershell.LayerShellEdgeLeft, true)
		layershell.SetMargin(p.window, layershell.LayerShellEdgeTop, offsetY)
		layershell.SetMargin(p.window, layershell.LayerShellEdgeLeft, offsetX)
	case config.PositionTopCenter:
		layershell.SetAnchor(p.window, layershell.LayerShellEdgeTop, true)
		layershell.SetMargin(p.window, layershell.LayerShellEdgeTop, offsetY)
	case config.PositionBottomRight:
		layershell.SetAnchor(p.window, layershell.LayerShellEdgeBottom, true)
		layershell.SetAnchor(p.window, layershell.LayerShellEdgeRight, true)
		layershell.SetMargin(p.window, layershell.LayerShellEdgeBottom, offsetY)
		layershell.SetMargin(p.window, layershell.LayerShellEdgeRight, offsetX)
	case config.PositionBottomLeft:
		layershell.SetAnchor(p.window, layershell.LayerShellEdgeBottom, true)
		layershell.SetAnchor(p.window, layershell.LayerShellEdgeLeft, true)
		layershell.SetMargin(p.window, layershell.LayerShellEdgeBottom, offsetY)
		layershell.SetMargin(p.window, layershell.LayerShellEdgeLeft, offsetX)
	case config.PositionBottomCenter:
		layershell.SetAnchor(p.window, layershell.LayerShellEdgeBottom, true)
		layershell.SetMargin(p.window, layershell.LayerShellEdgeBottom, offsetY)
	}
}

func (p *Popup) OnClose(cb func(reason model.CloseReason)) { p.onClose = cb }
func (p *Popup) OnAction(cb func(actionKey string))        { p.onAction = cb }
func (p *Popup) OnHover(cb func(hovering bool))            { p.onHover = cb }
func (p *Popup) OnCloseAll(cb func())                      { p.onCloseAll = cb }

// SetStackCount updates the stack count badge from the Queue Engine's
// own DuplicateCount; the popup never computes this itself.
func (p *Popup) SetStackCount(count int) {
	if p.stackCountLbl == nil {
		return
	}
	if count > 1 {
		p.stackCountLbl.SetText("(" + strconv.Itoa(count) + ")")
		p.stackCountLbl.SetVisible(true)
	} else {
		p.stackCountLbl.SetVisible(false)
	}
}

func urgencyToClass(urgency model.Urgency) string {
	switch urgency {
	case model.UrgencyLow:
		return "urgency-low"
	case model.UrgencyCritical:
		return "urgency-critical"
	default:
		return "urgency-normal"
	}
}

func alignmentToXAlign(a model.Alignment) float32 {
	switch a {
	case model.AlignCenter:
		return 0.5
	case model.AlignRight:
		return 1
	default:
		return 0
	}
}

func ellipsizeToGtk(e model.Ellipsize) int {
	switch e {
	case model.EllipsizeStart:
		return 1 // PANGO_ELLIPSIZE_START
	case model.EllipsizeMiddle:
		return 2 // PANGO_ELLIPSIZE_MIDDLE
	default:
		return 3 // PANGO_ELLIPSIZE_END
	}
}

func (p *Popup) getColorSchemeClass() string {
	switch config.ColorScheme(p.cfg.Theme.ColorScheme) {
	case config.ColorSchemeLight:
		return "light"
	case config.ColorSchemeDark:
		return "dark"
	default:
		return detectSystemColorScheme()
	}
}

func detectSystemColorScheme() string {
	if adw.StyleManagerGetDefault().Dark() {
		return "dark"
	}
	return "light"
}

// Ensure adw is linked for libadwaita style manager initialization.
var _ = adw.MAJOR_VERSION
