// Package app is the TopNote window: an ebiten game loop that draws the
// active document of a session and turns input into session operations.
package app

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"go.uber.org/zap"
	imgclip "golang.design/x/clipboard"

	"topnote/internal/config"
	"topnote/internal/editor"
	"topnote/internal/imagecodec"
	"topnote/internal/render"
	"topnote/internal/session"
	"topnote/internal/ui"
)

const historyLimit = 200

type rect struct {
	x int
	y int
	w int
	h int
}

func (r rect) contains(x, y int) bool {
	return x >= r.x && x < r.x+r.w && y >= r.y && y < r.y+r.h
}

type actionButton struct {
	id     string
	label  string
	r      rect
	active bool
}

type colorSwatch struct {
	value color.RGBA
	// reset restores the default instead of applying value.
	reset bool
	r     rect
}

// Swatch targets other than a tab index.
const (
	swatchBackground = -1
	swatchText       = -2
)

type editKind int

const (
	editNone editKind = iota
	editTabTitle
	editProjectName
	editFind
)

// lineEdit is the single-line input shown in the toolbar row.
type lineEdit struct {
	kind   editKind
	tab    int
	buffer string
}

type App struct {
	cfg    *config.Config
	log    *zap.Logger
	sess   *session.Session
	state  *editor.State
	prompt dialogPrompter

	theme       ui.Theme
	layout      ui.Layout
	frameBuffer *render.FrameBuffer
	canvas      *ebiten.Image
	textLayer   *ebiten.Image
	fonts       *ui.FontBank
	fontSize    float64
	fontStyle   ui.FontStyle

	lineNumbers bool
	onTop       bool
	decorated   bool
	background  *color.RGBA
	foreground  *color.RGBA

	histories map[int]*editor.History
	editTick  uint64
	// Colour spans of inactive documents, keyed by Document.ID.
	colorSpans map[int][]editor.ColorSpan

	toolbar      []actionButton
	palette      []color.RGBA
	swatches     []colorSwatch
	swatchBox    rect
	swatchFor    int
	showSwatches bool

	lines   []lineLayout
	placed  []placedImage
	scrollX float64
	scrollY float64
	maxX    float64
	maxY    float64

	selecting     bool
	selectedImage string
	dragImage     string
	dragOffX      int
	dragOffY      int
	dragMoved     bool

	windowDrag  bool
	windowDragX int
	windowDragY int
	resizing    bool
	resizeX     int
	resizeY     int
	resizeW     int
	resizeH     int

	lastTabClick int
	lastTabTick  uint64

	edit        lineEdit
	findQuery   string
	findCase    bool
	findMatches []editor.Match
	findIndex   int

	showPasswordPrompt  bool
	passwordPromptPath  string
	passwordPromptInput string
	passwordPromptError string
	passwordPromptRect  rect
	passwordInputRect   rect
	passwordSubmitRect  rect
	passwordCancelRect  rect

	showEncryption        bool
	encryptionInputActive bool
	compressionEnabled    bool
	encryptionEnabled     bool
	encryptionPassword    string
	encryptionPanel       rect
	encryptionCloseRect   rect
	encryptionCompRect    rect
	encryptionEncRect     rect
	encryptionPassRect    rect

	showFont       bool
	fontPanel      rect
	fontCloseRect  rect
	fontMonoRect   rect
	fontBoldRect   rect
	fontItalicRect rect
	fontDownRect   rect
	fontUpRect     rect

	showHelp  bool
	helpRect  rect
	helpClose rect

	status         string
	frameTick      uint64
	screenW        int
	screenH        int
	imageClipboard bool
}

// New builds the window state. It does not open a window; see Run.
func New(cfg *config.Config, log *zap.Logger) *App {
	if log == nil {
		log = zap.NewNop()
	}
	a := &App{
		cfg:          cfg,
		log:          log,
		state:        editor.NewState(),
		prompt:       dialogPrompter{title: cfg.Window.Title, log: log},
		fonts:        ui.NewFontBank(),
		fontSize:     cfg.Editor.FontSize,
		fontStyle: ui.FontStyle{
			Mono:   cfg.Editor.FontFamily == config.FamilyMono,
			Bold:   cfg.Editor.Bold,
			Italic: cfg.Editor.Italic,
		},
		lineNumbers:  cfg.Editor.LineNumbers,
		onTop:        cfg.Window.AlwaysOnTop,
		decorated:    cfg.Window.Decorated,
		histories:    map[int]*editor.History{},
		colorSpans:   map[int][]editor.ColorSpan{},
		toolbar:      make([]actionButton, 0, 20),
		swatches:     make([]colorSwatch, 0, 16),
		lines:        make([]lineLayout, 0, 128),
		palette:      defaultPalette(),
		swatchFor:    swatchBackground,
		lastTabClick: -1,
		status:       "Ready",
	}
	a.applyTheme()

	save := cfg.SaveOptions()
	a.compressionEnabled = save.Compression
	a.encryptionEnabled = save.Encryption.Enabled
	a.encryptionPassword = save.Encryption.Password

	a.sess = session.New(a.state, session.Options{
		Logger:  log.Named("session"),
		Codec:   imagecodec.New(cfg.Images.MaxWidth, cfg.Images.MaxHeight),
		Save:    save,
		Load:    cfg.LoadOptions(),
		OnTitle: a.setTitle,
	})

	if err := imgclip.Init(); err != nil {
		log.Warn("image clipboard unavailable", zap.Error(err))
	} else {
		a.imageClipboard = true
	}
	return a
}

// Run opens the window with files loaded as tabs and blocks until it closes.
func Run(cfg *config.Config, log *zap.Logger, files []string) error {
	a := New(cfg, log)
	for _, path := range files {
		a.openPath(path)
	}

	ebiten.SetWindowSize(cfg.Window.Width, cfg.Window.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSizeLimits(320, 200, -1, -1)
	ebiten.SetWindowFloating(a.onTop)
	ebiten.SetWindowDecorated(a.decorated)
	ebiten.SetWindowClosingHandled(true)
	a.log.Info("window starting",
		zap.Int("width", cfg.Window.Width),
		zap.Int("height", cfg.Window.Height),
		zap.Bool("always_on_top", a.onTop),
		zap.Bool("decorated", a.decorated),
		zap.Int("tabs", a.sess.Len()),
	)
	if err := ebiten.RunGame(a); err != nil && !errors.Is(err, ebiten.Termination) {
		return fmt.Errorf("run game loop: %w", err)
	}
	a.log.Info("window closed")
	return nil
}

func (a *App) setTitle(title string) {
	if a.cfg.Window.Title != "" {
		title = title + " - " + a.cfg.Window.Title
	}
	ebiten.SetWindowTitle(title)
}

func (a *App) applyTheme() {
	bg := a.cfg.Background()
	if a.background != nil {
		bg = *a.background
	}
	a.theme = ui.DefaultTheme().WithBackground(bg)
	if fg := a.cfg.Foreground(); fg != nil {
		a.theme = a.theme.WithForeground(*fg)
	}
	if a.foreground != nil {
		a.theme = a.theme.WithForeground(*a.foreground)
	}
}

func (a *App) Update() error {
	a.frameTick++
	ctrl := ebiten.IsKeyPressed(ebiten.KeyControl) || ebiten.IsKeyPressed(ebiten.KeyMeta)
	shift := ebiten.IsKeyPressed(ebiten.KeyShift)
	winW, winH := a.currentViewportSize()
	if a.showEncryption {
		a.layoutEncryptionPanelBounds(winW, winH)
	}
	if a.showPasswordPrompt {
		a.layoutPasswordPromptBounds(winW, winH)
	}
	if a.showHelp {
		a.layoutHelpDialogBounds(winW, winH)
	}
	if a.showFont {
		a.layoutFontPanelBounds(winW, winH)
	}

	if ebiten.IsWindowBeingClosed() || (ctrl && inpututil.IsKeyJustPressed(ebiten.KeyQ)) {
		if a.requestExit() {
			return ebiten.Termination
		}
		return nil
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		a.cancelOverlay()
		return nil
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF1) {
		a.showHelp = !a.showHelp
	}
	if a.showHelp {
		if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
			x, y := ebiten.CursorPosition()
			if !a.helpRect.contains(x, y) || a.helpClose.contains(x, y) {
				a.showHelp = false
			}
		}
		return nil
	}

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		x, y := ebiten.CursorPosition()
		if a.showPasswordPrompt {
			a.handlePasswordPromptClick(x, y)
			return nil
		}
		if a.handleEncryptionClick(x, y) || a.handleFontClick(x, y) {
			return nil
		}
	}
	if a.handleOverlayTextInput(ctrl) {
		return nil
	}
	if a.showPasswordPrompt || a.showEncryption || a.showFont {
		return nil
	}

	consumed, exit := a.handleWindowChrome()
	if exit {
		if a.requestExit() {
			return ebiten.Termination
		}
		return nil
	}
	a.handleScroll(shift)
	if !consumed {
		a.handleMouse(shift)
	}
	a.handleShortcuts(ctrl, shift)
	a.handleEditing(ctrl, shift)
	a.clampScroll()
	return nil
}

// cancelOverlay closes the topmost overlay, or drops the selection.
func (a *App) cancelOverlay() {
	switch {
	case a.showPasswordPrompt:
		a.closePasswordPrompt()
	case a.showHelp:
		a.showHelp = false
	case a.encryptionInputActive:
		a.encryptionInputActive = false
	case a.showEncryption:
		a.showEncryption = false
	case a.showFont:
		a.showFont = false
	case a.showSwatches:
		a.showSwatches = false
	case a.edit.kind != editNone:
		a.closeLineEdit()
	case a.selectedImage != "":
		a.selectedImage = ""
	default:
		a.state.ClearSelection()
	}
}

// requestExit reports whether the window may close.
func (a *App) requestExit() bool {
	err := a.sess.ConfirmExit(a.prompt)
	if err == nil {
		return true
	}
	if errors.Is(err, session.ErrUserCancelled) {
		a.status = "Exit cancelled"
		a.log.Info("exit cancelled", zap.Error(err))
		return false
	}
	a.reportError("Exit", err)
	return false
}

func (a *App) Layout(outsideWidth, outsideHeight int) (screenWidth, screenHeight int) {
	if outsideWidth < 1 {
		outsideWidth = 1
	}
	if outsideHeight < 1 {
		outsideHeight = 1
	}
	a.screenW = outsideWidth
	a.screenH = outsideHeight
	a.relayout(outsideWidth, outsideHeight)
	return outsideWidth, outsideHeight
}

func (a *App) relayout(w, h int) {
	a.layout = ui.ComputeLayout(w, h, a.theme, ui.LayoutOptions{
		Scale:       1,
		Borderless:  !a.decorated,
		LineNumbers: a.lineNumbers,
		Tabs:        a.sess.Len(),
	})
}

func (a *App) currentViewportSize() (int, int) {
	if a.screenW > 0 && a.screenH > 0 {
		return a.screenW, a.screenH
	}
	w, h := ebiten.WindowSize()
	if w <= 0 {
		w = a.cfg.Window.Width
	}
	if h <= 0 {
		h = a.cfg.Window.Height
	}
	return w, h
}

// history returns the undo stack of the active document.
func (a *App) history() *editor.History {
	id := a.sess.Active().ID
	h, ok := a.histories[id]
	if !ok {
		h = editor.NewHistory(historyLimit)
		a.histories[id] = h
	}
	return h
}

// pruneHistories drops undo stacks and colours of documents that are gone.
func (a *App) pruneHistories() {
	live := make(map[int]bool, a.sess.Len())
	for _, d := range a.sess.Documents() {
		live[d.ID] = true
	}
	for id := range a.histories {
		if !live[id] {
			delete(a.histories, id)
		}
	}
	for id := range a.colorSpans {
		if !live[id] {
			delete(a.colorSpans, id)
		}
	}
}

// beginEdit records an undo point once per frame before the text changes.
func (a *App) beginEdit() {
	if a.editTick == a.frameTick {
		return
	}
	a.editTick = a.frameTick
	a.history().Push(a.state)
}

// edited tells the session the surface changed.
func (a *App) edited() {
	a.sess.MarkEdited()
	a.refreshFind()
	a.layoutDocumentLines()
	a.ensureCaretVisible()
}

// stashColors keeps the active document's colour spans before the session
// repopulates the surface. Colours are not part of any file format.
func (a *App) stashColors() {
	id := a.sess.Active().ID
	if spans := a.state.ColorSpans(); len(spans) > 0 {
		a.colorSpans[id] = spans
	} else {
		delete(a.colorSpans, id)
	}
}

// documentSwitched resets per-view state after the surface was repopulated.
func (a *App) documentSwitched() {
	a.state.SetColorSpans(a.colorSpans[a.sess.Active().ID])
	a.scrollX, a.scrollY = 0, 0
	a.selectedImage = ""
	a.dragImage = ""
	a.selecting = false
	a.pruneHistories()
	a.refreshFind()
}

func defaultPalette() []color.RGBA {
	return []color.RGBA{
		{0xA0, 0xA0, 0xA0, 0xFF},
		{0xFF, 0xFF, 0xFF, 0xFF},
		{0xFF, 0xF6, 0xB3, 0xFF},
		{0xD8, 0xF0, 0xD2, 0xFF},
		{0xCF, 0xE3, 0xF7, 0xFF},
		{0xF4, 0xD4, 0xE4, 0xFF},
		{0x20, 0x20, 0x20, 0xFF},
		{0x00, 0x57, 0xB8, 0xFF},
		{0xA3, 0x15, 0x15, 0xFF},
		{0x11, 0x7A, 0x37, 0xFF},
		{0x7A, 0x2D, 0xB8, 0xFF},
		{0xE6, 0x7E, 0x22, 0xFF},
	}
}
