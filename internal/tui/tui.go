package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/Joseda-hg/tasktrack/internal/controller"
	"github.com/Joseda-hg/tasktrack/internal/model"
	goerrors "github.com/go-errors/errors"
	"github.com/jesseduffield/gocui"
)

const (
	viewHeader  = "header"
	viewFooter  = "footer"
	viewTasks   = "tasks"
	viewAdd     = "add"
	viewConfirm = "confirm"
	viewHelp    = "help"
)

// ErrLoginRequired is returned by Run when the session ended, either by
// logging out or because the server stopped accepting the credential.
var ErrLoginRequired = errors.New("login required")

type Options struct {
	Store     controller.Store
	Session   controller.Session
	Dashboard model.Dashboard
	Logger    *slog.Logger
}

type UI struct {
	ctrl   *controller.Controller
	gui    *gocui.Gui
	logger *slog.Logger
	ctx    context.Context

	// run launches a controller operation; tests replace it to run inline.
	run func(func())

	selected   int
	adding     bool
	helpActive bool

	mu        sync.Mutex
	confirms  []*confirmRequest
	navigated string
	done      chan struct{}
	closeOnce sync.Once
}

func newUI(ctx context.Context, opts Options) *UI {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ui := &UI{
		logger: logger,
		ctx:    ctx,
		run:    func(op func()) { go op() },
		done:   make(chan struct{}),
	}
	ui.ctrl = controller.New(controller.Deps{
		Store:     opts.Store,
		Session:   opts.Session,
		Confirmer: ui,
		Navigator: ui,
		Logger:    logger,
		OnChange:  ui.refresh,
	}, opts.Dashboard)
	return ui
}

func Run(ctx context.Context, opts Options) error {
	gui, err := gocui.NewGui(gocui.NewGuiOpts{OutputMode: gocui.OutputNormal})
	if err != nil {
		return err
	}
	defer gui.Close()

	ui := newUI(ctx, opts)
	ui.gui = gui
	defer ui.close()

	gui.SetManagerFunc(ui.layout)
	if err := ui.bindKeys(gui); err != nil {
		return err
	}

	if err := gui.MainLoop(); err != nil && !goerrors.Is(err, gocui.ErrQuit) {
		return err
	}

	if ui.navigatedTo() != "" {
		return ErrLoginRequired
	}
	return nil
}

func (u *UI) bindKeys(gui *gocui.Gui) error {
	bindings := []struct {
		view    string
		key     any
		handler func(*gocui.Gui, *gocui.View) error
	}{
		{"", gocui.KeyCtrlC, u.quit},
		{"", 'q', u.quit},
		{"", 'a', u.openAdd},
		{"", 'x', u.toggleSelected},
		{"", gocui.KeySpace, u.toggleSelected},
		{"", 'd', u.deleteSelected},
		{"", 'L', u.logout},
		{"", '?', u.toggleHelp},
		{"", 'j', u.moveDown},
		{"", gocui.KeyArrowDown, u.moveDown},
		{"", 'k', u.moveUp},
		{"", gocui.KeyArrowUp, u.moveUp},
		{"", gocui.KeyEsc, u.dismissError},
		{viewAdd, gocui.KeyEnter, u.submitAdd},
		{viewAdd, gocui.KeyEsc, u.cancelAdd},
		{viewConfirm, 'y', u.confirmYes},
		{viewConfirm, gocui.KeyEnter, u.confirmYes},
		{viewConfirm, 'n', u.confirmNo},
		{viewConfirm, gocui.KeyEsc, u.confirmNo},
		{viewHelp, gocui.KeyEsc, u.closeHelp},
		{viewHelp, '?', u.closeHelp},
	}
	for _, b := range bindings {
		if err := gui.SetKeybinding(b.view, b.key, gocui.ModNone, b.handler); err != nil {
			return err
		}
	}
	return nil
}

func (u *UI) layout(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	if maxX <= 0 || maxY <= 0 {
		return nil
	}

	state, ok := u.ctrl.View()
	if !ok {
		return nil
	}
	u.selected = clampSelection(u.selected, len(state.Tasks))

	headerView, err := gui.SetView(viewHeader, 0, 0, maxX-1, 0, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	headerView.Frame = false
	headerView.FgColor = gocui.ColorDefault
	renderHeader(headerView, state)

	footerY1 := max(maxY-1, 1)
	footerY0 := max(footerY1-2, 1)
	footerView, err := gui.SetView(viewFooter, 0, footerY0, maxX-1, footerY1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	footerView.Frame = false
	footerView.Wrap = true
	footerView.FgColor = gocui.ColorDefault | gocui.AttrDim
	renderFooter(footerView, state)

	bodyBottom := footerY0 - 1
	if bodyBottom <= 1 {
		return nil
	}
	tasksView, err := gui.SetView(viewTasks, 0, 1, maxX-1, bodyBottom, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		tasksView.Title = "Tasks"
	}
	applyViewStyle(tasksView, !u.modalActive(), true)
	renderTaskList(tasksView, state, u.selected)

	if u.adding {
		if err := u.showAdd(gui); err != nil {
			return err
		}
	}
	if prompt, ok := u.pendingPrompt(); ok {
		if err := u.showConfirm(gui, prompt); err != nil {
			return err
		}
	} else if _, err := gui.View(viewConfirm); err == nil {
		_ = gui.DeleteView(viewConfirm)
	}
	if u.helpActive {
		if err := u.showHelp(gui); err != nil {
			return err
		}
	}

	if current := gui.CurrentView(); current == nil && !u.modalActive() {
		_, _ = gui.SetCurrentView(viewTasks)
	}
	return nil
}

func renderHeader(view *gocui.View, state controller.State) {
	view.Clear()
	counts := countTasks(state.Tasks)
	fmt.Fprintf(view, "[%s] %s <%s> | %s", state.Identity.Initials(), state.Identity.Name, state.Identity.Email, counts)
}

func renderFooter(view *gocui.View, state controller.State) {
	view.Clear()
	view.SetOrigin(0, 0)
	fmt.Fprintln(view, "a add | x/space toggle | d delete | j/k move | L logout | ? help | q quit")
	fmt.Fprint(view, statusLine(state))
}

func renderTaskList(view *gocui.View, state controller.State, selected int) {
	view.Clear()
	if len(state.Tasks) == 0 {
		fmt.Fprint(view, "  No tasks yet. Press a to add one.")
		return
	}
	for i, task := range state.Tasks {
		prefix := " "
		if i == selected {
			prefix = ">"
		}
		fmt.Fprintf(view, "%s %s\n", prefix, formatTaskLine(task, state))
	}
	view.SetCursor(0, selected)
}

func (u *UI) selectedTask() (model.Task, bool) {
	state := u.ctrl.Snapshot()
	if u.selected < 0 || u.selected >= len(state.Tasks) {
		return model.Task{}, false
	}
	return state.Tasks[u.selected], true
}

func (u *UI) moveDown(_ *gocui.Gui, _ *gocui.View) error {
	if u.modalActive() {
		return nil
	}
	u.selected = clampSelection(u.selected+1, len(u.ctrl.Snapshot().Tasks))
	return nil
}

func (u *UI) moveUp(_ *gocui.Gui, _ *gocui.View) error {
	if u.modalActive() {
		return nil
	}
	u.selected = clampSelection(u.selected-1, len(u.ctrl.Snapshot().Tasks))
	return nil
}

func (u *UI) toggleSelected(_ *gocui.Gui, _ *gocui.View) error {
	if u.modalActive() {
		return nil
	}
	task, ok := u.selectedTask()
	if !ok {
		return nil
	}
	u.run(func() { u.ctrl.Toggle(u.ctx, task.ID) })
	return nil
}

func (u *UI) deleteSelected(_ *gocui.Gui, _ *gocui.View) error {
	if u.modalActive() {
		return nil
	}
	task, ok := u.selectedTask()
	if !ok {
		return nil
	}
	u.run(func() { u.ctrl.Remove(u.ctx, task.ID) })
	return nil
}

func (u *UI) logout(_ *gocui.Gui, _ *gocui.View) error {
	if u.modalActive() {
		return nil
	}
	u.run(func() { u.ctrl.Logout(u.ctx) })
	return nil
}

func (u *UI) dismissError(_ *gocui.Gui, _ *gocui.View) error {
	if u.modalActive() {
		return nil
	}
	u.ctrl.ClearError()
	return nil
}

func (u *UI) toggleHelp(gui *gocui.Gui, _ *gocui.View) error {
	if u.adding || u.hasConfirm() {
		return nil
	}
	if u.helpActive {
		return u.closeHelp(gui, nil)
	}
	u.helpActive = true
	return nil
}

func (u *UI) closeHelp(gui *gocui.Gui, _ *gocui.View) error {
	u.helpActive = false
	u.closeView(gui, viewHelp)
	return nil
}

func (u *UI) showHelp(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	width := min(max(50, maxX/2), maxX-1)
	height := 10
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2

	view, err := gui.SetView(viewHelp, x0, y0, x0+width, y0+height, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		view.Title = "Help"
		view.Wrap = true
	}
	view.Clear()
	fmt.Fprint(view, helpText())
	_, _ = gui.SetCurrentView(viewHelp)
	return nil
}

// Navigate ends the main loop; the caller decides how to reach the login
// view.
func (u *UI) Navigate(path string) {
	u.mu.Lock()
	u.navigated = path
	u.mu.Unlock()
	if u.gui != nil {
		u.gui.Update(func(*gocui.Gui) error { return gocui.ErrQuit })
	}
}

func (u *UI) navigatedTo() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.navigated
}

// refresh asks the main loop to redraw from the controller's latest state.
func (u *UI) refresh() {
	if u.gui != nil {
		u.gui.Update(func(*gocui.Gui) error { return nil })
	}
}

func (u *UI) closeView(gui *gocui.Gui, name string) {
	if gui == nil {
		return
	}
	_ = gui.DeleteView(name)
	_, _ = gui.SetCurrentView(viewTasks)
}

func (u *UI) close() {
	u.closeOnce.Do(func() { close(u.done) })
}

func (u *UI) modalActive() bool {
	return u.adding || u.helpActive || u.hasConfirm()
}

func (u *UI) quit(_ *gocui.Gui, _ *gocui.View) error {
	if u.adding || u.hasConfirm() {
		return nil
	}
	return gocui.ErrQuit
}

func helpText() string {
	return strings.Join([]string{
		"Navigation:",
		"  j/k or arrows move selection",
		"",
		"Actions:",
		"  a add task | enter save | esc cancel",
		"  x or space toggle done",
		"  d delete task (asks first)",
		"  L log out (asks first)",
		"",
		"Other:",
		"  esc dismiss error | ? help | q quit",
	}, "\n")
}

func applyViewStyle(view *gocui.View, focused bool, highlight bool) {
	view.Frame = true
	view.Highlight = focused && highlight
	view.HighlightInactive = false
	view.SelBgColor = gocui.ColorBlue
	view.SelFgColor = gocui.ColorBlack
	if focused {
		view.FrameColor = gocui.ColorCyan
		view.TitleColor = gocui.ColorCyan
	} else {
		view.FrameColor = gocui.ColorDefault
	}
}
