package tui

import (
	"fmt"
	"strings"

	goerrors "github.com/go-errors/errors"
	"github.com/jesseduffield/gocui"
)

type confirmRequest struct {
	prompt string
	answer chan bool
}

// Confirm shows a yes/no modal and blocks the calling operation until the
// user answers. It answers no once the UI has shut down.
func (u *UI) Confirm(prompt string) bool {
	req := &confirmRequest{prompt: prompt, answer: make(chan bool, 1)}
	u.mu.Lock()
	u.confirms = append(u.confirms, req)
	u.mu.Unlock()
	u.refresh()

	select {
	case ok := <-req.answer:
		return ok
	case <-u.done:
		return false
	}
}

func (u *UI) pendingPrompt() (string, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if len(u.confirms) == 0 {
		return "", false
	}
	return u.confirms[0].prompt, true
}

func (u *UI) hasConfirm() bool {
	_, ok := u.pendingPrompt()
	return ok
}

func (u *UI) answer(ok bool) {
	u.mu.Lock()
	if len(u.confirms) == 0 {
		u.mu.Unlock()
		return
	}
	req := u.confirms[0]
	u.confirms = u.confirms[1:]
	u.mu.Unlock()
	req.answer <- ok
}

func (u *UI) confirmYes(gui *gocui.Gui, _ *gocui.View) error {
	u.answer(true)
	if !u.hasConfirm() {
		u.closeView(gui, viewConfirm)
	}
	return nil
}

func (u *UI) confirmNo(gui *gocui.Gui, _ *gocui.View) error {
	u.answer(false)
	if !u.hasConfirm() {
		u.closeView(gui, viewConfirm)
	}
	return nil
}

func (u *UI) showConfirm(gui *gocui.Gui, prompt string) error {
	maxX, maxY := gui.Size()
	width := min(max(len(prompt)+4, 30), maxX-1)
	height := 3
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2

	view, err := gui.SetView(viewConfirm, x0, y0, x0+width, y0+height, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		view.Title = "Confirm"
		view.Wrap = true
		view.FrameColor = gocui.ColorYellow
	}
	view.Clear()
	fmt.Fprintln(view, prompt)
	fmt.Fprint(view, "y yes | n no")
	_, _ = gui.SetCurrentView(viewConfirm)
	return nil
}

func (u *UI) openAdd(_ *gocui.Gui, _ *gocui.View) error {
	if u.modalActive() {
		return nil
	}
	if u.ctrl.Snapshot().Adding {
		return nil
	}
	u.adding = true
	return nil
}

// showAdd opens the title input, pre-filled with whatever a failed add left
// behind.
func (u *UI) showAdd(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	width := min(max(40, maxX/2), maxX-1)
	height := 2
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2

	view, err := gui.SetView(viewAdd, x0, y0, x0+width, y0+height, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		view.Title = "New Task"
		value := u.ctrl.Snapshot().Input
		fmt.Fprint(view, value)
		view.SetCursor(len([]rune(value)), 0)
	}
	view.Editable = true
	view.Editor = gocui.DefaultEditor
	_, _ = gui.SetCurrentView(viewAdd)
	return nil
}

func (u *UI) submitAdd(gui *gocui.Gui, view *gocui.View) error {
	if !u.adding {
		return nil
	}
	value := ""
	if view != nil {
		value = inputValue(view.Buffer())
	}
	u.adding = false
	u.closeView(gui, viewAdd)

	u.ctrl.SetInput(value)
	u.run(func() { u.ctrl.Add(u.ctx) })
	return nil
}

func (u *UI) cancelAdd(gui *gocui.Gui, view *gocui.View) error {
	if view != nil {
		u.ctrl.SetInput(inputValue(view.Buffer()))
	}
	u.adding = false
	u.closeView(gui, viewAdd)
	return nil
}

// inputValue flattens an edit buffer into a single-line title.
func inputValue(buffer string) string {
	return strings.Join(strings.Fields(buffer), " ")
}
