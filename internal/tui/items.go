package tui

import (
	"fmt"
	"strings"

	"github.com/Joseda-hg/tasktrack/internal/controller"
	"github.com/Joseda-hg/tasktrack/internal/model"
	"github.com/dustin/go-humanize"
)

func formatTaskLine(task model.Task, state controller.State) string {
	check := "[ ]"
	if task.Completed {
		check = "[x]"
	}

	var flags []string
	if state.ToggleState(task.ID) == controller.Pending {
		flags = append(flags, "saving")
	}
	if state.DeleteState(task.ID) == controller.Pending {
		flags = append(flags, "deleting")
	}

	line := fmt.Sprintf("%s %s | %s", check, task.Title, humanize.Time(task.CreatedAt))
	if len(flags) > 0 {
		line += " (" + strings.Join(flags, ", ") + "...)"
	}
	return line
}

func countTasks(tasks []model.Task) string {
	completed := 0
	for _, task := range tasks {
		if task.Completed {
			completed++
		}
	}
	return fmt.Sprintf("%s total, %s completed, %s pending",
		humanize.Comma(int64(len(tasks))),
		humanize.Comma(int64(completed)),
		humanize.Comma(int64(len(tasks)-completed)))
}

func statusLine(state controller.State) string {
	var parts []string
	if state.Adding {
		parts = append(parts, "adding task...")
	}
	if state.LoggingOut {
		parts = append(parts, "logging out...")
	}
	if state.Error != "" {
		parts = append(parts, "error: "+state.Error)
	}
	return strings.Join(parts, " | ")
}

func clampSelection(selected, count int) int {
	if count == 0 {
		return 0
	}
	return max(0, min(selected, count-1))
}
