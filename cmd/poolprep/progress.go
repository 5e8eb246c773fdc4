// This file is part of Poolprep
// Copyright (c) 2026 The Poolprep Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/poolprep/poolprep/pkg/badblocks"
	"github.com/poolprep/poolprep/pkg/logging"
)

const (
	padding  = 1
	maxWidth = 80
)

type progressNotification struct {
	message string
	percent float64
	done    bool
	err     error
}

type progressModel struct {
	model   progress.Model
	spinner spinner.Model
	message string
	done    bool
	err     error
}

func newProgressModel() progressModel {
	m := progressModel{model: progress.New(progress.WithDefaultGradient())}
	m.spinner = spinner.New()
	m.spinner.Spinner = spinner.Points
	m.spinner.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7971E"))
	return m
}

func finalPause() tea.Cmd {
	return tea.Tick(time.Millisecond*750, func(_ time.Time) tea.Msg {
		return nil
	})
}

func (m progressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.model.Width = msg.Width - padding*2 - 4
		if m.model.Width > maxWidth {
			m.model.Width = maxWidth
		}
		return m, nil

	case progressNotification:
		if msg.message != "" {
			m.message = msg.message
		}
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		var cmds []tea.Cmd
		if msg.done {
			m.done = msg.done
			cmds = append(cmds, tea.Sequence(finalPause(), tea.Quit))
		}
		if msg.percent > 0.0 {
			cmds = append(cmds, m.model.SetPercent(msg.percent))
		}
		return m, tea.Batch(cmds...)

	// FrameMsg is sent when the progress bar wants to animate itself
	case progress.FrameMsg:
		progressModel, cmd := m.model.Update(msg)
		m.model = progressModel.(progress.Model)
		return m, cmd

	default:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
}

func (m progressModel) View() string {
	pad := strings.Repeat(" ", padding)
	str := "\n" + pad + m.model.View() + "\n\n"
	switch {
	case m.err != nil:
		str += pad + color.HiRedString("Error; %s \n\n", m.err.Error())
	case m.done:
		str += pad + "Write test finished\n\n"
	case m.message != "":
		str += pad + fmt.Sprintf("%s %s\n\n", m.message, m.spinner.View())
	default:
		str += pad + fmt.Sprintf("Write test running %s\n\n", m.spinner.View())
	}
	return str + pad
}

// superviseWithProgress runs the destructive write supervisor while a
// progress view owns the terminal. Every sample also lands in the
// session log; the reporting path never blocks the tracked operation.
func superviseWithProgress(supervisor *badblocks.Supervisor, log *logging.Logger) error {
	teaProgram := tea.NewProgram(newProgressModel())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := teaProgram.Run(); err != nil {
			fmt.Println("error running progress view:", err)
		}
	}()

	supervisor.Report = func(p badblocks.Progress) {
		message := formatProgress(p)
		log.FileOnly("%v", message)
		teaProgram.Send(progressNotification{
			message: message,
			percent: float64(p.Written) / float64(p.TotalExpected),
		})
	}

	err := supervisor.Run()
	teaProgram.Send(progressNotification{done: true, err: err})
	wg.Wait()
	return err
}

// formatProgress renders one progress sample the way it appears on
// screen and in the session log.
func formatProgress(p badblocks.Progress) string {
	eta, ok := p.ETA()
	if !ok {
		return fmt.Sprintf("%v of %v written", humanize.IBytes(p.Written), humanize.IBytes(p.TotalExpected))
	}
	return fmt.Sprintf("%v%% done: %v of %v written, about %v remaining",
		p.Percent(),
		humanize.IBytes(p.Written),
		humanize.IBytes(p.TotalExpected),
		eta.Round(time.Second),
	)
}
