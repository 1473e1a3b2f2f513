// Copyright (c) 2026 Decoy Team
// Decoy - contactless card interception lab
// This source code is licensed under the MIT license found in the LICENSE file.

// package tui provides the terminal user interface for Decoy.
// This file contains the captured-keys browser.
package tui // import "github.com/strayfield/decoy/internal/tui"

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/strayfield/decoy/internal/emulation"
	"github.com/strayfield/decoy/internal/i18n"
	"github.com/strayfield/decoy/internal/model"
)

// keysModel shows the credentials captured during the current session.
type keysModel struct {
	table  table.Model
	keys   []model.CapturedCredential
	status string
}

func newKeysModel(snap emulation.Snapshot) keysModel {
	m := keysModel{keys: snap.Keys}

	columns := []table.Column{
		{Title: i18n.T("keys.header.sector"), Width: 8},
		{Title: i18n.T("keys.header.kind"), Width: 6},
		{Title: i18n.T("keys.header.key"), Width: 14},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15), // Placeholder height
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(colorSubtle).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(colorWhite).
		Background(colorHighlight).
		Bold(false)
	t.SetStyles(s)

	var rows []table.Row
	for _, c := range snap.Keys {
		rows = append(rows, table.Row{
			fmt.Sprintf("%d", c.Sector),
			c.Kind.String(),
			c.Key.String(),
		})
	}
	t.SetRows(rows)

	m.table = t
	return m
}

func (m keysModel) Init() tea.Cmd { return nil }

func (m keysModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 6)
		m.table.SetWidth(msg.Width - 4)

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc":
			return m, func() tea.Msg { return backToMenuMsg{} }
		case "c":
			if i := m.table.Cursor(); i >= 0 && i < len(m.keys) {
				if err := clipboard.WriteAll(m.keys[i].String()); err == nil {
					m.status = i18n.T("keys.copied")
				} else {
					m.status = err.Error()
				}
			}
			return m, nil
		}
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m keysModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("🔑 "+i18n.T("keys.title")) + "\n\n")

	if len(m.keys) == 0 {
		b.WriteString(helpStyle.Render(i18n.T("keys.empty")))
	} else {
		b.WriteString(m.table.View())
	}

	b.WriteString("\n")
	if m.status != "" {
		b.WriteString(statusMessageStyle.Render(m.status) + "\n")
	}
	b.WriteString(helpStyle.Render(i18n.T("keys.help")))
	return b.String()
}
