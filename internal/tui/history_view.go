// Copyright (c) 2026 Decoy Team
// Decoy - contactless card interception lab
// This source code is licensed under the MIT license found in the LICENSE file.

// package tui provides the terminal user interface for Decoy.
// This file contains the persisted session history browser.
package tui // import "github.com/strayfield/decoy/internal/tui"

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/strayfield/decoy/internal/db"
	"github.com/strayfield/decoy/internal/i18n"
	"github.com/strayfield/decoy/internal/model"
)

// sessionHistoryMsg carries the result of loading session records.
type sessionHistoryMsg struct {
	sessions []model.SessionRecord
	err      error
}

// historyModel shows the persisted session summaries.
type historyModel struct {
	table    table.Model
	sessions []model.SessionRecord
	loaded   bool
	err      error
}

func newHistoryModel() historyModel {
	columns := []table.Column{
		{Title: i18n.T("history.header.started"), Width: 17},
		{Title: i18n.T("history.header.card"), Width: 12},
		{Title: i18n.T("history.header.mode"), Width: 10},
		{Title: i18n.T("history.header.counters"), Width: 24},
		{Title: i18n.T("history.header.balance"), Width: 14},
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

	return historyModel{table: t}
}

// Init kicks off the async history load.
func (m historyModel) Init() tea.Cmd {
	return func() tea.Msg {
		if !db.IsInitialized() {
			return sessionHistoryMsg{}
		}
		sessions, err := db.GetAllSessions()
		return sessionHistoryMsg{sessions: sessions, err: err}
	}
}

func (m historyModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case sessionHistoryMsg:
		m.loaded = true
		m.sessions = msg.sessions
		m.err = msg.err
		var rows []table.Row
		for _, s := range msg.sessions {
			rows = append(rows, table.Row{
				s.StartedAt.Format("2006-01-02 15:04"),
				s.CardUID,
				s.Mode,
				fmt.Sprintf("A:%d R:%d W:%d", s.AuthCount, s.ReadCount, s.WriteCount),
				fmt.Sprintf("%d -> %d", s.OriginalBalance, s.FinalBalance),
			})
		}
		m.table.SetRows(rows)
		return m, nil

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 6)
		m.table.SetWidth(msg.Width - 4)

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc":
			return m, func() tea.Msg { return backToMenuMsg{} }
		}
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m historyModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("🗂  "+i18n.T("history.title")) + "\n\n")

	switch {
	case m.err != nil:
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error loading history: %v", m.err)))
	case m.loaded && len(m.sessions) == 0:
		b.WriteString(helpStyle.Render(i18n.T("history.empty")))
	default:
		b.WriteString(m.table.View())
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render(i18n.T("history.help")))
	return b.String()
}
