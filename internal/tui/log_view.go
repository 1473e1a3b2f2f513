// Copyright (c) 2026 Decoy Team
// Decoy - contactless card interception lab
// This source code is licensed under the MIT license found in the LICENSE file.

// package tui provides the terminal user interface for Decoy.
// This file contains the transaction log browser.
package tui // import "github.com/strayfield/decoy/internal/tui"

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/strayfield/decoy/internal/emulation"
	"github.com/strayfield/decoy/internal/i18n"
	"github.com/strayfield/decoy/internal/model"
)

// logModel shows the protocol events captured during the current session.
type logModel struct {
	table   table.Model
	entries []model.LogEntry
	full    bool
}

func newLogModel(snap emulation.Snapshot) logModel {
	m := logModel{entries: snap.Log, full: len(snap.Log) == emulation.TxLogCapacity}

	columns := []table.Column{
		{Title: i18n.T("log.header.tick"), Width: 10},
		{Title: i18n.T("log.header.op"), Width: 7},
		{Title: i18n.T("log.header.block"), Width: 7},
		{Title: i18n.T("log.header.payload"), Width: 34},
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
	for _, e := range snap.Log {
		payload := ""
		if e.Op != model.OpAuthenticate {
			payload = strings.ToUpper(hex.EncodeToString(e.Payload[:]))
		}
		rows = append(rows, table.Row{
			fmt.Sprintf("%d ms", e.Tick),
			e.Op.String(),
			fmt.Sprintf("%d", e.Block),
			payload,
		})
	}
	t.SetRows(rows)

	m.table = t
	return m
}

func (m logModel) Init() tea.Cmd { return nil }

func (m logModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
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

func (m logModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("📜 "+i18n.T("log.title")) + "\n\n")

	if len(m.entries) == 0 {
		b.WriteString(helpStyle.Render(i18n.T("log.empty")))
	} else {
		b.WriteString(m.table.View())
	}

	b.WriteString("\n")
	if m.full {
		b.WriteString(errorStyle.Render(i18n.T("log.full")) + "\n")
	}
	b.WriteString(helpStyle.Render(i18n.T("log.help")))
	return b.String()
}
