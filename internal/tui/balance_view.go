// Copyright (c) 2026 Decoy Team
// Decoy - contactless card interception lab
// This source code is licensed under the MIT license found in the LICENSE file.

// package tui provides the terminal user interface for Decoy.
// This file contains the stored-balance editor with the vendor presets.
package tui // import "github.com/strayfield/decoy/internal/tui"

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/strayfield/decoy/internal/carddata"
	"github.com/strayfield/decoy/internal/db"
	"github.com/strayfield/decoy/internal/emulation"
	"github.com/strayfield/decoy/internal/i18n"
)

// balanceModel lets the operator rewrite the stored balance on the
// emulated card, either from the vendor presets or as a custom amount
// in cents.
type balanceModel struct {
	session *emulation.Session
	presets []carddata.BalancePreset
	cursor  int
	input   textinput.Model
	status  string
}

func newBalanceModel(session *emulation.Session) balanceModel {
	ti := textinput.New()
	ti.Placeholder = i18n.T("balance.placeholder")
	ti.CharLimit = 5
	ti.Width = 12
	return balanceModel{
		session: session,
		presets: carddata.BalancePresets(),
		input:   ti,
	}
}

func (m balanceModel) Init() tea.Cmd { return nil }

func (m balanceModel) Update(msg tea.Msg) (balanceModel, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.input.Focused() {
		switch keyMsg.String() {
		case "esc":
			m.input.Blur()
			return m, nil
		case "enter":
			v, err := strconv.ParseUint(strings.TrimSpace(m.input.Value()), 10, 16)
			if err != nil {
				m.status = errorStyle.Render(i18n.T("balance.invalid"))
				return m, nil
			}
			m.apply(uint16(v))
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch keyMsg.String() {
	case "q", "esc":
		return m, func() tea.Msg { return backToMenuMsg{} }
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.presets)-1 {
			m.cursor++
		}
	case "c":
		return m, m.input.Focus()
	case "enter":
		m.apply(m.presets[m.cursor].Cents)
	}
	return m, nil
}

func (m *balanceModel) apply(cents uint16) {
	if err := m.session.SetBalance(cents); err != nil {
		m.status = errorStyle.Render(fmt.Sprintf("%s: %v", i18n.T("balance.failed"), err))
		return
	}
	m.status = statusMessageStyle.Render(fmt.Sprintf(i18n.T("balance.set_done"), cents))
	if db.IsInitialized() {
		_ = db.LogAction("SET_BALANCE", fmt.Sprintf("cents: %d", cents))
	}
	m.input.SetValue("")
	m.input.Blur()
}

// View renders the preset list and the custom amount field.
func (m balanceModel) View(width int) string {
	title := titleStyle.Render("💰 " + i18n.T("balance.title"))

	var lines []string
	for i, p := range m.presets {
		if m.cursor == i && !m.input.Focused() {
			lines = append(lines, selectedItemStyle.Render("▸ "+p.Label))
		} else {
			lines = append(lines, itemStyle.Render("  "+p.Label))
		}
	}
	lines = append(lines, "", fmt.Sprintf("%s: %s", i18n.T("balance.custom"), m.input.View()))

	pane := paneStyle.Width(48).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))

	footer := footerStyle.Render(AlignFooter(i18n.T("balance.help"), "", width))

	return lipgloss.JoinVertical(lipgloss.Left, title, pane, m.status, footer)
}
