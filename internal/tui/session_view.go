// Copyright (c) 2026 Decoy Team
// Decoy - contactless card interception lab
// This source code is licensed under the MIT license found in the LICENSE file.

// package tui provides the terminal user interface for Decoy.
// This file contains the live session dashboard.
package tui // import "github.com/strayfield/decoy/internal/tui"

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/strayfield/decoy/internal/db"
	"github.com/strayfield/decoy/internal/emulation"
	"github.com/strayfield/decoy/internal/export"
	"github.com/strayfield/decoy/internal/i18n"
)

// sessionModel is the live dashboard for the running emulation session.
// It renders from the router's periodically refreshed snapshot and only
// touches the session itself for operator actions.
type sessionModel struct {
	session    *emulation.Session
	exportPath string
	status     string
}

func newSessionModel(session *emulation.Session, exportPath string) sessionModel {
	return sessionModel{session: session, exportPath: exportPath}
}

func (m sessionModel) Init() tea.Cmd { return nil }

// Update returns the concrete model: the dashboard renders with external
// snapshot state, so it does not satisfy tea.Model itself.
func (m sessionModel) Update(msg tea.Msg) (sessionModel, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "q", "esc":
			return m, func() tea.Msg { return backToMenuMsg{} }
		case "t":
			mode := m.session.ToggleMode()
			m.status = fmt.Sprintf("%s: %s", i18n.T("session.mode"), mode)
			if db.IsInitialized() {
				_ = db.LogAction("TOGGLE_MODE", fmt.Sprintf("mode: %s", mode))
			}
		case "e":
			snap := m.session.Snapshot()
			if err := export.WriteCredentials(m.exportPath, snap.Keys); err != nil {
				m.status = fmt.Sprintf("%s: %v", i18n.T("session.export_failed"), err)
			} else {
				m.status = fmt.Sprintf("%d %s", len(snap.Keys), i18n.T("session.exported"))
				if db.IsInitialized() {
					_ = db.LogAction("EXPORT_KEYS", fmt.Sprintf("path: %s, keys: %d", m.exportPath, len(snap.Keys)))
				}
			}
		case "r":
			m.session.Reset()
			m.status = i18n.T("session.reset_done")
			if db.IsInitialized() {
				_ = db.LogAction("RESET_SESSION", "")
			}
		}
	}
	return m, nil
}

// View renders the dashboard from the given snapshot.
func (m sessionModel) View(snap emulation.Snapshot, width int) string {
	title := titleStyle.Render("📡 " + i18n.T("session.title"))

	modeLine := i18n.T("session.mode_suppress")
	modeStyle := successStyle
	if snap.Mode == emulation.ApplyWrites {
		modeLine = i18n.T("session.mode_apply")
		modeStyle = specialStyle
	}

	balance := fmt.Sprintf("%s: %d (%s %d)",
		i18n.T("session.balance"), snap.CurrentBalance, i18n.T("session.original"), snap.OriginalBalance)
	if snap.CurrentBalance != snap.OriginalBalance {
		balance = specialStyle.Render(balance)
	}

	lines := []string{
		fmt.Sprintf("%s: %s", i18n.T("session.card"), snap.CardUID),
		fmt.Sprintf("%s: %s", i18n.T("session.provider"), snap.Provider),
		fmt.Sprintf("%s: %s", i18n.T("session.mode"), modeStyle.Render(modeLine)),
		balance,
		"",
		fmt.Sprintf(i18n.T("session.counters"), snap.Counters.Auth, snap.Counters.Read, snap.Counters.Write),
		fmt.Sprintf("%s: %d / %d", i18n.T("session.keys_captured"), len(snap.Keys), emulation.KeyStoreCapacity),
	}
	if len(snap.Log) == emulation.TxLogCapacity {
		lines = append(lines, "", errorStyle.Render(i18n.T("log.full")))
	}

	pane := paneStyle.Width(64).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))

	var status string
	if m.status != "" {
		status = statusMessageStyle.Render(m.status)
	}

	footer := footerStyle.Render(AlignFooter(i18n.T("session.help"), "", width))

	return lipgloss.JoinVertical(lipgloss.Left, title, pane, status, footer)
}
