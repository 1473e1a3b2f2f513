// Copyright (c) 2026 Decoy Team
// Decoy - contactless card interception lab
// This source code is licensed under the MIT license found in the LICENSE file.

// package tui provides the terminal user interface for Decoy.
// This file, tui.go, is the main entry point for the TUI, containing the
// top-level model that acts as a router to all other sub-views.
package tui // import "github.com/strayfield/decoy/internal/tui"

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/strayfield/decoy/internal/emulation"
	"github.com/strayfield/decoy/internal/i18n"
	"github.com/strayfield/decoy/internal/logging"
)

// viewState represents which part of the UI is currently active.
type viewState int

const (
	// menuView is the main dashboard and navigation menu.
	menuView viewState = iota
	sessionView
	keysView
	logView
	historyView
	balanceView
)

// snapshotInterval is how often the UI samples session state. The sample
// uses a try-lock, so a busy protocol path simply leaves the previous
// snapshot on screen.
const snapshotInterval = 250 * time.Millisecond

// tickMsg drives the periodic snapshot refresh.
type tickMsg time.Time

// backToMenuMsg signals a sub-view wants to return to the main menu.
type backToMenuMsg struct{}

// mainModel is the top-level model for the TUI. It acts as a state machine
// and router, delegating updates and view rendering to the currently active sub-model.
type mainModel struct {
	state   viewState
	session *emulation.Session
	snap    emulation.Snapshot

	menu    menuModel
	live    sessionModel
	keys    keysModel
	log     logModel
	history historyModel
	balance balanceModel

	width  int
	height int
	err    error
}

// menuModel holds the state for the main menu.
type menuModel struct {
	choices []string // The menu items to show.
	cursor  int      // Which menu item our cursor is pointing at.
}

// initialModel creates the starting state of the TUI, beginning at the main menu.
func initialModel(session *emulation.Session, exportPath string) mainModel {
	return mainModel{
		state:   menuView,
		session: session,
		snap:    session.Snapshot(),
		menu: menuModel{
			choices: []string{
				i18n.T("menu.session"),
				i18n.T("menu.keys"),
				i18n.T("menu.log"),
				i18n.T("menu.history"),
				i18n.T("menu.balance"),
				i18n.T("menu.quit"),
			},
		},
		live: newSessionModel(session, exportPath),
	}
}

// tickCmd schedules the next snapshot refresh.
func tickCmd() tea.Cmd {
	return tea.Tick(snapshotInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init is the first function that will be called by the Bubble Tea runtime.
// It kicks off the periodic snapshot refresh.
func (m mainModel) Init() tea.Cmd {
	return tickCmd()
}

// Update is the main message loop. It handles all events (like key presses and
// window size changes) and delegates them to the active sub-model.
func (m mainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Global keybindings that work everywhere.
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tickMsg:
		// Sample session state without ever blocking the protocol path.
		// When the try-lock loses the race the previous snapshot stays up.
		if snap, ok := m.session.TrySnapshot(); ok {
			m.snap = snap
		}
		return m, tickCmd()
	}

	// Delegate updates to the currently active view.
	switch m.state {
	case sessionView:
		if _, ok := msg.(backToMenuMsg); ok {
			m.state = menuView
			return m, nil
		}
		m.live, cmd = m.live.Update(msg)

	case keysView:
		if _, ok := msg.(backToMenuMsg); ok {
			m.state = menuView
			return m, nil
		}
		var newKeys tea.Model
		newKeys, cmd = m.keys.Update(msg)
		m.keys = newKeys.(keysModel)

	case logView:
		if _, ok := msg.(backToMenuMsg); ok {
			m.state = menuView
			return m, nil
		}
		var newLog tea.Model
		newLog, cmd = m.log.Update(msg)
		m.log = newLog.(logModel)

	case historyView:
		if _, ok := msg.(backToMenuMsg); ok {
			m.state = menuView
			return m, nil
		}
		var newHistory tea.Model
		newHistory, cmd = m.history.Update(msg)
		m.history = newHistory.(historyModel)

	case balanceView:
		if _, ok := msg.(backToMenuMsg); ok {
			m.state = menuView
			return m, nil
		}
		m.balance, cmd = m.balance.Update(msg)

	default: // menuView
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			switch keyMsg.String() {
			case "q":
				return m, tea.Quit
			case "up", "k":
				if m.menu.cursor > 0 {
					m.menu.cursor--
				}
			case "down", "j":
				if m.menu.cursor < len(m.menu.choices)-1 {
					m.menu.cursor++
				}
			case "enter":
				switch m.menu.cursor {
				case 0: // Live Session
					m.state = sessionView
					return m, nil
				case 1: // Captured Keys
					m.state = keysView
					m.keys = newKeysModel(m.snap)
					var updated tea.Model
					updated, cmd = m.keys.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height})
					m.keys = updated.(keysModel)
					return m, cmd
				case 2: // Transaction Log
					m.state = logView
					m.log = newLogModel(m.snap)
					var updated tea.Model
					updated, cmd = m.log.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height})
					m.log = updated.(logModel)
					return m, cmd
				case 3: // Session History
					m.state = historyView
					m.history = newHistoryModel()
					return m, m.history.Init()
				case 4: // Set Balance
					m.state = balanceView
					m.balance = newBalanceModel(m.session)
					return m, nil
				case 5: // Quit
					return m, tea.Quit
				}
			}
		}
	}

	return m, cmd
}

// View renders the TUI. It's called after every Update and delegates rendering
// to the currently active sub-model.
func (m mainModel) View() string {
	if m.err != nil {
		errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Padding(1, 2)
		return errStyle.Render(fmt.Sprintf("An error occurred: %v", m.err))
	}

	switch m.state {
	case sessionView:
		return m.live.View(m.snap, m.width)
	case keysView:
		return m.keys.View()
	case logView:
		return m.log.View()
	case historyView:
		return m.history.View()
	case balanceView:
		return m.balance.View(m.width)
	default: // menuView
		return m.menu.View(m.snap, m.width, m.height)
	}
}

// View renders the main menu alongside a compact session summary pane.
func (m menuModel) View(snap emulation.Snapshot, width, height int) string {
	title := mainTitleStyle.Render("🃏 " + i18n.T("menu.title"))
	subTitle := helpStyle.Render(i18n.T("menu.subtitle"))
	header := lipgloss.JoinVertical(lipgloss.Left, title, subTitle)

	paneTitleStyle := lipgloss.NewStyle().Bold(true)

	// Menu List (Left Pane)
	var menuItems []string
	menuItems = append(menuItems, paneTitleStyle.Render(i18n.T("menu.title")), "")
	for i, choice := range m.choices {
		if m.cursor == i {
			menuItems = append(menuItems, selectedItemStyle.Render("▸ "+choice))
		} else {
			menuItems = append(menuItems, itemStyle.Render("  "+choice))
		}
	}
	menuContent := lipgloss.JoinVertical(lipgloss.Left, menuItems...)

	// Session summary (Right Pane)
	modeLine := i18n.T("session.mode_suppress")
	modeStyle := successStyle
	if snap.Mode == emulation.ApplyWrites {
		modeLine = i18n.T("session.mode_apply")
		modeStyle = specialStyle
	}
	var statusItems []string
	statusItems = append(statusItems,
		paneTitleStyle.Render(i18n.T("session.title")), "",
		fmt.Sprintf("%s: %s", i18n.T("session.card"), snap.CardUID),
		fmt.Sprintf("%s: %s", i18n.T("session.provider"), snap.Provider),
		fmt.Sprintf("%s: %s", i18n.T("session.mode"), modeStyle.Render(modeLine)),
		fmt.Sprintf("%s: %d (%s %d)", i18n.T("session.balance"), snap.CurrentBalance, i18n.T("session.original"), snap.OriginalBalance),
		fmt.Sprintf(i18n.T("session.counters"), snap.Counters.Auth, snap.Counters.Read, snap.Counters.Write),
		fmt.Sprintf("%s: %d", i18n.T("session.keys_captured"), len(snap.Keys)),
	)
	statusContent := lipgloss.JoinVertical(lipgloss.Left, statusItems...)

	menuWidth := 34
	statusWidth := width - 4 - menuWidth - 2
	if statusWidth < 40 {
		statusWidth = 40
	}
	headerHeight := lipgloss.Height(header)
	paneHeight := height - headerHeight - 3
	if paneHeight < 10 {
		paneHeight = 10
	}

	leftPane := paneStyle.Width(menuWidth).Height(paneHeight).Render(menuContent)
	rightPane := paneStyle.Width(statusWidth).Height(paneHeight).MarginLeft(2).Render(statusContent)
	mainArea := lipgloss.JoinHorizontal(lipgloss.Top, leftPane, rightPane)

	footer := footerStyle.Render(AlignFooter(i18n.T("menu.help"), "", width))

	return lipgloss.JoinVertical(lipgloss.Top, header, mainArea, footer)
}

// Run is the main entrypoint for the TUI. It initializes and runs the Bubble Tea program.
func Run(session *emulation.Session, exportPath string) {
	if _, err := tea.NewProgram(initialModel(session, exportPath), tea.WithAltScreen()).Run(); err != nil {
		logging.Errorf("TUI run error: %v", err)
		os.Exit(1)
	}
}
