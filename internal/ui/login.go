package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/epg-sync/epgctl/internal/session"
)

func (m *Model) handleLoginKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyTab, tea.KeyDown, tea.KeyShiftTab, tea.KeyUp:
		return m, m.focusLoginField(1 - m.loginFocus)
	case tea.KeyEnter:
		if m.loginFocus == 0 {
			return m, m.focusLoginField(1)
		}
		return m, m.submitLogin()
	}

	var cmd tea.Cmd
	if m.loginFocus == 0 {
		m.username, cmd = m.username.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m *Model) focusLoginField(i int) tea.Cmd {
	m.loginFocus = i
	if i == 0 {
		m.password.Blur()
		return m.username.Focus()
	}
	m.username.Blur()
	return m.password.Focus()
}

// submitLogin validates the form and starts the login request.
//
// Empty fields are rejected without a network call; a second submit while one is pending is ignored.
func (m *Model) submitLogin() tea.Cmd {
	if m.loggingIn {
		return nil
	}

	username := strings.TrimSpace(m.username.Value())
	password := m.password.Value()
	if err := session.ValidateCredentials(username, password); err != nil {
		m.loginErr = "Please enter both username and password"
		return nil
	}

	m.loggingIn = true
	m.loginErr = ""
	return func() tea.Msg {
		return loginMsg{err: m.deps.Session.Login(m.ctx, username, password)}
	}
}

func (m *Model) renderLogin() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("EPG Admin Console"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Username\n%s\n\nPassword\n%s\n", m.username.View(), m.password.View()))

	switch {
	case m.loggingIn:
		b.WriteString("\n" + m.spinner.View() + " Signing in...\n")
	case m.loginErr != "":
		b.WriteString("\n" + styles.err.Render(m.loginErr) + "\n")
	}

	if n, ok := m.toasts.Last(); ok && n.Title == "Signed out" {
		b.WriteString("\n" + styles.ok.Render(n.Title) + "\n")
	}

	quit := key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit"))
	b.WriteString("\n" + m.help.ShortHelpView([]key.Binding{m.keys.submit, quit}))
	return b.String()
}
