// Package browse runs the interactive browser.
package browse

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lulugyf/sshserv/internal/adminui"
	"github.com/lulugyf/sshserv/internal/cli"
)

// Run starts the browser in the alternate screen and blocks until it exits.
func Run(ctx context.Context, app *cli.App, args []string) error {
	fs := app.NewFlagSet("browse", "")
	if err := cli.Parse(fs, args); err != nil {
		return err
	}
	if !app.Interactive() {
		return cli.Usagef("browse needs a terminal on stdin and stdout")
	}
	c, err := app.Client()
	if err != nil {
		return err
	}

	p := tea.NewProgram(adminui.New(ctx, c), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
