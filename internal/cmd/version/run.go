// Package version implements the "get-version" subcommand.
package version

import (
	"context"

	"github.com/lulugyf/sshserv/internal/cli"
)

// Run asks the server for its build details.
func Run(ctx context.Context, app *cli.App, args []string) error {
	fs := app.NewFlagSet("get-version", "")
	if err := cli.Parse(fs, args); err != nil {
		return err
	}
	c, err := app.Client()
	if err != nil {
		return err
	}
	return app.Send(c.GetVersion(ctx))
}
