// Package quota implements get-quota-scans and start-quota-scan.
package quota

import (
	"context"

	"github.com/lulugyf/sshserv/internal/cli"
	"github.com/lulugyf/sshserv/internal/validate"
)

// List runs "get-quota-scans".
func List(ctx context.Context, app *cli.App, args []string) error {
	fs := app.NewFlagSet("get-quota-scans", "")
	if err := cli.Parse(fs, args); err != nil {
		return err
	}
	c, err := app.Client()
	if err != nil {
		return err
	}
	return app.Send(c.GetQuotaScans(ctx))
}

// Start runs "start-quota-scan". The scan itself runs server-side; the
// response only says whether it was accepted.
func Start(ctx context.Context, app *cli.App, args []string) error {
	fs := app.NewFlagSet("start-quota-scan", "<username>")
	if err := cli.Parse(fs, args, "username"); err != nil {
		return err
	}
	username := fs.Arg(0)
	if err := validate.Username(username); err != nil {
		return cli.Usage(err)
	}
	c, err := app.Client()
	if err != nil {
		return err
	}
	return app.Send(c.StartQuotaScan(ctx, username))
}
