// Package connections implements get-connections and close-connection.
package connections

import (
	"context"
	"strings"

	"github.com/lulugyf/sshserv/internal/adminapi"
	"github.com/lulugyf/sshserv/internal/cli"
)

// List runs "get-connections".
func List(ctx context.Context, app *cli.App, args []string) error {
	fs := app.NewFlagSet("get-connections", "")
	if err := cli.Parse(fs, args); err != nil {
		return err
	}
	c, err := app.Client()
	if err != nil {
		return err
	}
	return app.Send(c.GetConnections(ctx))
}

// Close runs "close-connection".
func Close(ctx context.Context, app *cli.App, args []string) error {
	fs := app.NewFlagSet("close-connection", "<connectionID>")
	if err := cli.Parse(fs, args, "connectionID"); err != nil {
		return err
	}
	id := strings.TrimSpace(fs.Arg(0))
	if err := adminapi.CheckConnectionID(id); err != nil {
		return cli.Usage(err)
	}
	c, err := app.Client()
	if err != nil {
		return err
	}
	return app.Send(c.CloseConnection(ctx, id))
}
