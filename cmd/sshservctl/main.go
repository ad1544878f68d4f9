// Command sshservctl is a command line client for the sshserv admin API.
// Each subcommand issues one HTTP request and prints the response.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/pflag"

	"github.com/lulugyf/sshserv/internal/cli"
	"github.com/lulugyf/sshserv/internal/cmd/browse"
	"github.com/lulugyf/sshserv/internal/cmd/connections"
	"github.com/lulugyf/sshserv/internal/cmd/quota"
	"github.com/lulugyf/sshserv/internal/cmd/users"
	"github.com/lulugyf/sshserv/internal/cmd/version"
)

// main is the process entry point and forwards to run for testable logic.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, cli.DefaultEnv(), os.Args)
	stop()
	os.Exit(code)
}

type handler func(ctx context.Context, app *cli.App, args []string) error

var handlers = map[string]handler{
	"add-user":            users.Add,
	"update-user":         users.Update,
	"delete-user":         users.Delete,
	"update-user-by-name": users.UpdateByName,
	"delete-user-by-name": users.DeleteByName,
	"get-users":           users.List,
	"get-user-by-id":      users.Get,
	"get-connections":     connections.List,
	"close-connection":    connections.Close,
	"get-quota-scans":     quota.List,
	"start-quota-scan":    quota.Start,
	"get-version":         version.Run,
	"browse":              browse.Run,
}

// run parses argv, invokes the matching subcommand and returns the exit
// status: 0 on success or help, 2 on usage errors, 1 otherwise.
func run(ctx context.Context, env cli.Env, argv []string) int {
	g, rest, err := cli.ParseGlobals(env, argv[1:])
	if err != nil {
		return exitCode(env, err)
	}

	name := rest[0]
	if name == "help" {
		cli.PrintUsage(env.Stderr, nil)
		return 0
	}
	h, ok := handlers[name]
	if !ok {
		cli.PrintUsage(env.Stderr, nil)
		return exitCode(env, cli.Usagef("unknown subcommand: %s", name))
	}

	app, err := cli.NewApp(env, g)
	if err != nil {
		return exitCode(env, err)
	}
	if err := h(ctx, app, rest[1:]); err != nil {
		if !errors.Is(err, pflag.ErrHelp) {
			app.Logger.Debug("command failed", "command", name, "err", err)
		}
		return exitCode(env, err)
	}
	return 0
}

func exitCode(env cli.Env, err error) int {
	switch {
	case errors.Is(err, pflag.ErrHelp):
		return 0
	case errors.Is(err, cli.ErrUsage):
		fmt.Fprintln(env.Stderr, "error:", err)
		return 2
	default:
		fmt.Fprintln(env.Stderr, "error:", err)
		return 1
	}
}
