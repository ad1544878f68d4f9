package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/lulugyf/sshserv/internal/adminapi"
	"github.com/lulugyf/sshserv/internal/logging"
	"github.com/lulugyf/sshserv/internal/render"
)

// App is built once per process and passed to the subcommand.
type App struct {
	Globals Globals
	Env     Env
	Logger  *slog.Logger

	client *adminapi.Client
}

// NewApp configures logging. The API client is built on first use so
// argument errors surface before any password prompt.
func NewApp(env Env, g Globals) (*App, error) {
	lg, err := logging.New(logging.Options{Level: g.LogLevel, JSON: g.LogJSON, Writer: env.Stderr})
	if err != nil {
		return nil, Usage(err)
	}
	return &App{Globals: g, Env: env, Logger: lg}, nil
}

// Client returns the API client, prompting for the auth password when
// authentication is enabled, none was given, and stdin is a terminal.
func (a *App) Client() (*adminapi.Client, error) {
	if a.client != nil {
		return a.client, nil
	}
	at, err := adminapi.ParseAuthType(a.Globals.AuthType)
	if err != nil {
		return nil, Usage(err)
	}
	cred := adminapi.Credentials{Type: at, User: a.Globals.AuthUser, Password: a.Globals.AuthPassword}
	if at != adminapi.AuthNone && cred.Password == "" && isTerminal(a.Env.Stdin) {
		pw, err := a.promptPassword(fmt.Sprintf("Password for %s", cred.User))
		if err != nil {
			return nil, err
		}
		cred.Password = pw
	}
	c, err := adminapi.NewClient(adminapi.ClientOptions{
		BaseURL:  a.Globals.BaseURL,
		Insecure: a.Globals.Insecure,
		Timeout:  a.Globals.Timeout,
		Auth:     cred,
		Logger:   a.Logger,
	})
	if err != nil {
		return nil, Usage(err)
	}
	a.client = c
	return c, nil
}

// Printer renders exchanges on stdout. Color needs a terminal.
func (a *App) Printer() *render.Printer {
	return &render.Printer{
		Out:    a.Env.Stdout,
		Debug:  a.Globals.Debug,
		Color:  !a.Globals.NoColor && isTerminal(a.Env.Stdout),
		Logger: a.Logger,
	}
}

// Send prints the result of a client call. HTTP error statuses are printed
// like any other response; only transport failures are returned.
func (a *App) Send(ex *adminapi.Exchange, err error) error {
	if err != nil {
		return err
	}
	return a.Printer().Print(ex)
}

// promptPassword reads one password from the terminal without echo.
func (a *App) promptPassword(label string) (string, error) {
	f, ok := a.Env.Stdin.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return "", errors.New("stdin is not a terminal")
	}
	fmt.Fprintf(a.Env.Stderr, "%s: ", label)
	b, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(a.Env.Stderr)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(b), "\r\n"), nil
}

// NewFlagSet returns a subcommand FlagSet that reports errors on stderr.
func (a *App) NewFlagSet(name, synopsis string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(a.Env.Stderr)
	fs.SortFlags = false
	fs.Usage = func() {
		fmt.Fprintf(a.Env.Stderr, "usage: sshservctl [global flags] %s %s\n", name, synopsis)
		fs.PrintDefaults()
	}
	return fs
}

// Parse parses args into fs and checks the positional count.
func Parse(fs *pflag.FlagSet, args []string, positional ...string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return err
		}
		return Usage(err)
	}
	if fs.NArg() != len(positional) {
		fs.Usage()
		if fs.NArg() < len(positional) {
			return Usagef("%s: missing argument %s", fs.Name(), positional[fs.NArg()])
		}
		return Usagef("%s: unexpected argument %q", fs.Name(), fs.Arg(len(positional)))
	}
	return nil
}

// ParseID parses a numeric user id positional argument.
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, Usagef("invalid id %q: must be an integer", s)
	}
	return id, nil
}

// Interactive reports whether both stdin and stdout are terminals.
func (a *App) Interactive() bool {
	return isTerminal(a.Env.Stdin) && isTerminal(a.Env.Stdout)
}
