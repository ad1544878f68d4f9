// Package cli holds the pieces shared by every subcommand: global flags,
// the optional profile, the lazily built API client and the output printer.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/lulugyf/sshserv/internal/config"
)

// Globals are the flags accepted before the subcommand name.
type Globals struct {
	BaseURL      string
	AuthType     string
	AuthUser     string
	AuthPassword string
	Debug        bool
	Insecure     bool
	NoColor      bool
	ConfigPath   string
	Timeout      time.Duration
	LogLevel     string
	LogJSON      bool
}

// Env is the process environment a command runs in.
type Env struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Fs     afero.Fs
}

// DefaultEnv binds the real standard streams and filesystem.
func DefaultEnv() Env {
	return Env{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr, Fs: afero.NewOsFs()}
}

// isTerminal reports whether v is a file attached to a terminal.
func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// ParseGlobals consumes global flags up to the first positional argument,
// merges the profile named by --config, and returns the remaining args
// starting with the subcommand. pflag.ErrHelp is returned unwrapped.
func ParseGlobals(env Env, args []string) (Globals, []string, error) {
	def := config.Default()
	var g Globals
	fs := pflag.NewFlagSet("sshservctl", pflag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	fs.SetInterspersed(false)
	fs.SortFlags = false
	fs.StringVarP(&g.BaseURL, "base-url", "b", def.BaseURL, "base URL for the REST API")
	fs.StringVarP(&g.AuthType, "auth-type", "a", "", "HTTP authentication type: basic|digest")
	fs.StringVarP(&g.AuthUser, "auth-user", "u", "", "user for HTTP authentication")
	fs.StringVarP(&g.AuthPassword, "auth-password", "p", "", "password for HTTP authentication (prompted when empty)")
	fs.BoolVarP(&g.Debug, "debug", "d", false, "print the request and response status before the body")
	fs.BoolVarP(&g.Insecure, "insecure", "i", false, "skip TLS certificate verification")
	fs.BoolVarP(&g.NoColor, "no-color", "t", false, "disable color highlight for JSON responses")
	fs.StringVarP(&g.ConfigPath, "config", "c", "", "YAML profile with defaults for the flags above")
	fs.DurationVar(&g.Timeout, "timeout", 0, "request timeout, 0 waits forever")
	fs.StringVar(&g.LogLevel, "log-level", def.Log.Level, "diagnostic log level: debug|info|warn|error|off")
	fs.Usage = func() { PrintUsage(env.Stderr, fs) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return g, nil, err
		}
		return g, nil, Usage(err)
	}
	if g.ConfigPath != "" {
		c, err := config.Load(env.Fs, g.ConfigPath)
		if err != nil {
			return g, nil, Usage(fmt.Errorf("config: %w", err))
		}
		if err := mergeProfile(&g, fs, c); err != nil {
			return g, nil, Usage(err)
		}
	}
	if g.Timeout < 0 {
		return g, nil, Usagef("--timeout must not be negative")
	}
	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return g, nil, Usagef("missing subcommand")
	}
	return g, rest, nil
}

// mergeProfile copies profile values into flags the user did not set.
func mergeProfile(g *Globals, fs *pflag.FlagSet, c config.Config) error {
	set := func(name string) bool { return fs.Changed(name) }
	if !set("base-url") {
		g.BaseURL = c.BaseURL
	}
	if !set("auth-type") {
		g.AuthType = c.Auth.Type
	}
	if !set("auth-user") {
		g.AuthUser = c.Auth.User
	}
	if !set("auth-password") {
		g.AuthPassword = c.Auth.Password
	}
	if !set("insecure") {
		g.Insecure = c.Insecure
	}
	if !set("no-color") {
		g.NoColor = c.NoColor
	}
	if !set("log-level") {
		g.LogLevel = c.Log.Level
	}
	g.LogJSON = c.Log.JSON
	if !set("timeout") {
		d, err := c.TimeoutDuration()
		if err != nil {
			return err
		}
		g.Timeout = d
	}
	return nil
}

// PrintUsage writes the top-level help text.
func PrintUsage(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprintln(w, "usage: sshservctl [global flags] <command> [command flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	for _, c := range Commands {
		fmt.Fprintf(w, "  %-20s %s\n", c.Name, c.Help)
	}
	if fs != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "global flags:")
		fs.PrintDefaults()
	}
}

// Command describes a subcommand for help output.
type Command struct {
	Name string
	Help string
}

// Commands lists the subcommands in help order.
var Commands = []Command{
	{"add-user", "Add a new SFTP user"},
	{"update-user", "Update an existing user"},
	{"delete-user", "Delete an existing user"},
	{"update-user-by-name", "Update a user found by username, keeping fields not given"},
	{"delete-user-by-name", "Delete a user found by username"},
	{"get-users", "Returns an array with one or more SFTP users"},
	{"get-user-by-id", "Find user by ID"},
	{"get-connections", "Get the active users and info about their uploads/downloads"},
	{"close-connection", "Terminate an active SFTP/SCP connection"},
	{"get-quota-scans", "Get the active quota scans"},
	{"start-quota-scan", "Start a new quota scan"},
	{"get-version", "Get version details"},
	{"browse", "Interactive browser for users, connections and quota scans"},
}
