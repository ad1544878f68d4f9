// Package users implements the user management subcommands:
// add-user, update-user, delete-user, get-users and get-user-by-id.
package users

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/pflag"

	"github.com/lulugyf/sshserv/internal/adminapi"
	"github.com/lulugyf/sshserv/internal/cli"
	"github.com/lulugyf/sshserv/internal/validate"
)

// Options captures the user record flags shared by add-user and update-user.
type Options struct {
	Username          string   `flag:"username" validate:"required,username"`
	Password          string   `flag:"--password"`
	PublicKeys        []string `flag:"--public-keys" validate:"dive,authorized_key"`
	HomeDir           string   `flag:"--home-dir" validate:"abspath"`
	UID               int      `flag:"--uid" validate:"gte=0"`
	GID               int      `flag:"--gid" validate:"gte=0"`
	MaxSessions       int      `flag:"--max-sessions" validate:"gte=0"`
	QuotaSize         int64    `flag:"--quota-size" validate:"gte=0"`
	QuotaFiles        int      `flag:"--quota-files" validate:"gte=0"`
	Permissions       []string `flag:"--permissions" validate:"dive,oneof=* list download upload delete rename create_dirs create_symlinks"`
	UploadBandwidth   int64    `flag:"--upload-bandwidth" validate:"gte=0"`
	DownloadBandwidth int64    `flag:"--download-bandwidth" validate:"gte=0"`
}

// ListOptions captures get-users flags.
type ListOptions struct {
	Limit    int    `flag:"--limit" validate:"min=1,max=500"`
	Offset   int    `flag:"--offset" validate:"gte=0"`
	Username string `flag:"--username"`
	Order    string `flag:"--order" validate:"oneof=ASC DESC"`
}

func bindUserFlags(fs *pflag.FlagSet, o *Options) {
	fs.StringVarP(&o.Password, "password", "P", "", "user password")
	fs.StringArrayVarP(&o.PublicKeys, "public-keys", "K", nil, "authorized public key, repeat for more")
	fs.StringVarP(&o.HomeDir, "home-dir", "H", "", "absolute home directory")
	fs.IntVar(&o.UID, "uid", 0, "system uid, 0 means unset")
	fs.IntVar(&o.GID, "gid", 0, "system gid, 0 means unset")
	fs.IntVarP(&o.MaxSessions, "max-sessions", "C", 0, "maximum concurrent sessions, 0 means unlimited")
	fs.Int64VarP(&o.QuotaSize, "quota-size", "S", 0, "maximum size allowed as bytes, 0 means unlimited")
	fs.IntVarP(&o.QuotaFiles, "quota-files", "F", 0, "maximum number of files, 0 means unlimited")
	fs.StringSliceVarP(&o.Permissions, "permissions", "G", nil, "permissions: * list download upload delete rename create_dirs create_symlinks")
	fs.Int64VarP(&o.UploadBandwidth, "upload-bandwidth", "U", 0, "maximum upload bandwidth as KB/s, 0 means unlimited")
	fs.Int64VarP(&o.DownloadBandwidth, "download-bandwidth", "D", 0, "maximum download bandwidth as KB/s, 0 means unlimited")
}

// numericFlags are sent on update only when set on the command line.
var numericFlags = []string{"uid", "gid", "max-sessions", "quota-size", "quota-files", "upload-bandwidth", "download-bandwidth"}

// User builds the request payload. With sparse set, numeric fields are
// included only when changed reports them as given on the command line;
// otherwise they are always sent. Empty strings and lists are never sent.
func (o Options) User(sparse bool, changed func(flag string) bool) adminapi.User {
	u := adminapi.User{
		Username:    o.Username,
		Password:    adminapi.NonEmpty(o.Password),
		PublicKeys:  adminapi.NonEmptyList(o.PublicKeys),
		HomeDir:     adminapi.NonEmpty(o.HomeDir),
		Permissions: adminapi.NonEmptyList(o.Permissions),
	}
	want := func(name string) bool { return !sparse || changed(name) }
	if want("uid") {
		u.UID = adminapi.Some(o.UID)
	}
	if want("gid") {
		u.GID = adminapi.Some(o.GID)
	}
	if want("max-sessions") {
		u.MaxSessions = adminapi.Some(o.MaxSessions)
	}
	if want("quota-size") {
		u.QuotaSize = adminapi.Some(o.QuotaSize)
	}
	if want("quota-files") {
		u.QuotaFiles = adminapi.Some(o.QuotaFiles)
	}
	if want("upload-bandwidth") {
		u.UploadBandwidth = adminapi.Some(o.UploadBandwidth)
	}
	if want("download-bandwidth") {
		u.DownloadBandwidth = adminapi.Some(o.DownloadBandwidth)
	}
	return u
}

// overlay copies every field set in patch onto base. The id and the
// username of base are kept.
func overlay(base, patch adminapi.User) adminapi.User {
	out := base
	setStr := func(dst *adminapi.Optional[string], src adminapi.Optional[string]) {
		if v, ok := src.Get(); ok {
			*dst = adminapi.Some(v)
		}
	}
	setList := func(dst *adminapi.Optional[[]string], src adminapi.Optional[[]string]) {
		if v, ok := src.Get(); ok {
			*dst = adminapi.Some(v)
		}
	}
	setInt := func(dst *adminapi.Optional[int], src adminapi.Optional[int]) {
		if v, ok := src.Get(); ok {
			*dst = adminapi.Some(v)
		}
	}
	setInt64 := func(dst *adminapi.Optional[int64], src adminapi.Optional[int64]) {
		if v, ok := src.Get(); ok {
			*dst = adminapi.Some(v)
		}
	}
	setStr(&out.Password, patch.Password)
	setList(&out.PublicKeys, patch.PublicKeys)
	setStr(&out.HomeDir, patch.HomeDir)
	setInt(&out.UID, patch.UID)
	setInt(&out.GID, patch.GID)
	setInt(&out.MaxSessions, patch.MaxSessions)
	setInt64(&out.QuotaSize, patch.QuotaSize)
	setInt(&out.QuotaFiles, patch.QuotaFiles)
	setList(&out.Permissions, patch.Permissions)
	setInt64(&out.UploadBandwidth, patch.UploadBandwidth)
	setInt64(&out.DownloadBandwidth, patch.DownloadBandwidth)
	return out
}

func trimAll(l []string) []string {
	out := l[:0]
	for _, s := range l {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Add runs "add-user".
func Add(ctx context.Context, app *cli.App, args []string) error {
	fs := app.NewFlagSet("add-user", "<username> [flags]")
	var o Options
	bindUserFlags(fs, &o)
	if err := cli.Parse(fs, args, "username"); err != nil {
		return err
	}
	o.Username = fs.Arg(0)
	o.PublicKeys = trimAll(o.PublicKeys)
	o.Permissions = trimAll(o.Permissions)
	if err := validate.Struct(o); err != nil {
		return cli.Usage(err)
	}

	c, err := app.Client()
	if err != nil {
		return err
	}
	return app.Send(c.AddUser(ctx, o.User(false, fs.Changed)))
}

// Update runs "update-user".
func Update(ctx context.Context, app *cli.App, args []string) error {
	fs := app.NewFlagSet("update-user", "<id> <username> [flags]")
	var o Options
	bindUserFlags(fs, &o)
	if err := cli.Parse(fs, args, "id", "username"); err != nil {
		return err
	}
	id, err := cli.ParseID(fs.Arg(0))
	if err != nil {
		return err
	}
	o.Username = fs.Arg(1)
	o.PublicKeys = trimAll(o.PublicKeys)
	o.Permissions = trimAll(o.Permissions)
	if err := validate.Struct(o); err != nil {
		return cli.Usage(err)
	}

	var omitted []string
	for _, name := range numericFlags {
		if !fs.Changed(name) {
			omitted = append(omitted, name)
		}
	}
	if len(omitted) > 0 {
		app.Logger.Debug("update-user leaves unset fields out of the payload", "omitted", omitted)
	}

	c, err := app.Client()
	if err != nil {
		return err
	}
	return app.Send(c.UpdateUser(ctx, id, o.User(true, fs.Changed)))
}

// Delete runs "delete-user".
func Delete(ctx context.Context, app *cli.App, args []string) error {
	fs := app.NewFlagSet("delete-user", "<id>")
	if err := cli.Parse(fs, args, "id"); err != nil {
		return err
	}
	id, err := cli.ParseID(fs.Arg(0))
	if err != nil {
		return err
	}
	c, err := app.Client()
	if err != nil {
		return err
	}
	return app.Send(c.DeleteUser(ctx, id))
}

// List runs "get-users".
func List(ctx context.Context, app *cli.App, args []string) error {
	fs := app.NewFlagSet("get-users", "[flags]")
	var o ListOptions
	fs.IntVarP(&o.Limit, "limit", "L", 100, "maximum number of users, 1 to 500")
	fs.IntVarP(&o.Offset, "offset", "O", 0, "number of users to skip")
	fs.StringVarP(&o.Username, "username", "U", "", "return only this username")
	fs.StringVarP(&o.Order, "order", "S", "ASC", "sort order by username: ASC|DESC")
	if err := cli.Parse(fs, args); err != nil {
		return err
	}
	if err := validate.Struct(o); err != nil {
		return cli.Usage(err)
	}

	c, err := app.Client()
	if err != nil {
		return err
	}
	return app.Send(c.GetUsers(ctx, adminapi.ListUsersParams{
		Limit:    o.Limit,
		Offset:   o.Offset,
		Order:    o.Order,
		Username: o.Username,
	}))
}

// Get runs "get-user-by-id".
func Get(ctx context.Context, app *cli.App, args []string) error {
	fs := app.NewFlagSet("get-user-by-id", "<id>")
	if err := cli.Parse(fs, args, "id"); err != nil {
		return err
	}
	id, err := cli.ParseID(fs.Arg(0))
	if err != nil {
		return err
	}
	c, err := app.Client()
	if err != nil {
		return err
	}
	return app.Send(c.GetUserByID(ctx, id))
}

// lookup resolves username to its record. When the server rejects the
// query the lookup response is printed and handled is true.
func lookup(ctx context.Context, app *cli.App, c *adminapi.Client, username string) (u adminapi.User, handled bool, err error) {
	u, ex, err := c.FindUser(ctx, username)
	var se *adminapi.StatusError
	if errors.As(err, &se) {
		return u, true, app.Send(ex, nil)
	}
	return u, false, err
}

// DeleteByName runs "delete-user-by-name": it resolves the id through the
// list endpoint, then deletes that user.
func DeleteByName(ctx context.Context, app *cli.App, args []string) error {
	fs := app.NewFlagSet("delete-user-by-name", "<username>")
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
	u, handled, err := lookup(ctx, app, c, username)
	if handled || err != nil {
		return err
	}
	app.Logger.Debug("resolved user", "username", username, "id", u.ID)
	return app.Send(c.DeleteUser(ctx, u.ID))
}

// UpdateByName runs "update-user-by-name": it fetches the current record,
// applies the flags given on the command line and sends the merged record.
func UpdateByName(ctx context.Context, app *cli.App, args []string) error {
	fs := app.NewFlagSet("update-user-by-name", "<username> [flags]")
	var o Options
	bindUserFlags(fs, &o)
	if err := cli.Parse(fs, args, "username"); err != nil {
		return err
	}
	o.Username = fs.Arg(0)
	o.PublicKeys = trimAll(o.PublicKeys)
	o.Permissions = trimAll(o.Permissions)
	if err := validate.Struct(o); err != nil {
		return cli.Usage(err)
	}

	c, err := app.Client()
	if err != nil {
		return err
	}
	u, handled, err := lookup(ctx, app, c, o.Username)
	if handled || err != nil {
		return err
	}
	app.Logger.Debug("resolved user", "username", o.Username, "id", u.ID)
	return app.Send(c.UpdateUser(ctx, u.ID, overlay(u, o.User(true, fs.Changed))))
}
