// Package adminui implements the interactive browser using Bubble Tea.
// Every action maps to one API call through the shared client.
package adminui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lulugyf/sshserv/internal/adminapi"
	"github.com/lulugyf/sshserv/internal/validate"
)

// state represents the current screen.
type state int

const (
	stateUsers state = iota
	stateNewUser
	stateConnections
	stateScans
)

// pageSize is how many users one refresh fetches.
const pageSize = 500

// Model holds all UI state for the browser.
type Model struct {
	ctx    context.Context
	client *adminapi.Client
	addr   string

	st      state
	err     string
	note    string
	version string

	users   []adminapi.User
	userLst list.Model

	newUsername textinput.Model
	newPassword textinput.Model
	newHome     textinput.Model
	newPerms    textinput.Model
	newKey      textinput.Model

	conns   []adminapi.Connection
	connLst list.Model

	scans   []adminapi.QuotaScan
	scanLst list.Model
}

// New constructs a UI model and initializes inputs and lists.
func New(ctx context.Context, client *adminapi.Client) Model {
	userLst := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	userLst.Title = "Users"
	connLst := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	connLst.Title = "Active connections"
	scanLst := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	scanLst.Title = "Quota scans"

	m := Model{
		ctx:     ctx,
		client:  client,
		addr:    client.BaseURL(),
		st:      stateUsers,
		userLst: userLst,
		connLst: connLst,
		scanLst: scanLst,
	}

	m.newUsername = newInput("Username: ", "username")
	m.newPassword = newInput("Password: ", "password")
	m.newPassword.EchoMode = textinput.EchoPassword
	m.newHome = newInput("Home dir: ", "/absolute/path")
	m.newPerms = newInput("Permissions: ", "* or list,download,upload")
	m.newKey = newInput("Public key: ", "ssh-ed25519 AAAA... (optional)")
	return m
}

func newInput(prompt, placeholder string) textinput.Model {
	ti := textinput.New()
	ti.Prompt = prompt
	ti.Placeholder = placeholder
	return ti
}

// Init loads the server version and the first page of users.
func (m Model) Init() tea.Cmd {
	return tea.Batch(versionCmd(m.ctx, m.client), refreshUsersCmd(m.ctx, m.client))
}

type errMsg string
type noteMsg string
type usersMsg []adminapi.User
type connsMsg []adminapi.Connection
type scansMsg []adminapi.QuotaScan
type versionMsg adminapi.VersionInfo

// Update routes messages based on UI state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.userLst.SetSize(msg.Width-4, msg.Height-8)
		m.connLst.SetSize(msg.Width-4, msg.Height-8)
		m.scanLst.SetSize(msg.Width-4, msg.Height-8)
		return m, nil
	case errMsg:
		m.err = string(msg)
		return m, nil
	case noteMsg:
		m.err = ""
		m.note = string(msg)
		return m, nil
	case versionMsg:
		m.version = msg.Version
		return m, nil
	case usersMsg:
		m.users = []adminapi.User(msg)
		items := make([]list.Item, 0, len(m.users))
		for _, u := range m.users {
			items = append(items, userItem(u))
		}
		m.userLst.SetItems(items)
		m.err = ""
		return m, nil
	case connsMsg:
		m.conns = []adminapi.Connection(msg)
		items := make([]list.Item, 0, len(m.conns))
		for _, c := range m.conns {
			items = append(items, connItem(c))
		}
		m.connLst.SetItems(items)
		m.err = ""
		return m, nil
	case scansMsg:
		m.scans = []adminapi.QuotaScan(msg)
		items := make([]list.Item, 0, len(m.scans))
		for _, s := range m.scans {
			items = append(items, scanItem(s))
		}
		m.scanLst.SetItems(items)
		m.err = ""
		return m, nil
	}

	switch m.st {
	case stateUsers:
		return m.updateUsers(msg)
	case stateNewUser:
		return m.updateNewUser(msg)
	case stateConnections:
		return m.updateConnections(msg)
	case stateScans:
		return m.updateScans(msg)
	default:
		return m, nil
	}
}

// View renders the current screen as a string.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString("sshserv admin")
	if m.addr != "" {
		b.WriteString(" (" + m.addr + ")")
	}
	if m.version != "" {
		b.WriteString(" server " + m.version)
	}
	b.WriteString("\n\n")

	switch m.st {
	case stateUsers:
		b.WriteString(m.userLst.View())
		b.WriteString("\n")
		b.WriteString("Keys: n=new d=delete s=quota-scan r=refresh c=connections a=scans q=quit\n")
	case stateNewUser:
		b.WriteString("Create user\n\n")
		b.WriteString(m.newUsername.View() + "\n")
		b.WriteString(m.newPassword.View() + "\n")
		b.WriteString(m.newHome.View() + "\n")
		b.WriteString(m.newPerms.View() + "\n")
		b.WriteString(m.newKey.View() + "\n\n")
		b.WriteString("tab=next field  enter=save  esc=back\n")
	case stateConnections:
		b.WriteString(m.connLst.View())
		b.WriteString("\n")
		b.WriteString("Keys: x=close r=refresh esc=users q=quit\n")
	case stateScans:
		b.WriteString(m.scanLst.View())
		b.WriteString("\n")
		b.WriteString("Keys: r=refresh esc=users q=quit\n")
	}

	if m.note != "" {
		b.WriteString("\n" + m.note + "\n")
	}
	if m.err != "" {
		b.WriteString("\nError: " + m.err + "\n")
	}
	return b.String()
}

type userItem adminapi.User

func (u userItem) Title() string { return fmt.Sprintf("%s (#%d)", u.Username, u.ID) }
func (u userItem) Description() string {
	return fmt.Sprintf(
		"home=%s quota=%s files=%s perms=%s",
		u.HomeDir.Value(),
		usage(u.UsedQuotaSize.Value(), u.QuotaSize.Value()),
		usage(int64(u.UsedQuotaFiles.Value()), int64(u.QuotaFiles.Value())),
		strings.Join(u.Permissions.Value(), ","),
	)
}
func (u userItem) FilterValue() string { return u.Username }

type connItem adminapi.Connection

func (c connItem) Title() string { return c.Username + " " + c.Protocol + " " + c.RemoteAddress }
func (c connItem) Description() string {
	return fmt.Sprintf("id=%s since=%s transfers=%d", c.ID, since(c.ConnectionTime), len(c.ActiveTransfers))
}
func (c connItem) FilterValue() string { return c.Username }

type scanItem adminapi.QuotaScan

func (s scanItem) Title() string       { return s.Username }
func (s scanItem) Description() string { return "running " + since(s.StartTime) }
func (s scanItem) FilterValue() string { return s.Username }

// usage formats used/limit where a zero limit means unlimited.
func usage(used, limit int64) string {
	if limit <= 0 {
		return fmt.Sprintf("%d/unlimited", used)
	}
	return fmt.Sprintf("%d/%d", used, limit)
}

func since(ms int64) string {
	t := adminapi.Millis(ms)
	if t.IsZero() {
		return "-"
	}
	return time.Since(t).Truncate(time.Second).String()
}

// selectedUser returns the currently highlighted user list entry.
func (m *Model) selectedUser() (adminapi.User, bool) {
	if it, ok := m.userLst.SelectedItem().(userItem); ok {
		return adminapi.User(it), true
	}
	return adminapi.User{}, false
}

func (m *Model) selectedConn() (adminapi.Connection, bool) {
	if it, ok := m.connLst.SelectedItem().(connItem); ok {
		return adminapi.Connection(it), true
	}
	return adminapi.Connection{}, false
}

func versionCmd(ctx context.Context, c *adminapi.Client) tea.Cmd {
	return func() tea.Msg {
		v, err := adminapi.Decode[adminapi.VersionInfo](c.GetVersion(ctx))
		if err != nil {
			return errMsg(err.Error())
		}
		return versionMsg(v)
	}
}

func refreshUsersCmd(ctx context.Context, c *adminapi.Client) tea.Cmd {
	return func() tea.Msg {
		users, err := adminapi.Decode[[]adminapi.User](c.GetUsers(ctx, adminapi.ListUsersParams{Limit: pageSize, Order: "ASC"}))
		if err != nil {
			return errMsg(err.Error())
		}
		return usersMsg(users)
	}
}

func refreshConnsCmd(ctx context.Context, c *adminapi.Client) tea.Cmd {
	return func() tea.Msg {
		conns, err := adminapi.Decode[[]adminapi.Connection](c.GetConnections(ctx))
		if err != nil {
			return errMsg(err.Error())
		}
		return connsMsg(conns)
	}
}

func refreshScansCmd(ctx context.Context, c *adminapi.Client) tea.Cmd {
	return func() tea.Msg {
		scans, err := adminapi.Decode[[]adminapi.QuotaScan](c.GetQuotaScans(ctx))
		if err != nil {
			return errMsg(err.Error())
		}
		return scansMsg(scans)
	}
}

func addUserCmd(ctx context.Context, c *adminapi.Client, u adminapi.User) tea.Cmd {
	return func() tea.Msg {
		created, err := adminapi.Decode[adminapi.User](c.AddUser(ctx, u))
		if err != nil {
			return errMsg(err.Error())
		}
		return noteMsg(fmt.Sprintf("created user %s (#%d)", created.Username, created.ID))
	}
}

func deleteUserCmd(ctx context.Context, c *adminapi.Client, u adminapi.User) tea.Cmd {
	return func() tea.Msg {
		if err := adminapi.Check(c.DeleteUser(ctx, u.ID)); err != nil {
			return errMsg(err.Error())
		}
		return noteMsg("deleted user " + u.Username)
	}
}

func startScanCmd(ctx context.Context, c *adminapi.Client, username string) tea.Cmd {
	return func() tea.Msg {
		if err := adminapi.Check(c.StartQuotaScan(ctx, username)); err != nil {
			return errMsg(err.Error())
		}
		return noteMsg("quota scan started for " + username)
	}
}

func closeConnCmd(ctx context.Context, c *adminapi.Client, id string) tea.Cmd {
	return func() tea.Msg {
		if err := adminapi.Check(c.CloseConnection(ctx, id)); err != nil {
			return errMsg(err.Error())
		}
		return noteMsg("closed connection " + id)
	}
}

// updateUsers handles input on the user list.
func (m Model) updateUsers(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && !m.userLst.SettingFilter() {
		switch k.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			return m, refreshUsersCmd(m.ctx, m.client)
		case "n":
			m.st = stateNewUser
			m.err, m.note = "", ""
			for _, ti := range []*textinput.Model{&m.newUsername, &m.newPassword, &m.newHome, &m.newPerms, &m.newKey} {
				ti.SetValue("")
				ti.Blur()
			}
			m.newHome.SetValue("/")
			m.newPerms.SetValue(adminapi.PermAny)
			m.newUsername.Focus()
			return m, nil
		case "d":
			u, ok := m.selectedUser()
			if !ok {
				return m, nil
			}
			return m, tea.Sequence(deleteUserCmd(m.ctx, m.client, u), refreshUsersCmd(m.ctx, m.client))
		case "s":
			u, ok := m.selectedUser()
			if !ok {
				return m, nil
			}
			return m, startScanCmd(m.ctx, m.client, u.Username)
		case "c":
			m.st = stateConnections
			m.err, m.note = "", ""
			return m, refreshConnsCmd(m.ctx, m.client)
		case "a":
			m.st = stateScans
			m.err, m.note = "", ""
			return m, refreshScansCmd(m.ctx, m.client)
		}
	}
	var cmd tea.Cmd
	m.userLst, cmd = m.userLst.Update(msg)
	return m, cmd
}

// formUser builds the payload from the new-user form.
func (m Model) formUser() (adminapi.User, error) {
	username := strings.TrimSpace(m.newUsername.Value())
	if err := validate.Username(username); err != nil {
		return adminapi.User{}, err
	}
	home := strings.TrimSpace(m.newHome.Value())
	if home != "" && !strings.HasPrefix(home, "/") {
		return adminapi.User{}, fmt.Errorf("home dir must be an absolute path")
	}
	var perms []string
	for _, p := range strings.FieldsFunc(m.newPerms.Value(), func(r rune) bool { return r == ',' || r == ' ' }) {
		if !validPermission(p) {
			return adminapi.User{}, fmt.Errorf("unknown permission %q", p)
		}
		perms = append(perms, p)
	}
	var keys []string
	if key := strings.TrimSpace(m.newKey.Value()); key != "" {
		if _, err := validate.Fingerprint(key); err != nil {
			return adminapi.User{}, fmt.Errorf("invalid public key: %w", err)
		}
		keys = append(keys, key)
	}
	return adminapi.User{
		Username:          username,
		Password:          adminapi.NonEmpty(m.newPassword.Value()),
		PublicKeys:        adminapi.NonEmptyList(keys),
		HomeDir:           adminapi.NonEmpty(home),
		UID:               adminapi.Some(0),
		GID:               adminapi.Some(0),
		MaxSessions:       adminapi.Some(0),
		QuotaSize:         adminapi.Some(int64(0)),
		QuotaFiles:        adminapi.Some(0),
		Permissions:       adminapi.NonEmptyList(perms),
		UploadBandwidth:   adminapi.Some(int64(0)),
		DownloadBandwidth: adminapi.Some(int64(0)),
	}, nil
}

func validPermission(p string) bool {
	for _, v := range adminapi.Permissions {
		if p == v {
			return true
		}
	}
	return false
}

// updateNewUser handles input while creating a new user.
func (m Model) updateNewUser(msg tea.Msg) (tea.Model, tea.Cmd) {
	inputs := []*textinput.Model{&m.newUsername, &m.newPassword, &m.newHome, &m.newPerms, &m.newKey}
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "esc":
			m.st = stateUsers
			return m, nil
		case "tab", "shift+tab":
			cur := 0
			for i, ti := range inputs {
				if ti.Focused() {
					cur = i
				}
				ti.Blur()
			}
			step := 1
			if k.String() == "shift+tab" {
				step = len(inputs) - 1
			}
			inputs[(cur+step)%len(inputs)].Focus()
			return m, nil
		case "enter":
			u, err := m.formUser()
			if err != nil {
				m.err = err.Error()
				return m, nil
			}
			m.st = stateUsers
			m.err = ""
			return m, tea.Sequence(addUserCmd(m.ctx, m.client, u), refreshUsersCmd(m.ctx, m.client))
		}
	}
	var cmd tea.Cmd
	for _, ti := range inputs {
		if ti.Focused() {
			*ti, cmd = ti.Update(msg)
			break
		}
	}
	return m, cmd
}

// updateConnections handles input on the connection list.
func (m Model) updateConnections(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && !m.connLst.SettingFilter() {
		switch k.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "esc":
			m.st = stateUsers
			return m, refreshUsersCmd(m.ctx, m.client)
		case "r":
			return m, refreshConnsCmd(m.ctx, m.client)
		case "x":
			c, ok := m.selectedConn()
			if !ok {
				return m, nil
			}
			return m, tea.Sequence(closeConnCmd(m.ctx, m.client, c.ID), refreshConnsCmd(m.ctx, m.client))
		}
	}
	var cmd tea.Cmd
	m.connLst, cmd = m.connLst.Update(msg)
	return m, cmd
}

// updateScans handles input on the quota scan list.
func (m Model) updateScans(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && !m.scanLst.SettingFilter() {
		switch k.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "esc":
			m.st = stateUsers
			return m, refreshUsersCmd(m.ctx, m.client)
		case "r":
			return m, refreshScansCmd(m.ctx, m.client)
		}
	}
	var cmd tea.Cmd
	m.scanLst, cmd = m.scanLst.Update(msg)
	return m, cmd
}
