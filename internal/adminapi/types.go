package adminapi

import "time"

// Permission tokens accepted by the server.
const (
	PermAny            = "*"
	PermList           = "list"
	PermDownload       = "download"
	PermUpload         = "upload"
	PermDelete         = "delete"
	PermRename         = "rename"
	PermCreateDirs     = "create_dirs"
	PermCreateSymlinks = "create_symlinks"
)

// Permissions lists every valid permission token.
var Permissions = []string{
	PermAny,
	PermList,
	PermDownload,
	PermUpload,
	PermDelete,
	PermRename,
	PermCreateDirs,
	PermCreateSymlinks,
}

// User mirrors the server's user record.
// ID is zero until the server assigns one.
type User struct {
	ID                int64              `json:"id"`
	Username          string             `json:"username"`
	Password          Optional[string]   `json:"password,omitzero"`
	PublicKeys        Optional[[]string] `json:"public_keys,omitzero"`
	HomeDir           Optional[string]   `json:"home_dir,omitzero"`
	UID               Optional[int]      `json:"uid,omitzero"`
	GID               Optional[int]      `json:"gid,omitzero"`
	MaxSessions       Optional[int]      `json:"max_sessions,omitzero"`
	QuotaSize         Optional[int64]    `json:"quota_size,omitzero"`
	QuotaFiles        Optional[int]      `json:"quota_files,omitzero"`
	Permissions       Optional[[]string] `json:"permissions,omitzero"`
	UsedQuotaSize     Optional[int64]    `json:"used_quota_size,omitzero"`
	UsedQuotaFiles    Optional[int]      `json:"used_quota_files,omitzero"`
	LastQuotaUpdate   Optional[int64]    `json:"last_quota_update,omitzero"`
	UploadBandwidth   Optional[int64]    `json:"upload_bandwidth,omitzero"`
	DownloadBandwidth Optional[int64]    `json:"download_bandwidth,omitzero"`
}

// QuotaScanRequest references the user whose home dir should be rescanned.
type QuotaScanRequest struct {
	Username string `json:"username"`
}

// QuotaScan is an in-progress server-side scan.
type QuotaScan struct {
	Username  string `json:"username"`
	StartTime int64  `json:"start_time"`
}

// Transfer is an upload or download running on a connection.
type Transfer struct {
	OperationType string `json:"operation_type"`
	Path          string `json:"path"`
	StartTime     int64  `json:"start_time"`
	Size          int64  `json:"size"`
	LastActivity  int64  `json:"last_activity"`
}

// Connection is an active session reported by the server.
type Connection struct {
	ID              string     `json:"connection_id"`
	Username        string     `json:"username"`
	ClientVersion   string     `json:"client_version"`
	RemoteAddress   string     `json:"remote_address"`
	ConnectionTime  int64      `json:"connection_time"`
	LastActivity    int64      `json:"last_activity"`
	Protocol        string     `json:"protocol"`
	ActiveTransfers []Transfer `json:"active_transfers"`
}

// VersionInfo describes the server build.
type VersionInfo struct {
	Version    string `json:"version"`
	BuildDate  string `json:"build_date"`
	CommitHash string `json:"commit_hash"`
}

// ListUsersParams are the get-users query parameters.
type ListUsersParams struct {
	Limit    int
	Offset   int
	Order    string
	Username string
}

// Millis converts a server timestamp in milliseconds to time.Time.
// Zero maps to the zero time.
func Millis(ms int64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
