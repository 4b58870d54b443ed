// Package provider defines the abstract OS-facing handles the reconciliation
// core consumes: user/group databases, the package manager, the service
// manager, the host-table editor, the remote file source, and the fact map.
// Concrete implementations (real OS calls, or in-memory doubles for tests)
// satisfy these interfaces; the core never imports an implementation
// directly.
package provider

import (
	"context"
	"io"
)

// PasswdEntry is one row of the user database as seen by the core.
type PasswdEntry struct {
	Name   string
	Passwd string
	UID    uint32
	GID    uint32
	Gecos  string
	Dir    string
	Shell  string
	Locked bool
	Pwmin  uint32
	Pwmax  uint32
	Pwwarn uint32
	Inact  uint32
	Expire uint32
}

// UserDB is the combined pwdb/spdb view the spec treats as one provider
// pair, since every field a User resource enforces spans both files.
type UserDB interface {
	Lookup(ctx context.Context, name string) (*PasswdEntry, bool, error)
	Insert(ctx context.Context, e *PasswdEntry) error
	Update(ctx context.Context, e *PasswdEntry) error
	Remove(ctx context.Context, name string) error
}

// GroupEntry is one row of the group database.
type GroupEntry struct {
	Name    string
	Passwd  string
	GID     uint32
	Members []string
	Admins  []string
}

// GroupDB is the combined grdb/sgdb view.
type GroupDB interface {
	Lookup(ctx context.Context, name string) (*GroupEntry, bool, error)
	Insert(ctx context.Context, e *GroupEntry) error
	Update(ctx context.Context, e *GroupEntry) error
	Remove(ctx context.Context, name string) error
}

// PackageManager abstracts package install/remove/version-query.
type PackageManager interface {
	Version(ctx context.Context, name string) (version string, installed bool, err error)
	Install(ctx context.Context, name, version string) error
	Remove(ctx context.Context, name string) error
}

// ServiceManager abstracts init-system control.
type ServiceManager interface {
	Running(ctx context.Context, name string) (bool, error)
	Enabled(ctx context.Context, name string) (bool, error)
	Start(ctx context.Context, name string) error
	Stop(ctx context.Context, name string) error
	Enable(ctx context.Context, name string) error
	Disable(ctx context.Context, name string) error
	Reload(ctx context.Context, name string) error
}

// HostTable is the host-file editor, addressed by Augeas-style tree paths
// (e.g. "hosts/1/ip", "hosts/1/alias[2]").
type HostTable interface {
	Match(ctx context.Context, pattern string) ([]string, error)
	Get(ctx context.Context, path string) (string, bool, error)
	Set(ctx context.Context, path, value string) error
	Remove(ctx context.Context, path string) error
	GetMany(ctx context.Context, pattern string) ([]string, error)
}

// Sysctl reads and writes both the live kernel value under /proc/sys and
// the on-disk persisted value.
type Sysctl interface {
	ReadLive(ctx context.Context, param string) (string, error)
	WriteLive(ctx context.Context, param, value string) error
	ReadPersisted(ctx context.Context, param string) (string, bool, error)
	WritePersisted(ctx context.Context, param, value string) error
}

// Facts is the string-to-string fact map consulted by template rendering.
type Facts interface {
	Get(key string) (string, bool)
	All() map[string]string
}

// Source opens the remote content stream for a file's declared source,
// returning the stream, its declared length, and any open error.
type Source interface {
	Open(ctx context.Context, key string) (io.ReadCloser, int64, error)
}

// FileMeta is the observed ownership/mode of a path on disk.
type FileMeta struct {
	Exists bool
	UID    uint32
	GID    uint32
	Mode   uint32 // low 12 bits significant
	IsDir  bool
}

// FileStat reads and writes filesystem ownership, mode, presence, and
// content for File and Dir resources.
type FileStat interface {
	Stat(ctx context.Context, path string) (FileMeta, error)
	Chown(ctx context.Context, path string, uid, gid uint32) error
	Chmod(ctx context.Context, path string, mode uint32) error
	Mkdir(ctx context.Context, path string, mode uint32) error
	Remove(ctx context.Context, path string) error
	// ReadContent opens the live local file for hashing during stat.
	ReadContent(ctx context.Context, path string) (io.ReadCloser, error)
	// WriteContent replaces the live local file's content during fixup.
	WriteContent(ctx context.Context, path string, r io.Reader) error
}

// Env bundles every provider a resource's Stat or Fixup may need. A single
// Env is borrowed by the driver for an entire run; resources must not
// retain it past the call that received it.
type Env interface {
	Users() UserDB
	Groups() GroupDB
	Packages() PackageManager
	Services() ServiceManager
	HostTable() HostTable
	Files() FileStat
	Sysctl() Sysctl
	Facts() Facts
	Source() Source
}
