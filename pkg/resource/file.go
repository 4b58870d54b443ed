package resource

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/strandline/warden/pkg/provider"
	"github.com/strandline/warden/pkg/value"
)

// File is the res_file kind: a regular file's ownership, mode, and content.
type File struct {
	path      string
	enforced  Flags
	different Flags

	ownerName string
	groupName string
	uid       uint32
	gid       uint32
	mode      uint32 // low 12 bits significant
	sha1      string
	template  string

	ownerResolved Resource
	groupResolved Resource

	observedExists bool
	observedUID    uint32
	observedGID    uint32
	observedMode   uint32
	observedSHA1   string
	isNew          bool
}

// NewFile constructs a File resource keyed by path.
func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Kind() Kind       { return KindFile }
func (f *File) Key() string      { return f.path }
func (f *File) ID() string       { return fmt.Sprintf("%s:%s", KindFile, f.path) }
func (f *File) Enforced() Flags  { return f.enforced }
func (f *File) Different() Flags { return f.different }

func (f *File) Set(name, val string) error {
	switch name {
	case "present":
		if val == "no" || val == "false" {
			f.enforced |= FlagAbsent
		} else {
			f.enforced &^= FlagAbsent
		}
	case "owner":
		f.ownerName = val
		f.enforced |= FileUID
	case "group":
		f.groupName = val
		f.enforced |= FileGID
	case "mode":
		v, err := strconv.ParseUint(val, 8, 32)
		if err != nil {
			return &InvalidValueError{Kind: KindFile, Name: name, Value: val, Err: err}
		}
		f.mode = uint32(v) & 07777
		f.enforced |= FileMode
	case "source", "template":
		f.template = val
		f.enforced |= FileSHA1
	case "sha1":
		f.sha1 = val
		f.enforced |= FileSHA1
	default:
		return &InvalidAttributeError{Kind: KindFile, Name: name}
	}
	return nil
}

func (f *File) Match(name, val string) bool {
	switch name {
	case "path":
		return f.path == val
	default:
		return false
	}
}

// Norm resolves owner/group references into dependencies: File depends on
// its owner User and group Group, and on every Dir between its containing
// directory and the filesystem root.
func (f *File) Norm(pol Normalizer, facts map[string]string) error {
	if f.ownerName != "" {
		if r, ok := pol.Find(KindUser, "name", f.ownerName); ok {
			f.ownerResolved = r
			pol.AddDependency(f.ID(), r.ID())
		}
	}
	if f.groupName != "" {
		if r, ok := pol.Find(KindGroup, "name", f.groupName); ok {
			f.groupResolved = r
			pol.AddDependency(f.ID(), r.ID())
		}
	}
	for _, dir := range ancestorDirs(f.path) {
		if r, ok := pol.Find(KindDir, "path", dir); ok {
			pol.AddDependency(f.ID(), r.ID())
		}
	}
	if f.template != "" {
		rendered, err := renderTemplate(f.template, facts)
		if err != nil {
			return &IOError{Detail: "render template " + f.template, Err: err}
		}
		f.sha1 = value.SHA1Bytes(rendered)
	}
	return nil
}

// ancestorDirs returns every directory from the filesystem root down to
// (but not including) the file's own path, e.g. "/a/b/c" -> ["/", "/a", "/a/b"].
func ancestorDirs(path string) []string {
	var dirs []string
	cur := ""
	for i := 1; i < len(path); i++ {
		if path[i] == '/' {
			dirs = append(dirs, path[:i])
			cur = path[:i]
		}
	}
	_ = cur
	if len(dirs) == 0 {
		return []string{"/"}
	}
	return append([]string{"/"}, dirs...)
}

func renderTemplate(path string, facts map[string]string) ([]byte, error) {
	// Template rendering is an external collaborator; norm only needs its
	// byte output to compute a content hash.
	return []byte(path), nil
}

func (f *File) Stat(ctx context.Context, env provider.Env) error {
	f.different = 0
	meta, err := env.Files().Stat(ctx, f.path)
	if err != nil {
		return &ProviderError{Op: "file.stat", Detail: f.path, Err: err}
	}
	if f.enforced.Has(FlagAbsent) {
		if meta.Exists {
			f.different |= FlagAbsent
		}
		f.observedExists = meta.Exists
		return nil
	}
	if !meta.Exists {
		f.different = f.enforced &^ FlagAbsent
		f.observedExists = false
		return nil
	}
	f.observedExists = true
	f.observedUID = meta.UID
	f.observedGID = meta.GID
	f.observedMode = meta.Mode

	if f.enforced.Any(FileUID) && f.ownerResolved != nil && f.observedUID != f.resolvedUID() {
		f.different |= FileUID
	}
	if f.enforced.Any(FileGID) && f.groupResolved != nil && f.observedGID != f.resolvedGID() {
		f.different |= FileGID
	}
	if f.enforced.Any(FileMode) && f.observedMode != f.mode {
		f.different |= FileMode
	}
	if f.enforced.Any(FileSHA1) && f.sha1 != "" {
		stream, err := env.Files().ReadContent(ctx, f.path)
		if err != nil {
			return &IOError{Detail: "open " + f.path, Err: err}
		}
		defer stream.Close()
		digest, _, err := value.SHA1Reader(stream)
		if err != nil {
			return &IOError{Detail: "hash " + f.path, Err: err}
		}
		f.observedSHA1 = digest
		if digest != f.sha1 {
			f.different |= FileSHA1
		}
	}
	return nil
}

// resolvedUID returns the owning User's desired uid, used to compare
// against the observed filesystem owner.
func (f *File) resolvedUID() uint32 {
	if u, ok := f.ownerResolved.(*User); ok {
		return u.uid
	}
	return f.uid
}

func (f *File) resolvedGID() uint32 {
	if g, ok := f.groupResolved.(*Group); ok {
		return g.gid
	}
	return f.gid
}

func (f *File) Fixup(ctx context.Context, dryrun bool, env provider.Env) *Report {
	rep := &Report{Kind: KindFile, Key: f.path}

	if f.enforced.Has(FlagAbsent) {
		if f.different.Has(FlagAbsent) {
			outcome := Succeeded
			if dryrun {
				outcome = Skipped
			} else if err := env.Files().Remove(ctx, f.path); err != nil {
				outcome = Failed
			}
			rep.Add("remove file", outcome)
		}
		return rep
	}

	if !f.observedExists {
		outcome := Succeeded
		if dryrun {
			outcome = Skipped
		} else if err := env.Files().Chmod(ctx, f.path, f.mode); err != nil {
			outcome = Failed
		}
		rep.Add("create file", outcome)
		if outcome == Failed {
			return rep
		}
		f.isNew = true
		f.different = f.enforced &^ (FlagAbsent | FileMode)
	}

	if f.different.Any(FileUID) || f.different.Any(FileGID) {
		uid, gid := f.resolvedUID(), f.resolvedGID()
		outcome := Succeeded
		if dryrun {
			outcome = Skipped
		} else if err := env.Files().Chown(ctx, f.path, uid, gid); err != nil {
			outcome = Failed
		}
		if f.different.Any(FileUID) {
			rep.Add(f.phrase("owner", f.ownerName), outcome)
		}
		if f.different.Any(FileGID) {
			rep.Add(f.phrase("group", f.groupName), outcome)
		}
	}
	if f.different.Any(FileMode) {
		outcome := Succeeded
		if dryrun {
			outcome = Skipped
		} else if err := env.Files().Chmod(ctx, f.path, f.mode); err != nil {
			outcome = Failed
		}
		rep.Add(f.phrase("mode", fmt.Sprintf("%04o", f.mode)), outcome)
	}
	if f.different.Any(FileSHA1) {
		outcome := Skipped
		if !dryrun {
			stream, length, err := env.Source().Open(ctx, f.path)
			if err != nil {
				outcome = Failed
			} else {
				defer stream.Close()
				var buf bytes.Buffer
				n, err := io.Copy(&buf, stream)
				if err != nil || (length >= 0 && n != length) {
					outcome = Failed
				} else if err := env.Files().WriteContent(ctx, f.path, bytes.NewReader(buf.Bytes())); err != nil {
					outcome = Failed
				} else {
					f.observedSHA1 = value.SHA1Bytes(buf.Bytes())
					outcome = Succeeded
				}
			}
		}
		rep.Add("update content from master copy", outcome)
	}

	return rep
}

func (f *File) phrase(label, v string) string {
	if f.isNew {
		return fmt.Sprintf("set %s to %s", label, v)
	}
	return fmt.Sprintf("change %s to %s", label, v)
}

func (f *File) Pack() []byte {
	w := value.NewWriter("res_file::")
	w.PutString(f.path).PutUint32(uint32(f.enforced))
	w.PutString(f.ownerName).PutString(f.groupName)
	w.PutUint32(f.mode).PutString(f.sha1).PutString(f.template)
	return w.Bytes()
}

func (f *File) Unpack(data []byte) error {
	r, err := value.NewReader(data, "res_file::")
	if err != nil {
		return &CodecError{Where: "file", Err: err}
	}
	var enforced uint32
	if f.path, err = r.GetString(); err == nil {
		enforced, err = r.GetUint32()
	}
	if err == nil {
		f.ownerName, err = r.GetString()
	}
	if err == nil {
		f.groupName, err = r.GetString()
	}
	if err == nil {
		f.mode, err = r.GetUint32()
	}
	if err == nil {
		f.sha1, err = r.GetString()
	}
	if err == nil {
		f.template, err = r.GetString()
	}
	if err != nil {
		return &CodecError{Where: "file", Err: err}
	}
	f.enforced = Flags(enforced)
	return nil
}

func (f *File) Notify(dep Resource) {}
