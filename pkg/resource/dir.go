package resource

import (
	"context"
	"fmt"
	"strconv"

	"github.com/strandline/warden/pkg/provider"
	"github.com/strandline/warden/pkg/value"
)

// Dir is the res_dir kind: a directory's ownership and mode.
type Dir struct {
	path      string
	enforced  Flags
	different Flags

	ownerName string
	groupName string
	mode      uint32

	ownerResolved Resource
	groupResolved Resource

	observedExists bool
	observedUID    uint32
	observedGID    uint32
	observedMode   uint32
	isNew          bool
}

// NewDir constructs a Dir resource keyed by path.
func NewDir(path string) *Dir {
	return &Dir{path: path}
}

func (d *Dir) Kind() Kind       { return KindDir }
func (d *Dir) Key() string      { return d.path }
func (d *Dir) ID() string       { return fmt.Sprintf("%s:%s", KindDir, d.path) }
func (d *Dir) Enforced() Flags  { return d.enforced }
func (d *Dir) Different() Flags { return d.different }

func (d *Dir) Set(name, val string) error {
	switch name {
	case "present":
		if val == "no" || val == "false" {
			d.enforced |= FlagAbsent
		} else {
			d.enforced &^= FlagAbsent
		}
	case "owner":
		d.ownerName = val
		d.enforced |= DirUID
	case "group":
		d.groupName = val
		d.enforced |= DirGID
	case "mode":
		v, err := strconv.ParseUint(val, 8, 32)
		if err != nil {
			return &InvalidValueError{Kind: KindDir, Name: name, Value: val, Err: err}
		}
		d.mode = uint32(v) & 07777
		d.enforced |= DirMode
	default:
		return &InvalidAttributeError{Kind: KindDir, Name: name}
	}
	return nil
}

func (d *Dir) Match(name, val string) bool {
	return name == "path" && d.path == val
}

// Norm resolves owner/group references and every Dir ancestor between this
// directory and the filesystem root, mirroring File's ancestor rule.
func (d *Dir) Norm(pol Normalizer, facts map[string]string) error {
	if d.ownerName != "" {
		if r, ok := pol.Find(KindUser, "name", d.ownerName); ok {
			d.ownerResolved = r
			pol.AddDependency(d.ID(), r.ID())
		}
	}
	if d.groupName != "" {
		if r, ok := pol.Find(KindGroup, "name", d.groupName); ok {
			d.groupResolved = r
			pol.AddDependency(d.ID(), r.ID())
		}
	}
	for _, anc := range ancestorDirs(d.path) {
		if anc == d.path {
			continue
		}
		if r, ok := pol.Find(KindDir, "path", anc); ok {
			pol.AddDependency(d.ID(), r.ID())
		}
	}
	return nil
}

func (d *Dir) Stat(ctx context.Context, env provider.Env) error {
	d.different = 0
	meta, err := env.Files().Stat(ctx, d.path)
	if err != nil {
		return &ProviderError{Op: "dir.stat", Detail: d.path, Err: err}
	}
	if d.enforced.Has(FlagAbsent) {
		if meta.Exists {
			d.different |= FlagAbsent
		}
		d.observedExists = meta.Exists
		return nil
	}
	if !meta.Exists {
		d.different = d.enforced &^ FlagAbsent
		d.observedExists = false
		return nil
	}
	d.observedExists = true
	d.observedUID, d.observedGID, d.observedMode = meta.UID, meta.GID, meta.Mode

	if d.enforced.Any(DirUID) && d.observedUID != d.resolvedUID() {
		d.different |= DirUID
	}
	if d.enforced.Any(DirGID) && d.observedGID != d.resolvedGID() {
		d.different |= DirGID
	}
	if d.enforced.Any(DirMode) && d.observedMode != d.mode {
		d.different |= DirMode
	}
	return nil
}

func (d *Dir) resolvedUID() uint32 {
	if u, ok := d.ownerResolved.(*User); ok {
		return u.uid
	}
	return 0
}

func (d *Dir) resolvedGID() uint32 {
	if g, ok := d.groupResolved.(*Group); ok {
		return g.gid
	}
	return 0
}

func (d *Dir) Fixup(ctx context.Context, dryrun bool, env provider.Env) *Report {
	rep := &Report{Kind: KindDir, Key: d.path}

	if d.enforced.Has(FlagAbsent) {
		if d.different.Has(FlagAbsent) {
			outcome := Succeeded
			if dryrun {
				outcome = Skipped
			} else if err := env.Files().Remove(ctx, d.path); err != nil {
				outcome = Failed
			}
			rep.Add("remove directory", outcome)
		}
		return rep
	}

	if !d.observedExists {
		outcome := Succeeded
		if dryrun {
			outcome = Skipped
		} else if err := env.Files().Mkdir(ctx, d.path, d.mode); err != nil {
			outcome = Failed
		}
		rep.Add(fmt.Sprintf("create directory %s", d.path), outcome)
		if outcome == Failed {
			return rep
		}
		d.isNew = true
		d.different = d.enforced &^ (FlagAbsent | DirMode)
	}

	phrase := func(label, v string) string {
		if d.isNew {
			return fmt.Sprintf("set %s to %s", label, v)
		}
		return fmt.Sprintf("change %s to %s", label, v)
	}

	if d.different.Any(DirUID) || d.different.Any(DirGID) {
		outcome := Succeeded
		if dryrun {
			outcome = Skipped
		} else if err := env.Files().Chown(ctx, d.path, d.resolvedUID(), d.resolvedGID()); err != nil {
			outcome = Failed
		}
		if d.different.Any(DirUID) {
			rep.Add(phrase("owner", d.ownerName), outcome)
		}
		if d.different.Any(DirGID) {
			rep.Add(phrase("group", d.groupName), outcome)
		}
	}
	if d.different.Any(DirMode) {
		outcome := Succeeded
		if dryrun {
			outcome = Skipped
		} else if err := env.Files().Chmod(ctx, d.path, d.mode); err != nil {
			outcome = Failed
		}
		rep.Add(phrase("mode", fmt.Sprintf("%04o", d.mode)), outcome)
	}

	return rep
}

func (d *Dir) Pack() []byte {
	w := value.NewWriter("res_dir::")
	w.PutString(d.path).PutUint32(uint32(d.enforced))
	w.PutString(d.ownerName).PutString(d.groupName).PutUint32(d.mode)
	return w.Bytes()
}

func (d *Dir) Unpack(data []byte) error {
	r, err := value.NewReader(data, "res_dir::")
	if err != nil {
		return &CodecError{Where: "dir", Err: err}
	}
	var enforced uint32
	if d.path, err = r.GetString(); err == nil {
		enforced, err = r.GetUint32()
	}
	if err == nil {
		d.ownerName, err = r.GetString()
	}
	if err == nil {
		d.groupName, err = r.GetString()
	}
	if err == nil {
		d.mode, err = r.GetUint32()
	}
	if err != nil {
		return &CodecError{Where: "dir", Err: err}
	}
	d.enforced = Flags(enforced)
	return nil
}

func (d *Dir) Notify(dep Resource) {}
