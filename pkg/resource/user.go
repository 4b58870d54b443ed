package resource

import (
	"context"
	"fmt"
	"strconv"

	"github.com/strandline/warden/pkg/provider"
	"github.com/strandline/warden/pkg/value"
)

// User is the res_user kind: a passwd/shadow entry.
type User struct {
	name     string
	enforced Flags
	different Flags

	passwd string
	uid    uint32
	gid    uint32
	gecos  string
	dir    string
	shell  string
	mkhome bool
	skel   string
	locked bool
	pwmin  uint32
	pwmax  uint32
	pwwarn uint32
	inact  uint32
	expire uint32

	observed *provider.PasswdEntry
	isNew    bool
}

// NewUser constructs a User resource with key name; a non-empty name sets
// the UserName bit in enforced and leaves every other bit clear.
func NewUser(name string) *User {
	u := &User{name: name}
	if name != "" {
		u.enforced |= UserName
	}
	return u
}

func (u *User) Kind() Kind        { return KindUser }
func (u *User) Key() string       { return u.name }
func (u *User) ID() string        { return fmt.Sprintf("%s:%s", KindUser, u.name) }
func (u *User) Enforced() Flags   { return u.enforced }
func (u *User) Different() Flags  { return u.different }

// Set parses and stores one attribute, ORing the corresponding bit into
// enforced.
func (u *User) Set(name, val string) error {
	switch name {
	case "name":
		u.name = val
		u.enforced |= UserName
	case "present":
		if val == "no" || val == "false" {
			u.enforced |= FlagAbsent
		} else {
			u.enforced &^= FlagAbsent
		}
	case "passwd":
		u.passwd = val
		u.enforced |= UserPasswd
	case "uid":
		v, err := strconv.ParseUint(val, 10, 32)
		if err != nil {
			return &InvalidValueError{Kind: KindUser, Name: name, Value: val, Err: err}
		}
		u.uid = uint32(v)
		u.enforced |= UserUID
	case "gid":
		v, err := strconv.ParseUint(val, 10, 32)
		if err != nil {
			return &InvalidValueError{Kind: KindUser, Name: name, Value: val, Err: err}
		}
		u.gid = uint32(v)
		u.enforced |= UserGID
	case "gecos":
		u.gecos = val
		u.enforced |= UserGecos
	case "home":
		u.dir = val
		u.enforced |= UserDir
	case "shell":
		u.shell = val
		u.enforced |= UserShell
	case "makehome":
		u.mkhome = val == "yes" || val == "true"
		u.enforced |= UserMkhome
	case "skeleton":
		u.skel = val
	case "locked":
		u.locked = val == "yes" || val == "true"
		u.enforced |= UserLock
	case "pwmin":
		v, err := strconv.ParseUint(val, 10, 32)
		if err != nil {
			return &InvalidValueError{Kind: KindUser, Name: name, Value: val, Err: err}
		}
		u.pwmin = uint32(v)
		u.enforced |= UserPwmin
	case "pwmax":
		v, err := strconv.ParseUint(val, 10, 32)
		if err != nil {
			return &InvalidValueError{Kind: KindUser, Name: name, Value: val, Err: err}
		}
		u.pwmax = uint32(v)
		u.enforced |= UserPwmax
	case "pwwarn":
		v, err := strconv.ParseUint(val, 10, 32)
		if err != nil {
			return &InvalidValueError{Kind: KindUser, Name: name, Value: val, Err: err}
		}
		u.pwwarn = uint32(v)
		u.enforced |= UserPwwarn
	case "inactive":
		v, err := strconv.ParseUint(val, 10, 32)
		if err != nil {
			return &InvalidValueError{Kind: KindUser, Name: name, Value: val, Err: err}
		}
		u.inact = uint32(v)
		u.enforced |= UserInact
	case "expire":
		v, err := strconv.ParseUint(val, 10, 32)
		if err != nil {
			return &InvalidValueError{Kind: KindUser, Name: name, Value: val, Err: err}
		}
		u.expire = uint32(v)
		u.enforced |= UserExpire
	default:
		return &InvalidAttributeError{Kind: KindUser, Name: name}
	}
	return nil
}

// Match reports whether attribute name currently equals val.
func (u *User) Match(name, val string) bool {
	switch name {
	case "name":
		return u.name == val
	case "uid":
		v, err := strconv.ParseUint(val, 10, 32)
		return err == nil && u.uid == uint32(v)
	case "gid":
		v, err := strconv.ParseUint(val, 10, 32)
		return err == nil && u.gid == uint32(v)
	case "shell":
		return u.shell == val
	default:
		return false
	}
}

// Norm has nothing to synthesize for User: it is a dependency provider,
// never a dependent, in the schemas this engine enforces.
func (u *User) Norm(pol Normalizer, facts map[string]string) error {
	return nil
}

// Stat reads the observed passwd/shadow entry and computes different.
func (u *User) Stat(ctx context.Context, env provider.Env) error {
	entry, ok, err := env.Users().Lookup(ctx, u.name)
	if err != nil {
		return &ProviderError{Op: "user.lookup", Detail: u.name, Err: err}
	}
	u.different = 0
	if u.enforced.Has(FlagAbsent) {
		if ok {
			u.different |= FlagAbsent
		}
		u.observed = entry
		return nil
	}
	if !ok {
		u.different = u.enforced &^ FlagAbsent
		u.observed = nil
		return nil
	}
	u.observed = entry
	if u.enforced.Any(UserPasswd) && entry.Passwd != u.passwd {
		u.different |= UserPasswd
	}
	if u.enforced.Any(UserUID) && entry.UID != u.uid {
		u.different |= UserUID
	}
	if u.enforced.Any(UserGID) && entry.GID != u.gid {
		u.different |= UserGID
	}
	if u.enforced.Any(UserGecos) && entry.Gecos != u.gecos {
		u.different |= UserGecos
	}
	if u.enforced.Any(UserDir) && entry.Dir != u.dir {
		u.different |= UserDir
	}
	if u.enforced.Any(UserShell) && entry.Shell != u.shell {
		u.different |= UserShell
	}
	if u.mkhome && u.enforced.Any(UserMkhome) {
		meta, err := env.Files().Stat(ctx, u.dir)
		if err != nil {
			return &ProviderError{Op: "user.stathome", Detail: u.dir, Err: err}
		}
		if !meta.Exists || !meta.IsDir {
			u.different |= UserMkhome
		}
	}
	if u.enforced.Any(UserLock) && entry.Locked != u.locked {
		u.different |= UserLock
	}
	if u.enforced.Any(UserPwmin) && entry.Pwmin != u.pwmin {
		u.different |= UserPwmin
	}
	if u.enforced.Any(UserPwmax) && entry.Pwmax != u.pwmax {
		u.different |= UserPwmax
	}
	if u.enforced.Any(UserPwwarn) && entry.Pwwarn != u.pwwarn {
		u.different |= UserPwwarn
	}
	if u.enforced.Any(UserInact) && entry.Inact != u.inact {
		u.different |= UserInact
	}
	if u.enforced.Any(UserExpire) && entry.Expire != u.expire {
		u.different |= UserExpire
	}
	return nil
}

// Fixup applies the state machine of §4.3: presence, then creation, then
// per-attribute corrections in a fixed order.
func (u *User) Fixup(ctx context.Context, dryrun bool, env provider.Env) *Report {
	rep := &Report{Kind: KindUser, Key: u.name}

	if u.enforced.Has(FlagAbsent) {
		if u.different.Has(FlagAbsent) {
			outcome := Succeeded
			if dryrun {
				outcome = Skipped
			} else if err := env.Users().Remove(ctx, u.name); err != nil {
				outcome = Failed
			}
			rep.Add("remove user", outcome)
		}
		return rep
	}

	if u.observed == nil {
		outcome := Succeeded
		if dryrun {
			outcome = Skipped
		} else {
			u.observed = &provider.PasswdEntry{Name: u.name}
			if err := env.Users().Insert(ctx, u.observed); err != nil {
				outcome = Failed
			}
		}
		rep.Add("create user", outcome)
		if outcome == Failed {
			return rep
		}
		u.isNew = true
		u.different = u.enforced &^ FlagAbsent
	}

	if u.different.Any(UserPasswd) {
		outcome := Succeeded
		if dryrun {
			outcome = Skipped
		} else {
			u.observed.Passwd = u.passwd
			if err := env.Users().Update(ctx, u.observed); err != nil {
				outcome = Failed
			}
		}
		rep.Add("set password", outcome)
	}
	u.applyAttr(ctx, rep, dryrun, env, UserUID, "uid", fmt.Sprintf("%d", u.uid))
	u.applyAttr(ctx, rep, dryrun, env, UserGID, "gid", fmt.Sprintf("%d", u.gid))
	u.applyAttr(ctx, rep, dryrun, env, UserGecos, "GECOS", u.gecos)
	if u.different.Any(UserDir) {
		outcome := Succeeded
		if dryrun {
			outcome = Skipped
		} else {
			u.observed.Dir = u.dir
			if err := env.Users().Update(ctx, u.observed); err != nil {
				outcome = Failed
			}
		}
		rep.Add(u.phrase("home directory", u.dir), outcome)
	}
	if u.different.Any(UserMkhome) {
		outcome := Succeeded
		if dryrun {
			outcome = Skipped
		} else if err := env.Files().Mkdir(ctx, u.dir, 0700); err != nil {
			outcome = Failed
		} else if err := env.Files().Chown(ctx, u.dir, u.observed.UID, u.observed.GID); err != nil {
			outcome = Failed
		}
		rep.Add(fmt.Sprintf("create home directory %s", u.dir), outcome)
	}
	u.applyAttr(ctx, rep, dryrun, env, UserShell, "login shell", u.shell)
	if u.different.Any(UserLock) {
		action := "lock account"
		if !u.locked {
			action = "unlock account"
		}
		outcome := Succeeded
		if dryrun {
			outcome = Skipped
		} else {
			u.observed.Locked = u.locked
			if err := env.Users().Update(ctx, u.observed); err != nil {
				outcome = Failed
			}
		}
		rep.Add(action, outcome)
	}
	u.applyAttr(ctx, rep, dryrun, env, UserPwmin, "minimum password age", fmt.Sprintf("%d", u.pwmin))
	u.applyAttr(ctx, rep, dryrun, env, UserPwmax, "maximum password age", fmt.Sprintf("%d", u.pwmax))
	u.applyAttr(ctx, rep, dryrun, env, UserPwwarn, "password warning period", fmt.Sprintf("%d", u.pwwarn))
	u.applyAttr(ctx, rep, dryrun, env, UserInact, "inactivity period", fmt.Sprintf("%d", u.inact))
	u.applyAttr(ctx, rep, dryrun, env, UserExpire, "account expiry", fmt.Sprintf("%d", u.expire))

	return rep
}

// userFieldSetters copies one scalar attribute's declared value into the
// observed entry ahead of the Update call that writes it.
var userFieldSetters = map[Flags]func(u *User){
	UserUID:    func(u *User) { u.observed.UID = u.uid },
	UserGID:    func(u *User) { u.observed.GID = u.gid },
	UserGecos:  func(u *User) { u.observed.Gecos = u.gecos },
	UserShell:  func(u *User) { u.observed.Shell = u.shell },
	UserPwmin:  func(u *User) { u.observed.Pwmin = u.pwmin },
	UserPwmax:  func(u *User) { u.observed.Pwmax = u.pwmax },
	UserPwwarn: func(u *User) { u.observed.Pwwarn = u.pwwarn },
	UserInact:  func(u *User) { u.observed.Inact = u.inact },
	UserExpire: func(u *User) { u.observed.Expire = u.expire },
}

// applyAttr handles the common "set X to V" (new user) / "change X to V"
// (existing user; the previous value is not named) phrasing and the
// Update call shared by most scalar attributes.
func (u *User) applyAttr(ctx context.Context, rep *Report, dryrun bool, env provider.Env, bit Flags, label, newVal string) {
	if !u.different.Any(bit) {
		return
	}
	outcome := Succeeded
	if dryrun {
		outcome = Skipped
	} else {
		userFieldSetters[bit](u)
		if err := env.Users().Update(ctx, u.observed); err != nil {
			outcome = Failed
		}
	}
	rep.Add(u.phrase(label, newVal), outcome)
}

func (u *User) phrase(label, newVal string) string {
	if u.isNew {
		return fmt.Sprintf("set %s to %s", label, newVal)
	}
	return fmt.Sprintf("change %s to %s", label, newVal)
}

// Pack serializes (key, enforced, declared attributes). Observed state is
// never serialized.
func (u *User) Pack() []byte {
	w := value.NewWriter("res_user::")
	w.PutString(u.name).PutUint32(uint32(u.enforced))
	w.PutString(u.passwd).PutUint32(u.uid).PutUint32(u.gid)
	w.PutString(u.gecos).PutString(u.dir).PutString(u.shell)
	w.PutBool(u.mkhome).PutString(u.skel).PutBool(u.locked)
	w.PutUint32(u.pwmin).PutUint32(u.pwmax).PutUint32(u.pwwarn)
	w.PutUint32(u.inact).PutUint32(u.expire)
	return w.Bytes()
}

func (u *User) Unpack(data []byte) error {
	r, err := value.NewReader(data, "res_user::")
	if err != nil {
		return &CodecError{Where: "user", Err: err}
	}
	var enforced uint32
	if u.name, err = r.GetString(); err == nil {
		enforced, err = r.GetUint32()
	}
	if err == nil {
		u.passwd, err = r.GetString()
	}
	if err == nil {
		u.uid, err = r.GetUint32()
	}
	if err == nil {
		u.gid, err = r.GetUint32()
	}
	if err == nil {
		u.gecos, err = r.GetString()
	}
	if err == nil {
		u.dir, err = r.GetString()
	}
	if err == nil {
		u.shell, err = r.GetString()
	}
	if err == nil {
		u.mkhome, err = r.GetBool()
	}
	if err == nil {
		u.skel, err = r.GetString()
	}
	if err == nil {
		u.locked, err = r.GetBool()
	}
	if err == nil {
		u.pwmin, err = r.GetUint32()
	}
	if err == nil {
		u.pwmax, err = r.GetUint32()
	}
	if err == nil {
		u.pwwarn, err = r.GetUint32()
	}
	if err == nil {
		u.inact, err = r.GetUint32()
	}
	if err == nil {
		u.expire, err = r.GetUint32()
	}
	if err != nil {
		return &CodecError{Where: "user", Err: err}
	}
	u.enforced = Flags(enforced)
	return nil
}

// Notify is a no-op for User: nothing else in this engine depends on a
// user's fixup to change its own behavior.
func (u *User) Notify(dep Resource) {}
