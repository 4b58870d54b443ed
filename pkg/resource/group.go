package resource

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/strandline/warden/pkg/provider"
	"github.com/strandline/warden/pkg/value"
)

// Group is the res_group kind. Membership is expressed as pending
// additive/subtractive sets that are kept mutually disjoint; the final
// desired set is computed at Stat time as (current ∪ add) \ rm.
type Group struct {
	name      string
	enforced  Flags
	different Flags

	passwd string
	gid    uint32

	memAdd *value.StringList
	memRm  *value.StringList
	admAdd *value.StringList
	admRm  *value.StringList

	wantMembers *value.StringList
	wantAdmins  *value.StringList

	observed *provider.GroupEntry
}

// NewGroup constructs a Group resource with key name.
func NewGroup(name string) *Group {
	g := &Group{
		name:   name,
		memAdd: value.NewStringList(),
		memRm:  value.NewStringList(),
		admAdd: value.NewStringList(),
		admRm:  value.NewStringList(),
	}
	if name != "" {
		g.enforced |= GroupName
	}
	return g
}

func (g *Group) Kind() Kind       { return KindGroup }
func (g *Group) Key() string      { return g.name }
func (g *Group) ID() string       { return fmt.Sprintf("%s:%s", KindGroup, g.name) }
func (g *Group) Enforced() Flags  { return g.enforced }
func (g *Group) Different() Flags { return g.different }

// addDisjoint inserts name into add and removes it from rm, keeping the
// two pending sets disjoint as required by the invariant in §3.
func addDisjoint(add, rm *value.StringList, name string) {
	rm.Remove(name)
	add.Add(name)
}

// Set parses one attribute. "member=x" adds x; "member=!x" queues x for
// removal. Same for "admin".
func (g *Group) Set(name, val string) error {
	switch name {
	case "name":
		g.name = val
		g.enforced |= GroupName
	case "present":
		if val == "no" || val == "false" {
			g.enforced |= FlagAbsent
		} else {
			g.enforced &^= FlagAbsent
		}
	case "passwd":
		g.passwd = val
		g.enforced |= GroupPasswd
	case "gid":
		v, err := strconv.ParseUint(val, 10, 32)
		if err != nil {
			return &InvalidValueError{Kind: KindGroup, Name: name, Value: val, Err: err}
		}
		g.gid = uint32(v)
		g.enforced |= GroupGID
	case "member":
		g.enforced |= GroupMembers
		if strings.HasPrefix(val, "!") {
			addDisjoint(g.memRm, g.memAdd, strings.TrimPrefix(val, "!"))
		} else {
			addDisjoint(g.memAdd, g.memRm, val)
		}
	case "admin":
		g.enforced |= GroupAdmins
		if strings.HasPrefix(val, "!") {
			addDisjoint(g.admRm, g.admAdd, strings.TrimPrefix(val, "!"))
		} else {
			addDisjoint(g.admAdd, g.admRm, val)
		}
	default:
		return &InvalidAttributeError{Kind: KindGroup, Name: name}
	}
	return nil
}

func (g *Group) Match(name, val string) bool {
	switch name {
	case "name":
		return g.name == val
	case "gid":
		v, err := strconv.ParseUint(val, 10, 32)
		return err == nil && g.gid == uint32(v)
	default:
		return false
	}
}

func (g *Group) Norm(pol Normalizer, facts map[string]string) error { return nil }

// Stat reads the observed group entry and computes the desired member and
// admin sets as (current ∪ add) \ rm.
func (g *Group) Stat(ctx context.Context, env provider.Env) error {
	entry, ok, err := env.Groups().Lookup(ctx, g.name)
	if err != nil {
		return &ProviderError{Op: "group.lookup", Detail: g.name, Err: err}
	}
	g.different = 0
	if g.enforced.Has(FlagAbsent) {
		if ok {
			g.different |= FlagAbsent
		}
		g.observed = entry
		return nil
	}
	if !ok {
		g.different = g.enforced &^ FlagAbsent
		g.observed = nil
		g.wantMembers = value.Union(value.NewStringList(), g.memAdd)
		g.wantAdmins = value.Union(value.NewStringList(), g.admAdd)
		return nil
	}
	g.observed = entry
	current := value.NewStringList(entry.Members...)
	g.wantMembers = value.Subtract(value.Union(current, g.memAdd), g.memRm)
	currentAdm := value.NewStringList(entry.Admins...)
	g.wantAdmins = value.Subtract(value.Union(currentAdm, g.admAdd), g.admRm)

	if g.enforced.Any(GroupPasswd) && entry.Passwd != g.passwd {
		g.different |= GroupPasswd
	}
	if g.enforced.Any(GroupGID) && entry.GID != g.gid {
		g.different |= GroupGID
	}
	if g.enforced.Any(GroupMembers) {
		added, removed := value.Diff(current, g.wantMembers)
		if len(added) > 0 || len(removed) > 0 {
			g.different |= GroupMembers
		}
	}
	if g.enforced.Any(GroupAdmins) {
		added, removed := value.Diff(currentAdm, g.wantAdmins)
		if len(added) > 0 || len(removed) > 0 {
			g.different |= GroupAdmins
		}
	}
	return nil
}

func (g *Group) Fixup(ctx context.Context, dryrun bool, env provider.Env) *Report {
	rep := &Report{Kind: KindGroup, Key: g.name}

	if g.enforced.Has(FlagAbsent) {
		if g.different.Has(FlagAbsent) {
			outcome := Succeeded
			if dryrun {
				outcome = Skipped
			} else if err := env.Groups().Remove(ctx, g.name); err != nil {
				outcome = Failed
			}
			rep.Add("remove group", outcome)
		}
		return rep
	}

	isNew := false
	if g.observed == nil {
		outcome := Succeeded
		if dryrun {
			outcome = Skipped
		} else {
			g.observed = &provider.GroupEntry{Name: g.name}
			if err := env.Groups().Insert(ctx, g.observed); err != nil {
				outcome = Failed
			}
		}
		rep.Add("create group", outcome)
		if outcome == Failed {
			return rep
		}
		isNew = true
		g.different = g.enforced &^ FlagAbsent
	}

	phrase := func(label, v string) string {
		if isNew {
			return fmt.Sprintf("set %s to %s", label, v)
		}
		return fmt.Sprintf("change %s to %s", label, v)
	}

	if g.different.Any(GroupGID) {
		outcome := Succeeded
		if dryrun {
			outcome = Skipped
		} else {
			g.observed.GID = g.gid
			if err := env.Groups().Update(ctx, g.observed); err != nil {
				outcome = Failed
			}
		}
		rep.Add(phrase("gid", fmt.Sprintf("%d", g.gid)), outcome)
	}
	if g.different.Any(GroupPasswd) {
		outcome := Succeeded
		if dryrun {
			outcome = Skipped
		} else {
			g.observed.Passwd = g.passwd
			if err := env.Groups().Update(ctx, g.observed); err != nil {
				outcome = Failed
			}
		}
		rep.Add("set password", outcome)
	}

	if g.different.Any(GroupMembers) {
		current := value.NewStringList(g.observed.Members...)
		added, removed := value.Diff(current, g.wantMembers)
		for _, a := range added {
			outcome := memberOutcome(dryrun)
			rep.Add(fmt.Sprintf("add %s", a), outcome)
		}
		for _, r := range removed {
			outcome := memberOutcome(dryrun)
			rep.Add(fmt.Sprintf("remove %s", r), outcome)
		}
		if !dryrun {
			g.observed.Members = g.wantMembers.Items()
			_ = env.Groups().Update(ctx, g.observed)
		}
	}
	if g.different.Any(GroupAdmins) {
		currentAdm := value.NewStringList(g.observed.Admins...)
		added, removed := value.Diff(currentAdm, g.wantAdmins)
		for _, a := range added {
			rep.Add(fmt.Sprintf("add admin %s", a), memberOutcome(dryrun))
		}
		for _, r := range removed {
			rep.Add(fmt.Sprintf("remove admin %s", r), memberOutcome(dryrun))
		}
		if !dryrun {
			g.observed.Admins = g.wantAdmins.Items()
			_ = env.Groups().Update(ctx, g.observed)
		}
	}

	return rep
}

func memberOutcome(dryrun bool) Outcome {
	if dryrun {
		return Skipped
	}
	return Succeeded
}

func (g *Group) Pack() []byte {
	w := value.NewWriter("res_group::")
	w.PutString(g.name).PutUint32(uint32(g.enforced))
	w.PutString(g.passwd).PutUint32(g.gid)
	w.PutString(g.memAdd.Join(".")).PutString(g.memRm.Join("."))
	w.PutString(g.admAdd.Join(".")).PutString(g.admRm.Join("."))
	return w.Bytes()
}

func (g *Group) Unpack(data []byte) error {
	r, err := value.NewReader(data, "res_group::")
	if err != nil {
		return &CodecError{Where: "group", Err: err}
	}
	var enforced uint32
	var memAdd, memRm, admAdd, admRm string
	if g.name, err = r.GetString(); err == nil {
		enforced, err = r.GetUint32()
	}
	if err == nil {
		g.passwd, err = r.GetString()
	}
	if err == nil {
		g.gid, err = r.GetUint32()
	}
	if err == nil {
		memAdd, err = r.GetString()
	}
	if err == nil {
		memRm, err = r.GetString()
	}
	if err == nil {
		admAdd, err = r.GetString()
	}
	if err == nil {
		admRm, err = r.GetString()
	}
	if err != nil {
		return &CodecError{Where: "group", Err: err}
	}
	g.enforced = Flags(enforced)
	g.memAdd = value.SplitStringList(memAdd, ".")
	g.memRm = value.SplitStringList(memRm, ".")
	g.admAdd = value.SplitStringList(admAdd, ".")
	g.admRm = value.SplitStringList(admRm, ".")
	return nil
}

func (g *Group) Notify(dep Resource) {}
