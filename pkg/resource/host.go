package resource

import (
	"context"
	"fmt"

	"github.com/strandline/warden/pkg/provider"
	"github.com/strandline/warden/pkg/value"
)

// Host is the res_host kind: a /etc/hosts entry identified by (ip,
// hostname), persisted through the host-table editor.
type Host struct {
	hostname  string
	enforced  Flags
	different Flags

	ip      string
	aliases *value.StringList

	treePath        string
	observedExists  bool
	observedIP      string
	observedAliases *value.StringList
}

// NewHost constructs a Host resource keyed by hostname.
func NewHost(hostname string) *Host {
	return &Host{hostname: hostname, aliases: value.NewStringList()}
}

func (h *Host) Kind() Kind       { return KindHost }
func (h *Host) Key() string      { return h.hostname }
func (h *Host) ID() string       { return fmt.Sprintf("%s:%s", KindHost, h.hostname) }
func (h *Host) Enforced() Flags  { return h.enforced }
func (h *Host) Different() Flags { return h.different }

func (h *Host) Set(name, val string) error {
	switch name {
	case "present":
		if val == "no" || val == "false" {
			h.enforced |= FlagAbsent
		} else {
			h.enforced &^= FlagAbsent
		}
	case "ip":
		h.ip = val
		h.enforced |= HostIP
	case "alias":
		h.aliases.Add(val)
		h.enforced |= HostAliases
	default:
		return &InvalidAttributeError{Kind: KindHost, Name: name}
	}
	return nil
}

func (h *Host) Match(name, val string) bool {
	switch name {
	case "hostname":
		return h.hostname == val
	case "ip":
		return h.ip == val
	default:
		return false
	}
}

func (h *Host) Norm(pol Normalizer, facts map[string]string) error {
	h.treePath = fmt.Sprintf("hosts/%s[canonical='%s']", h.ip, h.hostname)
	return nil
}

func (h *Host) Stat(ctx context.Context, env provider.Env) error {
	h.different = 0
	paths, err := env.HostTable().Match(ctx, fmt.Sprintf("hosts/*[canonical='%s']", h.hostname))
	if err != nil {
		return &ProviderError{Op: "host.match", Detail: h.hostname, Err: err}
	}
	exists := len(paths) > 0
	h.observedExists = exists
	if h.enforced.Has(FlagAbsent) {
		if exists {
			h.different |= FlagAbsent
		}
		return nil
	}
	if !exists {
		h.different = h.enforced &^ FlagAbsent
		return nil
	}
	base := paths[0]
	h.treePath = base
	ip, _, err := env.HostTable().Get(ctx, base+"/ip")
	if err != nil {
		return &ProviderError{Op: "host.get", Detail: base + "/ip", Err: err}
	}
	h.observedIP = ip
	if h.enforced.Any(HostIP) && ip != h.ip {
		h.different |= HostIP
	}
	aliasVals, err := env.HostTable().GetMany(ctx, base+"/alias")
	if err != nil {
		return &ProviderError{Op: "host.getm", Detail: base + "/alias", Err: err}
	}
	h.observedAliases = value.NewStringList(aliasVals...)
	if h.enforced.Any(HostAliases) {
		added, removed := value.Diff(h.observedAliases, h.aliases)
		if len(added) > 0 || len(removed) > 0 {
			h.different |= HostAliases
		}
	}
	return nil
}

func (h *Host) Fixup(ctx context.Context, dryrun bool, env provider.Env) *Report {
	rep := &Report{Kind: KindHost, Key: h.hostname}

	if h.enforced.Has(FlagAbsent) {
		if h.different.Has(FlagAbsent) {
			outcome := Succeeded
			if dryrun {
				outcome = Skipped
			} else if err := env.HostTable().Remove(ctx, h.treePath); err != nil {
				outcome = Failed
			}
			rep.Add("remove host entry", outcome)
		}
		return rep
	}

	isNew := false
	if !h.observedExists {
		h.treePath = fmt.Sprintf("hosts/%s", h.hostname)
		outcome := Succeeded
		if dryrun {
			outcome = Skipped
		} else {
			if err := env.HostTable().Set(ctx, h.treePath+"/canonical", h.hostname); err != nil {
				outcome = Failed
			} else if err := env.HostTable().Set(ctx, h.treePath+"/ip", h.ip); err != nil {
				outcome = Failed
			}
		}
		rep.Add("create host entry", outcome)
		if outcome == Failed {
			return rep
		}
		isNew = true
		h.different = h.enforced &^ (FlagAbsent | HostIP)
	}

	phrase := func(label, v string) string {
		if isNew {
			return fmt.Sprintf("set %s to %s", label, v)
		}
		return fmt.Sprintf("change %s to %s", label, v)
	}

	if h.different.Any(HostIP) {
		outcome := Succeeded
		if dryrun {
			outcome = Skipped
		} else if err := env.HostTable().Set(ctx, h.treePath+"/ip", h.ip); err != nil {
			outcome = Failed
		}
		rep.Add(phrase("ip address", h.ip), outcome)
	}
	if h.different.Any(HostAliases) {
		outcome := Succeeded
		if !dryrun {
			existing, err := env.HostTable().GetMany(ctx, h.treePath+"/alias")
			if err == nil {
				for i := range existing {
					_ = env.HostTable().Remove(ctx, fmt.Sprintf("%s/alias[%d]", h.treePath, i+1))
				}
			}
			for _, a := range h.aliases.Items() {
				if err := env.HostTable().Set(ctx, h.treePath+"/alias[last()+1]", a); err != nil {
					outcome = Failed
				}
			}
		} else {
			outcome = Skipped
		}
		rep.Add(phrase("aliases", h.aliases.Join(" ")), outcome)
	}

	return rep
}

func (h *Host) Pack() []byte {
	w := value.NewWriter("res_host::")
	w.PutString(h.hostname).PutUint32(uint32(h.enforced))
	w.PutString(h.ip).PutString(h.aliases.Join(" "))
	return w.Bytes()
}

func (h *Host) Unpack(data []byte) error {
	r, err := value.NewReader(data, "res_host::")
	if err != nil {
		return &CodecError{Where: "host", Err: err}
	}
	var enforced uint32
	var aliases string
	if h.hostname, err = r.GetString(); err == nil {
		enforced, err = r.GetUint32()
	}
	if err == nil {
		h.ip, err = r.GetString()
	}
	if err == nil {
		aliases, err = r.GetString()
	}
	if err != nil {
		return &CodecError{Where: "host", Err: err}
	}
	h.enforced = Flags(enforced)
	h.aliases = value.SplitStringList(aliases, " ")
	return nil
}

func (h *Host) Notify(dep Resource) {}
