package provider

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
)

// MemEnv is an in-memory Env used by tests and by every warden CLI
// command; no OS-backed providers exist. It is not safe for concurrent
// use, matching the single-threaded reconciliation model.
type MemEnv struct {
	users    map[string]*PasswdEntry
	groups   map[string]*GroupEntry
	packages map[string]string // name -> version
	services map[string]*memService
	hosts    *memHostTable
	sysctls  map[string]string // live values
	persist  map[string]string // persisted values
	files    map[string]*memFile
	facts    memFacts
	sources  map[string][]byte
}

type memService struct {
	running bool
	enabled bool
}

type memFile struct {
	exists  bool
	uid     uint32
	gid     uint32
	mode    uint32
	isDir   bool
	content []byte
}

type memFacts map[string]string

func (f memFacts) Get(key string) (string, bool) { v, ok := f[key]; return v, ok }
func (f memFacts) All() map[string]string         { return map[string]string(f) }

// NewMemEnv builds an empty in-memory environment.
func NewMemEnv() *MemEnv {
	return &MemEnv{
		users:    make(map[string]*PasswdEntry),
		groups:   make(map[string]*GroupEntry),
		packages: make(map[string]string),
		services: make(map[string]*memService),
		hosts:    newMemHostTable(),
		sysctls:  make(map[string]string),
		persist:  make(map[string]string),
		files:    make(map[string]*memFile),
		facts:    make(memFacts),
		sources:  make(map[string][]byte),
	}
}

func (e *MemEnv) Users() UserDB             { return (*memUserDB)(e) }
func (e *MemEnv) Groups() GroupDB           { return (*memGroupDB)(e) }
func (e *MemEnv) Packages() PackageManager  { return (*memPackages)(e) }
func (e *MemEnv) Services() ServiceManager  { return (*memServices)(e) }
func (e *MemEnv) HostTable() HostTable      { return e.hosts }
func (e *MemEnv) Files() FileStat           { return (*memFiles)(e) }
func (e *MemEnv) Sysctl() Sysctl            { return (*memSysctl)(e) }
func (e *MemEnv) Facts() Facts              { return e.facts }
func (e *MemEnv) Source() Source            { return (*memSource)(e) }

// SeedUser pre-populates a passwd/shadow entry, as if it already existed
// on the host before reconciliation.
func (e *MemEnv) SeedUser(entry PasswdEntry) { e.users[entry.Name] = &entry }

// SeedGroup pre-populates a group entry.
func (e *MemEnv) SeedGroup(entry GroupEntry) { e.groups[entry.Name] = &entry }

// SeedPackage marks a package as already installed at version.
func (e *MemEnv) SeedPackage(name, version string) { e.packages[name] = version }

// SeedFile marks a path as already present with the given ownership/mode.
func (e *MemEnv) SeedFile(path string, uid, gid, mode uint32, isDir bool) {
	e.files[path] = &memFile{exists: true, uid: uid, gid: gid, mode: mode, isDir: isDir}
}

// SeedSource sets the remote content bytes returned for path.
func (e *MemEnv) SeedSource(path string, content []byte) { e.sources[path] = content }

// SeedFileContent sets the live local content of path, as if it were
// already on disk before reconciliation.
func (e *MemEnv) SeedFileContent(path string, content []byte) {
	f := (*memFiles)(e).file(path)
	f.exists = true
	f.content = content
}

// SeedFact sets a fact value.
func (e *MemEnv) SeedFact(key, val string) { e.facts[key] = val }

// SeedSysctl sets a live kernel value.
func (e *MemEnv) SeedSysctl(param, val string) { e.sysctls[param] = val }

type memUserDB MemEnv

func (m *memUserDB) Lookup(_ context.Context, name string) (*PasswdEntry, bool, error) {
	e, ok := m.users[name]
	return e, ok, nil
}
func (m *memUserDB) Insert(_ context.Context, e *PasswdEntry) error {
	m.users[e.Name] = e
	return nil
}
func (m *memUserDB) Update(_ context.Context, e *PasswdEntry) error {
	m.users[e.Name] = e
	return nil
}
func (m *memUserDB) Remove(_ context.Context, name string) error {
	delete(m.users, name)
	return nil
}

type memGroupDB MemEnv

func (m *memGroupDB) Lookup(_ context.Context, name string) (*GroupEntry, bool, error) {
	e, ok := m.groups[name]
	return e, ok, nil
}
func (m *memGroupDB) Insert(_ context.Context, e *GroupEntry) error {
	m.groups[e.Name] = e
	return nil
}
func (m *memGroupDB) Update(_ context.Context, e *GroupEntry) error {
	m.groups[e.Name] = e
	return nil
}
func (m *memGroupDB) Remove(_ context.Context, name string) error {
	delete(m.groups, name)
	return nil
}

type memPackages MemEnv

func (m *memPackages) Version(_ context.Context, name string) (string, bool, error) {
	v, ok := m.packages[name]
	return v, ok, nil
}
func (m *memPackages) Install(_ context.Context, name, version string) error {
	if version == "" {
		version = "installed"
	}
	m.packages[name] = version
	return nil
}
func (m *memPackages) Remove(_ context.Context, name string) error {
	delete(m.packages, name)
	return nil
}

type memServices MemEnv

func (m *memServices) service(name string) *memService {
	s, ok := m.services[name]
	if !ok {
		s = &memService{}
		m.services[name] = s
	}
	return s
}
func (m *memServices) Running(_ context.Context, name string) (bool, error) {
	return m.service(name).running, nil
}
func (m *memServices) Enabled(_ context.Context, name string) (bool, error) {
	return m.service(name).enabled, nil
}
func (m *memServices) Start(_ context.Context, name string) error {
	m.service(name).running = true
	return nil
}
func (m *memServices) Stop(_ context.Context, name string) error {
	m.service(name).running = false
	return nil
}
func (m *memServices) Enable(_ context.Context, name string) error {
	m.service(name).enabled = true
	return nil
}
func (m *memServices) Disable(_ context.Context, name string) error {
	m.service(name).enabled = false
	return nil
}
func (m *memServices) Reload(_ context.Context, name string) error { return nil }

type memFiles MemEnv

func (m *memFiles) file(path string) *memFile {
	f, ok := m.files[path]
	if !ok {
		f = &memFile{}
		m.files[path] = f
	}
	return f
}
func (m *memFiles) Stat(_ context.Context, path string) (FileMeta, error) {
	f := m.file(path)
	return FileMeta{Exists: f.exists, UID: f.uid, GID: f.gid, Mode: f.mode, IsDir: f.isDir}, nil
}
func (m *memFiles) Chown(_ context.Context, path string, uid, gid uint32) error {
	f := m.file(path)
	f.uid, f.gid = uid, gid
	return nil
}
func (m *memFiles) Chmod(_ context.Context, path string, mode uint32) error {
	f := m.file(path)
	f.exists = true
	f.mode = mode
	return nil
}
func (m *memFiles) Mkdir(_ context.Context, path string, mode uint32) error {
	f := m.file(path)
	f.exists, f.isDir, f.mode = true, true, mode
	return nil
}
func (m *memFiles) Remove(_ context.Context, path string) error {
	delete(m.files, path)
	return nil
}
func (m *memFiles) ReadContent(_ context.Context, path string) (io.ReadCloser, error) {
	f, ok := m.files[path]
	if !ok || !f.exists {
		return nil, fmt.Errorf("provider: no such file %s", path)
	}
	return io.NopCloser(bytes.NewReader(f.content)), nil
}
func (m *memFiles) WriteContent(_ context.Context, path string, r io.Reader) error {
	content, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f := m.file(path)
	f.exists = true
	f.content = content
	return nil
}

type memSysctl MemEnv

func (m *memSysctl) ReadLive(_ context.Context, param string) (string, error) {
	return m.sysctls[param], nil
}
func (m *memSysctl) WriteLive(_ context.Context, param, value string) error {
	m.sysctls[param] = value
	return nil
}
func (m *memSysctl) ReadPersisted(_ context.Context, param string) (string, bool, error) {
	v, ok := m.persist[param]
	return v, ok, nil
}
func (m *memSysctl) WritePersisted(_ context.Context, param, value string) error {
	m.persist[param] = value
	return nil
}

type memSource MemEnv

func (m *memSource) Open(_ context.Context, key string) (io.ReadCloser, int64, error) {
	content, ok := m.sources[key]
	if !ok {
		return nil, -1, fmt.Errorf("provider: no source for %s", key)
	}
	return io.NopCloser(bytes.NewReader(content)), int64(len(content)), nil
}

// memHostTable implements HostTable over a small keyed tree, the
// in-memory analogue of an Augeas lens over /etc/hosts. Each entry is
// addressed by an opaque base path (e.g. "hosts/web1") with "/canonical",
// "/ip", and ordered "/alias[k]" children.
type memHostTable struct {
	entries map[string]string // full path -> value
	bases   []string          // entry base paths in creation order
}

func newMemHostTable() *memHostTable {
	return &memHostTable{entries: make(map[string]string)}
}

func (h *memHostTable) Match(_ context.Context, pattern string) ([]string, error) {
	want := extractQuoted(pattern, "canonical")
	var matches []string
	for _, base := range h.bases {
		if h.entries[base+"/canonical"] == want {
			matches = append(matches, base)
		}
	}
	return matches, nil
}

func extractQuoted(pattern, field string) string {
	marker := field + "='"
	i := strings.Index(pattern, marker)
	if i < 0 {
		return ""
	}
	rest := pattern[i+len(marker):]
	j := strings.Index(rest, "'")
	if j < 0 {
		return rest
	}
	return rest[:j]
}

func (h *memHostTable) Get(_ context.Context, path string) (string, bool, error) {
	v, ok := h.entries[path]
	return v, ok, nil
}

func (h *memHostTable) baseOf(path string) string {
	for _, sep := range []string{"/canonical", "/ip", "/alias"} {
		if i := strings.Index(path, sep); i >= 0 {
			return path[:i]
		}
	}
	return path
}

func (h *memHostTable) Set(ctx context.Context, path, value string) error {
	if strings.HasSuffix(path, "[last()+1]") {
		base := strings.TrimSuffix(path, "[last()+1]")
		existing, _ := h.GetMany(ctx, base)
		path = fmt.Sprintf("%s[%d]", base, len(existing)+1)
	}
	base := h.baseOf(path)
	known := false
	for _, b := range h.bases {
		if b == base {
			known = true
			break
		}
	}
	if !known {
		h.bases = append(h.bases, base)
	}
	h.entries[path] = value
	return nil
}

func (h *memHostTable) Remove(_ context.Context, path string) error {
	for k := range h.entries {
		if k == path || strings.HasPrefix(k, path+"/") || strings.HasPrefix(k, path+"[") {
			delete(h.entries, k)
		}
	}
	return nil
}

func (h *memHostTable) GetMany(_ context.Context, pattern string) ([]string, error) {
	var out []string
	for i := 1; ; i++ {
		v, ok := h.entries[fmt.Sprintf("%s[%d]", pattern, i)]
		if !ok {
			break
		}
		out = append(out, v)
	}
	return out, nil
}
