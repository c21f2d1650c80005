// Package memory implements registry.Backend as an in-process tree. It
// follows the native store's rules closely enough to run the facade on any
// platform: case-insensitive names, access masks, volatile keys, handles to
// deleted keys, and .reg files for LoadKey and SaveKey.
//
// HKEY_CLASSES_ROOT and HKEY_CURRENT_CONFIG are plain roots here rather than
// merged or linked views of other keys. There is a single registry view.
package memory

import (
	"bytes"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/joshuapare/winreg/internal/handles"
	"github.com/joshuapare/winreg/internal/portable"
	"github.com/joshuapare/winreg/pkg/regfile"
	"github.com/joshuapare/winreg/pkg/registry"
	"github.com/joshuapare/winreg/pkg/types"
)

type entry struct {
	name string
	kind types.RegType
	data []byte
}

type node struct {
	name      string
	parent    *node
	children  map[string]*node
	values    []*entry
	volatile  bool
	deleted   bool
	lastWrite time.Time
}

type openKey struct {
	node   *node
	access types.Access
}

// Store is an in-memory registry. It is safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	roots   map[types.Handle]*node
	open    *handles.Table[*openKey]
	remotes map[string]*Store
	now     func() time.Time
	format  string
}

var _ registry.Backend = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithRemote makes remote reachable through Connect under machine.
func WithRemote(machine string, remote *Store) Option {
	return func(s *Store) { s.remotes[portable.MachineKey(machine)] = remote }
}

// WithClock sets the time source for last-write timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithSaveEncoding selects the regfile encoding SaveKey writes.
func WithSaveEncoding(enc string) Option {
	return func(s *Store) { s.format = enc }
}

// New returns an empty store holding only the predefined roots.
func New(opts ...Option) *Store {
	s := &Store{
		roots:   make(map[types.Handle]*node, len(types.Roots)),
		open:    handles.New[*openKey](),
		remotes: make(map[string]*Store),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, h := range types.Roots {
		s.roots[h] = &node{name: h.RootName(), children: make(map[string]*node), lastWrite: s.now()}
	}
	return s
}

// OpenHandles reports how many handles are open.
func (s *Store) OpenHandles() int { return s.open.Len() }

// resolve maps h to its node and granted access. Callers hold s.mu.
func (s *Store) resolve(h types.Handle) (*node, types.Access, error) {
	if n, ok := s.roots[h]; ok {
		return n, portable.RootAccess, nil
	}
	k, ok := s.open.Get(h)
	if !ok {
		return nil, 0, types.StatusInvalidHandle
	}
	if k.node.deleted {
		return nil, 0, types.StatusKeyDeleted
	}
	return k.node, k.access, nil
}

func (s *Store) lookup(n *node, sub string) (*node, error) {
	names, err := portable.SplitPath(sub)
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		child, ok := n.children[portable.Fold(name)]
		if !ok {
			return nil, types.StatusFileNotFound
		}
		n = child
	}
	return n, nil
}

func (s *Store) OpenKey(parent types.Handle, sub string, access types.Access) (types.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := portable.CheckOpen(access); err != nil {
		return 0, err
	}
	p, _, err := s.resolve(parent)
	if err != nil {
		return 0, err
	}
	n, err := s.lookup(p, sub)
	if err != nil {
		return 0, err
	}
	return s.open.Add(&openKey{node: n, access: access &^ access.View()}), nil
}

func (s *Store) CreateKey(parent types.Handle, sub string, options types.CreateOption, access types.Access,
	_ *types.SecurityAttributes) (types.Handle, types.Disposition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := portable.CheckOpen(access); err != nil {
		return 0, 0, err
	}
	p, granted, err := s.resolve(parent)
	if err != nil {
		return 0, 0, err
	}
	names, err := portable.SplitPath(sub)
	if err != nil {
		return 0, 0, err
	}
	if len(names) == 0 {
		return 0, 0, types.StatusInvalidParameter
	}

	volatile := options&types.REG_OPTION_VOLATILE != 0
	disp := types.REG_OPENED_EXISTING_KEY
	n := p
	for _, name := range names {
		if child, ok := n.children[portable.Fold(name)]; ok {
			n = child
			continue
		}
		if err := portable.Require(granted, types.KEY_CREATE_SUB_KEY); err != nil && n == p {
			return 0, 0, err
		}
		if n.volatile && !volatile {
			return 0, 0, types.StatusChildMustBeVolatile
		}
		n = s.addChild(n, name, volatile)
		disp = types.REG_CREATED_NEW_KEY
	}
	return s.open.Add(&openKey{node: n, access: access &^ access.View()}), disp, nil
}

func (s *Store) addChild(parent *node, name string, volatile bool) *node {
	child := &node{
		name:      name,
		parent:    parent,
		children:  make(map[string]*node),
		volatile:  volatile,
		lastWrite: s.now(),
	}
	parent.children[portable.Fold(name)] = child
	parent.lastWrite = child.lastWrite
	return child
}

func (s *Store) CloseKey(h types.Handle) error {
	if h.IsPredefined() {
		return nil
	}
	if _, ok := s.open.Remove(h); !ok {
		return types.StatusInvalidHandle
	}
	return nil
}

func (s *Store) QueryInfoKey(h types.Handle) (types.KeyInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, granted, err := s.resolve(h)
	if err != nil {
		return types.KeyInfo{}, err
	}
	if err := portable.Require(granted, types.KEY_QUERY_VALUE); err != nil {
		return types.KeyInfo{}, err
	}
	info := types.KeyInfo{
		SubKeys:   uint32(len(n.children)),
		Values:    uint32(len(n.values)),
		LastWrite: n.lastWrite,
	}
	for _, c := range n.children {
		info.MaxSubKeyLen = max(info.MaxSubKeyLen, portable.UnitLen(c.name))
	}
	for _, e := range n.values {
		info.MaxValueNameLen = max(info.MaxValueNameLen, portable.UnitLen(e.name))
		info.MaxValueLen = max(info.MaxValueLen, uint32(len(e.data)))
	}
	return info, nil
}

// sortedChildren returns subkeys in the native enumeration order: by
// upper-cased name.
func sortedChildren(n *node) []*node {
	out := make([]*node, 0, len(n.children))
	for _, c := range n.children {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b *node) int {
		return strings.Compare(portable.Fold(a.name), portable.Fold(b.name))
	})
	return out
}

func (s *Store) EnumKey(h types.Handle, index uint32, name []byte) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, granted, err := s.resolve(h)
	if err != nil {
		return 0, err
	}
	if err := portable.Require(granted, types.KEY_ENUMERATE_SUB_KEYS); err != nil {
		return 0, err
	}
	children := sortedChildren(n)
	if int(index) >= len(children) {
		return 0, types.StatusNoMoreItems
	}
	return portable.PutName(name, children[index].name)
}

func (s *Store) EnumValue(h types.Handle, index uint32, name []byte) (uint32, types.RegType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, granted, err := s.resolve(h)
	if err != nil {
		return 0, 0, err
	}
	if err := portable.Require(granted, types.KEY_QUERY_VALUE); err != nil {
		return 0, 0, err
	}
	if int(index) >= len(n.values) {
		return 0, 0, types.StatusNoMoreItems
	}
	e := n.values[index]
	units, err := portable.PutName(name, e.name)
	if err != nil {
		return 0, 0, err
	}
	return units, e.kind, nil
}

func findValue(n *node, name string) int {
	folded := portable.Fold(name)
	return slices.IndexFunc(n.values, func(e *entry) bool { return portable.Fold(e.name) == folded })
}

func (s *Store) QueryValue(h types.Handle, name string, data []byte) (types.RegType, uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, granted, err := s.resolve(h)
	if err != nil {
		return 0, 0, err
	}
	if err := portable.Require(granted, types.KEY_QUERY_VALUE); err != nil {
		return 0, 0, err
	}
	i := findValue(n, name)
	if i < 0 {
		return 0, 0, types.StatusFileNotFound
	}
	e := n.values[i]
	size, err := portable.PutData(data, e.data)
	return e.kind, size, err
}

func (s *Store) SetValue(h types.Handle, name string, kind types.RegType, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, granted, err := s.resolve(h)
	if err != nil {
		return err
	}
	if err := portable.Require(granted, types.KEY_SET_VALUE); err != nil {
		return err
	}
	if err := portable.CheckValueName(name); err != nil {
		return err
	}
	s.setValue(n, name, kind, data)
	return nil
}

func (s *Store) setValue(n *node, name string, kind types.RegType, data []byte) {
	data = bytes.Clone(data)
	if i := findValue(n, name); i >= 0 {
		n.values[i].kind, n.values[i].data = kind, data
	} else {
		n.values = append(n.values, &entry{name: name, kind: kind, data: data})
	}
	n.lastWrite = s.now()
}

func (s *Store) DeleteValue(h types.Handle, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, granted, err := s.resolve(h)
	if err != nil {
		return err
	}
	if err := portable.Require(granted, types.KEY_SET_VALUE); err != nil {
		return err
	}
	i := findValue(n, name)
	if i < 0 {
		return types.StatusFileNotFound
	}
	n.values = slices.Delete(n.values, i, i+1)
	n.lastWrite = s.now()
	return nil
}

func (s *Store) DeleteKey(parent types.Handle, sub string, view types.Access) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if view&^(types.KEY_WOW64_32KEY|types.KEY_WOW64_64KEY) != 0 || !view.ValidView() {
		return types.StatusInvalidParameter
	}
	p, _, err := s.resolve(parent)
	if err != nil {
		return err
	}
	n, err := s.lookup(p, sub)
	if err != nil {
		return err
	}
	if n.parent == nil {
		return types.StatusAccessDenied
	}
	if len(n.children) > 0 {
		return types.StatusAccessDenied
	}
	s.detach(n)
	return nil
}

func (s *Store) DeleteTree(parent types.Handle, sub string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, granted, err := s.resolve(parent)
	if err != nil {
		return err
	}
	n, err := s.lookup(p, sub)
	if err != nil {
		return err
	}
	if n == p {
		// An empty sub clears the key itself but keeps it.
		if err := portable.Require(granted, types.KEY_SET_VALUE|types.KEY_ENUMERATE_SUB_KEYS); err != nil {
			return err
		}
		for _, c := range sortedChildren(n) {
			s.detach(c)
		}
		n.values = nil
		n.lastWrite = s.now()
		return nil
	}
	if n.parent == nil {
		return types.StatusAccessDenied
	}
	s.detach(n)
	return nil
}

// detach unlinks n from its parent and marks its whole subtree deleted, so
// handles still open on it report StatusKeyDeleted.
func (s *Store) detach(n *node) {
	delete(n.parent.children, portable.Fold(n.name))
	n.parent.lastWrite = s.now()
	markDeleted(n)
}

func markDeleted(n *node) {
	n.deleted = true
	for _, c := range n.children {
		markDeleted(c)
	}
}

func (s *Store) LoadKey(parent types.Handle, sub, file string) error {
	if err := portable.CheckLoad(parent, sub); err != nil {
		return err
	}
	raw, err := os.ReadFile(file)
	if err != nil {
		if os.IsNotExist(err) {
			return types.StatusFileNotFound
		}
		return err
	}
	ops, err := regfile.Parse(raw)
	if err != nil {
		return err
	}
	_, rel, err := regfile.Subtree(ops)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.roots[parent]
	if _, exists := p.children[portable.Fold(sub)]; exists {
		return types.StatusAlreadyExists
	}
	mount := s.addChild(p, strings.Trim(sub, `\`), false)
	for _, op := range rel {
		n, err := s.ensure(mount, op.Path)
		if err != nil {
			s.detach(mount)
			return err
		}
		if op.Kind == regfile.OpSetValue {
			s.setValue(n, op.Name, op.Type, op.Data)
		}
	}
	return nil
}

// ensure walks sub below n, creating missing nodes.
func (s *Store) ensure(n *node, sub string) (*node, error) {
	names, err := portable.SplitPath(sub)
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		child, ok := n.children[portable.Fold(name)]
		if !ok {
			child = s.addChild(n, name, false)
		}
		n = child
	}
	return n, nil
}

func (s *Store) SaveKey(h types.Handle, file string, _ *types.SecurityAttributes) error {
	s.mu.Lock()
	n, _, err := s.resolve(h)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	var sections []regfile.Section
	collect(n, fullPath(n), &sections)
	s.mu.Unlock()

	f, err := os.OpenFile(file, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return types.StatusAlreadyExists
		}
		return err
	}
	if err := regfile.Export(f, sections, regfile.Options{Encoding: s.format}); err != nil {
		f.Close()
		os.Remove(file)
		return err
	}
	return f.Close()
}

// collect appends n and its non-volatile descendants, parents first.
func collect(n *node, path string, out *[]regfile.Section) {
	sec := regfile.Section{Path: path, Values: make([]regfile.Entry, 0, len(n.values))}
	for _, e := range n.values {
		sec.Values = append(sec.Values, regfile.Entry{Name: e.name, Kind: e.kind, Data: bytes.Clone(e.data)})
	}
	*out = append(*out, sec)
	for _, c := range sortedChildren(n) {
		if c.volatile {
			continue
		}
		collect(c, path+`\`+c.name, out)
	}
}

func fullPath(n *node) string {
	var names []string
	for ; n != nil; n = n.parent {
		names = append(names, n.name)
	}
	slices.Reverse(names)
	return strings.Join(names, `\`)
}

func (s *Store) Connect(machine string, root types.Handle) (registry.Backend, types.Handle, error) {
	if !root.IsPredefined() {
		return nil, 0, types.StatusInvalidHandle
	}
	key := portable.MachineKey(machine)
	if key == "" {
		return s, root, nil
	}
	s.mu.Lock()
	remote, ok := s.remotes[key]
	s.mu.Unlock()
	if !ok {
		return nil, 0, types.StatusBadNetPath
	}
	if !portable.RemoteRoot(root) {
		return nil, 0, types.StatusInvalidParameter
	}
	return remote, root, nil
}
