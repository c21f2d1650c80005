// Package boltstore implements registry.Backend on a bbolt database file, so
// a tree written through the facade outlives the process.
//
// Every key is a bucket holding a cbor meta record and two nested buckets:
// "keys" for subkeys, indexed by folded name, and "values" for cbor value
// records. Volatile keys are purged when the database is opened, the way the
// native store drops them at boot.
package boltstore

import (
	"bytes"
	"cmp"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"
	"go.etcd.io/bbolt"

	"github.com/joshuapare/winreg/internal/handles"
	"github.com/joshuapare/winreg/internal/logger"
	"github.com/joshuapare/winreg/internal/portable"
	"github.com/joshuapare/winreg/pkg/regfile"
	"github.com/joshuapare/winreg/pkg/registry"
	"github.com/joshuapare/winreg/pkg/types"
)

var (
	bucketRoots  = []byte("roots")
	bucketKeys   = []byte("keys")
	bucketValues = []byte("values")

	keyMeta = []byte("meta")
)

type nodeMeta struct {
	ID        uint64
	Name      string
	LastWrite int64 // unix nanoseconds
	Volatile  bool  `cbor:",omitempty"`
}

// valueRecord is one stored value. Seq keeps enumeration in insertion order.
type valueRecord struct {
	Name string
	Kind types.RegType
	Data []byte
	Seq  uint64
}

type openKey struct {
	path   []string // folded names, path[0] is the root name
	id     uint64
	access types.Access
}

// node is a key bucket loaded inside a transaction.
type node struct {
	b    *bbolt.Bucket
	meta nodeMeta
	path []string
}

// Store is a registry persisted in a bbolt file. It is safe for concurrent
// use; writes are serialized by bbolt.
type Store struct {
	db      *bbolt.DB
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

// Open opens or creates the database at path.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{
		open:    handles.New[*openKey](),
		remotes: make(map[string]*Store),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	s.db = db

	var purged int
	err = db.Update(func(tx *bbolt.Tx) error {
		roots, err := tx.CreateBucketIfNotExists(bucketRoots)
		if err != nil {
			return err
		}
		for _, h := range types.Roots {
			b := roots.Bucket([]byte(h.RootName()))
			if b == nil {
				if _, err := s.newNode(tx, roots, h.RootName(), h.RootName(), false); err != nil {
					return err
				}
				continue
			}
			n, err := purgeVolatile(b)
			if err != nil {
				return err
			}
			purged += n
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize database: %w", err)
	}
	if purged > 0 {
		logger.Debug("purged volatile keys", "path", path, "count", purged)
	}
	return s, nil
}

// Close releases the database. Open handles become invalid.
func (s *Store) Close() error {
	return s.db.Close()
}

// OpenHandles reports how many handles are open.
func (s *Store) OpenHandles() int { return s.open.Len() }

// newNode creates a key bucket named key inside parent.
func (s *Store) newNode(tx *bbolt.Tx, parent *bbolt.Bucket, key, name string, volatile bool) (*bbolt.Bucket, error) {
	id, err := tx.Bucket(bucketRoots).NextSequence()
	if err != nil {
		return nil, err
	}
	b, err := parent.CreateBucket([]byte(key))
	if err != nil {
		return nil, err
	}
	if _, err := b.CreateBucket(bucketKeys); err != nil {
		return nil, err
	}
	if _, err := b.CreateBucket(bucketValues); err != nil {
		return nil, err
	}
	n := node{b: b, meta: nodeMeta{ID: id, Name: name, LastWrite: s.now().UnixNano(), Volatile: volatile}}
	return b, n.save()
}

func loadNode(b *bbolt.Bucket, path []string) (node, error) {
	var m nodeMeta
	if err := cbor.Unmarshal(b.Get(keyMeta), &m); err != nil {
		return node{}, fmt.Errorf("unmarshal key meta: %w", err)
	}
	return node{b: b, meta: m, path: path}, nil
}

func (n *node) save() error {
	data, err := cbor.Marshal(n.meta)
	if err != nil {
		return fmt.Errorf("marshal key meta: %w", err)
	}
	return n.b.Put(keyMeta, data)
}

func (n *node) keys() *bbolt.Bucket   { return n.b.Bucket(bucketKeys) }
func (n *node) values() *bbolt.Bucket { return n.b.Bucket(bucketValues) }

func (s *Store) touch(n *node) error {
	n.meta.LastWrite = s.now().UnixNano()
	return n.save()
}

func (n *node) child(name string) (node, bool, error) {
	key := portable.Fold(name)
	b := n.keys().Bucket([]byte(key))
	if b == nil {
		return node{}, false, nil
	}
	c, err := loadNode(b, append(slices.Clip(n.path), key))
	return c, err == nil, err
}

func (n *node) hasChildren() bool {
	k, _ := n.keys().Cursor().First()
	return k != nil
}

// children returns the subkeys in cursor order, which is the folded-name
// order the native store enumerates in.
func (n *node) children() ([]node, error) {
	var out []node
	err := n.keys().ForEachBucket(func(k []byte) error {
		c, err := loadNode(n.keys().Bucket(k), append(slices.Clip(n.path), string(k)))
		if err != nil {
			return err
		}
		out = append(out, c)
		return nil
	})
	return out, err
}

func (n *node) records() ([]valueRecord, error) {
	var out []valueRecord
	err := n.values().ForEach(func(_, v []byte) error {
		var rec valueRecord
		if err := cbor.Unmarshal(v, &rec); err != nil {
			return fmt.Errorf("unmarshal value record: %w", err)
		}
		out = append(out, rec)
		return nil
	})
	slices.SortFunc(out, func(a, b valueRecord) int { return cmp.Compare(a.Seq, b.Seq) })
	return out, err
}

// valueKey is the bucket key of a value record. The prefix keeps the
// unnamed default value from mapping to an empty key, which bbolt rejects.
func valueKey(name string) []byte {
	return []byte("v:" + portable.Fold(name))
}

func (n *node) record(name string) (valueRecord, bool, error) {
	data := n.values().Get(valueKey(name))
	if data == nil {
		return valueRecord{}, false, nil
	}
	var rec valueRecord
	if err := cbor.Unmarshal(data, &rec); err != nil {
		return valueRecord{}, false, fmt.Errorf("unmarshal value record: %w", err)
	}
	return rec, true, nil
}

func rootNode(tx *bbolt.Tx, h types.Handle) (node, error) {
	name := h.RootName()
	b := tx.Bucket(bucketRoots).Bucket([]byte(name))
	if b == nil {
		return node{}, types.StatusInvalidHandle
	}
	return loadNode(b, []string{name})
}

// resolve maps h to its key and granted access. A handle whose key was
// deleted, even if a key with the same path exists again, reports
// StatusKeyDeleted.
func (s *Store) resolve(tx *bbolt.Tx, h types.Handle) (node, types.Access, error) {
	if h.IsPredefined() {
		n, err := rootNode(tx, h)
		return n, portable.RootAccess, err
	}
	k, ok := s.open.Get(h)
	if !ok {
		return node{}, 0, types.StatusInvalidHandle
	}
	b := tx.Bucket(bucketRoots).Bucket([]byte(k.path[0]))
	for _, key := range k.path[1:] {
		if b = b.Bucket(bucketKeys).Bucket([]byte(key)); b == nil {
			return node{}, 0, types.StatusKeyDeleted
		}
	}
	n, err := loadNode(b, k.path)
	if err != nil {
		return node{}, 0, err
	}
	if n.meta.ID != k.id {
		return node{}, 0, types.StatusKeyDeleted
	}
	return n, k.access, nil
}

func lookup(n node, sub string) (node, error) {
	names, err := portable.SplitPath(sub)
	if err != nil {
		return node{}, err
	}
	for _, name := range names {
		c, ok, err := n.child(name)
		if err != nil {
			return node{}, err
		}
		if !ok {
			return node{}, types.StatusFileNotFound
		}
		n = c
	}
	return n, nil
}

func (s *Store) add(n node, access types.Access) types.Handle {
	return s.open.Add(&openKey{path: n.path, id: n.meta.ID, access: access &^ access.View()})
}

func (s *Store) OpenKey(parent types.Handle, sub string, access types.Access) (types.Handle, error) {
	if err := portable.CheckOpen(access); err != nil {
		return 0, err
	}
	var h types.Handle
	err := s.db.View(func(tx *bbolt.Tx) error {
		p, _, err := s.resolve(tx, parent)
		if err != nil {
			return err
		}
		n, err := lookup(p, sub)
		if err != nil {
			return err
		}
		h = s.add(n, access)
		return nil
	})
	return h, err
}

func (s *Store) CreateKey(parent types.Handle, sub string, options types.CreateOption, access types.Access,
	_ *types.SecurityAttributes) (types.Handle, types.Disposition, error) {
	if err := portable.CheckOpen(access); err != nil {
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

	var (
		h    types.Handle
		disp = types.REG_OPENED_EXISTING_KEY
	)
	err = s.db.Update(func(tx *bbolt.Tx) error {
		p, granted, err := s.resolve(tx, parent)
		if err != nil {
			return err
		}
		n := p
		for i, name := range names {
			c, ok, err := n.child(name)
			if err != nil {
				return err
			}
			if ok {
				n = c
				continue
			}
			if i == 0 {
				if err := portable.Require(granted, types.KEY_CREATE_SUB_KEY); err != nil {
					return err
				}
			}
			if n.meta.Volatile && !volatile {
				return types.StatusChildMustBeVolatile
			}
			key := portable.Fold(name)
			b, err := s.newNode(tx, n.keys(), key, name, volatile)
			if err != nil {
				return err
			}
			if err := s.touch(&n); err != nil {
				return err
			}
			if n, err = loadNode(b, append(slices.Clip(n.path), key)); err != nil {
				return err
			}
			disp = types.REG_CREATED_NEW_KEY
		}
		h = s.add(n, access)
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return h, disp, nil
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
	var info types.KeyInfo
	err := s.db.View(func(tx *bbolt.Tx) error {
		n, granted, err := s.resolve(tx, h)
		if err != nil {
			return err
		}
		if err := portable.Require(granted, types.KEY_QUERY_VALUE); err != nil {
			return err
		}
		children, err := n.children()
		if err != nil {
			return err
		}
		recs, err := n.records()
		if err != nil {
			return err
		}
		info = types.KeyInfo{
			SubKeys:   uint32(len(children)),
			Values:    uint32(len(recs)),
			LastWrite: time.Unix(0, n.meta.LastWrite).UTC(),
		}
		for _, c := range children {
			info.MaxSubKeyLen = max(info.MaxSubKeyLen, portable.UnitLen(c.meta.Name))
		}
		for _, rec := range recs {
			info.MaxValueNameLen = max(info.MaxValueNameLen, portable.UnitLen(rec.Name))
			info.MaxValueLen = max(info.MaxValueLen, uint32(len(rec.Data)))
		}
		return nil
	})
	return info, err
}

func (s *Store) EnumKey(h types.Handle, index uint32, name []byte) (uint32, error) {
	var units uint32
	err := s.db.View(func(tx *bbolt.Tx) error {
		n, granted, err := s.resolve(tx, h)
		if err != nil {
			return err
		}
		if err := portable.Require(granted, types.KEY_ENUMERATE_SUB_KEYS); err != nil {
			return err
		}
		children, err := n.children()
		if err != nil {
			return err
		}
		if int(index) >= len(children) {
			return types.StatusNoMoreItems
		}
		units, err = portable.PutName(name, children[index].meta.Name)
		return err
	})
	return units, err
}

func (s *Store) EnumValue(h types.Handle, index uint32, name []byte) (uint32, types.RegType, error) {
	var (
		units uint32
		kind  types.RegType
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		n, granted, err := s.resolve(tx, h)
		if err != nil {
			return err
		}
		if err := portable.Require(granted, types.KEY_QUERY_VALUE); err != nil {
			return err
		}
		recs, err := n.records()
		if err != nil {
			return err
		}
		if int(index) >= len(recs) {
			return types.StatusNoMoreItems
		}
		kind = recs[index].Kind
		units, err = portable.PutName(name, recs[index].Name)
		return err
	})
	if err != nil {
		return 0, 0, err
	}
	return units, kind, nil
}

func (s *Store) QueryValue(h types.Handle, name string, data []byte) (types.RegType, uint32, error) {
	var (
		kind types.RegType
		size uint32
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		n, granted, err := s.resolve(tx, h)
		if err != nil {
			return err
		}
		if err := portable.Require(granted, types.KEY_QUERY_VALUE); err != nil {
			return err
		}
		rec, ok, err := n.record(name)
		if err != nil {
			return err
		}
		if !ok {
			return types.StatusFileNotFound
		}
		kind = rec.Kind
		size, err = portable.PutData(data, rec.Data)
		return err
	})
	return kind, size, err
}

func (s *Store) SetValue(h types.Handle, name string, kind types.RegType, data []byte) error {
	if err := portable.CheckValueName(name); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		n, granted, err := s.resolve(tx, h)
		if err != nil {
			return err
		}
		if err := portable.Require(granted, types.KEY_SET_VALUE); err != nil {
			return err
		}
		return s.setValue(&n, name, kind, data)
	})
}

// setValue writes a value record. Overwriting keeps the record's original
// name and enumeration position.
func (s *Store) setValue(n *node, name string, kind types.RegType, data []byte) error {
	rec, ok, err := n.record(name)
	if err != nil {
		return err
	}
	if !ok {
		seq, err := n.values().NextSequence()
		if err != nil {
			return err
		}
		rec = valueRecord{Name: name, Seq: seq}
	}
	rec.Kind, rec.Data = kind, bytes.Clone(data)
	enc, err := cbor.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal value record: %w", err)
	}
	if err := n.values().Put(valueKey(name), enc); err != nil {
		return err
	}
	return s.touch(n)
}

func (s *Store) DeleteValue(h types.Handle, name string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		n, granted, err := s.resolve(tx, h)
		if err != nil {
			return err
		}
		if err := portable.Require(granted, types.KEY_SET_VALUE); err != nil {
			return err
		}
		key := valueKey(name)
		if n.values().Get(key) == nil {
			return types.StatusFileNotFound
		}
		if err := n.values().Delete(key); err != nil {
			return err
		}
		return s.touch(&n)
	})
}

// parentOf loads the key that holds n.
func parentOf(tx *bbolt.Tx, n node) (node, error) {
	b := tx.Bucket(bucketRoots).Bucket([]byte(n.path[0]))
	for _, key := range n.path[1 : len(n.path)-1] {
		b = b.Bucket(bucketKeys).Bucket([]byte(key))
	}
	return loadNode(b, n.path[:len(n.path)-1])
}

func (s *Store) remove(tx *bbolt.Tx, n node) error {
	p, err := parentOf(tx, n)
	if err != nil {
		return err
	}
	if err := p.keys().DeleteBucket([]byte(n.path[len(n.path)-1])); err != nil {
		return err
	}
	return s.touch(&p)
}

func (s *Store) DeleteKey(parent types.Handle, sub string, view types.Access) error {
	if view&^(types.KEY_WOW64_32KEY|types.KEY_WOW64_64KEY) != 0 || !view.ValidView() {
		return types.StatusInvalidParameter
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		p, _, err := s.resolve(tx, parent)
		if err != nil {
			return err
		}
		n, err := lookup(p, sub)
		if err != nil {
			return err
		}
		if len(n.path) == 1 || n.hasChildren() {
			return types.StatusAccessDenied
		}
		return s.remove(tx, n)
	})
}

func (s *Store) DeleteTree(parent types.Handle, sub string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		p, granted, err := s.resolve(tx, parent)
		if err != nil {
			return err
		}
		n, err := lookup(p, sub)
		if err != nil {
			return err
		}
		if len(n.path) > len(p.path) {
			return s.remove(tx, n)
		}

		// An empty sub clears the key itself but keeps it.
		if err := portable.Require(granted, types.KEY_SET_VALUE|types.KEY_ENUMERATE_SUB_KEYS); err != nil {
			return err
		}
		var keys [][]byte
		if err := n.keys().ForEachBucket(func(k []byte) error {
			keys = append(keys, bytes.Clone(k))
			return nil
		}); err != nil {
			return err
		}
		for _, k := range keys {
			if err := n.keys().DeleteBucket(k); err != nil {
				return err
			}
		}
		if err := n.b.DeleteBucket(bucketValues); err != nil {
			return err
		}
		if _, err := n.b.CreateBucket(bucketValues); err != nil {
			return err
		}
		return s.touch(&n)
	})
}

// LoadKey mounts the .reg file under parent\sub in one transaction; a file
// that fails to parse or apply leaves the store unchanged.
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

	return s.db.Update(func(tx *bbolt.Tx) error {
		p, err := rootNode(tx, parent)
		if err != nil {
			return err
		}
		name := strings.Trim(sub, `\`)
		if _, exists, err := p.child(name); err != nil {
			return err
		} else if exists {
			return types.StatusAlreadyExists
		}
		key := portable.Fold(name)
		b, err := s.newNode(tx, p.keys(), key, name, false)
		if err != nil {
			return err
		}
		if err := s.touch(&p); err != nil {
			return err
		}
		mount, err := loadNode(b, []string{p.path[0], key})
		if err != nil {
			return err
		}
		for _, op := range rel {
			n, err := s.ensure(tx, mount, op.Path)
			if err != nil {
				return err
			}
			if op.Kind == regfile.OpSetValue {
				if err := s.setValue(&n, op.Name, op.Type, op.Data); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// ensure walks sub below n, creating missing keys.
func (s *Store) ensure(tx *bbolt.Tx, n node, sub string) (node, error) {
	names, err := portable.SplitPath(sub)
	if err != nil {
		return node{}, err
	}
	for _, name := range names {
		c, ok, err := n.child(name)
		if err != nil {
			return node{}, err
		}
		if !ok {
			key := portable.Fold(name)
			b, err := s.newNode(tx, n.keys(), key, name, false)
			if err != nil {
				return node{}, err
			}
			if c, err = loadNode(b, append(slices.Clip(n.path), key)); err != nil {
				return node{}, err
			}
		}
		n = c
	}
	return n, nil
}

func (s *Store) SaveKey(h types.Handle, file string, _ *types.SecurityAttributes) error {
	var sections []regfile.Section
	err := s.db.View(func(tx *bbolt.Tx) error {
		n, _, err := s.resolve(tx, h)
		if err != nil {
			return err
		}
		path, err := fullPath(tx, n)
		if err != nil {
			return err
		}
		return collect(n, path, &sections)
	})
	if err != nil {
		return err
	}

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
func collect(n node, path string, out *[]regfile.Section) error {
	recs, err := n.records()
	if err != nil {
		return err
	}
	sec := regfile.Section{Path: path, Values: make([]regfile.Entry, 0, len(recs))}
	for _, rec := range recs {
		sec.Values = append(sec.Values, regfile.Entry{Name: rec.Name, Kind: rec.Kind, Data: rec.Data})
	}
	*out = append(*out, sec)

	children, err := n.children()
	if err != nil {
		return err
	}
	for _, c := range children {
		if c.meta.Volatile {
			continue
		}
		if err := collect(c, path+`\`+c.meta.Name, out); err != nil {
			return err
		}
	}
	return nil
}

// fullPath rebuilds the display path of n from the stored names.
func fullPath(tx *bbolt.Tx, n node) (string, error) {
	b := tx.Bucket(bucketRoots).Bucket([]byte(n.path[0]))
	path := n.path[0]
	for _, key := range n.path[1:] {
		b = b.Bucket(bucketKeys).Bucket([]byte(key))
		c, err := loadNode(b, nil)
		if err != nil {
			return "", err
		}
		path += `\` + c.meta.Name
	}
	return path, nil
}

// purgeVolatile deletes the volatile keys below b and returns how many
// subtrees it dropped.
func purgeVolatile(b *bbolt.Bucket) (int, error) {
	keys := b.Bucket(bucketKeys)
	var names [][]byte
	if err := keys.ForEachBucket(func(k []byte) error {
		names = append(names, bytes.Clone(k))
		return nil
	}); err != nil {
		return 0, err
	}

	var count int
	for _, k := range names {
		c, err := loadNode(keys.Bucket(k), nil)
		if err != nil {
			return 0, err
		}
		if c.meta.Volatile {
			if err := keys.DeleteBucket(k); err != nil {
				return 0, err
			}
			count++
			continue
		}
		n, err := purgeVolatile(c.b)
		if err != nil {
			return 0, err
		}
		count += n
	}
	return count, nil
}

func (s *Store) Connect(machine string, root types.Handle) (registry.Backend, types.Handle, error) {
	if !root.IsPredefined() {
		return nil, 0, types.StatusInvalidHandle
	}
	key := portable.MachineKey(machine)
	if key == "" {
		return s, root, nil
	}
	remote, ok := s.remotes[key]
	if !ok {
		return nil, 0, types.StatusBadNetPath
	}
	if !portable.RemoteRoot(root) {
		return nil, 0, types.StatusInvalidParameter
	}
	return remote, root, nil
}
