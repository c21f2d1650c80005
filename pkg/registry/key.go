package registry

import (
	"fmt"

	"github.com/joshuapare/winreg/pkg/types"
)

// Key owns one open store handle and releases it exactly once.
//
// A Key is not safe for concurrent use. Ownership moves with Move or
// Detach; there is no finalizer, so an owned Key must be closed, usually
// with defer.
type Key struct {
	backend  Backend
	handle   types.Handle
	borrowed bool
}

// NewKey takes ownership of h, an open handle served by b.
func NewKey(b Backend, h types.Handle) *Key {
	return &Key{backend: b, handle: h}
}

// Predefined returns a Key for one of the predefined roots. The root is
// borrowed, so Close only empties the Key.
func Predefined(b Backend, root types.Handle) *Key {
	return &Key{backend: b, handle: root, borrowed: true}
}

// Handle returns the raw handle without giving up ownership.
func (k *Key) Handle() types.Handle {
	if k == nil {
		return 0
	}
	return k.handle
}

// Backend returns the store serving the handle.
func (k *Key) Backend() Backend {
	if k == nil {
		return nil
	}
	return k.backend
}

// IsValid reports whether the Key holds a handle.
func (k *Key) IsValid() bool {
	return k != nil && k.handle != 0 && k.backend != nil
}

// Close releases the handle. Closing an empty Key is a no-op, so Close is
// safe to call more than once.
func (k *Key) Close() error {
	if !k.IsValid() {
		return nil
	}
	b, h, borrowed := k.backend, k.handle, k.borrowed
	k.reset()
	if borrowed {
		return nil
	}
	return storeError("RegCloseKey", "close key", b.CloseKey(h))
}

// Detach gives up ownership and returns the raw handle. The caller becomes
// responsible for closing it.
func (k *Key) Detach() types.Handle {
	if k == nil {
		return 0
	}
	h := k.handle
	k.reset()
	return h
}

// Attach closes the current handle, if any, and takes ownership of h.
func (k *Key) Attach(b Backend, h types.Handle) error {
	if k.IsValid() && k.handle == h && k.backend == b {
		return nil
	}
	err := k.Close()
	k.backend, k.handle, k.borrowed = b, h, false
	return err
}

// Move transfers ownership to a new Key and leaves k empty.
func (k *Key) Move() *Key {
	moved := &Key{backend: k.backend, handle: k.handle, borrowed: k.borrowed}
	k.reset()
	return moved
}

// Swap exchanges the handles owned by k and other.
func (k *Key) Swap(other *Key) {
	*k, *other = *other, *k
}

func (k *Key) String() string {
	if !k.IsValid() {
		return "Key(empty)"
	}
	if name := k.handle.RootName(); name != "" {
		return "Key(" + name + ")"
	}
	return fmt.Sprintf("Key(0x%x)", uintptr(k.handle))
}

func (k *Key) reset() {
	k.backend, k.handle, k.borrowed = nil, 0, false
}
