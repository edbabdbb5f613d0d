// Package secure keeps cached secret plaintext encrypted in memory.
//
// Every value the resolution cache retains lives inside a memguard
// enclave: encrypted at rest (XSalsa20Poly1305), mlocked where the
// platform allows it, guarded against overflow. Reveal decrypts into a
// locked buffer for the shortest possible window and hands back an
// ordinary string copy.
//
// Call Purge once at process exit to wipe all memguard state.
package secure

import (
	"errors"
	"sync"

	"github.com/awnumar/memguard"
)

// ErrDestroyed is returned by Reveal after Destroy.
var ErrDestroyed = errors.New("secure: value destroyed")

// Value is a secret sealed in an encrypted enclave.
// The zero Value is unusable; construct with NewValue.
type Value struct {
	mu        sync.RWMutex
	enclave   *memguard.Enclave
	destroyed bool
}

// NewValue seals s. memguard wipes the byte buffer it is given, so the
// conversion copy here is deliberate; the original string is untouched.
func NewValue(s string) *Value {
	return &Value{enclave: memguard.NewEnclave([]byte(s))}
}

// Reveal decrypts the value and returns a plain string copy. The
// intermediate locked buffer is wiped before Reveal returns.
func (v *Value) Reveal() (string, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if v.destroyed || v.enclave == nil {
		return "", ErrDestroyed
	}

	locked, err := v.enclave.Open()
	if err != nil {
		return "", err
	}
	defer locked.Destroy()

	// string([]byte) copies; the copy outlives the locked buffer.
	return string(locked.Bytes()), nil
}

// Destroy makes the value unreadable. Idempotent. The dropped enclave
// holds only ciphertext, so leaving its reclamation to the collector is
// safe; Purge at exit wipes the session key.
func (v *Value) Destroy() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.destroyed {
		return
	}
	v.enclave = nil
	v.destroyed = true
}

// Purge wipes all memguard-managed memory and the session key.
// Call it once, deferred in main.
func Purge() {
	memguard.Purge()
}
