// Package secure provides memory-safe handling of session tokens.
//
// It wraps the memguard library so that the Bitwarden session token is
// encrypted at rest in memory, protected from swapping via mlock, and
// wiped when no longer needed. The token only exists in plaintext for
// the short window in which a child process environment is built.
//
// For complete cleanup of all memguard data at application exit, call
// memguard.Purge() in a defer statement in main().
package secure

import (
	"sync"

	"github.com/awnumar/memguard"
)

// SecureBuffer provides memory-safe storage for sensitive data.
// It wraps memguard.Enclave to encrypt secrets at rest in memory
// and protect them from swapping via mlock.
type SecureBuffer struct {
	enclave *memguard.Enclave
	mu      sync.RWMutex
	// destroyed tracks if this buffer has been destroyed to allow
	// idempotent Destroy() calls and prevent use after destroy
	destroyed bool
}

// NewSecureBuffer creates a protected buffer from secret bytes.
// The input data is immediately copied into a protected memory region
// and the original data remains unchanged (caller should zero it).
func NewSecureBuffer(data []byte) *SecureBuffer {
	return &SecureBuffer{
		enclave: memguard.NewEnclave(data),
	}
}

// Open decrypts and returns the protected data in a locked buffer.
// The caller MUST call Destroy() on the returned LockedBuffer when done
// to securely wipe the plaintext from memory.
//
//	locked, err := buf.Open()
//	if err != nil {
//	    return err
//	}
//	defer locked.Destroy()
//	token := locked.String()
func (s *SecureBuffer) Open() (*memguard.LockedBuffer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.destroyed {
		return memguard.NewBufferFromBytes([]byte{}), nil
	}

	return s.enclave.Open()
}

// Destroy marks this SecureBuffer as destroyed and prevents further use.
// The underlying encrypted enclave data is safe even without explicit
// destruction since it is encrypted at rest.
//
// This method is idempotent. After Destroy(), Open() returns an empty buffer.
func (s *SecureBuffer) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyed {
		return
	}

	s.enclave = nil
	s.destroyed = true
}
