package ports

// PasswordHasher produces and verifies one-way password digests.
//
// Verify reports a mismatch (or an unparseable digest) as false, never as an
// error; the comparison is constant time relative to the digest length.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}
