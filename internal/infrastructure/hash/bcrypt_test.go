package hash

import "testing"

func TestBcryptHasher_RoundTrip(t *testing.T) {
	h := NewBcryptHasher(4)

	digest, err := h.Hash("s3cret")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	if digest == "s3cret" {
		t.Fatalf("digest equals plaintext")
	}
	if !h.Verify("s3cret", digest) {
		t.Fatalf("Verify rejected the original password")
	}
	if h.Verify("wrong", digest) {
		t.Fatalf("Verify accepted a wrong password")
	}
}

func TestBcryptHasher_MalformedDigest(t *testing.T) {
	h := NewBcryptHasher(4)

	if h.Verify("anything", "not-a-bcrypt-digest") {
		t.Fatalf("Verify accepted a malformed digest")
	}
}

func TestBcryptHasher_SaltedDigests(t *testing.T) {
	h := NewBcryptHasher(4)

	a, err := h.Hash("same")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	b, err := h.Hash("same")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	if a == b {
		t.Fatalf("two digests of the same password are identical; salt missing")
	}
}
