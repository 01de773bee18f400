package password

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHasher_HashAndVerify(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	hash, err := h.Hash("secret1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "secret1" || !strings.HasPrefix(hash, "$2") {
		t.Fatalf("unexpected hash format: %q", hash)
	}
	if !h.Verify("secret1", hash) {
		t.Fatalf("expected password to verify")
	}
	if h.Verify("secret2", hash) {
		t.Fatalf("expected wrong password to fail")
	}
}

func TestHasher_CostClampedToDefault(t *testing.T) {
	h := NewHasher(4)
	hash, err := h.Hash("secret1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		t.Fatalf("cost: %v", err)
	}
	if cost != bcrypt.DefaultCost {
		t.Fatalf("expected cost %d, got %d", bcrypt.DefaultCost, cost)
	}
}

func TestHasher_MalformedHashFailsClosed(t *testing.T) {
	h := NewHasher(bcrypt.DefaultCost)
	for _, hash := range []string{"", "plaintext", "$2a$10$short"} {
		if h.Verify("anything", hash) {
			t.Fatalf("expected malformed hash %q to fail", hash)
		}
	}
}
