package types

import (
	"strings"

	"golang.org/x/crypto/sha3"
)

// Canonical returns the canonical signature string "name(T1,T2)" used for
// selector hashing. Return types are not part of it.
func (s *Signature) Canonical() string {
	parts := make([]string, len(s.Params))
	for i, p := range s.Params {
		parts[i] = p.String()
	}
	return s.Name + "(" + strings.Join(parts, ",") + ")"
}

// Selector returns the first four bytes of the Keccak-256 hash of the
// canonical signature
func (s *Signature) Selector() [4]byte {
	return Selector(s.Canonical())
}

// Selector hashes a canonical signature string
func Selector(canonical string) [4]byte {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(canonical))
	sum := h.Sum(nil)

	var sel [4]byte
	copy(sel[:], sum[:4])
	return sel
}
