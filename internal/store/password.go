package store

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

func isHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

// hashPassword replaces a plain password field with its bcrypt hash. Values
// that are already hashes are kept, so a record copied from another
// collection keeps working.
func (s *RecordStore) hashPassword(r Record) error {
	pw, ok := r["password"].(string)
	if !ok || pw == "" || isHash(pw) {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), s.hashCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	r["password"] = string(hash)
	return nil
}

// passwordMatches compares a login attempt against a stored value. Seeded
// records may still hold plain text; those compare by equality. A stored
// hash only matches the password it was made from, never itself.
func passwordMatches(stored, given string) bool {
	if !isHash(stored) {
		return stored == given
	}
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(given)) == nil
}
