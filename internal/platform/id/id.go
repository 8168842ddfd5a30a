// Package id generates compact unique identifiers for stored records.
//
// IDs are UUIDv4 values encoded as lowercase unpadded base32, which keeps them
// 26 characters long, URL-safe, and byte-ordered randomly so keyset pagination
// does not expose insertion order.
package id

import (
	"encoding/base32"
	"strings"

	"github.com/google/uuid"
)

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// NewID returns a new 26-character lowercase base32 identifier.
func NewID() string {
	value := uuid.New()
	return strings.ToLower(encoding.EncodeToString(value[:]))
}
