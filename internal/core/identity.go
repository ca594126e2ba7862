package core

import (
	"crypto/md5"
	"encoding/hex"
)

// idLength is the number of hex characters kept from the link digest (48 bits).
const idLength = 12

// DeriveID returns the stable identifier of a listing link. It never fails:
// an empty or malformed link still hashes to a fixed id.
func DeriveID(link string) string {
	sum := md5.Sum([]byte(link))
	return hex.EncodeToString(sum[:])[:idLength]
}
