package ratelimit

import (
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// keyHashWidth is the length of a 64-bit value in base 32.
const keyHashWidth = 13

// HashKey derives the storage key for an action namespace and a logical key.
// The result is a fixed-width lowercase base32 string. It is not meant to be
// collision-proof against an adversary.
func HashKey(action, key string) string {
	d := xxhash.New()

	if action != "" {
		_, _ = d.WriteString(action)
		_, _ = d.Write([]byte{0x1f})
	}

	_, _ = d.WriteString(key)

	h := strconv.FormatUint(d.Sum64(), 32)
	if len(h) < keyHashWidth {
		h = strings.Repeat("0", keyHashWidth-len(h)) + h
	}

	return h
}
