package orders

import (
	"crypto/rand"
	"fmt"
)

// pickupCodeAlphabet avoids ambiguous characters (0/O, 1/I/L).
const pickupCodeAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

const pickupCodeLength = 8

// newPickupCode generates the customer-facing verification token. Uniqueness
// is enforced by the storage layer.
func newPickupCode() (string, error) {
	buf := make([]byte, pickupCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	for i, b := range buf {
		buf[i] = pickupCodeAlphabet[int(b)%len(pickupCodeAlphabet)]
	}
	return string(buf), nil
}
