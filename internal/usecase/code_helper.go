package usecase

import (
	"crypto/rand"
	"io"
)

// generateRedemptionCode creates a secure, random, human-readable prepaid
// code. Format: INST-XXXX-XXXX-XXXX, drawn from a character set that avoids
// ambiguous characters like O/0, I/1, l.
func generateRedemptionCode() (string, error) {
	const chars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	const codeLength = 12

	buffer := make([]byte, codeLength)
	if _, err := io.ReadFull(rand.Reader, buffer); err != nil {
		return "", err
	}
	for i := 0; i < codeLength; i++ {
		buffer[i] = chars[int(buffer[i])%len(chars)]
	}
	return "INST-" + string(buffer[0:4]) + "-" + string(buffer[4:8]) + "-" + string(buffer[8:12]), nil
}
