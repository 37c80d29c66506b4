/*
Package randx provides functions for generating cryptographically secure random identifiers.

It is primarily used to generate fixed-length Base62 encoded connection identifiers
for WebSocket sessions and standard UUID frame IDs.
*/
package randx

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const (
	// Base62Chars defines the character set used for Base62 encoding (0-9, A-Z, a-z).
	Base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// Base62Len is the total number of characters in the Base62 character set (62).
	Base62Len = int64(len(Base62Chars))

	// ConnIDPrefix is the prefix of server-assigned connection identifiers.
	ConnIDPrefix = "conn_"

	// ConnIDRawLength is the fixed length of the Base62 part of a connection ID.
	ConnIDRawLength = 12
)

// Token generates a Base62 encoded string of the given length using a
// cryptographically secure random number generator (crypto/rand).
func Token(length int) (string, error) {
	result := make([]byte, length)

	for i := 0; i < length; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(Base62Len))
		if err != nil {
			return "", fmt.Errorf("failed to generate random number for token: %v", err)
		}

		result[i] = Base62Chars[num.Int64()]
	}

	return string(result), nil
}

// ConnectionID generates an opaque identifier for a client connection.
// It falls back to a UUID if the system entropy source fails.
func ConnectionID() string {
	raw, err := Token(ConnIDRawLength)
	if err != nil {
		return ConnIDPrefix + uuid.New().String()
	}

	return ConnIDPrefix + raw
}

// MessageID generates a standard UUID v4 string to serve as a unique identifier for a wire frame.
func MessageID() string {
	return uuid.New().String()
}

// IsValidConnectionID checks if the given string is a well-formed connection identifier.
// Validity criteria include: the required prefix, the fixed Base62 length, and
// all characters belonging to the Base62Chars set.
func IsValidConnectionID(id string) bool {
	if !strings.HasPrefix(id, ConnIDPrefix) {
		return false
	}

	raw := id[len(ConnIDPrefix):]

	if len(raw) != ConnIDRawLength {
		return false
	}

	for _, char := range raw {
		if !strings.ContainsRune(Base62Chars, char) {
			return false
		}
	}

	return true
}
