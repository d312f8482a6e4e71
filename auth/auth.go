// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// LobbyCodeLength is the number of characters in a lobby code.
const LobbyCodeLength = 6

// lobbyAlphabet leaves out 0, 1, I and O, which read alike when spoken or
// copied off a screen.
const lobbyAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

var ErrInvalidLobbyCode = errors.New("invalid lobby code")

// GenerateParticipantToken creates a random secure token for a participant.
// The token is the participant's only credential.
func GenerateParticipantToken() (string, error) {
	b := make([]byte, 24) // 24 bytes = 192 bits of entropy
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate participant token: %w", err)
	}
	// URL-safe base64 without padding
	return strings.TrimRight(base64.URLEncoding.EncodeToString(b), "="), nil
}

// GenerateLobbyCode derives a short code for a trip from its ID.
// Deterministic for a given trip, salt and attempt; callers bump attempt
// when a code is already taken.
func GenerateLobbyCode(tripID, salt string, attempt int) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(tripID))
	if attempt > 0 {
		h.Write([]byte(":" + strconv.Itoa(attempt)))
	}
	sum := h.Sum(nil)

	return encode(binary.BigEndian.Uint64(sum[:8]), lobbyAlphabet, LobbyCodeLength)
}

// NormalizeLobbyCode uppercases and trims a code typed by a user and checks
// it against the lobby alphabet.
func NormalizeLobbyCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != LobbyCodeLength {
		return "", ErrInvalidLobbyCode
	}
	for _, c := range code {
		if !strings.ContainsRune(lobbyAlphabet, c) {
			return "", ErrInvalidLobbyCode
		}
	}
	return code, nil
}

// encode writes the low digits of num in the given alphabet, left padded
// to exactly length characters.
func encode(num uint64, alphabet string, length int) string {
	base := uint64(len(alphabet))
	result := make([]byte, length)
	for i := length - 1; i >= 0; i-- {
		result[i] = alphabet[num%base]
		num /= base
	}
	return string(result)
}

// HashIP creates a one-way hash of an IP address for privacy
// Includes salt to prevent rainbow table attacks
func HashIP(ip, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(ip))
	sum := h.Sum(nil)
	// Return first 16 hex chars (64 bits) - enough for deduplication
	return hex.EncodeToString(sum[:8])
}
