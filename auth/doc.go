// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides token and lobby code generation utilities.

# Participant Tokens

Participant tokens are random 24-byte (192-bit) secrets:

	token, err := auth.GenerateParticipantToken()

Tokens are URL-safe base64 encoded and sent back in the X-Participant-Token
header. Each participant gets one when creating or joining a trip.

# Lobby Codes

Lobby codes are the six characters friends type to join a trip:

	code := auth.GenerateLobbyCode(tripID, salt, 0)
	code, err := auth.NormalizeLobbyCode(userInput)

Codes are derived with HMAC-SHA256 from the trip ID and use an alphabet
without 0, 1, I or O. If a code is already in use, call again with the next
attempt number.

# IP Hashing

For privacy-preserving fraud detection:

	hash := auth.HashIP(ipAddress, salt)

Returns first 8 bytes (16 hex chars) of HMAC-SHA256.
*/
package auth
