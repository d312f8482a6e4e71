// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseType: sqlite or postgres (default: sqlite)
  - DatabaseURL: Connection string (default for sqlite: file:travelsphere.db)
  - LobbyCodeSalt: Secret for lobby code generation (required)
  - IPHashSalt: Secret for IP hashing (required)
  - ResolveTimeout: Upper bound on one round resolution (default: 10s)
  - RevealDuration: How long clients show a round outcome (default: 5s)
  - TiePolicy: fail, random or id (default: fail)

# CLI Flags

	-p                Server port
	-d                Database URL
	-t                Database type
	-lobby-salt       Lobby code salt
	-ip-salt          IP hash salt
	-resolve-timeout  Resolution timeout
	-reveal           Reveal duration
	-tie-policy       Tie policy

# Environment Variables

Flags fall back to environment variables:

	PORT            → -p
	DATABASE_URL    → -d
	DATABASE_TYPE   → -t
	LOBBY_CODE_SALT → -lobby-salt
	IP_HASH_SALT    → -ip-salt
	RESOLVE_TIMEOUT → -resolve-timeout
	REVEAL_DURATION → -reveal
	TIE_POLICY      → -tie-policy

CLI flags take precedence over environment variables. main loads a .env
file into the environment before ParseFlags runs.

# Validation

ParseFlags returns an error if:

  - LOBBY_CODE_SALT or IP_HASH_SALT is missing
  - DATABASE_TYPE is postgres and no DATABASE_URL is given
  - a duration does not parse or is out of range
  - the tie policy is unknown

# Example

	// In main.go
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	conn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	// ...
	mux := router.NewRouter(store, resolver, cfg)
*/
package cliparse
