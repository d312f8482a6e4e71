// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the TravelSphere API server.

TravelSphere helps a group pick one destination. Friends join a trip with a
lobby code, propose cities, then vote them out round by round with ranked
(Borda) ballots until the final elects the winner.

# Starting the Server

SQLite is the default and needs only the two salts:

	LOBBY_CODE_SALT=... IP_HASH_SALT=... go run .

PostgreSQL:

	go run . -t postgres -d "postgres://..." -lobby-salt ... -ip-salt ...

A .env file in the working directory is loaded automatically.

# Configuration

Required settings:

  - LOBBY_CODE_SALT (-lobby-salt): Secret for lobby code derivation
  - IP_HASH_SALT (-ip-salt): Secret for hashing voter IPs
  - DATABASE_URL (-d): Required when DATABASE_TYPE is postgres

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - RESOLVE_TIMEOUT (-resolve-timeout): Bound on one round resolution (default: 10s)
  - REVEAL_DURATION (-reveal): How long a round outcome is revealed before the next round opens (default: 5s)
  - TIE_POLICY (-tie-policy): fail, random or id (default: fail)

# Architecture

  - voting: Round rules, Borda scoring, round resolution, presentation stages
  - handlers: HTTP request handlers (trips, candidates, voting, participants)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers
  - models: Request/response and domain types
  - auth: Lobby codes, participant tokens, IP hashing
  - db: Connection, schema and the SQL store behind the voting engine
  - cliparse: Configuration parsing
  - client: Polling client that follows a trip's stages

See package documentation for each component.
*/
package main
