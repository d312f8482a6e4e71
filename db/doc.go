// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles the connection, schema and queries.

# Connection

Open accepts "sqlite" (modernc.org/sqlite, the default) or "postgres"
(github.com/lib/pq). Queries are written once with ? placeholders and
rebound to $N for PostgreSQL:

	conn, err := db.Open(db.TypeSQLite, "file:travelsphere.db")
	if err != nil {
		log.Fatal(err)
	}
	if err := db.CreateSchema(ctx, conn); err != nil {
		log.Fatal(err)
	}
	store := db.NewStore(conn)

Safe to call CreateSchema multiple times - uses IF NOT EXISTS for all tables
and indexes.

# Tables

  - trip: Lobby code, phase, current round and presentation stage
  - participant: Members of a trip with their token and role flags
  - candidate: Proposed destinations and when they were eliminated
  - ballot: One ballot per participant per round
  - ballot_rank: The ordered candidate ids of a ballot
  - round_result: Outcome history, one JSON payload per round

# Relationships

	trip 1──* participant
	trip 1──* candidate
	trip 1──* ballot
	ballot 1──* ballot_rank
	trip 1──* round_result

All foreign keys use ON DELETE CASCADE.

# Store

Store implements voting.Store. Ballot inserts, round claims and the
resolution transaction are each guarded on the trip's current round and
stage, so two server processes sharing a database cannot both resolve or
accept a ballot for a closed round.
*/
package db
