// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package client is a small Go client for the TravelSphere API, used by tools
and tests that behave like a trip member's device.

	c := client.New("http://localhost:3318", nil)
	snap, err := c.GetTrip(ctx, "K7M2QX")

Watch polls a trip and reports each presentation stage the member should
see. It feeds every snapshot through a voting.Viewer, so a reveal that
happened entirely between two polls is still reported:

	err := c.Watch(ctx, code, client.DefaultPollInterval, func(stage string, snap models.TripSnapshot) {
		fmt.Println(stage, snap.Trip.CurrentRound)
	})

Non-2xx responses come back as *APIError. A 409 caused by an unresolved tie
carries the tied candidate ids.
*/
package client
