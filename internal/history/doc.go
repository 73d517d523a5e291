// Beacon - Live Location Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

/*
Package history keeps a bounded, newest-first record of received location
updates plus the latest update per sender.

	store := history.New(50)
	store.Record(update)
	all := store.All()                 // newest first, at most 50
	last, ok := store.LatestFor("a@x") // most recently recorded for a@x

Ordering is by arrival (Record call order), not by ReceivedAt or
SequenceID. The latest-per-sender view follows the same rule: the last
recorded update for a sender wins. When an update is evicted by the
capacity bound and it was the sender's last buffered update, the sender
drops out of the latest index, so LatestFor never returns an update absent
from All.

All methods are safe for concurrent use.
*/
package history
