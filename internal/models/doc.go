// Beacon - Live Location Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

/*
Package models defines the data structures shared by Beacon's packages.

Key Components:

  - LocationUpdate: one received coordinate report, stamped on receipt with
    the local receive time and a process-wide sequence ID
  - InboundLocation: wire shape of the hub's ReceiveLatLon payload, parsed
    strictly by ParseInbound
  - OutboundLocation: arguments of the hub's SendLatLon invocation
  - ConnectionState / ConnectionStatus: the connection manager's state and
    the status record broadcast to observers
  - PublishMode / PublishSession: the publisher's process-wide session
  - APIResponse / APIError / Metadata: the HTTP response envelope

Wire Format:

Location updates are serialized with the field names viewers consume:

	{
	  "sender_id": "alice@example.com",
	  "lat": 25.7373,
	  "lon": 90.3644,
	  "received_at": "2026-01-01T12:00:00Z",
	  "sequence_id": 42
	}

Thread Safety:

All types are plain values. LocationUpdate is never mutated after creation,
so it can be shared between the history store, the viewer hub and the relay
without copying.
*/
package models
