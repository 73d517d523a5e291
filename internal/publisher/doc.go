// Beacon - Live Location Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

/*
Package publisher implements the location publish pipeline.

A single Pipeline per process holds the publish session (sender, current
coordinates, mode and counters) and turns publish requests into SendLatLon
invocations on the hub connection.

# Publishing

PublishOnce validates the request before any network interaction. In mock
mode, or while the hub is not connected, the publish is simulated: it is
logged and counted as a success without touching the hub. In live mode with
a connected hub the request goes to Sender.Send and its error is returned
unchanged.

# Auto-publish

StartAutoPublish runs a ticker that publishes the session's current
coordinates once immediately and then every interval. In mock
mode each tick first moves the position by a small random step. Failed ticks
are logged and counted; they never stop the task. StopAutoPublish is
idempotent and returns only after any in-flight tick has finished.
*/
package publisher
