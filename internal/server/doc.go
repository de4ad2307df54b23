// Package server provides the HTTP server for the FearBoard API and surfaces.
//
// This package is internal to FearBoard and handles all HTTP concerns:
//
//   - Snapshot: JSON state at GET "/state"
//   - Mutation: inc/dec/set actions at POST "/state"
//   - Server-Sent Events: live feed at GET "/state/stream"
//   - Pages: the embedded admin and display surfaces at "/admin" and "/display"
//
// Live feed frames are "data: {\"value\":N}\n\n" for values and ": ping\n\n"
// for keep-alives, as understood by any EventSource client.
//
// The server supports graceful shutdown via context cancellation, with a
// 5-second timeout for in-flight requests.
//
// Users of the fearboard library should not need to interact with this
// package directly. The server is started automatically by [fearboard.FearBoard.Start].
package server
