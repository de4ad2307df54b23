// Package dashboard provides the embedded web UI assets for FearBoard.
//
// This package uses Go's embed directive to include the admin and display
// pages at compile time. This enables single-binary deployment without
// external asset files.
//
// The embedded assets are served by the server package at "/", "/admin" and
// "/display". Users of the fearboard library should not need to interact with
// this package directly.
package dashboard

import "embed"

// Assets is an embedded filesystem containing the web UI.
//
// The filesystem structure is:
//
//	assets/
//	  index.html    - Landing page linking both surfaces
//	  admin.html    - Control surface: +1, -1, set and reset
//	  display.html  - Display surface: follows /state/stream
//
// Every page may contain a {{.Title}} placeholder that the server replaces
// with the configured title.
//
//go:embed assets/*
var Assets embed.FS
