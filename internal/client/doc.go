// Package client provides a small HTTP client for the FearBoard API.
//
// It is used by the "fearboard ctl" command to read and adjust the value of
// a running server from the terminal.
package client
