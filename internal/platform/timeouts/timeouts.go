// Package timeouts defines shared timeout constants used across the ledger
// service boundaries.
package timeouts

import "time"

// GRPCDial caps the wait time when dialing a gRPC peer.
const GRPCDial = 2 * time.Second

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long a server waits for in-flight requests during
// graceful shutdown.
const Shutdown = 5 * time.Second

// Handshake bounds how long a live connection may take to present its
// subscribe frame and finish authorization.
const Handshake = 5 * time.Second

// RelayPublish caps a single outbound mirror write.
const RelayPublish = time.Second

// LiveWrite bounds a single frame write to a live connection.
const LiveWrite = 10 * time.Second
