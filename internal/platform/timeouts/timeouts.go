// Package timeouts defines shared timeout constants. Centralizing
// these values keeps the durations discoverable and prevents drift
// between the HTTP surface and the chain poller.
package timeouts

import "time"

// ReadHeader limits how long the HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Request caps one API request end to end, long enough to cover an
// entropy reveal that waits on the chain.
const Request = 60 * time.Second

// Shutdown limits how long the HTTP server waits for in-flight
// requests during graceful shutdown.
const Shutdown = 5 * time.Second

// ChainRPC caps a single JSON-RPC call to the chain node.
const ChainRPC = 30 * time.Second

// ChainPoll is the default interval between block-height probes while
// waiting for entropy to be mined.
const ChainPoll = 5 * time.Second
