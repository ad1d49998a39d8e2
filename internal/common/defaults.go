// Package common provides shared utilities and default configuration.
package common

import "time"

// Collection defaults shared by every collector
const (
	DefaultUserAgent     = "NeighborhoodAI/1.0"
	DefaultMaxPages      = 50
	DefaultMaxVideos     = 50
	DefaultMaxBytes      = 120 * 1024 * 1024
	DefaultMaxWords      = 10_000_000
	DefaultRequestDelay  = 1 * time.Second
	DefaultRenderedDelay = 2 * time.Second
	DefaultFetchTimeout  = 15 * time.Second
)

// DefaultSyncSchedule re-syncs enabled sources nightly at 03:00
const DefaultSyncSchedule = "0 3 * * *"
