package xdsresource

import "time"

func millis(ms uint64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
