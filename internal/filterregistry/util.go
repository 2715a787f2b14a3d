package filterregistry

import "time"

// secondsDuration converts a seconds count into a time.Duration for
// building protobuf Duration fields.
func secondsDuration(seconds uint32) time.Duration {
	return time.Duration(seconds) * time.Second
}

// millisDuration converts a milliseconds count into a time.Duration.
func millisDuration(ms uint32) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
