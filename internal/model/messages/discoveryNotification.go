package messages

import "time"

// DiscoveryNotification is delivered to consumers after every pass.
// When Changed is false, Result is the still-valid cached result.
type DiscoveryNotification struct {
	Result    DiscoveryResult `json:"result"`
	Changed   bool            `json:"changed"`
	Forced    bool            `json:"forced"`
	Timestamp time.Time       `json:"timestamp"`
}
