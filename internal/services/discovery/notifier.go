package discovery

import (
	"context"
	"fmt"
	"time"

	"github.com/LeonardoBeccarini/plant_monitor/internal/model/messages"
	"github.com/LeonardoBeccarini/plant_monitor/pkg/rabbitmq"
)

// Topics used by MQTTNotifier.
const (
	TopicDiscovery       = "plants/discovery"
	TopicDiscoveryStatus = "plants/discovery/status"
)

// unchangedSignal is published instead of the full result when a pass found nothing new.
type unchangedSignal struct {
	PassID     string    `json:"pass_id"`
	Changed    bool      `json:"changed"`
	LastUpdate time.Time `json:"last_update"`
	Plants     int       `json:"total_plants"`
	Rooms      int       `json:"total_rooms"`
	Timestamp  time.Time `json:"timestamp"`
}

// MQTTNotifier publishes changed and forced results in full and a small status
// message for unchanged passes.
type MQTTNotifier struct {
	results rabbitmq.IPublisher
	status  rabbitmq.IPublisher
}

func NewMQTTNotifier(results, status rabbitmq.IPublisher) *MQTTNotifier {
	return &MQTTNotifier{results: results, status: status}
}

func (n *MQTTNotifier) Notify(_ context.Context, msg messages.DiscoveryNotification) error {
	if msg.Changed || msg.Forced {
		if err := n.results.PublishMessage(msg); err != nil {
			return fmt.Errorf("publish discovery result: %w", err)
		}
		return nil
	}

	sig := unchangedSignal{
		PassID:     msg.Result.PassID,
		Changed:    false,
		LastUpdate: msg.Result.Summary.LastUpdate,
		Plants:     msg.Result.Summary.TotalPlants,
		Rooms:      msg.Result.Summary.TotalRooms,
		Timestamp:  msg.Timestamp,
	}
	if err := n.status.PublishMessage(sig); err != nil {
		return fmt.Errorf("publish discovery status: %w", err)
	}
	return nil
}
