package model

import (
	"github.com/LeonardoBeccarini/plant_monitor/internal/model/entities"
	"github.com/LeonardoBeccarini/plant_monitor/internal/model/messages"
)

// Aliases for the types shared across services.
type (
	Metric                = entities.Metric
	Readings              = entities.Readings
	Status                = entities.Status
	Plant                 = entities.Plant
	Room                  = entities.Room
	Snapshot              = entities.Snapshot
	ThresholdRange        = entities.ThresholdRange
	Thresholds            = entities.Thresholds
	SensorData            = messages.SensorData
	DiscoveryResult       = messages.DiscoveryResult
	DiscoveryNotification = messages.DiscoveryNotification
)

const (
	StatusOptimal  = entities.StatusOptimal
	StatusWarning  = entities.StatusWarning
	StatusCritical = entities.StatusCritical
	StatusUnknown  = entities.StatusUnknown
)
