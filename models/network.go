package models

import "time"

// ConnectionType is the physical transport the device appears to be on.
type ConnectionType string

const (
	ConnectionWifi     ConnectionType = "wifi"
	ConnectionCellular ConnectionType = "cellular"
	ConnectionEthernet ConnectionType = "ethernet"
	ConnectionUnknown  ConnectionType = "unknown"
)

// EffectiveType buckets the measured link quality the way browsers report it.
type EffectiveType string

const (
	EffectiveSlow2G EffectiveType = "slow-2g"
	Effective2G     EffectiveType = "2g"
	Effective3G     EffectiveType = "3g"
	Effective4G     EffectiveType = "4g"
)

// NetworkStatus is the last known connectivity state. Only the most recent
// observation is kept; history is not recorded.
type NetworkStatus struct {
	IsOnline       bool           `json:"is_online"`
	ConnectionType ConnectionType `json:"connection_type"`
	EffectiveType  EffectiveType  `json:"effective_type"`

	// Downlink is the estimated bandwidth in Mbit/s.
	Downlink float64 `json:"downlink"`

	// RTT is the measured round-trip time to the probe target.
	RTT time.Duration `json:"rtt"`

	CheckedAt time.Time `json:"checked_at"`
}

// Slow reports whether the connection is too poor for eager syncing:
// effective type slow-2g/2g or estimated downlink under 1 Mbit/s.
func (s NetworkStatus) Slow() bool {
	if !s.IsOnline {
		return false
	}
	if s.EffectiveType == EffectiveSlow2G || s.EffectiveType == Effective2G {
		return true
	}
	return s.Downlink > 0 && s.Downlink < 1.0
}
