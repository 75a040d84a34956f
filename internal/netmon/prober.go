package netmon

import (
	"context"
	"time"

	"github.com/loreleaf/loreleaf/internal/utils"
	"github.com/loreleaf/loreleaf/models"
)

// Latency buckets for deriving an effective connection type from a probe
// round trip, following the thresholds browsers use for the Network
// Information API.
const (
	latencySlow2G = 2000 * time.Millisecond
	latency2G     = 1400 * time.Millisecond
	latency3G     = 270 * time.Millisecond
)

type httpProber struct {
	client *utils.HTTPClient
}

// NewHTTPProber returns a Prober that issues a HEAD request against
// probeURL and grades the link from the measured round trip. Any HTTP
// response counts as reachable; only transport failures mean offline.
func NewHTTPProber(probeURL string, timeout time.Duration) Prober {
	client := utils.NewHTTPClient()
	client.
		SetBaseURL(probeURL).
		SetTimeout(timeout)

	return &httpProber{client: client}
}

func (p *httpProber) Probe(ctx context.Context) (models.NetworkStatus, error) {
	start := time.Now()
	_, err := p.client.R().SetContext(ctx).Head("")
	rtt := time.Since(start)

	if ctx.Err() != nil {
		return models.NetworkStatus{}, ctx.Err()
	}

	status := models.NetworkStatus{
		ConnectionType: models.ConnectionUnknown,
		CheckedAt:      time.Now(),
	}

	if err != nil {
		return status, nil
	}

	status.IsOnline = true
	status.RTT = rtt
	status.EffectiveType, status.Downlink = gradeLatency(rtt)

	return status, nil
}

// gradeLatency maps a measured round trip to an effective connection type
// and a rough downlink estimate in Mbit/s.
func gradeLatency(rtt time.Duration) (models.EffectiveType, float64) {
	switch {
	case rtt >= latencySlow2G:
		return models.EffectiveSlow2G, 0.05
	case rtt >= latency2G:
		return models.Effective2G, 0.25
	case rtt >= latency3G:
		return models.Effective3G, 1.5
	default:
		return models.Effective4G, 10
	}
}
