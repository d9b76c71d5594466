// Package metrics holds the Prometheus collectors for devices, polls and the
// listings cache.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	commandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tivo_commands_total",
			Help: "Commands sent to devices, by command and result",
		},
		[]string{"device", "command", "result"},
	)

	commandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tivo_command_duration_seconds",
			Help:    "Time for one connect, write, read, close cycle",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"device"},
	)

	deviceAvailable = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tivo_device_available",
			Help: "1 if the last poll reached the device, 0 otherwise",
		},
		[]string{"device"},
	)

	deviceStandby = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tivo_device_standby",
			Help: "1 if the device is recorded as in standby",
		},
		[]string{"device"},
	)

	pollTicks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tivo_poll_ticks_total",
			Help: "Poll loop iterations, by loop and result",
		},
		[]string{"loop", "result"},
	)

	listingsRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tivo_listings_refreshes_total",
			Help: "Listings refresh attempts, by result",
		},
		[]string{"result"},
	)

	listingsChannels = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tivo_listings_channels",
			Help: "Channels in the current listings tables",
		},
	)

	listingsLastRefresh = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tivo_listings_last_refresh_timestamp_seconds",
			Help: "Unix timestamp of the last successful listings refresh",
		},
	)
)

// Registry is a private registry so the default Go collectors stay out of
// the exposition.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(commandsTotal)
	Registry.MustRegister(commandDuration)
	Registry.MustRegister(deviceAvailable)
	Registry.MustRegister(deviceStandby)
	Registry.MustRegister(pollTicks)
	Registry.MustRegister(listingsRefreshes)
	Registry.MustRegister(listingsChannels)
	Registry.MustRegister(listingsLastRefresh)
}

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// ObserveCommand records one command round trip.
func ObserveCommand(device, command string, took time.Duration, err error) {
	commandsTotal.WithLabelValues(device, command, result(err)).Inc()
	commandDuration.WithLabelValues(device).Observe(took.Seconds())
}

// SetDeviceState records the availability and power state of a device.
func SetDeviceState(device string, available, standby bool) {
	deviceAvailable.WithLabelValues(device).Set(boolGauge(available))
	deviceStandby.WithLabelValues(device).Set(boolGauge(standby))
}

// ForgetDevice drops the per-device series when a device is removed.
func ForgetDevice(device string) {
	deviceAvailable.DeleteLabelValues(device)
	deviceStandby.DeleteLabelValues(device)
	commandDuration.DeleteLabelValues(device)
	commandsTotal.DeletePartialMatch(prometheus.Labels{"device": device})
}

// PollTick records one poll loop iteration.
func PollTick(loop string, err error) {
	pollTicks.WithLabelValues(loop, result(err)).Inc()
}

// ListingsRefreshed records a listings refresh attempt.
func ListingsRefreshed(channels int, at time.Time, err error) {
	listingsRefreshes.WithLabelValues(result(err)).Inc()
	if err != nil {
		return
	}
	listingsChannels.Set(float64(channels))
	listingsLastRefresh.Set(float64(at.Unix()))
}
