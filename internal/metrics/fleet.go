package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/garagemon/garagemon/internal/vehicle"
)

var (
	vehiclesDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "vehicles"),
		"Vehicles known to the registry.",
		nil, nil,
	)
	completeDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "vehicles_complete"),
		"Vehicles that have reported every sensor kind.",
		nil, nil,
	)
	scoreDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "vehicle_score"),
		"Performance score of a complete vehicle.",
		[]string{"vehicle"}, nil,
	)
	averageDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "fleet_average_score"),
		"Mean score across complete vehicles. Absent when none are complete.",
		nil, nil,
	)
	alertsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "vehicle_alerts"),
		"Vehicles per alert classification.",
		[]string{"alert"}, nil,
	)
)

// alertLabels fixes the label set so every classification is always exported.
var alertLabels = []vehicle.Alert{
	vehicle.AlertNone,
	vehicle.AlertSensorFailure,
	vehicle.AlertSevereStress,
}

func alertLabel(a vehicle.Alert) string {
	if a == vehicle.AlertNone {
		return "none"
	}
	return string(a)
}

// fleetCollector derives fleet gauges from one registry snapshot per scrape.
type fleetCollector struct {
	src Source
}

func newFleetCollector(src Source) *fleetCollector {
	return &fleetCollector{src: src}
}

func (c *fleetCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- vehiclesDesc
	ch <- completeDesc
	ch <- scoreDesc
	ch <- averageDesc
	ch <- alertsDesc
}

func (c *fleetCollector) Collect(ch chan<- prometheus.Metric) {
	entries := c.src.Snapshot()

	counts := make(map[vehicle.Alert]int, len(alertLabels))
	complete := 0
	var total float64
	for _, e := range entries {
		st := e.Status
		counts[st.Alert]++
		if !st.HasAll || st.Score == nil {
			continue
		}
		complete++
		total += *st.Score
		ch <- prometheus.MustNewConstMetric(scoreDesc, prometheus.GaugeValue, *st.Score, st.ID)
	}

	ch <- prometheus.MustNewConstMetric(vehiclesDesc, prometheus.GaugeValue, float64(len(entries)))
	ch <- prometheus.MustNewConstMetric(completeDesc, prometheus.GaugeValue, float64(complete))
	if complete > 0 {
		ch <- prometheus.MustNewConstMetric(averageDesc, prometheus.GaugeValue, total/float64(complete))
	}
	for _, a := range alertLabels {
		ch <- prometheus.MustNewConstMetric(alertsDesc, prometheus.GaugeValue, float64(counts[a]), alertLabel(a))
	}
}
