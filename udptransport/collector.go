/*
 * Copyright (c) 2025, shapedmesh contributors.
 * All rights reserved. See socket.go for the license text.
 */

package udptransport

import "github.com/prometheus/client_golang/prometheus"

// Collector exposes a Transport's peer table as Prometheus metrics,
// following the Describe/Collect split of a standard prometheus.Collector.
type Collector struct {
	t *Transport

	peerCount   *prometheus.Desc
	sent        *prometheus.Desc
	received    *prometheus.Desc
	lost        *prometheus.Desc
	rtt         *prometheus.Desc
	sizeMin     *prometheus.Desc
	sizeMax     *prometheus.Desc
	sizeAvg     *prometheus.Desc
	sizeSamples *prometheus.Desc
}

// NewCollector returns a Collector reading from t. Register it with a
// prometheus.Registry the way any other collector is registered.
func NewCollector(t *Transport) *Collector {
	return &Collector{
		t:           t,
		peerCount:   prometheus.NewDesc("shapedmesh_peers", "Number of known peers.", nil, nil),
		sent:        prometheus.NewDesc("shapedmesh_packets_sent_total", "Packets sent to a peer.", []string{"peer"}, nil),
		received:    prometheus.NewDesc("shapedmesh_packets_received_total", "Packets received from a peer.", []string{"peer"}, nil),
		lost:        prometheus.NewDesc("shapedmesh_packets_lost_total", "Packets counted lost to a peer.", []string{"peer"}, nil),
		rtt:         prometheus.NewDesc("shapedmesh_peer_rtt_milliseconds", "Last observed round-trip time to a peer.", []string{"peer"}, nil),
		sizeMin:     prometheus.NewDesc("shapedmesh_packet_size_min_bytes", "Smallest outbound DATA packet observed on the wire.", nil, nil),
		sizeMax:     prometheus.NewDesc("shapedmesh_packet_size_max_bytes", "Largest outbound DATA packet observed on the wire.", nil, nil),
		sizeAvg:     prometheus.NewDesc("shapedmesh_packet_size_avg_bytes", "Mean outbound DATA packet size on the wire.", nil, nil),
		sizeSamples: prometheus.NewDesc("shapedmesh_packet_size_samples_total", "Number of outbound DATA packets the size analysis is based on.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.peerCount
	ch <- c.sent
	ch <- c.received
	ch <- c.lost
	ch <- c.rtt
	ch <- c.sizeMin
	ch <- c.sizeMax
	ch <- c.sizeAvg
	ch <- c.sizeSamples
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	peers := c.t.GetAllPeers()

	ch <- prometheus.MustNewConstMetric(c.peerCount, prometheus.GaugeValue, float64(len(peers)))

	for addr, rec := range peers {
		label := addr.String()
		ch <- prometheus.MustNewConstMetric(c.sent, prometheus.CounterValue, float64(rec.PacketsSent), label)
		ch <- prometheus.MustNewConstMetric(c.received, prometheus.CounterValue, float64(rec.PacketsReceived), label)
		ch <- prometheus.MustNewConstMetric(c.lost, prometheus.CounterValue, float64(rec.PacketsLost), label)
		ch <- prometheus.MustNewConstMetric(c.rtt, prometheus.GaugeValue, float64(rec.RTTMillis), label)
	}

	sizes := c.t.GetStats().PacketSizes
	ch <- prometheus.MustNewConstMetric(c.sizeMin, prometheus.GaugeValue, float64(sizes.MinSize))
	ch <- prometheus.MustNewConstMetric(c.sizeMax, prometheus.GaugeValue, float64(sizes.MaxSize))
	ch <- prometheus.MustNewConstMetric(c.sizeAvg, prometheus.GaugeValue, sizes.AvgSize)
	ch <- prometheus.MustNewConstMetric(c.sizeSamples, prometheus.CounterValue, float64(sizes.Count))
}
