// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package roomsync

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bureau-foundation/roomsync/lib/roomstate"
)

// Metrics exports sync-engine counters. A nil *Metrics records
// nothing, so callers that do not scrape can leave it unset.
type Metrics struct {
	polls          *prometheus.CounterVec
	events         *prometheus.CounterVec
	profileLookups *prometheus.CounterVec
	members        prometheus.Gauge
	messages       prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on registerer.
// A nil registerer creates unregistered collectors.
func NewMetrics(registerer prometheus.Registerer) (*Metrics, error) {
	metrics := &Metrics{
		polls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "roomsync",
				Name:      "polls_total",
				Help:      "Event stream polls by outcome (success, transient, forbidden)",
			},
			[]string{"outcome"},
		),
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "roomsync",
				Name:      "events_total",
				Help:      "Stream events by how the dispatcher handled them",
			},
			[]string{"kind"},
		),
		profileLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "roomsync",
				Name:      "profile_lookups_total",
				Help:      "Profile lookups by field and outcome",
			},
			[]string{"field", "outcome"},
		),
		members: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "roomsync",
				Name:      "roster_members",
				Help:      "Members in the room roster",
			},
		),
		messages: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "roomsync",
				Name:      "timeline_messages",
				Help:      "Messages in the room timeline",
			},
		),
	}

	if registerer != nil {
		for _, collector := range []prometheus.Collector{
			metrics.polls,
			metrics.events,
			metrics.profileLookups,
			metrics.members,
			metrics.messages,
		} {
			if err := registerer.Register(collector); err != nil {
				return nil, fmt.Errorf("roomsync: registering metrics: %w", err)
			}
		}
	}
	return metrics, nil
}

func (m *Metrics) observePoll(outcome string) {
	if m == nil {
		return
	}
	m.polls.WithLabelValues(outcome).Inc()
}

func (m *Metrics) observeBatch(result roomstate.Result, state *roomstate.RoomState) {
	if m == nil {
		return
	}
	for kind, count := range result.Counts {
		m.events.WithLabelValues(string(kind)).Add(float64(count))
	}
	m.members.Set(float64(state.MemberCount()))
	m.messages.Set(float64(state.MessageCount()))
}

func (m *Metrics) observeLookup(field, outcome string) {
	if m == nil {
		return
	}
	m.profileLookups.WithLabelValues(field, outcome).Inc()
}
