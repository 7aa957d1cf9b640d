// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/find_north/internal/heading"
)

// publishTimeout bounds how long the control loop waits on the broker.
const publishTimeout = 100 * time.Millisecond

// Publisher is the part of mqtt.Client used to send telemetry.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Telemetry publishes heading decisions on MQTT. A report goes out whenever
// the decision flips, and otherwise at most once per interval.
// Broker errors are logged; they never stop the control loop.
type Telemetry struct {
	pub      Publisher
	topic    string
	interval time.Duration
	now      func() time.Time

	last     time.Time
	lastSent heading.Decision
	sent     bool
}

// NewTelemetry creates a publisher for topic.
func NewTelemetry(pub Publisher, topic string, interval time.Duration) *Telemetry {
	return &Telemetry{
		pub:      pub,
		topic:    topic,
		interval: interval,
		now:      time.Now,
	}
}

// Observe is a controller Observer.
func (t *Telemetry) Observe(d heading.Decision) {
	now := t.now()
	changed := !t.sent || d.Facing != t.lastSent.Facing
	if !changed && now.Sub(t.last) < t.interval {
		return
	}

	payload, err := json.Marshal(heading.Report{
		Decision: d,
		Time:     now.UTC().Format(time.RFC3339),
	})
	if err != nil {
		log.Printf("telemetry: marshal error: %v", err)
		return
	}

	token := t.pub.Publish(t.topic, 0, true, payload)
	if !token.WaitTimeout(publishTimeout) {
		log.Printf("telemetry: publish to %s timed out", t.topic)
	} else if err := token.Error(); err != nil {
		log.Printf("telemetry: publish error: %v", err)
	}

	t.last = now
	t.lastSent = d
	t.sent = true
}
