// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/find_north/internal/mag"
)

// ErrSourceClosed is returned by ReadMag after Close.
var ErrSourceClosed = errors.New("magnetometer source closed")

// MQTTSource reads samples published by a remote mag producer.
// Only the most recent sample is kept; a slow reader never sees stale data.
type MQTTSource struct {
	client mqtt.Client // nil when constructed for tests
	latest chan mag.Sample
	done   chan struct{}
	once   sync.Once
}

// OpenMQTT connects to broker and subscribes to topic.
func OpenMQTT(broker, clientID, topic string) (*MQTTSource, error) {
	opts := mqtt.NewClientOptions().AddBroker(broker).SetClientID(clientID)
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt source: connect %s: %w", broker, token.Error())
	}

	s := newMQTTSource()
	s.client = client
	if token := client.Subscribe(topic, 0, s.onMessage); token.Wait() && token.Error() != nil {
		client.Disconnect(250)
		return nil, fmt.Errorf("mqtt source: subscribe %s: %w", topic, token.Error())
	}
	log.Printf("mqtt source: subscribed to %s on %s", topic, broker)
	return s, nil
}

func newMQTTSource() *MQTTSource {
	return &MQTTSource{
		latest: make(chan mag.Sample, 1),
		done:   make(chan struct{}),
	}
}

func (s *MQTTSource) onMessage(_ mqtt.Client, msg mqtt.Message) {
	s.push(msg.Payload())
}

func (s *MQTTSource) push(payload []byte) {
	var r mag.Reading
	if err := json.Unmarshal(payload, &r); err != nil {
		log.Printf("mqtt source: bad payload: %v", err)
		return
	}

	// Drop the unread sample, if any, so the channel holds only the newest.
	select {
	case <-s.latest:
	default:
	}
	select {
	case s.latest <- r.Sample:
	default:
	}
}

// ReadMag blocks until a sample arrives or the source is closed.
func (s *MQTTSource) ReadMag() (mag.Sample, error) {
	select {
	case sample := <-s.latest:
		return sample, nil
	case <-s.done:
		return mag.Sample{}, ErrSourceClosed
	}
}

func (s *MQTTSource) Close() error {
	s.once.Do(func() {
		close(s.done)
		if s.client != nil {
			s.client.Disconnect(250)
		}
	})
	return nil
}
