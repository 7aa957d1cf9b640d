// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/find_north/internal/config"
	"github.com/relabs-tech/find_north/internal/mag"
	"github.com/relabs-tech/find_north/internal/sensors"
)

// RunMagProducer reads the local magnetometer and publishes raw readings
// on TOPIC_MAG_RAW so a remote controller can run with MAG_SOURCE=mqtt.
func RunMagProducer(ctx context.Context, cfg *config.Config) error {
	if cfg.MagSource == config.MagSourceMQTT {
		return fmt.Errorf("mag_producer: MAG_SOURCE=mqtt would republish its own feed")
	}
	if cfg.MQTTBroker == "" {
		return fmt.Errorf("mag_producer: MQTT_BROKER is required")
	}

	src, err := sensors.Open(cfg)
	if err != nil {
		return err
	}
	defer src.Close()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDProducer)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("mag_producer: mqtt connect: %w", token.Error())
	}
	defer client.Disconnect(250)

	log.Printf("mag_producer: publishing %s samples to %s every %s",
		cfg.MagSource, cfg.TopicMagRaw, cfg.ProducerInterval())
	return produce(ctx, src, client, cfg.TopicMagRaw, cfg.ProducerInterval())
}

func produce(ctx context.Context, src sensors.MagReader, pub Publisher, topic string, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
		case <-ticker.C:
		}
		if ctx.Err() != nil {
			log.Println("mag_producer: stopping")
			return nil
		}

		s, err := src.ReadMag()
		if err != nil {
			if streamEnded(err) {
				return fmt.Errorf("mag_producer: %w", err)
			}
			// The producer is a bridge, not the control loop; keep going.
			log.Printf("mag_producer: read error: %v", err)
			continue
		}

		payload, err := json.Marshal(mag.Reading{
			Sample: s,
			Norm:   s.Magnitude(),
			Time:   time.Now().UTC().Format(time.RFC3339),
		})
		if err != nil {
			log.Printf("mag_producer: marshal error: %v", err)
			continue
		}

		token := pub.Publish(topic, 0, false, payload)
		token.Wait()
		if err := token.Error(); err != nil {
			log.Printf("mag_producer: publish error: %v", err)
		}
	}
}

// streamEnded reports read errors no later read can recover from: the
// serial stream hit EOF, or the source or its port was closed.
func streamEnded(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, os.ErrClosed) ||
		errors.Is(err, sensors.ErrSourceClosed)
}
