// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/find_north/internal/config"
	"github.com/relabs-tech/find_north/internal/led"
	"github.com/relabs-tech/find_north/internal/sensors"
)

// RunFindNorth opens the configured magnetometer and LEDs and runs the
// controller until a fault or until ctx is cancelled. Cancellation is seen
// between samples, so a blocked read delays it. The LED is switched off on
// the way out.
func RunFindNorth(ctx context.Context, cfg *config.Config) (err error) {
	log.Printf("find_north: magnetometer=%s leds=%s", cfg.MagSource, cfg.LEDDriver)

	magSrc, err := sensors.Open(cfg)
	if err != nil {
		return err
	}
	defer magSrc.Close()

	leds, err := led.Open(cfg)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, leds.Close())
	}()

	opts := []ControllerOption{WithSampleLogging(cfg.LogSamples)}

	if cfg.MQTTBroker != "" {
		mopts := mqtt.NewClientOptions().
			AddBroker(cfg.MQTTBroker).
			SetClientID(cfg.MQTTClientIDController)

		client := mqtt.NewClient(mopts)
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			// Telemetry is optional; the LED loop runs without it.
			log.Printf("find_north: mqtt connect error, telemetry disabled: %v", token.Error())
		} else {
			defer client.Disconnect(250)
			log.Printf("find_north: publishing decisions to %s", cfg.TopicHeading)
			tm := NewTelemetry(client, cfg.TopicHeading, cfg.ProducerInterval())
			opts = append(opts, WithObserver(tm.Observe))
		}
	}

	ctrl := NewController(magSrc, leds, opts...)
	return ctrl.Run(ctx)
}
