// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/find_north/internal/config"
	"github.com/relabs-tech/find_north/internal/heading"
	"github.com/relabs-tech/find_north/internal/mag"
)

// RunConsoleMQTT prints raw readings and heading decisions until ctx is done.
func RunConsoleMQTT(ctx context.Context, cfg *config.Config, out io.Writer) error {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDConsole)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	// Subscribe to raw magnetometer readings
	magToken := client.Subscribe(cfg.TopicMagRaw, 0, func(_ mqtt.Client, msg mqtt.Message) {
		printReading(out, msg.Payload())
	})
	magToken.Wait()
	if magToken.Error() != nil {
		return magToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicMagRaw)

	// Subscribe to heading decisions
	headingToken := client.Subscribe(cfg.TopicHeading, 0, func(_ mqtt.Client, msg mqtt.Message) {
		printReport(out, msg.Payload())
	})
	headingToken.Wait()
	if headingToken.Error() != nil {
		return headingToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicHeading)

	<-ctx.Done()

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}

func printReading(out io.Writer, payload []byte) {
	var r mag.Reading
	if err := json.Unmarshal(payload, &r); err != nil {
		log.Printf("console: mag unmarshal error: %v", err)
		return
	}
	fmt.Fprintf(out, "[MAG ]  x=%6d y=%6d z=%6d  |B|=%8.1f  %s\n", r.X, r.Y, r.Z, r.Norm, r.Time)
}

func printReport(out io.Writer, payload []byte) {
	var rep heading.Report
	if err := json.Unmarshal(payload, &rep); err != nil {
		log.Printf("console: heading unmarshal error: %v", err)
		return
	}
	state := "----"
	if rep.Facing {
		state = "NORTH"
	}
	fmt.Fprintf(out, "[HEAD]  %-5s  led=%d  x=%6d y=%6d z=%6d  %s\n", state, rep.LED, rep.X, rep.Y, rep.Z, rep.Time)
}
