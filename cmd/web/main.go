// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/find_north/internal/app"
	"github.com/relabs-tech/find_north/internal/config"
)

func main() {
	configPath := flag.String("config", "./configs/find_north_config.txt", "path to configuration file")
	flag.Parse()

	log.Println("starting find_north web (MQTT → HTTP)")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.Get()
	if cfg.MQTTBroker == "" {
		log.Fatalf("MQTT_BROKER is required for the web server")
	}

	if err := app.RunWeb(cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
