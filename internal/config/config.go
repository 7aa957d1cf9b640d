// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Magnetometer sources.
const (
	MagSourceFXOS8700CQ = "fxos8700cq"
	MagSourceSerial     = "serial"
	MagSourceMQTT       = "mqtt"
	MagSourceMock       = "mock"
)

// LED drivers.
const (
	LEDDriverGPIO   = "gpio"
	LEDDriverRPIO   = "rpio"
	LEDDriverAPA102 = "apa102"
	LEDDriverMock   = "mock"
)

// Config holds all application configuration values.
type Config struct {
	// Magnetometer
	MagSource       string
	MagI2CBus       string
	MagI2CAddr      uint16
	MagSerialPort   string
	MagBaudRate     int
	MagMockInterval int // milliseconds

	// LEDs
	LEDDriver          string
	LEDGPIOPins        []string
	LEDRPIOPins        []int
	LEDAPA102SPI       string
	LEDAPA102Count     int
	LEDAPA102Intensity uint8
	LEDMockCount       int

	// MQTT
	MQTTBroker             string
	MQTTClientIDController string
	MQTTClientIDProducer   string
	MQTTClientIDConsole    string
	MQTTClientIDWeb        string

	// Topics
	TopicMagRaw  string
	TopicHeading string

	// Timing
	ProducerSampleInterval int // milliseconds

	// Logging
	LogSamples bool

	// Web Server
	WebServerPort int
}

// Package-level singleton, same contract as before: InitGlobal once, Get everywhere.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns a Config with every optional value filled in.
func Default() *Config {
	return &Config{
		MagI2CAddr:             0x1E,
		MagSerialPort:          "/dev/ttyACM0",
		MagBaudRate:            115200,
		MagMockInterval:        50,
		LEDAPA102Count:         3,
		LEDAPA102Intensity:     64,
		LEDMockCount:           3,
		MQTTClientIDController: "find-north-controller",
		MQTTClientIDProducer:   "find-north-mag-producer",
		MQTTClientIDConsole:    "find-north-console",
		MQTTClientIDWeb:        "find-north-web",
		TopicMagRaw:            "findnorth/mag/raw",
		TopicHeading:           "findnorth/heading",
		ProducerSampleInterval: 100,
		WebServerPort:          8080,
	}
}

// Load reads the configuration file and returns a Config struct.
// Files ending in .yaml or .yml are decoded as a flat YAML mapping of the
// same keys; anything else is parsed as KEY=VALUE lines.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".yaml", ".yml":
		return parseYAML(file)
	default:
		return Parse(file)
	}
}

// Parse reads KEY=VALUE lines. Empty lines and lines starting with # are skipped.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseYAML(r io.Reader) (*Config, error) {
	raw := map[string]interface{}{}
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil && err != io.EOF {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}

	// Sorted so errors are reported deterministically.
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	cfg := Default()
	for _, key := range keys {
		if err := cfg.setValue(strings.ToUpper(key), yamlScalar(raw[key])); err != nil {
			return nil, fmt.Errorf("config key %s: %w", key, err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// yamlScalar flattens a decoded YAML value back to the KEY=VALUE text form.
// Sequences become comma separated lists.
func yamlScalar(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []interface{}:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = yamlScalar(e)
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(t)
	}
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// Magnetometer
	case "MAG_SOURCE":
		c.MagSource = strings.ToLower(value)
	case "MAG_I2C_BUS":
		c.MagI2CBus = value
	case "MAG_I2C_ADDR":
		addr, err := strconv.ParseUint(value, 0, 16)
		if err != nil {
			return fmt.Errorf("invalid MAG_I2C_ADDR %q: %w", value, err)
		}
		c.MagI2CAddr = uint16(addr)
	case "MAG_SERIAL_PORT":
		c.MagSerialPort = value
	case "MAG_BAUD_RATE":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid MAG_BAUD_RATE %q: %w", value, err)
		}
		c.MagBaudRate = rate
	case "MAG_MOCK_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid MAG_MOCK_INTERVAL %q: %w", value, err)
		}
		c.MagMockInterval = interval

	// LEDs
	case "LED_DRIVER":
		c.LEDDriver = strings.ToLower(value)
	case "LED_GPIO_PINS":
		c.LEDGPIOPins = splitList(value)
	case "LED_RPIO_PINS":
		pins := splitList(value)
		c.LEDRPIOPins = make([]int, 0, len(pins))
		for _, p := range pins {
			n, err := strconv.Atoi(p)
			if err != nil {
				return fmt.Errorf("invalid LED_RPIO_PINS entry %q: %w", p, err)
			}
			if n < 0 || n > 53 {
				return fmt.Errorf("LED_RPIO_PINS entries must be BCM 0-53, got %d", n)
			}
			c.LEDRPIOPins = append(c.LEDRPIOPins, n)
		}
	case "LED_APA102_SPI":
		c.LEDAPA102SPI = value
	case "LED_APA102_COUNT":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid LED_APA102_COUNT %q: %w", value, err)
		}
		if n < 0 {
			return fmt.Errorf("LED_APA102_COUNT must be >= 0, got %d", n)
		}
		c.LEDAPA102Count = n
	case "LED_APA102_INTENSITY":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid LED_APA102_INTENSITY %q: %w", value, err)
		}
		if n < 0 || n > 255 {
			return fmt.Errorf("LED_APA102_INTENSITY must be 0-255, got %d", n)
		}
		c.LEDAPA102Intensity = uint8(n)
	case "LED_MOCK_COUNT":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid LED_MOCK_COUNT %q: %w", value, err)
		}
		if n < 0 {
			return fmt.Errorf("LED_MOCK_COUNT must be >= 0, got %d", n)
		}
		c.LEDMockCount = n

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_CONTROLLER":
		c.MQTTClientIDController = value
	case "MQTT_CLIENT_ID_PRODUCER":
		c.MQTTClientIDProducer = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value

	// Topics
	case "TOPIC_MAG_RAW":
		c.TopicMagRaw = value
	case "TOPIC_HEADING":
		c.TopicHeading = value

	// Timing
	case "PRODUCER_SAMPLE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid PRODUCER_SAMPLE_INTERVAL %q: %w", value, err)
		}
		c.ProducerSampleInterval = interval

	// Logging
	case "LOG_SAMPLES":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid LOG_SAMPLES %q: %w", value, err)
		}
		c.LogSamples = b

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		if port <= 0 || port > 65535 {
			return fmt.Errorf("WEB_SERVER_PORT must be 1-65535, got %d", port)
		}
		c.WebServerPort = port

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks that all required fields are set and consistent.
func (c *Config) validate() error {
	switch c.MagSource {
	case "":
		return fmt.Errorf("MAG_SOURCE is required")
	case MagSourceFXOS8700CQ, MagSourceMock:
	case MagSourceSerial:
		if c.MagSerialPort == "" {
			return fmt.Errorf("MAG_SERIAL_PORT is required for MAG_SOURCE=serial")
		}
		if c.MagBaudRate <= 0 {
			return fmt.Errorf("MAG_BAUD_RATE must be > 0, got %d", c.MagBaudRate)
		}
	case MagSourceMQTT:
		if c.MQTTBroker == "" {
			return fmt.Errorf("MQTT_BROKER is required for MAG_SOURCE=mqtt")
		}
	default:
		return fmt.Errorf("unknown MAG_SOURCE %q", c.MagSource)
	}

	switch c.LEDDriver {
	case "":
		return fmt.Errorf("LED_DRIVER is required")
	case LEDDriverGPIO:
		if len(c.LEDGPIOPins) == 0 {
			return fmt.Errorf("LED_GPIO_PINS is required for LED_DRIVER=gpio")
		}
	case LEDDriverRPIO:
		if len(c.LEDRPIOPins) == 0 {
			return fmt.Errorf("LED_RPIO_PINS is required for LED_DRIVER=rpio")
		}
	case LEDDriverAPA102, LEDDriverMock:
	default:
		return fmt.Errorf("unknown LED_DRIVER %q", c.LEDDriver)
	}

	if c.MagMockInterval <= 0 {
		return fmt.Errorf("MAG_MOCK_INTERVAL must be > 0, got %d", c.MagMockInterval)
	}
	if c.ProducerSampleInterval <= 0 {
		return fmt.Errorf("PRODUCER_SAMPLE_INTERVAL must be > 0, got %d", c.ProducerSampleInterval)
	}
	return nil
}

// MockInterval returns the pacing of the mock magnetometer.
func (c *Config) MockInterval() time.Duration {
	return time.Duration(c.MagMockInterval) * time.Millisecond
}

// ProducerInterval returns the delay between two producer publishes.
func (c *Config) ProducerInterval() time.Duration {
	return time.Duration(c.ProducerSampleInterval) * time.Millisecond
}

func splitList(value string) []string {
	var out []string
	for _, p := range strings.Split(value, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
