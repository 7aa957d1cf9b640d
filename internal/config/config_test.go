package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimal = `
# minimal bench setup
MAG_SOURCE=mock
LED_DRIVER=mock
`

func TestParse_MinimalUsesDefaults(t *testing.T) {
	cfg, err := Parse(strings.NewReader(minimal))
	require.NoError(t, err)

	assert.Equal(t, MagSourceMock, cfg.MagSource)
	assert.Equal(t, LEDDriverMock, cfg.LEDDriver)
	assert.Equal(t, uint16(0x1E), cfg.MagI2CAddr)
	assert.Equal(t, 3, cfg.LEDMockCount)
	assert.Equal(t, "findnorth/heading", cfg.TopicHeading)
	assert.Equal(t, 100, cfg.ProducerSampleInterval)
	assert.Equal(t, int64(50), cfg.MockInterval().Milliseconds())
	assert.False(t, cfg.LogSamples)
}

func TestParse_FullFile(t *testing.T) {
	in := `
MAG_SOURCE = fxos8700cq
MAG_I2C_BUS = 1
MAG_I2C_ADDR = 0x1F
LED_DRIVER = gpio
LED_GPIO_PINS = GPIO17, GPIO27 ,GPIO22
MQTT_BROKER = tcp://localhost:1883
TOPIC_HEADING = lab/heading
LOG_SAMPLES = true
WEB_SERVER_PORT = 9090
`
	cfg, err := Parse(strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, "1", cfg.MagI2CBus)
	assert.Equal(t, uint16(0x1F), cfg.MagI2CAddr)
	assert.Equal(t, []string{"GPIO17", "GPIO27", "GPIO22"}, cfg.LEDGPIOPins)
	assert.Equal(t, "tcp://localhost:1883", cfg.MQTTBroker)
	assert.Equal(t, "lab/heading", cfg.TopicHeading)
	assert.True(t, cfg.LogSamples)
	assert.Equal(t, 9090, cfg.WebServerPort)
}

func TestParse_RPIOPins(t *testing.T) {
	cfg, err := Parse(strings.NewReader("MAG_SOURCE=mock\nLED_DRIVER=rpio\nLED_RPIO_PINS=17,27"))
	require.NoError(t, err)
	assert.Equal(t, []int{17, 27}, cfg.LEDRPIOPins)
}

func TestParse_Errors(t *testing.T) {
	cases := []struct {
		name string
		in   string
		msg  string
	}{
		{"missing_mag_source", "LED_DRIVER=mock", "MAG_SOURCE is required"},
		{"missing_led_driver", "MAG_SOURCE=mock", "LED_DRIVER is required"},
		{"unknown_mag_source", "MAG_SOURCE=compass\nLED_DRIVER=mock", "unknown MAG_SOURCE"},
		{"unknown_led_driver", "MAG_SOURCE=mock\nLED_DRIVER=lamp", "unknown LED_DRIVER"},
		{"unknown_key", minimal + "FOO=bar", "unknown config key"},
		{"no_equals", minimal + "JUSTTEXT", "invalid config line"},
		{"gpio_without_pins", "MAG_SOURCE=mock\nLED_DRIVER=gpio", "LED_GPIO_PINS is required"},
		{"rpio_without_pins", "MAG_SOURCE=mock\nLED_DRIVER=rpio", "LED_RPIO_PINS is required"},
		{"rpio_bad_pin", "MAG_SOURCE=mock\nLED_DRIVER=rpio\nLED_RPIO_PINS=17,99", "BCM 0-53"},
		{"mqtt_without_broker", "MAG_SOURCE=mqtt\nLED_DRIVER=mock", "MQTT_BROKER is required"},
		{"bad_addr", minimal + "MAG_I2C_ADDR=zz", "invalid MAG_I2C_ADDR"},
		{"bad_intensity", minimal + "LED_APA102_INTENSITY=300", "0-255"},
		{"bad_bool", minimal + "LOG_SAMPLES=maybe", "invalid LOG_SAMPLES"},
		{"bad_port", minimal + "WEB_SERVER_PORT=70000", "1-65535"},
		{"zero_interval", minimal + "MAG_MOCK_INTERVAL=0", "MAG_MOCK_INTERVAL must be > 0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tc.in))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.msg)
		})
	}
}

func TestLoad_TextFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "find_north_config.txt")
	require.NoError(t, os.WriteFile(path, []byte(minimal), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, MagSourceMock, cfg.MagSource)
}

func TestLoad_YAMLFile(t *testing.T) {
	in := `
mag_source: serial
mag_serial_port: /dev/ttyUSB0
mag_baud_rate: 9600
mag_i2c_addr: 0x1F
led_driver: gpio
led_gpio_pins: [GPIO17, GPIO27]
log_samples: true
`
	path := filepath.Join(t.TempDir(), "find_north.yaml")
	require.NoError(t, os.WriteFile(path, []byte(in), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, MagSourceSerial, cfg.MagSource)
	assert.Equal(t, "/dev/ttyUSB0", cfg.MagSerialPort)
	assert.Equal(t, 9600, cfg.MagBaudRate)
	assert.Equal(t, uint16(0x1F), cfg.MagI2CAddr)
	assert.Equal(t, []string{"GPIO17", "GPIO27"}, cfg.LEDGPIOPins)
	assert.True(t, cfg.LogSamples)
}

func TestLoad_YAMLUnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "find_north.yml")
	require.NoError(t, os.WriteFile(path, []byte("mag_source: mock\nled_driver: mock\nbogus: 1\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown config key")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
}
