package config

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	log "github.com/sirupsen/logrus"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestConfigLoad(t *testing.T) {
	// To prevent log output during tests
	log.SetOutput(io.Discard)

	cfg := `server: "192.168.0.10"
port: 1883
topic: "aerix/itms850"
client_id: "receiver-1"
username: "user"
password: "secret"
qos: 1
log_level: "DEBUG"
queue_size: 16
api_port: 8080

storage:
  nats:
    servers: "nats://localhost:4222"
    subject: "itms.readings"
  redis:
    host: "localhost"
    port: "6379"
    channel: "itms"
    format: "msgpack"
`

	conf, err := New(writeConfig(t, "config.yaml", cfg))
	if assert.NoError(t, err) {
		assert.Equal(t, Settings{
			Server:            "192.168.0.10",
			Port:              1883,
			Topic:             "aerix/itms850",
			ClientID:          "receiver-1",
			Username:          "user",
			Password:          "secret",
			QoS:               1,
			KeepAliveSec:      60, // Default value
			ConnectTimeoutSec: 10, // Default value
			QueueSize:         16,
			LogLevel:          "DEBUG",
			PayloadFieldName:  "payload",       // Default value
			ForeignKeys:       []string{"mac"}, // Default value
			Store: map[string]map[string]string{
				"nats": {
					"servers": "nats://localhost:4222",
					"subject": "itms.readings",
				},
				"redis": {
					"host":    "localhost",
					"port":    "6379",
					"channel": "itms",
					"format":  "msgpack",
				},
			},
			ApiPort: 8080,
		},
			conf,
		)
	}
}

// The vendor sample ships a config.json with server, port and topic only.
func TestConfigLoad_VendorJSON(t *testing.T) {
	log.SetOutput(io.Discard)

	conf, err := New(writeConfig(t, "config.json", `{"server": "broker.local", "port": 1884, "topic": "itms/data"}`))
	require.NoError(t, err)

	assert.Equal(t, "broker.local", conf.Server)
	assert.Equal(t, 1884, conf.Port)
	assert.Equal(t, "itms/data", conf.Topic)
	assert.Equal(t, "tcp://broker.local:1884", conf.GetBrokerURL())
	assert.Equal(t, "itms-850-receiver", conf.ClientID)
	assert.Equal(t, 256, conf.QueueSize)
	assert.Equal(t, 60*time.Second, conf.GetKeepAlive())
	assert.Equal(t, 10*time.Second, conf.GetConnectTimeout())
}

func TestConfigLoad_Validation(t *testing.T) {
	log.SetOutput(io.Discard)

	tests := []struct {
		name        string
		yamlContent string
		expectError bool
		expectedQoS int
	}{
		{
			name:        "Missing server",
			yamlContent: `topic: "t"`,
			expectError: true,
		},
		{
			name:        "Missing topic",
			yamlContent: `server: "localhost"`,
			expectError: true,
		},
		{
			name: "Port out of range",
			yamlContent: `
server: "localhost"
port: 70000
topic: "t"
`,
			expectError: true,
		},
		{
			name: "Invalid QoS falls back to 0",
			yamlContent: `
server: "localhost"
topic: "t"
qos: 5
`,
			expectedQoS: 0,
		},
		{
			name: "QoS 2 kept",
			yamlContent: `
server: "localhost"
topic: "t"
qos: 2
`,
			expectedQoS: 2,
		},
		{
			name:        "Broken YAML",
			yamlContent: "server: [",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := New(writeConfig(t, "config.yaml", tt.yamlContent))
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedQoS, cfg.QoS)
		})
	}
}

func TestConfigLoad_NonExistentFile(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestForeignKeysOverride(t *testing.T) {
	log.SetOutput(io.Discard)

	cfg, err := New(writeConfig(t, "config.yaml", `
server: "localhost"
topic: "t"
foreign_keys: []
payload_field_name: "data"
`))
	require.NoError(t, err)
	assert.Empty(t, cfg.ForeignKeys)
	assert.Equal(t, "data", cfg.PayloadFieldName)
}

func TestGetBrokerURL(t *testing.T) {
	tests := []struct {
		server string
		port   int
		want   string
	}{
		{"ssl://broker.example.com:8883", 1883, "ssl://broker.example.com:8883"},
		{"10.0.0.1", 1883, "tcp://10.0.0.1:1883"},
		{"localhost", 1884, "tcp://localhost:1884"},
		{"localhost:1883", 1883, "tcp://localhost:1883"},
		{"broker.local:8883", 1883, "tcp://broker.local:8883"},
		{"::1", 1883, "tcp://[::1]:1883"},
	}
	for _, tt := range tests {
		s := Settings{Server: tt.server, Port: tt.port}
		assert.Equal(t, tt.want, s.GetBrokerURL(), tt.server)
	}
}

func TestGetLogLevel(t *testing.T) {
	tests := map[string]log.Level{
		"DEBUG": log.DebugLevel,
		"INFO":  log.InfoLevel,
		"WARN":  log.WarnLevel,
		"ERROR": log.ErrorLevel,
		"":      log.InfoLevel,
		"bogus": log.InfoLevel,
	}
	for in, want := range tests {
		s := Settings{LogLevel: in}
		assert.Equal(t, want, s.GetLogLevel(), in)
	}
}
