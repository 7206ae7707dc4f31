package config

/*
Описание конфигурационного файла.

YAML является надмножеством JSON, поэтому файл config.json из примера
производителя (server, port, topic) читается без изменений.
*/

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"gopkg.in/yaml.v2"
)

const (
	defaultPort             = 1883
	defaultClientID         = "itms-850-receiver"
	defaultKeepAliveSec     = 60
	defaultConnectTimeout   = 10
	defaultQueueSize        = 256
	defaultPayloadFieldName = "payload"
	defaultForeignKey       = "mac"
)

type Settings struct {
	Server            string                       `yaml:"server"`
	Port              int                          `yaml:"port"`
	Topic             string                       `yaml:"topic"`
	ClientID          string                       `yaml:"client_id"`
	Username          string                       `yaml:"username"`
	Password          string                       `yaml:"password"`
	QoS               int                          `yaml:"qos"`
	KeepAliveSec      int                          `yaml:"keepalive_sec"`
	ConnectTimeoutSec int                          `yaml:"connect_timeout_sec"`
	QueueSize         int                          `yaml:"queue_size"`
	LogLevel          string                       `yaml:"log_level"`
	LogFilePath       string                       `yaml:"log_file_path"`
	LogMaxAgeDays     int                          `yaml:"log_max_age_days"`
	PayloadFieldName  string                       `yaml:"payload_field_name"`
	ForeignKeys       []string                     `yaml:"foreign_keys"`
	Store             map[string]map[string]string `yaml:"storage"`
	AsyncWorkers      int                          `yaml:"async_workers"`
	AsyncBuffer       int                          `yaml:"async_buffer"`
	ApiPort           int                          `yaml:"api_port"`
}

// GetBrokerURL адрес брокера в формате, который понимает paho (tcp://host:port).
// Если в server уже указаны схема или порт, port не используется.
func (s *Settings) GetBrokerURL() string {
	if strings.Contains(s.Server, "://") {
		return s.Server
	}
	if _, _, err := net.SplitHostPort(s.Server); err == nil {
		return "tcp://" + s.Server
	}
	return "tcp://" + net.JoinHostPort(s.Server, strconv.Itoa(s.Port))
}

func (s *Settings) GetKeepAlive() time.Duration {
	return time.Duration(s.KeepAliveSec) * time.Second
}

func (s *Settings) GetConnectTimeout() time.Duration {
	return time.Duration(s.ConnectTimeoutSec) * time.Second
}

func (s *Settings) GetLogLevel() log.Level {
	var lvl log.Level

	switch s.LogLevel {
	case "DEBUG":
		lvl = log.DebugLevel
	case "INFO":
		lvl = log.InfoLevel
	case "WARN":
		lvl = log.WarnLevel
	case "ERROR":
		lvl = log.ErrorLevel
	default:
		lvl = log.InfoLevel
	}
	return lvl
}

func New(confPath string) (Settings, error) {
	c := Settings{}
	data, err := os.ReadFile(confPath)
	if err != nil {
		return c, err
	}
	err = yaml.Unmarshal(data, &c)
	if err != nil {
		return c, err
	}

	if c.Server == "" {
		return c, fmt.Errorf("не задан адрес MQTT-брокера (server)")
	}
	if c.Topic == "" {
		return c, fmt.Errorf("не задан топик (topic)")
	}

	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.ClientID == "" {
		c.ClientID = defaultClientID
	}
	if c.KeepAliveSec == 0 {
		c.KeepAliveSec = defaultKeepAliveSec
	}
	if c.ConnectTimeoutSec == 0 {
		c.ConnectTimeoutSec = defaultConnectTimeout
	}
	if c.QueueSize == 0 {
		c.QueueSize = defaultQueueSize
	}
	if c.PayloadFieldName == "" {
		c.PayloadFieldName = defaultPayloadFieldName
	}
	if c.ForeignKeys == nil {
		c.ForeignKeys = []string{defaultForeignKey}
	}

	if c.QoS < 0 || c.QoS > 2 {
		log.Errorf("Invalid QoS (%d). Values must be between 0 and 2. Defaulting to 0.", c.QoS)
		c.QoS = 0
	}

	if c.Port < 1 || c.Port > 65535 {
		return c, fmt.Errorf("некорректный порт MQTT-брокера: %d", c.Port)
	}

	return c, nil
}
