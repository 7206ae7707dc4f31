package tarantool_queue

/*
Плагин для пересылки показаний в очередь Tarantool.

Раздел настроек, которые должны отвечать в конфиге для подключения хранилища:

host = "localhost"
port = "3301"
user = "user"
password = "pass"
queue = "readings"
max_recons = 5    (необязательно, по умолчанию 5)
timeout = 1       (необязательно, секунды, по умолчанию 1)
reconnect = 1     (необязательно, секунды, 0 отключает переподключение)
format = "json"   (json, msgpack, cbor, protobuf)
*/

import (
	"fmt"
	"strconv"
	"time"

	"github.com/daniil11ru/itms/cli/receiver/storage/codec"
	"github.com/tarantool/go-tarantool"
	"github.com/tarantool/go-tarantool/queue"
)

const (
	defaultMaxRecons = 5
	defaultTimeout   = 1
	defaultReconnect = 1
)

type Connector struct {
	connection *tarantool.Connection
	queue      queue.Queue
	config     map[string]string
	format     string
}

func intParam(cfg map[string]string, key string, def int) (int, error) {
	v, ok := cfg[key]
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("не удалось получить %s: %v", key, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("отрицательное значение %s: %d", key, n)
	}
	return n, nil
}

func (c *Connector) Init(cfg map[string]string) error {
	if cfg == nil {
		return fmt.Errorf("некорректная ссылка на конфигурацию")
	}
	c.config = cfg

	for _, key := range []string{"host", "port", "queue"} {
		if c.config[key] == "" {
			return fmt.Errorf("не задан параметр %s для Tarantool", key)
		}
	}
	c.format = c.config["format"]
	if err := codec.Validate(c.format); err != nil {
		return err
	}

	maxRecons, err := intParam(c.config, "max_recons", defaultMaxRecons)
	if err != nil {
		return err
	}
	timeout, err := intParam(c.config, "timeout", defaultTimeout)
	if err != nil {
		return err
	}
	reconnect, err := intParam(c.config, "reconnect", defaultReconnect)
	if err != nil {
		return err
	}

	opts := tarantool.Opts{
		Timeout:       time.Duration(timeout) * time.Second,
		Reconnect:     time.Duration(reconnect) * time.Second,
		MaxReconnects: uint(maxRecons),
		User:          c.config["user"],
		Pass:          c.config["password"],
	}

	conStr := fmt.Sprintf("%s:%s", c.config["host"], c.config["port"])
	c.connection, err = tarantool.Connect(conStr, opts)
	if err != nil {
		return fmt.Errorf("не удалось подключиться к Tarantool: %v", err)
	}
	c.queue = queue.New(c.connection, c.config["queue"])

	return nil
}

func (c *Connector) Save(msg codec.Record) error {
	if msg == nil {
		return fmt.Errorf("некорректная ссылка на пакет")
	}
	if c.queue == nil {
		return fmt.Errorf("очередь Tarantool не инициализирована")
	}

	innerPkg, err := codec.Marshal(c.format, msg)
	if err != nil {
		return fmt.Errorf("ошибка сериализации пакета: %v", err)
	}

	if _, err = c.queue.Put(innerPkg); err != nil {
		return fmt.Errorf("не удалось отправить сообщение: %v", err)
	}
	return nil
}

func (c *Connector) Close() error {
	if c.connection == nil {
		return nil
	}
	return c.connection.Close()
}
