package nats

/*
Плагин для пересылки показаний в NATS.

Раздел настроек, которые должны отвечать в конфиге для подключения хранилища:

servers = "nats://localhost:4222"
subject = "itms.readings"
user = "user"         (необязательно)
password = "pass"     (необязательно)
format = "json"       (json, msgpack, cbor, protobuf)
*/

import (
	"fmt"

	"github.com/daniil11ru/itms/cli/receiver/storage/codec"
	"github.com/nats-io/nats.go"
)

type Connector struct {
	connection *nats.Conn
	config     map[string]string
	subject    string
	format     string
}

func (c *Connector) Init(cfg map[string]string) error {
	var (
		err error
	)
	if cfg == nil {
		return fmt.Errorf("некорректная ссылка на конфигурацию")
	}
	c.config = cfg

	c.subject = c.config["subject"]
	if c.subject == "" {
		return fmt.Errorf("не задан subject для NATS")
	}
	c.format = c.config["format"]
	if err = codec.Validate(c.format); err != nil {
		return err
	}

	servers := c.config["servers"]
	if servers == "" {
		servers = nats.DefaultURL
	}

	opts := []nats.Option{nats.Name("itms-850-receiver")}
	if c.config["user"] != "" {
		opts = append(opts, nats.UserInfo(c.config["user"], c.config["password"]))
	}

	if c.connection, err = nats.Connect(servers, opts...); err != nil {
		return fmt.Errorf("ошибка подключения к NATS: %v", err)
	}
	return err
}

func (c *Connector) Save(msg codec.Record) error {
	if msg == nil {
		return fmt.Errorf("некорректная ссылка на пакет")
	}

	innerPkg, err := codec.Marshal(c.format, msg)
	if err != nil {
		return fmt.Errorf("ошибка сериализации пакета: %v", err)
	}

	if err = c.connection.Publish(c.subject, innerPkg); err != nil {
		return fmt.Errorf("не удалось отправить сообщение: %v", err)
	}
	return nil
}

func (c *Connector) Close() error {
	if c.connection == nil {
		return nil
	}
	return c.connection.Drain()
}
