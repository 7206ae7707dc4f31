package rabbitmq

/*
Плагин для пересылки показаний в RabbitMQ.

Раздел настроек, которые должны отвечать в конфиге для подключения хранилища:

host = "localhost"
port = "5672"
user = "guest"
password = "guest"
exchange = "receiver"
exchange_type = "topic"  (по умолчанию "topic")
routing_key = "itms"     (по умолчанию пустой)
format = "json"
*/

import (
	"fmt"

	"github.com/daniil11ru/itms/cli/receiver/storage/codec"
	"github.com/streadway/amqp"
)

type Connector struct {
	connection   *amqp.Connection
	channel      *amqp.Channel
	config       map[string]string
	exchangeType string
	format       string
}

// URL строка подключения из настроек
func (c *Connector) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/", c.config["user"], c.config["password"], c.config["host"], c.config["port"])
}

func (c *Connector) Init(cfg map[string]string) error {
	var (
		err error
	)
	if cfg == nil {
		return fmt.Errorf("некорректная ссылка на конфигурацию")
	}
	c.config = cfg

	for _, key := range []string{"host", "port", "user", "password", "exchange"} {
		if c.config[key] == "" {
			return fmt.Errorf("не задан параметр %s для RabbitMQ", key)
		}
	}
	c.exchangeType = c.config["exchange_type"]
	if c.exchangeType == "" {
		c.exchangeType = amqp.ExchangeTopic
	}
	c.format = c.config["format"]
	if err = codec.Validate(c.format); err != nil {
		return err
	}

	if c.connection, err = amqp.Dial(c.URL()); err != nil {
		return fmt.Errorf("ошибка подключения к RabbitMQ: %v", err)
	}

	if c.channel, err = c.connection.Channel(); err != nil {
		c.connection.Close()
		return fmt.Errorf("ошибка открытия канала RabbitMQ: %v", err)
	}

	err = c.channel.ExchangeDeclare(
		c.config["exchange"],
		c.exchangeType,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		c.connection.Close()
		return fmt.Errorf("не удалось объявить exchange: %v", err)
	}
	return nil
}

func (c *Connector) Save(msg codec.Record) error {
	if msg == nil {
		return fmt.Errorf("некорректная ссылка на пакет")
	}

	innerPkg, err := codec.Marshal(c.format, msg)
	if err != nil {
		return fmt.Errorf("ошибка сериализации пакета: %v", err)
	}

	err = c.channel.Publish(
		c.config["exchange"],
		c.config["routing_key"],
		false,
		false,
		amqp.Publishing{
			ContentType: contentType(c.format),
			Body:        innerPkg,
		},
	)
	if err != nil {
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

func contentType(format string) string {
	switch format {
	case codec.MsgPack:
		return "application/msgpack"
	case codec.CBOR:
		return "application/cbor"
	case codec.Protobuf:
		return "application/x-protobuf"
	default:
		return "application/json"
	}
}
