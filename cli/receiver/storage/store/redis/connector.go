package redis

/*
Плагин для пересылки показаний в Redis (PUBLISH в канал, без хранения).

Раздел настроек, которые должны отвечать в конфиге для подключения хранилища:

host = "localhost"
port = "6379"
password = ""      (необязательно)
db = "0"           (необязательно)
channel = "itms"
format = "json"
*/

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/daniil11ru/itms/cli/receiver/storage/codec"
	"github.com/go-redis/redis/v8"
)

const timeout = 5 * time.Second

type Connector struct {
	connection *redis.Client
	config     map[string]string
	channel    string
	format     string
}

func (c *Connector) Init(cfg map[string]string) error {
	if cfg == nil {
		return fmt.Errorf("некорректная ссылка на конфигурацию")
	}
	c.config = cfg

	c.channel = c.config["channel"]
	if c.channel == "" {
		return fmt.Errorf("не задан channel для Redis")
	}
	c.format = c.config["format"]
	if err := codec.Validate(c.format); err != nil {
		return err
	}

	db := 0
	if c.config["db"] != "" {
		var err error
		if db, err = strconv.Atoi(c.config["db"]); err != nil {
			return fmt.Errorf("не удалось получить номер базы Redis: %v", err)
		}
	}

	c.connection = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", c.config["host"], c.config["port"]),
		Password: c.config["password"],
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := c.connection.Ping(ctx).Err(); err != nil {
		c.connection.Close()
		return fmt.Errorf("Redis недоступен: %v", err)
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

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err = c.connection.Publish(ctx, c.channel, innerPkg).Err(); err != nil {
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
