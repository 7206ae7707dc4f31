package storage

import (
	"errors"
	"fmt"

	"github.com/daniil11ru/itms/cli/receiver/storage/codec"
	"github.com/daniil11ru/itms/cli/receiver/storage/store/nats"
	"github.com/daniil11ru/itms/cli/receiver/storage/store/rabbitmq"
	"github.com/daniil11ru/itms/cli/receiver/storage/store/redis"
	"github.com/daniil11ru/itms/cli/receiver/storage/store/tarantool_queue"
)

var ErrInvalidStorage = errors.New("storage not found")
var ErrUnknownStorage = errors.New("storage isn't support yet")

type Store interface {
	Connector
	Saver
}

// Saver интерфейс для пересылки показаний во внешние хранилища
type Saver interface {
	// Save отправка записи в хранилище
	Save(codec.Record) error
}

// Connector интерфейс для подключения внешних хранилищ
type Connector interface {
	// Init установка соединения с хранилищем
	Init(map[string]string) error

	// Close закрытие соединения с хранилищем
	Close() error
}

// Repository набор выходных хранилищ
type Repository struct {
	storages []Saver
}

// AddStore добавляет хранилище для пересылки данных
func (r *Repository) AddStore(s Saver) {
	r.storages = append(r.storages, s)
}

// Len количество подключенных хранилищ
func (r *Repository) Len() int {
	return len(r.storages)
}

// Save отправляет запись во все установленные хранилища
func (r *Repository) Save(m codec.Record) error {
	for _, store := range r.storages {
		if err := store.Save(m); err != nil {
			return err
		}
	}
	return nil
}

// LoadStorages загружает хранилища из структуры конфига
func (r *Repository) LoadStorages(storages map[string]map[string]string) error {
	if len(storages) == 0 {
		return ErrInvalidStorage
	}

	var db Store
	for store, params := range storages {
		switch store {
		case "nats":
			db = &nats.Connector{}
		case "rabbitmq":
			db = &rabbitmq.Connector{}
		case "redis":
			db = &redis.Connector{}
		case "tarantool_queue":
			db = &tarantool_queue.Connector{}
		default:
			return fmt.Errorf("%w: %s", ErrUnknownStorage, store)
		}

		if err := db.Init(params); err != nil {
			return fmt.Errorf("ошибка инициализации хранилища %s: %w", store, err)
		}

		r.AddStore(db)
	}
	return nil
}

// Close закрывает соединения всех хранилищ, которые их держат
func (r *Repository) Close() error {
	var firstErr error
	for _, store := range r.storages {
		c, ok := store.(Connector)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NewRepository создает пустой репозиторий
func NewRepository() *Repository {
	return &Repository{}
}
