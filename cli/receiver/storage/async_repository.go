package storage

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/daniil11ru/itms/cli/receiver/storage/codec"
	log "github.com/sirupsen/logrus"
)

var ErrClosed = errors.New("async repository closed")

// AsyncRepository пересылает записи в фоне пулом воркеров, чтобы медленное
// хранилище не задерживало обработку сообщений.
type AsyncRepository struct {
	repo   Saver
	logger log.FieldLogger
	ch     chan codec.Record
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.RWMutex
	closed bool
}

func NewAsyncRepository(repo Saver, buffer, workers int, logger log.FieldLogger) *AsyncRepository {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())
	ar := &AsyncRepository{
		repo:   repo,
		logger: logger,
		ch:     make(chan codec.Record, buffer),
		ctx:    ctx,
		cancel: cancel,
	}
	for i := 0; i < workers; i++ {
		ar.wg.Add(1)
		go ar.worker()
	}
	return ar
}

func (a *AsyncRepository) worker() {
	defer a.wg.Done()
	for msg := range a.ch {
		if err := a.repo.Save(msg); err != nil {
			a.logger.WithField("err", err).Error("Ошибка пересылки показаний")
		}
	}
}

func (a *AsyncRepository) Save(m codec.Record) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		return ErrClosed
	}

	select {
	case a.ch <- m:
		return nil
	case <-a.ctx.Done():
		return ErrClosed
	}
}

// Close перестает принимать записи и дожидается отправки уже поставленных в очередь
func (a *AsyncRepository) Close() {
	a.cancel()

	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.ch)
	}
	a.mu.Unlock()

	a.wg.Wait()
}
