package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/daniil11ru/itms/cli/receiver/api"
	"github.com/daniil11ru/itms/cli/receiver/config"
	"github.com/daniil11ru/itms/cli/receiver/domain"
	"github.com/daniil11ru/itms/cli/receiver/envelope"
	"github.com/daniil11ru/itms/cli/receiver/storage"
	"github.com/daniil11ru/itms/cli/receiver/subscriber"

	"github.com/rifflock/lfshook"
	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	configFilePath := ""
	flag.StringVar(&configFilePath, "c", "config.json", "Путь до конфига")
	flag.Parse()
	config, err := getConfig(configFilePath)
	if err != nil {
		log.Fatalf("Не удалось получить конфиг: %v", err)
		return
	}

	configureLogging(config)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, config)
	stop()
	if err != nil {
		log.Fatalf("Приемник завершился с ошибкой: %v", err)
	}
}

// run работает до отмены ctx. Хранилища закрываются до возврата, в том числе при ошибке.
func run(ctx context.Context, config config.Settings) error {
	stats := domain.NewStats(time.Now())
	processMessage := domain.ProcessMessage{
		Logger:   log.StandardLogger(),
		Envelope: envelope.NewParser(config.PayloadFieldName, config.ForeignKeys),
		Stats:    stats,
	}

	if len(config.Store) > 0 {
		repo, closeRepo, err := loadStorages(config)
		if err != nil {
			return fmt.Errorf("не удалось загрузить хранилища: %w", err)
		}
		defer closeRepo()
		processMessage.Saver = repo
	}

	apiCtx, stopApi := context.WithCancel(ctx)
	defer stopApi()
	if config.ApiPort > 0 {
		go runApi(apiCtx, stats, config.ApiPort)
	}

	if err := runSubscriber(ctx, config, &processMessage); err != nil {
		return fmt.Errorf("подписчик завершился с ошибкой: %w", err)
	}
	return nil
}

func getConfig(configFilePath string) (config.Settings, error) {
	var c config.Settings
	var err error

	if configFilePath == "" {
		return c, errors.New("не задан путь до конфига")
	}

	c, err = config.New(configFilePath)
	if err != nil {
		return c, fmt.Errorf("ошибка парсинга конфига: %w", err)
	}

	return c, nil
}

func configureLogging(config config.Settings) {
	log.SetLevel(config.GetLogLevel())

	consoleFmt := &log.TextFormatter{ForceColors: true, FullTimestamp: false}
	log.SetFormatter(consoleFmt)
	log.SetOutput(os.Stdout)

	pahoLogger := log.WithField("component", "paho")
	mqtt.ERROR = pahoLogger
	mqtt.CRITICAL = pahoLogger

	if config.LogFilePath != "" {
		logDir := filepath.Dir(config.LogFilePath)
		if _, err := os.Stat(logDir); os.IsNotExist(err) {
			if err := os.MkdirAll(logDir, os.ModePerm); err != nil {
				log.Fatalf("Не получилось создать директорию для логов: %v", err)
			}
		}

		log.AddHook(newFileHook(config))
	}
}

func newFileHook(config config.Settings) *lfshook.LfsHook {
	lumberjackLogger := &lumberjack.Logger{
		Filename:   config.LogFilePath,
		MaxSize:    100,
		MaxBackups: 366,
		MaxAge:     config.LogMaxAgeDays,
		Compress:   true,
	}

	fileFmt := &log.TextFormatter{DisableColors: true, FullTimestamp: true}
	return lfshook.NewHook(lfshook.WriterMap{
		log.PanicLevel: lumberjackLogger,
		log.FatalLevel: lumberjackLogger,
		log.ErrorLevel: lumberjackLogger,
		log.WarnLevel:  lumberjackLogger,
		log.InfoLevel:  lumberjackLogger,
		log.DebugLevel: lumberjackLogger,
		log.TraceLevel: lumberjackLogger,
	}, fileFmt)
}

func loadStorages(config config.Settings) (domain.ReadingSaver, func(), error) {
	repo := storage.NewRepository()
	if err := repo.LoadStorages(config.Store); err != nil {
		_ = repo.Close()
		return nil, nil, err
	}
	log.WithField("count", repo.Len()).Info("Подключены хранилища для пересылки показаний")

	if config.AsyncWorkers <= 0 {
		return repo, func() { _ = repo.Close() }, nil
	}

	async := storage.NewAsyncRepository(repo, config.AsyncBuffer, config.AsyncWorkers, log.StandardLogger())
	return async, func() {
		async.Close()
		_ = repo.Close()
	}, nil
}

func runSubscriber(ctx context.Context, config config.Settings, processMessage *domain.ProcessMessage) error {
	sub := subscriber.New(subscriber.Options{
		Broker:         config.GetBrokerURL(),
		ClientID:       config.ClientID,
		Username:       config.Username,
		Password:       config.Password,
		Topic:          config.Topic,
		QoS:            byte(config.QoS),
		KeepAlive:      config.GetKeepAlive(),
		ConnectTimeout: config.GetConnectTimeout(),
		QueueSize:      config.QueueSize,
	}, processMessage.Run, log.StandardLogger())

	log.WithFields(log.Fields{
		"broker": config.GetBrokerURL(),
		"topic":  config.Topic,
	}).Info("Запуск подписчика")
	return sub.Run(ctx)
}

func runApi(ctx context.Context, stats *domain.Stats, port int) {
	controller := api.NewController(api.NewHandler(stats))
	log.Infof("Запуск API на порту %d", port)
	if err := controller.Run(ctx, port); err != nil {
		log.WithField("err", err).Error("API остановлено с ошибкой")
	}
}
