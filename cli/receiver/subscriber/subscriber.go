package subscriber

import (
	"context"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
)

const (
	defaultQueueSize      = 256
	defaultConnectTimeout = 10 * time.Second
	disconnectQuiesceMs   = 250
)

var ErrConnect = errors.New("mqtt connect failed")

// Handler обработчик одного сообщения из топика
type Handler func(topic string, payload []byte) error

type Options struct {
	Broker         string
	ClientID       string
	Username       string
	Password       string
	Topic          string
	QoS            byte
	KeepAlive      time.Duration
	ConnectTimeout time.Duration
	QueueSize      int
}

type message struct {
	topic   string
	payload []byte
}

// Subscriber подписывается на топик и передает сообщения обработчику по одному.
// Колбэки paho только кладут сообщение в очередь, обработка идет в Run.
type Subscriber struct {
	opts    Options
	handler Handler
	logger  log.FieldLogger
	queue   chan message

	newClient func(*mqtt.ClientOptions) mqtt.Client
}

func New(opts Options, handler Handler, logger log.FieldLogger) *Subscriber {
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = defaultConnectTimeout
	}
	if logger == nil {
		logger = log.StandardLogger()
	}

	return &Subscriber{
		opts:      opts,
		handler:   handler,
		logger:    logger.WithField("broker", opts.Broker),
		queue:     make(chan message, opts.QueueSize),
		newClient: mqtt.NewClient,
	}
}

func (s *Subscriber) clientOptions() *mqtt.ClientOptions {
	o := mqtt.NewClientOptions().
		AddBroker(s.opts.Broker).
		SetClientID(s.opts.ClientID).
		SetAutoReconnect(true).
		SetOrderMatters(false).
		SetConnectTimeout(s.opts.ConnectTimeout).
		SetOnConnectHandler(s.onConnect).
		SetConnectionLostHandler(s.onConnectionLost)

	if s.opts.KeepAlive > 0 {
		o.SetKeepAlive(s.opts.KeepAlive)
	}
	if s.opts.Username != "" {
		o.SetUsername(s.opts.Username)
		o.SetPassword(s.opts.Password)
	}
	return o
}

// Run подключается к брокеру и обрабатывает сообщения до отмены ctx.
func (s *Subscriber) Run(ctx context.Context) error {
	client := s.newClient(s.clientOptions())

	token := client.Connect()
	if !token.WaitTimeout(s.opts.ConnectTimeout) {
		return fmt.Errorf("%w: истекло время ожидания (%s)", ErrConnect, s.opts.ConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %v", ErrConnect, err)
	}
	defer client.Disconnect(disconnectQuiesceMs)

	for {
		select {
		case <-ctx.Done():
			if t := client.Unsubscribe(s.opts.Topic); t.WaitTimeout(s.opts.ConnectTimeout) && t.Error() != nil {
				s.logger.WithField("err", t.Error()).Warn("Ошибка отписки от топика")
			}
			s.logger.Info("Подписчик остановлен")
			return nil
		case msg := <-s.queue:
			s.dispatch(msg)
		}
	}
}

func (s *Subscriber) dispatch(msg message) {
	if s.handler == nil {
		return
	}
	if err := s.handler(msg.topic, msg.payload); err != nil {
		s.logger.WithFields(log.Fields{
			"topic": msg.topic,
			"err":   err,
		}).Error("Ошибка обработки сообщения")
	}
}

func (s *Subscriber) onConnect(c mqtt.Client) {
	s.logger.Info("Установлено соединение с брокером")

	token := c.Subscribe(s.opts.Topic, s.opts.QoS, s.onMessage)
	go func() {
		if !token.WaitTimeout(s.opts.ConnectTimeout) {
			s.logger.WithField("topic", s.opts.Topic).Error("Истекло время ожидания подписки")
			return
		}
		if err := token.Error(); err != nil {
			s.logger.WithFields(log.Fields{"topic": s.opts.Topic, "err": err}).Error("Не удалось подписаться на топик")
			return
		}
		s.logger.WithField("topic", s.opts.Topic).Info("Подписка оформлена")
	}()
}

func (s *Subscriber) onConnectionLost(_ mqtt.Client, err error) {
	s.logger.WithField("err", err).Warn("Соединение с брокером потеряно")
}

func (s *Subscriber) onMessage(_ mqtt.Client, m mqtt.Message) {
	msg := message{topic: m.Topic(), payload: m.Payload()}
	select {
	case s.queue <- msg:
	default:
		s.logger.WithField("topic", msg.topic).Warn("Очередь сообщений переполнена, сообщение отброшено")
	}
}
