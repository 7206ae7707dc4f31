package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/daniil11ru/itms/cli/receiver/envelope"
	"github.com/daniil11ru/itms/cli/receiver/storage/codec"
	"github.com/daniil11ru/itms/libs/itms"
	"github.com/sirupsen/logrus"
)

type ReadingSaver interface {
	Save(codec.Record) error
}

// ProcessMessage обработка одного сообщения из топика: фильтр конверта, разбор
// полезной нагрузки ITMS-850, запись показаний в лог и пересылка в хранилища.
type ProcessMessage struct {
	Logger   logrus.FieldLogger
	Envelope envelope.Parser
	Saver    ReadingSaver
	Stats    *Stats
	Now      func() time.Time
}

func (domain *ProcessMessage) now() time.Time {
	if domain.Now == nil {
		return time.Now()
	}
	return domain.Now()
}

func (domain *ProcessMessage) Run(topic string, raw []byte) error {
	logger := domain.Logger.WithField("topic", topic)
	domain.Stats.inc(counterReceived)
	receivedAt := domain.now()

	logger.WithField("message", string(raw)).Debug("Получено сообщение")

	env, err := domain.Envelope.Parse(raw)
	if errors.Is(err, envelope.ErrForeign) {
		domain.Stats.inc(counterForeign)
		logger.Debug("Сообщение другого класса устройств пропущено")
		return nil
	}
	if err != nil {
		domain.Stats.inc(counterFailed)
		return fmt.Errorf("не удалось разобрать конверт: %w", err)
	}

	measurement, err := itms.Decode(env.Payload)
	if itms.IsFatal(err) {
		domain.Stats.inc(counterFailed)
		return fmt.Errorf("не удалось разобрать полезную нагрузку: %w", err)
	}

	reading := Reading{
		Topic:       topic,
		ReceivedAt:  receivedAt,
		Measurement: *measurement,
	}

	if fault, ok := itms.FaultOf(err); ok {
		domain.Stats.inc(counterInvalidCommand)
		reading.Faults = append(reading.Faults, fault.String())
		logger.WithFields(logrus.Fields{
			"command": measurement.Command,
			"fault":   fault.String(),
		}).Warn("Неверный код команды")
	} else {
		logger.Debug("Код команды корректен")
	}

	domain.Stats.inc(counterDecoded)
	domain.Stats.setLatest(reading)
	logMeasurement(logger, measurement)

	if domain.Saver == nil {
		return nil
	}
	if err := domain.Saver.Save(&reading); err != nil {
		domain.Stats.inc(counterForwardFailed)
		return fmt.Errorf("показания не были переданы в хранилища: %w", err)
	}
	domain.Stats.inc(counterForwarded)

	return nil
}

func logMeasurement(logger logrus.FieldLogger, m *itms.Measurement) {
	logger.WithFields(logrus.Fields{
		"pressure_sign":    m.PressureSign,
		"temperature_sign": m.TemperatureSign,
		"di4":              m.DigitalInput4,
		"di3":              m.DigitalInput3,
		"di2":              m.DigitalInput2,
		"di1":              m.DigitalInput1,
	}).Info("Флаги заголовка")

	logger.WithFields(logrus.Fields{
		"ai1": m.AnalogInput1,
		"ai2": m.AnalogInput2,
	}).Info("Аналоговые входы")

	logger.WithFields(logrus.Fields{
		"differential_pressure": m.DifferentialPressure,
		"pressure":              m.Pressure,
		"temperature":           fmt.Sprintf("%.2f", m.Temperature),
		"voltage":               m.Voltage,
		"current":               m.Current,
		"power":                 m.Power,
		"active_power":          m.ActivePower,
	}).Info("Показания")
}
