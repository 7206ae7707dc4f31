package itms

import (
	"fmt"
	"math"
)

const (
	// PayloadLength минимальная длина полезной нагрузки ITMS-850 в байтах
	PayloadLength = 26

	// CommandMeasurement единственный ожидаемый код команды
	CommandMeasurement = 1
)

// Measurement показания смарт-комбо датчика ITMS-850, разобранные из одной полезной нагрузки.
type Measurement struct {
	Command              uint8   `json:"command"`
	PressureSign         bool    `json:"pressure_sign"`
	TemperatureSign      bool    `json:"temperature_sign"`
	DigitalInput4        bool    `json:"di4"`
	DigitalInput3        bool    `json:"di3"`
	DigitalInput2        bool    `json:"di2"`
	DigitalInput1        bool    `json:"di1"`
	AnalogInput1         uint16  `json:"ai1"`
	AnalogInput2         uint16  `json:"ai2"`
	DifferentialPressure uint16  `json:"differential_pressure"`
	Pressure             int32   `json:"pressure"`
	Temperature          float64 `json:"temperature"`
	Voltage              uint16  `json:"voltage"`
	Current              uint32  `json:"current"`
	Power                uint32  `json:"power"`
	ActivePower          uint32  `json:"active_power"`
}

// Decode разбирает полезную нагрузку и возвращает показания.
//
// Короче PayloadLength байт: nil и ошибка ErrOutOfRange.
// Неверный код команды: показания разобраны полностью, ошибка ErrInvalidCommand.
func Decode(payload []byte) (*Measurement, error) {
	m := &Measurement{}
	if err := m.Decode(payload); err != nil {
		if IsFatal(err) {
			return nil, err
		}
		return m, err
	}
	return m, nil
}

// Decode заполняет структуру из content. При ErrOutOfRange структура не изменяется.
func (m *Measurement) Decode(content []byte) error {
	if len(content) < PayloadLength {
		return fmt.Errorf("%w: got %d bytes, need %d", ErrOutOfRange, len(content), PayloadLength)
	}

	var err error
	m.Command = content[0]
	if m.Command != CommandMeasurement {
		err = fmt.Errorf("%w: 0x%02X", ErrInvalidCommand, m.Command)
	}

	header := content[1]
	m.PressureSign = flag(header, 5)
	m.TemperatureSign = flag(header, 4)
	m.DigitalInput4 = flag(header, 3)
	m.DigitalInput3 = flag(header, 2)
	m.DigitalInput2 = flag(header, 1)
	m.DigitalInput1 = flag(header, 0)

	m.AnalogInput1 = uint16be(content[2:4])
	m.AnalogInput2 = uint16be(content[4:6])
	m.DifferentialPressure = uint16be(content[6:8])
	pressure := uint16be(content[8:10])
	temperature := uint16be(content[10:12])
	m.Voltage = uint16be(content[12:14])
	m.Current = uint32be(content[14:18])
	m.Power = uint32be(content[18:22])
	m.ActivePower = uint32be(content[22:26])

	m.Pressure = int32(pressure)
	if m.PressureSign {
		m.Pressure = -m.Pressure
	}

	// знак температуры прибор передает, но к значению он не применяется
	m.Temperature = float64(temperature) / 100

	return err
}

// Encode собирает полезную нагрузку из показаний.
func (m *Measurement) Encode() ([]byte, error) {
	pressure := m.Pressure
	if pressure < 0 {
		pressure = -pressure
	}
	if pressure < 0 || pressure > math.MaxUint16 {
		return nil, fmt.Errorf("некорректное давление: %d", m.Pressure)
	}

	temperature := math.Round(m.Temperature * 100)
	if math.IsNaN(temperature) || temperature < 0 || temperature > math.MaxUint16 {
		return nil, fmt.Errorf("некорректная температура: %.2f", m.Temperature)
	}

	flags := [...]bool{
		m.DigitalInput1,
		m.DigitalInput2,
		m.DigitalInput3,
		m.DigitalInput4,
		m.TemperatureSign,
		m.PressureSign || m.Pressure < 0,
	}
	var header uint8
	for bit, set := range flags {
		if set {
			header |= 1 << uint(bit)
		}
	}

	buf := make([]byte, 0, PayloadLength)
	buf = append(buf, m.Command, header)
	buf = appendUint16be(buf, m.AnalogInput1)
	buf = appendUint16be(buf, m.AnalogInput2)
	buf = appendUint16be(buf, m.DifferentialPressure)
	buf = appendUint16be(buf, uint16(pressure))
	buf = appendUint16be(buf, uint16(temperature))
	buf = appendUint16be(buf, m.Voltage)
	buf = appendUint32be(buf, m.Current)
	buf = appendUint32be(buf, m.Power)
	buf = appendUint32be(buf, m.ActivePower)

	return buf, nil
}

func (m *Measurement) Length() uint16 {
	return PayloadLength
}

// SignedTemperature температура с примененным флагом знака.
// Поле Temperature остается беззнаковым, как его отдает прибор.
func (m *Measurement) SignedTemperature() float64 {
	if m.TemperatureSign {
		return -m.Temperature
	}
	return m.Temperature
}

// DigitalInputs состояния дискретных входов DI1..DI4 по порядку
func (m *Measurement) DigitalInputs() [4]bool {
	return [4]bool{m.DigitalInput1, m.DigitalInput2, m.DigitalInput3, m.DigitalInput4}
}

func flag(b uint8, bit uint) bool {
	return 0x01&(b>>bit) == 1
}

func uint16be(b []byte) uint16 {
	return uint16(b[0])<<8 | uint16(b[1])
}

func uint32be(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func appendUint16be(buf []byte, v uint16) []byte {
	return append(buf, byte(v>>8), byte(v))
}

func appendUint32be(buf []byte, v uint32) []byte {
	return append(buf, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}
