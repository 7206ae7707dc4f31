package domain

import (
	"encoding/json"
	"time"

	"github.com/daniil11ru/itms/libs/itms"
)

// Reading разобранные показания вместе со сведениями о доставке
type Reading struct {
	Topic       string           `json:"topic"`
	ReceivedAt  time.Time        `json:"received_at"`
	Measurement itms.Measurement `json:"measurement"`
	Faults      []string         `json:"faults,omitempty"`
}

func (r *Reading) ToBytes() ([]byte, error) {
	return json.Marshal(r)
}

// ToMap представление для msgpack, cbor и protobuf: только строки, bool, int64 и float64
func (r *Reading) ToMap() map[string]interface{} {
	m := r.Measurement
	faults := make([]interface{}, 0, len(r.Faults))
	for _, f := range r.Faults {
		faults = append(faults, f)
	}

	return map[string]interface{}{
		"topic":       r.Topic,
		"received_at": r.ReceivedAt.UTC().Format(time.RFC3339Nano),
		"faults":      faults,
		"measurement": map[string]interface{}{
			"command":               int64(m.Command),
			"pressure_sign":         m.PressureSign,
			"temperature_sign":      m.TemperatureSign,
			"di4":                   m.DigitalInput4,
			"di3":                   m.DigitalInput3,
			"di2":                   m.DigitalInput2,
			"di1":                   m.DigitalInput1,
			"ai1":                   int64(m.AnalogInput1),
			"ai2":                   int64(m.AnalogInput2),
			"differential_pressure": int64(m.DifferentialPressure),
			"pressure":              int64(m.Pressure),
			"temperature":           m.Temperature,
			"voltage":               int64(m.Voltage),
			"current":               int64(m.Current),
			"power":                 int64(m.Power),
			"active_power":          int64(m.ActivePower),
		},
	}
}
