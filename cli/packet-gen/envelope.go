package main

import (
	"encoding/json"

	"github.com/daniil11ru/itms/libs/itms"
)

// BuildEnvelope кодирует показания и заворачивает их в JSON-конверт шлюза.
// Полезная нагрузка пишется массивом чисел, а не base64.
func BuildEnvelope(m *itms.Measurement, mac string) ([]byte, error) {
	payload, err := m.Encode()
	if err != nil {
		return nil, err
	}

	items := make([]int, len(payload))
	for i, b := range payload {
		items[i] = int(b)
	}

	env := map[string]interface{}{"payload": items}
	if mac != "" {
		env["mac"] = mac
	}
	return json.Marshal(env)
}
