package envelope

/*
JSON-конверт сообщения MQTT.

Шлюз публикует в один топик данные смарт-комбо и данные беспроводных BLE-датчиков.
Конверты BLE-датчиков содержат ключ "mac": такие сообщения относятся к другому
классу устройств и до декодера не доходят.
*/

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	DefaultPayloadField = "payload"
	DefaultForeignKey   = "mac"
)

var (
	ErrMalformed = errors.New("malformed envelope")
	ErrForeign   = errors.New("envelope belongs to another device class")
	ErrNoPayload = errors.New("envelope has no payload")
)

type Envelope struct {
	Payload []byte
	Fields  map[string]json.RawMessage
}

// Parser разбирает конверт. Нулевое значение использует поле "payload" и ключ "mac".
type Parser struct {
	PayloadField string
	ForeignKeys  []string
}

func NewParser(payloadField string, foreignKeys []string) Parser {
	return Parser{PayloadField: payloadField, ForeignKeys: foreignKeys}
}

func (p Parser) payloadField() string {
	if p.PayloadField == "" {
		return DefaultPayloadField
	}
	return p.PayloadField
}

func (p Parser) foreignKeys() []string {
	if p.ForeignKeys == nil {
		return []string{DefaultForeignKey}
	}
	return p.ForeignKeys
}

func (p Parser) Parse(data []byte) (Envelope, error) {
	env := Envelope{}
	if err := json.Unmarshal(data, &env.Fields); err != nil {
		return env, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if env.Fields == nil {
		return env, fmt.Errorf("%w: ожидается JSON-объект", ErrMalformed)
	}

	for _, key := range p.foreignKeys() {
		if _, ok := env.Fields[key]; ok {
			return env, fmt.Errorf("%w: ключ %q", ErrForeign, key)
		}
	}

	raw, ok := env.Fields[p.payloadField()]
	if !ok {
		return env, fmt.Errorf("%w: поле %q", ErrNoPayload, p.payloadField())
	}

	payload, err := decodeByteArray(raw)
	if err != nil {
		return env, fmt.Errorf("%w: поле %q: %v", ErrMalformed, p.payloadField(), err)
	}
	env.Payload = payload

	return env, nil
}

// decodeByteArray разбирает JSON-массив целых чисел 0..255.
// encoding/json ожидает []byte в base64, поэтому элементы читаются по одному.
func decodeByteArray(raw json.RawMessage) ([]byte, error) {
	var items []json.Number
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("ожидается массив чисел: %v", err)
	}

	payload := make([]byte, len(items))
	for i, item := range items {
		v, err := item.Int64()
		if err != nil {
			return nil, fmt.Errorf("элемент %d: %q не является целым числом", i, item)
		}
		if v < 0 || v > 0xFF {
			return nil, fmt.Errorf("элемент %d: значение %d вне диапазона байта", i, v)
		}
		payload[i] = byte(v)
	}
	return payload, nil
}
