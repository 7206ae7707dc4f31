package codec

/*
Сериализация пересылаемых записей.

Параметр хранилища format:

format = "json"     (по умолчанию)
format = "msgpack"
format = "cbor"
format = "protobuf" (google.protobuf.Struct)
*/

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/golang/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"gopkg.in/vmihailenco/msgpack.v2"
)

const (
	JSON     = "json"
	MsgPack  = "msgpack"
	CBOR     = "cbor"
	Protobuf = "protobuf"
)

var ErrUnknownFormat = errors.New("unknown format")

// Record запись, которую умеют сохранять хранилища
type Record interface {
	ToBytes() ([]byte, error)
}

// Mapper запись, которую можно представить словарем для форматов, отличных от JSON
type Mapper interface {
	ToMap() map[string]interface{}
}

// Validate проверяет название формата из конфига
func Validate(format string) error {
	switch format {
	case "", JSON, MsgPack, CBOR, Protobuf:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func Marshal(format string, r Record) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("некорректная ссылка на запись")
	}

	if format == "" || format == JSON {
		return r.ToBytes()
	}

	m, ok := r.(Mapper)
	if !ok {
		return nil, fmt.Errorf("запись %T не поддерживает формат %s", r, format)
	}

	switch format {
	case MsgPack:
		return msgpack.Marshal(m.ToMap())
	case CBOR:
		return cbor.Marshal(m.ToMap())
	case Protobuf:
		s, err := structpb.NewStruct(m.ToMap())
		if err != nil {
			return nil, fmt.Errorf("ошибка преобразования записи в protobuf: %v", err)
		}
		return proto.Marshal(s)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
