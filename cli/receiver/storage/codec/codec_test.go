package codec

import (
	"encoding/json"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/golang/protobuf/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
	"gopkg.in/vmihailenco/msgpack.v2"
)

type testRecord struct {
	Topic    string  `json:"topic"`
	Pressure int64   `json:"pressure"`
	Temp     float64 `json:"temperature"`
	Sign     bool    `json:"pressure_sign"`
}

func (r testRecord) ToBytes() ([]byte, error) {
	return json.Marshal(r)
}

func (r testRecord) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"topic":         r.Topic,
		"pressure":      r.Pressure,
		"temperature":   r.Temp,
		"pressure_sign": r.Sign,
	}
}

// bytesOnly does not implement Mapper.
type bytesOnly struct{}

func (bytesOnly) ToBytes() ([]byte, error) { return []byte(`{}`), nil }

var rec = testRecord{Topic: "itms/data", Pressure: -500, Temp: 23.5, Sign: true}

func assertDecoded(t *testing.T, got map[string]interface{}) {
	t.Helper()
	assert.Equal(t, "itms/data", got["topic"])
	assert.EqualValues(t, int64(-500), got["pressure"])
	assert.EqualValues(t, 23.5, got["temperature"])
	assert.Equal(t, true, got["pressure_sign"])
}

func TestMarshal_JSON(t *testing.T) {
	for _, format := range []string{"", JSON} {
		data, err := Marshal(format, rec)
		require.NoError(t, err)

		var got map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &got))
		assertDecoded(t, got)
	}
}

func TestMarshal_MsgPack(t *testing.T) {
	data, err := Marshal(MsgPack, rec)
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, msgpack.Unmarshal(data, &got))
	assertDecoded(t, got)
}

func TestMarshal_CBOR(t *testing.T) {
	data, err := Marshal(CBOR, rec)
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, cbor.Unmarshal(data, &got))
	assertDecoded(t, got)
}

func TestMarshal_Protobuf(t *testing.T) {
	data, err := Marshal(Protobuf, rec)
	require.NoError(t, err)

	s := &structpb.Struct{}
	require.NoError(t, proto.Unmarshal(data, s))
	assertDecoded(t, s.AsMap())
}

func TestMarshal_Errors(t *testing.T) {
	_, err := Marshal("xml", rec)
	assert.ErrorIs(t, err, ErrUnknownFormat)

	_, err = Marshal(MsgPack, bytesOnly{})
	assert.Error(t, err)

	_, err = Marshal(JSON, nil)
	assert.Error(t, err)

	data, err := Marshal(JSON, bytesOnly{})
	require.NoError(t, err)
	assert.Equal(t, []byte(`{}`), data)
}

func TestValidate(t *testing.T) {
	for _, f := range []string{"", JSON, MsgPack, CBOR, Protobuf} {
		assert.NoError(t, Validate(f), f)
	}
	assert.ErrorIs(t, Validate("yaml"), ErrUnknownFormat)
}
