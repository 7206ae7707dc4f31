package envelope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	p := Parser{}
	env, err := p.Parse([]byte(`{"payload":[1,32,0,10,255],"gw":"itms-gw-01"}`))
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 32, 0, 10, 255}, env.Payload)
	assert.Contains(t, env.Fields, "gw")
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr error
	}{
		{"not json", `payload`, ErrMalformed},
		{"json array", `[1,2,3]`, ErrMalformed},
		{"json null", `null`, ErrMalformed},
		{"ble sensor", `{"mac":"AA:BB:CC:DD:EE:FF","payload":[1,2]}`, ErrForeign},
		{"ble sensor without payload", `{"mac":"AA:BB:CC:DD:EE:FF"}`, ErrForeign},
		{"no payload", `{"data":[1,2]}`, ErrNoPayload},
		{"payload not array", `{"payload":"AQID"}`, ErrMalformed},
		{"negative element", `{"payload":[1,-1]}`, ErrMalformed},
		{"element above byte", `{"payload":[1,256]}`, ErrMalformed},
		{"fractional element", `{"payload":[1,2.5]}`, ErrMalformed},
		{"object element", `{"payload":[1,{}]}`, ErrMalformed},
	}

	p := Parser{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Parse([]byte(tt.data))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParse_CustomFields(t *testing.T) {
	p := NewParser("data", []string{"mac", "ble"})

	env, err := p.Parse([]byte(`{"data":[7,8,9]}`))
	require.NoError(t, err)
	assert.Equal(t, []byte{7, 8, 9}, env.Payload)

	_, err = p.Parse([]byte(`{"ble":true,"data":[7]}`))
	assert.ErrorIs(t, err, ErrForeign)

	_, err = p.Parse([]byte(`{"payload":[7]}`))
	assert.ErrorIs(t, err, ErrNoPayload)
}

func TestParse_NoForeignKeys(t *testing.T) {
	p := NewParser("", []string{})

	env, err := p.Parse([]byte(`{"mac":"AA:BB","payload":[1]}`))
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, env.Payload)
}

func TestParse_EmptyPayload(t *testing.T) {
	env, err := Parser{}.Parse([]byte(`{"payload":[]}`))
	require.NoError(t, err)
	assert.Empty(t, env.Payload)
}
