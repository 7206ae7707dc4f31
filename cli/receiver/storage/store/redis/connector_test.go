package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testReading struct {
	Topic       string  `json:"topic"`
	Temperature float64 `json:"temperature"`
}

func (r testReading) ToBytes() ([]byte, error) {
	return json.Marshal(r)
}

func TestConnector_Save(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	sub := rdb.Subscribe(ctx, "itms")
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)
	ch := sub.Channel()

	c := &Connector{}
	require.NoError(t, c.Init(map[string]string{
		"host":    mr.Host(),
		"port":    mr.Port(),
		"channel": "itms",
	}))
	defer c.Close()

	require.NoError(t, c.Save(testReading{Topic: "itms/data", Temperature: 23.5}))

	select {
	case msg := <-ch:
		assert.Equal(t, "itms", msg.Channel)
		assert.JSONEq(t, `{"topic":"itms/data","temperature":23.5}`, msg.Payload)
	case <-time.After(2 * time.Second):
		t.Fatal("message was not published")
	}
}

func TestConnector_InitErrors(t *testing.T) {
	c := &Connector{}
	assert.Error(t, c.Init(nil))
	assert.Error(t, c.Init(map[string]string{"host": "localhost", "port": "6379"}))
	assert.Error(t, c.Init(map[string]string{"channel": "c", "db": "zero"}))
	assert.Error(t, c.Init(map[string]string{"channel": "c", "format": "xml"}))
}

func TestConnector_InitUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	host, port := mr.Host(), mr.Port()
	mr.Close()

	c := &Connector{}
	assert.Error(t, c.Init(map[string]string{"host": host, "port": port, "channel": "c"}))
}
