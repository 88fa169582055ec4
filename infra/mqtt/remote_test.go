package mqtt

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremqtt "github.com/kilianp07/benchpsu/core/mqtt"
)

func TestRemote_SendWaitsForAck(t *testing.T) {
	m := newMockClient()
	m.install(t)

	r, err := NewRemote(Config{Broker: "tcp://localhost:1883", ClientID: "bench", TopicPrefix: "lab"})
	require.NoError(t, err)
	defer r.Close()
	assert.True(t, strings.HasPrefix(m.opts.ClientID, "bench-remote-"))
	assert.Contains(t, m.subscribed, "lab/command/ack")

	type result struct {
		ack coremqtt.Ack
		err error
	}
	done := make(chan result, 1)
	go func() {
		ack, err := r.Send(context.Background(), coremqtt.Command{ID: "c1", Op: coremqtt.OpCouple, Coupling: "series"})
		done <- result{ack, err}
	}()

	require.Eventually(t, func() bool { return len(m.on("lab/command")) == 1 }, time.Second, 5*time.Millisecond)
	var sent coremqtt.Command
	require.NoError(t, json.Unmarshal(m.on("lab/command")[0].payload, &sent))
	assert.Equal(t, "series", sent.Coupling)

	other, _ := json.Marshal(coremqtt.Ack{CommandID: "other", OK: true})
	m.deliver("lab/command/ack", other)
	ack, _ := json.Marshal(coremqtt.Ack{CommandID: "c1", OK: false, Error: "channels are coupled"})
	m.deliver("lab/command/ack", ack)

	select {
	case res := <-done:
		require.NoError(t, res.err)
		assert.Equal(t, "c1", res.ack.CommandID)
		assert.False(t, res.ack.OK)
		assert.Equal(t, "channels are coupled", res.ack.Error)
	case <-time.After(time.Second):
		t.Fatal("send did not return")
	}
}

func TestRemote_SendTimeout(t *testing.T) {
	m := newMockClient()
	m.install(t)

	r, err := NewRemote(Config{Broker: "tcp://localhost:1883"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = r.Send(ctx, coremqtt.Command{Op: coremqtt.OpClearProtection})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	published := m.on("benchpsu/command")
	require.Len(t, published, 1)
	var sent coremqtt.Command
	require.NoError(t, json.Unmarshal(published[0].payload, &sent))
	assert.NotEmpty(t, sent.ID)
}
