package mqtt_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremqtt "github.com/kilianp07/benchpsu/core/mqtt"
	"github.com/kilianp07/benchpsu/infra/mqtt"
	"github.com/kilianp07/benchpsu/internal/testutil"
)

func TestCommandRoundTripWithMosquitto(t *testing.T) {
	testutil.RequireDocker(t)
	ctx := context.Background()
	broker, cleanup, err := testutil.StartMosquitto(ctx)
	if err != nil {
		t.Skipf("mosquitto unavailable: %v", err)
	}
	defer cleanup()

	got := make(chan coremqtt.Command, 1)
	cli, err := mqtt.NewPahoClient(mqtt.Config{Broker: broker, TopicPrefix: "it", Commands: true, QoS: map[string]byte{"command": 1, "ack": 1}},
		mqtt.WithHandler(coremqtt.HandlerFunc(func(_ context.Context, cmd coremqtt.Command) error {
			got <- cmd
			return nil
		})))
	require.NoError(t, err)
	defer cli.Disconnect()

	acks := make(chan coremqtt.Ack, 1)
	peer := paho.NewClient(paho.NewClientOptions().AddBroker(broker).SetClientID("peer"))
	require.NoError(t, waitToken(peer.Connect()))
	defer peer.Disconnect(100)
	require.NoError(t, waitToken(peer.Subscribe("it/command/ack", 1, func(_ paho.Client, m paho.Message) {
		var a coremqtt.Ack
		if json.Unmarshal(m.Payload(), &a) == nil {
			acks <- a
		}
	})))

	// The client subscribes from its OnConnect callback.
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, waitToken(peer.Publish("it/command", 1, false, `{"command_id":"it-1","op":"set_voltage","channel":0,"value":12}`)))

	select {
	case cmd := <-got:
		assert.Equal(t, coremqtt.OpSetVoltage, cmd.Op)
		assert.Equal(t, 12.0, cmd.Value)
	case <-time.After(5 * time.Second):
		t.Fatal("command not delivered")
	}
	select {
	case a := <-acks:
		assert.Equal(t, "it-1", a.CommandID)
		assert.True(t, a.OK)
	case <-time.After(5 * time.Second):
		t.Fatal("ack not received")
	}
}

func waitToken(tok paho.Token) error {
	if !tok.WaitTimeout(5 * time.Second) {
		return context.DeadlineExceeded
	}
	return tok.Error()
}
