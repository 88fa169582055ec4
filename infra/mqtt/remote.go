package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	coremqtt "github.com/kilianp07/benchpsu/core/mqtt"
	"github.com/kilianp07/benchpsu/infra/logger"
)

// Remote sends commands to a running instrument and waits for their ack.
type Remote struct {
	cfg    Config
	topics coremqtt.Topics
	cli    pahoClient
	logger logger.Logger

	mu      sync.Mutex
	pending map[string]chan coremqtt.Ack
}

// NewRemote connects with a client id derived from cfg so it can share the
// broker with the instrument itself.
func NewRemote(cfg Config) (*Remote, error) {
	cfg.SetDefaults()
	cfg.ClientID = fmt.Sprintf("%s-remote-%s", cfg.ClientID, uuid.NewString()[:8])
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	r := &Remote{
		cfg:     cfg,
		topics:  coremqtt.Topics{Prefix: cfg.TopicPrefix},
		logger:  logger.New("mqtt_remote"),
		pending: make(map[string]chan coremqtt.Ack),
	}
	opts.OnConnect = func(c paho.Client) {
		if token := c.Subscribe(r.topics.Ack(), cfg.qos("ack"), r.onAck); token.Wait() && token.Error() != nil {
			r.logger.Errorf("subscribe error: %v", token.Error())
		}
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	r.cli = c
	return r, nil
}

func (r *Remote) onAck(_ paho.Client, msg paho.Message) {
	var ack coremqtt.Ack
	if err := json.Unmarshal(msg.Payload(), &ack); err != nil {
		r.logger.Warnf("invalid ack: %v", err)
		return
	}
	r.mu.Lock()
	ch, ok := r.pending[ack.CommandID]
	r.mu.Unlock()
	if !ok {
		return
	}
	select {
	case ch <- ack:
	default:
	}
}

// Send publishes cmd and blocks until its ack arrives or ctx ends. An empty
// command id is replaced by a random one.
func (r *Remote) Send(ctx context.Context, cmd coremqtt.Command) (coremqtt.Ack, error) {
	if cmd.ID == "" {
		cmd.ID = uuid.NewString()
	}
	payload, err := json.Marshal(cmd)
	if err != nil {
		return coremqtt.Ack{}, err
	}
	ch := make(chan coremqtt.Ack, 1)
	r.mu.Lock()
	r.pending[cmd.ID] = ch
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		delete(r.pending, cmd.ID)
		r.mu.Unlock()
	}()

	token := r.cli.Publish(r.topics.Command(), r.cfg.qos("command"), false, payload)
	if token.Wait() && token.Error() != nil {
		return coremqtt.Ack{}, token.Error()
	}
	select {
	case ack := <-ch:
		return ack, nil
	case <-ctx.Done():
		return coremqtt.Ack{}, fmt.Errorf("command %s: %w", cmd.ID, ctx.Err())
	}
}

func (r *Remote) Close() { r.cli.Disconnect(250) }
