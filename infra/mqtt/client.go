package mqtt

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	coremetrics "github.com/kilianp07/benchpsu/core/metrics"
	"github.com/kilianp07/benchpsu/core/monitoring"
	coremqtt "github.com/kilianp07/benchpsu/core/mqtt"
	"github.com/kilianp07/benchpsu/infra/logger"
)

const (
	commandTimeout = 5 * time.Second
	payloadOnline  = "online"
	payloadOffline = "offline"
)

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Broker     string `json:"broker"`
	ClientID   string `json:"client_id"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	UseTLS     bool   `json:"use_tls"`
	ClientCert string `json:"client_cert"`
	ClientKey  string `json:"client_key"`
	CABundle   string `json:"ca_bundle"`
	AuthMethod string `json:"auth_method"`
	// QoS per message class: "status", "event", "command", "ack".
	QoS         map[string]byte `json:"qos"`
	TopicPrefix string          `json:"topic_prefix"`
	// Commands enables the remote command subscription.
	Commands   bool        `json:"commands"`
	MaxRetries int         `json:"max_retries"`
	BackoffMS  int         `json:"backoff_ms"`
	TLSConfig  *tls.Config `json:"-"`
}

// Enabled reports whether a broker is configured.
func (c Config) Enabled() bool { return c.Broker != "" }

func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "benchpsu-" + uuid.NewString()[:8]
	}
	if c.TopicPrefix == "" {
		c.TopicPrefix = "benchpsu"
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.BackoffMS == 0 {
		c.BackoffMS = 100
	}
}

func (c Config) Validate() error {
	switch c.AuthMethod {
	case "", "username_password", "certificate", "both":
	default:
		return fmt.Errorf("mqtt: unknown auth_method %q", c.AuthMethod)
	}
	if c.UseTLS && c.TLSConfig == nil && (c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "") {
		return fmt.Errorf("mqtt: use_tls requires client_cert, client_key and ca_bundle")
	}
	if c.MaxRetries < 0 || c.BackoffMS < 0 {
		return fmt.Errorf("mqtt: max_retries and backoff_ms must not be negative")
	}
	return nil
}

func (c Config) qos(class string) byte {
	if q, ok := c.QoS[class]; ok {
		return q
	}
	return 0
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// Option customizes a PahoClient.
type Option func(*PahoClient)

// WithHandler executes remote commands with h. Commands are only
// subscribed when Config.Commands is set.
func WithHandler(h coremqtt.Handler) Option {
	return func(p *PahoClient) { p.handler = h }
}

// WithMonitor reports publish failures to m.
func WithMonitor(m monitoring.Monitor) Option {
	return func(p *PahoClient) { p.monitor = m }
}

// PahoClient publishes channel status and topology events and optionally
// executes remote commands.
type PahoClient struct {
	cli     pahoClient
	cfg     Config
	topics  coremqtt.Topics
	handler coremqtt.Handler
	logger  logger.Logger
	monitor monitoring.Monitor
	backoff time.Duration
	now     func() time.Time

	inflight sync.WaitGroup
}

// NewPahoClient connects to the broker. The availability topic is set to
// online on connect and to offline by the broker's last will.
func NewPahoClient(cfg Config, opts ...Option) (*PahoClient, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	clientOpts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	p := &PahoClient{
		cfg:     cfg,
		topics:  coremqtt.Topics{Prefix: cfg.TopicPrefix},
		logger:  logger.New("mqtt_client"),
		monitor: monitoring.NopMonitor{},
		backoff: time.Duration(cfg.BackoffMS) * time.Millisecond,
		now:     time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	clientOpts.SetWill(p.topics.Availability(), payloadOffline, cfg.qos("status"), true)
	clientOpts.OnConnect = func(c paho.Client) {
		p.logger.Infof("MQTT connected to %s", cfg.Broker)
		c.Publish(p.topics.Availability(), cfg.qos("status"), true, payloadOnline)
		if cfg.Commands && p.handler != nil {
			if token := c.Subscribe(p.topics.Command(), cfg.qos("command"), p.onCommand); token.Wait() && token.Error() != nil {
				p.logger.Errorf("subscribe error: %v", token.Error())
			}
		}
	}
	clientOpts.OnConnectionLost = func(_ paho.Client, err error) {
		p.logger.Errorf("connection lost: %v", err)
	}
	clientOpts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		p.logger.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(clientOpts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	p.cli = c
	return p, nil
}

// NewClientOptions builds paho client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.AuthMethod == "username_password" || cfg.AuthMethod == "both" || cfg.AuthMethod == "" {
		if cfg.Username != "" {
			opts.SetUsername(cfg.Username)
		}
		if cfg.Password != "" {
			opts.SetPassword(cfg.Password)
		}
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}

func (p *PahoClient) onCommand(_ paho.Client, msg paho.Message) {
	cmd, err := coremqtt.DecodeCommand(msg.Payload())
	if err != nil {
		p.logger.Errorf("drop command: %v", err)
		return
	}
	p.inflight.Add(1)
	go func() {
		defer p.inflight.Done()
		p.execute(cmd)
	}()
}

func (p *PahoClient) execute(cmd coremqtt.Command) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	err := p.handler.HandleCommand(ctx, cmd)
	if err != nil {
		p.logger.Warnf("command %s (%s) failed: %v", cmd.ID, cmd.Op, err)
	} else {
		p.logger.Debugw("command applied", map[string]any{"command_id": cmd.ID, "op": cmd.Op, "channel": cmd.Channel})
	}
	if perr := p.publishJSON(p.topics.Ack(), "ack", false, coremqtt.NewAck(cmd, err, p.now())); perr != nil {
		p.logger.Errorf("publish ack %s: %v", cmd.ID, perr)
	}
}

func (p *PahoClient) publishJSON(topic, class string, retained bool, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var publishErr error
	for attempt := 0; attempt <= p.cfg.MaxRetries; attempt++ {
		token := p.cli.Publish(topic, p.cfg.qos(class), retained, payload)
		token.Wait()
		if publishErr = token.Error(); publishErr == nil {
			return nil
		}
		p.logger.Errorf("publish %s attempt %d failed: %v", topic, attempt+1, publishErr)
		if attempt < p.cfg.MaxRetries {
			time.Sleep(p.backoff * time.Duration(1<<attempt))
		}
	}
	p.monitor.CaptureException(publishErr, map[string]string{"module": "mqtt", "topic": topic})
	return publishErr
}

// RecordChannelStatus publishes each sample on its retained channel topic.
func (p *PahoClient) RecordChannelStatus(samples []coremetrics.ChannelSample) error {
	for _, s := range samples {
		if err := p.publishJSON(p.topics.Status(s.Index), "status", true, s); err != nil {
			return err
		}
	}
	return nil
}

// RecordTopologyEvent publishes the event on the events topic.
func (p *PahoClient) RecordTopologyEvent(ev coremetrics.TopologyEvent) error {
	return p.publishJSON(p.topics.Events(), "event", false, ev)
}

// Disconnect waits for running commands, marks the instrument offline and
// closes the connection.
func (p *PahoClient) Disconnect() {
	p.inflight.Wait()
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Publish(p.topics.Availability(), p.cfg.qos("status"), true, payloadOffline).Wait()
		p.cli.Disconnect(250)
	}
}
