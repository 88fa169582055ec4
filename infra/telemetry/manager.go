// Package telemetry feeds acquisitions published by external acquisition
// boards over MQTT into the dispatcher.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/benchpsu/core/dispatch"
	coremqtt "github.com/kilianp07/benchpsu/core/mqtt"
	"github.com/kilianp07/benchpsu/infra/logger"
	infmqtt "github.com/kilianp07/benchpsu/infra/mqtt"
)

const updateTimeout = time.Second

var (
	readingsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "benchpsu_telemetry_readings_total",
		Help: "Number of monitor readings received per channel",
	}, []string{"channel"})
	decodeErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "benchpsu_telemetry_decode_errors_total",
		Help: "Number of monitor messages that could not be applied",
	})
	lastCollect = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "benchpsu_telemetry_last_collect_timestamp_seconds",
		Help: "Unix timestamp of the last applied reading",
	})
)

func init() {
	prometheus.MustRegister(readingsTotal, decodeErrors, lastCollect)
}

// Target receives acquisitions.
type Target interface {
	UpdateMonitor(ctx context.Context, ch int, r dispatch.MonitorReading) error
}

// Reading is the payload published on <prefix>/channel/<n>/monitor.
type Reading struct {
	U    float64  `json:"u"`
	I    float64  `json:"i"`
	UDac *float64 `json:"u_dac,omitempty"`
	IDac *float64 `json:"i_dac,omitempty"`
}

// Manager subscribes to the monitor topics of every channel.
type Manager struct {
	cli    paho.Client
	topics coremqtt.Topics
	target Target
	log    logger.Logger
}

// NewManager connects with its own client id derived from mqttCfg.
func NewManager(mqttCfg infmqtt.Config, target Target) (*Manager, error) {
	mqttCfg.SetDefaults()
	opts, err := infmqtt.NewClientOptions(mqttCfg)
	if err != nil {
		return nil, err
	}
	opts.SetClientID(mqttCfg.ClientID + "-telemetry")
	cli := paho.NewClient(opts)
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return &Manager{
		cli:    cli,
		topics: coremqtt.Topics{Prefix: mqttCfg.TopicPrefix},
		target: target,
		log:    logger.New("telemetry"),
	}, nil
}

// Start forwards readings until ctx is done.
func (m *Manager) Start(ctx context.Context) {
	if token := m.cli.Subscribe(m.topics.MonitorFilter(), 0, m.onPush); token.Wait() && token.Error() != nil {
		m.log.Errorf("subscribe monitor: %v", token.Error())
	}
	<-ctx.Done()
	if m.cli.IsConnected() {
		m.cli.Disconnect(250)
	}
}

func (m *Manager) onPush(_ paho.Client, msg paho.Message) {
	if err := m.process(msg.Payload(), msg.Topic()); err != nil {
		decodeErrors.Inc()
		m.log.Errorf("monitor %s: %v", msg.Topic(), err)
	}
}

// extractChannel returns n from .../channel/<n>/monitor.
func extractChannel(topic string) (int, error) {
	parts := strings.Split(topic, "/")
	if len(parts) < 3 || parts[len(parts)-1] != "monitor" {
		return 0, fmt.Errorf("unexpected topic %q", topic)
	}
	return strconv.Atoi(parts[len(parts)-2])
}

func (m *Manager) process(payload []byte, topic string) error {
	ch, err := extractChannel(topic)
	if err != nil {
		return err
	}
	var r Reading
	if err := json.Unmarshal(payload, &r); err != nil {
		return err
	}
	mr := dispatch.MonitorReading{U: r.U, I: r.I, UDac: r.U, IDac: r.I}
	if r.UDac != nil {
		mr.UDac = *r.UDac
	}
	if r.IDac != nil {
		mr.IDac = *r.IDac
	}
	ctx, cancel := context.WithTimeout(context.Background(), updateTimeout)
	defer cancel()
	if err := m.target.UpdateMonitor(ctx, ch, mr); err != nil {
		return err
	}
	readingsTotal.WithLabelValues(strconv.Itoa(ch)).Inc()
	lastCollect.SetToCurrentTime()
	return nil
}
