// Package telemetry streams live measurements to an MQTT broker. The
// publisher implements store.Store so it slots into the same fan-out as the
// persistent backends: every measurement row becomes one message on
// <prefix>/<source>/<metric>.
package telemetry

import (
	"context"
	"encoding/json"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/kplatou/harborwatt/core/store"
	"github.com/kplatou/harborwatt/infra/logger"
)

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// Publisher forwards measurement rows to MQTT. Delivery is best effort: the
// feed never blocks a simulation step waiting for the broker.
type Publisher struct {
	cli    pahoClient
	prefix string
	qos    byte
	runID  string
	log    logger.Logger
}

// message is the JSON payload published per measurement row.
type message struct {
	RunID  string `json:"run_id"`
	Time   string `json:"time"`
	Source string `json:"source"`
	Metric string `json:"metric"`
	Value  string `json:"value"`
}

// New connects to the broker and announces the run on <prefix>/status. The
// last-will message flips the same topic to "offline" if the process dies.
func New(cfg Config) (*Publisher, error) {
	log := logger.New("telemetry")
	statusTopic := cfg.TopicPrefix + "/status"

	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	opts.SetWill(statusTopic, "offline", cfg.QoS, true)
	opts.OnConnect = func(c paho.Client) {
		log.Infof("telemetry connected to %s", cfg.Broker)
		c.Publish(statusTopic, cfg.QoS, true, "online")
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("telemetry connection lost: %v", err)
	}

	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return &Publisher{
		cli:    c,
		prefix: cfg.TopicPrefix,
		qos:    cfg.QoS,
		runID:  uuid.NewString(),
		log:    log,
	}, nil
}

// RunID identifies this publisher's session in every payload.
func (p *Publisher) RunID() string { return p.runID }

// Append publishes measurement rows. Forecast and scheduling rows are not
// part of the live feed and pass through untouched.
func (p *Publisher) Append(_ context.Context, table store.Table, recs ...store.Record) error {
	if table != store.TableMeasurements {
		return nil
	}
	for _, rec := range recs {
		payload, err := json.Marshal(message{
			RunID:  p.runID,
			Time:   rec.Time.UTC().Format(time.RFC3339),
			Source: rec.Source,
			Metric: rec.Metric,
			Value:  rec.Value,
		})
		if err != nil {
			return err
		}
		topic := p.prefix + "/" + rec.Source + "/" + rec.Metric
		p.cli.Publish(topic, p.qos, false, payload)
	}
	return nil
}

// Query is not supported; the feed keeps no history.
func (p *Publisher) Query(context.Context, store.Query) ([]store.Record, error) {
	return nil, store.ErrUnsupported
}

// DeleteRange is a no-op; nothing is retained.
func (p *Publisher) DeleteRange(context.Context, store.Table, string, string, time.Time, time.Time) error {
	return nil
}

// Close marks the run offline and disconnects.
func (p *Publisher) Close() error {
	if p.cli.IsConnected() {
		p.cli.Publish(p.prefix+"/status", p.qos, true, "offline")
		p.cli.Disconnect(250)
	}
	return nil
}
