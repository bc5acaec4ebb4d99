package mqtt

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	coremqtt "github.com/kilianp07/energyplan/core/mqtt"
	"github.com/kilianp07/energyplan/core/model"
	"github.com/kilianp07/energyplan/core/report"
	"github.com/kilianp07/energyplan/infra/logger"
)

// DefaultTopicPrefix is used when Config.TopicPrefix is empty.
const DefaultTopicPrefix = "energyplan/plan"

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Broker      string      `json:"broker"`
	ClientID    string      `json:"client_id"`
	Username    string      `json:"username"`
	Password    string      `json:"password"`
	TopicPrefix string      `json:"topic_prefix"`
	UseTLS      bool        `json:"use_tls"`
	ClientCert  string      `json:"client_cert"`
	ClientKey   string      `json:"client_key"`
	CABundle    string      `json:"ca_bundle"`
	AuthMethod  string      `json:"auth_method"`
	QoS         byte        `json:"qos"`
	Retain      bool        `json:"retain"`
	LWTTopic    string      `json:"lwt_topic"`
	LWTPayload  string      `json:"lwt_payload"`
	LWTQoS      byte        `json:"lwt_qos"`
	LWTRetain   bool        `json:"lwt_retain"`
	MaxRetries  int         `json:"max_retries"`
	BackoffMS   int         `json:"backoff_ms"`
	TLSConfig   *tls.Config `json:"-"`
}

// Enabled reports whether a broker is configured.
func (c Config) Enabled() bool { return c.Broker != "" }

// pahoClient is the subset of paho.Client used by the publisher.
type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

// PahoPublisher implements the Publisher interface using Eclipse Paho.
type PahoPublisher struct {
	cli        pahoClient
	prefix     string
	qos        byte
	retain     bool
	logger     logger.Logger
	maxRetries int
	backoff    time.Duration
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// NewPahoPublisher connects to the MQTT broker.
func NewPahoPublisher(cfg Config) (*PahoPublisher, error) {
	if cfg.ClientID == "" {
		cfg.ClientID = "energyplan-" + uuid.NewString()
	}
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}

	logger := logger.New("mqtt_publisher")
	pp := &PahoPublisher{
		prefix:     strings.TrimSuffix(cfg.TopicPrefix, "/"),
		qos:        cfg.QoS,
		retain:     cfg.Retain,
		logger:     logger,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
	}
	if pp.prefix == "" {
		pp.prefix = DefaultTopicPrefix
	}
	if pp.maxRetries <= 0 {
		pp.maxRetries = 3
	}
	if pp.backoff <= 0 {
		pp.backoff = 100 * time.Millisecond
	}

	opts.OnConnect = func(paho.Client) {
		logger.Infof("MQTT connected")
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		logger.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		logger.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	pp.cli = c
	return pp, nil
}

// NewClientOptions builds mqtt client options from Config.
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
	if cfg.LWTTopic != "" {
		opts.SetWill(cfg.LWTTopic, cfg.LWTPayload, cfg.LWTQoS, cfg.LWTRetain)
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
	cfg := &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}
	return cfg, nil
}

// summary is the payload sent to <prefix>/summary.
type summary struct {
	RunID        string         `json:"run_id"`
	Model        string         `json:"model"`
	Status       string         `json:"status"`
	Message      string         `json:"message,omitempty"`
	Objective    float64        `json:"objective"`
	ExpectedCost float64        `json:"expected_cost"`
	RiskCost     float64        `json:"risk_cost"`
	VaR          float64        `json:"var"`
	Beta         float64        `json:"beta"`
	Kappa        float64        `json:"kappa"`
	Currency     string         `json:"currency"`
	Timestamp    int64          `json:"timestamp"`
	Scenarios    []scenarioCost `json:"scenarios,omitempty"`
}

type scenarioCost struct {
	Name model.ScenarioID `json:"name"`
	Cost float64          `json:"cost"`
}

// scenarioDoc is the payload sent to <prefix>/scenario/<name>.
type scenarioDoc struct {
	RunID string `json:"run_id"`
	Unit  string `json:"unit"`
	report.Scenario
}

// PublishPlan sends the plan summary and, when the plan is optimal, one
// message per scenario.
func (p *PahoPublisher) PublishPlan(ctx context.Context, rep report.Report) error {
	sum := summary{
		RunID:        rep.RunID,
		Model:        rep.Model,
		Status:       rep.Status.String(),
		Message:      rep.Message,
		Objective:    rep.Objective,
		ExpectedCost: rep.ExpectedCost,
		RiskCost:     rep.RiskCost,
		VaR:          rep.VaR,
		Beta:         rep.Beta,
		Kappa:        rep.Kappa,
		Currency:     rep.Currency,
		Timestamp:    rep.SolvedAt.UnixMilli(),
	}
	for _, sc := range rep.Scenarios {
		sum.Scenarios = append(sum.Scenarios, scenarioCost{Name: sc.Name, Cost: sc.Cost})
	}
	if err := p.publishJSON(ctx, p.prefix+"/summary", sum); err != nil {
		return err
	}
	if !rep.Optimal() {
		return nil
	}
	for _, sc := range rep.Scenarios {
		doc := scenarioDoc{RunID: rep.RunID, Unit: rep.Unit, Scenario: sc}
		if err := p.publishJSON(ctx, p.ScenarioTopic(sc.Name), doc); err != nil {
			return err
		}
	}
	p.logger.Infof("published plan %s to %s", rep.RunID, p.prefix)
	return nil
}

// ScenarioTopic returns the topic for a scenario. MQTT wildcard and level
// separators in the name are replaced with underscores.
func (p *PahoPublisher) ScenarioTopic(name model.ScenarioID) string {
	clean := strings.NewReplacer("/", "_", "+", "_", "#", "_").Replace(string(name))
	return p.prefix + "/scenario/" + clean
}

func (p *PahoPublisher) publishJSON(ctx context.Context, topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var publishErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		token := p.cli.Publish(topic, p.qos, p.retain, payload)
		select {
		case <-token.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
		publishErr = token.Error()
		if publishErr == nil {
			return nil
		}
		p.logger.Errorf("publish attempt %d to %s failed: %v", attempt+1, topic, publishErr)
		if attempt == p.maxRetries {
			break
		}
		timer := time.NewTimer(p.backoff * time.Duration(1<<attempt))
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
	return fmt.Errorf("%w: %s: %v", coremqtt.ErrPublish, topic, publishErr)
}

// Disconnect gracefully closes the MQTT connection.
func (p *PahoPublisher) Disconnect() {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
}
