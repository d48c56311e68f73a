package mqtt

import (
	"fmt"
	"slices"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/homestar-hub/internal/infrastructure/config"
)

// Client is the hub's connection to the message bus.
//
// It remembers two things across reconnects: the catalog subscriptions,
// which are replayed, and the last runner status, which is republished so
// other runners see "ready" with the hub profile rather than a bare
// "online" after a broker restart.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Client struct {
	paho pahomqtt.Client
	cfg  config.MQTTConfig

	mu     sync.Mutex
	online bool
	subs   []subscription
	status Status
	log    Logger
}

// Logger receives handler failures and connection warnings.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
}

type subscription struct {
	topic   string
	qos     byte
	handler MessageHandler
}

// MessageHandler is called for each received message, on a paho goroutine.
//
// Parameters:
//   - topic: The concrete topic (wildcards expanded)
//   - payload: The raw payload, usually JSON
//
// Returns:
//   - error: Logged as a warning; the message is not redelivered
type MessageHandler func(topic string, payload []byte) error

// Connect dials the broker named by the mqttd section.
//
// The broker is told to publish an offline runner status if the hub drops
// without calling Close. Once connected the hub announces itself online.
//
// Parameters:
//   - cfg: The mqttd section with credentials from keys/mqttd
//
// Returns:
//   - *Client: Connected client
//   - error: ErrConnectionFailed if the broker does not accept in time
func Connect(cfg config.MQTTConfig) (*Client, error) {
	c := &Client{
		cfg:    cfg,
		status: Status{Status: StatusOnline, ClientID: cfg.ClientID},
	}

	opts := buildClientOptions(cfg)
	configureLWT(opts, cfg.ClientID)
	opts.SetOnConnectHandler(func(pahomqtt.Client) { c.connected() })
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) { c.lost(err) })
	opts.SetReconnectingHandler(func(pahomqtt.Client, *pahomqtt.ClientOptions) {
		if log := c.logger(); log != nil {
			log.Warn("mqtt reconnecting", "broker", brokerURL(cfg))
		}
	})

	c.paho = pahomqtt.NewClient(opts)
	if err := await(c.paho.Connect(), defaultConnectTimeout, ErrConnectionFailed); err != nil {
		return nil, err
	}

	// The connect handler runs asynchronously; mark online now so callers
	// can subscribe straight away.
	c.mu.Lock()
	c.online = true
	c.mu.Unlock()
	return c, nil
}

// connected replays subscriptions and the last status after every
// (re)connect.
func (c *Client) connected() {
	c.mu.Lock()
	c.online = true
	subs := slices.Clone(c.subs)
	status := c.status
	c.mu.Unlock()

	for _, sub := range subs {
		c.paho.Subscribe(sub.topic, sub.qos, c.wrapHandler(sub.handler))
	}
	c.paho.Publish(Topics{}.RunnerStatus(c.cfg.ClientID), byte(c.cfg.QoS), true, statusPayload(status))
}

func (c *Client) lost(err error) {
	c.mu.Lock()
	c.online = false
	c.mu.Unlock()

	if log := c.logger(); log != nil {
		log.Warn("mqtt connection lost", "broker", brokerURL(c.cfg), "error", err)
	}
}

// Close announces a graceful offline status and disconnects. It is safe
// on a client that never connected.
func (c *Client) Close() error {
	if c.paho == nil {
		return nil
	}

	if c.Connected() {
		offline := Status{Status: StatusOffline, ClientID: c.cfg.ClientID, Reason: ReasonShutdown}
		c.paho.Publish(Topics{}.RunnerStatus(c.cfg.ClientID), byte(c.cfg.QoS), true, statusPayload(offline)).
			WaitTimeout(defaultPublishTimeout)
	}
	c.paho.Disconnect(defaultDisconnectQuiesce)

	c.mu.Lock()
	c.online = false
	c.mu.Unlock()
	return nil
}

// Connected reports whether the broker connection is up.
func (c *Client) Connected() bool {
	c.mu.Lock()
	online := c.online
	c.mu.Unlock()
	return online && c.paho != nil && c.paho.IsConnected()
}

// SetLogger sets where handler failures are reported. Without one they
// are dropped.
func (c *Client) SetLogger(logger Logger) {
	c.mu.Lock()
	c.log = logger
	c.mu.Unlock()
}

func (c *Client) logger() Logger {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.log
}

// wrapHandler adapts handler to paho, recovering panics and logging errors.
func (c *Client) wrapHandler(handler MessageHandler) pahomqtt.MessageHandler {
	return func(_ pahomqtt.Client, msg pahomqtt.Message) {
		defer func() {
			if r := recover(); r != nil {
				if log := c.logger(); log != nil {
					log.Error("mqtt handler panic recovered", "topic", msg.Topic(), "panic", r)
				}
			}
		}()

		if err := handler(msg.Topic(), msg.Payload()); err != nil {
			if log := c.logger(); log != nil {
				log.Warn("mqtt message rejected", "topic", msg.Topic(), "error", err)
			}
		}
	}
}

// await waits for t and wraps a timeout or failure in kind.
func await(t pahomqtt.Token, timeout time.Duration, kind error) error {
	if !t.WaitTimeout(timeout) {
		return fmt.Errorf("%w: timeout after %v", kind, timeout)
	}
	if err := t.Error(); err != nil {
		return fmt.Errorf("%w: %w", kind, err)
	}
	return nil
}
