package mqtt

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/nerrad567/homestar-hub/internal/infrastructure/config"
)

func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Enabled:  true,
		Host:     "127.0.0.1",
		Port:     1883,
		ClientID: "homestar-test",
		QoS:      1,
	}
}

func TestTopicBuilders(t *testing.T) {
	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"RunnerStatus", Topics{}.RunnerStatus("homestar-den"), "homestar/runner/homestar-den/status"},
		{"ThingMeta", Topics{}.ThingMeta("lamp-1"), "homestar/things/lamp-1/meta"},
		{"ThingState", Topics{}.ThingState("lamp-1"), "homestar/things/lamp-1/state"},
		{"UPnPDevice", Topics{}.UPnPDevice("uuid:1234"), "homestar/discovery/upnp/uuid:1234"},
		{"RecipeCommand", Topics{}.RecipeCommand("lights-on"), "homestar/recipes/lights-on/command"},
		{"AllThingMeta", Topics{}.AllThingMeta(), "homestar/things/+/meta"},
		{"AllThingState", Topics{}.AllThingState(), "homestar/things/+/state"},
		{"AllUPnPDevices", Topics{}.AllUPnPDevices(), "homestar/discovery/upnp/+"},
		{"AllTopics", Topics{}.AllTopics(), "homestar/#"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.expected)
			}
		})
	}
}

func TestSegment(t *testing.T) {
	tests := []struct {
		topic string
		n     int
		want  string
	}{
		{"homestar/things/lamp-1/meta", 2, "lamp-1"},
		{"homestar/things/lamp-1/meta", 3, "meta"},
		{"homestar/things/lamp-1/meta", 4, ""},
		{"homestar", 0, "homestar"},
		{"", 0, ""},
	}
	for _, tt := range tests {
		if got := Segment(tt.topic, tt.n); got != tt.want {
			t.Errorf("Segment(%q, %d) = %q, want %q", tt.topic, tt.n, got, tt.want)
		}
	}
}

func TestBrokerURL(t *testing.T) {
	cfg := testConfig()
	if got := brokerURL(cfg); got != "tcp://127.0.0.1:1883" {
		t.Errorf("brokerURL() = %q", got)
	}
	cfg.TLS = true
	cfg.Port = 8883
	if got := brokerURL(cfg); got != "ssl://127.0.0.1:8883" {
		t.Errorf("brokerURL() with TLS = %q", got)
	}
}

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Username = "hub"
	cfg.Password = "pw"

	opts := buildClientOptions(cfg)
	if opts.ClientID != "homestar-test" {
		t.Errorf("ClientID = %q", opts.ClientID)
	}
	if opts.Username != "hub" || opts.Password != "pw" {
		t.Errorf("credentials not applied")
	}
	if !opts.AutoReconnect {
		t.Error("AutoReconnect = false, want true")
	}
	if opts.TLSConfig != nil && opts.TLSConfig.MinVersion != 0 {
		t.Error("TLS configured without cfg.TLS")
	}

	configureLWT(opts, cfg.ClientID)
	if opts.WillTopic != "homestar/runner/homestar-test/status" {
		t.Errorf("WillTopic = %q", opts.WillTopic)
	}
	if !opts.WillRetained {
		t.Error("WillRetained = false, want true")
	}
}

func TestStatusPayloads(t *testing.T) {
	var ready, offline Status
	if err := json.Unmarshal([]byte(statusPayload(Status{Status: "ready", ClientID: "hub-1", Profile: map[string]any{"pid": 7}})), &ready); err != nil {
		t.Fatalf("ready payload: %v", err)
	}
	if err := json.Unmarshal([]byte(statusPayload(Status{Status: StatusOffline, ClientID: "hub-1", Reason: ReasonShutdown})), &offline); err != nil {
		t.Fatalf("offline payload: %v", err)
	}

	if ready.Status != "ready" || ready.ClientID != "hub-1" || ready.Timestamp == "" {
		t.Errorf("ready = %+v", ready)
	}
	if profile, ok := ready.Profile.(map[string]any); !ok || profile["pid"] != float64(7) {
		t.Errorf("ready profile = %#v", ready.Profile)
	}
	if offline.Status != StatusOffline || offline.Reason != ReasonShutdown || offline.Profile != nil {
		t.Errorf("offline = %+v", offline)
	}
}

func TestValidationBeforeConnection(t *testing.T) {
	c := &Client{cfg: testConfig()}

	if err := c.Publish("", nil, 1, false); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Publish(empty) = %v, want ErrInvalidTopic", err)
	}
	if err := c.Publish("homestar/x", nil, 3, false); !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("Publish(qos 3) = %v, want ErrInvalidQoS", err)
	}
	if err := c.Publish("homestar/x", make([]byte, maxPayloadSize+1), 1, false); !errors.Is(err, ErrPublishFailed) {
		t.Errorf("Publish(large) = %v, want ErrPublishFailed", err)
	}
	if err := c.Publish("homestar/x", nil, 1, false); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Publish(disconnected) = %v, want ErrNotConnected", err)
	}
	if err := c.Subscribe("homestar/x", 1, nil); !errors.Is(err, ErrSubscribeFailed) {
		t.Errorf("Subscribe(nil handler) = %v, want ErrSubscribeFailed", err)
	}
	if err := c.Subscribe("", 1, func(string, []byte) error { return nil }); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Subscribe(empty) = %v, want ErrInvalidTopic", err)
	}
	if err := c.PublishStatus("ready", nil); !errors.Is(err, ErrNotConnected) {
		t.Errorf("PublishStatus(disconnected) = %v, want ErrNotConnected", err)
	}
	if c.status.Status != "ready" {
		t.Errorf("status = %q, want the last published status kept for reconnect", c.status.Status)
	}
	if len(c.Subscriptions()) != 0 {
		t.Error("failed subscriptions were recorded")
	}
	if c.Connected() {
		t.Error("Connected() = true for unconnected client")
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() on unconnected client = %v", err)
	}
}

type recordingLogger struct {
	errors, warnings int
}

func (l *recordingLogger) Error(string, ...any) { l.errors++ }
func (l *recordingLogger) Warn(string, ...any)  { l.warnings++ }

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 1 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 0 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

func TestWrapHandlerRecoversAndLogs(t *testing.T) {
	c := &Client{}
	log := &recordingLogger{}
	c.SetLogger(log)

	msg := fakeMessage{topic: "homestar/things/a/meta"}
	c.wrapHandler(func(string, []byte) error { panic("boom") })(nil, msg)
	c.wrapHandler(func(string, []byte) error { return errors.New("bad payload") })(nil, msg)

	if log.errors != 1 || log.warnings != 1 {
		t.Errorf("errors=%d warnings=%d, want 1 and 1", log.errors, log.warnings)
	}
}
