//go:build integration

package mqtt

import (
	"errors"
	"testing"
	"time"
)

// These tests require a running MQTT broker at 127.0.0.1:1883.
//
// Run with:
//   go test -tags=integration -v ./internal/infrastructure/mqtt/...

func TestIntegration_ConnectAndClose(t *testing.T) {
	client, err := Connect(testConfig())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if !client.Connected() {
		t.Error("Connected() = false, want true")
	}
	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestIntegration_ConnectRefused(t *testing.T) {
	cfg := testConfig()
	cfg.Port = 19999

	_, err := Connect(cfg)
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestIntegration_MetaRoundtrip(t *testing.T) {
	cfg := testConfig()
	cfg.ClientID = "homestar-int-roundtrip"

	client, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	received := make(chan string, 1)
	err = client.Subscribe(Topics{}.AllThingMeta(), 1, func(topic string, _ []byte) error {
		received <- Segment(topic, 2)
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if subs := client.Subscriptions(); len(subs) != 1 || subs[0] != Topics{}.AllThingMeta() {
		t.Errorf("Subscriptions() = %v", subs)
	}

	if err := client.Publish(Topics{}.ThingMeta("lamp-1"), []byte(`{"schema:name":"Lamp"}`), 1, false); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case id := <-received:
		if id != "lamp-1" {
			t.Errorf("thing id = %q, want lamp-1", id)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("message not received")
	}

	if err := client.PublishStatus("ready", map[string]any{"pid": 1}); err != nil {
		t.Errorf("PublishStatus() error = %v", err)
	}
}
