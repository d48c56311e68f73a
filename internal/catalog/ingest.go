package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/nerrad567/homestar-hub/internal/infrastructure/mqtt"
)

// Subscriber is the part of the bus client the catalog needs.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// topic levels: homestar/things/<id>/meta and homestar/discovery/upnp/<usn>
const (
	thingIDLevel = 2
	usnLevel     = 3
)

// Subscribe feeds the catalog from the bus. Thing metadata, thing state and
// UPnP discovery topics are subscribed at the given QoS.
func (c *Catalog) Subscribe(bus Subscriber, qos byte) error {
	topics := mqtt.Topics{}
	subs := []struct {
		topic   string
		handler mqtt.MessageHandler
	}{
		{topics.AllThingMeta(), c.HandleThingMeta},
		{topics.AllThingState(), c.HandleThingState},
		{topics.AllUPnPDevices(), c.HandleUPnP},
	}
	for _, sub := range subs {
		if err := bus.Subscribe(sub.topic, qos, sub.handler); err != nil {
			return fmt.Errorf("subscribing to %s: %w", sub.topic, err)
		}
	}
	return nil
}

// HandleThingMeta stores the metadata carried on homestar/things/<id>/meta.
// An empty payload removes the thing.
func (c *Catalog) HandleThingMeta(topic string, payload []byte) error {
	id := mqtt.Segment(topic, thingIDLevel)
	if len(bytes.TrimSpace(payload)) == 0 {
		c.RemoveThing(id)
		return nil
	}
	meta, err := decodeObject(payload)
	if err != nil {
		return fmt.Errorf("thing %s meta: %w", id, err)
	}
	return c.PutThing(id, meta)
}

// HandleThingState stores the state carried on homestar/things/<id>/state.
func (c *Catalog) HandleThingState(topic string, payload []byte) error {
	id := mqtt.Segment(topic, thingIDLevel)
	state, err := decodeObject(payload)
	if err != nil {
		return fmt.Errorf("thing %s state: %w", id, err)
	}
	return c.PutState(id, state)
}

// HandleUPnP stores a device carried on homestar/discovery/upnp/<usn>.
// An empty payload removes the device.
func (c *Catalog) HandleUPnP(topic string, payload []byte) error {
	usn := mqtt.Segment(topic, usnLevel)
	if len(bytes.TrimSpace(payload)) == 0 {
		c.RemoveUPnP(usn)
		return nil
	}
	device, err := decodeObject(payload)
	if err != nil {
		return fmt.Errorf("upnp %s: %w", usn, err)
	}
	return c.PutUPnP(usn, device)
}

func decodeObject(payload []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadPayload, err)
	}
	if out == nil {
		return nil, ErrBadPayload
	}
	return out, nil
}
