package mqtt

import "fmt"

// Subscribe routes messages on topic to handler. Wildcards are allowed;
// the catalog subscribes to "homestar/things/+/meta" and friends.
//
// Subscribing to a topic again replaces its handler. Subscriptions are
// replayed after a reconnect.
//
// Returns:
//   - error: ErrInvalidTopic, ErrInvalidQoS, ErrNotConnected or
//     ErrSubscribeFailed
func (c *Client) Subscribe(topic string, qos byte, handler MessageHandler) error {
	if err := validate(topic, qos); err != nil {
		return err
	}
	if handler == nil {
		return fmt.Errorf("%w: handler cannot be nil", ErrSubscribeFailed)
	}
	if !c.Connected() {
		return ErrNotConnected
	}

	if err := await(c.paho.Subscribe(topic, qos, c.wrapHandler(handler)), defaultPublishTimeout, ErrSubscribeFailed); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	sub := subscription{topic: topic, qos: qos, handler: handler}
	for i := range c.subs {
		if c.subs[i].topic == topic {
			c.subs[i] = sub
			return nil
		}
	}
	c.subs = append(c.subs, sub)
	return nil
}

// Subscriptions returns the subscribed topic patterns in subscription order.
func (c *Client) Subscriptions() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.subs))
	for i, sub := range c.subs {
		out[i] = sub.topic
	}
	return out
}
