package mqtt

import "fmt"

// maxPayloadSize bounds a single message (1MB).
const maxPayloadSize = 1 << 20

// Publish sends payload on topic.
//
// Recipe commands go out with QoS 1 and retained false; runner status is
// retained so late subscribers see the current state.
//
// Returns:
//   - error: ErrInvalidTopic, ErrInvalidQoS, ErrNotConnected or
//     ErrPublishFailed
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if err := validate(topic, qos); err != nil {
		return err
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}
	if !c.Connected() {
		return ErrNotConnected
	}
	return await(c.paho.Publish(topic, qos, retained, payload), defaultPublishTimeout, ErrPublishFailed)
}

// PublishStatus publishes a retained runner status and remembers it for
// reconnects. profile, if non-nil, describes the running hub.
func (c *Client) PublishStatus(status string, profile any) error {
	s := Status{Status: status, ClientID: c.cfg.ClientID, Profile: profile}

	c.mu.Lock()
	c.status = s
	c.mu.Unlock()

	return c.Publish(Topics{}.RunnerStatus(c.cfg.ClientID), []byte(statusPayload(s)), byte(c.cfg.QoS), true)
}

func validate(topic string, qos byte) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	return nil
}
