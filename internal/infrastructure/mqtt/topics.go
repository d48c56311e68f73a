package mqtt

import "fmt"

// TopicPrefix is the root of every hub topic.
const TopicPrefix = "homestar"

// Topics provides builders for hub MQTT topics.
//
//	topics := mqtt.Topics{}
//	metaTopic := topics.ThingMeta("urn:iotdb:thing:lamp-1")
//	// Returns: "homestar/things/urn:iotdb:thing:lamp-1/meta"
type Topics struct{}

// RunnerStatus returns the retained status topic of a runner.
//
// Example: homestar/runner/homestar-den/status
func (Topics) RunnerStatus(clientID string) string {
	return fmt.Sprintf("%s/runner/%s/status", TopicPrefix, clientID)
}

// ThingMeta returns the topic carrying a thing's metadata.
//
// Example: homestar/things/lamp-1/meta
func (Topics) ThingMeta(thingID string) string {
	return fmt.Sprintf("%s/things/%s/meta", TopicPrefix, thingID)
}

// ThingState returns the topic carrying a thing's current state.
//
// Example: homestar/things/lamp-1/state
func (Topics) ThingState(thingID string) string {
	return fmt.Sprintf("%s/things/%s/state", TopicPrefix, thingID)
}

// UPnPDevice returns the discovery topic of one UPnP device.
//
// Example: homestar/discovery/upnp/uuid:1234
func (Topics) UPnPDevice(usn string) string {
	return fmt.Sprintf("%s/discovery/upnp/%s", TopicPrefix, usn)
}

// RecipeCommand returns the topic a recipe value is sent on.
//
// Example: homestar/recipes/lights-on/command
func (Topics) RecipeCommand(recipeID string) string {
	return fmt.Sprintf("%s/recipes/%s/command", TopicPrefix, recipeID)
}

// AllThingMeta matches every thing metadata topic.
//
// Pattern: homestar/things/+/meta
func (Topics) AllThingMeta() string {
	return fmt.Sprintf("%s/things/+/meta", TopicPrefix)
}

// AllThingState matches every thing state topic.
//
// Pattern: homestar/things/+/state
func (Topics) AllThingState() string {
	return fmt.Sprintf("%s/things/+/state", TopicPrefix)
}

// AllUPnPDevices matches every UPnP discovery topic.
//
// Pattern: homestar/discovery/upnp/+
func (Topics) AllUPnPDevices() string {
	return fmt.Sprintf("%s/discovery/upnp/+", TopicPrefix)
}

// AllTopics matches all hub traffic.
//
// Pattern: homestar/#
func (Topics) AllTopics() string {
	return TopicPrefix + "/#"
}

// Segment returns the n-th "/" separated level of a concrete topic, or "".
func Segment(topic string, n int) string {
	start := 0
	for i := 0; i <= len(topic); i++ {
		if i == len(topic) || topic[i] == '/' {
			if n == 0 {
				return topic[start:i]
			}
			n--
			start = i + 1
		}
	}
	return ""
}
