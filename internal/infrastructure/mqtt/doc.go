// Package mqtt connects the hub to the home message bus.
//
// Things announce their metadata and state on the bus and UPnP discovery
// results arrive there as well. The hub subscribes to those topics to feed
// its catalog and publishes a retained runner status so other services can
// see which hubs are online.
//
// The client wraps paho.mqtt.golang. On reconnect it replays its
// subscriptions and republishes the last runner status. A Last Will marks
// the hub offline if it drops, and handler panics are recovered and logged.
// Recipe commands from the web API go out on homestar/recipes/<id>/command.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.AllThingMeta(), 1,
//	    func(topic string, payload []byte) error {
//	        return cat.HandleThingMeta(topic, payload)
//	    })
package mqtt
