// Package channels keeps the set of named channels that flow over a single
// real-time connection.
//
// A channel is either inbound (a client invokes it on the server) or outbound
// (the server emits it to clients). Every frame on the wire names its channel
// in the frame target, and the hub refuses to dispatch frames whose target is
// not registered for the direction they travel in.
//
// Channels are defined once, near the code that owns them:
//
//	var AddMessage = channels.Define(channels.ChannelConfig{
//		Name:        "AddMessage",
//		Direction:   channels.Inbound,
//		Description: "Client asks the hub to add a chat message",
//		Example:     `"hello"`,
//	})
//
// and registered with an explicitly constructed registry:
//
//	reg := channels.NewRegistry()
//	reg.MustRegister(AddMessage)
package channels
