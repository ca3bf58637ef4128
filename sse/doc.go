// Package sse implements an in-process fan-out registry for Server-Sent
// Events streams.
//
// A Hub tracks every connected client under its client id and, when
// supplied, a user id and a session id. Events can be sent to a single
// client, to every client of a user or session, or to everyone. A periodic
// sweep pushes heartbeats and evicts clients that have gone silent.
//
// # Architecture
//
//   - Hub: connection registry, secondary indexes, delivery and stats
//   - Sink: non-blocking output handle owned by one client
//   - Event / Decoder: wire framing and its client-side counterpart
//   - Component: lifecycle wrapper running the heartbeat sweep
//   - Handler: net/http adapter streaming a client's frames
//
// # Usage
//
//	hub := sse.NewHub(sse.Config{MaxConnections: 500})
//	go hub.Run()
//	defer hub.Destroy()
//
//	stream, err := hub.Connect(r.Context(), sse.WithUserID("u1"))
//	...
//	for frame := range stream.Frames {
//		// write frame to the peer, then
//		stream.Delivered()
//	}
//
//	hub.SendToUser("u1", sse.Event{Type: "update", Data: payload})
package sse
