// Package stream publishes solver frames to websocket clients.
//
// Clients connect to /ws and receive JSON [Frame] messages. They may send
// {"command": "pause"}, "resume" or "rainbow" back.
package stream
