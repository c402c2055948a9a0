// Package wire defines the AMQP 0-9-1 frame envelope.
//
// Every frame on the wire has the same shape:
//
//	[type: 1 octet][channel: 2 octets][size: 4 octets BE][payload: size octets][0xCE]
//
// so a complete frame occupies size+8 octets. This package models that
// envelope and nothing inside it: method arguments, content properties
// and body semantics belong to the protocol engine, which receives each
// payload opaque and intact.
//
// # Frame views
//
// Frame is a []byte view over one complete frame. Views produced by the
// transport are only valid for the duration of the callback they are
// passed to; use Clone to retain one.
//
// # Generated constants
//
// Frame types, reply codes and the frame layout constants in
// constants_gen.go are generated from the constants section of the
// protocol specification by warren-specgen (see spec/amqp0-9-1.yaml).
package wire
