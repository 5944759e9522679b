// Package device defines the data model shared by the session, storage and UI
// layers: exchanged lines (Entry), their Direction, the connection State and
// the transport Descriptor captured when a device is connected.
//
// All types are plain values. Descriptor contains optional fields expressed as
// pointers; use Clone before handing a descriptor to another goroutine.
package device
