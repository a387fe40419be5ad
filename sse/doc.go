// Package sse streams layout snapshots to browsers over Server-Sent Events.
//
// A Hub fans frames out to connected clients. Client ids have the form
// "<view>:<uuid>", so a broadcast pattern such as "checkout:*" reaches every
// client of one view. Surface adapts a view of the Hub to controller.Surface:
// presented snapshots become layout events and measurement requests become
// measure events answered by the browser over HTTP.
package sse
