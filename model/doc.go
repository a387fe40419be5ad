// Package model holds the snapshot values the graph builders consume:
// pipelines with stages, edges and gates, service component trees,
// network mesh traffic and infrastructure stack state.
//
// A snapshot is immutable once handed to a builder or controller. Identity is
// the pointer: a decoded or fetched snapshot is always a new value, even when
// it is structurally equal to the previous one.
//
// Every type carries json, yaml and toml tags so the same snapshot file can be
// written in any of the three formats.
package model
