// Package config loads pipegraph configuration.
//
// Values come from a config.yml (or .yaml/.json/.toml) file, a .env file and
// PIPEGRAPH_-prefixed environment variables, in increasing precedence. Nested
// keys are addressed with underscores:
//
//	PIPEGRAPH_LAYOUT_NODE_SEP=80
//	PIPEGRAPH_SERVER_ADDR=:9090
//	PIPEGRAPH_SERVER_TLS_CERT_FILE=/etc/pipegraph/tls.crt
//
// Usage:
//
//	var cfg config.Config
//	if err := config.Load("pipegraph", &cfg); err != nil { ... }
//	cfg.ApplyDefaults()
//	if err := cfg.Validate(); err != nil { ... }
package config
