// Package security builds the TLS settings for the console HTTP server.
//
//	cfg := security.TLSConfig{
//	    CertFile:     "/etc/pipegraph/tls.crt",
//	    KeyFile:      "/etc/pipegraph/tls.key",
//	    ClientCAFile: "/etc/pipegraph/ca.crt",
//	}
//
//	tlsConfig, err := cfg.Build()
//
// A zero TLSConfig builds to nil and the server stays on cleartext h2c.
package security
