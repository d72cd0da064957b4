// Package server provides the network listeners the HTTP server binds to.
// TLS termination normally happens at the ingress proxy; the TLS listener
// exists for deployments that expose the service directly.
package server

import (
	"crypto/tls"
	"fmt"
	"net"
)

// Listener abstracts plain and TLS-enabled listeners so main can pick one
// from configuration.
type Listener interface {
	Listen(addr string) (net.Listener, error)
}

// TLSListener terminates TLS using a certificate and key loaded from disk.
type TLSListener struct {
	certFile string
	keyFile  string
}

func NewTLSListener(certFile, keyFile string) *TLSListener {
	return &TLSListener{
		certFile: certFile,
		keyFile:  keyFile,
	}
}

func (l *TLSListener) Listen(addr string) (net.Listener, error) {
	cert, err := tls.LoadX509KeyPair(l.certFile, l.keyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load TLS certificate: %w", err)
	}
	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}
	return tls.Listen("tcp", addr, tlsConfig)
}

// PlainListener is the default unencrypted TCP listener.
type PlainListener struct{}

func NewPlainListener() *PlainListener {
	return &PlainListener{}
}

func (l *PlainListener) Listen(addr string) (net.Listener, error) {
	return net.Listen("tcp", addr)
}
