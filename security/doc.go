// Package security builds TLS configurations from file-based settings. The
// same TLSConfig section serves both ends: a server presents CertFile and, if
// CAFile is set, requires client certificates signed by it; a client trusts
// CAFile and presents CertFile for mutual TLS.
//
//	tlsCfg := security.TLSConfig{CAFile: "ca.pem", CertFile: "cert.pem", KeyFile: "key.pem"}
//	client, err := tlsCfg.HTTPClient(30 * time.Second)
package security
