// Package version reports build information for seqkit binaries.
//
// Version and BuildTime are set with -ldflags; the commit and dirty flag fall
// back to the VCS stamp the Go toolchain embeds:
//
//	go build -ldflags "-X github.com/kbukum/seqkit/version.Version=1.2.0" ./cmd/seqdemo
package version
