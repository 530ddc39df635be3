// Package buildinfo exposes version information injected at link time.
//
//	go build -ldflags "-X github.com/yndnr/snapback/internal/infra/buildinfo.Version=v0.3.0 \
//	  -X github.com/yndnr/snapback/internal/infra/buildinfo.Commit=$(git rev-parse --short HEAD)"
//
// When Commit is not injected it falls back to the VCS revision recorded by
// the Go toolchain.
package buildinfo
