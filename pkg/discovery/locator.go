// Package discovery resolves subgraph base URLs from the deployment mode the gateway was
// started with.
package discovery

import (
	"fmt"
	"net"
	"strconv"
)

const (
	loopbackHost = "localhost"
	// undefinedHost is used when the deployment mode is not recognized. The resulting URL is
	// syntactically valid but fails as soon as a connection is attempted.
	undefinedHost = "undefined"
)

// Locator turns a logical service name and port into a reachable base URL.
// It is immutable and safe for concurrent use.
type Locator struct {
	mode DeploymentMode
}

func NewLocator(mode DeploymentMode) *Locator {
	return &Locator{mode: mode}
}

func (l *Locator) Mode() DeploymentMode {
	return l.mode
}

// Host returns the host for serviceName. ok is false when the deployment mode is not
// recognized.
func (l *Locator) Host(serviceName string) (host string, ok bool) {
	switch l.mode {
	case DeploymentModeDocker:
		return serviceName, true
	case DeploymentModeLocal:
		return loopbackHost, true
	default:
		return undefinedHost, false
	}
}

// Resolve never fails. For an unrecognized deployment mode the returned URL carries the
// literal host "undefined"; use Validate to reject such a configuration up front.
func (l *Locator) Resolve(serviceName string, port int) string {
	host, _ := l.Host(serviceName)
	return "http://" + net.JoinHostPort(host, strconv.Itoa(port))
}

func (l *Locator) Validate() error {
	if !l.mode.IsKnown() {
		return fmt.Errorf("%w: %q (expected %q or %q)", ErrUnknownDeploymentMode, l.mode.String(), DeploymentModeDocker, DeploymentModeLocal)
	}
	return nil
}
