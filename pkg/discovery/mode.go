package discovery

import (
	"errors"
	"strings"
)

var ErrUnknownDeploymentMode = errors.New("unknown deployment mode")

// DeploymentMode selects how subgraph hosts are addressed.
type DeploymentMode string

const (
	// DeploymentModeDocker addresses every subgraph by its service name and relies on the
	// container network to resolve it.
	DeploymentModeDocker DeploymentMode = "docker"
	// DeploymentModeLocal addresses every subgraph on the loopback interface.
	DeploymentModeLocal DeploymentMode = "local"
)

// ParseDeploymentMode normalizes a raw environment value. Unrecognized values are returned
// as they are so that callers can still log what was configured.
func ParseDeploymentMode(raw string) DeploymentMode {
	return DeploymentMode(strings.ToLower(strings.TrimSpace(raw)))
}

func (m DeploymentMode) IsKnown() bool {
	switch m {
	case DeploymentModeDocker, DeploymentModeLocal:
		return true
	default:
		return false
	}
}

func (m DeploymentMode) String() string {
	if m == "" {
		return "unset"
	}
	return string(m)
}
