package discovery

import (
	"errors"
	"fmt"
)

var ErrUnknownTopology = errors.New("unknown topology")

// ServiceEntry is one statically configured subgraph.
type ServiceEntry struct {
	Name string
	Port int
}

const (
	TopologyFull    = "full"
	TopologyReduced = "reduced"
)

var (
	// FullTopology includes the auth subgraph.
	FullTopology = []ServiceEntry{
		{Name: "planets-service", Port: 8001},
		{Name: "satellites-service", Port: 8002},
		{Name: "auth-service", Port: 8003},
	}

	ReducedTopology = []ServiceEntry{
		{Name: "planets-service", Port: 8001},
		{Name: "satellites-service", Port: 8002},
	}
)

// TopologyByName returns a copy of the named service table. An empty name selects the full
// topology.
func TopologyByName(name string) ([]ServiceEntry, error) {
	var entries []ServiceEntry
	switch name {
	case "", TopologyFull:
		entries = FullTopology
	case TopologyReduced:
		entries = ReducedTopology
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTopology, name)
	}

	out := make([]ServiceEntry, len(entries))
	copy(out, entries)
	return out, nil
}
