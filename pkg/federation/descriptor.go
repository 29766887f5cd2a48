package federation

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/planets/federation-gateway/pkg/discovery"
)

var ErrInvalidDescriptor = errors.New("invalid subgraph descriptor")

// SubgraphDescriptor names one downstream subgraph and its resolved base URL.
type SubgraphDescriptor struct {
	Name string
	URL  string
}

func (d SubgraphDescriptor) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidDescriptor)
	}

	u, err := url.Parse(d.URL)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidDescriptor, d.Name, err)
	}
	if u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: %s: %q is not an absolute http(s) url", ErrInvalidDescriptor, d.Name, d.URL)
	}

	return nil
}

// Describe resolves every entry of a service table with locator.
func Describe(locator *discovery.Locator, entries []discovery.ServiceEntry) []SubgraphDescriptor {
	descriptors := make([]SubgraphDescriptor, 0, len(entries))
	for _, entry := range entries {
		descriptors = append(descriptors, SubgraphDescriptor{
			Name: entry.Name,
			URL:  locator.Resolve(entry.Name, entry.Port),
		})
	}
	return descriptors
}
