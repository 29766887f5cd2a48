package federation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/buger/jsonparser"
	"github.com/cenkalti/backoff/v4"
	"github.com/jensneuse/abstractlogger"
)

const serviceSDLRequest = `{"query":"query __ApolloGetServiceDefinition__ { _service { sdl } }"}`

const (
	DefaultSDLFetchAttempts = 10
	DefaultSDLFetchInterval = 2 * time.Second
)

var (
	ErrEmptySDL           = errors.New("subgraph returned an empty sdl")
	ErrSubgraphGraphQL    = errors.New("subgraph answered with graphql errors")
	ErrUnexpectedResponse = errors.New("unexpected subgraph response")
)

type SDLFetcherOptions struct {
	Logger   abstractlogger.Logger
	Attempts int
	Interval time.Duration
}

type SDLFetcherOptionFunc func(opts *SDLFetcherOptions)

func WithSDLLogger(logger abstractlogger.Logger) SDLFetcherOptionFunc {
	return func(opts *SDLFetcherOptions) {
		opts.Logger = logger
	}
}

func WithSDLRetry(attempts int, interval time.Duration) SDLFetcherOptionFunc {
	return func(opts *SDLFetcherOptions) {
		opts.Attempts = attempts
		opts.Interval = interval
	}
}

// SDLFetcher loads the federation SDL every subgraph exposes through `_service { sdl }`.
// Subgraphs usually come up together with the gateway, so failed attempts are retried.
type SDLFetcher struct {
	client   *http.Client
	logger   abstractlogger.Logger
	attempts int
	interval time.Duration
}

func NewSDLFetcher(client *http.Client, options ...SDLFetcherOptionFunc) *SDLFetcher {
	definedOptions := SDLFetcherOptions{
		Logger:   abstractlogger.Noop{},
		Attempts: DefaultSDLFetchAttempts,
		Interval: DefaultSDLFetchInterval,
	}
	for _, optionFunc := range options {
		optionFunc(&definedOptions)
	}

	if definedOptions.Logger == nil {
		definedOptions.Logger = abstractlogger.Noop{}
	}
	if definedOptions.Attempts < 1 {
		definedOptions.Attempts = 1
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &SDLFetcher{
		client:   client,
		logger:   definedOptions.Logger,
		attempts: definedOptions.Attempts,
		interval: definedOptions.Interval,
	}
}

// FetchAll returns the SDL of every descriptor keyed by subgraph name.
func (f *SDLFetcher) FetchAll(ctx context.Context, descriptors []SubgraphDescriptor) (map[string]string, error) {
	sdls := make(map[string]string, len(descriptors))
	for _, descriptor := range descriptors {
		sdl, err := f.Fetch(ctx, descriptor)
		if err != nil {
			return nil, err
		}
		sdls[descriptor.Name] = sdl
	}
	return sdls, nil
}

func (f *SDLFetcher) Fetch(ctx context.Context, descriptor SubgraphDescriptor) (string, error) {
	var sdl string
	operation := func() (err error) {
		sdl, err = f.fetchOnce(ctx, descriptor.URL)
		return err
	}

	attempt := 0
	notify := func(err error, next time.Duration) {
		attempt++
		f.logger.Error("federation.SDLFetcher.Fetch: on fetching service sdl",
			abstractlogger.String("subgraph", descriptor.Name),
			abstractlogger.String("url", descriptor.URL),
			abstractlogger.Int("attempt", attempt),
			abstractlogger.String("retry_in", next.String()),
			abstractlogger.Error(err),
		)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(f.interval), uint64(f.attempts-1)),
		ctx,
	)
	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("fetching sdl of %s after %d attempts: %w", descriptor.Name, f.attempts, err)
	}
	return sdl, nil
}

func (f *SDLFetcher) fetchOnce(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBufferString(serviceSDLRequest))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrUnexpectedResponse, resp.StatusCode)
	}

	return extractSDL(body)
}

func extractSDL(body []byte) (string, error) {
	if message, err := jsonparser.GetString(body, "errors", "[0]", "message"); err == nil {
		return "", fmt.Errorf("%w: %s", ErrSubgraphGraphQL, message)
	}

	sdl, err := jsonparser.GetString(body, "data", "_service", "sdl")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}
	if sdl == "" {
		return "", ErrEmptySDL
	}
	return sdl, nil
}
