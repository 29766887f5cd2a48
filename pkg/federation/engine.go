package federation

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jensneuse/abstractlogger"

	graphqlDataSource "github.com/TykTechnologies/graphql-go-tools/pkg/engine/datasource/graphql_datasource"
	"github.com/TykTechnologies/graphql-go-tools/pkg/engine/resolve"
	"github.com/TykTechnologies/graphql-go-tools/pkg/graphql"
)

var ErrMissingSDL = errors.New("missing sdl for subgraph")

// DataSourceConfigurations maps the topology onto federation data sources. Operations are
// posted to the subgraph base URL.
func (c *Composer) DataSourceConfigurations(sdls map[string]string) ([]graphqlDataSource.Configuration, error) {
	configs := make([]graphqlDataSource.Configuration, 0, len(c.descriptors))
	for _, descriptor := range c.descriptors {
		sdl, ok := sdls[descriptor.Name]
		if !ok || sdl == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingSDL, descriptor.Name)
		}

		configs = append(configs, graphqlDataSource.Configuration{
			Fetch: graphqlDataSource.FetchConfiguration{
				URL:    descriptor.URL,
				Method: http.MethodPost,
				Header: http.Header{},
			},
			Federation: graphqlDataSource.FederationConfiguration{
				Enabled:    true,
				ServiceSDL: sdl,
			},
		})
	}
	return configs, nil
}

// Engine is the federated execution engine together with the merged schema it serves.
type Engine struct {
	schema *graphql.Schema
	engine *graphql.ExecutionEngineV2
}

// NewEngine composes the subgraph schemas and plans every fetch through httpClient, which is
// expected to come from Composer.HTTPClient so that credentials are forwarded.
func NewEngine(ctx context.Context, logger abstractlogger.Logger, composer *Composer, sdls map[string]string, httpClient *http.Client) (*Engine, error) {
	dataSourceConfigs, err := composer.DataSourceConfigurations(sdls)
	if err != nil {
		return nil, err
	}

	engineConfigFactory := graphql.NewFederationEngineConfigFactory(
		dataSourceConfigs,
		graphqlDataSource.NewBatchFactory(),
		graphql.WithFederationHttpClient(httpClient),
	)

	schema, err := engineConfigFactory.MergedSchema()
	if err != nil {
		return nil, fmt.Errorf("merging subgraph schemas: %w", err)
	}

	engineConfig, err := engineConfigFactory.EngineV2Configuration()
	if err != nil {
		return nil, fmt.Errorf("building engine configuration: %w", err)
	}
	engineConfig.EnableDataLoader(true)

	executionEngine, err := graphql.NewExecutionEngineV2(ctx, logger, engineConfig)
	if err != nil {
		return nil, fmt.Errorf("creating execution engine: %w", err)
	}

	return &Engine{
		schema: schema,
		engine: executionEngine,
	}, nil
}

func (e *Engine) Schema() *graphql.Schema {
	return e.schema
}

// Execute runs operation. ctx must be derived from the inbound request so that subgraph
// fetches find its RequestContext.
func (e *Engine) Execute(ctx context.Context, operation *graphql.Request, writer resolve.FlushWriter, options ...graphql.ExecutionOptionsV2) error {
	return e.engine.Execute(ctx, operation, writer, options...)
}
