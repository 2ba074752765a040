package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"github.com/infobarbosa/janusgraph-lab/internal/types"
)

// Neo4jConn implements Conn for Neo4j. Each query runs in its own managed
// transaction, read or write according to Query.Mode. Cypher queries are
// expected to project a single column; the first column of every record
// becomes one entry of the ResultSet.
type Neo4jConn struct {
	config ClientConfig
	driver neo4j.DriverWithContext
}

// NewNeo4jConn creates a new Neo4j client with the given configuration.
// The client must be connected via Connect() before use.
func NewNeo4jConn(config ClientConfig) (*Neo4jConn, error) {
	if config.Backend == "" {
		config.Backend = BackendNeo4j
	}
	if config.Backend != BackendNeo4j {
		return nil, types.NewError(ErrCodeGraphInvalidConfig,
			fmt.Sprintf("neo4j client cannot serve backend %q", config.Backend))
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Neo4jConn{config: config}, nil
}

// Connect creates the driver and verifies connectivity, retrying with
// exponential backoff.
func (c *Neo4jConn) Connect(ctx context.Context) error {
	auth := neo4j.BasicAuth(c.config.Username, c.config.Password, "")

	driverConfig := func(config *neo4j.Config) {
		if c.config.MaxConnectionPoolSize > 0 {
			config.MaxConnectionPoolSize = c.config.MaxConnectionPoolSize
		}
		config.ConnectionAcquisitionTimeout = c.config.ConnectionTimeout
		config.MaxTransactionRetryTime = c.config.MaxTransactionRetryTime
	}

	driver, err := connectWithBackoff(ctx, c.config, func() (neo4j.DriverWithContext, error) {
		driver, err := neo4j.NewDriverWithContext(c.config.URI, auth, driverConfig)
		if err != nil {
			return nil, err
		}
		if err := driver.VerifyConnectivity(ctx); err != nil {
			_ = driver.Close(ctx)
			return nil, err
		}
		return driver, nil
	})
	if err != nil {
		return err
	}

	c.driver = driver
	return nil
}

// Close releases all resources and closes the database connection.
func (c *Neo4jConn) Close(ctx context.Context) error {
	if c.driver == nil {
		return nil
	}

	if err := c.driver.Close(ctx); err != nil {
		return types.WrapError(ErrCodeGraphConnectionClosed,
			"failed to close driver", err)
	}

	c.driver = nil
	return nil
}

// Backend returns BackendNeo4j.
func (c *Neo4jConn) Backend() Backend {
	return BackendNeo4j
}

// Health returns the current health status of the Neo4j connection.
func (c *Neo4jConn) Health(ctx context.Context) types.HealthStatus {
	if c.driver == nil {
		return types.Unhealthy("driver not initialized")
	}

	healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := c.driver.VerifyConnectivity(healthCtx); err != nil {
		return types.Unhealthy(fmt.Sprintf("connectivity check failed: %v", err))
	}

	return types.Healthy("connected to Neo4j at " + c.config.URI)
}

// Submit runs q in a managed transaction and collects every record.
func (c *Neo4jConn) Submit(ctx context.Context, q Query) (ResultSet, error) {
	if c.driver == nil {
		return nil, errNotConnected()
	}

	session := c.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: c.config.Database,
	})
	defer session.Close(ctx)

	work := func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, q.Text, q.Params)
		if err != nil {
			return nil, err
		}
		records, err := result.Collect(ctx)
		if err != nil {
			return nil, err
		}
		return convertNeo4jRecords(records), nil
	}

	var (
		out any
		err error
	)
	if q.Mode == ModeWrite {
		out, err = session.ExecuteWrite(ctx, work)
	} else {
		out, err = session.ExecuteRead(ctx, work)
	}
	if err != nil {
		return nil, classifyNeo4jError(q.Name, err)
	}

	return out.(ResultSet), nil
}

func convertNeo4jRecords(records []*neo4j.Record) ResultSet {
	out := make(ResultSet, 0, len(records))
	for _, record := range records {
		if len(record.Values) == 0 {
			continue
		}
		out = append(out, normalize(record.Values[0], convertNeo4jValue))
	}
	return out
}

// convertNeo4jValue maps driver structure types onto the package's model
// types.
func convertNeo4jValue(v any) (any, bool) {
	switch t := v.(type) {
	case dbtype.Node:
		return neo4jVertex(t), true
	case dbtype.Relationship:
		return Edge{
			ID:         NewID(t.ElementId),
			Label:      t.Type,
			OutV:       NewID(t.StartElementId),
			InV:        NewID(t.EndElementId),
			Properties: t.Props,
		}, true
	case dbtype.Path:
		steps := make([]PathStep, len(t.Nodes))
		for i, n := range t.Nodes {
			vx := neo4jVertex(n)
			steps[i] = PathStep{ID: vx.ID, Label: vx.Label}
		}
		return Path{Steps: steps}, true
	}
	return nil, false
}

func neo4jVertex(n dbtype.Node) Vertex {
	label := ""
	if len(n.Labels) > 0 {
		label = n.Labels[0]
	}
	return Vertex{ID: NewID(n.ElementId), Label: label, Properties: n.Props}
}

// classifyNeo4jError maps driver errors onto store error codes. Server
// errors of class TransientError (leader switch, database unavailable) are
// reported as unavailability; client and database errors as rejection.
func classifyNeo4jError(op string, err error) error {
	var connErr *neo4j.ConnectivityError
	if errors.As(err, &connErr) {
		return types.WrapError(types.STORE_UNAVAILABLE, op+": neo4j unreachable", err)
	}

	var neoErr *neo4j.Neo4jError
	if errors.As(err, &neoErr) {
		if strings.HasPrefix(neoErr.Code, "Neo.TransientError") {
			return types.WrapError(types.STORE_UNAVAILABLE, op+": neo4j temporarily unavailable", err)
		}
		return types.WrapError(types.QUERY_REJECTED, op+": neo4j rejected query", err)
	}

	if isTransportError(err) {
		return types.WrapError(types.STORE_UNAVAILABLE, op+": neo4j unreachable", err)
	}
	return types.WrapError(types.QUERY_REJECTED, op+": neo4j query failed", err)
}
