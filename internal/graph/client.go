package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/infobarbosa/janusgraph-lab/internal/types"
)

// Backend names a store flavour and, with it, a query dialect.
type Backend string

const (
	BackendGremlin Backend = "gremlin"
	BackendNeo4j   Backend = "neo4j"
)

// Mode tells the connection whether a query mutates the graph.
type Mode int

const (
	ModeRead Mode = iota
	ModeWrite
)

// String returns "read" or "write".
func (m Mode) String() string {
	if m == ModeWrite {
		return "write"
	}
	return "read"
}

// Query is one traversal request.
type Query struct {
	// Name identifies the operation, e.g. "upsert_entity". Used for logs,
	// spans and metrics only.
	Name string

	// Text is the traversal in the backend's query language.
	Text string

	// Params are bound by the driver. Every value supplied by a caller
	// travels here, never inside Text.
	Params map[string]any

	Mode Mode
}

// Conn is a connection to a graph store.
// Implementations block in Submit until the store responds.
type Conn interface {
	// Submit executes q and returns its decoded results.
	Submit(ctx context.Context, q Query) (ResultSet, error)

	// Close releases the connection and any server-side session state.
	Close(ctx context.Context) error

	// Health probes the store.
	Health(ctx context.Context) types.HealthStatus

	// Backend reports which dialect the store speaks.
	Backend() Backend
}

// ClientConfig contains connection options for store clients.
type ClientConfig struct {
	Backend Backend

	// URI of the store endpoint:
	//   - gremlin: "ws://host:8182/gremlin" or "wss://..."
	//   - neo4j:   "bolt://host:7687", "neo4j://host:7687", "bolt+s://..."
	URI string

	// TraversalSource is the Gremlin traversal source alias. Gremlin only.
	TraversalSource string

	// Username and Password. Optional for gremlin, required for neo4j.
	Username string
	Password string

	// Database name. Neo4j only; empty uses the server default.
	Database string

	// MaxConnectionPoolSize limits pooled connections.
	// Zero or negative values use the driver default.
	MaxConnectionPoolSize int

	// ConnectionTimeout bounds each connection attempt and the backoff delay.
	ConnectionTimeout time.Duration

	// MaxTransactionRetryTime bounds Neo4j managed transaction retries.
	MaxTransactionRetryTime time.Duration

	// ConnectRetries is the number of connection attempts before giving up.
	ConnectRetries int

	// ReadBufferSize and WriteBufferSize size the websocket I/O buffers in
	// bytes. A request larger than WriteBufferSize is refused by the
	// driver before it is sent. Gremlin only; zero uses
	// DefaultGremlinBufferSize.
	ReadBufferSize  int
	WriteBufferSize int
}

// DefaultGremlinBufferSize is the websocket buffer size used when
// ClientConfig leaves it unset.
const DefaultGremlinBufferSize = 1 << 20

// DefaultConfig returns defaults for the given backend.
func DefaultConfig(backend Backend) ClientConfig {
	cfg := ClientConfig{
		Backend:                 backend,
		MaxConnectionPoolSize:   8,
		ConnectionTimeout:       30 * time.Second,
		MaxTransactionRetryTime: 30 * time.Second,
		ConnectRetries:          5,
	}

	switch backend {
	case BackendNeo4j:
		cfg.URI = "bolt://localhost:7687"
		cfg.Username = "neo4j"
		cfg.Password = "password"
		cfg.MaxConnectionPoolSize = 50
	default:
		cfg.Backend = BackendGremlin
		cfg.URI = "ws://localhost:8182/gremlin"
		cfg.TraversalSource = "g"
		cfg.ReadBufferSize = DefaultGremlinBufferSize
		cfg.WriteBufferSize = DefaultGremlinBufferSize
	}

	return cfg
}

// Validate checks if the configuration is valid.
func (c ClientConfig) Validate() error {
	switch c.Backend {
	case BackendGremlin:
		if c.TraversalSource == "" {
			return types.NewError(ErrCodeGraphInvalidConfig, "TraversalSource cannot be empty")
		}
		if c.ReadBufferSize < 0 || c.WriteBufferSize < 0 {
			return types.NewError(ErrCodeGraphInvalidConfig, "buffer sizes cannot be negative")
		}
	case BackendNeo4j:
		if c.Username == "" {
			return types.NewError(ErrCodeGraphInvalidConfig, "Username cannot be empty")
		}
		if c.Password == "" {
			return types.NewError(ErrCodeGraphInvalidConfig, "Password cannot be empty")
		}
		if c.MaxTransactionRetryTime <= 0 {
			return types.NewError(ErrCodeGraphInvalidConfig, "MaxTransactionRetryTime must be positive")
		}
	default:
		return types.NewError(ErrCodeGraphInvalidConfig,
			fmt.Sprintf("unsupported backend %q", c.Backend))
	}

	if c.URI == "" {
		return types.NewError(ErrCodeGraphInvalidConfig, "URI cannot be empty")
	}
	if c.ConnectionTimeout <= 0 {
		return types.NewError(ErrCodeGraphInvalidConfig, "ConnectionTimeout must be positive")
	}
	if c.ConnectRetries < 1 {
		return types.NewError(ErrCodeGraphInvalidConfig, "ConnectRetries must be at least 1")
	}
	return nil
}

// Open creates and connects a client for cfg.Backend.
// The returned Conn must be closed by the caller.
func Open(ctx context.Context, cfg ClientConfig) (Conn, error) {
	switch cfg.Backend {
	case BackendNeo4j:
		c, err := NewNeo4jConn(cfg)
		if err != nil {
			return nil, err
		}
		if err := c.Connect(ctx); err != nil {
			return nil, err
		}
		return c, nil
	case BackendGremlin:
		c, err := NewGremlinConn(cfg)
		if err != nil {
			return nil, err
		}
		if err := c.Connect(ctx); err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, types.NewError(ErrCodeGraphInvalidConfig,
			fmt.Sprintf("unsupported backend %q", cfg.Backend))
	}
}
