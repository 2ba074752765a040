package graph

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"regexp"
	"strings"
	"syscall"
	"time"

	gremlingo "github.com/apache/tinkerpop/gremlin-go/v3/driver"
	"github.com/gorilla/websocket"

	"github.com/infobarbosa/janusgraph-lab/internal/types"
)

// GremlinConn implements Conn for Gremlin Server based stores such as
// JanusGraph. Scripts are submitted as text with bindings; the driver
// serializes the request with GraphBinary.
type GremlinConn struct {
	config ClientConfig
	client *gremlingo.Client
}

// NewGremlinConn creates a new Gremlin client with the given configuration.
// The client must be connected via Connect() before use.
func NewGremlinConn(config ClientConfig) (*GremlinConn, error) {
	if config.Backend == "" {
		config.Backend = BackendGremlin
	}
	if config.Backend != BackendGremlin {
		return nil, types.NewError(ErrCodeGraphInvalidConfig,
			fmt.Sprintf("gremlin client cannot serve backend %q", config.Backend))
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &GremlinConn{config: config}, nil
}

// Connect opens the websocket connection pool, retrying with exponential
// backoff.
func (c *GremlinConn) Connect(ctx context.Context) error {
	client, err := connectWithBackoff(ctx, c.config, func() (*gremlingo.Client, error) {
		return gremlingo.NewClient(c.config.URI, c.configure)
	})
	if err != nil {
		return err
	}

	c.client = client
	return nil
}

// configure applies the connection options to the driver settings. The
// buffer sizes must be positive: a Client with a zero WriteBufferSize
// refuses every request with E1201.
func (c *GremlinConn) configure(settings *gremlingo.ClientSettings) {
	settings.TraversalSource = c.config.TraversalSource
	settings.ConnectionTimeout = c.config.ConnectionTimeout
	settings.ReadBufferSize = bufferSize(c.config.ReadBufferSize)
	settings.WriteBufferSize = bufferSize(c.config.WriteBufferSize)
	if c.config.MaxConnectionPoolSize > 0 {
		settings.MaximumConcurrentConnections = c.config.MaxConnectionPoolSize
	}
	if c.config.Username != "" {
		settings.AuthInfo = gremlingo.BasicAuthInfo(c.config.Username, c.config.Password)
	}
}

func bufferSize(n int) int {
	if n <= 0 {
		return DefaultGremlinBufferSize
	}
	return n
}

// Close releases the connection pool.
func (c *GremlinConn) Close(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	c.client.Close()
	c.client = nil
	return nil
}

// Backend returns BackendGremlin.
func (c *GremlinConn) Backend() Backend {
	return BackendGremlin
}

// Health submits a trivial traversal.
func (c *GremlinConn) Health(ctx context.Context) types.HealthStatus {
	if c.client == nil {
		return types.Unhealthy("client not initialized")
	}

	healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := c.Submit(healthCtx, Query{
		Name: "health",
		Text: "g.inject(1)",
		Mode: ModeRead,
	})
	if err != nil {
		return types.Unhealthy(fmt.Sprintf("connectivity check failed: %v", err))
	}
	return types.Healthy("connected to Gremlin Server at " + c.config.URI)
}

// Submit sends q.Text with q.Params as bindings and waits for the full
// result set. The driver call is not context aware; a cancelled ctx makes
// Submit return early while the request finishes in the background.
func (c *GremlinConn) Submit(ctx context.Context, q Query) (ResultSet, error) {
	if c.client == nil {
		return nil, errNotConnected()
	}

	type outcome struct {
		results []*gremlingo.Result
		err     error
	}
	done := make(chan outcome, 1)

	go func() {
		rs, err := c.client.Submit(q.Text, bindings(q.Params))
		if err != nil {
			done <- outcome{err: err}
			return
		}
		results, err := rs.All()
		done <- outcome{results: results, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, types.WrapError(types.STORE_UNAVAILABLE,
			fmt.Sprintf("%s: request abandoned", q.Name), ctx.Err())
	case out := <-done:
		if out.err != nil {
			return nil, classifyGremlinError(q.Name, out.err)
		}
		return decodeGremlinResults(out.results), nil
	}
}

func bindings(params map[string]any) map[string]interface{} {
	b := make(map[string]interface{}, len(params))
	for k, v := range params {
		b[k] = v
	}
	return b
}

func decodeGremlinResults(results []*gremlingo.Result) ResultSet {
	out := make(ResultSet, 0, len(results))
	for _, r := range results {
		if r == nil {
			continue
		}
		v := r.GetInterface()
		if v == nil {
			continue
		}
		out = append(out, normalize(v, convertGremlinValue))
	}
	return out
}

// convertGremlinValue maps gremlin-go structure types onto the package's
// model types.
func convertGremlinValue(v any) (any, bool) {
	switch t := v.(type) {
	case *gremlingo.Vertex:
		return Vertex{ID: NewID(t.Id), Label: t.Label}, true
	case *gremlingo.Edge:
		return Edge{
			ID:    NewID(t.Id),
			Label: t.Label,
			OutV:  NewID(t.OutV.Id),
			InV:   NewID(t.InV.Id),
		}, true
	case *gremlingo.VertexProperty:
		return normalize(t.Value, convertGremlinValue), true
	case *gremlingo.Path:
		objects := make([]any, len(t.Objects))
		for i, obj := range t.Objects {
			objects[i] = normalize(obj, convertGremlinValue)
		}
		p, err := decodePath(objects)
		if err != nil {
			return objects, true
		}
		return p, true
	}
	return nil, false
}

// classifyGremlinError maps a driver failure onto the package's error
// codes. gremlin-go reports everything as a plain error whose message
// starts with a driver code such as "E0502:".
//
//   - E0502 and E0503, a response carrying an error status: QUERY_REJECTED
//   - transport failures and E01xx pool/connection errors: STORE_UNAVAILABLE
//   - anything else happened inside the driver, e.g. an unknown GraphBinary
//     type or a request over WriteBufferSize: RESULT_DECODE_FAILED
func classifyGremlinError(op string, err error) error {
	code := driverErrorCode(err)
	switch {
	case code == "E0502" || code == "E0503":
		return types.WrapError(types.QUERY_REJECTED, op+": gremlin server rejected request", err)
	case isTransportError(err) || strings.HasPrefix(code, "E01"):
		return types.WrapError(types.STORE_UNAVAILABLE, op+": gremlin server unreachable", err)
	default:
		return types.WrapError(types.RESULT_DECODE_FAILED, op+": gremlin driver failed to handle response", err)
	}
}

var driverCodePattern = regexp.MustCompile(`\bE\d{4}:`)

func driverErrorCode(err error) string {
	m := driverCodePattern.FindString(err.Error())
	return strings.TrimSuffix(m, ":")
}

func isTransportError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"no such host",
		"use of closed network connection",
		"connection closed",
		"bad handshake",
		"i/o timeout",
		"unexpected eof",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// connectWithBackoff runs dial up to cfg.ConnectRetries times with
// exponential backoff starting at 100ms and capped at cfg.ConnectionTimeout.
func connectWithBackoff[T any](ctx context.Context, cfg ClientConfig, dial func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	baseDelay := 100 * time.Millisecond

	for attempt := 0; attempt < cfg.ConnectRetries; attempt++ {
		conn, err := dial()
		if err == nil {
			return conn, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, types.WrapError(types.STORE_UNAVAILABLE,
				"connection attempt cancelled", ctx.Err())
		}
		if attempt == cfg.ConnectRetries-1 {
			break
		}

		delay := baseDelay * time.Duration(math.Pow(2, float64(attempt)))
		if delay > cfg.ConnectionTimeout {
			delay = cfg.ConnectionTimeout
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return zero, types.WrapError(types.STORE_UNAVAILABLE,
				"connection attempt cancelled", ctx.Err())
		}
	}

	return zero, types.WrapError(types.STORE_UNAVAILABLE,
		fmt.Sprintf("failed to connect to %s after %d attempts", cfg.URI, cfg.ConnectRetries), lastErr)
}
