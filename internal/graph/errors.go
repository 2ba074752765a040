package graph

import "github.com/infobarbosa/janusgraph-lab/internal/types"

// Error codes local to connection setup. Failures of submitted queries are
// reported with types.STORE_UNAVAILABLE or types.QUERY_REJECTED.
const (
	ErrCodeGraphInvalidConfig    types.ErrorCode = "GRAPH_INVALID_CONFIG"
	ErrCodeGraphConnectionClosed types.ErrorCode = "GRAPH_CONNECTION_CLOSED"
)

// errNotConnected is returned by Submit on a client that was never
// connected or has been closed.
func errNotConnected() error {
	return types.WrapError(types.STORE_UNAVAILABLE, "client not connected",
		types.NewError(ErrCodeGraphConnectionClosed, "no open connection"))
}
