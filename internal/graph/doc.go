// Package graph is the connection layer between the seeder/harness and a
// remote property-graph store.
//
// A Conn submits one Query at a time. A Query carries the traversal text
// produced by a dialect together with its bound parameters, so values never
// appear literally in the text. Results come back as a ResultSet of values
// already normalized from the driver's native types:
//
//   - Gremlin Server / JanusGraph through the TinkerPop gremlin-go driver
//     (GremlinConn), scripts submitted as text with bindings
//   - Neo4j through the official Go driver (Neo4jConn), Cypher with parameters
//   - MockConn for unit tests
//
// Vertices, edges and paths are decoded into Vertex, Edge and Path. Maps are
// normalized to map[string]any and lists to []any.
//
// # Identifiers
//
// Store identifiers are opaque. Gremlin backends usually hand out int64 ids,
// Neo4j hands out element id strings. ID wraps either and gives it back to
// the same backend unchanged.
//
// # Errors
//
// Driver errors are classified into types.STORE_UNAVAILABLE (the store could
// not be reached or the connection dropped) and types.QUERY_REJECTED (the
// store parsed and refused the request). Nothing in this package retries a
// submitted query. Only establishing a connection is retried with
// exponential backoff.
package graph
