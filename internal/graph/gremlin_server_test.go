package graph

import (
	"bytes"
	"context"
	"encoding/binary"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infobarbosa/janusgraph-lab/internal/types"
)

// fakeGremlinServer speaks just enough of the Gremlin Server websocket
// protocol to answer GraphBinary requests with canned responses.
type fakeGremlinServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests [][]byte
	conns    []*websocket.Conn
}

func newFakeGremlinServer(t *testing.T, respond func(requestID []byte) []byte) *fakeGremlinServer {
	t.Helper()

	f := &fakeGremlinServer{}
	upgrader := websocket.Upgrader{}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		f.mu.Lock()
		f.conns = append(f.conns, ws)
		f.mu.Unlock()

		for {
			_, msg, err := ws.ReadMessage()
			if err != nil {
				return
			}
			f.mu.Lock()
			f.requests = append(f.requests, msg)
			f.mu.Unlock()

			// {mime length}{mime}{version}{request id}
			offset := int(msg[0]) + 2
			if len(msg) < offset+16 {
				return
			}
			if err := ws.WriteMessage(websocket.BinaryMessage, respond(msg[offset:offset+16])); err != nil {
				return
			}
		}
	}))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeGremlinServer) URI() string {
	return "ws" + strings.TrimPrefix(f.URL, "http") + "/gremlin"
}

// shutdown closes the listener and every open websocket. httptest does not
// track hijacked connections, so they are closed here.
func (f *fakeGremlinServer) shutdown() {
	f.Close()
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ws := range f.conns {
		_ = ws.Close()
	}
}

func (f *fakeGremlinServer) lastRequest() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return nil
	}
	return f.requests[len(f.requests)-1]
}

// gbResponse frames a response message. An empty message is sent as null.
func gbResponse(requestID []byte, status uint32, message string, data []byte) []byte {
	var b bytes.Buffer
	b.WriteByte(0x81)
	b.WriteByte(0x00)
	b.Write(requestID)
	_ = binary.Write(&b, binary.BigEndian, status)
	if message == "" {
		b.WriteByte(0x01)
	} else {
		b.WriteByte(0x00)
		gbRawString(&b, message)
	}
	b.Write([]byte{0, 0, 0, 0}) // status attributes
	b.Write([]byte{0, 0, 0, 0}) // result meta
	b.Write(data)
	return b.Bytes()
}

func gbRawString(b *bytes.Buffer, s string) {
	_ = binary.Write(b, binary.BigEndian, uint32(len(s)))
	b.WriteString(s)
}

func gbString(s string) []byte {
	var b bytes.Buffer
	b.Write([]byte{0x03, 0x00})
	gbRawString(&b, s)
	return b.Bytes()
}

func gbLong(n int64) []byte {
	var b bytes.Buffer
	b.Write([]byte{0x02, 0x00})
	_ = binary.Write(&b, binary.BigEndian, n)
	return b.Bytes()
}

func gbNull() []byte {
	return []byte{0xfe, 0x01}
}

func gbList(items ...[]byte) []byte {
	var b bytes.Buffer
	b.Write([]byte{0x09, 0x00})
	_ = binary.Write(&b, binary.BigEndian, uint32(len(items)))
	for _, item := range items {
		b.Write(item)
	}
	return b.Bytes()
}

func gbSet() []byte {
	return []byte{0x0b, 0x00, 0, 0, 0, 0}
}

// gbMap encodes string keys in the given order.
func gbMap(kv ...any) []byte {
	var b bytes.Buffer
	b.Write([]byte{0x0a, 0x00})
	_ = binary.Write(&b, binary.BigEndian, uint32(len(kv)/2))
	for i := 0; i < len(kv); i += 2 {
		b.Write(gbString(kv[i].(string)))
		b.Write(kv[i+1].([]byte))
	}
	return b.Bytes()
}

// gbPath encodes a path whose steps carry no labels.
func gbPath(objects ...[]byte) []byte {
	labels := make([][]byte, len(objects))
	for i := range labels {
		labels[i] = gbSet()
	}
	var b bytes.Buffer
	b.Write([]byte{0x0e, 0x00})
	b.Write(gbList(labels...))
	b.Write(gbList(objects...))
	return b.Bytes()
}

func gbCustom(name string, payload []byte) []byte {
	var b bytes.Buffer
	b.WriteByte(0x00)
	gbRawString(&b, name)
	b.Write(payload)
	return b.Bytes()
}

func connectFake(t *testing.T, f *fakeGremlinServer, mutate func(*ClientConfig)) *GremlinConn {
	t.Helper()

	cfg := DefaultConfig(BackendGremlin)
	cfg.URI = f.URI()
	cfg.ConnectRetries = 1
	cfg.ConnectionTimeout = 5 * time.Second
	if mutate != nil {
		mutate(&cfg)
	}

	c, err := NewGremlinConn(cfg)
	require.NoError(t, err)
	require.NoError(t, c.Connect(context.Background()))
	t.Cleanup(func() { _ = c.Close(context.Background()) })
	return c
}

func submitWithTimeout(c *GremlinConn, q Query) (ResultSet, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return c.Submit(ctx, q)
}

func TestGremlinConn_CountRoundTrip(t *testing.T) {
	f := newFakeGremlinServer(t, func(id []byte) []byte {
		return gbResponse(id, 200, "", gbList(gbLong(15)))
	})
	c := connectFake(t, f, func(cfg *ClientConfig) { cfg.TraversalSource = "janus" })

	rs, err := submitWithTimeout(c, Query{Name: "count_vertices", Text: "g.V().count()", Mode: ModeRead})
	require.NoError(t, err)
	n, err := rs.Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(15), n)

	req := f.lastRequest()
	assert.True(t, bytes.Contains(req, []byte("g.V().count()")))
	assert.True(t, bytes.Contains(req, []byte("janus")), "traversal source travels as the g alias")
}

func TestGremlinConn_BindingsTravelWithRequest(t *testing.T) {
	f := newFakeGremlinServer(t, func(id []byte) []byte {
		return gbResponse(id, 200, "", gbList(gbLong(1)))
	})
	c := connectFake(t, f, nil)

	_, err := submitWithTimeout(c, Query{
		Name:   "upsert_entity",
		Text:   "g.V().has(vLabel, vKey, vValue).count()",
		Params: map[string]any{"vLabel": "pessoa", "vKey": "nome", "vValue": "Ana Costa"},
		Mode:   ModeWrite,
	})
	require.NoError(t, err)

	req := f.lastRequest()
	assert.True(t, bytes.Contains(req, []byte("Ana Costa")))
	assert.False(t, bytes.Contains(req, []byte("has('pessoa'")))
}

func TestGremlinConn_PathResult(t *testing.T) {
	step := func(id int64, label, display string) []byte {
		return gbMap("id", gbLong(id), "label", gbString(label), "display", gbString(display))
	}
	f := newFakeGremlinServer(t, func(id []byte) []byte {
		return gbResponse(id, 200, "", gbList(gbPath(
			step(1, "pessoa", "Carla Vieira"),
			step(3, "empresa", "TechSoluções"),
		)))
	})
	c := connectFake(t, f, nil)

	rs, err := submitWithTimeout(c, Query{Name: "find_paths", Text: "g.V().path()", Mode: ModeRead})
	require.NoError(t, err)
	paths, err := rs.Paths()
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, 1, paths[0].Hops())
	assert.Equal(t, "Carla Vieira", paths[0].Steps[0].Display)
	assert.Equal(t, "empresa", paths[0].Steps[1].Label)
	assert.Equal(t, int64(3), paths[0].Steps[1].ID.Value())
}

func TestGremlinConn_RelationIdentifierEdgeID(t *testing.T) {
	f := newFakeGremlinServer(t, func(id []byte) []byte {
		return gbResponse(id, 200, "", gbList(gbCustom(relationIdentifierTypeName, relationIdentifierPayload)))
	})
	c := connectFake(t, f, nil)

	rs, err := submitWithTimeout(c, Query{Name: "create_relationship", Text: "g.V(fromId).addE(eLabel).id()", Mode: ModeWrite})
	require.NoError(t, err)
	id, ok := rs.ID()
	require.True(t, ok)
	assert.Equal(t, RelationIdentifier{
		OutVertexID: int64(4336),
		TypeID:      25621,
		RelationID:  6174,
		InVertexID:  int64(8248),
	}, id.Value())
}

func TestGremlinConn_ErrorClassification(t *testing.T) {
	t.Run("server rejects script", func(t *testing.T) {
		f := newFakeGremlinServer(t, func(id []byte) []byte {
			return gbResponse(id, 597, "No such property: hasLabl", gbNull())
		})
		c := connectFake(t, f, nil)

		_, err := submitWithTimeout(c, Query{Name: "count_vertices", Text: "g.V().hasLabl()"})
		require.Error(t, err)
		assert.Equal(t, types.QUERY_REJECTED, types.CodeOf(err))
		assert.Contains(t, err.Error(), "No such property")
	})

	t.Run("unknown custom type", func(t *testing.T) {
		f := newFakeGremlinServer(t, func(id []byte) []byte {
			return gbResponse(id, 200, "", gbList(gbCustom("acme.Token", []byte{0, 0, 0, 1})))
		})
		c := connectFake(t, f, nil)

		_, err := submitWithTimeout(c, Query{Name: "count_vertices", Text: "g.V().count()"})
		require.Error(t, err)
		assert.Equal(t, types.RESULT_DECODE_FAILED, types.CodeOf(err))
	})

	t.Run("request larger than write buffer", func(t *testing.T) {
		f := newFakeGremlinServer(t, func(id []byte) []byte {
			return gbResponse(id, 200, "", gbList(gbLong(0)))
		})
		c := connectFake(t, f, func(cfg *ClientConfig) { cfg.WriteBufferSize = 64 })

		_, err := submitWithTimeout(c, Query{Name: "upsert_entity", Text: "g.V().has(vLabel, vKey, vValue).fold().coalesce(__.unfold(), __.addV(vLabel))"})
		require.Error(t, err)
		assert.Equal(t, types.RESULT_DECODE_FAILED, types.CodeOf(err))
		assert.Empty(t, f.lastRequest())
	})

	t.Run("server goes away", func(t *testing.T) {
		f := newFakeGremlinServer(t, func(id []byte) []byte {
			return gbResponse(id, 200, "", gbList(gbLong(0)))
		})
		c := connectFake(t, f, nil)
		f.shutdown()

		_, err := submitWithTimeout(c, Query{Name: "count_vertices", Text: "g.V().count()"})
		require.Error(t, err)
		assert.Equal(t, types.STORE_UNAVAILABLE, types.CodeOf(err))
	})
}

func TestGremlinConn_Health(t *testing.T) {
	f := newFakeGremlinServer(t, func(id []byte) []byte {
		return gbResponse(id, 200, "", gbList(gbLong(1)))
	})
	c := connectFake(t, f, nil)

	assert.Equal(t, types.HealthStateHealthy, c.Health(context.Background()).State)
}
