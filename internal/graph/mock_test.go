package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infobarbosa/janusgraph-lab/internal/types"
)

func TestMockConn_QueueThenResponder(t *testing.T) {
	mock := NewMockConn(BackendGremlin)
	ctx := context.Background()

	mock.AddResult(int64(10))
	mock.AddError(types.ErrQueryRejected)
	mock.SetResponder(func(q Query) (ResultSet, error) {
		return ResultSet{q.Name}, nil
	})

	rs, err := mock.Submit(ctx, Query{Name: "count_vertices"})
	require.NoError(t, err)
	n, err := rs.Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(10), n)

	_, err = mock.Submit(ctx, Query{Name: "count_edges"})
	assert.ErrorIs(t, err, types.ErrQueryRejected)

	rs, err = mock.Submit(ctx, Query{Name: "echo"})
	require.NoError(t, err)
	assert.Equal(t, ResultSet{"echo"}, rs)

	assert.Len(t, mock.Queries(), 3)
	assert.Len(t, mock.QueriesByName("count_edges"), 1)
}

func TestMockConn_DefaultEmpty(t *testing.T) {
	mock := NewMockConn(BackendNeo4j)
	rs, err := mock.Submit(context.Background(), Query{Name: "list_by_label"})
	require.NoError(t, err)
	assert.Equal(t, 0, rs.Len())
	assert.Equal(t, BackendNeo4j, mock.Backend())
}

func TestMockConn_Close(t *testing.T) {
	mock := NewMockConn(BackendGremlin)
	ctx := context.Background()

	require.NoError(t, mock.Close(ctx))
	assert.Equal(t, 1, mock.CloseCount())
	assert.False(t, mock.IsConnected())

	_, err := mock.Submit(ctx, Query{Name: "count_vertices"})
	assert.ErrorIs(t, err, types.ErrStoreUnavailable)

	other := NewMockConn(BackendGremlin)
	other.SetCloseError(errors.New("session leak"))
	assert.Error(t, other.Close(ctx))
	assert.True(t, other.IsConnected())
}

func TestMockConn_Health(t *testing.T) {
	mock := NewMockConn(BackendGremlin)
	mock.SetHealthStatus(types.Unhealthy("degraded backend"))
	assert.Equal(t, "degraded backend", mock.Health(context.Background()).Message)
}
