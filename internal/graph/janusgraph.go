package graph

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"

	gremlingo "github.com/apache/tinkerpop/gremlin-go/v3/driver"
)

// relationIdentifierTypeName is the GraphBinary custom type name JanusGraph
// uses for edge ids.
const relationIdentifierTypeName = "janusgraph.RelationIdentifier"

const (
	relationIdentifierTypeCode = 0x1001

	vertexIDLongMarker   = 0
	vertexIDStringMarker = 1
)

func init() {
	gremlingo.RegisterCustomTypeReader(relationIdentifierTypeName, readRelationIdentifier)
}

// RelationIdentifier is a JanusGraph edge id. Vertex ids are int64 unless
// the graph was configured for string ids.
type RelationIdentifier struct {
	OutVertexID any
	TypeID      int64
	RelationID  int64
	InVertexID  any
}

// String renders the id in JanusGraph's own notation: base-36 fields
// joined by dashes, relation id first.
func (r RelationIdentifier) String() string {
	parts := []string{
		strconv.FormatInt(r.RelationID, 36),
		formatVertexID(r.OutVertexID),
		strconv.FormatInt(r.TypeID, 36),
	}
	if r.InVertexID != nil {
		parts = append(parts, formatVertexID(r.InVertexID))
	}
	return strings.Join(parts, "-")
}

func formatVertexID(v any) string {
	if n, ok := v.(int64); ok {
		return strconv.FormatInt(n, 36)
	}
	return fmt.Sprint(v)
}

var errShortRelationIdentifier = errors.New("janusgraph.RelationIdentifier: payload truncated")

// readRelationIdentifier decodes the payload that follows the custom type
// name: {type code}{value flag}{out vertex id}{type id}{relation id}{in vertex id}.
func readRelationIdentifier(data *[]byte, i *int) (interface{}, error) {
	r := binReader{buf: *data, pos: *i}
	defer func() { *i = r.pos }()

	code, err := r.readUint32()
	if err != nil {
		return nil, err
	}
	if code != relationIdentifierTypeCode {
		return nil, fmt.Errorf("janusgraph.RelationIdentifier: unexpected type code 0x%x", code)
	}
	flag, err := r.readByte()
	if err != nil {
		return nil, err
	}
	if flag != 0 {
		return nil, errors.New("janusgraph.RelationIdentifier: null value")
	}

	var id RelationIdentifier
	if id.OutVertexID, err = r.vertexID(); err != nil {
		return nil, err
	}
	if id.TypeID, err = r.readInt64(); err != nil {
		return nil, err
	}
	if id.RelationID, err = r.readInt64(); err != nil {
		return nil, err
	}
	if id.InVertexID, err = r.vertexID(); err != nil {
		return nil, err
	}
	return id, nil
}

// binReader reads big-endian values and fails instead of panicking on a
// short buffer.
type binReader struct {
	buf []byte
	pos int
}

func (r *binReader) take(n int) ([]byte, error) {
	if r.pos+n > len(r.buf) {
		return nil, errShortRelationIdentifier
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *binReader) readByte() (byte, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *binReader) readUint32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (r *binReader) readInt64() (int64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(b)), nil
}

// vertexID reads a marker byte and then either a long or an ASCII string
// whose last byte carries the 0x80 bit.
func (r *binReader) vertexID() (any, error) {
	marker, err := r.readByte()
	if err != nil {
		return nil, err
	}
	switch marker {
	case vertexIDLongMarker:
		return r.readInt64()
	case vertexIDStringMarker:
		var sb strings.Builder
		for {
			c, err := r.readByte()
			if err != nil {
				return nil, err
			}
			if c&0x80 != 0 {
				if c &^= 0x80; c != 0 {
					sb.WriteByte(c)
				}
				return sb.String(), nil
			}
			sb.WriteByte(c)
		}
	default:
		return nil, fmt.Errorf("janusgraph.RelationIdentifier: unknown vertex id marker %d", marker)
	}
}
