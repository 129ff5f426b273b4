package shared

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"hash/fnv"
	"reflect"

	"github.com/EngoEngine/glm"
)

// CameraState is the pose a viewer publishes to its peers.
type CameraState struct {
	Id       uint32
	Position glm.Vec3
	Rotation glm.Quat
}

type Op interface {
	GetId() uint32
	GetOp() int
}

const (
	OpInstantiate = iota
	OpUpdate
	OpDeinstantiate
)

// instantiate
type Inst[T any] struct {
	Id uint32
	V  T
}

func (i Inst[T]) GetId() uint32 { return typeId[T]() }
func (i Inst[T]) GetOp() int    { return OpInstantiate }

// update
type Upd[T any] struct {
	Id uint32
	V  T
}

func (u Upd[T]) GetId() uint32 { return typeId[T]() }
func (u Upd[T]) GetOp() int    { return OpUpdate }

// deinstantiate
type Deinst[T any] struct {
	Id uint32
}

func (d Deinst[T]) GetId() uint32 { return typeId[T]() }
func (d Deinst[T]) GetOp() int    { return OpDeinstantiate }

var ErrShortFrame = errors.New("shared: frame shorter than its header")

// Submessage is the fixed header in front of every gob encoded batch.
type Submessage struct {
	T        uint32
	Op       uint32
	NumBytes uint32
}

var headerSize = binary.Size(Submessage{})

func Hash(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}

func typeId[T any]() uint32 {
	return Hash(reflect.TypeOf((*T)(nil)).Elem().String())
}

// EncodeSubmessage writes the header for T's op followed by the gob
// encoded batch. An empty batch has an empty body.
func EncodeSubmessage[T Op](v []T) ([]byte, error) {
	var body []byte
	if len(v) > 0 {
		b := bytes.Buffer{}
		if err := gob.NewEncoder(&b).Encode(v); err != nil {
			return nil, fmt.Errorf("shared: encode: %w", err)
		}
		body = b.Bytes()
	}
	var a T
	s := Submessage{a.GetId(), uint32(a.GetOp()), uint32(len(body))}
	out := bytes.NewBuffer(make([]byte, 0, headerSize+len(body)))
	binary.Write(out, binary.LittleEndian, s)
	out.Write(body)
	return out.Bytes(), nil
}

// PeekSubmessage reads the header at the start of b.
func PeekSubmessage(b []byte) (Submessage, error) {
	var s Submessage
	if len(b) < headerSize {
		return s, ErrShortFrame
	}
	if err := binary.Read(bytes.NewReader(b[:headerSize]), binary.LittleEndian, &s); err != nil {
		return s, err
	}
	if uint64(len(b)-headerSize) < uint64(s.NumBytes) {
		return s, fmt.Errorf("%w: body needs %d bytes, have %d", ErrShortFrame, s.NumBytes, len(b)-headerSize)
	}
	return s, nil
}

// DecodeSubmessage decodes one batch of T from the start of b and returns
// it with the number of bytes consumed.
func DecodeSubmessage[T Op](b []byte) ([]T, int, error) {
	s, err := PeekSubmessage(b)
	if err != nil {
		return nil, 0, err
	}
	var a T
	if s.T != a.GetId() || s.Op != uint32(a.GetOp()) {
		return nil, 0, fmt.Errorf("shared: frame holds type %d op %d, want type %d op %d", s.T, s.Op, a.GetId(), a.GetOp())
	}
	n := headerSize + int(s.NumBytes)
	if s.NumBytes == 0 {
		return []T{}, n, nil
	}
	var v []T
	if err := gob.NewDecoder(bytes.NewReader(b[headerSize:n])).Decode(&v); err != nil {
		return nil, 0, fmt.Errorf("shared: decode: %w", err)
	}
	return v, n, nil
}
