// Package msgs defines the wire envelope for bridged link traffic.
package msgs

import (
	"github.com/golang/protobuf/proto"

	"github.com/twinsoc/fifolink/pkg/fifo"
)

// WordEvent is one link message observed on, or injected through, the
// bridge. Value carries the immediate, address or command code; Data carries
// data message payloads.
type WordEvent struct {
	Origin  string `protobuf:"bytes,1,opt,name=origin,proto3" json:"origin,omitempty"`
	Kind    uint32 `protobuf:"varint,2,opt,name=kind,proto3" json:"kind,omitempty"`
	Channel uint32 `protobuf:"varint,3,opt,name=channel,proto3" json:"channel,omitempty"`
	Value   uint32 `protobuf:"varint,4,opt,name=value,proto3" json:"value,omitempty"`
	Data    []byte `protobuf:"bytes,5,opt,name=data,proto3" json:"data,omitempty"`
}

// Reset implements proto.Message.
func (m *WordEvent) Reset() { *m = WordEvent{} }

// String implements proto.Message.
func (m *WordEvent) String() string { return proto.CompactTextString(m) }

// ProtoMessage implements proto.Message.
func (*WordEvent) ProtoMessage() {}

// FromInbound builds a WordEvent from a reassembled link message.
func FromInbound(origin string, in fifo.Inbound) *WordEvent {
	return &WordEvent{
		Origin:  origin,
		Kind:    uint32(in.Kind),
		Channel: uint32(in.Channel),
		Value:   in.Value,
		Data:    in.Data,
	}
}

// Encode marshals the event.
func (m *WordEvent) Encode() ([]byte, error) {
	return proto.Marshal(m)
}

// Decode unmarshals an event.
func Decode(payload []byte) (*WordEvent, error) {
	ev := &WordEvent{}
	if err := proto.Unmarshal(payload, ev); err != nil {
		return nil, err
	}
	return ev, nil
}
