package state

import "github.com/google/uuid"

// Packet is the unit of transport between routers. The variant set is
// closed: a value is either a VectorPacket or a DataPacket.
type Packet interface {
	Src() Node
	Dst() Node
	sealed()
}

// VectorPacket advertises the sender's entire distance vector to a direct
// neighbour. The vector is a snapshot owned by the packet; the sender's live
// table is never shared.
type VectorPacket struct {
	From, To Node
	Vector   Vector
}

func (p VectorPacket) Src() Node { return p.From }
func (p VectorPacket) Dst() Node { return p.To }
func (p VectorPacket) sealed()   {}

// DataPacket carries an application-layer message.
type DataPacket struct {
	Id       uuid.UUID
	From, To Node
	Payload  string
}

func (p DataPacket) Src() Node { return p.From }
func (p DataPacket) Dst() Node { return p.To }
func (p DataPacket) sealed()   {}

func NewDataPacket(from, to Node, payload string) DataPacket {
	return DataPacket{
		Id:      uuid.New(),
		From:    from,
		To:      to,
		Payload: payload,
	}
}
