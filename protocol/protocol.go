// Package protocol implements the framed serial protocol between the lift
// host, the operator pendants and the motor controller board.
//
// Frames follow the Klipper block layout: a length byte, a sequence byte,
// a payload of VLQ-encoded messages, a CRC16 and a trailing sync byte.
package protocol

import "errors"

// Frame layout
const (
	MessageMax         = 512 // Initial receive buffer size
	MessageHeaderSize  = 2
	MessageTrailerSize = 3
	MessageLengthMin   = MessageHeaderSize + MessageTrailerSize
	MessageLengthMax   = 64
	MessagePositionLen = 0
	MessagePositionSeq = 1
	MessageTrailerCRC  = 3
	MessageTrailerSync = 1
	MessageValueSync   = 0x7E
	MessageDest        = 0x10

	// Message sequence mask
	MessageSeqMask = 0x0F
)

// Message ids carried in frame payloads
const (
	MsgMotorSet     uint16 = 1 // motor_set value=%i
	MsgPendantState uint16 = 2 // pendant_state buttons=%u axes=%*s
	MsgLimitState   uint16 = 3 // limit_state value=%c
)

var (
	ErrMessageTooLong = errors.New("message too long")
	ErrUnknownMessage = errors.New("unknown message id")
)

// Message represents one decoded frame
type Message struct {
	Length   uint8
	Sequence uint8
	Payload  []byte // Frame data without header/trailer
	CRC      uint16
}

// NextSequence advances a sequence byte, wrapping within 0x10-0x1F
func NextSequence(seq uint8) uint8 {
	return ((seq + 1) & MessageSeqMask) | MessageDest
}
