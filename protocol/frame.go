package protocol

import "fmt"

// Handler receives one decoded message. data holds the arguments after the
// message id; the handler must consume exactly its own arguments.
type Handler func(msgID uint16, data *[]byte) error

// EncodeFrame builds a complete frame: header, body, CRC and sync byte
func EncodeFrame(seq uint8, body func(output OutputBuffer)) ([]byte, error) {
	b := &Buffer{data: make([]byte, MessageHeaderSize, MessageLengthMax)}
	b.data[MessagePositionSeq] = seq
	body(b)

	msgLen := b.Len() + MessageTrailerSize
	if msgLen > MessageLengthMax {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrMessageTooLong, msgLen, MessageLengthMax)
	}
	b.data[MessagePositionLen] = uint8(msgLen)

	return appendCRC(b.data), nil
}

// ParseMessages walks every message packed into a frame payload
func ParseMessages(payload []byte, handler Handler) error {
	for len(payload) > 0 {
		msgID, err := DecodeVLQUint(&payload)
		if err != nil {
			return err
		}
		if err := handler(uint16(msgID), &payload); err != nil {
			return err
		}
	}
	return nil
}

// Decoder reassembles frames from a serial byte stream. Corrupt frames are
// dropped and the decoder resynchronizes on the next sync byte.
type Decoder struct {
	rx           []byte // Received bytes not yet part of a frame
	synchronized bool
	dropped      int
}

// NewDecoder creates a synchronized decoder
func NewDecoder() *Decoder {
	return &Decoder{
		rx:           make([]byte, 0, MessageMax),
		synchronized: true,
	}
}

// Dropped returns how many times the decoder lost synchronization
func (d *Decoder) Dropped() int {
	return d.dropped
}

// Feed adds received bytes and calls fn for each complete frame
func (d *Decoder) Feed(p []byte, fn func(*Message)) {
	d.rx = append(d.rx, p...)
	// At most one partial frame is left over
	rest := d.process(d.rx, fn)
	d.rx = append(d.rx[:0], rest...)
}

func (d *Decoder) desync() {
	d.synchronized = false
	d.dropped++
}

// process parses complete frames out of data and returns the unparsed
// remainder
func (d *Decoder) process(data []byte, fn func(*Message)) []byte {
	for len(data) > 0 {
		if !d.synchronized {
			syncPos := -1
			for i, b := range data {
				if b == MessageValueSync {
					syncPos = i
					break
				}
			}
			if syncPos < 0 {
				return nil
			}
			data = data[syncPos+1:]
			d.synchronized = true
			continue
		}

		// Skip leading sync bytes
		if data[0] == MessageValueSync {
			data = data[1:]
			continue
		}

		if len(data) < MessageLengthMin {
			break
		}

		msgLen := int(data[MessagePositionLen])
		if msgLen < MessageLengthMin || msgLen > MessageLengthMax {
			d.desync()
			continue
		}

		seq := data[MessagePositionSeq]
		if seq&^MessageSeqMask != MessageDest {
			d.desync()
			continue
		}

		// Wait for full message
		if len(data) < msgLen {
			break
		}

		if data[msgLen-MessageTrailerSync] != MessageValueSync {
			d.desync()
			continue
		}

		frameCRC := uint16(data[msgLen-MessageTrailerCRC])<<8 |
			uint16(data[msgLen-MessageTrailerCRC+1])
		if frameCRC != CRC16(data[:msgLen-MessageTrailerSize]) {
			d.desync()
			continue
		}

		payload := make([]byte, msgLen-MessageHeaderSize-MessageTrailerSize)
		copy(payload, data[MessageHeaderSize:msgLen-MessageTrailerSize])
		msg := &Message{
			Length:   uint8(msgLen),
			Sequence: seq,
			Payload:  payload,
			CRC:      frameCRC,
		}
		data = data[msgLen:]
		fn(msg)
	}
	return data
}
