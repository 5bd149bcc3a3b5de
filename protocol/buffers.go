package protocol

// OutputBuffer receives encoded message bytes
type OutputBuffer interface {
	Output(data []byte)
}

// Buffer is a growable OutputBuffer
type Buffer struct {
	data []byte
}

// NewBuffer creates an empty Buffer
func NewBuffer() *Buffer {
	return &Buffer{}
}

func (b *Buffer) Output(data []byte) {
	b.data = append(b.data, data...)
}

// Bytes returns the accumulated output. The slice is only valid until the
// next Output or Reset.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Len returns the number of bytes written
func (b *Buffer) Len() int {
	return len(b.data)
}

// Reset clears the buffer, keeping its storage
func (b *Buffer) Reset() {
	b.data = b.data[:0]
}
