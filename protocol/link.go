package protocol

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

// Link is one end of a framed serial connection. Sends are fire-and-forget;
// there is no ACK round trip on the lift link since every tick rewrites the
// full state. Received frames are decoded by a background reader and
// dispatched to the handler.
type Link struct {
	port io.ReadWriteCloser

	// Sequence for outgoing frames (0x10-0x1F)
	currentSeq atomic.Uint32

	decoder *Decoder
	handler Handler

	writeMu sync.Mutex
	readMu  sync.Mutex

	errMu   sync.Mutex
	lastErr error

	stopChan chan struct{}
	doneChan chan struct{}
	stopOnce sync.Once
}

// NewLink starts a link over port. handler may be nil for send-only links.
func NewLink(port io.ReadWriteCloser, handler Handler) *Link {
	l := &Link{
		port:     port,
		decoder:  NewDecoder(),
		handler:  handler,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
	l.currentSeq.Store(MessageDest)

	go l.readLoop()

	return l
}

// Send frames body with the next sequence number and writes it
func (l *Link) Send(body func(output OutputBuffer)) error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	seq := uint8(l.currentSeq.Load())
	frame, err := EncodeFrame(seq, body)
	if err != nil {
		return fmt.Errorf("failed to build frame: %w", err)
	}

	n, err := l.port.Write(frame)
	if err != nil {
		l.setErr(err)
		return err
	}
	if n != len(frame) {
		err := fmt.Errorf("incomplete write: %d/%d bytes", n, len(frame))
		l.setErr(err)
		return err
	}

	l.currentSeq.Store(uint32(NextSequence(seq)))
	return nil
}

// Err returns the most recent read or write error, if any
func (l *Link) Err() error {
	l.errMu.Lock()
	defer l.errMu.Unlock()
	return l.lastErr
}

// Dropped returns how many corrupt frames the reader discarded
func (l *Link) Dropped() int {
	l.readMu.Lock()
	defer l.readMu.Unlock()
	return l.decoder.Dropped()
}

func (l *Link) setErr(err error) {
	l.errMu.Lock()
	l.lastErr = err
	l.errMu.Unlock()
}

// readLoop continuously reads from the port and dispatches frames
func (l *Link) readLoop() {
	defer close(l.doneChan)

	buffer := make([]byte, 256)

	for {
		select {
		case <-l.stopChan:
			return
		default:
		}

		n, err := l.port.Read(buffer)
		if n > 0 {
			l.feed(buffer[:n])
		}
		if err != nil {
			// A serial read timeout comes back as (0, io.EOF); the stop
			// check at the top of the loop ends it on Close
			if errors.Is(err, io.EOF) {
				time.Sleep(time.Millisecond)
				continue
			}
			select {
			case <-l.stopChan:
				return
			default:
			}
			l.setErr(err)
			time.Sleep(10 * time.Millisecond)
		}
	}
}

func (l *Link) feed(p []byte) {
	l.readMu.Lock()
	defer l.readMu.Unlock()
	l.decoder.Feed(p, l.dispatch)
}

// dispatch hands every message of a frame to the handler
func (l *Link) dispatch(msg *Message) {
	if l.handler == nil {
		return
	}
	if err := ParseMessages(msg.Payload, l.handler); err != nil {
		l.setErr(err)
	}
}

// Close stops the reader and closes the port
func (l *Link) Close() error {
	var err error
	l.stopOnce.Do(func() {
		close(l.stopChan)
		err = l.port.Close()
		<-l.doneChan
	})
	return err
}
