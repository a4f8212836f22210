package audio

import "bytes"

// PushStream is an in-memory audio input the caller writes into and then
// closes for writing. A nil format means no explicit format hint.
type PushStream struct {
	format *StreamFormat
	buf    bytes.Buffer
	closed bool
}

// NewPushStream creates a push stream, optionally pre-configured with a PCM format hint.
func NewPushStream(format *StreamFormat) *PushStream {
	return &PushStream{format: format}
}

// Write appends audio bytes to the stream.
func (p *PushStream) Write(data []byte) error {
	if p.closed {
		return ErrStreamClosed
	}
	if len(data) == 0 {
		return ErrEmptyBuffer
	}
	_, err := p.buf.Write(data)
	return err
}

// Close closes the stream for writing. Further writes fail.
func (p *PushStream) Close() {
	p.closed = true
}

// Closed reports whether the stream was closed for writing.
func (p *PushStream) Closed() bool {
	return p.closed
}

// Format returns the format hint, or nil when the stream was created without one.
func (p *PushStream) Format() *StreamFormat {
	return p.format
}

// Bytes returns everything written so far.
func (p *PushStream) Bytes() []byte {
	return p.buf.Bytes()
}

// Len returns the number of bytes written.
func (p *PushStream) Len() int {
	return p.buf.Len()
}
