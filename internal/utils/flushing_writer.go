package utils

import (
	"io"
	"sync"
)

type flusher interface {
	Flush() error
}

// FlushingWriter serializes writes and flushes buffered destinations after each one,
// so a report is fully emitted before the process exits.
type FlushingWriter struct {
	mutex       sync.Mutex
	destination io.Writer
}

// NewFlushingWriter wraps destination. Nil destinations and existing FlushingWriters are returned unchanged.
func NewFlushingWriter(destination io.Writer) io.Writer {
	switch destination.(type) {
	case nil, *FlushingWriter:
		return destination
	}
	return &FlushingWriter{destination: destination}
}

// Write forwards data and flushes the destination when it supports Flush.
func (flushingWriter *FlushingWriter) Write(data []byte) (int, error) {
	if flushingWriter == nil || flushingWriter.destination == nil {
		return 0, nil
	}

	flushingWriter.mutex.Lock()
	defer flushingWriter.mutex.Unlock()

	bytesWritten, writeError := flushingWriter.destination.Write(data)
	if writeError != nil {
		return bytesWritten, writeError
	}

	if bufferedDestination, buffered := flushingWriter.destination.(flusher); buffered {
		return bytesWritten, bufferedDestination.Flush()
	}
	return bytesWritten, nil
}
