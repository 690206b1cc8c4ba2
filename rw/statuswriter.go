package rw

import (
	"bufio"
	"errors"
	"net"
	"net/http"
)

// StatusWriter records the status code and body size of a response
type StatusWriter struct {
	http.ResponseWriter
	cw     *CountWriter
	status int
}

func NewStatusWriter(w http.ResponseWriter) *StatusWriter {
	return &StatusWriter{ResponseWriter: w, cw: NewCountWriter(w)}
}

func (sw *StatusWriter) WriteHeader(code int) {
	if sw.status == 0 {
		sw.status = code
	}
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *StatusWriter) Write(p []byte) (int, error) {
	if sw.status == 0 {
		sw.status = http.StatusOK
	}
	return sw.cw.Write(p)
}

// Status is 200 for a handler that wrote nothing
func (sw *StatusWriter) Status() int {
	if sw.status == 0 {
		return http.StatusOK
	}
	return sw.status
}

func (sw *StatusWriter) BytesWritten() int64 { return sw.cw.BytesWritten() }

func (sw *StatusWriter) Flush() {
	if f, ok := sw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack keeps websocket upgrades working behind the writer
func (sw *StatusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := sw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	sw.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (sw *StatusWriter) Unwrap() http.ResponseWriter { return sw.ResponseWriter }
