package delivery

import "errors"

var (
	ErrEncodeBody     = errors.New("delivery: failed to encode response body")
	ErrEncodeEvent    = errors.New("delivery: failed to encode event")
	ErrWriteHeader    = errors.New("delivery: failed to write status and headers")
	ErrWriteBody      = errors.New("delivery: failed to write body")
	ErrWriteMessage   = errors.New("delivery: failed to write message")
	ErrTransportPanic = errors.New("delivery: transport panicked")
	ErrAggregateFault = errors.New("delivery: broadcast aggregation fault")
)
