package delivery

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"net/http"
	"slices"
	"strconv"
	"strings"
)

// Header names emitted by Normalize.
const (
	HeaderContentType         = "content-type"
	HeaderContentLength       = "content-length"
	HeaderContentTypeOptions  = "x-content-type-options"
	DefaultContentType        = "application/json"
	DefaultContentTypeOptions = "nosniff"
)

// Response describes what an effect wants written back to the client.
//
// Body may be nil, a string, a []byte, a json.RawMessage, an io.Reader
// (streamed), or any value encodable as JSON.
type Response struct {
	Status  int
	Headers map[string]string
	Body    any
}

// Normalized is the wire-ready form of a Response.
type Normalized struct {
	Status int
	// Header keys are lower-case.
	Header map[string]string
	// Body is nil when the response carries no payload or is streamed.
	Body []byte
	// Stream is set when the body must be piped rather than buffered.
	Stream io.Reader
}

// IsStream reports whether the body is piped.
func (n Normalized) IsStream() bool {
	return n.Stream != nil
}

// DefaultHeaders returns the base header set applied to every response.
func DefaultHeaders() map[string]string {
	return map[string]string{
		HeaderContentType:        DefaultContentType,
		HeaderContentTypeOptions: DefaultContentTypeOptions,
	}
}

// Normalize computes the final status, headers and serialized body.
// Caller headers override the defaults case-insensitively; among caller
// keys that differ only in case, the one sorting last wins. A computed
// content-length always wins over a caller-supplied one. Streamed bodies
// get no content-length.
func Normalize(resp Response) (Normalized, error) {
	n := Normalized{
		Status: resp.Status,
		Header: DefaultHeaders(),
	}
	if n.Status == 0 {
		n.Status = http.StatusOK
	}

	// Keys differing only in case are merged in byte order, so the
	// lower-case spelling wins deterministically.
	for _, k := range slices.Sorted(maps.Keys(resp.Headers)) {
		n.Header[strings.ToLower(k)] = resp.Headers[k]
	}

	switch body := resp.Body.(type) {
	case nil:
		n.Header[HeaderContentLength] = "0"
	case io.Reader:
		n.Stream = body
	default:
		payload, err := serialize(body)
		if err != nil {
			return Normalized{}, err
		}
		n.Body = payload
		n.Header[HeaderContentLength] = strconv.Itoa(len(payload))
	}

	return n, nil
}

// serialize passes text through and encodes everything else as canonical JSON.
func serialize(body any) ([]byte, error) {
	switch v := body.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	case json.RawMessage:
		return v, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(body); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncodeBody, err)
	}
	// Encoder terminates every value with a newline.
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
