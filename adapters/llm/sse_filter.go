package llm

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

var (
	sseDataPrefix = []byte("data:")
	sseDone       = []byte("[DONE]")
)

// sseFilterTransport drops server-sent event data lines that are not valid
// JSON so a single corrupt chunk does not abort a streamed completion
type sseFilterTransport struct {
	base   http.RoundTripper
	logger *zap.Logger
}

func newSSEFilterClient(logger *zap.Logger) *http.Client {
	return &http.Client{Transport: &sseFilterTransport{base: http.DefaultTransport, logger: logger}}
}

func (t *sseFilterTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil || resp.StatusCode != http.StatusOK || !isEventStream(req, resp) {
		return resp, err
	}

	resp.Body = &sseFilterBody{
		reader: bufio.NewReader(resp.Body),
		closer: resp.Body,
		logger: t.logger,
	}
	return resp, nil
}

func isEventStream(req *http.Request, resp *http.Response) bool {
	return strings.HasPrefix(resp.Header.Get("Content-Type"), "text/event-stream") ||
		req.Header.Get("Accept") == "text/event-stream"
}

type sseFilterBody struct {
	reader  *bufio.Reader
	closer  io.Closer
	logger  *zap.Logger
	pending []byte
	err     error
}

func (b *sseFilterBody) Read(p []byte) (int, error) {
	for len(b.pending) == 0 {
		if b.err != nil {
			return 0, b.err
		}

		line, err := b.reader.ReadBytes('\n')
		b.err = err
		if len(line) > 0 && b.keep(line) {
			b.pending = line
		}
	}

	n := copy(p, b.pending)
	b.pending = b.pending[n:]
	return n, nil
}

func (b *sseFilterBody) keep(line []byte) bool {
	trimmed := bytes.TrimSpace(line)
	if !bytes.HasPrefix(trimmed, sseDataPrefix) {
		return true
	}

	payload := bytes.TrimSpace(trimmed[len(sseDataPrefix):])
	if bytes.Equal(payload, sseDone) || json.Valid(payload) {
		return true
	}

	b.logger.Warn("Skipping malformed stream chunk", zap.ByteString("chunk", payload))
	return false
}

func (b *sseFilterBody) Close() error {
	return b.closer.Close()
}
