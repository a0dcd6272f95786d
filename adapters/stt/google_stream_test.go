package stt

import (
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/satriahrh/topicstream/domain"
	"github.com/satriahrh/topicstream/domain/entities"
)

// fakeRecognizeClient replays scripted responses and records the audio it is
// sent. Recv returns io.EOF once the responses are drained and CloseSend was
// called, or recvErr when set.
type fakeRecognizeClient struct {
	speechpb.Speech_StreamingRecognizeClient

	responses chan *speechpb.StreamingRecognizeResponse
	closed    chan struct{}
	recvErr   error
	closeOnce sync.Once

	mu   sync.Mutex
	sent [][]byte
}

func newFakeRecognizeClient(responses ...*speechpb.StreamingRecognizeResponse) *fakeRecognizeClient {
	f := &fakeRecognizeClient{
		responses: make(chan *speechpb.StreamingRecognizeResponse, len(responses)),
		closed:    make(chan struct{}),
	}
	for _, resp := range responses {
		f.responses <- resp
	}
	return f
}

func (f *fakeRecognizeClient) Send(req *speechpb.StreamingRecognizeRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, req.GetAudioContent())
	return nil
}

func (f *fakeRecognizeClient) Recv() (*speechpb.StreamingRecognizeResponse, error) {
	select {
	case resp := <-f.responses:
		return resp, nil
	default:
	}
	if f.recvErr != nil {
		return nil, f.recvErr
	}
	select {
	case resp := <-f.responses:
		return resp, nil
	case <-f.closed:
		return nil, io.EOF
	}
}

func (f *fakeRecognizeClient) CloseSend() error {
	f.closeOnce.Do(func() { close(f.closed) })
	return nil
}

type closeCounter struct {
	mu    sync.Mutex
	count int
}

func (c *closeCounter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count++
	return nil
}

func recognition(transcript string, isFinal bool, confidence float32) *speechpb.StreamingRecognizeResponse {
	return &speechpb.StreamingRecognizeResponse{
		Results: []*speechpb.StreamingRecognitionResult{{
			IsFinal: isFinal,
			Alternatives: []*speechpb.SpeechRecognitionAlternative{
				{Transcript: transcript, Confidence: confidence},
			},
		}},
	}
}

func TestGoogleStreamForwardsFinalResults(t *testing.T) {
	client := newFakeRecognizeClient(
		recognition("space", false, 0.4),
		recognition("space travel is back", true, 0.9),
		recognition("", true, 0.1),
		&speechpb.StreamingRecognizeResponse{Results: []*speechpb.StreamingRecognitionResult{{IsFinal: true}}},
		recognition("mars next", true, 0.8),
	)
	closer := &closeCounter{}
	stream := newGoogleStream(closer, client, zaptest.NewLogger(t))

	require.NoError(t, stream.Stream([]byte{1, 2}))
	require.NoError(t, stream.Stream(nil))
	require.NoError(t, stream.Stream([]byte{3}))

	var got []entities.Transcript
	for i := 0; i < 2; i++ {
		select {
		case transcript := <-stream.Results():
			got = append(got, transcript)
		case <-time.After(time.Second):
			t.Fatalf("Timed out waiting for transcript %d", i)
		}
	}

	require.NoError(t, stream.End())

	assert.Equal(t, []entities.Transcript{
		{Text: "space travel is back", IsFinal: true, Confidence: float64(float32(0.9))},
		{Text: "mars next", IsFinal: true, Confidence: float64(float32(0.8))},
	}, got)
	assert.Equal(t, [][]byte{{1, 2}, {3}}, client.sent)
	assert.Equal(t, 1, closer.count)

	_, open := <-stream.Results()
	assert.False(t, open, "results channel should be closed after End")
	assert.ErrorIs(t, stream.Stream([]byte{4}), domain.ErrStreamClosed)
}

func TestGoogleStreamEndIsIdempotent(t *testing.T) {
	client := newFakeRecognizeClient()
	closer := &closeCounter{}
	stream := newGoogleStream(closer, client, zaptest.NewLogger(t))

	require.NoError(t, stream.End())
	require.NoError(t, stream.End())
	assert.Equal(t, 1, closer.count)
}

func TestGoogleStreamReceiveError(t *testing.T) {
	client := newFakeRecognizeClient(recognition("hello", true, 1))
	client.recvErr = errors.New("rpc error: code = Unavailable")
	stream := newGoogleStream(&closeCounter{}, client, zaptest.NewLogger(t))

	var texts []string
	for transcript := range stream.Results() {
		texts = append(texts, transcript.Text)
	}

	assert.Equal(t, []string{"hello"}, texts)
	require.Error(t, stream.Err())
	assert.Contains(t, stream.Err().Error(), "Unavailable")

	err := stream.End()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to receive response")
}
