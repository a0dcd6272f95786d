package stt

import (
	"context"
	"fmt"
	"io"
	"sync"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/satriahrh/topicstream/domain"
	"github.com/satriahrh/topicstream/domain/entities"
	"github.com/satriahrh/topicstream/domain/repositories"
)

const defaultGoogleLanguage = "en-US"

// GoogleSpeechToText implements SpeechToText for Google Cloud
type GoogleSpeechToText struct {
	credentialsFile string
	logger          *zap.Logger
}

var _ repositories.SpeechToText = (*GoogleSpeechToText)(nil)

// NewGoogleSpeechToText creates a Google Cloud streaming client. With an empty
// credentialsFile, application default credentials are used.
func NewGoogleSpeechToText(credentialsFile string, logger *zap.Logger) *GoogleSpeechToText {
	return &GoogleSpeechToText{
		credentialsFile: credentialsFile,
		logger:          logger,
	}
}

func (g *GoogleSpeechToText) InitTranscribeStreaming(ctx context.Context, config repositories.AudioConfig) (repositories.SpeechToTextStreaming, error) {
	var opts []option.ClientOption
	if g.credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(g.credentialsFile))
	}

	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}

	stream, err := client.StreamingRecognize(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to create streaming recognize: %w", err)
	}

	encoding, err := getAudioEncoding(config.Encoding)
	if err != nil {
		stream.CloseSend()
		client.Close()
		return nil, err
	}

	language := config.Language
	if language == "" {
		language = defaultGoogleLanguage
	}

	recognitionConfig := &speechpb.RecognitionConfig{
		Encoding:                   encoding,
		SampleRateHertz:            int32(config.SampleRate),
		AudioChannelCount:          int32(config.Channels),
		LanguageCode:               language,
		EnableAutomaticPunctuation: true,
	}

	if err := stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: &speechpb.StreamingRecognitionConfig{
				Config:          recognitionConfig,
				InterimResults:  false,
				SingleUtterance: false,
			},
		},
	}); err != nil {
		stream.CloseSend()
		client.Close()
		return nil, fmt.Errorf("failed to send streaming config: %w", err)
	}

	g.logger.Info("Google streaming recognition started",
		zap.Int("sampleRate", config.SampleRate),
		zap.String("language", language))

	return newGoogleStream(client, stream, g.logger), nil
}

// GoogleSpeechToTextStream is a continuous recognition session
type GoogleSpeechToTextStream struct {
	client  io.Closer
	stream  speechpb.Speech_StreamingRecognizeClient
	logger  *zap.Logger
	results chan entities.Transcript
	done    chan struct{}

	sendMu sync.Mutex
	ended  bool

	mu  sync.Mutex
	err error
}

// newGoogleStream starts forwarding final results from an open recognize
// stream. client is closed once the stream has drained.
func newGoogleStream(client io.Closer, stream speechpb.Speech_StreamingRecognizeClient, logger *zap.Logger) *GoogleSpeechToTextStream {
	g := &GoogleSpeechToTextStream{
		client:  client,
		stream:  stream,
		logger:  logger,
		results: make(chan entities.Transcript, resultsBufferSize),
		done:    make(chan struct{}),
	}
	go g.receiveResults()
	return g
}

func (g *GoogleSpeechToTextStream) Stream(data []byte) error {
	if len(data) == 0 {
		return nil
	}

	g.sendMu.Lock()
	defer g.sendMu.Unlock()

	if g.ended {
		return domain.ErrStreamClosed
	}

	if err := g.stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_AudioContent{
			AudioContent: data,
		},
	}); err != nil {
		return fmt.Errorf("failed to send audio data: %w", err)
	}

	return nil
}

func (g *GoogleSpeechToTextStream) Results() <-chan entities.Transcript {
	return g.results
}

func (g *GoogleSpeechToTextStream) Err() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.err
}

// End closes the send side and waits for the remaining results
func (g *GoogleSpeechToTextStream) End() error {
	g.sendMu.Lock()
	alreadyEnded := g.ended
	g.ended = true
	g.sendMu.Unlock()

	if !alreadyEnded {
		if err := g.stream.CloseSend(); err != nil {
			g.logger.Debug("Failed to close send stream", zap.Error(err))
		}
	}

	<-g.done
	if !alreadyEnded {
		if err := g.client.Close(); err != nil {
			g.logger.Debug("Failed to close speech client", zap.Error(err))
		}
	}

	return g.Err()
}

func (g *GoogleSpeechToTextStream) receiveResults() {
	defer close(g.done)
	defer close(g.results)

	for {
		resp, err := g.stream.Recv()
		if err == io.EOF {
			return
		}
		if err != nil {
			g.mu.Lock()
			g.err = fmt.Errorf("failed to receive response: %w", err)
			g.mu.Unlock()
			return
		}

		for _, result := range resp.Results {
			if !result.IsFinal || len(result.Alternatives) == 0 {
				continue
			}
			alternative := result.Alternatives[0]
			if alternative.Transcript == "" {
				continue
			}
			g.results <- entities.Transcript{
				Text:       alternative.Transcript,
				IsFinal:    true,
				Confidence: float64(alternative.Confidence),
			}
		}
	}
}

// getAudioEncoding converts string encoding to Google Speech API enum
func getAudioEncoding(encoding string) (speechpb.RecognitionConfig_AudioEncoding, error) {
	switch encoding {
	case "", "WAV", "LINEAR16", "linear16":
		return speechpb.RecognitionConfig_LINEAR16, nil
	case "FLAC", "flac":
		return speechpb.RecognitionConfig_FLAC, nil
	case "MULAW", "mulaw":
		return speechpb.RecognitionConfig_MULAW, nil
	case "OGG_OPUS", "opus":
		return speechpb.RecognitionConfig_OGG_OPUS, nil
	case "WEBM_OPUS":
		return speechpb.RecognitionConfig_WEBM_OPUS, nil
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED, fmt.Errorf("unsupported audio encoding: %s", encoding)
	}
}
