package transcribe

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	speech "google.golang.org/api/speech/v1"
	"google.golang.org/api/option"
)

const (
	// sampleRate is the rate the audio is resampled to before recognition.
	sampleRate = 48000
	// pollInterval is how often a pending recognition operation is checked.
	pollInterval = 2 * time.Second
)

// GoogleTranscriber implements Transcriber against the Google Speech-to-Text
// long-running recognition API.
type GoogleTranscriber struct {
	svc        *speech.Service
	ffmpegPath string
	language   string
	timeout    time.Duration
}

// Ensure GoogleTranscriber implements Transcriber
var _ Transcriber = (*GoogleTranscriber)(nil)

// NewGoogle creates a transcriber using application-default credentials, or
// the credentials file when set. timeout bounds the whole recognition call.
func NewGoogle(ctx context.Context, credentialsFile, ffmpegPath string, timeout time.Duration) (*GoogleTranscriber, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	svc, err := speech.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}
	return &GoogleTranscriber{
		svc:        svc,
		ffmpegPath: ffmpegPath,
		language:   "pt-BR",
		timeout:    timeout,
	}, nil
}

// Transcribe converts the audio and runs long-running recognition, returning
// the best transcript of the first result. The converted temp file is
// removed on every exit path.
func (g *GoogleTranscriber) Transcribe(ctx context.Context, path string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	converted, err := convertAudio(ctx, g.ffmpegPath, path, sampleRate)
	if err != nil {
		return "", err
	}
	defer os.Remove(converted)

	content, err := os.ReadFile(converted)
	if err != nil {
		return "", fmt.Errorf("%w: cannot read converted audio: %v", ErrTranscription, err)
	}

	req := &speech.LongRunningRecognizeRequest{
		Config: &speech.RecognitionConfig{
			Encoding:          "OGG_OPUS",
			SampleRateHertz:   sampleRate,
			AudioChannelCount: 1,
			LanguageCode:      g.language,
			Model:             "latest_short",
		},
		Audio: &speech.RecognitionAudio{
			Content: base64.StdEncoding.EncodeToString(content),
		},
	}

	op, err := g.svc.Speech.Longrunningrecognize(req).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("%w: recognize call failed: %v", ErrTranscription, err)
	}

	for !op.Done {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("%w: recognition timed out: %v", ErrTranscription, ctx.Err())
		case <-time.After(pollInterval):
		}
		op, err = g.svc.Operations.Get(op.Name).Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("%w: operation poll failed: %v", ErrTranscription, err)
		}
	}

	if op.Error != nil {
		return "", fmt.Errorf("%w: recognition error: %s", ErrTranscription, op.Error.Message)
	}

	var resp speech.LongRunningRecognizeResponse
	if err := json.Unmarshal(op.Response, &resp); err != nil {
		return "", fmt.Errorf("%w: cannot decode recognition response: %v", ErrTranscription, err)
	}

	sentence, err := bestTranscript(&resp)
	if err != nil {
		return "", err
	}
	slog.Debug("audio transcribed", "path", path, "sentence", sentence)
	return sentence, nil
}

// bestTranscript selects results[0].alternatives[0] as the canonical
// sentence. Later or lower-confidence alternatives are discarded.
func bestTranscript(resp *speech.LongRunningRecognizeResponse) (string, error) {
	if resp == nil || len(resp.Results) == 0 {
		return "", fmt.Errorf("%w: no recognition results", ErrTranscription)
	}
	alternatives := resp.Results[0].Alternatives
	if len(alternatives) == 0 || alternatives[0].Transcript == "" {
		return "", fmt.Errorf("%w: empty transcript", ErrTranscription)
	}
	return alternatives[0].Transcript, nil
}
