// Package voice orchestrates the audio-to-bill flow: transcription, phrase
// extraction, validation, and the final bill insert. The chain is
// synchronous per request; each stage may block on external I/O.
package voice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mvmaia/contas/internal/extract"
	"github.com/mvmaia/contas/internal/models"
	"github.com/mvmaia/contas/internal/storage"
	"github.com/mvmaia/contas/internal/transcribe"
)

// ErrIncompleteExtraction means the sentence did not yield all the fields a
// bill needs. A partial extraction never inserts a row.
var ErrIncompleteExtraction = errors.New("could not extract all bill fields from audio")

// Pipeline wires the transcription adapter, the phrase extractor and the
// store together.
type Pipeline struct {
	transcriber transcribe.Transcriber
	extractor   *extract.Extractor
	store       storage.Store
}

// New creates a voice-bill pipeline.
func New(transcriber transcribe.Transcriber, extractor *extract.Extractor, store storage.Store) *Pipeline {
	return &Pipeline{
		transcriber: transcriber,
		extractor:   extractor,
		store:       store,
	}
}

// ProcessAudio runs the full chain for one uploaded audio file and returns
// the created bill. Transcription failures wrap transcribe.ErrTranscription;
// incomplete extraction wraps ErrIncompleteExtraction; an extracted category
// the user does not have surfaces as storage.ErrNotFound.
func (p *Pipeline) ProcessAudio(ctx context.Context, userID int64, audioPath string) (*models.Bill, error) {
	sentence, err := p.transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		return nil, err
	}

	result := p.extractor.Extract(sentence)
	slog.Info("voice phrase extracted",
		"user_id", userID,
		"sentence", result.Sentence,
		"category", result.Category,
		"has_amount", result.Amount != nil,
	)

	if err := validate(result); err != nil {
		return nil, err
	}

	bill := &models.Bill{
		UserID:          userID,
		Description:     result.Description,
		Amount:          *result.Amount,
		TransactionDate: result.Date,
	}
	if err := p.store.CreateBill(ctx, string(result.Category), bill); err != nil {
		return nil, fmt.Errorf("failed to create bill from audio: %w", err)
	}
	return bill, nil
}

// validate requires every bill field to be present. The extractor defaults
// description, date and category, so the amount is the usual gap, but all
// four are checked so placeholder financial data never reaches the store.
func validate(result extract.Result) error {
	switch {
	case result.Amount == nil:
		return fmt.Errorf("%w: no amount in %q", ErrIncompleteExtraction, result.Sentence)
	case result.Description == "":
		return fmt.Errorf("%w: no description in %q", ErrIncompleteExtraction, result.Sentence)
	case result.Category == "":
		return fmt.Errorf("%w: no category in %q", ErrIncompleteExtraction, result.Sentence)
	case result.Date.IsZero():
		return fmt.Errorf("%w: no date in %q", ErrIncompleteExtraction, result.Sentence)
	}
	return nil
}
