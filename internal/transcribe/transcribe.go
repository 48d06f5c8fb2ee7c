// Package transcribe turns an uploaded audio file into one best-transcript
// sentence via the Google Speech-to-Text API. Audio is first converted to
// the mono Opus format the API expects; every converted file is temporary
// and removed on all exit paths.
package transcribe

import (
	"context"
	"errors"
)

// ErrTranscription is the typed failure for the whole adapter: conversion
// failures, API timeouts and empty recognition results all wrap it.
var ErrTranscription = errors.New("transcription failed")

// Transcriber produces one sentence from an audio file.
type Transcriber interface {
	// Transcribe converts and recognizes the audio at path, returning the
	// single best transcript. Errors wrap ErrTranscription.
	Transcribe(ctx context.Context, path string) (string, error)
}
