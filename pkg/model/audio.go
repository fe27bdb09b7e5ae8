package model

import "context"

type AudioKeyword struct {
	Word           string   `json:"word,omitempty"`
	CommonMistypes []string `json:"common_mistypes,omitempty"`
	Definition     string   `json:"definition,omitempty"`
}

// AudioInput is a recorded clip held in memory, as received from an upload.
type AudioInput struct {
	Data     []byte
	FileName string
	// MIMEType is the container hint passed to the provider, e.g. "audio/webm".
	MIMEType string
	// Language is the provider language code, already remapped for the provider.
	Language string
}

type AudioTranscriber interface {
	Transcribe(ctx context.Context, input AudioInput) (string, GenerationMetadata, error)
}

type AudioOptions struct {
	URL       string
	AuthToken string
	Model     string
	// Prompt optionally overrides the provider's default audio prompt behavior.
	// When Prompt is set, keyword hints are not appended.
	Prompt string
	// Keywords provides domain terms that may be missed in transcription.
	// Providers convert this into: "Common missed words: <json>" when Prompt is empty.
	Keywords []AudioKeyword
}
