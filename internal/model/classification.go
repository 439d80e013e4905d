package model

import (
	"errors"

	"github.com/google/uuid"
)

// Classification is the structured guess produced by the image classifier.
// Confidence is normalized to the 0..1 range.
type Classification struct {
	Category    string  `json:"category"`
	Species     string  `json:"species,omitempty"`
	Confidence  float64 `json:"confidence"`
	Description string  `json:"description"`
	IsNature    bool    `json:"isNature"`
}

var ErrMalformedClassification = errors.New("malformed classification payload")

func (c Classification) Validate() error {
	if c.Category == "" {
		return ErrMalformedClassification
	}
	if c.Confidence < 0 || c.Confidence > 1 {
		return ErrMalformedClassification
	}
	return nil
}

// ValidationResult is the transient outcome of a validator run. It is never
// persisted; the explanation may be logged.
type ValidationResult struct {
	IsCompleted bool
	QuestID     uuid.UUID
	Confidence  float64
	Explanation string
}
