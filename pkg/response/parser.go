// Package response interprets the raw text returned by the model.
package response

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Label is a dislalia category. The model's labels are passed through as
// returned; these are the values the prompt asks for.
type Label string

const (
	LabelOmission     Label = "omission"
	LabelSubstitution Label = "substitution"
	LabelAddition     Label = "addition"
)

// Record is the classification the model is asked to produce. Words and
// Labels are parallel by convention only; neither length nor label values
// are checked.
type Record struct {
	Input      string   `json:"input" yaml:"input"`
	Correction string   `json:"correction" yaml:"correction"`
	Words      []string `json:"words" yaml:"words"`
	Labels     []Label  `json:"labels" yaml:"labels"`
}

type Kind string

const (
	KindRecord    Kind = "record"
	KindNoFinding Kind = "no_finding"
	KindMalformed Kind = "malformed"
	KindEmpty     Kind = "empty"
)

const (
	MessageNoFinding = "Este conteúdo não possui ou não foi identificado traços de dislalia funcional"
	ErrorMalformed   = "A resposta do modelo não está em JSON válido."
	ErrorEmpty       = "A resposta do modelo está vazia."
)

// Outcome is the result of parsing one model response. Record is set only
// for KindRecord.
type Outcome struct {
	Kind   Kind
	Record *Record
}

// Payload is what the chat shows for the outcome: the record itself, a
// {"message": ...} object, or an {"error": ...} object.
func (o Outcome) Payload() any {
	switch o.Kind {
	case KindRecord:
		return o.Record
	case KindNoFinding:
		return map[string]string{"message": MessageNoFinding}
	case KindMalformed:
		return map[string]string{"error": ErrorMalformed}
	default:
		return map[string]string{"error": ErrorEmpty}
	}
}

var fenceRe = regexp.MustCompile("```(json)?")

// StripFences removes every ``` marker, with or without a json tag, and
// trims the surrounding whitespace.
func StripFences(raw string) string {
	return strings.TrimSpace(fenceRe.ReplaceAllString(raw, ""))
}

// Parse classifies raw model output. Blank output is reported as empty
// without attempting to decode it.
func Parse(raw string) Outcome {
	if strings.TrimSpace(raw) == "" {
		return Outcome{Kind: KindEmpty}
	}

	var record Record
	if err := json.Unmarshal([]byte(StripFences(raw)), &record); err != nil {
		return Outcome{Kind: KindMalformed}
	}

	if len(record.Words) == 0 {
		return Outcome{Kind: KindNoFinding}
	}

	return Outcome{Kind: KindRecord, Record: &record}
}
