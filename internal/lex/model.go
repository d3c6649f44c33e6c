package lex

import (
	"bytes"
	"encoding/json"
)

const (
	SchemaVersion = "1.0"
	ImportType    = "LEX"
	ImportFormat  = "JSON"

	ContentTypePlainText = "PlainText"
	FulfillmentReturn    = "ReturnIntent"
)

type Metadata struct {
	SchemaVersion string `json:"schemaVersion"`
	ImportType    string `json:"importType"`
	ImportFormat  string `json:"importFormat"`
}

type FulfillmentActivity struct {
	Type string `json:"type"`
}

type Resource struct {
	Name                string              `json:"name"`
	Version             int                 `json:"version"`
	FulfillmentActivity FulfillmentActivity `json:"fulfillmentActivity"`
}

type Message struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

type ConclusionStatement struct {
	Messages []Message `json:"messages"`
}

// Intent is one Lex import document. Field order is the JSON key order
// expected by the importer and must not change.
type Intent struct {
	Metadata            Metadata            `json:"metadata"`
	Resource            Resource            `json:"resource"`
	SampleUtterances    []string            `json:"sampleUtterances"`
	Slots               []json.RawMessage   `json:"slots"`
	ConclusionStatement ConclusionStatement `json:"conclusionStatement"`
	SlotTypes           []json.RawMessage   `json:"slotTypes"`
}

// NewIntent returns an intent named name with no utterances or messages.
// All list fields are non-nil so they serialize as [] rather than null.
func NewIntent(name string) *Intent {
	return &Intent{
		Metadata: Metadata{
			SchemaVersion: SchemaVersion,
			ImportType:    ImportType,
			ImportFormat:  ImportFormat,
		},
		Resource: Resource{
			Name:                name,
			Version:             1,
			FulfillmentActivity: FulfillmentActivity{Type: FulfillmentReturn},
		},
		SampleUtterances:    []string{},
		Slots:               []json.RawMessage{},
		ConclusionStatement: ConclusionStatement{Messages: []Message{}},
		SlotTypes:           []json.RawMessage{},
	}
}

func (i *Intent) AddUtterance(text string) {
	i.SampleUtterances = append(i.SampleUtterances, text)
}

func (i *Intent) AddResponse(text string) {
	i.ConclusionStatement.Messages = append(i.ConclusionStatement.Messages, Message{
		ContentType: ContentTypePlainText,
		Content:     text,
	})
}

// FileName is the archive entry name for the intent.
func (i *Intent) FileName() string {
	return i.Resource.Name + ".json"
}

// Marshal encodes the intent with 4-space indentation, raw UTF-8 and no
// trailing newline. Output is deterministic for equal intents.
func Marshal(i *Intent) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(i); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
