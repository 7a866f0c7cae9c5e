package output

import (
	"bufio"
	"io"

	"papertrail_cli/internal/models"

	jsoniter "github.com/json-iterator/go"
)

// json keeps numbers verbatim so large IDs survive a round trip.
var json = jsoniter.Config{
	EscapeHTML:             false,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()

// JSONWriter prints every page as a single-line JSON document.
type JSONWriter struct {
	w *bufio.Writer
}

func NewJSONWriter(w io.Writer) *JSONWriter {
	return &JSONWriter{w: bufio.NewWriter(w)}
}

// pageDocument is used when the page carries no raw response body.
type pageDocument struct {
	Events           []models.Event `json:"events"`
	MinID            string         `json:"min_id,omitempty"`
	MaxID            string         `json:"max_id,omitempty"`
	ReachedBeginning bool           `json:"reached_beginning"`
	ReachedTimeLimit bool           `json:"reached_time_limit"`
}

// Emit writes the page's response document on one line and flushes.
func (j *JSONWriter) Emit(page models.Page) error {
	doc, err := encodePage(page)
	if err != nil {
		return err
	}
	if _, err := j.w.Write(doc); err != nil {
		return err
	}
	if err := j.w.WriteByte('\n'); err != nil {
		return err
	}
	return j.w.Flush()
}

func encodePage(page models.Page) ([]byte, error) {
	if len(page.Raw) > 0 {
		var v any
		if err := json.Unmarshal(page.Raw, &v); err != nil {
			return nil, err
		}
		return json.Marshal(v)
	}
	events := page.Events
	if events == nil {
		events = []models.Event{}
	}
	return json.Marshal(pageDocument{
		Events:           events,
		MinID:            page.MinID,
		MaxID:            page.MaxID,
		ReachedBeginning: page.ReachedBeginning,
		ReachedTimeLimit: page.ReachedTimeLimit,
	})
}
