package cms

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"recipesuggest/pkg/suggest"
)

// Entry is a normalized CMS collection entry. The backend returns
// either a flat shape ({id, title, slug, ...}) or the older nested one
// ({id, attributes: {...}}) depending on schema version; decoding maps
// both onto this struct.
type Entry struct {
	ID         string
	DocumentID string
	Title      string
	Slug       string
	Views      int
	Rating     int
}

// Item converts an entry to a suggestion item.
func (e Entry) Item() suggest.Item {
	return suggest.Item{ID: e.ID, Title: e.Title, Slug: e.Slug}
}

// envelope is the common `{ "data": [...] }` listing wrapper.
type envelope struct {
	Data []json.RawMessage `json:"data"`
}

// entryFields carries the payload fields shared by both shapes.
type entryFields struct {
	DocumentID string  `json:"documentId"`
	Title      string  `json:"title"`
	Slug       string  `json:"slug"`
	Views      flexInt `json:"views"`
	Rating     flexInt `json:"rating"`
}

// rawEntry is the wire shape before normalization. A non-nil
// Attributes marks the nested variant.
type rawEntry struct {
	ID json.Number `json:"id"`
	entryFields
	Attributes *entryFields `json:"attributes"`
}

// decodeEntry normalizes one wire entry into an Entry, handling the
// flat and the attributes-nested variant explicitly.
func decodeEntry(raw json.RawMessage) (Entry, error) {
	var re rawEntry
	if err := json.Unmarshal(raw, &re); err != nil {
		return Entry{}, fmt.Errorf("decoding entry: %w", err)
	}

	fields := re.entryFields
	if re.Attributes != nil {
		fields = *re.Attributes
		if fields.DocumentID == "" {
			fields.DocumentID = re.entryFields.DocumentID
		}
	}

	e := Entry{
		ID:         re.ID.String(),
		DocumentID: fields.DocumentID,
		Title:      fields.Title,
		Slug:       fields.Slug,
		Views:      int(fields.Views),
		Rating:     int(fields.Rating),
	}
	if e.ID == "" {
		return Entry{}, fmt.Errorf("entry has no id")
	}
	return e, nil
}

// flexInt decodes a JSON number that some backends serialize as a
// string. Null and empty values decode to zero.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == `""` {
		*f = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("parsing numeric field %q: %w", s, err)
	}
	*f = flexInt(n)
	return nil
}
