package scripture

import (
	"encoding/json"
	"fmt"
)

// SearchKind tags which response shape a search result came back in
type SearchKind string

const (
	KindPassages SearchKind = "passages"
	KindVerses   SearchKind = "verses"
	KindResults  SearchKind = "results"
	KindUnknown  SearchKind = "unknown"
)

// Passage is a span of text under a reference such as "Romans 8:28-30"
type Passage struct {
	Reference string `json:"reference"`
	Content   string `json:"content"`
}

// Verse is a single verse
type Verse struct {
	BookName string `json:"book_name"`
	Chapter  int    `json:"chapter"`
	Verse    int    `json:"verse"`
	Text     string `json:"text"`
}

// Reference returns the verse's reference
func (v Verse) Reference() Reference {
	return Reference{Book: v.BookName, Chapter: v.Chapter, Verse: v.Verse}
}

// Result is a generic search hit
type Result struct {
	Reference string `json:"reference"`
	Text      string `json:"text"`
}

// SearchResult is one of the known upstream search shapes. Exactly one of
// Passages, Verses and Results is meaningful, selected by Kind. Raw keeps
// the original payload when Kind is KindUnknown.
type SearchResult struct {
	Kind     SearchKind
	Passages []Passage
	Verses   []Verse
	Results  []Result
	Raw      json.RawMessage
}

// Hit is the flattened form of any search variant
type Hit struct {
	Reference string `json:"reference"`
	Text      string `json:"text"`
}

// searchEnvelope captures every variant's key without decoding it yet
type searchEnvelope struct {
	Passages json.RawMessage `json:"passages"`
	Verses   json.RawMessage `json:"verses"`
	Results  json.RawMessage `json:"results"`
}

func (e searchEnvelope) kind() SearchKind {
	switch {
	case len(e.Passages) > 0 && string(e.Passages) != "null":
		return KindPassages
	case len(e.Verses) > 0 && string(e.Verses) != "null":
		return KindVerses
	case len(e.Results) > 0 && string(e.Results) != "null":
		return KindResults
	default:
		return KindUnknown
	}
}

// DecodeSearch decodes an upstream search payload into its tagged variant.
// Payloads that are not JSON objects are an error; objects with none of the
// known keys decode as KindUnknown.
func DecodeSearch(data []byte) (*SearchResult, error) {
	var env searchEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	result := &SearchResult{Kind: env.kind()}
	var err error
	switch result.Kind {
	case KindPassages:
		err = json.Unmarshal(env.Passages, &result.Passages)
	case KindVerses:
		err = json.Unmarshal(env.Verses, &result.Verses)
	case KindResults:
		err = json.Unmarshal(env.Results, &result.Results)
	case KindUnknown:
		result.Raw = append(json.RawMessage(nil), data...)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", result.Kind, err)
	}
	return result, nil
}

// Hits flattens the variant into reference/text pairs
func (r *SearchResult) Hits() []Hit {
	var hits []Hit
	switch r.Kind {
	case KindPassages:
		for _, p := range r.Passages {
			hits = append(hits, Hit{Reference: p.Reference, Text: p.Content})
		}
	case KindVerses:
		for _, v := range r.Verses {
			hits = append(hits, Hit{Reference: v.Reference().Format(), Text: v.Text})
		}
	case KindResults:
		for _, res := range r.Results {
			hits = append(hits, Hit{Reference: res.Reference, Text: res.Text})
		}
	}
	if hits == nil {
		hits = []Hit{}
	}
	return hits
}
