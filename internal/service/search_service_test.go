package service

import (
	"encoding/json"
	"testing"

	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"
)

func TestDecodeMemberHits(t *testing.T) {
	raw := meilisearch.Hits{
		{
			"id":           json.RawMessage(`"3f0c"`),
			"name":         json.RawMessage(`"Alice"`),
			"organization": json.RawMessage(`"Wonder Travel"`),
		},
		{
			"id":   json.RawMessage(`"9a1d"`),
			"name": json.RawMessage(`"Bob"`),
		},
	}

	hits := decodeMemberHits(raw)
	if len(hits) != 2 {
		t.Fatalf("decoded hits = %d, want 2", len(hits))
	}
	if hits[0].ID != "3f0c" || hits[0].Name != "Alice" || hits[0].Organization != "Wonder Travel" {
		t.Errorf("first hit = %+v", hits[0])
	}
	if hits[1].Name != "Bob" || hits[1].Organization != "" {
		t.Errorf("second hit = %+v", hits[1])
	}
}

func TestDecodeMemberHitsSkipsMalformed(t *testing.T) {
	raw := meilisearch.Hits{
		{"id": json.RawMessage(`{"not":"a string"}`)},
		{"id": json.RawMessage(`"ok"`), "name": json.RawMessage(`"Carol"`)},
	}

	hits := decodeMemberHits(raw)
	if len(hits) != 1 {
		t.Fatalf("decoded hits = %d, want 1", len(hits))
	}
	if hits[0].Name != "Carol" {
		t.Errorf("hit = %+v", hits[0])
	}
}

func TestCleanTextForIndex(t *testing.T) {
	s := &searchService{sanitizer: bluemonday.StrictPolicy()}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text", "Alice Cooper", "Alice Cooper"},
		{"markup stripped", `Alice <script>alert("x")</script>Cooper`, "Alice Cooper"},
		{"tags removed", "<b>Wonder</b> Travel", "Wonder Travel"},
		{"whitespace collapsed", "  Wonder \n  Travel ", "Wonder Travel"},
		{"entities unescaped", "Smith &amp; Sons", "Smith & Sons"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.cleanTextForIndex(tt.in); got != tt.want {
				t.Errorf("cleanTextForIndex(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
