package storage

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/cryptogyan1/tgbot/internal/config"
)

func TestObjectName(t *testing.T) {
	cases := []struct {
		entry Entry
		want  string
	}{
		{Entry{UserID: "42", RunID: "run-1", Index: 3, Kind: config.CategoryImage}, "42/run-1/0003.png"},
		{Entry{UserID: "42", RunID: "run-1", Index: 12, Kind: config.CategoryAudio}, "42/run-1/0012.mp3"},
		{Entry{UserID: "7", RunID: "r", Index: 1, Kind: config.CategoryText}, "7/r/0001.json"},
	}

	for _, tc := range cases {
		if got := ObjectName(tc.entry); got != tc.want {
			t.Errorf("expected %s, got %s", tc.want, got)
		}
	}
}

func TestObjectNameWithoutRun(t *testing.T) {
	a := ObjectName(Entry{UserID: "1", Kind: config.CategoryText})
	b := ObjectName(Entry{UserID: "1", Kind: config.CategoryText})

	if !strings.HasPrefix(a, "1/single-") {
		t.Errorf("unexpected name %s", a)
	}
	if a == b {
		t.Error("single results should not collide")
	}
}

func TestEncodeTextEntry(t *testing.T) {
	data, contentType, err := encodeEntry(Entry{Model: "deepseek", Kind: config.CategoryText, Prompt: "q", Text: "a"})
	if err != nil {
		t.Fatal(err)
	}
	if contentType != "application/json" {
		t.Errorf("unexpected content type %s", contentType)
	}

	var rec textRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		t.Fatal(err)
	}
	if rec.Prompt != "q" || rec.Answer != "a" || rec.Model != "deepseek" {
		t.Errorf("unexpected record %+v", rec)
	}
}

func TestEncodeMediaEntry(t *testing.T) {
	data, contentType, _ := encodeEntry(Entry{Kind: config.CategoryImage, Data: []byte("img")})
	if contentType != "image/png" || string(data) != "img" {
		t.Errorf("unexpected image encoding %s %q", contentType, data)
	}
}
