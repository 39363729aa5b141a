package bot

import (
	"fmt"
	"testing"
	"unicode/utf8"

	"github.com/cryptogyan1/tgbot/internal/chat"
)

func TestParseCommand(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"/start", "start", true},
		{"/Status@my_bot", "status", true},
		{" /bulk now", "bulk", true},
		{"hello", "", false},
		{"/", "", false},
		{"a, /b", "", false},
	}

	for _, tc := range cases {
		got, ok := parseCommand(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("parseCommand(%q) = %q, %v; want %q, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestPackRows(t *testing.T) {
	var rows [][]chat.Button
	for i := 0; i < 6; i++ {
		rows = append(rows, chat.Row(chat.Button{Label: fmt.Sprint(i), Data: fmt.Sprint(i)}))
	}

	packed := packRows(rows)
	if len(packed) != 2 || len(packed[0]) != 5 || len(packed[1]) != 1 {
		t.Errorf("unexpected packing %v", packed)
	}

	short := rows[:3]
	if got := packRows(short); len(got) != 3 {
		t.Errorf("rows within limits should be kept, got %v", got)
	}
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"hello world", 5, "hello..."},
		{"привет мир", 6, "привет..."},
		{"📊📊📊", 2, "📊📊..."},
	}

	for _, c := range cases {
		got := truncate(c.in, c.max)
		if got != c.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", c.in, c.max, got, c.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("truncate(%q, %d) produced invalid UTF-8", c.in, c.max)
		}
	}
}
