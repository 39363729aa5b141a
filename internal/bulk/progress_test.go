package bulk

import "testing"

func TestProgress(t *testing.T) {
	cases := []struct {
		total, remaining int
		answered         int
		percent          int
		bar              string
	}{
		{10, 7, 3, 30, "▓▓▓░░░░░░░"},
		{10, 10, 0, 0, "░░░░░░░░░░"},
		{10, 0, 10, 100, "▓▓▓▓▓▓▓▓▓▓"},
		{3, 2, 1, 33, "▓▓▓░░░░░░░"},
		{3, 1, 2, 67, "▓▓▓▓▓▓▓░░░"},
		{8, 7, 1, 13, "▓░░░░░░░░░"},
		{0, 0, 0, 0, "░░░░░░░░░░"},
		{2, 5, 0, 0, "░░░░░░░░░░"},
	}

	for _, tc := range cases {
		r := Progress(tc.total, tc.remaining)
		if r.Answered != tc.answered || r.Percent != tc.percent {
			t.Errorf("Progress(%d, %d) = %+v, want answered %d percent %d",
				tc.total, tc.remaining, r, tc.answered, tc.percent)
		}
		if bar := r.Bar(); bar != tc.bar {
			t.Errorf("Progress(%d, %d).Bar() = %s, want %s", tc.total, tc.remaining, bar, tc.bar)
		}
	}
}

func TestProgressMessage(t *testing.T) {
	msg := Progress(10, 7).Message()
	want := "📊 Progress Update:\n\n✅ Answered: 3 / 10\n📊 Progress: ▓▓▓░░░░░░░ 30%"
	if msg != want {
		t.Errorf("unexpected message:\n%s\nwant:\n%s", msg, want)
	}
}
