package domain

import (
	"testing"
	"time"
)

func TestFormatNotes(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"-", ""},
		{" - ", ""},
		{"позвонить врачу", "позвонить врачу"},
		{"  взять зонт  ", "взять зонт"},
		{"молоко, хлеб, яйца", "— молоко\n— хлеб\n— яйца"},
		{"молоко, , хлеб", "— молоко\n— хлеб"},
	}
	for _, c := range cases {
		if got := FormatNotes(c.in); got != c.want {
			t.Errorf("FormatNotes(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFormatEventTime(t *testing.T) {
	at := testNow
	if got := FormatEventTime(at, time.UTC); got != "13.03.2024 10:00" {
		t.Fatalf("FormatEventTime = %q", got)
	}
}
