package quarter

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in      string
		wantErr bool
	}{
		{"25.3Q", false},
		{"24.1Q", false},
		{"05.4Q", false},
		{"25.5Q", true},
		{"25.0Q", true},
		{"253Q", true},
		{"25.3", true},
		{"2025.3Q", true},
		{"", true},
		{"25.3Q ", true},
	}
	for _, tc := range cases {
		got, err := Parse(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("Parse(%q): expected error, got %q", tc.in, got)
			} else if !errors.Is(err, ErrInvalidLabel) {
				t.Errorf("Parse(%q): error not ErrInvalidLabel: %v", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("Parse(%q): unexpected error: %v", tc.in, err)
		}
		if string(got) != tc.in {
			t.Errorf("Parse(%q) = %q", tc.in, got)
		}
	}
}

func TestYearAndQuarter(t *testing.T) {
	l := MustParse("25.3Q")
	if y := l.Year(); y != 25 {
		t.Errorf("Year() = %d, want 25", y)
	}
	if q := l.Quarter(); q != 3 {
		t.Errorf("Quarter() = %d, want 3", q)
	}
}

func TestYearAgo(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"25.4Q", "24.4Q"},
		{"25.3Q", "24.3Q"},
		{"24.1Q", "23.1Q"},
		{"10.2Q", "09.2Q"},
	}
	for _, tc := range cases {
		if got := MustParse(tc.in).YearAgo(); string(got) != tc.want {
			t.Errorf("YearAgo(%s) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestPrev(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"25.3Q", "25.2Q"},
		{"25.1Q", "24.4Q"},
		{"24.4Q", "24.3Q"},
	}
	for _, tc := range cases {
		if got := MustParse(tc.in).Prev(); string(got) != tc.want {
			t.Errorf("Prev(%s) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestLess(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"24.4Q", "25.1Q", true},
		{"25.1Q", "25.2Q", true},
		{"25.2Q", "25.2Q", false},
		{"25.3Q", "24.4Q", false},
	}
	for _, tc := range cases {
		if got := MustParse(tc.a).Less(MustParse(tc.b)); got != tc.want {
			t.Errorf("Less(%s, %s) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}
