package platform

import "testing"

func TestBasicNormalizerClean(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"GME To The Moon!!", "gme to the moon"},
		{"$GME +300%?!", "gme 300"},
		{"already clean", "already clean"},
		{"", ""},
		{"Buy, hold... DIAMOND hands", "buy hold diamond hands"},
	}
	n := BasicNormalizer{}
	for _, tt := range tests {
		if got := n.Clean(tt.in); got != tt.want {
			t.Errorf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
