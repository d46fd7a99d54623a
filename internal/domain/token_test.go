package domain

import "testing"

func TestValidTransition(t *testing.T) {
	cases := []struct {
		from  TokenStatus
		to    TokenStatus
		valid bool
	}{
		{TokenStatusWaiting, TokenStatusServing, true},
		{TokenStatusServing, TokenStatusServed, true},
		{TokenStatusWaiting, TokenStatusServed, false},
		{TokenStatusServing, TokenStatusWaiting, false},
		{TokenStatusServed, TokenStatusServing, false},
		{TokenStatusServed, TokenStatusWaiting, false},
		{TokenStatusWaiting, TokenStatusWaiting, false},
		{TokenStatusServed, TokenStatusServed, false},
	}

	for _, tt := range cases {
		if got := ValidTransition(tt.from, tt.to); got != tt.valid {
			t.Fatalf("ValidTransition(%q, %q)=%v, want %v", tt.from, tt.to, got, tt.valid)
		}
	}
}

func TestTerminal(t *testing.T) {
	if Terminal(TokenStatusWaiting) || Terminal(TokenStatusServing) {
		t.Fatal("waiting/serving must not be terminal")
	}
	if !Terminal(TokenStatusServed) {
		t.Fatal("served must be terminal")
	}
}

func TestDisplayCode(t *testing.T) {
	cases := []struct {
		queue string
		seq   int64
		want  string
	}{
		{"male", 12, "M12"},
		{"female", 7, "F7"},
		{"male", 1, "M1"},
		{"", 3, "3"},
	}
	for _, tt := range cases {
		token := Token{Queue: tt.queue, SequenceNumber: tt.seq}
		if got := token.DisplayCode(); got != tt.want {
			t.Fatalf("DisplayCode(%q, %d)=%q, want %q", tt.queue, tt.seq, got, tt.want)
		}
	}
}

func TestValidMobile(t *testing.T) {
	cases := []struct {
		mobile string
		valid  bool
	}{
		{"9876543210", true},
		{"0000000000", true},
		{"987654321", false},
		{"98765432101", false},
		{"98765abc10", false},
		{"", false},
		{"98765 4321", false},
	}
	for _, tt := range cases {
		if got := ValidMobile(tt.mobile); got != tt.valid {
			t.Fatalf("ValidMobile(%q)=%v, want %v", tt.mobile, got, tt.valid)
		}
	}
}
