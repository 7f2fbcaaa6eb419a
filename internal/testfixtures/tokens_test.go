package testfixtures

import "testing"

func TestTokenSequence(t *testing.T) {
	seq := NewTokenSequence("")
	next := seq.NextFunc()

	if first, second := next(), next(); first != "token-0001" || second != "token-0002" {
		t.Fatalf("unexpected tokens: %q, %q", first, second)
	}
	if seq.Issued() != 2 {
		t.Fatalf("expected 2 issued tokens, got %d", seq.Issued())
	}

	var missing *TokenSequence
	if got := missing.NextFunc()(); got != "" {
		t.Fatalf("nil sequence should yield empty tokens, got %q", got)
	}
}
