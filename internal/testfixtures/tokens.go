package testfixtures

import (
	"fmt"
	"sync"
)

// TokenSequence hands out predictable session tokens such as "token-0001".
type TokenSequence struct {
	mu     sync.Mutex
	prefix string
	issued int
}

// NewTokenSequence returns a sequence using prefix, or "token" when empty.
func NewTokenSequence(prefix string) *TokenSequence {
	if prefix == "" {
		prefix = "token"
	}
	return &TokenSequence{prefix: prefix}
}

// Next returns the next token.
func (s *TokenSequence) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return fmt.Sprintf("%s-%04d", s.prefix, s.issued)
}

// NextFunc returns Next for injection as a token generator.
func (s *TokenSequence) NextFunc() func() string {
	if s == nil {
		return func() string { return "" }
	}
	return s.Next
}

// Issued reports how many tokens have been handed out.
func (s *TokenSequence) Issued() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issued
}
