// Package transcript accumulates recognized gesture tokens into display text.
package transcript

import "strings"

// Builder is the append-only token sequence backing the session transcript.
// It is not safe for concurrent use; the session controller serializes access.
type Builder struct {
	separator string
	tokens    []string
	last      string
}

// NewBuilder constructs a builder with the configured token separator.
func NewBuilder(separator string) *Builder {
	if separator == "" {
		separator = " "
	}
	return &Builder{separator: separator}
}

// Append accepts token unless it is empty or repeats the last accepted token.
// Empty tokens carry no signal: they are dropped without resetting the
// duplicate-suppression state, so a held gesture stays suppressed across
// empty recognition results.
func (b *Builder) Append(token string) bool {
	token = strings.TrimSpace(token)
	if token == "" {
		return false
	}
	if token == b.last {
		return false
	}
	b.tokens = append(b.tokens, token)
	b.last = token
	return true
}

// ResetLast clears duplicate-suppression state without touching accumulated text.
func (b *Builder) ResetLast() {
	b.last = ""
}

// Reset discards all accumulated tokens and duplicate-suppression state.
func (b *Builder) Reset() {
	b.tokens = b.tokens[:0]
	b.last = ""
}

// Len reports the number of accepted tokens.
func (b *Builder) Len() int {
	return len(b.tokens)
}

// Tokens returns a copy of the accepted token sequence.
func (b *Builder) Tokens() []string {
	out := make([]string, len(b.tokens))
	copy(out, b.tokens)
	return out
}

// String renders the transcript with the separator after every token.
func (b *Builder) String() string {
	if len(b.tokens) == 0 {
		return ""
	}
	return strings.Join(b.tokens, b.separator) + b.separator
}
