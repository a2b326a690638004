package matching

import (
	"sort"
	"strings"
)

// DefaultStopWords are category-noise tokens that carry no identity signal.
// Model codes are never in this list; matching is word-boundary only.
var DefaultStopWords = []string{
	"tv", "smart", "led", "oled", "uhd", "hd", "full",
	"smartphone", "celular", "notebook", "televisor", "television",
	"pulgadas", "heladera", "lavarropas", "aire", "acondicionado",
	"con", "de", "para", "nuevo", "original",
}

const defaultFallbackMaxLen = 30

// KeyGenerator derives an identity key from a product name. Two listings
// sharing a key are treated as competing offers for the same product.
type KeyGenerator struct {
	stopWords      map[string]struct{}
	fallbackMaxLen int
}

// Option configures KeyGenerator.
type Option func(*KeyGenerator)

// WithStopWords replaces the default stop-word list.
func WithStopWords(words []string) Option {
	return func(g *KeyGenerator) {
		g.stopWords = make(map[string]struct{}, len(words))
		for _, w := range words {
			g.stopWords[strings.ToLower(w)] = struct{}{}
		}
	}
}

// WithFallbackMaxLen sets the truncation length of the low-precision key.
func WithFallbackMaxLen(n int) Option {
	return func(g *KeyGenerator) {
		if n > 0 {
			g.fallbackMaxLen = n
		}
	}
}

// NewKeyGenerator creates a key generator with the default stop words.
func NewKeyGenerator(opts ...Option) *KeyGenerator {
	g := &KeyGenerator{fallbackMaxLen: defaultFallbackMaxLen}
	WithStopWords(DefaultStopWords)(g)
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Key computes the identity key for a product name. Deterministic and
// insensitive to token order: retailers name the same product in different
// word orders, so tokens are sorted before concatenation.
func (g *KeyGenerator) Key(name string) string {
	if name == "" {
		return ""
	}

	lowered := strings.ToLower(name)
	tokens := g.tokens(lowered)

	// Too few distinguishing tokens: a sorted key would over-merge short
	// names into one bucket, so fall back to the raw lower-cased form.
	if len(tokens) < 2 {
		return g.fallbackKey(lowered)
	}

	sort.Strings(tokens)
	return strings.Join(tokens, "")
}

// tokens splits the lowered name into alphanumeric runs of length >= 2,
// dropping stop words. Runs under two characters are noise (stray units,
// single letters), while model codes like "g14" or "256gb" survive intact.
func (g *KeyGenerator) tokens(lowered string) []string {
	var tokens []string
	var b strings.Builder

	flush := func() {
		if b.Len() >= 2 {
			tok := b.String()
			if _, stop := g.stopWords[tok]; !stop {
				tokens = append(tokens, tok)
			}
		}
		b.Reset()
	}

	for _, r := range lowered {
		if isAlphanumeric(r) {
			b.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()

	return tokens
}

func (g *KeyGenerator) fallbackKey(lowered string) string {
	var b strings.Builder
	for _, r := range lowered {
		if isAlphanumeric(r) {
			b.WriteRune(r)
		}
		if b.Len() >= g.fallbackMaxLen {
			break
		}
	}
	return b.String()
}

func isAlphanumeric(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}
