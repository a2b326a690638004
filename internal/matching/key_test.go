package matching

import "testing"

func TestKeyOrderInsensitive(t *testing.T) {
	g := NewKeyGenerator()

	a := g.Key("Samsung TV 65 QLED")
	b := g.Key("QLED 65 Samsung")

	if a == "" {
		t.Fatalf("expected non-empty key")
	}
	if a != b {
		t.Fatalf("expected equal keys, got %q and %q", a, b)
	}
}

func TestKeyDeterministic(t *testing.T) {
	g := NewKeyGenerator()

	name := "Notebook Lenovo IdeaPad G14 256GB"
	first := g.Key(name)
	for i := 0; i < 10; i++ {
		if got := g.Key(name); got != first {
			t.Fatalf("key not deterministic: %q vs %q", got, first)
		}
	}
}

func TestKeyPreservesModelCodes(t *testing.T) {
	g := NewKeyGenerator()

	a := g.Key("Samsung Galaxy S23 256GB")
	b := g.Key("S23 256GB Samsung Galaxy")
	if a != b {
		t.Fatalf("model-code names should match: %q vs %q", a, b)
	}

	// "tv" is a stop word but "s23" must survive word-boundary stripping.
	if got := g.Key("S23 TV Stand"); got == g.Key("S23") {
		t.Fatalf("unexpected collapse to fallback key")
	}
}

func TestKeyGroupsCrossStoreVariants(t *testing.T) {
	g := NewKeyGenerator()

	a := g.Key("Samsung Galaxy S23 256GB")
	b := g.Key("S23 256GB Samsung")
	if a == b {
		t.Fatalf("names with different token sets should not share a key")
	}

	c := g.Key("256GB Galaxy Samsung S23")
	if a != c {
		t.Fatalf("reordered name should share a key: %q vs %q", a, c)
	}
}

func TestKeyFallbackShortNames(t *testing.T) {
	g := NewKeyGenerator()

	// Single meaningful token: falls back to the stripped full name.
	if got := g.Key("TV 65"); got != "tv65" {
		t.Fatalf("expected fallback key tv65, got %q", got)
	}

	if got := g.Key(""); got != "" {
		t.Fatalf("expected empty key for empty name, got %q", got)
	}
}

func TestKeyFallbackTruncation(t *testing.T) {
	g := NewKeyGenerator(WithFallbackMaxLen(10))

	got := g.Key("Superzapatillas2000!!!")
	if len(got) != 10 {
		t.Fatalf("expected 10-char fallback key, got %d chars: %q", len(got), got)
	}
}

func TestKeyCustomStopWords(t *testing.T) {
	g := NewKeyGenerator(WithStopWords([]string{"bundle"}))

	a := g.Key("Sony WH1000 Bundle Pack")
	b := g.Key("Pack Sony WH1000")
	if a != b {
		t.Fatalf("custom stop word not applied: %q vs %q", a, b)
	}
}
