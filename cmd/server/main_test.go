package main

import "testing"

func TestResolveProviderURLs(t *testing.T) {
	got := resolveProviderURLs(nil)
	if len(got) != 1 || got[0] != defaultRateProviderURL {
		t.Fatalf("expected default provider, got %v", got)
	}

	configured := []string{"https://rates-a.internal", "https://rates-b.internal"}
	got = resolveProviderURLs(configured)
	if len(got) != 2 || got[0] != configured[0] {
		t.Fatalf("expected configured providers unchanged, got %v", got)
	}
}
