package catalog

import "testing"

func TestHasFlatrate_True(t *testing.T) {
	groups := []ProviderGroup{
		{Kind: "rent", Providers: []string{"Apple TV"}},
		{Kind: "flatrate", Providers: []string{"Netflix"}},
	}
	if !HasFlatrate(groups) {
		t.Error("HasFlatrate = false, want true")
	}
}

func TestHasFlatrate_FalseWhenAbsent(t *testing.T) {
	groups := []ProviderGroup{
		{Kind: "rent", Providers: []string{"Apple TV"}},
	}
	if HasFlatrate(groups) {
		t.Error("HasFlatrate = true, want false")
	}
}

func TestHasFlatrate_FalseWhenFlatrateEmpty(t *testing.T) {
	groups := []ProviderGroup{
		{Kind: "flatrate", Providers: nil},
	}
	if HasFlatrate(groups) {
		t.Error("HasFlatrate = true, want false for empty provider list")
	}
}

func TestHasFlatrate_EmptyGroups(t *testing.T) {
	if HasFlatrate(nil) {
		t.Error("HasFlatrate(nil) = true, want false")
	}
}
