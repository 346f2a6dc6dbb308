package embedding

import "testing"

func TestSynthesize_AllFields(t *testing.T) {
	got := Synthesize(MediaText{
		Title:       "Arrival",
		Year:        2016,
		Authors:     []string{"Ted Chiang"},
		Genres:      []string{"Sci-Fi", "Drama"},
		Keywords:    []string{"aliens", "linguistics"},
		Description: "A linguist is recruited to communicate with aliens.",
	})
	want := "Arrival | 2016 | by Ted Chiang | Genres: Sci-Fi, Drama | Keywords: aliens, linguistics | A linguist is recruited to communicate with aliens."
	if got != want {
		t.Errorf("Synthesize = %q, want %q", got, want)
	}
}

func TestSynthesize_MissingFieldsOmitted(t *testing.T) {
	got := Synthesize(MediaText{Title: "Untitled"})
	want := "Untitled"
	if got != want {
		t.Errorf("Synthesize = %q, want %q", got, want)
	}
}

func TestSynthesize_Empty(t *testing.T) {
	got := Synthesize(MediaText{})
	if got != "" {
		t.Errorf("Synthesize(empty) = %q, want \"\"", got)
	}
}

func TestSynthesize_KeywordsTruncatedToTen(t *testing.T) {
	kw := make([]string, 15)
	for i := range kw {
		kw[i] = "k"
	}
	got := Synthesize(MediaText{Title: "T", Keywords: kw})
	want := "T | Keywords: k, k, k, k, k, k, k, k, k, k"
	if got != want {
		t.Errorf("Synthesize keyword truncation = %q, want %q", got, want)
	}
}

func TestSynthesize_DescriptionTruncatedAt500Chars(t *testing.T) {
	desc := make([]rune, 600)
	for i := range desc {
		desc[i] = 'x'
	}
	got := Synthesize(MediaText{Title: "T", Description: string(desc)})
	wantSuffix := string(desc[:500]) + "..."
	want := "T | " + wantSuffix
	if got != want {
		t.Errorf("description not truncated to 500 chars + ellipsis")
	}
}

func TestSynthesize_ShortDescriptionNotTruncated(t *testing.T) {
	got := Synthesize(MediaText{Title: "T", Description: "short"})
	want := "T | short"
	if got != want {
		t.Errorf("Synthesize = %q, want %q", got, want)
	}
}
