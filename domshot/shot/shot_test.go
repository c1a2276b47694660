package shot

import "testing"

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatSVG, false},
		{"svg", FormatSVG, false},
		{"PNG", FormatPNG, false},
		{" png ", FormatPNG, false},
		{"jpeg", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseFormat(%q): err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Fatalf("ParseFormat(%q): got %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestArtifact_FileName(t *testing.T) {
	a := Artifact{Filename: "example_docs_101500", Format: FormatPNG}
	if got := a.FileName(); got != "example_docs_101500.png" {
		t.Fatalf("FileName: got %q", got)
	}
	if FormatSVG.MIME() != "image/svg+xml" || FormatPNG.MIME() != "image/png" {
		t.Fatalf("MIME mismatch: %s %s", FormatSVG.MIME(), FormatPNG.MIME())
	}
}

func TestHash(t *testing.T) {
	// SHA-256 of the empty input.
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got := Hash(nil); got != want {
		t.Fatalf("Hash(nil): got %s, want %s", got, want)
	}
}
