package horosafe

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidateURL(t *testing.T) {
	lookupHost = func(host string) ([]string, error) {
		switch host {
		case "intranet.example":
			return []string{"10.1.2.3"}, nil
		case "docs.example.com":
			return []string{"93.184.216.34"}, nil
		}
		return nil, errors.New("no such host")
	}
	t.Cleanup(func() { lookupHost = defaultLookup })

	cases := []struct {
		url          string
		allowPrivate bool
		want         error
	}{
		{"https://docs.example.com/guide", false, nil},
		{"http://93.184.216.34/", false, nil},
		{"ftp://docs.example.com/", false, ErrUnsafeScheme},
		{"file:///etc/passwd", true, ErrUnsafeScheme},
		{"javascript:alert(1)", true, ErrUnsafeScheme},
		{"http://127.0.0.1:8080/", false, ErrSSRF},
		{"http://[::1]/", false, ErrSSRF},
		{"http://192.168.1.10/", false, ErrSSRF},
		{"http://0.0.0.0/", false, ErrSSRF},
		{"http://localhost:3000/", false, ErrSSRF},
		{"http://intranet.example/", false, ErrSSRF},
		{"http://localhost:3000/", true, nil},
		{"http://unresolvable.invalid/", false, nil},
	}
	for _, tc := range cases {
		err := ValidateURL(tc.url, tc.allowPrivate)
		if tc.want == nil && err != nil {
			t.Errorf("ValidateURL(%q): unexpected %v", tc.url, err)
		}
		if tc.want != nil && !errors.Is(err, tc.want) {
			t.Errorf("ValidateURL(%q): got %v, want %v", tc.url, err, tc.want)
		}
	}
}

func TestValidateURL_NoHost(t *testing.T) {
	if err := ValidateURL("http:///path", true); err == nil {
		t.Fatal("expected error for missing host")
	}
}

func TestSafePath(t *testing.T) {
	base := filepath.Join("tmp", "shots")
	got, err := SafePath(base, "docs_intro_101500.png")
	if err != nil || got != filepath.Join(base, "docs_intro_101500.png") {
		t.Fatalf("SafePath: %q, %v", got, err)
	}
	for _, bad := range []string{"", "..", "../x.png", "a/b.png", `a\b.png`} {
		if _, err := SafePath(base, bad); !errors.Is(err, ErrPathTraversal) {
			t.Errorf("SafePath(%q): got %v", bad, err)
		}
	}
}

func TestValidateIdentifier(t *testing.T) {
	for _, ok := range []string{"docs", "page-1", "a.b_c"} {
		if err := ValidateIdentifier(ok); err != nil {
			t.Errorf("ValidateIdentifier(%q): %v", ok, err)
		}
	}
	for _, bad := range []string{"", "a b", "x/y", strings.Repeat("a", 65)} {
		if err := ValidateIdentifier(bad); err == nil {
			t.Errorf("ValidateIdentifier(%q): expected error", bad)
		}
	}
}

func TestLimitedReadAll(t *testing.T) {
	data, truncated, err := LimitedReadAll(strings.NewReader("0123456789"), 4)
	if err != nil || string(data) != "0123" || !truncated {
		t.Fatalf("got %q %v %v", data, truncated, err)
	}
	data, truncated, err = LimitedReadAll(strings.NewReader("01"), 4)
	if err != nil || string(data) != "01" || truncated {
		t.Fatalf("got %q %v %v", data, truncated, err)
	}
}
