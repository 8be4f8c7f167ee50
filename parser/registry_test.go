package parser

import "testing"

func TestRegistryBuiltInLoaders(t *testing.T) {
	reg := NewRegistry(nil)

	for _, ext := range []string{".pdf", ".epub"} {
		t.Run(ext, func(t *testing.T) {
			l, err := reg.Get("document" + ext)
			if err != nil {
				t.Fatalf("Get(%q) returned error: %v", ext, err)
			}
			if l == nil {
				t.Fatalf("Get(%q) returned nil loader", ext)
			}
		})
	}
}

func TestRegistryUnknownExtension(t *testing.T) {
	reg := NewRegistry(nil)

	for _, ext := range []string{".txt", ".docx", ".csv", ""} {
		t.Run("ext_"+ext, func(t *testing.T) {
			l, err := reg.Get("file" + ext)
			if err == nil {
				t.Errorf("Get(%q) expected error for unsupported extension, got loader: %v", ext, l)
			}
		})
	}
}

func TestRegistryCaseInsensitiveExtension(t *testing.T) {
	reg := NewRegistry(nil)
	if _, err := reg.Get("REPORT.PDF"); err != nil {
		t.Fatalf("expected uppercase extension to resolve, got error: %v", err)
	}
}

func TestPrintableDensity(t *testing.T) {
	cases := []struct {
		name string
		text string
		min  float64
		max  float64
	}{
		{"empty", "", 0, 0},
		{"plain text", "the quick brown fox jumps over the lazy dog", 0.7, 1.0},
		{"mostly whitespace", "   \n\n\n  a  \n\n\n", 0.0, 0.3},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := printableDensity(c.text)
			if got < c.min || got > c.max {
				t.Errorf("printableDensity(%q) = %v, want in [%v, %v]", c.text, got, c.min, c.max)
			}
		})
	}
}
