package llm

import (
	"fmt"
	"reflect"
	"testing"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		provider string
		wantType string
	}{
		{"simple", "*llm.simpleEmbedder"},
		{"openrouter", "*llm.openRouterProvider"},
		{"openai", "*llm.openAIProvider"},
		{"huggingface", "*llm.huggingfaceProvider"},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			cfg := Config{
				Provider: tt.provider,
				Model:    "test-model",
			}
			p, err := NewProvider(cfg)
			if err != nil {
				t.Fatalf("NewProvider(%q) returned error: %v", tt.provider, err)
			}
			gotType := fmt.Sprintf("%T", p)
			if gotType != tt.wantType {
				t.Errorf("NewProvider(%q) type = %s, want %s", tt.provider, gotType, tt.wantType)
			}
		})
	}
}

func TestNewProviderUnknown(t *testing.T) {
	cfg := Config{Provider: "doesnotexist", Model: "test-model"}
	_, err := NewProvider(cfg)
	if err == nil {
		t.Fatal("expected error for unknown provider, got nil")
	}
	want := "unknown llm provider: doesnotexist"
	if err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}
}

func TestNewProviderEmpty(t *testing.T) {
	cfg := Config{Provider: "", Model: "test-model"}
	_, err := NewProvider(cfg)
	if err == nil {
		t.Fatal("expected error for empty provider, got nil")
	}
	want := "llm provider not specified"
	if err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}
}

func TestDefaultBaseURLs(t *testing.T) {
	tests := []struct {
		provider string
		wantURL  string
	}{
		{"openrouter", "https://openrouter.ai/api"},
		{"openai", "https://api.openai.com"},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			cfg := Config{Provider: tt.provider, Model: "test-model"}
			p, err := NewProvider(cfg)
			if err != nil {
				t.Fatalf("NewProvider(%q): %v", tt.provider, err)
			}

			v := reflect.ValueOf(p).Elem()
			base := v.FieldByName("base")
			cfgField := base.FieldByName("cfg")
			gotURL := cfgField.FieldByName("BaseURL").String()

			if gotURL != tt.wantURL {
				t.Errorf("default BaseURL for %q = %q, want %q", tt.provider, gotURL, tt.wantURL)
			}
		})
	}
}

func TestExplicitBaseURLPreserved(t *testing.T) {
	customURL := "http://my-server:9999"

	for _, provider := range []string{"openrouter", "openai"} {
		t.Run(provider, func(t *testing.T) {
			cfg := Config{Provider: provider, Model: "test-model", BaseURL: customURL}
			p, err := NewProvider(cfg)
			if err != nil {
				t.Fatalf("NewProvider(%q): %v", provider, err)
			}

			v := reflect.ValueOf(p).Elem()
			base := v.FieldByName("base")
			cfgField := base.FieldByName("cfg")
			gotURL := cfgField.FieldByName("BaseURL").String()

			if gotURL != customURL {
				t.Errorf("provider %q BaseURL = %q, want %q", provider, gotURL, customURL)
			}
		})
	}
}

func TestProviderImplementsInterface(t *testing.T) {
	for _, name := range []string{"simple", "openrouter", "openai", "huggingface"} {
		t.Run(name, func(t *testing.T) {
			cfg := Config{Provider: name, Model: "m"}
			p, err := NewProvider(cfg)
			if err != nil {
				t.Fatalf("NewProvider(%q): %v", name, err)
			}
			var _ Provider = p
			if p == nil {
				t.Fatal("provider is nil")
			}
		})
	}
}

func TestVisionProvidersImplementChatWithImages(t *testing.T) {
	for _, name := range []string{"openrouter", "openai"} {
		t.Run(name, func(t *testing.T) {
			cfg := Config{Provider: name, Model: "m"}
			p, err := NewVisionProvider(cfg)
			if err != nil {
				t.Fatalf("NewVisionProvider(%q): %v", name, err)
			}
			if p == nil {
				t.Fatal("vision provider is nil")
			}
		})
	}
}

func TestSimpleProviderIsNotVisionCapable(t *testing.T) {
	_, err := NewVisionProvider(Config{Provider: "simple"})
	if err == nil {
		t.Fatal("expected error: simple provider has no vision capability")
	}
}

func TestSimpleEmbedderHasNoChat(t *testing.T) {
	p, err := NewProvider(Config{Provider: "simple"})
	if err != nil {
		t.Fatalf("NewProvider(simple): %v", err)
	}
	if _, err := p.Chat(nil, ChatRequest{}); err == nil {
		t.Fatal("expected simple provider Chat to return an error")
	}
}
