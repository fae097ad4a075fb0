package event

import (
	"errors"
	"testing"
)

func TestDefaultModelsHaveOneEntryPerModel(t *testing.T) {
	opts := DefaultModels()
	want := []string{"gpt-4o-mini", "gpt-4o", "o1", "o1-mini", "o1-preview", "o3-mini"}
	if len(opts) != len(want) {
		t.Fatalf("got %d models, want %d", len(opts), len(want))
	}
	for i, name := range want {
		if opts[i].Name != name {
			t.Fatalf("model %d = %s, want %s", i, opts[i].Name, name)
		}
		if opts[i].Handle() != "openai/"+name {
			t.Fatalf("handle %d = %s", i, opts[i].Handle())
		}
	}
	catalog := NewCatalog(opts...)
	if _, ok := catalog.Lookup("openai/o1-previewo3-mini"); ok {
		t.Fatalf("concatenated model name must not be selectable")
	}
}

func TestParseHandle(t *testing.T) {
	opt, err := ParseHandle(" Gemini/gemini-1.5-flash ")
	if err != nil {
		t.Fatalf("ParseHandle returned error: %v", err)
	}
	if opt.Provider != ProviderGemini || opt.Name != "gemini-1.5-flash" {
		t.Fatalf("unexpected option: %+v", opt)
	}
	for _, bad := range []string{"", "gpt-4o", "openai/", "/gpt-4o", "acme/model", "openai/gpt 4o"} {
		if _, err := ParseHandle(bad); !errors.Is(err, ErrUnknownModel) {
			t.Fatalf("ParseHandle(%q) error = %v, want ErrUnknownModel", bad, err)
		}
	}
}

func TestCatalogDeduplicatesAndResolves(t *testing.T) {
	extra := ModelOption{Provider: ProviderVertex, Name: "gemini-2.5-pro"}
	catalog := NewCatalog(append(DefaultModels(), extra, DefaultModels()[0])...)
	if catalog.Len() != 7 {
		t.Fatalf("catalog len = %d, want 7", catalog.Len())
	}
	def, ok := catalog.Default()
	if !ok || def.Handle() != "openai/gpt-4o-mini" {
		t.Fatalf("default = %v", def)
	}
	got, err := catalog.Resolve("VERTEX/gemini-2.5-pro")
	if err != nil || got != extra {
		t.Fatalf("Resolve vertex = %v, %v", got, err)
	}
	if _, err := catalog.Resolve("openai/gpt-5"); !errors.Is(err, ErrUnknownModel) {
		t.Fatalf("expected ErrUnknownModel, got %v", err)
	}
}
