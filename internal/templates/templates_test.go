package templates

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"minimal", false},
		{"blog", false},
		{"nonexistent", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, err := Get(tt.name)
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error")
				}
				return
			}
			if err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
			if tmpl == nil {
				t.Fatal("Template should not be nil")
			}
			if tmpl.Name != tt.name {
				t.Errorf("Name = %q, want %q", tmpl.Name, tt.name)
			}
		})
	}
}

func TestList(t *testing.T) {
	names := List()
	if len(names) != 2 {
		t.Fatalf("Expected 2 templates, got %d", len(names))
	}
	if names[0] != "blog" || names[1] != "minimal" {
		t.Errorf("List() = %v, want sorted [blog minimal]", names)
	}
}

func TestCreate_Minimal(t *testing.T) {
	dir := t.TempDir()

	tmpl, err := Get("minimal")
	if err != nil {
		t.Fatal(err)
	}

	cfg := Config{
		ProjectName: "my-site",
		Description: "A test site",
		Port:        3000,
	}
	if err := tmpl.Create(dir, cfg); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Every file from the template must exist on disk.
	for relPath := range tmpl.Files {
		if _, err := os.Stat(filepath.Join(dir, relPath)); err != nil {
			t.Errorf("Missing generated file %s: %v", relPath, err)
		}
	}

	// relight.json must be valid JSON with the substituted name.
	raw, err := os.ReadFile(filepath.Join(dir, "relight.json"))
	if err != nil {
		t.Fatal(err)
	}
	var parsed map[string]any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		t.Fatalf("Generated relight.json is not valid JSON: %v", err)
	}
	if parsed["name"] != "my-site" {
		t.Errorf("name = %v, want my-site", parsed["name"])
	}

	// Variables must be substituted in routes too.
	index, err := os.ReadFile(filepath.Join(dir, "app", "routes", "index.html"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(index), "<h1>my-site</h1>") {
		t.Error("index.html should contain the project name")
	}
	if strings.Contains(string(index), "{{") {
		t.Error("index.html should not contain unexpanded template syntax")
	}
}

func TestCreate_BlogExtendsMinimal(t *testing.T) {
	minimal, _ := Get("minimal")
	blog, _ := Get("blog")

	for relPath := range minimal.Files {
		if _, ok := blog.Files[relPath]; !ok {
			t.Errorf("blog template missing base file %s", relPath)
		}
	}
	if _, ok := blog.Files["app/routes/blog/hello.md"]; !ok {
		t.Error("blog template should include a markdown route")
	}
}
