package chatstream

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestRequestConfigValidate(t *testing.T) {
	tests := []struct {
		name     string
		cfg      RequestConfig
		wantErr  error
		wantPass bool
	}{
		{
			name: "valid https config",
			cfg: RequestConfig{
				Endpoint: "https://api.openai.com/v1/chat/completions",
				Model:    "gpt-4o-mini",
			},
			wantPass: true,
		},
		{
			name: "valid http config",
			cfg: RequestConfig{
				Endpoint: "http://localhost:8080/v1/chat/completions",
				Model:    "lorem",
				Stream:   true,
			},
			wantPass: true,
		},
		{
			name:    "empty endpoint",
			cfg:     RequestConfig{Endpoint: "", Model: "gpt-4o"},
			wantErr: ErrInvalidEndpoint,
		},
		{
			name:    "relative endpoint",
			cfg:     RequestConfig{Endpoint: "/v1/chat/completions", Model: "gpt-4o"},
			wantErr: ErrInvalidEndpoint,
		},
		{
			name:    "missing scheme",
			cfg:     RequestConfig{Endpoint: "api.openai.com/v1", Model: "gpt-4o"},
			wantErr: ErrInvalidEndpoint,
		},
		{
			name:    "unsupported scheme",
			cfg:     RequestConfig{Endpoint: "ftp://example.com/v1", Model: "gpt-4o"},
			wantErr: ErrInvalidEndpoint,
		},
		{
			name:    "missing model",
			cfg:     RequestConfig{Endpoint: "https://api.openai.com/v1", Model: ""},
			wantErr: ErrMissingModel,
		},
		{
			name:    "whitespace model",
			cfg:     RequestConfig{Endpoint: "https://api.openai.com/v1", Model: "   "},
			wantErr: ErrMissingModel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantPass {
				if err != nil {
					t.Fatalf("expected valid config, got error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected error wrapping %v, got %v", tt.wantErr, err)
			}
			if !IsConfigError(err) {
				t.Errorf("expected IsConfigError to report true for %v", err)
			}
		})
	}
}

func TestLoadProfiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profiles.yaml")

	content := `local:
  endpoint: http://localhost:8080/v1/chat/completions
  model: lorem
  stream: true
production:
  endpoint: https://api.openai.com/v1/chat/completions
  model: gpt-4o-mini
  stream: true
  credential: sk-test
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write profiles file: %v", err)
	}

	profiles, err := LoadProfiles(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(profiles) != 2 {
		t.Fatalf("expected 2 profiles, got %d", len(profiles))
	}

	local := profiles["local"]
	if local.Model != "lorem" || !local.Stream || local.Credential != "" {
		t.Errorf("unexpected local profile: %+v", local)
	}

	prod := profiles["production"]
	if prod.Endpoint != "https://api.openai.com/v1/chat/completions" {
		t.Errorf("unexpected production endpoint: %s", prod.Endpoint)
	}
	if prod.Credential != "sk-test" {
		t.Errorf("expected credential from file to be honored, got %q", prod.Credential)
	}
}

func TestLoadProfiles_Errors(t *testing.T) {
	if _, err := LoadProfiles("/nonexistent/profiles.yaml"); err == nil {
		t.Error("expected error for missing file, got nil")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("{not yaml: ["), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if _, err := LoadProfiles(path); err == nil {
		t.Error("expected error for malformed yaml, got nil")
	}
}
