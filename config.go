package chatstream

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// RequestConfig describes one request: where to send it, which model to ask
// for, whether to stream, and an optional bearer credential. It is supplied
// per request and never mutated by the core.
type RequestConfig struct {
	// Endpoint is the full URL of the chat-completion endpoint,
	// e.g. "https://api.openai.com/v1/chat/completions".
	Endpoint string `yaml:"endpoint"`

	// Model is the model identifier sent in the request body.
	Model string `yaml:"model"`

	// Stream selects incremental delivery (true) or a single response body
	// (false).
	Stream bool `yaml:"stream"`

	// Credential, when non-empty, is attached as an Authorization bearer
	// header. Endpoints without authentication leave it empty.
	Credential string `yaml:"credential,omitempty"`
}

// Validate checks the configuration before dispatch. A malformed endpoint or
// missing model fails here, synchronously, and never reaches the transport.
func (c *RequestConfig) Validate() error {
	u, err := url.Parse(c.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return &ConfigError{
			Field:  "endpoint",
			Value:  c.Endpoint,
			Reason: "must be an absolute URL with a host",
			Err:    ErrInvalidEndpoint,
		}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &ConfigError{
			Field:  "endpoint",
			Value:  c.Endpoint,
			Reason: fmt.Sprintf("unsupported scheme '%s' (want http or https)", u.Scheme),
			Err:    ErrInvalidEndpoint,
		}
	}
	if strings.TrimSpace(c.Model) == "" {
		return &ConfigError{
			Field:  "model",
			Value:  c.Model,
			Reason: "model identifier is required",
			Err:    ErrMissingModel,
		}
	}
	return nil
}

// LoadProfiles reads named request configurations from a YAML file:
//
//	local:
//	  endpoint: http://localhost:8080/v1/chat/completions
//	  model: lorem
//	  stream: true
//	production:
//	  endpoint: https://api.openai.com/v1/chat/completions
//	  model: gpt-4o-mini
//	  stream: true
//
// Credentials usually come from the environment rather than the file, but a
// "credential" key is honored when present.
func LoadProfiles(path string) (map[string]RequestConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profiles file: %w", err)
	}

	var profiles map[string]RequestConfig
	if err := yaml.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("failed to parse profiles file: %w", err)
	}
	return profiles, nil
}
