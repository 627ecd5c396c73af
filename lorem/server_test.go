package lorem

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	chatstream "github.com/mvoss/chatstream-go"
	"github.com/mvoss/chatstream-go/providers/openai"
)

func testServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	mock := NewServer()
	mock.Words = 8
	server := httptest.NewServer(mock)
	t.Cleanup(server.Close)
	return mock, server
}

func testConfig(url, model string) chatstream.RequestConfig {
	return chatstream.RequestConfig{
		Endpoint: url,
		Model:    model,
		Stream:   true,
	}
}

// drain consumes the event channel and splits it into parts.
func drain(t *testing.T, events <-chan chatstream.StreamEvent) (contents []string, role string, completion *chatstream.Completion, streamErr error) {
	t.Helper()
	for ev := range events {
		switch {
		case ev.Err != nil:
			streamErr = ev.Err
		case ev.Completion != nil:
			completion = ev.Completion
		case ev.Delta != nil:
			if ev.Delta.Role != nil {
				role = *ev.Delta.Role
			}
			if ev.Delta.Content != nil {
				contents = append(contents, *ev.Delta.Content)
			}
		}
	}
	return contents, role, completion, streamErr
}

func TestServer_StreamThroughProvider(t *testing.T) {
	_, server := testServer(t)
	provider := openai.NewProvider()

	conversation := []chatstream.Message{chatstream.UserMessage("Hello there")}
	events, err := provider.Stream(context.Background(), conversation, testConfig(server.URL, "lorem-fast"))
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}

	contents, role, completion, streamErr := drain(t, events)
	if streamErr != nil {
		t.Fatalf("stream error = %v", streamErr)
	}
	if role != chatstream.RoleAssistant {
		t.Errorf("expected assistant role announcement, got '%s'", role)
	}
	text := strings.Join(contents, "")
	if got := len(strings.Fields(text)); got != 8 {
		t.Errorf("expected 8 words, got %d: %q", got, text)
	}
	if completion == nil {
		t.Fatal("expected a completion event")
	}
	if completion.FinishReason != "stop" {
		t.Errorf("expected finish reason 'stop', got '%s'", completion.FinishReason)
	}
	if completion.Content != "" {
		t.Errorf("completion content should be empty, got %q", completion.Content)
	}
	if completion.Usage == nil {
		t.Fatal("expected usage on the completion")
	}
	if completion.Usage.PromptTokens != 2 {
		t.Errorf("expected 2 prompt tokens, got %d", completion.Usage.PromptTokens)
	}
	if completion.Usage.CompletionTokens != 8 {
		t.Errorf("expected 8 completion tokens, got %d", completion.Usage.CompletionTokens)
	}
	if completion.Usage.TotalTokens != 10 {
		t.Errorf("expected 10 total tokens, got %d", completion.Usage.TotalTokens)
	}
	if !strings.HasPrefix(completion.ID, "chatcmpl-") {
		t.Errorf("expected chatcmpl- id, got '%s'", completion.ID)
	}
}

func TestServer_FlakyModelRecovered(t *testing.T) {
	_, server := testServer(t)
	provider := openai.NewProvider()

	conversation := []chatstream.Message{chatstream.UserMessage("hi")}
	events, err := provider.Stream(context.Background(), conversation, testConfig(server.URL, "lorem-fast-flaky"))
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}

	contents, _, completion, streamErr := drain(t, events)
	if streamErr != nil {
		t.Fatalf("malformed chunk should be dropped, got error: %v", streamErr)
	}
	if completion == nil {
		t.Fatal("expected a completion event")
	}
	text := strings.Join(contents, "")
	if got := len(strings.Fields(text)); got != 8 {
		t.Errorf("expected all 8 words despite the bad chunk, got %d: %q", got, text)
	}
}

func TestServer_CutoffModelEOF(t *testing.T) {
	_, server := testServer(t)
	provider := openai.NewProvider()

	conversation := []chatstream.Message{chatstream.UserMessage("hi")}
	events, err := provider.Stream(context.Background(), conversation, testConfig(server.URL, "lorem-fast-cutoff"))
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}

	contents, _, completion, streamErr := drain(t, events)
	if streamErr != nil {
		t.Fatalf("cutoff should complete without error, got: %v", streamErr)
	}
	if completion == nil {
		t.Fatal("expected a completion event after EOF")
	}
	if completion.FinishReason != "" {
		t.Errorf("cutoff stream has no finish reason, got '%s'", completion.FinishReason)
	}
	if completion.Usage != nil {
		t.Errorf("cutoff stream has no usage, got %+v", completion.Usage)
	}
	text := strings.Join(contents, "")
	got := len(strings.Fields(text))
	if got == 0 || got >= 8 {
		t.Errorf("expected a partial reply, got %d words: %q", got, text)
	}
}

func TestServer_BlockingCompletion(t *testing.T) {
	_, server := testServer(t)
	provider := openai.NewProvider()

	cfg := testConfig(server.URL, "lorem-fast")
	cfg.Stream = false
	conversation := []chatstream.Message{chatstream.UserMessage("one two three")}

	completion, err := provider.Complete(context.Background(), conversation, cfg)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got := len(strings.Fields(completion.Content)); got != 8 {
		t.Errorf("expected 8 words, got %d: %q", got, completion.Content)
	}
	if completion.FinishReason != "stop" {
		t.Errorf("expected finish reason 'stop', got '%s'", completion.FinishReason)
	}
	if completion.Usage == nil {
		t.Fatal("expected usage")
	}
	if completion.Usage.PromptTokens != 3 {
		t.Errorf("expected 3 prompt tokens, got %d", completion.Usage.PromptTokens)
	}
	if completion.Usage.TotalTokens != completion.Usage.PromptTokens+completion.Usage.CompletionTokens {
		t.Errorf("usage does not add up: %+v", completion.Usage)
	}
}

func TestServer_UnknownModel(t *testing.T) {
	_, server := testServer(t)
	provider := openai.NewProvider()

	conversation := []chatstream.Message{chatstream.UserMessage("hi")}
	_, err := provider.Stream(context.Background(), conversation, testConfig(server.URL, "gpt-4o"))
	if err == nil {
		t.Fatal("expected an error for an unknown model")
	}
	var transportErr *chatstream.TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected TransportError, got %T: %v", err, err)
	}
	if transportErr.StatusCode != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", transportErr.StatusCode)
	}
	if !strings.Contains(transportErr.Message, "does not exist") {
		t.Errorf("expected model-not-found message, got '%s'", transportErr.Message)
	}
}

func TestServer_AuthRequired(t *testing.T) {
	mock, server := testServer(t)
	mock.APIKey = "sk-lorem-secret"
	provider := openai.NewProvider()

	conversation := []chatstream.Message{chatstream.UserMessage("hi")}

	_, err := provider.Stream(context.Background(), conversation, testConfig(server.URL, "lorem-fast"))
	if !errors.Is(err, chatstream.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized without a credential, got %v", err)
	}
	if !chatstream.IsAuthError(err) {
		t.Error("expected IsAuthError to report true")
	}

	cfg := testConfig(server.URL, "lorem-fast")
	cfg.Credential = "sk-lorem-secret"
	events, err := provider.Stream(context.Background(), conversation, cfg)
	if err != nil {
		t.Fatalf("Stream() with credential error = %v", err)
	}
	_, _, completion, streamErr := drain(t, events)
	if streamErr != nil {
		t.Fatalf("stream error = %v", streamErr)
	}
	if completion == nil {
		t.Fatal("expected a completion event")
	}
}

func TestServer_ClientCancelMidStream(t *testing.T) {
	_, server := testServer(t)
	provider := openai.NewProvider()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conversation := []chatstream.Message{chatstream.UserMessage("hi")}
	events, err := provider.Stream(ctx, conversation, testConfig(server.URL, "lorem-slow"))
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}

	// Cancel after the first content delta and make sure the channel closes
	// without a completion or an error event.
	var sawCompletion bool
	var streamErr error
	cancelled := false
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				if sawCompletion {
					t.Error("expected no completion after cancellation")
				}
				if streamErr != nil {
					t.Errorf("expected no error event after cancellation, got %v", streamErr)
				}
				return
			}
			if ev.Err != nil {
				streamErr = ev.Err
			}
			if ev.Completion != nil {
				sawCompletion = true
			}
			if ev.Delta != nil && ev.Delta.Content != nil && !cancelled {
				cancelled = true
				cancel()
			}
		case <-deadline:
			t.Fatal("timed out waiting for the channel to close")
		}
	}
}

func TestServer_MethodNotAllowed(t *testing.T) {
	_, server := testServer(t)

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", resp.StatusCode)
	}
	var envelope struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	if envelope.Error.Type != "invalid_request_error" {
		t.Errorf("expected invalid_request_error, got '%s'", envelope.Error.Type)
	}
}

func TestSupportedModel(t *testing.T) {
	tests := []struct {
		model string
		want  bool
	}{
		{"lorem", true},
		{"lorem-fast", true},
		{"lorem-fast-flaky", true},
		{"gpt-4o", false},
		{"", false},
		{"loremipsum", false},
	}
	for _, tt := range tests {
		if got := supportedModel(tt.model); got != tt.want {
			t.Errorf("supportedModel(%q) = %v, want %v", tt.model, got, tt.want)
		}
	}
}

func TestStreamDelay(t *testing.T) {
	if d := streamDelay("lorem-slow"); d != 500*time.Millisecond {
		t.Errorf("slow delay = %v", d)
	}
	if d := streamDelay("lorem-fast"); d != 33*time.Millisecond {
		t.Errorf("fast delay = %v", d)
	}
	if d := streamDelay("lorem"); d != 100*time.Millisecond {
		t.Errorf("default delay = %v", d)
	}
}

func TestGenerateWords(t *testing.T) {
	s := NewServer()
	words := s.generateWords(12)
	if len(words) != 12 {
		t.Fatalf("expected 12 words, got %d", len(words))
	}
	for i, w := range words {
		if w == "" {
			t.Errorf("word %d is empty", i)
		}
	}
}

func TestEstimateTokens(t *testing.T) {
	messages := []chatstream.Message{
		chatstream.SystemMessage("Be terse."),
		chatstream.UserMessage("What is the answer to everything?"),
	}
	if got := estimateTokens(messages); got != 8 {
		t.Errorf("expected 8 tokens, got %d", got)
	}
}
