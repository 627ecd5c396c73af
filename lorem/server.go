// Package lorem implements a mock OpenAI-compatible chat-completion endpoint
// that streams lorem ipsum text. It exists for testing and development
// without real API keys: wrap a Server in httptest (or hang it off a local
// listener) and point the HTTP provider at it, and the whole pipeline runs
// against real bytes on a real socket.
//
// The model name selects the behavior:
//   - "lorem", "lorem-fast", "lorem-slow": healthy streams at different speeds
//   - "lorem-flaky": injects one malformed chunk mid-stream
//   - "lorem-cutoff": ends the stream mid-reply with no sentinel
package lorem

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	loremgen "github.com/bozaro/golorem"
	"github.com/google/uuid"

	chatstream "github.com/mvoss/chatstream-go"
)

// defaultWords is the reply length when the caller does not override Words.
const defaultWords = 60

// Server is the mock endpoint. The zero value is not usable; call NewServer.
type Server struct {
	generator *loremgen.Lorem

	// Words is the number of words generated per completion.
	Words int

	// APIKey, when non-empty, makes the server demand a matching bearer
	// token, for rehearsing the 401 path. Empty means no auth at all.
	APIKey string
}

// NewServer creates a mock server with default settings.
func NewServer() *Server {
	return &Server{
		generator: loremgen.New(),
		Words:     defaultWords,
	}
}

// chatRequest is the inbound wire shape.
type chatRequest struct {
	Model    string               `json:"model"`
	Messages []chatstream.Message `json:"messages"`
	Stream   bool                 `json:"stream"`
}

// Outbound wire shapes. finish_reason deliberately has no omitempty: real
// endpoints send an explicit null on non-final chunks.
type chunk struct {
	ID      string        `json:"id"`
	Object  string        `json:"object"`
	Created int64         `json:"created"`
	Model   string        `json:"model"`
	Choices []chunkChoice `json:"choices"`
	Usage   *usage        `json:"usage,omitempty"`
}

type chunkChoice struct {
	Index        int     `json:"index"`
	Delta        delta   `json:"delta"`
	FinishReason *string `json:"finish_reason"`
}

type delta struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
}

type completionResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []choice `json:"choices"`
	Usage   usage    `json:"usage"`
}

type choice struct {
	Index        int                `json:"index"`
	Message      chatstream.Message `json:"message"`
	FinishReason string             `json:"finish_reason"`
}

type usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ServeHTTP handles one chat-completion request.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "only POST is supported", "invalid_request_error")
		return
	}

	if s.APIKey != "" {
		if r.Header.Get("Authorization") != "Bearer "+s.APIKey {
			writeError(w, http.StatusUnauthorized, "Incorrect API key provided", "invalid_request_error")
			return
		}
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "could not parse request body", "invalid_request_error")
		return
	}

	if !supportedModel(req.Model) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("model '%s' does not exist", req.Model), "invalid_request_error")
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "messages must not be empty", "invalid_request_error")
		return
	}

	log.Printf("[LOREM] %s %s: model=%s stream=%v messages=%d",
		r.Method, r.URL.Path, req.Model, req.Stream, len(req.Messages))

	if req.Stream {
		s.streamCompletion(w, r, &req)
	} else {
		s.blockingCompletion(w, r, &req)
	}
}

// supportedModel accepts "lorem" and anything in the lorem- family.
func supportedModel(model string) bool {
	return model == "lorem" || strings.HasPrefix(model, "lorem-")
}

// streamDelay returns the pacing between words based on the model name.
//   - lorem-slow: 2 words/second (500ms per word)
//   - lorem-fast: 30 words/second (33ms per word)
//   - default: 10 words/second
func streamDelay(model string) time.Duration {
	if strings.Contains(model, "slow") {
		return 500 * time.Millisecond
	}
	if strings.Contains(model, "fast") {
		return 33 * time.Millisecond
	}
	return 100 * time.Millisecond
}

func isFlakyModel(model string) bool {
	return strings.Contains(model, "flaky")
}

func isCutoffModel(model string) bool {
	return strings.Contains(model, "cutoff")
}

// streamCompletion writes the reply as a chunk stream: role announcement,
// one chunk per word, a finish chunk, a usage-only chunk, and the sentinel.
func (s *Server) streamCompletion(w http.ResponseWriter, r *http.Request, req *chatRequest) {
	id := "chatcmpl-" + uuid.NewString()
	created := time.Now().Unix()
	delay := streamDelay(req.Model)
	words := s.generateWords(s.replyWords())

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	flusher, _ := w.(http.Flusher)

	writeChunk := func(c chunk) bool {
		data, err := json.Marshal(c)
		if err != nil {
			return false
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return false
		}
		if flusher != nil {
			flusher.Flush()
		}
		return true
	}

	// Role announcement comes first, the way real endpoints do it.
	if !writeChunk(chunk{
		ID: id, Object: "chat.completion.chunk", Created: created, Model: req.Model,
		Choices: []chunkChoice{{Index: 0, Delta: delta{Role: chatstream.RoleAssistant}}},
	}) {
		return
	}

	wordsSent := 0
	for i, word := range words {
		select {
		case <-r.Context().Done():
			log.Printf("[LOREM] client disconnected: id=%s words=%d", id, wordsSent)
			return
		case <-time.After(delay):
		}

		if isCutoffModel(req.Model) && i == len(words)/2 {
			// Simulate an upstream that dies mid-reply: no finish chunk, no
			// usage, no sentinel. Clients must treat the EOF as end of stream.
			log.Printf("[LOREM] cutting stream short: id=%s words=%d", id, wordsSent)
			return
		}

		if isFlakyModel(req.Model) && i == len(words)/2 {
			log.Printf("[LOREM] injecting malformed chunk: id=%s", id)
			io.WriteString(w, "data: {\"choices\":[{\"index\":0,\"delta\":{\"content\":\"lor\n\n")
			if flusher != nil {
				flusher.Flush()
			}
		}

		text := word
		if i < len(words)-1 {
			text += " "
		}
		if !writeChunk(chunk{
			ID: id, Object: "chat.completion.chunk", Created: created, Model: req.Model,
			Choices: []chunkChoice{{Index: 0, Delta: delta{Content: text}}},
		}) {
			return
		}
		wordsSent++
	}

	finish := "stop"
	if !writeChunk(chunk{
		ID: id, Object: "chat.completion.chunk", Created: created, Model: req.Model,
		Choices: []chunkChoice{{Index: 0, Delta: delta{}, FinishReason: &finish}},
	}) {
		return
	}

	// Usage arrives on a final choice-less chunk, the include_usage shape.
	prompt := estimateTokens(req.Messages)
	if !writeChunk(chunk{
		ID: id, Object: "chat.completion.chunk", Created: created, Model: req.Model,
		Choices: []chunkChoice{},
		Usage:   &usage{PromptTokens: prompt, CompletionTokens: wordsSent, TotalTokens: prompt + wordsSent},
	}) {
		return
	}

	io.WriteString(w, "data: [DONE]\n\n")
	if flusher != nil {
		flusher.Flush()
	}
	log.Printf("[LOREM] stream complete: id=%s words=%d", id, wordsSent)
}

// blockingCompletion simulates a non-streaming call: it waits roughly as
// long as the stream would have taken, then returns the whole reply at once.
func (s *Server) blockingCompletion(w http.ResponseWriter, r *http.Request, req *chatRequest) {
	id := "chatcmpl-" + uuid.NewString()
	created := time.Now().Unix()
	words := s.generateWords(s.replyWords())

	wait := streamDelay(req.Model) * time.Duration(len(words))
	select {
	case <-r.Context().Done():
		log.Printf("[LOREM] client disconnected before reply: id=%s", id)
		return
	case <-time.After(wait):
	}

	content := strings.Join(words, " ")
	prompt := estimateTokens(req.Messages)

	resp := completionResponse{
		ID:      id,
		Object:  "chat.completion",
		Created: created,
		Model:   req.Model,
		Choices: []choice{
			{
				Index:        0,
				Message:      chatstream.AssistantMessage(content),
				FinishReason: "stop",
			},
		},
		Usage: usage{
			PromptTokens:     prompt,
			CompletionTokens: len(words),
			TotalTokens:      prompt + len(words),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("[LOREM] failed to write response: id=%s err=%v", id, err)
		return
	}
	log.Printf("[LOREM] completion served: id=%s words=%d", id, len(words))
}

func (s *Server) replyWords() int {
	if s.Words > 0 {
		return s.Words
	}
	return defaultWords
}

// generateWords produces exactly n lorem ipsum words.
func (s *Server) generateWords(n int) []string {
	var collected []string
	for len(collected) < n {
		sentence := s.generator.Sentence(5, 15)
		collected = append(collected, strings.Fields(sentence)...)
	}
	return collected[:n]
}

// estimateTokens approximates prompt accounting by word count.
func estimateTokens(messages []chatstream.Message) int {
	total := 0
	for _, msg := range messages {
		total += len(strings.Fields(msg.Content))
	}
	return total
}

func writeError(w http.ResponseWriter, status int, message, errType string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": message,
			"type":    errType,
		},
	})
}
