package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ragchat/internal/chunker"
	"ragchat/internal/dto"
	"ragchat/internal/index"
	"ragchat/internal/llm"
	"ragchat/internal/openai"
	"ragchat/internal/service"
	"ragchat/internal/store/memory"
	"ragchat/pkg/auth"
	"ragchat/pkg/config"
	"ragchat/pkg/middleware"
)

type stubEmbedder struct {
	dimension int
}

func (e *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	v := make([]float32, e.dimension)
	v[0] = 1
	return v, nil
}

func (e *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		v := make([]float32, e.dimension)
		v[i%e.dimension] = 1
		out[i] = v
	}
	return out, nil
}

func (e *stubEmbedder) Dimension() int { return e.dimension }

var _ openai.Embedder = (*stubEmbedder)(nil)

type stubLLM struct {
	completion *llm.Completion
	err        error
	deltas     []llm.StreamDelta
	gotOpts    llm.Options
}

func (s *stubLLM) Complete(ctx context.Context, messages []llm.Message, opts llm.Options) (*llm.Completion, error) {
	s.gotOpts = opts
	if s.err != nil {
		return nil, s.err
	}
	return s.completion, nil
}

func (s *stubLLM) Stream(ctx context.Context, messages []llm.Message, opts llm.Options) (<-chan llm.StreamDelta, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make(chan llm.StreamDelta, len(s.deltas))
	for _, d := range s.deltas {
		out <- d
	}
	close(out)
	return out, nil
}

func (s *stubLLM) Capabilities() llm.Capabilities {
	return llm.Capabilities{Provider: "stub", Streaming: true}
}

func (s *stubLLM) Close() error { return nil }

func newDocumentTestApp(t *testing.T) (*fiber.App, *service.DocumentService) {
	t.Helper()

	textChunker, err := chunker.New(8, 2)
	require.NoError(t, err)
	vectorIndex, err := index.New(4)
	require.NoError(t, err)

	docService := service.NewDocumentService(
		memory.New(),
		&stubEmbedder{dimension: 4},
		textChunker,
		vectorIndex,
		zap.NewNop(),
	)

	handler := NewDocumentHandler(docService, config.UploadConfig{
		MaxBytes:          1024,
		AllowedExtensions: []string{".pdf", ".txt", ".md", ".docx"},
	}, zap.NewNop())

	app := fiber.New()
	app.Post("/documents/upload", handler.Upload)
	app.Get("/documents", handler.List)
	app.Get("/documents/:id/chunks", handler.ListChunks)
	app.Delete("/documents/:id", handler.Delete)
	return app, docService
}

func multipartUpload(t *testing.T, fileName string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestUploadDocument(t *testing.T) {
	app, _ := newDocumentTestApp(t)

	body, contentType := multipartUpload(t, "notes.txt", []byte("alpha beta gamma delta"))
	req := httptest.NewRequest(http.MethodPost, "/documents/upload", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var doc dto.DocumentResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
	assert.Equal(t, "notes.txt", doc.FileName)
	assert.False(t, doc.Duplicate)
	assert.NotEmpty(t, doc.ID)
}

func TestUploadDuplicateReturnsExisting(t *testing.T) {
	app, _ := newDocumentTestApp(t)
	content := []byte("same bytes every time")

	body, contentType := multipartUpload(t, "a.txt", content)
	req := httptest.NewRequest(http.MethodPost, "/documents/upload", body)
	req.Header.Set("Content-Type", contentType)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var first dto.DocumentResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&first))

	body, contentType = multipartUpload(t, "b.txt", content)
	req = httptest.NewRequest(http.MethodPost, "/documents/upload", body)
	req.Header.Set("Content-Type", contentType)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var second dto.DocumentResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&second))
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.Duplicate)
}

func TestUploadRejectsDisallowedExtension(t *testing.T) {
	app, _ := newDocumentTestApp(t)

	body, contentType := multipartUpload(t, "malware.exe", []byte("nope"))
	req := httptest.NewRequest(http.MethodPost, "/documents/upload", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	app, _ := newDocumentTestApp(t)

	body, contentType := multipartUpload(t, "big.txt", bytes.Repeat([]byte("x"), 2048))
	req := httptest.NewRequest(http.MethodPost, "/documents/upload", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestListAndChunksAndDelete(t *testing.T) {
	app, docService := newDocumentTestApp(t)

	doc, created, err := docService.Upload(context.Background(), []byte("one two three four five six seven eight nine ten"), "doc.md")
	require.NoError(t, err)
	require.True(t, created)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/documents", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var list dto.ListDocumentsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	assert.Equal(t, 1, list.Total)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, fmt.Sprintf("/documents/%s/chunks", doc.ID), nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var chunks dto.ListChunksResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&chunks))
	assert.NotEmpty(t, chunks.Chunks)
	for i, c := range chunks.Chunks {
		assert.Equal(t, i, c.Seq)
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/documents/%s", doc.ID), nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, fmt.Sprintf("/documents/%s/chunks", doc.ID), nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestChunksInvalidID(t *testing.T) {
	app, _ := newDocumentTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/documents/not-a-uuid/chunks", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestChatCompletion(t *testing.T) {
	client := &stubLLM{completion: &llm.Completion{Content: "hello", Model: "stub-1", FinishReason: "stop"}}
	handler := NewChatHandler(client, zap.NewNop())
	app := fiber.New()
	app.Post("/chat", handler.Chat)

	payload, _ := json.Marshal(dto.ChatRequest{
		Messages:    []dto.ChatMessage{{Role: "user", Content: "hi"}},
		Temperature: 0.5,
	})
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out dto.ChatResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "hello", out.Content)
	assert.Equal(t, "stub-1", out.Model)
	assert.InDelta(t, 0.5, float64(client.gotOpts.Temperature), 1e-6)
}

func TestChatRejectsEmptyMessages(t *testing.T) {
	handler := NewChatHandler(&stubLLM{}, zap.NewNop())
	app := fiber.New()
	app.Post("/chat", handler.Chat)

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"messages":[]}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestChatRejectsUnknownRole(t *testing.T) {
	handler := NewChatHandler(&stubLLM{}, zap.NewNop())
	app := fiber.New()
	app.Post("/chat", handler.Chat)

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"messages":[{"role":"wizard","content":"hi"}]}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestChatUpstreamFailure(t *testing.T) {
	handler := NewChatHandler(&stubLLM{err: fmt.Errorf("provider down")}, zap.NewNop())
	app := fiber.New()
	app.Post("/chat", handler.Chat)

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"messages":[{"role":"user","content":"hi"}]}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
}

func TestChatStreamEmitsSSE(t *testing.T) {
	client := &stubLLM{deltas: []llm.StreamDelta{
		{Content: "hel"},
		{Content: "lo"},
		{Done: true},
	}}
	handler := NewChatHandler(client, zap.NewNop())
	app := fiber.New()
	app.Post("/chat", handler.Chat)

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"messages":[{"role":"user","content":"hi"}],"stream":true}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	body := string(raw)
	assert.Contains(t, body, `data: {"content":"hel"}`)
	assert.Contains(t, body, `data: {"content":"lo"}`)
	assert.Contains(t, body, "data: [DONE]")
}

func TestAuthTokenExchange(t *testing.T) {
	jwtManager := auth.NewJWTManager("secret", time.Hour)
	handler := NewAuthHandler(jwtManager, "the-key", zap.NewNop())
	app := fiber.New()
	app.Post("/auth/token", handler.Token)

	req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(`{"access_key":"the-key"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out dto.TokenResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.NotEmpty(t, out.Token)

	claims, err := jwtManager.ValidateToken(out.Token)
	require.NoError(t, err)
	assert.Equal(t, "api-client", claims.Subject)
}

func TestAuthTokenWrongKey(t *testing.T) {
	handler := NewAuthHandler(auth.NewJWTManager("secret", time.Hour), "the-key", zap.NewNop())
	app := fiber.New()
	app.Post("/auth/token", handler.Token)

	req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(`{"access_key":"wrong"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAuthTokenEmptyConfiguredKeyAlwaysRejects(t *testing.T) {
	handler := NewAuthHandler(auth.NewJWTManager("secret", time.Hour), "", zap.NewNop())
	app := fiber.New()
	app.Post("/auth/token", handler.Token)

	req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(`{"access_key":""}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	jwtManager := auth.NewJWTManager("secret", time.Hour)
	app := fiber.New()
	protected := app.Group("/api/v1", middleware.AuthMiddleware(jwtManager, zap.NewNop()))
	protected.Get("/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	token, _, err := jwtManager.GenerateToken()
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestKnowledgeLifecycleOverHTTP(t *testing.T) {
	api := newFakeKnowledgeAPI()
	handlePath := filepath.Join(t.TempDir(), "kb.json")
	knowledgeService := service.NewKnowledgeService(api, handlePath, zap.NewNop())
	handler := NewKnowledgeHandler(knowledgeService, zap.NewNop())

	app := fiber.New()
	app.Post("/knowledge", handler.Initialize)
	app.Post("/knowledge/files", handler.AddFile)
	app.Get("/knowledge", handler.Info)
	app.Delete("/knowledge", handler.Delete)

	// No knowledge base yet.
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/knowledge", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	// Adding a file before init conflicts.
	body, contentType := multipartUpload(t, "extra.txt", []byte("more"))
	req := httptest.NewRequest(http.MethodPost, "/knowledge/files", body)
	req.Header.Set("Content-Type", contentType)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	// Initialize.
	body = &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "seed.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("seed content"))
	require.NoError(t, err)
	require.NoError(t, writer.WriteField("name", "handbook"))
	require.NoError(t, writer.Close())
	req = httptest.NewRequest(http.MethodPost, "/knowledge", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var created dto.KnowledgeBaseResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal(t, "handbook", created.Name)
	assert.NotEmpty(t, created.VectorStoreID)

	// Info now reports the store and its files.
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/knowledge", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var info dto.KnowledgeBaseResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	assert.Equal(t, created.VectorStoreID, info.VectorStoreID)
	assert.Len(t, info.Files, 1)

	// Attach another file.
	body, contentType = multipartUpload(t, "extra.txt", []byte("more"))
	req = httptest.NewRequest(http.MethodPost, "/knowledge/files", body)
	req.Header.Set("Content-Type", contentType)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	// Delete, then info is gone and delete is 404.
	resp, err = app.Test(httptest.NewRequest(http.MethodDelete, "/knowledge", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodDelete, "/knowledge", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
