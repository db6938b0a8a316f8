// Package gateway is the single seam between ConceptLens and the Gemini
// backend. It owns prompt construction, schema enforcement, media polling,
// and error classification; nothing above it ever sees raw API responses.
package gateway

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"

	"conceptlens/internal/logging"
	"conceptlens/internal/types"
)

// Config configures the Gemini gateway.
type Config struct {
	APIKey string

	AnalysisModel string // structured analysis + chat
	ImageModel    string // image synthesis
	VideoModel    string // Veo video synthesis

	// Timeout bounds single-shot calls (analysis, image, chat) when the
	// caller's context has no deadline. The video poll loop is exempt.
	Timeout time.Duration

	// PollInterval is the wait between video operation status checks.
	PollInterval time.Duration
}

// Client is the capability surface the orchestrator depends on. Production
// code uses *Gemini; tests substitute scripted fakes.
type Client interface {
	Analyze(ctx context.Context, input types.TopicInput, level types.EducationLevel) (types.AnalysisResult, error)
	GenerateImage(ctx context.Context, prompt string) (string, error)
	GenerateVideo(ctx context.Context, prompt string) (string, error)
	GenerateVideoWithAuth(ctx context.Context, prompt string, selector KeySelector) (string, error)
	ChatTurn(ctx context.Context, history []types.ChatMessage, newMessage string, level types.EducationLevel, analysis types.AnalysisResult) (string, error)
}

// Gemini implements Client against the real Gemini API.
type Gemini struct {
	cfg Config

	clientMu sync.RWMutex
	client   *genai.Client

	// Rate gate: minimum spacing between outbound requests.
	mu          sync.Mutex
	lastRequest time.Time

	// httpClient fetches finished video bytes from the returned URI.
	httpClient *http.Client
}

var _ Client = (*Gemini)(nil)

// New creates a Gemini gateway from config.
func New(ctx context.Context, cfg Config) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key not configured")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 10 * time.Second
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Gemini{
		cfg:        cfg,
		client:     client,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// reconfigure swaps the underlying client to use a different API key.
// Called after the user selects a new key mid-run.
func (g *Gemini) reconfigure(ctx context.Context, apiKey string) error {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return fmt.Errorf("failed to recreate Gemini client: %w", err)
	}

	g.clientMu.Lock()
	g.cfg.APIKey = apiKey
	g.client = client
	g.clientMu.Unlock()

	logging.Auth("gateway reconfigured with new API key")
	return nil
}

func (g *Gemini) getClient() *genai.Client {
	g.clientMu.RLock()
	defer g.clientMu.RUnlock()
	return g.client
}

func (g *Gemini) apiKey() string {
	g.clientMu.RLock()
	defer g.clientMu.RUnlock()
	return g.cfg.APIKey
}

// ensureTimeout applies the configured timeout if the context has no
// deadline (centralized timeout handling).
func (g *Gemini) ensureTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		return context.WithTimeout(ctx, g.cfg.Timeout)
	}
	return ctx, func() {}
}

// rateGate enforces minimum spacing between outbound requests.
func (g *Gemini) rateGate() {
	g.mu.Lock()
	elapsed := time.Since(g.lastRequest)
	if elapsed < 100*time.Millisecond {
		time.Sleep(100*time.Millisecond - elapsed)
	}
	g.lastRequest = time.Now()
	g.mu.Unlock()
}

// Analyze runs one structured analysis of the input at the given level.
// The response must satisfy the full seven-field schema or the call fails;
// there is no partial acceptance.
func (g *Gemini) Analyze(ctx context.Context, input types.TopicInput, level types.EducationLevel) (types.AnalysisResult, error) {
	ctx, cancel := g.ensureTimeout(ctx)
	defer cancel()

	startTime := time.Now()
	logging.GatewayDebug("Analyze: model=%s level=%q text_len=%d has_image=%t",
		g.cfg.AnalysisModel, level, len(input.Text), input.HasImage())

	parts := []*genai.Part{{Text: buildAnalysisPrompt(level)}}
	if input.Text != "" {
		parts = append(parts, &genai.Part{Text: "User Query/Context: " + input.Text})
	}
	if input.HasImage() {
		mime := input.ImageMIME
		if mime == "" {
			mime = "image/jpeg"
		}
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{Data: input.ImageData, MIMEType: mime},
		})
	}

	g.rateGate()

	resp, err := g.getClient().Models.GenerateContent(ctx, g.cfg.AnalysisModel,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)},
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   analysisSchema(),
		})
	if err != nil {
		logging.GatewayError("Analyze: request failed after %v: %v", time.Since(startTime), err)
		return types.AnalysisResult{}, &AnalysisError{Err: err}
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return types.AnalysisResult{}, &AnalysisError{Err: fmt.Errorf("empty response")}
	}

	var result types.AnalysisResult
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		logging.GatewayError("Analyze: malformed JSON response: %v", err)
		return types.AnalysisResult{}, &AnalysisError{Err: fmt.Errorf("malformed response: %w", err)}
	}
	if err := result.Validate(); err != nil {
		logging.GatewayError("Analyze: incomplete response: %v", err)
		return types.AnalysisResult{}, &AnalysisError{Err: err}
	}

	logging.Gateway("Analyze: completed in %v title=%q", time.Since(startTime), result.SummaryTitle)
	return result, nil
}

// GenerateImage synthesizes one image from the prompt and returns it as a
// base64 data URI, so callers never manage temp files or object URLs.
func (g *Gemini) GenerateImage(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := g.ensureTimeout(ctx)
	defer cancel()

	startTime := time.Now()
	logging.GatewayDebug("GenerateImage: model=%s prompt_len=%d", g.cfg.ImageModel, len(prompt))

	g.rateGate()

	resp, err := g.getClient().Models.GenerateContent(ctx, g.cfg.ImageModel,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		&genai.GenerateContentConfig{})
	if err != nil {
		logging.GatewayError("GenerateImage: request failed after %v: %v", time.Since(startTime), err)
		return "", &MediaError{Op: "image", Err: err}
	}

	// The image arrives as an inline-data part; position is not guaranteed.
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				mime := part.InlineData.MIMEType
				if mime == "" {
					mime = "image/png"
				}
				uri := fmt.Sprintf("data:%s;base64,%s", mime,
					base64.StdEncoding.EncodeToString(part.InlineData.Data))
				logging.Gateway("GenerateImage: completed in %v bytes=%d", time.Since(startTime), len(part.InlineData.Data))
				return uri, nil
			}
		}
	}

	return "", &MediaError{Op: "image", Err: fmt.Errorf("no image data found in response")}
}

// GenerateVideo starts an asynchronous video job and polls it to completion.
// The poll loop has no upper bound of its own; it stops only on a terminal
// operation state or context cancellation. Returns the finished video as a
// base64 data URI.
func (g *Gemini) GenerateVideo(ctx context.Context, prompt string) (string, error) {
	startTime := time.Now()
	logging.GatewayDebug("GenerateVideo: model=%s prompt_len=%d", g.cfg.VideoModel, len(prompt))

	g.rateGate()

	op, err := g.getClient().Models.GenerateVideos(ctx, g.cfg.VideoModel, prompt, nil,
		&genai.GenerateVideosConfig{
			NumberOfVideos: 1,
			Resolution:     "720p",
			AspectRatio:    "16:9",
		})
	if err != nil {
		logging.GatewayError("GenerateVideo: job submission failed: %v", err)
		return "", g.classifyVideoError(err)
	}

	polls := 0
	for !op.Done {
		select {
		case <-ctx.Done():
			logging.GatewayError("GenerateVideo: cancelled after %v (%d polls)", time.Since(startTime), polls)
			return "", &MediaError{Op: "video", Err: ctx.Err()}
		case <-time.After(g.cfg.PollInterval):
		}

		op, err = g.getClient().Operations.GetVideosOperation(ctx, op, nil)
		if err != nil {
			logging.GatewayError("GenerateVideo: poll failed after %v: %v", time.Since(startTime), err)
			return "", g.classifyVideoError(err)
		}
		polls++
	}

	if op.Response == nil || len(op.Response.GeneratedVideos) == 0 ||
		op.Response.GeneratedVideos[0].Video == nil ||
		op.Response.GeneratedVideos[0].Video.URI == "" {
		return "", &MediaError{Op: "video", Err: fmt.Errorf("video generation completed but no URI returned")}
	}

	uri, err := g.fetchVideo(ctx, op.Response.GeneratedVideos[0].Video.URI)
	if err != nil {
		return "", &MediaError{Op: "video", Err: err}
	}

	logging.Gateway("GenerateVideo: completed in %v (%d polls)", time.Since(startTime), polls)
	return uri, nil
}

// GenerateVideoWithAuth wraps GenerateVideo with the one-shot credential
// retry: if the backend rejects the current key with a not-found class
// error and the user has never explicitly selected a key, the selector is
// consulted once, the gateway is reconfigured, and the job is retried.
// A second rejection is final.
func (g *Gemini) GenerateVideoWithAuth(ctx context.Context, prompt string, selector KeySelector) (string, error) {
	return generateWithKeyRetry(ctx, prompt, selector, g.GenerateVideo, g.reconfigure)
}

// classifyVideoError maps not-found class rejections to AuthError so the
// retry layer and the UI can distinguish credential problems from transient
// generation failures.
func (g *Gemini) classifyVideoError(err error) error {
	if IsNotFoundClass(err) {
		return &AuthError{Err: err}
	}
	return &MediaError{Op: "video", Err: err}
}

// fetchVideo downloads the finished video bytes. The URI requires the API
// key as a query parameter.
func (g *Gemini) fetchVideo(ctx context.Context, videoURI string) (string, error) {
	sep := "?"
	if strings.Contains(videoURI, "?") {
		sep = "&"
	}
	url := videoURI + sep + "key=" + g.apiKey()

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create video fetch request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch video: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("video fetch failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read video body: %w", err)
	}

	return "data:video/mp4;base64," + base64.StdEncoding.EncodeToString(data), nil
}

// ChatTurn runs one follow-up exchange. History is the transcript so far
// (excluding newMessage); the level and analysis re-anchor the persona every
// turn so level changes take effect immediately.
func (g *Gemini) ChatTurn(ctx context.Context, history []types.ChatMessage, newMessage string, level types.EducationLevel, analysis types.AnalysisResult) (string, error) {
	ctx, cancel := g.ensureTimeout(ctx)
	defer cancel()

	startTime := time.Now()
	logging.GatewayDebug("ChatTurn: model=%s level=%q history=%d msg_len=%d",
		g.cfg.AnalysisModel, level, len(history), len(newMessage))

	contents := make([]*genai.Content, 0, len(history))
	for _, msg := range history {
		contents = append(contents, genai.NewContentFromText(msg.Text, genai.Role(msg.Role)))
	}

	g.rateGate()

	chat, err := g.getClient().Chats.Create(ctx, g.cfg.AnalysisModel,
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(buildChatSystemInstruction(level, analysis), genai.RoleUser),
		}, contents)
	if err != nil {
		logging.GatewayError("ChatTurn: chat creation failed: %v", err)
		return "", &ChatError{Err: err}
	}

	resp, err := chat.SendMessage(ctx, genai.Part{Text: newMessage})
	if err != nil {
		logging.GatewayError("ChatTurn: send failed after %v: %v", time.Since(startTime), err)
		return "", &ChatError{Err: err}
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		logging.GatewayError("ChatTurn: empty reply after %v", time.Since(startTime))
		return "", &ChatError{Err: fmt.Errorf("empty reply")}
	}

	logging.Gateway("ChatTurn: completed in %v reply_len=%d", time.Since(startTime), len(text))
	return text, nil
}
