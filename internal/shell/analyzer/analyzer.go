// Package analyzer inspects a project directory and suggests how to deploy
// it. The heavy lifting is delegated to a Groq-hosted model through the
// OpenAI-compatible chat completion API; everything around the call is
// deliberately forgiving. Analysis never fails a deploy: when the model is
// unreachable or its reply unusable, a low-confidence fallback is returned
// instead of an error.
package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/artpar/miniploy/internal/shell/transport"
)

const (
	// DefaultBaseURL is the Groq OpenAI-compatible endpoint.
	DefaultBaseURL = "https://api.groq.com/openai/v1"

	// DefaultModel is used when GROQ_MODEL is unset.
	DefaultModel = "openai/gpt-oss-120b"
)

// Recommendation scores one platform's fit for the project.
type Recommendation struct {
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

// Analysis is the suggested deploy configuration for a project.
type Analysis struct {
	Framework      string  `json:"framework"`
	Runtime        string  `json:"runtime"`
	BuildCommand   string  `json:"build_command"`
	StartCommand   string  `json:"start_command"`
	InstallCommand string  `json:"install_command"`
	PublishDir     string  `json:"publish_dir"`
	Summary        string  `json:"summary"`
	Confidence     float64 `json:"confidence"`

	EnvVarsNeeded []string `json:"env_vars_needed"`

	// Dockerfile is the scanned Dockerfile content, when one exists. Its
	// presence forces Runtime to "docker".
	Dockerfile string `json:"-"`

	PlatformRecommendations map[string]Recommendation `json:"platform_recommendations"`
}

// Analyzer produces deploy suggestions for project directories.
type Analyzer struct {
	client *transport.Client
	apiKey string
	model  string
	logger *slog.Logger
}

// Config holds analyzer configuration. Zero values fall back to the Groq
// defaults and the GROQ_API_KEY / GROQ_MODEL environment variables.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
}

// New creates an analyzer.
func New(cfg Config, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GROQ_API_KEY")
	}
	if cfg.Model == "" {
		cfg.Model = os.Getenv("GROQ_MODEL")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	return &Analyzer{
		client: transport.NewClient(transport.Config{BaseURL: cfg.BaseURL}, logger),
		apiKey: cfg.APIKey,
		model:  cfg.Model,
		logger: logger.With("component", "analyzer"),
	}
}

const systemPrompt = `You are a deployment configuration analyzer. Given the key files of a project, reply with ONLY a JSON object (no prose, no markdown) with these keys:
framework, runtime (static|node|python|go|ruby|docker), build_command, start_command, install_command, publish_dir, env_vars_needed (array of strings), summary, confidence (0..1), platform_recommendations (object keyed by vercel|netlify|render|railway|flyio, each {score: 0..1, reason}).
Use empty strings for commands that do not apply.`

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Analyze scans dir and asks the model for a deploy configuration. The
// returned analysis is always usable; degraded inputs lower Confidence
// instead of producing an error.
func (a *Analyzer) Analyze(ctx context.Context, dir string) *Analysis {
	files := Scan(dir)

	if len(files) == 0 {
		return &Analysis{
			Framework:  "unknown",
			Runtime:    "static",
			PublishDir: ".",
			Summary:    "No recognizable project files found; assuming a plain static site.",
			Confidence: 0.3,
		}
	}

	dockerfile := files["Dockerfile"]

	if a.apiKey == "" {
		analysis := &Analysis{
			Framework:  "unknown",
			Runtime:    "static",
			PublishDir: ".",
			Summary:    "GROQ_API_KEY is not set; skipped AI analysis. Configure the platform manually or export the key.",
			Confidence: 0,
		}
		applyDockerfile(analysis, dockerfile)
		return analysis
	}

	reply, err := a.complete(ctx, buildPrompt(files))
	if err != nil {
		a.logger.Warn("analysis call failed", "error", err)
		analysis := &Analysis{
			Framework:  "unknown",
			Runtime:    "static",
			PublishDir: ".",
			Summary:    fmt.Sprintf("AI analysis unavailable (%v); falling back to a static-site assumption.", err),
			Confidence: 0,
		}
		applyDockerfile(analysis, dockerfile)
		return analysis
	}

	var analysis Analysis
	if err := json.Unmarshal([]byte(stripFences(reply)), &analysis); err != nil {
		a.logger.Warn("unparsable analysis reply", "error", err)
		return &Analysis{
			Framework:  "unknown",
			Runtime:    "static",
			PublishDir: ".",
			Summary:    "The model reply was not valid JSON; configure the deployment manually.",
			Confidence: 0,
		}
	}

	applyDockerfile(&analysis, dockerfile)
	return &analysis
}

// applyDockerfile records the Dockerfile and forces the docker runtime; an
// image definition beats any framework guess.
func applyDockerfile(a *Analysis, dockerfile string) {
	if dockerfile == "" {
		return
	}
	a.Dockerfile = dockerfile
	a.Runtime = "docker"
}

func (a *Analyzer) complete(ctx context.Context, prompt string) (string, error) {
	payload := chatRequest{
		Model: a.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.3,
		MaxTokens:   2000,
	}

	resp, err := a.client.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   "/chat/completions",
		Token:  a.apiKey,
		Body:   payload,
	})
	if err != nil {
		return "", err
	}

	var completion chatResponse
	if err := transport.DecodeJSON(resp, &completion); err != nil {
		return "", err
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("empty completion")
	}
	return completion.Choices[0].Message.Content, nil
}

func buildPrompt(files map[string]string) string {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("Project files:\n")
	for _, name := range names {
		fmt.Fprintf(&b, "\n--- %s ---\n%s\n", name, files[name])
	}
	return b.String()
}

// stripFences removes a markdown code fence wrapped around the JSON reply.
// Models add them even when told not to.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
