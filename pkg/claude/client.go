// Package claude wraps the Anthropic SDK behind the two operations the
// harvester needs: extracting the text of a legislative PDF and
// classifying a proposition's subjects.
package claude

import (
	"context"
	"encoding/base64"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// DefaultModel is used when the configuration does not pin one.
const DefaultModel = "claude-haiku-4-5-20251001"

const defaultMaxTokens = 8192

const extractionPrompt = `Você é um assistente especializado em extrair texto de documentos legislativos brasileiros.

Extraia o texto completo deste documento PDF, preservando:
- A estrutura de artigos, parágrafos e incisos
- Numeração e formatação legal
- Texto de justificativas e ementas

Retorne apenas o texto extraído em formato markdown, sem comentários adicionais.
Organize o texto de forma clara e estruturada.`

const classificationPrompt = `Você é um assistente especializado em classificar proposições legislativas brasileiras.

Leia o texto a seguir e liste os assuntos tratados, um por linha, sem numeração e sem comentários adicionais. Use no máximo sete palavras por assunto e no máximo oito assuntos.`

// Client defines the LLM operations used by the extraction adapter.
type Client interface {
	ExtractPDF(ctx context.Context, pdf []byte) (string, error)
	ClassifySubjects(ctx context.Context, text string) ([]string, error)
}

// Config carries the client settings.
type Config struct {
	APIKey    string
	Model     string
	MaxTokens int64
}

// sdkClient implements Client using the official anthropic-sdk-go.
type sdkClient struct {
	client    sdk.Client
	model     string
	maxTokens int64
}

// NewClient creates an LLM client backed by the SDK.
func NewClient(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, eris.New("claude: missing API key")
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &sdkClient{
		client:    sdk.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:     model,
		maxTokens: maxTokens,
	}, nil
}

func (c *sdkClient) ExtractPDF(ctx context.Context, pdf []byte) (string, error) {
	document := sdk.NewDocumentBlock(sdk.Base64PDFSourceParam{
		Data: base64.StdEncoding.EncodeToString(pdf),
	})

	msg, err := c.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(document, sdk.NewTextBlock(extractionPrompt)),
		},
	})
	if err != nil {
		return "", eris.Wrap(err, "claude: extract pdf")
	}
	logUsage(msg, "extract")
	return messageText(msg), nil
}

func (c *sdkClient) ClassifySubjects(ctx context.Context, text string) ([]string, error) {
	msg, err := c.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: c.maxTokens,
		System:    []sdk.TextBlockParam{{Text: classificationPrompt}},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(text)),
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "claude: classify subjects")
	}
	logUsage(msg, "classify")
	return ParseSubjectList(messageText(msg)), nil
}

// ParseSubjectList turns a model reply into a subject list. Replies are
// expected one subject per line; leading list markers and numbering are
// tolerated.
func ParseSubjectList(reply string) []string {
	var subjects []string
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*• \t")
		line = trimListNumber(line)
		if line != "" {
			subjects = append(subjects, line)
		}
	}
	return subjects
}

// trimListNumber strips prefixes like "1." or "2)".
func trimListNumber(line string) string {
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i == 0 || i >= len(line) {
		return line
	}
	if line[i] != '.' && line[i] != ')' {
		return line
	}
	return strings.TrimSpace(line[i+1:])
}

func messageText(msg *sdk.Message) string {
	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return strings.TrimSpace(b.String())
}

func logUsage(msg *sdk.Message, phase string) {
	zap.L().Debug("llm usage",
		zap.String("model", string(msg.Model)),
		zap.String("phase", phase),
		zap.Int64("input_tokens", msg.Usage.InputTokens),
		zap.Int64("output_tokens", msg.Usage.OutputTokens),
	)
}
