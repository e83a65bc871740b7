package bedrock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"makefoods"
)

const (
	// defaultModelID is an inference profile ID, not the foundation model's ID.
	// See https://docs.aws.amazon.com/bedrock/latest/userguide/inference-profiles.html.
	defaultModelID = "us.anthropic.claude-3-7-sonnet-20250219-v1:0"

	defaultMaxTokens   = 1024
	defaultTemperature = 0.7
	defaultTopP        = 0.9
)

var ErrUnsupportedFormat = makefoods.ErrUnsupportedImageFormat

type bedrockRuntimeClient interface {
	Converse(context.Context, *bedrockruntime.ConverseInput, ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

type Options struct {
	ModelID       string
	VisionModelID string
	MaxTokens     int32
	Temperature   *float32 // nil means defaultTemperature
	TopP          float32
}

// Client talks to Bedrock's Converse API. It serves both chat completions
// and image recognition.
type Client struct {
	brc  bedrockRuntimeClient
	opts Options
}

func NewClient(brc bedrockRuntimeClient, opts Options) *Client {
	if opts.ModelID == "" {
		opts.ModelID = defaultModelID
	}
	if opts.VisionModelID == "" {
		opts.VisionModelID = opts.ModelID
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	if opts.Temperature == nil {
		opts.Temperature = aws.Float32(defaultTemperature)
	} else {
		opts.Temperature = aws.Float32(*opts.Temperature)
	}
	if opts.TopP == 0 {
		opts.TopP = defaultTopP
	}
	return &Client{brc: brc, opts: opts}
}

// Complete sends the conversation and returns the assistant's text.
func (c *Client) Complete(ctx context.Context, req makefoods.ChatRequest) (string, error) {
	slog.Info("LLM_CLIENT: Invoked", "messages_len", len(req.Messages))

	var sys []types.SystemContentBlock
	var turns []types.Message
	for _, m := range req.Messages {
		switch m.Role {
		case makefoods.RoleSystem:
			sys = append(sys, &types.SystemContentBlockMemberText{Value: m.Content})
		case makefoods.RoleAssistant:
			turns = appendTurn(turns, types.ConversationRoleAssistant, m.Content)
		default:
			turns = appendTurn(turns, types.ConversationRoleUser, m.Content)
		}
	}

	// Converse requires the conversation to open with a user turn
	for len(turns) > 0 && turns[0].Role != types.ConversationRoleUser {
		turns = turns[1:]
	}
	if len(turns) == 0 {
		return "", errors.New("no user message to send")
	}

	modelID := c.opts.ModelID
	if req.Model != "" {
		modelID = req.Model
	}

	return c.converse(ctx, &bedrockruntime.ConverseInput{
		ModelId:         aws.String(modelID),
		System:          sys,
		Messages:        turns,
		InferenceConfig: c.inferenceConfig(req.Temperature, req.MaxTokens),
	})
}

// Recognize sends an image with an instruction and returns the model's text.
func (c *Client) Recognize(ctx context.Context, req makefoods.VisionRequest) (string, error) {
	format, err := imageFormat(req.Format)
	if err != nil {
		return "", err
	}
	if len(req.Image) == 0 {
		return "", errors.New("empty image")
	}

	slog.Info("LLM_CLIENT: Recognize invoked", "format", format, "image_bytes", len(req.Image))

	return c.converse(ctx, &bedrockruntime.ConverseInput{
		ModelId: aws.String(c.opts.VisionModelID),
		Messages: []types.Message{{
			Role: types.ConversationRoleUser,
			Content: []types.ContentBlock{
				&types.ContentBlockMemberImage{Value: types.ImageBlock{
					Format: format,
					Source: &types.ImageSourceMemberBytes{Value: req.Image},
				}},
				&types.ContentBlockMemberText{Value: req.Instruction},
			},
		}},
		InferenceConfig: c.inferenceConfig(nil, 0),
	})
}

func (c *Client) inferenceConfig(temperature *float32, maxTokens int32) *types.InferenceConfiguration {
	if temperature == nil {
		temperature = c.opts.Temperature
	}
	if maxTokens == 0 {
		maxTokens = c.opts.MaxTokens
	}
	return &types.InferenceConfiguration{
		MaxTokens:   aws.Int32(maxTokens),
		Temperature: aws.Float32(*temperature),
		TopP:        aws.Float32(c.opts.TopP),
	}
}

func (c *Client) converse(ctx context.Context, in *bedrockruntime.ConverseInput) (string, error) {
	out, err := c.brc.Converse(ctx, in)
	if err != nil {
		slog.Error("LLM_CLIENT: Bedrock invoke failed", "model", aws.ToString(in.ModelId), "error", err)
		return "", fmt.Errorf("bedrock converse: %w", err)
	}

	attrs := []any{"stop_reason", out.StopReason}
	if out.Metrics != nil {
		attrs = append(attrs, "latency_ms", aws.ToInt64(out.Metrics.LatencyMs))
	}
	if out.Usage != nil {
		attrs = append(attrs,
			"input_tokens", aws.ToInt32(out.Usage.InputTokens),
			"output_tokens", aws.ToInt32(out.Usage.OutputTokens))
	}
	slog.Info("LLM_CLIENT: Bedrock invoke succeeded", attrs...)

	switch out.StopReason {
	case types.StopReasonGuardrailIntervened, types.StopReasonContentFiltered:
		slog.Warn("LLM_CLIENT: Model response blocked by Bedrock safety filters")
		return "", errors.New("model response blocked by Bedrock safety filters")
	case types.StopReasonMaxTokens:
		slog.Warn("LLM_CLIENT: Model hit MaxTokens limit; returning truncated text")
	}

	text := textFromOutput(out)
	if strings.TrimSpace(text) == "" {
		return "", errors.New("empty response from model")
	}
	return text, nil
}

// appendTurn merges consecutive messages from the same role, which Converse rejects.
func appendTurn(turns []types.Message, role types.ConversationRole, text string) []types.Message {
	block := &types.ContentBlockMemberText{Value: text}
	if n := len(turns); n > 0 && turns[n-1].Role == role {
		turns[n-1].Content = append(turns[n-1].Content, block)
		return turns
	}
	return append(turns, types.Message{Role: role, Content: []types.ContentBlock{block}})
}

func imageFormat(format string) (types.ImageFormat, error) {
	switch strings.ToLower(strings.TrimPrefix(format, "image/")) {
	case "png":
		return types.ImageFormatPng, nil
	case "jpg", "jpeg":
		return types.ImageFormatJpeg, nil
	case "gif":
		return types.ImageFormatGif, nil
	case "webp":
		return types.ImageFormatWebp, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// textFromOutput joins every text block of the assistant message with '\n'.
func textFromOutput(out *bedrockruntime.ConverseOutput) string {
	if out == nil || out.Output == nil {
		return ""
	}

	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok || msg == nil {
		return ""
	}

	texts := make([]string, 0, len(msg.Value.Content))
	for _, cb := range msg.Value.Content {
		if t, ok := cb.(*types.ContentBlockMemberText); ok && t != nil && t.Value != "" {
			texts = append(texts, t.Value)
		}
	}
	return strings.Join(texts, "\n")
}
