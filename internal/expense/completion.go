package expense

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"playground/internal/logger"
	"playground/internal/ocr"
	"playground/pkg/models"
)

// TextRecognizer turns an image file into text. *ocr.Analyzer satisfies it.
type TextRecognizer interface {
	AnalyzeBasic(ctx context.Context, imagePath string) (*ocr.Analysis, error)
}

// CompletionConfig configures the ChatGPT metadata completion.
type CompletionConfig struct {
	Model       string  // e.g. gpt-4o-mini
	Temperature float32 // ChatGPT temperature
	MaxRetries  int     // ChatGPT attempts per document
}

// completionResponse is the JSON object ChatGPT is asked to return.
type completionResponse struct {
	Amount string `json:"amount"`
	Date   string `json:"date"`
	Seller string `json:"seller"`
	Item   string `json:"item"`
}

// CompletionExtractor reads receipt metadata by running OCR on the document
// and asking ChatGPT to pick out the fields.
type CompletionExtractor struct {
	recognizer   TextRecognizer
	openaiClient *openai.Client
	config       CompletionConfig
	log          zerolog.Logger
}

// NewCompletionExtractor creates a CompletionExtractor. Zero config values
// fall back to gpt-4o-mini, temperature 0.1 and three attempts.
func NewCompletionExtractor(recognizer TextRecognizer, openaiClient *openai.Client, config CompletionConfig) *CompletionExtractor {
	if config.Model == "" {
		config.Model = openai.GPT4oMini
	}
	if config.Temperature == 0 {
		config.Temperature = 0.1
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 3
	}
	return &CompletionExtractor{
		recognizer:   recognizer,
		openaiClient: openaiClient,
		config:       config,
		log:          logger.WithComponent("expense-completion"),
	}
}

// Extract implements relay.MetadataExtractor. Only images are supported.
func (c *CompletionExtractor) Extract(ctx context.Context, content []byte, mimeType string) (models.TransferMetadata, error) {
	const op = "CompleteMetadata"

	mtype := mimetype.Detect(content)
	if mimeType != "" {
		if m := mimetype.Lookup(baseMimeType(mimeType)); m != nil {
			mtype = m
		}
	}
	if !strings.HasPrefix(mtype.String(), "image/") {
		return models.TransferMetadata{}, NewExtractionError(op, ErrUnsupportedFormat, mtype.String())
	}

	text, err := c.recognize(ctx, content, mtype.Extension())
	if err != nil {
		return models.TransferMetadata{}, NewExtractionError(op, ErrProcessingFailed, err.Error())
	}
	if strings.TrimSpace(text) == "" {
		return models.TransferMetadata{}, NewExtractionError(op, ErrNoEntities, "no text recognised in document")
	}

	resp, err := c.complete(ctx, text)
	if err != nil {
		return models.TransferMetadata{}, WrapExtractionError(op, err, "ChatGPT extraction failed")
	}

	meta := c.toMetadata(resp)
	if meta == (models.TransferMetadata{}) {
		return meta, NewExtractionError(op, ErrNoEntities, "")
	}

	c.log.Info().
		Str("amount", meta.Amount).
		Str("date", meta.Date).
		Str("seller", meta.Seller).
		Str("item", meta.Item).
		Msg("ChatGPT extraction completed")

	return meta, nil
}

// recognize writes content to a temp file and runs basic mode OCR on it.
func (c *CompletionExtractor) recognize(ctx context.Context, content []byte, ext string) (string, error) {
	tmp, err := os.CreateTemp("", "relay-*"+ext)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err := os.Remove(tmp.Name()); err != nil {
			c.log.Warn().Err(err).Str("path", tmp.Name()).Msg("Failed to remove temp file")
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}

	analysis, err := c.recognizer.AnalyzeBasic(ctx, tmp.Name())
	if err != nil {
		return "", err
	}

	c.log.Info().
		Int("text_length", len(analysis.Text)).
		Int("blocks", analysis.Stats.TotalBlocks).
		Msg("OCR extraction completed")
	return analysis.Text, nil
}

// complete asks ChatGPT for the four fields, retrying on unusable answers.
func (c *CompletionExtractor) complete(ctx context.Context, text string) (*completionResponse, error) {
	const op = "complete"

	c.log.Debug().
		Int("prompt_length", len(text)).
		Str("model", c.config.Model).
		Float32("temperature", c.config.Temperature).
		Msg("Sending completion request to ChatGPT")

	var lastErr error
	for attempt := 1; attempt <= c.config.MaxRetries; attempt++ {
		resp, err := c.openaiClient.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       c.config.Model,
			Temperature: c.config.Temperature,
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: "OCR text:\n" + text},
			},
			MaxTokens: 300,
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			c.log.Warn().
				Err(err).
				Int("attempt", attempt).
				Int("max_retries", c.config.MaxRetries).
				Msg("ChatGPT request failed, retrying")
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("no response choices from ChatGPT")
			continue
		}

		content := resp.Choices[0].Message.Content
		c.log.Debug().Str("response", content).Msg("Received ChatGPT response")

		var parsed completionResponse
		if err := json.Unmarshal([]byte(stripCodeFence(content)), &parsed); err != nil {
			lastErr = fmt.Errorf("failed to parse ChatGPT JSON response: %w", err)
			c.log.Warn().
				Err(err).
				Int("attempt", attempt).
				Msg("Failed to parse ChatGPT response, retrying")
			continue
		}
		return &parsed, nil
	}

	return nil, fmt.Errorf("%s: all %d attempts failed, last error: %w", op, c.config.MaxRetries, lastErr)
}

// toMetadata normalises the ChatGPT answer; unparseable fields are dropped.
func (c *CompletionExtractor) toMetadata(resp *completionResponse) models.TransferMetadata {
	meta := models.TransferMetadata{
		Seller: strings.TrimSpace(resp.Seller),
		Item:   strings.TrimSpace(resp.Item),
	}
	if resp.Amount != "" {
		if amount, err := parseWholeUnits(resp.Amount); err == nil {
			meta.Amount = amount
		} else {
			c.log.Warn().Err(err).Str("amount", resp.Amount).Msg("Failed to parse amount")
		}
	}
	if resp.Date != "" {
		if date, err := parseDate(resp.Date); err == nil {
			meta.Date = date
		} else {
			c.log.Warn().Err(err).Str("date", resp.Date).Msg("Failed to parse date")
		}
	}
	return meta
}

// stripCodeFence removes a ```json fence some models wrap around JSON.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

const systemPrompt = `You read OCR text of a purchase receipt and extract four fields.

Return ONLY a JSON object with exactly these keys:
{
  "amount": "total amount paid, digits only, no currency symbol",
  "date": "purchase date as YYYY-MM-DD",
  "seller": "store or company name",
  "item": "name of the first purchased item"
}

Use an empty string for any value that is not present in the text.
OCR text may contain Korean; keep names in their original language.`
