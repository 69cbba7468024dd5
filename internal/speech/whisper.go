package speech

import (
	"context"
	"io"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"

	"github.com/i474232898/vocal-weather/internal/logger"
)

// WhisperConfig configures an OpenAI-compatible transcription endpoint.
type WhisperConfig struct {
	APIKey   string
	BaseURL  string
	Model    string
	Language string // ISO-639-1, e.g. "fr"
}

// WhisperRecognizer transcribes audio through the OpenAI audio API.
type WhisperRecognizer struct {
	client   openai.Client
	model    string
	language string
	log      *zap.Logger
}

func NewWhisperRecognizer(cfg WhisperConfig, log *zap.Logger, opts ...option.RequestOption) *WhisperRecognizer {
	if cfg.Model == "" {
		cfg.Model = "whisper-1"
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(strings.TrimSpace(cfg.APIKey))}
	if trimmed := strings.TrimRight(cfg.BaseURL, "/"); trimmed != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(trimmed+"/"))
	}
	reqOpts = append(reqOpts, opts...)

	return &WhisperRecognizer{
		client:   openai.NewClient(reqOpts...),
		model:    cfg.Model,
		language: languageCode(cfg.Language),
		log:      logger.OrNop(log),
	}
}

func (w *WhisperRecognizer) Recognize(ctx context.Context, audio io.Reader) Result {
	params := openai.AudioTranscriptionNewParams{
		File:  openai.File(audio, "audio.wav", "audio/wav"),
		Model: openai.AudioModel(w.model),
	}
	if w.language != "" {
		params.Language = openai.String(w.language)
	}

	tr, err := w.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		w.log.Warn("whisper transcription failed", zap.Error(err))
		return canceled()
	}

	text := strings.TrimSpace(tr.Text)
	if text == "" {
		return noMatch()
	}
	w.log.Debug("speech recognized", zap.Int("text_len", len(text)))
	return recognized(text)
}

// languageCode turns a BCP-47 tag like "fr-FR" into "fr".
func languageCode(lang string) string {
	lang = strings.TrimSpace(lang)
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		lang = lang[:i]
	}
	return strings.ToLower(lang)
}
