package speech

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/i474232898/vocal-weather/internal/config"
)

// New picks the recognizer named by cfg.Provider.
func New(cfg config.SpeechConfig, client *http.Client, log *zap.Logger) Recognizer {
	if cfg.Provider == "whisper" {
		return NewWhisperRecognizer(WhisperConfig{
			APIKey:   cfg.OpenAIKey,
			BaseURL:  cfg.OpenAIBaseURL,
			Model:    cfg.WhisperModel,
			Language: cfg.Language,
		}, log)
	}
	return NewAzureRecognizer(AzureConfig{
		Key:      cfg.AzureKey,
		Region:   cfg.AzureRegion,
		Language: cfg.Language,
		Endpoint: cfg.AzureEndpoint,
	}, client, log)
}
