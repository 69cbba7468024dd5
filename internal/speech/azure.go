package speech

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/i474232898/vocal-weather/internal/logger"
)

// AzureConfig holds the Azure Speech resource settings.
type AzureConfig struct {
	Key      string
	Region   string
	Language string
	// Endpoint overrides the regional short-audio endpoint.
	Endpoint string
}

// AzureRecognizer calls the Azure Speech short-audio REST API.
type AzureRecognizer struct {
	cfg    AzureConfig
	client *http.Client
	log    *zap.Logger
}

func NewAzureRecognizer(cfg AzureConfig, client *http.Client, log *zap.Logger) *AzureRecognizer {
	if cfg.Language == "" {
		cfg.Language = "fr-FR"
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = fmt.Sprintf(
			"https://%s.stt.speech.microsoft.com/speech/recognition/conversation/cognitiveservices/v1",
			cfg.Region,
		)
	}
	return &AzureRecognizer{cfg: cfg, client: client, log: logger.OrNop(log)}
}

type azureResponse struct {
	RecognitionStatus string `json:"RecognitionStatus"`
	DisplayText       string `json:"DisplayText"`
}

func (r *AzureRecognizer) Recognize(ctx context.Context, audio io.Reader) Result {
	if r.cfg.Key == "" {
		r.log.Error("azure speech key is not configured")
		return connectionFailed()
	}

	values := url.Values{}
	values.Set("language", r.cfg.Language)
	values.Set("format", "simple")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.Endpoint+"?"+values.Encode(), audio)
	if err != nil {
		r.log.Error("build azure speech request", zap.Error(err))
		return connectionFailed()
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", r.cfg.Key)
	req.Header.Set("Content-Type", "audio/wav; codecs=audio/pcm; samplerate=16000")
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		r.log.Warn("azure speech request failed", zap.Error(err))
		return connectionFailed()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		r.log.Warn("azure speech recognition canceled",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		return canceled()
	}

	var payload azureResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		r.log.Warn("decode azure speech response", zap.Error(err))
		return canceled()
	}

	switch payload.RecognitionStatus {
	case "Success":
		text := strings.TrimSpace(payload.DisplayText)
		if text == "" {
			return noMatch()
		}
		r.log.Debug("speech recognized", zap.Int("text_len", len(text)))
		return recognized(text)
	case "NoMatch", "InitialSilenceTimeout", "BabbleTimeout":
		return noMatch()
	default:
		r.log.Warn("azure speech recognition canceled", zap.String("recognition_status", payload.RecognitionStatus))
		return canceled()
	}
}
