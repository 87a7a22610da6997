// Package grader wraps the Azure Speech pronunciation-assessment service.
// Every terminal outcome of the remote call is converted into a ScoreResult;
// callers never see a transport error or a panic from this package.
package grader

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/example/jdoitbot/pkg/models"
)

const (
	// Language is the recognition language for the practice program.
	Language = "ko-KR"

	endpointFormat = "https://%s.stt.speech.microsoft.com/speech/recognition/conversation/cognitiveservices/v1"

	// requestTimeout bounds the blocking round-trip to the scoring service.
	// A timeout surfaces as an error-status result.
	requestTimeout = 60 * time.Second
)

// Korean user-facing messages, matching the front-end copy.
const (
	msgNoMatch  = "음성을 인식할 수 없습니다. (No Match)"
	msgCanceled = "인식 취소됨/오류: %s"
	msgUnknown  = "알 수 없는 오류 발생"
)

// Gateway grades recordings against reference text using the Azure Speech
// pronunciation-assessment API.
type Gateway struct {
	key      string
	endpoint string
	client   *http.Client
}

// New creates a Gateway for the given subscription key and service region.
func New(key, region string) (*Gateway, error) {
	if key == "" || region == "" {
		return nil, fmt.Errorf("speech API key and region are required")
	}
	return &Gateway{
		key:      key,
		endpoint: fmt.Sprintf(endpointFormat, region),
		client:   &http.Client{Timeout: requestTimeout},
	}, nil
}

// NewFromEnv creates a Gateway from AZURE_SPEECH_KEY and AZURE_SPEECH_REGION.
func NewFromEnv() (*Gateway, error) {
	return New(os.Getenv("AZURE_SPEECH_KEY"), os.Getenv("AZURE_SPEECH_REGION"))
}

// assessmentParams is the Pronunciation-Assessment header payload.
type assessmentParams struct {
	ReferenceText string `json:"ReferenceText"`
	GradingSystem string `json:"GradingSystem"`
	Granularity   string `json:"Granularity"`
	EnableMiscue  bool   `json:"EnableMiscue"`
}

// recognitionResponse is the detailed-format response of the speech API.
type recognitionResponse struct {
	RecognitionStatus string `json:"RecognitionStatus"`
	DisplayText       string `json:"DisplayText"`
	NBest             []struct {
		Display           string  `json:"Display"`
		AccuracyScore     float64 `json:"AccuracyScore"`
		FluencyScore      float64 `json:"FluencyScore"`
		CompletenessScore float64 `json:"CompletenessScore"`
		PronScore         float64 `json:"PronScore"`
		Words             []struct {
			Word          string  `json:"Word"`
			AccuracyScore float64 `json:"AccuracyScore"`
			ErrorType     string  `json:"ErrorType"`
		} `json:"Words"`
	} `json:"NBest"`
}

// Grade evaluates the WAV file at audioPath (mono, 16 kHz) against
// referenceText. The result always has status success or error; remote and
// local failures are folded into the error shape.
func (g *Gateway) Grade(ctx context.Context, audioPath, referenceText string) models.ScoreResult {
	audio, err := os.ReadFile(audioPath)
	if err != nil {
		return errorResult("Audio file not found.")
	}

	params := assessmentParams{
		ReferenceText: referenceText,
		GradingSystem: "HundredMark",
		Granularity:   "Phoneme",
		EnableMiscue:  true,
	}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return errorResult(fmt.Sprintf("failed to encode assessment config: %v", err))
	}

	resp, err := g.recognize(ctx, audio, url.Values{
		"language": {Language},
		"format":   {"detailed"},
	}, base64.StdEncoding.EncodeToString(paramsJSON))
	if err != nil {
		log.Printf("Grading request failed: %v", err)
		return errorResult(err.Error())
	}

	switch resp.RecognitionStatus {
	case "Success":
		if len(resp.NBest) == 0 {
			return errorResult(msgUnknown)
		}
		best := resp.NBest[0]
		result := models.ScoreResult{
			Status:         models.StatusSuccess,
			Accuracy:       best.AccuracyScore,
			Fluency:        best.FluencyScore,
			Completeness:   best.CompletenessScore,
			Pronunciation:  best.PronScore,
			RecognizedText: resp.DisplayText,
		}
		if result.RecognizedText == "" {
			result.RecognizedText = best.Display
		}
		for _, w := range best.Words {
			result.Words = append(result.Words, models.WordFeedback{
				Word:      w.Word,
				Accuracy:  w.AccuracyScore,
				ErrorType: w.ErrorType,
			})
		}
		return result
	case "NoMatch", "InitialSilenceTimeout", "BabbleTimeout":
		return errorResult(msgNoMatch)
	case "Error":
		return errorResult(fmt.Sprintf(msgCanceled, "Error"))
	default:
		return errorResult(msgUnknown)
	}
}

// Recognize transcribes the WAV file at audioPath without assessment. It
// returns an empty string when nothing could be recognized for any reason.
func (g *Gateway) Recognize(ctx context.Context, audioPath string) string {
	audio, err := os.ReadFile(audioPath)
	if err != nil {
		log.Printf("Error reading audio for recognition: %v", err)
		return ""
	}

	resp, err := g.recognize(ctx, audio, url.Values{
		"language": {Language},
		"format":   {"simple"},
	}, "")
	if err != nil {
		log.Printf("Recognition request failed: %v", err)
		return ""
	}
	if resp.RecognitionStatus != "Success" {
		return ""
	}
	return strings.TrimSpace(resp.DisplayText)
}

func (g *Gateway) recognize(ctx context.Context, audio []byte, query url.Values, assessment string) (*recognitionResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.endpoint+"?"+query.Encode(), bytes.NewReader(audio))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", g.key)
	req.Header.Set("Content-Type", "audio/wav; codecs=audio/pcm; samplerate=16000")
	req.Header.Set("Accept", "application/json")
	if assessment != "" {
		req.Header.Set("Pronunciation-Assessment", assessment)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("speech API returned status %d", resp.StatusCode)
	}

	var response recognitionResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %v", err)
	}
	return &response, nil
}

func errorResult(message string) models.ScoreResult {
	return models.ScoreResult{Status: models.StatusError, Message: message}
}

// setEndpoint overrides the service endpoint. Used by tests.
func (g *Gateway) setEndpoint(endpoint string) {
	g.endpoint = endpoint
}
