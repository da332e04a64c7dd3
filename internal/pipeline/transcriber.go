package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"

	"liveboard/pkg/types"
)

// transcribeInstruction asks the backend to keep the output usable as a
// lecture record rather than a flat blob.
const transcribeInstruction = "Preserve speaker turns. Mark segments that cannot be made out as [inaudible]."

// SpeechTranscriber submits the raw audio artifact to an external
// speech-to-text API (multipart upload, Whisper-compatible response) and
// uses its verbatim text response as the transcription.
type SpeechTranscriber struct {
	apiKey string
	url    string
	model  string
	client *http.Client
}

// NewSpeechTranscriber creates a live transcription backend.
func NewSpeechTranscriber(apiKey, url, model string, client *http.Client) *SpeechTranscriber {
	if client == nil {
		client = http.DefaultClient
	}
	return &SpeechTranscriber{
		apiKey: apiKey,
		url:    url,
		model:  model,
		client: client,
	}
}

// Live reports that this backend performs a real external call.
func (t *SpeechTranscriber) Live() bool {
	return true
}

// Transcribe uploads the audio file tagged with its container MIME type
// and returns the backend's verbatim transcription text.
func (t *SpeechTranscriber) Transcribe(ctx context.Context, req *types.TranscribeRequest) (string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if err := writer.WriteField("model", t.model); err != nil {
		return "", err
	}
	if err := writer.WriteField("prompt", transcribeInstruction); err != nil {
		return "", err
	}

	file, err := os.Open(req.AudioPath)
	if err != nil {
		return "", fmt.Errorf("opening audio file: %w", err)
	}
	defer file.Close()

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, filepath.Base(req.AudioPath)))
	header.Set("Content-Type", req.MIMEType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", err
	}

	if err := writer.Close(); err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, body)
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	httpReq.Header.Set("Authorization", "Bearer "+t.apiKey)

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("calling speech API: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading speech API response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("speech API error (HTTP %d): %s", resp.StatusCode, string(respBody))
	}

	var apiResp speechAPIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("parsing speech API response: %w", err)
	}
	if apiResp.Text == "" {
		return "", fmt.Errorf("empty transcription from speech API")
	}

	return apiResp.Text, nil
}

// speechAPIResponse matches the transcription endpoint response shape.
type speechAPIResponse struct {
	Text string `json:"text"`
}
