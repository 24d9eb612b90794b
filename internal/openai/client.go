package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Client is a minimal OpenAI API client covering the file, batch and
// fine-tuning endpoints this pipeline needs.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

// SetBaseURL overrides the API base URL, e.g. for httptest servers or
// compatible proxies.
func (c *Client) SetBaseURL(base string) {
	if base != "" {
		c.baseURL = base
	}
}

// File purposes accepted by the upload endpoint.
const (
	PurposeBatch    = "batch"
	PurposeFineTune = "fine-tune"
)

type File struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Purpose  string `json:"purpose"`
	Bytes    int64  `json:"bytes"`
}

// Batch statuses that end polling.
const (
	BatchCompleted = "completed"
	BatchFailed    = "failed"
	BatchCanceled  = "canceled"
	BatchExpired   = "expired"
)

type Batch struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	InputFileID  string `json:"input_file_id"`
	OutputFileID string `json:"output_file_id"`
	ErrorFileID  string `json:"error_file_id"`
}

// Terminal reports whether the batch has reached a final status.
func (b Batch) Terminal() bool {
	switch b.Status {
	case BatchCompleted, BatchFailed, BatchCanceled, BatchExpired:
		return true
	}
	return false
}

type FineTuningJob struct {
	ID             string `json:"id"`
	Model          string `json:"model"`
	Status         string `json:"status"`
	TrainingFile   string `json:"training_file"`
	ValidationFile string `json:"validation_file"`
}

type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// UploadFile uploads raw bytes under the given filename and purpose.
func (c *Client) UploadFile(ctx context.Context, filename, purpose string, data []byte) (File, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("purpose", purpose); err != nil {
		return File{}, fmt.Errorf("write purpose field: %w", err)
	}
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return File{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := fw.Write(data); err != nil {
		return File{}, fmt.Errorf("write file data: %w", err)
	}
	if err := mw.Close(); err != nil {
		return File{}, fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/files", &body)
	if err != nil {
		return File{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	var f File
	if err := c.do(req, &f); err != nil {
		return File{}, err
	}
	return f, nil
}

// FileContent downloads the content of an uploaded or generated file.
func (c *Client) FileContent(ctx context.Context, fileID string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/files/"+fileID+"/content", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api call: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp.StatusCode, data)
	}
	return data, nil
}

// CreateBatch starts a batch job over a previously uploaded JSONL file.
func (c *Client) CreateBatch(ctx context.Context, inputFileID, endpoint, completionWindow string, metadata map[string]string) (Batch, error) {
	payload := map[string]any{
		"input_file_id":     inputFileID,
		"endpoint":          endpoint,
		"completion_window": completionWindow,
	}
	if len(metadata) > 0 {
		payload["metadata"] = metadata
	}

	var b Batch
	if err := c.postJSON(ctx, "/batches", payload, &b); err != nil {
		return Batch{}, err
	}
	return b, nil
}

// GetBatch retrieves the current state of a batch.
func (c *Client) GetBatch(ctx context.Context, batchID string) (Batch, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/batches/"+batchID, nil)
	if err != nil {
		return Batch{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	var b Batch
	if err := c.do(req, &b); err != nil {
		return Batch{}, err
	}
	return b, nil
}

// FineTuningJobRequest describes a supervised fine-tuning job.
type FineTuningJobRequest struct {
	TrainingFile   string          `json:"training_file"`
	ValidationFile string          `json:"validation_file,omitempty"`
	Model          string          `json:"model"`
	Method         json.RawMessage `json:"method,omitempty"`
}

// CreateFineTuningJob submits a fine-tuning job.
func (c *Client) CreateFineTuningJob(ctx context.Context, reqBody FineTuningJobRequest) (FineTuningJob, error) {
	var job FineTuningJob
	if err := c.postJSON(ctx, "/fine_tuning/jobs", reqBody, &job); err != nil {
		return FineTuningJob{}, err
	}
	return job, nil
}

// ListFineTuningJobs lists recent fine-tuning jobs.
func (c *Client) ListFineTuningJobs(ctx context.Context, limit int) ([]FineTuningJob, error) {
	u := c.baseURL + "/fine_tuning/jobs"
	if limit > 0 {
		u += "?limit=" + url.QueryEscape(fmt.Sprint(limit))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	var list struct {
		Data []FineTuningJob `json:"data"`
	}
	if err := c.do(req, &list); err != nil {
		return nil, err
	}
	return list.Data, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("api call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return apiError(resp.StatusCode, respBody)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

func apiError(status int, body []byte) error {
	var errResp errorResponse
	if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
		return fmt.Errorf("api error %d: %s — %s", status, errResp.Error.Type, errResp.Error.Message)
	}
	return fmt.Errorf("api error %d: %s", status, string(body))
}
