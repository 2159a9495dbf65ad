package quantum

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// QiskitConfig holds IBM Qiskit Runtime API configuration
type QiskitConfig struct {
	// IBM Cloud API Key
	APIKey string

	// Base URL for IBM Quantum API
	BaseURL string

	// Backend name (e.g., "ibmq_qasm_simulator", "aer_simulator")
	BackendName string

	// PollInterval between job status checks. Defaults to 2s.
	PollInterval time.Duration

	// MaxWait bounds how long a single circuit may run. Defaults to 2m.
	MaxWait time.Duration

	// HTTP client with timeout
	HTTPClient *http.Client
}

// QiskitClient handles IBM Qiskit Runtime API interactions
type QiskitClient struct {
	config      *QiskitConfig
	accessToken string
	tokenExpiry time.Time
}

// QiskitJob represents a quantum job
type QiskitJob struct {
	ID        string    `json:"id"`
	Backend   string    `json:"backend"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created"`
}

// QiskitResult represents job execution results
type QiskitResult struct {
	Counts        map[string]int `json:"counts"`
	Success       bool           `json:"success"`
	StatusMsg     string         `json:"status"`
	JobID         string         `json:"job_id"`
	ExecutionTime float64        `json:"execution_time"`
}

// QiskitCircuit represents an OpenQASM circuit
type QiskitCircuit struct {
	QASM    string `json:"qasm"`
	Shots   int    `json:"shots"`
	Backend string `json:"backend"`
}

// IBM Quantum API endpoints
const (
	DefaultQiskitURL = "https://api.quantum-computing.ibm.com"
	TokenEndpoint    = "/api/auth/login"
	JobsEndpoint     = "/api/Network/ibm-q/Groups/open/Projects/main/Jobs"
)

// Job status constants
const (
	JobStatusQueued    = "QUEUED"
	JobStatusRunning   = "RUNNING"
	JobStatusCompleted = "COMPLETED"
	JobStatusFailed    = "FAILED"
	JobStatusCancelled = "CANCELLED"
)

// NewQiskitClient creates a new Qiskit API client and authenticates it
func NewQiskitClient(config *QiskitConfig) (*QiskitClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("IBM Cloud API key is required")
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultQiskitURL
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 2 * time.Second
	}
	if config.MaxWait <= 0 {
		config.MaxWait = 2 * time.Minute
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{
			Timeout: 60 * time.Second,
		}
	}

	client := &QiskitClient{
		config: config,
	}

	if err := client.authenticate(); err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}

	return client, nil
}

// authenticate obtains an access token from IBM Cloud
func (c *QiskitClient) authenticate() error {
	var result struct {
		TTL         int    `json:"ttl"`
		AccessToken string `json:"access_token"`
	}
	payload := map[string]string{"apiToken": c.config.APIKey}
	if err := c.do(http.MethodPost, TokenEndpoint, payload, &result, false); err != nil {
		return err
	}

	c.accessToken = result.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(result.TTL) * time.Second)
	return nil
}

// ensureAuthenticated checks if token is valid and refreshes if needed
func (c *QiskitClient) ensureAuthenticated() error {
	if time.Now().After(c.tokenExpiry.Add(-5 * time.Minute)) {
		return c.authenticate()
	}
	return nil
}

// do sends one JSON request and decodes a 200/201 JSON reply into out
func (c *QiskitClient) do(method, path string, payload, out interface{}, auth bool) error {
	if auth {
		if err := c.ensureAuthenticated(); err != nil {
			return err
		}
	}

	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, c.config.BaseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	resp, err := c.config.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s %s failed: %s (status: %d)", method, path, string(msg), resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// SubmitJob submits a quantum circuit for execution
func (c *QiskitClient) SubmitJob(circuit *QiskitCircuit) (*QiskitJob, error) {
	var job QiskitJob
	if err := c.do(http.MethodPost, JobsEndpoint, circuit, &job, true); err != nil {
		return nil, fmt.Errorf("job submission failed: %w", err)
	}
	return &job, nil
}

// GetJobStatus retrieves the status of a quantum job
func (c *QiskitClient) GetJobStatus(jobID string) (*QiskitJob, error) {
	var job QiskitJob
	if err := c.do(http.MethodGet, JobsEndpoint+"/"+jobID, nil, &job, true); err != nil {
		return nil, err
	}
	return &job, nil
}

// WaitForJob polls a job until it reaches a terminal state
func (c *QiskitClient) WaitForJob(jobID string, maxWaitTime time.Duration) (*QiskitJob, error) {
	timeout := time.After(maxWaitTime)
	ticker := time.NewTicker(c.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-timeout:
			return nil, fmt.Errorf("job %s timed out after %v", jobID, maxWaitTime)

		case <-ticker.C:
			job, err := c.GetJobStatus(jobID)
			if err != nil {
				return nil, err
			}

			switch job.Status {
			case JobStatusCompleted:
				return job, nil
			case JobStatusFailed:
				return job, fmt.Errorf("job %s failed", jobID)
			case JobStatusCancelled:
				return job, fmt.Errorf("job %s was cancelled", jobID)
			}
		}
	}
}

// GetJobResult retrieves the results of a completed job
func (c *QiskitClient) GetJobResult(jobID string) (*QiskitResult, error) {
	var result QiskitResult
	if err := c.do(http.MethodGet, JobsEndpoint+"/"+jobID+"/results", nil, &result, true); err != nil {
		return nil, err
	}
	return &result, nil
}

// CancelJob cancels a running or queued job
func (c *QiskitClient) CancelJob(jobID string) error {
	return c.do(http.MethodPost, JobsEndpoint+"/"+jobID+"/cancel", nil, nil, true)
}

// ExecuteCircuitSync executes a circuit and blocks until its results arrive.
// A job that does not finish within MaxWait is cancelled.
func (c *QiskitClient) ExecuteCircuitSync(circuit *QiskitCircuit) (*QiskitResult, error) {
	job, err := c.SubmitJob(circuit)
	if err != nil {
		return nil, err
	}

	completedJob, err := c.WaitForJob(job.ID, c.config.MaxWait)
	if err != nil {
		if completedJob == nil {
			_ = c.CancelJob(job.ID)
		}
		return nil, fmt.Errorf("job execution failed: %w", err)
	}

	result, err := c.GetJobResult(completedJob.ID)
	if err != nil {
		return nil, fmt.Errorf("result retrieval failed: %w", err)
	}
	if !result.Success {
		return nil, fmt.Errorf("job %s reported failure: %s", completedJob.ID, result.StatusMsg)
	}

	return result, nil
}
