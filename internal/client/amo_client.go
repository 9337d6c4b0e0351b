package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"education-service/config"
)

// AmoClient is a thin amoCRM v4 REST client covering the calls the
// training flow needs: contact lookup and creation, lead lookup, notes and
// stage pushes. Retry policy is left to the caller.
type AmoClient struct {
	baseURL    string
	token      string
	pipelineID int64
	httpClient *http.Client
}

func NewAmoClient(cfg *config.AmoConfig) *AmoClient {
	return &AmoClient{
		baseURL:    cfg.BaseURL,
		token:      cfg.AccessToken,
		pipelineID: cfg.PipelineID,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *AmoClient) PipelineID() int64 {
	return c.pipelineID
}

type Contact struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type lead struct {
	ID       int64 `json:"id"`
	StatusID int64 `json:"status_id"`
}

func (c *AmoClient) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to amoCRM failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("amoCRM returned status %d for %s %s", resp.StatusCode, method, path)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode amoCRM response: %w", err)
	}
	return nil
}

// FindContactByPhone returns nil without error when no contact matches.
func (c *AmoClient) FindContactByPhone(ctx context.Context, phone string) (*Contact, error) {
	var resp struct {
		Embedded struct {
			Contacts []Contact `json:"contacts"`
		} `json:"_embedded"`
	}
	path := "/api/v4/contacts?query=" + url.QueryEscape(phone)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to find contact: %w", err)
	}
	if len(resp.Embedded.Contacts) == 0 {
		return nil, nil
	}
	contact := resp.Embedded.Contacts[0]
	return &contact, nil
}

func (c *AmoClient) CreateContact(ctx context.Context, firstName, lastName, phone string) (int64, error) {
	body := []map[string]interface{}{{
		"first_name": firstName,
		"last_name":  lastName,
		"custom_fields_values": []map[string]interface{}{{
			"field_code": "PHONE",
			"values":     []map[string]interface{}{{"value": phone}},
		}},
	}}

	var resp struct {
		Embedded struct {
			Contacts []Contact `json:"contacts"`
		} `json:"_embedded"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v4/contacts", body, &resp); err != nil {
		return 0, fmt.Errorf("failed to create contact: %w", err)
	}
	if len(resp.Embedded.Contacts) == 0 {
		return 0, fmt.Errorf("amoCRM returned no contact for create")
	}
	return resp.Embedded.Contacts[0].ID, nil
}

// FindLeadByContact returns the first lead of the training pipeline linked
// to the contact, 0 when there is none.
func (c *AmoClient) FindLeadByContact(ctx context.Context, contactID int64) (int64, error) {
	var resp struct {
		Embedded struct {
			Leads []lead `json:"leads"`
		} `json:"_embedded"`
	}
	path := fmt.Sprintf("/api/v4/leads?filter[pipeline_id]=%d&filter[contacts][0]=%d", c.pipelineID, contactID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return 0, fmt.Errorf("failed to find lead: %w", err)
	}
	if len(resp.Embedded.Leads) == 0 {
		return 0, nil
	}
	return resp.Embedded.Leads[0].ID, nil
}

func (c *AmoClient) CreateLead(ctx context.Context, contactID, stageID int64) (int64, error) {
	body := []map[string]interface{}{{
		"pipeline_id": c.pipelineID,
		"status_id":   stageID,
		"_embedded": map[string]interface{}{
			"contacts": []map[string]interface{}{{"id": contactID}},
		},
	}}

	var resp struct {
		Embedded struct {
			Leads []lead `json:"leads"`
		} `json:"_embedded"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v4/leads", body, &resp); err != nil {
		return 0, fmt.Errorf("failed to create lead: %w", err)
	}
	if len(resp.Embedded.Leads) == 0 {
		return 0, fmt.Errorf("amoCRM returned no lead for create")
	}
	return resp.Embedded.Leads[0].ID, nil
}

// GetCurrentStage returns the external stage id the lead currently sits in.
func (c *AmoClient) GetCurrentStage(ctx context.Context, leadID int64) (int64, error) {
	var resp lead
	path := fmt.Sprintf("/api/v4/leads/%d", leadID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return 0, fmt.Errorf("failed to get lead: %w", err)
	}
	return resp.StatusID, nil
}

func (c *AmoClient) AttachNote(ctx context.Context, leadID int64, text string) error {
	body := []map[string]interface{}{{
		"note_type": "common",
		"params":    map[string]interface{}{"text": text},
	}}
	path := fmt.Sprintf("/api/v4/leads/%d/notes", leadID)
	if err := c.do(ctx, http.MethodPost, path, body, nil); err != nil {
		return fmt.Errorf("failed to attach note: %w", err)
	}
	return nil
}

func (c *AmoClient) PushStage(ctx context.Context, stageID, leadID int64) error {
	body := map[string]interface{}{
		"pipeline_id": c.pipelineID,
		"status_id":   stageID,
	}
	path := fmt.Sprintf("/api/v4/leads/%d", leadID)
	if err := c.do(ctx, http.MethodPatch, path, body, nil); err != nil {
		return fmt.Errorf("failed to push lead stage: %w", err)
	}
	return nil
}
