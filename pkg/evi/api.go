package evi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// APIClient talks to the EVI REST API.
type APIClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewAPIClient(baseURL string, apiKey string) *APIClient {
	if baseURL == "" {
		baseURL = DefaultAPIBaseURL
	}
	return &APIClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     30 * time.Second,
				MaxIdleConnsPerHost: 2,
			},
		},
	}
}

// NewAPIClientFromConfig uses the base URL and API key of config.
func NewAPIClientFromConfig(config *Config) *APIClient {
	return NewAPIClient(config.APIBaseURL, config.APIKey)
}

// EVIConfig is a stored EVI configuration.
type EVIConfig struct {
	ID          string `json:"id"`
	Version     int    `json:"version"`
	Name        string `json:"name"`
	CreatedOn   int64  `json:"created_on"`
	ModifiedOn  int64  `json:"modified_on"`
	EVIVersion  string `json:"evi_version,omitempty"`
	Description string `json:"version_description,omitempty"`
}

// Chat is one past chat session.
type Chat struct {
	ID             string `json:"id"`
	ChatGroupID    string `json:"chat_group_id"`
	Status         string `json:"status"`
	StartTimestamp int64  `json:"start_timestamp"`
	EndTimestamp   int64  `json:"end_timestamp,omitempty"`
	EventCount     int    `json:"event_count,omitempty"`
}

// Page holds the paging envelope shared by list endpoints.
type Page struct {
	PageNumber int `json:"page_number"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
}

type ConfigsPage struct {
	Page
	Configs []EVIConfig `json:"configs_page"`
}

type ChatsPage struct {
	Page
	Chats []Chat `json:"chats_page"`
}

func (ac *APIClient) request(ctx context.Context, method, endpoint string, query url.Values) ([]byte, error) {
	u := ac.baseURL + endpoint
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return nil, NewConfigError(err.Error())
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "EVI-SDK-Go/1.0")
	if ac.apiKey != "" {
		req.Header.Set("X-Hume-Api-Key", ac.apiKey)
	}

	resp, err := ac.httpClient.Do(req)
	if err != nil {
		return nil, WrapError(err, "request failed", ErrCodeConnectionFailed)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, WrapError(err, "failed to read response", ErrCodeUnknown)
	}

	if resp.StatusCode >= 400 {
		errMsg := string(respBody)
		if errMsg == "" {
			errMsg = http.StatusText(resp.StatusCode)
		}
		code := fmt.Sprintf("HTTP_%d", resp.StatusCode)
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			code = ErrCodeAuthFailed
		}
		return nil, NewEVIError(errMsg, code).AddDetail("status_code", resp.StatusCode)
	}

	return respBody, nil
}

func pageQuery(page, size int) url.Values {
	if page < 0 {
		page = 0
	}
	if size < 1 || size > 100 {
		size = 10
	}
	return url.Values{
		"page_number": {strconv.Itoa(page)},
		"page_size":   {strconv.Itoa(size)},
	}
}

// ListConfigs lists the EVI configs available to the API key.
func (ac *APIClient) ListConfigs(ctx context.Context, page, size int) Result[*ConfigsPage] {
	resp, err := ac.request(ctx, http.MethodGet, "/v0/evi/configs", pageQuery(page, size))
	if err != nil {
		return Err[*ConfigsPage](asEVIError(err))
	}

	var result ConfigsPage
	if err := json.Unmarshal(resp, &result); err != nil {
		return Err[*ConfigsPage](NewJSONError(err.Error()))
	}
	return Ok(&result)
}

// ListChats lists past chats, newest first.
func (ac *APIClient) ListChats(ctx context.Context, page, size int) Result[*ChatsPage] {
	query := pageQuery(page, size)
	query.Set("ascending_order", "false")

	resp, err := ac.request(ctx, http.MethodGet, "/v0/evi/chats", query)
	if err != nil {
		return Err[*ChatsPage](asEVIError(err))
	}

	var result ChatsPage
	if err := json.Unmarshal(resp, &result); err != nil {
		return Err[*ChatsPage](NewJSONError(err.Error()))
	}
	return Ok(&result)
}

func asEVIError(err error) *EVIError {
	if e, ok := err.(*EVIError); ok {
		return e
	}
	return WrapError(err, "request failed", ErrCodeUnknown)
}
