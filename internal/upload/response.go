package upload

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Result is a successful upload. DeleteURL and DisplayURL are optional
// extras from the API, surfaced in verbose output only.
type Result struct {
	URL        string
	DeleteURL  string
	DisplayURL string
}

type apiResponse struct {
	Success bool `json:"success"`
	Status  int  `json:"status"`
	Data    struct {
		URL        string `json:"url"`
		DisplayURL string `json:"display_url"`
		DeleteURL  string `json:"delete_url"`
	} `json:"data"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// interpret decides what the API's response means. An unparseable body
// counts as success being absent. A true success flag with a missing,
// empty or literal "null" URL is still a failure; the API's success
// claim does not make the payload usable. The raw body rides along in
// every failure for diagnosis.
func interpret(statusCode int, body []byte) (*Result, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		resp = apiResponse{}
	}

	if !resp.Success {
		msg := resp.Error.Message
		if msg == "" {
			msg = "Unknown API error"
		}
		return nil, fmt.Errorf("%s (HTTP %d): %s", msg, statusCode, bytes.TrimSpace(body))
	}

	url := resp.Data.URL
	if url == "" || url == "null" {
		return nil, fmt.Errorf("could not parse image URL (HTTP %d): %s", statusCode, bytes.TrimSpace(body))
	}

	return &Result{
		URL:        url,
		DeleteURL:  resp.Data.DeleteURL,
		DisplayURL: resp.Data.DisplayURL,
	}, nil
}
