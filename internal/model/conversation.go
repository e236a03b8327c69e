// Package model defines the wire types of the chat assistant API.
package model

// DefaultModelName is used when a conversation names no model.
const DefaultModelName = "default"

// Conversation is the request body of the chat, stream and compare endpoints.
// It lives only for the duration of one request.
type Conversation struct {
	Messages  []Message `json:"messages" validate:"dive"`
	ModelName string    `json:"model_name,omitempty"`
}

// Model returns the requested model identifier or DefaultModelName.
func (c *Conversation) Model() string {
	if c.ModelName == "" {
		return DefaultModelName
	}
	return c.ModelName
}

// ChatResponse is returned by POST /chat/.
type ChatResponse struct {
	Response string `json:"response"`
}

// CompareResponse is returned by POST /compare_models/.
type CompareResponse struct {
	Comparisons map[string]string `json:"comparisons"`
}

// UploadResponse is returned by POST /upload_media/.
type UploadResponse struct {
	Filename string `json:"filename"`
	Message  string `json:"message"`
}

// UploadSuccessMessage is the fixed acknowledgement for stored uploads.
const UploadSuccessMessage = "Upload successful"

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Detail    string `json:"detail"`
	Kind      string `json:"kind"`
	Retryable bool   `json:"retryable"`
}

// ModelsResponse describes how model identifiers are resolved.
type ModelsResponse struct {
	Default   string              `json:"default"`
	Providers map[string][]string `json:"providers"`
	Aliases   map[string]string   `json:"aliases"`
	Compare   []string            `json:"compare"`
}
