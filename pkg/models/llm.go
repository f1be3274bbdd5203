package models

import "encoding/json"

// InterviewAnswers are the free-text answers an admin gives in the directory
// creation wizard. Empty strings are valid and are sent as-is.
type InterviewAnswers struct {
	DirectoryType        string `json:"directoryType"`
	ExampleOrganizations string `json:"exampleOrganizations"`
	RequiredFields       string `json:"requiredFields"`
	OptionalFields       string `json:"optionalFields"`
}

// GenerateSchemaRequest is the body of POST /api/llm/generateSchema.
type GenerateSchemaRequest struct {
	InterviewAnswers InterviewAnswers `json:"interviewAnswers"`
}

// GenerateSchemaResponse is the success body of POST /api/llm/generateSchema.
type GenerateSchemaResponse struct {
	Schema   json.RawMessage `json:"schema"`
	MockMode bool            `json:"mockMode,omitempty"`
}

// AutofillRequest is the body of POST /api/llm/autofill.
type AutofillRequest struct {
	DirectoryID string `json:"directoryId" validate:"required,uuid"`
	Source      string `json:"source" validate:"required"`
}

// AutofillResponse carries suggested listing values keyed by schema field name.
type AutofillResponse struct {
	Fields   map[string]interface{} `json:"fields"`
	MockMode bool                   `json:"mockMode,omitempty"`
}

// LLMError is the failure body of the /api/llm endpoints.
type LLMError struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
