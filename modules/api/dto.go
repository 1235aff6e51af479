package api

import (
	"encoding/json"
	"fmt"

	domain "github.com/example/task-service/domain/task"
	taskmod "github.com/example/task-service/modules/task"
)

// ConfirmationResponse is the HTTP response for a successful delete.
type ConfirmationResponse struct {
	Message string `json:"message"`
	Details string `json:"details"`
}

// ErrorResponse is the canonical error envelope.
type ErrorResponse struct {
	Message string `json:"message"`
	Details string `json:"details"`
}

// parseCreateBody splits a create document into the validated description
// and the verbatim free-form attributes. Client-supplied id, status and
// date are discarded; the store owns all three.
func parseCreateBody(body []byte) (taskmod.CreateRequest, error) {
	var req taskmod.CreateRequest

	doc, err := parseDocument(body)
	if err != nil {
		return req, err
	}

	description, err := descriptionOf(doc)
	if err != nil {
		return req, err
	}
	if description != nil {
		req.Description = *description
	}

	for name, value := range doc {
		if domain.Reserved(name) {
			continue
		}
		if req.Attributes == nil {
			req.Attributes = make(domain.Attributes)
		}
		req.Attributes[name] = value
	}
	return req, nil
}

// parseUpdateBody extracts the requested status and description from an
// update document. Fields that are absent stay nil and are not applied.
func parseUpdateBody(body []byte) (taskmod.UpdateRequest, error) {
	var req taskmod.UpdateRequest

	doc, err := parseDocument(body)
	if err != nil {
		return req, err
	}

	if raw, ok := doc[domain.FieldStatus]; ok {
		status, ok := raw.(string)
		if !ok {
			return req, fmt.Errorf("%w: %v", taskmod.ErrInvalidStatus, raw)
		}
		req.Status = &status
	}

	description, err := descriptionOf(doc)
	if err != nil {
		return req, err
	}
	req.Description = description

	return req, nil
}

func parseDocument(body []byte) (map[string]any, error) {
	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	return doc, nil
}

// descriptionOf validates the shape of a supplied description. The error
// always reports the value that was actually sent.
func descriptionOf(doc map[string]any) (*string, error) {
	raw, ok := doc[domain.FieldDescription]
	if !ok {
		return nil, nil
	}
	description, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("%w: description %v is not text", ErrInvalidAttribute, raw)
	}
	if description == "" {
		return nil, fmt.Errorf("%w: description must not be empty", ErrInvalidAttribute)
	}
	return &description, nil
}
