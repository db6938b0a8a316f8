package gateway

import (
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// AnalysisError wraps a failure of the structured analysis call. The UI
// surfaces its message as the top-level error banner.
type AnalysisError struct {
	Err error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("failed to analyze content: %v", e.Err)
}

func (e *AnalysisError) Unwrap() error { return e.Err }

// MediaError wraps a failure of image or video synthesis. Op records which
// stage failed ("image" or "video").
type MediaError struct {
	Op  string
	Err error
}

func (e *MediaError) Error() string {
	return fmt.Sprintf("failed to generate %s: %v", e.Op, e.Err)
}

func (e *MediaError) Unwrap() error { return e.Err }

// ChatError wraps a failure of a conversational turn.
type ChatError struct {
	Err error
}

func (e *ChatError) Error() string {
	return fmt.Sprintf("chat turn failed: %v", e.Err)
}

func (e *ChatError) Unwrap() error { return e.Err }

// AuthError indicates the backend rejected the current credential for a
// capability (typically video generation, which requires a paid key).
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("credential rejected: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// IsNotFoundClass reports whether err is the backend's "Requested entity
// was not found" rejection. Video models return this when the key lacks
// access, so it is the trigger for the one-shot key reselection retry.
func IsNotFoundClass(err error) bool {
	if err == nil {
		return false
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == 404 {
			return true
		}
		if strings.Contains(apiErr.Message, "Requested entity was not found") {
			return true
		}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		if apiErrPtr.Code == 404 {
			return true
		}
		if strings.Contains(apiErrPtr.Message, "Requested entity was not found") {
			return true
		}
	}
	return strings.Contains(err.Error(), "Requested entity was not found")
}
