package gateway

import (
	"context"

	"conceptlens/internal/logging"
)

// KeySelector abstracts the credential source consulted when the backend
// rejects the ambient key. The auth package provides the real one; tests
// use fakes.
type KeySelector interface {
	// HasSelectedKey reports whether the user has already explicitly
	// chosen a key this run. A rejection of an explicitly chosen key is
	// final; only ambient keys get the reselection retry.
	HasSelectedKey() bool

	// SelectKey obtains a key from the user (or stored selection).
	SelectKey(ctx context.Context) (string, error)
}

// generateWithKeyRetry runs generate, and on a credential rejection of an
// ambient key, consults the selector exactly once, reconfigures, and
// retries. Any other failure, or a rejection after explicit selection,
// propagates unchanged. Factored out of the Gemini client so the retry
// policy is testable without a live backend.
func generateWithKeyRetry(
	ctx context.Context,
	prompt string,
	selector KeySelector,
	generate func(ctx context.Context, prompt string) (string, error),
	reconfigure func(ctx context.Context, apiKey string) error,
) (string, error) {
	result, err := generate(ctx, prompt)
	if err == nil {
		return result, nil
	}

	if !IsNotFoundClass(err) {
		return "", err
	}
	if selector == nil || selector.HasSelectedKey() {
		return "", err
	}

	logging.Auth("credential rejected, prompting for key selection")

	key, selErr := selector.SelectKey(ctx)
	if selErr != nil {
		// Selection failed or was declined; the original rejection is the
		// error that matters to the caller.
		logging.Auth("key selection failed: %v", selErr)
		return "", err
	}

	if recErr := reconfigure(ctx, key); recErr != nil {
		return "", recErr
	}

	return generate(ctx, prompt)
}
