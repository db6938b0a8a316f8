package gateway

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"google.golang.org/genai"
)

type fakeSelector struct {
	selected  bool
	key       string
	err       error
	selectors int
}

func (f *fakeSelector) HasSelectedKey() bool { return f.selected }

func (f *fakeSelector) SelectKey(ctx context.Context) (string, error) {
	f.selectors++
	return f.key, f.err
}

func TestGenerateWithKeyRetry(t *testing.T) {
	notFound := genai.APIError{Code: 404, Message: "Requested entity was not found."}

	t.Run("success needs no selector", func(t *testing.T) {
		sel := &fakeSelector{}
		got, err := generateWithKeyRetry(context.Background(), "p", sel,
			func(ctx context.Context, prompt string) (string, error) { return "video", nil },
			func(ctx context.Context, key string) error { t.Fatal("reconfigure called"); return nil },
		)
		require.NoError(t, err)
		assert.Equal(t, "video", got)
		assert.Zero(t, sel.selectors)
	})

	t.Run("not-found on ambient key retries once with new key", func(t *testing.T) {
		sel := &fakeSelector{key: "fresh-key"}
		var reconfiguredWith string
		calls := 0

		got, err := generateWithKeyRetry(context.Background(), "p", sel,
			func(ctx context.Context, prompt string) (string, error) {
				calls++
				if calls == 1 {
					return "", notFound
				}
				return "video", nil
			},
			func(ctx context.Context, key string) error {
				reconfiguredWith = key
				return nil
			},
		)
		require.NoError(t, err)
		assert.Equal(t, "video", got)
		assert.Equal(t, 2, calls)
		assert.Equal(t, 1, sel.selectors)
		assert.Equal(t, "fresh-key", reconfiguredWith)
	})

	t.Run("rejection after explicit selection is final", func(t *testing.T) {
		sel := &fakeSelector{selected: true, key: "unused"}
		calls := 0

		_, err := generateWithKeyRetry(context.Background(), "p", sel,
			func(ctx context.Context, prompt string) (string, error) {
				calls++
				return "", notFound
			},
			func(ctx context.Context, key string) error { t.Fatal("reconfigure called"); return nil },
		)
		require.Error(t, err)
		assert.Equal(t, 1, calls)
		assert.Zero(t, sel.selectors)
	})

	t.Run("second rejection propagates", func(t *testing.T) {
		sel := &fakeSelector{key: "fresh-key"}
		calls := 0

		_, err := generateWithKeyRetry(context.Background(), "p", sel,
			func(ctx context.Context, prompt string) (string, error) {
				calls++
				return "", notFound
			},
			func(ctx context.Context, key string) error { return nil },
		)
		require.Error(t, err)
		assert.True(t, IsNotFoundClass(err))
		assert.Equal(t, 2, calls)
		assert.Equal(t, 1, sel.selectors)
	})

	t.Run("non-credential failure skips selection", func(t *testing.T) {
		sel := &fakeSelector{key: "unused"}
		boom := errors.New("backend exploded")

		_, err := generateWithKeyRetry(context.Background(), "p", sel,
			func(ctx context.Context, prompt string) (string, error) { return "", boom },
			func(ctx context.Context, key string) error { return nil },
		)
		assert.ErrorIs(t, err, boom)
		assert.Zero(t, sel.selectors)
	})

	t.Run("declined selection keeps original error", func(t *testing.T) {
		sel := &fakeSelector{err: errors.New("user cancelled")}

		_, err := generateWithKeyRetry(context.Background(), "p", sel,
			func(ctx context.Context, prompt string) (string, error) { return "", notFound },
			func(ctx context.Context, key string) error { t.Fatal("reconfigure called"); return nil },
		)
		require.Error(t, err)
		assert.True(t, IsNotFoundClass(err))
	})
}
