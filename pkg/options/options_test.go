package options

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestDefaults(t *testing.T) {
	conf := DefaultOptions
	assert.False(t, conf.AllowMultipleWhitespaces)
	assert.False(t, conf.FilterZeroDistance)
	assert.Equal(t, 16, conf.MaxSuggestionVariants)
	assert.Nil(t, conf.Logger)
	assert.Nil(t, conf.Scorer)
}

func TestOptionsApply(t *testing.T) {
	logger := zap.NewNop()

	conf := DefaultOptions
	for _, opt := range []Options{
		WithMultipleWhitespaces(),
		WithZeroDistanceFilter(),
		WithMaxSuggestionVariants(4),
		WithLogger(logger),
	} {
		opt.Apply(&conf)
	}

	assert.True(t, conf.AllowMultipleWhitespaces)
	assert.True(t, conf.FilterZeroDistance)
	assert.Equal(t, 4, conf.MaxSuggestionVariants)
	assert.Same(t, logger, conf.Logger)
}
