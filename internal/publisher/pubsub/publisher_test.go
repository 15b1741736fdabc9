package pubsub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPublishRequiresClient(t *testing.T) {
	t.Parallel()

	p := New(nil)
	_, err := p.Publish(context.Background(), "topic", map[string]string{"k": "v"})
	require.Error(t, err)
	require.NoError(t, p.Close())
}
