package mock

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/quarry/ai"
)

func TestMockClientDeterministic(t *testing.T) {
	client := NewMockClient(ai.ProviderLocal)
	ctx := context.Background()

	first, err := client.Embed(ctx, []string{"same text"})
	require.NoError(t, err)
	second, err := client.Embed(ctx, []string{"same text"})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 2, client.CallCount())

	client.Reset()
	assert.Equal(t, 0, client.CallCount())
}

func TestMockClientConcurrentEmbed(t *testing.T) {
	client := NewMockClient(ai.ProviderLocal)
	ctx := context.Background()

	const workers = 8
	const callsPerWorker = 16

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < callsPerWorker; i++ {
				vectors, err := client.Embed(ctx, []string{fmt.Sprintf("text %d-%d", w, i)})
				assert.NoError(t, err)
				assert.Len(t, vectors, 1)
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, workers*callsPerWorker, client.CallCount())
}
