package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/brandforge/brandforge-backend/internal/platform/dbctx"
	"github.com/brandforge/brandforge-backend/internal/platform/logger"
)

func dbc(ctx context.Context) dbctx.Context {
	return dbctx.Context{Ctx: ctx}
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

type fakeClassifierClient struct {
	mu       sync.Mutex
	calls    int
	generate func(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error)
}

func (f *fakeClassifierClient) GenerateJSON(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.generate(ctx, system, user, schemaName, schema)
}

func (f *fakeClassifierClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeEmbeddingClient struct {
	mu    sync.Mutex
	calls [][]string
	embed func(ctx context.Context, inputs []string) ([][]float32, error)
}

func (f *fakeEmbeddingClient) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	f.mu.Lock()
	f.calls = append(f.calls, inputs)
	f.mu.Unlock()
	return f.embed(ctx, inputs)
}

// vectorTable maps known texts to fixed vectors, for tests that need
// controlled similarities.
func vectorTable(table map[string][]float32) func(ctx context.Context, inputs []string) ([][]float32, error) {
	return func(_ context.Context, inputs []string) ([][]float32, error) {
		out := make([][]float32, 0, len(inputs))
		for _, in := range inputs {
			v, ok := table[in]
			if !ok {
				return nil, fmt.Errorf("no vector for %q", in)
			}
			out = append(out, v)
		}
		return out, nil
	}
}
