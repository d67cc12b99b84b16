package storage

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bqagent/pkg/domain/interfaces"
	"github.com/secmon-lab/bqagent/pkg/domain/model/errs"
)

// MemoryClient keeps objects in memory. Objects become visible when the
// writer is closed.
type MemoryClient struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

var _ interfaces.StorageClient = &MemoryClient{}

func NewMemoryClient() *MemoryClient {
	return &MemoryClient{objects: make(map[string][]byte)}
}

func (m *MemoryClient) PutObject(ctx context.Context, object string) io.WriteCloser {
	return &memoryWriter{client: m, object: object}
}

func (m *MemoryClient) GetObject(ctx context.Context, object string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.objects[object]
	if !ok {
		return nil, goerr.New("object not found", goerr.T(errs.TagNotFound), goerr.V("object", object))
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Objects returns stored object names in order.
func (m *MemoryClient) Objects() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.objects))
	for name := range m.objects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (m *MemoryClient) Close(ctx context.Context) {}

type memoryWriter struct {
	client *MemoryClient
	object string
	buf    bytes.Buffer
	closed bool
}

func (w *memoryWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, goerr.New("writer is closed", goerr.V("object", w.object))
	}
	return w.buf.Write(p)
}

func (w *memoryWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	w.client.mu.Lock()
	defer w.client.mu.Unlock()
	w.client.objects[w.object] = bytes.Clone(w.buf.Bytes())
	return nil
}
