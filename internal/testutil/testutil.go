package testutil

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// ReadSpan records one ReadAt call.
type ReadSpan struct {
	Off int64
	Len int
}

// MockByteSource implements an in-memory io.ReaderAt that records every read.
type MockByteSource struct {
	data []byte

	mu    sync.Mutex
	reads []ReadSpan
}

// NewMockByteSource returns a byte source backed by the provided data.
func NewMockByteSource(data []byte) *MockByteSource {
	return &MockByteSource{data: data}
}

// ReadAt implements io.ReaderAt semantics over the backing slice.
func (m *MockByteSource) ReadAt(p []byte, off int64) (int, error) {
	m.mu.Lock()
	m.reads = append(m.reads, ReadSpan{Off: off, Len: len(p)})
	m.mu.Unlock()

	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Size returns the total size of the backing data.
func (m *MockByteSource) Size() int64 {
	return int64(len(m.data))
}

// Reads returns a copy of the recorded read spans.
func (m *MockByteSource) Reads() []ReadSpan {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ReadSpan(nil), m.reads...)
}

// Touched reports whether any recorded read overlapped [start, end).
func (m *MockByteSource) Touched(start, end int64) bool {
	for _, r := range m.Reads() {
		if r.Off < end && r.Off+int64(r.Len) > start {
			return true
		}
	}
	return false
}

// WriteFile writes data to dir/name and returns the full path.
func WriteFile(tb testing.TB, dir, name string, data []byte) string {
	tb.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		tb.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		tb.Fatalf("write %s: %v", path, err)
	}
	return path
}
