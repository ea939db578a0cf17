package commands

import (
	"context"

	"patchlink/internal/application"
)

type mockChain struct {
	calls    []string
	exports  []*application.ExportResult
	links    int
	statuses []application.PatchStatus
	err      error
	target   string
}

func (m *mockChain) Update(ctx context.Context) ([]*application.ExportResult, error) {
	m.calls = append(m.calls, "update")
	return m.exports, m.err
}

func (m *mockChain) CreateSymlinks(ctx context.Context) (int, error) {
	m.calls = append(m.calls, "symlinks")
	return m.links, m.err
}

func (m *mockChain) Upload(ctx context.Context, target string) error {
	m.calls = append(m.calls, "upload")
	m.target = target
	return m.err
}

func (m *mockChain) Status() ([]application.PatchStatus, error) {
	m.calls = append(m.calls, "status")
	return m.statuses, m.err
}
