package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/rera-cli/internal/model"
)

// --- Sink Mock ---

type mockSink struct {
	mock.Mock
}

func (m *mockSink) SaveResult(ctx context.Context, result *model.ProcessResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}
