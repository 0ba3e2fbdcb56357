package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"salespulse/internal/pipeline"
)

// MockRunExecutor is a mock for the RunExecutor interface
type MockRunExecutor struct {
	mock.Mock
}

func (m *MockRunExecutor) Run(ctx context.Context) (*pipeline.RunResult, error) {
	args := m.Called(ctx)
	result, _ := args.Get(0).(*pipeline.RunResult)
	return result, args.Error(1)
}

// MockClientCounter is a mock for the ClientCounter interface
type MockClientCounter struct {
	mock.Mock
}

func (m *MockClientCounter) ClientCount() int {
	return m.Called().Int(0)
}
