package mocks

import (
	"context"
	"encoding/json"

	"github.com/stretchr/testify/mock"

	"github.com/shaharia-lab/pushrelay/internal/notification"
	"github.com/shaharia-lab/pushrelay/internal/service"
)

// MockRelayService is a mock implementation of service.RelayService.
type MockRelayService struct {
	mock.Mock
}

//nolint:revive
func (m *MockRelayService) Relay(ctx context.Context, event notification.ChangeEvent) (*service.RelayResult, error) {
	args := m.Called(ctx, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RelayResult), args.Error(1)
}

//nolint:revive
func (m *MockRelayService) TestNotification(ctx context.Context) (json.RawMessage, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}
