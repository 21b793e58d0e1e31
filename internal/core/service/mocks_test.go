package service

import (
	"context"
	"sync"
	"time"

	"github.com/niksmo/prime-house/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

type MockEmitter struct {
	mock.Mock
}

func (m *MockEmitter) EmitCommand(
	ctx context.Context, cmd domain.PropertyCommand,
) error {
	args := m.Called(ctx, cmd)
	return args.Error(0)
}

type MockSizer struct {
	mock.Mock
}

func (m *MockSizer) DocumentSize(p domain.Property) (int, error) {
	args := m.Called(p)
	return args.Int(0), args.Error(1)
}

type MockReader struct {
	mock.Mock
}

func (m *MockReader) ListProperties(
	ctx context.Context, filter any, search string,
) (domain.CatalogView, error) {
	args := m.Called(ctx, filter, search)
	return args.Get(0).(domain.CatalogView), args.Error(1)
}

func (m *MockReader) Property(
	ctx context.Context, id string,
) (domain.Property, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Property), args.Error(1)
}

func (m *MockReader) Status() domain.CatalogStatus {
	return domain.CatalogStatus{}
}

type MockLeadsStorage struct {
	mock.Mock
}

func (m *MockLeadsStorage) StoreLead(ctx context.Context, l domain.Lead) error {
	args := m.Called(ctx, l)
	return args.Error(0)
}

func (m *MockLeadsStorage) ReadLeads(ctx context.Context) ([]domain.Lead, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Lead), args.Error(1)
}

type MockTokens struct {
	mock.Mock
}

func (m *MockTokens) IssueToken(
	email string, ttl time.Duration,
) (string, time.Time, error) {
	args := m.Called(email, ttl)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockTokens) ParseToken(token string) (string, error) {
	args := m.Called(token)
	return args.String(0), args.Error(1)
}

type MockPasswords struct {
	mock.Mock
}

func (m *MockPasswords) VerifyPassword(email, password string) error {
	args := m.Called(email, password)
	return args.Error(0)
}

// stubSubscriber hands its callbacks to the test and blocks like a real one.
type stubSubscriber struct {
	once     sync.Once
	ready    chan struct{}
	onChange func([]domain.Property)
	onError  func(error)
}

func newStubSubscriber() *stubSubscriber {
	return &stubSubscriber{ready: make(chan struct{})}
}

func (s *stubSubscriber) Subscribe(
	ctx context.Context,
	onChange func([]domain.Property),
	onError func(error),
) {
	s.onChange = onChange
	s.onError = onError
	s.once.Do(func() { close(s.ready) })
	<-ctx.Done()
}
