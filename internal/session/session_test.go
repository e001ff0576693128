package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"taskgate/internal/config"
	"taskgate/internal/infrastructure"
	"taskgate/internal/shared/testutil"
	"taskgate/internal/storage"
)

// MockStore is a mock implementation of storage.Store
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Get(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockStore) Set(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockStore) Close() error {
	return m.Called().Error(0)
}

func newTestSession(t *testing.T, store storage.Store) *Session {
	t.Helper()
	return New(store, infrastructure.NewLoggerWithWriter(io.Discard, nil))
}

func TestDeviceIDIsStable(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	s := newTestSession(t, store)

	first, err := s.DeviceID(ctx)
	require.NoError(t, err)
	assert.Len(t, first, 36)

	for i := 0; i < 5; i++ {
		again, err := s.DeviceID(ctx)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}

	// a fresh session over the same store sees the same id
	other := newTestSession(t, store)
	again, err := other.DeviceID(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, again)

	stored, ok, err := store.Get(ctx, config.KeyDeviceID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, first, stored)
}

func TestDeviceIDConcurrentFirstUse(t *testing.T) {
	s := newTestSession(t, storage.NewMemoryStore())

	var wg sync.WaitGroup
	ids := make([]string, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := s.DeviceID(context.Background())
			assert.NoError(t, err)
			ids[i] = id
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func TestDeviceIDStoreErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("read failure", func(t *testing.T) {
		store := new(MockStore)
		store.On("Get", mock.Anything, config.KeyDeviceID).Return("", false, errors.New("disk gone"))

		_, err := newTestSession(t, store).DeviceID(ctx)
		assert.Error(t, err)
		store.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("write failure", func(t *testing.T) {
		store := new(MockStore)
		store.On("Get", mock.Anything, config.KeyDeviceID).Return("", false, nil)
		store.On("Set", mock.Anything, config.KeyDeviceID, mock.AnythingOfType("string")).Return(errors.New("read-only"))

		_, err := newTestSession(t, store).DeviceID(ctx)
		assert.Error(t, err)
		store.AssertExpectations(t)
	})
}

func TestTokenAndEmailAccessors(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t, storage.NewMemoryStore())

	token, err := s.LicenseToken(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, s.SetLicenseToken(ctx, "L1"))
	token, err = s.LicenseToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "L1", token)

	email, err := s.LastEmail(ctx)
	require.NoError(t, err)
	assert.Empty(t, email)

	require.NoError(t, s.SetLastEmail(ctx, "x@y.com"))
	email, err = s.LastEmail(ctx)
	require.NoError(t, err)
	assert.Equal(t, "x@y.com", email)
}

func TestGateEvaluate(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		setup func(t *testing.T, s *Session)
		want  View
	}{
		{
			name:  "no token",
			setup: func(*testing.T, *Session) {},
			want:  ViewActivation,
		},
		{
			name: "empty token",
			setup: func(t *testing.T, s *Session) {
				require.NoError(t, s.SetLicenseToken(ctx, ""))
			},
			want: ViewActivation,
		},
		{
			name: "token present",
			setup: func(t *testing.T, s *Session) {
				require.NoError(t, s.SetLicenseToken(ctx, "L1"))
			},
			want: ViewMain,
		},
		{
			name: "token present with other fields",
			setup: func(t *testing.T, s *Session) {
				_, err := s.DeviceID(ctx)
				require.NoError(t, err)
				require.NoError(t, s.SetLastEmail(ctx, "a@b.c"))
				require.NoError(t, s.SetLicenseToken(ctx, "L2"))
			},
			want: ViewMain,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(t, storage.NewMemoryStore())
			tt.setup(t, s)
			gate := NewGate(s)
			assert.Equal(t, tt.want, gate.Evaluate(ctx))
			// evaluation has no side effects
			assert.Equal(t, tt.want, gate.Evaluate(ctx))
		})
	}
}

func TestGateStoreFailureShowsActivation(t *testing.T) {
	store := new(MockStore)
	store.On("Get", mock.Anything, config.KeyLicenseToken).Return("", false, errors.New("locked"))

	logger, logs := testutil.NewTestLogger(t)
	gate := NewGate(New(store, logger))
	assert.Equal(t, ViewActivation, gate.Evaluate(context.Background()))
	store.AssertExpectations(t)

	rec := logs.AssertLogged(t, slog.LevelWarn, "License token unreadable")
	assert.Equal(t, "session", rec.Attrs["component"])
}

func TestLicenseTokenIsMaskedInLogs(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	s := New(storage.NewMemoryStore(), logger)

	require.NoError(t, s.SetLicenseToken(context.Background(), "eyJhbGciOiJIUzI1NiJ9.payload.sig"))

	rec := logs.AssertLogged(t, slog.LevelInfo, "License token stored")
	assert.Equal(t, "eyJh****.sig", rec.Attrs["license_key"])
	assert.False(t, logs.ContainsText("payload"))
}
