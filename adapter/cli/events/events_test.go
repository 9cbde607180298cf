package events

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/salonops/adapter/cli"
	"github.com/felixgeelhaar/salonops/internal/shared/infrastructure/outbox"
)

type mockOutbox struct {
	mock.Mock
}

func (m *mockOutbox) Counts(ctx context.Context) (outbox.Counts, error) {
	args := m.Called(ctx)
	return args.Get(0).(outbox.Counts), args.Error(1)
}

type mockRelay struct {
	mock.Mock
}

func (m *mockRelay) Flush(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockRelay) Run(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestStatus(t *testing.T) {
	box := new(mockOutbox)
	box.On("Counts", mock.Anything).Return(outbox.Counts{Pending: 2, Published: 7, Dead: 1}, nil)
	cli.SetApp(&cli.App{Outbox: box})
	t.Cleanup(func() { cli.SetApp(nil) })

	out, err := run(t, "status")

	require.NoError(t, err)
	assert.Contains(t, out, "Pending:       2")
	assert.Contains(t, out, "Published:     7")
	assert.Contains(t, out, "Dead-lettered: 1")
}

func TestFlush(t *testing.T) {
	relay := new(mockRelay)
	relay.On("Flush", mock.Anything).Return(3, nil).Once()
	cli.SetApp(&cli.App{OutboxRelay: relay})
	t.Cleanup(func() { cli.SetApp(nil) })

	out, err := run(t, "flush")

	require.NoError(t, err)
	assert.Contains(t, out, "Forwarded 3 events")
	relay.AssertExpectations(t)
}

func TestFlush_Error(t *testing.T) {
	relay := new(mockRelay)
	relay.On("Flush", mock.Anything).Return(0, errors.New("db locked"))
	cli.SetApp(&cli.App{OutboxRelay: relay})
	t.Cleanup(func() { cli.SetApp(nil) })

	_, err := run(t, "flush")

	assert.ErrorContains(t, err, "db locked")
}

func TestRelay(t *testing.T) {
	relay := new(mockRelay)
	relay.On("Run", mock.Anything).Return(nil)
	cli.SetApp(&cli.App{OutboxRelay: relay})
	t.Cleanup(func() { cli.SetApp(nil) })

	_, err := run(t, "relay")

	require.NoError(t, err)
	relay.AssertExpectations(t)
}

func TestWithoutOutbox(t *testing.T) {
	cli.SetApp(&cli.App{})
	t.Cleanup(func() { cli.SetApp(nil) })

	for _, sub := range []string{"status", "flush", "relay"} {
		_, err := run(t, sub)
		assert.ErrorIs(t, err, errNoOutbox, sub)
	}
}
