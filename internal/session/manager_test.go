package session

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brickify/web/internal/models"
	"github.com/brickify/web/internal/uploadgate"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestManager_CreateAndGet(t *testing.T) {
	m := NewManager(nil, quietLogger())

	s := m.Create()
	require.NotEmpty(t, s.ID)
	assert.False(t, s.Authenticated())

	got, ok := m.Get(s.ID)
	require.True(t, ok)
	assert.Same(t, s, got)

	_, ok = m.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, 1, m.Count())
}

func TestManager_GetOrCreate(t *testing.T) {
	m := NewManager(nil, quietLogger())

	s, created := m.GetOrCreate("")
	assert.True(t, created)

	again, created := m.GetOrCreate(s.ID)
	assert.False(t, created)
	assert.Same(t, s, again)

	other, created := m.GetOrCreate("stale-cookie")
	assert.True(t, created)
	assert.NotEqual(t, s.ID, other.ID)
}

func TestManager_GateFactory(t *testing.T) {
	var owners []string
	m := NewManager(func(s *Session) *uploadgate.Gate {
		owners = append(owners, s.ID)
		return uploadgate.New(func(ctx context.Context, f models.SelectedFile) error { return nil })
	}, quietLogger())

	a := m.Create()
	b := m.Create()
	require.NotNil(t, a.Gate())
	assert.NotSame(t, a.Gate(), b.Gate(), "each session owns its own gate")
	assert.Equal(t, []string{a.ID, b.ID}, owners)
}

func TestSession_SignInOut(t *testing.T) {
	m := NewManager(nil, quietLogger())
	s := m.Create()

	s.SignIn("ada@example.com", "tok")
	assert.True(t, s.Authenticated())
	assert.Equal(t, "tok", s.Token())
	assert.Equal(t, "ada@example.com", s.Email())

	s.SetResult(models.AnalysisResult(`{"ok":true}`))
	s.SignOut()
	assert.False(t, s.Authenticated())
	result, errMsg := s.Outcome()
	assert.Nil(t, result)
	assert.Empty(t, errMsg)
}

func TestSession_Outcome(t *testing.T) {
	s := NewManager(nil, quietLogger()).Create()

	s.SetResult(models.AnalysisResult(`{"bricks":[]}`))
	result, errMsg := s.Outcome()
	assert.JSONEq(t, `{"bricks":[]}`, string(result))
	assert.Empty(t, errMsg)

	s.SetError("error while analyzing the image")
	result, errMsg = s.Outcome()
	assert.Nil(t, result)
	assert.Equal(t, "error while analyzing the image", errMsg)

	s.BeginAnalysis()
	result, errMsg = s.Outcome()
	assert.Nil(t, result)
	assert.Empty(t, errMsg)
}

func TestManager_CleanupOldSessions(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	release := make(chan struct{})
	started := make(chan struct{})
	m := NewManager(func(s *Session) *uploadgate.Gate {
		return uploadgate.New(func(ctx context.Context, f models.SelectedFile) error {
			close(started)
			<-release
			return nil
		})
	}, quietLogger())
	m.now = func() time.Time { return now }

	stale := m.Create()
	busy := m.Create()

	now = now.Add(30 * time.Minute)
	fresh := m.Create()

	done := make(chan error, 1)
	go func() {
		done <- busy.Gate().Submit(context.Background(), models.NewSelectedFile("a.png", "image/png", []byte("x")))
	}()
	<-started

	removed := m.CleanupOldSessions(10 * time.Minute)
	assert.Equal(t, 1, removed)

	_, ok := m.Get(stale.ID)
	assert.False(t, ok, "idle session should be removed")
	_, ok = m.Get(busy.ID)
	assert.True(t, ok, "session with upload in flight should be kept")
	_, ok = m.Get(fresh.ID)
	assert.True(t, ok)

	close(release)
	require.NoError(t, <-done)
}
