package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Zacy-Sokach/PolyChat/internal/chat"
	"github.com/Zacy-Sokach/PolyChat/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(n int) []chat.Message {
	base := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	out := make([]chat.Message, n)
	for i := range out {
		role := chat.RoleUser
		if i%2 == 1 {
			role = chat.RoleAssistant
		}
		out[i] = chat.Message{
			ID:        fmt.Sprintf("id-%d", i),
			Role:      role,
			Content:   fmt.Sprintf("**第 %d 条**", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
	}
	return out
}

// roundTrip 对每种存储执行相同的读写检查
func roundTrip(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got, "fresh store has no messages")

	want := sample(4)
	require.NoError(t, s.Save(ctx, want))

	got, err = s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 4)
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
		assert.Equal(t, want[i].Role, got[i].Role)
		assert.Equal(t, want[i].Content, got[i].Content)
		assert.True(t, want[i].CreatedAt.Equal(got[i].CreatedAt), "created_at %d", i)
	}

	// 覆盖写入更短的列表
	require.NoError(t, s.Save(ctx, want[:2]))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestFileStoreRoundTrip(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "nested", "messages.json"), nil)
	defer s.Close()
	roundTrip(t, s)
}

func TestFileStoreEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.json")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	got, err := NewFileStore(path, nil).Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFileStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := NewFileStore(path, nil).Load(context.Background())
	assert.Error(t, err)
}

func TestFileStoreCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewFileStore(filepath.Join(t.TempDir(), "m.json"), nil)
	_, err := s.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, s.Save(ctx, sample(1)), context.Canceled)
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "messages.db"), nil)
	require.NoError(t, err)
	defer s.Close()
	roundTrip(t, s)
}

func TestSQLiteStorePersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.db")
	s, err := OpenSQLite(path, nil)
	require.NoError(t, err)
	require.NoError(t, s.Save(context.Background(), sample(3)))
	require.NoError(t, s.Close())

	reopened, err := OpenSQLite(path, nil)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "id-2", got[2].ID)
}

func TestSQLiteStoreDuplicateIDRollsBack(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "messages.db"), nil)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Save(context.Background(), sample(2)))

	dup := sample(2)
	dup[1].ID = dup[0].ID
	assert.Error(t, s.Save(context.Background(), dup))

	got, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 2, "failed save keeps previous rows")
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	roundTrip(t, NewMemoryStore())
}

// fakeRemote 模拟远端消息服务
type fakeRemote struct {
	mu       sync.Mutex
	body     []byte
	status   int
	lastAuth string
}

func (f *fakeRemote) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastAuth = r.Header.Get("Authorization")

	if f.status != 0 {
		w.WriteHeader(f.status)
		w.Write([]byte("boom"))
		return
	}

	switch r.Method {
	case http.MethodGet:
		if f.body == nil {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(f.body)
	case http.MethodPut:
		var msgs []chat.Message
		if err := json.NewDecoder(r.Body).Decode(&msgs); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.body, _ = json.Marshal(msgs)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestHTTPStoreRoundTrip(t *testing.T) {
	remote := &fakeRemote{}
	server := httptest.NewServer(remote)
	defer server.Close()

	s := NewHTTPStore(server.URL, "secret", 5*time.Second, nil).WithClient(server.Client())
	roundTrip(t, s)

	remote.mu.Lock()
	defer remote.mu.Unlock()
	assert.Equal(t, "Bearer secret", remote.lastAuth)
}

func TestHTTPStoreErrorStatus(t *testing.T) {
	server := httptest.NewServer(&fakeRemote{status: http.StatusForbidden})
	defer server.Close()

	s := NewHTTPStore(server.URL, "", time.Second, nil).WithClient(server.Client())

	_, err := s.Load(context.Background())
	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusForbidden, httpErr.StatusCode)
	assert.Equal(t, "boom", httpErr.Body)

	err = s.Save(context.Background(), sample(1))
	assert.True(t, errors.As(err, &httpErr))
}

func TestOpenByKind(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		cfg  config.StoreConfig
		kind string
	}{
		{config.StoreConfig{Kind: config.StoreFile, Path: filepath.Join(dir, "m.json")}, "file"},
		{config.StoreConfig{Kind: config.StoreSQLite, Path: filepath.Join(dir, "m.db")}, "sqlite"},
		{config.StoreConfig{Kind: config.StoreHTTP, URL: "http://127.0.0.1:1/messages"}, "http"},
		{config.StoreConfig{Kind: config.StoreMemory}, "memory"},
	}

	for _, tc := range cases {
		s, err := Open(tc.cfg, nil)
		require.NoError(t, err, tc.kind)
		assert.Equal(t, tc.kind, s.Kind())
		require.NoError(t, s.Close())
	}

	_, err := Open(config.StoreConfig{Kind: "redis"}, nil)
	assert.Error(t, err)
}

func TestWatchable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.json")
	got, ok := Watchable(NewFileStore(path, nil))
	assert.True(t, ok)
	assert.Equal(t, path, got)

	_, ok = Watchable(NewMemoryStore())
	assert.False(t, ok)
}

func TestStoreSatisfiesViewModel(t *testing.T) {
	s := NewMemoryStore(sample(6)...)
	vm := chat.NewListViewModel(chat.NewSession(), s, 4, nil)

	assert.Equal(t, chat.RefreshUpdated, vm.Refresh(context.Background()))
	assert.Len(t, vm.Visible(), 4)
	assert.Equal(t, "id-2", vm.Visible()[0].ID)
}
