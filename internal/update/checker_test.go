package update

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"v1.2.0", "1.2.0", 0},
		{"1.2", "1.2.0", 0},
		{"v1.2.0", "v1.10.0", -1},
		{"2.0.0", "1.9.9", 1},
		{"v1.3.0-rc1", "v1.3.0", 0},
		{"dev", "v0.1.0", -1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CompareVersions(tt.a, tt.b), "%s vs %s", tt.a, tt.b)
	}
}

func TestCheckForUpdate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/"+Repo+"/releases/latest", r.URL.Path)
		w.Write([]byte(`{"tag_name":"v0.3.0","html_url":"https://example.com/r"}`))
	}))
	defer srv.Close()

	c := NewChecker(nil).WithBaseURL(srv.URL)

	newer, release, err := c.CheckForUpdate(context.Background(), "v0.2.1")
	require.NoError(t, err)
	assert.True(t, newer)
	assert.Equal(t, "v0.3.0", release.TagName)

	newer, _, err = c.CheckForUpdate(context.Background(), "v0.3.0")
	require.NoError(t, err)
	assert.False(t, newer)
}

func TestLatestNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := NewChecker(nil).WithBaseURL(srv.URL).Latest(context.Background())
	assert.ErrorContains(t, err, "404")
}
