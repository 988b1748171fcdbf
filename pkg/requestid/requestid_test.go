package requestid_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/donoralert/pkg/requestid"
)

func TestMiddleware(t *testing.T) {
	t.Parallel()

	var seen string
	handler := requestid.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestid.FromContext(r.Context())
	}))

	serve := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set(requestid.Header, header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	t.Run("generates id when missing", func(t *testing.T) {
		rec := serve("")
		id := rec.Header().Get(requestid.Header)
		_, err := uuid.Parse(id)
		require.NoError(t, err)
		assert.Equal(t, id, seen)
	})

	t.Run("keeps valid client id", func(t *testing.T) {
		rec := serve("req_abc-123")
		assert.Equal(t, "req_abc-123", rec.Header().Get(requestid.Header))
		assert.Equal(t, "req_abc-123", seen)
	})

	for _, bad := range []string{"has space", "semi;colon", "<script>", strings.Repeat("a", 129)} {
		t.Run("replaces "+bad[:min(len(bad), 10)], func(t *testing.T) {
			rec := serve(bad)
			assert.NotEqual(t, bad, rec.Header().Get(requestid.Header))
			assert.NotEmpty(t, seen)
		})
	}
}

func TestExtract(t *testing.T) {
	t.Parallel()

	_, ok := requestid.Extract(context.Background())
	assert.False(t, ok)

	ctx := requestid.WithContext(context.Background(), "abc")
	id, ok := requestid.Extract(ctx)
	assert.True(t, ok)
	assert.Equal(t, "abc", id)

	attr, ok := requestid.LoggerExtractor()(ctx)
	assert.True(t, ok)
	assert.Equal(t, "request_id", attr.Key)
	assert.Equal(t, "abc", attr.Value.String())
}
