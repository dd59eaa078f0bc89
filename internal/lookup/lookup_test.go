package lookup

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHTTPService_GetProfile(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/accounts/12345678":
			w.Write([]byte(`{"code":0,"data":{"account_id":"12345678","account_name":"neo","level":5,"badge":"crew"}}`))
		case "/accounts/404404":
			w.WriteHeader(http.StatusNotFound)
		case "/accounts/500500":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.Write([]byte(`{"code":-412}`))
		}
	}))
	defer ts.Close()

	svc := NewHTTPService(ts.URL, time.Second)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		prof, err := svc.GetProfile(ctx, "12345678")
		assert.NoError(t, err)
		assert.NotNil(t, prof)
		assert.Equal(t, "neo", prof.AccountName)
		assert.Equal(t, int32(5), prof.Level)
	})

	t.Run("NotFound", func(t *testing.T) {
		prof, err := svc.GetProfile(ctx, "404404")
		assert.NoError(t, err)
		assert.Nil(t, prof)
	})

	t.Run("ServerError", func(t *testing.T) {
		prof, err := svc.GetProfile(ctx, "500500")
		assert.Error(t, err)
		assert.Nil(t, prof)
	})

	t.Run("RateLimited", func(t *testing.T) {
		prof, err := svc.GetProfile(ctx, "999")
		assert.Error(t, err)
		assert.Nil(t, prof)
	})
}
