package verify

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"passgate/internal/token"
)

const testToken = "03AGdBq25abcdefghijklmnopqrstuvwxyz"

func TestClientVerify(t *testing.T) {
	t.Run("admitted with score", func(t *testing.T) {
		var gotSecret, gotResponse string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			gotSecret = r.PostFormValue("secret")
			gotResponse = r.PostFormValue("response")
			io.WriteString(w, `{"success":true,"score":0.8}`)
		}))
		defer srv.Close()

		c := NewClient(token.KindBehavioral, srv.URL, "shhh")
		outcome := c.Verify(context.Background(), testToken)

		assert.True(t, outcome.Admitted)
		require.NotNil(t, outcome.Confidence)
		assert.InDelta(t, 0.8, *outcome.Confidence, 1e-9)
		assert.Equal(t, "shhh", gotSecret)
		assert.Equal(t, testToken, gotResponse)
	})

	t.Run("denied with error codes", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"success":false,"error-codes":["invalid-input-response","timeout-or-duplicate"]}`)
		}))
		defer srv.Close()

		c := NewClient(token.KindChallenge, srv.URL, "shhh")
		outcome := c.Verify(context.Background(), testToken)

		assert.False(t, outcome.Admitted)
		assert.Nil(t, outcome.Confidence)
		assert.Equal(t, []string{"invalid-input-response", "timeout-or-duplicate"}, outcome.AuthorityErrors)
	})

	t.Run("empty token short-circuits without a call", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			io.WriteString(w, `{"success":true}`)
		}))
		defer srv.Close()

		c := NewClient(token.KindBehavioral, srv.URL, "shhh")
		outcome := c.Verify(context.Background(), "")

		assert.False(t, outcome.Admitted)
		require.NotNil(t, outcome.Confidence)
		assert.Equal(t, 0.0, *outcome.Confidence)
		assert.Equal(t, int32(0), calls.Load())
	})

	t.Run("timeout degrades to negative outcome", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
			io.WriteString(w, `{"success":true,"score":0.9}`)
		}))
		defer srv.Close()

		c := NewClient(token.KindChallenge, srv.URL, "shhh", WithTimeout(20*time.Millisecond))
		outcome := c.Verify(context.Background(), testToken)

		assert.False(t, outcome.Admitted)
		assert.Nil(t, outcome.Confidence)
	})

	t.Run("transport failure degrades to negative outcome", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close() // connection refused from here on

		c := NewClient(token.KindBehavioral, srv.URL, "shhh")
		outcome := c.Verify(context.Background(), testToken)

		assert.False(t, outcome.Admitted)
		require.NotNil(t, outcome.Confidence)
		assert.Equal(t, 0.0, *outcome.Confidence)
	})

	t.Run("malformed payload degrades to negative outcome", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"success":`)
		}))
		defer srv.Close()

		c := NewClient(token.KindChallenge, srv.URL, "shhh")
		assert.False(t, c.Verify(context.Background(), testToken).Admitted)
	})

	t.Run("non-200 status degrades to negative outcome", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		c := NewClient(token.KindChallenge, srv.URL, "shhh")
		assert.False(t, c.Verify(context.Background(), testToken).Admitted)
	})
}
