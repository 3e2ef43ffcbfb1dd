package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/oceanboard/internal/breaker"
	"github.com/raphaelgruber/oceanboard/internal/models"
)

type staticToken string

func (s staticToken) Token() (string, error) {
	if s == "" {
		return "", ErrUnauthenticated
	}
	return string(s), nil
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", staticToken("tok-123"), 5*time.Second, opts...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewTrimsBaseURL(t *testing.T) {
	c := New("http://localhost:8000///", nil, 0)
	assert.Equal(t, "http://localhost:8000", c.BaseURL())
}

func TestRecordsSendsBearerAndLimit(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/data/records", r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		writeJSON(w, http.StatusOK, map[string]any{
			"records": []models.Record{{ID: "R1", Region: models.RegionArctic, Year: 2024}},
		})
	})

	records, err := c.Records(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "R1", records[0].ID)
	assert.Equal(t, models.RegionArctic, records[0].Region)
}

func TestUnauthorizedIsNotAStatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "token expired"})
	})

	_, err := c.DashboardStats(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	var se *StatusError
	assert.False(t, errors.As(err, &se))
}

func TestMissingTokenFailsBeforeNetwork(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := New(srv.URL, staticToken(""), time.Second)
	_, err := c.Profile(context.Background())
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.False(t, called)

	c = New(srv.URL, nil, time.Second)
	_, err = c.UserStats(context.Background())
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.False(t, called)
}

func TestServerErrorIsStatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "database down", http.StatusInternalServerError)
	})

	_, err := c.MonthlyDistribution(context.Background())
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.StatusCode)
	assert.Equal(t, "database down", se.Body)
	assert.Contains(t, se.Error(), "500")
}

func TestMalformedJSONIsError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"stats": [`))
	})

	_, err := c.ProfilerStats(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode /api/dashboard/profiler-stats")
}

func TestLoginIsPublic(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["password"] != "hunter22" {
			http.Error(w, "bad credentials", http.StatusUnauthorized)
			return
		}
		writeJSON(w, http.StatusOK, models.AuthToken{AccessToken: "jwt", TokenType: "bearer"})
	}))
	defer srv.Close()

	c := New(srv.URL, nil, time.Second)

	token, err := c.Login(context.Background(), "ana", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "jwt", token.AccessToken)

	_, err = c.Login(context.Background(), "ana", "wrong")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestBreakerOpensOnServerErrors(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "boom", http.StatusBadGateway)
	}, WithBreaker(breaker.New(2, time.Minute)))

	for range 2 {
		_, err := c.DashboardStats(context.Background())
		var se *StatusError
		require.ErrorAs(t, err, &se)
	}

	_, err := c.DashboardStats(context.Background())
	assert.ErrorIs(t, err, breaker.ErrOpen)
	assert.Equal(t, 2, calls)
}

func TestBreakerIgnoresClientErrors(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "nope", http.StatusNotFound)
	}, WithBreaker(breaker.New(1, time.Minute)))

	for range 3 {
		_, err := c.UserActivity(context.Background())
		var se *StatusError
		require.ErrorAs(t, err, &se)
	}
	assert.Equal(t, 3, calls)
}

func TestSendChatMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/chat/message", r.URL.Path)
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "local_1", body["session_id"])
		assert.Equal(t, "show temperature", body["message"])
		writeJSON(w, http.StatusOK, ChatReply{
			Response: "Here you go",
			Charts:   []models.ChartSpec{{Type: models.ChartLine, Title: "T"}},
		})
	})

	reply, err := c.SendChatMessage(context.Background(), "local_1", "show temperature")
	require.NoError(t, err)
	assert.Equal(t, "Here you go", reply.Response)
	require.Len(t, reply.Charts, 1)
	assert.Equal(t, models.ChartLine, reply.Charts[0].Type)
}

func TestMarkNotificationReadEscapesID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/notifications/a%2Fb/read", r.URL.EscapedPath())
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.MarkNotificationRead(context.Background(), "a/b"))
}

func TestExportReadsFilename(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "csv", r.URL.Query().Get("format"))
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="ocean_data.csv"`)
		w.Write([]byte("ID\nR1\n"))
	})

	file, err := c.Export(context.Background(), "csv")
	require.NoError(t, err)
	assert.Equal(t, "ocean_data.csv", file.Filename)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.Equal(t, "ID\nR1\n", string(file.Data))
}

func TestUploadStreamsMultipart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		assert.NoError(t, err)
		assert.Equal(t, `floats "2024".csv`, header.Filename)
		assert.Equal(t, "text/csv", header.Header.Get("Content-Type"))
		writeJSON(w, http.StatusOK, models.UploadResult{Filename: header.Filename, Size: int64(len(data)), Records: 2})
	})

	content := "id,temperature\nA,10\nB,12\n"
	result, err := c.Upload(context.Background(), `floats "2024".csv`, "text/csv", strings.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), result.Size)
	assert.Equal(t, 2, result.Records)
}

func TestContextCancellation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Records(ctx, 10)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
