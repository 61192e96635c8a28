package upload

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"movievault/internal/auth"
)

const (
	testAPIKey    = "test-api-key"
	testJWTSecret = "test-jwt-secret"
)

func newGuardedServer(t *testing.T, store ObjectStore) *httptest.Server {
	t.Helper()
	log := zap.NewNop().Sugar()
	authn := auth.NewAuthenticator(&auth.Config{APIKey: testAPIKey, JWTSecret: testJWTSecret})

	mux := http.NewServeMux()
	NewHandler(NewService(store, log), log).Register(mux, auth.RequirePrivileged(authn, auth.StaffAuthorizer{}, log))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func call(t *testing.T, srv *httptest.Server, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(string(payload)))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var raw json.RawMessage
	_ = json.NewDecoder(resp.Body).Decode(&raw)
	return resp, raw
}

// Integration test covering the full multipart flow behind the auth guard
func TestUploadIntegration_FullFlow(t *testing.T) {
	store := NewMockStore()
	srv := newGuardedServer(t, store)

	staff, err := auth.NewJWTVerifier(testJWTSecret).Sign("editor-1", true, nil, time.Hour)
	require.NoError(t, err)

	resp, body := call(t, srv, http.MethodPost, "/api/movies/upload/initiate/", staff, InitiateRequest{
		FileName:  "feature.mkv",
		FileType:  "video/x-matroska",
		FieldName: "video_file",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var init InitiateResponse
	require.NoError(t, json.Unmarshal(body, &init))

	var parts []CompletedPart
	for i := 1; i <= 3; i++ {
		resp, body := call(t, srv, http.MethodPost, "/api/movies/upload/sign-part/", staff, map[string]any{
			"upload_id":   init.UploadID,
			"file_key":    init.FileKey,
			"part_number": i,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

		etag := fmt.Sprintf(`"etag-%d"`, i)
		store.ReceivePart(init.UploadID, int32(i), etag)
		parts = append(parts, CompletedPart{ETag: etag, PartNumber: int32(i)})
	}

	resp, body = call(t, srv, http.MethodPost, "/api/movies/upload/complete/", testAPIKey, CompleteRequest{
		UploadID: init.UploadID,
		FileKey:  init.FileKey,
		Parts:    parts,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.JSONEq(t, `{"status":"complete"}`, string(body))
	assert.True(t, store.objects[init.FileKey])
}

func TestUploadIntegration_RejectedBeforeStore(t *testing.T) {
	viewer, err := auth.NewJWTVerifier(testJWTSecret).Sign("user-9", false, []string{"viewer"}, time.Hour)
	require.NoError(t, err)

	routes := []struct{ method, path string }{
		{http.MethodPost, "/api/movies/upload/initiate/"},
		{http.MethodPost, "/api/movies/upload/sign-part/"},
		{http.MethodPost, "/api/movies/upload/complete/"},
		{http.MethodPost, "/api/movies/upload/abort"},
		{http.MethodGet, "/api/movies/upload/presigned-url/?file_name=movie.mp4&file_type=video/mp4"},
	}

	tests := []struct {
		name           string
		token          string
		expectedStatus int
	}{
		{"anonymous", "", http.StatusUnauthorized},
		{"bad token", "not-a-token", http.StatusUnauthorized},
		{"non-privileged user", viewer, http.StatusForbidden},
	}

	for _, tt := range tests {
		for _, route := range routes {
			t.Run(tt.name+" "+route.method+" "+route.path, func(t *testing.T) {
				store := NewMockStore()
				srv := newGuardedServer(t, store)

				resp, _ := call(t, srv, route.method, route.path, tt.token, map[string]any{
					"file_name":   "movie.mp4",
					"file_type":   "video/mp4",
					"upload_id":   "upload-1",
					"file_key":    "movies/full/a.mp4",
					"part_number": 1,
					"parts":       []CompletedPart{{ETag: "e", PartNumber: 1}},
				})

				assert.Equal(t, tt.expectedStatus, resp.StatusCode)
				assert.Equal(t, 0, store.Calls())
			})
		}
	}
}
