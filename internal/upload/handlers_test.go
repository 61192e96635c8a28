package upload

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func passthrough(next http.Handler) http.Handler { return next }

func newTestMux(store ObjectStore) *http.ServeMux {
	log := zap.NewNop().Sugar()
	mux := http.NewServeMux()
	NewHandler(NewService(store, log), log).Register(mux, passthrough)
	return mux
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHandler_Initiate(t *testing.T) {
	store := NewMockStore()
	mux := newTestMux(store)

	rr := post(t, mux, "/api/movies/upload/initiate", `{"file_name":"movie.mp4","file_type":"video/mp4","field_name":"video_file"}`)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.NotEmpty(t, body["upload_id"])
	assert.Regexp(t, "^movies/full/"+uuidPattern+`\.mp4$`, body["file_key"])
}

func TestHandler_SignPart_AcceptsStringOrNumber(t *testing.T) {
	store := NewMockStore()
	mux := newTestMux(store)

	rr := post(t, mux, "/api/movies/upload/initiate", `{"file_name":"movie.mp4","file_type":"video/mp4"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	var init InitiateResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &init))

	for _, pn := range []string{`3`, `"3"`} {
		body := `{"upload_id":"` + init.UploadID + `","file_key":"` + init.FileKey + `","part_number":` + pn + `}`
		rr := post(t, mux, "/api/movies/upload/sign-part", body)

		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		var resp SignPartResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Contains(t, resp.URL, "partNumber=3&")
	}
}

func TestHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		body           string
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "initiate missing file_type",
			path:           "/api/movies/upload/initiate",
			body:           `{"file_name":"movie.mp4"}`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrCodeMissingParameter,
		},
		{
			name:           "initiate empty body",
			path:           "/api/movies/upload/initiate",
			body:           ``,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrCodeMissingParameter,
		},
		{
			name:           "malformed json",
			path:           "/api/movies/upload/initiate",
			body:           `{"file_name":`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrCodeBadRequest,
		},
		{
			name:           "sign part zero",
			path:           "/api/movies/upload/sign-part",
			body:           `{"upload_id":"u","file_key":"movies/full/a.mp4","part_number":0}`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrCodeInvalidPart,
		},
		{
			name:           "sign part not a number",
			path:           "/api/movies/upload/sign-part",
			body:           `{"upload_id":"u","file_key":"movies/full/a.mp4","part_number":"first"}`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrCodeInvalidPart,
		},
		{
			name:           "sign part null",
			path:           "/api/movies/upload/sign-part",
			body:           `{"upload_id":"u","file_key":"movies/full/a.mp4","part_number":null}`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrCodeMissingParameter,
		},
		{
			name:           "complete empty parts",
			path:           "/api/movies/upload/complete",
			body:           `{"upload_id":"u","file_key":"movies/full/a.mp4","parts":[]}`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrCodeMissingParameter,
		},
		{
			name:           "complete unknown upload",
			path:           "/api/movies/upload/complete",
			body:           `{"upload_id":"nope","file_key":"movies/full/a.mp4","parts":[{"ETag":"e","PartNumber":1}]}`,
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   ErrCodeStorage,
		},
		{
			name:           "abort unknown upload",
			path:           "/api/movies/upload/abort",
			body:           `{"upload_id":"nope","file_key":"movies/full/a.mp4"}`,
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   ErrCodeStorage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := post(t, newTestMux(NewMockStore()), tt.path, tt.body)

			require.Equal(t, tt.expectedStatus, rr.Code, rr.Body.String())
			var errResp ErrorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &errResp))
			assert.Equal(t, tt.expectedCode, errResp.Code)
			assert.NotEmpty(t, errResp.Message)
		})
	}
}

func TestHandler_StoreErrorTextReachesCaller(t *testing.T) {
	store := NewMockStore()
	mux := newTestMux(store)

	rr := post(t, mux, "/api/movies/upload/abort", `{"upload_id":"gone","file_key":"movies/full/a.mp4"}`)

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "NoSuchUpload")
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	mux := newTestMux(NewMockStore())

	req := httptest.NewRequest(http.MethodGet, "/api/movies/upload/initiate", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestHandler_TrailingSlashRoutes(t *testing.T) {
	store := NewMockStore()
	mux := newTestMux(store)

	rr := post(t, mux, "/api/movies/upload/initiate/", `{"file_name":"movie.mp4","file_type":"video/mp4"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var init InitiateResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &init))

	session := `"upload_id":"` + init.UploadID + `","file_key":"` + init.FileKey + `"`
	rr = post(t, mux, "/api/movies/upload/sign-part/", `{`+session+`,"part_number":1}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	store.ReceivePart(init.UploadID, 1, "etag-1")
	rr = post(t, mux, "/api/movies/upload/complete/", `{`+session+`,"parts":[{"PartNumber":1,"ETag":"etag-1"}]}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.JSONEq(t, `{"status":"complete"}`, rr.Body.String())

	rr = post(t, mux, "/api/movies/upload/initiate/", `{"file_name":"b.mp4","file_type":"video/mp4"}`)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &init))
	rr = post(t, mux, "/api/movies/upload/abort/", `{"upload_id":"`+init.UploadID+`","file_key":"`+init.FileKey+`"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.JSONEq(t, `{"status":"aborted"}`, rr.Body.String())
}

func TestHandler_Presign(t *testing.T) {
	for _, path := range []string{"/api/movies/upload/presigned-url", "/api/movies/upload/presigned-url/"} {
		t.Run(path, func(t *testing.T) {
			mux := newTestMux(NewMockStore())

			req := httptest.NewRequest(http.MethodGet, path+"?file_name=still.png&file_type=image/png&field_name=backdrop", nil)
			rr := httptest.NewRecorder()
			mux.ServeHTTP(rr, req)

			require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
			var resp PresignResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.True(t, strings.HasPrefix(resp.FileKey, PrefixBackdrops))
			assert.True(t, strings.HasSuffix(resp.FileKey, ".png"))
			assert.NotEmpty(t, resp.URL)
			assert.Equal(t, resp.FileKey, resp.Fields["key"])
			assert.Equal(t, "image/png", resp.Fields["Content-Type"])
		})
	}
}

func TestHandler_Presign_MissingParams(t *testing.T) {
	store := NewMockStore()
	mux := newTestMux(store)

	req := httptest.NewRequest(http.MethodGet, "/api/movies/upload/presigned-url/", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &errResp))
	assert.Equal(t, ErrCodeMissingParameter, errResp.Code)
	assert.Equal(t, 0, store.Calls())
}
