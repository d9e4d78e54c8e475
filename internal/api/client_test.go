package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumetracker/internal/errors"
	"resumetracker/internal/session"
	"resumetracker/internal/transport"
	"resumetracker/internal/types"
)

type backend struct {
	calls atomic.Int32
	store *session.MemoryStore
}

func newTestAPI(t *testing.T, handler http.HandlerFunc) (*Client, *backend) {
	t.Helper()
	b := &backend{store: session.NewMemoryStore(types.AuthSession{Token: "tok", User: types.UserData{Username: "ana"}})}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	doer := transport.NewClient(transport.Options{
		BaseURL:        server.URL,
		Timeout:        2 * time.Second,
		LoginPath:      "/auth/login",
		RetryBaseDelay: time.Millisecond,
		Credentials:    b.store,
	})
	return NewClient(doer, Options{UploadTimeout: 2 * time.Second, AnalyzeTimeout: 2 * time.Second}), b
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func TestUploadValidation(t *testing.T) {
	tests := []struct {
		name      string
		mimeType  string
		size      int64
		wantCode  string
		wantCalls int32
	}{
		{"pdf at limit", MimePDF, MaxUploadSize, "", 1},
		{"doc", MimeDOC, 1024, "", 1},
		{"docx", MimeDOCX, 1024, "", 1},
		{"pdf over limit", MimePDF, MaxUploadSize + 1, errors.ErrCodeFileTooLarge, 0},
		{"plain text", "text/plain", 10, errors.ErrCodeInvalidFileType, 0},
		{"wrong type and too large", "image/png", MaxUploadSize * 2, errors.ErrCodeInvalidFileType, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, b := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, map[string]any{
					"success": true,
					"data":    map[string]any{"id": "r1", "originalFilename": "resume.pdf"},
				})
			})

			result := client.UploadResume(context.Background(), FileUpload{
				Name:     "resume.pdf",
				MimeType: tt.mimeType,
				Size:     tt.size,
				Reader:   strings.NewReader("data"),
			})

			assert.Equal(t, tt.wantCalls, b.calls.Load())
			if tt.wantCode == "" {
				require.True(t, result.OK, result.Message())
				assert.Equal(t, "r1", result.Value.ID)
				return
			}
			require.False(t, result.OK)
			assert.True(t, errors.IsType(result.Err, errors.ErrorTypeValidation))
			var appErr *errors.AppError
			require.True(t, asAppError(result.Err, &appErr))
			assert.Equal(t, tt.wantCode, appErr.Code)
		})
	}
}

func TestUploadFailureMessage(t *testing.T) {
	client, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "Unsupported document"})
	})

	result := client.UploadResume(context.Background(), FileUpload{
		Name: "a.pdf", MimeType: MimePDF, Size: 10, Reader: strings.NewReader("x"),
	})
	require.False(t, result.OK)
	assert.Equal(t, "Unsupported document", result.Message())
}

func TestEnvelopeDecoding(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantOK      bool
		wantMessage string
	}{
		{"success", `{"success":true,"data":[{"id":"a"},{"id":"b"}]}`, true, ""},
		{"success false with message", `{"success":false,"message":"Nope"}`, false, "Nope"},
		{"success false without message", `{"success":false}`, false, errors.MsgRequestFailed},
		{"empty body", ``, false, errors.MsgNoResponseData},
		{"not json", `<html>`, false, "Invalid response from server"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, tt.body)
			})

			result := client.ListResumes(context.Background())
			assert.Equal(t, tt.wantOK, result.OK)
			if tt.wantOK {
				require.Len(t, result.Value, 2)
				assert.Equal(t, "a", result.Value[0].ID)
				assert.Equal(t, "b", result.Value[1].ID)
				return
			}
			assert.Equal(t, tt.wantMessage, result.Message())
		})
	}
}

func TestGetResumeNotFound(t *testing.T) {
	client, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/resumes/missing", r.URL.Path)
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "message": "Resume not found"})
	})

	result := client.GetResume(context.Background(), "missing")
	require.False(t, result.OK)
	assert.True(t, errors.IsType(result.Err, errors.ErrorTypeNotFound))
	assert.Equal(t, "Resume not found", result.Message())
}

func TestAnalyzeResume(t *testing.T) {
	var got types.AnalyzeRequest
	client, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/resumes/analyze", r.URL.Path)
		json.NewDecoder(r.Body).Decode(&got)
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data": map[string]any{
				"jobScore":        82,
				"matchedKeywords": []string{"Go"},
				"missingKeywords": []string{"Kubernetes"},
			},
		})
	})

	result := client.AnalyzeResume(context.Background(), "r1", "Backend engineer")
	require.True(t, result.OK, result.Message())
	assert.Equal(t, 82, result.Value.JobScore)
	assert.Equal(t, types.AnalyzeRequest{ResumeID: "r1", JobDescription: "Backend engineer"}, got)
}

func TestAnalyzeRequiresResumeID(t *testing.T) {
	client, b := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{"jobScore": 1}})
	})

	result := client.AnalyzeResume(context.Background(), "", "Backend engineer")
	require.False(t, result.OK)
	assert.Equal(t, errors.ErrCodeMissingSelection, codeOf(result.Err))
	assert.Equal(t, int32(0), b.calls.Load())
}

func TestAnalyzeTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	doer := transport.NewClient(transport.Options{BaseURL: server.URL, Timeout: time.Minute})
	client := NewClient(doer, Options{AnalyzeTimeout: 40 * time.Millisecond})

	result := client.AnalyzeResume(context.Background(), "r1", "anything")
	require.False(t, result.OK)
	assert.True(t, errors.IsType(result.Err, errors.ErrorTypeTimeout))
}

func TestUpdateResumeContent(t *testing.T) {
	t.Run("empty content makes no request", func(t *testing.T) {
		client, b := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {})

		for _, html := range []string{"", "   \n\t"} {
			result := client.UpdateResumeContent(context.Background(), "r1", html)
			require.False(t, result.OK)
			assert.True(t, errors.IsType(result.Err, errors.ErrorTypeValidation))
			assert.Equal(t, errors.MsgEmptyContent, result.Message())
		}
		assert.Equal(t, int32(0), b.calls.Load())
	})

	t.Run("job id is returned", func(t *testing.T) {
		var got types.ContentUpdate
		client, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPut, r.Method)
			assert.Equal(t, "/resumes/r1/content", r.URL.Path)
			json.NewDecoder(r.Body).Decode(&got)
			writeJSON(w, http.StatusOK, map[string]any{
				"success": true,
				"data":    map[string]any{"id": "r1", "jobId": "job-7"},
			})
		})

		result := client.UpdateResumeContent(context.Background(), "r1", "<p>Hi</p>")
		require.True(t, result.OK, result.Message())
		assert.Equal(t, "job-7", result.Value.JobID)
		assert.Equal(t, "<p>Hi</p>", got.HTMLContent)
	})

	t.Run("server failure falls back to save message", func(t *testing.T) {
		client, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
		result := client.UpdateResumeContent(context.Background(), "r1", "<p>Hi</p>")
		require.False(t, result.OK)
		assert.NotEmpty(t, result.Message())
	})
}

func TestResumeReadAndUpdatePaths(t *testing.T) {
	client, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method + " " + r.URL.Path {
		case "GET /resumes/analysis/history":
			writeJSON(w, http.StatusOK, map[string]any{
				"success": true,
				"data":    []map[string]any{{"analysisId": "a1", "resumeId": "r1", "jobScore": 70}},
			})
		case "GET /resumes/r1/status":
			writeJSON(w, http.StatusOK, map[string]any{
				"success": true,
				"data":    map[string]any{"id": "r1", "parsingStatus": "COMPLETED"},
			})
		case "PUT /resumes/r1":
			var update types.ResumeUpdate
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&update))
			writeJSON(w, http.StatusOK, map[string]any{
				"success": true,
				"data":    map[string]any{"id": "r1", "personalDetails": map[string]any{"name": update.PersonalDetails.Name}},
			})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusTeapot)
		}
	})
	ctx := context.Background()

	history := client.GetAnalysisHistory(ctx)
	require.True(t, history.OK, history.Message())
	require.Len(t, history.Value, 1)
	require.NotNil(t, history.Value[0].JobScore)
	assert.Equal(t, 70, *history.Value[0].JobScore)

	status := client.GetResumeStatus(ctx, "r1")
	require.True(t, status.OK, status.Message())
	assert.Equal(t, "COMPLETED", status.Value.ParsingStatus)

	updated := client.UpdateResume(ctx, "r1", types.ResumeUpdate{PersonalDetails: types.PersonalDetails{Name: "Ana"}})
	require.True(t, updated.OK, updated.Message())
	require.NotNil(t, updated.Value.PersonalDetails)
	assert.Equal(t, "Ana", updated.Value.PersonalDetails.Name)

	assert.Equal(t, errors.ErrCodeMissingSelection, codeOf(client.GetResumeStatus(ctx, "").Err))
}

func codeOf(err error) string {
	var appErr *errors.AppError
	if asAppError(err, &appErr) {
		return appErr.Code
	}
	return ""
}

func TestDeleteResume(t *testing.T) {
	client, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		if r.URL.Path == "/resumes/gone" {
			writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "message": "Resume not found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Resume deleted successfully", "data": nil})
	})

	assert.True(t, client.DeleteResume(context.Background(), "r1").OK)

	result := client.DeleteResume(context.Background(), "gone")
	require.False(t, result.OK)
	assert.True(t, errors.IsType(result.Err, errors.ErrorTypeNotFound))
}

func TestDownloadResume(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		client, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", MimePDF)
			w.Header().Set("Content-Disposition", `attachment;filename="resume.pdf"`)
			w.Write([]byte("%PDF-1.7"))
		})

		result := client.DownloadResume(context.Background(), "r1")
		require.True(t, result.OK, result.Message())
		assert.True(t, result.Value.Ready())
		assert.Equal(t, MimePDF, result.Value.ContentType)
		assert.Equal(t, "resume.pdf", result.Value.FileName)
		assert.Equal(t, []byte("%PDF-1.7"), result.Value.Data)
	})

	t.Run("pending", func(t *testing.T) {
		client, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "2")
			w.WriteHeader(http.StatusAccepted)
		})

		result := client.DownloadResume(context.Background(), "r1")
		require.True(t, result.OK)
		assert.False(t, result.Value.Ready())
		assert.Equal(t, http.StatusAccepted, result.Value.Status)
		assert.Equal(t, 2*time.Second, result.Value.RetryAfter)
		assert.Empty(t, result.Value.Data)
	})

	t.Run("conflict keeps status and message", func(t *testing.T) {
		client, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusConflict, map[string]any{"message": "PDF generation failed"})
		})

		result := client.DownloadResume(context.Background(), "r1")
		require.False(t, result.OK)
		assert.Equal(t, http.StatusConflict, result.Value.Status)
		assert.Equal(t, "PDF generation failed", result.Value.Message)
	})
}

func TestFeedback(t *testing.T) {
	t.Run("invalid rating makes no request", func(t *testing.T) {
		client, b := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {})
		for _, rating := range []int{0, 6} {
			result := client.SubmitFeedback(context.Background(), rating, "x")
			assert.True(t, errors.IsType(result.Err, errors.ErrorTypeValidation))
		}
		assert.Equal(t, int32(0), b.calls.Load())
	})

	t.Run("submit decodes raw body", func(t *testing.T) {
		client, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
			var req types.FeedbackRequest
			json.NewDecoder(r.Body).Decode(&req)
			writeJSON(w, http.StatusOK, types.Feedback{ID: "f1", Username: "ana", Rating: req.Rating, FeedbackText: req.FeedbackText})
		})

		result := client.SubmitFeedback(context.Background(), 5, "  great  ")
		require.True(t, result.OK, result.Message())
		assert.Equal(t, "f1", result.Value.ID)
		assert.Equal(t, "great", result.Value.FeedbackText)
	})

	t.Run("submit failure without server message", func(t *testing.T) {
		client, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, "User not authenticated")
		})
		result := client.SubmitFeedback(context.Background(), 4, "ok")
		require.False(t, result.OK)
		assert.Equal(t, errors.MsgFeedbackSubmit, result.Message())
	})

	t.Run("list passes paging", func(t *testing.T) {
		client, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "2", r.URL.Query().Get("page"))
			assert.Equal(t, "5", r.URL.Query().Get("size"))
			writeJSON(w, http.StatusOK, map[string]any{
				"content": []types.Feedback{{ID: "f9", Rating: 3}},
				"last":    true,
				"number":  2,
			})
		})

		result := client.ListFeedback(context.Background(), 2, 5)
		require.True(t, result.OK, result.Message())
		assert.True(t, result.Value.Last)
		require.Len(t, result.Value.Content, 1)
		assert.Equal(t, "f9", result.Value.Content[0].ID)
	})

	t.Run("list failure uses server message", func(t *testing.T) {
		client, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"message": "Database down"})
		})
		result := client.ListFeedback(context.Background(), 0, 0)
		require.False(t, result.OK)
		assert.Equal(t, "Database down", result.Message())
	})
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        any
		wantOK      bool
		wantMessage string
	}{
		{"token", http.StatusOK, map[string]any{"token": "jwt"}, true, ""},
		{"no token", http.StatusOK, map[string]any{"message": "Account locked"}, false, "Account locked"},
		{"no token no message", http.StatusOK, map[string]any{}, false, errors.MsgLoginFailed},
		{"rejected", http.StatusUnauthorized, map[string]any{"message": "Invalid username or password"}, false, "Invalid username or password"},
		{"rejected silently", http.StatusUnauthorized, nil, false, errors.MsgLoginFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, b := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
				if tt.body == nil {
					w.WriteHeader(tt.status)
					return
				}
				writeJSON(w, tt.status, tt.body)
			})

			result := client.Login(context.Background(), "ana", "pw")
			assert.Equal(t, tt.wantOK, result.OK)
			if !tt.wantOK {
				assert.Equal(t, tt.wantMessage, result.Message())
			}

			current, _ := b.store.Get()
			assert.True(t, current.IsAuthenticated(), "login failures never clear the stored session")
		})
	}
}

func TestLoginCustomPath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/session", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{"token": "jwt"})
	}))
	defer server.Close()

	doer := transport.NewClient(transport.Options{BaseURL: server.URL, LoginPath: "/api/v2/session"})
	client := NewClient(doer, Options{LoginPath: "/api/v2/session"})

	result := client.Login(context.Background(), "ana", "pw")
	require.True(t, result.OK, result.Message())
	assert.Equal(t, "jwt", result.Value.Token)
}

func TestSignup(t *testing.T) {
	client, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/register", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{"message": "User registered successfully"})
	})

	result := client.Signup(context.Background(), types.SignupRequest{Username: "ana", Email: "a@b.c", Password: "pw"})
	require.True(t, result.OK, result.Message())
	assert.Equal(t, "User registered successfully", result.Value.Message)
}

func TestAttachmentName(t *testing.T) {
	assert.Equal(t, "cv.pdf", attachmentName(`attachment;filename="cv.pdf"`))
	assert.Equal(t, "cv.pdf", attachmentName(`attachment; filename=cv.pdf`))
	assert.Equal(t, "", attachmentName(""))
	assert.Equal(t, "", attachmentName(`;;;`))
}
