package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"call-qa-go/internal/remote"
)

func textResponse(text string) string {
	resp := map[string]interface{}{
		"candidates": []map[string]interface{}{
			{"content": map[string]interface{}{
				"parts": []map[string]string{{"text": text}},
			}},
		},
	}
	b, _ := json.Marshal(resp)
	return string(b)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Options{APIKey: "test-key", BaseURL: srv.URL})
}

func TestTranscribe_Success(t *testing.T) {
	var gotPath, gotKey string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")

		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if len(req.Contents) != 1 || len(req.Contents[0].Parts) != 2 {
			t.Errorf("expected instruction + audio parts, got %+v", req.Contents)
		}
		if req.Contents[0].Parts[1].InlineData.MimeType != "audio/wav" {
			t.Errorf("mime = %s", req.Contents[0].Parts[1].InlineData.MimeType)
		}
		w.Write([]byte(textResponse("  hello transcript  ")))
	})

	got, err := c.Transcribe(context.Background(), []byte("audio"), "audio/wav")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if got != "hello transcript" {
		t.Errorf("transcript = %q", got)
	}
	if !strings.Contains(gotPath, "models/gemini-2.0-flash:generateContent") {
		t.Errorf("unexpected path %s", gotPath)
	}
	if gotKey != "test-key" {
		t.Errorf("api key header = %q", gotKey)
	}
}

func TestTranscribe_EmptyTextIsPermanent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(textResponse("   ")))
	})
	_, err := c.Transcribe(context.Background(), []byte("audio"), "audio/wav")
	if err == nil {
		t.Fatal("expected error")
	}
	if remote.IsTransient(err) {
		t.Error("empty transcript must not be retryable")
	}
}

func TestGenerate_RateLimitIsTransient(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	})
	_, err := c.Transcribe(context.Background(), []byte("audio"), "audio/mpeg")
	if !remote.IsTransient(err) {
		t.Errorf("429 must be transient, got %v", err)
	}
}

func TestGenerate_ServerErrorIsTransient(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	_, err := c.Transcribe(context.Background(), []byte("audio"), "audio/mpeg")
	if !remote.IsTransient(err) {
		t.Errorf("5xx must be transient, got %v", err)
	}
}

func TestGenerate_BadRequestIsPermanent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid argument", http.StatusBadRequest)
	})
	_, err := c.Transcribe(context.Background(), []byte("audio"), "audio/mpeg")
	if err == nil {
		t.Fatal("expected error")
	}
	if remote.IsTransient(err) {
		t.Error("4xx must be permanent")
	}
	var perm *remote.PermanentError
	if !errors.As(err, &perm) {
		t.Errorf("expected PermanentError, got %T", err)
	}
}

func TestAnalyze_ParsesStructuredResponse(t *testing.T) {
	qaJSON := `{
		"call_summary": "Caller Jane asked agent Bob about billing; resolved.",
		"qa_evaluation": [
			{"criterion": "Friendly opening?", "score": "Yes", "justification": "Greeted warmly."},
			{"criterion": "Closed courteously?", "score": "No", "justification": "Abrupt ending."}
		]
	}`
	var gotReq generateRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotReq)
		w.Write([]byte(textResponse(qaJSON)))
	})

	qa, err := c.Analyze(context.Background(), "the transcript text")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if qa.CallSummary == "" || len(qa.Evaluation) != 2 {
		t.Errorf("unexpected result %+v", qa)
	}
	if qa.Evaluation[0].Criterion != "Friendly opening?" {
		t.Errorf("evaluation order lost: %+v", qa.Evaluation)
	}
	if gotReq.GenerationConfig == nil || gotReq.GenerationConfig.ResponseMimeType != "application/json" {
		t.Error("analysis must request a strict JSON response")
	}
	if !strings.Contains(gotReq.Contents[0].Parts[0].Text, "the transcript text") {
		t.Error("prompt must embed the transcript")
	}
}

func TestAnalyze_UnstructuredTextIsParseError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(textResponse("I think the call went well overall!")))
	})
	_, err := c.Analyze(context.Background(), "transcript")
	var pe *remote.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if remote.IsTransient(err) {
		t.Error("parse errors must not be retryable")
	}
}

func TestGenerate_NoCandidatesIsPermanent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates": []}`))
	})
	_, err := c.Transcribe(context.Background(), []byte("audio"), "audio/wav")
	if err == nil || remote.IsTransient(err) {
		t.Errorf("expected permanent error, got %v", err)
	}
}
