package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ananta-systems/ai-inbox/internal/business"
	"github.com/ananta-systems/ai-inbox/internal/channels/instagram"
	"github.com/ananta-systems/ai-inbox/internal/turn"
	"github.com/ananta-systems/ai-inbox/pkg/logging"
)

type stubLoader struct {
	biz   business.Context
	err   error
	gotID string
}

func (s *stubLoader) Load(_ context.Context, spreadsheetID string) (business.Context, error) {
	s.gotID = spreadsheetID
	return s.biz, s.err
}

type stubProcessor struct {
	resp *turn.Response
	err  error
	got  turn.Request
}

func (s *stubProcessor) ProcessTurn(_ context.Context, req turn.Request) (*turn.Response, error) {
	s.got = req
	return s.resp, s.err
}

type stubSender struct {
	err       error
	gotToken  string
	gotUserID string
	gotText   string
	calls     int
}

func (s *stubSender) SendText(_ context.Context, pageAccessToken, recipientID, text string) (*instagram.SendResponse, error) {
	s.calls++
	s.gotToken = pageAccessToken
	s.gotUserID = recipientID
	s.gotText = text
	if s.err != nil {
		return nil, s.err
	}
	return &instagram.SendResponse{MessageID: "mid.1"}, nil
}

func validBody() string {
	return `{"user_id":"ig-1","message_text":"any slots?","sheet_id":"sheet-1","page_access_token":"pat-1"}`
}

func postMessage(t *testing.T, h *ProcessMessageHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/process-message", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Handle(rec, req)
	return rec
}

func TestProcessMessageSuccess(t *testing.T) {
	loader := &stubLoader{biz: business.Context{Config: map[string]string{"booking_provider": "setmore"}}}
	processor := &stubProcessor{resp: &turn.Response{Reply: "We have 10:00 open!"}}
	sender := &stubSender{}
	h := NewProcessMessageHandler(loader, processor, sender, nil, logging.Default())

	rec := postMessage(t, h, validBody())

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["status"] != "success" || resp["reply_sent"] != "We have 10:00 open!" {
		t.Errorf("unexpected response: %v", resp)
	}

	if loader.gotID != "sheet-1" {
		t.Errorf("expected sheet id forwarded, got %q", loader.gotID)
	}
	if processor.got.UserID != "ig-1" || processor.got.MessageText != "any slots?" {
		t.Errorf("unexpected turn request: %+v", processor.got)
	}
	if sender.calls != 1 || sender.gotToken != "pat-1" || sender.gotUserID != "ig-1" {
		t.Errorf("unexpected send: %+v", sender)
	}
	if sender.gotText != "We have 10:00 open!" {
		t.Errorf("unexpected sent text %q", sender.gotText)
	}
}

func TestProcessMessageMissingFields(t *testing.T) {
	h := NewProcessMessageHandler(&stubLoader{}, &stubProcessor{resp: &turn.Response{}}, nil, nil, logging.Default())

	rec := postMessage(t, h, `{"user_id":"ig-1"}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"message_text", "sheet_id", "page_access_token"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q listed as missing, got %s", want, body)
		}
	}
	if strings.Contains(body, `"user_id`) {
		t.Errorf("user_id was provided and must not be listed: %s", body)
	}
}

func TestProcessMessageInvalidJSON(t *testing.T) {
	h := NewProcessMessageHandler(&stubLoader{}, &stubProcessor{resp: &turn.Response{}}, nil, nil, logging.Default())

	rec := postMessage(t, h, "{not json")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestProcessMessageLoaderFailure(t *testing.T) {
	loader := &stubLoader{err: errors.New("sheet unavailable")}
	h := NewProcessMessageHandler(loader, &stubProcessor{resp: &turn.Response{}}, nil, nil, logging.Default())

	rec := postMessage(t, h, validBody())
	if rec.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", rec.Code)
	}
}

func TestProcessMessageProcessorFailure(t *testing.T) {
	processor := &stubProcessor{err: errors.New("persist failed")}
	h := NewProcessMessageHandler(&stubLoader{}, processor, nil, nil, logging.Default())

	rec := postMessage(t, h, validBody())
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

func TestProcessMessageSendFailureStillSucceeds(t *testing.T) {
	processor := &stubProcessor{resp: &turn.Response{Reply: "hello"}}
	sender := &stubSender{err: errors.New("graph api down")}
	h := NewProcessMessageHandler(&stubLoader{}, processor, sender, nil, logging.Default())

	rec := postMessage(t, h, validBody())
	if rec.Code != http.StatusOK {
		t.Errorf("send failure must not fail the request, got %d", rec.Code)
	}
}
