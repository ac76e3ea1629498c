package webhook

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

func newTestServer(t *testing.T, dispatcher Dispatcher, registrar *fakeRegistrar, pinger Pinger) (*Server, *logtest.Hook) {
	t.Helper()

	hookLogger, hook := logtest.NewNullLogger()
	srv := NewServer(8080, "https://bot.example.com", dispatcher, registrar, pinger, logrus.NewEntry(hookLogger))

	return srv, hook
}

func serve(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestRootWithEmptyBodyReportsLiveness(t *testing.T) {
	srv, _ := newTestServer(t, &fakeDispatcher{}, &fakeRegistrar{}, &fakePinger{})

	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "Bot is running!" {
		t.Fatalf("unexpected body: %q", rec.Body.String())
	}
}

func TestSetupQueryRegistersWebhook(t *testing.T) {
	registrar := &fakeRegistrar{setOK: true}
	srv, _ := newTestServer(t, &fakeDispatcher{}, registrar, &fakePinger{})

	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/?setup", nil))

	if rec.Body.String() != "Webhook set successfully!" {
		t.Fatalf("unexpected body: %q", rec.Body.String())
	}
	if registrar.setURL != "https://bot.example.com" {
		t.Fatalf("expected registration against the public url, got %q", registrar.setURL)
	}
}

func TestSetupQueryReportsFailure(t *testing.T) {
	srv, _ := newTestServer(t, &fakeDispatcher{}, &fakeRegistrar{setOK: false}, &fakePinger{})

	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/?setup", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "Failed to set webhook" {
		t.Fatalf("unexpected body: %q", rec.Body.String())
	}
}

func TestDeleteQueryRemovesWebhook(t *testing.T) {
	registrar := &fakeRegistrar{deleteOK: true}
	srv, _ := newTestServer(t, &fakeDispatcher{}, registrar, &fakePinger{})

	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/?delete", nil))

	if rec.Body.String() != "Webhook deleted successfully!" {
		t.Fatalf("unexpected body: %q", rec.Body.String())
	}
	if !registrar.deleted {
		t.Fatalf("expected delete call to be forwarded")
	}

	srv2, _ := newTestServer(t, &fakeDispatcher{}, &fakeRegistrar{deleteOK: false}, &fakePinger{})
	rec = serve(srv2, httptest.NewRequest(http.MethodGet, "/?delete", nil))
	if rec.Body.String() != "Failed to delete webhook" {
		t.Fatalf("unexpected body: %q", rec.Body.String())
	}
}

func TestValidUpdateIsDispatched(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	srv, _ := newTestServer(t, dispatcher, &fakeRegistrar{}, &fakePinger{})

	body := `{"update_id":7,"message":{"message_id":1,"chat":{"id":42},"text":"/start"}}`
	rec := serve(srv, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "OK" {
		t.Fatalf("unexpected body: %q", rec.Body.String())
	}

	if len(dispatcher.updates) != 1 {
		t.Fatalf("expected 1 dispatched update, got %d", len(dispatcher.updates))
	}
	update := dispatcher.updates[0]
	if update.ID != 7 || update.Message == nil || update.Message.Chat.ID != 42 {
		t.Fatalf("unexpected decoded update: %+v", update)
	}
}

func TestMalformedUpdateIsRejected(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	srv, _ := newTestServer(t, dispatcher, &fakeRegistrar{}, &fakePinger{})

	rec := serve(srv, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{not json")))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != "Invalid update" {
		t.Fatalf("unexpected body: %q", rec.Body.String())
	}
	if len(dispatcher.updates) != 0 {
		t.Fatalf("expected no dispatch for malformed update")
	}
}

func TestDispatchPanicYieldsInternalError(t *testing.T) {
	srv, hook := newTestServer(t, &fakeDispatcher{panicWith: "boom"}, &fakeRegistrar{}, &fakePinger{})

	body := `{"update_id":7}`
	rec := serve(srv, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != "Internal server error" {
		t.Fatalf("unexpected body: %q", rec.Body.String())
	}

	var logged bool
	for _, entry := range hook.AllEntries() {
		if entry.Data["event"] == "update_panic" {
			logged = true
		}
	}
	if !logged {
		t.Fatalf("expected panic to be logged")
	}
}

func TestHealthReportsOK(t *testing.T) {
	srv, _ := newTestServer(t, &fakeDispatcher{}, &fakeRegistrar{}, &fakePinger{})

	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != `{"status":"ok"}` {
		t.Fatalf("unexpected body: %q", rec.Body.String())
	}
}

func TestHealthReportsDegradedStore(t *testing.T) {
	srv, _ := newTestServer(t, &fakeDispatcher{}, &fakeRegistrar{}, &fakePinger{err: errors.New("mongo down")})

	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if strings.TrimSpace(rec.Body.String()) != `{"status":"degraded","store":"error"}` {
		t.Fatalf("unexpected body: %q", rec.Body.String())
	}
}

type fakeDispatcher struct {
	updates   []*models.Update
	panicWith string
}

func (f *fakeDispatcher) HandleUpdate(_ context.Context, update *models.Update) {
	if f.panicWith != "" {
		panic(f.panicWith)
	}
	f.updates = append(f.updates, update)
}

type fakeRegistrar struct {
	setOK    bool
	deleteOK bool
	setURL   string
	deleted  bool
}

func (f *fakeRegistrar) SetWebhook(_ context.Context, url string) bool {
	f.setURL = url
	return f.setOK
}

func (f *fakeRegistrar) DeleteWebhook(_ context.Context) bool {
	f.deleted = true
	return f.deleteOK
}

type fakePinger struct {
	err error
}

func (f *fakePinger) Ping(_ context.Context) error {
	return f.err
}
