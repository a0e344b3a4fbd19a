package sheets

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestFetchRange(t *testing.T) {
	var gotPath, gotKey string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		w.Write([]byte(`{"range":"Sheet1!A1:C3","values":[["Date","Client"],["12/03/2024","Acme"]]}`))
	})

	rows, err := c.FetchRange(context.Background(), "sheet-id", "Sheet1!A1:C1000")
	if err != nil {
		t.Fatalf("FetchRange: %v", err)
	}
	if len(rows) != 2 || rows[1][1] != "Acme" {
		t.Errorf("rows = %v", rows)
	}
	if !strings.Contains(gotPath, "/v4/spreadsheets/sheet-id/values/") {
		t.Errorf("path = %q", gotPath)
	}
	if gotKey != "test-key" {
		t.Errorf("key = %q", gotKey)
	}
}

func TestFetchRangeEmptyRange(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		// The values key is absent entirely for an empty range.
		w.Write([]byte(`{"range":"Sheet1!A1:C3"}`))
	})

	rows, err := c.FetchRange(context.Background(), "sheet-id", "Sheet1!A1:C3")
	if err != nil {
		t.Fatalf("FetchRange: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("rows = %v, want empty", rows)
	}
}

func TestFetchRangeUpstreamError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":403}}`, http.StatusForbidden)
	})

	_, err := c.FetchRange(context.Background(), "sheet-id", "Sheet1!A1:C3")
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("error = %v, want *FetchError", err)
	}
	if fe.Status != http.StatusForbidden {
		t.Errorf("status = %d, want 403", fe.Status)
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient(Config{})
	if !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("err = %v, want ErrNoAPIKey", err)
	}
}

func TestFetchRangeRaggedRows(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"values":[["Date","Client","Status"],["12/03/2024"]]}`))
	})

	rows, err := c.FetchRange(context.Background(), "sheet-id", "Sheet1!A:C")
	if err != nil {
		t.Fatalf("FetchRange: %v", err)
	}
	if len(rows[1]) != 1 {
		t.Errorf("short row = %v, want single cell", rows[1])
	}
}

func TestPing(t *testing.T) {
	var gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"spreadsheetId":"sheet-id"}`))
	})

	if err := c.Ping(context.Background(), "sheet-id"); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if gotPath != "/v4/spreadsheets/sheet-id" {
		t.Errorf("path = %q", gotPath)
	}
}

func TestPingUnreachableSource(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	err := c.Ping(context.Background(), "sheet-id")
	var fe *FetchError
	if !errors.As(err, &fe) || fe.Status != http.StatusNotFound {
		t.Errorf("err = %v, want FetchError 404", err)
	}
}
