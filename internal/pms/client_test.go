package pms

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func soapResult(result string) string {
	return `<?xml version="1.0" encoding="utf-8"?><soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/"><soap:Body>` +
		`<InitSessionResponse xmlns="http://tempuri.org/"><InitSessionResult>` + result +
		`</InitSessionResult></InitSessionResponse></soap:Body></soap:Envelope>`
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second, nil)
}

func TestInitSession(t *testing.T) {
	var gotAction, gotType, gotBody string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/Service.asmx" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotAction = r.Header.Get("SOAPAction")
		gotType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		io.WriteString(w, soapResult("ok,SESSION42"))
	})

	token, err := client.InitSession(context.Background())
	if err != nil {
		t.Fatalf("InitSession: %v", err)
	}
	if token != "SESSION42" {
		t.Errorf("token = %q, want SESSION42", token)
	}
	if gotAction != `"http://tempuri.org/InitSession"` {
		t.Errorf("SOAPAction = %q", gotAction)
	}
	if !strings.HasPrefix(gotType, "text/xml") {
		t.Errorf("Content-Type = %q, want text/xml", gotType)
	}
	if !strings.Contains(gotBody, "<bstrPCName></bstrPCName>") {
		t.Errorf("envelope should carry an empty bstrPCName, got %s", gotBody)
	}
}

func TestInitSessionRejected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, soapResult("fail,too many sessions"))
	})

	_, err := client.InitSession(context.Background())
	if !IsKind(err, KindAuth) {
		t.Fatalf("err = %v, want auth kind", err)
	}
	var pe *Error
	if !errors.As(err, &pe) || pe.Msg != "fail,too many sessions" {
		t.Errorf("upstream message not preserved: %v", err)
	}
}

func TestInitSessionHTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := client.InitSession(context.Background())
	var pe *Error
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want *Error", err)
	}
	if pe.Kind != KindAuth || pe.Status != http.StatusInternalServerError {
		t.Errorf("got kind %v status %d", pe.Kind, pe.Status)
	}
}

func TestGetDevices(t *testing.T) {
	var gotBody, gotType, gotXRW string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/Service.asmx/GetDevices" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotType = r.Header.Get("Content-Type")
		gotXRW = r.Header.Get("X-Requested-With")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		io.WriteString(w, `{"Result":[{"szName":"A","szProperty":"<font>ok</font>","szStatus":"idle","szStatInfo":"-"}],"ErrorMessage":""}`)
	})

	stations, err := client.GetDevices(context.Background(), "TOKEN")
	if err != nil {
		t.Fatalf("GetDevices: %v", err)
	}
	if gotBody != `{"bstrSessionID":"TOKEN"}` {
		t.Errorf("body = %s", gotBody)
	}
	if gotType != "application/json" || gotXRW != "XMLHttpRequest" {
		t.Errorf("headers: Content-Type=%q X-Requested-With=%q", gotType, gotXRW)
	}
	if len(stations) != 1 || stations[0].Property != "ok" {
		t.Errorf("stations = %+v", stations)
	}
}

func TestGetDevicesFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name: "session out",
			body: `{"Result":null,"ErrorMessage":"SessionOut"}`,
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrSessionOut) {
					t.Errorf("err = %v, want ErrSessionOut", err)
				}
			},
		},
		{
			name: "upstream message",
			body: `{"Result":null,"ErrorMessage":"no permission"}`,
			check: func(t *testing.T, err error) {
				var pe *Error
				if !errors.As(err, &pe) || pe.Msg != "no permission" {
					t.Errorf("err = %v, want upstream message", err)
				}
			},
		},
		{
			name: "malformed",
			body: `not json`,
		},
		{
			name:   "bad status",
			status: http.StatusBadGateway,
			body:   `gateway`,
			check: func(t *testing.T, err error) {
				var pe *Error
				if !errors.As(err, &pe) || pe.Status != http.StatusBadGateway {
					t.Errorf("err = %v, want status 502", err)
				}
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if tc.status != 0 {
					w.WriteHeader(tc.status)
				}
				io.WriteString(w, tc.body)
			})

			stations, err := client.GetDevices(context.Background(), "TOKEN")
			if stations != nil {
				t.Errorf("expected no stations, got %v", stations)
			}
			if !IsKind(err, KindFetch) {
				t.Fatalf("err = %v, want fetch kind", err)
			}
			if tc.check != nil {
				tc.check(t, err)
			}
		})
	}
}

func TestTransportAndCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewClient(url, time.Second, nil)
	if _, err := client.GetDevices(context.Background(), "T"); !IsKind(err, KindTransport) {
		t.Errorf("closed server: err = %v, want transport kind", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := client.InitSession(ctx); !IsKind(err, KindCanceled) {
		t.Errorf("canceled context: err = %v, want canceled kind", err)
	}
}
