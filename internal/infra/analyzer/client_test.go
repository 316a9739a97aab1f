package analyzer

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	domain "github.com/bryanwahyu/labellens/internal/domain/reports"
)

func upload() *domain.Upload {
	return &domain.Upload{
		Filename:    "label.txt",
		ContentType: "text/plain",
		Content:     []byte("Water, Fragrance"),
	}
}

func TestAnalyzeNoFileSkipsNetwork(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	for _, up := range []*domain.Upload{nil, {}, {Filename: "x.txt"}} {
		if _, err := c.Analyze(context.Background(), up); !errors.Is(err, domain.ErrNoFileSelected) {
			t.Errorf("Analyze(%+v) err = %v, want ErrNoFileSelected", up, err)
		}
	}
	if atomic.LoadInt64(&calls) != 0 {
		t.Errorf("server saw %d calls, want 0", calls)
	}
}

func TestAnalyzeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	res, err := NewClient(srv.URL, time.Second).Analyze(context.Background(), upload())
	if res != nil {
		t.Errorf("result = %+v, want nil on transport failure", res)
	}
	var te *domain.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want TransportError", err)
	}
	if te.Status != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", te.Status)
	}
}

func TestAnalyzeNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	_, err := NewClient(srv.URL, time.Second).Analyze(context.Background(), upload())
	var te *domain.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want TransportError", err)
	}
	if te.Status != 0 {
		t.Errorf("status = %d, want 0 for a network error", te.Status)
	}
}

func TestAnalyzeMalformedResponse(t *testing.T) {
	for _, body := range []string{"not json", `[1,2,3]`, `"just a string"`, `null`} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(body))
		}))
		_, err := NewClient(srv.URL, time.Second).Analyze(context.Background(), upload())
		srv.Close()
		if !errors.Is(err, domain.ErrMalformedResponse) {
			t.Errorf("body %q: err = %v, want ErrMalformedResponse", body, err)
		}
	}
}

func TestAnalyzeNormalizesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != analyzePath {
			t.Errorf("path = %s, want %s", r.URL.Path, analyzePath)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("request is not multipart: %v", err)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("no file field: %v", err)
		}
		f.Close()
		if hdr.Filename != "label.txt" {
			t.Errorf("filename = %s, want label.txt", hdr.Filename)
		}
		if ct := hdr.Header.Get("Content-Type"); ct != "text/plain" {
			t.Errorf("declared media type = %s, want text/plain", ct)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"document_info": {"pages": 1},
			"claims": [{"claim_text": "reduces wrinkles", "claim_type": "efficacy", "severity": "HIGH"}],
			"compliance_analysis": [
				{"law": "FTC Guides", "confidence": 0.92, "reason": "unsubstantiated", "severity": "medium", "compliance_score": 55}
			]
		}`))
	}))
	defer srv.Close()

	res, err := NewClient(srv.URL, time.Second).Analyze(context.Background(), upload())
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(res.Claims) != 1 || res.Claims[0].Severity != domain.SeverityHigh {
		t.Errorf("claims = %+v, want one claim with normalized high severity", res.Claims)
	}
	// absent on the wire means empty, never nil
	if res.Ingredients == nil || len(res.Ingredients) != 0 {
		t.Errorf("ingredients = %#v, want empty non-nil slice", res.Ingredients)
	}
	if len(res.ComplianceFindings) != 1 {
		t.Fatalf("findings = %+v, want one", res.ComplianceFindings)
	}
	f := res.ComplianceFindings[0]
	if f.Severity != domain.SeverityMedium || f.Score == nil || *f.Score != 55 {
		t.Errorf("finding = %+v, want medium severity and score 55", f)
	}
	if res.DocumentInfo["pages"] != float64(1) {
		t.Errorf("document info = %v, want pages=1", res.DocumentInfo)
	}
}

func TestAnalyzeEmptyObjectDefaults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	res, err := NewClient(srv.URL, time.Second).Analyze(context.Background(), upload())
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if res.Claims == nil || res.Ingredients == nil || res.ComplianceFindings == nil {
		t.Errorf("all sequences must default to empty, got %+v", res)
	}
}
