package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	domain "github.com/bryanwahyu/labellens/internal/domain/reports"
)

const analyzePath = "/api/extract/analyze-document"

// Client talks to the remote document-analysis service. One multipart POST
// per call, no retry and no chunking: documents are small, human-triggered,
// single-shot uploads.
type Client struct {
	baseURL string
	httpc   *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: timeout},
	}
}

// Analyze uploads the file and normalizes the heterogeneous response into a
// closed AnalysisResult. An empty upload fails with ErrNoFileSelected before
// any network traffic.
func (c *Client) Analyze(ctx context.Context, up *domain.Upload) (*domain.AnalysisResult, error) {
	if up.Empty() {
		return nil, domain.ErrNoFileSelected
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreatePart(fileHeader(up.Filename, up.ContentType))
	if err != nil {
		return nil, fmt.Errorf("building multipart body: %w", err)
	}
	if _, err := part.Write(up.Content); err != nil {
		return nil, fmt.Errorf("building multipart body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("building multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+analyzePath, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, &domain.TransportError{Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.TransportError{Status: resp.StatusCode, Message: err.Error()}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.TransportError{Status: resp.StatusCode, Message: snippet(body)}
	}
	return decodeResult(body)
}

// fileHeader builds the "file" part header carrying the declared media type;
// the stock CreateFormFile helper always sends octet-stream.
func fileHeader(filename, contentType string) textproto.MIMEHeader {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, strings.ReplaceAll(filename, `"`, `\"`)))
	h.Set("Content-Type", contentType)
	return h
}

// wire shapes: every field is optional on the wire; absence means empty, not
// a fault.
type wireResponse struct {
	DocumentInfo map[string]any `json:"document_info"`
	Claims       []wireClaim    `json:"claims"`
	Ingredients  []wireIngred   `json:"ingredients"`
	Compliance   []wireFinding  `json:"compliance_analysis"`
}

type wireClaim struct {
	ClaimText string `json:"claim_text"`
	ClaimType string `json:"claim_type"`
	Severity  string `json:"severity"`
}

type wireIngred struct {
	IngredientName string `json:"ingredient_name"`
	IsAllergen     bool   `json:"is_allergen"`
	Function       string `json:"function"`
}

type wireFinding struct {
	Law        string  `json:"law"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
	Severity   string  `json:"severity"`
	Score      *int    `json:"compliance_score"`
}

func decodeResult(body []byte) (*domain.AnalysisResult, error) {
	var probe any
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	if _, ok := probe.(map[string]any); !ok {
		return nil, fmt.Errorf("%w: body is not an object", domain.ErrMalformedResponse)
	}

	var wr wireResponse
	if err := json.Unmarshal(body, &wr); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}

	res := &domain.AnalysisResult{
		DocumentInfo:       wr.DocumentInfo,
		Claims:             make([]domain.Claim, 0, len(wr.Claims)),
		Ingredients:        make([]domain.Ingredient, 0, len(wr.Ingredients)),
		ComplianceFindings: make([]domain.ComplianceFinding, 0, len(wr.Compliance)),
	}
	for _, c := range wr.Claims {
		res.Claims = append(res.Claims, domain.Claim{
			Text:     c.ClaimText,
			Type:     c.ClaimType,
			Severity: domain.Classify(c.Severity),
		})
	}
	for _, i := range wr.Ingredients {
		res.Ingredients = append(res.Ingredients, domain.Ingredient{
			Name:       i.IngredientName,
			IsAllergen: i.IsAllergen,
			Function:   i.Function,
		})
	}
	for _, f := range wr.Compliance {
		res.ComplianceFindings = append(res.ComplianceFindings, domain.ComplianceFinding{
			Law:        f.Law,
			Confidence: f.Confidence,
			Reason:     f.Reason,
			Severity:   domain.Classify(f.Severity),
			Score:      f.Score,
		})
	}
	return res, nil
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
