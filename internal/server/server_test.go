package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/tablescope/internal/loader"
	"github.com/KaramelBytes/tablescope/internal/pipeline"
)

const sampleCSV = "id,ts,val,city\n" +
	"1,2024-01-01,1.5,Oslo\n" +
	"2,2024-01-02,3.0,Lima\n" +
	"3,2024-01-03,4.5,Oslo\n" +
	"4,2024-01-04,,Rome\n"

func newTestServer(t *testing.T, maxMB int) http.Handler {
	t.Helper()
	p := pipeline.New(pipeline.DefaultOptions(), loader.NewCache(4), nil)
	s, err := New(p, Options{MaxUploadMB: maxMB}, nil)
	require.NoError(t, err)
	return s.Handler()
}

func uploadRequest(t *testing.T, target, filename string, content []byte, charts ...string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if filename != "" {
		fw, err := w.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	for _, c := range charts {
		require.NoError(t, w.WriteField("chart", c))
	}
	require.NoError(t, w.Close())
	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestHealthAndKinds(t *testing.T) {
	h := newTestServer(t, 10)

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/api/charts/kinds", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var kinds []kindOption
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &kinds))
	assert.Len(t, kinds, 8)
	assert.Equal(t, "correlation_heatmap", string(kinds[0].Kind))
}

func TestIndexPage(t *testing.T) {
	rec := serve(newTestServer(t, 10), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `enctype="multipart/form-data"`)
	assert.Contains(t, body, `value="pairplot"`)
	assert.Contains(t, body, "Please upload a CSV or Parquet file to begin analysis.")
}

func TestAnalyzeAPI(t *testing.T) {
	h := newTestServer(t, 10)
	rec := serve(h, uploadRequest(t, "/api/analyze", "sample.csv", []byte(sampleCSV)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res struct {
		ID      string `json:"id"`
		File    string `json:"file"`
		Message string `json:"message"`
		Profile struct {
			RowCount    int  `json:"row_count"`
			HasAnyNulls bool `json:"has_any_nulls"`
			Columns     []struct {
				Name         string `json:"name"`
				InferredType string `json:"inferred_type"`
			} `json:"columns"`
		} `json:"profile"`
		Plan []struct {
			Kind     string `json:"chart_kind"`
			Eligible bool   `json:"eligible"`
		} `json:"plan"`
		Charts []json.RawMessage `json:"charts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.NotEmpty(t, res.ID)
	assert.Equal(t, "sample.csv", res.File)
	assert.Equal(t, pipeline.CompletedMessage, res.Message)
	assert.Equal(t, 4, res.Profile.RowCount)
	assert.True(t, res.Profile.HasAnyNulls)
	assert.Equal(t, "datetime", res.Profile.Columns[1].InferredType)
	assert.NotEmpty(t, res.Charts)

	kinds := map[string]bool{}
	for _, e := range res.Plan {
		kinds[e.Kind] = true
	}
	assert.Len(t, kinds, 8, "all kinds are planned when none are selected")
}

func TestAnalyzeAPISelectedKinds(t *testing.T) {
	rec := serve(newTestServer(t, 10), uploadRequest(t, "/api/analyze", "sample.csv", []byte(sampleCSV), "box", "pairplot"))
	require.Equal(t, http.StatusOK, rec.Code)
	var res struct {
		Plan []struct {
			Kind string `json:"chart_kind"`
		} `json:"plan"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	for _, e := range res.Plan {
		assert.Contains(t, []string{"box", "pairplot"}, e.Kind)
	}
}

func TestAnalyzeAPIErrors(t *testing.T) {
	h := newTestServer(t, 1)

	rec := serve(h, uploadRequest(t, "/api/analyze", "empty.csv", []byte("a,b\n")))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "Uploaded file is empty.", decodeError(t, rec))

	rec = serve(h, uploadRequest(t, "/api/analyze", "report.pdf", []byte("%PDF-1.4")))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.True(t, strings.HasPrefix(decodeError(t, rec), "Error loading file:"))

	rec = serve(h, uploadRequest(t, "/api/analyze", "sample.csv", []byte(sampleCSV), "pie"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec), "unknown chart kind")

	rec = serve(h, uploadRequest(t, "/api/analyze", "", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	big := bytes.Repeat([]byte("x"), 2<<20)
	rec = serve(h, uploadRequest(t, "/api/analyze", "big.csv", big))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.NotEmpty(t, decodeError(t, rec))
}

func TestDashboardPage(t *testing.T) {
	h := newTestServer(t, 10)
	rec := serve(h, uploadRequest(t, "/", "sample.csv", []byte(sampleCSV), "correlation_heatmap", "missing_heatmap", "scatter_matrix"))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Dataset summary")
	assert.Contains(t, body, `id="chart-specs"`)
	assert.Contains(t, body, "Correlation Heatmap")
	assert.Contains(t, body, pipeline.CompletedMessage)

	rec = serve(h, uploadRequest(t, "/", "empty.csv", []byte("a,b\n")))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Uploaded file is empty.")
}

func TestDashboardEscapesCellValues(t *testing.T) {
	csv := "name,score\n<script>alert(1)</script>,1\nbob,2\n"
	rec := serve(newTestServer(t, 10), uploadRequest(t, "/", "x.csv", []byte(csv)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "<script>alert(1)</script>")
}

func TestDashboardDoesNotLinkUnsafeURLs(t *testing.T) {
	csv := "name,v\n[click](javascript:alert(document.domain)),1\nb,2\n"
	rec := serve(newTestServer(t, 10), uploadRequest(t, "/", "links.csv", []byte(csv)))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.NotContains(t, body, `href="javascript:`)
	assert.Contains(t, body, "click")
}

func TestAnalyzeAPIExtremeValues(t *testing.T) {
	csv := "x,y\n-1e308,1\n0,2\n1e308,3\n"
	rec := serve(newTestServer(t, 10), uploadRequest(t, "/api/analyze", "huge.csv", []byte(csv)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), pipeline.CompletedMessage)
}
