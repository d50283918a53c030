package server

import (
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/KaramelBytes/tablescope/internal/charts"
	"github.com/KaramelBytes/tablescope/internal/loader"
	"github.com/KaramelBytes/tablescope/internal/pipeline"
)

type Handler struct {
	pipe      *pipeline.Pipeline
	maxUpload int64
	log       *log.Logger
}

func NewHandler(p *pipeline.Pipeline, maxUpload int64, logger *log.Logger) *Handler {
	return &Handler{pipe: p, maxUpload: maxUpload, log: logger}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Index)
	e.POST("/", h.Dashboard)
	e.GET("/healthz", h.Health)

	api := e.Group("/api")
	api.POST("/analyze", h.Analyze)
	api.GET("/charts/kinds", h.Kinds)
}

type kindOption struct {
	Kind  charts.Kind `json:"kind"`
	Label string      `json:"label"`
}

func kindOptions() []kindOption {
	out := make([]kindOption, 0, len(charts.AllKinds()))
	for _, k := range charts.AllKinds() {
		out = append(out, kindOption{Kind: k, Label: k.Label()})
	}
	return out
}

type pageData struct {
	Kinds      []kindOption
	Accept     string
	Error      string
	File       string
	ReportHTML template.HTML
	Notices    []charts.Eligibility
	Charts     []charts.Chart
	Message    string
}

func newPageData() pageData {
	return pageData{Kinds: kindOptions(), Accept: strings.Join(loader.Extensions(), ",")}
}

// Index serves the upload form.
func (h *Handler) Index(c echo.Context) error {
	return c.Render(http.StatusOK, "index.html", newPageData())
}

// Dashboard analyzes a form upload and renders the report page. Failures are
// shown as a banner on the same page.
func (h *Handler) Dashboard(c echo.Context) error {
	data := newPageData()
	in, err := h.readUpload(c, false)
	if err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			data.Error = fmt.Sprint(he.Message)
			return c.Render(he.Code, "dashboard.html", data)
		}
		return err
	}
	data.File = in.Name
	res, err := h.pipe.Run(c.Request().Context(), in)
	if err != nil {
		data.Error = pipeline.UserMessage(err)
		return c.Render(statusFor(err), "dashboard.html", data)
	}
	data.ReportHTML = renderMarkdown(res.Profile.Markdown())
	data.Notices = charts.Notices(res.Plan)
	data.Charts = res.Charts
	data.Message = res.Message
	return c.Render(http.StatusOK, "dashboard.html", data)
}

// Analyze is the JSON form of Dashboard. Without any chart field every kind is planned.
func (h *Handler) Analyze(c echo.Context) error {
	in, err := h.readUpload(c, true)
	if err != nil {
		return err
	}
	res, err := h.pipe.Run(c.Request().Context(), in)
	if err != nil {
		return c.JSON(statusFor(err), errorBody{Error: pipeline.UserMessage(err)})
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) Kinds(c echo.Context) error {
	return c.JSON(http.StatusOK, kindOptions())
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func statusFor(err error) int {
	if pipeline.IsInputError(err) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// readUpload pulls the "file" part and the repeated "chart" fields out of a
// multipart request.
func (h *Handler) readUpload(c echo.Context, defaultAll bool) (pipeline.Input, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return pipeline.Input{}, he
		}
		return pipeline.Input{}, echo.NewHTTPError(http.StatusBadRequest, "Please upload a CSV or Parquet file to begin analysis.")
	}
	if h.maxUpload > 0 && fh.Size > h.maxUpload {
		return pipeline.Input{}, echo.NewHTTPError(http.StatusRequestEntityTooLarge, "Uploaded file is too large.")
	}
	f, err := fh.Open()
	if err != nil {
		return pipeline.Input{}, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return pipeline.Input{}, fmt.Errorf("read upload: %w", err)
	}

	var values []string
	if form, err := c.MultipartForm(); err == nil {
		values = form.Value["chart"]
	}
	var kinds []charts.Kind
	if len(values) == 0 && defaultAll {
		kinds = charts.AllKinds()
	} else {
		kinds, err = charts.ParseKinds(values)
		if err != nil {
			return pipeline.Input{}, echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	h.log.Debugf("upload %s: %d bytes, %d chart kinds", fh.Filename, len(content), len(kinds))
	return pipeline.Input{Name: fh.Filename, Content: content, Kinds: kinds}, nil
}

// renderMarkdown converts the report to HTML. Raw HTML in the source, which
// can only come from cell values, is dropped, and links with untrusted
// protocols are rendered as plain text.
func renderMarkdown(md string) template.HTML {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	r := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags | mdhtml.SkipHTML | mdhtml.Safelink})
	return template.HTML(markdown.ToHTML([]byte(md), p, r))
}
