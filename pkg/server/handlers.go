package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/matzehuels/sexpfmt/pkg/buildinfo"
	errs "github.com/matzehuels/sexpfmt/pkg/errors"
	"github.com/matzehuels/sexpfmt/pkg/observability"
	"github.com/matzehuels/sexpfmt/pkg/pipeline"
)

// FormatRequest is the body of /v1/format and /v1/check.
type FormatRequest struct {
	Source  string `json:"source"`
	Width   int    `json:"width,omitempty"`
	Refresh bool   `json:"refresh,omitempty"`
}

// FormatResponse is returned by /v1/format.
type FormatResponse struct {
	Text      string `json:"text"`
	Forms     int    `json:"forms"`
	Lines     int    `json:"lines"`
	Overlong  int    `json:"overlong"`
	CacheHit  bool   `json:"cache_hit"`
	RequestID string `json:"request_id"`
}

// CheckResponse is returned by /v1/check.
type CheckResponse struct {
	Formatted bool           `json:"formatted"`
	FirstDiff int            `json:"first_diff,omitempty"`
	Overlong  []OverlongLine `json:"overlong"`
	Text      string         `json:"text"`
	RequestID string         `json:"request_id"`
}

// OverlongLine is an output line wider than the requested width.
type OverlongLine struct {
	Line  int `json:"line"`
	Width int `json:"width"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code      errs.Code `json:"code"`
	Message   string    `json:"message"`
	RequestID string    `json:"request_id"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.Version})
}

func (s *Server) handleFormat(w http.ResponseWriter, r *http.Request) {
	req, opts, ok := s.decode(w, r)
	if !ok {
		return
	}
	res, err := s.runner.Execute(r.Context(), []byte(req.Source), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, FormatResponse{
		Text:      res.Text,
		Forms:     res.Forms,
		Lines:     res.Stats.Lines,
		Overlong:  res.Stats.Overlong,
		CacheHit:  res.CacheHit,
		RequestID: RequestID(r.Context()),
	})
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	req, opts, ok := s.decode(w, r)
	if !ok {
		return
	}
	cr, err := s.runner.Check(r.Context(), []byte(req.Source), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	overlong := make([]OverlongLine, len(cr.Overlong))
	for i, l := range cr.Overlong {
		overlong[i] = OverlongLine{Line: l.Number, Width: l.Width}
	}
	writeJSON(w, http.StatusOK, CheckResponse{
		Formatted: cr.Formatted,
		FirstDiff: cr.FirstDiff,
		Overlong:  overlong,
		Text:      cr.Text,
		RequestID: RequestID(r.Context()),
	})
}

func (s *Server) handleForms(w http.ResponseWriter, r *http.Request) {
	opts := s.options(FormatRequest{})
	if err := opts.ValidateAndSetDefaults(); err != nil {
		s.writeError(w, r, err)
		return
	}
	forms := make(map[string]string, opts.Forms.Len())
	for _, name := range opts.Forms.Names() {
		rule, _ := opts.Forms.Lookup(name)
		forms[name] = rule.Strategy.String()
	}
	writeJSON(w, http.StatusOK, forms)
}

// decode reads a FormatRequest. On failure it writes the error response
// and returns false.
func (s *Server) decode(w http.ResponseWriter, r *http.Request) (FormatRequest, pipeline.Options, bool) {
	var req FormatRequest
	body := http.MaxBytesReader(w, r.Body, s.bodyLimit())
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, r, errs.New(errs.ErrCodeTooLarge, "request body exceeds %d bytes", tooLarge.Limit))
		} else {
			s.writeError(w, r, errs.Wrap(errs.ErrCodeInvalidInput, err, "invalid request body"))
		}
		return req, pipeline.Options{}, false
	}
	return req, s.options(req), true
}

// bodyLimit leaves room for the JSON envelope and string escapes around a
// source of MaxBodyBytes.
func (s *Server) bodyLimit() int64 {
	return 2*s.cfg.MaxBodyBytes + 1024
}

// options builds fresh pipeline options for a request from the server
// defaults.
func (s *Server) options(req FormatRequest) pipeline.Options {
	d := s.cfg.Defaults
	width := req.Width
	if width == 0 {
		width = d.Width
	}
	return pipeline.Options{
		Width:             width,
		ReinterpretFloats: d.ReinterpretFloats,
		Refresh:           req.Refresh,
		Forms:             d.Forms,
		MaxSourceBytes:    s.cfg.MaxBodyBytes,
		CacheTTL:          d.CacheTTL,
		Logger:            s.cfg.Logger,
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	status := statusFor(err)
	code := errs.GetCode(err)
	msg := errs.UserMessage(err)
	if code == "" || status == http.StatusInternalServerError {
		code = errs.ErrCodeInternal
		msg = "internal error"
	}
	observability.HTTP().OnError(ctx, r.Method, r.URL.Path, err)
	if status == http.StatusInternalServerError {
		s.cfg.Logger.Error("request failed", "path", r.URL.Path, "request_id", RequestID(ctx), "err", err)
	}
	writeJSON(w, status, ErrorResponse{Code: code, Message: msg, RequestID: RequestID(ctx)})
}

// statusFor maps an error to an HTTP status code.
func statusFor(err error) int {
	switch {
	case errs.Is(err, errs.ErrCodeUnsupportedKind):
		return http.StatusUnprocessableEntity
	case errs.Is(err, errs.ErrCodeTimeout):
		return http.StatusGatewayTimeout
	case errs.IsUserError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
