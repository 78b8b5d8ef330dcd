package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/satishbabariya/querycraft/internal/core/query/compiler"
	"github.com/satishbabariya/querycraft/internal/core/query/condparse"
	"github.com/satishbabariya/querycraft/internal/core/query/domain"
	"github.com/satishbabariya/querycraft/internal/core/query/engine"
	"github.com/satishbabariya/querycraft/internal/core/query/explainer"
	"github.com/satishbabariya/querycraft/internal/core/query/lint"
	"github.com/satishbabariya/querycraft/internal/core/recipe"
	"github.com/satishbabariya/querycraft/internal/debug"
	"github.com/satishbabariya/querycraft/internal/service"
	"github.com/satishbabariya/querycraft/internal/version"
)

// ErrBadRequest marks malformed request bodies.
var ErrBadRequest = errors.New("bad request")

// QueryRequest carries a state and, optionally, the rows of its table. When
// rows is present, even empty, it replaces the configured dataset.
type QueryRequest struct {
	State domain.State `json:"state"`
	Rows  []domain.Row `json:"rows,omitempty"`
}

func (q QueryRequest) inline() bool {
	return q.Rows != nil
}

// CompileResponse is the body of POST /v1/compile.
type CompileResponse struct {
	SQL     string          `json:"sql"`
	Clauses []domain.Clause `json:"clauses"`
}

// ExplainResponse is the body of POST /v1/explain.
type ExplainResponse struct {
	Explanation string           `json:"explanation"`
	Lines       []explainer.Line `json:"lines"`
}

// LintResponse is the body of POST /v1/lint.
type LintResponse struct {
	Hints []lint.Hint `json:"hints"`
}

// ConditionsRequest is the body of POST /v1/where/parse.
type ConditionsRequest struct {
	Where  string `json:"where,omitempty"`
	Having string `json:"having,omitempty"`
}

// ConditionsResponse holds parsed conditions ready to merge into a state.
type ConditionsResponse struct {
	WhereConditions []domain.Condition       `json:"whereConditions"`
	Having          []domain.HavingCondition `json:"having"`
}

// ExpandRequest is the body of POST /v1/recipes/{id}/expand.
type ExpandRequest struct {
	Params map[string]string `json:"params"`
}

// ExpandResponse is the state a recipe produced and its SQL.
type ExpandResponse struct {
	Recipe string       `json:"recipe"`
	State  domain.State `json:"state"`
	SQL    string       `json:"sql"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Param     string `json:"param,omitempty"`
	Line      int    `json:"line,omitempty"`
	Column    int    `json:"column,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": version.Get(),
	})
}

func (s *Server) compile(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if !decode(w, r, &req) {
		return
	}
	stmt := compiler.Render(req.State)
	clauses := stmt.Clauses
	if clauses == nil {
		clauses = []domain.Clause{}
	}
	writeJSON(w, http.StatusOK, CompileResponse{SQL: stmt.SQL, Clauses: clauses})
}

func (s *Server) explain(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if !decode(w, r, &req) {
		return
	}
	lines := explainer.Describe(req.State)
	if lines == nil {
		lines = []explainer.Line{}
	}
	writeJSON(w, http.StatusOK, ExplainResponse{Explanation: explainer.Explain(req.State), Lines: lines})
}

func (s *Server) lint(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if !decode(w, r, &req) {
		return
	}
	hints := lint.Lint(req.State)
	if hints == nil {
		hints = []lint.Hint{}
	}
	writeJSON(w, http.StatusOK, LintResponse{Hints: hints})
}

func (s *Server) execute(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if !decode(w, r, &req) {
		return
	}
	var (
		res engine.Result
		err error
	)
	if req.inline() {
		res, err = s.previews.ExecuteRows(r.Context(), req.State, req.Rows)
	} else {
		res, err = s.previews.Execute(r.Context(), req.State)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) preview(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if !decode(w, r, &req) {
		return
	}
	var (
		p   *service.Preview
		err error
	)
	if req.inline() {
		p, err = s.previews.PreviewRows(r.Context(), req.State, req.Rows)
	} else {
		p, err = s.previews.Preview(r.Context(), req.State)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) parseConditions(w http.ResponseWriter, r *http.Request) {
	var req ConditionsRequest
	if !decode(w, r, &req) {
		return
	}
	where, err := condparse.ParseWhere(req.Where)
	if err != nil {
		writeError(w, r, fmt.Errorf("where: %w", err))
		return
	}
	having, err := condparse.ParseHaving(req.Having)
	if err != nil {
		writeError(w, r, fmt.Errorf("having: %w", err))
		return
	}
	if where == nil {
		where = []domain.Condition{}
	}
	if having == nil {
		having = []domain.HavingCondition{}
	}
	writeJSON(w, http.StatusOK, ConditionsResponse{WhereConditions: where, Having: having})
}

func (s *Server) listRecipes(w http.ResponseWriter, r *http.Request) {
	list := []recipe.Recipe{}
	if s.recipes != nil {
		list = s.recipes.List()
	}
	writeJSON(w, http.StatusOK, map[string]any{"recipes": list})
}

func (s *Server) getRecipe(w http.ResponseWriter, r *http.Request) {
	if s.recipes == nil {
		writeError(w, r, recipe.ErrUnknownRecipe)
		return
	}
	rec, err := s.recipes.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) expandRecipe(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req ExpandRequest
	if !decode(w, r, &req) {
		return
	}
	if s.recipes == nil {
		writeError(w, r, recipe.ErrUnknownRecipe)
		return
	}
	state, err := s.recipes.Expand(id, req.Params)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ExpandResponse{Recipe: id, State: state, SQL: compiler.Compile(state)})
}

func (s *Server) tables(w http.ResponseWriter, r *http.Request) {
	tables, err := s.previews.Tables(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tables": tables})
}

func (s *Server) metricsSnapshot(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{"cache": s.previews.CacheStats()}
	if s.metrics != nil {
		body["telemetry"] = s.metrics.Snapshot()
	}
	writeJSON(w, http.StatusOK, body)
}

// decode reads a JSON body strictly. It writes the error response itself and
// reports whether the handler should continue.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, r, fmt.Errorf("%w: %w", ErrBadRequest, err))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		debug.Warn("Failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := errorResponse(err)
	body.RequestID = middleware.GetReqID(r.Context())
	if status >= http.StatusInternalServerError {
		debug.Error("Request failed", "request_id", body.RequestID, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, body)
}

func errorResponse(err error) (int, ErrorResponse) {
	body := ErrorResponse{Error: err.Error()}

	var (
		syntax *condparse.SyntaxError
		param  *recipe.ParamError
		tooBig *http.MaxBytesError
	)
	switch {
	case errors.As(err, &tooBig):
		return http.StatusRequestEntityTooLarge, body
	case errors.Is(err, ErrBadRequest):
		body.Code = "bad-request"
		return http.StatusBadRequest, body
	case errors.As(err, &syntax):
		body.Code = "syntax"
		body.Line, body.Column = syntax.Line, syntax.Column
		return http.StatusBadRequest, body
	case errors.Is(err, condparse.ErrFunctionInWhere), errors.Is(err, condparse.ErrMissingFunction):
		body.Code = "condition"
		return http.StatusBadRequest, body
	case errors.As(err, &param):
		body.Code = "param"
		body.Param = param.Param
		return http.StatusBadRequest, body
	case errors.Is(err, recipe.ErrUnknownRecipe):
		body.Code = "unknown-recipe"
		return http.StatusNotFound, body
	case errors.Is(err, recipe.ErrUnsupportedFeature), errors.Is(err, recipe.ErrUnavailable):
		body.Code = "recipe-unavailable"
		return http.StatusUnprocessableEntity, body
	case errors.Is(err, service.ErrNoSource):
		body.Code = "no-dataset"
		return http.StatusConflict, body
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		body.Code = "cancelled"
		return http.StatusServiceUnavailable, body
	default:
		return http.StatusInternalServerError, body
	}
}
