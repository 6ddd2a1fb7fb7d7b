package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/m-mizutani/goerr/v2"
	"github.com/oncoguard/oncoguard/pkg/domain/model"
	"github.com/oncoguard/oncoguard/pkg/service/trials"
	"github.com/oncoguard/oncoguard/pkg/usecase"
	"github.com/oncoguard/oncoguard/pkg/utils/errutil"
	"github.com/oncoguard/oncoguard/pkg/utils/logging"
)

var errMalformedBody = goerr.New("malformed request body")

// decodeBody reads a JSON body into out. An empty body is accepted when
// allowEmpty is set.
func decodeBody(r *http.Request, out any, allowEmpty bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(out); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return nil
		}
		return goerr.Wrap(errMalformedBody, err.Error())
	}
	return nil
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to marshal response"), "failed to build response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.From(r.Context()).Warn("failed to write response", "error", err)
	}
}

// statusOf maps use case errors to HTTP status codes
func statusOf(err error) int {
	switch {
	case errors.Is(err, errMalformedBody),
		errors.Is(err, usecase.ErrInvalidCaseInput),
		errors.Is(err, usecase.ErrInvalidSearchQuery),
		errors.Is(err, usecase.ErrInvalidTrialQuery),
		errors.Is(err, usecase.ErrEmptyCaseText):
		return http.StatusBadRequest
	case errors.Is(err, usecase.ErrCaseTextTooShort):
		return http.StatusUnprocessableEntity
	case errors.Is(err, trials.ErrRegistryRequest):
		return http.StatusBadGateway
	case errors.Is(err, usecase.ErrNoScenarioLoader),
		errors.Is(err, usecase.ErrNoTrialSearcher):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func handleError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	errutil.HandleHTTP(r.Context(), w, err, msg, statusOf(err))
}

func healthHandler(uc *usecase.UseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		health, err := uc.Health(r.Context())
		if err != nil {
			handleError(w, r, err, "store is unavailable")
			return
		}
		writeJSON(w, r, http.StatusOK, health)
	}
}

type doctorValidateResponse struct {
	*model.ValidationResult
	LLMReview      *model.DoctorReview `json:"llm_review,omitempty"`
	LLMReviewError string              `json:"llm_review_error,omitempty"`
}

func doctorValidateHandler(uc *usecase.UseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in model.CaseInput
		if err := decodeBody(r, &in, false); err != nil {
			handleError(w, r, err, "invalid validation request")
			return
		}

		outcome, err := uc.Explain.ReviewCase(r.Context(), &in)
		if err != nil {
			handleError(w, r, err, "failed to validate case")
			return
		}

		resp := doctorValidateResponse{
			ValidationResult: outcome.Validation,
			LLMReview:        outcome.Review,
		}
		if outcome.ReviewError != nil {
			resp.LLMReviewError = outcome.ReviewError.Error()
		}
		writeJSON(w, r, http.StatusOK, resp)
	}
}

func patientExplainHandler(uc *usecase.UseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in model.CaseInput
		if err := decodeBody(r, &in, false); err != nil {
			handleError(w, r, err, "invalid patient explanation request")
			return
		}

		outcome, err := uc.Explain.ExplainForPatient(r.Context(), &in)
		if err != nil {
			handleError(w, r, err, "failed to explain case")
			return
		}
		writeJSON(w, r, http.StatusOK, outcome)
	}
}

func guidelineSearchHandler(uc *usecase.UseCases) http.HandlerFunc {
	type response struct {
		Query string             `json:"query"`
		Total int                `json:"total"`
		Hits  []*model.SearchHit `json:"hits"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req usecase.SearchRequest
		if err := decodeBody(r, &req, false); err != nil {
			handleError(w, r, err, "invalid search request")
			return
		}

		hits, err := uc.Guideline.SearchGuidelines(r.Context(), req)
		if err != nil {
			handleError(w, r, err, "failed to search guidelines")
			return
		}
		if hits == nil {
			hits = []*model.SearchHit{}
		}
		writeJSON(w, r, http.StatusOK, response{Query: req.Query, Total: len(hits), Hits: hits})
	}
}

func guidelineSourcesHandler(uc *usecase.UseCases) http.HandlerFunc {
	type response struct {
		Total   int                      `json:"total"`
		Sources []*model.GuidelineSource `json:"sources"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				handleError(w, r, goerr.Wrap(errMalformedBody, "limit must be a non-negative integer", goerr.V("limit", v)), "invalid limit")
				return
			}
			limit = n
		}

		sources, err := uc.Guideline.ListGuidelineSources(r.Context(), limit)
		if err != nil {
			handleError(w, r, err, "failed to list guidelines")
			return
		}
		if sources == nil {
			sources = []*model.GuidelineSource{}
		}
		writeJSON(w, r, http.StatusOK, response{Total: len(sources), Sources: sources})
	}
}

func benchmarkRunHandler(uc *usecase.UseCases) http.HandlerFunc {
	type request struct {
		DatasetVersion string `json:"dataset_version"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := decodeBody(r, &req, true); err != nil {
			handleError(w, r, err, "invalid benchmark request")
			return
		}
		report, err := uc.Benchmark.RunBenchmark(r.Context(), req.DatasetVersion)
		if err != nil {
			handleError(w, r, err, "failed to run benchmark")
			return
		}
		writeJSON(w, r, http.StatusOK, report)
	}
}

func benchmarkLatestHandler(uc *usecase.UseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := uc.Benchmark.LatestBenchmark(r.Context())
		if err != nil {
			handleError(w, r, err, "failed to load benchmark report")
			return
		}
		if report == nil {
			writeJSON(w, r, http.StatusNotFound, errutil.ErrorResponse{Error: "no benchmark report yet"})
			return
		}
		writeJSON(w, r, http.StatusOK, report)
	}
}

func caseParseHandler(uc *usecase.UseCases) http.HandlerFunc {
	type request struct {
		Text   string `json:"text"`
		Source string `json:"source"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := decodeBody(r, &req, false); err != nil {
			handleError(w, r, err, "invalid case parse request")
			return
		}

		result, err := uc.Case.ParseText(r.Context(), req.Text, req.Source)
		if err != nil {
			handleError(w, r, err, "failed to parse case text")
			return
		}
		writeJSON(w, r, http.StatusOK, result)
	}
}

func trialsSearchHandler(uc *usecase.UseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		result, err := uc.Trials.Search(r.Context(), q.Get("query"), q.Get("recruiting") == "true")
		if err != nil {
			handleError(w, r, err, "failed to search clinical trials")
			return
		}
		writeJSON(w, r, http.StatusOK, result)
	}
}
