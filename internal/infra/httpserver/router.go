package httpserver

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	appassess "github.com/medisense/medisense-api/internal/application/assessment"
	appintake "github.com/medisense/medisense-api/internal/application/intake"
	appreports "github.com/medisense/medisense-api/internal/application/reports"
	domai "github.com/medisense/medisense-api/internal/domain/ai"
	"github.com/medisense/medisense-api/internal/domain/assessment"
	"github.com/medisense/medisense-api/internal/domain/intake"
	"github.com/medisense/medisense-api/internal/domain/report"
	"github.com/medisense/medisense-api/internal/domain/share"
	"github.com/medisense/medisense-api/internal/middleware"
)

type Router struct {
	intakeSvc  *appintake.Service
	assessSvc  *appassess.Service
	reportsSvc *appreports.Service
}

func NewRouter(intakeSvc *appintake.Service, assessSvc *appassess.Service, reportsSvc *appreports.Service) http.Handler {
	r := &Router{intakeSvc: intakeSvc, assessSvc: assessSvc, reportsSvc: reportsSvc}
	mux := chi.NewRouter()

	// Share resolution is public: the link id is the credential.
	mux.Get("/share/{linkId}", r.wrap(r.handleResolveShare))

	mux.Route("/v1/{user}", func(rt chi.Router) {
		rt.Post("/intake", r.wrap(r.handleCreateSession))
		rt.Get("/intake/{sid}", r.wrap(r.handleGetSession))
		rt.Post("/intake/{sid}/media", r.wrap(r.handleAttachMedia))
		rt.Delete("/intake/{sid}/media/{index}", r.wrap(r.handleRemoveMedia))
		rt.Post("/intake/{sid}/recording", r.wrap(r.handleStartRecording))
		rt.Put("/intake/{sid}/recording/{handle}", r.wrap(r.handleStopRecording))
		rt.Post("/intake/{sid}/voice-extract", r.wrap(r.handleVoiceExtract))
		rt.Patch("/intake/{sid}/patient", r.wrap(r.handleUpdatePatient))
		rt.Post("/intake/{sid}/analyze", r.wrap(r.handleAnalyze))

		rt.Get("/reports", r.wrap(r.handleListReports))
		rt.Get("/reports/{id}", r.wrap(r.handleGetReport))
		rt.Delete("/reports/{id}", r.wrap(r.handleDeleteReport))
		rt.Post("/reports/{id}/share", r.wrap(r.handleCreateShare))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// badRequestError tags request-shape failures (malformed body, invalid
// path params) so wrap can tell them from server faults.
type badRequestError struct{ err error }

func (e badRequestError) Error() string { return e.err.Error() }
func (e badRequestError) Unwrap() error { return e.err }

func badRequest(err error) error { return badRequestError{err: err} }

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		var br badRequestError
		switch {
		case errors.As(err, &br):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, intake.ErrNoInput):
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		case errors.Is(err, intake.ErrCapabilityDenied),
			errors.Is(err, intake.ErrMediaIndexOutOfRange):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, intake.ErrNoActiveRecording):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.Is(err, intake.ErrSessionNotFound),
			errors.Is(err, report.ErrNotFound),
			errors.Is(err, share.ErrInvalidLink):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, share.ErrExpired):
			http.Error(w, err.Error(), http.StatusGone)
		case errors.Is(err, domai.ErrQuotaExceeded):
			http.Error(w, err.Error(), http.StatusTooManyRequests)
		case errors.Is(err, domai.ErrTimeout):
			http.Error(w, err.Error(), http.StatusGatewayTimeout)
		case errors.Is(err, assessment.ErrAnalysisFailed):
			http.Error(w, err.Error(), http.StatusBadGateway)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func userParam(req *http.Request) (string, error) {
	user := chi.URLParam(req, "user")
	if err := middleware.ValidateUserID(user); err != nil {
		return "", badRequest(err)
	}
	return user, nil
}

// POST /v1/{user}/intake
func (r *Router) handleCreateSession(w http.ResponseWriter, req *http.Request) error {
	user, err := userParam(req)
	if err != nil {
		return err
	}
	sess := r.intakeSvc.CreateSession(user)
	return writeJSON(w, http.StatusCreated, sess)
}

// GET /v1/{user}/intake/{sid}
func (r *Router) handleGetSession(w http.ResponseWriter, req *http.Request) error {
	user, err := userParam(req)
	if err != nil {
		return err
	}
	sess, err := r.intakeSvc.Session(user, chi.URLParam(req, "sid"))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, sess)
}

// POST /v1/{user}/intake/{sid}/media
// Body: {"name": "...", "mime_type": "...", "data": "<base64>", "source": "upload|camera"}
func (r *Router) handleAttachMedia(w http.ResponseWriter, req *http.Request) error {
	user, err := userParam(req)
	if err != nil {
		return err
	}
	var body struct {
		Name   string `json:"name"`
		MIME   string `json:"mime_type"`
		Data   string `json:"data"`
		Source string `json:"source"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest(err)
	}
	if err := middleware.ValidateMIME(body.MIME); err != nil {
		return badRequest(err)
	}
	data, err := base64.StdEncoding.DecodeString(body.Data)
	if err != nil {
		return errors.Join(intake.ErrCapabilityDenied, err)
	}
	src := intake.SourceUpload
	if body.Source == string(intake.SourceCamera) {
		src = intake.SourceCamera
	}
	sess, err := r.intakeSvc.AttachMedia(user, chi.URLParam(req, "sid"), data, body.MIME, middleware.SanitizeString(body.Name), src)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, sess)
}

// DELETE /v1/{user}/intake/{sid}/media/{index}
func (r *Router) handleRemoveMedia(w http.ResponseWriter, req *http.Request) error {
	user, err := userParam(req)
	if err != nil {
		return err
	}
	index, err := strconv.Atoi(chi.URLParam(req, "index"))
	if err != nil {
		return errors.Join(intake.ErrMediaIndexOutOfRange, err)
	}
	sess, err := r.intakeSvc.RemoveMedia(user, chi.URLParam(req, "sid"), index)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, sess)
}

// POST /v1/{user}/intake/{sid}/recording
func (r *Router) handleStartRecording(w http.ResponseWriter, req *http.Request) error {
	user, err := userParam(req)
	if err != nil {
		return err
	}
	handle, err := r.intakeSvc.StartRecording(user, chi.URLParam(req, "sid"))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, map[string]string{"handle": handle})
}

// PUT /v1/{user}/intake/{sid}/recording/{handle}
// Body: {"data": "<base64>", "mime_type": "audio/webm"}
func (r *Router) handleStopRecording(w http.ResponseWriter, req *http.Request) error {
	user, err := userParam(req)
	if err != nil {
		return err
	}
	var body struct {
		Data string `json:"data"`
		MIME string `json:"mime_type"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest(err)
	}
	var data []byte
	if body.Data != "" {
		data, err = base64.StdEncoding.DecodeString(body.Data)
		if err != nil {
			return errors.Join(intake.ErrCapabilityDenied, err)
		}
	}
	sess, err := r.intakeSvc.StopRecording(user, chi.URLParam(req, "sid"), chi.URLParam(req, "handle"), data, body.MIME)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, sess)
}

// POST /v1/{user}/intake/{sid}/voice-extract
func (r *Router) handleVoiceExtract(w http.ResponseWriter, req *http.Request) error {
	user, err := userParam(req)
	if err != nil {
		return err
	}
	middleware.IncrementExtractions()
	info, sess, err := r.intakeSvc.ExtractFromVoice(req.Context(), user, chi.URLParam(req, "sid"))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{
		"extracted": info,
		"session":   sess,
	})
}

// PATCH /v1/{user}/intake/{sid}/patient
func (r *Router) handleUpdatePatient(w http.ResponseWriter, req *http.Request) error {
	user, err := userParam(req)
	if err != nil {
		return err
	}
	var p intake.PatientData
	if err := json.NewDecoder(req.Body).Decode(&p); err != nil {
		return badRequest(err)
	}
	p.Age = intake.NormalizeAge(p.Age)
	sess, err := r.intakeSvc.UpdatePatient(user, chi.URLParam(req, "sid"), p)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, sess)
}

// POST /v1/{user}/intake/{sid}/analyze
// Runs the analysis on a snapshot of the session, persists the report,
// and discards the session. The session survives a failed analysis so
// the user can resubmit it as-is.
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	user, err := userParam(req)
	if err != nil {
		return err
	}
	sid := chi.URLParam(req, "sid")
	sess, err := r.intakeSvc.Session(user, sid)
	if err != nil {
		return err
	}

	middleware.IncrementAnalyses()
	result, err := r.assessSvc.Analyze(req.Context(), sess.Patient, sess.Media, sess.Audio)
	if err != nil {
		middleware.IncrementAnalysesFailed()
		return err
	}

	id, err := r.reportsSvc.Save(req.Context(), user, sess.Media, sess.Patient, result)
	if err != nil {
		return err
	}
	middleware.IncrementReportsSaved()
	r.intakeSvc.Close(user, sid)

	return writeJSON(w, http.StatusCreated, map[string]any{
		"report_id":  id,
		"assessment": result,
	})
}

// GET /v1/{user}/reports
func (r *Router) handleListReports(w http.ResponseWriter, req *http.Request) error {
	user, err := userParam(req)
	if err != nil {
		return err
	}
	list, err := r.reportsSvc.List(req.Context(), user)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// GET /v1/{user}/reports/{id}
func (r *Router) handleGetReport(w http.ResponseWriter, req *http.Request) error {
	user, err := userParam(req)
	if err != nil {
		return err
	}
	rec, err := r.reportsSvc.Get(req.Context(), user, chi.URLParam(req, "id"))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, rec)
}

// DELETE /v1/{user}/reports/{id}
func (r *Router) handleDeleteReport(w http.ResponseWriter, req *http.Request) error {
	user, err := userParam(req)
	if err != nil {
		return err
	}
	if err := r.reportsSvc.Delete(req.Context(), user, chi.URLParam(req, "id")); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// POST /v1/{user}/reports/{id}/share
// Body: {"ttl_hours": 72} (optional)
func (r *Router) handleCreateShare(w http.ResponseWriter, req *http.Request) error {
	user, err := userParam(req)
	if err != nil {
		return err
	}
	var body struct {
		TTLHours int `json:"ttl_hours"`
	}
	if req.Body != nil && req.ContentLength != 0 {
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			return badRequest(err)
		}
	}
	link, err := r.reportsSvc.CreateShareLink(req.Context(), user, chi.URLParam(req, "id"), body.TTLHours)
	if err != nil {
		return err
	}
	middleware.IncrementSharesCreated()
	return writeJSON(w, http.StatusCreated, link)
}

// GET /share/{linkId}
func (r *Router) handleResolveShare(w http.ResponseWriter, req *http.Request) error {
	rec, owner, err := r.reportsSvc.ResolveShareLink(req.Context(), chi.URLParam(req, "linkId"))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{
		"owner":  owner,
		"report": rec,
	})
}
