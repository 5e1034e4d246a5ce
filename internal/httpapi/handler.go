package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/omeyang/xshortlink/internal/logging"
	"github.com/omeyang/xshortlink/internal/shortcut"
)

const (
	contentType         = "Content-Type"
	mimeApplicationJSON = "application/json; charset=utf-8"

	// maxBodyBytes 创建请求体的上限。
	maxBodyBytes = 64 << 10
)

// msg 错误或状态消息。
type msg struct {
	Msg string `json:"msg"`
}

type createRequest struct {
	URL string `json:"url"`
}

type api struct {
	svc    shortcut.Service
	logger logging.Logger
}

// handlerFunc 返回错误的处理函数，错误由 handle 统一映射为响应。
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

func (a *api) handle(fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			a.writeError(w, r, err)
		}
	}
}

func (a *api) create(w http.ResponseWriter, r *http.Request) error {
	var req createRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		return fmt.Errorf("%w: malformed request body: %w", shortcut.ErrInvalidArgument, err)
	}

	s, err := a.svc.Create(r.Context(), req.URL)
	if err != nil {
		return err
	}
	w.Header().Set("Location", "/v1/urls/"+s.ID)
	a.writeJSON(w, r, http.StatusCreated, s)
	return nil
}

func (a *api) query(w http.ResponseWriter, r *http.Request) error {
	list, err := a.svc.GetByURL(r.Context(), r.URL.Query().Get("url"))
	if err != nil {
		return err
	}
	a.writeJSON(w, r, http.StatusOK, list)
	return nil
}

func (a *api) redirect(w http.ResponseWriter, r *http.Request) error {
	id := chi.URLParam(r, "id")
	s, found, err := a.svc.Get(r.Context(), id)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: shortcut %q", shortcut.ErrNotFound, id)
	}
	http.Redirect(w, r, s.URL, http.StatusFound)
	return nil
}

func (a *api) healthz(check HealthFunc) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		if check != nil {
			if err := check(r.Context()); err != nil {
				a.logger.Warn(r.Context(), "health check failed", logging.Err(err))
				a.writeJSON(w, r, http.StatusServiceUnavailable, msg{"unavailable"})
				return nil
			}
		}
		a.writeJSON(w, r, http.StatusOK, msg{"ok"})
		return nil
	}
}

// writeError 按错误分类写响应。内部错误只记录日志，不向调用方暴露细节。
func (a *api) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	text := err.Error()
	if status == http.StatusInternalServerError {
		a.logger.Error(r.Context(), "request failed", logging.Err(err))
		text = http.StatusText(status)
	}
	a.writeJSON(w, r, status, msg{text})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, shortcut.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, shortcut.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, shortcut.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (a *api) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set(contentType, mimeApplicationJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		a.logger.Warn(r.Context(), "write response failed", logging.Err(err))
	}
}
