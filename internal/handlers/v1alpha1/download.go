package v1alpha1

import (
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	api "github.com/mediafetch/video-downloader/api/v1alpha1"
	"github.com/mediafetch/video-downloader/internal/service"
	"github.com/mediafetch/video-downloader/pkg/middleware"
	"github.com/mediafetch/video-downloader/pkg/requestid"
	"go.uber.org/zap"
)

// (POST /start-download)
func (h *ServiceHandler) StartDownload(w http.ResponseWriter, r *http.Request) {
	log := zap.S().Named("download_handler").With("request_id", requestid.FromRequest(r))

	if err := r.ParseForm(); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, api.ErrorResponse{Error: "Invalid form"})
		return
	}

	form := service.NormalizeForm(r.PostFormValue("url"), r.PostFormValue("format"))

	job, err := h.downloadSrv.StartDownload(r.Context(), form, middleware.ClientIP(r))
	if err != nil {
		switch err.(type) {
		case *service.ErrInvalidURL, *service.ErrUnsupportedFormat:
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, api.ErrorResponse{Error: err.Error()})
		default:
			log.Errorw("error starting download", "error", err)
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, api.ErrorResponse{Error: "Failed to start download"})
		}
		return
	}

	render.JSON(w, r, api.StartDownloadResponse{FileID: job.ID.String()})
}

// (GET /status/{file_id})
func (h *ServiceHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "file_id")

	job, err := h.downloadSrv.GetStatus(r.Context(), fileID)
	if err != nil {
		switch err.(type) {
		case *service.ErrJobNotFound:
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, api.StatusResponse{Status: api.JobStatusUnknown})
		default:
			zap.S().Named("download_handler").Errorw("error getting status", "file_id", fileID, "error", err)
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, api.ErrorResponse{Error: "Failed to get status"})
		}
		return
	}

	render.JSON(w, r, api.StatusResponse{
		Status: api.StringToJobStatus(job.Status),
		File:   job.File,
		Error:  job.Error,
	})
}

// (GET /download/{filename})
func (h *ServiceHandler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	log := zap.S().Named("download_handler").With("file", name)

	f, err := h.downloadSrv.OpenFile(r.Context(), name)
	if err != nil {
		switch err.(type) {
		case *service.ErrInvalidFilename:
			http.Error(w, "Invalid filename", http.StatusBadRequest)
		case *service.ErrFileNotFound:
			log.Warn("file not found")
			http.Error(w, "File not found", http.StatusNotFound)
		case *service.ErrNotAFile:
			log.Warn("not a file")
			http.Error(w, "Invalid file", http.StatusBadRequest)
		default:
			log.Errorw("error serving file", "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}
	defer f.Close()

	log.Info("serving file")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": f.Name}))
	w.Header().Set("Content-Type", "application/octet-stream")
	http.ServeContent(w, r, f.Name, f.ModTime, f)
}
