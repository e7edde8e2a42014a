package v1alpha1

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// HandlerFromMux registers the API routes on r.
func HandlerFromMux(h *ServiceHandler, r chi.Router) http.Handler {
	r.Post("/start-download", h.StartDownload)
	r.Get("/status/{file_id}", h.GetStatus)
	r.Get("/download/{filename}", h.DownloadFile)
	r.Get("/api/v1/info", h.GetInfo)
	return r
}
