package v1alpha1

import (
	"context"

	"github.com/mediafetch/video-downloader/internal/service"
	"github.com/mediafetch/video-downloader/internal/storage"
	"github.com/mediafetch/video-downloader/internal/store/model"
)

type DownloadService interface {
	StartDownload(ctx context.Context, form service.StartDownloadForm, clientIP string) (*model.Job, error)
	GetStatus(ctx context.Context, fileID string) (*model.Job, error)
	OpenFile(ctx context.Context, name string) (*storage.File, error)
}

type ServiceHandler struct {
	downloadSrv DownloadService
}

func NewServiceHandler(downloadSrv DownloadService) *ServiceHandler {
	return &ServiceHandler{
		downloadSrv: downloadSrv,
	}
}
