package syncer

import (
	"context"
	"fmt"

	"github.com/minios-linux/txsync/transifex"
)

// Upload submits content as the new source of a resource and waits for
// the upload job to finish.
func Upload(ctx context.Context, svc Service, p transifex.Poller, resourceID string, content []byte) error {
	id, err := svc.CreateUpload(ctx, resourceID, content)
	if err != nil {
		return fmt.Errorf("submitting upload: %w", err)
	}
	_, err = transifex.Poll(ctx, p, transifex.JobUpload, id, func(ctx context.Context) (transifex.Outcome[struct{}], error) {
		return svc.UploadStatus(ctx, id)
	})
	return err
}

// Download requests the translation of a resource into one language and
// waits for the final file content.
func Download(ctx context.Context, svc Service, p transifex.Poller, resourceID, languageID string) (string, error) {
	id, err := svc.CreateDownload(ctx, resourceID, languageID)
	if err != nil {
		return "", fmt.Errorf("submitting download of %s: %w", languageID, err)
	}
	return transifex.Poll(ctx, p, transifex.JobDownload, id, func(ctx context.Context) (transifex.Outcome[string], error) {
		return svc.DownloadStatus(ctx, id)
	})
}
