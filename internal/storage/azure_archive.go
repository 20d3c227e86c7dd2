package storage

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// ImageArchiver stores a copy of an uploaded face image so an analysis can
// be audited later. Archiving is best-effort: callers log failures and keep
// going.
type ImageArchiver interface {
	ArchiveImage(ctx context.Context, name string, data []byte) error
}

type azureArchiver struct {
	client    *azblob.Client
	container string
}

// NewAzureArchiver creates an archiver writing to an Azure blob container.
func NewAzureArchiver(accountName, accountKey, container string) (ImageArchiver, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, err
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, err
	}

	return &azureArchiver{client: client, container: container}, nil
}

func (a *azureArchiver) ArchiveImage(ctx context.Context, name string, data []byte) error {
	_, err := a.client.UploadBuffer(ctx, a.container, name, data, nil)
	if err != nil {
		return fmt.Errorf("blob upload failed: %w", err)
	}
	return nil
}

type noopArchiver struct{}

// NewNoopArchiver returns an archiver that discards images, used when no
// blob storage account is configured.
func NewNoopArchiver() ImageArchiver {
	return noopArchiver{}
}

func (noopArchiver) ArchiveImage(context.Context, string, []byte) error {
	return nil
}
