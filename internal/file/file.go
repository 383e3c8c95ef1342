package file

import (
	"context"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// documentFolder keeps identity documents in their own folder so
// storage access rules can be scoped tighter than marketing assets.
const documentFolder = "kyc-documents"

type FileUploader struct {
	cloud_name string
	api_key    string
	api_secret string
}

func New(cloud_name, api_key, api_secret string) *FileUploader {
	return &FileUploader{
		cloud_name: cloud_name,
		api_key:    api_key,
		api_secret: api_secret,
	}
}

// UploadDocument pushes a local file to cloud storage and returns the
// delivery URL. publicID pins the stored name so re-uploads of the same
// document replace rather than duplicate.
func (f *FileUploader) UploadDocument(fileName, publicID string) (string, error) {
	cld, err := cloudinary.NewFromParams(f.cloud_name, f.api_key, f.api_secret)
	if err != nil {
		return "", err
	}

	ctx := context.Background()
	uploadResult, err := cld.Upload.Upload(ctx, fileName, uploader.UploadParams{
		Folder:   documentFolder,
		PublicID: publicID,
	})

	if err != nil {
		return "", err
	}

	return uploadResult.SecureURL, nil
}
