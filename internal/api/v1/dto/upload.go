package dto

// UploadInitiateDTO requests a presigned upload slot for a QR asset.
type UploadInitiateDTO struct {
	Filename string `json:"filename" validate:"required,max=255"`
}

// UploadConfirmDTO marks a presigned upload as completed.
type UploadConfirmDTO struct {
	Key string `json:"key" validate:"required"`
}
