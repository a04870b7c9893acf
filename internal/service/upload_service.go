package service

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AssetUpload is a presigned upload slot for a QR code asset (pdf, menu,
// audio, vcard attachment).
type AssetUpload struct {
	Key       string `json:"key"`
	UploadURL string `json:"uploadUrl"`
	PublicURL string `json:"publicUrl"`
}

type UploadService interface {
	// InitiateUpload returns a presigned PUT URL the client uploads the asset
	// to directly, bypassing the API server.
	InitiateUpload(ctx context.Context, userID, filename string) (*AssetUpload, error)
	// ConfirmUpload verifies the object landed in the bucket.
	ConfirmUpload(ctx context.Context, key string) error
}

type uploadService struct {
	s3Client      *s3.Client
	presignClient *s3.PresignClient
	bucketName    string
	publicBaseURL string
	uploadLogger  zerolog.Logger
}

func NewUploadService(s3Client *s3.Client, bucketName, publicBaseURL string, logger zerolog.Logger) UploadService {
	return &uploadService{
		s3Client:      s3Client,
		presignClient: s3.NewPresignClient(s3Client),
		bucketName:    bucketName,
		publicBaseURL: publicBaseURL,
		uploadLogger:  logger.With().Str("service", "UploadService").Logger(),
	}
}

func (s *uploadService) InitiateUpload(ctx context.Context, userID, filename string) (*AssetUpload, error) {
	// path.Base strips any directory components a client might smuggle in.
	key := fmt.Sprintf("assets/%s/%s/%s", userID, uuid.New().String(), path.Base(filename))

	request, err := s.presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		s.uploadLogger.Error().Err(err).Str("object_key", key).Msg("Failed to generate presigned PUT URL")
		return nil, fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return &AssetUpload{
		Key:       key,
		UploadURL: request.URL,
		PublicURL: s.publicBaseURL + "/" + key,
	}, nil
}

func (s *uploadService) ConfirmUpload(ctx context.Context, key string) error {
	_, err := s.s3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		s.uploadLogger.Error().Err(err).Str("object_key", key).Msg("Uploaded object not found in bucket")
		return fmt.Errorf("file not found in storage: %w", err)
	}
	return nil
}
