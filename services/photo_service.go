package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/bracket-of-death/backend/repositories"
	"github.com/bracket-of-death/backend/storage"
	"github.com/google/uuid"
)

var allowedPhotoTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// PhotoService stores tournament photo album links. Uploads land in the
// object store under tournaments/<id>/ and the public URL is saved on the
// tournament.
type PhotoService struct {
	tournamentRepo repositories.TournamentRepository
	uploader       storage.FileUploader
	logger         *slog.Logger
}

func NewPhotoService(tournamentRepo repositories.TournamentRepository, uploader storage.FileUploader, logger *slog.Logger) *PhotoService {
	return &PhotoService{
		tournamentRepo: tournamentRepo,
		uploader:       uploader,
		logger:         logger,
	}
}

func (s *PhotoService) Enabled() bool {
	return s.uploader != nil
}

// UploadAlbumPhoto stores one photo and records its public URL as the
// tournament's album link.
func (s *PhotoService) UploadAlbumPhoto(ctx context.Context, tournamentID int, contentType string, reader io.Reader) (string, error) {
	if s.uploader == nil {
		return "", fmt.Errorf("%w: photo storage is not configured", ErrValidation)
	}

	ext, ok := allowedPhotoTypes[strings.ToLower(contentType)]
	if !ok {
		return "", fmt.Errorf("%w: unsupported content type %q", ErrValidation, contentType)
	}

	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		return "", err
	}

	key := path.Join("tournaments", fmt.Sprintf("%d", tournamentID), uuid.New().String()+ext)
	result, err := s.uploader.Upload(ctx, key, contentType, reader)
	if err != nil {
		return "", err
	}

	if err := s.tournamentRepo.UpdatePhotoAlbums(ctx, tournamentID, &result.Location); err != nil {
		return "", err
	}

	s.logger.Info("album photo uploaded",
		"tournament_id", tournamentID,
		"key", result.Key,
	)
	return result.Location, nil
}

// SetAlbumURL records an externally hosted album link.
func (s *PhotoService) SetAlbumURL(ctx context.Context, tournamentID int, albumURL *string) error {
	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		return err
	}
	return s.tournamentRepo.UpdatePhotoAlbums(ctx, tournamentID, albumURL)
}
