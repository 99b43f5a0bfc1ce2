package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"

	"genielearn-backend/internal/database"
	"genielearn-backend/internal/models"
	"genielearn-backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrFileNotFound = errors.New("file not found")

type FileService interface {
	Upload(ctx context.Context, groupID, uploaderID string, header *multipart.FileHeader) (*models.FileResponse, error)
	ListGroupFiles(ctx context.Context, groupID string) ([]models.FileResponse, error)
	Download(ctx context.Context, fileID string) (*models.FileRecord, io.ReadCloser, error)
}

type fileService struct {
	files repository.FileRepository
	blobs *database.BlobStore
}

func NewFileService(files repository.FileRepository, blobs *database.BlobStore) FileService {
	return &fileService{files: files, blobs: blobs}
}

func (s *fileService) Upload(ctx context.Context, groupID, uploaderID string, header *multipart.FileHeader) (*models.FileResponse, error) {
	src, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	record := &models.FileRecord{
		ID:          uuid.NewString(),
		GroupID:     groupID,
		UploaderID:  uploaderID,
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
	}
	record.ObjectKey = fmt.Sprintf("groups/%s/%s/%s", groupID, record.ID, header.Filename)

	if err := s.blobs.Put(ctx, record.ObjectKey, src, header.Size, record.ContentType); err != nil {
		return nil, err
	}
	if err := s.files.Create(ctx, record); err != nil {
		return nil, err
	}

	resp := record.ToResponse()
	return &resp, nil
}

func (s *fileService) ListGroupFiles(ctx context.Context, groupID string) ([]models.FileResponse, error) {
	files, err := s.files.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	resps := make([]models.FileResponse, 0, len(files))
	for i := range files {
		resps = append(resps, files[i].ToResponse())
	}
	return resps, nil
}

func (s *fileService) Download(ctx context.Context, fileID string) (*models.FileRecord, io.ReadCloser, error) {
	record, err := s.files.FindByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrFileNotFound
		}
		return nil, nil, err
	}

	reader, err := s.blobs.Get(ctx, record.ObjectKey)
	if err != nil {
		return nil, nil, err
	}
	return record, reader, nil
}
