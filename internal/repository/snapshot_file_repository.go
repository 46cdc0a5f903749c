package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/noah-isme/village-api/internal/models"
	"github.com/noah-isme/village-api/pkg/storage"
)

// ErrInvalidClassID is returned for ids that cannot be used as file names.
var ErrInvalidClassID = errors.New("invalid class id")

// FileSnapshotRepository keeps one JSON file per class on local disk.
type FileSnapshotRepository struct {
	files *storage.LocalStorage
}

// NewFileSnapshotRepository constructs the repository on top of local storage.
func NewFileSnapshotRepository(files *storage.LocalStorage) *FileSnapshotRepository {
	return &FileSnapshotRepository{files: files}
}

func snapshotFile(classID string) (string, error) {
	if !models.ValidClassID(classID) {
		return "", fmt.Errorf("%w: %q", ErrInvalidClassID, classID)
	}
	return path.Join("classes", classID+".json"), nil
}

// Load returns the stored snapshot or nil when the class has none.
func (r *FileSnapshotRepository) Load(_ context.Context, classID string) (*models.Snapshot, error) {
	name, err := snapshotFile(classID)
	if err != nil {
		return nil, err
	}
	data, err := r.files.Read(name)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var snap models.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", classID, err)
	}
	return &snap, nil
}

// Save replaces the class file atomically.
func (r *FileSnapshotRepository) Save(_ context.Context, classID string, snap *models.Snapshot) error {
	name, err := snapshotFile(classID)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", classID, err)
	}
	if _, err := r.files.Save(name, data); err != nil {
		return fmt.Errorf("save snapshot %s: %w", classID, err)
	}
	return nil
}

// List returns stored classes ordered by id.
func (r *FileSnapshotRepository) List(ctx context.Context) ([]models.SnapshotInfo, error) {
	names, err := r.files.List("classes", ".json")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	infos := make([]models.SnapshotInfo, 0, len(names))
	for _, name := range names {
		classID := strings.TrimSuffix(name, ".json")
		snap, err := r.Load(ctx, classID)
		if err != nil || snap == nil {
			continue
		}
		infos = append(infos, models.SnapshotInfo{ClassID: classID, UpdatedAt: snap.UpdatedAt})
	}
	return infos, nil
}
