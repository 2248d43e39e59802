package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"StockPredictor/internal/domain/service"
	"StockPredictor/internal/services/lstm"
	applogger "StockPredictor/pkg/logger"
)

var unsafeRunes = regexp.MustCompile(`[^A-Za-z0-9]`)

// SafeName maps an identifier to the file-name stem of its artifacts.
func SafeName(identifier string) string {
	return unsafeRunes.ReplaceAllString(identifier, "_")
}

// FileModelStore keeps <safe>_model.json and <safe>_scaler.json per instrument in one directory.
type FileModelStore struct {
	dir    string
	maxAge time.Duration
	now    func() time.Time
	l      *applogger.Logger
}

// ModelStoreOption configures FileModelStore.
type ModelStoreOption func(*FileModelStore)

// WithMaxAge makes artifacts older than d count as missing. Zero keeps them forever.
func WithMaxAge(d time.Duration) ModelStoreOption {
	return func(s *FileModelStore) { s.maxAge = d }
}

// WithStoreClock sets the time source used for the age check.
func WithStoreClock(now func() time.Time) ModelStoreOption {
	return func(s *FileModelStore) { s.now = now }
}

func NewFileModelStore(dir string, l *applogger.Logger, opts ...ModelStoreOption) (*FileModelStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create model dir: %w", err)
	}
	s := &FileModelStore{dir: dir, now: time.Now, l: l}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Paths returns the model and scaler file paths for identifier.
func (s *FileModelStore) Paths(identifier string) (string, string) {
	safe := SafeName(identifier)
	return filepath.Join(s.dir, safe+"_model.json"), filepath.Join(s.dir, safe+"_scaler.json")
}

func (s *FileModelStore) Exists(ctx context.Context, identifier string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	modelPath, scalerPath := s.Paths(identifier)
	var oldest time.Time
	for _, p := range []string{modelPath, scalerPath} {
		info, err := os.Stat(p)
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("stat %s: %w", p, err)
		}
		if oldest.IsZero() || info.ModTime().Before(oldest) {
			oldest = info.ModTime()
		}
	}
	if s.maxAge > 0 && s.now().Sub(oldest) > s.maxAge {
		s.l.Info("model artifacts are stale",
			applogger.String("identifier", identifier),
			applogger.Duration("age", s.now().Sub(oldest)))
		return false, nil
	}
	return true, nil
}

func (s *FileModelStore) Save(ctx context.Context, identifier string, a service.Artifacts) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	net, ok := a.Model.(*lstm.Network)
	if !ok {
		return fmt.Errorf("unsupported model type %T", a.Model)
	}
	scaler, ok := a.Scaler.(*lstm.MinMaxScaler)
	if !ok {
		return fmt.Errorf("unsupported scaler type %T", a.Scaler)
	}

	modelPath, scalerPath := s.Paths(identifier)
	if err := s.writeJSON(modelPath, net); err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	if err := s.writeJSON(scalerPath, scaler); err != nil {
		return fmt.Errorf("save scaler: %w", err)
	}
	s.l.Info("model artifacts saved",
		applogger.String("identifier", identifier),
		applogger.String("model", modelPath),
		applogger.String("scaler", scalerPath))
	return nil
}

func (s *FileModelStore) Load(ctx context.Context, identifier string) (service.Artifacts, error) {
	if err := ctx.Err(); err != nil {
		return service.Artifacts{}, err
	}
	modelPath, scalerPath := s.Paths(identifier)

	var net lstm.Network
	if err := readJSON(modelPath, &net); err != nil {
		return service.Artifacts{}, fmt.Errorf("load model: %w", err)
	}
	if err := net.Validate(); err != nil {
		return service.Artifacts{}, fmt.Errorf("load model %s: %w", modelPath, err)
	}

	var scaler lstm.MinMaxScaler
	if err := readJSON(scalerPath, &scaler); err != nil {
		return service.Artifacts{}, fmt.Errorf("load scaler: %w", err)
	}
	if err := scaler.Validate(); err != nil {
		return service.Artifacts{}, fmt.Errorf("load scaler %s: %w", scalerPath, err)
	}
	return service.Artifacts{Model: &net, Scaler: &scaler}, nil
}

// writeJSON writes through a temp file and rename so readers never see a partial file.
func (s *FileModelStore) writeJSON(path string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, ".artifact-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
