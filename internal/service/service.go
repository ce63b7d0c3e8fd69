package service

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"read-lines/internal/config"
	apperrors "read-lines/internal/errors"
	"read-lines/internal/filesystem"
	"read-lines/internal/lock"
	"read-lines/internal/models"
)

// LineReaderService defines the interface for reading line ranges.
type LineReaderService interface {
	ReadLines(req models.ReadLinesRequest) (*models.ReadLinesResponse, *models.ErrorDetail)
}

// DefaultLineReaderService implements the LineReaderService interface.
type DefaultLineReaderService struct {
	fsAdapter   filesystem.FileSystemAdapter
	lockManager lock.LockManagerInterface
	// rootDir confines paths when non-empty (serve mode).
	rootDir     string
	maxFileSize int64 // in bytes, 0 for no limit
	encoding    string
	lockTimeout time.Duration
	logger      zerolog.Logger
}

// NewDefaultLineReaderService creates a new DefaultLineReaderService.
func NewDefaultLineReaderService(
	fs filesystem.FileSystemAdapter,
	lm lock.LockManagerInterface,
	cfg *config.Config,
	logger zerolog.Logger,
) (*DefaultLineReaderService, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if fs == nil {
		return nil, fmt.Errorf("filesystem adapter is required")
	}
	if lm == nil {
		return nil, fmt.Errorf("lock manager is required")
	}

	svc := &DefaultLineReaderService{
		fsAdapter:   fs,
		lockManager: lm,
		maxFileSize: int64(cfg.MaxFileSizeMB) * 1024 * 1024,
		encoding:    cfg.Encoding,
		lockTimeout: time.Duration(cfg.LockTimeoutSec) * time.Second,
		logger:      logger.With().Str("component", "line_reader").Logger(),
	}

	if cfg.Serve != config.TransportNone {
		absRoot, err := filepath.Abs(cfg.RootDirectory)
		if err != nil {
			return nil, fmt.Errorf("could not get absolute path for root directory: %w", err)
		}
		// Compare against the resolved root so symlinked temp dirs still match.
		resolvedRoot, err := fs.EvalSymlinks(absRoot)
		if err != nil {
			return nil, fmt.Errorf("could not resolve root directory %s: %w", absRoot, err)
		}
		svc.rootDir = resolvedRoot
	}

	return svc, nil
}

// FileNotFoundMessage is the diagnostic printed for a missing file.
func FileNotFoundMessage(path string) string {
	return fmt.Sprintf("File %s not found.", path)
}

// RangeExceededMessage is the diagnostic printed when the start line is past the end of the file.
func RangeExceededMessage(startLine int) string {
	return fmt.Sprintf("Start line %d is beyond file length.", startLine)
}

// within reports whether path is rootDir or below it.
func (s *DefaultLineReaderService) within(path string) bool {
	rel, err := filepath.Rel(s.rootDir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// resolvePath maps the requested name to the path to open. Outside serve mode
// the name is used as given. In serve mode it is joined to the root and must
// stay there, including after symlink evaluation.
func (s *DefaultLineReaderService) resolvePath(name string) (string, *models.ErrorDetail) {
	if name == "" {
		return "", apperrors.NewInvalidParamsError("File path is required.", map[string]interface{}{"filename": name})
	}
	if s.rootDir == "" {
		return name, nil
	}

	if filepath.IsAbs(name) {
		return "", apperrors.NewInvalidParamsError("Absolute paths are not allowed.", map[string]interface{}{"filename": name})
	}
	cleanedPath := filepath.Clean(filepath.Join(s.rootDir, name))
	if !s.within(cleanedPath) {
		return "", apperrors.NewInvalidParamsError("Path traversal attempt detected.", map[string]interface{}{"filename": name})
	}

	resolvedPath, err := s.fsAdapter.EvalSymlinks(cleanedPath)
	if err != nil {
		// A missing file is reported as an outcome by the caller.
		if errors.Is(err, os.ErrNotExist) {
			return cleanedPath, nil
		}
		if errors.Is(err, os.ErrPermission) {
			return "", apperrors.NewPermissionDeniedError(name, "eval_symlinks")
		}
		return "", apperrors.NewFileSystemError(name, "eval_symlinks", err.Error())
	}
	if !s.within(resolvedPath) {
		return "", apperrors.NewInvalidParamsError("Path traversal attempt detected (symlink).", map[string]interface{}{"filename": name})
	}
	return cleanedPath, nil
}

func (s *DefaultLineReaderService) notFound(req models.ReadLinesRequest) *models.ReadLinesResponse {
	s.logger.Debug().Str("file", req.File).Msg("file not found")
	return &models.ReadLinesResponse{
		Outcome: models.OutcomeFileNotFound,
		Message: FileNotFoundMessage(req.File),
		Lines:   []string{},
	}
}

// fsError classifies an adapter error for the given operation.
func fsError(name, operation string, err error) *models.ErrorDetail {
	if errors.Is(err, os.ErrPermission) {
		return apperrors.NewPermissionDeniedError(name, operation)
	}
	return apperrors.NewFileSystemError(name, operation, err.Error())
}

// ReadLines implements the LineReaderService interface.
//
// A missing file and a start line past the end are outcomes, not errors.
// Everything else that prevents reading is returned as an ErrorDetail.
func (s *DefaultLineReaderService) ReadLines(req models.ReadLinesRequest) (*models.ReadLinesResponse, *models.ErrorDetail) {
	if req.StartLine < 1 {
		return nil, apperrors.NewInvalidParamsError("start_line must be 1 or greater.",
			map[string]interface{}{"filename": req.File, "start_line": req.StartLine})
	}

	filePath, errDetail := s.resolvePath(req.File)
	if errDetail != nil {
		return nil, errDetail
	}

	exists, err := s.fsAdapter.FileExists(filePath)
	if err != nil {
		return nil, fsError(req.File, "check_exists", err)
	}
	if !exists {
		return s.notFound(req), nil
	}

	stats, err := s.fsAdapter.GetFileStats(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s.notFound(req), nil
		}
		return nil, fsError(req.File, "get_stats", err)
	}
	if stats.IsDir {
		return nil, apperrors.NewIsDirectoryError(req.File)
	}
	if s.maxFileSize > 0 && stats.Size > s.maxFileSize {
		return nil, apperrors.NewFileTooLargeError(req.File, stats.Size, int(s.maxFileSize/(1024*1024)))
	}

	fileLock, err := s.lockManager.AcquireReadLock(filePath, s.lockTimeout)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s.notFound(req), nil
		}
		if errors.Is(err, os.ErrPermission) {
			return nil, apperrors.NewPermissionDeniedError(req.File, "lock")
		}
		return nil, apperrors.NewOperationLockFailedError(req.File, err.Error())
	}
	defer func() {
		if err := s.lockManager.ReleaseLock(fileLock); err != nil {
			s.logger.Warn().Err(err).Str("file", req.File).Msg("failed to release read lock")
		}
	}()

	content, err := s.fsAdapter.ReadFileBytes(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s.notFound(req), nil
		}
		return nil, fsError(req.File, "read_bytes", err)
	}

	content, err = s.fsAdapter.Decode(content, s.encoding)
	if err != nil {
		return nil, apperrors.NewInvalidEncodingError(req.File, s.encoding, err.Error())
	}
	if !s.fsAdapter.IsValidUTF8(content) {
		return nil, apperrors.NewInvalidEncodingError(req.File, s.encoding, "content contains invalid UTF-8 sequences")
	}

	lines := s.fsAdapter.SplitLines(content)
	total := len(lines)

	startIdx := req.StartLine - 1
	if startIdx >= total {
		s.logger.Debug().Str("file", req.File).Int("start_line", req.StartLine).Int("total_lines", total).Msg("start line beyond file length")
		return &models.ReadLinesResponse{
			Outcome:    models.OutcomeRangeExceeded,
			Message:    RangeExceededMessage(req.StartLine),
			Lines:      []string{},
			TotalLines: total,
		}, nil
	}

	endIdx := startIdx
	if req.Count > 0 {
		endIdx = startIdx + req.Count
		// Guard against overflow for very large counts.
		if endIdx > total || endIdx < startIdx {
			endIdx = total
		}
	}

	selected := lines[startIdx:endIdx]
	resp := &models.ReadLinesResponse{
		Outcome:    models.OutcomeOK,
		Lines:      selected,
		Content:    strings.Join(selected, ""),
		TotalLines: total,
	}
	if len(selected) > 0 {
		resp.RangeReturned = &models.RangeReturned{StartLine: req.StartLine, EndLine: endIdx}
	}

	s.logger.Debug().Str("file", req.File).Int("start_line", req.StartLine).Int("count", req.Count).
		Int("returned", len(selected)).Int("total_lines", total).Msg("read lines")
	return resp, nil
}
