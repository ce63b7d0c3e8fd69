package filesystem

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

// DefaultEncoding is the text encoding assumed when none is configured.
const DefaultEncoding = "utf-8"

// ErrUnsupportedEncoding is returned when an encoding name is unknown or has no decoder.
var ErrUnsupportedEncoding = errors.New("unsupported encoding")

// FileStats holds basic statistics about a file.
type FileStats struct {
	Size  int64
	IsDir bool
}

// FileSystemAdapter defines the file system operations the line reader needs.
// Tests substitute an in-memory implementation.
type FileSystemAdapter interface {
	ReadFileBytes(filePath string) ([]byte, error)
	FileExists(filePath string) (bool, error)
	GetFileStats(filePath string) (*FileStats, error)
	EvalSymlinks(path string) (string, error)
	IsValidUTF8(content []byte) bool
	Decode(content []byte, encodingName string) ([]byte, error)
	SplitLines(content []byte) []string
}

// DefaultFileSystemAdapter is the standard implementation of FileSystemAdapter using the os package.
type DefaultFileSystemAdapter struct{}

// NewDefaultFileSystemAdapter creates a new DefaultFileSystemAdapter.
func NewDefaultFileSystemAdapter() *DefaultFileSystemAdapter {
	return &DefaultFileSystemAdapter{}
}

// Ensure DefaultFileSystemAdapter implements FileSystemAdapter
var _ FileSystemAdapter = (*DefaultFileSystemAdapter)(nil)

// ReadFileBytes reads the entire file into a byte slice.
// The returned error wraps the os error, so os.IsNotExist and errors.Is keep working.
func (fs *DefaultFileSystemAdapter) ReadFileBytes(filePath string) ([]byte, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "file not found: %s", filePath)
		}
		if os.IsPermission(err) {
			return nil, errors.Wrapf(err, "permission denied reading file: %s", filePath)
		}
		return nil, errors.Wrapf(err, "failed to read file: %s", filePath)
	}
	return content, nil
}

// FileExists reports whether filePath exists. Errors other than "does not
// exist" (a permission problem on a parent, ENOTDIR) are returned.
func (fs *DefaultFileSystemAdapter) FileExists(filePath string) (bool, error) {
	_, err := os.Stat(filePath)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.Wrapf(err, "error checking if file exists %s", filePath)
}

// GetFileStats retrieves statistics for a given file.
func (fs *DefaultFileSystemAdapter) GetFileStats(filePath string) (*FileStats, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get file stats for %s", filePath)
	}
	return &FileStats{
		Size:  info.Size(),
		IsDir: info.IsDir(),
	}, nil
}

// EvalSymlinks evaluates symbolic links for the given path.
func (fs *DefaultFileSystemAdapter) EvalSymlinks(path string) (string, error) {
	resolvedPath, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to evaluate symlinks for %s", path)
	}
	return resolvedPath, nil
}

// IsValidUTF8 checks if the byte slice is valid UTF-8.
func (fs *DefaultFileSystemAdapter) IsValidUTF8(content []byte) bool {
	return utf8.Valid(content)
}

// Decode converts content from the named encoding to UTF-8.
// UTF-8 input is returned unchanged so that invalid sequences can still be
// detected by IsValidUTF8 instead of being silently replaced.
func (fs *DefaultFileSystemAdapter) Decode(content []byte, encodingName string) ([]byte, error) {
	if IsNativeEncoding(encodingName) {
		return content, nil
	}
	enc, err := LookupEncoding(encodingName)
	if err != nil {
		return nil, err
	}
	decoded, _, err := transform.Bytes(enc.NewDecoder(), content)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode content as %s", encodingName)
	}
	return decoded, nil
}

// SplitLines splits content into lines, each keeping its trailing "\n".
// A "\r\n" pair stays attached to its line unchanged. The final line has no
// terminator when the content does not end with "\n". Empty content has no lines.
func (fs *DefaultFileSystemAdapter) SplitLines(content []byte) []string {
	if len(content) == 0 {
		return []string{}
	}
	parts := bytes.SplitAfter(content, []byte("\n"))
	// SplitAfter yields a trailing empty element when content ends with "\n".
	if len(parts[len(parts)-1]) == 0 {
		parts = parts[:len(parts)-1]
	}
	lines := make([]string, len(parts))
	for i, p := range parts {
		lines[i] = string(p)
	}
	return lines
}

// IsNativeEncoding reports whether name denotes UTF-8, which needs no decoding.
func IsNativeEncoding(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return true
	}
	return false
}

// LookupEncoding resolves an IANA encoding name such as "ISO-8859-1" or "UTF-16".
func LookupEncoding(name string) (encoding.Encoding, error) {
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, errors.Wrapf(ErrUnsupportedEncoding, "%s", name)
	}
	if enc == nil {
		return nil, errors.Wrapf(ErrUnsupportedEncoding, "%s has no decoder", name)
	}
	return enc, nil
}
