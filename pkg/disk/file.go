package disk

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/downfa11-org/logdb/pkg/types"
	"github.com/downfa11-org/logdb/util"
)

// FileHandler implements Handler over an *os.File.
type FileHandler struct {
	file *os.File
	name string
}

func NewFileHandler() *FileHandler {
	return &FileHandler{}
}

// ValidateName enforces the 8.3-compatible bound on the base file name.
// Directory components are unrestricted so desktop callers can point into
// temp directories.
func ValidateName(name string) error {
	base := filepath.Base(name)
	if base == "." || base == string(os.PathSeparator) || len(base) == 0 {
		return fmt.Errorf("invalid file name %q", name)
	}
	if len(base) > types.MaxFileNameLength {
		return fmt.Errorf("file name %q exceeds %d characters", base, types.MaxFileNameLength)
	}
	return nil
}

func (h *FileHandler) Open(name, mode string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if h.file != nil {
		if err := h.file.Close(); err != nil {
			util.Warn("close of %s before reopen failed: %v", h.name, err)
		}
		h.file = nil
	}

	var f *os.File
	var err error
	switch mode {
	case ModeRead:
		f, err = os.Open(name)
	case ModeReadWrite:
		f, err = os.OpenFile(name, os.O_RDWR, 0o644)
	case ModeCreate:
		f, err = os.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	default:
		return fmt.Errorf("unknown open mode %q", mode)
	}
	if err != nil {
		return err
	}

	h.file = f
	h.name = name
	advise(f)
	return nil
}

func (h *FileHandler) Close() error {
	if h.file == nil {
		return nil
	}
	err := h.file.Close()
	h.file = nil
	return err
}

func (h *FileHandler) Seek(offset uint32) error {
	if h.file == nil {
		return fmt.Errorf("seek on closed handler")
	}
	_, err := h.file.Seek(int64(offset), io.SeekStart)
	return err
}

func (h *FileHandler) SeekToEnd() error {
	if h.file == nil {
		return fmt.Errorf("seek on closed handler")
	}
	_, err := h.file.Seek(0, io.SeekEnd)
	return err
}

func (h *FileHandler) Tell() (uint32, error) {
	if h.file == nil {
		return 0, fmt.Errorf("tell on closed handler")
	}
	pos, err := h.file.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}
	return uint32(pos), nil
}

// Read fills p completely when possible. Hitting end-of-file early returns
// the partial count with io.EOF so the caller can zero-fill or fail.
func (h *FileHandler) Read(p []byte) (int, error) {
	if h.file == nil {
		return 0, fmt.Errorf("read on closed handler")
	}
	n, err := io.ReadFull(h.file, p)
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	return n, err
}

func (h *FileHandler) Write(p []byte) (int, error) {
	if h.file == nil {
		return 0, fmt.Errorf("write on closed handler")
	}
	return h.file.Write(p)
}

func (h *FileHandler) Sync() error {
	if h.file == nil {
		return nil
	}
	return syncFile(h.file)
}
