package semihost

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// File open modes, per the ARM semihosting SYS_OPEN mode byte (fopen-style
// encoding collapsed to the three the simulator's guests actually use).
const (
	ModeRead   = 0
	ModeWrite  = 4
	ModeAppend = 8
)

const firstUserHandle = 3

// DefaultHandler services semihosting requests against the host
// filesystem, sandboxed beneath Root: lazy stdin/stdout/stderr, a
// mutex-guarded FD table keyed by handle, and a path-sandboxing check
// before any host open.
type DefaultHandler struct {
	// Root bounds every SysOpen; empty means "no filesystem access".
	Root string

	mu      sync.Mutex
	files   []*os.File
	started time.Time
}

// NewDefaultHandler returns a handler rooted at root, with its semihosting
// clock (SysClock) measured from the moment of construction.
func NewDefaultHandler(root string) *DefaultHandler {
	return &DefaultHandler{Root: root, files: make([]*os.File, firstUserHandle), started: time.Now()}
}

func (h *DefaultHandler) file(handle uint32) (*os.File, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if int(handle) < 0 || int(handle) >= len(h.files) {
		return nil, errors.New("semihosting: bad handle")
	}
	f := h.files[handle]
	if f == nil && handle < firstUserHandle {
		switch handle {
		case 0:
			h.files[0] = os.Stdin
		case 1:
			h.files[1] = os.Stdout
		case 2:
			h.files[2] = os.Stderr
		}
		f = h.files[handle]
	}
	if f == nil {
		return nil, errors.New("semihosting: bad handle")
	}
	return f, nil
}

func (h *DefaultHandler) allocHandle(f *os.File) uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := firstUserHandle; i < len(h.files); i++ {
		if h.files[i] == nil {
			h.files[i] = f
			return uint32(i)
		}
	}
	h.files = append(h.files, f)
	return uint32(len(h.files) - 1)
}

// validatePath sandboxes a guest-supplied path beneath Root, rejecting any
// ".." component.
func (h *DefaultHandler) validatePath(path string) (string, error) {
	if h.Root == "" {
		return "", errors.New("semihosting: no filesystem root configured")
	}
	if strings.Contains(path, "..") {
		return "", errors.New("semihosting: path contains '..' component")
	}
	path = strings.TrimPrefix(path, "/")
	full := filepath.Clean(filepath.Join(h.Root, path))
	rel, err := filepath.Rel(filepath.Clean(h.Root), full)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", errors.New("semihosting: path escapes filesystem root")
	}
	return full, nil
}

func (h *DefaultHandler) Handle(req Request) Response {
	switch r := req.(type) {
	case SysOpen:
		return h.handleOpen(r)
	case SysClose:
		return h.handleClose(r)
	case SysWrite:
		return h.handleWrite(r)
	case SysRead:
		return h.handleRead(r)
	case SysClock:
		return Response{Clock: uint32(time.Since(h.started).Seconds() * 100)}
	case SysException:
		return Response{Success: true, Stop: r.Reason == ADPStoppedApplicationExit}
	default:
		return Response{Err: errors.New("semihosting: unrecognized request")}
	}
}

func (h *DefaultHandler) handleOpen(r SysOpen) Response {
	// ":tt" is the semihosting console: read mode opens stdin, write
	// opens stdout, append opens stderr.
	if r.Name == ":tt" {
		switch r.Mode {
		case ModeRead:
			return Response{Handle: 0}
		case ModeAppend:
			return Response{Handle: 2}
		default:
			return Response{Handle: 1}
		}
	}
	path, err := h.validatePath(r.Name)
	if err != nil {
		return Response{Err: err}
	}
	var f *os.File
	switch r.Mode {
	case ModeRead:
		f, err = os.Open(path) //nolint:gosec // path validated by validatePath
	case ModeWrite:
		f, err = os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644) //nolint:gosec
	case ModeAppend:
		f, err = os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_RDWR, 0o644) //nolint:gosec
	default:
		err = errors.New("semihosting: bad open mode")
	}
	if err != nil {
		return Response{Err: err}
	}
	return Response{Handle: h.allocHandle(f)}
}

func (h *DefaultHandler) handleClose(r SysClose) Response {
	f, err := h.file(r.Handle)
	if err != nil {
		return Response{Err: err}
	}
	if f == os.Stdin || f == os.Stdout || f == os.Stderr {
		return Response{Success: true}
	}
	if err := f.Close(); err != nil {
		return Response{Err: err}
	}
	return Response{Success: true}
}

func (h *DefaultHandler) handleWrite(r SysWrite) Response {
	f, err := h.file(r.Handle)
	if err != nil {
		return Response{Err: err, Data: r.Data}
	}
	n, err := f.Write(r.Data)
	if err != nil {
		return Response{Err: err, Data: r.Data, NotWritten: uint32(len(r.Data) - n)}
	}
	return Response{NotWritten: uint32(len(r.Data) - n)}
}

func (h *DefaultHandler) handleRead(r SysRead) Response {
	f, err := h.file(r.Handle)
	if err != nil {
		return Response{Err: err}
	}
	buf := make([]byte, r.Len)
	n, err := f.Read(buf)
	if err != nil && n == 0 {
		return Response{Data: nil}
	}
	return Response{Data: buf[:n]}
}
