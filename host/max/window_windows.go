//go:build windows

package max

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"unsafe"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/viant/afs"
	"go.uber.org/zap"
	"golang.org/x/sys/windows"

	"github.com/blurstudio/maxdap/logger"
)

// titleIdentifier matches the main 3ds Max window caption.
const titleIdentifier = "Autodesk 3ds Max"

const (
	wmSetText = 0x000C
	wmChar    = 0x0102
	vkReturn  = 0x0D
)

var (
	user32               = windows.NewLazySystemDLL("user32.dll")
	procEnumWindows      = user32.NewProc("EnumWindows")
	procEnumChildWindows = user32.NewProc("EnumChildWindows")
	procGetWindowTextW   = user32.NewProc("GetWindowTextW")
	procGetClassNameW    = user32.NewProc("GetClassNameW")
	procSendMessageW     = user32.NewProc("SendMessageW")
	procIsWindow         = user32.NewProc("IsWindow")
)

// WindowInjector stages the snippet to a temp file and types the
// python.ExecuteFile statement into the MAXScript mini macro recorder of the
// running Max instance, the same channel a user pastes MAXScript into.
type WindowInjector struct {
	fs       afs.Service
	stageDir string

	mux    sync.Mutex
	window windows.Handle
}

// NewWindowInjector creates a win32 message based injector.
func NewWindowInjector() *WindowInjector {
	return &WindowInjector{fs: afs.New(), stageDir: os.TempDir()}
}

// Inject stages code and executes it inside Max via the macro recorder.
func (w *WindowInjector) Inject(ctx context.Context, code string) error {
	staged := filepath.Join(w.stageDir, fmt.Sprintf("maxdap-%v.py", uuid.New().String()))
	if err := w.fs.Upload(ctx, staged, 0o644, strings.NewReader(code)); err != nil {
		return errors.Wrapf(err, "failed to stage code at %v", staged)
	}
	if err := w.ensureWindow(); err != nil {
		return err
	}
	command := ExecCommand(staged)
	recorder, err := w.findRecorder()
	if err != nil {
		return err
	}
	if recorder.legacy {
		// Verbatim strings are not supported by ancient Max versions.
		command = strings.ReplaceAll(command, "@", "")
		command = strings.ReplaceAll(command, `\`, `\\`)
	}
	logger.Get(ctx).Debug("typing command into macro recorder", zap.String("command", command))
	text, err := windows.UTF16PtrFromString(command)
	if err != nil {
		return errors.Wrap(err, "failed to encode command")
	}
	_, _, _ = procSendMessageW.Call(uintptr(recorder.handle), wmSetText, 0, uintptr(unsafe.Pointer(text)))
	_, _, _ = procSendMessageW.Call(uintptr(recorder.handle), wmChar, vkReturn, 0)
	return nil
}

// ensureWindow locates the Max main window, re-resolving a stale handle once.
func (w *WindowInjector) ensureWindow() error {
	w.mux.Lock()
	defer w.mux.Unlock()
	if w.window != 0 {
		alive, _, _ := procIsWindow.Call(uintptr(w.window))
		if alive != 0 {
			return nil
		}
		// Max has probably been restarted; try to find it again.
		w.window = 0
	}
	handle := findWindowByTitle(titleIdentifier)
	if handle == 0 {
		return errors.New("an Autodesk 3ds Max instance could not be found; make sure it is open and running, then try again")
	}
	w.window = handle
	return nil
}

type recorder struct {
	handle windows.Handle
	legacy bool
}

// findRecorder looks up the mini macro recorder child. Pre-Scintilla Max
// versions expose it as a rich edit box under the status panel instead.
func (w *WindowInjector) findRecorder() (*recorder, error) {
	if handle := findChildByClass(w.window, "MXS_Scintilla"); handle != 0 {
		return &recorder{handle: handle}, nil
	}
	statusPanel := findChildByClass(w.window, "StatusPanel")
	if statusPanel == 0 {
		return nil, errors.New("could not find the MAXScript macro recorder")
	}
	if handle := findChildByClass(statusPanel, "RICHEDIT"); handle != 0 {
		return &recorder{handle: handle, legacy: true}, nil
	}
	return nil, errors.New("could not find the MAXScript macro recorder")
}

func findWindowByTitle(fragment string) windows.Handle {
	var found windows.Handle
	callback := syscall.NewCallback(func(handle uintptr, _ uintptr) uintptr {
		buffer := make([]uint16, 256)
		length, _, _ := procGetWindowTextW.Call(handle, uintptr(unsafe.Pointer(&buffer[0])), uintptr(len(buffer)))
		if length == 0 {
			return 1
		}
		title := windows.UTF16ToString(buffer[:length])
		if strings.Contains(title, fragment) {
			found = windows.Handle(handle)
			return 0
		}
		return 1
	})
	_, _, _ = procEnumWindows.Call(callback, 0)
	return found
}

func findChildByClass(parent windows.Handle, class string) windows.Handle {
	var found windows.Handle
	callback := syscall.NewCallback(func(handle uintptr, _ uintptr) uintptr {
		buffer := make([]uint16, 256)
		length, _, _ := procGetClassNameW.Call(handle, uintptr(unsafe.Pointer(&buffer[0])), uintptr(len(buffer)))
		if length == 0 {
			return 1
		}
		if windows.UTF16ToString(buffer[:length]) == class {
			found = windows.Handle(handle)
			return 0
		}
		return 1
	})
	_, _, _ = procEnumChildWindows.Call(uintptr(parent), callback, 0)
	return found
}
