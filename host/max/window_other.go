//go:build !windows

package max

import (
	"context"

	"github.com/go-faster/errors"
)

// WindowInjector is only functional on Windows, where 3ds Max runs. On other
// platforms an exec template must be configured instead.
type WindowInjector struct{}

// NewWindowInjector returns a placeholder injector.
func NewWindowInjector() *WindowInjector { return &WindowInjector{} }

// Inject always fails off Windows.
func (w *WindowInjector) Inject(context.Context, string) error {
	return errors.New("window injection requires Windows; configure an exec delivery command instead")
}
