package max

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/viant/afs"
	"github.com/viant/gosh"
	"github.com/viant/gosh/runner/local"
	"go.uber.org/zap"

	"github.com/blurstudio/maxdap/logger"
)

// Template placeholders understood by the exec injector.
const (
	placeholderCommand = "{command}"
	placeholderFile    = "{file}"
)

// ExecInjector stages the snippet to a temp file and hands it to a user
// supplied delivery command, e.g. a helper that drives the Max listener.
// The template may reference {file} (staged .py path) and {command} (the
// python.ExecuteFile MAXScript statement for it).
type ExecInjector struct {
	fs       afs.Service
	runner   *gosh.Service
	template string
	stageDir string
}

// NewExecInjector creates an injector running template through the local
// shell.
func NewExecInjector(ctx context.Context, template string) (*ExecInjector, error) {
	if strings.TrimSpace(template) == "" {
		return nil, errors.New("exec injector requires a delivery command template")
	}
	runner, err := gosh.New(ctx, local.New())
	if err != nil {
		return nil, errors.Wrap(err, "failed to create command runner")
	}
	return &ExecInjector{
		fs:       afs.New(),
		runner:   runner,
		template: template,
		stageDir: os.TempDir(),
	}, nil
}

// Inject stages code and executes the rendered delivery command.
func (e *ExecInjector) Inject(ctx context.Context, code string) error {
	staged := filepath.Join(e.stageDir, fmt.Sprintf("maxdap-%v.py", uuid.New().String()))
	if err := e.fs.Upload(ctx, staged, 0o644, strings.NewReader(code)); err != nil {
		return errors.Wrapf(err, "failed to stage code at %v", staged)
	}
	command := strings.ReplaceAll(e.template, placeholderFile, staged)
	command = strings.ReplaceAll(command, placeholderCommand, ExecCommand(staged))
	logger.Get(ctx).Debug("delivering code to Max", zap.String("command", command))
	output, exitCode, err := e.runner.Run(ctx, command)
	if err != nil {
		return errors.Wrap(err, "failed to run delivery command")
	}
	if exitCode != 0 {
		return errors.Errorf("delivery command exited with %v: %v", exitCode, output)
	}
	return nil
}
