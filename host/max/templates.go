// Package max injects debugging bootstrap code into a running Autodesk
// 3ds Max instance, either through the MAXScript mini macro recorder window
// (Windows) or through a user supplied delivery command.
package max

import (
	"fmt"
	"strings"
)

// attachTemplate boots ptvsd inside Max and opens the attach listener.
// Arguments: ptvsd dir, host, port.
const attachTemplate = `
import sys
import os
ptvsd_module = r"%v"
if ptvsd_module not in sys.path:
    sys.path.insert(0, ptvsd_module)

import ptvsd

ptvsd.enable_attach(("%v",%v))

print('\n --- Successfully attached to the debugger --- \n')
`

// runTemplate imports (or reloads) the module under debug, then touches the
// completion signal file so the adapter knows the script returned.
// Arguments: program dir, module name (x3), module name, signal path.
const runTemplate = `
try:
    current_directory = r"%v"
    if current_directory not in sys.path:
        sys.path.insert(0, current_directory)

    print(' --- Debugging %v... --- \n')
    if '%v' not in globals().keys():
        import %v
    else:
        reload(%v)

    print(' --- Finished debugging %v --- \n')

    open("%v", "w").close()

except Exception as e:
    print('Error while debugging: ' + str(e))
    raise e
`

// AttachCode renders the ptvsd bootstrap snippet.
func AttachCode(ptvsdDir, hostname string, port int) string {
	return fmt.Sprintf(attachTemplate, ptvsdDir, hostname, port)
}

// RunCode renders the run harness for the given program.
func RunCode(program, signalPath string) string {
	module := ModuleName(program)
	dir, _ := splitPath(program)
	if dir == "" {
		dir = "."
	}
	return fmt.Sprintf(runTemplate,
		dir,
		module, module, module, module, module,
		EscapePath(signalPath),
	)
}

// splitPath splits on the last separator, accepting Windows paths even when
// the adapter itself runs elsewhere.
func splitPath(path string) (dir, base string) {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[:i], path[i+1:]
	}
	return "", path
}

// ModuleName derives the importable module name from the program path.
func ModuleName(program string) string {
	dir, base := splitPath(program)
	if name := strings.TrimSuffix(base, ".py"); name != "" {
		return name
	}
	_, parent := splitPath(dir)
	return parent
}

// EscapePath doubles backslashes so Windows paths survive embedding into a
// quoted Python string literal.
func EscapePath(path string) string {
	return strings.ReplaceAll(path, `\`, `\\`)
}

// ExecCommand is the MAXScript statement that runs a staged Python file.
func ExecCommand(path string) string {
	return fmt.Sprintf(`python.ExecuteFile @"%v";`, path)
}

// Bootstrap renders Max flavored attach and run snippets.
type Bootstrap struct {
	// PtvsdDir is the directory holding the bundled ptvsd distribution.
	PtvsdDir string
	// SignalPath is where the run harness signals completion.
	SignalPath string
}

// AttachCode implements host.Bootstrap.
func (b *Bootstrap) AttachCode(hostname string, port int) string {
	return AttachCode(b.PtvsdDir, hostname, port)
}

// RunCode implements host.Bootstrap.
func (b *Bootstrap) RunCode(program string) string {
	return RunCode(program, b.SignalPath)
}
