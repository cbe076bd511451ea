// Package file implements stateful file I/O builtins for the language:
// a Handle object wrapping a native *os.File, plus fopen/fclose/fread/
// fwrite/fseek/ftell global functions. It self-registers into every
// chunk's environment via runtime.ExtraBuiltins through a blank-import
// and init() call, so importing this package is enough to make its
// builtins available.
package file

import (
	"fmt"
	"io"
	"os"

	"github.com/cjscript/cjc/runtime"
)

// Handle is an open file's runtime representation. It satisfies
// fmt.Stringer so runtime.ToString renders it without runtime importing
// this package.
type Handle struct {
	f    *os.File
	Path string
}

func (h *Handle) String() string { return fmt.Sprintf("<file: %s>", h.Path) }

var builtins = []runtime.ExtraBuiltin{
	{Name: "fopen", Fn: fopen},
	{Name: "fclose", Fn: fclose},
	{Name: "fread", Fn: fread},
	{Name: "fwrite", Fn: fwrite},
	{Name: "fseek", Fn: fseek},
	{Name: "ftell", Fn: ftell},
}

func init() {
	runtime.ExtraBuiltins = append(runtime.ExtraBuiltins, builtins...)
}

func fail(format string, a ...interface{}) []runtime.Value {
	panic(fmt.Sprintf(format, a...))
}

func asHandle(v runtime.Value, who string) *Handle {
	h, ok := v.(*Handle)
	if !ok {
		fail("%s: argument must be a file handle, got %s", who, runtime.TypeName(v))
	}
	return h
}

// fopen(path, mode) opens path under mode ("r", "w", "a", "r+", "w+") and
// returns a Handle.
func fopen(args []runtime.Value) []runtime.Value {
	if len(args) != 2 {
		return fail("fopen expects 2 arguments (path, mode)")
	}
	path, _ := args[0].(string)
	mode, _ := args[1].(string)

	var flag int
	switch mode {
	case "r":
		flag = os.O_RDONLY
	case "w":
		flag = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	case "a":
		flag = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	case "r+":
		flag = os.O_RDWR
	case "w+":
		flag = os.O_RDWR | os.O_CREATE | os.O_TRUNC
	default:
		return fail("fopen: invalid mode %q", mode)
	}

	f, err := os.OpenFile(path, flag, 0644)
	if err != nil {
		return fail("fopen: %v", err)
	}
	return []runtime.Value{&Handle{f: f, Path: path}}
}

// fclose(handle) closes an open handle.
func fclose(args []runtime.Value) []runtime.Value {
	if len(args) != 1 {
		return fail("fclose expects 1 argument")
	}
	h := asHandle(args[0], "fclose")
	if err := h.f.Close(); err != nil {
		return fail("fclose: %v", err)
	}
	return nil
}

// fread(handle, n) reads up to n bytes, returning them as a string (short
// reads at EOF are not an error).
func fread(args []runtime.Value) []runtime.Value {
	if len(args) != 2 {
		return fail("fread expects 2 arguments (handle, size)")
	}
	h := asHandle(args[0], "fread")
	size, ok := runtime.ToInt(args[1])
	if !ok {
		return fail("fread: size must be a number")
	}
	buf := make([]byte, size)
	n, err := h.f.Read(buf)
	if err != nil && err != io.EOF {
		return fail("fread: %v", err)
	}
	return []runtime.Value{string(buf[:n])}
}

// fwrite(handle, content) writes content and returns the byte count written.
func fwrite(args []runtime.Value) []runtime.Value {
	if len(args) != 2 {
		return fail("fwrite expects 2 arguments (handle, content)")
	}
	h := asHandle(args[0], "fwrite")
	content := runtime.ToString(args[1])
	n, err := h.f.WriteString(content)
	if err != nil {
		return fail("fwrite: %v", err)
	}
	return []runtime.Value{int64(n)}
}

// fseek(handle, offset, whence) repositions the cursor; whence is 0
// (start), 1 (current), or 2 (end), returning the new absolute offset.
func fseek(args []runtime.Value) []runtime.Value {
	if len(args) != 3 {
		return fail("fseek expects 3 arguments (handle, offset, whence)")
	}
	h := asHandle(args[0], "fseek")
	offset, ok := runtime.ToInt(args[1])
	if !ok {
		return fail("fseek: offset must be a number")
	}
	whence, ok := runtime.ToInt(args[2])
	if !ok {
		return fail("fseek: whence must be a number")
	}
	pos, err := h.f.Seek(offset, int(whence))
	if err != nil {
		return fail("fseek: %v", err)
	}
	return []runtime.Value{pos}
}

// ftell(handle) returns the cursor's current absolute offset.
func ftell(args []runtime.Value) []runtime.Value {
	if len(args) != 1 {
		return fail("ftell expects 1 argument")
	}
	h := asHandle(args[0], "ftell")
	pos, err := h.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return fail("ftell: %v", err)
	}
	return []runtime.Value{pos}
}
