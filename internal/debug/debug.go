//go:build debug

// Package debug includes debugging helpers used by the allocator's hot
// paths. It is compiled in only when the repository is built with
// `-tags debug`; see release.go for the no-op variant used otherwise.
package debug

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/timandy/routine"

	"github.com/rljacobson/mod2-gc/internal/sync2"
)

// Enabled is true if the binary is built with the debug tag, which enables
// various debugging features.
const Enabled = true

var (
	debugPattern *regexp.Regexp
	quiet        = flag.Bool("mod2gc.quiet", false, "suppress debug log output to stderr")
)

func init() {
	flag.Func("mod2gc.filter", "regexp to filter debug logs by", func(s string) (err error) {
		debugPattern, err = regexp.Compile(s)
		return err
	})
}

// logBufs pools the *strings.Builder each Log call formats into: hot
// allocator paths (allocate_node, allocate_storage) log on every arena
// and bucket transition even in debug builds, so reusing the builder
// keeps that tracing from itself becoming the dominant allocation source.
var logBufs = sync2.Pool[strings.Builder]{
	Reset: func(b *strings.Builder) { b.Reset() },
}

// Log prints debugging information to stderr.
//
// context is optional args for fmt.Printf that are printed before operation.
// This is useful for cases where you want information that identifies a set
// of related operations to appear before operation does.
func Log(context []any, operation string, format string, args ...any) {
	// Determine the package and file which called us, skipping over any
	// wrapper frames that are themselves named like logging helpers.
	skip := 2
again:
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return
	}

	fn := runtime.FuncForPC(pc)
	name := fn.Name()
	short := name[strings.LastIndex(name, ".")+1:]
	if strings.HasPrefix(short, "log") || strings.Contains(short, "Log") {
		skip++
		goto again
	}

	pkg := name
	pkg = strings.TrimPrefix(pkg, "github.com/rljacobson/mod2-gc/")
	pkg = strings.TrimPrefix(pkg, "internal/")
	if idx := strings.Index(pkg, "."); idx >= 0 {
		pkg = pkg[:idx]
	}

	file = filepath.Base(file)

	buf, drop := logBufs.Get()
	defer drop()
	_, _ = fmt.Fprintf(buf, "%s/%s:%d [g%04d", pkg, file, line, routine.Goid())
	if len(context) >= 1 {
		_, _ = fmt.Fprintf(buf, ", "+context[0].(string), context[1:]...) //nolint:errcheck
	}
	_, _ = fmt.Fprintf(buf, "] %s: ", operation)
	_, _ = fmt.Fprintf(buf, format, args...)

	if debugPattern != nil && !debugPattern.MatchString(buf.String()) {
		return
	}
	if *quiet {
		return
	}

	_, _ = buf.Write([]byte{'\n'})
	_, _ = os.Stderr.WriteString(buf.String())
}

// Assert panics if cond is false, but only in debug mode. The panic value
// carries a call stack (starting above Assert itself) so a failed
// invariant deep in a mark or sweep traversal -- both, by design, plain
// recursive calls with no checkpoint of their own -- can still be
// attributed to the allocation or mark call that triggered it.
func Assert(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Errorf("mod2gc: internal assertion failed: "+format+"\n%s", append(args, Stack(2))...))
	}
}

// Value is a value of any type that only exists when the debug tag is
// enabled. When disabled, it is replaced with an empty struct; see
// release.go.
type Value[T any] struct {
	x T
}

// Get returns a pointer to the wrapped value.
func (v *Value[T]) Get() *T { return &v.x }
