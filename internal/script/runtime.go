// Package script runs Lua-defined scenes. It wraps a golua runtime with
// resource limits, exposes the canvas to Lua as nc_* functions, and turns
// ncontrol.view{...} tables into views.
package script

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"

	"github.com/arnodel/golua/lib"
	rt "github.com/arnodel/golua/runtime"
)

// RuntimeConfig contains configuration options for the Lua runtime.
type RuntimeConfig struct {
	// CPULimit is the instruction budget of one Execute or Call.
	// 0 means unlimited.
	CPULimit uint64
	// MemoryLimit is the maximum memory in bytes that Lua can allocate.
	// 0 means unlimited.
	MemoryLimit uint64
	// Stdout receives Lua print output in addition to the capture buffer.
	Stdout io.Writer
}

// DefaultConfig returns a RuntimeConfig with sensible default values.
// CPU limit: 10,000,000 instructions
// Memory limit: 50 MB
func DefaultConfig() RuntimeConfig {
	return RuntimeConfig{
		CPULimit:    10_000_000,
		MemoryLimit: 50 * 1024 * 1024,
	}
}

// Runtime wraps a golua runtime. Every entry point runs under the
// configured limits and is serialized by a mutex; Go functions called
// back from Lua must not re-enter the Runtime.
type Runtime struct {
	config  RuntimeConfig
	runtime *rt.Runtime
	output  *bytes.Buffer
	cleanup func()
	mu      sync.Mutex
}

// New creates a Runtime with the Lua standard libraries loaded.
func New(config RuntimeConfig) *Runtime {
	output := &bytes.Buffer{}
	var stdout io.Writer = output
	if config.Stdout != nil {
		stdout = io.MultiWriter(config.Stdout, output)
	}
	r := rt.New(stdout)
	return &Runtime{
		config:  config,
		runtime: r,
		output:  output,
		cleanup: lib.LoadAll(r),
	}
}

func (r *Runtime) load(name string, code []byte) (*rt.Closure, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	closure, err := r.runtime.CompileAndLoadLuaChunk(name, code, rt.TableValue(r.runtime.GlobalEnv()))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	return closure, nil
}

// LoadString compiles a chunk without running it.
func (r *Runtime) LoadString(name, code string) (*rt.Closure, error) {
	return r.load(name, []byte(code))
}

// LoadFile reads and compiles a Lua file from disk.
func (r *Runtime) LoadFile(path string) (*rt.Closure, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return r.load(path, content)
}

// LoadFileFromFS reads and compiles a Lua file from fsys.
func (r *Runtime) LoadFileFromFS(fsys fs.FS, path string) (*rt.Closure, error) {
	content, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return r.load(path, content)
}

// limits pushes a context carrying the hard limits. The caller must hold
// r.mu and call the returned pop.
func (r *Runtime) limits() (pop func()) {
	r.runtime.PushContext(rt.RuntimeContextDef{
		HardLimits: rt.RuntimeResources{
			Cpu:    r.config.CPULimit,
			Memory: r.config.MemoryLimit,
		},
	})
	return func() { r.runtime.PopContext() }
}

// Execute runs a compiled chunk and returns its first result.
func (r *Runtime) Execute(closure *rt.Closure) (rt.Value, error) {
	return r.Call(rt.FunctionValue(closure))
}

// ExecuteString compiles and runs code.
func (r *Runtime) ExecuteString(name, code string) (rt.Value, error) {
	closure, err := r.LoadString(name, code)
	if err != nil {
		return rt.NilValue, err
	}
	return r.Execute(closure)
}

// ExecuteFile compiles and runs a file.
func (r *Runtime) ExecuteFile(path string) (rt.Value, error) {
	closure, err := r.LoadFile(path)
	if err != nil {
		return rt.NilValue, err
	}
	return r.Execute(closure)
}

// Call invokes fn with args under the runtime limits and returns its
// first result. golua panics when a hard limit is hit; that panic is
// returned as ErrLimitExceeded.
func (r *Runtime) Call(fn rt.Value, args ...rt.Value) (result rt.Value, err error) {
	if !isFunction(fn) {
		return rt.NilValue, ErrNotFunction
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	pop := r.limits()
	defer func() {
		pop()
		if p := recover(); p != nil {
			result, err = rt.NilValue, fmt.Errorf("%w: %v", ErrLimitExceeded, p)
		}
	}()

	result, err = rt.Call1(r.runtime.MainThread(), fn, args...)
	if err != nil {
		return rt.NilValue, fmt.Errorf("%w: %w", ErrLua, err)
	}
	return result, nil
}

// CallFunction calls the global function name.
func (r *Runtime) CallFunction(name string, args ...rt.Value) (rt.Value, error) {
	fn := r.GetGlobal(name)
	if fn.IsNil() {
		return rt.NilValue, fmt.Errorf("function %s not found", name)
	}
	return r.Call(fn, args...)
}

// GetGlobal retrieves a global variable.
func (r *Runtime) GetGlobal(name string) rt.Value {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runtime.GlobalEnv().Get(rt.StringValue(name))
}

// SetGlobal sets a global variable.
func (r *Runtime) SetGlobal(name string, value rt.Value) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runtime.GlobalEnv().Set(rt.StringValue(name), value)
}

// SetGoFunction registers fn as a global. It is declared CPU and memory
// safe so it can run under the hard limits.
func (r *Runtime) SetGoFunction(name string, fn rt.GoFunctionFunc, nArgs int, hasVarArgs bool) {
	r.SetGlobal(name, NewFunction(name, fn, nArgs, hasVarArgs))
}

// NewFunction wraps fn as a Lua function value usable under hard limits.
func NewFunction(name string, fn rt.GoFunctionFunc, nArgs int, hasVarArgs bool) rt.Value {
	goFunc := rt.NewGoFunction(fn, name, nArgs, hasVarArgs)
	rt.SolemnlyDeclareCompliance(rt.ComplyMemSafe|rt.ComplyCpuSafe, goFunc)
	return rt.FunctionValue(goFunc)
}

// Output returns what Lua printed so far.
func (r *Runtime) Output() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.output.String()
}

// ClearOutput drops the captured print output.
func (r *Runtime) ClearOutput() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.output.Reset()
}

// Config returns the runtime limits.
func (r *Runtime) Config() RuntimeConfig {
	return r.config
}

// Close releases the runtime. It must not be used afterwards.
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cleanup != nil {
		r.cleanup()
		r.cleanup = nil
	}
	return nil
}

func isFunction(v rt.Value) bool {
	return v.Type() == rt.FunctionType
}

func truthy(v rt.Value) bool {
	if b, ok := v.TryBool(); ok {
		return b
	}
	return !v.IsNil()
}
