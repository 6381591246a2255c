package graph

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrKernelExists   = errors.New("output kernel already registered")
	ErrKernelNotFound = errors.New("output kernel not found")
	ErrKernelArgs     = errors.New("output kernel argument out of range")
)

// KernelFunc evaluates a scalar function of a node's represented vector. args
// are the component indices the function reads.
type KernelFunc func(x []float64, args []int) (float64, error)

var kernelRegistry = struct {
	mu sync.RWMutex
	m  map[string]KernelFunc
}{
	m: make(map[string]KernelFunc),
}

func init() {
	initializeBuiltInKernels()
}

func initializeBuiltInKernels() {
	MustRegisterKernel("component", func(x []float64, args []int) (float64, error) {
		if err := checkArgs(x, args, 1); err != nil {
			return 0, err
		}
		return x[args[0]], nil
	})
	MustRegisterKernel("product", func(x []float64, args []int) (float64, error) {
		if err := checkArgs(x, args, 1); err != nil {
			return 0, err
		}
		out := 1.0
		for _, i := range args {
			out *= x[i]
		}
		return out, nil
	})
	MustRegisterKernel("square", func(x []float64, args []int) (float64, error) {
		if err := checkArgs(x, args, 1); err != nil {
			return 0, err
		}
		return x[args[0]] * x[args[0]], nil
	})
}

func checkArgs(x []float64, args []int, atLeast int) error {
	if len(args) < atLeast {
		return fmt.Errorf("%w: need %d index(es), got %d", ErrKernelArgs, atLeast, len(args))
	}
	for _, i := range args {
		if i < 0 || i >= len(x) {
			return fmt.Errorf("%w: index %d for dimension %d", ErrKernelArgs, i, len(x))
		}
	}
	return nil
}

func RegisterKernel(name string, fn KernelFunc) error {
	if name == "" {
		return errors.New("kernel name is required")
	}
	if fn == nil {
		return errors.New("kernel function is required")
	}

	kernelRegistry.mu.Lock()
	defer kernelRegistry.mu.Unlock()

	if _, exists := kernelRegistry.m[name]; exists {
		return fmt.Errorf("%w: %s", ErrKernelExists, name)
	}
	kernelRegistry.m[name] = fn
	return nil
}

func MustRegisterKernel(name string, fn KernelFunc) {
	if err := RegisterKernel(name, fn); err != nil {
		panic(err)
	}
}

func GetKernel(name string) (KernelFunc, error) {
	kernelRegistry.mu.RLock()
	fn, ok := kernelRegistry.m[name]
	kernelRegistry.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrKernelNotFound, name)
	}
	return fn, nil
}

func ListKernels() []string {
	kernelRegistry.mu.RLock()
	defer kernelRegistry.mu.RUnlock()

	names := make([]string, 0, len(kernelRegistry.m))
	for name := range kernelRegistry.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func resetKernelRegistryForTests() {
	kernelRegistry.mu.Lock()
	kernelRegistry.m = make(map[string]KernelFunc)
	kernelRegistry.mu.Unlock()
	initializeBuiltInKernels()
}

// OutputFunc is a named, persistable scalar function of the represented vector.
type OutputFunc struct {
	Kernel string
	Args   []int
}

// Product is x[i]*x[j].
func Product(i, j int) OutputFunc {
	return OutputFunc{Kernel: "product", Args: []int{i, j}}
}

// Component is x[i].
func Component(i int) OutputFunc {
	return OutputFunc{Kernel: "component", Args: []int{i}}
}

func (f OutputFunc) Eval(x []float64) (float64, error) {
	fn, err := GetKernel(f.Kernel)
	if err != nil {
		return 0, err
	}
	return fn(x, f.Args)
}

func (f OutputFunc) String() string {
	return fmt.Sprintf("%s%v", f.Kernel, f.Args)
}
