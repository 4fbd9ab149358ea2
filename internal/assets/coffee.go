package assets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/grafana/sobek"
)

// CoffeeScriptFilter compiles CoffeeScript by running the reference compiler in an embedded JS runtime.
// The runtime is not goroutine safe, so compilations are serialised.
type CoffeeScriptFilter struct {
	compilerPath string

	mu      sync.Mutex
	vm      *sobek.Runtime
	compile sobek.Callable
}

func NewCoffeeScriptFilter(compilerPath string) *CoffeeScriptFilter {
	return &CoffeeScriptFilter{compilerPath: compilerPath}
}

func (f *CoffeeScriptFilter) Name() string { return "coffeescript" }

func (f *CoffeeScriptFilter) Apply(ctx context.Context, input []byte) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.load(); err != nil {
		return nil, err
	}

	// interrupt long compilations when the build is cancelled
	interrupted := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		defer close(interrupted)
		f.vm.Interrupt(ctx.Err())
	})
	defer func() {
		// an interrupt already in flight must land before it is cleared
		if !stop() {
			<-interrupted
		}
		f.vm.ClearInterrupt()
	}()

	out, err := f.compile(sobek.Undefined(), f.vm.ToValue(string(input)))
	if err != nil {
		var exc *sobek.Exception
		if errors.As(err, &exc) {
			return nil, fmt.Errorf("compile: %s", exc.Value().String())
		}
		return nil, fmt.Errorf("compile: %w", err)
	}

	return []byte(out.String()), nil
}

func (f *CoffeeScriptFilter) load() error {
	if f.compile != nil {
		return nil
	}

	if f.compilerPath == "" {
		return errors.New("coffeescript compiler path not configured")
	}

	src, err := os.ReadFile(f.compilerPath)
	if err != nil {
		return fmt.Errorf("failed to read coffeescript compiler: %w", err)
	}

	prog, err := sobek.Compile(f.compilerPath, string(src), false)
	if err != nil {
		return fmt.Errorf("failed to parse coffeescript compiler: %w", err)
	}

	vm := sobek.New()
	if _, err := vm.RunProgram(prog); err != nil {
		return fmt.Errorf("failed to load coffeescript compiler: %w", err)
	}

	cs := vm.Get("CoffeeScript")
	if cs == nil || sobek.IsUndefined(cs) {
		return errors.New("coffeescript compiler does not define CoffeeScript")
	}

	compile, ok := sobek.AssertFunction(cs.ToObject(vm).Get("compile"))
	if !ok {
		return errors.New("CoffeeScript.compile is not a function")
	}

	f.vm = vm
	f.compile = compile
	return nil
}
