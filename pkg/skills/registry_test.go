package skills

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/opencacm/adk/pkg/errors"
)

func TestRegistryInvoke(t *testing.T) {
	reg := NewRegistry()
	plugin := NewFuncPlugin().RegisterFunc("double", func(ctx context.Context, args map[string]any) (any, error) {
		n, _ := args["n"].(int)
		return n * 2, nil
	})
	reg.Register("math", plugin)

	value, err := reg.Invoke(context.Background(), "math", "double", map[string]any{"n": 21})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if value != 42 {
		t.Fatalf("expected 42, got %v", value)
	}
}

func TestRegistryUnknownPlugin(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Invoke(context.Background(), "ghost", "fn", nil)
	if !errors.IsCode(err, errors.CodeNotFound) {
		t.Fatalf("expected not-found code, got %v", err)
	}
}

func TestRegistryUnknownFunction(t *testing.T) {
	reg := NewRegistry()
	reg.Register("math", NewFuncPlugin())
	_, err := reg.Invoke(context.Background(), "math", "ghost", nil)
	if !errors.IsCode(err, errors.CodeNotFound) {
		t.Fatalf("expected not-found code, got %v", err)
	}
}

func TestRegistryWrapsPluginErrors(t *testing.T) {
	reg := NewRegistry()
	boom := stderrors.New("boom")
	plugin := NewFuncPlugin().RegisterFunc("fail", func(ctx context.Context, args map[string]any) (any, error) {
		return nil, boom
	})
	reg.Register("bad", plugin)

	_, err := reg.Invoke(context.Background(), "bad", "fail", nil)
	if !errors.IsCode(err, errors.CodeSkillFailure) {
		t.Fatalf("expected skill-failure code, got %v", err)
	}
	if !stderrors.Is(err, boom) {
		t.Fatalf("expected cause to be preserved, got %v", err)
	}
	ee := errors.AsEngineError(err)
	if ee.Context["plugin"] != "bad" || ee.Context["function"] != "fail" {
		t.Fatalf("expected plugin/function context, got %+v", ee.Context)
	}
}

func TestRegistryPluginNamesSorted(t *testing.T) {
	reg := NewRegistry()
	reg.Register("b", NewFuncPlugin())
	reg.Register("a", NewFuncPlugin())
	names := reg.Plugins()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("unexpected names: %v", names)
	}
}

func TestFuncPluginFunctions(t *testing.T) {
	plugin := NewFuncPlugin().
		RegisterFunc("b", func(ctx context.Context, args map[string]any) (any, error) { return nil, nil }).
		RegisterFunc("a", func(ctx context.Context, args map[string]any) (any, error) { return nil, nil })
	fns := plugin.Functions()
	if len(fns) != 2 || fns[0] != "a" {
		t.Fatalf("unexpected functions: %v", fns)
	}
}
