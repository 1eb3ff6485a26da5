package tool_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/flemzord/wrench/internal/tool"
	"github.com/flemzord/wrench/internal/tool/tooltest"
)

func TestRegisterEmptyName(t *testing.T) {
	t.Parallel()

	r := tool.NewRegistry()
	err := r.Register(&tooltest.MockTool{NameValue: "   "})
	if !errors.Is(err, tool.ErrEmptyToolName) {
		t.Fatalf("expected ErrEmptyToolName, got %v", err)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	t.Parallel()

	r := tool.NewRegistry()
	if err := r.Register(&tooltest.MockTool{NameValue: "read_file"}); err != nil {
		t.Fatalf("first register: %v", err)
	}
	err := r.Register(&tooltest.MockTool{NameValue: "read_file"})
	if !errors.Is(err, tool.ErrDuplicateTool) {
		t.Fatalf("expected ErrDuplicateTool, got %v", err)
	}
}

func TestRegisterDuplicateOfDisabled(t *testing.T) {
	t.Parallel()

	r := tool.NewRegistry()
	if err := r.Register(&tooltest.MockTool{NameValue: "read_file"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.Disable("read_file"); err != nil {
		t.Fatalf("disable: %v", err)
	}
	err := r.Register(&tooltest.MockTool{NameValue: "read_file"})
	if !errors.Is(err, tool.ErrDuplicateTool) {
		t.Fatalf("expected ErrDuplicateTool for disabled name, got %v", err)
	}
}

func TestGetUnknown(t *testing.T) {
	t.Parallel()

	r := tool.NewRegistry()
	_, err := r.Get("nope")
	if !errors.Is(err, tool.ErrToolNotFound) {
		t.Fatalf("expected ErrToolNotFound, got %v", err)
	}
}

func TestDisableHidesFromLookupAndDefinitions(t *testing.T) {
	t.Parallel()

	r := tool.NewRegistry()
	if err := r.Register(&tooltest.MockTool{NameValue: "write_file"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.Disable("write_file"); err != nil {
		t.Fatalf("disable: %v", err)
	}

	if _, err := r.Get("write_file"); !errors.Is(err, tool.ErrToolNotFound) {
		t.Errorf("disabled tool visible via Get: %v", err)
	}
	if len(r.Definitions()) != 0 {
		t.Errorf("disabled tool visible in Definitions: %v", r.Definitions())
	}
	if got := r.DisabledNames(); !slices.Equal(got, []string{"write_file"}) {
		t.Errorf("DisabledNames = %v", got)
	}
}

func TestEnableRestoresDefinition(t *testing.T) {
	t.Parallel()

	r := tool.NewRegistry()
	mock := &tooltest.MockTool{NameValue: "write_file"}
	if err := r.Register(mock); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.Disable("write_file"); err != nil {
		t.Fatalf("disable: %v", err)
	}
	if err := r.Enable("write_file"); err != nil {
		t.Fatalf("enable: %v", err)
	}

	got, err := r.Get("write_file")
	if err != nil {
		t.Fatalf("Get after enable: %v", err)
	}
	if got != tool.Tool(mock) {
		t.Error("Enable did not restore the original definition")
	}
}

func TestEnableNotDisabled(t *testing.T) {
	t.Parallel()

	r := tool.NewRegistry()
	if err := r.Register(&tooltest.MockTool{NameValue: "read_file"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.Enable("read_file"); !errors.Is(err, tool.ErrNotDisabled) {
		t.Fatalf("expected ErrNotDisabled, got %v", err)
	}
}

func TestDisableUnknown(t *testing.T) {
	t.Parallel()

	r := tool.NewRegistry()
	if err := r.Disable("nope"); !errors.Is(err, tool.ErrToolNotFound) {
		t.Fatalf("expected ErrToolNotFound, got %v", err)
	}
}

func TestDefinitionsSortedWireShape(t *testing.T) {
	t.Parallel()

	r := tool.NewRegistry()
	for _, name := range []string{"run_shell", "edit_file", "read_file"} {
		if err := r.Register(&tooltest.MockTool{NameValue: name}); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}

	defs := r.Definitions()
	var names []string
	for _, d := range defs {
		if d.Type != "function" {
			t.Errorf("Definition.Type = %q, want function", d.Type)
		}
		if len(d.Function.Parameters) == 0 {
			t.Errorf("Definition %s has no parameters schema", d.Function.Name)
		}
		names = append(names, d.Function.Name)
	}
	if want := []string{"edit_file", "read_file", "run_shell"}; !slices.Equal(names, want) {
		t.Errorf("definition names = %v, want %v", names, want)
	}
}

func TestFilterAllowed(t *testing.T) {
	t.Parallel()

	r := tool.NewRegistry()
	for _, name := range []string{"read_file", "write_file", "run_shell"} {
		if err := r.Register(&tooltest.MockTool{NameValue: name}); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}

	r.FilterAllowed([]string{"read_file", "write_file"})

	if got := r.Names(); !slices.Equal(got, []string{"read_file", "write_file"}) {
		t.Errorf("Names after filter = %v", got)
	}
	if _, err := r.Get("run_shell"); !errors.Is(err, tool.ErrToolNotFound) {
		t.Errorf("filtered tool still visible: %v", err)
	}
}

func TestFilterAllowedEmptyKeepsAll(t *testing.T) {
	t.Parallel()

	r := tool.NewRegistry()
	if err := r.Register(&tooltest.MockTool{NameValue: "read_file"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	r.FilterAllowed(nil)
	if len(r.Names()) != 1 {
		t.Errorf("empty allow-list removed tools: %v", r.Names())
	}
}
