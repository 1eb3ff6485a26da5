package mcptool

import (
	"testing"
)

func TestServerConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     ServerConfig
		wantErr bool
	}{
		{"valid", ServerConfig{Name: "fs", Command: "mcp-filesystem"}, false},
		{"missing name", ServerConfig{Command: "mcp-filesystem"}, true},
		{"missing command", ServerConfig{Name: "fs"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRemoteToolNamePrefixed(t *testing.T) {
	t.Parallel()

	rt := &remoteTool{server: "fs", remoteName: "read"}
	if got := rt.Name(); got != "fs__read" {
		t.Errorf("Name() = %q, want %q", got, "fs__read")
	}
	if rt.AutoApproved() {
		t.Error("remote tools must never be auto-approved")
	}
}

func TestEnvMapToSlice(t *testing.T) {
	t.Parallel()

	if got := envMapToSlice(nil); got != nil {
		t.Errorf("envMapToSlice(nil) = %v, want nil", got)
	}
	got := envMapToSlice(map[string]string{"A": "1"})
	if len(got) != 1 || got[0] != "A=1" {
		t.Errorf("envMapToSlice = %v", got)
	}
}
