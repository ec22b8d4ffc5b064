package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/matzehuels/viewgrid/pkg/groupstore"
	"github.com/matzehuels/viewgrid/pkg/view"
)

func runGroups(t *testing.T, c *CLI, args ...string) error {
	t.Helper()
	root := c.RootCommand()
	root.SetArgs(append([]string{"groups"}, args...))
	root.SetErr(&bytes.Buffer{})
	return root.Execute()
}

func TestGroupsCommands(t *testing.T) {
	c := testCLI(t)
	storePath := filepath.Join(t.TempDir(), "groups.toml")
	c.configPath = writeConfig(t, "http://localhost", `backend = "file"
path = "`+filepath.ToSlash(storePath)+`"`)
	store := groupstore.NewFile(storePath)

	load := func() map[string][]string {
		t.Helper()
		groups, err := store.Load(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		out := make(map[string][]string, len(groups))
		for _, g := range groups {
			out[g.Name] = g.Views
		}
		return out
	}

	if err := runGroups(t, c, "list"); err != nil {
		t.Fatalf("list: %v", err)
	}
	if got := load(); len(got) != 0 {
		t.Errorf("list saved groups: %v", got)
	}

	steps := []struct {
		args  []string
		group string
		want  []string
	}{
		{[]string{"add", "default", "location"}, "default", []string{"RGB", "mask", "location"}},
		{[]string{"add", "default", "mask", "-p", "0"}, "default", []string{"mask", "RGB", "mask", "location"}},
		{[]string{"remove", "default", "1"}, "default", []string{"mask", "mask", "location"}},
		{[]string{"set", "scans", "RGB", "RGB"}, "scans", []string{"RGB", "RGB"}},
	}
	for _, s := range steps {
		if err := runGroups(t, c, s.args...); err != nil {
			t.Fatalf("%v: %v", s.args, err)
		}
		if got := load()[s.group]; !slices.Equal(got, s.want) {
			t.Errorf("after %v: %s = %v, want %v", s.args, s.group, got, s.want)
		}
	}

	groups, _ := store.Load(context.Background())
	var names []string
	for _, g := range groups {
		names = append(names, g.Name)
	}
	if !slices.Equal(names, []string{"default", "map", "scans"}) {
		t.Errorf("group order = %v", names)
	}

	if err := runGroups(t, c, "reset"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	got := load()
	if _, ok := got["scans"]; ok || !slices.Equal(got["default"], []string{"RGB", "mask"}) {
		t.Errorf("after reset: %v", got)
	}
}

func TestGroupsCommandErrors(t *testing.T) {
	c := testCLI(t)
	storePath := filepath.Join(t.TempDir(), "groups.toml")
	c.configPath = writeConfig(t, "http://localhost", `backend = "file"
path = "`+filepath.ToSlash(storePath)+`"`)

	if err := groupstore.NewFile(storePath).Save(context.Background(), []view.Group{
		{Name: "solo", Views: []string{"RGB"}},
		{Name: "default", Views: []string{"RGB", "mask"}},
	}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args []string
	}{
		{"show unknown", []string{"show", "nope"}},
		{"add unknown group", []string{"add", "nope", "RGB"}},
		{"add bad view name", []string{"add", "default", "../x"}},
		{"remove last view", []string{"remove", "solo", "0"}},
		{"remove out of range", []string{"remove", "default", "5"}},
		{"remove bad position", []string{"remove", "default", "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := runGroups(t, c, tt.args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestGroupTable(t *testing.T) {
	out := groupTable([]view.Group{
		{Name: "default", Views: []string{"RGB", "mask"}},
		{Name: "raw", Views: []string{"ct_scan"}},
	}, "default")
	for _, want := range []string{"Group", "default", "RGB, mask", "raw", "ct_scan"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}
