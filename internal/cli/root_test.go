package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/luvatrix/planops/internal/api"
)

func TestCommandsRegistered(t *testing.T) {
	want := map[string]bool{
		"api":      false,
		"render":   false,
		"validate": false,
		"watch":    false,
		"version":  false,
	}
	for _, cmd := range rootCmd.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("command %s not registered", name)
		}
	}
}

func TestPersistentFlags(t *testing.T) {
	for _, name := range []string{"config", "planning-dir", "artifacts-dir", "log-level"} {
		if rootCmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("persistent flag --%s missing", name)
		}
	}
}

func TestSplitTarget(t *testing.T) {
	tests := map[string]struct {
		resource string
		id       string
	}{
		"milestones":        {"milestones", ""},
		"milestones/M-010":  {"milestones", "M-010"},
		"tasks/T-1101":      {"tasks", "T-1101"},
		"tasks/T-1101-02":   {"tasks", "T-1101-02"},
	}
	for input, want := range tests {
		resource, id := splitTarget(input)
		if resource != want.resource || id != want.id {
			t.Errorf("splitTarget(%q) = (%q, %q), want (%q, %q)",
				input, resource, id, want.resource, want.id)
		}
	}
}

func TestWrapErrorCategories(t *testing.T) {
	tests := map[string]struct {
		err  error
		want ErrorCategory
	}{
		"not found": {
			err:  &api.NotFoundError{Resource: "tasks", ID: "T-9999"},
			want: CategoryLedger,
		},
		"unlock rule": {
			err:  &api.UnlockRuleError{ID: "T-1002", Unmet: []string{"T-1001"}},
			want: CategoryValidation,
		},
		"active reference": {
			err:  &api.ActiveReferenceError{ID: "M-008", Referrers: []string{"M-010"}},
			want: CategoryLedger,
		},
		"lock contention": {
			err:  errors.New("planning directory locked by PID 4242"),
			want: CategoryLock,
		},
		"unknown": {
			err:  errors.New("boom"),
			want: CategoryInternal,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got := WrapError(tc.err)
			if got.Category != tc.want {
				t.Errorf("category = %s, want %s", got.Category, tc.want)
			}
		})
	}
}

func TestFormatErrorIncludesRemediation(t *testing.T) {
	cliErr := &CLIError{
		Category:    CategoryValidation,
		Message:     "mutation rejected",
		Remediation: []string{"fix the ledger", "rerun validate"},
	}

	out := FormatError(cliErr)
	for _, want := range []string{"Error", "validation", "mutation rejected", "To fix this:", "fix the ledger"} {
		if !strings.Contains(out, want) {
			t.Errorf("formatted error missing %q:\n%s", want, out)
		}
	}
}

func TestVersionPlain(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs([]string{"version", "--plain"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		versionPlain = false
	})

	if err := rootCmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != Version {
		t.Fatalf("plain version output wrong: %q", buf.String())
	}
}
