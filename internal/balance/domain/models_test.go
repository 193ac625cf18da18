package domain

import (
	"testing"

	"github.com/bwmarrin/snowflake"
)

func TestScopeValidate(t *testing.T) {
	cases := []struct {
		name  string
		scope Scope
		valid bool
	}{
		{"workspace", Scope{Kind: ScopeWorkspace, WorkspaceID: 1}, true},
		{"workspace missing id", Scope{Kind: ScopeWorkspace}, false},
		{"program", Scope{Kind: ScopeProgram, ProgramID: 2}, true},
		{"program missing id", Scope{Kind: ScopeProgram}, false},
		{"partners", Scope{Kind: ScopePartnerIDs, PartnerIDs: []snowflake.ID{3}}, true},
		{"partners empty", Scope{Kind: ScopePartnerIDs}, false},
		{"unknown kind", Scope{Kind: "tenant"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.scope.Validate()
			if tc.valid && err != nil {
				t.Fatalf("expected valid scope, got %v", err)
			}
			if !tc.valid && err != ErrInvalidScope {
				t.Fatalf("expected ErrInvalidScope, got %v", err)
			}
		})
	}
}

func TestScopeFilter(t *testing.T) {
	expr, args := Scope{Kind: ScopeWorkspace, WorkspaceID: 7}.Filter()
	if expr != "workspace_id = ?" || len(args) != 1 {
		t.Fatalf("workspace filter: %q %v", expr, args)
	}

	expr, args = Scope{Kind: ScopeProgram, ProgramID: 8}.Filter()
	if expr != "program_id = ?" || len(args) != 1 {
		t.Fatalf("program filter: %q %v", expr, args)
	}

	expr, args = Scope{Kind: ScopePartnerIDs, PartnerIDs: []snowflake.ID{9, 10}}.Filter()
	if expr != "partner_id IN ?" || len(args) != 1 {
		t.Fatalf("partner filter: %q %v", expr, args)
	}
}

func TestScopeKey(t *testing.T) {
	if got := (Scope{Kind: ScopeWorkspace, WorkspaceID: 7}).Key(); got != "workspace:7" {
		t.Fatalf("workspace key: %q", got)
	}
	if got := (Scope{Kind: ScopeProgram, ProgramID: 8}).Key(); got != "program:8" {
		t.Fatalf("program key: %q", got)
	}
	if got := (Scope{Kind: ScopePartnerIDs, PartnerIDs: []snowflake.ID{9, 10}}).Key(); got != "partners:9:10" {
		t.Fatalf("partner key: %q", got)
	}
}
