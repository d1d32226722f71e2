package deps_test

import (
	"testing"

	"prompter/internal/deps"
	"prompter/internal/testsupport"
)

func TestCheckBinariesReportsMissing(t *testing.T) {
	statuses := deps.CheckBinaries([]deps.Requirement{
		{Name: "Missing", Command: "definitely-not-on-path-zzz"},
		{Name: "Unconfigured", Command: "  "},
	})
	if len(statuses) != 2 {
		t.Fatalf("got %d statuses, want 2", len(statuses))
	}
	if statuses[0].Available {
		t.Fatal("missing binary reported available")
	}
	if statuses[0].Detail == "" {
		t.Fatal("missing binary should carry a detail")
	}
	if statuses[1].Available || statuses[1].Detail != "command not configured" {
		t.Fatalf("unconfigured status = %+v", statuses[1])
	}
}

func TestCheckBinariesFindsStubbed(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())

	statuses := deps.CheckBinaries(deps.Renderer(cfg))
	for _, status := range statuses {
		if !status.Available {
			t.Fatalf("%s (%s) not found on stubbed PATH: %s", status.Name, status.Command, status.Detail)
		}
		if !status.Optional {
			t.Fatalf("%s should be optional", status.Name)
		}
	}
}
