package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestReport_KeptStatements(t *testing.T) {
	rep := Report{
		Modules: []ModuleInfo{
			{ID: "a.js", Kept: []StatementRange{{StartLine: 1, EndLine: 1}, {StartLine: 2, EndLine: 4}}},
			{ID: "b.js"},
			{ID: "c.js", Kept: []StatementRange{{StartLine: 7, EndLine: 9}}},
		},
	}
	if got := rep.KeptStatements(); got != 3 {
		t.Errorf("KeptStatements() = %d, want 3", got)
	}
}

func TestReport_JSONOmitsEmptySlices(t *testing.T) {
	data, err := json.Marshal(Report{Modules: []ModuleInfo{{ID: "empty.js"}}})
	if err != nil {
		t.Fatal(err)
	}
	for _, field := range []string{"imports", "exports", "kept"} {
		if strings.Contains(string(data), `"`+field+`"`) {
			t.Errorf("empty %s serialized: %s", field, data)
		}
	}
}
