package models

// ImportInfo describes one import binding of an analyzed module and
// how linking resolved it.
type ImportInfo struct {
	LocalName    string `json:"local_name"`
	Source       string `json:"source"`
	ImportedName string `json:"imported_name"`
	External     bool   `json:"external"`
	SideEffects  bool   `json:"side_effects"`
	Resolved     bool   `json:"resolved"`
}

// ExportInfo describes one export of an analyzed module: whether any
// other module (or the public entry surface) references it and whether
// its backing binding survived.
type ExportInfo struct {
	Name       string `json:"name"`
	LocalName  string `json:"local_name"`
	Referenced bool   `json:"referenced"`
	Included   bool   `json:"included"`
}

// StatementRange is the source line span of one retained top-level
// statement.
type StatementRange struct {
	StartLine int `json:"start_line"`
	EndLine   int `json:"end_line"`
}

// ModuleInfo is the per-module slice of the analysis read-model.
type ModuleInfo struct {
	ID       string           `json:"id"`
	Entry    bool             `json:"entry"`
	Included bool             `json:"included"`
	Imports  []ImportInfo     `json:"imports,omitempty"`
	Exports  []ExportInfo     `json:"exports,omitempty"`
	Kept     []StatementRange `json:"kept,omitempty"`
}

// Report is the complete outcome of one analysis run.
type Report struct {
	Passes  int          `json:"passes"`
	Modules []ModuleInfo `json:"modules"`
}

// KeptStatements counts retained top-level statements across modules.
func (r Report) KeptStatements() int {
	n := 0
	for _, m := range r.Modules {
		n += len(m.Kept)
	}
	return n
}
