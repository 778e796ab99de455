package domain

import (
	"encoding/json"
	"sort"
	"strings"
	"sync"
)

// File is one generated source file.
type File struct {
	Path string `json:"path"`
	Code string `json:"code"`
}

// Program is the ordered set of files produced by one project compile.
// Safe for concurrent use.
type Program struct {
	mu    sync.Mutex
	files []File
}

// NewProgram creates an empty program.
func NewProgram() *Program {
	return &Program{}
}

// Add appends a finalized file.
func (p *Program) Add(f File) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.files = append(p.files, f)
}

// Files returns a copy of the files in insertion order.
func (p *Program) Files() []File {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]File, len(p.files))
	copy(out, p.files)
	return out
}

// File returns the file stored under path.
func (p *Program) File(path string) (File, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, f := range p.files {
		if f.Path == path {
			return f, true
		}
	}
	return File{}, false
}

// Len returns the number of files.
func (p *Program) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.files)
}

// Paths returns the sorted file paths.
func (p *Program) Paths() []string {
	files := p.Files()
	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	sort.Strings(paths)
	return paths
}

// ExportString renders every file as a "// <path>" header followed by its code.
func (p *Program) ExportString() string {
	var sb strings.Builder
	for _, f := range p.Files() {
		sb.WriteString("// ")
		sb.WriteString(f.Path)
		sb.WriteString("\n")
		sb.WriteString(f.Code)
		sb.WriteString("\n")
	}
	return sb.String()
}

type programJSON struct {
	Files []File `json:"files"`
}

// MarshalJSON encodes the program as {"files": [...]}.
func (p *Program) MarshalJSON() ([]byte, error) {
	files := p.Files()
	return json.Marshal(programJSON{Files: files})
}

// UnmarshalJSON replaces the program's files with the decoded ones.
func (p *Program) UnmarshalJSON(data []byte) error {
	var raw programJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.files = raw.Files
	return nil
}
