package compiler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/disbotter/disbotter/pkg/domain"
)

// Parser is responsible for converting raw project documents into domain types.
type Parser struct{}

// NewParser creates a new parser instance.
func NewParser() *Parser {
	return &Parser{}
}

// ParseProject decodes a project document (.dbp).
// Numbers are decoded as json.Number and render as JavaScript numbers, so
// 1.50 becomes 1.5 and integers beyond 2^53 lose precision.
// Command names must be unique since each names its output file.
func (p *Parser) ParseProject(data []byte) (*domain.Project, error) {
	var project domain.Project
	if err := decode(bytes.NewReader(data), &project); err != nil {
		return nil, fmt.Errorf("failed to parse project: %w", err)
	}
	seen := make(map[string]int, len(project.Content.Commands))
	for i, cmd := range project.Content.Commands {
		if cmd.Name == "" {
			return nil, fmt.Errorf("command %d missing name", i)
		}
		if first, ok := seen[cmd.Name]; ok {
			return nil, fmt.Errorf("collision detected: command '%s' is defined at both index %d and %d", cmd.Name, first, i)
		}
		seen[cmd.Name] = i
	}
	return &project, nil
}

// ParseCommand decodes a single command document.
func (p *Parser) ParseCommand(data []byte) (*domain.Command, error) {
	var cmd domain.Command
	if err := decode(bytes.NewReader(data), &cmd); err != nil {
		return nil, fmt.Errorf("failed to parse command: %w", err)
	}
	if cmd.Name == "" {
		return nil, fmt.Errorf("command missing name")
	}
	return &cmd, nil
}

// ParseFlow decodes a bare flow document.
func (p *Parser) ParseFlow(data []byte) (*domain.Flow, error) {
	var flow domain.Flow
	if err := decode(bytes.NewReader(data), &flow); err != nil {
		return nil, fmt.Errorf("failed to parse flow: %w", err)
	}
	return &flow, nil
}

func decode(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	return dec.Decode(v)
}
