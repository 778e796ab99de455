package domain

import "fmt"

// Project is the editor document: metadata plus every compile unit.
type Project struct {
	Metadata ProjectMetadata `json:"metadata"`
	Content  ProjectContent  `json:"content"`
}

// ProjectMetadata describes the project itself.
type ProjectMetadata struct {
	Name string `json:"name"`
}

// ProjectContent groups the compile units of a project.
type ProjectContent struct {
	Commands []Command `json:"commands"`
}

// Command is a slash command: one compile unit producing one file.
type Command struct {
	UID         string          `json:"uid" mapstructure:"uid"`
	Name        string          `json:"name" mapstructure:"name"`
	Description string          `json:"description" mapstructure:"description"`
	Flow        Flow            `json:"flow" mapstructure:"flow"`
	Options     []CommandOption `json:"options" mapstructure:"options"`
}

// Option looks up a declared option by name.
func (c *Command) Option(name string) (*CommandOption, bool) {
	for i := range c.Options {
		if c.Options[i].Name == name {
			return &c.Options[i], true
		}
	}
	return nil, false
}

// Command looks up a compile unit by name.
func (p *Project) Command(name string) (*Command, bool) {
	for i := range p.Content.Commands {
		if p.Content.Commands[i].Name == name {
			return &p.Content.Commands[i], true
		}
	}
	return nil, false
}

// OptionKind is the editor's numeric option type.
type OptionKind int

const (
	OptionString OptionKind = iota
	OptionUser
	OptionChannel
)

// Name returns the suffix used by the target framework's option API
// (getString, addStringOption, ...).
func (k OptionKind) Name() (string, error) {
	switch k {
	case OptionString:
		return "String", nil
	case OptionUser:
		return "User", nil
	case OptionChannel:
		return "Channel", nil
	default:
		return "", fmt.Errorf("unknown option type: %d", int(k))
	}
}

// CommandOption is an option declared on a command.
type CommandOption struct {
	Name        string     `json:"name" mapstructure:"name"`
	Description string     `json:"description" mapstructure:"description"`
	Kind        OptionKind `json:"type" mapstructure:"type"`
	Required    bool       `json:"required" mapstructure:"required"`
	Choices     []string   `json:"choices" mapstructure:"choices"`
}
