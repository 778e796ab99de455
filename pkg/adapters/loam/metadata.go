package loam

// CommandMetadata is the front matter of a command document.
// Options and flow are kept raw and decoded with mapstructure, since their
// numeric fields arrive as float64 from JSON and int from YAML.
type CommandMetadata struct {
	UID         string         `json:"uid" mapstructure:"uid"`
	Name        string         `json:"name" mapstructure:"name"`
	Description string         `json:"description" mapstructure:"description"`
	Options     []any          `json:"options" mapstructure:"options"`
	Flow        map[string]any `json:"flow" mapstructure:"flow"`
}
