package domain

// Conventional port keys for control-flow wires.
const (
	PortFlowIn  = "__flow_in__"
	PortFlowOut = "__flow_out__"
)

// StartNodeType marks the entry node of a command flow.
const StartNodeType = "__start__"

// Global binding keys seeded at the start of every command flow.
const (
	GlobalInteraction  = "___interaction"
	GlobalGuild        = "___guild"
	GlobalTranslations = "___translations"
)

// Target-language identifiers the command handler receives.
const (
	InteractionIdent  = "__INTERACTION__"
	TranslationsIdent = "__TRANSLATIONS__"
)

// Special node type prefixes. Special nodes have no template and are compiled
// by bespoke logic that depends on the command being compiled.
const (
	SpecialPrefix          = "___special_"
	SpecialGetOptionPrefix = "___special_get_option_"
	SpecialSuffix          = "___"
)

// SpecialValuePort is the output key every special node binds.
const SpecialValuePort = "value"
