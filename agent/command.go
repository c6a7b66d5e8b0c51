package agent

import "strings"

// Command is a control action parsed from a user message before extraction.
type Command string

const (
	CmdNone     Command = "none"
	CmdCancel   Command = "cancel"
	CmdExport   Command = "export"
	CmdNewFiche Command = "new_fiche"
)

// CommandParser recognizes conversation control keywords. Anything it does
// not recognize goes to the extraction pipeline instead.
type CommandParser struct {
	CancelKeywords   []string
	ExportKeywords   []string
	NewFicheKeywords []string
}

func NewCommandParser() *CommandParser {
	return &CommandParser{
		CancelKeywords:   []string{"annuler", "annule", "cancel", "quitter", "quit", "exit", "stop"},
		ExportKeywords:   []string{"export", "exporter", "exporte", "terminer", "termine", "fin"},
		NewFicheKeywords: []string{"nouvelle fiche", "nouveau", "recommencer", "reset", "restart"},
	}
}

func (p *CommandParser) Parse(message string) Command {
	normalized := strings.ToLower(strings.TrimSpace(message))
	for _, keyword := range p.CancelKeywords {
		if normalized == keyword {
			return CmdCancel
		}
	}
	for _, keyword := range p.ExportKeywords {
		if normalized == keyword {
			return CmdExport
		}
	}
	for _, keyword := range p.NewFicheKeywords {
		if normalized == keyword {
			return CmdNewFiche
		}
	}
	return CmdNone
}
