package dsorm

import (
	"fmt"
	"regexp"
)

// PRAGMA statements cannot carry bound parameters, so both sides are
// restricted to a plain token before being rendered into SQL text.
var pragmaToken = regexp.MustCompile(`^-?[A-Za-z0-9_.]+$`)

// Pragma is a connection-level setting applied during Init, before any
// schema objects are created.
type Pragma struct {
	Name  string
	Value string
}

// SQL renders the pragma statement after validating both tokens.
func (p Pragma) SQL() (string, error) {
	if !pragmaToken.MatchString(p.Name) {
		return "", fmt.Errorf("invalid pragma name %q", p.Name)
	}
	if !pragmaToken.MatchString(p.Value) {
		return "", fmt.Errorf("invalid pragma value %q", p.Value)
	}
	return fmt.Sprintf("PRAGMA %s=%s", p.Name, p.Value), nil
}
