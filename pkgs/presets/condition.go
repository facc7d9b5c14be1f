package presets

import (
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
)

// Condition is a preset condition tree. A JSON boolean is shorthand for a
// const condition.
type Condition struct {
	Type       string       `json:"type"`
	Value      bool         `json:"value,omitempty"`
	Lhs        string       `json:"lhs,omitempty"`
	Rhs        string       `json:"rhs,omitempty"`
	String     string       `json:"string,omitempty"`
	List       []string     `json:"list,omitempty"`
	Regex      string       `json:"regex,omitempty"`
	Conditions []*Condition `json:"conditions,omitempty"`
	Condition  *Condition   `json:"condition,omitempty"`
}

func (c *Condition) UnmarshalJSON(b []byte) error {
	var v bool
	if err := json.Unmarshal(b, &v); err == nil {
		*c = Condition{Type: "const", Value: v}
		return nil
	}
	type plain Condition
	if err := json.Unmarshal(b, (*plain)(c)); err != nil {
		return err
	}
	switch c.Type {
	case "const", "equals", "notEquals", "inList", "notInList", "matches", "notMatches", "anyOf", "allOf", "not":
		return nil
	}
	return fmt.Errorf("unknown condition type %q", c.Type)
}

// Evaluate reports whether the condition holds. Strings are passed through
// expand first. A nil condition is true; an invalid regex never matches.
func (c *Condition) Evaluate(expand func(string) string) bool {
	if c == nil {
		return true
	}
	switch c.Type {
	case "const":
		return c.Value
	case "equals":
		return expand(c.Lhs) == expand(c.Rhs)
	case "notEquals":
		return expand(c.Lhs) != expand(c.Rhs)
	case "inList", "notInList":
		s := expand(c.String)
		in := slices.ContainsFunc(c.List, func(item string) bool { return expand(item) == s })
		return in == (c.Type == "inList")
	case "matches", "notMatches":
		re, err := regexp.Compile(expand(c.Regex))
		if err != nil {
			return false
		}
		return re.MatchString(expand(c.String)) == (c.Type == "matches")
	case "anyOf":
		for _, sub := range c.Conditions {
			if sub.Evaluate(expand) {
				return true
			}
		}
		return false
	case "allOf":
		for _, sub := range c.Conditions {
			if !sub.Evaluate(expand) {
				return false
			}
		}
		return true
	case "not":
		return !c.Condition.Evaluate(expand)
	}
	return false
}
