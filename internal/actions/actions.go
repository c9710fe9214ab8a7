// Package actions models the Solana Actions ("blink") response envelopes
// exchanged with wallets and link-preview clients.
//
// The protocol distinguishes a small, closed set of response shapes: a menu of
// next actions, a dynamic form descriptor, an unsigned transaction proposal, a
// terminal acknowledgment, and a disabled placeholder. Each protocol step
// returns exactly one of them.
package actions

import "encoding/json"

// Response is the closed set of protocol envelopes. Only the variants in this
// package implement it.
type Response interface {
	isResponse()
}

// LinkedAction is a follow-up action advertised inside a menu or form.
type LinkedAction struct {
	Href       string
	Label      string
	Parameters []Parameter
}

// Parameter describes one input field of an action form.
type Parameter struct {
	Name     string
	Label    string
	Type     string
	Required bool
	Options  []Option
}

// Option is a selectable value for a "select" parameter.
type Option struct {
	Label    string
	Value    string
	Selected bool
}

// Menu advertises metadata plus links to the next protocol steps.
type Menu struct {
	Title       string
	Description string
	Label       string
	Icon        string
	Actions     []LinkedAction
}

// Form is a menu whose single action carries input parameters. Disabled forms
// keep their parameters visible but cannot be submitted.
type Form struct {
	Title       string
	Description string
	Label       string
	Icon        string
	Disabled    bool
	Action      LinkedAction
}

// Proposal carries a composed, unsigned transaction for external signing,
// the correlation reference embedded in it, and the link to the next step.
type Proposal struct {
	TransactionBase64 string
	Reference         string
	NextHref          string
}

// Terminal acknowledges the end of the flow.
type Terminal struct {
	Title       string
	Description string
	Label       string
	Icon        string
}

// Disabled is the explanatory placeholder returned when a flow step cannot be
// offered at all (for example: nothing to redeem).
type Disabled struct {
	Title       string
	Description string
	Label       string
	Icon        string
}

func (Menu) isResponse()     {}
func (Form) isResponse()     {}
func (Proposal) isResponse() {}
func (Terminal) isResponse() {}
func (Disabled) isResponse() {}

func NewMenu(title, description, label, icon string, next ...LinkedAction) Menu {
	return Menu{Title: title, Description: description, Label: label, Icon: icon, Actions: next}
}

func NewForm(title, description, label, icon string, disabled bool, action LinkedAction) Form {
	return Form{Title: title, Description: description, Label: label, Icon: icon, Disabled: disabled, Action: action}
}

func NewProposal(txBase64, reference, nextHref string) Proposal {
	return Proposal{TransactionBase64: txBase64, Reference: reference, NextHref: nextHref}
}

func NewTerminal(title, description, label, icon string) Terminal {
	return Terminal{Title: title, Description: description, Label: label, Icon: icon}
}

func NewDisabled(title, description, label, icon string) Disabled {
	return Disabled{Title: title, Description: description, Label: label, Icon: icon}
}

type wireOption struct {
	Label    string `json:"label"`
	Value    string `json:"value"`
	Selected bool   `json:"selected"`
}

type wireParameter struct {
	Name     string       `json:"name"`
	Label    string       `json:"label"`
	Type     string       `json:"type"`
	Required bool         `json:"required"`
	Options  []wireOption `json:"options,omitempty"`
}

type wireAction struct {
	Type       string          `json:"type"`
	Href       string          `json:"href"`
	Label      string          `json:"label"`
	Parameters []wireParameter `json:"parameters,omitempty"`
}

type wireLinks struct {
	Actions []wireAction `json:"actions"`
}

func toWireAction(a LinkedAction) wireAction {
	out := wireAction{Type: "transaction", Href: a.Href, Label: a.Label}
	for _, p := range a.Parameters {
		wp := wireParameter{Name: p.Name, Label: p.Label, Type: p.Type, Required: p.Required}
		for _, o := range p.Options {
			wp.Options = append(wp.Options, wireOption(o))
		}
		out.Parameters = append(out.Parameters, wp)
	}
	return out
}

func (m Menu) MarshalJSON() ([]byte, error) {
	links := wireLinks{}
	for _, a := range m.Actions {
		links.Actions = append(links.Actions, toWireAction(a))
	}
	return json.Marshal(struct {
		Type        string    `json:"type"`
		Title       string    `json:"title"`
		Description string    `json:"description"`
		Label       string    `json:"label"`
		Icon        string    `json:"icon"`
		Links       wireLinks `json:"links"`
	}{"action", m.Title, m.Description, m.Label, m.Icon, links})
}

func (f Form) MarshalJSON() ([]byte, error) {
	links := wireLinks{Actions: []wireAction{toWireAction(f.Action)}}
	return json.Marshal(struct {
		Type        string    `json:"type"`
		Title       string    `json:"title"`
		Description string    `json:"description"`
		Label       string    `json:"label"`
		Icon        string    `json:"icon"`
		Disabled    bool      `json:"disabled"`
		Links       wireLinks `json:"links"`
	}{"action", f.Title, f.Description, f.Label, f.Icon, f.Disabled, links})
}

func (p Proposal) MarshalJSON() ([]byte, error) {
	type next struct {
		Type string `json:"type"`
		Href string `json:"href"`
	}
	return json.Marshal(struct {
		Type         string `json:"type"`
		Transaction  string `json:"transaction"`
		Experimental struct {
			Reference string `json:"reference"`
		} `json:"dialectExperimental"`
		Links struct {
			Next next `json:"next"`
		} `json:"links"`
	}{
		Type:        "transaction",
		Transaction: p.TransactionBase64,
		Experimental: struct {
			Reference string `json:"reference"`
		}{p.Reference},
		Links: struct {
			Next next `json:"next"`
		}{next{Type: "post", Href: p.NextHref}},
	})
}

func (t Terminal) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type        string `json:"type"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Label       string `json:"label"`
		Icon        string `json:"icon"`
	}{"completed", t.Title, t.Description, t.Label, t.Icon})
}

func (d Disabled) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type        string `json:"type"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Label       string `json:"label"`
		Icon        string `json:"icon"`
		Disabled    bool   `json:"disabled"`
	}{"action", d.Title, d.Description, d.Label, d.Icon, true})
}
