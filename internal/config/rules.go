package config

import (
	"fmt"
	"regexp"

	"github.com/1broseidon/scrolltile/internal/tiling"
)

// WindowRule places windows whose app id and title match. Patterns are
// regular expressions; an empty pattern matches anything, but a rule needs at
// least one.
type WindowRule struct {
	AppID        string `yaml:"app_id,omitempty"`
	Title        string `yaml:"title,omitempty"`
	Insert       string `yaml:"insert,omitempty"`
	DefaultWidth string `yaml:"default_width,omitempty"`
	Fullscreen   *bool  `yaml:"fullscreen,omitempty"`
	Workspace    string `yaml:"workspace,omitempty"`
	Output       string `yaml:"output,omitempty"`
}

func (r *WindowRule) validate() *ValidationError {
	if r.AppID == "" && r.Title == "" {
		return &ValidationError{Err: fmt.Errorf("rule needs app_id or title")}
	}
	if _, err := regexp.Compile(r.AppID); err != nil {
		return &ValidationError{Path: ".app_id", Err: err}
	}
	if _, err := regexp.Compile(r.Title); err != nil {
		return &ValidationError{Path: ".title", Err: err}
	}
	if r.Insert != "" {
		if _, err := tiling.ParseInsertHint(r.Insert); err != nil {
			return &ValidationError{Path: ".insert", Err: err}
		}
	}
	if r.DefaultWidth != "" {
		if _, err := tiling.ParseSizePolicy(r.DefaultWidth); err != nil {
			return &ValidationError{Path: ".default_width", Err: err}
		}
	}
	return nil
}

type compiledRule struct {
	appID *regexp.Regexp
	title *regexp.Regexp
	place tiling.Placement
	full  *bool
}

// RuleSet matches windows against the configured rules.
type RuleSet struct {
	rules []compiledRule
}

func compileRules(rules []WindowRule) (*RuleSet, error) {
	set := &RuleSet{rules: make([]compiledRule, 0, len(rules))}
	for i := range rules {
		r := &rules[i]
		if verr := r.validate(); verr != nil {
			verr.Path = fmt.Sprintf("window_rules[%d]%s", i, verr.Path)
			return nil, verr
		}
		cr := compiledRule{full: r.Fullscreen}
		if r.AppID != "" {
			cr.appID = regexp.MustCompile(r.AppID)
		}
		if r.Title != "" {
			cr.title = regexp.MustCompile(r.Title)
		}
		if r.Insert != "" {
			cr.place.Insert, _ = tiling.ParseInsertHint(r.Insert)
		}
		if r.DefaultWidth != "" {
			w, _ := tiling.ParseSizePolicy(r.DefaultWidth)
			cr.place.Width = &w
		}
		cr.place.Workspace = r.Workspace
		cr.place.Output = r.Output
		set.rules = append(set.rules, cr)
	}
	return set, nil
}

// Len returns the number of rules.
func (s *RuleSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.rules)
}

// Placement merges every rule matching the window, in order. Later rules
// override the fields they set.
func (s *RuleSet) Placement(appID, title string) tiling.Placement {
	var pl tiling.Placement
	if s == nil {
		return pl
	}
	for _, r := range s.rules {
		if r.appID != nil && !r.appID.MatchString(appID) {
			continue
		}
		if r.title != nil && !r.title.MatchString(title) {
			continue
		}
		if r.place.Insert != tiling.InsertUnset {
			pl.Insert = r.place.Insert
		}
		if r.place.Width != nil {
			w := *r.place.Width
			pl.Width = &w
		}
		if r.full != nil {
			pl.Fullscreen = *r.full
		}
		if r.place.Workspace != "" {
			pl.Workspace = r.place.Workspace
		}
		if r.place.Output != "" {
			pl.Output = r.place.Output
		}
	}
	return pl
}
