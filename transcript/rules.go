package transcript

import (
	"fmt"
	"io"
	"os"
	"regexp"

	"go.yaml.in/yaml/v3"
)

// Rule is one step of the normalizer's noise-stripping pipeline: a
// pattern and the string that replaces each match. Rules are applied in
// list order, and the whole list repeats until the title stops changing,
// so every rule sees the output of the rules before it.
type Rule struct {
	// Name identifies the rule in warnings and rule files.
	Name string
	// Pattern is the compiled matcher.
	Pattern *regexp.Regexp
	// Replace is the replacement text. Capture references like $1 are
	// expanded, which is how patterns keep a delimiter they had to
	// consume in place of lookahead.
	Replace string
}

// The built-in rules, in application order. Matching is case-insensitive
// throughout; ordering is load-bearing (grade tokens must go before the
// hyphen cleanup or a dangling hyphen survives, parenthesized spans must
// go before whitespace collapsing).
var (
	// Grade codes: "G10", "G10-2", "g9", when followed by a space, an
	// opening parenthesis, or end of string.
	reGradeCode = regexp.MustCompile(`(?i)\bG\d+(?:-\d+)?(\s|\(|$)`)

	// Grade levels: "Grade 10", "10th Grade", bare "10", "11-2", when
	// followed by a space or end of string.
	reGradeLevel = regexp.MustCompile(`(?i)\b(?:Grade\s*)?\d{1,2}(?:th)?\s*(?:Grade\s*)?(?:-\d+)?(\s|$)`)

	// Elective labels at the start of the title: "Senior Electives-",
	// "Junior Electives-", "Electives 1".
	reElectives = regexp.MustCompile(`(?i)^(?:Senior|Junior)?\s*Electives\s*\d*-?`)

	// Group labels: "Group 2 -".
	reGroupLabel = regexp.MustCompile(`(?i)\s*Group\s*\d+\s*-`)

	// Department prefixes joined to the real title with a hyphen,
	// optionally carrying a grade/section tag: "Math 7A-2-Algebra I",
	// "Foreign Language-Chinese". A bare department name with no
	// hyphen is left alone; it may be the whole course title.
	reDepartment = regexp.MustCompile(`(?i)^\s*(?:Math|Science|Career\s+Planning|Visual\s+Performing\s+Arts|Foreign\s+Language|Military\s+Training|Social\s+Studies|Individual\s+Society\s+Environment)\s*(?:G?\d{1,2}[A-Za-z]?(?:-\d+)?)?\s*-\s*`)

	// Parenthesized annotations, removed wholesale.
	reParenthetical = regexp.MustCompile(`\s*\([^)]*\)`)

	// Leftover section suffixes: "-1", "-2" before a space or at the end.
	reSectionSuffix = regexp.MustCompile(`-\d+(\s|$)`)

	// A hyphen glued to following content loses the hyphen, not the
	// content. A hyphen left trailing at the end of the title goes too.
	reHyphenGlue     = regexp.MustCompile(`\s*-\s*(\S)`)
	reTrailingHyphen = regexp.MustCompile(`\s+-\s*$`)
)

// DefaultRules returns the built-in noise-stripping rules in application
// order. The returned slice is a copy; callers may reorder or extend it
// before handing it to NewNormalizer.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "grade-code", Pattern: reGradeCode, Replace: "$1"},
		{Name: "grade-level", Pattern: reGradeLevel, Replace: "$1"},
		{Name: "electives", Pattern: reElectives, Replace: ""},
		{Name: "group-label", Pattern: reGroupLabel, Replace: ""},
		{Name: "department", Pattern: reDepartment, Replace: ""},
		{Name: "parenthetical", Pattern: reParenthetical, Replace: ""},
		{Name: "section-suffix", Pattern: reSectionSuffix, Replace: "$1"},
		{Name: "hyphen-glue", Pattern: reHyphenGlue, Replace: "$1"},
		{Name: "trailing-hyphen", Pattern: reTrailingHyphen, Replace: ""},
	}
}

// ruleFile is the YAML shape of an external rule list.
type ruleFile struct {
	Rules []ruleSpec `yaml:"rules"`
}

type ruleSpec struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"`
	Replace string `yaml:"replace"`
}

// LoadRules reads a YAML rule list and compiles it. The file replaces
// only the pattern stage of normalization; the drop check, distinction
// marker handling, and whitespace cleanup are fixed.
//
// File shape:
//
//	rules:
//	  - name: grade-code
//	    pattern: '(?i)\bG\d+(?:-\d+)?(\s|\(|$)'
//	    replace: '$1'
func LoadRules(r io.Reader) ([]Rule, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading rules: %w", err)
	}

	var rf ruleFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing rules: %w", err)
	}
	if len(rf.Rules) == 0 {
		return nil, fmt.Errorf("rule file contains no rules")
	}

	rules := make([]Rule, 0, len(rf.Rules))
	for i, spec := range rf.Rules {
		name := spec.Name
		if name == "" {
			name = fmt.Sprintf("rule-%d", i+1)
		}
		re, err := regexp.Compile(spec.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", name, err)
		}
		rules = append(rules, Rule{Name: name, Pattern: re, Replace: spec.Replace})
	}
	return rules, nil
}

// LoadRulesFile reads and compiles a YAML rule list from a file.
func LoadRulesFile(path string) ([]Rule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening rules file: %w", err)
	}
	defer f.Close()

	rules, err := LoadRules(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rules, nil
}
