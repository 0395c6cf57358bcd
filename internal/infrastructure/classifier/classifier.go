// Package classifier maps raw command strings to risk verdicts.
package classifier

import (
	"fmt"
	"regexp"
	"strings"

	shellwords "github.com/mattn/go-shellwords"

	"github.com/aegisd/aegis-go/internal/domain"
	"github.com/aegisd/aegis-go/internal/infrastructure/policy"
)

// Classifier evaluates commands against a validated, immutable policy.
// Safe for concurrent use; it never mutates its state after construction.
type Classifier struct {
	blacklistPatterns    []string
	blacklistExecutables []string
	red                  []compiledPattern
	yellow               []compiledPattern
	green                []compiledPattern
	allowedPaths         []*regexp.Regexp
	approvalTimeout      int
}

type compiledPattern struct {
	re  *regexp.Regexp
	raw string
}

// New compiles the policy's tier patterns. The policy must already be
// validated; compile failures here still surface as policy-load errors.
func New(pol domain.Policy) (*Classifier, error) {
	if err := policy.Validate(pol); err != nil {
		return nil, err
	}

	c := &Classifier{
		blacklistPatterns:    pol.Blacklist.Patterns,
		blacklistExecutables: pol.Blacklist.Executables,
		approvalTimeout:      pol.Classification.Red.ApprovalTimeout,
	}

	var err error
	if c.red, err = compileTier(pol.Classification.Red.Patterns); err != nil {
		return nil, fmt.Errorf("%w: red: %v", domain.ErrPolicyLoad, err)
	}
	if c.yellow, err = compileTier(pol.Classification.Yellow.Patterns); err != nil {
		return nil, fmt.Errorf("%w: yellow: %v", domain.ErrPolicyLoad, err)
	}
	if c.green, err = compileTier(pol.Classification.Green.Patterns); err != nil {
		return nil, fmt.Errorf("%w: green: %v", domain.ErrPolicyLoad, err)
	}
	for _, glob := range pol.Classification.Green.AllowedPaths {
		re, err := globToRegexp(glob)
		if err != nil {
			return nil, fmt.Errorf("%w: allowed path %q: %v", domain.ErrPolicyLoad, glob, err)
		}
		c.allowedPaths = append(c.allowedPaths, re)
	}
	return c, nil
}

// ApprovalTimeoutSeconds returns the policy's RED-tier wait bound.
func (c *Classifier) ApprovalTimeoutSeconds() int {
	return c.approvalTimeout
}

// Classify maps a raw command to a verdict. Pure and deterministic: the same
// input always yields the same result for an unchanged policy.
//
// Evaluation order is fixed: blacklist substrings, blacklist executables,
// then RED, YELLOW, GREEN regex tiers; first match terminates. Commands
// matching nothing default to YELLOW rather than GREEN.
func (c *Classifier) Classify(command string) domain.ClassificationResult {
	command = strings.TrimSpace(command)
	lower := strings.ToLower(command)

	for _, p := range c.blacklistPatterns {
		if strings.Contains(lower, strings.ToLower(p)) {
			return verdict(domain.TierBlacklisted, command, p,
				fmt.Sprintf("command contains blacklisted pattern %q", p))
		}
	}
	for _, exe := range c.blacklistExecutables {
		if strings.Contains(lower, strings.ToLower(exe)) {
			return verdict(domain.TierBlacklisted, command, exe,
				fmt.Sprintf("blacklisted executable %q is never permitted", exe))
		}
	}
	for _, p := range c.red {
		if p.re.MatchString(command) {
			return verdict(domain.TierRed, command, p.raw,
				fmt.Sprintf("matched high-risk pattern %q", p.raw))
		}
	}
	for _, p := range c.yellow {
		if p.re.MatchString(command) {
			return verdict(domain.TierYellow, command, p.raw,
				fmt.Sprintf("matched sensitive pattern %q", p.raw))
		}
	}
	for _, p := range c.green {
		if p.re.MatchString(command) {
			return verdict(domain.TierGreen, command, p.raw,
				fmt.Sprintf("matched safe pattern %q", p.raw))
		}
	}

	reason := "unknown command treated as sensitive"
	if exe := primaryExecutable(command); exe != "" {
		reason = fmt.Sprintf("unknown command %q treated as sensitive", exe)
	}
	return verdict(domain.TierYellow, command, "", reason)
}

// IsPathAllowed tests a path against the green-tier allowed globs.
func (c *Classifier) IsPathAllowed(path string) bool {
	path = strings.TrimSpace(path)
	if path == "" {
		return false
	}
	for _, re := range c.allowedPaths {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

func verdict(tier domain.Tier, command, pattern, reason string) domain.ClassificationResult {
	result := domain.ClassificationResult{
		Tier:           tier,
		Command:        command,
		Reason:         reason,
		MatchedPattern: pattern,
	}
	switch tier {
	case domain.TierRed:
		result.RequiresApproval = true
	case domain.TierGreen:
		result.AutoExecute = true
	case domain.TierYellow:
		result.AutoExecute = true
		result.NotifyBridge = true
	}
	return result
}

func compileTier(patterns []string) ([]compiledPattern, error) {
	var compiled []compiledPattern
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, compiledPattern{re: re, raw: p})
	}
	return compiled, nil
}

// globToRegexp converts a path glob to an anchored case-insensitive regexp.
// `*` crosses directory separators; `?` matches one character.
func globToRegexp(glob string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("(?i)^")
	for _, r := range glob {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}

// primaryExecutable returns argv[0] of the command, skipping common wrapper
// prefixes, or "" when the command cannot be tokenized.
func primaryExecutable(command string) string {
	tokens, err := shellwords.Parse(command)
	if err != nil || len(tokens) == 0 {
		return ""
	}
	wrappers := map[string]bool{"env": true, "nohup": true, "nice": true, "time": true}
	for _, tok := range tokens {
		if strings.ContainsRune(tok, '=') && !strings.ContainsAny(tok, "/ ") {
			continue // env assignment
		}
		if wrappers[tok] {
			continue
		}
		return tok
	}
	return tokens[0]
}
