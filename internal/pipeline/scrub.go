package pipeline

import (
	"context"
	"regexp"

	"github.com/tkingovr/logbridge/internal/formatter"
)

// SecretPattern is a named regex matching a secret. When the regex has a
// capturing group only the group is redacted.
type SecretPattern struct {
	Name  string
	Regex *regexp.Regexp
}

// DefaultSecretPatterns returns the built-in set of secret patterns.
func DefaultSecretPatterns() []SecretPattern {
	return []SecretPattern{
		{Name: "aws_access_key", Regex: regexp.MustCompile(`AKIA[0-9A-Z]{16}`)},
		{Name: "github_token", Regex: regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{36,255}`)},
		{Name: "github_pat_fine", Regex: regexp.MustCompile(`github_pat_[A-Za-z0-9_]{22,255}`)},
		{Name: "generic_api_key", Regex: regexp.MustCompile(`(?i)(?:api[_-]?key|apikey|api_secret)['":\s]*[=:]\s*['"]?([A-Za-z0-9\-_]{20,60})`)},
		{Name: "generic_secret", Regex: regexp.MustCompile(`(?i)(?:secret|password|passwd|pwd|auth_token|access_token)['":\s]*[=:]\s*['"]?([A-Za-z0-9\-_!@#$%^&]{8,100})`)},
		{Name: "private_key", Regex: regexp.MustCompile(`-----BEGIN (?:RSA |EC |DSA |OPENSSH )?PRIVATE KEY-----`)},
		{Name: "slack_token", Regex: regexp.MustCompile(`xox[baprs]-[0-9]{10,13}-[0-9]{10,13}[a-zA-Z0-9-]*`)},
		{Name: "stripe_key", Regex: regexp.MustCompile(`(?:sk|pk)_(?:live|test)_[A-Za-z0-9]{20,100}`)},
		{Name: "google_api_key", Regex: regexp.MustCompile(`AIza[A-Za-z0-9\-_]{35}`)},
		{Name: "jwt_token", Regex: regexp.MustCompile(`eyJ[A-Za-z0-9-_]+\.eyJ[A-Za-z0-9-_]+\.[A-Za-z0-9-_]+`)},
	}
}

// ScrubStage redacts secret-like values from rendered records: the message
// text and the context URI. Masking covers known field names; this stage
// catches values anywhere in bodies and query strings.
type ScrubStage struct {
	patterns []SecretPattern
}

// ScrubOption configures the ScrubStage.
type ScrubOption func(*ScrubStage)

// WithPatterns sets custom secret patterns (replaces defaults).
func WithPatterns(patterns []SecretPattern) ScrubOption {
	return func(s *ScrubStage) {
		s.patterns = patterns
	}
}

// NewScrubStage creates a scrub stage.
func NewScrubStage(opts ...ScrubOption) *ScrubStage {
	s := &ScrubStage{patterns: DefaultSecretPatterns()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ScrubStage) Name() string { return "scrub" }

func (s *ScrubStage) Process(_ context.Context, e *Entry) error {
	if e.Record == nil {
		return nil
	}
	e.Record.Message = s.Scrub(e.Record.Message)
	e.Record.Context.URI = s.Scrub(e.Record.Context.URI)
	return nil
}

// Scrub returns text with every pattern match redacted.
func (s *ScrubStage) Scrub(text string) string {
	for _, p := range s.patterns {
		re := p.Regex
		text = re.ReplaceAllStringFunc(text, func(match string) string {
			loc := re.FindStringSubmatchIndex(match)
			if len(loc) >= 4 && loc[2] >= 0 {
				return match[:loc[2]] + formatter.Redacted + match[loc[3]:]
			}
			return formatter.Redacted
		})
	}
	return text
}
