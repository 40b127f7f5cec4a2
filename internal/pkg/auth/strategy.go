package auth

import "time"

// Strategy verifies bearer tokens minted by the external auth service this
// engine shares a secret with. IssueToken exists for tests and tooling; the
// engine itself never issues tokens.
type Strategy interface {
	IssueToken(userID int64) (string, error)
	ParseToken(token string) (int64, error)
	Name() string
}

type Options struct {
	TTL time.Duration
}
