package core

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// maxEmailAliases bounds the "+n" suffixes tried for a colliding address.
const maxEmailAliases = 999

// Action is the verdict of the duplicate policy.
type Action int

const (
	ActionProceed Action = iota
	ActionSkip
)

func (a Action) String() string {
	if a == ActionSkip {
		return "skip"
	}
	return "proceed"
}

// Decision is the outcome of DuplicatePolicy.Resolve. Candidate carries the
// possibly rewritten e-mail when Action is ActionProceed.
type Decision struct {
	Action    Action
	Candidate Candidate
	// Rewritten is true when the e-mail was replaced with a "+n" alias.
	Rewritten bool
}

// ExistenceChecker answers uniqueness queries. AccountDirectory satisfies it.
type ExistenceChecker interface {
	ExistsByIdentifier(ctx context.Context, identifier string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// DuplicatePolicy decides what happens to a candidate that collides with an
// existing account.
//
// An existing identifier always skips. An existing e-mail skips unless
// duplicate e-mails are allowed, in which case the address is rewritten to the
// first free local+n@domain alias.
type DuplicatePolicy struct {
	accounts ExistenceChecker
}

// NewDuplicatePolicy creates a policy backed by accounts.
func NewDuplicatePolicy(accounts ExistenceChecker) *DuplicatePolicy {
	return &DuplicatePolicy{accounts: accounts}
}

// Resolve returns the decision for c. Lookup failures are returned as errors;
// exhausting all aliases returns *DuplicateResolutionError.
func (p *DuplicatePolicy) Resolve(ctx context.Context, c Candidate, allowDuplicateEmails bool) (Decision, error) {
	exists, err := p.accounts.ExistsByIdentifier(ctx, c.Identifier)
	if err != nil {
		return Decision{}, fmt.Errorf("check identifier %q: %w", c.Identifier, err)
	}
	if exists {
		return Decision{Action: ActionSkip, Candidate: c}, nil
	}

	exists, err = p.accounts.ExistsByEmail(ctx, c.Email)
	if err != nil {
		return Decision{}, fmt.Errorf("check email %q: %w", c.Email, err)
	}
	if !exists {
		return Decision{Action: ActionProceed, Candidate: c}, nil
	}
	if !allowDuplicateEmails {
		return Decision{Action: ActionSkip, Candidate: c}, nil
	}

	alias, err := p.freeAlias(ctx, c.Email)
	if err != nil {
		return Decision{}, err
	}
	c.Email = alias
	return Decision{Action: ActionProceed, Candidate: c, Rewritten: true}, nil
}

func (p *DuplicatePolicy) freeAlias(ctx context.Context, email string) (string, error) {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return "", &DuplicateResolutionError{Email: email}
	}
	local, domain := email[:at], email[at+1:]

	for n := 1; n <= maxEmailAliases; n++ {
		alias := local + "+" + strconv.Itoa(n) + "@" + domain
		exists, err := p.accounts.ExistsByEmail(ctx, alias)
		if err != nil {
			return "", fmt.Errorf("check email %q: %w", alias, err)
		}
		if !exists {
			return alias, nil
		}
	}
	return "", &DuplicateResolutionError{Email: email, Attempts: maxEmailAliases}
}
