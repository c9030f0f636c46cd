package core

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

// memDirectory is an in-memory AccountDirectory.
type memDirectory struct {
	mu          sync.Mutex
	identifiers map[string]bool
	emails      map[string]bool
	roles       map[string]bool
	created     []Candidate
	activated   []bool
	createErr   map[string]error // keyed by identifier
	lookupErr   error
	emailChecks int
}

func newMemDirectory() *memDirectory {
	return &memDirectory{
		identifiers: map[string]bool{},
		emails:      map[string]bool{},
		roles:       map[string]bool{DefaultRole: true, "editor": true},
		createErr:   map[string]error{},
	}
}

func (d *memDirectory) addAccount(identifier, email string) {
	d.identifiers[strings.ToLower(identifier)] = true
	d.emails[strings.ToLower(email)] = true
}

func (d *memDirectory) ExistsByIdentifier(ctx context.Context, identifier string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lookupErr != nil {
		return false, d.lookupErr
	}
	return d.identifiers[strings.ToLower(identifier)], nil
}

func (d *memDirectory) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.emailChecks++
	if d.lookupErr != nil {
		return false, d.lookupErr
	}
	return d.emails[strings.ToLower(email)], nil
}

func (d *memDirectory) RoleExists(ctx context.Context, role string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.roles[role], nil
}

func (d *memDirectory) CreateAccount(ctx context.Context, c Candidate, activate bool) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.createErr[c.Identifier]; err != nil {
		return "", err
	}
	d.identifiers[strings.ToLower(c.Identifier)] = true
	d.emails[strings.ToLower(c.Email)] = true
	d.created = append(d.created, c)
	d.activated = append(d.activated, activate)
	return fmt.Sprintf("acct-%d", len(d.created)), nil
}

func (d *memDirectory) CreateRole(ctx context.Context, name, label string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.roles[name] = true
	return nil
}

func (d *memDirectory) Roles(ctx context.Context) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	names := make([]string, 0, len(d.roles))
	for name := range d.roles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

type readResult struct {
	fields []string
	err    error
}

// sliceSource serves fixed records for any locator.
type sliceSource struct {
	records []readResult
	openErr error
	reads   int
	closed  int
}

func newSliceSource(rows ...[]string) *sliceSource {
	s := &sliceSource{}
	for _, r := range rows {
		s.records = append(s.records, readResult{fields: r})
	}
	return s
}

func (s *sliceSource) Open(ctx context.Context, locator string, delim Delimiter) (RowReader, error) {
	if s.openErr != nil {
		return nil, s.openErr
	}
	return &sliceReader{src: s}, nil
}

type sliceReader struct {
	src *sliceSource
	pos int
}

func (r *sliceReader) Next() ([]string, error) {
	if r.pos >= len(r.src.records) {
		return nil, io.EOF
	}
	rec := r.src.records[r.pos]
	r.pos++
	r.src.reads++
	return rec.fields, rec.err
}

func (r *sliceReader) Close() error {
	r.src.closed++
	return nil
}

// recordingNotifier captures welcome notifications.
type recordingNotifier struct {
	sent []string
	err  error
}

func (n *recordingNotifier) SendWelcome(ctx context.Context, accountID string) error {
	n.sent = append(n.sent, accountID)
	return n.err
}
