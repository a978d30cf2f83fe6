package directory

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/go-ldap/ldap/v3"

	"github.com/medunigraz/idmsync/internal/errs"
	"github.com/medunigraz/idmsync/internal/model"
)

var (
	ErrDial   = errors.New("failed to connect to directory")
	ErrBind   = errors.New("failed to bind to directory")
	ErrSearch = errors.New("directory search failed")
	ErrModify = errors.New("directory modify failed")
)

// Entry is one directory object with the attributes a search asked for.
type Entry struct {
	DN         string
	Attributes map[string][]string
}

// First returns the first value of the attribute, or "".
func (e Entry) First(attr string) string {
	values := e.Attributes[attr]
	if len(values) == 0 {
		return ""
	}

	return values[0]
}

// Session is an authenticated connection to one LDAP target. CheckBind uses
// a connection of its own so credential probes never disturb the session.
type Session interface {
	SearchPaged(ctx context.Context, baseDN, filter string, attrs []string) ([]Entry, error)
	Add(ctx context.Context, dn string, attrs map[string][]string) error
	ModifyAdd(ctx context.Context, dn, attr string, values []string) error
	ModifyDelete(ctx context.Context, dn, attr string, values []string) error
	Delete(ctx context.Context, dn string) error
	CheckBind(ctx context.Context, dn, password string) (bool, error)
	Close() error
}

// Connector opens a Session against a target.
type Connector func(ctx context.Context, target *model.LDAPTarget) (Session, error)

// Options hold the client defaults shared by all targets.
type Options struct {
	PageSize    uint32
	DialTimeout time.Duration
	DialRetries uint
}

// NewConnector builds a Connector dialing with retries and binding with the
// target's service credentials.
func NewConnector(opts Options) Connector {
	return func(ctx context.Context, target *model.LDAPTarget) (Session, error) {
		conn, err := dial(ctx, target, opts)
		if err != nil {
			return nil, err
		}

		err = conn.Bind(target.BindDN, target.BindPassword)
		if err != nil {
			_ = conn.Close()
			return nil, errs.Wrap(ErrBind, err)
		}

		return &ldapSession{
			conn:   conn,
			target: target,
			opts:   opts,
		}, nil
	}
}

func dial(ctx context.Context, target *model.LDAPTarget, opts Options) (*ldap.Conn, error) {
	retrier := retry.NewWithData[*ldap.Conn](
		retry.Attempts(opts.DialRetries),
		retry.Context(ctx),
	)

	conn, err := retrier.Do(func() (*ldap.Conn, error) {
		return ldap.DialURL(
			target.URL,
			ldap.DialWithDialer(&net.Dialer{Timeout: opts.DialTimeout}),
		)
	})
	if err != nil {
		return nil, errs.Wrap(ErrDial, err)
	}

	return conn, nil
}

type ldapSession struct {
	conn   *ldap.Conn
	target *model.LDAPTarget
	opts   Options
}

func (s *ldapSession) SearchPaged(
	_ context.Context,
	baseDN, filter string,
	attrs []string,
) ([]Entry, error) {
	req := ldap.NewSearchRequest(
		baseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		0, 0, false,
		filter,
		attrs,
		nil,
	)

	res, err := s.conn.SearchWithPaging(req, s.opts.PageSize)
	if err != nil {
		return nil, errs.Wrap(ErrSearch, err)
	}

	entries := make([]Entry, 0, len(res.Entries))

	for _, e := range res.Entries {
		attributes := make(map[string][]string, len(e.Attributes))
		for _, a := range e.Attributes {
			attributes[a.Name] = a.Values
		}

		entries = append(entries, Entry{DN: e.DN, Attributes: attributes})
	}

	return entries, nil
}

func (s *ldapSession) Add(_ context.Context, dn string, attrs map[string][]string) error {
	req := ldap.NewAddRequest(dn, nil)
	for name, values := range attrs {
		req.Attribute(name, values)
	}

	err := s.conn.Add(req)
	if err != nil {
		return errs.Wrap(ErrModify, err)
	}

	return nil
}

func (s *ldapSession) ModifyAdd(_ context.Context, dn, attr string, values []string) error {
	req := ldap.NewModifyRequest(dn, nil)
	req.Add(attr, values)

	err := s.conn.Modify(req)
	if err != nil {
		return errs.Wrap(ErrModify, err)
	}

	return nil
}

func (s *ldapSession) ModifyDelete(_ context.Context, dn, attr string, values []string) error {
	req := ldap.NewModifyRequest(dn, nil)
	req.Delete(attr, values)

	err := s.conn.Modify(req)
	if err != nil {
		return errs.Wrap(ErrModify, err)
	}

	return nil
}

func (s *ldapSession) Delete(_ context.Context, dn string) error {
	req := ldap.NewDelRequest(dn, nil)

	err := s.conn.Del(req)
	if err != nil {
		return errs.Wrap(ErrModify, err)
	}

	return nil
}

// CheckBind reports whether dn authenticates with password. Invalid
// credentials are a negative result, not an error.
func (s *ldapSession) CheckBind(ctx context.Context, dn, password string) (bool, error) {
	conn, err := dial(ctx, s.target, s.opts)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	err = conn.Bind(dn, password)
	if err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultInvalidCredentials) {
			return false, nil
		}

		return false, errs.Wrap(ErrBind, err)
	}

	return true, nil
}

func (s *ldapSession) Close() error {
	return s.conn.Close()
}
