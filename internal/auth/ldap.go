package auth

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/rs/zerolog/log"

	"github.com/kandinsky-studio/design-shop/internal/config"
)

// ErrLDAPDisabled is returned when LDAP authentication is disabled via configuration.
var ErrLDAPDisabled = errors.New("ldap authentication is disabled")

const (
	defaultLDAPUserFilter  = "(uid={username})"
	defaultLDAPGroupFilter = "(member={userdn})"
	defaultLDAPTimeout     = 10
)

// LDAPProvider authenticates admins against LDAP or Active Directory.
type LDAPProvider struct {
	config config.LDAPAuth
}

// NewLDAPProvider creates a new LDAP provider.
func NewLDAPProvider(cfg config.LDAPAuth) (*LDAPProvider, error) {
	if !cfg.Enabled {
		return nil, ErrLDAPDisabled
	}

	// Set defaults
	if cfg.UserFilter == "" {
		cfg.UserFilter = defaultLDAPUserFilter
	}

	if cfg.GroupFilter == "" {
		cfg.GroupFilter = defaultLDAPGroupFilter
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = defaultLDAPTimeout
	}

	if cfg.Port == 0 {
		cfg.Port = 389
		if cfg.UseSSL {
			cfg.Port = 636
		}
	}

	return &LDAPProvider{config: cfg}, nil
}

// Name of the provider.
func (p *LDAPProvider) Name() string {
	return ProviderLDAP
}

// Connect establishes a connection to the LDAP server.
func (p *LDAPProvider) Connect() (*ldap.Conn, error) {
	hostPort := net.JoinHostPort(p.config.Host, strconv.Itoa(p.config.Port))

	ldapURL := "ldap://" + hostPort
	if p.config.UseSSL {
		ldapURL = "ldaps://" + hostPort
	}

	var tlsConfig *tls.Config
	if p.config.UseSSL || p.config.UseTLS {
		tlsConfig = &tls.Config{
			InsecureSkipVerify: p.config.SkipVerify, //nolint:gosec // skipping verifying tls is ok
			ServerName:         p.config.Host,
		}
	}

	conn, err := ldap.DialURL(ldapURL,
		ldap.DialWithTLSConfig(tlsConfig),
		ldap.DialWithDialer(&net.Dialer{Timeout: time.Duration(p.config.Timeout) * time.Second}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to LDAP server: %w", err)
	}

	// Upgrade to TLS if requested (for non-SSL connections)
	if !p.config.UseSSL && p.config.UseTLS {
		if errStartTLS := conn.StartTLS(tlsConfig); errStartTLS != nil {
			if errClose := conn.Close(); errClose != nil {
				log.Error().Err(errClose).Msg("failed to close LDAP connection")
			}

			return nil, fmt.Errorf("failed to start TLS: %w", errStartTLS)
		}
	}

	conn.SetTimeout(time.Duration(p.config.Timeout) * time.Second)

	return conn, nil
}

// Authenticate binds as the user and, when an admin group is configured,
// checks the membership. The username is returned as subject.
func (p *LDAPProvider) Authenticate(_ context.Context, creds Credentials) (string, error) {
	// an empty password would be an unauthenticated bind and succeed
	if creds.Username == "" || creds.Password == "" {
		return "", ErrInvalidCredentials
	}

	conn, err := p.Connect()
	if err != nil {
		return "", err
	}

	defer func() {
		if errClose := conn.Close(); errClose != nil {
			log.Warn().Err(errClose).Msg("failed to close LDAP connection")
		}
	}()

	if err = p.bindService(conn); err != nil {
		return "", err
	}

	userEntry, err := p.searchUserEntry(conn, creds.Username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
		}

		return "", err
	}

	if err = conn.Bind(userEntry.DN, creds.Password); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}

	if p.config.AdminGroupDN != "" {
		if err = p.bindService(conn); err != nil {
			return "", err
		}

		if err = p.checkAdminGroup(conn, userEntry.DN); err != nil {
			return "", err
		}
	}

	return creds.Username, nil
}

// bindService binds with the configured service account, if any.
func (p *LDAPProvider) bindService(conn *ldap.Conn) error {
	if p.config.BindDN == "" {
		return nil
	}

	if err := conn.Bind(p.config.BindDN, p.config.BindPassword); err != nil {
		return fmt.Errorf("failed to bind with service account: %w", err)
	}

	return nil
}

func (p *LDAPProvider) userFilter(username string) string {
	return strings.ReplaceAll(p.config.UserFilter, "{username}", ldap.EscapeFilter(username))
}

func (p *LDAPProvider) memberFilter(userDN string) string {
	return strings.ReplaceAll(p.config.GroupFilter, "{userdn}", ldap.EscapeFilter(userDN))
}

// searchUserEntry searches LDAP for the given username and returns a single entry.
func (p *LDAPProvider) searchUserEntry(conn *ldap.Conn, username string) (*ldap.Entry, error) {
	searchRequest := ldap.NewSearchRequest(
		p.config.BaseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		0, // Size limit
		p.config.Timeout,
		false,
		p.userFilter(username),
		[]string{"dn"},
		nil,
	)

	searchResult, err := conn.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("failed to search for user: %w", err)
	}

	switch len(searchResult.Entries) {
	case 0:
		return nil, ErrUserNotFound
	case 1:
		return searchResult.Entries[0], nil
	default:
		return nil, ErrMultipleUsersFound
	}
}

// checkAdminGroup looks the user up as member of the admin group entry.
func (p *LDAPProvider) checkAdminGroup(conn *ldap.Conn, userDN string) error {
	searchRequest := ldap.NewSearchRequest(
		p.config.AdminGroupDN,
		ldap.ScopeBaseObject,
		ldap.NeverDerefAliases,
		1,
		p.config.Timeout,
		false,
		p.memberFilter(userDN),
		[]string{"dn"},
		nil,
	)

	searchResult, err := conn.Search(searchRequest)
	if err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultNoSuchObject) {
			return fmt.Errorf("%w: admin group %s does not exist", ErrInvalidCredentials, p.config.AdminGroupDN)
		}

		return fmt.Errorf("failed to search admin group: %w", err)
	}

	if len(searchResult.Entries) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidCredentials, ErrNotAdmin)
	}

	return nil
}
