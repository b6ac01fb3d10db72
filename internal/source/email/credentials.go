package email

import (
	"fmt"

	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/emersion/go-sasl"
)

// Credentials authenticate a freshly connected IMAP client. The two
// variants are PasswordCredentials and BearerCredentials.
type Credentials interface {
	Username() string
	authenticate(c *imapclient.Client, host string, port int) error
}

// PasswordCredentials log in with LOGIN.
type PasswordCredentials struct {
	User     string
	Password string
}

func (p PasswordCredentials) Username() string { return p.User }

func (p PasswordCredentials) authenticate(c *imapclient.Client, _ string, _ int) error {
	return c.Login(p.User, p.Password).Wait()
}

// Mechanism is the SASL mechanism used to present a bearer token.
type Mechanism string

const (
	MechanismXOAuth2     Mechanism = "xoauth2"
	MechanismOAuthBearer Mechanism = "oauthbearer"
)

// BearerCredentials authenticate with an OAuth2 access token.
type BearerCredentials struct {
	User        string
	AccessToken string
	Mechanism   Mechanism
}

func (b BearerCredentials) Username() string { return b.User }

func (b BearerCredentials) authenticate(c *imapclient.Client, host string, port int) error {
	return c.Authenticate(b.saslClient(host, port))
}

func (b BearerCredentials) saslClient(host string, port int) sasl.Client {
	switch b.Mechanism {
	case MechanismOAuthBearer:
		return sasl.NewOAuthBearerClient(&sasl.OAuthBearerOptions{
			Username: b.User,
			Token:    b.AccessToken,
			Host:     host,
			Port:     port,
		})
	default:
		return &xoauth2Client{username: b.User, token: b.AccessToken}
	}
}

// xoauth2Client implements the XOAUTH2 SASL mechanism.
type xoauth2Client struct {
	username string
	token    string
}

func (a *xoauth2Client) Start() (mech string, ir []byte, err error) {
	ir = []byte("user=" + a.username + "\x01auth=Bearer " + a.token + "\x01\x01")
	return "XOAUTH2", ir, nil
}

// Next is only called when the server rejected the token; the challenge
// carries a JSON status document.
func (a *xoauth2Client) Next(challenge []byte) ([]byte, error) {
	return nil, fmt.Errorf("XOAUTH2 rejected: %s", challenge)
}
