package telephony

import (
	"fmt"
	"strings"
	"time"

	"framing-command-center/internal/apperr"
	"framing-command-center/internal/config"

	twiliojwt "github.com/twilio/twilio-go/client/jwt"
)

const (
	AccessTokenTTL = time.Hour
	// DefaultIdentity is used when the softphone does not name itself.
	DefaultIdentity = "dashboard"

	maxIdentityLen = 121
)

// AccessTokenIssuer signs Voice SDK access tokens for the browser softphone.
type AccessTokenIssuer struct {
	accountSID string
	keySID     string
	keySecret  string
	appSID     string
	ttl        time.Duration
	now        func() time.Time
}

// NewAccessTokenIssuer signs with the API key when one is configured and
// falls back to the account SID and auth token otherwise.
func NewAccessTokenIssuer(cfg config.TwilioConfig) *AccessTokenIssuer {
	keySID, keySecret := cfg.APIKeySID, cfg.APIKeySecret
	if keySID == "" {
		keySID, keySecret = cfg.AccountSID, cfg.AuthToken
	}
	return &AccessTokenIssuer{
		accountSID: cfg.AccountSID,
		keySID:     keySID,
		keySecret:  keySecret,
		appSID:     cfg.TwimlAppSID,
		ttl:        AccessTokenTTL,
		now:        time.Now,
	}
}

func (i *AccessTokenIssuer) Configured() bool {
	return i != nil && i.accountSID != "" && i.keySID != "" && i.keySecret != ""
}

func (i *AccessTokenIssuer) Issue(identity string) (string, error) {
	if !i.Configured() {
		return "", ErrNotConfigured
	}
	identity = strings.TrimSpace(identity)
	if identity == "" {
		identity = DefaultIdentity
	}
	if len(identity) > maxIdentityLen {
		return "", apperr.Validation("identity", fmt.Sprintf("must be at most %d characters", maxIdentityLen))
	}

	now := i.now().UTC()
	token := twiliojwt.CreateAccessToken(twiliojwt.AccessTokenParams{
		AccountSid:    i.accountSID,
		SigningKeySid: i.keySID,
		Secret:        i.keySecret,
		Identity:      identity,
		Nbf:           float64(now.Unix()),
		Ttl:           i.ttl.Seconds(),
		ValidUntil:    float64(now.Add(i.ttl).Unix()),
	})

	grant := &twiliojwt.VoiceGrant{Incoming: twiliojwt.Incoming{Allow: true}}
	if i.appSID != "" {
		grant.Outgoing = twiliojwt.Outgoing{ApplicationSid: i.appSID}
	}
	token.AddGrant(grant)

	return token.ToJwt()
}
