package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/ivyforms/ivyforms/internal/apperr"
)

const DefaultNonceTTL = 12 * time.Hour

// Nonces issues and checks short-lived tokens bound to an action string,
// such as a form id or an admin session.
type Nonces struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewNonces(secret string, ttl time.Duration) *Nonces {
	if ttl <= 0 {
		ttl = DefaultNonceTTL
	}
	return &Nonces{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// FormAction is the nonce action for submitting a form.
func FormAction(formID int64) string {
	return "ivyforms_submit_" + strconv.FormatInt(formID, 10)
}

// AdminAction is the nonce action for an admin session.
func AdminAction(sessionID string) string {
	return "ivyforms_admin_" + sessionID
}

// Issue returns "<expiry>.<mac>".
func (n *Nonces) Issue(action string) string {
	exp := strconv.FormatInt(n.now().Add(n.ttl).Unix(), 10)
	return exp + "." + n.mac(action, exp)
}

// Verify returns a Forbidden error unless token was issued for action and
// has not expired.
func (n *Nonces) Verify(action, token string) error {
	exp, sig, ok := strings.Cut(token, ".")
	if !ok || exp == "" || sig == "" {
		return apperr.Forbidden("invalid nonce")
	}
	expUnix, err := strconv.ParseInt(exp, 10, 64)
	if err != nil {
		return apperr.Forbidden("invalid nonce")
	}
	if !hmac.Equal([]byte(sig), []byte(n.mac(action, exp))) {
		return apperr.Forbidden("invalid nonce")
	}
	if n.now().Unix() >= expUnix {
		return apperr.Forbidden("nonce expired")
	}
	return nil
}

func (n *Nonces) mac(action, exp string) string {
	h := hmac.New(sha256.New, n.secret)
	h.Write([]byte(action))
	h.Write([]byte{0})
	h.Write([]byte(exp))
	return hex.EncodeToString(h.Sum(nil))
}
