package media

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shortreel/backend/internal/models"
)

// MaxCredentialTTL is the longest lifetime the media service accepts for an upload credential.
const MaxCredentialTTL = time.Hour

var (
	// ErrInvalidPublicKey indicates the upload named a key other than ours.
	ErrInvalidPublicKey = errors.New("invalid public key")
	// ErrInvalidSignature indicates the token/expire pair was not signed with our private key.
	ErrInvalidSignature = errors.New("invalid upload signature")
	// ErrCredentialExpired indicates the expire timestamp is in the past or too far ahead.
	ErrCredentialExpired = errors.New("upload credential expired")
	// ErrTokenReused indicates the token already authorized an upload.
	ErrTokenReused = errors.New("upload token already used")
)

// Signer issues and verifies short-lived direct-upload credentials.
// The signature is hex(HMAC-SHA1(privateKey, token+expire)).
type Signer struct {
	publicKey  string
	privateKey []byte
	ttl        time.Duration
	now        func() time.Time

	mu   sync.Mutex
	used map[string]time.Time
}

// NewSigner constructs a Signer. ttl is clamped to MaxCredentialTTL.
func NewSigner(publicKey, privateKey string, ttl time.Duration) *Signer {
	if ttl <= 0 || ttl > MaxCredentialTTL {
		ttl = MaxCredentialTTL
	}
	return &Signer{
		publicKey:  publicKey,
		privateKey: []byte(privateKey),
		ttl:        ttl,
		now:        time.Now,
		used:       make(map[string]time.Time),
	}
}

// PublicKey returns the key clients must present with uploads.
func (s *Signer) PublicKey() string {
	return s.publicKey
}

// Issue creates a fresh credential.
func (s *Signer) Issue() models.UploadCredential {
	token := uuid.NewString()
	expire := s.now().Add(s.ttl).Unix()
	return models.UploadCredential{
		Token:     token,
		Signature: s.sign(token, expire),
		Expire:    expire,
	}
}

// Verify checks an upload's credential fields and consumes the token.
func (s *Signer) Verify(publicKey string, cred models.UploadCredential) error {
	if publicKey != s.publicKey {
		return ErrInvalidPublicKey
	}

	expected := s.sign(cred.Token, cred.Expire)
	if cred.Token == "" || !hmac.Equal([]byte(expected), []byte(cred.Signature)) {
		return ErrInvalidSignature
	}

	now := s.now()
	expiresAt := time.Unix(cred.Expire, 0)
	if !now.Before(expiresAt) || expiresAt.Sub(now) > MaxCredentialTTL {
		return ErrCredentialExpired
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for token, until := range s.used {
		if now.After(until) {
			delete(s.used, token)
		}
	}
	if _, seen := s.used[cred.Token]; seen {
		return ErrTokenReused
	}
	s.used[cred.Token] = expiresAt
	return nil
}

func (s *Signer) sign(token string, expire int64) string {
	mac := hmac.New(sha1.New, s.privateKey)
	mac.Write([]byte(token + strconv.FormatInt(expire, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}
