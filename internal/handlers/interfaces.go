package handlers

import (
	"context"
	"io"

	"github.com/shortreel/backend/internal/models"
	"github.com/shortreel/backend/internal/storage"
)

// UserStore captures the persistence operations required by the auth handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
}

// SessionManager issues, verifies and revokes authentication tokens.
type SessionManager interface {
	SessionVerifier
	Issue(ctx context.Context, identity models.Identity) (models.SessionTokens, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Revoke(ctx context.Context, refreshToken string)
}

// SessionVerifier resolves an access token to the identity it was issued for.
type SessionVerifier interface {
	Verify(accessToken string) (models.Identity, error)
}

// VideoStore captures persistence for video records.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) (models.Video, error)
	List(ctx context.Context, query string) ([]models.Video, error)
	FindByID(ctx context.Context, id string) (models.Video, error)
	Delete(ctx context.Context, id string) error
}

// UploadSigner issues and verifies direct-upload credentials.
type UploadSigner interface {
	PublicKey() string
	Issue() models.UploadCredential
	Verify(publicKey string, cred models.UploadCredential) error
}

// ObjectStorage persists uploaded media and returns its public URL.
type ObjectStorage interface {
	Save(ctx context.Context, obj storage.Object, r io.Reader) (string, error)
}
