package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/shortreel/backend/internal/logging"
	"github.com/shortreel/backend/internal/media"
	"github.com/shortreel/backend/internal/models"
	"github.com/shortreel/backend/internal/storage"
)

// maxFieldSize caps the non-file form fields read ahead of the file part.
const maxFieldSize = 4 << 10

// formOverhead leaves room for multipart boundaries and the credential fields.
const formOverhead = 1 << 20

// MediaHandler issues upload credentials and accepts direct media uploads.
type MediaHandler struct {
	Signer  UploadSigner
	Storage ObjectStorage
	Limiter RateLimiter
}

// Credential handles GET /api/auth/imagekit-auth.
func (h MediaHandler) Credential(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "media-credential") {
		logger.Warn("upload credential rate limited", "ip", clientIP(r))
		respondError(ctx, w, http.StatusTooManyRequests, "too many requests")
		return
	}

	if h.Signer == nil {
		logger.Error("upload signer unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "Failed to get upload credentials")
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	respondJSON(ctx, w, http.StatusOK, h.Signer.Issue())
}

// Upload handles POST /api/media/upload. Credential fields must precede the
// file part so the file can be streamed straight to storage.
func (h MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Signer == nil || h.Storage == nil {
		logger.Error("media dependencies unavailable", "hasSigner", h.Signer != nil, "hasStorage", h.Storage != nil)
		respondError(ctx, w, http.StatusInternalServerError, "media services unavailable")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, media.MaxVideoSize+formOverhead)
	reader, err := r.MultipartReader()
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, "expected multipart form")
		return
	}

	fields := make(map[string]string)
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			respondError(ctx, w, http.StatusBadRequest, "file is required")
			return
		}
		if err != nil {
			respondReadError(w, r, err)
			return
		}

		if part.FormName() != "file" {
			value, err := io.ReadAll(io.LimitReader(part, maxFieldSize))
			part.Close()
			if err != nil {
				respondReadError(w, r, err)
				return
			}
			fields[part.FormName()] = strings.TrimSpace(string(value))
			continue
		}

		h.store(w, r, fields, part)
		part.Close()
		return
	}
}

func (h MediaHandler) store(w http.ResponseWriter, r *http.Request, fields map[string]string, part *multipart.Part) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	expire, err := strconv.ParseInt(fields["expire"], 10, 64)
	if err != nil || fields["token"] == "" || fields["signature"] == "" || fields["publicKey"] == "" {
		respondError(ctx, w, http.StatusBadRequest, "publicKey, signature, expire and token must precede the file")
		return
	}

	cred := models.UploadCredential{Token: fields["token"], Signature: fields["signature"], Expire: expire}
	if err := h.Signer.Verify(fields["publicKey"], cred); err != nil {
		status := http.StatusForbidden
		if errors.Is(err, media.ErrInvalidPublicKey) {
			status = http.StatusUnauthorized
		}
		logger.Warn("upload credential rejected", "error", err)
		respondError(ctx, w, status, err.Error())
		return
	}

	contentType := part.Header.Get("Content-Type")
	kind, ok := media.KindOf(contentType)
	if !ok {
		respondError(ctx, w, http.StatusUnsupportedMediaType, "only video and image files are accepted")
		return
	}

	name := fields["fileName"]
	if name == "" {
		name = part.FileName()
	}
	name = path.Base(filepath.ToSlash(name))

	id := uuid.NewString()
	key := fmt.Sprintf("%ss/%s%s", kind, id, strings.ToLower(filepath.Ext(name)))

	body := &limitedReader{r: part, remaining: kind.MaxSize()}
	saveCtx, span := logging.StartSpan(ctx, "media.save")
	url, err := h.Storage.Save(saveCtx, storage.Object{Key: key, ContentType: contentType}, body)
	if body.exceeded {
		span.End()
	} else {
		span.EndWithError(err)
	}
	if body.exceeded {
		logger.Warn("upload exceeded size limit", "kind", kind, "limit", kind.MaxSize())
		respondError(ctx, w, http.StatusRequestEntityTooLarge, "File size must be less than "+kind.SizeLabel())
		return
	}
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(ctx, w, http.StatusRequestEntityTooLarge, "File size must be less than "+kind.SizeLabel())
			return
		}
		logger.Error("store upload failed", "error", err, "key", key)
		respondError(ctx, w, http.StatusInternalServerError, "Upload failed")
		return
	}

	fileType := "non-image"
	if kind == media.KindImage {
		fileType = "image"
	}

	logger.Info("media uploaded", "key", key, "size", body.read)
	respondJSON(ctx, w, http.StatusOK, models.UploadResult{
		URL:      url,
		FileID:   id,
		Name:     name,
		FilePath: "/" + key,
		FileType: fileType,
		Size:     body.read,
	})
}

func respondReadError(w http.ResponseWriter, r *http.Request, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		respondError(r.Context(), w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	respondError(r.Context(), w, http.StatusBadRequest, "malformed multipart form")
}

var errTooLarge = errors.New("file exceeds size limit")

// limitedReader fails once more than remaining bytes have been read.
type limitedReader struct {
	r         io.Reader
	remaining int64
	read      int64
	exceeded  bool
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.exceeded {
		return 0, errTooLarge
	}
	if int64(len(p)) > l.remaining+1 {
		p = p[:l.remaining+1]
	}
	n, err := l.r.Read(p)
	l.read += int64(n)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		l.exceeded = true
		return n, errTooLarge
	}
	return n, err
}
