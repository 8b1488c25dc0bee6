// Package metadata stores the token logo and its off-chain metadata document.
package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/santiagomed/launchpad/logger"
)

// Token is what the uploader needs to know about a token.
type Token struct {
	Name        string
	Symbol      string
	Description string
	Logo        []byte
	LogoName    string
}

// Document is the JSON document a mint's metadata URI points at.
type Document struct {
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image"`
}

// Store puts an object under key and returns the URL it can be read from.
type Store interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
}

// Describer writes a description for tokens that were submitted without one.
type Describer interface {
	Describe(ctx context.Context, name, symbol string) (string, error)
}

type Uploader struct {
	store     Store
	describer Describer
	logger    logger.Logger
}

// NewUploader returns an uploader. describer may be nil.
func NewUploader(store Store, describer Describer, l logger.Logger) *Uploader {
	if l == nil {
		l = logger.NewNullLogger()
	}
	return &Uploader{store: store, describer: describer, logger: l.WithField("component", "metadata")}
}

// Upload stores the logo, then the metadata document referencing it, and
// returns the document URL.
func (u *Uploader) Upload(ctx context.Context, t Token) (string, error) {
	if len(t.Logo) == 0 {
		return "", errors.New("token logo is empty")
	}
	if strings.TrimSpace(t.Name) == "" || strings.TrimSpace(t.Symbol) == "" {
		return "", errors.New("token name and symbol are required")
	}

	prefix := fmt.Sprintf("%s-%s", strings.ToLower(t.Symbol), uuid.NewString())
	contentType := http.DetectContentType(t.Logo)
	imageURL, err := u.store.Put(ctx, path.Join(prefix, logoKey(t.LogoName, contentType)),
		bytes.NewReader(t.Logo), int64(len(t.Logo)), contentType)
	if err != nil {
		return "", fmt.Errorf("upload logo: %w", err)
	}

	description := t.Description
	if description == "" && u.describer != nil {
		description, err = u.describer.Describe(ctx, t.Name, t.Symbol)
		if err != nil {
			u.logger.WithField("error", err.Error()).Warn("Failed to generate token description")
			description = ""
		}
	}

	doc, err := json.Marshal(Document{
		Name:        t.Name,
		Symbol:      t.Symbol,
		Description: description,
		Image:       imageURL,
	})
	if err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}
	uri, err := u.store.Put(ctx, path.Join(prefix, "metadata.json"),
		bytes.NewReader(doc), int64(len(doc)), "application/json")
	if err != nil {
		return "", fmt.Errorf("upload metadata document: %w", err)
	}
	u.logger.Debug(fmt.Sprintf("Metadata for %s stored at %s", t.Symbol, uri))
	return uri, nil
}

func logoKey(name, contentType string) string {
	ext := path.Ext(name)
	if ext == "" {
		ext = "." + strings.TrimPrefix(contentType, "image/")
	}
	return "logo" + strings.ToLower(ext)
}
