package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"tabletop-companion/internal/domain"
)

// DefaultURLExpiry is how long a presigned export link stays usable.
const DefaultURLExpiry = 15 * time.Minute

// ErrExportDisabled is returned when no bucket is configured.
var ErrExportDisabled = errors.New("export storage is not configured")

// Export points at one uploaded character snapshot.
type Export struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Exporter writes character snapshots to object storage.
type Exporter interface {
	Export(ctx context.Context, character *domain.Character) (*Export, error)
	List(ctx context.Context, ownerID, characterID int64) ([]ObjectInfo, error)
	Purge(ctx context.Context, ownerID, characterID int64) error
}

// CharacterExporter lays snapshots out as <prefix>/<user>/<character>/<uuid>.json.
type CharacterExporter struct {
	store     Service
	bucket    string
	keyPrefix string
	expires   time.Duration
	now       func() time.Time
}

func NewCharacterExporter(store Service, bucket, keyPrefix string) *CharacterExporter {
	return &CharacterExporter{
		store:     store,
		bucket:    strings.TrimSpace(bucket),
		keyPrefix: strings.Trim(keyPrefix, "/"),
		expires:   DefaultURLExpiry,
		now:       time.Now,
	}
}

func (e *CharacterExporter) enabled() bool {
	return e != nil && e.store != nil && e.bucket != ""
}

func (e *CharacterExporter) Export(ctx context.Context, character *domain.Character) (*Export, error) {
	if !e.enabled() {
		return nil, ErrExportDisabled
	}
	if character == nil {
		return nil, fmt.Errorf("character is required")
	}

	payload, err := json.MarshalIndent(character.Flatten(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal character %d: %w", character.ID, err)
	}

	key := path.Join(e.characterPrefix(character.UserID, character.ID), uuid.NewString()+".json")
	if err := e.store.PutObject(ctx, e.bucket, key, bytes.NewReader(payload), PutOptions{ContentType: "application/json"}); err != nil {
		return nil, err
	}

	issued := e.now()
	url, err := e.store.GetObjectURL(ctx, e.bucket, key, e.expires)
	if err != nil {
		return nil, err
	}
	return &Export{Key: key, URL: url, ExpiresAt: issued.Add(e.expires).UTC()}, nil
}

// List returns the snapshots stored for a character, oldest first.
func (e *CharacterExporter) List(ctx context.Context, ownerID, characterID int64) ([]ObjectInfo, error) {
	if !e.enabled() {
		return nil, ErrExportDisabled
	}
	objects, err := e.store.ListObjects(ctx, e.bucket, e.characterPrefix(ownerID, characterID)+"/")
	if err != nil {
		return nil, err
	}
	sort.SliceStable(objects, func(i, j int) bool {
		a, b := objects[i].LastModified, objects[j].LastModified
		if a == nil || b == nil {
			return a == nil && b != nil
		}
		return a.Before(*b)
	})
	if objects == nil {
		objects = []ObjectInfo{}
	}
	return objects, nil
}

// Purge drops every snapshot of a character. It is a no-op when exports are disabled.
func (e *CharacterExporter) Purge(ctx context.Context, ownerID, characterID int64) error {
	if !e.enabled() {
		return nil
	}
	return e.store.DeletePrefix(ctx, e.bucket, e.characterPrefix(ownerID, characterID)+"/")
}

func (e *CharacterExporter) characterPrefix(ownerID, characterID int64) string {
	parts := []string{fmt.Sprint(ownerID), fmt.Sprint(characterID)}
	if e.keyPrefix != "" {
		parts = append([]string{e.keyPrefix}, parts...)
	}
	return path.Join(parts...)
}

var _ Exporter = (*CharacterExporter)(nil)
