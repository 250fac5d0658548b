// Package custody owns encrypted-at-rest private key records. At most one
// record may exist per (address, identity class) pair; a second write is a
// conflict, never an overwrite, because replacing a key would orphan the
// identity controlled by the original.
package custody

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	id "custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
)

// Record is the unit held in the secret store for one generated identity.
type Record struct {
	Address   string
	Class     id.IdentityClass
	SealedKey []byte
	CreatedAt time.Time
}

// SecretStore is the narrow surface of the external key/value secret backend.
// Read returns (nil, nil) when the path does not exist; absence is a normal
// outcome, not an error.
type SecretStore interface {
	Read(ctx context.Context, mount, path string) (map[string]any, error)
	Write(ctx context.Context, mount, path string, data map[string]any) error
}

// Clock abstracts time.Now for testability.
type Clock func() time.Time

// Store maps custody records onto secret-store paths and enforces the
// single-write invariant.
//
// The read-before-write existence check is a narrow race under true
// concurrency; the ledger's duplicate-registration revert is the
// authoritative guard and this check is the second line of defense.
type Store struct {
	secrets SecretStore
	mount   string
	prefix  string
	clock   Clock
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock function for testability.
func WithClock(clock Clock) Option {
	return func(s *Store) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewStore builds a custody store over the given secret backend. Paths are
// constructed as <prefix>/<identity_class>/<address> under mount.
func NewStore(secrets SecretStore, mount, prefix string, opts ...Option) *Store {
	s := &Store{
		secrets: secrets,
		mount:   mount,
		prefix:  prefix,
		clock:   time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Path derives the secret-store path for one identity.
func (s *Store) Path(address string, class id.IdentityClass) string {
	return fmt.Sprintf("%s/%s/%s", s.prefix, class, address)
}

// StoreKey persists a sealed private key. Fails with CodeAlreadyExists when a
// record is already present at the derived path; the first record stays
// intact.
func (s *Store) StoreKey(ctx context.Context, address string, class id.IdentityClass, sealedKey []byte) error {
	path := s.Path(address, class)

	existing, err := s.secrets.Read(ctx, s.mount, path)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "read custody record before write")
	}
	if existing != nil {
		return dErrors.Newf(dErrors.CodeAlreadyExists,
			"custody record already exists for %s identity %s", class, address)
	}

	data := map[string]any{
		"private_key":    base64.StdEncoding.EncodeToString(sealedKey),
		"identity_class": class.String(),
		"created_at":     s.clock().UTC().Format(time.RFC3339),
	}
	if err := s.secrets.Write(ctx, s.mount, path, data); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "write custody record")
	}
	return nil
}

// RetrieveKey loads the sealed private key for one identity. Fails with
// CodeNotFound when no record exists.
func (s *Store) RetrieveKey(ctx context.Context, address string, class id.IdentityClass) ([]byte, error) {
	path := s.Path(address, class)

	data, err := s.secrets.Read(ctx, s.mount, path)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "read custody record")
	}
	if data == nil {
		return nil, dErrors.Newf(dErrors.CodeNotFound,
			"no custody record for %s identity %s", class, address)
	}

	encoded, ok := data["private_key"].(string)
	if !ok {
		return nil, dErrors.New(dErrors.CodeInternal, "custody record has no private_key field")
	}
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "decode custody record payload")
	}
	return sealed, nil
}
