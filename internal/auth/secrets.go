package auth

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	KeychainService = "fbads-mcp"
	SecretToken     = "token"
	SecretAppSecret = "app_secret"

	// EnvAccessToken overrides the keyring-stored token when set. Useful for
	// CI and for MCP clients that inject the credential via environment.
	EnvAccessToken = "FB_ACCESS_TOKEN"
	EnvAppSecret   = "FB_APP_SECRET"
)

type SecretStore interface {
	Set(ref string, value string) error
	Get(ref string) (string, error)
	Delete(ref string) error
}

type KeychainStore struct {
	service string
	backend keyringBackend
}

type keyringBackend interface {
	Set(service, user, password string) error
	Get(service, user string) (string, error)
	Delete(service, user string) error
}

type defaultKeyringBackend struct{}

func (defaultKeyringBackend) Set(service, user, password string) error {
	return keyring.Set(service, user, password)
}

func (defaultKeyringBackend) Get(service, user string) (string, error) {
	return keyring.Get(service, user)
}

func (defaultKeyringBackend) Delete(service, user string) error {
	return keyring.Delete(service, user)
}

func NewKeychainStore() *KeychainStore {
	return &KeychainStore{
		service: KeychainService,
		backend: defaultKeyringBackend{},
	}
}

func SecretRef(profile string, kind string) (string, error) {
	profile = strings.TrimSpace(profile)
	if profile == "" {
		return "", errors.New("profile is required for secret ref")
	}

	switch kind {
	case SecretToken, SecretAppSecret:
	default:
		return "", fmt.Errorf("unsupported secret kind %q", kind)
	}

	return fmt.Sprintf("keychain://%s/%s/%s", KeychainService, profile, kind), nil
}

func ParseSecretRef(ref string) (string, string, error) {
	if !strings.HasPrefix(ref, "keychain://") {
		return "", "", fmt.Errorf("invalid secret ref %q: expected keychain:// prefix", ref)
	}
	trimmed := strings.TrimPrefix(ref, "keychain://")
	parts := strings.Split(trimmed, "/")
	if len(parts) != 3 {
		return "", "", fmt.Errorf("invalid secret ref %q: expected keychain://<service>/<profile>/<kind>", ref)
	}
	if parts[0] != KeychainService {
		return "", "", fmt.Errorf("invalid secret ref %q: unsupported service %q", ref, parts[0])
	}
	profile := strings.TrimSpace(parts[1])
	kind := strings.TrimSpace(parts[2])
	if profile == "" || kind == "" {
		return "", "", fmt.Errorf("invalid secret ref %q: empty profile or kind", ref)
	}
	if kind != SecretToken && kind != SecretAppSecret {
		return "", "", fmt.Errorf("invalid secret ref %q: unknown kind %q", ref, kind)
	}
	return profile, kind, nil
}

func (s *KeychainStore) Set(ref string, value string) error {
	profile, kind, err := ParseSecretRef(ref)
	if err != nil {
		return err
	}
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("refusing to store empty secret for %q", ref)
	}
	return s.backend.Set(s.service, profile+"/"+kind, value)
}

func (s *KeychainStore) Get(ref string) (string, error) {
	profile, kind, err := ParseSecretRef(ref)
	if err != nil {
		return "", err
	}
	value, err := s.backend.Get(s.service, profile+"/"+kind)
	if err != nil {
		return "", fmt.Errorf("load secret %q from keychain: %w", ref, err)
	}
	return value, nil
}

func (s *KeychainStore) Delete(ref string) error {
	profile, kind, err := ParseSecretRef(ref)
	if err != nil {
		return err
	}
	return s.backend.Delete(s.service, profile+"/"+kind)
}

// ResolveToken returns the access token for a profile: the environment
// override wins, otherwise the keyring ref is consulted. A missing token is
// a fatal startup condition for every caller.
func ResolveToken(store SecretStore, tokenRef string) (string, error) {
	if env := strings.TrimSpace(os.Getenv(EnvAccessToken)); env != "" {
		return env, nil
	}
	if strings.TrimSpace(tokenRef) == "" {
		return "", fmt.Errorf("no access token: set %s or store one in the keychain", EnvAccessToken)
	}
	if store == nil {
		store = NewKeychainStore()
	}
	token, err := store.Get(tokenRef)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("empty access token behind ref %q", tokenRef)
	}
	return token, nil
}

// ResolveAppSecret mirrors ResolveToken for the optional app secret used to
// compute appsecret_proof. Absence is not an error.
func ResolveAppSecret(store SecretStore, secretRef string) (string, error) {
	if env := strings.TrimSpace(os.Getenv(EnvAppSecret)); env != "" {
		return env, nil
	}
	if strings.TrimSpace(secretRef) == "" {
		return "", nil
	}
	if store == nil {
		store = NewKeychainStore()
	}
	return store.Get(secretRef)
}
