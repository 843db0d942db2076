package secrets

import (
	"context"
	"errors"
	"testing"
)

type mockProvider struct {
	values map[string]string
	err    error
	calls  int
}

func (m *mockProvider) GetSecret(ctx context.Context, key string) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return m.values[key], nil
}

func TestAdapterPrimaryWins(t *testing.T) {
	primary := &mockProvider{values: map[string]string{"IP_PEPPER": "from-vault"}}
	fallback := &mockProvider{values: map[string]string{"IP_PEPPER": "from-env"}}
	a := NewAdapterWith(primary, fallback, true)

	got, err := a.GetSecret(context.Background(), "IP_PEPPER")
	if err != nil {
		t.Fatalf("GetSecret failed: %v", err)
	}
	if got != "from-vault" {
		t.Errorf("GetSecret = %q, want from-vault", got)
	}
	if fallback.calls != 0 {
		t.Errorf("fallback consulted %d times, want 0", fallback.calls)
	}
}

func TestAdapterFailClosed(t *testing.T) {
	primary := &mockProvider{err: errors.New("vault sealed")}
	fallback := &mockProvider{values: map[string]string{"IP_PEPPER": "from-env"}}
	a := NewAdapterWith(primary, fallback, true)

	if _, err := a.GetSecret(context.Background(), "IP_PEPPER"); err == nil {
		t.Fatal("expected fail-closed error")
	}
	if fallback.calls != 0 {
		t.Errorf("fallback consulted while fail-closed")
	}
}

func TestAdapterFailOpen(t *testing.T) {
	primary := &mockProvider{err: errors.New("vault sealed")}
	fallback := &mockProvider{values: map[string]string{"IP_PEPPER": "from-env"}}
	a := NewAdapterWith(primary, fallback, false)

	got, err := a.GetSecret(context.Background(), "IP_PEPPER")
	if err != nil {
		t.Fatalf("GetSecret failed: %v", err)
	}
	if got != "from-env" {
		t.Errorf("GetSecret = %q, want from-env", got)
	}
}

func TestAdapterNoProviders(t *testing.T) {
	a := NewAdapterWith(nil, nil, true)
	if _, err := a.GetSecret(context.Background(), "IP_PEPPER"); !errors.Is(err, ErrProviderUnavailable) {
		t.Errorf("expected ErrProviderUnavailable, got: %v", err)
	}
}

func TestEnvProvider(t *testing.T) {
	t.Setenv("PASTY_TEST_SECRET", "value")
	got, err := envProvider{}.GetSecret(context.Background(), "PASTY_TEST_SECRET")
	if err != nil || got != "value" {
		t.Errorf("GetSecret = %q, %v", got, err)
	}
	t.Setenv("PASTY_TEST_EMPTY", "")
	if _, err := (envProvider{}).GetSecret(context.Background(), "PASTY_TEST_EMPTY"); !errors.Is(err, ErrSecretNotFound) {
		t.Errorf("expected ErrSecretNotFound, got: %v", err)
	}
}

func TestNewAdapterEnvOnly(t *testing.T) {
	t.Setenv("VAULT_ADDR", "")
	t.Setenv("AWS_REGION", "")
	t.Setenv("SECRETS_REQUIRE_PRIMARY", "")
	t.Setenv("IP_PEPPER", "env-pepper")
	a, err := NewAdapter(context.Background())
	if err != nil {
		t.Fatalf("NewAdapter failed: %v", err)
	}
	got, err := a.GetSecret(context.Background(), "IP_PEPPER")
	if err != nil || got != "env-pepper" {
		t.Errorf("GetSecret = %q, %v", got, err)
	}
}

func TestNewAdapterRequirePrimary(t *testing.T) {
	t.Setenv("VAULT_ADDR", "")
	t.Setenv("AWS_REGION", "")
	t.Setenv("SECRETS_REQUIRE_PRIMARY", "true")
	if _, err := NewAdapter(context.Background()); err == nil {
		t.Error("expected error when primary required but none configured")
	}
}
