package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipebook/infrastructure/config"
	"recipebook/pkg/auth"
)

const testSecret = "recipectl-test-secret"

const soupYAML = `title: Tomato Soup
description: Smooth and quick
prepTime: 10
cookTime: 20
servings: 2
difficulty: easy
categories: [dinner]
ingredients:
  - name: Tomatoes
    quantity: "6"
    unit: pcs
  - name: Salt
    quantity: "1"
    unit: tsp
instructions:
  - Chop the tomatoes
  - Simmer and blend
`

func newTestApp(t *testing.T) *app {
	t.Helper()
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	cfg := config.Defaults()
	cfg.StorageBackend = config.StorageMemory
	cfg.LogLevel = "error"
	cfg.JWTSecret = testSecret

	a := &app{cfg: cfg}
	t.Cleanup(a.close)
	return a
}

func run(t *testing.T, a *app, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	a.out = &out
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRecipeLifecycle(t *testing.T) {
	a := newTestApp(t)
	file := filepath.Join(t.TempDir(), "soup.yaml")
	require.NoError(t, os.WriteFile(file, []byte(soupYAML), 0o600))

	out, err := run(t, a, "create", "-f", file, "--user", "alice")
	require.NoError(t, err)
	id := strings.TrimSpace(out)
	require.NotEmpty(t, id)

	out, err = run(t, a, "list", "--category", "dinner")
	require.NoError(t, err)
	assert.Contains(t, out, id)
	assert.Contains(t, out, "Tomato Soup")

	out, err = run(t, a, "show", id)
	require.NoError(t, err)
	assert.Contains(t, out, "6 pcs Tomatoes")
	assert.Contains(t, out, "2. Simmer and blend")

	out, err = run(t, a, "show", id, "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"title": "Tomato Soup"`)

	_, err = run(t, a, "delete", id, "--user", "bob")
	require.Error(t, err)

	out, err = run(t, a, "delete", id, "--user", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "deleted "+id)

	_, err = run(t, a, "show", id)
	require.Error(t, err)
}

func TestCreateRejectsInvalidRecipe(t *testing.T) {
	a := newTestApp(t)
	file := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(file, []byte("title: \"\"\n"), 0o600))

	_, err := run(t, a, "create", "-f", file)
	require.Error(t, err)

	out, err := run(t, a, "list", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"count": 0`)
}

func TestCategories(t *testing.T) {
	out, err := run(t, newTestApp(t), "categories")
	require.NoError(t, err)
	assert.Contains(t, out, "breakfast")
}

func TestTokenValidatesAgainstConfig(t *testing.T) {
	a := newTestApp(t)
	out, err := run(t, a, "token", "--user", "carol", "--email", "carol@example.com")
	require.NoError(t, err)

	validator, err := auth.NewJWTValidator(auth.JWTConfig{
		SigningMethod: "HS256",
		SecretKey:     testSecret,
		Issuer:        a.cfg.JWTIssuer,
		Audience:      a.cfg.JWTAudience,
	})
	require.NoError(t, err)
	claims, err := validator.ValidateToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "carol", claims.UserID)
	assert.Equal(t, "carol@example.com", claims.Email)
}

func TestUnsupportedOutput(t *testing.T) {
	_, err := run(t, newTestApp(t), "categories", "-o", "xml")
	require.Error(t, err)
}
