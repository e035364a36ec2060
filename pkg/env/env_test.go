package env

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEnv(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestDefaultLoader_Load(t *testing.T) {
	path := writeEnv(t, "# comment\nJESTER_TEST_HOST=localhost\nJESTER_TEST_TOKEN=\"abc123456789\"\n")

	l := NewLoader()
	require.NoError(t, l.Load(path))

	assert.Equal(t, "localhost", l.Get("JESTER_TEST_HOST"))
	assert.Equal(t, "abc123456789", l.Get("JESTER_TEST_TOKEN"))
	assert.Equal(t, []string{path}, l.Files())
	assert.Len(t, l.All(), 2)
}

func TestDefaultLoader_Load_Missing(t *testing.T) {
	err := NewLoader().Load(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestDefaultLoader_ProcessEnvWins(t *testing.T) {
	t.Setenv("JESTER_TEST_PRECEDENCE", "process")
	l := NewLoader()
	l.Set("JESTER_TEST_PRECEDENCE", "file")

	assert.Equal(t, "process", l.Get("JESTER_TEST_PRECEDENCE"))
	assert.NotContains(t, l.Environ(), "JESTER_TEST_PRECEDENCE=file")
}

func TestDefaultLoader_Environ(t *testing.T) {
	l := NewLoader()
	l.Set("JESTER_TEST_ONLY_LOADED", "1")

	assert.Contains(t, l.Environ(), "JESTER_TEST_ONLY_LOADED=1")
	_, inProcess := os.LookupEnv("JESTER_TEST_ONLY_LOADED")
	assert.False(t, inProcess)
}

func TestDefaultLoader_Required(t *testing.T) {
	l := NewLoader()
	_, err := l.GetRequired("JESTER_TEST_UNSET_VAR")
	assert.Error(t, err)

	l.Set("JESTER_TEST_SET_VAR", "v")
	v, err := l.GetRequired("JESTER_TEST_SET_VAR")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
	assert.Equal(t, "d", l.GetWithDefault("JESTER_TEST_UNSET_VAR", "d"))
}

func TestDefaultLoader_Secrets(t *testing.T) {
	l := NewLoader()
	l.Set("API_TOKEN", "tok-1")
	l.Set("DB_PASSWORD", "pw")
	l.Set("HOST", "example.com")
	l.Set("EMPTY_SECRET", "")

	assert.Equal(t, []string{"pw", "tok-1"}, l.Secrets())
}

func TestIsSecretKey(t *testing.T) {
	assert.True(t, IsSecretKey("github_token"))
	assert.True(t, IsSecretKey("OPENAI_API_KEY"))
	assert.False(t, IsSecretKey("PORT"))
}

func TestRedactValue(t *testing.T) {
	assert.Equal(t, "****", RedactValue("abcd"))
	assert.Equal(t, "abcd****mnop", RedactValue("abcdefghmnop"))
}

func TestRedactURL(t *testing.T) {
	got := RedactURL("postgres://user:supersecretpw@db:5432/x")
	assert.NotContains(t, got, "supersecretpw")
	assert.Contains(t, got, "user:")
	assert.Equal(t, "http://host/path", RedactURL("http://host/path"))
	assert.Equal(t, "::bad", RedactURL("::bad"))
}
