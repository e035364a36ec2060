package logging

import (
	"sort"
	"strings"
)

// minSecretLen is the shortest value treated as a secret.
// Shorter values would mask ordinary words in test output.
const minSecretLen = 5

// RedactingLogger is a decorator that masks secret values, such
// as tokens loaded from an env file, in messages and string
// field values before passing them to the inner logger.
type RedactingLogger struct {
	inner    Logger
	replacer *strings.Replacer
}

// NewRedactingLogger creates a logger that masks every secret
// of at least five bytes. A masked secret keeps its first four
// bytes so operators can still tell tokens apart.
func NewRedactingLogger(
	inner Logger,
	secrets ...string,
) *RedactingLogger {
	return &RedactingLogger{
		inner:    inner,
		replacer: secretReplacer(secrets),
	}
}

// secretReplacer orders secrets longest first, so a secret that
// contains another is masked whole.
func secretReplacer(secrets []string) *strings.Replacer {
	kept := make([]string, 0, len(secrets))
	seen := make(map[string]bool, len(secrets))
	for _, s := range secrets {
		if len(s) >= minSecretLen && !seen[s] {
			seen[s] = true
			kept = append(kept, s)
		}
	}
	sort.Slice(kept, func(i, j int) bool { return len(kept[i]) > len(kept[j]) })

	pairs := make([]string, 0, 2*len(kept))
	for _, s := range kept {
		pairs = append(pairs, s, s[:4]+strings.Repeat("*", len(s)-4))
	}
	return strings.NewReplacer(pairs...)
}

func (r *RedactingLogger) redact(s string) string {
	return r.replacer.Replace(s)
}

func (r *RedactingLogger) redactFields(fields []Field) []Field {
	if len(fields) == 0 {
		return fields
	}
	out := make([]Field, len(fields))
	for i, f := range fields {
		out[i] = f
		switch v := f.Value.(type) {
		case string:
			out[i].Value = r.redact(v)
		case error:
			out[i].Value = r.redact(v.Error())
		case []string:
			masked := make([]string, len(v))
			for j, s := range v {
				masked[j] = r.redact(s)
			}
			out[i].Value = masked
		}
	}
	return out
}

func (r *RedactingLogger) Info(msg string, fields ...Field) {
	r.inner.Info(r.redact(msg), r.redactFields(fields)...)
}

func (r *RedactingLogger) Warn(msg string, fields ...Field) {
	r.inner.Warn(r.redact(msg), r.redactFields(fields)...)
}

func (r *RedactingLogger) Error(msg string, fields ...Field) {
	r.inner.Error(r.redact(msg), r.redactFields(fields)...)
}

func (r *RedactingLogger) Debug(msg string, fields ...Field) {
	r.inner.Debug(r.redact(msg), r.redactFields(fields)...)
}

// WithFields masks the fields once and keeps redacting
// everything logged through the child.
func (r *RedactingLogger) WithFields(fields ...Field) Logger {
	return &RedactingLogger{
		inner:    r.inner.WithFields(r.redactFields(fields)...),
		replacer: r.replacer,
	}
}

func (r *RedactingLogger) Close() error {
	return r.inner.Close()
}

var credentialHeaders = map[string]bool{
	"authorization":       true,
	"proxy-authorization": true,
	"cookie":              true,
	"set-cookie":          true,
	"x-api-key":           true,
	"api-key":             true,
	"x-auth-token":        true,
	"x-access-token":      true,
}

// RedactHeaders returns a copy of headers with the values of
// credential-bearing headers replaced by "****".
func RedactHeaders(headers map[string]string) map[string]string {
	if headers == nil {
		return nil
	}
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		if credentialHeaders[strings.ToLower(k)] {
			v = "****"
		}
		out[k] = v
	}
	return out
}
