package env

import (
	"net/url"
	"strings"
)

var secretMarkers = []string{
	"TOKEN", "SECRET", "PASSWORD", "PASSWD", "API_KEY",
	"APIKEY", "PRIVATE_KEY", "CREDENTIAL",
}

// IsSecretKey reports whether a variable name looks like it
// holds a credential.
func IsSecretKey(key string) bool {
	upper := strings.ToUpper(key)
	for _, m := range secretMarkers {
		if strings.Contains(upper, m) {
			return true
		}
	}
	return false
}

// RedactValue masks a secret, showing only the first 4 and last
// 4 characters.
func RedactValue(value string) string {
	if len(value) <= 8 {
		return strings.Repeat("*", len(value))
	}
	return value[:4] + strings.Repeat("*", len(value)-8) +
		value[len(value)-4:]
}

// RedactURL masks the password of a URL with user info.
func RedactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	if u.User != nil {
		if password, ok := u.User.Password(); ok {
			u.User = url.UserPassword(
				u.User.Username(), RedactValue(password),
			)
		}
	}
	return u.String()
}
