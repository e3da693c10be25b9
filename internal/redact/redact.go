// Package redact masks secrets in MCP server definitions before they reach
// logs or terminal output.
package redact

import (
	"net/url"
	"slices"
	"strings"
	"unicode"

	"github.com/thoreinstein/mcpsync/internal/mcp"
)

// sensitiveWords are words of env var, header or query names that indicate
// a secret on their own. Names are split into words on punctuation and
// camelCase boundaries and compared case-insensitively.
var sensitiveWords = []string{
	"TOKEN", "TOKENS",
	"SECRET", "SECRETS",
	"PASSWORD", "PASSWD", "PASS",
	"AUTH", "AUTHORIZATION",
	"CREDENTIAL", "CREDENTIALS",
	"APIKEY", "BEARER", "COOKIE",
}

// benignKeyQualifiers precede "KEY" in names that are not secrets, such as
// CONTAINER_KEY or sortKey.
var benignKeyQualifiers = []string{
	"CONTAINER", "SORT", "PARTITION", "PRIMARY", "FOREIGN", "CACHE", "LOOKUP", "MAP", "HOT", "SHORTCUT",
}

// tokenPrefixes identify well-known credential formats regardless of the key
// they are stored under.
var tokenPrefixes = []string{
	"ghp_", "gho_", "ghu_", "ghs_", "ghr_", "github_pat_",
	"sk-", "sk_live_", "rk_live_",
	"AKIA",
	"xoxb-", "xoxp-", "xoxa-", "xoxr-",
	"glpat-",
}

// SensitiveKey reports whether a key name suggests its value is a secret.
// "KEY" counts only after a qualifier, as in API_KEY or PRIVATE_KEY; a bare
// "key" or "keys" does not.
func SensitiveKey(key string) bool {
	ws := words(key)
	for i, w := range ws {
		if slices.Contains(sensitiveWords, w) {
			return true
		}
		if w == "KEY" && i > 0 && !slices.Contains(benignKeyQualifiers, ws[i-1]) {
			return true
		}
	}
	return false
}

// words splits a name on non-alphanumeric characters and lower-to-upper
// case changes, returning the words upper-cased.
func words(key string) []string {
	var out []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, strings.ToUpper(cur.String()))
			cur.Reset()
		}
	}
	prevLower := false
	for _, r := range key {
		switch {
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			flush()
			prevLower = false
			continue
		case unicode.IsUpper(r) && prevLower:
			flush()
		}
		cur.WriteRune(r)
		prevLower = unicode.IsLower(r) || unicode.IsDigit(r)
	}
	flush()
	return out
}

// LooksLikeToken reports whether value starts with a known token prefix.
func LooksLikeToken(value string) bool {
	for _, prefix := range tokenPrefixes {
		if strings.HasPrefix(value, prefix) {
			return true
		}
	}
	return false
}

// Value masks a secret, keeping the last four characters when the value is
// long enough for that to be harmless.
func Value(value string) string {
	if len(value) <= 8 {
		return "********"
	}
	return "****" + value[len(value)-4:]
}

// Env returns a copy of env with secret values masked.
func Env(env map[string]string) map[string]string {
	if env == nil {
		return nil
	}
	out := make(map[string]string, len(env))
	for k, v := range env {
		if SensitiveKey(k) || LooksLikeToken(v) {
			out[k] = Value(v)
			continue
		}
		out[k] = v
	}
	return out
}

// Args returns a copy of args with inline secrets masked. Both
// "--api-key=VALUE" and "--api-key VALUE" forms are handled, as are bare
// token-looking arguments.
func Args(args []string) []string {
	if args == nil {
		return nil
	}
	out := make([]string, len(args))
	maskNext := false
	for i, arg := range args {
		switch {
		case maskNext:
			out[i] = Value(arg)
			maskNext = false
		case strings.HasPrefix(arg, "-"):
			name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
			if !SensitiveKey(name) {
				out[i] = arg
				continue
			}
			if hasValue {
				out[i] = arg[:len(arg)-len(value)] + Value(value)
			} else {
				out[i] = arg
				maskNext = true
			}
		case LooksLikeToken(arg):
			out[i] = Value(arg)
		default:
			out[i] = arg
		}
	}
	return out
}

// URL masks embedded passwords and secret-looking query parameters. URLs
// that fail to parse are returned unchanged.
func URL(raw string) string {
	if raw == "" {
		return raw
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	changed := false
	if parsed.User != nil {
		if password, ok := parsed.User.Password(); ok && password != "" {
			parsed.User = url.UserPassword(parsed.User.Username(), Value(password))
			changed = true
		}
	}

	if parsed.RawQuery != "" {
		query := parsed.Query()
		for key, values := range query {
			if !SensitiveKey(key) && !strings.EqualFold(key, "key") {
				continue
			}
			for i := range values {
				values[i] = Value(values[i])
			}
			changed = true
		}
		parsed.RawQuery = query.Encode()
	}

	if !changed {
		return raw
	}
	return parsed.String()
}

// Server returns a copy of s with secrets in its env, args and url masked.
func Server(s mcp.Server) mcp.Server {
	out := s.Clone()
	out.Env = Env(s.Env)
	out.Args = Args(s.Args)
	out.URL = URL(s.URL)
	return out
}
