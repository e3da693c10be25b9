// Package jsonpath addresses a value inside a raw JSON document by a path
// that is either a literal top-level key or a dot-separated nested path.
//
// Some tools store their servers under a key whose name contains a dot, for
// example "amp.mcpServers". Lookups therefore try the full path as a literal
// root key first and only then walk nested objects. Reads never create
// anything; writes create missing intermediate objects.
package jsonpath

import (
	"bytes"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/thoreinstein/mcpsync/internal/errors"
)

// Mode records how a path was resolved against a document.
type Mode int

const (
	// Literal means the whole path is a single root key.
	Literal Mode = iota
	// Nested means the path was split on "." and walked.
	Nested
)

func (m Mode) String() string {
	if m == Nested {
		return "nested"
	}
	return "literal"
}

// special lists the characters gjson and sjson treat as path syntax.
const special = `\.*?|#@!=<>%:,`

// Escape returns key as a single gjson/sjson path component.
func Escape(key string) string {
	if !strings.ContainsAny(key, special) {
		return key
	}
	var b strings.Builder
	for _, r := range key {
		if strings.ContainsRune(special, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Normalize returns doc with surrounding whitespace removed, substituting an
// empty object for an empty document. It fails when doc is not a JSON object.
func Normalize(doc []byte) ([]byte, error) {
	doc = bytes.TrimSpace(doc)
	if len(doc) == 0 {
		return []byte("{}"), nil
	}
	if !gjson.ValidBytes(doc) {
		return nil, errors.Wrap(errors.ErrInvalidFormat, "document is not valid JSON")
	}
	if !gjson.ParseBytes(doc).IsObject() {
		return nil, errors.Wrap(errors.ErrInvalidFormat, "document root is not an object")
	}
	return doc, nil
}

// Get resolves path for reading. The returned result does not exist when
// the literal key is absent and some nested segment is missing or not an
// object.
func Get(doc []byte, path string) (gjson.Result, Mode) {
	root := gjson.ParseBytes(doc)
	if lit := root.Get(Escape(path)); lit.Exists() {
		return lit, Literal
	}
	segments := strings.Split(path, ".")
	if len(segments) == 1 {
		return gjson.Result{}, Literal
	}
	cur := root
	for _, seg := range segments {
		if !cur.IsObject() {
			return gjson.Result{}, Nested
		}
		cur = cur.Get(Escape(seg))
		if !cur.Exists() {
			return gjson.Result{}, Nested
		}
	}
	return cur, Nested
}

// WriteMode decides how path is written into doc. A literal path is always
// a single root key; otherwise:
//
//  1. an existing literal root key is overwritten;
//  2. a path without dots is a literal key;
//  3. if the first segment exists as an object, the path is nested;
//  4. if another root key starts with the first segment plus ".", the
//     document already uses dotted keys and the path is literal;
//  5. otherwise the path is nested.
func WriteMode(doc []byte, path string, literal bool) Mode {
	if literal {
		return Literal
	}
	root := gjson.ParseBytes(doc)
	if root.Get(Escape(path)).Exists() || !strings.Contains(path, ".") {
		return Literal
	}
	first, _, _ := strings.Cut(path, ".")
	if root.Get(Escape(first)).IsObject() {
		return Nested
	}
	dotted := false
	root.ForEach(func(key, _ gjson.Result) bool {
		if strings.HasPrefix(key.String(), first+".") {
			dotted = true
			return false
		}
		return true
	})
	if dotted {
		return Literal
	}
	return Nested
}

// SetRaw stores raw JSON at path, resolving the path with WriteMode. An
// existing intermediate that is not an object is an ErrInvalidFormat error.
func SetRaw(doc []byte, path string, raw []byte, literal bool) ([]byte, error) {
	doc, err := Normalize(doc)
	if err != nil {
		return nil, err
	}
	if WriteMode(doc, path, literal) == Literal {
		return setRaw(doc, Escape(path), raw)
	}

	segments := strings.Split(path, ".")
	cur := gjson.ParseBytes(doc)
	escaped := make([]string, len(segments))
	for i, seg := range segments {
		escaped[i] = Escape(seg)
		if i == len(segments)-1 || !cur.Exists() {
			continue
		}
		cur = cur.Get(escaped[i])
		if cur.Exists() && !cur.IsObject() {
			return nil, errors.Wrapf(errors.ErrInvalidFormat, "%q is not an object", strings.Join(segments[:i+1], "."))
		}
	}
	return setRaw(doc, strings.Join(escaped, "."), raw)
}

func setRaw(doc []byte, sjsonPath string, raw []byte) ([]byte, error) {
	out, err := sjson.SetRawBytes(doc, sjsonPath, raw)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidFormat, "setting %s: %v", sjsonPath, err)
	}
	return out, nil
}
