package enovia

import (
	"fmt"
	"net/url"
	"strings"
)

// ComposeModelerPath builds /resources/v1/modeler/<namespace>/<segments...>.
// Every segment is path-escaped, so IDs containing reserved characters stay opaque.
func ComposeModelerPath(namespace string, segments ...string) string {
	var b strings.Builder
	b.WriteString(ModelerRoot)
	b.WriteByte('/')
	b.WriteString(namespace)
	for _, s := range segments {
		if s == "" {
			continue
		}
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}

// ParseModelerPath splits a modeler path into its namespace, type and remaining segments.
func ParseModelerPath(p string) (namespace, typ string, rest []string, err error) {
	u, err := url.Parse(p)
	if err != nil {
		return "", "", nil, fmt.Errorf("invalid path")
	}

	trimmed, ok := strings.CutPrefix(u.EscapedPath(), ModelerRoot+"/")
	if !ok {
		return "", "", nil, fmt.Errorf("not a modeler path: %s", p)
	}

	parts := strings.Split(strings.Trim(trimmed, "/"), "/")
	for i, part := range parts {
		unescaped, err := url.PathUnescape(part)
		if err != nil {
			return "", "", nil, fmt.Errorf("invalid path segment %q", part)
		}
		parts[i] = unescaped
	}

	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", nil, fmt.Errorf("modeler path needs namespace and type: %s", p)
	}

	return parts[0], parts[1], parts[2:], nil
}

// Namespace returns the prefix of a qualified type name such as dseng:EngItem.
func Namespace(qualified string) string {
	ns, _, found := strings.Cut(qualified, ":")
	if !found {
		return ""
	}
	return ns
}

// NormalizeSecurityContext adds the ctx:: prefix the platform expects.
func NormalizeSecurityContext(sc string) string {
	sc = strings.TrimSpace(sc)
	if sc == "" || strings.HasPrefix(sc, "ctx::") {
		return sc
	}
	return "ctx::" + sc
}

// IsSecurityContext reports whether sc looks like Role.Organization.Collabspace.
func IsSecurityContext(sc string) bool {
	sc = strings.TrimPrefix(strings.TrimSpace(sc), "ctx::")
	parts := strings.Split(sc, ".")
	if len(parts) < 3 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
	}
	return true
}
