package services

import "strings"

// RenderTemplate substitutes every {{name}} placeholder with its value from
// vars. Unresolved placeholders are left verbatim. No HTML escaping is
// performed; callers choosing an HTML channel escape untrusted values first.
func RenderTemplate(body string, vars map[string]string) string {
	if len(vars) == 0 || !strings.Contains(body, "{{") {
		return body
	}
	pairs := make([]string, 0, len(vars)*2)
	for name, value := range vars {
		pairs = append(pairs, "{{"+name+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(body)
}
