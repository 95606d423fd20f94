package document

import (
	"regexp"
	"strings"

	"bytegraft/internal/classfile"
	"bytegraft/internal/diagnostic"
	"bytegraft/internal/symbol"
)

// imports maps a simple class name to its fully qualified name.
type imports map[string]string

func importKey(full string) (string, error) {
	i := strings.LastIndexByte(full, '.')
	if i <= 0 || i == len(full)-1 {
		return "", diagnostic.Configurationf("import %q does not contain a package", full)
	}

	return full[i+1:], nil
}

func parseImports(list []string) (imports, error) {
	im := make(imports, len(list))

	for _, full := range list {
		key, err := importKey(full)
		if err != nil {
			return nil, err
		}

		if existing, ok := im[key]; ok {
			return nil, diagnostic.Configurationf("duplicate import %q -> %q (already %q)", key, full, existing)
		}

		im[key] = full
	}

	return im, nil
}

// with returns the union of im and the global imports. A simple name both
// scopes define is an error.
func (im imports) with(global imports) (imports, error) {
	out := make(imports, len(im)+len(global))

	for k, v := range im {
		out[k] = v
	}

	for k, v := range global {
		if local, ok := out[k]; ok {
			return nil, diagnostic.Configurationf("duplicate (global+local) import %q -> %q (local %q)", k, v, local)
		}

		out[k] = v
	}

	return out, nil
}

// resolve expands a simple name through the imports, keeping array
// suffixes. Unknown simple names are in java.lang.
func (im imports) resolve(typeName string) string {
	name := strings.TrimSpace(typeName)
	base, dims := name, ""

	if i := strings.IndexByte(name, '['); i >= 0 {
		base = strings.TrimSpace(name[:i])
		dims = strings.Repeat("[]", strings.Count(name[i:], "[]"))
	}

	switch full, ok := im[base]; {
	case ok:
		base = full
	case base != "" && !strings.Contains(base, ".") && !classfile.IsPrimitiveName(base):
		base = "java.lang." + base
	}

	return base + dims
}

func (im imports) class(name string) (symbol.Class, error) {
	resolved := im.resolve(name)
	if strings.TrimSpace(name) == "" || strings.ContainsAny(resolved, "[]") || classfile.IsPrimitiveName(resolved) {
		return symbol.Class{}, diagnostic.Configurationf("%q is not a class name", name)
	}

	if _, err := classfile.DescriptorOf(resolved); err != nil {
		return symbol.Class{}, diagnostic.Configurationf("%q is not a class name", name)
	}

	return symbol.NewClass(resolved), nil
}

var ownerSeparator = regexp.MustCompile(` ?\| ?`)

func splitOwner(sig string) (owner, member string, err error) {
	parts := ownerSeparator.Split(sig, -1)
	if len(parts) != 2 {
		return "", "", diagnostic.Configurationf("invalid signature %q, expected OWNER | TYPE NAME", sig)
	}

	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), nil
}

func validName(name string) bool {
	return name != "" && !strings.ContainsAny(name, ".;[]/<>()| \t")
}

// field parses "Owner | type name".
func (im imports) field(sig string) (symbol.Field, error) {
	ownerName, member, err := splitOwner(sig)
	if err != nil {
		return symbol.Field{}, err
	}

	parts := strings.Fields(member)
	if len(parts) != 2 || !validName(parts[1]) {
		return symbol.Field{}, diagnostic.Configurationf("invalid field signature %q", sig)
	}

	owner, err := im.class(ownerName)
	if err != nil {
		return symbol.Field{}, diagnostic.Configurationf("invalid field signature %q: %s", sig, err)
	}

	desc, err := classfile.DescriptorOf(im.resolve(parts[0]))
	if err != nil || desc == "V" {
		return symbol.Field{}, diagnostic.Configurationf("invalid field type in %q", sig)
	}

	return symbol.NewField(owner, parts[1], desc), nil
}

// method parses "ret name(args)" declared on owner.
func (im imports) method(owner symbol.Class, sig string) (symbol.Method, error) {
	s := strings.TrimSpace(sig)
	open := strings.IndexByte(s, '(')

	if open < 0 || !strings.HasSuffix(s, ")") || strings.Count(s, "(") != 1 || strings.Count(s, ")") != 1 {
		return symbol.Method{}, diagnostic.Configurationf("illegal method signature %q", sig)
	}

	head := strings.Fields(s[:open])
	if len(head) != 2 || !validName(head[1]) {
		return symbol.Method{}, diagnostic.Configurationf("illegal method signature %q", sig)
	}

	var args []string

	if inner := strings.TrimSpace(s[open+1 : len(s)-1]); inner != "" {
		for _, a := range strings.Split(inner, ",") {
			if strings.TrimSpace(a) == "" {
				return symbol.Method{}, diagnostic.Configurationf("empty argument in method signature %q", sig)
			}

			args = append(args, im.resolve(a))
		}
	}

	desc, err := classfile.MethodDescriptorOf(im.resolve(head[0]), args...)
	if err != nil {
		return symbol.Method{}, diagnostic.Configurationf("illegal method signature %q: %s", sig, err)
	}

	return symbol.NewMethod(owner, head[1], desc), nil
}

// ownedMethod parses "Owner | ret name(args)".
func (im imports) ownedMethod(sig string) (symbol.Method, error) {
	ownerName, member, err := splitOwner(sig)
	if err != nil {
		return symbol.Method{}, err
	}

	owner, err := im.class(ownerName)
	if err != nil {
		return symbol.Method{}, diagnostic.Configurationf("invalid method signature %q: %s", sig, err)
	}

	return im.method(owner, member)
}
