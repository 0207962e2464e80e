package bindgen

import (
	"strings"
	"unicode"

	"github.com/iancoleman/strcase"

	"github.com/chazu/jbridge/jni"
)

// ClassGoName converts a class name to a marker type name from its simple
// name. Nested classes keep their outer name.
// e.g., "java.util.HashMap" → "HashMap", "a.Outer$Inner" → "OuterInner"
func ClassGoName(name string) string {
	binary := jni.BinaryName(name)
	simple := binary[strings.LastIndexByte(binary, '/')+1:]
	return identifier(strings.ReplaceAll(simple, "$", "_"))
}

// QualifiedGoName converts a class name to a type name from every segment,
// used when two simple names collide.
// e.g., "java.util.HashMap" → "JavaUtilHashMap"
func QualifiedGoName(name string) string {
	binary := jni.BinaryName(name)
	return identifier(strings.NewReplacer("/", "_", "$", "_").Replace(binary))
}

// MemberGoName names a member handle after its class.
// e.g., ("HashMap", "put") → "HashMapPut", ("HashMap", "<init>") → "NewHashMap"
func MemberGoName(class, member string) string {
	if member == "<init>" {
		return "New" + class
	}
	return class + identifier(member)
}

// identifier camel-cases s and drops anything Go rejects in an identifier.
func identifier(s string) string {
	camel := strcase.ToCamel(s)
	var b strings.Builder
	for _, r := range camel {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if out == "" || unicode.IsDigit(rune(out[0])) {
		out = "X" + out
	}
	return out
}
