package jni

import (
	"fmt"
	"strings"
)

// ParseSignature splits a method signature such as "(I[BLjava/lang/String;)V"
// into argument kinds and the return kind.
func ParseSignature(sig string) (args []Kind, ret Kind, err error) {
	if len(sig) < 3 || sig[0] != '(' {
		return nil, Void, fmt.Errorf("jni: malformed method signature %q", sig)
	}
	i := 1
	for i < len(sig) && sig[i] != ')' {
		k, n, err := scanType(sig, i)
		if err != nil {
			return nil, Void, err
		}
		if k == Void {
			return nil, Void, fmt.Errorf("jni: void argument in signature %q", sig)
		}
		args = append(args, k)
		i = n
	}
	if i >= len(sig) {
		return nil, Void, fmt.Errorf("jni: unterminated argument list in %q", sig)
	}
	ret, n, err := scanType(sig, i+1)
	if err != nil {
		return nil, Void, err
	}
	if n != len(sig) {
		return nil, Void, fmt.Errorf("jni: trailing characters in signature %q", sig)
	}
	return args, ret, nil
}

// FieldKind returns the kind of a field type signature such as "I" or
// "Ljava/lang/String;".
func FieldKind(sig string) (Kind, error) {
	k, n, err := scanType(sig, 0)
	if err != nil {
		return Void, err
	}
	if k == Void || n != len(sig) {
		return Void, fmt.Errorf("jni: malformed field signature %q", sig)
	}
	return k, nil
}

// scanType reads one type descriptor starting at sig[i] and returns its kind
// and the index just past it.
func scanType(sig string, i int) (Kind, int, error) {
	if i >= len(sig) {
		return Void, i, fmt.Errorf("jni: truncated signature %q", sig)
	}
	switch c := sig[i]; c {
	case 'L':
		end := strings.IndexByte(sig[i:], ';')
		if end < 2 {
			return Void, i, fmt.Errorf("jni: bad class type in signature %q", sig)
		}
		return Reference, i + end + 1, nil
	case '[':
		_, n, err := scanType(sig, i+1)
		if err != nil {
			return Void, i, err
		}
		return Reference, n, nil
	default:
		k, ok := KindForDescriptor(c)
		if !ok {
			return Void, i, fmt.Errorf("jni: unknown type code %q in signature %q", c, sig)
		}
		return k, i + 1, nil
	}
}

// BinaryName converts a dotted class name ("java.lang.String") to the
// slash-separated form FindClass expects. Array descriptors pass through.
func BinaryName(name string) string {
	if strings.HasPrefix(name, "[") {
		return name
	}
	return strings.ReplaceAll(name, ".", "/")
}

// DottedName converts a binary class name to its source form.
func DottedName(name string) string {
	return strings.ReplaceAll(name, "/", ".")
}
