// Package bindgen generates the typed Go call surface of a binding table:
// marker types, descriptors, member handles, and upcast declarations.
package bindgen

// PackageModel is the Go view of one binding table.
type PackageModel struct {
	Name    string // Go package name
	Source  string // table the model was built from, for the generated header
	Classes []ClassModel
}

// ClassModel is one managed class and its members.
type ClassModel struct {
	Binary  string // "java/util/HashMap"
	Dotted  string // "java.util.HashMap"
	GoName  string // marker type
	DescVar string // descriptor variable
	Upcasts []UpcastModel
	Members []MemberModel
}

// UpcastModel is a declared supertype. GoName is empty when the supertype
// is not bound by the same table.
type UpcastModel struct {
	Binary string
	GoName string
}

// MemberKind selects the jvm constructor used for a member handle.
type MemberKind int

const (
	KindConstructor MemberKind = iota
	KindMethod
	KindStaticMethod
	KindField
	KindStaticField
)

// MemberModel is a method, constructor, or field handle.
type MemberModel struct {
	GoName string
	Kind   MemberKind
	Name   string
	Sig    string
}

// Func returns the jvm function building the handle.
func (k MemberKind) Func() string {
	switch k {
	case KindConstructor:
		return "Constructor"
	case KindStaticMethod:
		return "NewStaticMethod"
	case KindField:
		return "NewField"
	case KindStaticField:
		return "NewStaticField"
	default:
		return "NewMethod"
	}
}
