package bindgen

import (
	"errors"
	"fmt"
	"go/token"
	"path"
	"strconv"

	"github.com/chazu/jbridge/binding"
	"github.com/chazu/jbridge/jni"
)

// Build converts a validated table to its Go model. pkg overrides the
// table's package; when both are empty Build fails.
func Build(t *binding.Table, source, pkg string) (*PackageModel, error) {
	if pkg == "" {
		pkg = path.Base(jni.BinaryName(t.Package))
	}
	if pkg == "" || pkg == "." || !token.IsIdentifier(pkg) {
		return nil, fmt.Errorf("bindgen: %q is not a package name", pkg)
	}
	if len(t.Classes) == 0 {
		return nil, errors.New("bindgen: table has no classes")
	}

	model := &PackageModel{Name: pkg, Source: source}
	names := newNamer()

	// Simple names first so collisions are known before any class is named.
	simple := make(map[string]int)
	for _, c := range t.Classes {
		simple[ClassGoName(c.Name)]++
	}
	byBinary := make(map[string]string)
	for _, c := range t.Classes {
		goName := ClassGoName(c.Name)
		if simple[goName] > 1 {
			goName = QualifiedGoName(c.Name)
		}
		goName = names.claim(goName)
		binary := jni.BinaryName(c.Name)
		byBinary[binary] = goName
		model.Classes = append(model.Classes, ClassModel{
			Binary:  binary,
			Dotted:  jni.DottedName(binary),
			GoName:  goName,
			DescVar: names.claim(goName + "Class"),
		})
	}

	for i, c := range t.Classes {
		cm := &model.Classes[i]
		for _, up := range c.Upcasts {
			binary := jni.BinaryName(up)
			cm.Upcasts = append(cm.Upcasts, UpcastModel{Binary: binary, GoName: byBinary[binary]})
		}
		for _, m := range c.Methods {
			kind := KindMethod
			switch {
			case m.Name == "<init>":
				kind = KindConstructor
			case m.Static:
				kind = KindStaticMethod
			}
			cm.Members = append(cm.Members, MemberModel{
				GoName: names.claim(MemberGoName(cm.GoName, m.Name)),
				Kind:   kind,
				Name:   m.Name,
				Sig:    m.Sig,
			})
		}
		for _, f := range c.Fields {
			kind := KindField
			if f.Static {
				kind = KindStaticField
			}
			cm.Members = append(cm.Members, MemberModel{
				GoName: names.claim(MemberGoName(cm.GoName, f.Name) + "Field"),
				Kind:   kind,
				Name:   f.Name,
				Sig:    f.Sig,
			})
		}
	}
	return model, nil
}

// namer hands out unique identifiers, numbering repeats: Get, Get2, Get3.
type namer struct {
	used map[string]bool
}

func newNamer() *namer { return &namer{used: make(map[string]bool)} }

func (n *namer) claim(name string) string {
	candidate := name
	for i := 2; n.used[candidate]; i++ {
		candidate = name + strconv.Itoa(i)
	}
	n.used[candidate] = true
	return candidate
}
