package bindgen

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/tliron/commonlog"
	"golang.org/x/tools/imports"

	"github.com/chazu/jbridge/binding"
)

var log = commonlog.GetLogger("jbridge.bindgen")

const jvmImport = "github.com/chazu/jbridge/jvm"

// Generate renders model as formatted Go source.
func Generate(model *PackageModel) ([]byte, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "// Code generated by jbridge gen from %s. DO NOT EDIT.\n\n", model.Source)
	fmt.Fprintf(&b, "package %s\n\n", model.Name)
	fmt.Fprintf(&b, "import %q\n\n", jvmImport)

	b.WriteString("var (\n")
	for _, c := range model.Classes {
		fmt.Fprintf(&b, "\t%s = jvm.NewDescriptor(%q)\n", c.DescVar, c.Binary)
	}
	b.WriteString(")\n\n")

	for _, c := range model.Classes {
		fmt.Fprintf(&b, "// %s is the managed class %s.\n", c.GoName, c.Dotted)
		fmt.Fprintf(&b, "type %s struct{}\n\n", c.GoName)
		fmt.Fprintf(&b, "func (%s) Descriptor() *jvm.Descriptor { return %s }\n\n", c.GoName, c.DescVar)
	}

	for _, c := range model.Classes {
		if len(c.Members) == 0 {
			continue
		}
		b.WriteString("var (\n")
		for _, m := range c.Members {
			if m.Kind == KindConstructor {
				fmt.Fprintf(&b, "\t%s = jvm.Constructor(%s, %q)\n", m.GoName, c.DescVar, m.Sig)
				continue
			}
			fmt.Fprintf(&b, "\t%s = jvm.%s(%s, %q, %q)\n", m.GoName, m.Kind.Func(), c.DescVar, m.Name, m.Sig)
		}
		b.WriteString(")\n\n")
	}

	var upcasts []string
	for _, c := range model.Classes {
		for _, up := range c.Upcasts {
			if up.GoName != "" {
				upcasts = append(upcasts, fmt.Sprintf("jvm.DeclareUpcast[%s, %s]()", c.GoName, up.GoName))
			} else {
				upcasts = append(upcasts, fmt.Sprintf("jvm.DeclareUpcastNames(%s, %s)", strconv.Quote(c.Binary), strconv.Quote(up.Binary)))
			}
		}
	}
	if len(upcasts) > 0 {
		b.WriteString("func init() {\n")
		for _, u := range upcasts {
			fmt.Fprintf(&b, "\t%s\n", u)
		}
		b.WriteString("}\n")
	}

	out, err := imports.Process(model.Name+"_bindings.go", []byte(b.String()), &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("bindgen: format %s: %w", model.Source, err)
	}
	return out, nil
}

// GenerateFile loads the table at src and writes its bindings to dst.
func GenerateFile(src, dst, pkg string) error {
	t, err := binding.Load(src)
	if err != nil {
		return err
	}
	model, err := Build(t, src, pkg)
	if err != nil {
		return fmt.Errorf("%s: %w", src, err)
	}
	out, err := Generate(model)
	if err != nil {
		return err
	}
	if err := os.WriteFile(dst, out, 0644); err != nil {
		return fmt.Errorf("cannot write %s: %w", dst, err)
	}
	log.Infof("generated %d classes from %s into %s", len(model.Classes), src, dst)
	return nil
}
