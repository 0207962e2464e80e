package binding

import (
	"errors"
	"fmt"

	"github.com/tliron/commonlog"

	"github.com/chazu/jbridge/jni"
	"github.com/chazu/jbridge/jvm"
)

var log = commonlog.GetLogger("jbridge.binding")

// Apply declares every upcast in t to the jvm package.
func (t *Table) Apply() {
	n := 0
	for _, c := range t.Classes {
		for _, up := range c.Upcasts {
			jvm.DeclareUpcastNames(jni.BinaryName(c.Name), jni.BinaryName(up))
			n++
		}
	}
	log.Debugf("declared %d upcasts from %d classes", n, len(t.Classes))
}

// Descriptor returns the descriptor of c.
func (c *Class) Descriptor() *jvm.Descriptor { return jvm.NewDescriptor(c.Name) }

// Method builds the jvm method of m on c.
func (c *Class) Method(m Member) *jvm.Method {
	switch {
	case m.Name == "<init>":
		return jvm.Constructor(c.Descriptor(), m.Sig)
	case m.Static:
		return jvm.NewStaticMethod(c.Descriptor(), m.Name, m.Sig)
	default:
		return jvm.NewMethod(c.Descriptor(), m.Name, m.Sig)
	}
}

// Field builds the jvm field of f on c.
func (c *Class) Field(f Member) *jvm.Field {
	if f.Static {
		return jvm.NewStaticField(c.Descriptor(), f.Name, f.Sig)
	}
	return jvm.NewField(c.Descriptor(), f.Name, f.Sig)
}

// Resolve resolves every class and member of t against the runtime behind
// env, so that a stale table fails at startup instead of on first call.
// Members of a class that does not resolve are skipped. All failures are
// reported together.
func (t *Table) Resolve(env *jvm.Env) error {
	var errs []error
	for i := range t.Classes {
		c := &t.Classes[i]
		if _, err := env.ClassOf(c.Descriptor()); err != nil {
			errs = append(errs, err)
			continue
		}
		for _, m := range c.Methods {
			if err := env.ResolveMethod(c.Method(m)); err != nil {
				errs = append(errs, err)
			}
		}
		for _, f := range c.Fields {
			if err := env.ResolveField(c.Field(f)); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("binding: %d unresolved: %w", len(errs), err)
	}
	log.Debugf("resolved %d classes", len(t.Classes))
	return nil
}

// UpcastMismatch is an upcast the runtime does not agree with.
type UpcastMismatch struct {
	From, To string
}

func (m UpcastMismatch) Error() string {
	return fmt.Sprintf("%s is not assignable to %s", m.From, m.To)
}

// Verify checks each upcast in t with the runtime's own assignability test.
// It is an audit for tables of unknown provenance; the call path never
// verifies upcasts.
func (t *Table) Verify(env *jvm.Env) error {
	var errs []error
	for i := range t.Classes {
		c := &t.Classes[i]
		for _, up := range c.Upcasts {
			from, to := c.Descriptor(), jvm.NewDescriptor(up)
			ok, err := env.IsAssignable(from, to)
			switch {
			case err != nil:
				errs = append(errs, err)
			case !ok:
				errs = append(errs, UpcastMismatch{From: from.String(), To: to.String()})
			}
		}
	}
	return errors.Join(errs...)
}
