package simvm

import (
	"fmt"

	"github.com/chazu/jbridge/jni"
)

// bootstrapThrowables lists the built-in throwable hierarchy as
// (class, superclass) pairs, parents first.
var bootstrapThrowables = [][2]string{
	{"java/lang/Exception", "java/lang/Throwable"},
	{"java/lang/Error", "java/lang/Throwable"},
	{"java/lang/RuntimeException", "java/lang/Exception"},
	{"java/lang/NullPointerException", "java/lang/RuntimeException"},
	{"java/lang/IllegalArgumentException", "java/lang/RuntimeException"},
	{"java/lang/IllegalStateException", "java/lang/RuntimeException"},
	{"java/lang/ClassCastException", "java/lang/RuntimeException"},
	{"java/lang/ArithmeticException", "java/lang/RuntimeException"},
	{"java/lang/NegativeArraySizeException", "java/lang/RuntimeException"},
	{"java/lang/ArrayStoreException", "java/lang/RuntimeException"},
	{"java/lang/IndexOutOfBoundsException", "java/lang/RuntimeException"},
	{"java/lang/ArrayIndexOutOfBoundsException", "java/lang/IndexOutOfBoundsException"},
	{"java/lang/UnsupportedOperationException", "java/lang/RuntimeException"},
	{"java/lang/OutOfMemoryError", "java/lang/Error"},
	{"java/lang/LinkageError", "java/lang/Error"},
	{"java/lang/NoClassDefFoundError", "java/lang/LinkageError"},
	{"java/lang/UnsatisfiedLinkError", "java/lang/LinkageError"},
	{"java/lang/IncompatibleClassChangeError", "java/lang/LinkageError"},
	{"java/lang/NoSuchMethodError", "java/lang/IncompatibleClassChangeError"},
	{"java/lang/NoSuchFieldError", "java/lang/IncompatibleClassChangeError"},
}

// messageField is the name of the field holding a throwable's detail message.
const messageField = "detailMessage"

// bootstrap defines java.lang.Object, Class, String, Throwable, and the
// exception hierarchy the runtime itself raises.
func (rt *Runtime) bootstrap() {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	must := func(c *Class, err error) *Class {
		if err != nil {
			panic(err)
		}
		return c
	}

	rt.objectClass = must(rt.defineLocked(ClassDef{
		Name: "java/lang/Object",
		Methods: []MethodDef{
			{Name: "<init>", Sig: "()V"},
			{Name: "toString", Sig: "()Ljava/lang/String;", Impl: func(c *Call) Value {
				return Ref(c.NewString(fmt.Sprintf("%s@%p", c.This.class.DottedName(), c.This)))
			}},
			{Name: "getClass", Sig: "()Ljava/lang/Class;", Impl: func(c *Call) Value {
				return Ref(c.This.class.mirror)
			}},
		},
	}))
	rt.classClass = must(rt.defineLocked(ClassDef{
		Name: "java/lang/Class",
		Methods: []MethodDef{
			{Name: "getName", Sig: "()Ljava/lang/String;", Impl: func(c *Call) Value {
				return Ref(c.NewString(c.This.mirror.DottedName()))
			}},
		},
	}))
	// Mirrors created before java/lang/Class existed.
	rt.objectClass.mirror.class = rt.classClass
	rt.classClass.mirror.class = rt.classClass

	rt.stringClass = must(rt.defineLocked(ClassDef{
		Name: "java/lang/String",
		Methods: []MethodDef{
			{Name: "length", Sig: "()I", Impl: func(c *Call) Value {
				return Prim(jni.IntValue(int32(len(c.This.str))))
			}},
			{Name: "toString", Sig: "()Ljava/lang/String;", Impl: func(c *Call) Value {
				return Ref(c.This)
			}},
		},
	}))

	rt.throwableClass = must(rt.defineLocked(ClassDef{
		Name:   "java/lang/Throwable",
		Fields: []FieldDef{{Name: messageField, Sig: "Ljava/lang/String;"}},
		Methods: []MethodDef{
			{Name: "<init>", Sig: "()V"},
			{Name: "<init>", Sig: "(Ljava/lang/String;)V", Impl: superMessageInit},
			{Name: "getMessage", Sig: "()Ljava/lang/String;", Impl: func(c *Call) Value {
				return c.GetField(c.This, messageField)
			}},
			{Name: "toString", Sig: "()Ljava/lang/String;", Impl: func(c *Call) Value {
				s := c.This.class.DottedName()
				if msg := c.GetField(c.This, messageField).Ref; msg != nil {
					s += ": " + msg.str
				}
				return Ref(c.NewString(s))
			}},
		},
	}))

	for _, pair := range bootstrapThrowables {
		must(rt.defineLocked(ClassDef{
			Name:  pair[0],
			Super: pair[1],
			Methods: []MethodDef{
				{Name: "<init>", Sig: "()V"},
				{Name: "<init>", Sig: "(Ljava/lang/String;)V", Impl: superMessageInit},
			},
		}))
	}
}

// superMessageInit is the (String) constructor shared by throwable subclasses.
func superMessageInit(c *Call) Value {
	c.SetField(c.This, messageField, c.Args[0])
	return Value{}
}

// ThrowableInit is a MethodDef for a user throwable's (String) constructor.
func ThrowableInit() MethodDef {
	return MethodDef{Name: "<init>", Sig: "(Ljava/lang/String;)V", Impl: superMessageInit}
}

func (rt *Runtime) mustClass(name string) *Class {
	rt.mu.Lock()
	c := rt.classes[name]
	rt.mu.Unlock()
	if c == nil {
		panic(fmt.Sprintf("simvm: class %s is not defined", name))
	}
	return c
}

// newThrowable allocates a throwable of class c without running a
// constructor, with its detail message set.
func (rt *Runtime) newThrowable(c *Class, message string) *Object {
	f := rt.throwableClass.fields[messageField]
	return &Object{
		class:  c,
		fields: map[*Field]slot{f: {ref: rt.newString(message)}},
	}
}

func (rt *Runtime) newThrowableLocked(className, message string) *Object {
	c := rt.classes[className]
	if c == nil {
		panic(fmt.Sprintf("simvm: class %s is not defined", className))
	}
	return rt.newThrowable(c, message)
}

// Message returns the detail message of a throwable, and false if it has
// none.
func (rt *Runtime) Message(throwable *Object) (string, bool) {
	f := rt.throwableClass.fields[messageField]
	rt.mu.Lock()
	defer rt.mu.Unlock()
	s := throwable.fields[f].ref
	if s == nil {
		return "", false
	}
	return s.str, true
}
