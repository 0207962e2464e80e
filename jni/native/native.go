//go:build jni

// Package native adapts a real JNIEnv and JavaVM to the jni interfaces.
//
// Build with -tags jni and CGO_CFLAGS pointing at the JDK headers, e.g.
// -I$JAVA_HOME/include -I$JAVA_HOME/include/linux.
//
// Native methods registered through this adapter must be C function
// pointers (exported Go functions); Go func values cannot be handed to a
// real JVM. An exported Java_... function reaches the kernel with
//
//	vm.Callback(native.WrapEnv(unsafe.Pointer(env)), fn)
package native

// #include <stdlib.h>
// #include <jni.h>
//
// static jint jb_GetVersion(JNIEnv *env) { return (*env)->GetVersion(env); }
// static jobject jb_FindClass(JNIEnv *env, const char *name) { return (*env)->FindClass(env, name); }
// static jobject jb_GetSuperclass(JNIEnv *env, jobject c) { return (*env)->GetSuperclass(env, (jclass)c); }
// static jboolean jb_IsAssignableFrom(JNIEnv *env, jobject a, jobject b) { return (*env)->IsAssignableFrom(env, (jclass)a, (jclass)b); }
// static jobject jb_GetObjectClass(JNIEnv *env, jobject o) { return (*env)->GetObjectClass(env, o); }
// static jboolean jb_IsInstanceOf(JNIEnv *env, jobject o, jobject c) { return (*env)->IsInstanceOf(env, o, (jclass)c); }
// static jboolean jb_IsSameObject(JNIEnv *env, jobject a, jobject b) { return (*env)->IsSameObject(env, a, b); }
//
// static jobject jb_NewLocalRef(JNIEnv *env, jobject o) { return (*env)->NewLocalRef(env, o); }
// static void jb_DeleteLocalRef(JNIEnv *env, jobject o) { (*env)->DeleteLocalRef(env, o); }
// static jobject jb_NewGlobalRef(JNIEnv *env, jobject o) { return (*env)->NewGlobalRef(env, o); }
// static void jb_DeleteGlobalRef(JNIEnv *env, jobject o) { (*env)->DeleteGlobalRef(env, o); }
// static jint jb_GetObjectRefType(JNIEnv *env, jobject o) { return (jint)(*env)->GetObjectRefType(env, o); }
// static jint jb_PushLocalFrame(JNIEnv *env, jint n) { return (*env)->PushLocalFrame(env, n); }
// static jobject jb_PopLocalFrame(JNIEnv *env, jobject o) { return (*env)->PopLocalFrame(env, o); }
// static jint jb_EnsureLocalCapacity(JNIEnv *env, jint n) { return (*env)->EnsureLocalCapacity(env, n); }
//
// static jint jb_Throw(JNIEnv *env, jobject t) { return (*env)->Throw(env, (jthrowable)t); }
// static jint jb_ThrowNew(JNIEnv *env, jobject c, const char *msg) { return (*env)->ThrowNew(env, (jclass)c, msg); }
// static jboolean jb_ExceptionCheck(JNIEnv *env) { return (*env)->ExceptionCheck(env); }
// static jobject jb_ExceptionOccurred(JNIEnv *env) { return (*env)->ExceptionOccurred(env); }
// static void jb_ExceptionClear(JNIEnv *env) { (*env)->ExceptionClear(env); }
//
// static jmethodID jb_GetMethodID(JNIEnv *env, jobject c, const char *n, const char *s) { return (*env)->GetMethodID(env, (jclass)c, n, s); }
// static jmethodID jb_GetStaticMethodID(JNIEnv *env, jobject c, const char *n, const char *s) { return (*env)->GetStaticMethodID(env, (jclass)c, n, s); }
// static jfieldID jb_GetFieldID(JNIEnv *env, jobject c, const char *n, const char *s) { return (*env)->GetFieldID(env, (jclass)c, n, s); }
// static jfieldID jb_GetStaticFieldID(JNIEnv *env, jobject c, const char *n, const char *s) { return (*env)->GetStaticFieldID(env, (jclass)c, n, s); }
//
// static jobject jb_NewObjectA(JNIEnv *env, jobject c, jmethodID m, const jvalue *args) { return (*env)->NewObjectA(env, (jclass)c, m, args); }
//
// static jvalue jb_CallMethodA(JNIEnv *env, int kind, jobject o, jmethodID m, const jvalue *args) {
//   jvalue r; r.j = 0;
//   switch (kind) {
//   case 0: (*env)->CallVoidMethodA(env, o, m, args); break;
//   case 1: r.z = (*env)->CallBooleanMethodA(env, o, m, args); break;
//   case 2: r.b = (*env)->CallByteMethodA(env, o, m, args); break;
//   case 3: r.c = (*env)->CallCharMethodA(env, o, m, args); break;
//   case 4: r.s = (*env)->CallShortMethodA(env, o, m, args); break;
//   case 5: r.i = (*env)->CallIntMethodA(env, o, m, args); break;
//   case 6: r.j = (*env)->CallLongMethodA(env, o, m, args); break;
//   case 7: r.f = (*env)->CallFloatMethodA(env, o, m, args); break;
//   case 8: r.d = (*env)->CallDoubleMethodA(env, o, m, args); break;
//   default: r.l = (*env)->CallObjectMethodA(env, o, m, args); break;
//   }
//   return r;
// }
//
// static jvalue jb_CallStaticMethodA(JNIEnv *env, int kind, jobject c, jmethodID m, const jvalue *args) {
//   jclass k = (jclass)c;
//   jvalue r; r.j = 0;
//   switch (kind) {
//   case 0: (*env)->CallStaticVoidMethodA(env, k, m, args); break;
//   case 1: r.z = (*env)->CallStaticBooleanMethodA(env, k, m, args); break;
//   case 2: r.b = (*env)->CallStaticByteMethodA(env, k, m, args); break;
//   case 3: r.c = (*env)->CallStaticCharMethodA(env, k, m, args); break;
//   case 4: r.s = (*env)->CallStaticShortMethodA(env, k, m, args); break;
//   case 5: r.i = (*env)->CallStaticIntMethodA(env, k, m, args); break;
//   case 6: r.j = (*env)->CallStaticLongMethodA(env, k, m, args); break;
//   case 7: r.f = (*env)->CallStaticFloatMethodA(env, k, m, args); break;
//   case 8: r.d = (*env)->CallStaticDoubleMethodA(env, k, m, args); break;
//   default: r.l = (*env)->CallStaticObjectMethodA(env, k, m, args); break;
//   }
//   return r;
// }
//
// static jvalue jb_GetField(JNIEnv *env, int kind, jobject o, jfieldID f) {
//   jvalue r; r.j = 0;
//   switch (kind) {
//   case 1: r.z = (*env)->GetBooleanField(env, o, f); break;
//   case 2: r.b = (*env)->GetByteField(env, o, f); break;
//   case 3: r.c = (*env)->GetCharField(env, o, f); break;
//   case 4: r.s = (*env)->GetShortField(env, o, f); break;
//   case 5: r.i = (*env)->GetIntField(env, o, f); break;
//   case 6: r.j = (*env)->GetLongField(env, o, f); break;
//   case 7: r.f = (*env)->GetFloatField(env, o, f); break;
//   case 8: r.d = (*env)->GetDoubleField(env, o, f); break;
//   default: r.l = (*env)->GetObjectField(env, o, f); break;
//   }
//   return r;
// }
//
// static void jb_SetField(JNIEnv *env, int kind, jobject o, jfieldID f, jvalue v) {
//   switch (kind) {
//   case 1: (*env)->SetBooleanField(env, o, f, v.z); break;
//   case 2: (*env)->SetByteField(env, o, f, v.b); break;
//   case 3: (*env)->SetCharField(env, o, f, v.c); break;
//   case 4: (*env)->SetShortField(env, o, f, v.s); break;
//   case 5: (*env)->SetIntField(env, o, f, v.i); break;
//   case 6: (*env)->SetLongField(env, o, f, v.j); break;
//   case 7: (*env)->SetFloatField(env, o, f, v.f); break;
//   case 8: (*env)->SetDoubleField(env, o, f, v.d); break;
//   default: (*env)->SetObjectField(env, o, f, v.l); break;
//   }
// }
//
// static jvalue jb_GetStaticField(JNIEnv *env, int kind, jobject c, jfieldID f) {
//   jclass k = (jclass)c;
//   jvalue r; r.j = 0;
//   switch (kind) {
//   case 1: r.z = (*env)->GetStaticBooleanField(env, k, f); break;
//   case 2: r.b = (*env)->GetStaticByteField(env, k, f); break;
//   case 3: r.c = (*env)->GetStaticCharField(env, k, f); break;
//   case 4: r.s = (*env)->GetStaticShortField(env, k, f); break;
//   case 5: r.i = (*env)->GetStaticIntField(env, k, f); break;
//   case 6: r.j = (*env)->GetStaticLongField(env, k, f); break;
//   case 7: r.f = (*env)->GetStaticFloatField(env, k, f); break;
//   case 8: r.d = (*env)->GetStaticDoubleField(env, k, f); break;
//   default: r.l = (*env)->GetStaticObjectField(env, k, f); break;
//   }
//   return r;
// }
//
// static void jb_SetStaticField(JNIEnv *env, int kind, jobject c, jfieldID f, jvalue v) {
//   jclass k = (jclass)c;
//   switch (kind) {
//   case 1: (*env)->SetStaticBooleanField(env, k, f, v.z); break;
//   case 2: (*env)->SetStaticByteField(env, k, f, v.b); break;
//   case 3: (*env)->SetStaticCharField(env, k, f, v.c); break;
//   case 4: (*env)->SetStaticShortField(env, k, f, v.s); break;
//   case 5: (*env)->SetStaticIntField(env, k, f, v.i); break;
//   case 6: (*env)->SetStaticLongField(env, k, f, v.j); break;
//   case 7: (*env)->SetStaticFloatField(env, k, f, v.f); break;
//   case 8: (*env)->SetStaticDoubleField(env, k, f, v.d); break;
//   default: (*env)->SetStaticObjectField(env, k, f, v.l); break;
//   }
// }
//
// static jobject jb_NewStringUTF(JNIEnv *env, const char *s) { return (*env)->NewStringUTF(env, s); }
// static const char *jb_GetStringUTFChars(JNIEnv *env, jobject s) { return (*env)->GetStringUTFChars(env, (jstring)s, NULL); }
// static void jb_ReleaseStringUTFChars(JNIEnv *env, jobject s, const char *c) { (*env)->ReleaseStringUTFChars(env, (jstring)s, c); }
//
// static jsize jb_GetArrayLength(JNIEnv *env, jobject a) { return (*env)->GetArrayLength(env, (jarray)a); }
//
// static jobject jb_NewPrimitiveArray(JNIEnv *env, int kind, jsize n) {
//   switch (kind) {
//   case 1: return (*env)->NewBooleanArray(env, n);
//   case 2: return (*env)->NewByteArray(env, n);
//   case 3: return (*env)->NewCharArray(env, n);
//   case 4: return (*env)->NewShortArray(env, n);
//   case 5: return (*env)->NewIntArray(env, n);
//   case 6: return (*env)->NewLongArray(env, n);
//   case 7: return (*env)->NewFloatArray(env, n);
//   case 8: return (*env)->NewDoubleArray(env, n);
//   }
//   return NULL;
// }
//
// static void jb_GetArrayRegion(JNIEnv *env, int kind, jobject a, jsize start, jsize n, void *buf) {
//   switch (kind) {
//   case 1: (*env)->GetBooleanArrayRegion(env, (jbooleanArray)a, start, n, buf); break;
//   case 2: (*env)->GetByteArrayRegion(env, (jbyteArray)a, start, n, buf); break;
//   case 3: (*env)->GetCharArrayRegion(env, (jcharArray)a, start, n, buf); break;
//   case 4: (*env)->GetShortArrayRegion(env, (jshortArray)a, start, n, buf); break;
//   case 5: (*env)->GetIntArrayRegion(env, (jintArray)a, start, n, buf); break;
//   case 6: (*env)->GetLongArrayRegion(env, (jlongArray)a, start, n, buf); break;
//   case 7: (*env)->GetFloatArrayRegion(env, (jfloatArray)a, start, n, buf); break;
//   case 8: (*env)->GetDoubleArrayRegion(env, (jdoubleArray)a, start, n, buf); break;
//   }
// }
//
// static void jb_SetArrayRegion(JNIEnv *env, int kind, jobject a, jsize start, jsize n, const void *buf) {
//   switch (kind) {
//   case 1: (*env)->SetBooleanArrayRegion(env, (jbooleanArray)a, start, n, buf); break;
//   case 2: (*env)->SetByteArrayRegion(env, (jbyteArray)a, start, n, buf); break;
//   case 3: (*env)->SetCharArrayRegion(env, (jcharArray)a, start, n, buf); break;
//   case 4: (*env)->SetShortArrayRegion(env, (jshortArray)a, start, n, buf); break;
//   case 5: (*env)->SetIntArrayRegion(env, (jintArray)a, start, n, buf); break;
//   case 6: (*env)->SetLongArrayRegion(env, (jlongArray)a, start, n, buf); break;
//   case 7: (*env)->SetFloatArrayRegion(env, (jfloatArray)a, start, n, buf); break;
//   case 8: (*env)->SetDoubleArrayRegion(env, (jdoubleArray)a, start, n, buf); break;
//   }
// }
//
// static jobject jb_NewObjectArray(JNIEnv *env, jsize n, jobject c, jobject init) { return (*env)->NewObjectArray(env, n, (jclass)c, init); }
// static jobject jb_GetObjectArrayElement(JNIEnv *env, jobject a, jsize i) { return (*env)->GetObjectArrayElement(env, (jobjectArray)a, i); }
// static void jb_SetObjectArrayElement(JNIEnv *env, jobject a, jsize i, jobject v) { (*env)->SetObjectArrayElement(env, (jobjectArray)a, i, v); }
//
// static jint jb_RegisterNatives(JNIEnv *env, jobject c, const JNINativeMethod *m, jint n) { return (*env)->RegisterNatives(env, (jclass)c, m, n); }
//
// static jint jb_GetEnv(JavaVM *vm, JNIEnv **env, jint version) { return (*vm)->GetEnv(vm, (void **)env, version); }
// static jint jb_AttachCurrentThread(JavaVM *vm, JNIEnv **env) { return (*vm)->AttachCurrentThread(vm, (void **)env, NULL); }
// static jint jb_DetachCurrentThread(JavaVM *vm) { return (*vm)->DetachCurrentThread(vm); }
import "C"

import (
	"unsafe"

	"github.com/chazu/jbridge/jni"
)

func obj(o jni.Object) C.jobject { return C.jobject(unsafe.Pointer(uintptr(o))) }

func handle(o C.jobject) jni.Object { return jni.Object(uintptr(unsafe.Pointer(o))) }

func method(id jni.MethodID) C.jmethodID { return C.jmethodID(unsafe.Pointer(uintptr(id))) }

func field(id jni.FieldID) C.jfieldID { return C.jfieldID(unsafe.Pointer(uintptr(id))) }

func jbool(b C.jboolean) bool { return b != C.JNI_FALSE }

// cells returns a pointer to the first argument cell. jni.Value has the
// layout of jvalue.
func cells(args []jni.Value) *C.jvalue {
	if len(args) == 0 {
		return nil
	}
	return (*C.jvalue)(unsafe.Pointer(&args[0]))
}

func value(v C.jvalue) jni.Value { return *(*jni.Value)(unsafe.Pointer(&v)) }

func jvalue(v jni.Value) C.jvalue { return *(*C.jvalue)(unsafe.Pointer(&v)) }

// ---------------------------------------------------------------------------
// Env
// ---------------------------------------------------------------------------

// Env is a JNIEnv of one thread.
type Env struct {
	p *C.JNIEnv
}

// WrapEnv wraps the JNIEnv pointer a native method receives.
func WrapEnv(env unsafe.Pointer) *Env { return &Env{p: (*C.JNIEnv)(env)} }

func (e *Env) GetVersion() int32 { return int32(C.jb_GetVersion(e.p)) }

func (e *Env) FindClass(name string) jni.Object {
	cs := C.CString(name)
	defer C.free(unsafe.Pointer(cs))
	return handle(C.jb_FindClass(e.p, cs))
}

func (e *Env) GetSuperclass(class jni.Object) jni.Object {
	return handle(C.jb_GetSuperclass(e.p, obj(class)))
}

func (e *Env) IsAssignableFrom(sub, sup jni.Object) bool {
	return jbool(C.jb_IsAssignableFrom(e.p, obj(sub), obj(sup)))
}

func (e *Env) GetObjectClass(o jni.Object) jni.Object {
	return handle(C.jb_GetObjectClass(e.p, obj(o)))
}

func (e *Env) IsInstanceOf(o, class jni.Object) bool {
	return jbool(C.jb_IsInstanceOf(e.p, obj(o), obj(class)))
}

func (e *Env) IsSameObject(a, b jni.Object) bool {
	return jbool(C.jb_IsSameObject(e.p, obj(a), obj(b)))
}

func (e *Env) NewLocalRef(o jni.Object) jni.Object { return handle(C.jb_NewLocalRef(e.p, obj(o))) }
func (e *Env) DeleteLocalRef(o jni.Object)         { C.jb_DeleteLocalRef(e.p, obj(o)) }
func (e *Env) NewGlobalRef(o jni.Object) jni.Object {
	return handle(C.jb_NewGlobalRef(e.p, obj(o)))
}
func (e *Env) DeleteGlobalRef(o jni.Object) { C.jb_DeleteGlobalRef(e.p, obj(o)) }

func (e *Env) GetObjectRefType(o jni.Object) jni.RefType {
	return jni.RefType(C.jb_GetObjectRefType(e.p, obj(o)))
}

func (e *Env) PushLocalFrame(capacity int32) int32 {
	return int32(C.jb_PushLocalFrame(e.p, C.jint(capacity)))
}

func (e *Env) PopLocalFrame(result jni.Object) jni.Object {
	return handle(C.jb_PopLocalFrame(e.p, obj(result)))
}

func (e *Env) EnsureLocalCapacity(capacity int32) int32 {
	return int32(C.jb_EnsureLocalCapacity(e.p, C.jint(capacity)))
}

func (e *Env) Throw(throwable jni.Object) int32 { return int32(C.jb_Throw(e.p, obj(throwable))) }

func (e *Env) ThrowNew(class jni.Object, message string) int32 {
	cs := C.CString(message)
	defer C.free(unsafe.Pointer(cs))
	return int32(C.jb_ThrowNew(e.p, obj(class), cs))
}

func (e *Env) ExceptionCheck() bool         { return jbool(C.jb_ExceptionCheck(e.p)) }
func (e *Env) ExceptionOccurred() jni.Object { return handle(C.jb_ExceptionOccurred(e.p)) }
func (e *Env) ExceptionClear()               { C.jb_ExceptionClear(e.p) }

func (e *Env) memberNames(name, sig string) (*C.char, *C.char, func()) {
	cn, cs := C.CString(name), C.CString(sig)
	return cn, cs, func() {
		C.free(unsafe.Pointer(cn))
		C.free(unsafe.Pointer(cs))
	}
}

func (e *Env) GetMethodID(class jni.Object, name, sig string) jni.MethodID {
	cn, cs, free := e.memberNames(name, sig)
	defer free()
	return jni.MethodID(uintptr(unsafe.Pointer(C.jb_GetMethodID(e.p, obj(class), cn, cs))))
}

func (e *Env) GetStaticMethodID(class jni.Object, name, sig string) jni.MethodID {
	cn, cs, free := e.memberNames(name, sig)
	defer free()
	return jni.MethodID(uintptr(unsafe.Pointer(C.jb_GetStaticMethodID(e.p, obj(class), cn, cs))))
}

func (e *Env) GetFieldID(class jni.Object, name, sig string) jni.FieldID {
	cn, cs, free := e.memberNames(name, sig)
	defer free()
	return jni.FieldID(uintptr(unsafe.Pointer(C.jb_GetFieldID(e.p, obj(class), cn, cs))))
}

func (e *Env) GetStaticFieldID(class jni.Object, name, sig string) jni.FieldID {
	cn, cs, free := e.memberNames(name, sig)
	defer free()
	return jni.FieldID(uintptr(unsafe.Pointer(C.jb_GetStaticFieldID(e.p, obj(class), cn, cs))))
}

func (e *Env) NewObject(class jni.Object, ctor jni.MethodID, args []jni.Value) jni.Object {
	return handle(C.jb_NewObjectA(e.p, obj(class), method(ctor), cells(args)))
}

func (e *Env) CallMethod(kind jni.Kind, o jni.Object, m jni.MethodID, args []jni.Value) jni.Value {
	return value(C.jb_CallMethodA(e.p, C.int(kind), obj(o), method(m), cells(args)))
}

func (e *Env) CallStaticMethod(kind jni.Kind, class jni.Object, m jni.MethodID, args []jni.Value) jni.Value {
	return value(C.jb_CallStaticMethodA(e.p, C.int(kind), obj(class), method(m), cells(args)))
}

func (e *Env) GetField(kind jni.Kind, o jni.Object, f jni.FieldID) jni.Value {
	return value(C.jb_GetField(e.p, C.int(kind), obj(o), field(f)))
}

func (e *Env) SetField(kind jni.Kind, o jni.Object, f jni.FieldID, v jni.Value) {
	C.jb_SetField(e.p, C.int(kind), obj(o), field(f), jvalue(v))
}

func (e *Env) GetStaticField(kind jni.Kind, class jni.Object, f jni.FieldID) jni.Value {
	return value(C.jb_GetStaticField(e.p, C.int(kind), obj(class), field(f)))
}

func (e *Env) SetStaticField(kind jni.Kind, class jni.Object, f jni.FieldID, v jni.Value) {
	C.jb_SetStaticField(e.p, C.int(kind), obj(class), field(f), jvalue(v))
}

func (e *Env) NewStringUTF(s string) jni.Object {
	cs := C.CString(s)
	defer C.free(unsafe.Pointer(cs))
	return handle(C.jb_NewStringUTF(e.p, cs))
}

func (e *Env) GetStringUTF(str jni.Object) string {
	chars := C.jb_GetStringUTFChars(e.p, obj(str))
	if chars == nil {
		return ""
	}
	defer C.jb_ReleaseStringUTFChars(e.p, obj(str), chars)
	return C.GoString(chars)
}

func (e *Env) GetArrayLength(array jni.Object) int32 {
	return int32(C.jb_GetArrayLength(e.p, obj(array)))
}

func (e *Env) NewPrimitiveArray(kind jni.Kind, length int32) jni.Object {
	return handle(C.jb_NewPrimitiveArray(e.p, C.int(kind), C.jsize(length)))
}

func (e *Env) GetArrayRegion(kind jni.Kind, array jni.Object, start, length int32, buf unsafe.Pointer) {
	C.jb_GetArrayRegion(e.p, C.int(kind), obj(array), C.jsize(start), C.jsize(length), buf)
}

func (e *Env) SetArrayRegion(kind jni.Kind, array jni.Object, start, length int32, buf unsafe.Pointer) {
	C.jb_SetArrayRegion(e.p, C.int(kind), obj(array), C.jsize(start), C.jsize(length), buf)
}

func (e *Env) NewObjectArray(length int32, elementClass, initial jni.Object) jni.Object {
	return handle(C.jb_NewObjectArray(e.p, C.jsize(length), obj(elementClass), obj(initial)))
}

func (e *Env) GetObjectArrayElement(array jni.Object, index int32) jni.Object {
	return handle(C.jb_GetObjectArrayElement(e.p, obj(array), C.jsize(index)))
}

func (e *Env) SetObjectArrayElement(array jni.Object, index int32, v jni.Object) {
	C.jb_SetObjectArrayElement(e.p, obj(array), C.jsize(index), obj(v))
}

// RegisterNatives binds C function pointers. Any other Fn fails the whole
// registration with jni.Err.
func (e *Env) RegisterNatives(class jni.Object, methods []jni.NativeMethod) int32 {
	if len(methods) == 0 {
		return jni.OK
	}
	mem := C.malloc(C.size_t(len(methods)) * C.size_t(unsafe.Sizeof(C.JNINativeMethod{})))
	defer C.free(mem)
	table := unsafe.Slice((*C.JNINativeMethod)(mem), len(methods))

	var strs []*C.char
	defer func() {
		for _, s := range strs {
			C.free(unsafe.Pointer(s))
		}
	}()
	for i, m := range methods {
		fn, ok := m.Fn.(unsafe.Pointer)
		if !ok || fn == nil {
			return jni.Err
		}
		name, sig := C.CString(m.Name), C.CString(m.Signature)
		strs = append(strs, name, sig)
		table[i] = C.JNINativeMethod{name: name, signature: sig, fnPtr: fn}
	}
	return int32(C.jb_RegisterNatives(e.p, obj(class), &table[0], C.jint(len(methods))))
}

var _ jni.Env = (*Env)(nil)

// ---------------------------------------------------------------------------
// VM
// ---------------------------------------------------------------------------

// VM is a JavaVM.
type VM struct {
	p *C.JavaVM
}

// FromJavaVM wraps the JavaVM pointer received in JNI_OnLoad or returned by
// JNI_CreateJavaVM.
func FromJavaVM(vm unsafe.Pointer) *VM { return &VM{p: (*C.JavaVM)(vm)} }

func (vm *VM) GetEnv(version int32) (jni.Env, int32) {
	var p *C.JNIEnv
	if status := int32(C.jb_GetEnv(vm.p, &p, C.jint(version))); status != jni.OK {
		return nil, status
	}
	return &Env{p: p}, jni.OK
}

func (vm *VM) AttachCurrentThread() (jni.Env, int32) {
	var p *C.JNIEnv
	if status := int32(C.jb_AttachCurrentThread(vm.p, &p)); status != jni.OK {
		return nil, status
	}
	return &Env{p: p}, jni.OK
}

func (vm *VM) DetachCurrentThread() int32 { return int32(C.jb_DetachCurrentThread(vm.p)) }

var _ jni.VM = (*VM)(nil)
