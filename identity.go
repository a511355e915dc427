package disruptor

import (
	"fmt"
	"reflect"
)

// handlerIdentity is the reference identity of a registered handler
type handlerIdentity struct {
	typ reflect.Type
	ptr uintptr
	val any
}

// identityOf keys reference-like handlers by type and address, so two structurally
// equal handlers behind different pointers stay distinct. Comparable values key by value.
func identityOf(handler any) (handlerIdentity, error) {
	if handler == nil {
		return handlerIdentity{}, ErrUnidentifiableHandler
	}

	v := reflect.ValueOf(handler)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.UnsafePointer:
		return handlerIdentity{typ: v.Type(), ptr: v.Pointer()}, nil
	case reflect.Func, reflect.Slice:
		return handlerIdentity{}, ErrUnidentifiableHandler
	}

	if !v.Comparable() {
		return handlerIdentity{}, ErrUnidentifiableHandler
	}
	return handlerIdentity{typ: v.Type(), val: handler}, nil
}

// describe names a consumer for logs, errors and metric labels
func describe(consumer any) string {
	if named, ok := consumer.(interface{ Name() string }); ok {
		return named.Name()
	}
	return fmt.Sprintf("%T", consumer)
}
