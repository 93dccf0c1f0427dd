package validator

import (
	"reflect"
	"sync"
)

// fieldInfo is the per-field reflection data the validator needs, parsed
// once per type.
type fieldInfo struct {
	name        string
	validateTag string
	errorMsgTag string
	isStruct    bool
	isPtr       bool
}

type typeCache struct {
	mu    sync.RWMutex
	cache map[reflect.Type][]fieldInfo
}

func newTypeCache() *typeCache {
	return &typeCache{
		cache: make(map[reflect.Type][]fieldInfo),
	}
}

func (tc *typeCache) getFieldsInfo(t reflect.Type) []fieldInfo {
	tc.mu.RLock()
	info, exists := tc.cache[t]
	tc.mu.RUnlock()
	if exists {
		return info
	}

	tc.mu.Lock()
	defer tc.mu.Unlock()

	// Another goroutine may have parsed the type while we waited.
	if info, exists := tc.cache[t]; exists {
		return info
	}

	var fields []fieldInfo
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.PkgPath != "" {
			// Unexported: reflect.Value.Interface would panic.
			continue
		}
		fieldType := field.Type
		isPtr := fieldType.Kind() == reflect.Ptr
		if isPtr {
			fieldType = fieldType.Elem()
		}

		fields = append(fields, fieldInfo{
			name:        field.Name,
			validateTag: field.Tag.Get("validate"),
			errorMsgTag: field.Tag.Get(tagCustom),
			isStruct:    fieldType.Kind() == reflect.Struct,
			isPtr:       isPtr,
		})
	}

	tc.cache[t] = fields
	return fields
}
