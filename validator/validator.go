package validator

import (
	"reflect"
	"strings"
	"sync"

	"github.com/siteplane/siteplane-go-pkg/errors"

	"github.com/go-playground/validator/v10"
)

/* ========================================================================
 * Validator
 * ========================================================================
 * Struct validation with custom per-rule messages. Satisfies the
 * repository's ModelValidator, so a Factory built WithValidator rejects
 * invalid models before they reach the database.
 *
 * Example:
 *     type Page struct {
 *         Slug  string `validate:"required,max=191" error_msg:"required:slug is required|max:slug too long"`
 *         Title string `validate:"required" error_msg:"required:title is required"`
 *     }
 * ======================================================================== */

const (
	tagCustom     = "error_msg"
	ruleSeparator = "|"
	keyValueSep   = ":"
)

// Validator validates structs recursively.
type Validator struct {
	validator     *validator.Validate
	typeCache     *typeCache
	errorMsgCache map[string]map[string]string
	mu            sync.RWMutex
}

// New creates a validator.
func New() *Validator {
	return &Validator{
		validator:     validator.New(),
		typeCache:     newTypeCache(),
		errorMsgCache: make(map[string]map[string]string),
	}
}

// Validate checks s and returns an errors.ValidationError grouping the
// messages by field path, or nil when s is valid.
func (v *Validator) Validate(s any) error {
	if s == nil {
		return nil
	}

	verr := errors.NewValidation("model validation failed")
	v.validateRecursive(s, "", verr)

	if verr.HasFields() {
		return verr
	}
	return nil
}

func (v *Validator) validateRecursive(s any, prefix string, verr *errors.ValidationError) {
	value := reflect.ValueOf(s)
	if value.Kind() == reflect.Ptr {
		if value.IsNil() {
			return
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return
	}

	for _, fieldInfo := range v.typeCache.getFieldsInfo(value.Type()) {
		fieldValue := value.FieldByName(fieldInfo.name)
		fullFieldName := fieldInfo.name
		if prefix != "" {
			fullFieldName = prefix + "." + fieldInfo.name
		}

		if fieldInfo.isStruct {
			if fieldInfo.isPtr {
				if fieldValue.IsNil() {
					continue
				}
				fieldValue = fieldValue.Elem()
			}
			v.validateRecursive(fieldValue.Interface(), fullFieldName, verr)
			continue
		}

		if fieldInfo.validateTag == "" {
			continue
		}

		err := v.validator.Var(fieldValue.Interface(), fieldInfo.validateTag)
		if err == nil {
			continue
		}

		validationErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			verr.AddField(fullFieldName, err.Error())
			continue
		}

		for _, fieldErr := range validationErrs {
			message := v.getCachedErrorMessage(fieldInfo.errorMsgTag, fieldErr.Tag())
			if message == "" {
				message = fieldErr.Error()
			}
			verr.AddField(fullFieldName, message)
		}
	}
}

func (v *Validator) getCachedErrorMessage(errorMsgTag, rule string) string {
	if errorMsgTag == "" {
		return ""
	}

	v.mu.RLock()
	if ruleMap, exists := v.errorMsgCache[errorMsgTag]; exists {
		if msg, found := ruleMap[rule]; found {
			v.mu.RUnlock()
			return msg
		}
	}
	v.mu.RUnlock()

	v.mu.Lock()
	defer v.mu.Unlock()

	if ruleMap, exists := v.errorMsgCache[errorMsgTag]; exists {
		if msg, found := ruleMap[rule]; found {
			return msg
		}
	}

	ruleMap := parseErrorMessageTag(errorMsgTag)
	v.errorMsgCache[errorMsgTag] = ruleMap
	return ruleMap[rule]
}

// parseErrorMessageTag splits "required:slug is required|max:slug too
// long" into a rule-to-message map.
func parseErrorMessageTag(errorMsgTag string) map[string]string {
	ruleMap := make(map[string]string)
	for _, ruleMessage := range strings.Split(errorMsgTag, ruleSeparator) {
		parts := strings.SplitN(ruleMessage, keyValueSep, 2)
		if len(parts) == 2 {
			ruleMap[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
		}
	}
	return ruleMap
}
