package registry

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/protolens/protolens/schema"
)

// resolveReferences finalizes every field collected during conversion:
// named type references become fully-qualified message or enum kinds, the
// label is computed once the kind is known, and default literals are parsed
// into owned values.
func (r *Registry) resolveReferences() error {
	pending := r.pending
	r.pending = nil

	for _, p := range pending {
		ft := &p.field.Type

		if p.rawType != "" {
			fqn, kind, ok := r.resolveTypeName(p.rawType, p.scope)
			if !ok {
				return errors.Errorf("unable to resolve type name %s (field %s in %s)", p.rawType, p.field.Name, p.scope)
			}
			switch kind {
			case schema.KindMessage:
				*ft = schema.FieldType{Kind: schema.KindMessage, MessageType: fqn}
			case schema.KindEnum:
				*ft = schema.FieldType{Kind: schema.KindEnum, EnumType: fqn}
			}
			p.field.Label = fieldLabel(p.mods, kind)
		}

		if p.hasDefault {
			var enum *schema.Enum
			if ft.Kind == schema.KindEnum {
				enum = r.enums[ft.EnumType]
			}
			def, err := schema.ParseDefault(ft, p.defaultLit, enum)
			if err != nil {
				return errors.Wrapf(err, "field %s in %s", p.field.Name, p.scope)
			}
			p.field.Default = def
		}
	}
	return nil
}

// resolveTypeName resolves a type reference the way protoc does: a leading
// dot is absolute; otherwise the reference is tried against each enclosing
// scope from the innermost outward, then as a fully-qualified name.
// See https://protobuf.dev/programming-guides/proto3/#name-resolution.
func (r *Registry) resolveTypeName(raw, scope string) (string, schema.TypeKind, bool) {
	if strings.HasPrefix(raw, ".") {
		return r.lookupKind(strings.TrimPrefix(raw, "."))
	}

	parts := strings.Split(scope, ".")
	for len(parts) > 0 && parts[0] != "" {
		candidate := strings.Join(parts, ".") + "." + raw
		if fqn, kind, ok := r.lookupKind(candidate); ok {
			return fqn, kind, ok
		}
		parts = parts[:len(parts)-1]
	}
	return r.lookupKind(raw)
}

// lookupKind reports whether a fully-qualified name names a registered
// message or enum.
func (r *Registry) lookupKind(name string) (string, schema.TypeKind, bool) {
	if _, ok := r.messages[name]; ok {
		return name, schema.KindMessage, true
	}
	if _, ok := r.enums[name]; ok {
		return name, schema.KindEnum, true
	}
	return "", "", false
}
