package registry

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	protoparser "github.com/yoheimuta/go-protoparser/v4"
	"github.com/yoheimuta/go-protoparser/v4/parser"

	"github.com/protolens/protolens/schema"
)

// primitiveTypes maps .proto type keywords to the schema's primitive kinds.
// Anything not in this table is a named message or enum reference.
var primitiveTypes = map[string]schema.PrimitiveType{
	"double":   schema.TypeDouble,
	"float":    schema.TypeFloat,
	"int64":    schema.TypeInt64,
	"uint64":   schema.TypeUint64,
	"int32":    schema.TypeInt32,
	"fixed64":  schema.TypeFixed64,
	"fixed32":  schema.TypeFixed32,
	"bool":     schema.TypeBool,
	"string":   schema.TypeString,
	"bytes":    schema.TypeBytes,
	"uint32":   schema.TypeUint32,
	"sfixed32": schema.TypeSfixed32,
	"sfixed64": schema.TypeSfixed64,
	"sint32":   schema.TypeSint32,
	"sint64":   schema.TypeSint64,
}

// collectImports returns protoFile plus every file it transitively imports,
// resolved through ProtoDirectories. google/protobuf well-known imports are
// skipped, matching the loader's scope.
func (r *Registry) collectImports(protoFile string) ([]string, error) {
	visited := make(map[string]struct{})
	result := make([]string, 0)

	var dfs func(path string) error
	dfs = func(path string) error {
		if _, ok := visited[path]; ok {
			return nil
		}
		visited[path] = struct{}{}
		result = append(result, path)

		parsed, err := r.parseProto(path)
		if err != nil {
			return err
		}
		for _, body := range parsed.ProtoBody {
			imp, ok := body.(*parser.Import)
			if !ok {
				continue
			}
			location := strings.Trim(imp.Location, `"`)
			if strings.Contains(location, "google/protobuf") {
				continue
			}
			fullPath, err := r.findProtoFile(location)
			if err != nil {
				return err
			}
			if err := dfs(fullPath); err != nil {
				return err
			}
		}
		return nil
	}

	if err := dfs(protoFile); err != nil {
		return nil, err
	}
	return result, nil
}

// findProtoFile resolves an import path against the registered include
// directories.
func (r *Registry) findProtoFile(importPath string) (string, error) {
	for _, dir := range r.ProtoDirectories {
		fullPath := filepath.Join(dir, importPath)
		if _, err := os.Stat(fullPath); err == nil {
			return fullPath, nil
		}
	}
	return "", errors.Errorf("import %s not found under %v", importPath, r.ProtoDirectories)
}

// parseProto parses one .proto file, caching the result across import
// traversal and conversion.
func (r *Registry) parseProto(path string) (*parser.Proto, error) {
	if parsed, ok := r.parsedCache[path]; ok {
		return parsed, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read file")
	}
	parsed, err := protoparser.Parse(bytes.NewBuffer(content))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse proto")
	}
	if r.parsedCache == nil {
		r.parsedCache = make(map[string]*parser.Proto)
	}
	r.parsedCache[path] = parsed
	return parsed, nil
}

// parseProtoFile parses and converts one .proto file into the schema model.
func (r *Registry) parseProtoFile(path string) (*schema.ProtoFile, error) {
	parsed, err := r.parseProto(path)
	if err != nil {
		return nil, err
	}

	protoFile := &schema.ProtoFile{
		Name:   filepath.Base(path),
		Syntax: "proto3",
	}
	if parsed.Syntax != nil && strings.Contains(parsed.Syntax.ProtobufVersion, "proto2") {
		protoFile.Syntax = "proto2"
	}

	// The package statement may legally follow the first definition, so
	// pin it down before converting anything that needs a scope.
	for _, body := range parsed.ProtoBody {
		if pkg, ok := body.(*parser.Package); ok {
			protoFile.Package = pkg.Name
		}
	}

	for _, body := range parsed.ProtoBody {
		switch b := body.(type) {
		case *parser.Import:
			protoFile.Imports = append(protoFile.Imports, &schema.Import{
				Path:   strings.Trim(b.Location, `"`),
				Public: b.Modifier == parser.ImportModifierPublic,
			})
		case *parser.Message:
			msg, err := r.convertMessage(b, r.getFullName(protoFile.Package, b.MessageName), protoFile.Syntax)
			if err != nil {
				return nil, errors.Wrapf(err, "message %s", b.MessageName)
			}
			protoFile.Messages = append(protoFile.Messages, msg)
		case *parser.Enum:
			enum, err := convertEnum(b)
			if err != nil {
				return nil, errors.Wrapf(err, "enum %s", b.EnumName)
			}
			protoFile.Enums = append(protoFile.Enums, enum)
		}
	}
	return protoFile, nil
}

// convertMessage converts one parsed message and all of its nested
// definitions. fqn is the message's fully-qualified name; field type
// references are recorded against it for later resolution.
func (r *Registry) convertMessage(pm *parser.Message, fqn, syntax string) (*schema.Message, error) {
	msg := &schema.Message{Name: pm.MessageName}

	for _, body := range pm.MessageBody {
		switch b := body.(type) {
		case *parser.Field:
			field, err := r.convertField(b.FieldName, b.FieldNumber, b.Type, b.FieldOptions, fieldModifiers{
				isRepeated: b.IsRepeated,
				isRequired: b.IsRequired,
				isOptional: b.IsOptional,
				syntax:     syntax,
			}, fqn)
			if err != nil {
				return nil, err
			}
			msg.Fields = append(msg.Fields, field)
		case *parser.Oneof:
			// Oneof members always track presence; flatten them as
			// optional fields.
			for _, of := range b.OneofFields {
				field, err := r.convertField(of.FieldName, of.FieldNumber, of.Type, of.FieldOptions, fieldModifiers{
					isOptional: true,
					syntax:     syntax,
				}, fqn)
				if err != nil {
					return nil, err
				}
				msg.Fields = append(msg.Fields, field)
			}
		case *parser.MapField:
			field, entry, err := r.convertMapField(b, fqn, syntax)
			if err != nil {
				return nil, err
			}
			msg.Fields = append(msg.Fields, field)
			msg.NestedTypes = append(msg.NestedTypes, entry)
		case *parser.Message:
			nested, err := r.convertMessage(b, fqn+"."+b.MessageName, syntax)
			if err != nil {
				return nil, err
			}
			msg.NestedTypes = append(msg.NestedTypes, nested)
		case *parser.Enum:
			enum, err := convertEnum(b)
			if err != nil {
				return nil, err
			}
			msg.NestedEnums = append(msg.NestedEnums, enum)
		case *parser.Extend, *parser.GroupField:
			return nil, errors.Errorf("unsupported construct in message %s", pm.MessageName)
		}
	}
	return msg, nil
}

// fieldModifiers carries the declaration-site label keywords and file
// syntax into label computation.
type fieldModifiers struct {
	isRepeated bool
	isRequired bool
	isOptional bool
	syntax     string
}

// convertField converts one parsed field. Fields with a named (message or
// enum) type get their kind, final label, and default resolved later, once
// the full symbol table exists.
func (r *Registry) convertField(name, numberLit, typeName string, opts []*parser.FieldOption, mods fieldModifiers, scope string) (*schema.Field, error) {
	number, err := strconv.ParseInt(numberLit, 10, 32)
	if err != nil {
		return nil, errors.Wrapf(err, "field %s has invalid number %q", name, numberLit)
	}

	field := &schema.Field{
		Name:   name,
		Number: int32(number),
	}

	defaultLit, hasDefault := findDefaultOption(opts)

	if primitive, ok := primitiveTypes[typeName]; ok {
		field.Type = schema.FieldType{Kind: schema.KindPrimitive, PrimitiveType: primitive}
		field.Label = fieldLabel(mods, schema.KindPrimitive)
		if hasDefault {
			r.pending = append(r.pending, pendingField{
				field:      field,
				scope:      scope,
				defaultLit: defaultLit,
				hasDefault: true,
			})
		}
		return field, nil
	}

	// Named type: kind unknown until the symbol table is complete.
	r.pending = append(r.pending, pendingField{
		field:      field,
		scope:      scope,
		rawType:    typeName,
		defaultLit: defaultLit,
		hasDefault: hasDefault,
		mods:       mods,
	})
	return field, nil
}

// convertMapField lowers a map<K,V> field to a repeated synthetic entry
// message, the way protoc represents maps on the wire.
func (r *Registry) convertMapField(mf *parser.MapField, fqn, syntax string) (*schema.Field, *schema.Message, error) {
	number, err := strconv.ParseInt(mf.FieldNumber, 10, 32)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "map field %s has invalid number %q", mf.MapName, mf.FieldNumber)
	}

	keyType, ok := primitiveTypes[mf.KeyType]
	if !ok {
		return nil, nil, errors.Errorf("map field %s has non-primitive key type %s", mf.MapName, mf.KeyType)
	}

	entryName := upperCamelCase(mf.MapName) + "Entry"
	entry := &schema.Message{
		Name:     entryName,
		MapEntry: true,
		Fields: []*schema.Field{
			{
				Name:   "key",
				Number: 1,
				Label:  schema.LabelRequired,
				Type:   schema.FieldType{Kind: schema.KindPrimitive, PrimitiveType: keyType},
			},
		},
	}

	valueField, err := r.convertField("value", "2", mf.Type, nil, fieldModifiers{syntax: syntax, isRequired: true}, fqn+"."+entryName)
	if err != nil {
		return nil, nil, err
	}
	entry.Fields = append(entry.Fields, valueField)

	field := &schema.Field{
		Name:   mf.MapName,
		Number: int32(number),
		Label:  schema.LabelRepeated,
		Type:   schema.FieldType{Kind: schema.KindMessage, MessageType: fqn + "." + entryName},
	}
	return field, entry, nil
}

// convertEnum converts one parsed enum definition.
func convertEnum(pe *parser.Enum) (*schema.Enum, error) {
	enum := &schema.Enum{Name: pe.EnumName}
	for _, body := range pe.EnumBody {
		switch b := body.(type) {
		case *parser.EnumField:
			number, err := strconv.ParseInt(b.Number, 10, 32)
			if err != nil {
				return nil, errors.Wrapf(err, "enum value %s has invalid number %q", b.Ident, b.Number)
			}
			enum.Values = append(enum.Values, &schema.EnumValue{
				Name:   b.Ident,
				Number: int32(number),
			})
		case *parser.Option:
			if b.OptionName == "allow_alias" && b.Constant == "true" {
				enum.AllowAlias = true
			}
		}
	}
	return enum, nil
}

// fieldLabel computes the schema label from the declaration keywords.
// proto3 singular fields without the optional keyword have implicit
// presence, so they take the required label and synthesize zero defaults;
// message-typed fields always track presence.
func fieldLabel(mods fieldModifiers, kind schema.TypeKind) schema.FieldLabel {
	switch {
	case mods.isRepeated:
		return schema.LabelRepeated
	case mods.isRequired:
		return schema.LabelRequired
	case mods.isOptional:
		return schema.LabelOptional
	case mods.syntax == "proto2":
		return schema.LabelOptional
	case kind == schema.KindMessage:
		return schema.LabelOptional
	default:
		return schema.LabelRequired
	}
}

// findDefaultOption extracts a proto2 default option's literal.
func findDefaultOption(opts []*parser.FieldOption) (string, bool) {
	for _, opt := range opts {
		if opt.OptionName == "default" {
			return opt.Constant, true
		}
	}
	return "", false
}

// upperCamelCase converts a snake_case field name to the UpperCamelCase
// protoc uses when naming synthetic map entry messages.
func upperCamelCase(s string) string {
	out := make([]byte, 0, len(s))
	upperNext := true
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '_' {
			upperNext = true
			continue
		}
		if upperNext {
			if c >= 'a' && c <= 'z' {
				c = c - 'a' + 'A'
			}
			upperNext = false
		}
		out = append(out, c)
	}
	return string(out)
}
