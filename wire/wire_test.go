package wire

import (
	"github.com/protolens/protolens/schema"

	"github.com/pkg/errors"
)

// Shared test fixtures: a hand-built descriptor set standing in for a
// loaded registry.

type fakeResolver struct {
	messages map[string]*schema.Message
	enums    map[string]*schema.Enum
}

func (r *fakeResolver) GetMessage(name string) (*schema.Message, error) {
	if m, ok := r.messages[name]; ok {
		return m, nil
	}
	return nil, errors.Errorf("message not found: %s", name)
}

func (r *fakeResolver) GetEnum(name string) (*schema.Enum, error) {
	if e, ok := r.enums[name]; ok {
		return e, nil
	}
	return nil, errors.Errorf("enum not found: %s", name)
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{
		messages: make(map[string]*schema.Message),
		enums:    make(map[string]*schema.Enum),
	}
}

func (r *fakeResolver) addMessage(m *schema.Message) *fakeResolver {
	r.messages[m.Name] = m
	return r
}

func (r *fakeResolver) addEnum(e *schema.Enum) *fakeResolver {
	r.enums[e.Name] = e
	return r
}

func primitiveField(name string, number int32, label schema.FieldLabel, t schema.PrimitiveType) *schema.Field {
	return &schema.Field{
		Name:   name,
		Number: number,
		Label:  label,
		Type:   schema.FieldType{Kind: schema.KindPrimitive, PrimitiveType: t},
	}
}

func messageField(name string, number int32, label schema.FieldLabel, messageType string) *schema.Field {
	return &schema.Field{
		Name:   name,
		Number: number,
		Label:  label,
		Type:   schema.FieldType{Kind: schema.KindMessage, MessageType: messageType},
	}
}

func enumField(name string, number int32, label schema.FieldLabel, enumType string) *schema.Field {
	return &schema.Field{
		Name:   name,
		Number: number,
		Label:  label,
		Type:   schema.FieldType{Kind: schema.KindEnum, EnumType: enumType},
	}
}
