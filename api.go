package protolens

import (
	"fmt"

	"github.com/protolens/protolens/registry"
	"github.com/protolens/protolens/visitor"
	"github.com/protolens/protolens/wire"
)

// Protolens provides schema-aware protobuf decoding without generated code.
// Load one or more .proto trees, then drive visitors over wire-encoded
// payloads by message type name.
type Protolens struct {
	registry *registry.Registry
}

// New creates a new Protolens instance.
func New() *Protolens {
	return &Protolens{
		registry: registry.NewRegistry(),
	}
}

// LoadSchema loads a .proto file (following imports) or a directory tree of
// .proto files into the registry.
func (p *Protolens) LoadSchema(protoPath string) error {
	return p.registry.LoadSchema(protoPath)
}

// Visit decodes data as one message of the named type and drives v over the
// result. Values surfaced to v may alias data; v must copy whatever it
// keeps. A fresh buffer pool is used; use VisitWithPool to amortize
// allocations across calls.
func (p *Protolens) Visit(data []byte, messageType string, v visitor.Visitor) error {
	return p.VisitWithPool(data, messageType, wire.NewPool(), v)
}

// VisitWithPool is Visit with a caller-owned buffer pool. Reusing one pool
// across sequential decodes of similar messages drops steady-state
// allocation to near zero. A pool must not be shared by concurrent decodes.
func (p *Protolens) VisitWithPool(data []byte, messageType string, pool *wire.Pool, v visitor.Visitor) error {
	msg, err := p.registry.GetMessage(messageType)
	if err != nil {
		return fmt.Errorf("message type not found: %s", messageType)
	}
	return wire.Visit(data, msg, p.registry, pool, v)
}

// Parse decodes data as one message of the named type into ordinary Go
// values: map[string]any for messages, []any for repeated fields, nil for
// absent optionals. The result owns all of its memory.
func (p *Protolens) Parse(data []byte, messageType string) (map[string]any, error) {
	var b visitor.MapBuilder
	if err := p.Visit(data, messageType, &b); err != nil {
		return nil, err
	}
	return b.Map(), nil
}

// ===== REGISTRY ACCESS =====

func (p *Protolens) Registry() *registry.Registry { return p.registry }
func (p *Protolens) ListMessages() []string       { return p.registry.ListMessages() }
func (p *Protolens) ListEnums() []string          { return p.registry.ListEnums() }
