package registry

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/yoheimuta/go-protoparser/v4/parser"

	"github.com/protolens/protolens/schema"
)

// Registry stores the schema of the protobuf messages. Decoders look types
// up here by fully-qualified name while parsing or traversing a message.
type Registry struct {
	// ProtoDirectories are the include roots used to resolve import
	// statements. LoadSchema appends the loaded path automatically; add
	// more before calling it when imports live elsewhere.
	ProtoDirectories []string

	repo     *schema.ProtoRepo
	messages map[string]*schema.Message // fully qualified name -> message
	enums    map[string]*schema.Enum    // fully qualified name -> enum

	// fields whose type references still need resolution, collected while
	// converting parsed files and drained by resolveReferences.
	pending []pendingField

	// parsedCache avoids re-parsing a file that was already visited while
	// following imports.
	parsedCache map[string]*parser.Proto
}

// pendingField is a field whose named type reference (message or enum) or
// default literal has not been resolved yet. scope is the fully-qualified
// name of the enclosing message.
type pendingField struct {
	field      *schema.Field
	scope      string
	rawType    string // empty for primitive fields
	defaultLit string
	hasDefault bool
	mods       fieldModifiers
}

func NewRegistry() *Registry {
	return &Registry{}
}

// LoadSchema loads a single .proto file (following its imports through
// ProtoDirectories) or every .proto file under a directory, then builds the
// symbol table and resolves all type references and default values.
func (r *Registry) LoadSchema(protoPath string) error {
	if r.messages == nil {
		r.messages = make(map[string]*schema.Message)
	}
	if r.enums == nil {
		r.enums = make(map[string]*schema.Enum)
	}
	if r.repo == nil {
		r.repo = &schema.ProtoRepo{ProtoFiles: make(map[string]*schema.ProtoFile)}
	}

	info, err := os.Stat(protoPath)
	if err != nil {
		return errors.Wrap(err, "path does not exist")
	}

	var files []string
	if info.IsDir() {
		r.ProtoDirectories = append(r.ProtoDirectories, protoPath)
		err = filepath.WalkDir(protoPath, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.HasSuffix(path, ".proto") {
				return nil
			}
			files = append(files, path)
			return nil
		})
		if err != nil {
			return errors.Wrap(err, "failed to walk directory")
		}
	} else {
		if !strings.HasSuffix(protoPath, ".proto") {
			return errors.Errorf("file %s is not a .proto file", protoPath)
		}
		r.ProtoDirectories = append(r.ProtoDirectories, filepath.Dir(protoPath))
		files, err = r.collectImports(protoPath)
		if err != nil {
			return err
		}
	}

	for _, path := range files {
		if _, loaded := r.repo.ProtoFiles[path]; loaded {
			continue
		}
		protoFile, err := r.parseProtoFile(path)
		if err != nil {
			return errors.Wrapf(err, "failed to load proto file %s", path)
		}
		r.repo.ProtoFiles[path] = protoFile
	}

	return r.buildSymbolTable()
}

// buildSymbolTable registers every message and enum under its fully
// qualified name, then resolves the type references and default literals
// collected during parsing.
func (r *Registry) buildSymbolTable() error {
	for _, protoFile := range r.repo.ProtoFiles {
		if err := r.registerNames(protoFile); err != nil {
			return err
		}
	}
	return r.resolveReferences()
}

// registerNames registers all message and enum names of one file,
// including nested definitions.
func (r *Registry) registerNames(protoFile *schema.ProtoFile) error {
	pkg := protoFile.Package
	for _, msg := range protoFile.Messages {
		if err := r.registerMessage(r.getFullName(pkg, msg.Name), msg); err != nil {
			return err
		}
	}
	for _, enum := range protoFile.Enums {
		fullName := r.getFullName(pkg, enum.Name)
		if existing, dup := r.enums[fullName]; dup && existing != enum {
			return errors.Errorf("duplicate enum definition %s", fullName)
		}
		r.enums[fullName] = enum
	}
	return nil
}

// registerMessage registers a message and, recursively, its nested types.
func (r *Registry) registerMessage(fullName string, msg *schema.Message) error {
	if existing, dup := r.messages[fullName]; dup && existing != msg {
		return errors.Errorf("duplicate message definition %s", fullName)
	}
	r.messages[fullName] = msg

	for _, nested := range msg.NestedTypes {
		if err := r.registerMessage(fullName+"."+nested.Name, nested); err != nil {
			return err
		}
	}
	for _, nestedEnum := range msg.NestedEnums {
		nestedFull := fullName + "." + nestedEnum.Name
		if existing, dup := r.enums[nestedFull]; dup && existing != nestedEnum {
			return errors.Errorf("duplicate enum definition %s", nestedFull)
		}
		r.enums[nestedFull] = nestedEnum
	}
	return nil
}

func (r *Registry) getFullName(pkg, name string) string {
	if pkg == "" {
		return name
	}
	return pkg + "." + name
}

// GetMessage retrieves a message definition by name. An unqualified name
// matches any registered message with that suffix.
func (r *Registry) GetMessage(name string) (*schema.Message, error) {
	if msg, exists := r.messages[name]; exists {
		return msg, nil
	}
	for fullName, msg := range r.messages {
		if strings.HasSuffix(fullName, "."+name) {
			return msg, nil
		}
	}
	return nil, errors.Errorf("message not found: %s", name)
}

// GetEnum retrieves an enum definition by name. An unqualified name matches
// any registered enum with that suffix.
func (r *Registry) GetEnum(name string) (*schema.Enum, error) {
	if enum, exists := r.enums[name]; exists {
		return enum, nil
	}
	for fullName, enum := range r.enums {
		if strings.HasSuffix(fullName, "."+name) {
			return enum, nil
		}
	}
	return nil, errors.Errorf("enum not found: %s", name)
}

// ListMessages returns all registered message names, sorted.
func (r *Registry) ListMessages() []string {
	names := make([]string, 0, len(r.messages))
	for name := range r.messages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListEnums returns all registered enum names, sorted.
func (r *Registry) ListEnums() []string {
	names := make([]string, 0, len(r.enums))
	for name := range r.enums {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
