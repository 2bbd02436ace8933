package protolens

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/protolens/protolens/visitor"
	"github.com/protolens/protolens/wire"
)

func loadSchema(t *testing.T, content string) *Protolens {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.proto")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	p := New()
	require.NoError(t, p.LoadSchema(path))
	return p
}

func TestParse_MinimalMessage(t *testing.T) {
	p := loadSchema(t, `
syntax = "proto3";
package demo;

message M {
  int32 a = 1;
}
`)

	// Field 1 varint, value 42.
	got, err := p.Parse([]byte{8, 42}, "demo.M")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": int32(42)}, got)
}

func TestParse_FullOrder(t *testing.T) {
	p := loadSchema(t, `
syntax = "proto3";
package shop;

message Order {
  int64 id = 1;
  optional string note = 2;
  repeated Item items = 3;
  Status status = 4;
  double total = 5;
  bytes signature = 6;
}

message Item {
  string sku = 1;
  uint32 qty = 2;
}

enum Status {
  STATUS_UNKNOWN = 0;
  STATUS_SHIPPED = 2;
}
`)

	item := func(sku string, qty uint64) []byte {
		var b []byte
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendString(b, sku)
		b = protowire.AppendTag(b, 2, protowire.VarintType)
		b = protowire.AppendVarint(b, qty)
		return b
	}

	var data []byte
	data = protowire.AppendTag(data, 1, protowire.VarintType)
	data = protowire.AppendVarint(data, 12345)
	data = protowire.AppendTag(data, 2, protowire.BytesType)
	data = protowire.AppendString(data, "leave at door")
	data = protowire.AppendTag(data, 3, protowire.BytesType)
	data = protowire.AppendBytes(data, item("SKU-1", 2))
	data = protowire.AppendTag(data, 3, protowire.BytesType)
	data = protowire.AppendBytes(data, item("SKU-2", 1))
	data = protowire.AppendTag(data, 4, protowire.VarintType)
	data = protowire.AppendVarint(data, 2)
	data = protowire.AppendTag(data, 6, protowire.BytesType)
	data = protowire.AppendBytes(data, []byte{0xde, 0xad})

	got, err := p.Parse(data, "shop.Order")
	require.NoError(t, err)

	want := map[string]any{
		"id":   int64(12345),
		"note": "leave at door",
		"items": []any{
			map[string]any{"sku": "SKU-1", "qty": uint32(2)},
			map[string]any{"sku": "SKU-2", "qty": uint32(1)},
		},
		"status":    "STATUS_SHIPPED",
		"total":     float64(0), // absent, implicit zero
		"signature": []byte{0xde, 0xad},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("parsed order mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_MapField(t *testing.T) {
	p := loadSchema(t, `
syntax = "proto3";
package shop;

message Inventory {
  map<string, int32> qty_by_sku = 1;
}
`)

	entry := func(key string, value uint64) []byte {
		var b []byte
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendString(b, key)
		b = protowire.AppendTag(b, 2, protowire.VarintType)
		b = protowire.AppendVarint(b, value)
		return b
	}

	var data []byte
	data = protowire.AppendTag(data, 1, protowire.BytesType)
	data = protowire.AppendBytes(data, entry("a", 1))
	data = protowire.AppendTag(data, 1, protowire.BytesType)
	data = protowire.AppendBytes(data, entry("b", 2))

	got, err := p.Parse(data, "shop.Inventory")
	require.NoError(t, err)

	// Map fields surface as the repeated entry messages they are on the
	// wire.
	want := map[string]any{
		"qty_by_sku": []any{
			map[string]any{"key": "a", "value": int32(1)},
			map[string]any{"key": "b", "value": int32(2)},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("parsed inventory mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_Proto2DefaultsSurface(t *testing.T) {
	p := loadSchema(t, `
syntax = "proto2";
package cfg;

message Settings {
  optional int32 retries = 1 [default = 3];
  optional string region = 2 [default = "us-east"];
  optional bool enabled = 3;
}
`)

	got, err := p.Parse(nil, "cfg.Settings")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"retries": int32(3),
		"region":  "us-east",
		"enabled": nil,
	}, got)
}

func TestParse_UnknownMessageType(t *testing.T) {
	p := loadSchema(t, `
syntax = "proto3";
package demo;
message M { int32 a = 1; }
`)

	_, err := p.Parse([]byte{8, 1}, "demo.NoSuch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "message type not found")
}

func TestVisitWithPool_Reuse(t *testing.T) {
	p := loadSchema(t, `
syntax = "proto3";
package demo;
message M {
  repeated int32 xs = 1;
}
`)

	var data []byte
	for _, v := range []uint64{1, 2, 3} {
		data = protowire.AppendTag(data, 1, protowire.VarintType)
		data = protowire.AppendVarint(data, v)
	}

	pool := wire.NewPool()
	for i := 0; i < 10; i++ {
		var b visitor.MapBuilder
		require.NoError(t, p.VisitWithPool(data, "M", pool, &b))
		assert.Equal(t, []any{int32(1), int32(2), int32(3)}, b.Map()["xs"])
	}
}

func TestListSchema(t *testing.T) {
	p := loadSchema(t, `
syntax = "proto3";
package demo;
message B { int32 x = 1; }
message A { int32 x = 1; }
enum E { E_ZERO = 0; }
`)

	assert.Equal(t, []string{"demo.A", "demo.B"}, p.ListMessages())
	assert.Equal(t, []string{"demo.E"}, p.ListEnums())
}
