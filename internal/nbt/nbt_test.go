package nbt

import (
	"bytes"
	"testing"
)

func sampleCompound() *Tag {
	return &Tag{
		Type: TagCompound,
		Name: "Data",
		Value: map[string]*Tag{
			"LevelName": {Type: TagString, Value: "New World"},
			"Version":   {Type: TagInt, Value: int64(19133)},
			"Time":      {Type: TagLong, Value: int64(123456789)},
			"SpawnPos": {
				Type:  TagList,
				Value: []*Tag{{Type: TagInt, Value: int64(0)}, {Type: TagInt, Value: int64(64)}, {Type: TagInt, Value: int64(0)}},
			},
		},
	}
}

func TestEncodeDecode_Roundtrip(t *testing.T) {
	original := sampleCompound()

	var buf bytes.Buffer
	if err := Encode(&buf, original); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	decoded, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if decoded.Name != "Data" {
		t.Errorf("root name = %q, want %q", decoded.Name, "Data")
	}

	children := decoded.Value.(map[string]*Tag)
	if children["LevelName"].Value.(string) != "New World" {
		t.Errorf("LevelName = %v, want %q", children["LevelName"].Value, "New World")
	}
	if children["Version"].Value.(int64) != 19133 {
		t.Errorf("Version = %v, want 19133", children["Version"].Value)
	}
	if children["Time"].Value.(int64) != 123456789 {
		t.Errorf("Time = %v, want 123456789", children["Time"].Value)
	}

	spawnPos := children["SpawnPos"].Value.([]*Tag)
	if len(spawnPos) != 3 {
		t.Fatalf("SpawnPos len = %d, want 3", len(spawnPos))
	}
	if spawnPos[1].Value.(int64) != 64 {
		t.Errorf("SpawnPos[1] = %v, want 64", spawnPos[1].Value)
	}
}

func TestWriteFileGzip_ReadFile_Roundtrip(t *testing.T) {
	original := sampleCompound()

	var buf bytes.Buffer
	if err := WriteFileGzip(&buf, original); err != nil {
		t.Fatalf("WriteFileGzip failed: %v", err)
	}

	decoded, err := ReadFile(&buf)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	children := decoded.Value.(map[string]*Tag)
	if children["LevelName"].Value.(string) != "New World" {
		t.Errorf("LevelName = %v, want %q", children["LevelName"].Value, "New World")
	}
}

func TestReadFile_Uncompressed(t *testing.T) {
	original := sampleCompound()

	var buf bytes.Buffer
	if err := Encode(&buf, original); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	decoded, err := ReadFile(&buf)
	if err != nil {
		t.Fatalf("ReadFile on uncompressed input failed: %v", err)
	}
	if decoded.Name != "Data" {
		t.Errorf("root name = %q, want %q", decoded.Name, "Data")
	}
}
