package gpt

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// TypeInfo describes a well-known GPT partition type.
type TypeInfo struct {
	Name string
	OS   string
}

// well-known GPT partition type GUIDs, grounded on the small guidMap the
// teacher kept for its "create partition" form and expanded to the
// catalog spec.md §4.2 requires.
var builtinTypes = map[string]TypeInfo{
	"00000000-0000-0000-0000-000000000000": {"Unused entry", ""},
	"c12a7328-f81f-11d2-ba4b-00a0c93ec93b": {"EFI System", "EFI"},
	"21686148-6449-6e6f-744e-656564454649": {"BIOS boot", "BIOS"},
	"e3c9e316-0b5c-4db8-817d-f92df00215ae": {"Microsoft Reserved", "Windows"},
	"ebd0a0a2-b9e5-4433-87c0-68b6b72699c7": {"Microsoft Basic Data", "Windows"},
	"0fc63daf-8483-4772-8e79-3d69d8477de4": {"Linux filesystem", "Linux"},
	"0657fd6d-a4ab-43c4-84e5-0933c84b4f4f": {"Linux swap", "Linux"},
	"e6d6d379-f507-44c2-a23c-238f2a3df928": {"Linux LVM", "Linux"},
	"a19d880f-05fc-4d3b-a006-743f0f84911e": {"Linux RAID", "Linux"},
	"48465300-0000-11aa-aa11-00306543ecac": {"Apple HFS+", "macOS"},
	"7c3457ef-0000-11aa-aa11-00306543ecac": {"Apple APFS", "macOS"},
	"83bd6b9d-7f41-11dc-be0b-001560b84f0f": {"FreeBSD boot", "FreeBSD"},
	"516e7cb4-6ecf-11d6-8ff8-00022d09712b": {"FreeBSD UFS", "FreeBSD"},
	"516e7cb5-6ecf-11d6-8ff8-00022d09712b": {"FreeBSD swap", "FreeBSD"},
	"824cc7a0-36a8-11e3-890a-952519ad3f61": {"OpenBSD data", "OpenBSD"},
	"8d2a1e21-3b69-48dd-b3f7-3e1e0c8a9a4f": {"NetBSD FFS", "NetBSD"},
	"85d5e45a-237c-11e1-b4b3-e89a8f7fc3a7": {"DragonFlyBSD label32", "DragonFlyBSD"},
	"fe3a3951-4c3e-4dfd-9d6a-e93d4a2c0e37": {"ChromeOS kernel", "ChromeOS"},
	"3cb8e202-3b7e-47dd-8a3c-7ff2a13cfcec": {"ChromeOS root", "ChromeOS"},
	"2e0a753d-9e48-43b0-8337-b15192cb1b5e": {"ChromeOS future", "ChromeOS"},
	"cab6e88e-abf3-4102-a07a-d4bb9be3c1d3": {"ChromeOS RWFW", "ChromeOS"},
	"2568845d-2332-4675-bc39-8fa5a4748d15": {"Android-IA bootloader", "Android"},
	"114eaffe-1552-4022-b26e-9b053604cf84": {"Android-IA bootloader2", "Android"},
	"49a4d17f-93a3-45c1-a0de-f50b2ebe2599": {"Android-IA boot", "Android"},
	"4177c722-9e92-4aab-8644-43502bfd5506": {"Android-IA recovery", "Android"},
}

var (
	registryMu sync.RWMutex
	extraTypes = map[string]TypeInfo{}
)

func normalizeGUID(id uuid.UUID) string {
	return strings.ToLower(id.String())
}

// LookupType returns the well-known name and OS tag for id, or an
// "Unknown" fallback name for GUIDs not in the registry.
func LookupType(id uuid.UUID) TypeInfo {
	key := normalizeGUID(id)

	if info, ok := builtinTypes[key]; ok {
		return info
	}

	registryMu.RLock()
	info, ok := extraTypes[key]
	registryMu.RUnlock()
	if ok {
		return info
	}

	return TypeInfo{Name: "Unknown(" + id.String() + ")"}
}

// RegisterType extends the registry with a caller-supplied (GUID, name,
// OS) triple, looked up case-insensitively alongside the builtin
// catalog. Call this before Open/CreateFromDevice if callers need
// LookupType to recognize vendor-specific partition types.
func RegisterType(id uuid.UUID, name, os string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	extraTypes[normalizeGUID(id)] = TypeInfo{Name: name, OS: os}
}
