package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"
)

//go:embed fallback.json
var fallbackJSON []byte

var fallbackVersions = sync.OnceValue(func() []KernelVersion {
	var raw []KernelVersion
	if err := json.Unmarshal(fallbackJSON, &raw); err != nil {
		panic(fmt.Sprintf("catalog: embedded fallback list is invalid: %v", err))
	}
	versions := normalizeEntries(raw)
	if len(versions) == 0 {
		panic("catalog: embedded fallback list is empty")
	}
	return versions
})

// Fallback returns the built-in release list used when neither the
// network nor the cache can answer
func Fallback() []KernelVersion {
	return cloneVersions(fallbackVersions())
}
