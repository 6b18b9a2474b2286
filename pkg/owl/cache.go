package owl

import "sync"

// Mutating an ontology invalidates any optimized-reasoner cache whose
// ontology id matches. pkg/tableau depends on pkg/owl, not
// the other way around, so the optimized reasoner cannot simply hook
// Store.Load itself; instead it registers an invalidation callback here
// when it wraps an ontology, and Store.Load calls every registered
// callback for the ontology IRI it just overwrote.
var (
	cacheMu    sync.Mutex
	cacheHooks = make(map[string][]func())
)

// RegisterCacheInvalidator arranges for fn to be called whenever
// ontologyIRI is reloaded through a Store. Used by the tableau package's
// optimized reasoner to drop its types-of cache on ontology mutation.
func RegisterCacheInvalidator(ontologyIRI string, fn func()) {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	cacheHooks[ontologyIRI] = append(cacheHooks[ontologyIRI], fn)
}

// InvalidateCache runs every invalidator registered for ontologyIRI.
// Store.Load calls this after every overwrite; callers that mutate an
// ontology by some other path (or tests simulating a reload) may call
// it directly.
func InvalidateCache(ontologyIRI string) {
	cacheMu.Lock()
	hooks := append([]func(){}, cacheHooks[ontologyIRI]...)
	cacheMu.Unlock()
	for _, fn := range hooks {
		fn()
	}
}
