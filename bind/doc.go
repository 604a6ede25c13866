// Package bind synthesizes guest-language source that proxies tool calls
// into the host bridge.
//
// Generation is a pure function of (registry snapshot, target language):
// identical inputs produce byte-identical source, so output is suitable for
// golden-file testing and caching. Namespaced tools become methods on a
// class-like construct with a shared instance; ungrouped tools become free
// functions. Every generated callable builds an argument object from its
// declared parameters, serializes it to JSON, and forwards through the
// injected bridge object.
package bind
