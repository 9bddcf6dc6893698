package simpleadmin

import (
	"net/url"
	"path"
	"strings"
)

// KeyExtractor derives the key of a descriptor relative to the media prefix.
// ok is false when no key can be derived from the descriptor.
type KeyExtractor func(d MediaDescriptor, prefix string) (key string, ok bool)

// KeyMapping maps a resolved MediaDescriptor to the prefixed key content uses
// to reference it.
type KeyMapping struct {
	// Prefix is prepended to the extracted key, e.g. "images/"
	Prefix string
	// Extract defaults to KeyFromReference when nil
	Extract KeyExtractor
}

// DefaultKeyMapping returns the mapping used when none is configured.
func DefaultKeyMapping() KeyMapping {
	return KeyMapping{
		Prefix:  DefaultMediaPrefix,
		Extract: KeyFromReference,
	}
}

// ReferencedKey returns the key content would use to reference d.
func (m KeyMapping) ReferencedKey(d MediaDescriptor) (string, bool) {
	extract := m.Extract
	if extract == nil {
		extract = KeyFromReference
	}
	key, ok := extract(d, m.Prefix)
	if !ok || key == "" {
		return "", false
	}
	return m.Prefix + key, true
}

// KeyFromReference derives the key from the descriptor's access reference.
//
// The query string and fragment are dropped. When the path ends in
// "/<prefix><Key>" the descriptor's own Key is returned, so keys that contain
// the prefix segment survive intact. Otherwise the key is the part of the
// path following the last "/<prefix>" segment, or the last path element when
// the prefix does not occur. Descriptors without a reference fall back to
// their Key. A reference that does not parse yields ok == false.
func KeyFromReference(d MediaDescriptor, prefix string) (string, bool) {
	if d.URL == "" {
		return d.Key, d.Key != ""
	}

	u, err := url.Parse(d.URL)
	if err != nil || u.Opaque != "" {
		return "", false
	}

	p := "/" + strings.TrimPrefix(u.Path, "/")
	marker := "/"
	if prefix != "" {
		marker += strings.TrimPrefix(prefix, "/")
		if !strings.HasSuffix(marker, "/") {
			marker += "/"
		}
	}

	if key := strings.TrimPrefix(d.Key, "/"); key != "" && strings.HasSuffix(p, marker+key) {
		return key, true
	}

	if prefix != "" {
		if i := strings.LastIndex(p, marker); i >= 0 {
			key := p[i+len(marker):]
			return key, key != "" && !strings.HasSuffix(key, "/")
		}
	}

	base := path.Base(p)
	if base == "/" || base == "." {
		return "", false
	}
	return base, true
}

// KeyFromDescriptor trusts the descriptor's Key and never inspects the URL.
func KeyFromDescriptor(d MediaDescriptor, _ string) (string, bool) {
	return d.Key, d.Key != ""
}

// FlattenKeyIndex collapses per-record key lists into one set.
func FlattenKeyIndex(keyIndex [][]string) map[string]struct{} {
	referenced := make(map[string]struct{})
	for _, keys := range keyIndex {
		for _, k := range keys {
			referenced[k] = struct{}{}
		}
	}
	return referenced
}

// Reconcile partitions media into descriptors referenced by keyIndex and
// descriptors that are not.
//
// A descriptor is in use when mapping.ReferencedKey yields a key that exactly
// equals one of the referenced keys. Descriptors whose key cannot be derived
// are never in use. Both sides are deduplicated by value and keep input
// order. Reconcile has no side effects and returns equal partitions for equal
// inputs.
func Reconcile(media []MediaDescriptor, keyIndex [][]string, mapping KeyMapping) UsagePartition {
	referenced := FlattenKeyIndex(keyIndex)

	partition := UsagePartition{
		InUse:    []MediaDescriptor{},
		NotInUse: []MediaDescriptor{},
	}
	seen := make(map[MediaDescriptor]struct{}, len(media))
	for _, d := range media {
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}

		if key, ok := mapping.ReferencedKey(d); ok {
			if _, used := referenced[key]; used {
				partition.InUse = append(partition.InUse, d)
				continue
			}
		}
		partition.NotInUse = append(partition.NotInUse, d)
	}
	return partition
}
