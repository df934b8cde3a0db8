package model

import (
	"encoding/json"
	"strings"
)

// ImageRefs is the ordered list of image URLs attached to a product.
// It is stored as a JSON array; the comma-joined form is kept for clients
// that still exchange image_url strings.
type ImageRefs []string

// ParseImageRefs splits a comma-joined list, trimming entries and dropping empty ones
func ParseImageRefs(commaList string) ImageRefs {
	refs := ImageRefs{}
	for _, part := range strings.Split(commaList, ",") {
		if part = strings.TrimSpace(part); part != "" {
			refs = append(refs, part)
		}
	}
	return refs
}

// Normalize trims entries and drops empty ones, keeping order
func (r ImageRefs) Normalize() ImageRefs {
	out := ImageRefs{}
	for _, ref := range r {
		if ref = strings.TrimSpace(ref); ref != "" {
			out = append(out, ref)
		}
	}
	return out
}

// Append returns a new list with urls added after the existing references
func (r ImageRefs) Append(urls ...string) ImageRefs {
	out := r.Normalize()
	return append(out, ImageRefs(urls).Normalize()...)
}

// Remove drops every reference equal to url, keeping the order of the rest
func (r ImageRefs) Remove(url string) ImageRefs {
	url = strings.TrimSpace(url)
	out := ImageRefs{}
	for _, ref := range r.Normalize() {
		if ref != url {
			out = append(out, ref)
		}
	}
	return out
}

// Contains reports whether url is referenced
func (r ImageRefs) Contains(url string) bool {
	for _, ref := range r {
		if ref == url {
			return true
		}
	}
	return false
}

// String joins the references with commas
func (r ImageRefs) String() string {
	return strings.Join(r.Normalize(), ",")
}

// MarshalJSON never renders null
func (r ImageRefs) MarshalJSON() ([]byte, error) {
	if r == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(r))
}
