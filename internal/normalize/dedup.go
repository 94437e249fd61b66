package normalize

import (
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"manifest-pipeline/internal/common"
	"manifest-pipeline/internal/manifest"
)

// occurrence is one linkable field value found on a component.
type occurrence struct {
	owner       map[string]any
	field       string
	value       any
	fingerprint string
	at          manifest.Pointer
}

// group holds equal values in first-occurrence order.
type group struct {
	fingerprint string
	items       []occurrence
}

// fieldKey identifies a linkable field on a component type.
type fieldKey struct {
	componentType string
	field         string
}

func (k fieldKey) pointer() manifest.Pointer {
	return manifest.NewPointer(manifest.KeyDefinitions, manifest.KeyLinked, k.componentType, k.field)
}

// skippedRootKeys are never searched for duplicates.
var skippedRootKeys = map[string]bool{
	manifest.KeyDefinitions: true,
	manifest.KeySchemas:     true,
	manifest.KeyMetadata:    true,
}

// deduplicate rewrites duplicated linkable values into linked references.
func (n *Normalizer) deduplicate(doc, linked map[string]any, res *Result) {
	if len(n.linkable) == 0 {
		return
	}

	var order []fieldKey

	found := make(map[fieldKey][]occurrence)

	n.collect(doc, manifest.Pointer{}, true, func(key fieldKey, occ occurrence) {
		if _, seen := found[key]; !seen {
			order = append(order, key)
		}

		found[key] = append(found[key], occ)
	})

	for _, key := range order {
		n.link(key, found[key], linked, res)
	}
}

// collect walks node in deterministic order and reports every linkable
// field value. Linkable values themselves are not searched.
func (n *Normalizer) collect(node any, at manifest.Pointer, root bool, report func(fieldKey, occurrence)) {
	switch v := node.(type) {
	case map[string]any:
		componentType := manifest.ComponentType(v)
		fields := n.linkable[componentType]

		for _, key := range manifest.SortedKeys(v) {
			if root && skippedRootKeys[key] {
				continue
			}

			if slices.Contains(fields, key) {
				if !isLinkedReference(v[key]) {
					report(fieldKey{componentType: componentType, field: key}, occurrence{
						owner:       v,
						field:       key,
						value:       v[key],
						fingerprint: manifest.Fingerprint(v[key]),
						at:          at.Child(key),
					})
				}

				continue
			}

			n.collect(v[key], at.Child(key), false, report)
		}
	case []any:
		for i, item := range v {
			n.collect(item, at.Child(fmt.Sprint(i)), false, report)
		}
	}
}

// link rewrites occurrences of one (type, field) pair. An existing linked
// definition always wins; otherwise the strictly most frequent value seen at
// least twice is promoted.
func (n *Normalizer) link(key fieldKey, occs []occurrence, linked map[string]any, res *Result) {
	ptr := key.pointer()

	byType, _ := linked[key.componentType].(map[string]any)
	if existing, ok := byType[key.field]; ok {
		fp := manifest.Fingerprint(existing)

		for _, occ := range occs {
			if occ.fingerprint == fp && manifest.Equal(existing, occ.value) {
				n.rewrite(occ, ptr, res)
			}
		}

		return
	}

	groups := groupOccurrences(occs)

	winner, ok := mostFrequent(groups)
	if !ok {
		return
	}

	if len(winner.items) < 2 {
		return
	}

	if tied(groups, winner) {
		res.Diagnostics.AddInfo(CodeTie,
			fmt.Sprintf("several values share the highest frequency (%d); none promoted", len(winner.items)),
			key.componentType, ptr.Location())

		return
	}

	first, _ := common.First(winner.items)

	if byType == nil {
		byType = make(map[string]any)
		linked[key.componentType] = byType
	}

	byType[key.field] = manifest.DeepCopy(first.value)

	for _, occ := range winner.items {
		n.rewrite(occ, ptr, res)
	}

	res.Diagnostics.AddInfo(CodeLinked,
		fmt.Sprintf("%d occurrences linked to %s", len(winner.items), ptr.String()),
		key.componentType, ptr.Location())

	n.logger.Debug("promoted linked definition",
		zap.String("ref", ptr.String()),
		zap.Int("occurrences", len(winner.items)),
	)
}

func (n *Normalizer) rewrite(occ occurrence, ptr manifest.Pointer, res *Result) {
	occ.owner[occ.field] = manifest.NewReference(ptr)
	res.References++

	n.logger.Debug("linked field rewritten", zap.String("at", occ.at.Location()), zap.String("ref", ptr.String()))
}

// groupOccurrences buckets occurrences by fingerprint and confirms
// membership structurally, so colliding fingerprints never merge values.
func groupOccurrences(occs []occurrence) []*group {
	var groups []*group

	index := make(map[string][]*group)

	for _, occ := range occs {
		i := slices.IndexFunc(index[occ.fingerprint], func(g *group) bool {
			return manifest.Equal(g.items[0].value, occ.value)
		})

		var g *group
		if i >= 0 {
			g = index[occ.fingerprint][i]
		} else {
			g = &group{fingerprint: occ.fingerprint}
			index[occ.fingerprint] = append(index[occ.fingerprint], g)
			groups = append(groups, g)
		}

		g.items = append(g.items, occ)
	}

	return groups
}

// mostFrequent returns the largest group, the earliest one on equal size.
func mostFrequent(groups []*group) (*group, bool) {
	best, ok := common.First(groups)
	if !ok {
		return nil, false
	}

	for _, g := range groups[1:] {
		if len(g.items) > len(best.items) {
			best = g
		}
	}

	return best, true
}

func tied(groups []*group, winner *group) bool {
	for _, g := range groups {
		if g != winner && len(g.items) == len(winner.items) {
			return true
		}
	}

	return false
}

// isLinkedReference reports whether v already points into definitions.linked.
func isLinkedReference(v any) bool {
	ref, ok := manifest.AsReference(v)
	if !ok {
		return false
	}

	prefix := manifest.NewPointer(manifest.KeyDefinitions, manifest.KeyLinked).String() + "/"

	return strings.HasPrefix(ref, prefix)
}
