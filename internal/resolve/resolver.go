package resolve

import (
	"fmt"
	"slices"
	"strconv"

	"go.uber.org/zap"

	"manifest-pipeline/internal/manifest"
	"manifest-pipeline/internal/match"
)

// Config holds configuration for preprocessing.
type Config struct {
	// PropagateParameters enables the $parameters inheritance step.
	PropagateParameters bool
	// InferDefaultTypes assigns default component types to untyped mappings
	// at well-known positions.
	InferDefaultTypes bool
}

// DefaultConfig returns the default preprocessing configuration.
func DefaultConfig() Config {
	return Config{
		PropagateParameters: true,
		InferDefaultTypes:   true,
	}
}

// Resolver expands references and propagates parameters.
// A Resolver holds no per-document state and is safe for concurrent use.
type Resolver struct {
	config Config
	logger *zap.Logger
}

// NewResolver creates a new Resolver. A nil logger disables logging.
func NewResolver(config Config, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Resolver{config: config, logger: logger}
}

// Preprocess returns a resolved copy of doc. The input is never mutated.
func (r *Resolver) Preprocess(doc map[string]any) (map[string]any, error) {
	rs := &refState{
		root:   doc,
		active: make(map[string]bool),
		logger: r.logger,
	}

	resolved, err := rs.resolve(doc, manifest.Pointer{})
	if err != nil {
		return nil, err
	}

	out, _ := resolved.(map[string]any)
	if !r.config.PropagateParameters {
		return out, nil
	}

	t := &transformer{inferTypes: r.config.InferDefaultTypes}

	return t.propagate("", out, nil), nil
}

// refState tracks one resolution run. Targets are always looked up in the
// original document, so resolution order never changes the outcome.
type refState struct {
	root   map[string]any
	active map[string]bool
	chain  []string
	logger *zap.Logger
}

// resolve returns a copy of node with every reference expanded. New maps and
// slices are built at every level so no two embeddings share storage.
func (s *refState) resolve(node any, at manifest.Pointer) (any, error) {
	switch n := node.(type) {
	case map[string]any:
		if raw, ok := n[manifest.KeyRef]; ok {
			return s.resolveRefNode(n, raw, at)
		}

		out := make(map[string]any, len(n))

		for _, key := range manifest.SortedKeys(n) {
			v, err := s.resolve(n[key], at.Child(key))
			if err != nil {
				return nil, err
			}

			out[key] = v
		}

		return out, nil
	case []any:
		out := make([]any, len(n))

		for i, item := range n {
			v, err := s.resolve(item, at.Child(strconv.Itoa(i)))
			if err != nil {
				return nil, err
			}

			out[i] = v
		}

		return out, nil
	case string:
		if manifest.IsPointer(n) {
			return s.follow(n, at)
		}

		return n, nil
	default:
		return n, nil
	}
}

func (s *refState) resolveRefNode(n map[string]any, raw any, at manifest.Pointer) (any, error) {
	ref, ok := raw.(string)
	if !ok {
		return nil, &ReferenceResolutionError{Ref: fmt.Sprint(raw), At: at.Location(), Err: ErrRefNotString}
	}

	target, err := s.follow(ref, at)
	if err != nil {
		return nil, err
	}

	siblings := make(map[string]any, len(n)-1)

	for _, key := range manifest.SortedKeys(n) {
		if key == manifest.KeyRef {
			continue
		}

		v, err := s.resolve(n[key], at.Child(key))
		if err != nil {
			return nil, err
		}

		siblings[key] = v
	}

	targetMap, ok := target.(map[string]any)
	if !ok {
		if len(siblings) > 0 {
			s.logger.Warn("reference target is not a mapping, sibling keys dropped",
				zap.String("ref", ref),
				zap.String("at", at.Location()),
				zap.Strings("dropped", manifest.SortedKeys(siblings)),
			)
		}

		return target, nil
	}

	for k, v := range siblings {
		targetMap[k] = v
	}

	return targetMap, nil
}

// follow resolves the target of ref, detecting cycles on the active path.
func (s *refState) follow(ref string, at manifest.Pointer) (any, error) {
	p, err := manifest.ParsePointer(ref)
	if err != nil {
		return nil, &ReferenceResolutionError{Ref: ref, At: at.Location(), Err: err}
	}

	key := p.String()
	if s.active[key] {
		chain := append(slices.Clone(s.chain), key)
		return nil, &CyclicReferenceError{Ref: ref, Chain: chain}
	}

	target, ok := manifest.Lookup(s.root, p)
	if !ok {
		return nil, &ReferenceResolutionError{
			Ref:        ref,
			At:         at.Location(),
			Suggestion: s.suggest(p),
			Err:        ErrTargetNotFound,
		}
	}

	s.active[key] = true
	s.chain = append(s.chain, key)

	defer func() {
		delete(s.active, key)
		s.chain = s.chain[:len(s.chain)-1]
	}()

	s.logger.Debug("resolving reference", zap.String("ref", ref), zap.String("at", at.Location()))

	return s.resolve(target, p)
}

// suggest replaces the first missing mapping key of p with the closest
// existing key. It returns "" when no single key is close enough.
func (s *refState) suggest(p manifest.Pointer) string {
	for i, seg := range p.Segments {
		parent, _ := manifest.Lookup(s.root, manifest.NewPointer(p.Segments[:i]...))

		m, ok := parent.(map[string]any)
		if !ok {
			return ""
		}

		if _, ok := m[seg]; ok {
			continue
		}

		best, ok := match.Suggest(seg, manifest.SortedKeys(m))
		if !ok {
			return ""
		}

		segments := slices.Clone(p.Segments)
		segments[i] = best

		return manifest.NewPointer(segments...).String()
	}

	return ""
}
