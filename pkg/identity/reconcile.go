// Package identity derives stable logical report IDs from records that may or
// may not carry one.
package identity

import (
	"crypto/sha256"
	"errors"
	"hash"
	"strings"

	"github.com/google/uuid"
)

// Source records which rule produced a reconciled ID.
type Source string

const (
	SourceEmbedded  Source = "embedded"
	SourceNativeKey Source = "native_key"
	SourceDerived   Source = "derived"
	SourceRandom    Source = "random"
)

// ErrNoIdentity is returned when neither an embedded ID nor a native key is available.
var ErrNoIdentity = errors.New("record has neither an embedded id nor a native key")

// IntegrityEvent describes a reconciliation that could not be made deterministic.
type IntegrityEvent struct {
	NativeKey string
	Assigned  uuid.UUID
	Err       error
}

// Reconciler turns (native key, embedded id) pairs into logical IDs.
type Reconciler struct {
	newHash     func() hash.Hash
	onIntegrity func(IntegrityEvent)
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithIntegrityHook receives every random-fallback event.
func WithIntegrityHook(hook func(IntegrityEvent)) Option {
	return func(r *Reconciler) {
		if hook != nil {
			r.onIntegrity = hook
		}
	}
}

// WithHash swaps the digest constructor. Only tests need this.
func WithHash(fn func() hash.Hash) Option {
	return func(r *Reconciler) {
		if fn != nil {
			r.newHash = fn
		}
	}
}

// NewReconciler builds a SHA-256 based reconciler.
func NewReconciler(opts ...Option) *Reconciler {
	r := &Reconciler{
		newHash:     sha256.New,
		onIntegrity: func(IntegrityEvent) {},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Reconcile returns the logical ID for a record. An embedded UUID always wins,
// then a UUID-shaped native key, then a digest of the native key.
func (r *Reconciler) Reconcile(nativeKey, embedded string) (uuid.UUID, Source, error) {
	if id, err := uuid.Parse(strings.TrimSpace(embedded)); err == nil {
		return id, SourceEmbedded, nil
	}
	key := strings.TrimSpace(nativeKey)
	if key == "" {
		return uuid.Nil, "", ErrNoIdentity
	}
	if id, err := uuid.Parse(key); err == nil {
		return id, SourceNativeKey, nil
	}

	id, err := r.derive(key)
	if err != nil {
		fallback := uuid.New()
		r.onIntegrity(IntegrityEvent{NativeKey: key, Assigned: fallback, Err: err})
		return fallback, SourceRandom, nil
	}
	return id, SourceDerived, nil
}

// ReconcileString is Reconcile formatted as the canonical lower-case literal.
func (r *Reconciler) ReconcileString(nativeKey, embedded string) (string, error) {
	id, _, err := r.Reconcile(nativeKey, embedded)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func (r *Reconciler) derive(key string) (uuid.UUID, error) {
	h := r.newHash()
	if _, err := h.Write([]byte(key)); err != nil {
		return uuid.Nil, err
	}
	sum := h.Sum(nil)
	if len(sum) < 16 {
		return uuid.Nil, errors.New("digest shorter than 16 bytes")
	}
	var id uuid.UUID
	copy(id[:], sum[:16])
	return id, nil
}
