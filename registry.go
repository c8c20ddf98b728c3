// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package romp

import (
	"fmt"
	"sync"
)

// Registry is an in-memory Resolver, grounded on birpc's function registry:
// a RWMutex-guarded map keyed by object id instead of by method name, since
// here the wire already separates "which object" (object_id) from "which
// method" (the decoded Call).
type Registry struct {
	mu      sync.RWMutex
	objects map[uint16]any
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{objects: make(map[uint16]any)}
}

// Register binds id to obj, replacing any previous binding.
func (r *Registry) Register(id uint16, obj any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.objects[id] = obj
}

// Unregister removes id's binding, if any.
func (r *Registry) Unregister(id uint16) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.objects, id)
}

// Resolve implements Resolver.
func (r *Registry) Resolve(objectID uint16) (any, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	obj, ok := r.objects[objectID]
	if !ok {
		return nil, fmt.Errorf("romp: no object registered for id %d", objectID)
	}
	return obj, nil
}
