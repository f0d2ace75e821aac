package ioc

// bindingTable maps abstract ids to concrete ids. Unbound ids resolve to
// themselves.
type bindingTable map[string]string

func (b bindingTable) bind(id, concrete string) {
	b[id] = concrete
}

func (b bindingTable) unbind(id string) {
	delete(b, id)
}

func (b bindingTable) bound(id string) bool {
	_, ok := b[id]
	return ok
}

func (b bindingTable) resolve(id string) string {
	if concrete, ok := b[id]; ok {
		return concrete
	}
	return id
}

// instanceRegistry holds at most one instance per resolved id.
type instanceRegistry map[string]any

func (r instanceRegistry) set(id string, instance any) {
	r[id] = instance
}

func (r instanceRegistry) get(id string) (any, bool) {
	instance, ok := r[id]
	return instance, ok
}

func (r instanceRegistry) remove(ids ...string) {
	for _, id := range ids {
		delete(r, id)
	}
}
