package identity

// Router maps a source user to the identity that acts on their behalf.
// Built once at startup from the credential roster; pure lookup after
// that. Absence is not an error: most source authors have no dedicated
// proxy and fall through to the default identity.
type Router struct {
	byUser map[string]*Identity
	def    *Identity
}

// NewRouter builds a router over the roster. def must be the swarm's
// default (master) identity.
func NewRouter(dedicated []*Identity, def *Identity) *Router {
	byUser := make(map[string]*Identity, len(dedicated))
	for _, id := range dedicated {
		if id.IsDefault {
			continue
		}
		byUser[id.UserID] = id
	}
	return &Router{byUser: byUser, def: def}
}

// Route returns the identity registered for the source user, or the
// default identity when none exists.
func (r *Router) Route(sourceUserID string) *Identity {
	if id, ok := r.byUser[sourceUserID]; ok {
		return id
	}
	return r.def
}

// Default returns the default identity.
func (r *Router) Default() *Identity {
	return r.def
}

// Dedicated returns the non-default identities in the roster.
func (r *Router) Dedicated() []*Identity {
	out := make([]*Identity, 0, len(r.byUser))
	for _, id := range r.byUser {
		out = append(out, id)
	}
	return out
}

// ProxyUserID returns the backup-guild account id of the proxy for a
// source user, when one exists. Used by mention rewriting.
func (r *Router) ProxyUserID(sourceUserID string) (string, bool) {
	id, ok := r.byUser[sourceUserID]
	if !ok {
		return "", false
	}
	return id.SelfID(), true
}

// All returns every identity including the default.
func (r *Router) All() []*Identity {
	out := r.Dedicated()
	return append(out, r.def)
}
