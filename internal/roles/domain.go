package roles

import "encoding/json"

// Permissions is the permission set embedded in a Role.
type Permissions struct {
	Read              bool     `json:"read"`
	Write             bool     `json:"write"`
	Delete            bool     `json:"delete"`
	CustomPermissions []string `json:"customPermissions"`
}

// Role is a named, persisted bundle of permissions.
type Role struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Permissions Permissions `json:"permissions"`
}

// MarshalJSON always writes customPermissions as an array.
func (p Permissions) MarshalJSON() ([]byte, error) {
	type alias Permissions
	out := alias(p)
	if out.CustomPermissions == nil {
		out.CustomPermissions = []string{}
	}
	return json.Marshal(out)
}

// UnmarshalJSON treats a null or absent customPermissions as empty.
func (p *Permissions) UnmarshalJSON(data []byte) error {
	type alias Permissions
	var in alias
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if in.CustomPermissions == nil {
		in.CustomPermissions = []string{}
	}
	*p = Permissions(in)
	return nil
}

func (r Role) clone() Role {
	r.Permissions = r.Permissions.Clone()
	return r
}

func cloneRoles(in []Role) []Role {
	out := make([]Role, len(in))
	for i, r := range in {
		out[i] = r.clone()
	}
	return out
}
