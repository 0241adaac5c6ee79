package roles

import "strings"

// Clone returns a copy that shares no backing array with p.
func (p Permissions) Clone() Permissions {
	p.CustomPermissions = append([]string{}, p.CustomPermissions...)
	return p
}

// Has reports whether label is one of the custom permissions.
func (p Permissions) Has(label string) bool {
	for _, c := range p.CustomPermissions {
		if c == label {
			return true
		}
	}
	return false
}

// Flags lists the enabled fixed flags in display order.
func (p Permissions) Flags() []string {
	flags := make([]string, 0, 3)
	if p.Read {
		flags = append(flags, "Read")
	}
	if p.Write {
		flags = append(flags, "Write")
	}
	if p.Delete {
		flags = append(flags, "Delete")
	}
	return flags
}

// Summary renders the set the way the role list shows it,
// e.g. "Read Write; Custom: export, approve".
func (p Permissions) Summary() string {
	summary := strings.Join(p.Flags(), " ")
	if len(p.CustomPermissions) == 0 {
		return summary
	}
	custom := "Custom: " + strings.Join(p.CustomPermissions, ", ")
	if summary == "" {
		return custom
	}
	return summary + "; " + custom
}

// AddCustomPermission returns p with label appended. Empty or already
// present labels leave the set unchanged.
func AddCustomPermission(p Permissions, label string) Permissions {
	label = strings.TrimSpace(label)
	if label == "" || p.Has(label) {
		return p
	}
	out := p.Clone()
	out.CustomPermissions = append(out.CustomPermissions, label)
	return out
}

// RemoveCustomPermission returns a copy of p without label. The label is
// trimmed the same way AddCustomPermission trims it.
func RemoveCustomPermission(p Permissions, label string) Permissions {
	label = strings.TrimSpace(label)
	out := p.Clone()
	kept := out.CustomPermissions[:0]
	for _, c := range out.CustomPermissions {
		if c != label {
			kept = append(kept, c)
		}
	}
	out.CustomPermissions = kept
	return out
}

// normalized drops empty labels and later duplicates, keeping order.
func (p Permissions) normalized() Permissions {
	out := p
	out.CustomPermissions = make([]string, 0, len(p.CustomPermissions))
	for _, c := range p.CustomPermissions {
		out = AddCustomPermission(out, c)
	}
	return out
}
