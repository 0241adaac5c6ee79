package users

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// User is a named account assigned to one role by id.
type User struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	RoleID int64  `json:"roleId"`
}

// Summary pairs a user with the display name of its role.
type Summary struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	RoleID   int64  `json:"roleId"`
	RoleName string `json:"roleName"`
}

// RoleOption is one entry of the role assignment choice list.
type RoleOption struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// UnmarshalJSON accepts roleId as a number or a numeric string.
func (u *User) UnmarshalJSON(data []byte) error {
	type alias User
	aux := struct {
		*alias
		RoleID json.RawMessage `json:"roleId"`
	}{alias: (*alias)(u)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	id, err := parseRoleRef(aux.RoleID)
	if err != nil {
		return err
	}
	u.RoleID = id
	return nil
}

// parseRoleRef decodes a role reference. Absent, null, empty and
// non-numeric strings all map to zero, which never matches a role.
func parseRoleRef(raw json.RawMessage) (int64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return 0, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, err
		}
		id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return 0, nil
		}
		return id, nil
	}
	var id int64
	if err := json.Unmarshal(raw, &id); err != nil {
		return 0, err
	}
	return id, nil
}
