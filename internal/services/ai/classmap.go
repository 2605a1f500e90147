package ai

import (
	"sort"
	"strconv"
	"strings"

	"surveillance/internal/models"
)

// ClassMap is the id → role table built once from the detector's class names.
type ClassMap struct {
	names map[int]string
	roles map[int]models.Role
}

// NewClassMap assigns the person role to classes named in persons and the
// weapon role to classes named in weapons. Names match case-insensitively.
func NewClassMap(names map[int]string, persons, weapons []string) *ClassMap {
	want := make(map[string]models.Role, len(persons)+len(weapons))
	for _, n := range persons {
		want[normalizeClass(n)] = models.RolePerson
	}
	for _, n := range weapons {
		want[normalizeClass(n)] = models.RoleWeapon
	}

	cm := &ClassMap{
		names: make(map[int]string, len(names)),
		roles: make(map[int]models.Role),
	}
	for id, name := range names {
		cm.names[id] = name
		if role, ok := want[normalizeClass(name)]; ok {
			cm.roles[id] = role
		}
	}
	return cm
}

func normalizeClass(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Role returns the role of class id, RoleOther when it has none.
func (cm *ClassMap) Role(id int) models.Role {
	return cm.roles[id]
}

// Name returns the class name, or "class_<id>" for unknown ids.
func (cm *ClassMap) Name(id int) string {
	if name, ok := cm.names[id]; ok {
		return name
	}
	return "class_" + strconv.Itoa(id)
}

// OfInterest returns the ids with a person or weapon role, ascending.
func (cm *ClassMap) OfInterest() []int {
	ids := make([]int, 0, len(cm.roles))
	for id := range cm.roles {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Roles returns a copy of the role table.
func (cm *ClassMap) Roles() map[int]models.Role {
	out := make(map[int]models.Role, len(cm.roles))
	for id, r := range cm.roles {
		out[id] = r
	}
	return out
}
