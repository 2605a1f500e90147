package ai

import (
	"reflect"
	"testing"

	"surveillance/internal/models"
)

func TestClassMap_Roles(t *testing.T) {
	names := map[int]string{1: "person", 3: "car", 49: "knife", 87: "Scissors"}
	cm := NewClassMap(names, []string{"Person"}, []string{"knife", " scissors "})

	tests := []struct {
		id   int
		want models.Role
	}{
		{1, models.RolePerson},
		{3, models.RoleOther},
		{49, models.RoleWeapon},
		{87, models.RoleWeapon},
		{999, models.RoleOther},
	}
	for _, tt := range tests {
		if got := cm.Role(tt.id); got != tt.want {
			t.Errorf("Role(%d) = %v, want %v", tt.id, got, tt.want)
		}
	}

	if got := cm.OfInterest(); !reflect.DeepEqual(got, []int{1, 49, 87}) {
		t.Errorf("OfInterest() = %v, want [1 49 87]", got)
	}
}

func TestClassMap_Name(t *testing.T) {
	cm := NewClassMap(map[int]string{49: "knife"}, nil, nil)

	if got := cm.Name(49); got != "knife" {
		t.Errorf("Name(49) = %q, want knife", got)
	}
	if got := cm.Name(7); got != "class_7" {
		t.Errorf("Name(7) = %q, want class_7", got)
	}
	if len(cm.OfInterest()) != 0 {
		t.Errorf("Expected no classes of interest, got %v", cm.OfInterest())
	}
}

func TestClassMap_RolesIsACopy(t *testing.T) {
	cm := NewClassMap(map[int]string{1: "person"}, []string{"person"}, nil)

	roles := cm.Roles()
	roles[1] = models.RoleWeapon
	if cm.Role(1) != models.RolePerson {
		t.Error("Mutating Roles() result changed the class map")
	}
}
