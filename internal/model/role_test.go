package model

import "testing"

func TestRoleGrantsArea(t *testing.T) {
	tests := []struct {
		role string
		area string
		want bool
	}{
		{RoleAdmin, AreaServerRoom, true},
		{RoleAdmin, AreaFinance, true},
		{RoleManager, AreaExecutiveFloor, true},
		{RoleManager, AreaServerRoom, false},
		{RoleEmployee, AreaHRDepartment, true},
		{RoleEmployee, AreaExecutiveFloor, false},
		{RoleUser, AreaMainEntrance, true},
		{RoleUser, AreaHRDepartment, false},
		{"nonexistent", AreaMainEntrance, false},
	}

	for _, test := range tests {
		t.Run(test.role+"/"+test.area, func(t *testing.T) {
			if got := RoleGrantsArea(test.role, test.area); got != test.want {
				t.Fatalf("RoleGrantsArea(%q, %q) = %v, want %v", test.role, test.area, got, test.want)
			}
		})
	}
}

func TestAnyRoleGrantsArea(t *testing.T) {
	if !AnyRoleGrantsArea([]string{RoleUser, RoleManager}, AreaExecutiveFloor) {
		t.Fatal("manager in role set should grant executive floor")
	}
	if AnyRoleGrantsArea([]string{RoleUser, RoleEmployee}, AreaServerRoom) {
		t.Fatal("server room must require admin")
	}
	if AnyRoleGrantsArea(nil, AreaMainEntrance) {
		t.Fatal("empty role set grants nothing")
	}
}
