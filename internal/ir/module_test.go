package ir

import "testing"

func TestModule_GlobalLookupAndAddress(t *testing.T) {
	five := Const(I64, 5)
	m := &Module{Globals: []*Global{
		{Name: "counter", Type: I64, Init: &five},
		{Name: "_ZTI4Base", Type: Ptr, TypeInfo: true},
	}}
	cases := []struct {
		name     string
		found    bool
		typeInfo bool
	}{
		{"counter", true, false},
		{"_ZTI4Base", true, true},
		{"missing", false, false},
	}
	for _, tc := range cases {
		g := m.Global(tc.name)
		if (g != nil) != tc.found {
			t.Errorf("Global(%q) = %+v, found want %v", tc.name, g, tc.found)
			continue
		}
		if g != nil && g.TypeInfo != tc.typeInfo {
			t.Errorf("Global(%q).TypeInfo = %v", tc.name, g.TypeInfo)
		}

		addr := GlobalAddr(tc.name)
		if addr.Kind != OperandGlobal || addr.Type != Ptr || addr.Name != tc.name {
			t.Errorf("GlobalAddr(%q) = %+v", tc.name, addr)
		}
		if addr.IsNull() {
			t.Errorf("GlobalAddr(%q) reports null", tc.name)
		}
	}
	if (*Module)(nil).Global("counter") != nil {
		t.Error("nil module has globals")
	}
}
