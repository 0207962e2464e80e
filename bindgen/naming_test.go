package bindgen

import "testing"

func TestClassGoName(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"java.util.HashMap", "HashMap"},
		{"java/util/ArrayList", "ArrayList"},
		{"auth.AuthenticationExceptionDenied", "AuthenticationExceptionDenied"},
		{"a.Outer$Inner", "OuterInner"},
		{"Bare", "Bare"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassGoName(tt.name)
			if got != tt.expected {
				t.Errorf("ClassGoName(%q) = %q, want %q", tt.name, got, tt.expected)
			}
		})
	}
}

func TestQualifiedGoName(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"java.util.HashMap", "JavaUtilHashMap"},
		{"auth/HttpAuth", "AuthHttpAuth"},
		{"a.Outer$Inner", "AOuterInner"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := QualifiedGoName(tt.name)
			if got != tt.expected {
				t.Errorf("QualifiedGoName(%q) = %q, want %q", tt.name, got, tt.expected)
			}
		})
	}
}

func TestMemberGoName(t *testing.T) {
	tests := []struct {
		class, member string
		expected      string
	}{
		{"HashMap", "put", "HashMapPut"},
		{"HashMap", "<init>", "NewHashMap"},
		{"Authenticated", "accountId", "AuthenticatedAccountId"},
		{"Thing", "value_of", "ThingValueOf"},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			got := MemberGoName(tt.class, tt.member)
			if got != tt.expected {
				t.Errorf("MemberGoName(%q, %q) = %q, want %q", tt.class, tt.member, got, tt.expected)
			}
		})
	}
}

func TestNamerNumbersRepeats(t *testing.T) {
	n := newNamer()
	for i, want := range []string{"Get", "Get2", "Get3"} {
		if got := n.claim("Get"); got != want {
			t.Errorf("claim #%d = %q, want %q", i, got, want)
		}
	}
}
