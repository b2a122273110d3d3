package validation

import "testing"

func TestValidators(t *testing.T) {
	cases := []struct {
		name  string
		run   func(Violations)
		field string
		code  string
	}{
		{"required blank", func(v Violations) { Required("name", "  ", v) }, "name", "required"},
		{"required set", func(v Violations) { Required("name", "Acme", v) }, "", ""},
		{"min int below", func(v Violations) { MinInt("seats", 0, 1, v) }, "seats", "too_small"},
		{"min int at bound", func(v Violations) { MinInt("seats", 1, 1, v) }, "", ""},
		{"positive zero", func(v Violations) { PositiveFloat("prepayPercent", 0, v) }, "prepayPercent", "must_be_positive"},
		{"positive negative", func(v Violations) { PositiveFloat("prepayPercent", -5, v) }, "prepayPercent", "must_be_positive"},
		{"positive ok", func(v Violations) { PositiveFloat("prepayPercent", 25, v) }, "", ""},
		{"range below", func(v Violations) { RangeFloat("discount", -1, 0, 100, v) }, "discount", "out_of_range"},
		{"range above", func(v Violations) { RangeFloat("discount", 101, 0, 100, v) }, "discount", "out_of_range"},
		{"range at bounds", func(v Violations) { RangeFloat("discount", 100, 0, 100, v) }, "", ""},
		{"one of unknown", func(v Violations) { OneOf("kind", "INVOICE", []string{"NET", "PREPAY"}, v) }, "kind", "unknown_value"},
		{"one of known", func(v Violations) { OneOf("kind", "NET", []string{"NET", "PREPAY"}, v) }, "", ""},
		{"one of empty left to required", func(v Violations) { OneOf("kind", "", []string{"NET"}, v) }, "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := Violations{}
			tc.run(v)
			if tc.field == "" {
				if !v.Empty() {
					t.Errorf("expected no violations, got %v", v)
				}
				return
			}
			if got := v[tc.field]; got != tc.code {
				t.Errorf("violation on %s = %q, want %q", tc.field, got, tc.code)
			}
		})
	}
}
